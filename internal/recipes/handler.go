package recipes

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/mysticbob/nochickenleftbehind/internal/api"
	"github.com/mysticbob/nochickenleftbehind/internal/auth"
)

type Handler struct {
	svc      *Service
	validate *validator.Validate
}

func NewHandler(svc *Service) *Handler {
	return &Handler{
		svc:      svc,
		validate: validator.New(),
	}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserClaims(r.Context())
	if claims == nil {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	var req CreateRecipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, api.ErrBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		api.HandleError(w, api.NewValidationError(err.Error()))
		return
	}

	ownerID, err := uuid.Parse(claims.UserID)
	if err != nil {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	recipe, err := h.svc.Create(r.Context(), ownerID, &req)
	if err != nil {
		slog.Error("creating recipe", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	api.JSON(w, http.StatusCreated, recipe)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserClaims(r.Context())
	if claims == nil {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}
	ownerID, err := uuid.Parse(claims.UserID)
	if err != nil {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	params := DefaultListParams()
	q := r.URL.Query()
	if p := q.Get("page"); p != "" {
		if page, err := strconv.Atoi(p); err == nil && page > 0 {
			params.Page = page
		}
	}
	if ps := q.Get("page_size"); ps != "" {
		if pageSize, err := strconv.Atoi(ps); err == nil && pageSize > 0 && pageSize <= 100 {
			params.PageSize = pageSize
		}
	}
	if ing := q.Get("ingredients"); ing != "" {
		for _, name := range strings.Split(ing, ",") {
			if name = strings.TrimSpace(name); name != "" {
				params.Ingredients = append(params.Ingredients, name)
			}
		}
	}
	params.Tag = q.Get("tag")

	recipes, totalCount, err := h.svc.ListByOwner(r.Context(), ownerID, params)
	if err != nil {
		slog.Error("listing recipes", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	api.JSONPaginated(w, http.StatusOK, recipes, totalCount, params.Page, params.PageSize)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	recipe := GetRecipeFromContext(r.Context())
	if recipe == nil {
		api.HandleError(w, api.ErrNotFound)
		return
	}
	api.JSON(w, http.StatusOK, recipe)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	recipe := GetRecipeFromContext(r.Context())
	if recipe == nil {
		api.HandleError(w, api.ErrNotFound)
		return
	}

	var req UpdateRecipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, api.ErrBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		api.HandleError(w, api.NewValidationError(err.Error()))
		return
	}

	updated, err := h.svc.Update(r.Context(), recipe, &req)
	if err != nil {
		slog.Error("updating recipe", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	api.JSON(w, http.StatusOK, updated)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	recipe := GetRecipeFromContext(r.Context())
	if recipe == nil {
		api.HandleError(w, api.ErrNotFound)
		return
	}

	if err := h.svc.Delete(r.Context(), recipe.ID); err != nil {
		slog.Error("deleting recipe", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	api.JSONMessage(w, http.StatusOK, "recipe deleted successfully")
}

func (h *Handler) Similar(w http.ResponseWriter, r *http.Request) {
	recipe := GetRecipeFromContext(r.Context())
	if recipe == nil {
		api.HandleError(w, api.ErrNotFound)
		return
	}

	limit := 5
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 20 {
			limit = parsed
		}
	}

	similar, err := h.svc.FindSimilar(r.Context(), recipe, limit)
	if err != nil {
		slog.Error("finding similar recipes", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	api.JSON(w, http.StatusOK, similar)
}

func (h *Handler) Rate(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserClaims(r.Context())
	if claims == nil {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}
	recipe := GetRecipeFromContext(r.Context())
	if recipe == nil {
		api.HandleError(w, api.ErrNotFound)
		return
	}

	var req RateRecipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, api.ErrBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		api.HandleError(w, api.NewValidationError(err.Error()))
		return
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	rating, err := h.svc.Rate(r.Context(), recipe.ID, userID, &req)
	if err != nil {
		slog.Error("rating recipe", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	api.JSON(w, http.StatusOK, rating)
}

// OwnershipMiddleware verifies recipe ownership before allowing access.
func (h *Handler) OwnershipMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := auth.GetUserClaims(r.Context())
		if claims == nil {
			api.HandleError(w, api.ErrUnauthorized)
			return
		}

		recipeID, err := uuid.Parse(chi.URLParam(r, "recipeID"))
		if err != nil {
			api.HandleError(w, api.NewBadRequestError("invalid recipe ID"))
			return
		}

		recipe, err := h.svc.GetByID(r.Context(), recipeID)
		if err != nil {
			slog.Error("fetching recipe for ownership check", "error", err)
			api.HandleError(w, api.ErrInternalServer)
			return
		}
		if recipe == nil {
			api.HandleError(w, api.NewNotFoundError("recipe not found"))
			return
		}

		if recipe.OwnerUserID.String() != claims.UserID {
			slog.Warn("ownership violation attempt",
				"recipe_id", recipeID,
				"recipe_owner", recipe.OwnerUserID,
				"requester", claims.UserID,
				"path", r.URL.Path,
				"method", r.Method,
			)
			api.HandleError(w, api.ErrOwnershipViolation)
			return
		}

		ctx := SetRecipeInContext(r.Context(), recipe)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type contextKey string

const recipeCtxKey contextKey = "recipe"

func SetRecipeInContext(ctx context.Context, recipe *Recipe) context.Context {
	return context.WithValue(ctx, recipeCtxKey, recipe)
}

func GetRecipeFromContext(ctx context.Context) *Recipe {
	recipe, _ := ctx.Value(recipeCtxKey).(*Recipe)
	return recipe
}
