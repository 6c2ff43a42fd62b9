package mealplan

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

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
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	var req CreatePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, api.ErrBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		api.HandleError(w, api.NewValidationError(err.Error()))
		return
	}

	plan, err := h.svc.Create(r.Context(), userID, &req)
	if err != nil {
		if errors.Is(err, ErrInvalidEntry) {
			api.HandleError(w, api.NewValidationError(err.Error()))
			return
		}
		slog.Error("creating meal plan", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	api.JSON(w, http.StatusCreated, plan)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		limit, _ = strconv.Atoi(l)
	}

	plans, err := h.svc.List(r.Context(), userID, limit)
	if err != nil {
		slog.Error("listing meal plans", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	api.JSON(w, http.StatusOK, plans)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}
	plan, ok := h.fetchPlan(w, r, userID)
	if !ok {
		return
	}

	api.JSON(w, http.StatusOK, plan)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}
	plan, ok := h.fetchPlan(w, r, userID)
	if !ok {
		return
	}

	var req UpdatePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, api.ErrBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		api.HandleError(w, api.NewValidationError(err.Error()))
		return
	}

	updated, err := h.svc.Update(r.Context(), plan, &req)
	if err != nil {
		if errors.Is(err, ErrInvalidEntry) {
			api.HandleError(w, api.NewValidationError(err.Error()))
			return
		}
		slog.Error("updating meal plan", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	api.JSON(w, http.StatusOK, updated)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}
	plan, ok := h.fetchPlan(w, r, userID)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), plan.ID, userID); err != nil {
		slog.Error("deleting meal plan", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	api.JSONMessage(w, http.StatusOK, "meal plan deleted")
}

func (h *Handler) fetchPlan(w http.ResponseWriter, r *http.Request, userID uuid.UUID) (*Plan, bool) {
	planID, err := uuid.Parse(chi.URLParam(r, "planID"))
	if err != nil {
		api.HandleError(w, api.NewBadRequestError("invalid plan ID"))
		return nil, false
	}

	plan, err := h.svc.Get(r.Context(), planID, userID)
	if err != nil {
		slog.Error("fetching meal plan", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return nil, false
	}
	if plan == nil {
		api.HandleError(w, api.NewNotFoundError("meal plan not found"))
		return nil, false
	}
	return plan, true
}

func requestUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	claims := auth.GetUserClaims(r.Context())
	if claims == nil {
		api.HandleError(w, api.ErrUnauthorized)
		return uuid.Nil, false
	}
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		api.HandleError(w, api.ErrUnauthorized)
		return uuid.Nil, false
	}
	return id, true
}
