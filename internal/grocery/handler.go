package grocery

import (
	"encoding/json"
	"log/slog"
	"net/http"

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

func (h *Handler) CreateList(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	var req CreateListRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, api.ErrBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		api.HandleError(w, api.NewValidationError(err.Error()))
		return
	}

	list, err := h.svc.CreateList(r.Context(), userID, &req)
	if err != nil {
		slog.Error("creating grocery list", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	api.JSON(w, http.StatusCreated, list)
}

func (h *Handler) Lists(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	lists, err := h.svc.Lists(r.Context(), userID)
	if err != nil {
		slog.Error("listing grocery lists", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	api.JSON(w, http.StatusOK, lists)
}

func (h *Handler) GetList(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}
	list, ok := h.fetchList(w, r, userID)
	if !ok {
		return
	}

	api.JSON(w, http.StatusOK, list)
}

func (h *Handler) DeleteList(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}
	list, ok := h.fetchList(w, r, userID)
	if !ok {
		return
	}

	if err := h.svc.DeleteList(r.Context(), list.ID, userID); err != nil {
		slog.Error("deleting grocery list", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	api.JSONMessage(w, http.StatusOK, "grocery list deleted")
}

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}
	list, ok := h.fetchList(w, r, userID)
	if !ok {
		return
	}

	var req AddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, api.ErrBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		api.HandleError(w, api.NewValidationError(err.Error()))
		return
	}

	item, err := h.svc.AddItem(r.Context(), list.ID, &req)
	if err != nil {
		slog.Error("adding grocery item", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	api.JSON(w, http.StatusCreated, item)
}

func (h *Handler) CheckItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}
	list, ok := h.fetchList(w, r, userID)
	if !ok {
		return
	}

	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		api.HandleError(w, api.NewBadRequestError("invalid item ID"))
		return
	}

	var req CheckItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, api.ErrBadRequest)
		return
	}

	if err := h.svc.CheckItem(r.Context(), itemID, list.ID, req.Checked); err != nil {
		slog.Error("checking grocery item", "error", err)
		api.HandleError(w, api.NewNotFoundError("grocery item not found"))
		return
	}

	api.JSONMessage(w, http.StatusOK, "grocery item updated")
}

func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}
	list, ok := h.fetchList(w, r, userID)
	if !ok {
		return
	}

	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		api.HandleError(w, api.NewBadRequestError("invalid item ID"))
		return
	}

	if err := h.svc.DeleteItem(r.Context(), itemID, list.ID); err != nil {
		slog.Error("deleting grocery item", "error", err)
		api.HandleError(w, api.NewNotFoundError("grocery item not found"))
		return
	}

	api.JSONMessage(w, http.StatusOK, "grocery item deleted")
}

func (h *Handler) Regenerate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}
	list, ok := h.fetchList(w, r, userID)
	if !ok {
		return
	}

	var req RegenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, api.ErrBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		api.HandleError(w, api.NewValidationError(err.Error()))
		return
	}

	regenerated, err := h.svc.Regenerate(r.Context(), list, &req)
	if err != nil {
		slog.Error("regenerating grocery list", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	api.JSON(w, http.StatusOK, regenerated)
}

func (h *Handler) fetchList(w http.ResponseWriter, r *http.Request, userID uuid.UUID) (*List, bool) {
	listID, err := uuid.Parse(chi.URLParam(r, "listID"))
	if err != nil {
		api.HandleError(w, api.NewBadRequestError("invalid list ID"))
		return nil, false
	}

	list, err := h.svc.GetList(r.Context(), listID, userID)
	if err != nil {
		slog.Error("fetching grocery list", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return nil, false
	}
	if list == nil {
		api.HandleError(w, api.NewNotFoundError("grocery list not found"))
		return nil, false
	}
	return list, true
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
