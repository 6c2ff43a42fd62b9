package tools

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mysticbob/nochickenleftbehind/internal/api"
	"github.com/mysticbob/nochickenleftbehind/internal/auth"
)

type Handler struct {
	registry *Registry
}

func NewHandler(registry *Registry) *Handler {
	return &Handler{registry: registry}
}

// List returns the descriptors of all registered tools.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	api.JSON(w, http.StatusOK, h.registry.List())
}

// Call invokes the tool named in the URL with a JSON arguments object.
func (h *Handler) Call(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	name := chi.URLParam(r, "name")
	if name == "" {
		api.HandleError(w, api.NewBadRequestError("missing tool name"))
		return
	}

	args := map[string]any{}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&args); err != nil {
			api.HandleError(w, api.ErrBadRequest)
			return
		}
	}

	result, err := h.registry.Call(r.Context(), name, userID, args)
	if err != nil {
		handleToolError(w, name, err)
		return
	}

	api.JSON(w, http.StatusOK, map[string]any{
		"tool":   name,
		"result": result,
	})
}

func handleToolError(w http.ResponseWriter, name string, err error) {
	var toolErr *ToolError
	if !errors.As(err, &toolErr) {
		slog.Error("calling tool", "tool", name, "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	switch toolErr.Code {
	case CodeUnknown:
		api.HandleError(w, api.NewNotFoundError(toolErr.Message))
	case CodeValidation:
		api.HandleError(w, api.NewValidationError(toolErr.Message))
	default:
		slog.Error("tool execution failed", "tool", name, "error", toolErr)
		api.HandleError(w, api.NewBadRequestError(toolErr.Message))
	}
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
