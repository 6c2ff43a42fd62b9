package assistant

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/mysticbob/nochickenleftbehind/internal/api"
	"github.com/mysticbob/nochickenleftbehind/internal/auth"
	"github.com/mysticbob/nochickenleftbehind/internal/conversation"
	inats "github.com/mysticbob/nochickenleftbehind/internal/nats"
)

type Handler struct {
	store     *conversation.Store
	publisher *inats.Publisher
	validate  *validator.Validate
}

func NewHandler(store *conversation.Store, publisher *inats.Publisher) *Handler {
	return &Handler{
		store:     store,
		publisher: publisher,
		validate:  validator.New(),
	}
}

type ChatMessageRequest struct {
	Message string `json:"message" validate:"required,min=1,max=4000"`
}

// Chat accepts a message and queues it for the worker. Replies arrive on the
// outbound subject; the HTTP response only carries the request id.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	var req ChatMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, api.ErrBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		api.HandleError(w, api.NewValidationError(err.Error()))
		return
	}

	msg := inats.ChatRequest{
		RequestID:  uuid.NewString(),
		UserID:     userID,
		Message:    req.Message,
		ReceivedAt: time.Now().UTC(),
	}
	if err := h.publisher.PublishChatRequest(r.Context(), msg); err != nil {
		slog.Error("queueing chat request", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	api.JSON(w, http.StatusAccepted, map[string]string{
		"request_id": msg.RequestID,
		"status":     "queued",
	})
}

func (h *Handler) Suggestions(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	api.JSON(w, http.StatusOK, map[string]any{
		"suggestions": h.store.SuggestNextActions(userID.String()),
	})
}

// Context returns the recent conversational window for the user.
func (h *Handler) Context(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	uid := userID.String()
	api.JSON(w, http.StatusOK, map[string]any{
		"recent_turns": h.store.RecentTurns(uid, 0),
		"topics":       h.store.CurrentTopics(uid),
		"preferences":  h.store.GetContext(uid).Preferences,
	})
}

type PreferenceRequest struct {
	Key   string `json:"key" validate:"required"`
	Value string `json:"value" validate:"required"`
}

func (h *Handler) SetPreference(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	var req PreferenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, api.ErrBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		api.HandleError(w, api.NewValidationError(err.Error()))
		return
	}

	if err := h.store.SetPreference(userID.String(), req.Key, req.Value); err != nil {
		if errors.Is(err, conversation.ErrUnknownPreferenceKey) || errors.Is(err, conversation.ErrInvalidPreferenceValue) {
			api.HandleError(w, api.NewValidationError(err.Error()))
			return
		}
		slog.Error("setting preference", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	api.JSONMessage(w, http.StatusOK, "preference updated")
}

func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	api.JSON(w, http.StatusOK, h.store.State(userID.String()))
}

func (h *Handler) SetState(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	var delta conversation.StateDelta
	if err := json.NewDecoder(r.Body).Decode(&delta); err != nil {
		api.HandleError(w, api.ErrBadRequest)
		return
	}

	uid := userID.String()
	h.store.SetState(uid, delta)
	api.JSON(w, http.StatusOK, h.store.State(uid))
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
