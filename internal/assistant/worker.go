package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/mysticbob/nochickenleftbehind/internal/billing"
	"github.com/mysticbob/nochickenleftbehind/internal/conversation"
	"github.com/mysticbob/nochickenleftbehind/internal/metrics"
	inats "github.com/mysticbob/nochickenleftbehind/internal/nats"
	"github.com/mysticbob/nochickenleftbehind/internal/tools"
)

// Completer is the LLM surface the worker needs. Nil means canned replies.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userMessage string) (string, error)
}

// Worker consumes inbound chat messages, runs the assistant pipeline and
// publishes replies. One message produces exactly one outbound response,
// error paths included, so requesters never hang.
type Worker struct {
	store       *conversation.Store
	registry    *tools.Registry
	billing     *billing.Service
	completer   Completer
	publisher   *inats.Publisher
	consumerMgr *inats.ConsumerManager
}

func NewWorker(
	store *conversation.Store,
	registry *tools.Registry,
	billingSvc *billing.Service,
	completer Completer,
	publisher *inats.Publisher,
	consumerMgr *inats.ConsumerManager,
) *Worker {
	return &Worker{
		store:       store,
		registry:    registry,
		billing:     billingSvc,
		completer:   completer,
		publisher:   publisher,
		consumerMgr: consumerMgr,
	}
}

// Start begins the consume loop. Blocks until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	consumer, err := w.consumerMgr.EnsureConsumer(ctx, inats.StreamChat, "chat-worker", inats.SubjectChatInbound)
	if err != nil {
		return err
	}

	slog.Info("assistant worker started", "consumer", "chat-worker")

	for {
		msgs, err := consumer.Fetch(10, jetstream.FetchMaxWait(inats.FetchTimeout))
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			slog.Debug("assistant worker: fetching messages", "error", err)
			continue
		}

		for msg := range msgs.Messages() {
			w.handleMessage(ctx, msg)
		}

		if ctx.Err() != nil {
			return nil
		}
	}
}

// handleMessage always acks: a reply (or error reply) has been published by
// the time we return, so redelivery would only duplicate it.
func (w *Worker) handleMessage(ctx context.Context, msg jetstream.Msg) {
	var req inats.ChatRequest
	if err := json.Unmarshal(msg.Data(), &req); err != nil {
		slog.Error("assistant worker: unmarshaling request", "error", err)
		_ = msg.Ack()
		return
	}

	resp := w.process(ctx, req)

	if err := w.publisher.PublishChatResponse(ctx, resp); err != nil {
		slog.Error("assistant worker: publishing response", "error", err, "request_id", req.RequestID)
		_ = msg.Nak()
		return
	}
	_ = msg.Ack()
}

func (w *Worker) process(ctx context.Context, req inats.ChatRequest) inats.ChatResponse {
	resp := inats.ChatResponse{
		RequestID: req.RequestID,
		UserID:    req.UserID,
		RepliedAt: time.Now().UTC(),
	}

	if err := w.billing.CheckAssistantAllowance(ctx, req.UserID); err != nil {
		var exhausted *billing.ErrAllowanceExhausted
		if errors.As(err, &exhausted) {
			resp.Error = exhausted.Reason
			metrics.AssistantRequestsTotal.WithLabelValues("denied").Inc()
			w.audit(ctx, req, "assistant.denied", "warn", exhausted.Reason)
			return resp
		}
		slog.Error("assistant worker: allowance check", "error", err)
	}

	intent, entities := Classify(req.Message)
	resp.Intent = intent

	action, actionResult := w.dispatch(ctx, req, intent, entities)
	resp.Action = action

	userID := req.UserID.String()
	reply := w.reply(ctx, userID, req.Message, intent, entities, actionResult)
	resp.Reply = reply

	confidence := 0.9
	if intent == IntentUnknown {
		confidence = 0.3
	}
	w.store.AddTurn(userID, conversation.TurnInput{
		Input:        req.Message,
		Intent:       intent,
		Entities:     entities,
		Response:     reply,
		Action:       action,
		ActionResult: actionResult,
		Confidence:   confidence,
	})

	if err := w.billing.RecordCall(ctx, req.UserID); err != nil {
		slog.Warn("assistant worker: recording usage", "error", err)
	}

	metrics.AssistantRequestsTotal.WithLabelValues("ok").Inc()
	w.audit(ctx, req, "assistant.reply", "info", intent)
	return resp
}

// dispatch executes the side effect an intent implies, if any. Tool failures
// degrade to a reply mentioning the problem rather than killing the turn.
func (w *Worker) dispatch(ctx context.Context, req inats.ChatRequest, intent string, entities []conversation.Entity) (string, any) {
	userID := req.UserID.String()

	switch intent {
	case IntentStartShopping:
		on := true
		w.store.SetState(userID, conversation.StateDelta{ShoppingMode: &on})
		return "shopping_mode_on", nil
	case IntentStopShopping:
		off := false
		w.store.SetState(userID, conversation.StateDelta{ShoppingMode: &off})
		return "shopping_mode_off", nil
	}

	tool, args := toolInvocation(intent, entities)
	if tool == "" {
		return "", nil
	}

	result, err := w.registry.Call(ctx, tool, req.UserID, args)
	if err != nil {
		slog.Warn("assistant worker: tool call failed", "tool", tool, "error", err)
		return tool, map[string]any{"error": err.Error()}
	}
	return tool, result
}

// toolInvocation maps an intent plus extracted entities to a registry call.
func toolInvocation(intent string, entities []conversation.Entity) (string, map[string]any) {
	ingredients := make([]any, 0, len(entities))
	for _, e := range entities {
		if e.Type == conversation.EntityIngredient {
			ingredients = append(ingredients, e.Value)
		}
	}

	switch intent {
	case IntentAddItem:
		if len(ingredients) == 0 {
			return "", nil
		}
		name, _ := ingredients[0].(string)
		return "add_pantry_item", map[string]any{"name": name}
	case IntentRemoveItem:
		if len(ingredients) == 0 {
			return "", nil
		}
		name, _ := ingredients[0].(string)
		return "remove_pantry_item", map[string]any{"name": name}
	case IntentShowPantry:
		return "list_pantry", map[string]any{}
	case IntentFindRecipes:
		if len(ingredients) == 0 {
			return "", nil
		}
		return "find_recipes", map[string]any{"ingredients": ingredients}
	}
	return "", nil
}

// reply asks the LLM for a response, falling back to a canned reply when no
// completer is configured or the call fails.
func (w *Worker) reply(ctx context.Context, userID, message, intent string, entities []conversation.Entity, actionResult any) string {
	if w.completer == nil {
		return fallbackReply(intent, entities)
	}

	prompt := w.store.ContextPrompt(userID)
	if actionResult != nil {
		if data, err := json.Marshal(actionResult); err == nil {
			prompt += fmt.Sprintf("Action result: %s\n", data)
		}
	}

	reply, err := w.completer.Complete(ctx, prompt, message)
	if err != nil {
		slog.Warn("assistant worker: llm call failed, using fallback reply", "error", err)
		return fallbackReply(intent, entities)
	}
	return reply
}

func fallbackReply(intent string, entities []conversation.Entity) string {
	names := make([]string, 0, len(entities))
	for _, e := range entities {
		names = append(names, e.Value)
	}
	joined := strings.Join(names, ", ")

	switch intent {
	case IntentAddItem:
		return fmt.Sprintf("Added %s to your pantry.", joined)
	case IntentRemoveItem:
		return fmt.Sprintf("Removed %s from your pantry.", joined)
	case IntentFindRecipes:
		if joined != "" {
			return fmt.Sprintf("Here are recipes using %s.", joined)
		}
		return "Here are some recipes you can make."
	case IntentShowPantry:
		return "Here is what you have in your pantry."
	case IntentStartShopping:
		return "Shopping mode on. Check off items as you go."
	case IntentStopShopping:
		return "Shopping mode off. Want to add anything to your pantry?"
	case IntentPlanMeal:
		return "Let's plan that meal. Which recipe would you like to schedule?"
	case IntentRateRecipe:
		return "Thanks, I'll note that rating."
	case IntentHelp:
		return "I can track your pantry, find recipes, build grocery lists and plan meals."
	default:
		return "I'm not sure what you meant. Try asking about your pantry, recipes or meal plans."
	}
}

func (w *Worker) audit(ctx context.Context, req inats.ChatRequest, eventType, severity, details string) {
	event := inats.AuditEvent{
		UserID:       req.UserID,
		EventType:    eventType,
		Severity:     severity,
		ResourceType: "chat_request",
		ResourceID:   req.RequestID,
		Details:      details,
		Timestamp:    time.Now().UTC(),
	}
	if err := w.publisher.PublishAuditEvent(ctx, event); err != nil {
		slog.Warn("assistant worker: publishing audit event", "error", err)
	}
}
