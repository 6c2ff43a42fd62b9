package audit

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	inats "github.com/mysticbob/nochickenleftbehind/internal/nats"
)

func TestEventToLog(t *testing.T) {
	userID := uuid.New()
	recipeID := uuid.New()

	event := inats.AuditEvent{
		UserID:       userID,
		EventType:    "tool_invoked",
		Severity:     "info",
		ResourceType: "recipe",
		ResourceID:   recipeID.String(),
		Details:      "find_recipes called with 3 ingredients",
		Timestamp:    time.Now().UTC(),
	}

	log := eventToLog(event)

	assert.Equal(t, userID, log.UserID)
	assert.Equal(t, "tool_invoked", log.EventType)
	assert.Equal(t, "info", log.Severity)
	assert.Equal(t, "recipe", log.ResourceType)
	require.NotNil(t, log.ResourceID)
	assert.Equal(t, recipeID, *log.ResourceID)

	var details map[string]string
	require.NoError(t, json.Unmarshal(log.Details, &details))
	assert.Equal(t, "find_recipes called with 3 ingredients", details["message"])
}

func TestEventToLog_NonUUIDResourceID(t *testing.T) {
	event := inats.AuditEvent{
		UserID:     uuid.New(),
		EventType:  "chat_denied",
		Severity:   "warn",
		ResourceID: "not-a-uuid",
		Details:    "daily limit reached",
		Timestamp:  time.Now().UTC(),
	}

	log := eventToLog(event)
	assert.Nil(t, log.ResourceID)
}

func TestEventToLog_EmptyResourceID(t *testing.T) {
	event := inats.AuditEvent{
		UserID:    uuid.New(),
		EventType: "chat_handled",
		Severity:  "info",
		Details:   "reply sent",
		Timestamp: time.Now().UTC(),
	}

	log := eventToLog(event)
	assert.Nil(t, log.ResourceID)
}
