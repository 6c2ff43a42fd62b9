package nats

import (
	"time"

	"github.com/google/uuid"
)

// FetchTimeout is the default timeout for batch fetching messages from consumers.
const FetchTimeout = 2 * time.Second

// Stream names.
const (
	StreamChat   = "NCLB_CHAT"
	StreamEvents = "NCLB_EVENTS"
)

// Subject constants.
const (
	SubjectChatInbound  = "nclb.chat.inbound"
	SubjectChatOutbound = "nclb.chat.outbound"
	SubjectAuditEvent   = "nclb.events.audit"
)

// ChatRequest is published when a user sends an assistant chat message.
type ChatRequest struct {
	RequestID  string    `json:"request_id"`
	UserID     uuid.UUID `json:"user_id"`
	Message    string    `json:"message"`
	ReceivedAt time.Time `json:"received_at"`
}

// ChatResponse is published once the assistant worker has produced a reply.
type ChatResponse struct {
	RequestID string    `json:"request_id"`
	UserID    uuid.UUID `json:"user_id"`
	Reply     string    `json:"reply"`
	Intent    string    `json:"intent,omitempty"`
	Action    string    `json:"action,omitempty"`
	Error     string    `json:"error,omitempty"`
	RepliedAt time.Time `json:"replied_at"`
}

// AuditEvent records assistant and tool activity for compliance review.
type AuditEvent struct {
	UserID       uuid.UUID `json:"user_id"`
	EventType    string    `json:"event_type"`
	Severity     string    `json:"severity"` // info, warn, error
	ResourceType string    `json:"resource_type"`
	ResourceID   string    `json:"resource_id"`
	Details      string    `json:"details"`
	Timestamp    time.Time `json:"timestamp"`
}
