package nats

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"
)

// Publisher provides typed methods for publishing events to NATS JetStream.
type Publisher struct {
	js jetstream.JetStream
}

// NewPublisher creates a new Publisher.
func NewPublisher(js jetstream.JetStream) *Publisher {
	return &Publisher{js: js}
}

// PublishChatRequest publishes an inbound chat message for assistant processing.
func (p *Publisher) PublishChatRequest(ctx context.Context, msg ChatRequest) error {
	return p.publish(ctx, SubjectChatInbound, msg)
}

// PublishChatResponse publishes the assistant's reply for delivery.
func (p *Publisher) PublishChatResponse(ctx context.Context, msg ChatResponse) error {
	return p.publish(ctx, SubjectChatOutbound, msg)
}

// PublishAuditEvent publishes an audit event.
func (p *Publisher) PublishAuditEvent(ctx context.Context, event AuditEvent) error {
	return p.publish(ctx, SubjectAuditEvent, event)
}

func (p *Publisher) publish(ctx context.Context, subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshaling event for %s: %w", subject, err)
	}
	if _, err := p.js.Publish(ctx, subject, payload); err != nil {
		return fmt.Errorf("publishing to %s: %w", subject, err)
	}
	return nil
}
