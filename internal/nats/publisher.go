package nats

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/aiox-platform/recall/internal/metrics"
)

// jsPublisher is the subset of jetstream.JetStream used by Publisher.
type jsPublisher interface {
	Publish(ctx context.Context, subject string, payload []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// Publisher publishes memory change events to NATS JetStream.
type Publisher struct {
	js jsPublisher
}

// NewPublisher creates a new Publisher.
func NewPublisher(js jetstream.JetStream) *Publisher {
	return &Publisher{js: js}
}

// PublishMemoryEvent publishes event on SubjectMemoryEvent.
func (p *Publisher) PublishMemoryEvent(ctx context.Context, event MemoryEvent) error {
	err := p.publish(ctx, SubjectMemoryEvent, event)
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.EventsPublishedTotal.WithLabelValues(event.Event, status).Inc()
	return err
}

func (p *Publisher) publish(ctx context.Context, subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshaling event for %s: %w", subject, err)
	}
	_, err = p.js.Publish(ctx, subject, payload)
	if err != nil {
		return fmt.Errorf("publishing to %s: %w", subject, err)
	}
	return nil
}
