// Package events sends analytics events to PostHog.
package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/posthog/posthog-go"

	"github.com/learning-tokens/lms-connector/internal/workers"
)

// EventService is the service for triggering events.
//
// A service without a PostHog client drops every event.
type EventService struct {
	posthogClient posthog.Client
	worker        *workers.Worker
}

// NewEventService creates a new EventService. posthogClient may be nil.
func NewEventService(posthogClient posthog.Client) *EventService {
	return &EventService{
		posthogClient: posthogClient,
		worker:        workers.Global,
	}
}

// Event is the event to be triggered.
type Event struct {
	Type       EventType
	DistinctID string // who triggered the event, such as a client machine or an account email
	Payload    map[string]any
}

// TriggerEvent sends an event in the background. It never blocks the request.
func (s *EventService) TriggerEvent(ctx context.Context, event Event) {
	if s == nil || s.posthogClient == nil {
		return
	}

	s.worker.Go(func() {
		if err := s.triggerEvent(event); err != nil {
			slog.Error("failed to trigger event", "event_type", event.Type, "error", err)
		}
	})
}

// triggerEvent triggers an event synchronously.
func (s *EventService) triggerEvent(event Event) error {
	properties := posthog.NewProperties()
	for key, value := range event.Payload {
		properties.Set(key, value)
	}

	slog.Debug("sending event to PostHog", "event_type", event.Type, "distinct_id", event.DistinctID)

	return s.posthogClient.Enqueue(posthog.Capture{
		DistinctId: event.DistinctID,
		Event:      string(event.Type),
		Timestamp:  time.Now(),
		Properties: properties,
	})
}
