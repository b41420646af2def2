package notifications

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventTypeMembershipConfirmed  EventType = "membership_confirmed"
	EventTypePartnershipConfirmed EventType = "partnership_confirmed"
	EventTypeBranchConfirmed      EventType = "branch_confirmed"
	EventTypeBadgeAssigned        EventType = "badge_assigned"
)

type Event struct {
	ID   uuid.UUID
	Type EventType
	Data map[string]any
}

// Sink delivers events to an external dispatcher (mail, push, webhooks).
type Sink interface {
	Deliver(ctx context.Context, event Event) error
}

type Notifier struct {
	logger *slog.Logger
	sink   Sink
}

func NewNotifier(logger *slog.Logger, sink Sink) *Notifier {
	return &Notifier{logger: logger, sink: sink}
}

// Emit dispatches an event without blocking the caller. Delivery failures are
// logged and never retried synchronously; a state transition must not depend
// on its notification going out.
func (n *Notifier) Emit(eventType EventType, data map[string]any) {
	event := Event{ID: uuid.New(), Type: eventType, Data: data}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := n.sink.Deliver(ctx, event); err != nil {
			n.logger.Error("Failed to deliver notification", "event_id", event.ID, "event_type", event.Type, "error", err)
		}
	}()
}

// LogSink is the default sink: it only logs the event. Real deployments plug
// in the platform's mail dispatcher.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) Deliver(_ context.Context, event Event) error {
	s.Logger.Info("Notification dispatched", "event_id", event.ID, "event_type", event.Type)
	return nil
}
