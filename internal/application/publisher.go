package application

import (
	"context"

	"github.com/sobhankiani/shopc-user-service/internal/domain/event"
)

// EventPublisher announces a completed mutation to the rest of the system.
// Delivery is fire-and-forget: a failed publish is logged by the caller and
// never fails the command that produced the event.
type EventPublisher interface {
	Publish(ctx context.Context, ev event.Event) error
}
