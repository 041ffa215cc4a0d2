package storage

import (
	"context"

	"github.com/luma-mobile/companion-service/internal/app/domain/event"
)

// EventStore persists the audit trail of outbound XDM events.
type EventStore interface {
	RecordEvent(ctx context.Context, rec event.Record) (event.Record, error)
	ListEvents(ctx context.Context, limit int) ([]event.Record, error)
}
