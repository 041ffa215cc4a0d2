package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/luma-mobile/companion-service/internal/app/domain/event"
	"github.com/luma-mobile/companion-service/internal/app/storage"
)

// Store is an in-memory implementation of the storage interfaces. It is safe
// for concurrent use and is primarily intended for tests and local runs.
type Store struct {
	mu     sync.RWMutex
	nextID int64
	events []event.Record
}

var _ storage.EventStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{nextID: 1}
}

func (s *Store) nextIDLocked() string {
	id := s.nextID
	s.nextID++
	return fmt.Sprintf("%d", id)
}

// RecordEvent appends an audit record, assigning an ID and timestamp when
// they are unset.
func (s *Store) RecordEvent(_ context.Context, rec event.Record) (event.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == "" {
		rec.ID = s.nextIDLocked()
	}
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = time.Now().UTC()
	}
	s.events = append(s.events, rec)
	return rec, nil
}

// ListEvents returns the most recent records, newest first. A non-positive
// limit returns everything.
func (s *Store) ListEvents(_ context.Context, limit int) ([]event.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.events)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]event.Record, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, s.events[i])
	}
	return out, nil
}
