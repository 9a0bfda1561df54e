package memory

import (
	"context"
	"sync"
	"time"

	"github.com/iho/goatm/internal/domain"
)

// OutboxRepository keeps events in insertion order until they are published.
// Published events are dropped.
type OutboxRepository struct {
	mu      sync.Mutex
	pending []*domain.OutboxEvent
}

// NewOutboxRepository creates an empty OutboxRepository.
func NewOutboxRepository() *OutboxRepository {
	return &OutboxRepository{}
}

// Create appends an event.
func (r *OutboxRepository) Create(_ context.Context, event *domain.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pending = append(r.pending, event)
	return nil
}

// GetUnpublished returns up to limit of the oldest pending events.
func (r *OutboxRepository) GetUnpublished(_ context.Context, limit int) ([]*domain.OutboxEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := min(limit, len(r.pending))
	if n < 0 {
		n = 0
	}
	out := make([]*domain.OutboxEvent, n)
	copy(out, r.pending[:n])
	return out, nil
}

// MarkPublished removes the event from the pending list.
func (r *OutboxRepository) MarkPublished(_ context.Context, id string, publishedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, e := range r.pending {
		if e.ID != id {
			continue
		}
		e.Published = true
		e.PublishedAt = &publishedAt
		r.pending = append(r.pending[:i], r.pending[i+1:]...)
		return nil
	}
	return nil
}

// Pending returns the number of unpublished events.
func (r *OutboxRepository) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.pending)
}
