package usecase

import (
	"context"
	"time"

	"github.com/iho/goatm/internal/domain"
)

// AccountRepository is the account registry: populated once at startup,
// read-only afterwards.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByNumber(ctx context.Context, number string) (*domain.Account, error)
	List(ctx context.Context) ([]*domain.Account, error)
}

// OutboxRepository defines storage for events awaiting publication.
type OutboxRepository interface {
	Create(ctx context.Context, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Retrier re-runs an operation while it fails with a retryable error.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}
