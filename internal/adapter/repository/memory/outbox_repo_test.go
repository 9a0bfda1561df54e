package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/goatm/internal/domain"
)

func TestOutboxRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewOutboxRepository()

	for _, id := range []string{"e1", "e2", "e3"} {
		require.NoError(t, repo.Create(ctx, &domain.OutboxEvent{ID: id, EventType: domain.EventTypeTransferCreated}))
	}

	batch, err := repo.GetUnpublished(ctx, 2)
	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.Equal(t, "e1", batch[0].ID)
	assert.Equal(t, "e2", batch[1].ID)

	now := time.Now()
	require.NoError(t, repo.MarkPublished(ctx, "e1", now))
	assert.True(t, batch[0].Published)
	assert.Equal(t, 2, repo.Pending())

	rest, err := repo.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rest, 2)
	assert.Equal(t, "e2", rest[0].ID)

	require.NoError(t, repo.MarkPublished(ctx, "unknown", now))
	assert.Equal(t, 2, repo.Pending())
}

func TestOutboxRepository_ZeroLimit(t *testing.T) {
	repo := NewOutboxRepository()
	require.NoError(t, repo.Create(context.Background(), &domain.OutboxEvent{ID: "e1"}))

	batch, err := repo.GetUnpublished(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, batch)
}
