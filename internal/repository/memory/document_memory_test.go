package memory

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docvault/internal/model"
)

func seed(t *testing.T, repo *DocumentMemory, userID string, n int) []*model.Document {
	t.Helper()
	out := make([]*model.Document, 0, n)
	for i := 0; i < n; i++ {
		d, err := repo.Create(context.Background(), &model.Document{
			UserID:     userID,
			StorageKey: fmt.Sprintf("%s/key-%d", userID, i),
			MimeType:   "application/pdf",
		})
		require.NoError(t, err)
		out = append(out, d)
	}
	return out
}

func TestDocumentMemory_Create(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	repo := NewDocumentMemory(WithClock(func() time.Time { return now }))

	in := &model.Document{UserID: "user-1", OriginalName: "a.pdf", StorageKey: "user-1/a"}
	got, err := repo.Create(context.Background(), in)

	require.NoError(t, err)
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, now, got.CreatedAt)
	assert.Empty(t, in.ID)

	_, err = repo.Create(context.Background(), &model.Document{UserID: "user-2", StorageKey: "user-1/a"})
	assert.ErrorIs(t, err, ErrDuplicateStorageKey)
}

func TestDocumentMemory_ListByOwner_CapAndOrder(t *testing.T) {
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	tick := 0
	repo := NewDocumentMemory(WithClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}))

	seed(t, repo, "user-1", 60)
	seed(t, repo, "user-2", 3)

	docs, err := repo.ListByOwner(context.Background(), "user-1", 50)
	require.NoError(t, err)
	require.Len(t, docs, 50)

	for i := 1; i < len(docs); i++ {
		assert.True(t, docs[i-1].CreatedAt.After(docs[i].CreatedAt), "position %d not strictly newer than %d", i-1, i)
	}
	for _, d := range docs {
		assert.Equal(t, "user-1", d.UserID)
	}
	assert.Equal(t, "user-1/key-59", docs[0].StorageKey)
	assert.Equal(t, "user-1/key-10", docs[49].StorageKey)
}

func TestDocumentMemory_ListByOwner_SameTimestamp(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	repo := NewDocumentMemory(WithClock(func() time.Time { return now }))
	seed(t, repo, "user-1", 3)

	docs, err := repo.ListByOwner(context.Background(), "user-1", 50)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "user-1/key-2", docs[0].StorageKey)
	assert.Equal(t, "user-1/key-0", docs[2].StorageKey)
}

func TestDocumentMemory_ListByOwner_Empty(t *testing.T) {
	repo := NewDocumentMemory()
	docs, err := repo.ListByOwner(context.Background(), "nobody", 50)
	require.NoError(t, err)
	assert.NotNil(t, docs)
	assert.Empty(t, docs)
}

func TestDocumentMemory_FindByIDAndOwner(t *testing.T) {
	repo := NewDocumentMemory()
	docs := seed(t, repo, "user-1", 1)
	ctx := context.Background()

	got, err := repo.FindByIDAndOwner(ctx, docs[0].ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, docs[0].StorageKey, got.StorageKey)

	_, err = repo.FindByIDAndOwner(ctx, docs[0].ID, "user-2")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	_, err = repo.FindByIDAndOwner(ctx, "00000000-0000-4000-8000-000000000000", "user-1")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestDocumentMemory_CanceledContext(t *testing.T) {
	repo := NewDocumentMemory()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.Create(ctx, &model.Document{UserID: "u", StorageKey: "k"})
	assert.ErrorIs(t, err, context.Canceled)
	_, err = repo.ListByOwner(ctx, "u", 50)
	assert.ErrorIs(t, err, context.Canceled)
	_, err = repo.FindByIDAndOwner(ctx, "id", "u")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDocumentMemory_ConcurrentCreate(t *testing.T) {
	repo := NewDocumentMemory()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.Create(context.Background(), &model.Document{UserID: "user-1", StorageKey: fmt.Sprintf("k-%d", i)})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	docs, err := repo.ListByOwner(context.Background(), "user-1", 50)
	require.NoError(t, err)
	assert.Len(t, docs, 20)
}
