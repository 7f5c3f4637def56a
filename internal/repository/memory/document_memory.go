package memory

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"docvault/internal/model"
	"docvault/internal/repository"
)

// DocumentMemory is an in-process repository.DocumentRepository.
// It mirrors the postgres ordering and miss semantics and is safe for concurrent use.
type DocumentMemory struct {
	mu    sync.RWMutex
	docs  []model.Document
	byKey map[string]struct{}
	now   func() time.Time
}

// Option configures a DocumentMemory.
type Option func(*DocumentMemory)

// WithClock overrides the clock that stamps CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(r *DocumentMemory) {
		r.now = now
	}
}

// NewDocumentMemory creates an empty repository.
func NewDocumentMemory(opts ...Option) *DocumentMemory {
	r := &DocumentMemory{
		byKey: make(map[string]struct{}),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var _ repository.DocumentRepository = (*DocumentMemory)(nil)

// ErrDuplicateStorageKey mirrors the unique constraint on storage_key.
var ErrDuplicateStorageKey = errors.New("duplicate storage key")

func (r *DocumentMemory) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byKey[doc.StorageKey]; ok {
		return nil, ErrDuplicateStorageKey
	}

	out := *doc
	out.ID = uuid.NewString()
	out.CreatedAt = r.now().UTC()
	r.docs = append(r.docs, out)
	r.byKey[out.StorageKey] = struct{}{}
	return &out, nil
}

// ListByOwner orders by CreatedAt descending; equal timestamps fall back to
// reverse insertion order so the newest write always comes first.
func (r *DocumentMemory) ListByOwner(ctx context.Context, userID string, limit int) ([]model.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	type entry struct {
		doc model.Document
		seq int
	}
	owned := make([]entry, 0)
	for i, d := range r.docs {
		if d.UserID == userID {
			owned = append(owned, entry{doc: d, seq: i})
		}
	}
	r.mu.RUnlock()

	sort.Slice(owned, func(i, j int) bool {
		a, b := owned[i], owned[j]
		if !a.doc.CreatedAt.Equal(b.doc.CreatedAt) {
			return a.doc.CreatedAt.After(b.doc.CreatedAt)
		}
		return a.seq > b.seq
	})

	if limit >= 0 && len(owned) > limit {
		owned = owned[:limit]
	}
	items := make([]model.Document, len(owned))
	for i, e := range owned {
		items[i] = e.doc
	}
	return items, nil
}

func (r *DocumentMemory) FindByIDAndOwner(ctx context.Context, id, userID string) (*model.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, d := range r.docs {
		if d.ID == id && d.UserID == userID {
			out := d
			return &out, nil
		}
	}
	return nil, sql.ErrNoRows
}
