package repository

import (
	"context"

	"docvault/internal/model"
)

// DocumentRepository defines data access for documents.
// No business logic here, strictly persistence operations.
type DocumentRepository interface {
	// Create inserts a new document record. ID and CreatedAt are assigned by the store
	// and the returned document carries them.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// ListByOwner returns at most limit documents owned by userID, newest first.
	// Ties on CreatedAt are broken by ID descending.
	ListByOwner(ctx context.Context, userID string, limit int) ([]model.Document, error)

	// FindByIDAndOwner returns the document only if it exists and belongs to userID.
	// Both misses yield sql.ErrNoRows.
	FindByIDAndOwner(ctx context.Context, id, userID string) (*model.Document, error)
}
