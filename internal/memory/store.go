package memory

import "context"

// Store is the memory engine behind the HTTP façade. Implementations must be
// safe for concurrent use; a single instance serves every request.
type Store interface {
	// GetAll returns every memory owned by userID, oldest first.
	GetAll(ctx context.Context, userID string) (*ListResult, error)
	Add(ctx context.Context, in AddInput) (*AddResult, error)
	DeleteAll(ctx context.Context, userID string) (*Ack, error)
	// Get returns ErrMemoryNotFound when no memory has the id.
	Get(ctx context.Context, memoryID string) (*Record, error)
	// Update returns a nil record when no memory has the id.
	Update(ctx context.Context, memoryID, text string) (*Record, error)
	Delete(ctx context.Context, memoryID string) (*Ack, error)
	Search(ctx context.Context, query string, filter SearchFilter) (*ListResult, error)
	// History returns the change log of a memory, oldest first.
	History(ctx context.Context, memoryID string) ([]HistoryEntry, error)
}
