package memory

import (
	"context"
	"log/slog"
)

// SearchScoreThreshold is the exclusive lower bound on search result scores.
const SearchScoreThreshold = 0.3

// Service implements the memory operations on top of a Store. It holds no
// mutable state of its own.
type Service struct {
	store Store
}

// NewService creates a new memory service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// GetMemories returns the text of every memory owned by the user, in store
// order. When both dates are set only memories whose created_at lies in
// [StartDate, EndDate] are returned; the bounds are compared as plain
// strings, which is only meaningful for zero-padded ISO-8601 values.
func (s *Service) GetMemories(ctx context.Context, req *GetMemoriesRequest) ([]string, error) {
	all, err := s.store.GetAll(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if all == nil || all.Results == nil {
		return nil, ErrInvalidResponse
	}
	slog.Info("retrieved memories", "user_id", req.UserID, "count", len(all.Results))

	if len(all.Results) == 0 {
		return nil, ErrUserNotFound
	}

	records := all.Results
	if req.StartDate != "" && req.EndDate != "" {
		records = filterByDate(records, req.StartDate, req.EndDate)
	}

	texts := make([]string, 0, len(records))
	for _, rec := range records {
		if rec.Memory == "" {
			slog.Warn("unexpected memory entry", "user_id", req.UserID, "memory_id", rec.ID)
			continue
		}
		texts = append(texts, rec.Memory)
	}
	return texts, nil
}

func filterByDate(records []Record, start, end string) []Record {
	filtered := make([]Record, 0, len(records))
	for _, rec := range records {
		if rec.CreatedAt == "" {
			continue
		}
		if start <= rec.CreatedAt && rec.CreatedAt <= end {
			filtered = append(filtered, rec)
		}
	}
	return filtered
}

// Add stores a single memory.
func (s *Service) Add(ctx context.Context, req *AddMemoryRequest) (*AddResult, error) {
	slog.Debug("storing memory", "user_id", req.UserID, "agent_id", req.AgentID)
	return s.store.Add(ctx, AddInput{
		Text:    req.Memory,
		UserID:  req.UserID,
		AgentID: req.AgentID,
	})
}

// DeleteAll deletes every memory owned by the user.
func (s *Service) DeleteAll(ctx context.Context, userID string) (*Ack, error) {
	return s.store.DeleteAll(ctx, userID)
}

// Get returns a single memory. A missing memory is reported as whatever error
// the store returns.
func (s *Service) Get(ctx context.Context, memoryID string) (*Record, error) {
	return s.store.Get(ctx, memoryID)
}

// Update replaces the text of a memory. It returns ErrMemoryNotFound when the
// store has no memory with the id.
func (s *Service) Update(ctx context.Context, req *UpdateMemoryRequest) (*Record, error) {
	rec, err := s.store.Update(ctx, req.MemoryID, req.Message)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrMemoryNotFound
	}
	return rec, nil
}

// Delete deletes a single memory.
func (s *Service) Delete(ctx context.Context, memoryID string) (*Ack, error) {
	return s.store.Delete(ctx, memoryID)
}

// Search runs a semantic search scoped to the user and, when any non-empty
// agent id is given, to those agents. Results scoring at or below
// SearchScoreThreshold are dropped.
func (s *Service) Search(ctx context.Context, req *SearchMemoriesRequest) ([]Record, error) {
	filter := SearchFilter{UserID: req.UserID}
	for _, id := range req.AgentIDs {
		if id != "" {
			filter.AgentIDs = append(filter.AgentIDs, id)
		}
	}

	res, err := s.store.Search(ctx, req.Query, filter)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, ErrInvalidResponse
	}

	results := make([]Record, 0, len(res.Results))
	for _, rec := range res.Results {
		if rec.Score > SearchScoreThreshold {
			results = append(results, rec)
		}
	}
	return results, nil
}

// History returns the change log of a memory. It returns ErrHistoryNotFound
// when the log is empty.
func (s *Service) History(ctx context.Context, memoryID string) ([]HistoryEntry, error) {
	history, err := s.store.History(ctx, memoryID)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return nil, ErrHistoryNotFound
	}
	return history, nil
}
