package memory

import (
	"context"
	"time"

	"github.com/aiox-platform/recall/internal/metrics"
)

// Instrument wraps a Store so every call is counted and timed.
func Instrument(store Store) Store {
	return &instrumentedStore{next: store}
}

type instrumentedStore struct {
	next Store
}

func observe(op string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.StoreOperationsTotal.WithLabelValues(op, status).Inc()
	metrics.StoreOperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (s *instrumentedStore) GetAll(ctx context.Context, userID string) (res *ListResult, err error) {
	defer func(start time.Time) { observe("get_all", start, err) }(time.Now())
	return s.next.GetAll(ctx, userID)
}

func (s *instrumentedStore) Add(ctx context.Context, in AddInput) (res *AddResult, err error) {
	defer func(start time.Time) { observe("add", start, err) }(time.Now())
	return s.next.Add(ctx, in)
}

func (s *instrumentedStore) DeleteAll(ctx context.Context, userID string) (ack *Ack, err error) {
	defer func(start time.Time) { observe("delete_all", start, err) }(time.Now())
	return s.next.DeleteAll(ctx, userID)
}

func (s *instrumentedStore) Get(ctx context.Context, memoryID string) (rec *Record, err error) {
	defer func(start time.Time) { observe("get", start, err) }(time.Now())
	return s.next.Get(ctx, memoryID)
}

func (s *instrumentedStore) Update(ctx context.Context, memoryID, text string) (rec *Record, err error) {
	defer func(start time.Time) { observe("update", start, err) }(time.Now())
	return s.next.Update(ctx, memoryID, text)
}

func (s *instrumentedStore) Delete(ctx context.Context, memoryID string) (ack *Ack, err error) {
	defer func(start time.Time) { observe("delete", start, err) }(time.Now())
	return s.next.Delete(ctx, memoryID)
}

func (s *instrumentedStore) Search(ctx context.Context, query string, filter SearchFilter) (res *ListResult, err error) {
	defer func(start time.Time) { observe("search", start, err) }(time.Now())
	return s.next.Search(ctx, query, filter)
}

func (s *instrumentedStore) History(ctx context.Context, memoryID string) (entries []HistoryEntry, err error) {
	defer func(start time.Time) { observe("history", start, err) }(time.Now())
	return s.next.History(ctx, memoryID)
}
