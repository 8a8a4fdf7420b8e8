// Package engine is the memory store behind the HTTP façade. It embeds
// memory text, keeps vectors in pgvector, links memories in a graph and
// records every change in an append-only history.
package engine

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aiox-platform/recall/internal/memory"
	inats "github.com/aiox-platform/recall/internal/nats"
)

var (
	// ErrNotFound is returned by VectorStore when no memory has the id.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned by VectorStore when the user already has the
	// same text from the same agent.
	ErrDuplicate = errors.New("memory already stored")
)

// Acknowledgement messages returned by the delete operations.
const (
	MsgMemoryDeleted   = "Memory deleted successfully!"
	MsgMemoriesDeleted = "Memories deleted successfully!"
)

// DefaultSearchLimit caps the hits returned by Search.
const DefaultSearchLimit = 100

// TimeLayout formats record and history timestamps. The fixed-width
// fraction keeps lexical and chronological order identical.
const TimeLayout = "2006-01-02T15:04:05.000000Z07:00"

// VectorStore persists memories with their embeddings.
type VectorStore interface {
	Insert(ctx context.Context, rec memory.Record, embedding []float32) error
	Get(ctx context.Context, id string) (*memory.Record, error)
	// List returns userID's memories, oldest first.
	List(ctx context.Context, userID string) ([]memory.Record, error)
	Update(ctx context.Context, id, text, hash string, embedding []float32, at time.Time) (*memory.Record, error)
	// Delete removes a memory and returns it as it was.
	Delete(ctx context.Context, id string) (*memory.Record, error)
	DeleteByUser(ctx context.Context, userID string) ([]memory.Record, error)
	// Search returns the closest memories, best first, with Score set.
	Search(ctx context.Context, embedding []float32, filter memory.SearchFilter, limit int) ([]memory.Record, error)
}

// HistoryStore is the append-only change log.
type HistoryStore interface {
	Append(ctx context.Context, entry memory.HistoryEntry) error
	// List returns the entries of a memory, oldest first.
	List(ctx context.Context, memoryID string) ([]memory.HistoryEntry, error)
}

// GraphStore links memories to their owners.
type GraphStore interface {
	Link(ctx context.Context, rec memory.Record) ([]memory.Relation, error)
	UpdateText(ctx context.Context, memoryID, text string) error
	Unlink(ctx context.Context, memoryID string) error
	DeleteUser(ctx context.Context, userID string) error
	Relations(ctx context.Context, userID string) ([]memory.Relation, error)
}

// Embedder turns text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// EventPublisher announces memory changes.
type EventPublisher interface {
	PublishMemoryEvent(ctx context.Context, event inats.MemoryEvent) error
}

// Engine implements memory.Store.
type Engine struct {
	vectors     VectorStore
	history     HistoryStore
	embedder    Embedder
	tx          Transactor
	graph       GraphStore
	events      EventPublisher
	searchLimit int

	now   func() time.Time
	newID func() uuid.UUID
}

var _ memory.Store = (*Engine)(nil)

// Option configures an Engine.
type Option func(*Engine)

// WithTransactor writes memories and their history in one transaction.
// Without it a failed history write removes the memory it belonged to.
func WithTransactor(t Transactor) Option {
	return func(e *Engine) { e.tx = t }
}

// WithGraph links memories in g.
func WithGraph(g GraphStore) Option {
	return func(e *Engine) { e.graph = g }
}

// WithEvents publishes a MemoryEvent for every change.
func WithEvents(p EventPublisher) Option {
	return func(e *Engine) { e.events = p }
}

// WithSearchLimit sets the maximum number of search hits.
func WithSearchLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.searchLimit = n
		}
	}
}

// New creates an Engine.
func New(vectors VectorStore, history HistoryStore, embedder Embedder, opts ...Option) *Engine {
	e := &Engine{
		vectors:     vectors,
		history:     history,
		embedder:    embedder,
		searchLimit: DefaultSearchLimit,
		now:         time.Now,
		newID:       uuid.New,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// GetAll returns every memory of userID with the user's relations.
func (e *Engine) GetAll(ctx context.Context, userID string) (*memory.ListResult, error) {
	recs, err := e.vectors.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing memories of %s: %w", userID, err)
	}
	if recs == nil {
		recs = []memory.Record{}
	}
	return &memory.ListResult{Results: recs, Relations: e.relations(ctx, userID)}, nil
}

// Add stores in.Text for in.UserID. Text already stored for the same user
// and agent is not stored again and yields no events.
func (e *Engine) Add(ctx context.Context, in memory.AddInput) (*memory.AddResult, error) {
	hash := textHash(in.Text)

	existing, err := e.vectors.List(ctx, in.UserID)
	if err != nil {
		return nil, fmt.Errorf("listing memories of %s: %w", in.UserID, err)
	}
	for _, rec := range existing {
		if rec.Hash == hash && rec.AgentID == in.AgentID {
			slog.Debug("memory already stored", "user_id", in.UserID, "memory_id", rec.ID)
			return &memory.AddResult{Results: []memory.Event{}}, nil
		}
	}

	vec, err := e.embedder.Embed(ctx, in.Text)
	if err != nil {
		return nil, fmt.Errorf("embedding memory: %w", err)
	}

	now := e.now().UTC()
	rec := memory.Record{
		ID:        e.newID().String(),
		Memory:    in.Text,
		Hash:      hash,
		UserID:    in.UserID,
		AgentID:   in.AgentID,
		CreatedAt: formatTime(now),
	}
	inserted := false
	err = e.atomically(ctx, func(vectors VectorStore, history HistoryStore) error {
		if err := vectors.Insert(ctx, rec, vec); err != nil {
			return fmt.Errorf("inserting memory: %w", err)
		}
		inserted = true
		return e.record(ctx, history, rec.ID, nil, &rec.Memory, memory.EventAdd, now, false)
	})
	if errors.Is(err, ErrDuplicate) {
		slog.Debug("memory already stored", "user_id", in.UserID)
		return &memory.AddResult{Results: []memory.Event{}}, nil
	}
	if err != nil {
		if inserted && e.tx == nil {
			e.discard(ctx, rec.ID)
		}
		return nil, err
	}

	var relations []memory.Relation
	if e.graph != nil {
		relations, err = e.graph.Link(ctx, rec)
		if err != nil {
			slog.Warn("linking memory in graph", "error", err, "memory_id", rec.ID)
		}
	}

	e.publish(ctx, inats.MemoryEvent{
		MemoryID:  rec.ID,
		UserID:    rec.UserID,
		AgentID:   rec.AgentID,
		Event:     memory.EventAdd,
		NewMemory: &rec.Memory,
		Timestamp: now,
	})

	return &memory.AddResult{
		Results:   []memory.Event{{ID: rec.ID, Memory: rec.Memory, Event: memory.EventAdd}},
		Relations: relations,
	}, nil
}

// DeleteAll removes every memory of userID.
func (e *Engine) DeleteAll(ctx context.Context, userID string) (*memory.Ack, error) {
	now := e.now().UTC()
	var deleted []memory.Record
	err := e.atomically(ctx, func(vectors VectorStore, history HistoryStore) error {
		recs, err := vectors.DeleteByUser(ctx, userID)
		if err != nil {
			return fmt.Errorf("deleting memories of %s: %w", userID, err)
		}
		deleted = recs
		var errs []error
		for i := range recs {
			if err := e.record(ctx, history, recs[i].ID, &recs[i].Memory, nil, memory.EventDelete, now, true); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
	// Without a transaction the rows are gone even when history failed, so
	// the graph and subscribers still have to hear about it.
	if err != nil && (e.tx != nil || deleted == nil) {
		return nil, err
	}

	for i := range deleted {
		rec := deleted[i]
		e.publish(ctx, inats.MemoryEvent{
			MemoryID:  rec.ID,
			UserID:    rec.UserID,
			AgentID:   rec.AgentID,
			Event:     memory.EventDelete,
			OldMemory: &rec.Memory,
			Timestamp: now,
		})
	}

	if e.graph != nil {
		if err := e.graph.DeleteUser(ctx, userID); err != nil {
			slog.Warn("deleting user graph", "error", err, "user_id", userID)
		}
	}

	if err != nil {
		return nil, err
	}
	slog.Info("deleted memories", "user_id", userID, "count", len(deleted))
	return &memory.Ack{Message: MsgMemoriesDeleted}, nil
}

// Get returns a memory by id.
func (e *Engine) Get(ctx context.Context, memoryID string) (*memory.Record, error) {
	if !validID(memoryID) {
		return nil, fmt.Errorf("memory %s: %w", memoryID, memory.ErrMemoryNotFound)
	}
	rec, err := e.vectors.Get(ctx, memoryID)
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("memory %s: %w", memoryID, memory.ErrMemoryNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting memory %s: %w", memoryID, err)
	}
	return rec, nil
}

// Update replaces the text of a memory. It returns nil when the memory does
// not exist.
func (e *Engine) Update(ctx context.Context, memoryID, text string) (*memory.Record, error) {
	if !validID(memoryID) {
		return nil, nil
	}
	prev, err := e.vectors.Get(ctx, memoryID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting memory %s: %w", memoryID, err)
	}

	vec, err := e.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embedding memory: %w", err)
	}

	now := e.now().UTC()
	var rec *memory.Record
	err = e.atomically(ctx, func(vectors VectorStore, history HistoryStore) error {
		var err error
		rec, err = vectors.Update(ctx, memoryID, text, textHash(text), vec, now)
		if err != nil {
			return err
		}
		return e.record(ctx, history, memoryID, &prev.Memory, &rec.Memory, memory.EventUpdate, now, false)
	})
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("updating memory %s: %w", memoryID, err)
	}
	if e.graph != nil {
		if err := e.graph.UpdateText(ctx, memoryID, text); err != nil {
			slog.Warn("updating memory in graph", "error", err, "memory_id", memoryID)
		}
	}
	e.publish(ctx, inats.MemoryEvent{
		MemoryID:  memoryID,
		UserID:    rec.UserID,
		AgentID:   rec.AgentID,
		Event:     memory.EventUpdate,
		OldMemory: &prev.Memory,
		NewMemory: &rec.Memory,
		Timestamp: now,
	})
	return rec, nil
}

// Delete removes a memory. Deleting an unknown id is an error.
func (e *Engine) Delete(ctx context.Context, memoryID string) (*memory.Ack, error) {
	if !validID(memoryID) {
		return nil, fmt.Errorf("memory %s: %w", memoryID, memory.ErrMemoryNotFound)
	}
	now := e.now().UTC()
	var rec *memory.Record
	err := e.atomically(ctx, func(vectors VectorStore, history HistoryStore) error {
		var err error
		rec, err = vectors.Delete(ctx, memoryID)
		if err != nil {
			return err
		}
		return e.record(ctx, history, memoryID, &rec.Memory, nil, memory.EventDelete, now, true)
	})
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("memory %s: %w", memoryID, memory.ErrMemoryNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("deleting memory %s: %w", memoryID, err)
	}
	if e.graph != nil {
		if err := e.graph.Unlink(ctx, memoryID); err != nil {
			slog.Warn("removing memory from graph", "error", err, "memory_id", memoryID)
		}
	}
	e.publish(ctx, inats.MemoryEvent{
		MemoryID:  memoryID,
		UserID:    rec.UserID,
		AgentID:   rec.AgentID,
		Event:     memory.EventDelete,
		OldMemory: &rec.Memory,
		Timestamp: now,
	})
	return &memory.Ack{Message: MsgMemoryDeleted}, nil
}

// Search ranks filter.UserID's memories by similarity to query.
func (e *Engine) Search(ctx context.Context, query string, filter memory.SearchFilter) (*memory.ListResult, error) {
	vec, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	recs, err := e.vectors.Search(ctx, vec, filter, e.searchLimit)
	if err != nil {
		return nil, fmt.Errorf("searching memories of %s: %w", filter.UserID, err)
	}
	if recs == nil {
		recs = []memory.Record{}
	}
	return &memory.ListResult{Results: recs, Relations: e.relations(ctx, filter.UserID)}, nil
}

// History returns the change log of a memory, oldest first.
func (e *Engine) History(ctx context.Context, memoryID string) ([]memory.HistoryEntry, error) {
	if !validID(memoryID) {
		return []memory.HistoryEntry{}, nil
	}
	entries, err := e.history.List(ctx, memoryID)
	if err != nil {
		return nil, fmt.Errorf("listing history of %s: %w", memoryID, err)
	}
	return entries, nil
}

// atomically runs fn in a transaction when the engine has a Transactor and
// directly against its stores otherwise.
func (e *Engine) atomically(ctx context.Context, fn func(VectorStore, HistoryStore) error) error {
	if e.tx != nil {
		return e.tx.InTx(ctx, fn)
	}
	return fn(e.vectors, e.history)
}

// discard removes a memory whose ADD history could not be written.
func (e *Engine) discard(ctx context.Context, memoryID string) {
	if _, err := e.vectors.Delete(ctx, memoryID); err != nil && !errors.Is(err, ErrNotFound) {
		slog.Error("removing memory without history", "error", err, "memory_id", memoryID)
	}
}

func (e *Engine) record(ctx context.Context, history HistoryStore, memoryID string, oldText, newText *string, event string, at time.Time, deleted bool) error {
	entry := memory.HistoryEntry{
		ID:        e.newID().String(),
		MemoryID:  memoryID,
		OldMemory: oldText,
		NewMemory: newText,
		Event:     event,
		CreatedAt: formatTime(at),
		IsDeleted: deleted,
	}
	if err := history.Append(ctx, entry); err != nil {
		return fmt.Errorf("recording %s history for %s: %w", event, memoryID, err)
	}
	return nil
}

func (e *Engine) relations(ctx context.Context, userID string) []memory.Relation {
	if e.graph == nil {
		return nil
	}
	rels, err := e.graph.Relations(ctx, userID)
	if err != nil {
		slog.Warn("listing graph relations", "error", err, "user_id", userID)
		return nil
	}
	return rels
}

func (e *Engine) publish(ctx context.Context, event inats.MemoryEvent) {
	if e.events == nil {
		return
	}
	if err := e.events.PublishMemoryEvent(ctx, event); err != nil {
		slog.Warn("publishing memory event", "error", err, "memory_id", event.MemoryID, "event", event.Event)
	}
}

func textHash(text string) string {
	sum := md5.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}

func formatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(TimeLayout, s)
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
