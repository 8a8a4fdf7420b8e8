package engine

import (
	"context"
	"errors"
	"math"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/aiox-platform/recall/internal/memory"
	inats "github.com/aiox-platform/recall/internal/nats"
)

type storedVector struct {
	rec memory.Record
	vec []float32
}

// memVectors is an in-memory VectorStore ranking by cosine similarity. Like
// the memories table it rejects a second copy of a user's text per agent.
type memVectors struct {
	mu    sync.Mutex
	items []storedVector
	err   error
	// listStale hides every record from List, as a concurrent insert
	// would be hidden from a check made just before it.
	listStale bool
}

func (m *memVectors) Insert(_ context.Context, rec memory.Record, embedding []float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.taken(rec.UserID, rec.AgentID, rec.Hash, "") {
		return ErrDuplicate
	}
	m.items = append(m.items, storedVector{rec: rec, vec: embedding})
	return nil
}

func (m *memVectors) taken(userID, agentID, hash, exceptID string) bool {
	for _, it := range m.items {
		if it.rec.ID != exceptID && it.rec.UserID == userID && it.rec.AgentID == agentID && it.rec.Hash == hash {
			return true
		}
	}
	return false
}

func (m *memVectors) Get(_ context.Context, id string) (*memory.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, it := range m.items {
		if it.rec.ID == id {
			rec := it.rec
			return &rec, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memVectors) List(_ context.Context, userID string) ([]memory.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.listStale {
		return nil, nil
	}
	var out []memory.Record
	for _, it := range m.items {
		if it.rec.UserID == userID {
			out = append(out, it.rec)
		}
	}
	return out, nil
}

func (m *memVectors) Update(_ context.Context, id, text, hash string, embedding []float32, at time.Time) (*memory.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, it := range m.items {
		if it.rec.ID == id {
			if m.taken(it.rec.UserID, it.rec.AgentID, hash, id) {
				return nil, ErrDuplicate
			}
			m.items[i].rec.Memory = text
			m.items[i].rec.Hash = hash
			m.items[i].rec.UpdatedAt = formatTime(at)
			m.items[i].vec = embedding
			rec := m.items[i].rec
			return &rec, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memVectors) Delete(_ context.Context, id string) (*memory.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, it := range m.items {
		if it.rec.ID == id {
			m.items = slices.Delete(m.items, i, i+1)
			rec := it.rec
			return &rec, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memVectors) DeleteByUser(_ context.Context, userID string) ([]memory.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var deleted []memory.Record
	kept := m.items[:0]
	for _, it := range m.items {
		if it.rec.UserID == userID {
			deleted = append(deleted, it.rec)
			continue
		}
		kept = append(kept, it)
	}
	m.items = kept
	return deleted, nil
}

func (m *memVectors) Search(_ context.Context, embedding []float32, filter memory.SearchFilter, limit int) ([]memory.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []memory.Record
	for _, it := range m.items {
		if it.rec.UserID != filter.UserID {
			continue
		}
		if len(filter.AgentIDs) > 0 && !slices.Contains(filter.AgentIDs, it.rec.AgentID) {
			continue
		}
		rec := it.rec
		rec.Score = cosine(embedding, it.vec)
		out = append(out, rec)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i] * b[i])
		na += float64(a[i] * a[i])
		nb += float64(b[i] * b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

type memHistory struct {
	mu      sync.Mutex
	entries []memory.HistoryEntry
	err     error
}

func (h *memHistory) Append(_ context.Context, entry memory.HistoryEntry) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return h.err
	}
	h.entries = append(h.entries, entry)
	return nil
}

func (h *memHistory) List(_ context.Context, memoryID string) ([]memory.HistoryEntry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := []memory.HistoryEntry{}
	for _, e := range h.entries {
		if e.MemoryID == memoryID {
			out = append(out, e)
		}
	}
	return out, nil
}

// memTx runs fn against memVectors and memHistory and restores both when fn
// fails, standing in for a database transaction.
type memTx struct {
	vectors   *memVectors
	history   *memHistory
	commits   int
	rollbacks int
}

func (m *memTx) InTx(_ context.Context, fn func(VectorStore, HistoryStore) error) error {
	m.vectors.mu.Lock()
	items := slices.Clone(m.vectors.items)
	m.vectors.mu.Unlock()
	m.history.mu.Lock()
	entries := slices.Clone(m.history.entries)
	m.history.mu.Unlock()

	if err := fn(m.vectors, m.history); err != nil {
		m.vectors.mu.Lock()
		m.vectors.items = items
		m.vectors.mu.Unlock()
		m.history.mu.Lock()
		m.history.entries = entries
		m.history.mu.Unlock()
		m.rollbacks++
		return err
	}
	m.commits++
	return nil
}

type fakeGraph struct {
	linked      []memory.Record
	updated     map[string]string
	unlinked    []string
	deleteUsers []string
	relErr      error
}

func (g *fakeGraph) Link(_ context.Context, rec memory.Record) ([]memory.Relation, error) {
	g.linked = append(g.linked, rec)
	return []memory.Relation{{Source: rec.UserID, Relationship: "REMEMBERS", Destination: rec.Memory}}, nil
}

func (g *fakeGraph) UpdateText(_ context.Context, memoryID, text string) error {
	if g.updated == nil {
		g.updated = map[string]string{}
	}
	g.updated[memoryID] = text
	return nil
}

func (g *fakeGraph) Unlink(_ context.Context, memoryID string) error {
	g.unlinked = append(g.unlinked, memoryID)
	return nil
}

func (g *fakeGraph) DeleteUser(_ context.Context, userID string) error {
	g.deleteUsers = append(g.deleteUsers, userID)
	return nil
}

func (g *fakeGraph) Relations(_ context.Context, userID string) ([]memory.Relation, error) {
	if g.relErr != nil {
		return nil, g.relErr
	}
	var out []memory.Relation
	for _, rec := range g.linked {
		if rec.UserID == userID {
			out = append(out, memory.Relation{Source: userID, Relationship: "REMEMBERS", Destination: rec.Memory})
		}
	}
	return out, nil
}

type fakeEvents struct {
	events []inats.MemoryEvent
	err    error
}

func (f *fakeEvents) PublishMemoryEvent(_ context.Context, event inats.MemoryEvent) error {
	f.events = append(f.events, event)
	return f.err
}

type failingEmbedder struct{}

func (failingEmbedder) Embed(context.Context, string) ([]float32, error) {
	return nil, errors.New("embedding provider unavailable")
}
