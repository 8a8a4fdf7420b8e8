package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/aiox-platform/recall/internal/memory"
)

// PostgresHistoryStore keeps history in the memory_history table.
type PostgresHistoryStore struct {
	db querier
}

// NewPostgresHistoryStore creates a history store on pool.
func NewPostgresHistoryStore(pool *pgxpool.Pool) *PostgresHistoryStore {
	return &PostgresHistoryStore{db: pool}
}

func (s *PostgresHistoryStore) Append(ctx context.Context, entry memory.HistoryEntry) error {
	id, err := uuid.Parse(entry.ID)
	if err != nil {
		return fmt.Errorf("parsing history id: %w", err)
	}
	memoryID, err := uuid.Parse(entry.MemoryID)
	if err != nil {
		return fmt.Errorf("parsing memory id: %w", err)
	}
	createdAt, err := parseTime(entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("parsing created_at: %w", err)
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO memory_history (id, memory_id, old_memory, new_memory, event, created_at, is_deleted)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, memoryID, entry.OldMemory, entry.NewMemory, entry.Event, createdAt, entry.IsDeleted,
	)
	if err != nil {
		return fmt.Errorf("inserting history entry: %w", err)
	}
	return nil
}

func (s *PostgresHistoryStore) List(ctx context.Context, memoryID string) ([]memory.HistoryEntry, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, memory_id, old_memory, new_memory, event, created_at, updated_at, is_deleted
		 FROM memory_history
		 WHERE memory_id = $1
		 ORDER BY created_at`,
		memoryID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	defer rows.Close()

	entries := []memory.HistoryEntry{}
	for rows.Next() {
		var (
			e         memory.HistoryEntry
			id, memID uuid.UUID
			createdAt time.Time
			updatedAt *time.Time
		)
		if err := rows.Scan(&id, &memID, &e.OldMemory, &e.NewMemory, &e.Event, &createdAt, &updatedAt, &e.IsDeleted); err != nil {
			return nil, fmt.Errorf("scanning history entry: %w", err)
		}
		e.ID = id.String()
		e.MemoryID = memID.String()
		e.CreatedAt = formatTime(createdAt)
		if updatedAt != nil {
			e.UpdatedAt = formatTime(*updatedAt)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// RedisHistoryStore keeps each memory's history in a Redis list.
type RedisHistoryStore struct {
	client redis.Cmdable
}

// NewRedisHistoryStore creates a history store on client.
func NewRedisHistoryStore(client redis.Cmdable) *RedisHistoryStore {
	return &RedisHistoryStore{client: client}
}

func historyKey(memoryID string) string {
	return fmt.Sprintf("history:%s", memoryID)
}

func (s *RedisHistoryStore) Append(ctx context.Context, entry memory.HistoryEntry) error {
	key := historyKey(entry.MemoryID)

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshaling entry: %w", err)
	}
	if err := s.client.RPush(ctx, key, data).Err(); err != nil {
		return fmt.Errorf("rpush %s: %w", key, err)
	}
	return nil
}

func (s *RedisHistoryStore) List(ctx context.Context, memoryID string) ([]memory.HistoryEntry, error) {
	key := historyKey(memoryID)

	vals, err := s.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("lrange %s: %w", key, err)
	}

	entries := make([]memory.HistoryEntry, 0, len(vals))
	for _, v := range vals {
		var entry memory.HistoryEntry
		if err := json.Unmarshal([]byte(v), &entry); err != nil {
			slog.Warn("skipping malformed history entry", "key", key, "error", err)
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
