package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/aiox-platform/recall/internal/memory"
)

const memoryColumns = `id, user_id, agent_id, memory, hash, metadata, created_at, updated_at`

// SQLSTATE unique_violation, raised by memories_user_agent_hash_key.
const uniqueViolation = "23505"

// querier is satisfied by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresVectorStore implements VectorStore using pgx + pgvector.
type PostgresVectorStore struct {
	pool *pgxpool.Pool
	db   querier
}

// NewPostgresVectorStore creates a vector store on pool.
func NewPostgresVectorStore(pool *pgxpool.Pool) *PostgresVectorStore {
	return &PostgresVectorStore{pool: pool, db: pool}
}

func (s *PostgresVectorStore) Insert(ctx context.Context, rec memory.Record, embedding []float32) error {
	id, err := uuid.Parse(rec.ID)
	if err != nil {
		return fmt.Errorf("parsing memory id: %w", err)
	}
	createdAt := time.Now().UTC()
	if rec.CreatedAt != "" {
		if createdAt, err = parseTime(rec.CreatedAt); err != nil {
			return fmt.Errorf("parsing created_at: %w", err)
		}
	}
	metadata := rec.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO memories (id, user_id, agent_id, memory, hash, metadata, embedding, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		id, rec.UserID, nullable(rec.AgentID), rec.Memory, rec.Hash, metadata, pgvector.NewVector(embedding), createdAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("inserting memory: %w", err)
	}
	return nil
}

func (s *PostgresVectorStore) Get(ctx context.Context, id string) (*memory.Record, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+memoryColumns+` FROM memories WHERE id = $1`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting memory: %w", err)
	}
	return rec, nil
}

func (s *PostgresVectorStore) List(ctx context.Context, userID string) ([]memory.Record, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+memoryColumns+`
		 FROM memories
		 WHERE user_id = $1
		 ORDER BY created_at, id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing memories: %w", err)
	}
	return collectRecords(rows, false)
}

func (s *PostgresVectorStore) Update(ctx context.Context, id, text, hash string, embedding []float32, at time.Time) (*memory.Record, error) {
	row := s.db.QueryRow(ctx,
		`UPDATE memories
		 SET memory = $2, hash = $3, embedding = $4, updated_at = $5
		 WHERE id = $1
		 RETURNING `+memoryColumns,
		id, text, hash, pgvector.NewVector(embedding), at,
	)
	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if isUniqueViolation(err) {
		return nil, ErrDuplicate
	}
	if err != nil {
		return nil, fmt.Errorf("updating memory: %w", err)
	}
	return rec, nil
}

func (s *PostgresVectorStore) Delete(ctx context.Context, id string) (*memory.Record, error) {
	row := s.db.QueryRow(ctx,
		`DELETE FROM memories WHERE id = $1 RETURNING `+memoryColumns, id)
	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("deleting memory: %w", err)
	}
	return rec, nil
}

func (s *PostgresVectorStore) DeleteByUser(ctx context.Context, userID string) ([]memory.Record, error) {
	rows, err := s.db.Query(ctx,
		`DELETE FROM memories WHERE user_id = $1 RETURNING `+memoryColumns, userID)
	if err != nil {
		return nil, fmt.Errorf("deleting user memories: %w", err)
	}
	return collectRecords(rows, false)
}

func (s *PostgresVectorStore) Search(ctx context.Context, embedding []float32, filter memory.SearchFilter, limit int) ([]memory.Record, error) {
	var agents []string
	if len(filter.AgentIDs) > 0 {
		agents = filter.AgentIDs
	}
	rows, err := s.db.Query(ctx,
		`SELECT `+memoryColumns+`, 1 - (embedding <=> $1) AS score
		 FROM memories
		 WHERE user_id = $2
		   AND ($3::text[] IS NULL OR agent_id = ANY($3))
		 ORDER BY embedding <=> $1
		 LIMIT $4`,
		pgvector.NewVector(embedding), filter.UserID, agents, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("searching memories: %w", err)
	}
	return collectRecords(rows, true)
}

// HealthCheck pings the database.
func (s *PostgresVectorStore) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func collectRecords(rows pgx.Rows, withScore bool) ([]memory.Record, error) {
	defer rows.Close()

	records := []memory.Record{}
	for rows.Next() {
		var (
			rec *memory.Record
			err error
		)
		if withScore {
			rec, err = scanScoredRecord(rows)
		} else {
			rec, err = scanRecord(rows)
		}
		if err != nil {
			return nil, fmt.Errorf("scanning memory: %w", err)
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

type recordRow struct {
	id        uuid.UUID
	agentID   *string
	createdAt time.Time
	updatedAt *time.Time
	rec       memory.Record
}

func (r *recordRow) dest() []any {
	return []any{&r.id, &r.rec.UserID, &r.agentID, &r.rec.Memory, &r.rec.Hash, &r.rec.Metadata, &r.createdAt, &r.updatedAt}
}

func (r *recordRow) record() *memory.Record {
	rec := r.rec
	rec.ID = r.id.String()
	if r.agentID != nil {
		rec.AgentID = *r.agentID
	}
	rec.CreatedAt = formatTime(r.createdAt)
	if r.updatedAt != nil {
		rec.UpdatedAt = formatTime(*r.updatedAt)
	}
	return &rec
}

func scanRecord(row rowScanner) (*memory.Record, error) {
	var r recordRow
	if err := row.Scan(r.dest()...); err != nil {
		return nil, err
	}
	return r.record(), nil
}

func scanScoredRecord(row rowScanner) (*memory.Record, error) {
	var r recordRow
	if err := row.Scan(append(r.dest(), &r.rec.Score)...); err != nil {
		return nil, err
	}
	return r.record(), nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
