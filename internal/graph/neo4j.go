package graph

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/aiox-platform/recall/internal/config"
	"github.com/aiox-platform/recall/internal/memory"
)

// Relationship types written by the store.
const (
	RelRemembers = "REMEMBERS"
	RelRecorded  = "RECORDED"
)

// NewDriver connects to Neo4j and verifies connectivity.
func NewDriver(ctx context.Context, cfg config.Neo4jConfig) (neo4j.DriverWithContext, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URL, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("creating neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("verifying neo4j connectivity: %w", err)
	}
	slog.Info("connected to Neo4j", "url", cfg.URL)
	return driver, nil
}

// Store keeps the user/agent/memory graph. Users and agents are nodes keyed
// by id; each memory node is linked from its owner and, when set, its agent.
type Store struct {
	driver neo4j.DriverWithContext
}

// NewStore creates a graph store on top of driver.
func NewStore(driver neo4j.DriverWithContext) *Store {
	return &Store{driver: driver}
}

// HealthCheck verifies the driver can reach the server.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.driver.VerifyConnectivity(ctx)
}

// Link records rec in the graph and returns the relations it created.
func (s *Store) Link(ctx context.Context, rec memory.Record) ([]memory.Relation, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	query := `
		MERGE (u:User {id: $userId})
		MERGE (m:Memory {id: $memoryId})
		SET m.text = $text, m.user_id = $userId, m.created_at = $createdAt
		MERGE (u)-[:REMEMBERS]->(m)
	`
	params := map[string]any{
		"userId":    rec.UserID,
		"memoryId":  rec.ID,
		"text":      rec.Memory,
		"createdAt": rec.CreatedAt,
	}
	if _, err := session.Run(ctx, query, params); err != nil {
		return nil, fmt.Errorf("linking memory %s: %w", rec.ID, err)
	}

	relations := []memory.Relation{{Source: rec.UserID, Relationship: RelRemembers, Destination: rec.Memory}}
	if rec.AgentID == "" {
		return relations, nil
	}

	agentQuery := `
		MATCH (m:Memory {id: $memoryId})
		MERGE (a:Agent {id: $agentId})
		MERGE (a)-[:RECORDED]->(m)
	`
	if _, err := session.Run(ctx, agentQuery, map[string]any{
		"memoryId": rec.ID,
		"agentId":  rec.AgentID,
	}); err != nil {
		return nil, fmt.Errorf("linking agent %s to memory %s: %w", rec.AgentID, rec.ID, err)
	}
	return append(relations, memory.Relation{Source: rec.AgentID, Relationship: RelRecorded, Destination: rec.Memory}), nil
}

// UpdateText changes the text of a memory node.
func (s *Store) UpdateText(ctx context.Context, memoryID, text string) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.Run(ctx, `MATCH (m:Memory {id: $memoryId}) SET m.text = $text`, map[string]any{
		"memoryId": memoryID,
		"text":     text,
	})
	if err != nil {
		return fmt.Errorf("updating memory node %s: %w", memoryID, err)
	}
	return nil
}

// Unlink removes a memory node and its relationships.
func (s *Store) Unlink(ctx context.Context, memoryID string) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.Run(ctx, `MATCH (m:Memory {id: $memoryId}) DETACH DELETE m`, map[string]any{
		"memoryId": memoryID,
	})
	if err != nil {
		return fmt.Errorf("deleting memory node %s: %w", memoryID, err)
	}
	return nil
}

// DeleteUser removes every memory node owned by userID and the user node.
func (s *Store) DeleteUser(ctx context.Context, userID string) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	query := `
		MATCH (u:User {id: $userId})
		OPTIONAL MATCH (u)-[:REMEMBERS]->(m:Memory)
		DETACH DELETE m, u
	`
	if _, err := session.Run(ctx, query, map[string]any{"userId": userID}); err != nil {
		return fmt.Errorf("deleting user graph %s: %w", userID, err)
	}
	return nil
}

// Relations lists the edges reachable from userID's memories, oldest first.
func (s *Store) Relations(ctx context.Context, userID string) ([]memory.Relation, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := `
		MATCH (u:User {id: $userId})-[:REMEMBERS]->(m:Memory)
		OPTIONAL MATCH (a:Agent)-[:RECORDED]->(m)
		RETURN u.id AS user_id, a.id AS agent_id, m.text AS text
		ORDER BY m.created_at
	`
	result, err := session.Run(ctx, query, map[string]any{"userId": userID})
	if err != nil {
		return nil, fmt.Errorf("listing relations for %s: %w", userID, err)
	}

	relations := []memory.Relation{}
	for result.Next(ctx) {
		record := result.Record()
		text := stringValue(record, "text")
		relations = append(relations, memory.Relation{
			Source:       stringValue(record, "user_id"),
			Relationship: RelRemembers,
			Destination:  text,
		})
		if agent := stringValue(record, "agent_id"); agent != "" {
			relations = append(relations, memory.Relation{
				Source:       agent,
				Relationship: RelRecorded,
				Destination:  text,
			})
		}
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("reading relations for %s: %w", userID, err)
	}
	return relations, nil
}

func stringValue(record *neo4j.Record, key string) string {
	v, ok := record.Get(key)
	if !ok || v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}
