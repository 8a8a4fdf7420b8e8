package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Validate checks Config for production-critical problems.
// It collects all errors into a single joined error.
func (c *Config) Validate() error {
	var errs []string

	// Shared secret for the protected routes
	if c.Auth.SecretKey == "" {
		errs = append(errs, "SECRET_KEY is required")
	}

	// Vector store (pgvector)
	if c.DB.Password == "" {
		errs = append(errs, "DB_PASSWORD is required")
	}

	// Graph store
	if c.Neo4j.URL == "" {
		errs = append(errs, "NEO4J_URL is required")
	}
	if c.Neo4j.URL != "" && c.Neo4j.Password == "" {
		errs = append(errs, "NEO4J_PASSWORD is required when NEO4J_URL is set")
	}

	// Embedding provider
	switch c.Embedding.Provider {
	case "openai":
		if c.Embedding.APIKey == "" {
			errs = append(errs, "OPENAI_API_KEY is required")
		}
	case "hash":
	default:
		errs = append(errs, fmt.Sprintf("EMBEDDING_PROVIDER must be openai or hash, got %q", c.Embedding.Provider))
	}
	if c.Embedding.Dims < 1 {
		errs = append(errs, fmt.Sprintf("EMBEDDING_DIMS must be positive, got %d", c.Embedding.Dims))
	}

	switch c.Engine.HistoryBackend {
	case "postgres", "redis":
	default:
		errs = append(errs, fmt.Sprintf("HISTORY_BACKEND must be postgres or redis, got %q", c.Engine.HistoryBackend))
	}
	if c.Engine.SearchLimit < 1 {
		errs = append(errs, fmt.Sprintf("SEARCH_LIMIT must be positive, got %d", c.Engine.SearchLimit))
	}

	// Port ranges
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT must be 1-65535, got %d", c.Server.Port))
	}
	if c.DB.Port < 1 || c.DB.Port > 65535 {
		errs = append(errs, fmt.Sprintf("DB_PORT must be 1-65535, got %d", c.DB.Port))
	}
	if c.NeedsRedis() && (c.Redis.Port < 1 || c.Redis.Port > 65535) {
		errs = append(errs, fmt.Sprintf("REDIS_PORT must be 1-65535, got %d", c.Redis.Port))
	}

	if c.RateLimit.Requests < 0 {
		errs = append(errs, fmt.Sprintf("RATE_LIMIT_REQUESTS must not be negative, got %d", c.RateLimit.Requests))
	}

	// Weak secret: warn only
	if c.Auth.SecretKey != "" && len(c.Auth.SecretKey) < 16 {
		slog.Warn("SECRET_KEY is shorter than 16 characters")
	}

	if len(errs) > 0 {
		return errors.New("config validation failed:\n  " + strings.Join(errs, "\n  "))
	}
	return nil
}
