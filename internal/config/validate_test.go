package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 8009},
		Auth:   AuthConfig{SecretKey: "XQNlX3oy2rQzZKoBBAILdoxD"},
		DB: DBConfig{
			Host: "localhost", Port: 5432, User: "recall",
			Password: "secret", Name: "recall", SSLMode: "disable", MaxConns: 25,
		},
		Neo4j:     Neo4jConfig{URL: "neo4j://localhost:7687", Username: "neo4j", Password: "secret"},
		Embedding: EmbeddingConfig{Provider: "openai", APIKey: "sk-test", Model: "text-embedding-3-small", Dims: 1536},
		Engine:    EngineConfig{SearchLimit: 100, HistoryBackend: "postgres"},
		Redis:     RedisConfig{Host: "localhost", Port: 6379},
		RateLimit: RateLimitConfig{WindowSec: 60},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
}

func TestValidate_SecretKeyRequired(t *testing.T) {
	cfg := validConfig()
	cfg.Auth.SecretKey = ""
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "SECRET_KEY is required") {
		t.Fatalf("expected SECRET_KEY error, got: %v", err)
	}
}

func TestValidate_DBPasswordRequired(t *testing.T) {
	cfg := validConfig()
	cfg.DB.Password = ""
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "DB_PASSWORD") {
		t.Fatalf("expected DB_PASSWORD error, got: %v", err)
	}
}

func TestValidate_Neo4jRequired(t *testing.T) {
	cfg := validConfig()
	cfg.Neo4j.URL = ""
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "NEO4J_URL") {
		t.Fatalf("expected NEO4J_URL error, got: %v", err)
	}
}

func TestValidate_Neo4jPasswordRequiredWithURL(t *testing.T) {
	cfg := validConfig()
	cfg.Neo4j.Password = ""
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "NEO4J_PASSWORD") {
		t.Fatalf("expected NEO4J_PASSWORD error, got: %v", err)
	}
}

func TestValidate_OpenAIKeyRequired(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.APIKey = ""
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "OPENAI_API_KEY") {
		t.Fatalf("expected OPENAI_API_KEY error, got: %v", err)
	}
}

func TestValidate_HashProviderNeedsNoAPIKey(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.Provider = "hash"
	cfg.Embedding.APIKey = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	cfg.Embedding.Dims = 0
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "EMBEDDING_DIMS") {
		t.Fatalf("expected EMBEDDING_DIMS error, got: %v", err)
	}
}

func TestValidate_EmbeddingProvider(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.Provider = "cohere"
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "EMBEDDING_PROVIDER") {
		t.Fatalf("expected EMBEDDING_PROVIDER error, got: %v", err)
	}
}

func TestValidate_HistoryBackend(t *testing.T) {
	cfg := validConfig()
	cfg.Engine.HistoryBackend = "sqlite"
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "HISTORY_BACKEND") {
		t.Fatalf("expected HISTORY_BACKEND error, got: %v", err)
	}
}

func TestValidate_RedisPortOnlyCheckedWhenUsed(t *testing.T) {
	cfg := validConfig()
	cfg.Redis.Port = 0
	if err := cfg.Validate(); err != nil {
		t.Fatalf("redis unused, expected no error, got: %v", err)
	}

	cfg.RateLimit.Requests = 10
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "REDIS_PORT") {
		t.Fatalf("expected REDIS_PORT error, got: %v", err)
	}
}

func TestValidate_InvalidPorts(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 0
	cfg.DB.Port = 99999
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected port validation errors")
	}
	if !strings.Contains(err.Error(), "SERVER_PORT") {
		t.Errorf("expected SERVER_PORT error in: %v", err)
	}
	if !strings.Contains(err.Error(), "DB_PORT") {
		t.Errorf("expected DB_PORT error in: %v", err)
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	cfg := &Config{
		Server:    ServerConfig{Port: 0},
		DB:        DBConfig{Port: 5432},
		Embedding: EmbeddingConfig{Provider: "openai", Dims: 1536},
		Engine:    EngineConfig{SearchLimit: 100, HistoryBackend: "postgres"},
	}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected multiple validation errors")
	}
	errStr := err.Error()
	for _, substr := range []string{"SECRET_KEY", "DB_PASSWORD", "NEO4J_URL", "OPENAI_API_KEY", "SERVER_PORT"} {
		if !strings.Contains(errStr, substr) {
			t.Errorf("expected %q in error: %s", substr, errStr)
		}
	}
}
