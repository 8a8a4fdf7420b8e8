package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server     ServerConfig
	Auth       AuthConfig
	DB         DBConfig
	Neo4j      Neo4jConfig
	Embedding  EmbeddingConfig
	Engine     EngineConfig
	Redis      RedisConfig
	RateLimit  RateLimitConfig
	NATS       NATSConfig
	CORS       CORSConfig
	Migrations MigrationsConfig
	Log        LogConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type AuthConfig struct {
	SecretKey string
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
}

func (c DBConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

type Neo4jConfig struct {
	URL      string
	Username string
	Password string
}

type EmbeddingConfig struct {
	// Provider is "openai" or "hash".
	Provider string
	APIKey   string
	BaseURL  string
	Model    string
	Dims     int
}

// EngineConfig tunes the memory engine behind the façade.
type EngineConfig struct {
	SearchLimit    int
	HistoryBackend string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type RateLimitConfig struct {
	Requests  int
	WindowSec int
}

// Enabled reports whether protected routes are rate limited.
func (c RateLimitConfig) Enabled() bool {
	return c.Requests > 0
}

type NATSConfig struct {
	URL string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type MigrationsConfig struct {
	Path string
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Load .env file if it exists (ignore error if missing)
	_ = k.Load(file.Provider(".env"), dotenv.Parser())

	// Load environment variables (override .env)
	err := k.Load(env.Provider("", ".", func(s string) string {
		return strings.ToLower(strings.ReplaceAll(s, "_", "."))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: k.String("server.host"),
			Port: k.Int("server.port"),
		},
		Auth: AuthConfig{
			SecretKey: k.String("secret.key"),
		},
		DB: DBConfig{
			Host:     k.String("db.host"),
			Port:     k.Int("db.port"),
			User:     k.String("db.user"),
			Password: k.String("db.password"),
			Name:     k.String("db.name"),
			SSLMode:  k.String("db.sslmode"),
			MaxConns: int32(k.Int("db.max.conns")),
		},
		Neo4j: Neo4jConfig{
			URL:      k.String("neo4j.url"),
			Username: k.String("neo4j.username"),
			Password: k.String("neo4j.password"),
		},
		Embedding: EmbeddingConfig{
			Provider: k.String("embedding.provider"),
			APIKey:   k.String("openai.api.key"),
			BaseURL:  k.String("openai.base.url"),
			Model:    k.String("embedding.model"),
			Dims:     k.Int("embedding.dims"),
		},
		Engine: EngineConfig{
			SearchLimit:    k.Int("search.limit"),
			HistoryBackend: k.String("history.backend"),
		},
		Redis: RedisConfig{
			Host:     k.String("redis.host"),
			Port:     k.Int("redis.port"),
			Password: k.String("redis.password"),
			DB:       k.Int("redis.db"),
		},
		RateLimit: RateLimitConfig{
			Requests:  k.Int("rate.limit.requests"),
			WindowSec: k.Int("rate.limit.window.sec"),
		},
		NATS: NATSConfig{
			URL: k.String("nats.url"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(k.String("cors.allowed.origins")),
		},
		Migrations: MigrationsConfig{
			Path: k.String("migrations.path"),
		},
		Log: LogConfig{
			Level:  k.String("log.level"),
			Format: k.String("log.format"),
		},
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8009
	}
	if c.DB.Host == "" {
		c.DB.Host = "localhost"
	}
	if c.DB.Port == 0 {
		c.DB.Port = 5432
	}
	if c.DB.User == "" {
		c.DB.User = "recall"
	}
	if c.DB.Name == "" {
		c.DB.Name = "recall"
	}
	if c.DB.SSLMode == "" {
		c.DB.SSLMode = "disable"
	}
	if c.DB.MaxConns == 0 {
		c.DB.MaxConns = 25
	}
	if c.Neo4j.Username == "" {
		c.Neo4j.Username = "neo4j"
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}
	if c.Embedding.Dims == 0 {
		c.Embedding.Dims = 1536
	}
	if c.Engine.SearchLimit == 0 {
		c.Engine.SearchLimit = 100
	}
	if c.Engine.HistoryBackend == "" {
		c.Engine.HistoryBackend = "postgres"
	}
	if c.Redis.Host == "" {
		c.Redis.Host = "localhost"
	}
	if c.Redis.Port == 0 {
		c.Redis.Port = 6379
	}
	if c.RateLimit.WindowSec == 0 {
		c.RateLimit.WindowSec = 60
	}
	if c.Migrations.Path == "" {
		c.Migrations.Path = "migrations"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// NeedsRedis reports whether any configured component uses Redis.
func (c *Config) NeedsRedis() bool {
	return c.RateLimit.Enabled() || c.Engine.HistoryBackend == "redis"
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
