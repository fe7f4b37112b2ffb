package config

import "time"

// AppConfig is the static process configuration loaded once at startup via
// Load/LoadWithDefaults, following the monorepo's YAML+env-override pattern
// (loader.go, adapted from infrastructure/config). Anything a
// running process edits at runtime (vendor keys, prompts, embedding
// thresholds) lives instead in the database-backed GlobalAIConfig — see
// internal/database's app config repository.
type AppConfig struct {
	Server ServerConfig `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis RedisConfig `yaml:"redis"`
	Vector VectorConfig `yaml:"vector"`
	Queue QueueConfig `yaml:"queue"`
	Logging LoggingConfig `yaml:"logging"`
	Auth AuthConfig `yaml:"auth"`
}

// ServerConfig configures the external gin/MCP-SSE surface.
type ServerConfig struct {
	Address string `yaml:"address" env:"SERVER_ADDRESS"`
	ReadTimeout time.Duration `yaml:"readTimeout" env:"SERVER_READ_TIMEOUT"`
	WriteTimeout time.Duration `yaml:"writeTimeout" env:"SERVER_WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" env:"SERVER_SHUTDOWN_TIMEOUT"`
}

// DatabaseConfig configures the Postgres connection pool backing the job
// queue, notes, and AI provider repositories.
type DatabaseConfig struct {
	DSN string `yaml:"dsn" env:"DATABASE_DSN"`
	MaxOpenConns int `yaml:"maxOpenConns" env:"DATABASE_MAX_OPEN_CONNS"`
	MaxIdleConns int `yaml:"maxIdleConns" env:"DATABASE_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime" env:"DATABASE_CONN_MAX_LIFETIME"`
}

// RedisConfig holds Redis connection settings. It is loaded with the rest
// of AppConfig; no package in this module reads it or connects to Redis.
type RedisConfig struct {
	Address string `yaml:"address" env:"REDIS_ADDRESS"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB int `yaml:"db" env:"REDIS_DB"`
}

// VectorConfig configures the embedded vector-store file.
type VectorConfig struct {
	Path string `yaml:"path" env:"VECTOR_STORE_PATH"`
}

// QueueConfig configures the archival window and poll cadence for the
// durable job queue. LeaseDuration is loaded but not passed to the queue:
// its monitor reclaims leases older than a fixed ten minutes.
type QueueConfig struct {
	LeaseDuration time.Duration `yaml:"leaseDuration" env:"QUEUE_LEASE_DURATION"`
	ArchiveAfter time.Duration `yaml:"archiveAfter" env:"QUEUE_ARCHIVE_AFTER"`
	PurgeAfter time.Duration `yaml:"purgeAfter" env:"QUEUE_PURGE_AFTER"`
	PollEvery time.Duration `yaml:"pollEvery" env:"QUEUE_POLL_EVERY"`
}

// LoggingConfig configures the zap-backed logger.
type LoggingConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
}

// AuthConfig configures the JWT secret guarding the MCP SSE surface.
type AuthConfig struct {
	JWTSecret string `yaml:"jwtSecret" env:"JWT_SECRET"`
}

// SetDefaults fills in zero-valued fields with the process's defaults,
// matching the monorepo's LoadWithDefaults convention.
func (c *AppConfig) SetDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 15 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 30 * time.Second
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 20
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.ConnMaxLifetime == 0 {
		c.Database.ConnMaxLifetime = 30 * time.Minute
	}
	if c.Vector.Path == "" {
		c.Vector.Path = "./data/vectors.db"
	}
	if c.Queue.LeaseDuration == 0 {
		c.Queue.LeaseDuration = 10 * time.Minute
	}
	if c.Queue.ArchiveAfter == 0 {
		c.Queue.ArchiveAfter = 7 * 24 * time.Hour
	}
	if c.Queue.PurgeAfter == 0 {
		c.Queue.PurgeAfter = 90 * 24 * time.Hour
	}
	if c.Queue.PollEvery == 0 {
		c.Queue.PollEvery = 15 * time.Second
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
}
