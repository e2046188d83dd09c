package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendBolt     = "bolt"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendSQLite   = "sqlite"

	SinkLog      = "log"
	SinkRedis    = "redis"
	SinkPostgres = "postgres"
)

// Config aggregates all runtime settings required by the application.
type Config struct {
	AppName     string
	Environment string
	HTTP        HTTPConfig
	Ledger      LedgerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	SQLite      SQLiteConfig
	JWT         JWTConfig
	Outbox      OutboxConfig
	Events      EventsConfig
	Context     ContextConfig
	Logger      LoggerConfig
	Migrations  MigrationsConfig
}

type HTTPConfig struct {
	Host          string
	Port          string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	IdleTimeout   time.Duration
	MaxConn       int
	EnableMetrics bool
}

// LedgerConfig selects the storage backend holding agreements and the counter.
type LedgerConfig struct {
	Backend     string
	BoltPath    string
	BoltBucket  string
	RedisPrefix string
}

type DatabaseConfig struct {
	URL             string
	Host            string
	Port            string
	Name            string
	User            string
	Password        string
	MaxOpenConns    int
	MaxIdleConns    int
	MaxConnLifetime time.Duration
	SSLMode         string
}

type RedisConfig struct {
	URL      string
	Password string
	DB       int
}

type SQLiteConfig struct {
	Path string
}

type JWTConfig struct {
	Secret string
	Issuer string
}

type OutboxConfig struct {
	Path           string
	RetentionHours int
	SyncInterval   time.Duration
	MaxRetry       int
	BatchSize      int
}

type EventsConfig struct {
	Sinks        []string
	RedisChannel string
}

type ContextConfig struct {
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

type LoggerConfig struct {
	Level    string
	Encoding string
}

type MigrationsConfig struct {
	Enabled bool
	Path    string
}

// Load reads configuration from environment variables (optionally .env)
// and applies defaults that boot a single-node bolt ledger.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		AppName:     getString("APP_NAME", "rentledger"),
		Environment: getString("APP_ENV", "development"),
		HTTP: HTTPConfig{
			Host:          getString("SERVER_HOST", "0.0.0.0"),
			Port:          getString("SERVER_PORT", "8080"),
			ReadTimeout:   getDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:  getDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:   getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
			MaxConn:       getInt("SERVER_MAX_CONN", 0),
			EnableMetrics: getBool("SERVER_ENABLE_METRICS", true),
		},
		Ledger: LedgerConfig{
			Backend:     strings.ToLower(getString("LEDGER_BACKEND", BackendBolt)),
			BoltPath:    getString("LEDGER_BOLT_PATH", "./data/ledger.db"),
			BoltBucket:  getString("LEDGER_BOLT_BUCKET", "ledger"),
			RedisPrefix: getString("LEDGER_REDIS_PREFIX", "ledger:"),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			Host:            getString("DB_HOST", "localhost"),
			Port:            getString("DB_PORT", "5432"),
			Name:            getString("DB_NAME", "rentledger"),
			User:            getString("DB_USER", "rentledger"),
			Password:        os.Getenv("DB_PASSWORD"),
			MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 10),
			MaxConnLifetime: getDuration("DB_CONN_LIFETIME", time.Hour),
			SSLMode:         getString("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			URL:      getString("REDIS_URL", "redis://localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getInt("REDIS_DB", 0),
		},
		SQLite: SQLiteConfig{
			Path: getString("SQLITE_PATH", "./data/ledger.sqlite"),
		},
		JWT: JWTConfig{
			Secret: os.Getenv("JWT_SECRET"),
			Issuer: getString("JWT_ISSUER", "rentledger"),
		},
		Outbox: OutboxConfig{
			Path:           getString("OUTBOX_PATH", "./data/outbox.db"),
			RetentionHours: getInt("OUTBOX_RETENTION_HOURS", 72),
			SyncInterval:   getDuration("OUTBOX_SYNC_INTERVAL_SECONDS", 15*time.Second),
			MaxRetry:       getInt("OUTBOX_MAX_RETRY_ATTEMPTS", 10),
			BatchSize:      getInt("OUTBOX_BATCH_SIZE", 50),
		},
		Events: EventsConfig{
			Sinks:        getList("EVENT_SINKS", []string{SinkLog}),
			RedisChannel: getString("EVENT_REDIS_CHANNEL_PREFIX", "rentledger:"),
		},
		Context: ContextConfig{
			RequestTimeout:  getDuration("REQUEST_TIMEOUT_SECONDS", 5*time.Second),
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT_SECONDS", 15*time.Second),
		},
		Logger: LoggerConfig{
			Level:    getString("LOG_LEVEL", "info"),
			Encoding: getString("LOG_ENCODING", "json"),
		},
		Migrations: MigrationsConfig{
			Enabled: getBool("RUN_MIGRATIONS", true),
			Path:    getString("MIGRATIONS_PATH", "./assets/migrations"),
		},
	}

	if cfg.Database.URL == "" {
		cfg.Database.URL = buildPostgresURL(cfg.Database)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NeedsPostgres reports whether any component is configured to use Postgres.
func (c *Config) NeedsPostgres() bool {
	return c.Ledger.Backend == BackendPostgres || c.HasSink(SinkPostgres)
}

// NeedsRedis reports whether any component is configured to use Redis.
func (c *Config) NeedsRedis() bool {
	return c.Ledger.Backend == BackendRedis || c.HasSink(SinkRedis)
}

func (c *Config) HasSink(name string) bool {
	for _, sink := range c.Events.Sinks {
		if sink == name {
			return true
		}
	}
	return false
}

// Address returns the HTTP listen address for the fasthttp server.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%s", c.HTTP.Host, c.HTTP.Port)
}

func (c *Config) validate() error {
	switch c.Ledger.Backend {
	case BackendBolt, BackendPostgres, BackendRedis, BackendSQLite:
	default:
		return fmt.Errorf("config: unknown LEDGER_BACKEND %q", c.Ledger.Backend)
	}
	for _, sink := range c.Events.Sinks {
		switch sink {
		case SinkLog, SinkRedis, SinkPostgres:
		default:
			return fmt.Errorf("config: unknown event sink %q", sink)
		}
	}
	if c.JWT.Secret == "" && c.Environment == "production" {
		return fmt.Errorf("config: JWT_SECRET is required in production")
	}
	return nil
}

func buildPostgresURL(db DatabaseConfig) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		db.User,
		db.Password,
		db.Host,
		db.Port,
		db.Name,
		db.SSLMode,
	)
}

func getString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}

func getList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if strings.TrimSpace(val) == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
			out = append(out, part)
		}
	}
	return out
}
