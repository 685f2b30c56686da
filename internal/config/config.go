package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates all runtime settings required by the application.
type Config struct {
	AppName     string
	Environment string
	HTTP        HTTPConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	CredStore   CredStoreConfig
	JWT         JWTConfig
	AI          AIConfig
	Mail        MailConfig
	Outbox      OutboxConfig
	Context     ContextConfig
	Logger      LoggerConfig
	Migrations  MigrationsConfig
}

type HTTPConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	MaxConn      int
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
	// IdentityTTL bounds how stale a cached identity record may get.
	IdentityTTL time.Duration
}

// CredStoreConfig points at the hosted authentication provider.
type CredStoreConfig struct {
	BaseURL    string
	StreamURL  string
	APIKey     string
	ServiceKey string
	Timeout    time.Duration
}

type JWTConfig struct {
	// Secret is the hosted provider's JWT signing secret (HS256).
	Secret string
	Issuer string
}

type AIConfig struct {
	APIKey    string
	BaseURL   string
	FastModel string
	ChatModel string
}

type MailConfig struct {
	BaseURL string
	APIKey  string
	From    string
	Timeout time.Duration
}

type OutboxConfig struct {
	Path           string
	RetentionHours int
	DrainInterval  time.Duration
	MaxRetry       int
	BatchSize      int
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
// and applies sane defaults so the service can boot in any environment.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		AppName:     getString("APP_NAME", "medipro-backend"),
		Environment: getString("APP_ENV", "development"),
		HTTP: HTTPConfig{
			Host:         getString("SERVER_HOST", "0.0.0.0"),
			Port:         getString("SERVER_PORT", "8080"),
			ReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:  getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
			MaxConn:      getInt("SERVER_MAX_CONN", 0),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			Host:            getString("DB_HOST", "localhost"),
			Port:            getString("DB_PORT", "5432"),
			Name:            getString("DB_NAME", "medipro"),
			User:            getString("DB_USER", "medipro"),
			Password:        os.Getenv("DB_PASSWORD"),
			MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 10),
			MaxConnLifetime: getDuration("DB_CONN_LIFETIME", time.Hour),
			SSLMode:         getString("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			URL:         getString("REDIS_URL", "redis://localhost:6379"),
			Password:    os.Getenv("REDIS_PASSWORD"),
			DB:          getInt("REDIS_DB", 0),
			IdentityTTL: getDuration("IDENTITY_CACHE_TTL", 5*time.Minute),
		},
		CredStore: CredStoreConfig{
			BaseURL:    getString("AUTH_BASE_URL", "http://localhost:9999/auth/v1"),
			StreamURL:  getString("AUTH_STREAM_URL", "ws://localhost:9999/auth/v1/stream"),
			APIKey:     os.Getenv("AUTH_API_KEY"),
			ServiceKey: os.Getenv("AUTH_SERVICE_KEY"),
			Timeout:    getDuration("AUTH_TIMEOUT", 10*time.Second),
		},
		JWT: JWTConfig{
			Secret: os.Getenv("JWT_SECRET"),
			Issuer: getString("JWT_ISSUER", "medipro-backend"),
		},
		AI: AIConfig{
			APIKey:    os.Getenv("AI_API_KEY"),
			BaseURL:   os.Getenv("AI_BASE_URL"),
			FastModel: getString("AI_FAST_MODEL", ""),
			ChatModel: getString("AI_CHAT_MODEL", ""),
		},
		Mail: MailConfig{
			BaseURL: getString("MAIL_BASE_URL", "http://localhost:8025"),
			APIKey:  os.Getenv("MAIL_API_KEY"),
			From:    getString("MAIL_FROM", "noreply@medipro.local"),
			Timeout: getDuration("MAIL_TIMEOUT", 10*time.Second),
		},
		Outbox: OutboxConfig{
			Path:           getString("BOLTDB_PATH", "./data/outbox.db"),
			RetentionHours: getInt("OUTBOX_RETENTION_HOURS", 72),
			DrainInterval:  getDuration("OUTBOX_DRAIN_INTERVAL", 30*time.Second),
			MaxRetry:       getInt("OUTBOX_MAX_RETRY", 3),
			BatchSize:      getInt("OUTBOX_BATCH_SIZE", 50),
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
		cfg.Database.URL = buildPostgresURL(cfg)
	}

	return cfg, nil
}

// MustLoad panics if configuration cannot be loaded.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func buildPostgresURL(cfg *Config) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.Name,
		cfg.Database.SSLMode,
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

// Address returns the HTTP listen address for the fasthttp server.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%s", c.HTTP.Host, c.HTTP.Port)
}
