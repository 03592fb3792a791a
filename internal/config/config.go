package config

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config is the full process configuration, read from the environment
// (optionally seeded from a .env file).
type Config struct {
	Server   ServerConfig
	Log      LogConfig
	Backend  BackendConfig
	Storage  StorageConfig
	Postgres PostgresConfig
	Notices  NoticeConfig
	Auth     AuthConfig
	CORS     CORSConfig
}

type ServerConfig struct {
	Addr            string        `env:"SERVER_ADDR"             env-default:"127.0.0.1:8080" validate:"required"`
	GinMode         string        `env:"GIN_MODE"                env-default:"debug"          validate:"required,oneof=debug release test"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT"     env-default:"10s"            validate:"gt=0"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT"    env-default:"30s"            validate:"gt=0"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"5s"             validate:"gt=0"`
	LoginPath       string        `env:"LOGIN_PATH"              env-default:"/login"         validate:"required,startswith=/"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL"  env-default:"info" validate:"required,oneof=debug info warn error"`
	Format string `env:"LOG_FORMAT" env-default:"text" validate:"required,oneof=text json"`
}

// SlogLevel maps the configured level onto slog.
func (c LogConfig) SlogLevel() slog.Level {
	switch c.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type BackendConfig struct {
	URL     string        `env:"BACKEND_URL"     env-default:"http://localhost:4000" validate:"required,url"`
	Timeout time.Duration `env:"BACKEND_TIMEOUT" env-default:"15s"                   validate:"gte=0"`
}

const (
	StorageDriverPostgres = "postgres"
	StorageDriverFile     = "file"
	StorageDriverMemory   = "memory"
)

type StorageConfig struct {
	Driver  string `env:"STORAGE_DRIVER"  env-default:"file"          validate:"required,oneof=postgres file memory"`
	Profile string `env:"STORAGE_PROFILE" env-default:"default"       validate:"required"`
	Dir     string `env:"STORAGE_DIR"     env-default:".salon-admin"`
}

type PostgresConfig struct {
	Host     string `env:"DB_HOST"     env-default:"localhost"`
	Port     int    `env:"DB_PORT"     env-default:"5432" validate:"min=1,max=65535"`
	User     string `env:"DB_USER"     env-default:"postgres"`
	Password string `env:"DB_PASSWORD" env-default:""`
	Name     string `env:"DB_NAME"     env-default:"salon_admin"`
	SSLMode  string `env:"DB_SSLMODE"  env-default:"disable" validate:"oneof=disable require verify-ca verify-full"`
}

func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Name, p.SSLMode)
}

type NoticeConfig struct {
	SessionKey   string `env:"SESSION_KEY"`
	CookieSecure bool   `env:"COOKIE_SECURE" env-default:"false"`
}

// AuthConfig controls the dashboard token handed to the browser at sign in.
type AuthConfig struct {
	TokenSecret string        `env:"DASHBOARD_TOKEN_SECRET"`
	TokenTTL    time.Duration `env:"DASHBOARD_TOKEN_TTL" env-default:"12h" validate:"gt=0"`
}

// Secret returns the token signing secret. A missing or short secret is
// replaced by a random one, so dashboard tokens do not survive a restart.
func (a AuthConfig) Secret() string {
	if len(a.TokenSecret) >= 32 {
		return a.TokenSecret
	}
	if a.TokenSecret != "" {
		slog.Warn("DASHBOARD_TOKEN_SECRET is shorter than 32 bytes, generating a random secret")
	} else {
		slog.Warn("DASHBOARD_TOKEN_SECRET not set, generating a random secret; sign in again after a restart")
	}
	return base64.StdEncoding.EncodeToString(randomKey())
}

type CORSConfig struct {
	AllowOrigins []string `env:"CORS_ALLOW_ORIGINS" env-default:"http://localhost:3001" env-separator:","`
}

// Load reads .env (when present) and the environment into a validated Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found or error loading, relying on environment variables")
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints and cross-field rules.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Storage.Driver == StorageDriverPostgres && (c.Postgres.Host == "" || c.Postgres.User == "" || c.Postgres.Name == "") {
		return fmt.Errorf("invalid configuration: postgres storage needs DB_HOST, DB_USER and DB_NAME")
	}
	if c.Storage.Driver == StorageDriverFile && c.Storage.Dir == "" {
		return fmt.Errorf("invalid configuration: file storage needs STORAGE_DIR")
	}
	return nil
}

// NoticeKey returns the decoded cookie key for notices. A missing or short
// key is replaced by a random one, so notices do not survive a restart.
func (c NoticeConfig) NoticeKey() []byte {
	if c.SessionKey != "" {
		decoded, err := base64.StdEncoding.DecodeString(c.SessionKey)
		if err == nil && len(decoded) >= 32 {
			return decoded
		}
		slog.Warn("SESSION_KEY is invalid or shorter than 32 bytes, generating a random key")
	} else {
		slog.Warn("SESSION_KEY not set, generating a random key; notices reset on restart")
	}
	return randomKey()
}

func randomKey() []byte {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		panic(fmt.Sprintf("failed to generate key: %v", err))
	}
	return key
}
