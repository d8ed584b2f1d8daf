// load application-specific configuration settings from environment variables

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const minSecretLength = 16

// Sync driver names accepted in SYNC_DRIVER.
const (
	SyncNoop   = "noop"
	SyncSheets = "sheets"
	SyncRedis  = "redis"
)

type Config struct {
	AppEnv         string `env:"APP_ENV" envDefault:"development"`
	ServerAddress  string `env:"SERVER_ADDRESS" envDefault:":8080"`
	AllowedOrigins string `env:"ALLOWED_ORIGINS" envDefault:"*"`
	// TrustedProxies lists the proxy CIDRs or IPs whose X-Forwarded-For is
	// honoured. Empty means the socket address is the client IP.
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`

	DBDriver    string `env:"DB_DRIVER" envDefault:"sqlite"`
	DatabaseURL string `env:"DATABASE_URL"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"chessmistry.db"`

	JWT      JWTConfig
	Password PasswordConfig
	Upload   UploadConfig
	Sync     SyncConfig

	LeaderboardLimit   int `env:"LEADERBOARD_LIMIT" envDefault:"100"`
	LoginRatePerMinute int `env:"LOGIN_RATE_PER_MINUTE" envDefault:"10"`
}

type JWTConfig struct {
	SecretKey string        `env:"JWT_SECRET"`
	TTL       time.Duration `env:"JWT_TTL" envDefault:"168h"`
}

type PasswordConfig struct {
	Time     uint32 `env:"ARGON2_TIME" envDefault:"3"`
	MemoryKB uint32 `env:"ARGON2_MEMORY_KB" envDefault:"65536"`
	Threads  uint8  `env:"ARGON2_THREADS" envDefault:"2"`
}

type UploadConfig struct {
	Dir      string `env:"UPLOAD_DIR" envDefault:"uploads/profiles"`
	MaxBytes int64  `env:"UPLOAD_MAX_BYTES" envDefault:"5242880"`
}

type SyncConfig struct {
	Driver    string `env:"SYNC_DRIVER" envDefault:"noop"`
	QueueSize int    `env:"SYNC_QUEUE_SIZE" envDefault:"256"`

	SheetsSpreadsheetID   string `env:"SHEETS_SPREADSHEET_ID"`
	SheetsCredentialsPath string `env:"SHEETS_CREDENTIALS_PATH"`
	SheetsSheetName       string `env:"SHEETS_SHEET_NAME" envDefault:"Users"`

	RedisAddr      string `env:"REDIS_ADDR"`
	RedisPassword  string `env:"REDIS_PASSWORD"`
	RedisDB        int    `env:"REDIS_DB" envDefault:"0"`
	RedisKeyPrefix string `env:"REDIS_KEY_PREFIX" envDefault:"chessmistry:user"`
}

// LoadConfig reads .env when present, then the process environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return Parse()
}

// Parse builds the config from the process environment only.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings that have no usable default.
func (c *Config) Validate() error {
	c.DBDriver = strings.ToLower(strings.TrimSpace(c.DBDriver))
	switch c.DBDriver {
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL environment variable not set")
		}
	case "sqlite":
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH must not be empty")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}

	if len(c.JWT.SecretKey) < minSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d bytes", minSecretLength)
	}
	if c.JWT.TTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive")
	}
	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("UPLOAD_MAX_BYTES must be positive")
	}

	c.Sync.Driver = strings.ToLower(strings.TrimSpace(c.Sync.Driver))
	switch c.Sync.Driver {
	case SyncNoop, SyncSheets, SyncRedis:
	case "":
		c.Sync.Driver = SyncNoop
	default:
		return fmt.Errorf("unsupported SYNC_DRIVER %q", c.Sync.Driver)
	}
	return nil
}

// DSN returns the connection string for the configured driver.
func (c *Config) DSN() string {
	if c.DBDriver == "postgres" {
		return c.DatabaseURL
	}
	return c.SQLitePath
}

// Origins splits ALLOWED_ORIGINS on commas.
func (c *Config) Origins() []string {
	var origins []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}
