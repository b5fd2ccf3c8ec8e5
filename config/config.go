// Package config loads service settings from defaults, an optional YAML file
// and the environment (.env files included), in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"labdesk/db"
	"labdesk/lending"
	"labdesk/models"
	"labdesk/scheduling"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	LockMemory = "memory"
	LockRedis  = "redis"
)

type Config struct {
	Port     string `yaml:"port"`
	LogLevel string `yaml:"log_level"`

	Database Database `yaml:"database"`
	Redis    Redis    `yaml:"redis"`

	WebOrigins   []string      `yaml:"web_origins"`
	JWTSecret    string        `yaml:"jwt_secret"`
	SessionTTL   time.Duration `yaml:"session_ttl"`
	SeenThrottle time.Duration `yaml:"seen_throttle"`
	LockBackend  string        `yaml:"lock_backend"`
	LockTTL      time.Duration `yaml:"lock_ttl"`

	// AdminEmail gets a generated admin account on first start when no admin exists.
	AdminEmail string `yaml:"admin_email"`

	Lending    lending.Config    `yaml:"lending"`
	Scheduling scheduling.Config `yaml:"scheduling"`
}

type Database struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

func Default() Config {
	return Config{
		Port:         "3001",
		LogLevel:     "info",
		Database:     Database{Driver: db.DriverPostgres},
		Redis:        Redis{Addr: "127.0.0.1:6379"},
		WebOrigins:   []string{"http://localhost:5173"},
		SessionTTL:   24 * time.Hour,
		SeenThrottle: 5 * time.Minute,
		LockBackend:  LockMemory,
		LockTTL:      10 * time.Second,
		Lending:      lending.DefaultConfig(),
		Scheduling:   scheduling.DefaultConfig(),
	}
}

// LoadEnv reads .env into the process environment. A missing file is fine.
func LoadEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("could not load .env", "error", err)
	}
}

// Load builds the configuration. path may be empty.
func Load(path string) (Config, error) {
	LoadEnv()
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	str := func(k string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			*dst = v
		}
	}
	var errs []error
	num := func(k string, dst *int) {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", k, err))
				return
			}
			*dst = n
		}
	}
	flag := func(k string, dst *bool) {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", k, err))
				return
			}
			*dst = b
		}
	}
	seconds := func(k string, dst *time.Duration) {
		var n int
		num(k, &n)
		if n > 0 {
			*dst = time.Duration(n) * time.Second
		}
	}

	str("PORT", &cfg.Port)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("DB_DRIVER", &cfg.Database.Driver)
	str("DATABASE_URL", &cfg.Database.DSN)
	if cfg.Database.DSN == "" && os.Getenv("DB_HOST") != "" {
		cfg.Database.DSN = fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
			os.Getenv("DB_HOST"),
			os.Getenv("DB_USER"),
			os.Getenv("DB_PASSWORD"),
			os.Getenv("DB_NAME"),
			os.Getenv("DB_PORT"),
		)
	}
	str("REDIS_ADDR", &cfg.Redis.Addr)
	str("REDIS_PASSWORD", &cfg.Redis.Password)
	num("REDIS_DB", &cfg.Redis.DB)
	if v := os.Getenv("WEB_ORIGIN"); v != "" {
		cfg.WebOrigins = splitCSV(v)
	}
	str("JWT_SECRET", &cfg.JWTSecret)
	seconds("SESSION_TTL_SECONDS", &cfg.SessionTTL)
	str("LOCK_BACKEND", &cfg.LockBackend)
	str("ADMIN_EMAIL", &cfg.AdminEmail)

	num("MAX_BORROW_DAYS", &cfg.Lending.MaxBorrowDays)
	num("MAX_ITEMS_PER_USER", &cfg.Lending.MaxItemsPerUser)
	flag("AUTO_APPROVAL", &cfg.Lending.AutoApproval)

	var confirm bool
	flag("SCHEDULE_REQUIRE_CONFIRMATION", &confirm)
	if confirm {
		cfg.Scheduling.InitialStatus = models.SchedulePending
	}
	return errors.Join(errs...)
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func (c Config) Validate() error {
	var errs []error
	if c.Database.Driver != db.DriverPostgres && c.Database.Driver != db.DriverSQLite {
		errs = append(errs, fmt.Errorf("database.driver must be %q or %q", db.DriverPostgres, db.DriverSQLite))
	}
	if c.Database.DSN == "" {
		errs = append(errs, errors.New("database dsn is required (DATABASE_URL or DB_HOST...)"))
	}
	if len(c.JWTSecret) < 16 {
		errs = append(errs, errors.New("jwt secret must be at least 16 characters (JWT_SECRET)"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("session ttl must be positive"))
	}
	if c.LockBackend != LockMemory && c.LockBackend != LockRedis {
		errs = append(errs, fmt.Errorf("lock backend must be %q or %q", LockMemory, LockRedis))
	}
	if err := c.Lending.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Scheduling.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
