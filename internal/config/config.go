package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	SLA          SLAConfig
	Sweep        SweepConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// SLAConfig carries the priority duration table and escalation thresholds.
// This is the single source of truth for the SLA rule set; the engine
// receives it as an immutable policy at startup.
type SLAConfig struct {
	UrgentHours int
	HighHours   int
	MediumHours int
	LowHours    int

	WarningThresholdPct float64
	UrgentThresholdPct  float64
	BreachThresholdPct  float64
}

// SweepConfig bounds the escalation sweep.
type SweepConfig struct {
	// RecheckIntervalMinutes is the minimum spacing between two
	// evaluations of the same issue.
	RecheckIntervalMinutes int
	// MaxBatch caps how many candidates a single sweep processes; the
	// remainder stays eligible for the next sweep.
	MaxBatch int
	// Concurrency bounds parallel per-issue evaluation.
	Concurrency int
	// LockTTLSeconds is the per-issue redis lock expiry.
	LockTTLSeconds int
	// WorkerEnabled starts the periodic in-process sweep scheduler.
	WorkerEnabled         bool
	WorkerIntervalMinutes int
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	EmailFrom  string
	WebhookURL string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "namma-city-sla"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		SLA: SLAConfig{
			UrgentHours:         getEnvAsInt("SLA_URGENT_HOURS", 24),
			HighHours:           getEnvAsInt("SLA_HIGH_HOURS", 72),
			MediumHours:         getEnvAsInt("SLA_MEDIUM_HOURS", 168),
			LowHours:            getEnvAsInt("SLA_LOW_HOURS", 336),
			WarningThresholdPct: getEnvAsFloat("SLA_WARNING_THRESHOLD_PCT", 50),
			UrgentThresholdPct:  getEnvAsFloat("SLA_URGENT_THRESHOLD_PCT", 80),
			BreachThresholdPct:  getEnvAsFloat("SLA_BREACH_THRESHOLD_PCT", 100),
		},
		Sweep: SweepConfig{
			RecheckIntervalMinutes: getEnvAsInt("SWEEP_RECHECK_INTERVAL_MINUTES", 60),
			MaxBatch:               getEnvAsInt("SWEEP_MAX_BATCH", 500),
			Concurrency:            getEnvAsInt("SWEEP_CONCURRENCY", 8),
			LockTTLSeconds:         getEnvAsInt("SWEEP_LOCK_TTL_SECONDS", 30),
			WorkerEnabled:          getEnvAsBool("SWEEP_WORKER_ENABLED", false),
			WorkerIntervalMinutes:  getEnvAsInt("SWEEP_WORKER_INTERVAL_MINUTES", 60),
		},
		Notification: NotificationConfig{
			EmailFrom:  getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// RecheckInterval returns the minimum re-evaluation spacing per issue.
func (s SweepConfig) RecheckInterval() time.Duration {
	if s.RecheckIntervalMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(s.RecheckIntervalMinutes) * time.Minute
}

// LockTTL returns the per-issue lock expiry.
func (s SweepConfig) LockTTL() time.Duration {
	if s.LockTTLSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(s.LockTTLSeconds) * time.Second
}

// WorkerInterval returns the periodic sweep cadence.
func (s SweepConfig) WorkerInterval() time.Duration {
	if s.WorkerIntervalMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(s.WorkerIntervalMinutes) * time.Minute
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsFloat(key string, fallback float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
