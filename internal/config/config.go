package config

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/boni03200-lang/gomasecure/internal/domain"
)

type Config struct {
	Env      string         `json:"env"`
	Http     HttpConfig     `json:"http"`
	Postgres PostgresConfig `json:"postgres"`
	Redis    RedisConfig    `json:"redis"`
	APIKey   string         `json:"api_key,omitempty"`
	Notify   NotifyConfig   `json:"notify"`
	Engine   EngineConfig   `json:"engine"`
}

type HttpConfig struct {
	Port            string        `json:"port"`
	ReadTimeout     time.Duration `json:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
}

type PostgresConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Database string `json:"database"`
	User     string `json:"user"`
	Password string `json:"password,omitempty"`
	SSLMode  string `json:"ssl_mode"`

	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password,omitempty"`
	DB       int    `json:"db"`
}

// NotifyConfig drives the delivery worker for notification intents.
type NotifyConfig struct {
	WebhookURL string `json:"webhook_url"`
	Disabled   bool   `json:"disabled"`
}

// EngineConfig carries the correlation/validation/scoring policy. These are
// tuning knobs, not engine logic: the services read them and never hardcode.
type EngineConfig struct {
	AutoValidateThreshold int `json:"auto_validate_threshold"`
	MergeBonus            int `json:"merge_bonus"`
	LikeDelta             int `json:"like_delta"`    // reliability on like
	DislikeDelta          int `json:"dislike_delta"` // reliability on dislike (negative)
	PromotionThreshold    int `json:"promotion_threshold"`

	// Merge radius per incident type, meters.
	MergeRadiusM map[domain.IncidentType]float64 `json:"merge_radius_m"`

	CacheTTL             time.Duration `json:"cache_ttl"`
	CacheRefreshInterval time.Duration `json:"cache_refresh_interval"`
}

func Load(ctx context.Context) (*Config, error) {

	stdLogger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		stdLogger.Warn(".env load warning", slog.Any("error", err))
	}

	cfg := &Config{
		Env: getEnv("ENV", "local"),
		Http: HttpConfig{
			Port:            getEnv("HTTP_PORT", ":8080"),
			ReadTimeout:     getEnvDuration("HTTP_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvDuration("HTTP_WRITE_TIMEOUT", 10*time.Second),
			ShutdownTimeout: getEnvDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Postgres: PostgresConfig{
			Host:            getEnv("POSTGRES_HOST", "pg-local"),
			Port:            getEnvInt("POSTGRES_PORT", 5432),
			Database:        getEnv("POSTGRES_DB", "gomasecure_db"),
			User:            getEnv("POSTGRES_USER", "postgres"),
			Password:        getEnv("POSTGRES_PASSWORD", "postgres"),
			SSLMode:         getEnv("POSTGRES_SSL_MODE", "disable"),
			MaxConns:        20,
			MinConns:        1,
			MaxConnLifetime: 1 * time.Hour,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "redis-local:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		APIKey: getEnv("API_KEY", "super-secret-key"),
		Notify: NotifyConfig{
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", "http://notifier-local:9090/intents"),
			Disabled:   getEnvBool("NOTIFY_DISABLED", false),
		},
		Engine: EngineConfig{
			AutoValidateThreshold: getEnvInt("AUTO_VALIDATE_THRESHOLD", 3),
			MergeBonus:            getEnvInt("MERGE_BONUS", 10),
			LikeDelta:             getEnvInt("LIKE_DELTA", 10),
			DislikeDelta:          getEnvInt("DISLIKE_DELTA", -15),
			PromotionThreshold:    getEnvInt("PROMOTION_THRESHOLD", 80),
			MergeRadiusM: map[domain.IncidentType]float64{
				domain.IncidentTheft:     getEnvFloat("MERGE_RADIUS_THEFT_M", 150),
				domain.IncidentAssault:   getEnvFloat("MERGE_RADIUS_ASSAULT_M", 200),
				domain.IncidentAccident:  getEnvFloat("MERGE_RADIUS_ACCIDENT_M", 500),
				domain.IncidentFire:      getEnvFloat("MERGE_RADIUS_FIRE_M", 2000),
				domain.IncidentAbduction: getEnvFloat("MERGE_RADIUS_ABDUCTION_M", 300),
				domain.IncidentSOS:       getEnvFloat("MERGE_RADIUS_SOS_M", 1000),
				domain.IncidentOther:     getEnvFloat("MERGE_RADIUS_OTHER_M", 200),
			},
			CacheTTL:             getEnvDuration("INCIDENT_CACHE_TTL", 30*time.Second),
			CacheRefreshInterval: getEnvDuration("INCIDENT_CACHE_REFRESH", 30*time.Second),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	stdLogger.Info("Config loaded successfully",
		slog.String("env", cfg.Env),
		slog.String("http_port", cfg.Http.Port),
		slog.String("postgres_db", cfg.Postgres.Database),
		slog.String("redis_addr", cfg.Redis.Addr),
		slog.Int("auto_validate_threshold", cfg.Engine.AutoValidateThreshold))

	return cfg, nil
}

func (c *Config) Validate() error {

	if c.Http.Port == "" || (len(c.Http.Port) > 0 && c.Http.Port[0] != ':') {
		return errors.New("HTTP_PORT must start with ':' like ':8080'")
	}

	if c.Postgres.Host == "" {
		return errors.New("POSTGRES_HOST required")
	}

	if c.Engine.AutoValidateThreshold < 1 {
		return errors.New("AUTO_VALIDATE_THRESHOLD must be >= 1")
	}

	if c.Engine.DislikeDelta > 0 {
		return errors.New("DISLIKE_DELTA must be <= 0")
	}

	for tp, r := range c.Engine.MergeRadiusM {
		if r <= 0 {
			return errors.New("merge radius for " + string(tp) + " must be positive")
		}
	}

	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
