package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

var ErrNoMarketplace = errors.New("at least one marketplace must be configured")

type Config struct {
	App       AppConfig
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Rakuten   MarketplaceConfig
	Yahoo     MarketplaceConfig
	Search    SearchConfig
	Diagnosis DiagnosisConfig
}

type AppConfig struct {
	Name        string `validate:"required"`
	Version     string
	Environment string `validate:"required"`
}

type ServerConfig struct {
	Port           string `validate:"required,numeric"`
	AllowOrigins   []string
	RequestTimeout time.Duration `validate:"gt=0"`
}

// DatabaseConfig with an empty Host disables the event sink.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string `validate:"omitempty,oneof=disable allow prefer require verify-ca verify-full"`
}

func (d DatabaseConfig) Enabled() bool { return d.Host != "" }

// RedisConfig with an empty RedisHost selects the in-process cache.
type RedisConfig struct {
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int `validate:"gte=0"`
}

func (r RedisConfig) Enabled() bool { return r.RedisHost != "" }

// MarketplaceConfig with an empty AppID disables that marketplace.
type MarketplaceConfig struct {
	AppID             string
	AffiliateID       string
	BaseURL           string `validate:"omitempty,url"`
	BasicAuthUser     string
	BasicAuthPassword string
	RPS               float64 `validate:"gt=0"`
	Burst             int     `validate:"gte=1"`
}

func (m MarketplaceConfig) Enabled() bool { return m.AppID != "" }

type SearchConfig struct {
	CallTimeout    time.Duration `validate:"gt=0"`
	RoundTimeout   time.Duration `validate:"gtefield=CallTimeout"`
	CacheTTL       time.Duration `validate:"gte=0"`
	CacheSize      int           `validate:"gte=1"`
	MaxAttempts    int           `validate:"gte=1,lte=10"`
	MaxConcurrency int           `validate:"gte=1"`
	HitsPerQuery   int           `validate:"gte=1,lte=50"`
	EmptyMessage   string
}

type DiagnosisConfig struct {
	MarginThreshold  float64       `validate:"gte=0,lte=1"`
	SearchCategories int           `validate:"gte=1"`
	SearchLimit      int           `validate:"gte=1,lte=100"`
	EventTimeout     time.Duration `validate:"gt=0"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Pillow Diagnosis API"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			Environment: getEnv("APP_ENV", "development"),
		},
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			AllowOrigins: splitList(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000,http://localhost:8080")),
		},
		Database: DatabaseConfig{
			Host:     os.Getenv("DB_HOST"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "mm_diagnosis"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		Redis: RedisConfig{
			RedisHost:     os.Getenv("REDIS_HOST"),
			RedisPort:     getEnv("REDIS_PORT", "6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
		},
		Rakuten: MarketplaceConfig{
			AppID:             os.Getenv("RAKUTEN_APP_ID"),
			AffiliateID:       os.Getenv("RAKUTEN_AFFILIATE_ID"),
			BaseURL:           os.Getenv("RAKUTEN_BASE_URL"),
			BasicAuthUser:     os.Getenv("RAKUTEN_BASIC_AUTH_USERNAME"),
			BasicAuthPassword: os.Getenv("RAKUTEN_BASIC_AUTH_PASSWORD"),
		},
		Yahoo: MarketplaceConfig{
			AppID:             os.Getenv("YAHOO_APP_ID"),
			AffiliateID:       os.Getenv("YAHOO_AFFILIATE_ID"),
			BaseURL:           os.Getenv("YAHOO_BASE_URL"),
			BasicAuthUser:     os.Getenv("YAHOO_BASIC_AUTH_USERNAME"),
			BasicAuthPassword: os.Getenv("YAHOO_BASIC_AUTH_PASSWORD"),
		},
		Search: SearchConfig{
			EmptyMessage: os.Getenv("SEARCH_EMPTY_MESSAGE"),
		},
	}

	env := &envReader{}
	cfg.Server.RequestTimeout = env.duration("REQUEST_TIMEOUT", "15s")
	cfg.Redis.RedisDB = env.int("REDIS_DB", "0")
	cfg.Rakuten.RPS = env.float("RAKUTEN_RPS", getEnv("MARKETPLACE_RPS", "1"))
	cfg.Yahoo.RPS = env.float("YAHOO_RPS", getEnv("MARKETPLACE_RPS", "1"))
	cfg.Rakuten.Burst = env.int("RAKUTEN_BURST", getEnv("MARKETPLACE_BURST", "5"))
	cfg.Yahoo.Burst = env.int("YAHOO_BURST", getEnv("MARKETPLACE_BURST", "5"))
	cfg.Search.CallTimeout = env.duration("SEARCH_CALL_TIMEOUT", "4s")
	cfg.Search.RoundTimeout = env.duration("SEARCH_ROUND_TIMEOUT", "8s")
	cfg.Search.CacheTTL = env.duration("SEARCH_CACHE_TTL", "20m")
	cfg.Search.CacheSize = env.int("SEARCH_CACHE_SIZE", "1000")
	cfg.Search.MaxAttempts = env.int("SEARCH_MAX_ATTEMPTS", "3")
	cfg.Search.MaxConcurrency = env.int("SEARCH_MAX_CONCURRENCY", "8")
	cfg.Search.HitsPerQuery = env.int("SEARCH_HITS_PER_QUERY", "30")
	cfg.Diagnosis.MarginThreshold = env.float("DIAGNOSIS_MARGIN_THRESHOLD", "0.2")
	cfg.Diagnosis.SearchCategories = env.int("DIAGNOSIS_SEARCH_CATEGORIES", "2")
	cfg.Diagnosis.SearchLimit = env.int("DIAGNOSIS_SEARCH_LIMIT", "20")
	cfg.Diagnosis.EventTimeout = env.duration("DIAGNOSIS_EVENT_TIMEOUT", "3s")
	if env.err != nil {
		return nil, env.err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if !c.Rakuten.Enabled() && !c.Yahoo.Enabled() {
		return ErrNoMarketplace
	}

	if c.Database.Enabled() && c.Database.Password == "" {
		return errors.New("missing database password")
	}

	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return defaultVal
}

// envReader parses typed values and keeps the first error.
type envReader struct {
	err error
}

func (r *envReader) int(key, defaultVal string) int {
	n, err := strconv.Atoi(getEnv(key, defaultVal))
	r.fail(key, err)
	return n
}

func (r *envReader) float(key, defaultVal string) float64 {
	f, err := strconv.ParseFloat(getEnv(key, defaultVal), 64)
	r.fail(key, err)
	return f
}

func (r *envReader) duration(key, defaultVal string) time.Duration {
	d, err := time.ParseDuration(getEnv(key, defaultVal))
	r.fail(key, err)
	return d
}

func (r *envReader) fail(key string, err error) {
	if err != nil && r.err == nil {
		r.err = fmt.Errorf("invalid %s: %w", key, err)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
