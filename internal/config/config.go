package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type HTTPConfig struct {
	Host string
	Port int
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type StoreConfig struct {
	Driver string
}

type AuthConfig struct {
	AccessSecret string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	ViewTTL  time.Duration
}

type PricingConfig struct {
	HourlyRate float64
	Currency   string
}

type PredictiveConfig struct {
	HealthThreshold   int
	CriticalThreshold int
	ScanInterval      time.Duration
}

type Config struct {
	Environment string
	HTTP        HTTPConfig
	DB          DBConfig
	Store       StoreConfig
	Auth        AuthConfig
	Redis       RedisConfig
	Pricing     PricingConfig
	Predictive  PredictiveConfig
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")

	v.SetDefault("STORE_DRIVER", StoreDriverPostgres)
	v.SetDefault("VIEW_CACHE_TTL", 30*time.Second)
	v.SetDefault("PRICING_HOURLY_RATE", 25.0)
	v.SetDefault("PRICING_CURRENCY", "USD")
	v.SetDefault("PREDICTIVE_HEALTH_THRESHOLD", 70)
	v.SetDefault("PREDICTIVE_CRITICAL_THRESHOLD", 40)
	v.SetDefault("PREDICTIVE_SCAN_INTERVAL", time.Minute)

	v.AutomaticEnv()

	_ = v.ReadInConfig()

	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host: v.GetString("HTTP_HOST"),
			Port: v.GetInt("HTTP_PORT"),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
		},
		Store: StoreConfig{
			Driver: v.GetString("STORE_DRIVER"),
		},
		Auth: AuthConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			ViewTTL:  v.GetDuration("VIEW_CACHE_TTL"),
		},
		Pricing: PricingConfig{
			HourlyRate: v.GetFloat64("PRICING_HOURLY_RATE"),
			Currency:   strings.ToUpper(strings.TrimSpace(v.GetString("PRICING_CURRENCY"))),
		},
		Predictive: PredictiveConfig{
			HealthThreshold:   v.GetInt("PREDICTIVE_HEALTH_THRESHOLD"),
			CriticalThreshold: v.GetInt("PREDICTIVE_CRITICAL_THRESHOLD"),
			ScanInterval:      v.GetDuration("PREDICTIVE_SCAN_INTERVAL"),
		},
	}

	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 7090
	}
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	switch cfg.Store.Driver {
	case StoreDriverPostgres:
		if cfg.DB.DSN == "" {
			return fmt.Errorf("DB_DSN is required")
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreDriverPostgres, StoreDriverMemory, cfg.Store.Driver)
	}
	if cfg.Auth.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.Pricing.HourlyRate < 0 {
		return fmt.Errorf("PRICING_HOURLY_RATE must not be negative")
	}
	if !isCurrencyCode(cfg.Pricing.Currency) {
		return fmt.Errorf("PRICING_CURRENCY must be a three-letter code, got %q", cfg.Pricing.Currency)
	}
	if cfg.Predictive.CriticalThreshold > cfg.Predictive.HealthThreshold {
		return fmt.Errorf("PREDICTIVE_CRITICAL_THRESHOLD must not exceed PREDICTIVE_HEALTH_THRESHOLD")
	}
	if cfg.Predictive.ScanInterval < 0 {
		return fmt.Errorf("PREDICTIVE_SCAN_INTERVAL must not be negative")
	}
	return nil
}

func isCurrencyCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
