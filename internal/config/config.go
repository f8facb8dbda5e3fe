// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type ServerConfig struct {
	Port        int           `yaml:"port"`
	JWTSecret   string        `yaml:"jwt_secret"`
	AccessTTL   time.Duration `yaml:"access_ttl"`  // access token lifetime
	RefreshTTL  time.Duration `yaml:"refresh_ttl"` // refresh token lifetime
	AdminAPIKey string        `yaml:"admin_api_key"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	PoolSize int    `yaml:"pool_size"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"` // order-list cache expiry
}

type GatewayConfig struct {
	Stripe struct {
		APIKey     string `yaml:"api_key"`
		BaseURL    string `yaml:"base_url"`
		SuccessURL string `yaml:"success_url"`
		CancelURL  string `yaml:"cancel_url"`
	} `yaml:"stripe"`
}

type CouponConfig struct {
	IssueThreshold     int64 `yaml:"issue_threshold"`     // minor units; pre-discount total that earns a coupon
	DiscountPercentage int   `yaml:"discount_percentage"` // percentage on issued coupons
	ExpiryDays         int   `yaml:"expiry_days"`
}

type ReconcileConfig struct {
	Interval     time.Duration `yaml:"interval"`      // scan period
	StaleAfter   time.Duration `yaml:"stale_after"`   // pending age before retry
	AbandonAfter time.Duration `yaml:"abandon_after"` // pending age before giving up
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type Config struct {
	Log       LogConfig       `yaml:"log"`
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Gateway   GatewayConfig   `yaml:"gateway"`
	Coupon    CouponConfig    `yaml:"coupon"`
	Reconcile ReconcileConfig `yaml:"reconcile"`
	Kafka     KafkaConfig     `yaml:"kafka"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.AccessTTL <= 0 {
		cfg.Server.AccessTTL = 15 * time.Minute
	}
	if cfg.Server.RefreshTTL <= 0 {
		cfg.Server.RefreshTTL = 7 * 24 * time.Hour
	}
	if cfg.Database.PoolSize <= 0 {
		cfg.Database.PoolSize = 10
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)
	if cfg.Coupon.IssueThreshold <= 0 {
		cfg.Coupon.IssueThreshold = 20000
	}
	if cfg.Coupon.DiscountPercentage <= 0 {
		cfg.Coupon.DiscountPercentage = 10
	}
	if cfg.Coupon.ExpiryDays <= 0 {
		cfg.Coupon.ExpiryDays = 30
	}
	if cfg.Reconcile.Interval <= 0 {
		cfg.Reconcile.Interval = time.Minute
	}
	if cfg.Reconcile.StaleAfter <= 0 {
		cfg.Reconcile.StaleAfter = 10 * time.Minute
	}
	if cfg.Reconcile.AbandonAfter <= 0 {
		cfg.Reconcile.AbandonAfter = 24 * time.Hour
	}
	if cfg.Gateway.Stripe.BaseURL == "" {
		cfg.Gateway.Stripe.BaseURL = "https://api.stripe.com/v1"
	}

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Server.JWTSecret == "" {
		return nil, errors.New("server.jwt_secret is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return 10 * time.Hour
	}
	return d
}
