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

type ServerConfig struct {
	Port      int    `yaml:"port"`
	JWTSecret string `yaml:"jwt_secret"` // verifies tokens issued by the auth service
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type ProcessorConfig struct {
	BaseURL    string        `yaml:"base_url"`
	APIKey     string        `yaml:"api_key"`
	SuccessURL string        `yaml:"success_url"` // template; session id appended as query param
	CancelURL  string        `yaml:"cancel_url"`
	Timeout    time.Duration `yaml:"timeout"`
}

type TxLogConfig struct {
	URL    string `yaml:"url"` // external log-transaction endpoint; empty disables it
	APIKey string `yaml:"api_key"`
}

type CartServiceConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
}

type CheckoutConfig struct {
	ProcessingTimeout time.Duration `yaml:"processing_timeout"` // bounded wait in PROCESSING
	PollInterval      time.Duration `yaml:"poll_interval"`      // initial status-poll interval
	GraceDelay        time.Duration `yaml:"grace_delay"`        // delay before clearing the cart after SUCCESS
	LockTTL           time.Duration `yaml:"lock_ttl"`           // single-flight lock per cart/identity
	ReconcileInterval time.Duration `yaml:"reconcile_interval"`
	StaleAfter        time.Duration `yaml:"stale_after"` // PROCESSING age before the reconciler picks it up
}

type NotifyConfig struct {
	TelegramToken string `yaml:"telegram_token"`
	ChatID        int64  `yaml:"chat_id"`
}

type Config struct {
	Server   ServerConfig      `yaml:"server"`
	Log      LogConfig         `yaml:"log"`
	Database DatabaseConfig    `yaml:"database"`
	Redis    RedisConfig       `yaml:"redis"`
	Payment  ProcessorConfig   `yaml:"payment"`
	TxLog    TxLogConfig       `yaml:"txlog"`
	Cart     CartServiceConfig `yaml:"cart"`
	Checkout CheckoutConfig    `yaml:"checkout"`
	Notify   NotifyConfig      `yaml:"notify"`

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
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Payment.Timeout <= 0 {
		cfg.Payment.Timeout = 15 * time.Second
	}
	if cfg.Checkout.ProcessingTimeout <= 0 {
		cfg.Checkout.ProcessingTimeout = 2 * time.Minute
	}
	if cfg.Checkout.PollInterval <= 0 {
		cfg.Checkout.PollInterval = 500 * time.Millisecond
	}
	if cfg.Checkout.GraceDelay <= 0 {
		cfg.Checkout.GraceDelay = 3 * time.Second
	}
	if cfg.Checkout.LockTTL <= 0 {
		cfg.Checkout.LockTTL = time.Minute
	}
	if cfg.Checkout.ReconcileInterval <= 0 {
		cfg.Checkout.ReconcileInterval = time.Minute
	}
	if cfg.Checkout.StaleAfter <= 0 {
		cfg.Checkout.StaleAfter = 10 * time.Minute
	}

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Payment.BaseURL == "" {
		return nil, errors.New("payment.base_url is required")
	}
	if cfg.Server.JWTSecret == "" && !dev {
		return nil, errors.New("server.jwt_secret is required outside dev mode")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
