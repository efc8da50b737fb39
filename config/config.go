package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

type Config struct {
	Port               string        `mapstructure:"PORT"`
	StoreDriver        string        `mapstructure:"STORE_DRIVER"`
	MongoURI           string        `mapstructure:"MONGO_URI"`
	DBName             string        `mapstructure:"DB_NAME"`
	RedisAddr          string        `mapstructure:"REDIS_ADDR"`
	RedisPassword      string        `mapstructure:"REDIS_PASSWORD"`
	StripeSecretKey    string        `mapstructure:"STRIPE_SECRET_KEY"`
	StripeWebhookKey   string        `mapstructure:"STRIPE_WEBHOOK_SECRET"`
	Currency           string        `mapstructure:"PAYMENT_CURRENCY"`
	AdminToken         string        `mapstructure:"ADMIN_TOKEN"`
	LogLevel           string        `mapstructure:"LOG_LEVEL"`
	AllowRollback      bool          `mapstructure:"ORDER_ALLOW_ROLLBACK"`
	LockTTL            time.Duration `mapstructure:"LOCK_TTL"`
	RequestTimeout     time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	MaterializeTimeout time.Duration `mapstructure:"MATERIALIZE_TIMEOUT"`
}

var defaults = map[string]any{
	"PORT":                  "8080",
	"STORE_DRIVER":          StoreMongo,
	"MONGO_URI":             "",
	"DB_NAME":               "food-ninja",
	"REDIS_ADDR":            "",
	"REDIS_PASSWORD":        "",
	"STRIPE_SECRET_KEY":     "",
	"STRIPE_WEBHOOK_SECRET": "",
	"PAYMENT_CURRENCY":      "usd",
	"ADMIN_TOKEN":           "",
	"LOG_LEVEL":             "info",
	"ORDER_ALLOW_ROLLBACK":  false,
	"LOCK_TTL":              "30s",
	"REQUEST_TIMEOUT":       "5s",
	"MATERIALIZE_TIMEOUT":   "30s",
}

// LoadEnv reads a .env file into the process environment when one exists.
func LoadEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "config: reading .env: %v\n", err)
	}
}

func GetEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

// Load binds the environment onto Config. Keys missing from the environment
// keep their defaults.
func Load() (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	switch c.StoreDriver {
	case StoreMongo:
		if c.MongoURI == "" || c.DBName == "" {
			errs = append(errs, errors.New("MONGO_URI and DB_NAME are required for the mongo store"))
		}
	case StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}
	if c.StripeSecretKey == "" {
		errs = append(errs, errors.New("STRIPE_SECRET_KEY is required"))
	}
	if c.StripeWebhookKey == "" {
		errs = append(errs, errors.New("STRIPE_WEBHOOK_SECRET is required"))
	}
	if c.LockTTL <= 0 {
		errs = append(errs, errors.New("LOCK_TTL must be positive"))
	}
	return errors.Join(errs...)
}
