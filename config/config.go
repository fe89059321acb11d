package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type Config struct {
	Environment string            `json:"environment"`
	Database    DatabaseConfig    `json:"database"`
	Redis       RedisConfig       `json:"redis"`
	Stripe      StripeConfig      `json:"stripe"`
	Server      ServerConfig      `json:"server"`
	Lock        LockConfig        `json:"lock"`
	Idempotency IdempotencyConfig `json:"idempotency"`
	Payments    PaymentConfig     `json:"payments"`
}

type DatabaseConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	User         string        `json:"user"`
	Password     string        `json:"password"`
	DBName       string        `json:"dbname"`
	SSLMode      string        `json:"sslmode"`
	MaxOpenConns int           `json:"max_open_conns"`
	MaxIdleConns int           `json:"max_idle_conns"`
	MaxLifetime  time.Duration `json:"max_lifetime"`
	MaxIdleTime  time.Duration `json:"max_idle_time"`
	ReplicaDSNs  []string      `json:"replica_dsns"`
}

type RedisConfig struct {
	Host     string        `json:"host"`
	Port     int           `json:"port"`
	Password string        `json:"password"`
	DB       int           `json:"db"`
	TTL      time.Duration `json:"ttl"`
	PoolSize int           `json:"pool_size"`
	MinIdle  int           `json:"min_idle"`
}

type StripeConfig struct {
	Secret string `json:"secret"`
	Public string `json:"public"`
}

type ServerConfig struct {
	Port         string        `json:"port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
}

// LockConfig shapes the distributed lock manager. The acquisition wait is a
// fixed delay between attempts, not exponential.
type LockConfig struct {
	TTL         time.Duration `json:"ttl"`
	RetryDelay  time.Duration `json:"retry_delay"`
	MaxAttempts int           `json:"max_attempts"`
}

type IdempotencyConfig struct {
	TTL time.Duration `json:"ttl"`
}

type PaymentConfig struct {
	TaxRate       float64       `json:"tax_rate"`
	InvoiceDueIn  time.Duration `json:"invoice_due_in"`
	TxMaxAttempts int           `json:"tx_max_attempts"`
	TxBackoffMin  time.Duration `json:"tx_backoff_min"`
	TxBackoffMax  time.Duration `json:"tx_backoff_max"`
}

func LoadConfig() (*Config, error) {
	config := &Config{}

	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "development"
	}
	config.Environment = env

	configDir, err := filepath.Abs("config")
	if err != nil {
		return nil, err
	}

	configPath := filepath.Join(configDir, "config.json")

	if _, err := os.Stat(configPath); err == nil {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %v", err)
		}

		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %v", err)
		}
	}

	config.loadFromEnv()
	config.setDefaults()

	return config, nil
}

func (c *Config) loadFromEnv() {
	if host := os.Getenv("DB_HOST"); host != "" {
		c.Database.Host = host
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Database.Port = p
		}
	}
	if user := os.Getenv("DB_USER"); user != "" {
		c.Database.User = user
	}
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		c.Database.Password = password
	}
	if dbname := os.Getenv("DB_NAME"); dbname != "" {
		c.Database.DBName = dbname
	}
	if sslmode := os.Getenv("DB_SSLMODE"); sslmode != "" {
		c.Database.SSLMode = sslmode
	}

	if host := os.Getenv("REDIS_HOST"); host != "" {
		c.Redis.Host = host
	}
	if port := os.Getenv("REDIS_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Redis.Port = p
		}
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		c.Redis.Password = password
	}

	if stripeSecret := os.Getenv("STRIPE_SECRET"); stripeSecret != "" {
		c.Stripe.Secret = stripeSecret
	}
	if stripePublic := os.Getenv("STRIPE_PUBLIC"); stripePublic != "" {
		c.Stripe.Public = stripePublic
	}

	if port := os.Getenv("PORT"); port != "" {
		c.Server.Port = port
	}
}

func (c *Config) setDefaults() {
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 100
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 10
	}
	if c.Database.MaxLifetime == 0 {
		c.Database.MaxLifetime = time.Hour
	}
	if c.Database.MaxIdleTime == 0 {
		c.Database.MaxIdleTime = 10 * time.Minute
	}

	if c.Redis.TTL == 0 {
		c.Redis.TTL = time.Hour
	}

	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 15 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}

	if c.Lock.TTL == 0 {
		c.Lock.TTL = 30 * time.Second
	}
	if c.Lock.RetryDelay == 0 {
		c.Lock.RetryDelay = 100 * time.Millisecond
	}
	if c.Lock.MaxAttempts == 0 {
		c.Lock.MaxAttempts = 50
	}

	if c.Idempotency.TTL == 0 {
		c.Idempotency.TTL = 15 * time.Minute
	}

	if c.Payments.TaxRate == 0 {
		c.Payments.TaxRate = 0.18
	}
	if c.Payments.InvoiceDueIn == 0 {
		c.Payments.InvoiceDueIn = 24 * time.Hour
	}
	if c.Payments.TxMaxAttempts == 0 {
		c.Payments.TxMaxAttempts = 3
	}
	if c.Payments.TxBackoffMin == 0 {
		c.Payments.TxBackoffMin = 100 * time.Millisecond
	}
	if c.Payments.TxBackoffMax == 0 {
		c.Payments.TxBackoffMax = 500 * time.Millisecond
	}
}

func (c *Config) GetDatabaseURL() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host, c.Database.Port, c.Database.User, c.Database.Password,
		c.Database.DBName, c.Database.SSLMode)
}
