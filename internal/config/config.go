// Package config defines all configuration for the market ledger daemon.
// Config is loaded from a YAML file (default: configs/config.yaml) with
// fields overridable via MARKETD_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"
)

// Config is the top-level configuration. Maps directly to the YAML file structure.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	NATS        NATSConfig        `mapstructure:"nats"`
	Exchange    ExchangeConfig    `mapstructure:"exchange"`
	Persistence PersistenceConfig `mapstructure:"persistence"`
	Feed        FeedConfig        `mapstructure:"feed"`
}

// ServerConfig holds the HTTP API listener and operational endpoints.
type ServerConfig struct {
	ListenAddr   string        `mapstructure:"listen_addr"`
	MetricsAddr  string        `mapstructure:"metrics_addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds the Postgres connection for the audit log.
type DatabaseConfig struct {
	DSN          string `mapstructure:"dsn"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	RunMigration bool   `mapstructure:"run_migration"`
}

// NATSConfig holds the JetStream connection for the outbound event feed.
// The daemon runs without a feed when disabled.
type NATSConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
}

// ExchangeConfig carries the economic parameters. All rates are basis points
// out of 10000.
//
//   - FeeBps: trading fee taken on every buy and sell.
//   - SeedReserve: opening YES and NO reserve of every market.
//   - MinInitialLiquidity: smallest pool a creator may open a market with.
//   - MinDeposit: smallest accepted deposit.
//   - PlatformFeeBps: platform cut of the pool at resolution.
//   - Admin: UUID of the platform admin, who may resolve or freeze any market.
type ExchangeConfig struct {
	FeeBps              uint64 `mapstructure:"fee_bps"`
	SeedReserve         uint64 `mapstructure:"seed_reserve"`
	MinInitialLiquidity uint64 `mapstructure:"min_initial_liquidity"`
	MinDeposit          uint64 `mapstructure:"min_deposit"`
	PlatformFeeBps      uint64 `mapstructure:"platform_fee_bps"`
	Admin               string `mapstructure:"admin"`
}

// PersistenceConfig tunes the write-behind audit log worker.
type PersistenceConfig struct {
	BatchSize     int           `mapstructure:"batch_size"`
	FlushInterval time.Duration `mapstructure:"flush_interval"`
	QueueSize     int           `mapstructure:"queue_size"`
}

// FeedConfig tunes the outbound event channel. Events beyond the buffer are
// dropped rather than backpressuring trades.
type FeedConfig struct {
	QueueSize int `mapstructure:"queue_size"`
}

// Load reads config from a YAML file with MARKETD_* env var overrides, e.g.
// MARKETD_DATABASE_DSN or MARKETD_EXCHANGE_ADMIN.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("MARKETD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.listen_addr", ":8080")
	v.SetDefault("server.metrics_addr", ":9090")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.run_migration", true)

	v.SetDefault("nats.enabled", true)
	v.SetDefault("nats.url", "nats://localhost:4222")

	v.SetDefault("exchange.fee_bps", 30)
	v.SetDefault("exchange.seed_reserve", 500)
	v.SetDefault("exchange.min_initial_liquidity", 1000)
	v.SetDefault("exchange.min_deposit", 1000)
	v.SetDefault("exchange.platform_fee_bps", 1000)

	v.SetDefault("persistence.batch_size", 100)
	v.SetDefault("persistence.flush_interval", 200*time.Millisecond)
	v.SetDefault("persistence.queue_size", 1024)

	v.SetDefault("feed.queue_size", 1024)
}

// Validate checks all required fields and value ranges.
func (c *Config) Validate() error {
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("server.listen_addr is required")
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required (set MARKETD_DATABASE_DSN)")
	}
	if c.NATS.Enabled && c.NATS.URL == "" {
		return fmt.Errorf("nats.url is required when nats.enabled is true")
	}
	if c.Exchange.FeeBps >= 10_000 {
		return fmt.Errorf("exchange.fee_bps must be below 10000")
	}
	if c.Exchange.PlatformFeeBps > 10_000 {
		return fmt.Errorf("exchange.platform_fee_bps must not exceed 10000")
	}
	if c.Exchange.SeedReserve == 0 {
		return fmt.Errorf("exchange.seed_reserve must be > 0")
	}
	if _, err := uuid.Parse(c.Exchange.Admin); err != nil {
		return fmt.Errorf("exchange.admin must be a UUID (set MARKETD_EXCHANGE_ADMIN): %w", err)
	}
	if c.Persistence.BatchSize <= 0 {
		return fmt.Errorf("persistence.batch_size must be > 0")
	}
	if c.Persistence.QueueSize <= 0 {
		return fmt.Errorf("persistence.queue_size must be > 0")
	}
	if c.Feed.QueueSize <= 0 {
		return fmt.Errorf("feed.queue_size must be > 0")
	}
	return nil
}

// AdminID returns the parsed platform admin UUID. Call Validate first.
func (c *Config) AdminID() uuid.UUID {
	id, _ := uuid.Parse(c.Exchange.Admin)
	return id
}
