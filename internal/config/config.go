package config

import (
	"bytes"
	_ "embed"
	"strings"
	"time"

	"github.com/spf13/viper"
)

//go:embed defaults.yaml
var defaults []byte

// ---- Root ----

type Config struct {
	LogLevel   string           `mapstructure:"log_level"`
	HTTP       HTTPConfig       `mapstructure:"http"`
	Repository RepositoryConfig `mapstructure:"repository"`
	Catalog    CatalogConfig    `mapstructure:"catalog"`
	Sync       SyncConfig       `mapstructure:"sync"`
	Redis      RedisConfig      `mapstructure:"redis"`
	ClickHouse DatabaseConfig   `mapstructure:"clickhouse"`
}

// ---- Leaf structs ----

type HTTPConfig struct {
	Addr         string `mapstructure:"addr"`
	APIKey       string `mapstructure:"api_key"`        // optional guard for /v1/*; empty disables
	RateLimitRPS int    `mapstructure:"rate_limit_rps"` // per client IP; 0 disables, needs redis
}

// RepositoryConfig addresses the S3-compatible object store that holds both
// the manifest and the per-customer records. Credentials are opaque tokens.
type RepositoryConfig struct {
	Endpoint       string `mapstructure:"endpoint"`
	Region         string `mapstructure:"region"`
	AccessKey      string `mapstructure:"access_key"`
	SecretKey      string `mapstructure:"secret_key"`
	Bucket         string `mapstructure:"bucket"`
	ManifestKey    string `mapstructure:"manifest_key"`
	ForcePathStyle bool   `mapstructure:"force_path_style"`
}

type CatalogConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type SyncConfig struct {
	Interval    time.Duration `mapstructure:"interval"`
	Concurrency int           `mapstructure:"concurrency"`
}

type RedisConfig struct {
	Addr        string        `mapstructure:"addr"` // empty disables the sync lease
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"` // empty disables cycle history
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idletime"`
	PingTimeout     time.Duration `mapstructure:"ping_timeout"`
}

// HistoryEnabled reports whether cycle history should be recorded.
func (c Config) HistoryEnabled() bool { return c.ClickHouse.DSN != "" }

// LeaseEnabled reports whether the Redis sync lease is configured.
func (c Config) LeaseEnabled() bool { return c.Redis.Addr != "" }

// Load reads embedded defaults, merges user YAML (if provided), and applies env overrides (IBSYNC_*).
func Load(path string) (Config, error) {
	v := viper.New()

	// embedded defaults
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return Config{}, err
	}

	if path != "" {
		v.SetConfigFile(path)
		_ = v.MergeInConfig()
	}

	// env override (IBSYNC_*); nested keys use underscores,
	// e.g. repository.bucket -> IBSYNC_REPOSITORY_BUCKET
	v.SetEnvPrefix("IBSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
