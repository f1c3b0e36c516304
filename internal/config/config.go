package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName               string        `mapstructure:"app_name"`
	Env                   string        `mapstructure:"app_env"`
	LogLevel              string        `mapstructure:"log_level"`
	ChecksFile            string        `mapstructure:"checks_file"`
	PublishersFile        string        `mapstructure:"publishers_file"`
	PublishersRequired    bool          `mapstructure:"publishers_required"`
	ProbeIntervalSeconds  int64         `mapstructure:"probe_interval"`
	ProbeInterval         time.Duration `mapstructure:"-"`
	CheckDelayMs          int64         `mapstructure:"check_delay_ms"`
	CheckDelay            time.Duration `mapstructure:"-"`
	RequestTimeoutSeconds int64         `mapstructure:"request_timeout_seconds"`
	RequestTimeout        time.Duration `mapstructure:"-"`
	UserAgent             string        `mapstructure:"user_agent"`

	StorageType            string        `mapstructure:"storage_type"`
	BBoltPath              string        `mapstructure:"bbolt_path"`
	StorageTTLSeconds      int64         `mapstructure:"storage_ttl_seconds"`
	StorageCleanupSeconds  int64         `mapstructure:"storage_cleanup_interval_seconds"`
	StorageTTL             time.Duration `mapstructure:"-"`
	StorageCleanupInterval time.Duration `mapstructure:"-"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "restprobe")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("checks_file", "./configs/checks.yaml")
	v.SetDefault("publishers_file", "./configs/publishers.yaml")
	v.SetDefault("publishers_required", false)
	v.SetDefault("probe_interval", 300) // seconds
	v.SetDefault("check_delay_ms", 250)
	v.SetDefault("request_timeout_seconds", 30)
	v.SetDefault("user_agent", "restprobe/1.0")
	v.SetDefault("storage_type", "bbolt")
	v.SetDefault("bbolt_path", "./data/restprobe.db")
	v.SetDefault("storage_ttl_seconds", int64((6*time.Hour)/time.Second))
	v.SetDefault("storage_cleanup_interval_seconds", int64((1*time.Hour)/time.Second))

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// finalize validates numeric settings and derives durations.
func (cfg *Config) finalize() error {
	if cfg.ProbeIntervalSeconds <= 0 {
		return fmt.Errorf("invalid probe_interval (must be positive seconds)")
	}
	cfg.ProbeInterval = time.Duration(cfg.ProbeIntervalSeconds) * time.Second

	if cfg.CheckDelayMs < 0 {
		return fmt.Errorf("invalid check_delay_ms (must not be negative)")
	}
	cfg.CheckDelay = time.Duration(cfg.CheckDelayMs) * time.Millisecond

	if cfg.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("invalid request_timeout_seconds (must be positive seconds)")
	}
	cfg.RequestTimeout = time.Duration(cfg.RequestTimeoutSeconds) * time.Second

	if cfg.StorageTTLSeconds <= 0 {
		return fmt.Errorf("invalid storage_ttl_seconds (must be positive seconds)")
	}
	if cfg.StorageCleanupSeconds <= 0 {
		return fmt.Errorf("invalid storage_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.StorageTTL = time.Duration(cfg.StorageTTLSeconds) * time.Second
	cfg.StorageCleanupInterval = time.Duration(cfg.StorageCleanupSeconds) * time.Second

	return nil
}
