package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"consumption-pipeline/internal/model"
	"consumption-pipeline/internal/pipeline"
	"consumption-pipeline/internal/storage"
	"consumption-pipeline/pkg/utils"
)

type Config struct {
	InputPath    string            `mapstructure:"input_path"`
	PokeInterval time.Duration     `mapstructure:"poke_interval"`
	WaitTimeout  time.Duration     `mapstructure:"wait_timeout"`
	RerunPolicy  model.RerunPolicy `mapstructure:"rerun_policy"`
	HistoryPath  string            `mapstructure:"history_path"`
	Retry        model.RetryConfig `mapstructure:",squash"`
	Storage      StorageConfig     `mapstructure:"storage"`
	Log          LogConfig         `mapstructure:"log"`
	API          APIConfig         `mapstructure:"api"`
}

type StorageConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

type APIConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
}

const (
	DefaultInputPath   = "./data/rawdata/consumption_" + utils.DatePlaceholder + ".csv"
	DefaultHistoryPath = "pipeline.db"
	DefaultDriver      = storage.DriverSQLite
	DefaultDSN         = "warehouse.db"
	DefaultListenAddr  = ":8080"
)

// EnvPrefix prefixes environment overrides, e.g. PIPELINE_STORAGE_DSN
const EnvPrefix = "PIPELINE"

// Load reads the optional YAML file at path, then applies defaults and
// environment overrides. An empty path uses defaults and environment only.
func Load(path string) (*Config, error) {
	v := viper.New()

	defaults := map[string]interface{}{
		"input_path":      DefaultInputPath,
		"poke_interval":   pipeline.DefaultPokeInterval,
		"wait_timeout":    pipeline.DefaultWaitTimeout,
		"rerun_policy":    string(model.RerunAppend),
		"history_path":    DefaultHistoryPath,
		"retries":         0,
		"retry_delay":     5 * time.Minute,
		"storage.driver":  DefaultDriver,
		"storage.dsn":     DefaultDSN,
		"log.level":       "info",
		"log.format":      "console",
		"log.file":        "",
		"api.listen_addr": DefaultListenAddr,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	return &cfg, Validate(&cfg)
}

// Validate checks value ranges and enumerations
func Validate(cfg *Config) error {
	if strings.TrimSpace(cfg.InputPath) == "" {
		return errors.New("input_path is empty")
	}
	if cfg.PokeInterval <= 0 {
		return errors.New("invalid poke_interval")
	}
	if cfg.WaitTimeout < 0 {
		return errors.New("invalid wait_timeout")
	}
	if !cfg.RerunPolicy.Valid() {
		return fmt.Errorf("invalid rerun_policy %q (want append or replace)", cfg.RerunPolicy)
	}
	if cfg.Retry.MaxRetries < 0 {
		return errors.New("invalid retries count")
	}
	if cfg.Retry.Delay < 0 {
		return errors.New("invalid retry_delay")
	}
	switch strings.ToLower(cfg.Storage.Driver) {
	case storage.DriverPostgres, "pgx", storage.DriverSQLite, "sqlite", storage.DriverDuckDB:
	default:
		return fmt.Errorf("unknown storage.driver %q", cfg.Storage.Driver)
	}
	if cfg.Storage.DSN == "" {
		return errors.New("storage.dsn is empty")
	}
	if cfg.HistoryPath == "" {
		return errors.New("history_path is empty")
	}
	switch cfg.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("invalid log.format %q", cfg.Log.Format)
	}
	return nil
}

// PipelineOptions is the run policy part of the configuration
func (c *Config) PipelineOptions() pipeline.Options {
	return pipeline.Options{
		InputPath:    c.InputPath,
		PokeInterval: c.PokeInterval,
		WaitTimeout:  c.WaitTimeout,
		RerunPolicy:  c.RerunPolicy,
	}
}
