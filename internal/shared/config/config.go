package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config contains all configuration for the reviewlens pipeline and server.
type Config struct {
	Store    StoreConfig    `mapstructure:"store"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Query    QueryConfig    `mapstructure:"query"`
	History  HistoryConfig  `mapstructure:"history"`
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// StoreConfig contains connection settings for the external document store.
type StoreConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// PipelineConfig contains ingest and pivot job settings.
type PipelineConfig struct {
	SourceCollection string        `mapstructure:"source_collection"`
	PivotCollection  string        `mapstructure:"pivot_collection"`
	JobName          string        `mapstructure:"job_name"`
	BatchSize        int           `mapstructure:"batch_size"`
	PollInterval     time.Duration `mapstructure:"poll_interval"`
	PollDeadline     time.Duration `mapstructure:"poll_deadline"`
	PollMaxAttempts  int           `mapstructure:"poll_max_attempts"`
}

// QueryConfig contains thresholds for the canned reviewer queries.
type QueryConfig struct {
	MinReviews  int `mapstructure:"min_reviews"`
	ResultLimit int `mapstructure:"result_limit"`
}

// HistoryConfig contains run history storage configuration.
type HistoryConfig struct {
	Path string `mapstructure:"path"`
}

// ServerConfig contains REST API server configuration.
type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// LoggingConfig contains logging-related configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load loads the configuration from the given path.
// If configPath is empty, it looks for reviewlens.yaml in the config/ directory.
// Environment variables with REVIEWLENS_ prefix override config file values.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("store.base_url", "http://localhost:9210")
	v.SetDefault("store.timeout", 30*time.Second)
	v.SetDefault("pipeline.source_collection", "reviews")
	v.SetDefault("pipeline.pivot_collection", "reviews_by_reviewer")
	v.SetDefault("pipeline.job_name", "reviews-pivot")
	v.SetDefault("pipeline.batch_size", 10000)
	v.SetDefault("pipeline.poll_interval", 5*time.Second)
	v.SetDefault("pipeline.poll_deadline", 30*time.Minute)
	v.SetDefault("pipeline.poll_max_attempts", 0)
	v.SetDefault("query.min_reviews", 5)
	v.SetDefault("query.result_limit", 100)
	v.SetDefault("history.path", "reviewlens.db")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("reviewlens")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("REVIEWLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if cfg.Pipeline.BatchSize <= 0 {
		return nil, fmt.Errorf("pipeline.batch_size must be greater than 0")
	}
	if cfg.Pipeline.PollInterval <= 0 {
		return nil, fmt.Errorf("pipeline.poll_interval must be greater than 0")
	}

	return &cfg, nil
}
