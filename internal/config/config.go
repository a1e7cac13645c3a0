package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/commonground-hq/commonground/internal/store"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	GovInfo   GovInfoConfig   `yaml:"govinfo" mapstructure:"govinfo"`
	Congress  CongressConfig  `yaml:"congress" mapstructure:"congress"`
	Pipeline  PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	Bills     BillsConfig     `yaml:"bills" mapstructure:"bills"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string            `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string            `yaml:"database_url" mapstructure:"database_url"`
	Pool        *store.PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// GovInfoConfig holds govinfo.gov API settings.
type GovInfoConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// CongressConfig holds congress.gov API settings.
type CongressConfig struct {
	Key            string `yaml:"key" mapstructure:"key"`
	BaseURL        string `yaml:"base_url" mapstructure:"base_url"`
	CongressNumber string `yaml:"congress_number" mapstructure:"congress_number"`
}

// PipelineConfig configures the daily analysis run.
type PipelineConfig struct {
	MaxSpeeches     int    `yaml:"max_speeches" mapstructure:"max_speeches"`
	MinSpeechChars  int    `yaml:"min_speech_chars" mapstructure:"min_speech_chars"`
	TopicMode       string `yaml:"topic_mode" mapstructure:"topic_mode"`
	TopicCount      int    `yaml:"topic_count" mapstructure:"topic_count"`
	SteelmanWorkers int    `yaml:"steelman_workers" mapstructure:"steelman_workers"`
}

// BillsConfig configures the bill sync flow.
type BillsConfig struct {
	FreshnessHours int `yaml:"freshness_hours" mapstructure:"freshness_hours"`
	ListLimit      int `yaml:"list_limit" mapstructure:"list_limit"`
}

// ServerConfig configures the trigger server.
type ServerConfig struct {
	Port       int    `yaml:"port" mapstructure:"port"`
	CronSecret string `yaml:"cron_secret" mapstructure:"cron_secret"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("COMMONGROUND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("govinfo.base_url", "https://api.govinfo.gov")
	v.SetDefault("congress.base_url", "https://api.congress.gov/v3")
	v.SetDefault("congress.congress_number", "119")
	v.SetDefault("pipeline.max_speeches", 20)
	v.SetDefault("pipeline.min_speech_chars", 200)
	v.SetDefault("pipeline.topic_mode", "single")
	v.SetDefault("pipeline.topic_count", 3)
	v.SetDefault("pipeline.steelman_workers", 2)
	v.SetDefault("bills.freshness_hours", 24)
	v.SetDefault("bills.list_limit", 50)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
