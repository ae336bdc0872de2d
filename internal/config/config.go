// Package config loads application configuration and wires the global
// logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Dirs      DirsConfig      `yaml:"dirs" mapstructure:"dirs"`
	Schema    SchemaConfig    `yaml:"schema" mapstructure:"schema"`
	Extract   ExtractConfig   `yaml:"extract" mapstructure:"extract"`
	Journal   JournalConfig   `yaml:"journal" mapstructure:"journal"`
	Warehouse WarehouseConfig `yaml:"warehouse" mapstructure:"warehouse"`
	FTP       FTPConfig       `yaml:"ftp" mapstructure:"ftp"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// DirsConfig locates the source file areas.
type DirsConfig struct {
	Unprocessed string `yaml:"unprocessed" mapstructure:"unprocessed"`
	Processed   string `yaml:"processed" mapstructure:"processed"`
	Extracts    string `yaml:"extracts" mapstructure:"extracts"`
}

// SchemaConfig locates the canonical field schema declaration.
type SchemaConfig struct {
	Path string `yaml:"path" mapstructure:"path"` // empty = built-in default schema
}

// ExtractConfig configures extraction behavior.
type ExtractConfig struct {
	Format      string `yaml:"format" mapstructure:"format"` // csv or xlsx
	Concurrency int    `yaml:"concurrency" mapstructure:"concurrency"`
	SourceExt   string `yaml:"source_ext" mapstructure:"source_ext"`
}

// JournalConfig configures the local run journal.
type JournalConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// WarehouseConfig configures the analytical store bulk load.
type WarehouseConfig struct {
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	SchemaName  string `yaml:"schema_name" mapstructure:"schema_name"`
	// ExcludeGroups lists group-key substrings whose extracts are written
	// and archived but never uploaded, e.g. per-region breakdowns the
	// warehouse models elsewhere.
	ExcludeGroups []string `yaml:"exclude_groups" mapstructure:"exclude_groups"`
}

// FTPConfig configures the national drop ingest.
type FTPConfig struct {
	Host      string  `yaml:"host" mapstructure:"host"`
	User      string  `yaml:"user" mapstructure:"user"`
	Password  string  `yaml:"password" mapstructure:"password"`
	RemoteDir string  `yaml:"remote_dir" mapstructure:"remote_dir"`
	PerSecond float64 `yaml:"per_second" mapstructure:"per_second"`
}

// ServerConfig configures the report HTTP endpoint.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
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
	v.SetEnvPrefix("COSD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("dirs.unprocessed", "data/unprocessed")
	v.SetDefault("dirs.processed", "data/processed")
	v.SetDefault("dirs.extracts", "data/processed/csv")
	v.SetDefault("extract.format", "csv")
	v.SetDefault("extract.concurrency", 4)
	v.SetDefault("extract.source_ext", ".html")
	v.SetDefault("schema.path", "")
	v.SetDefault("journal.path", "cosd-extract.db")
	v.SetDefault("warehouse.database_url", "")
	v.SetDefault("warehouse.schema_name", "cosd")
	v.SetDefault("warehouse.exclude_groups", []string{})
	v.SetDefault("ftp.host", "")
	v.SetDefault("ftp.user", "")
	v.SetDefault("ftp.password", "")
	v.SetDefault("ftp.remote_dir", "")
	v.SetDefault("ftp.per_second", 2.0)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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
