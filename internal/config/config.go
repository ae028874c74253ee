package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Dataset source kinds
const (
	SourceCSV   = "csv"
	SourceMySQL = "mysql"
)

// Config holds all application configuration
type Config struct {
	Dataset DatasetConfig
	DB      DBConfig
	Tool    ToolConfig
	Server  ServerConfig
	Bot     BotConfig
	Log     LogConfig
}

// DatasetConfig holds dataset location configuration
type DatasetConfig struct {
	Source string `envconfig:"DATASET_SOURCE" default:"csv"`
	Dir    string `envconfig:"DATASET_DIR" default:"datasets"`
	Warm   bool   `envconfig:"DATASET_WARM" default:"true"`
}

// DBConfig holds database configuration for the mysql dataset source
type DBConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"3306"`
	User     string `envconfig:"DB_USER" default:"root"`
	Password string `envconfig:"DB_PASSWORD"`
	Database string `envconfig:"DB_NAME" default:"movielens"`
	MaxConns int    `envconfig:"DB_MAX_CONNS" default:"10"`
}

// ToolConfig holds per-call limits for the tool transport
type ToolConfig struct {
	Timeout   time.Duration `envconfig:"MOVIE_TOOL_TIMEOUT" default:"25s"`
	RateLimit float64       `envconfig:"TOOL_RATE_LIMIT" default:"50"`
	RateBurst int           `envconfig:"TOOL_RATE_BURST" default:"100"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int `envconfig:"SERVER_PORT" default:"8080"`
}

// BotConfig holds Telegram bot configuration. The bot is disabled when Token is empty.
type BotConfig struct {
	Token       string `envconfig:"BOT_TOKEN"`
	ResultLimit int    `envconfig:"BOT_RESULT_LIMIT" default:"10"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `envconfig:"LOG_LEVEL" default:"info"`
}

// Enabled reports whether the Telegram transport should start
func (c *BotConfig) Enabled() bool {
	return c.Token != ""
}

// DSN returns the MySQL data source name
func (c *DBConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.User, c.Password, c.Host, c.Port, c.Database)
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg.Dataset); err != nil {
		return nil, fmt.Errorf("failed to load dataset config: %w", err)
	}

	if err := envconfig.Process("", &cfg.DB); err != nil {
		return nil, fmt.Errorf("failed to load db config: %w", err)
	}

	if err := envconfig.Process("", &cfg.Tool); err != nil {
		return nil, fmt.Errorf("failed to load tool config: %w", err)
	}

	if err := envconfig.Process("", &cfg.Server); err != nil {
		return nil, fmt.Errorf("failed to load server config: %w", err)
	}

	if err := envconfig.Process("", &cfg.Bot); err != nil {
		return nil, fmt.Errorf("failed to load bot config: %w", err)
	}

	if err := envconfig.Process("", &cfg.Log); err != nil {
		return nil, fmt.Errorf("failed to load log config: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Dataset.Source {
	case SourceCSV:
		if c.Dataset.Dir == "" {
			return fmt.Errorf("DATASET_DIR is required for the csv source")
		}
	case SourceMySQL:
		if c.DB.Password == "" {
			return fmt.Errorf("DB_PASSWORD is required for the mysql source")
		}
	default:
		return fmt.Errorf("DATASET_SOURCE must be %q or %q", SourceCSV, SourceMySQL)
	}
	if c.Tool.Timeout <= 0 {
		return fmt.Errorf("MOVIE_TOOL_TIMEOUT must be positive")
	}
	if c.Tool.RateLimit <= 0 {
		return fmt.Errorf("TOOL_RATE_LIMIT must be positive")
	}
	if c.Tool.RateBurst <= 0 {
		return fmt.Errorf("TOOL_RATE_BURST must be positive")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535")
	}
	if c.Bot.ResultLimit <= 0 {
		return fmt.Errorf("BOT_RESULT_LIMIT must be positive")
	}
	return nil
}
