// Package config provides configuration management using viper.
// It supports loading from YAML files and environment variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Bot          BotConfig          `mapstructure:"bot"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Snapshots    SnapshotConfig     `mapstructure:"snapshots"`
	Whitelist    WhitelistConfig    `mapstructure:"whitelist"`
	Banned       BannedConfig       `mapstructure:"banned"`
	Autoresponse AutoresponseConfig `mapstructure:"autoresponse"`
}

// BotConfig holds Telegram bot configuration.
type BotConfig struct {
	Token string `mapstructure:"token"`
	// Prefix introduces commands in chat messages, e.g. "/".
	Prefix string `mapstructure:"prefix"`
	// SweepInterval is how often stale sessions are expired.
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// DatabaseConfig holds PostgreSQL connection configuration for the
// score ledger.
type DatabaseConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	User           string        `mapstructure:"user"`
	Password       string        `mapstructure:"password"`
	Name           string        `mapstructure:"name"`
	PoolSize       int           `mapstructure:"pool_size"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// SnapshotConfig holds session snapshot storage configuration.
type SnapshotConfig struct {
	Dir string `mapstructure:"dir"`
}

// WhitelistConfig holds chat whitelist configuration. An empty list
// allows all chats.
type WhitelistConfig struct {
	Chats []int64 `mapstructure:"chats"`
}

// BannedConfig lists chats whose events are dropped entirely.
type BannedConfig struct {
	Chats []int64 `mapstructure:"chats"`
}

// AutoresponseConfig toggles the passive autoresponder.
type AutoresponseConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in the config directory.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Environment variables use underscore separator and uppercase,
	// e.g. BOT_TOKEN, DATABASE_HOST, SNAPSHOTS_DIR.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK - we can use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("bot.prefix", "/")
	v.SetDefault("bot.sweep_interval", "1m")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "gamebot")
	v.SetDefault("database.name", "gamebot")
	v.SetDefault("database.pool_size", 10)
	v.SetDefault("database.connect_timeout", "10s")

	v.SetDefault("snapshots.dir", "games")

	v.SetDefault("autoresponse.enabled", true)
}

// IsChatAllowed checks if a chat ID is in the whitelist.
func (c *Config) IsChatAllowed(chatID int64) bool {
	// Empty whitelist means all chats are allowed
	if len(c.Whitelist.Chats) == 0 {
		return true
	}
	for _, id := range c.Whitelist.Chats {
		if id == chatID {
			return true
		}
	}
	return false
}

// IsChatBanned checks if a chat ID is on the banned list.
func (c *Config) IsChatBanned(chatID int64) bool {
	for _, id := range c.Banned.Chats {
		if id == chatID {
			return true
		}
	}
	return false
}
