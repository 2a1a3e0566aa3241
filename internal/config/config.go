// Package config provides configuration management for the trading application.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Trading     TradingConfig  `mapstructure:"trading"`
	Logging     LoggingConfig  `mapstructure:"logging"`
	Credentials Credentials    `mapstructure:"-"` // Loaded separately
	Strategy    StrategyParams `mapstructure:"-"` // Built once at startup, immutable
}

// TradingConfig holds trading-related configuration.
type TradingConfig struct {
	Mode            string  `mapstructure:"mode"`             // "live", "paper"
	DefaultExchange string  `mapstructure:"default_exchange"` // NSE, BSE
	DefaultCapital  float64 `mapstructure:"default_capital"`
	RiskFreeRate    float64 `mapstructure:"risk_free_rate"` // annualized, e.g. 0.065
}

// LoggingConfig holds logging configuration overrides.
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
	File    bool   `mapstructure:"file"`
}

// Credentials holds API credentials.
type Credentials struct {
	Kite KiteCredentials `mapstructure:"kite"`
}

// KiteCredentials holds Kite Connect API credentials.
type KiteCredentials struct {
	APIKey    string `mapstructure:"api_key"`
	APISecret string `mapstructure:"api_secret"`
	UserID    string `mapstructure:"user_id"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/options-trader"
	}
	return filepath.Join(home, ".config", "options-trader")
}

// DefaultConfig returns a configuration with sane defaults for paper trading.
func DefaultConfig() *Config {
	return &Config{
		Trading: TradingConfig{
			Mode:            "paper",
			DefaultExchange: "NSE",
			DefaultCapital:  1000000,
			RiskFreeRate:    0.065,
		},
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
			File:    true,
		},
		Strategy: DefaultStrategyParams(),
	}
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
// Missing files fall back to defaults; a present-but-invalid file errors.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := DefaultConfig()

	if err := loadConfigFile(configDir, "config", cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}
	if err := loadConfigFile(configDir, "credentials", &cfg.Credentials); err != nil {
		return nil, fmt.Errorf("loading credentials.toml: %w", err)
	}

	return cfg, nil
}

func loadConfigFile(dir, name string, out interface{}) error {
	v := viper.New()
	v.SetConfigName(name)
	v.SetConfigType("toml")
	v.AddConfigPath(dir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return err
	}

	return v.Unmarshal(out)
}
