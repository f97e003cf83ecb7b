package config

import "fmt"

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host     string `mapstructure:"host"`      // Bind address (e.g., 0.0.0.0 for all interfaces)
	HTTPPort int    `mapstructure:"http_port"` // HTTP server port
}

// AuthConfig represents authentication configuration
type AuthConfig struct {
	Enabled bool     `mapstructure:"enabled"`  // Enable/disable API key authentication
	APIKeys []string `mapstructure:"api_keys"` // List of valid API keys
}

// AnalysisConfig tunes the preprocessing and indicator pipelines
type AnalysisConfig struct {
	// DefaultOutlierMultiplier is the IQR multiplier used when a request
	// does not provide one.
	DefaultOutlierMultiplier float64 `mapstructure:"default_outlier_multiplier"`
	// MaxRows bounds the number of dataset rows per request; 0 disables
	// the ceiling.
	MaxRows int `mapstructure:"max_rows"`
	// MaxExpressionLength bounds the character length of one operation
	// expression; 0 disables the ceiling.
	MaxExpressionLength int `mapstructure:"max_expression_length"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, file path
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}
	if err := c.Analysis.Validate(); err != nil {
		return fmt.Errorf("analysis config: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}
	return nil
}

// Validate validates server configuration
func (c *ServerConfig) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid http_port: %d", c.HTTPPort)
	}
	return nil
}

// Validate validates analysis configuration
func (c *AnalysisConfig) Validate() error {
	if c.DefaultOutlierMultiplier <= 0 {
		return fmt.Errorf("analysis.default_outlier_multiplier must be positive")
	}
	if c.MaxRows < 0 {
		return fmt.Errorf("analysis.max_rows cannot be negative")
	}
	if c.MaxExpressionLength < 0 {
		return fmt.Errorf("analysis.max_expression_length cannot be negative")
	}
	return nil
}

// Validate validates logging configuration
func (c *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}

	if c.Format != "json" && c.Format != "console" {
		return fmt.Errorf("logging.format must be 'json' or 'console'")
	}
	return nil
}
