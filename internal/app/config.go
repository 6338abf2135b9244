package app

import (
	"errors"
	"fmt"
	"strings"
)

// Defaults used when a field is left empty.
const (
	DefaultFunctionsDir = "functions"
	DefaultAddr         = ":8000"
	DefaultLogFormat    = "text"
	DefaultLogLevel     = "info"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	FunctionsDir string // one <name>.json per stored function
	Addr         string // listen address of the HTTP API

	LogFormat string
	LogLevel  string
}

// NewConfig fills in defaults and validates cfg.
func NewConfig(cfg Config) (*Config, error) {
	if strings.TrimSpace(cfg.FunctionsDir) == "" {
		return nil, errors.New("FunctionsDir is a required configuration field and cannot be empty")
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}

	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	switch cfg.LogFormat {
	case "":
		cfg.LogFormat = DefaultLogFormat
	case "text", "json":
	default:
		return nil, fmt.Errorf("invalid log-format %q: must be 'text' or 'json'", cfg.LogFormat)
	}

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	if _, ok := parseLevel(cfg.LogLevel); !ok {
		return nil, fmt.Errorf("invalid log-level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.LogLevel)
	}

	return &cfg, nil
}
