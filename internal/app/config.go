package app

import (
	"errors"
	"time"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	FlowPath string // path to a .hcl flow file

	LogFormat       string
	LogLevel        string
	HealthcheckPort int

	Workers     int
	FailFast    bool
	NodeTimeout time.Duration
	Timeout     time.Duration
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.FlowPath == "" {
		return nil, errors.New("FlowPath is a required configuration field and cannot be empty")
	}
	if cfg.Workers < 0 {
		return nil, errors.New("Workers cannot be negative")
	}

	return &cfg, nil
}
