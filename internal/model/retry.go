package model

import "time"

// RetryConfig is the run-level retry policy applied by the orchestrator.
// MaxRetries counts extra attempts after the first one.
type RetryConfig struct {
	MaxRetries int           `json:"max_retries" mapstructure:"retries"`
	Delay      time.Duration `json:"delay" mapstructure:"retry_delay"`
}
