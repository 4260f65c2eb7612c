package core

import (
	"net/http"
	"time"
)

// Config tunes a client. The zero value of any field falls back to
// ConfigDefault.
type Config struct {
	Logger        Logger
	HTTPClient    *http.Client
	Proxies       *Proxies
	MaxRetries    int
	RetryInterval time.Duration
	RequestLog    bool
}

// ConfigDefault is the default config.
var ConfigDefault = Config{
	MaxRetries:    3,
	RetryInterval: time.Second,
}

// Helper function to set default values
func configDefault(config ...Config) Config {
	if len(config) < 1 {
		return ConfigDefault
	}

	cfg := config[0]

	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = ConfigDefault.MaxRetries
	}

	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = ConfigDefault.RetryInterval
	}

	return cfg
}
