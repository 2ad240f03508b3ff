package config

import (
	"fmt"
	"net/url"
)

// RailConfig describes the payment rail this service submits to and verifies
// against. Kind selects the client implementation, the remaining fields are
// passed through to it.
type RailConfig struct {
	Kind    string `mapstructure:"kind"`
	NodeURL string `mapstructure:"node-url"`
	Account string `mapstructure:"account"`
	Secret  string `mapstructure:"secret"`
	Fee     int64  `mapstructure:"fee"`
	// Timeout for a single rail node request, in milliseconds
	Timeout int `mapstructure:"timeout"`
}

func (cfg *RailConfig) Validate() error {
	if cfg.Kind == "" {
		return fmt.Errorf("missing rail kind")
	}

	if cfg.NodeURL == "" {
		return fmt.Errorf("missing rail node url")
	}

	u, err := url.Parse(cfg.NodeURL)
	if err != nil {
		return fmt.Errorf("invalid rail node url: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported rail node url scheme: %s", u.Scheme)
	}

	if cfg.Account == "" {
		return fmt.Errorf("missing rail account")
	}

	if cfg.Secret == "" {
		return fmt.Errorf("missing rail account secret")
	}

	if cfg.Fee < 0 {
		return fmt.Errorf("rail fee cannot be negative")
	}

	if cfg.Timeout <= 0 {
		return fmt.Errorf("rail request timeout must be a positive integer")
	}

	return nil
}
