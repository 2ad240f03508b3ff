package config

import (
	"fmt"
)

// IdentityConfig maps pseudonymous party keys to well-known party names. It
// backs the party resolver used before any authority check.
type IdentityConfig struct {
	Parties map[string]string `mapstructure:"parties"`
}

func (cfg *IdentityConfig) Validate() error {
	for key, name := range cfg.Parties {
		if key == "" {
			return fmt.Errorf("identity map contains an empty party key")
		}
		if name == "" {
			return fmt.Errorf("identity map entry %s has an empty party name", key)
		}
	}
	return nil
}
