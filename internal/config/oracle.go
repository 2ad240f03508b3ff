package config

import (
	"fmt"
)

// OracleConfig identifies the settlement oracle this service runs as and how
// often it polls the rail while verifying.
type OracleConfig struct {
	PartyName string `mapstructure:"party-name"`
	// PollInterval between rail status checks, in seconds
	PollInterval int `mapstructure:"poll-interval"`
}

func (cfg *OracleConfig) Validate() error {
	if cfg.PartyName == "" {
		return fmt.Errorf("missing oracle party name")
	}

	if cfg.PollInterval <= 0 {
		return fmt.Errorf("oracle poll interval must be a positive integer")
	}

	return nil
}
