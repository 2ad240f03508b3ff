package clients

import (
	"fmt"

	"github.com/settlenet/settlement-api-service/internal/clients/xrpl"
	"github.com/settlenet/settlement-api-service/internal/config"
	"github.com/settlenet/settlement-api-service/internal/rail"
	"github.com/settlenet/settlement-api-service/internal/settlement"
)

// Clients holds the rail client capability objects, constructed once at
// process start and threaded into the payment protocol and the verifier.
type Clients struct {
	Rails map[settlement.RailKind]rail.Client
}

func New(cfg *config.Config) (*Clients, error) {
	rails := make(map[settlement.RailKind]rail.Client)
	switch settlement.RailKind(cfg.Rail.Kind) {
	case settlement.RailXRPL:
		rails[settlement.RailXRPL] = xrpl.NewClient(&cfg.Rail)
	default:
		return nil, fmt.Errorf("unsupported rail kind in config: %s", cfg.Rail.Kind)
	}

	return &Clients{Rails: rails}, nil
}

// RailByKind returns the configured client for the given rail kind, if any.
func (c *Clients) RailByKind(kind settlement.RailKind) (rail.Client, bool) {
	client, ok := c.Rails[kind]
	return client, ok
}
