package payment

import (
	"context"
	"fmt"
	"net/http"

	"github.com/settlenet/settlement-api-service/internal/obligation"
	"github.com/settlenet/settlement-api-service/internal/settlement"
	"github.com/settlenet/settlement-api-service/internal/types"
)

// Submitter pushes a payment for an obligation onto one kind of rail.
type Submitter interface {
	SubmitPayment(ctx context.Context, ob obligation.Obligation) (string, *types.Error)
}

// SubmitterConstructor builds the submitter for a rail kind. Constructors are
// registered at process start, keeping the set of supported rails closed and
// resolvable without reflection.
type SubmitterConstructor func() Submitter

// Registry maps a rail kind to its submitter constructor.
type Registry struct {
	constructors map[settlement.RailKind]SubmitterConstructor
}

func NewRegistry() *Registry {
	return &Registry{constructors: make(map[settlement.RailKind]SubmitterConstructor)}
}

func (r *Registry) Register(kind settlement.RailKind, ctor SubmitterConstructor) {
	r.constructors[kind] = ctor
}

func (r *Registry) Resolve(kind settlement.RailKind) (Submitter, *types.Error) {
	ctor, ok := r.constructors[kind]
	if !ok {
		return nil, types.NewErrorWithMsg(
			http.StatusBadRequest, types.UnsupportedRail,
			fmt.Sprintf("no payment submitter registered for rail %q", kind),
		)
	}
	return ctor(), nil
}
