package obligation

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/settlenet/settlement-api-service/internal/settlement"
	"github.com/settlenet/settlement-api-service/internal/types"
)

// Obligation is a tracked debt between two parties for a face amount of an
// asset. It is mutable by replacement only: every mutator returns a new value
// correlated to its predecessors by ID, and the ledger assigns version numbers
// on commit.
type Obligation struct {
	ID               uuid.UUID
	Version          uint64
	FaceAmount       types.Amount
	Obligor          types.Party
	Obligee          types.Party
	Paid             types.Amount
	Status           types.ObligationStatus
	SettlementMethod *settlement.Method
}

func New(faceAmount types.Amount, obligor, obligee types.Party) Obligation {
	return Obligation{
		ID:         uuid.New(),
		FaceAmount: faceAmount,
		Obligor:    obligor,
		Obligee:    obligee,
		Paid:       types.NewAmount(faceAmount.AssetCode, 0),
		Status:     types.Unsettled,
	}
}

// WithSettlementMethod returns a copy with the settlement method replaced
// wholesale. Any payment-status progress on the previous method is discarded,
// so callers must not invoke this once a payment is in flight; the service
// layer guards that at the API boundary.
func (o Obligation) WithSettlementMethod(m *settlement.Method) Obligation {
	o.SettlementMethod = m
	return o
}

// Settle applies a payment towards the face amount. Paid never decreases, and
// the obligation is settled exactly when paid covers the face amount.
// Overpayment is accepted and marked settled rather than rejected.
func (o Obligation) Settle(amount types.Amount) (Obligation, *types.Error) {
	if amount.IsNegative() {
		return Obligation{}, types.NewErrorWithMsg(
			http.StatusBadRequest, types.InvariantViolation,
			"settlement amount cannot be negative",
		)
	}
	newPaid, err := o.Paid.Add(amount)
	if err != nil {
		return Obligation{}, types.NewError(http.StatusBadRequest, types.InvariantViolation, err)
	}
	o.Paid = newPaid
	if newPaid.GreaterOrEqual(o.FaceAmount) {
		o.Status = types.Settled
	} else {
		o.Status = types.Unsettled
	}
	return o, nil
}

// ResolveParticipants maps any pseudonymous participant through the resolver
// so that authority checks are made against well-known identities.
func (o Obligation) ResolveParticipants(resolver types.PartyResolver) (Obligation, error) {
	obligor, err := resolveParty(resolver, o.Obligor)
	if err != nil {
		return Obligation{}, err
	}
	obligee, err := resolveParty(resolver, o.Obligee)
	if err != nil {
		return Obligation{}, err
	}
	o.Obligor = obligor
	o.Obligee = obligee
	return o, nil
}

func resolveParty(resolver types.PartyResolver, p types.Party) (types.Party, error) {
	if p.IsWellKnown() {
		return p, nil
	}
	return resolver(p)
}

func (o Obligation) String() string {
	return fmt.Sprintf(
		"Obligation(%s): %s owes %s %s (%s paid)",
		o.ID, o.Obligor, o.Obligee, o.FaceAmount, o.Paid,
	)
}
