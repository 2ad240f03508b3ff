package ledger

import (
	"context"

	"github.com/google/uuid"

	"github.com/settlenet/settlement-api-service/internal/obligation"
	"github.com/settlenet/settlement-api-service/internal/types"
)

// Command authorizes an obligation state transition.
type Command string

const (
	CommandCreate                 Command = "create"
	CommandAddSettlementTerms     Command = "add_settlement_terms"
	CommandUpdateSettlementMethod Command = "update_settlement_method"
	CommandAddPaymentDetails      Command = "add_payment_details"
	CommandExtinguish             Command = "extinguish"
)

// CommitRef identifies a committed obligation state transition.
type CommitRef string

// Ledger is the commit collaborator port: it supplies atomic, multi-party
// witnessed state transitions, linearizable per obligation ID. The input
// version must still be the latest or the commit fails with StaleInputError.
type Ledger interface {
	LookupByID(ctx context.Context, id uuid.UUID) (*obligation.Obligation, error)
	Commit(
		ctx context.Context,
		input, output obligation.Obligation,
		command Command,
		signers []types.Party,
	) (CommitRef, error)
}
