package db

import (
	"context"

	"github.com/google/uuid"

	"github.com/settlenet/settlement-api-service/internal/db/model"
	"github.com/settlenet/settlement-api-service/internal/ledger"
	"github.com/settlenet/settlement-api-service/internal/obligation"
	"github.com/settlenet/settlement-api-service/internal/payment"
	"github.com/settlenet/settlement-api-service/internal/rail"
	"github.com/settlenet/settlement-api-service/internal/types"
)

type DBClient interface {
	Ping(ctx context.Context) error
	LookupByID(ctx context.Context, id uuid.UUID) (*obligation.Obligation, error)
	Commit(
		ctx context.Context,
		input, output obligation.Obligation,
		command ledger.Command,
		signers []types.Party,
	) (ledger.CommitRef, error)
	FindCommitsByObligationID(ctx context.Context, id uuid.UUID) ([]model.CommitDocument, error)
	GetCheckpoint(ctx context.Context, obligationID uuid.UUID) (*payment.Checkpoint, error)
	SaveTokenAcquired(
		ctx context.Context, obligationID uuid.UUID, account string, token rail.Token,
	) error
	SaveSubmitted(ctx context.Context, obligationID uuid.UUID, reference string) error
	DeleteCheckpoint(ctx context.Context, obligationID uuid.UUID) error
	SaveUnprocessableMessage(ctx context.Context, messageBody, receipt string) error
	FindUnprocessableMessages(ctx context.Context) ([]model.UnprocessableMessageDocument, error)
	DeleteUnprocessableMessage(ctx context.Context, receipt interface{}) error
}
