package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/settlenet/settlement-api-service/internal/obligation"
	"github.com/settlenet/settlement-api-service/internal/settlement"
	"github.com/settlenet/settlement-api-service/internal/types"
)

// ObligationDocument is the latest committed state of an obligation. The
// version field is the compare-and-swap guard for commits.
type ObligationDocument struct {
	ID               string             `bson:"_id"` // Primary key
	Version          uint64             `bson:"version"`
	AssetCode        string             `bson:"asset_code"`
	FaceQuantity     int64              `bson:"face_quantity"`
	PaidQuantity     int64              `bson:"paid_quantity"`
	Obligor          types.Party        `bson:"obligor"`
	Obligee          types.Party        `bson:"obligee"`
	Status           string             `bson:"status"`
	SettlementMethod *settlement.Method `bson:"settlement_method,omitempty"`
}

// CommitDocument records one witnessed obligation state transition. The unique
// (obligation_id, version) index makes double-commits of the same version
// impossible even across concurrent transactions.
type CommitDocument struct {
	Ref          string        `bson:"_id"` // Primary key
	ObligationID string        `bson:"obligation_id"`
	Version      uint64        `bson:"version"`
	Command      string        `bson:"command"`
	Signers      []types.Party `bson:"signers"`
	CommittedAt  time.Time     `bson:"committed_at"`
}

func ToObligationDocument(ob obligation.Obligation) *ObligationDocument {
	return &ObligationDocument{
		ID:               ob.ID.String(),
		Version:          ob.Version,
		AssetCode:        ob.FaceAmount.AssetCode,
		FaceQuantity:     ob.FaceAmount.Quantity,
		PaidQuantity:     ob.Paid.Quantity,
		Obligor:          ob.Obligor,
		Obligee:          ob.Obligee,
		Status:           ob.Status.ToString(),
		SettlementMethod: ob.SettlementMethod,
	}
}

func (d *ObligationDocument) ToObligation() (obligation.Obligation, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return obligation.Obligation{}, err
	}
	status, err := types.FromStringToObligationStatus(d.Status)
	if err != nil {
		return obligation.Obligation{}, err
	}
	return obligation.Obligation{
		ID:               id,
		Version:          d.Version,
		FaceAmount:       types.NewAmount(d.AssetCode, d.FaceQuantity),
		Paid:             types.NewAmount(d.AssetCode, d.PaidQuantity),
		Obligor:          d.Obligor,
		Obligee:          d.Obligee,
		Status:           status,
		SettlementMethod: d.SettlementMethod,
	}, nil
}
