package services

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/settlenet/settlement-api-service/internal/ledger"
	"github.com/settlenet/settlement-api-service/internal/obligation"
	"github.com/settlenet/settlement-api-service/internal/observability/tracing"
	"github.com/settlenet/settlement-api-service/internal/settlement"
	"github.com/settlenet/settlement-api-service/internal/types"
)

type ObligationPublic struct {
	ID               string             `json:"id"`
	Version          uint64             `json:"version"`
	FaceAmount       types.Amount       `json:"face_amount"`
	Obligor          types.Party        `json:"obligor"`
	Obligee          types.Party        `json:"obligee"`
	Paid             types.Amount       `json:"paid"`
	Status           string             `json:"status"`
	SettlementMethod *settlement.Method `json:"settlement_method,omitempty"`
}

func fromObligation(ob obligation.Obligation) *ObligationPublic {
	return &ObligationPublic{
		ID:               ob.ID.String(),
		Version:          ob.Version,
		FaceAmount:       ob.FaceAmount,
		Obligor:          ob.Obligor,
		Obligee:          ob.Obligee,
		Paid:             ob.Paid,
		Status:           ob.Status.ToString(),
		SettlementMethod: ob.SettlementMethod,
	}
}

// CreateObligation records a new bilateral obligation on the ledger. The actor
// must be one of the two participants; both parties sign the create command.
func (s *Services) CreateObligation(
	ctx context.Context, faceAmount types.Amount, obligor, obligee, actor types.Party,
) (*ObligationPublic, *types.Error) {
	if faceAmount.Quantity <= 0 {
		return nil, types.NewErrorWithMsg(
			http.StatusBadRequest, types.ValidationError,
			"face amount must be a positive quantity",
		)
	}
	if faceAmount.AssetCode == "" {
		return nil, types.NewErrorWithMsg(
			http.StatusBadRequest, types.ValidationError,
			"face amount is missing an asset code",
		)
	}
	if obligor.Equals(obligee) {
		return nil, types.NewErrorWithMsg(
			http.StatusBadRequest, types.ValidationError,
			"obligor and obligee cannot be the same party",
		)
	}

	resolvedActor, actorErr := s.resolveActor(actor)
	if actorErr != nil {
		return nil, actorErr
	}

	ob := obligation.New(faceAmount, obligor, obligee)
	resolved, err := ob.ResolveParticipants(s.resolver)
	if err != nil {
		return nil, types.NewError(http.StatusBadRequest, types.BadRequest, err)
	}
	if !resolvedActor.Equals(resolved.Obligor) && !resolvedActor.Equals(resolved.Obligee) {
		return nil, types.NewErrorWithMsg(
			http.StatusForbidden, types.UnauthorizedActor,
			"only a participant of the obligation may create it",
		)
	}

	if _, commitErr := s.DbClient.Commit(
		ctx, ob, ob, ledger.CommandCreate, []types.Party{resolved.Obligor, resolved.Obligee},
	); commitErr != nil {
		log.Ctx(ctx).Error().Err(commitErr).Msg("Failed to commit obligation creation")
		return nil, ledger.AsTypesError(commitErr)
	}

	created, lookupErr := s.DbClient.LookupByID(ctx, ob.ID)
	if lookupErr != nil {
		return nil, ledger.AsTypesError(lookupErr)
	}
	return fromObligation(*created), nil
}

// GetObligation returns the latest committed state of an obligation.
func (s *Services) GetObligation(ctx context.Context, id uuid.UUID) (*ObligationPublic, *types.Error) {
	ob, err := tracing.WrapWithSpan(ctx, "db.LookupByID", func() (*obligation.Obligation, error) {
		return s.DbClient.LookupByID(ctx, id)
	})
	if err != nil {
		return nil, ledger.AsTypesError(err)
	}
	return fromObligation(*ob), nil
}

type CommitPublic struct {
	Ref         string        `json:"ref"`
	Version     uint64        `json:"version"`
	Command     string        `json:"command"`
	Signers     []types.Party `json:"signers"`
	CommittedAt time.Time     `json:"committed_at"`
}

// GetObligationCommits returns the witnessed commit history of an obligation,
// oldest first. Every state transition an obligation has gone through appears
// here together with the parties that signed it.
func (s *Services) GetObligationCommits(ctx context.Context, id uuid.UUID) ([]CommitPublic, *types.Error) {
	if _, err := s.DbClient.LookupByID(ctx, id); err != nil {
		return nil, ledger.AsTypesError(err)
	}

	docs, err := s.DbClient.FindCommitsByObligationID(ctx, id)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Failed to find commits for obligation")
		return nil, types.NewInternalServiceError(err)
	}

	commits := make([]CommitPublic, 0, len(docs))
	for _, doc := range docs {
		commits = append(commits, CommitPublic{
			Ref:         doc.Ref,
			Version:     doc.Version,
			Command:     doc.Command,
			Signers:     doc.Signers,
			CommittedAt: doc.CommittedAt,
		})
	}
	return commits, nil
}
