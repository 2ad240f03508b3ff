package oracle

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/settlenet/settlement-api-service/internal/ledger"
	"github.com/settlenet/settlement-api-service/internal/obligation"
	"github.com/settlenet/settlement-api-service/internal/observability/metrics"
	"github.com/settlenet/settlement-api-service/internal/rail"
	"github.com/settlenet/settlement-api-service/internal/types"
	"github.com/settlenet/settlement-api-service/internal/utils"
)

const DefaultPollInterval = 5 * time.Second

// Verifier is the settlement oracle: an independently trusted party that
// polls the payment rail until it observes the recorded payment confirmed,
// then drives the final witnessed ledger commit. A verifier handles exactly
// one rail kind.
type Verifier struct {
	railClient   rail.Client
	ledger       ledger.Ledger
	identity     types.Party
	pollInterval time.Duration
}

// Result is the verification outcome. Timeout is a first-class non-error
// outcome: the obligation is untouched and verification may be re-run later.
type Result struct {
	Outcome   types.VerifyOutcome `json:"outcome"`
	CommitRef ledger.CommitRef    `json:"commit_ref,omitempty"`
	Reason    string              `json:"reason,omitempty"`
}

func NewVerifier(
	railClient rail.Client, ldgr ledger.Ledger, identity types.Party, pollInterval time.Duration,
) *Verifier {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return &Verifier{
		railClient:   railClient,
		ledger:       ldgr,
		identity:     identity,
		pollInterval: pollInterval,
	}
}

// Verify polls the rail for the obligation's last recorded payment until it
// is confirmed or the deadline passes. Re-running after a success is
// idempotent: an already settled obligation short-circuits without touching
// the ledger again.
func (v *Verifier) Verify(
	ctx context.Context, obligationID uuid.UUID, deadline time.Time,
) (*Result, *types.Error) {
	ob, err := v.ledger.LookupByID(ctx, obligationID)
	if err != nil {
		return nil, ledger.AsTypesError(err)
	}

	if ob.Status == types.Settled {
		return &Result{Outcome: types.VerifySuccess, Reason: "obligation already settled"}, nil
	}

	method := ob.SettlementMethod
	if !method.IsOffLedger() {
		return nil, types.NewErrorWithMsg(
			http.StatusBadRequest, types.NoSettlementMethod,
			"obligation has no off-ledger settlement method",
		)
	}
	if method.Rail != v.railClient.Kind() {
		return nil, types.NewErrorWithMsg(
			http.StatusBadRequest, types.UnsupportedRail,
			"this oracle does not support the settlement method's rail",
		)
	}
	if method.PaymentReference == "" {
		return nil, types.NewErrorWithMsg(
			http.StatusBadRequest, types.NoPaymentRecorded,
			"no payment has been recorded for this obligation",
		)
	}

	for {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, types.NewError(http.StatusRequestTimeout, types.RequestTimeout, ctxErr)
		}

		state, railErr := v.railClient.PaymentStatus(ctx, method.PaymentReference)
		if railErr != nil && !rail.IsPaymentNotFoundError(railErr) {
			return nil, types.NewInternalServiceError(railErr)
		}
		if state == rail.PaymentConfirmed {
			break
		}

		// Pending, or not yet visible on an eventually consistent rail.
		if time.Now().After(deadline) {
			return &Result{Outcome: types.VerifyTimeout, Reason: "payment not made by deadline"}, nil
		}
		log.Ctx(ctx).Debug().
			Str("obligationId", ob.ID.String()).
			Str("paymentReference", method.PaymentReference).
			Msg("payment not yet confirmed on rail, polling again")
		metrics.RecordVerificationPoll(string(method.Rail))
		utils.Sleep(v.pollInterval)
	}

	return v.commitSettlement(ctx, *ob)
}

// commitSettlement marks the payment accepted, settles the full face amount
// and commits the transition witnessed by the oracle's identity.
func (v *Verifier) commitSettlement(ctx context.Context, ob obligation.Obligation) (*Result, *types.Error) {
	accepted, err := ob.SettlementMethod.MarkAccepted()
	if err != nil {
		return nil, types.NewError(http.StatusConflict, types.DuplicatePaymentAttempt, err)
	}
	settled, settleErr := ob.WithSettlementMethod(accepted).Settle(ob.FaceAmount)
	if settleErr != nil {
		return nil, settleErr
	}

	commitRef, commitErr := v.ledger.Commit(
		ctx, ob, settled, ledger.CommandExtinguish, []types.Party{v.identity},
	)
	if commitErr != nil {
		return nil, ledger.AsTypesError(commitErr)
	}

	log.Ctx(ctx).Info().
		Str("obligationId", ob.ID.String()).
		Str("commitRef", string(commitRef)).
		Msg("settlement confirmed and committed")
	return &Result{Outcome: types.VerifySuccess, CommitRef: commitRef}, nil
}
