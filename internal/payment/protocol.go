package payment

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/settlenet/settlement-api-service/internal/ledger"
	"github.com/settlenet/settlement-api-service/internal/obligation"
	"github.com/settlenet/settlement-api-service/internal/rail"
	"github.com/settlenet/settlement-api-service/internal/types"
)

// Protocol pushes exactly one payment per obligation onto a payment rail. Two
// durable checkpoints (token acquired, submitted) bound the window of
// ambiguity after a crash to "the rail accepted it but we have not recorded
// that yet", which is recovered by querying the rail with the known token,
// never by blind retry.
type Protocol struct {
	railClient  rail.Client
	checkpoints CheckpointStore
	ledger      ledger.Ledger
	account     string
	fee         int64
}

func NewProtocol(
	railClient rail.Client, checkpoints CheckpointStore, ldgr ledger.Ledger,
	account string, fee int64,
) *Protocol {
	return &Protocol{
		railClient:  railClient,
		checkpoints: checkpoints,
		ledger:      ldgr,
		account:     account,
		fee:         fee,
	}
}

// InvoiceID derives the rail-visible linkage value from an obligation ID so a
// third party inspecting the rail can trace the payment back to it.
func InvoiceID(obligationID uuid.UUID) string {
	digest := sha256.Sum256([]byte(obligationID.String()))
	return hex.EncodeToString(digest[:])
}

// SubmitPayment runs the submission protocol for the obligation's off-ledger
// settlement method and returns the rail payment reference. It is safe to
// re-run after a crash at any step: an existing checkpoint makes it resume
// with the recorded token instead of acquiring a new one.
func (p *Protocol) SubmitPayment(ctx context.Context, ob obligation.Obligation) (string, *types.Error) {
	method := ob.SettlementMethod
	if !method.IsOffLedger() {
		return "", types.NewErrorWithMsg(
			http.StatusBadRequest, types.NoSettlementMethod,
			"obligation has no off-ledger settlement method",
		)
	}
	if method.Rail != p.railClient.Kind() {
		return "", types.NewErrorWithMsg(
			http.StatusBadRequest, types.UnsupportedRail,
			"settlement method names a rail this submitter does not support",
		)
	}

	cp, err := p.checkpoints.Get(ctx, ob.ID)
	if err != nil {
		return "", types.NewInternalServiceError(err)
	}

	// Crash between rail acknowledgement and the ledger commit: the reference
	// is already durably recorded, so just finish the bookkeeping.
	if cp != nil && cp.Stage == StageSubmitted {
		if method.PaymentStatus != types.PaymentNotSent {
			// The ledger commit also went through; only the checkpoint is stale.
			_ = p.checkpoints.Delete(ctx, ob.ID)
			return cp.PaymentReference, nil
		}
		log.Ctx(ctx).Warn().
			Str("obligationId", ob.ID.String()).
			Str("paymentReference", cp.PaymentReference).
			Msg("resuming payment submission after crash: reference already recorded")
		return p.finalize(ctx, ob, cp.PaymentReference)
	}

	if guardErr := method.EnsureSubmittable(); guardErr != nil {
		return "", guardErr
	}

	// Setup phase: acquire the ordering token and checkpoint it before any
	// submission. A restart after this point reuses the same token so the
	// rail itself rejects an accidental resubmission.
	resumed := cp != nil && cp.Stage == StageTokenAcquired
	var token rail.Token
	if resumed {
		token = cp.Token
	} else {
		token, err = p.railClient.NextOrderingToken(ctx, p.account)
		if err != nil {
			return "", types.NewInternalServiceError(err)
		}
		if err := p.checkpoints.SaveTokenAcquired(ctx, ob.ID, p.account, token); err != nil {
			return "", types.NewInternalServiceError(err)
		}
	}

	// A resumed run may already have a payment on the rail: recover its
	// reference instead of submitting again.
	if resumed {
		if ref, findErr := p.railClient.FindPaymentByToken(ctx, p.account, token); findErr == nil {
			log.Ctx(ctx).Warn().
				Str("obligationId", ob.ID.String()).
				Str("paymentReference", ref).
				Msg("recovered existing rail payment for reused ordering token")
			return p.recordAndFinalize(ctx, ob, ref)
		} else if !rail.IsPaymentNotFoundError(findErr) {
			return "", types.NewInternalServiceError(findErr)
		}
	}

	// Advisory balance check; rail state can change concurrently, so this
	// does not guarantee the submission succeeds.
	balance, err := p.railClient.AccountBalance(ctx, p.account)
	if err != nil {
		return "", types.NewInternalServiceError(err)
	}
	if balance < ob.FaceAmount.Quantity+p.fee {
		return "", types.NewErrorWithMsg(
			http.StatusPaymentRequired, types.InsufficientFunds,
			"rail account balance does not cover the face amount plus fee",
		)
	}

	ack, err := p.railClient.Submit(ctx, rail.Payment{
		Token:       token,
		Source:      p.account,
		Destination: method.AccountToPay,
		Amount:      ob.FaceAmount.Quantity,
		Fee:         p.fee,
		InvoiceID:   InvoiceID(ob.ID),
	})
	switch {
	case rail.IsAlreadySubmittedError(err):
		// The token was spent but we held no submitted checkpoint: the
		// pre-submit checkpoint was not durably observed before a prior
		// crash. Try once to recover the reference, else hand over to the
		// operator; blind retries are forbidden here.
		if ref, findErr := p.railClient.FindPaymentByToken(ctx, p.account, token); findErr == nil {
			log.Ctx(ctx).Warn().
				Str("obligationId", ob.ID.String()).
				Str("paymentReference", ref).
				Msg("rail rejected reused ordering token; recovered existing payment reference")
			return p.recordAndFinalize(ctx, ob, ref)
		}
		return "", types.NewErrorWithMsg(
			http.StatusConflict, types.AlreadySubmitted,
			"the payment was already submitted to the rail but its reference was never recorded; "+
				"recover the payment reference from the rail out of band, do not retry blindly",
		)
	case rail.IsOrderingConflictError(err):
		// Token raced with a concurrent submission. The checkpoint is void;
		// the whole protocol restarts from token acquisition.
		_ = p.checkpoints.Delete(ctx, ob.ID)
		return "", types.NewErrorWithMsg(
			http.StatusConflict, types.OrderingConflict,
			"the ordering token was consumed by a concurrent submission; restart the payment protocol",
		)
	case err != nil:
		return "", types.NewInternalServiceError(err)
	}

	return p.recordAndFinalize(ctx, ob, ack.Reference)
}

// recordAndFinalize persists the post-submit checkpoint and then commits the
// sent status to the ledger.
func (p *Protocol) recordAndFinalize(
	ctx context.Context, ob obligation.Obligation, reference string,
) (string, *types.Error) {
	if err := p.checkpoints.SaveSubmitted(ctx, ob.ID, reference); err != nil {
		return "", types.NewInternalServiceError(err)
	}
	return p.finalize(ctx, ob, reference)
}

// finalize transitions the payment status to sent on the ledger and clears
// the checkpoint. The checkpoint is only deleted after the commit succeeds so
// a crash in between replays this step.
func (p *Protocol) finalize(
	ctx context.Context, ob obligation.Obligation, reference string,
) (string, *types.Error) {
	sent, err := ob.SettlementMethod.MarkSent(reference)
	if err != nil {
		return "", types.NewError(http.StatusConflict, types.DuplicatePaymentAttempt, err)
	}
	output := ob.WithSettlementMethod(sent)
	if _, commitErr := p.ledger.Commit(
		ctx, ob, output, ledger.CommandAddPaymentDetails, []types.Party{ob.Obligee},
	); commitErr != nil {
		return "", ledger.AsTypesError(commitErr)
	}
	if err := p.checkpoints.Delete(ctx, ob.ID); err != nil {
		log.Ctx(ctx).Error().Err(err).
			Str("obligationId", ob.ID.String()).
			Msg("failed to clear payment checkpoint after commit")
	}
	return reference, nil
}
