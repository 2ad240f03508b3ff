package services

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/settlenet/settlement-api-service/internal/ledger"
	"github.com/settlenet/settlement-api-service/internal/obligation"
	"github.com/settlenet/settlement-api-service/internal/oracle"
	queueClient "github.com/settlenet/settlement-api-service/internal/queue/client"
	"github.com/settlenet/settlement-api-service/internal/settlement"
	"github.com/settlenet/settlement-api-service/internal/types"
)

// AddSettlementInstructions attaches or replaces the settlement method on an
// obligation. Only the obligee may supply instructions, since they name the
// account the obligee expects to be paid into. Replacement is refused once a
// payment is in flight; the in-flight payment's status would otherwise be
// silently discarded.
func (s *Services) AddSettlementInstructions(
	ctx context.Context, id uuid.UUID, actor types.Party, method *settlement.Method,
) (*ObligationPublic, *types.Error) {
	if err := method.Validate(); err != nil {
		return nil, types.NewError(http.StatusBadRequest, types.ValidationError, err)
	}

	ob, lookupErr := s.DbClient.LookupByID(ctx, id)
	if lookupErr != nil {
		return nil, ledger.AsTypesError(lookupErr)
	}

	resolved, authErr := s.authorizeObligee(*ob, actor, "only the obligee may add settlement instructions")
	if authErr != nil {
		return nil, authErr
	}

	command := ledger.CommandAddSettlementTerms
	if ob.SettlementMethod != nil {
		if ob.SettlementMethod.IsOffLedger() && ob.SettlementMethod.PaymentStatus != types.PaymentNotSent {
			return nil, types.NewErrorWithMsg(
				http.StatusConflict, types.DuplicatePaymentAttempt,
				"cannot replace settlement instructions while a payment is in flight",
			)
		}
		command = ledger.CommandUpdateSettlementMethod
	}

	output := ob.WithSettlementMethod(method)
	if _, commitErr := s.DbClient.Commit(
		ctx, *ob, output, command, []types.Party{resolved.Obligee},
	); commitErr != nil {
		log.Ctx(ctx).Error().Err(commitErr).Msg("Failed to commit settlement instructions")
		return nil, ledger.AsTypesError(commitErr)
	}

	updated, err := s.DbClient.LookupByID(ctx, id)
	if err != nil {
		return nil, ledger.AsTypesError(err)
	}
	return fromObligation(*updated), nil
}

// SubmitPayment runs the payment submission protocol for the obligation's
// rail. Only the obligee may initiate payment, the same authority that owns
// the settlement instructions. The returned reference identifies the rail
// payment; on success a payment_submitted event is published.
func (s *Services) SubmitPayment(
	ctx context.Context, id uuid.UUID, actor types.Party,
) (string, *types.Error) {
	ob, lookupErr := s.DbClient.LookupByID(ctx, id)
	if lookupErr != nil {
		return "", ledger.AsTypesError(lookupErr)
	}

	if _, authErr := s.authorizeObligee(*ob, actor, "only the obligee may submit a payment"); authErr != nil {
		return "", authErr
	}

	method := ob.SettlementMethod
	if !method.IsOffLedger() {
		return "", types.NewErrorWithMsg(
			http.StatusBadRequest, types.NoSettlementMethod,
			"obligation has no off-ledger settlement method",
		)
	}

	submitter, resolveErr := s.Registry.Resolve(method.Rail)
	if resolveErr != nil {
		return "", resolveErr
	}

	reference, submitErr := submitter.SubmitPayment(ctx, *ob)
	if submitErr != nil {
		return "", submitErr
	}

	s.publishEvent(ctx, queueClient.PaymentSubmittedEvent{
		EventType:        queueClient.PaymentSubmittedEventType,
		ObligationID:     id.String(),
		PaymentReference: reference,
	})
	return reference, nil
}

// VerifySettlement runs oracle verification with the given deadline and
// publishes the terminal outcome as a settlement event.
func (s *Services) VerifySettlement(
	ctx context.Context, id uuid.UUID, deadline time.Time,
) (*oracle.Result, *types.Error) {
	result, err := s.Verifier.Verify(ctx, id, deadline)
	if err != nil {
		return nil, err
	}

	switch result.Outcome {
	case types.VerifySuccess:
		s.publishEvent(ctx, queueClient.SettlementConfirmedEvent{
			EventType:    queueClient.SettlementConfirmedEventType,
			ObligationID: id.String(),
			CommitRef:    string(result.CommitRef),
		})
	case types.VerifyTimeout:
		s.publishEvent(ctx, queueClient.SettlementTimeoutEvent{
			EventType:    queueClient.SettlementTimeoutEventType,
			ObligationID: id.String(),
			Reason:       result.Reason,
		})
	}
	return result, nil
}

// authorizeObligee resolves the actor and the obligation's participants, then
// checks the actor is the obligee. The obligee owns both settlement
// instructions and payment initiation.
func (s *Services) authorizeObligee(
	ob obligation.Obligation, actor types.Party, denyMsg string,
) (obligation.Obligation, *types.Error) {
	resolvedActor, actorErr := s.resolveActor(actor)
	if actorErr != nil {
		return obligation.Obligation{}, actorErr
	}
	resolved, err := ob.ResolveParticipants(s.resolver)
	if err != nil {
		return obligation.Obligation{}, types.NewError(http.StatusForbidden, types.UnauthorizedActor, err)
	}

	if !resolvedActor.Equals(resolved.Obligee) {
		return obligation.Obligation{}, types.NewErrorWithMsg(http.StatusForbidden, types.UnauthorizedActor, denyMsg)
	}
	return resolved, nil
}

// publishEvent is best effort: settlement state is already committed by the
// time an event is published, so a broker failure is logged, not surfaced.
func (s *Services) publishEvent(ctx context.Context, event interface{}) {
	if s.EventsQueueClient == nil {
		return
	}
	body, err := json.Marshal(event)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("error while marshalling settlement event")
		return
	}
	if err := s.EventsQueueClient.SendMessage(string(body)); err != nil {
		log.Ctx(ctx).Error().Err(err).
			Str("queueName", s.EventsQueueClient.GetQueueName()).
			Msg("error while publishing settlement event")
	}
}
