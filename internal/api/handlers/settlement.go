package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/settlenet/settlement-api-service/internal/settlement"
	"github.com/settlenet/settlement-api-service/internal/types"
)

type AddSettlementInstructionsRequestPayload struct {
	ObligationID     string      `json:"obligation_id"`
	Actor            types.Party `json:"actor"`
	Kind             string      `json:"kind"`
	Rail             string      `json:"rail,omitempty"`
	AccountToPay     string      `json:"account_to_pay,omitempty"`
	SettlementOracle types.Party `json:"settlement_oracle,omitempty"`
}

func parseAddSettlementInstructionsRequestPayload(
	request *http.Request,
) (uuid.UUID, types.Party, *settlement.Method, *types.Error) {
	payload := &AddSettlementInstructionsRequestPayload{}
	err := json.NewDecoder(request.Body).Decode(payload)
	if err != nil {
		return uuid.UUID{}, types.Party{}, nil, types.NewErrorWithMsg(
			http.StatusBadRequest, types.BadRequest, "invalid request payload",
		)
	}
	id, err := uuid.Parse(payload.ObligationID)
	if err != nil {
		return uuid.UUID{}, types.Party{}, nil, types.NewErrorWithMsg(
			http.StatusBadRequest, types.BadRequest, "invalid obligation_id",
		)
	}
	if payload.Actor == (types.Party{}) {
		return uuid.UUID{}, types.Party{}, nil, types.NewErrorWithMsg(
			http.StatusBadRequest, types.BadRequest, "actor is required",
		)
	}

	var method *settlement.Method
	switch settlement.MethodKind(payload.Kind) {
	case settlement.KindOnLedger:
		method = settlement.OnLedger()
	case settlement.KindOffLedger:
		method = settlement.OffLedger(
			settlement.RailKind(payload.Rail), payload.AccountToPay, payload.SettlementOracle,
		)
	default:
		return uuid.UUID{}, types.Party{}, nil, types.NewErrorWithMsg(
			http.StatusBadRequest, types.BadRequest, "kind must be on_ledger or off_ledger",
		)
	}

	return id, payload.Actor, method, nil
}

// AddSettlementInstructions attaches settlement instructions to an obligation.
func (h *Handler) AddSettlementInstructions(request *http.Request) (*Result, *types.Error) {
	id, actor, method, err := parseAddSettlementInstructionsRequestPayload(request)
	if err != nil {
		return nil, err
	}

	ob, addErr := h.services.AddSettlementInstructions(request.Context(), id, actor, method)
	if addErr != nil {
		return nil, addErr
	}

	return NewResult(ob), nil
}

type SubmitPaymentRequestPayload struct {
	ObligationID string      `json:"obligation_id"`
	Actor        types.Party `json:"actor"`
}

type SubmitPaymentResponse struct {
	PaymentReference string `json:"payment_reference"`
}

// SubmitPayment runs the payment submission protocol for an obligation and
// returns the rail payment reference.
func (h *Handler) SubmitPayment(request *http.Request) (*Result, *types.Error) {
	payload := &SubmitPaymentRequestPayload{}
	if err := json.NewDecoder(request.Body).Decode(payload); err != nil {
		return nil, types.NewErrorWithMsg(http.StatusBadRequest, types.BadRequest, "invalid request payload")
	}
	id, err := uuid.Parse(payload.ObligationID)
	if err != nil {
		return nil, types.NewErrorWithMsg(http.StatusBadRequest, types.BadRequest, "invalid obligation_id")
	}
	if payload.Actor == (types.Party{}) {
		return nil, types.NewErrorWithMsg(http.StatusBadRequest, types.BadRequest, "actor is required")
	}

	reference, submitErr := h.services.SubmitPayment(request.Context(), id, payload.Actor)
	if submitErr != nil {
		return nil, submitErr
	}

	return NewResult(&SubmitPaymentResponse{PaymentReference: reference}), nil
}

type VerifySettlementRequestPayload struct {
	ObligationID    string `json:"obligation_id"`
	DeadlineSeconds int64  `json:"deadline_seconds"`
}

// VerifySettlement polls the rail until the recorded payment is confirmed or
// the deadline passes, then reports the outcome.
func (h *Handler) VerifySettlement(request *http.Request) (*Result, *types.Error) {
	payload := &VerifySettlementRequestPayload{}
	if err := json.NewDecoder(request.Body).Decode(payload); err != nil {
		return nil, types.NewErrorWithMsg(http.StatusBadRequest, types.BadRequest, "invalid request payload")
	}
	id, err := uuid.Parse(payload.ObligationID)
	if err != nil {
		return nil, types.NewErrorWithMsg(http.StatusBadRequest, types.BadRequest, "invalid obligation_id")
	}
	if payload.DeadlineSeconds <= 0 {
		return nil, types.NewErrorWithMsg(
			http.StatusBadRequest, types.BadRequest, "deadline_seconds must be a positive number",
		)
	}

	deadline := time.Now().Add(time.Duration(payload.DeadlineSeconds) * time.Second)
	result, verifyErr := h.services.VerifySettlement(request.Context(), id, deadline)
	if verifyErr != nil {
		return nil, verifyErr
	}

	return NewResult(result), nil
}
