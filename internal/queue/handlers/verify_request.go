package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	queueClient "github.com/settlenet/settlement-api-service/internal/queue/client"
	"github.com/settlenet/settlement-api-service/internal/types"
)

// VerifyRequestHandler runs settlement verification for a queued request. The
// deadline is relative to receipt, so a redelivered message gets a fresh
// verification window rather than an already expired one.
func (h *QueueHandler) VerifyRequestHandler(ctx context.Context, messageBody string) *types.Error {
	var request queueClient.VerifyRequestMessage
	err := json.Unmarshal([]byte(messageBody), &request)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Failed to unmarshal the message body into VerifyRequestMessage")
		return types.NewError(http.StatusBadRequest, types.BadRequest, err)
	}

	obligationID, err := uuid.Parse(request.ObligationID)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("obligationId", request.ObligationID).
			Msg("verify request carries an invalid obligation id")
		return types.NewError(http.StatusBadRequest, types.BadRequest, err)
	}
	if request.DeadlineSeconds <= 0 {
		return types.NewErrorWithMsg(
			http.StatusBadRequest, types.BadRequest,
			"verify request deadline must be a positive number of seconds",
		)
	}

	deadline := time.Now().Add(time.Duration(request.DeadlineSeconds) * time.Second)
	result, verifyErr := h.Services.VerifySettlement(ctx, obligationID, deadline)
	if verifyErr != nil {
		return verifyErr
	}

	log.Ctx(ctx).Info().
		Str("obligationId", request.ObligationID).
		Str("outcome", string(result.Outcome)).
		Msg("processed settlement verification request")
	return nil
}
