package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/settlenet/settlement-api-service/internal/types"
)

type CreateObligationRequestPayload struct {
	FaceAmount types.Amount `json:"face_amount"`
	Obligor    types.Party  `json:"obligor"`
	Obligee    types.Party  `json:"obligee"`
	Actor      types.Party  `json:"actor"`
}

func parseCreateObligationRequestPayload(request *http.Request) (*CreateObligationRequestPayload, *types.Error) {
	payload := &CreateObligationRequestPayload{}
	err := json.NewDecoder(request.Body).Decode(payload)
	if err != nil {
		return nil, types.NewErrorWithMsg(http.StatusBadRequest, types.BadRequest, "invalid request payload")
	}
	if payload.FaceAmount.AssetCode == "" || payload.FaceAmount.Quantity <= 0 {
		return nil, types.NewErrorWithMsg(
			http.StatusBadRequest, types.BadRequest, "face amount must name an asset and a positive quantity",
		)
	}
	if payload.Obligor == (types.Party{}) || payload.Obligee == (types.Party{}) {
		return nil, types.NewErrorWithMsg(
			http.StatusBadRequest, types.BadRequest, "obligor and obligee are required",
		)
	}
	if payload.Actor == (types.Party{}) {
		return nil, types.NewErrorWithMsg(
			http.StatusBadRequest, types.BadRequest, "actor is required",
		)
	}

	return payload, nil
}

// CreateObligation records a new bilateral obligation between the obligor and
// the obligee.
func (h *Handler) CreateObligation(request *http.Request) (*Result, *types.Error) {
	payload, err := parseCreateObligationRequestPayload(request)
	if err != nil {
		return nil, err
	}

	ob, createErr := h.services.CreateObligation(
		request.Context(), payload.FaceAmount, payload.Obligor, payload.Obligee, payload.Actor,
	)
	if createErr != nil {
		return nil, createErr
	}

	return &Result{Data: &PublicResponse[interface{}]{Data: ob}, Status: http.StatusCreated}, nil
}

// GetObligation returns the latest committed version of an obligation.
func (h *Handler) GetObligation(request *http.Request) (*Result, *types.Error) {
	id, err := parseObligationIdQuery(request, "id")
	if err != nil {
		return nil, err
	}

	ob, getErr := h.services.GetObligation(request.Context(), id)
	if getErr != nil {
		return nil, getErr
	}

	return NewResult(ob), nil
}

// GetObligationCommits returns the full commit history of an obligation.
func (h *Handler) GetObligationCommits(request *http.Request) (*Result, *types.Error) {
	id, err := parseObligationIdQuery(request, "id")
	if err != nil {
		return nil, err
	}

	commits, getErr := h.services.GetObligationCommits(request.Context(), id)
	if getErr != nil {
		return nil, getErr
	}

	return NewResult(commits), nil
}
