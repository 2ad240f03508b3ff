package ledger

import (
	"net/http"

	"github.com/settlenet/settlement-api-service/internal/types"
)

// AsTypesError classifies a commit failure into the service error taxonomy.
// Commit failures are surfaced verbatim and never retried here: retrying
// requires re-deriving the output from the current input version, which is a
// caller-level concern.
func AsTypesError(err error) *types.Error {
	switch {
	case IsNotFoundError(err):
		return types.NewError(http.StatusNotFound, types.NotFound, err)
	case IsStaleInputError(err):
		return types.NewError(http.StatusConflict, types.StaleInput, err)
	case IsNoAvailableNotaryError(err):
		return types.NewError(http.StatusServiceUnavailable, types.NoAvailableNotary, err)
	case IsNotaryRejectedError(err):
		return types.NewError(http.StatusConflict, types.NotaryRejected, err)
	default:
		return types.NewInternalServiceError(err)
	}
}
