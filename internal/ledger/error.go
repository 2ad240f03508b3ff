package ledger

// NotFoundError indicates no obligation exists for the given ID.
type NotFoundError struct {
	Key     string
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

func IsNotFoundError(err error) bool {
	_, ok := err.(*NotFoundError)
	return ok
}

// StaleInputError indicates the commit's input version was already superseded.
// The caller must re-derive the output from the current version; the
// settlement subsystem never retries a rejected commit itself.
type StaleInputError struct {
	Key     string
	Message string
}

func (e *StaleInputError) Error() string {
	return e.Message
}

func IsStaleInputError(err error) bool {
	_, ok := err.(*StaleInputError)
	return ok
}

// NoAvailableNotaryError indicates no notary could witness the transition.
type NoAvailableNotaryError struct {
	Message string
}

func (e *NoAvailableNotaryError) Error() string {
	return e.Message
}

func IsNoAvailableNotaryError(err error) bool {
	_, ok := err.(*NoAvailableNotaryError)
	return ok
}

// NotaryRejectedError indicates the notary refused to witness the transition.
type NotaryRejectedError struct {
	Message string
}

func (e *NotaryRejectedError) Error() string {
	return e.Message
}

func IsNotaryRejectedError(err error) bool {
	_, ok := err.(*NotaryRejectedError)
	return ok
}
