package rail

// AlreadySubmittedError indicates the rail detected reuse of an ordering
// token: the payment was already submitted in an earlier attempt.
type AlreadySubmittedError struct {
	Token   Token
	Message string
}

func (e *AlreadySubmittedError) Error() string {
	return e.Message
}

func IsAlreadySubmittedError(err error) bool {
	_, ok := err.(*AlreadySubmittedError)
	return ok
}

// OrderingConflictError indicates the ordering token was consumed by a
// concurrent submission; the caller should restart and acquire a fresh token.
type OrderingConflictError struct {
	Token   Token
	Message string
}

func (e *OrderingConflictError) Error() string {
	return e.Message
}

func IsOrderingConflictError(err error) bool {
	_, ok := err.(*OrderingConflictError)
	return ok
}

// PaymentNotFoundError indicates no payment matches the queried reference or
// ordering token.
type PaymentNotFoundError struct {
	Message string
}

func (e *PaymentNotFoundError) Error() string {
	return e.Message
}

func IsPaymentNotFoundError(err error) bool {
	_, ok := err.(*PaymentNotFoundError)
	return ok
}
