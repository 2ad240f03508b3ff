package types

// VerifyOutcome is the result of a settlement verification attempt. A pending
// payment is not an outcome: the oracle keeps polling until the payment is
// confirmed or the deadline passes.
type VerifyOutcome string

const (
	VerifySuccess VerifyOutcome = "success"
	VerifyTimeout VerifyOutcome = "timeout"
)

func (o VerifyOutcome) ToString() string {
	return string(o)
}
