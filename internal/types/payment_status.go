package types

import "fmt"

// PaymentStatus is the sub-state machine carried by off-ledger settlement
// instructions: not_sent -> sent -> {accepted | rejected}. Transitions are
// monotonic; accepted and rejected are terminal for a payment attempt.
type PaymentStatus string

const (
	PaymentNotSent  PaymentStatus = "not_sent"
	PaymentSent     PaymentStatus = "sent"
	PaymentAccepted PaymentStatus = "accepted"
	PaymentRejected PaymentStatus = "rejected"
)

func (s PaymentStatus) ToString() string {
	return string(s)
}

func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentAccepted || s == PaymentRejected
}

func FromStringToPaymentStatus(s string) (PaymentStatus, error) {
	switch s {
	case "not_sent":
		return PaymentNotSent, nil
	case "sent":
		return PaymentSent, nil
	case "accepted":
		return PaymentAccepted, nil
	case "rejected":
		return PaymentRejected, nil
	default:
		return "", fmt.Errorf("invalid payment status: %s", s)
	}
}
