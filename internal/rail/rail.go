package rail

import (
	"context"

	"github.com/settlenet/settlement-api-service/internal/settlement"
)

// Token is a rail-specific ordering token, e.g. an XRPL account sequence
// number. The rail itself rejects a reused token, which is the idempotency
// anchor the payment submission protocol relies on.
type Token uint32

// PaymentState is the rail's view of a submitted payment.
type PaymentState string

const (
	PaymentPending   PaymentState = "pending"
	PaymentConfirmed PaymentState = "confirmed"
	PaymentNotFound  PaymentState = "not_found"
)

// Payment is a rail-native payment instruction. Amounts are in the rail's
// smallest unit. InvoiceID carries a deterministic digest of the obligation ID
// so the payment is traceable back to the obligation by any third party
// inspecting the rail.
type Payment struct {
	Token       Token
	Source      string
	Destination string
	Amount      int64
	Fee         int64
	InvoiceID   string
}

// Ack is the rail's acknowledgement of an accepted submission.
type Ack struct {
	Reference string
}

// Client is the port a concrete payment rail client must satisfy. The
// submission protocol and the oracle verifier are written against this
// interface only; a substitutable mock stands in for the rail in tests.
type Client interface {
	Kind() settlement.RailKind
	NextOrderingToken(ctx context.Context, account string) (Token, error)
	AccountBalance(ctx context.Context, account string) (int64, error)
	Submit(ctx context.Context, payment Payment) (*Ack, error)
	PaymentStatus(ctx context.Context, reference string) (PaymentState, error)
	// FindPaymentByToken looks up the reference of a payment previously
	// submitted with the given ordering token. Crash recovery uses it to
	// recover a reference instead of resubmitting.
	FindPaymentByToken(ctx context.Context, account string, token Token) (string, error)
}
