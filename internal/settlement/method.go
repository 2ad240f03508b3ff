package settlement

import (
	"fmt"
	"net/http"

	"github.com/settlenet/settlement-api-service/internal/types"
)

// MethodKind discriminates the settlement method variants. The set is closed:
// dispatch happens over the kind tag, never over open subtyping.
type MethodKind string

const (
	KindOnLedger  MethodKind = "on_ledger"
	KindOffLedger MethodKind = "off_ledger"
)

// RailKind names an off-ledger payment rail supported by this service.
type RailKind string

const (
	RailXRPL RailKind = "xrpl"
)

// Method is the settlement instruction attached to an obligation. OnLedger
// carries no additional data. OffLedger names the rail, the destination
// account, the oracle trusted to confirm the payment, and the payment status
// sub-state machine.
type Method struct {
	Kind             MethodKind          `json:"kind" bson:"kind"`
	Rail             RailKind            `json:"rail,omitempty" bson:"rail,omitempty"`
	AccountToPay     string              `json:"account_to_pay,omitempty" bson:"account_to_pay,omitempty"`
	SettlementOracle types.Party         `json:"settlement_oracle,omitempty" bson:"settlement_oracle,omitempty"`
	PaymentStatus    types.PaymentStatus `json:"payment_status,omitempty" bson:"payment_status,omitempty"`
	PaymentReference string              `json:"payment_reference,omitempty" bson:"payment_reference,omitempty"`
}

func OnLedger() *Method {
	return &Method{Kind: KindOnLedger}
}

func OffLedger(rail RailKind, accountToPay string, oracle types.Party) *Method {
	return &Method{
		Kind:             KindOffLedger,
		Rail:             rail,
		AccountToPay:     accountToPay,
		SettlementOracle: oracle,
		PaymentStatus:    types.PaymentNotSent,
	}
}

func (m *Method) IsOffLedger() bool {
	return m != nil && m.Kind == KindOffLedger
}

func (m *Method) Validate() error {
	switch m.Kind {
	case KindOnLedger:
		return nil
	case KindOffLedger:
		if m.Rail == "" {
			return fmt.Errorf("off-ledger settlement method is missing a rail kind")
		}
		if m.AccountToPay == "" {
			return fmt.Errorf("off-ledger settlement method is missing an account to pay")
		}
		if !m.SettlementOracle.IsWellKnown() {
			return fmt.Errorf("off-ledger settlement method requires a well-known settlement oracle")
		}
		return nil
	default:
		return fmt.Errorf("unknown settlement method kind: %s", m.Kind)
	}
}

// EnsureSubmittable is the guard serializing concurrent payment attempts: only
// a payment in not_sent state may be submitted. This is the primary safeguard
// against double payment.
func (m *Method) EnsureSubmittable() *types.Error {
	if !m.IsOffLedger() {
		return types.NewErrorWithMsg(
			http.StatusBadRequest, types.NoSettlementMethod,
			"obligation has no off-ledger settlement method",
		)
	}
	if m.PaymentStatus != types.PaymentNotSent {
		msg := fmt.Sprintf("a payment is already in flight for this obligation (status: %s)", m.PaymentStatus)
		if m.PaymentStatus.IsTerminal() {
			msg = fmt.Sprintf("a payment has already completed for this obligation (status: %s)", m.PaymentStatus)
		}
		return types.NewErrorWithMsg(http.StatusConflict, types.DuplicatePaymentAttempt, msg)
	}
	return nil
}

// MarkSent transitions not_sent -> sent, recording the rail payment reference.
func (m *Method) MarkSent(reference string) (*Method, error) {
	if m.PaymentStatus != types.PaymentNotSent {
		return nil, fmt.Errorf("cannot mark payment sent from status %s", m.PaymentStatus)
	}
	updated := *m
	updated.PaymentStatus = types.PaymentSent
	updated.PaymentReference = reference
	return &updated, nil
}

// MarkAccepted transitions sent -> accepted. Only the settlement oracle has
// the authority to assert this outcome.
func (m *Method) MarkAccepted() (*Method, error) {
	if m.PaymentStatus != types.PaymentSent {
		return nil, fmt.Errorf("cannot accept payment from status %s", m.PaymentStatus)
	}
	updated := *m
	updated.PaymentStatus = types.PaymentAccepted
	return &updated, nil
}

// MarkRejected transitions sent -> rejected.
func (m *Method) MarkRejected() (*Method, error) {
	if m.PaymentStatus != types.PaymentSent {
		return nil, fmt.Errorf("cannot reject payment from status %s", m.PaymentStatus)
	}
	updated := *m
	updated.PaymentStatus = types.PaymentRejected
	return &updated, nil
}
