package settlement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/settlenet/settlement-api-service/internal/types"
)

func testMethod() *Method {
	return OffLedger(RailXRPL, "rDestinationAccount", types.WellKnownParty("SettlerOracle"))
}

func TestValidateOnLedger(t *testing.T) {
	assert.NoError(t, OnLedger().Validate())
}

func TestValidateOffLedger(t *testing.T) {
	assert.NoError(t, testMethod().Validate())

	missingRail := testMethod()
	missingRail.Rail = ""
	assert.Error(t, missingRail.Validate())

	missingAccount := testMethod()
	missingAccount.AccountToPay = ""
	assert.Error(t, missingAccount.Validate())

	anonymousOracle := testMethod()
	anonymousOracle.SettlementOracle = types.AnonymousParty("some-key")
	assert.Error(t, anonymousOracle.Validate())
}

func TestValidateUnknownKind(t *testing.T) {
	m := &Method{Kind: MethodKind("bank_wire")}
	assert.Error(t, m.Validate())
}

func TestEnsureSubmittableOnlyFromNotSent(t *testing.T) {
	m := testMethod()
	assert.Nil(t, m.EnsureSubmittable())

	for _, status := range []types.PaymentStatus{
		types.PaymentSent, types.PaymentAccepted, types.PaymentRejected,
	} {
		blocked := testMethod()
		blocked.PaymentStatus = status
		err := blocked.EnsureSubmittable()
		require.NotNil(t, err, "status %s must not be submittable", status)
		assert.Equal(t, types.DuplicatePaymentAttempt, err.ErrorCode)
		if status.IsTerminal() {
			assert.Contains(t, err.Err.Error(), "already completed")
		} else {
			assert.Contains(t, err.Err.Error(), "in flight")
		}
	}
}

func TestEnsureSubmittableRequiresOffLedger(t *testing.T) {
	err := OnLedger().EnsureSubmittable()
	require.NotNil(t, err)
	assert.Equal(t, types.NoSettlementMethod, err.ErrorCode)
}

func TestMarkSentRecordsReference(t *testing.T) {
	m := testMethod()
	sent, err := m.MarkSent("ABCDEF123456")
	require.NoError(t, err)
	assert.Equal(t, types.PaymentSent, sent.PaymentStatus)
	assert.Equal(t, "ABCDEF123456", sent.PaymentReference)
	// The original is a different value.
	assert.Equal(t, types.PaymentNotSent, m.PaymentStatus)
}

func TestMarkSentTwiceFails(t *testing.T) {
	m := testMethod()
	sent, err := m.MarkSent("ref-1")
	require.NoError(t, err)
	_, err = sent.MarkSent("ref-2")
	assert.Error(t, err)
}

func TestMarkAcceptedOnlyFromSent(t *testing.T) {
	m := testMethod()
	_, err := m.MarkAccepted()
	assert.Error(t, err)

	sent, err := m.MarkSent("ref")
	require.NoError(t, err)
	accepted, err := sent.MarkAccepted()
	require.NoError(t, err)
	assert.Equal(t, types.PaymentAccepted, accepted.PaymentStatus)
	assert.True(t, accepted.PaymentStatus.IsTerminal())

	// Terminal states do not transition further.
	_, err = accepted.MarkAccepted()
	assert.Error(t, err)
	_, err = accepted.MarkRejected()
	assert.Error(t, err)
}

func TestMarkRejectedOnlyFromSent(t *testing.T) {
	m := testMethod()
	_, err := m.MarkRejected()
	assert.Error(t, err)

	sent, err := m.MarkSent("ref")
	require.NoError(t, err)
	rejected, err := sent.MarkRejected()
	require.NoError(t, err)
	assert.Equal(t, types.PaymentRejected, rejected.PaymentStatus)
	assert.True(t, rejected.PaymentStatus.IsTerminal())
}
