package obligation

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/settlenet/settlement-api-service/internal/settlement"
	"github.com/settlenet/settlement-api-service/internal/types"
)

func testObligation(face int64) Obligation {
	return New(
		types.NewAmount("XRP", face),
		types.WellKnownParty("AliceCorp"),
		types.WellKnownParty("BobBank"),
	)
}

func TestNewObligationStartsUnsettled(t *testing.T) {
	ob := testObligation(1000)
	assert.Equal(t, types.Unsettled, ob.Status)
	assert.Equal(t, int64(0), ob.Paid.Quantity)
	assert.Equal(t, "XRP", ob.Paid.AssetCode)
	assert.Nil(t, ob.SettlementMethod)
}

func TestSettlePartialPaymentStaysUnsettled(t *testing.T) {
	ob := testObligation(1000)
	updated, err := ob.Settle(types.NewAmount("XRP", 400))
	require.Nil(t, err)
	assert.Equal(t, types.Unsettled, updated.Status)
	assert.Equal(t, int64(400), updated.Paid.Quantity)
}

func TestSettlePaidAccumulatesAcrossPayments(t *testing.T) {
	ob := testObligation(1000)
	first, err := ob.Settle(types.NewAmount("XRP", 400))
	require.Nil(t, err)
	second, err := first.Settle(types.NewAmount("XRP", 600))
	require.Nil(t, err)
	assert.Equal(t, int64(1000), second.Paid.Quantity)
	assert.Equal(t, types.Settled, second.Status)
}

func TestSettleExactFaceAmountSettles(t *testing.T) {
	ob := testObligation(1000)
	updated, err := ob.Settle(types.NewAmount("XRP", 1000))
	require.Nil(t, err)
	assert.Equal(t, types.Settled, updated.Status)
}

func TestSettleOverpaymentIsAcceptedAndSettles(t *testing.T) {
	ob := testObligation(1000)
	updated, err := ob.Settle(types.NewAmount("XRP", 1500))
	require.Nil(t, err)
	assert.Equal(t, types.Settled, updated.Status)
	assert.Equal(t, int64(1500), updated.Paid.Quantity)
}

func TestSettleNegativeAmountRejected(t *testing.T) {
	ob := testObligation(1000)
	_, err := ob.Settle(types.NewAmount("XRP", -1))
	require.NotNil(t, err)
	assert.Equal(t, types.InvariantViolation, err.ErrorCode)
}

func TestSettleAssetMismatchRejected(t *testing.T) {
	ob := testObligation(1000)
	_, err := ob.Settle(types.NewAmount("USD", 100))
	require.NotNil(t, err)
	assert.Equal(t, types.InvariantViolation, err.ErrorCode)
}

func TestSettleDoesNotMutateReceiver(t *testing.T) {
	ob := testObligation(1000)
	_, err := ob.Settle(types.NewAmount("XRP", 1000))
	require.Nil(t, err)
	assert.Equal(t, types.Unsettled, ob.Status)
	assert.Equal(t, int64(0), ob.Paid.Quantity)
}

func TestWithSettlementMethodReplacesWholesale(t *testing.T) {
	ob := testObligation(1000)
	oracle := types.WellKnownParty("SettlerOracle")

	withMethod := ob.WithSettlementMethod(settlement.OffLedger(settlement.RailXRPL, "rDestination", oracle))
	require.NotNil(t, withMethod.SettlementMethod)
	assert.Equal(t, types.PaymentNotSent, withMethod.SettlementMethod.PaymentStatus)

	replaced := withMethod.WithSettlementMethod(settlement.OnLedger())
	assert.Equal(t, settlement.KindOnLedger, replaced.SettlementMethod.Kind)
	// The original value is untouched.
	assert.Equal(t, settlement.KindOffLedger, withMethod.SettlementMethod.Kind)
}

func TestResolveParticipants(t *testing.T) {
	ob := New(
		types.NewAmount("XRP", 100),
		types.AnonymousParty("key-obligor"),
		types.AnonymousParty("key-obligee"),
	)
	resolver := func(p types.Party) (types.Party, error) {
		switch p.Key {
		case "key-obligor":
			return types.WellKnownParty("AliceCorp"), nil
		case "key-obligee":
			return types.WellKnownParty("BobBank"), nil
		default:
			return types.Party{}, fmt.Errorf("unknown key %s", p.Key)
		}
	}

	resolved, err := ob.ResolveParticipants(resolver)
	require.NoError(t, err)
	assert.Equal(t, "AliceCorp", resolved.Obligor.Name)
	assert.Equal(t, "BobBank", resolved.Obligee.Name)
}

func TestResolveParticipantsUnknownKey(t *testing.T) {
	ob := New(
		types.NewAmount("XRP", 100),
		types.AnonymousParty("nobody"),
		types.WellKnownParty("BobBank"),
	)
	resolver := func(p types.Party) (types.Party, error) {
		return types.Party{}, fmt.Errorf("unknown key %s", p.Key)
	}

	_, err := ob.ResolveParticipants(resolver)
	assert.Error(t, err)
}
