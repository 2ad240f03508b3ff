package inmem

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/settlenet/settlement-api-service/internal/ledger"
	"github.com/settlenet/settlement-api-service/internal/obligation"
	"github.com/settlenet/settlement-api-service/internal/types"
)

func newObligation() obligation.Obligation {
	return obligation.New(
		types.NewAmount("XRP", 1000),
		types.WellKnownParty("AliceCorp"),
		types.WellKnownParty("BobBank"),
	)
}

func TestCommitCreateAssignsVersionOne(t *testing.T) {
	l := New()
	ob := newObligation()

	ref, err := l.Commit(
		context.Background(), ob, ob, ledger.CommandCreate,
		[]types.Party{ob.Obligor, ob.Obligee},
	)
	require.NoError(t, err)
	assert.NotEmpty(t, ref)

	latest, err := l.LookupByID(context.Background(), ob.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), latest.Version)
}

func TestCommitCreateTwiceFails(t *testing.T) {
	l := New()
	ob := newObligation()

	_, err := l.Commit(context.Background(), ob, ob, ledger.CommandCreate, nil)
	require.NoError(t, err)

	_, err = l.Commit(context.Background(), ob, ob, ledger.CommandCreate, nil)
	assert.True(t, ledger.IsStaleInputError(err))
}

func TestCommitIncrementsVersion(t *testing.T) {
	l := New()
	ob := newObligation()
	_, err := l.Commit(context.Background(), ob, ob, ledger.CommandCreate, nil)
	require.NoError(t, err)

	v1, err := l.LookupByID(context.Background(), ob.ID)
	require.NoError(t, err)

	settled, settleErr := v1.Settle(v1.FaceAmount)
	require.Nil(t, settleErr)
	_, err = l.Commit(context.Background(), *v1, settled, ledger.CommandExtinguish, nil)
	require.NoError(t, err)

	v2, err := l.LookupByID(context.Background(), ob.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), v2.Version)
	assert.Equal(t, types.Settled, v2.Status)
}

func TestCommitStaleInputRejected(t *testing.T) {
	l := New()
	ob := newObligation()
	_, err := l.Commit(context.Background(), ob, ob, ledger.CommandCreate, nil)
	require.NoError(t, err)

	v1, err := l.LookupByID(context.Background(), ob.ID)
	require.NoError(t, err)

	// First commit from v1 wins.
	settled, settleErr := v1.Settle(v1.FaceAmount)
	require.Nil(t, settleErr)
	_, err = l.Commit(context.Background(), *v1, settled, ledger.CommandExtinguish, nil)
	require.NoError(t, err)

	// Second commit from the same superseded input must lose.
	_, err = l.Commit(context.Background(), *v1, settled, ledger.CommandExtinguish, nil)
	assert.True(t, ledger.IsStaleInputError(err))
}

func TestCommitUnknownObligation(t *testing.T) {
	l := New()
	ob := newObligation()

	_, err := l.Commit(context.Background(), ob, ob, ledger.CommandExtinguish, nil)
	assert.True(t, ledger.IsNotFoundError(err))
}

func TestLookupUnknownObligation(t *testing.T) {
	l := New()

	_, err := l.LookupByID(context.Background(), newObligation().ID)
	assert.True(t, ledger.IsNotFoundError(err))
}

func TestCommitsRecordsHistory(t *testing.T) {
	l := New()
	ob := newObligation()
	_, err := l.Commit(
		context.Background(), ob, ob, ledger.CommandCreate,
		[]types.Party{ob.Obligor, ob.Obligee},
	)
	require.NoError(t, err)

	commits := l.Commits()
	require.Len(t, commits, 1)
	assert.Equal(t, ledger.CommandCreate, commits[0].Command)
	assert.Equal(t, ob.ID, commits[0].ObligationID)
	assert.Equal(t, uint64(1), commits[0].Version)
	assert.Len(t, commits[0].Signers, 2)
}
