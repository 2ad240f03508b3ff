package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/settlenet/settlement-api-service/internal/config"
	"github.com/settlenet/settlement-api-service/internal/db/model"
	"github.com/settlenet/settlement-api-service/internal/ledger"
	"github.com/settlenet/settlement-api-service/internal/ledger/inmem"
	"github.com/settlenet/settlement-api-service/internal/oracle"
	"github.com/settlenet/settlement-api-service/internal/payment"
	queueClient "github.com/settlenet/settlement-api-service/internal/queue/client"
	"github.com/settlenet/settlement-api-service/internal/rail"
	"github.com/settlenet/settlement-api-service/internal/settlement"
	"github.com/settlenet/settlement-api-service/internal/types"
)

// fakeDB backs the service layer with the in-memory ledger and checkpoint
// store, mirroring the shape of the Mongo client.
type fakeDB struct {
	*inmem.Ledger
	checkpoints *payment.InMemCheckpointStore

	mu     sync.Mutex
	parked map[string]string
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		Ledger:      inmem.New(),
		checkpoints: payment.NewInMemCheckpointStore(),
		parked:      make(map[string]string),
	}
}

func (f *fakeDB) Ping(_ context.Context) error { return nil }

func (f *fakeDB) FindCommitsByObligationID(_ context.Context, id uuid.UUID) ([]model.CommitDocument, error) {
	var docs []model.CommitDocument
	for _, c := range f.Commits() {
		if c.ObligationID == id {
			docs = append(docs, model.CommitDocument{
				Ref:          string(c.Ref),
				ObligationID: c.ObligationID.String(),
				Version:      c.Version,
				Command:      string(c.Command),
				Signers:      c.Signers,
			})
		}
	}
	return docs, nil
}

func (f *fakeDB) GetCheckpoint(ctx context.Context, obligationID uuid.UUID) (*payment.Checkpoint, error) {
	return f.checkpoints.Get(ctx, obligationID)
}

func (f *fakeDB) SaveTokenAcquired(
	ctx context.Context, obligationID uuid.UUID, account string, token rail.Token,
) error {
	return f.checkpoints.SaveTokenAcquired(ctx, obligationID, account, token)
}

func (f *fakeDB) SaveSubmitted(ctx context.Context, obligationID uuid.UUID, reference string) error {
	return f.checkpoints.SaveSubmitted(ctx, obligationID, reference)
}

func (f *fakeDB) DeleteCheckpoint(ctx context.Context, obligationID uuid.UUID) error {
	return f.checkpoints.Delete(ctx, obligationID)
}

func (f *fakeDB) SaveUnprocessableMessage(_ context.Context, messageBody, receipt string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.parked[receipt] = messageBody
	return nil
}

func (f *fakeDB) FindUnprocessableMessages(_ context.Context) ([]model.UnprocessableMessageDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var docs []model.UnprocessableMessageDocument
	for receipt, body := range f.parked {
		docs = append(docs, model.UnprocessableMessageDocument{MessageBody: body, Receipt: receipt})
	}
	return docs, nil
}

func (f *fakeDB) DeleteUnprocessableMessage(_ context.Context, receipt interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.parked, receipt.(string))
	return nil
}

type fakeRailClient struct {
	nextToken rail.Token
	balance   int64
	submitRef string
	status    rail.PaymentState
}

func (c *fakeRailClient) Kind() settlement.RailKind { return settlement.RailXRPL }

func (c *fakeRailClient) NextOrderingToken(_ context.Context, _ string) (rail.Token, error) {
	return c.nextToken, nil
}

func (c *fakeRailClient) AccountBalance(_ context.Context, _ string) (int64, error) {
	return c.balance, nil
}

func (c *fakeRailClient) Submit(_ context.Context, _ rail.Payment) (*rail.Ack, error) {
	return &rail.Ack{Reference: c.submitRef}, nil
}

func (c *fakeRailClient) PaymentStatus(_ context.Context, _ string) (rail.PaymentState, error) {
	return c.status, nil
}

func (c *fakeRailClient) FindPaymentByToken(_ context.Context, _ string, token rail.Token) (string, error) {
	return "", &rail.PaymentNotFoundError{
		Message: fmt.Sprintf("no payment found for token %d", token),
	}
}

// capturingQueueClient records every published message body.
type capturingQueueClient struct {
	messages []string
}

func (c *capturingQueueClient) SendMessage(messageBody string) error {
	c.messages = append(c.messages, messageBody)
	return nil
}

func (c *capturingQueueClient) ReceiveMessages() (<-chan queueClient.QueueMessage, error) {
	return nil, nil
}

func (c *capturingQueueClient) DeleteMessage(_ string) error { return nil }
func (c *capturingQueueClient) Stop() error                  { return nil }
func (c *capturingQueueClient) Ping() error                  { return nil }
func (c *capturingQueueClient) GetQueueName() string         { return queueClient.SettlementEventsQueueName }

type servicesFixture struct {
	db         *fakeDB
	railClient *fakeRailClient
	events     *capturingQueueClient
	services   *Services
}

var (
	alice       = types.WellKnownParty("AliceCorp")
	bob         = types.WellKnownParty("BobBank")
	oracleParty = types.WellKnownParty("SettlerOracle")
)

func newServicesFixture(t *testing.T) *servicesFixture {
	t.Helper()

	fdb := newFakeDB()
	railClient := &fakeRailClient{
		nextToken: 7,
		balance:   1_000_000,
		submitRef: "TXHASH1",
		status:    rail.PaymentConfirmed,
	}

	registry := payment.NewRegistry()
	registry.Register(settlement.RailXRPL, func() payment.Submitter {
		return payment.NewProtocol(railClient, fdb.checkpoints, fdb.Ledger, "rSourceAccount", 10)
	})

	verifier := oracle.NewVerifier(railClient, fdb.Ledger, oracleParty, time.Millisecond)

	events := &capturingQueueClient{}
	svc := &Services{
		DbClient: fdb,
		Registry: registry,
		Verifier: verifier,
		resolver: partyResolver(config.IdentityConfig{
			Parties: map[string]string{
				"key-alice": "AliceCorp",
				"key-bob":   "BobBank",
				"key-carol": "CarolTrust",
			},
		}),
	}
	svc.SetEventsQueueClient(events)

	return &servicesFixture{db: fdb, railClient: railClient, events: events, services: svc}
}

func (f *servicesFixture) createObligation(t *testing.T) uuid.UUID {
	t.Helper()
	ob, err := f.services.CreateObligation(
		context.Background(), types.NewAmount("XRP", 1000), alice, bob, alice,
	)
	require.Nil(t, err)
	return uuid.MustParse(ob.ID)
}

func (f *servicesFixture) addInstructions(t *testing.T, id uuid.UUID) {
	t.Helper()
	method := settlement.OffLedger(settlement.RailXRPL, "rDestinationAccount", oracleParty)
	_, err := f.services.AddSettlementInstructions(context.Background(), id, bob, method)
	require.Nil(t, err)
}

func TestCreateObligation(t *testing.T) {
	f := newServicesFixture(t)

	ob, err := f.services.CreateObligation(
		context.Background(), types.NewAmount("XRP", 1000), alice, bob, alice,
	)
	require.Nil(t, err)
	assert.Equal(t, uint64(1), ob.Version)
	assert.Equal(t, types.Unsettled.ToString(), ob.Status)
	assert.Equal(t, int64(0), ob.Paid.Quantity)
	assert.Nil(t, ob.SettlementMethod)

	commits := f.db.Commits()
	require.Len(t, commits, 1)
	assert.Equal(t, ledger.CommandCreate, commits[0].Command)
	assert.Len(t, commits[0].Signers, 2)
}

func TestCreateObligationResolvesAnonymousActor(t *testing.T) {
	f := newServicesFixture(t)

	// The actor and the obligor are the same participant under different
	// representations; the identity map ties them together.
	ob, err := f.services.CreateObligation(
		context.Background(), types.NewAmount("XRP", 1000),
		types.AnonymousParty("key-alice"), bob, types.AnonymousParty("key-alice"),
	)
	require.Nil(t, err)
	assert.Equal(t, "key-alice", ob.Obligor.Key)
}

func TestCreateObligationValidation(t *testing.T) {
	f := newServicesFixture(t)

	_, err := f.services.CreateObligation(
		context.Background(), types.NewAmount("XRP", 0), alice, bob, alice,
	)
	require.NotNil(t, err)
	assert.Equal(t, types.ValidationError, err.ErrorCode)

	_, err = f.services.CreateObligation(
		context.Background(), types.NewAmount("", 1000), alice, bob, alice,
	)
	require.NotNil(t, err)
	assert.Equal(t, types.ValidationError, err.ErrorCode)

	_, err = f.services.CreateObligation(
		context.Background(), types.NewAmount("XRP", 1000), alice, alice, alice,
	)
	require.NotNil(t, err)
	assert.Equal(t, types.ValidationError, err.ErrorCode)
}

func TestCreateObligationUnknownActor(t *testing.T) {
	f := newServicesFixture(t)

	_, err := f.services.CreateObligation(
		context.Background(), types.NewAmount("XRP", 1000),
		alice, bob, types.AnonymousParty("key-mallory"),
	)
	require.NotNil(t, err)
	assert.Equal(t, types.UnauthorizedActor, err.ErrorCode)
	assert.Equal(t, http.StatusForbidden, err.StatusCode)
}

func TestCreateObligationNonParticipantActor(t *testing.T) {
	f := newServicesFixture(t)

	_, err := f.services.CreateObligation(
		context.Background(), types.NewAmount("XRP", 1000),
		alice, bob, types.AnonymousParty("key-carol"),
	)
	require.NotNil(t, err)
	assert.Equal(t, types.UnauthorizedActor, err.ErrorCode)
}

func TestGetObligationNotFound(t *testing.T) {
	f := newServicesFixture(t)

	_, err := f.services.GetObligation(context.Background(), uuid.New())
	require.NotNil(t, err)
	assert.Equal(t, types.NotFound, err.ErrorCode)
	assert.Equal(t, http.StatusNotFound, err.StatusCode)
}

func TestGetObligationCommits(t *testing.T) {
	f := newServicesFixture(t)
	id := f.createObligation(t)
	f.addInstructions(t, id)

	commits, err := f.services.GetObligationCommits(context.Background(), id)
	require.Nil(t, err)
	require.Len(t, commits, 2)
	assert.Equal(t, string(ledger.CommandCreate), commits[0].Command)
	assert.Equal(t, uint64(1), commits[0].Version)
	assert.Equal(t, string(ledger.CommandAddSettlementTerms), commits[1].Command)
	require.Len(t, commits[1].Signers, 1)
	assert.Equal(t, "BobBank", commits[1].Signers[0].Name)
}

func TestGetObligationCommitsNotFound(t *testing.T) {
	f := newServicesFixture(t)

	_, err := f.services.GetObligationCommits(context.Background(), uuid.New())
	require.NotNil(t, err)
	assert.Equal(t, types.NotFound, err.ErrorCode)
}

func TestAddSettlementInstructions(t *testing.T) {
	f := newServicesFixture(t)
	id := f.createObligation(t)

	method := settlement.OffLedger(settlement.RailXRPL, "rDestinationAccount", oracleParty)
	ob, err := f.services.AddSettlementInstructions(context.Background(), id, bob, method)
	require.Nil(t, err)
	require.NotNil(t, ob.SettlementMethod)
	assert.Equal(t, settlement.RailXRPL, ob.SettlementMethod.Rail)
	assert.Equal(t, types.PaymentNotSent, ob.SettlementMethod.PaymentStatus)
	assert.Equal(t, uint64(2), ob.Version)

	commits := f.db.Commits()
	require.Len(t, commits, 2)
	assert.Equal(t, ledger.CommandAddSettlementTerms, commits[1].Command)
	require.Len(t, commits[1].Signers, 1)
	assert.Equal(t, "BobBank", commits[1].Signers[0].Name)
}

func TestAddSettlementInstructionsByObligorDenied(t *testing.T) {
	f := newServicesFixture(t)
	id := f.createObligation(t)

	method := settlement.OffLedger(settlement.RailXRPL, "rDestinationAccount", oracleParty)
	_, err := f.services.AddSettlementInstructions(context.Background(), id, alice, method)
	require.NotNil(t, err)
	assert.Equal(t, types.UnauthorizedActor, err.ErrorCode)
	assert.Equal(t, http.StatusForbidden, err.StatusCode)
}

func TestAddSettlementInstructionsInvalidMethod(t *testing.T) {
	f := newServicesFixture(t)
	id := f.createObligation(t)

	missingAccount := settlement.OffLedger(settlement.RailXRPL, "", oracleParty)
	_, err := f.services.AddSettlementInstructions(context.Background(), id, bob, missingAccount)
	require.NotNil(t, err)
	assert.Equal(t, types.ValidationError, err.ErrorCode)
}

func TestAddSettlementInstructionsReplacesMethod(t *testing.T) {
	f := newServicesFixture(t)
	id := f.createObligation(t)
	f.addInstructions(t, id)

	replacement := settlement.OffLedger(settlement.RailXRPL, "rAnotherAccount", oracleParty)
	ob, err := f.services.AddSettlementInstructions(context.Background(), id, bob, replacement)
	require.Nil(t, err)
	assert.Equal(t, "rAnotherAccount", ob.SettlementMethod.AccountToPay)

	commits := f.db.Commits()
	require.Len(t, commits, 3)
	assert.Equal(t, ledger.CommandUpdateSettlementMethod, commits[2].Command)
}

func TestAddSettlementInstructionsWhileInFlight(t *testing.T) {
	f := newServicesFixture(t)
	id := f.createObligation(t)
	f.addInstructions(t, id)

	_, submitErr := f.services.SubmitPayment(context.Background(), id, bob)
	require.Nil(t, submitErr)

	replacement := settlement.OffLedger(settlement.RailXRPL, "rAnotherAccount", oracleParty)
	_, err := f.services.AddSettlementInstructions(context.Background(), id, bob, replacement)
	require.NotNil(t, err)
	assert.Equal(t, types.DuplicatePaymentAttempt, err.ErrorCode)
	assert.Equal(t, http.StatusConflict, err.StatusCode)
}

func TestSubmitPayment(t *testing.T) {
	f := newServicesFixture(t)
	id := f.createObligation(t)
	f.addInstructions(t, id)

	reference, err := f.services.SubmitPayment(context.Background(), id, bob)
	require.Nil(t, err)
	assert.Equal(t, "TXHASH1", reference)

	latest, lookupErr := f.services.GetObligation(context.Background(), id)
	require.Nil(t, lookupErr)
	assert.Equal(t, types.PaymentSent, latest.SettlementMethod.PaymentStatus)
	assert.Equal(t, "TXHASH1", latest.SettlementMethod.PaymentReference)

	require.Len(t, f.events.messages, 1)
	var event queueClient.PaymentSubmittedEvent
	require.NoError(t, json.Unmarshal([]byte(f.events.messages[0]), &event))
	assert.Equal(t, queueClient.PaymentSubmittedEventType, event.EventType)
	assert.Equal(t, id.String(), event.ObligationID)
	assert.Equal(t, "TXHASH1", event.PaymentReference)
}

func TestSubmitPaymentByNonObligeeDenied(t *testing.T) {
	f := newServicesFixture(t)
	id := f.createObligation(t)
	f.addInstructions(t, id)

	// Neither the obligor nor a third party may initiate the payment.
	for _, actor := range []types.Party{alice, types.AnonymousParty("key-carol")} {
		_, err := f.services.SubmitPayment(context.Background(), id, actor)
		require.NotNil(t, err, "actor %+v must be denied", actor)
		assert.Equal(t, types.UnauthorizedActor, err.ErrorCode)
		assert.Equal(t, http.StatusForbidden, err.StatusCode)
	}
	assert.Empty(t, f.events.messages)

	reference, err := f.services.SubmitPayment(context.Background(), id, bob)
	require.Nil(t, err)
	assert.Equal(t, "TXHASH1", reference)
}

func TestSubmitPaymentWithoutMethod(t *testing.T) {
	f := newServicesFixture(t)
	id := f.createObligation(t)

	_, err := f.services.SubmitPayment(context.Background(), id, bob)
	require.NotNil(t, err)
	assert.Equal(t, types.NoSettlementMethod, err.ErrorCode)
}

func TestSubmitPaymentUnsupportedRail(t *testing.T) {
	f := newServicesFixture(t)
	id := f.createObligation(t)

	method := settlement.OffLedger(settlement.RailKind("lightning"), "destination", oracleParty)
	_, addErr := f.services.AddSettlementInstructions(context.Background(), id, bob, method)
	require.Nil(t, addErr)

	_, err := f.services.SubmitPayment(context.Background(), id, bob)
	require.NotNil(t, err)
	assert.Equal(t, types.UnsupportedRail, err.ErrorCode)
}

func TestVerifySettlementPublishesConfirmation(t *testing.T) {
	f := newServicesFixture(t)
	id := f.createObligation(t)
	f.addInstructions(t, id)
	_, submitErr := f.services.SubmitPayment(context.Background(), id, bob)
	require.Nil(t, submitErr)
	f.events.messages = nil

	result, err := f.services.VerifySettlement(context.Background(), id, time.Now().Add(time.Minute))
	require.Nil(t, err)
	assert.Equal(t, types.VerifySuccess, result.Outcome)

	latest, lookupErr := f.services.GetObligation(context.Background(), id)
	require.Nil(t, lookupErr)
	assert.Equal(t, types.Settled.ToString(), latest.Status)

	require.Len(t, f.events.messages, 1)
	var event queueClient.SettlementConfirmedEvent
	require.NoError(t, json.Unmarshal([]byte(f.events.messages[0]), &event))
	assert.Equal(t, queueClient.SettlementConfirmedEventType, event.EventType)
	assert.Equal(t, id.String(), event.ObligationID)
	assert.Equal(t, string(result.CommitRef), event.CommitRef)
}

func TestVerifySettlementPublishesTimeout(t *testing.T) {
	f := newServicesFixture(t)
	id := f.createObligation(t)
	f.addInstructions(t, id)
	_, submitErr := f.services.SubmitPayment(context.Background(), id, bob)
	require.Nil(t, submitErr)
	f.railClient.status = rail.PaymentPending
	f.events.messages = nil

	result, err := f.services.VerifySettlement(context.Background(), id, time.Now().Add(-time.Second))
	require.Nil(t, err)
	assert.Equal(t, types.VerifyTimeout, result.Outcome)

	require.Len(t, f.events.messages, 1)
	var event queueClient.SettlementTimeoutEvent
	require.NoError(t, json.Unmarshal([]byte(f.events.messages[0]), &event))
	assert.Equal(t, queueClient.SettlementTimeoutEventType, event.EventType)
	assert.NotEmpty(t, event.Reason)
}

func TestPublishEventSkippedWhenUnwired(t *testing.T) {
	f := newServicesFixture(t)
	f.services.EventsQueueClient = nil
	id := f.createObligation(t)
	f.addInstructions(t, id)

	reference, err := f.services.SubmitPayment(context.Background(), id, bob)
	require.Nil(t, err)
	assert.Equal(t, "TXHASH1", reference)
}

func TestSaveUnprocessableMessages(t *testing.T) {
	f := newServicesFixture(t)

	err := f.services.SaveUnprocessableMessages(context.Background(), `{"bad":"payload"}`, "receipt-1")
	require.Nil(t, err)

	docs, findErr := f.db.FindUnprocessableMessages(context.Background())
	require.NoError(t, findErr)
	require.Len(t, docs, 1)
	assert.Equal(t, `{"bad":"payload"}`, docs[0].MessageBody)
	assert.Equal(t, "receipt-1", docs[0].Receipt)
}
