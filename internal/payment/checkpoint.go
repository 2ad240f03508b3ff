package payment

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/settlenet/settlement-api-service/internal/rail"
)

// Stage names a durable checkpoint of the submission protocol. The protocol
// re-enters at the last persisted stage after a crash.
type Stage string

const (
	// StageTokenAcquired is persisted after the rail ordering token is
	// acquired and before anything is submitted. A restart from here must
	// reuse the recorded token, never acquire a fresh one.
	StageTokenAcquired Stage = "token_acquired"
	// StageSubmitted is persisted once the rail acknowledged the payment,
	// recording its reference, and before the ledger commit.
	StageSubmitted Stage = "submitted"
)

// Checkpoint is the durable crash-recovery anchor for one obligation's
// payment attempt.
type Checkpoint struct {
	ObligationID     uuid.UUID
	Stage            Stage
	Account          string
	Token            rail.Token
	PaymentReference string
}

// CheckpointStore persists submission checkpoints. Get returns (nil, nil)
// when no checkpoint exists for the obligation.
type CheckpointStore interface {
	Get(ctx context.Context, obligationID uuid.UUID) (*Checkpoint, error)
	SaveTokenAcquired(ctx context.Context, obligationID uuid.UUID, account string, token rail.Token) error
	SaveSubmitted(ctx context.Context, obligationID uuid.UUID, reference string) error
	Delete(ctx context.Context, obligationID uuid.UUID) error
}

// InMemCheckpointStore is a CheckpointStore for tests and local runs.
type InMemCheckpointStore struct {
	mu          sync.Mutex
	checkpoints map[uuid.UUID]Checkpoint
}

func NewInMemCheckpointStore() *InMemCheckpointStore {
	return &InMemCheckpointStore{checkpoints: make(map[uuid.UUID]Checkpoint)}
}

func (s *InMemCheckpointStore) Get(_ context.Context, obligationID uuid.UUID) (*Checkpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp, ok := s.checkpoints[obligationID]
	if !ok {
		return nil, nil
	}
	return &cp, nil
}

func (s *InMemCheckpointStore) SaveTokenAcquired(
	_ context.Context, obligationID uuid.UUID, account string, token rail.Token,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkpoints[obligationID] = Checkpoint{
		ObligationID: obligationID,
		Stage:        StageTokenAcquired,
		Account:      account,
		Token:        token,
	}
	return nil
}

func (s *InMemCheckpointStore) SaveSubmitted(
	_ context.Context, obligationID uuid.UUID, reference string,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := s.checkpoints[obligationID]
	cp.ObligationID = obligationID
	cp.Stage = StageSubmitted
	cp.PaymentReference = reference
	s.checkpoints[obligationID] = cp
	return nil
}

func (s *InMemCheckpointStore) Delete(_ context.Context, obligationID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.checkpoints, obligationID)
	return nil
}
