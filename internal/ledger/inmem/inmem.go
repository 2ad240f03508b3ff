// Package inmem provides an in-memory ledger commit collaborator. It backs
// unit tests and local single-node runs; production deployments use the
// MongoDB implementation in internal/db.
package inmem

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/settlenet/settlement-api-service/internal/ledger"
	"github.com/settlenet/settlement-api-service/internal/obligation"
	"github.com/settlenet/settlement-api-service/internal/types"
)

type Ledger struct {
	mu      sync.Mutex
	latest  map[uuid.UUID]obligation.Obligation
	commits []Commit
}

// Commit records a witnessed transition, mirroring what the Mongo
// implementation persists in its commits collection.
type Commit struct {
	Ref          ledger.CommitRef
	ObligationID uuid.UUID
	Version      uint64
	Command      ledger.Command
	Signers      []types.Party
}

func New() *Ledger {
	return &Ledger{latest: make(map[uuid.UUID]obligation.Obligation)}
}

func (l *Ledger) LookupByID(_ context.Context, id uuid.UUID) (*obligation.Obligation, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ob, ok := l.latest[id]
	if !ok {
		return nil, &ledger.NotFoundError{Key: id.String(), Message: "obligation not found"}
	}
	return &ob, nil
}

func (l *Ledger) Commit(
	_ context.Context,
	input, output obligation.Obligation,
	command ledger.Command,
	signers []types.Party,
) (ledger.CommitRef, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if command == ledger.CommandCreate {
		if _, exists := l.latest[output.ID]; exists {
			return "", &ledger.StaleInputError{
				Key:     output.ID.String(),
				Message: "obligation already exists",
			}
		}
		output.Version = 1
	} else {
		current, ok := l.latest[input.ID]
		if !ok {
			return "", &ledger.NotFoundError{Key: input.ID.String(), Message: "obligation not found"}
		}
		if current.Version != input.Version {
			return "", &ledger.StaleInputError{
				Key:     input.ID.String(),
				Message: "input version has been superseded",
			}
		}
		output.Version = input.Version + 1
	}

	ref := ledger.CommitRef(uuid.NewString())
	l.latest[output.ID] = output
	l.commits = append(l.commits, Commit{
		Ref:          ref,
		ObligationID: output.ID,
		Version:      output.Version,
		Command:      command,
		Signers:      signers,
	})
	return ref, nil
}

// Commits returns the commit history, oldest first.
func (l *Ledger) Commits() []Commit {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Commit, len(l.commits))
	copy(out, l.commits)
	return out
}
