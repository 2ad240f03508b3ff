package db

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/settlenet/settlement-api-service/internal/db/model"
	"github.com/settlenet/settlement-api-service/internal/ledger"
	"github.com/settlenet/settlement-api-service/internal/obligation"
	"github.com/settlenet/settlement-api-service/internal/types"
)

// LookupByID returns the latest committed state of an obligation.
// It returns a ledger.NotFoundError if no obligation exists for the ID.
func (db *Database) LookupByID(ctx context.Context, id uuid.UUID) (*obligation.Obligation, error) {
	client := db.Client.Database(db.DbName).Collection(model.ObligationCollection)
	filter := bson.M{"_id": id.String()}
	var document model.ObligationDocument
	err := client.FindOne(ctx, filter).Decode(&document)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &ledger.NotFoundError{
				Key:     id.String(),
				Message: "Obligation not found",
			}
		}
		return nil, err
	}
	ob, err := document.ToObligation()
	if err != nil {
		return nil, err
	}
	return &ob, nil
}

// Commit atomically replaces the obligation's latest state and appends a
// commit record, in a single multi-document transaction. The filter on the
// input version is the compare-and-swap: a superseded input matches nothing
// and the commit fails with ledger.StaleInputError, never a lost update.
func (db *Database) Commit(
	ctx context.Context,
	input, output obligation.Obligation,
	command ledger.Command,
	signers []types.Party,
) (ledger.CommitRef, error) {
	session, err := db.Client.StartSession()
	if err != nil {
		return "", err
	}
	defer session.EndSession(ctx)

	ref := ledger.CommitRef(uuid.NewString())

	transactionWork := func(sessCtx mongo.SessionContext) (interface{}, error) {
		obligationClient := db.Client.Database(db.DbName).Collection(model.ObligationCollection)

		if command == ledger.CommandCreate {
			output.Version = 1
			if _, err := obligationClient.InsertOne(sessCtx, model.ToObligationDocument(output)); err != nil {
				var writeErr mongo.WriteException
				if errors.As(err, &writeErr) {
					for _, e := range writeErr.WriteErrors {
						if mongo.IsDuplicateKeyError(e) {
							return nil, &ledger.StaleInputError{
								Key:     output.ID.String(),
								Message: "Obligation already exists",
							}
						}
					}
				}
				return nil, err
			}
		} else {
			output.Version = input.Version + 1
			filter := bson.M{"_id": input.ID.String(), "version": input.Version}
			result, err := obligationClient.ReplaceOne(sessCtx, filter, model.ToObligationDocument(output))
			if err != nil {
				return nil, err
			}
			if result.MatchedCount == 0 {
				// Distinguish a missing obligation from a superseded input.
				count, err := obligationClient.CountDocuments(sessCtx, bson.M{"_id": input.ID.String()})
				if err != nil {
					return nil, err
				}
				if count == 0 {
					return nil, &ledger.NotFoundError{
						Key:     input.ID.String(),
						Message: "Obligation not found",
					}
				}
				return nil, &ledger.StaleInputError{
					Key:     input.ID.String(),
					Message: "Obligation input version has been superseded",
				}
			}
		}

		commitClient := db.Client.Database(db.DbName).Collection(model.CommitCollection)
		if _, err := commitClient.InsertOne(sessCtx, &model.CommitDocument{
			Ref:          string(ref),
			ObligationID: output.ID.String(),
			Version:      output.Version,
			Command:      string(command),
			Signers:      signers,
			CommittedAt:  time.Now().UTC(),
		}); err != nil {
			return nil, err
		}

		return nil, nil
	}

	if _, err := session.WithTransaction(ctx, transactionWork); err != nil {
		// A write conflict means a concurrent commit for the same obligation
		// won the transaction; an aborted transaction means the store could
		// not witness the transition at all.
		if IsWriteConflictError(err) {
			return "", &ledger.NotaryRejectedError{
				Message: "commit lost a write conflict against a concurrent commit",
			}
		}
		if IsTransactionAbortedError(err) {
			return "", &ledger.NoAvailableNotaryError{
				Message: "commit transaction aborted before the transition was witnessed",
			}
		}
		return "", err
	}
	return ref, nil
}

// FindCommitsByObligationID returns the commit history of an obligation,
// oldest first.
func (db *Database) FindCommitsByObligationID(
	ctx context.Context, id uuid.UUID,
) ([]model.CommitDocument, error) {
	client := db.Client.Database(db.DbName).Collection(model.CommitCollection)
	filter := bson.M{"obligation_id": id.String()}
	options := options.Find().SetSort(bson.M{"version": 1})

	cursor, err := client.Find(ctx, filter, options)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var commits []model.CommitDocument
	if err = cursor.All(ctx, &commits); err != nil {
		return nil, err
	}

	return commits, nil
}
