package db

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/settlenet/settlement-api-service/internal/db/model"
	"github.com/settlenet/settlement-api-service/internal/payment"
	"github.com/settlenet/settlement-api-service/internal/rail"
)

// GetCheckpoint returns the payment checkpoint for an obligation, or
// (nil, nil) when none exists.
func (db *Database) GetCheckpoint(ctx context.Context, obligationID uuid.UUID) (*payment.Checkpoint, error) {
	client := db.Client.Database(db.DbName).Collection(model.CheckpointCollection)
	filter := bson.M{"_id": obligationID.String()}
	var document model.CheckpointDocument
	err := client.FindOne(ctx, filter).Decode(&document)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &payment.Checkpoint{
		ObligationID:     obligationID,
		Stage:            payment.Stage(document.Stage),
		Account:          document.Account,
		Token:            rail.Token(document.Token),
		PaymentReference: document.PaymentReference,
	}, nil
}

// SaveTokenAcquired persists the pre-submission checkpoint. The write is
// acknowledged before the caller proceeds, so a crash after this point always
// resumes with the recorded token.
func (db *Database) SaveTokenAcquired(
	ctx context.Context, obligationID uuid.UUID, account string, token rail.Token,
) error {
	client := db.Client.Database(db.DbName).Collection(model.CheckpointCollection)
	filter := bson.M{"_id": obligationID.String()}
	update := bson.M{"$set": bson.M{
		"stage":   string(payment.StageTokenAcquired),
		"account": account,
		"token":   uint32(token),
	}}
	_, err := client.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

// SaveSubmitted advances the checkpoint to the post-submission stage,
// recording the rail payment reference.
func (db *Database) SaveSubmitted(ctx context.Context, obligationID uuid.UUID, reference string) error {
	client := db.Client.Database(db.DbName).Collection(model.CheckpointCollection)
	filter := bson.M{"_id": obligationID.String()}
	update := bson.M{"$set": bson.M{
		"stage":             string(payment.StageSubmitted),
		"payment_reference": reference,
	}}
	_, err := client.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

// DeleteCheckpoint removes the checkpoint once the submission is fully
// recorded on the ledger. Deleting a missing checkpoint is not an error.
func (db *Database) DeleteCheckpoint(ctx context.Context, obligationID uuid.UUID) error {
	client := db.Client.Database(db.DbName).Collection(model.CheckpointCollection)
	filter := bson.M{"_id": obligationID.String()}
	_, err := client.DeleteOne(ctx, filter)
	return err
}

// CheckpointStore adapts the database to the payment protocol's checkpoint
// port.
type CheckpointStore struct {
	db DBClient
}

func NewCheckpointStore(db DBClient) *CheckpointStore {
	return &CheckpointStore{db: db}
}

func (s *CheckpointStore) Get(ctx context.Context, obligationID uuid.UUID) (*payment.Checkpoint, error) {
	return s.db.GetCheckpoint(ctx, obligationID)
}

func (s *CheckpointStore) SaveTokenAcquired(
	ctx context.Context, obligationID uuid.UUID, account string, token rail.Token,
) error {
	return s.db.SaveTokenAcquired(ctx, obligationID, account, token)
}

func (s *CheckpointStore) SaveSubmitted(ctx context.Context, obligationID uuid.UUID, reference string) error {
	return s.db.SaveSubmitted(ctx, obligationID, reference)
}

func (s *CheckpointStore) Delete(ctx context.Context, obligationID uuid.UUID) error {
	return s.db.DeleteCheckpoint(ctx, obligationID)
}
