package scripts

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/settlenet/settlement-api-service/internal/config"
	"github.com/settlenet/settlement-api-service/internal/db"
	"github.com/settlenet/settlement-api-service/internal/queue"
)

// ReplayUnprocessableMessages pushes parked verification requests back onto
// the verify request queue and removes them from the database.
func ReplayUnprocessableMessages(ctx context.Context, cfg *config.Config, queues *queue.Queues, db db.DBClient) (err error) {
	unprocessableMessages, err := db.FindUnprocessableMessages(ctx)
	if err != nil {
		return errors.New("failed to retrieve unprocessable messages")
	}

	messageCount := len(unprocessableMessages)

	fmt.Printf("There are %d unprocessable messages.\n", messageCount)
	if messageCount == 0 {
		return errors.New("no unprocessable messages to replay")
	}

	for _, msg := range unprocessableMessages {
		if err := queues.VerifyRequestQueueClient.SendMessage(msg.MessageBody); err != nil {
			return errors.New("failed to requeue message")
		}

		if err := db.DeleteUnprocessableMessage(ctx, msg.Receipt); err != nil {
			return errors.New("failed to delete unprocessable message")
		}
	}

	log.Info().Msg("Reprocessing of unprocessable messages completed.")
	return
}
