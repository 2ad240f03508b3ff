package queue

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/settlenet/settlement-api-service/internal/config"
	"github.com/settlenet/settlement-api-service/internal/queue/client"
	"github.com/settlenet/settlement-api-service/internal/queue/handlers"
	"github.com/settlenet/settlement-api-service/internal/services"
	"github.com/settlenet/settlement-api-service/internal/types"
)

type MessageHandler func(ctx context.Context, messageBody string) *types.Error

type Queues struct {
	SettlementEventsQueueClient client.QueueClient
	VerifyRequestQueueClient    client.QueueClient
	Handlers                    *handlers.QueueHandler
	processingTimeout           time.Duration
}

func New(cfg config.QueueConfig, service *services.Services) *Queues {
	settlementEventsQueueClient, err := client.NewQueueClient(
		cfg.Url, cfg.QueueUser, cfg.QueuePassword, client.SettlementEventsQueueName,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("error while creating SettlementEventsQueueClient")
	}
	verifyRequestQueueClient, err := client.NewQueueClient(
		cfg.Url, cfg.QueueUser, cfg.QueuePassword, client.VerifyRequestQueueName,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("error while creating VerifyRequestQueueClient")
	}

	service.SetEventsQueueClient(settlementEventsQueueClient)

	handlers := handlers.NewQueueHandler(service)
	return &Queues{
		SettlementEventsQueueClient: settlementEventsQueueClient,
		VerifyRequestQueueClient:    verifyRequestQueueClient,
		Handlers:                    handlers,
		processingTimeout:           time.Duration(cfg.QueueProcessingTimeout) * time.Second,
	}
}

// Start all message processing
func (q *Queues) StartReceivingMessages() {
	// start processing verification requests from the verify request queue
	startQueueMessageProcessing(
		q.VerifyRequestQueueClient, q.Handlers.VerifyRequestHandler,
		q.Handlers.Services, log.Logger, q.processingTimeout,
	)
}

// Turn off all message processing
func (q *Queues) StopReceivingMessages() {
	if err := q.VerifyRequestQueueClient.Stop(); err != nil {
		log.Error().Err(err).Msg("error while stopping VerifyRequestQueueClient")
	}
	if err := q.SettlementEventsQueueClient.Stop(); err != nil {
		log.Error().Err(err).Msg("error while stopping SettlementEventsQueueClient")
	}
}

// IsConnectionHealthy pings the broker connections behind each queue client.
func (q *Queues) IsConnectionHealthy() error {
	if err := q.SettlementEventsQueueClient.Ping(); err != nil {
		return err
	}
	return q.VerifyRequestQueueClient.Ping()
}

func startQueueMessageProcessing(
	queueClient client.QueueClient, handler MessageHandler, service *services.Services,
	logger zerolog.Logger, timeout time.Duration,
) {
	messagesChan, err := queueClient.ReceiveMessages()
	if err != nil {
		logger.Fatal().Err(err).Str("queueName", queueClient.GetQueueName()).Msg("error setting up message channel from queue")
	}

	go func() {
		for message := range messagesChan {
			// For each message, create a new context with a deadline or timeout
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			handlerErr := handler(ctx, message.Body)
			if handlerErr != nil {
				if handlerErr.StatusCode == http.StatusBadRequest {
					// A malformed message will never process; park it for replay
					// instead of redelivering forever.
					if saveErr := service.SaveUnprocessableMessages(ctx, message.Body, message.Receipt); saveErr != nil {
						logger.Error().Err(saveErr).Str("queueName", queueClient.GetQueueName()).
							Msg("error while saving unprocessable message")
						cancel()
						continue
					}
				} else {
					logger.Error().Err(handlerErr).Str("queueName", queueClient.GetQueueName()).
						Msg("error while processing message from queue")
					cancel()
					continue
				}
			}

			delErr := queueClient.DeleteMessage(message.Receipt)
			if delErr != nil {
				logger.Error().Err(delErr).Str("queueName", queueClient.GetQueueName()).Msg("error while deleting message from queue")
			}
			cancel()
		}
	}()
}
