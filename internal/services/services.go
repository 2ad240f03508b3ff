package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/settlenet/settlement-api-service/internal/clients"
	"github.com/settlenet/settlement-api-service/internal/config"
	"github.com/settlenet/settlement-api-service/internal/db"
	"github.com/settlenet/settlement-api-service/internal/oracle"
	"github.com/settlenet/settlement-api-service/internal/payment"
	queueClient "github.com/settlenet/settlement-api-service/internal/queue/client"
	"github.com/settlenet/settlement-api-service/internal/settlement"
	"github.com/settlenet/settlement-api-service/internal/types"
)

// Service layer contains the business logic and is used to interact with
// the database, the payment rails and the message broker.
type Services struct {
	DbClient          db.DBClient
	Clients           *clients.Clients
	Registry          *payment.Registry
	Verifier          *oracle.Verifier
	EventsQueueClient queueClient.QueueClient
	cfg               *config.Config
	resolver          types.PartyResolver
}

func New(ctx context.Context, cfg *config.Config) (*Services, error) {
	dbClient, err := db.New(ctx, cfg.Db)
	if err != nil {
		log.Ctx(ctx).Fatal().Err(err).Msg("error while creating db client")
		return nil, err
	}

	railClients, err := clients.New(cfg)
	if err != nil {
		log.Ctx(ctx).Fatal().Err(err).Msg("error while creating rail clients")
		return nil, err
	}

	checkpoints := db.NewCheckpointStore(dbClient)
	registry := payment.NewRegistry()
	for kind, railClient := range railClients.Rails {
		railClient := railClient
		registry.Register(kind, func() payment.Submitter {
			return payment.NewProtocol(railClient, checkpoints, dbClient, cfg.Rail.Account, cfg.Rail.Fee)
		})
	}

	configuredRail, ok := railClients.RailByKind(settlement.RailKind(cfg.Rail.Kind))
	if !ok {
		return nil, fmt.Errorf("no rail client configured for kind %s", cfg.Rail.Kind)
	}
	verifier := oracle.NewVerifier(
		configuredRail, dbClient,
		types.WellKnownParty(cfg.Oracle.PartyName),
		time.Duration(cfg.Oracle.PollInterval)*time.Second,
	)

	return &Services{
		DbClient: dbClient,
		Clients:  railClients,
		Registry: registry,
		Verifier: verifier,
		cfg:      cfg,
		resolver: partyResolver(cfg.Identity),
	}, nil
}

// SetEventsQueueClient attaches the settlement events publisher. It is wired
// from the queue package after broker setup; publishing is skipped while unset.
func (s *Services) SetEventsQueueClient(client queueClient.QueueClient) {
	s.EventsQueueClient = client
}

// DoHealthCheck checks the health of the services by ping the database.
func (s *Services) DoHealthCheck(ctx context.Context) error {
	return s.DbClient.Ping(ctx)
}

func (s *Services) SaveUnprocessableMessages(ctx context.Context, messageBody, receipt string) *types.Error {
	err := s.DbClient.SaveUnprocessableMessage(ctx, messageBody, receipt)
	if err != nil {
		if db.IsDuplicateKeyError(err) {
			// A redelivery of a message that was already parked.
			return nil
		}
		log.Ctx(ctx).Error().Err(err).Msg("error while saving unprocessable message")
		return types.NewErrorWithMsg(http.StatusInternalServerError, types.InternalServiceError, "error while saving unprocessable message")
	}
	return nil
}

// partyResolver maps pseudonymous party keys to well-known identities using
// the static identity config.
func partyResolver(cfg config.IdentityConfig) types.PartyResolver {
	return func(p types.Party) (types.Party, error) {
		name, ok := cfg.Parties[p.Key]
		if !ok {
			return types.Party{}, fmt.Errorf("no well-known identity for party key %s", p.Key)
		}
		return types.WellKnownParty(name), nil
	}
}

// resolveActor maps the acting party to its well-known identity so authority
// checks never compare pseudonymous keys.
func (s *Services) resolveActor(actor types.Party) (types.Party, *types.Error) {
	if actor.IsWellKnown() {
		return actor, nil
	}
	resolved, err := s.resolver(actor)
	if err != nil {
		return types.Party{}, types.NewError(http.StatusForbidden, types.UnauthorizedActor, err)
	}
	return resolved, nil
}
