package api

import (
	"github.com/go-chi/chi"
)

func (a *Server) SetupRoutes(r *chi.Mux) {
	handlers := a.handlers
	r.Get("/healthcheck", registerHandler(handlers.HealthCheck))

	r.Post("/v1/obligations", registerHandler(handlers.CreateObligation))
	r.Get("/v1/obligation", registerHandler(handlers.GetObligation))
	r.Get("/v1/obligation/commits", registerHandler(handlers.GetObligationCommits))
	r.Post("/v1/obligation/settlement-instructions", registerHandler(handlers.AddSettlementInstructions))
	r.Post("/v1/obligation/payment", registerHandler(handlers.SubmitPayment))
	r.Post("/v1/obligation/verify", registerHandler(handlers.VerifySettlement))
}
