package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"fitness-checkout/internal/domain/ports/repository"
	"fitness-checkout/internal/usecase"
)

type Server struct {
	checkoutUC  usecase.CheckoutUseCase
	attempts    repository.AttemptRepository
	auth        *AuthManager
	gatewayName string
	log         *zerolog.Logger
}

func NewServer(
	checkoutUC usecase.CheckoutUseCase,
	attempts repository.AttemptRepository,
	auth *AuthManager,
	gatewayName string,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		checkoutUC:  checkoutUC,
		attempts:    attempts,
		auth:        auth,
		gatewayName: gatewayName,
		log:         logger,
	}
}

// Router builds the HTTP surface. The return route is deliberately outside
// the auth group: the browser arrives there from the processor redirect with
// nothing but the opaque session id.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/api/v1/checkout/return", s.handleReturn)

	r.Group(func(r chi.Router) {
		r.Use(s.auth.Middleware)
		r.Post("/api/v1/checkout/start", s.handleStart)
		r.Post("/api/v1/checkout/summary", s.handleSummary)
		r.Get("/api/v1/checkout/{attemptID}", s.handleGet)
		r.Post("/api/v1/checkout/{attemptID}/confirm", s.handleConfirm)
		r.Post("/api/v1/checkout/{attemptID}/retry", s.handleRetry)
		r.Post("/api/v1/checkout/{attemptID}/close", s.handleClose)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"gateway": s.gatewayName,
	})
}
