package httpx

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/interpay/interpay-api/internal/service"
)

// APIPrefix is the mount point of the payment API.
const APIPrefix = "/api/interledger"

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Settlement *service.SettlementService
	Jobs       *service.JobService
	Payments   *service.PaymentsService // Optional: step-by-step routes are omitted when nil
	Logger     *slog.Logger             // Optional
}

// NewRouter creates the HTTP router with logging and panic recovery applied.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(Recover(logger))
	r.Use(Logging(logger))

	r.Get("/healthz", healthHandler)
	r.Head("/healthz", healthHandler)

	r.Route(APIPrefix, func(r chi.Router) {
		registerSettlementRoutes(r, &SettlementHandlers{Svc: services.Settlement}, &JobHandlers{Svc: services.Jobs})
		if services.Payments != nil {
			registerPaymentRoutes(r, &PaymentHandlers{Svc: services.Payments})
		}
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "not_found", Err: errNotFound})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, ErrorParams{Code: http.StatusMethodNotAllowed, ErrCode: "method_not_allowed", Err: errMethodNotAllowed})
	})
	return r
}

func registerSettlementRoutes(r chi.Router, run *SettlementHandlers, jobs *JobHandlers) {
	r.Post("/run-service", run.RunService)
	r.Get("/run-service/{jobId}", jobs.GetJob)
}

func registerPaymentRoutes(r chi.Router, h *PaymentHandlers) {
	r.Get("/wallets", h.Wallets)

	r.Route("/grants", func(r chi.Router) {
		r.Post("/incoming", h.RequestIncomingGrant)
		r.Post("/quote", h.RequestQuoteGrant)
		r.Post("/outgoing", h.RequestOutgoingGrant)
		r.Get("/{id}", h.GetGrant)
		r.Post("/{id}/continue", h.ContinueGrant)
	})

	r.Post("/incoming-payments", h.CreateIncomingPayment)
	r.Get("/incoming-payments", h.ListIncomingPayments)
	r.Post("/quotes", h.CreateQuote)
	r.Post("/outgoing-payments", h.CreateOutgoingPayment)
	r.Get("/outgoing-payments", h.ListOutgoingPayments)
}
