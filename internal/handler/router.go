package handler

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/segyhp/collection-engine/internal/service"
	"github.com/segyhp/collection-engine/pkg/response"
)

const (
	HeaderActorID   = "X-Actor-ID"
	HeaderActorRole = "X-Actor-Role"
)

// ActorMiddleware attaches the caller named by the actor headers to the
// request context. Requests without them stay anonymous and are rejected
// by role-based authorizers.
func ActorMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderActorID)
		role := strings.ToUpper(strings.TrimSpace(r.Header.Get(HeaderActorRole)))
		if id != "" && role != "" {
			r = r.WithContext(service.WithActor(r.Context(), service.Actor{ID: id, Role: role}))
		}
		next.ServeHTTP(w, r)
	})
}

type Handlers struct {
	Health      *HealthHandler
	Loans       *LoanHandler
	Payments    *PaymentHandler
	Wallets     *WalletHandler
	Routes      *RouteHandler
	Liquidation *LiquidationHandler
}

func NewRouter(h Handlers) *mux.Router {
	router := mux.NewRouter()
	router.Use(response.LoggingMiddleware)

	// Health check
	router.HandleFunc("/health", h.Health.Health).Methods("GET")
	router.HandleFunc("/health/ready", h.Health.Ready).Methods("GET")

	// API routes
	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(ActorMiddleware)

	api.HandleFunc("/loans", h.Loans.CreateLoan).Methods("POST")
	api.HandleFunc("/loans", h.Loans.ListActiveLoans).Methods("GET")
	api.HandleFunc("/loans/{loanId}", h.Loans.GetLoan).Methods("GET")
	api.HandleFunc("/loans/{loanId}/installments", h.Loans.GetInstallments).Methods("GET")
	api.HandleFunc("/loans/{loanId}/outstanding", h.Loans.GetOutstanding).Methods("GET")
	api.HandleFunc("/loans/{loanId}/delinquent", h.Loans.IsDelinquent).Methods("GET")

	api.HandleFunc("/installments/{installmentId}/payments", h.Payments.RecordPayment).Methods("POST")
	api.HandleFunc("/installments/{installmentId}/reset", h.Payments.ResetPayment).Methods("POST")
	api.HandleFunc("/installments/{installmentId}/events", h.Payments.History).Methods("GET")

	api.HandleFunc("/wallets", h.Wallets.CreateWallet).Methods("POST")
	api.HandleFunc("/wallets", h.Wallets.GetWalletByOwner).Methods("GET")
	api.HandleFunc("/wallets/{walletId}", h.Wallets.GetWallet).Methods("GET")
	api.HandleFunc("/wallets/{walletId}/transactions", h.Wallets.ApplyTransaction).Methods("POST")
	api.HandleFunc("/wallets/{walletId}/transactions", h.Wallets.GetTransactions).Methods("GET")
	api.HandleFunc("/wallets/{walletId}/reconciliation", h.Wallets.ReconcileWallet).Methods("GET")
	api.HandleFunc("/transfers", h.Wallets.Transfer).Methods("POST")

	api.HandleFunc("/routes", h.Routes.OpenRoute).Methods("POST")
	api.HandleFunc("/routes", h.Routes.ListRoutes).Methods("GET")
	api.HandleFunc("/routes/{routeId}", h.Routes.GetRoute).Methods("GET")
	api.HandleFunc("/routes/{routeId}/expenses", h.Routes.AddExpense).Methods("POST")
	api.HandleFunc("/routes/{routeId}/expenses/{expenseId}", h.Routes.UpdateExpense).Methods("PUT")
	api.HandleFunc("/routes/{routeId}/expenses/{expenseId}", h.Routes.DeleteExpense).Methods("DELETE")
	api.HandleFunc("/routes/{routeId}/close", h.Routes.CloseRoute).Methods("POST")
	api.HandleFunc("/routes/{routeId}/order", h.Routes.ReorderItems).Methods("PUT")

	api.HandleFunc("/collectors/{collectorId}/collections", h.Liquidation.GetCollectionsSummary).Methods("GET")
	api.HandleFunc("/collectors/{collectorId}/liquidation", h.Liquidation.Liquidate).Methods("POST")

	return router
}
