package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/collection-engine/internal/domain"
	"github.com/segyhp/collection-engine/internal/handler"
	"github.com/segyhp/collection-engine/internal/service"
	customError "github.com/segyhp/collection-engine/pkg/errors"
)

var anyTime = mock.AnythingOfType("time.Time")

type testServer struct {
	loans       *MockLoanService
	payments    *MockPaymentService
	ledger      *MockLedgerService
	routes      *MockRouteService
	liquidation *MockLiquidationService
	router      http.Handler
}

func newTestServer(t *testing.T) *testServer {
	s := &testServer{
		loans:       &MockLoanService{},
		payments:    &MockPaymentService{},
		ledger:      &MockLedgerService{},
		routes:      &MockRouteService{},
		liquidation: &MockLiquidationService{},
	}
	s.router = handler.NewRouter(handler.Handlers{
		Health:      handler.NewHealthHandler(stubPinger{}, nil, 0),
		Loans:       handler.NewLoanHandler(s.loans),
		Payments:    handler.NewPaymentHandler(s.payments),
		Wallets:     handler.NewWalletHandler(s.ledger),
		Routes:      handler.NewRouteHandler(s.routes),
		Liquidation: handler.NewLiquidationHandler(s.liquidation),
	})
	t.Cleanup(func() {
		s.loans.AssertExpectations(t)
		s.payments.AssertExpectations(t)
		s.ledger.AssertExpectations(t)
		s.routes.AssertExpectations(t)
		s.liquidation.AssertExpectations(t)
	})
	return s
}

func (s *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var reader *bytes.Buffer
	if body == "" {
		reader = &bytes.Buffer{}
	} else {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(handler.HeaderActorID, "user-1")
	req.Header.Set(handler.HeaderActorRole, "collector")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestLoanHandler_CreateLoan(t *testing.T) {
	valid := `{"client_id":"client-1","collector_id":"collector-1","principal":"50000","base_interest_rate":"0.20",` +
		`"payment_frequency":"MONTHLY","total_installments":6,"start_date":"2024-01-15"}`

	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockLoanService)
		expectedStatus int
		expectedCode   string
		expectedBody   string
	}{
		{
			name: "successful loan creation",
			body: valid,
			setupMock: func(m *MockLoanService) {
				m.On("CreateLoan", mock.Anything, mock.MatchedBy(func(req *domain.CreateLoanRequest) bool {
					return req.ClientID == "client-1" &&
						req.Principal.Equal(decimal.NewFromInt(50000)) &&
						req.BaseInterestRate.Equal(decimal.RequireFromString("0.2")) &&
						req.StartDate == domain.MustParseDate("2024-01-15") &&
						req.TotalInstallments == 6
				}), anyTime).Return(&domain.CreateLoanResponse{
					Loan: &domain.Loan{ID: "loan-1", Status: domain.LoanStatusActive},
				}, nil).Once()
			},
			expectedStatus: http.StatusCreated,
			expectedBody:   `"loan-1"`,
		},
		{
			name:           "invalid JSON",
			body:           `{"client_id":`,
			setupMock:      func(*MockLoanService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "Invalid request body",
		},
		{
			name:           "validation error - zero principal",
			body:           `{"client_id":"c","collector_id":"k","principal":"0","payment_frequency":"MONTHLY","total_installments":6}`,
			setupMock:      func(*MockLoanService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "Validation failed",
		},
		{
			name:           "validation error - negative rate",
			body:           `{"client_id":"c","collector_id":"k","principal":"10","base_interest_rate":"-0.1","payment_frequency":"MONTHLY","total_installments":6}`,
			setupMock:      func(*MockLoanService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "BaseInterestRate failed decimal_gte",
		},
		{
			name:           "validation error - unknown frequency",
			body:           `{"client_id":"c","collector_id":"k","principal":"10","payment_frequency":"YEARLY","total_installments":6}`,
			setupMock:      func(*MockLoanService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "Validation failed",
		},
		{
			name: "invalid loan terms",
			body: valid,
			setupMock: func(m *MockLoanService) {
				m.On("CreateLoan", mock.Anything, mock.Anything, anyTime).
					Return(nil, customError.WrapInvalidLoanTerms("principal is too small to split into that many installments")).Once()
			},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   customError.ErrCodeInvalidLoanTerms,
		},
		{
			name: "database failure is not leaked",
			body: valid,
			setupMock: func(m *MockLoanService) {
				m.On("CreateLoan", mock.Anything, mock.Anything, anyTime).
					Return(nil, customError.WrapDatabaseError(errors.New("pq: connection refused"))).Once()
			},
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   customError.ErrCodeDatabaseError,
			expectedBody:   "Internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			tt.setupMock(s.loans)

			w := s.do(http.MethodPost, "/api/v1/loans", tt.body)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedBody != "" {
				assert.Contains(t, w.Body.String(), tt.expectedBody)
			}
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, decodeEnvelope(t, w).Code)
			}
			assert.NotContains(t, w.Body.String(), "connection refused")
		})
	}
}

func TestLoanHandler_Reads(t *testing.T) {
	s := newTestServer(t)
	s.loans.On("GetOutstanding", mock.Anything, "loan-1").Return(&domain.OutstandingResponse{
		LoanID: "loan-1", Outstanding: decimal.NewFromInt(50000),
	}, nil).Once()
	s.loans.On("IsDelinquent", mock.Anything, "loan-1", anyTime).Return(&domain.DelinquentResponse{
		LoanID: "loan-1", IsDelinquent: true, MissedCount: 2,
	}, nil).Once()
	s.loans.On("GetLoan", mock.Anything, "missing").Return(nil, customError.WrapLoanNotFound("missing")).Once()

	w := s.do(http.MethodGet, "/api/v1/loans/loan-1/outstanding", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"outstanding":"50000"`)

	w = s.do(http.MethodGet, "/api/v1/loans/loan-1/delinquent", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"is_delinquent":true`)

	w = s.do(http.MethodGet, "/api/v1/loans/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, customError.ErrCodeLoanNotFound, decodeEnvelope(t, w).Code)
}

func TestPaymentHandler_RecordPayment_StatusMapping(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{"out of order", customError.WrapOutOfOrderPayment("inst-2", 1), http.StatusUnprocessableEntity},
		{"overpayment", customError.WrapOverpayment("inst-2", "10001", "10000"), http.StatusUnprocessableEntity},
		{"route closed", customError.WrapRouteClosed("route-1"), http.StatusUnprocessableEntity},
		{"stale state", customError.WrapStaleState("installment", "inst-2"), http.StatusConflict},
		{"not found", customError.WrapInstallmentNotFound("inst-2"), http.StatusNotFound},
		{"forbidden", customError.WrapForbidden("record_payment"), http.StatusForbidden},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			s.payments.On("RecordPayment", mock.Anything, mock.Anything, anyTime).Return(nil, tt.err).Once()

			w := s.do(http.MethodPost, "/api/v1/installments/inst-2/payments", `{"collector_id":"collector-1","amount":"100"}`)
			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.False(t, decodeEnvelope(t, w).Success)
		})
	}
}

func TestPaymentHandler_RecordPayment(t *testing.T) {
	s := newTestServer(t)
	version := int64(3)
	s.payments.On("RecordPayment",
		mock.MatchedBy(func(ctx context.Context) bool {
			actor, ok := service.ActorFrom(ctx)
			return ok && actor.ID == "user-1" && actor.Role == service.RoleCollector
		}),
		mock.MatchedBy(func(req *domain.RecordPaymentRequest) bool {
			return req.InstallmentID == "inst-1" &&
				req.Amount.Equal(decimal.NewFromInt(6000)) &&
				req.ExpectedVersion != nil && *req.ExpectedVersion == version
		}),
		anyTime,
	).Return(&domain.PaymentResult{
		Installment: &domain.Installment{ID: "inst-1", PaymentState: domain.InstallmentStatusPartial},
		RouteID:     "route-1",
	}, nil).Once()

	w := s.do(http.MethodPost, "/api/v1/installments/inst-1/payments",
		`{"collector_id":"collector-1","amount":"6000","expected_version":3}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"route_id":"route-1"`)

	w = s.do(http.MethodPost, "/api/v1/installments/inst-1/payments", `{"collector_id":"collector-1","amount":"-5"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Amount failed decimal_gt")
}

func TestPaymentHandler_ResetPayment(t *testing.T) {
	s := newTestServer(t)
	s.payments.On("ResetPayment", mock.Anything, mock.MatchedBy(func(req *domain.ResetPaymentRequest) bool {
		return req.InstallmentID == "inst-1" && req.ExpectedVersion == nil
	}), anyTime).Return(&domain.PaymentResult{RouteID: "route-1"}, nil).Once()
	s.payments.On("ResetPayment", mock.Anything, mock.MatchedBy(func(req *domain.ResetPaymentRequest) bool {
		return req.InstallmentID == "inst-2"
	}), anyTime).Return(nil, customError.WrapResetWindowExpired("inst-2")).Once()

	w := s.do(http.MethodPost, "/api/v1/installments/inst-1/reset", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodPost, "/api/v1/installments/inst-2/reset", `{}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, customError.ErrCodeResetWindowExpired, decodeEnvelope(t, w).Code)
}

func TestWalletHandler_GetTransactions(t *testing.T) {
	s := newTestServer(t)
	from := domain.MustParseDate("2024-01-01")
	to := domain.MustParseDate("2024-01-31")
	s.ledger.On("GetTransactions", mock.Anything, "wallet-1", mock.MatchedBy(func(f domain.TransactionFilter) bool {
		return f.Type != nil && *f.Type == domain.TransactionLoanPayment &&
			f.DateFrom != nil && *f.DateFrom == from &&
			f.DateTo != nil && *f.DateTo == to &&
			f.Page == 2 && f.Limit == 10
	})).Return(&domain.TransactionPage{Page: 2, Limit: 10, Total: 12, TotalPages: 2}, nil).Once()

	w := s.do(http.MethodGet, "/api/v1/wallets/wallet-1/transactions?type=LOAN_PAYMENT&date_from=2024-01-01&date_to=2024-01-31&page=2&limit=10", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total_pages":2`)

	w = s.do(http.MethodGet, "/api/v1/wallets/wallet-1/transactions?date_from=01/02/2024", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/v1/wallets/wallet-1/transactions?page=-1", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWalletHandler_Transfer(t *testing.T) {
	s := newTestServer(t)
	s.ledger.On("Transfer", mock.Anything, mock.MatchedBy(func(req *domain.TransferRequest) bool {
		return req.FromWalletID == "w-1" && req.ToWalletID == "w-2"
	}), anyTime).Return(nil, customError.WrapInsufficientFunds("w-1", "10", "20")).Once()

	w := s.do(http.MethodPost, "/api/v1/transfers", `{"from_wallet_id":"w-1","to_wallet_id":"w-2","amount":"20"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, customError.ErrCodeInsufficientFunds, decodeEnvelope(t, w).Code)

	w = s.do(http.MethodPost, "/api/v1/transfers", `{"from_wallet_id":"w-1","to_wallet_id":"w-1","amount":"20"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/v1/wallets", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouteHandler(t *testing.T) {
	s := newTestServer(t)
	closed := &domain.CollectionRoute{ID: "route-1", Status: domain.RouteStatusClosed, NetAmount: decimal.NewFromInt(4000)}
	s.routes.On("CloseRoute", mock.Anything, "route-1", "", anyTime).Return(closed, nil).Once()
	s.routes.On("DeleteExpense", mock.Anything, "route-1", "exp-1", anyTime).Return(customError.WrapRouteClosed("route-1")).Once()
	s.routes.On("ReorderItems", mock.Anything, "route-2", []string{"b", "a"}, anyTime).Return(&domain.CollectionRoute{ID: "route-2"}, nil).Once()
	s.routes.On("ListRoutes", mock.Anything, "collector-1", domain.MustParseDate("2024-01-01"), domain.MustParseDate("2024-01-15")).
		Return([]*domain.CollectionRoute{closed}, nil).Once()

	w := s.do(http.MethodPost, "/api/v1/routes/route-1/close", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"CLOSED"`)

	w = s.do(http.MethodDelete, "/api/v1/routes/route-1/expenses/exp-1", "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = s.do(http.MethodPut, "/api/v1/routes/route-2/order", `{"installment_ids":["b","a"]}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodPost, "/api/v1/routes/route-2/expenses", `{"category":"PARKING","amount":"10"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/v1/routes?collector_id=collector-1&from=2024-01-01&to=2024-01-15", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/api/v1/routes?collector_id=collector-1&to=2024-01-15", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLiquidationHandler(t *testing.T) {
	s := newTestServer(t)
	day := domain.MustParseDate("2024-01-15")
	s.liquidation.On("Liquidate", mock.Anything, "collector-1", day, day, mock.MatchedBy(func(p *decimal.Decimal) bool {
		return p != nil && p.Equal(decimal.RequireFromString("12.5"))
	})).Return(&domain.Liquidation{Commission: decimal.NewFromInt(1250)}, nil).Once()
	s.liquidation.On("GetCollectionsSummary", mock.Anything, "collector-1", day, day).
		Return(&domain.CollectionsSummary{TotalAmount: decimal.NewFromInt(10000), TotalCollections: 2}, nil).Once()

	w := s.do(http.MethodPost, "/api/v1/collectors/collector-1/liquidation",
		`{"start_date":"2024-01-15","end_date":"2024-01-15","percentage":"12.5"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"commission":"1250"`)

	w = s.do(http.MethodGet, "/api/v1/collectors/collector-1/collections?start=2024-01-15&end=2024-01-15", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total_collections":2`)

	w = s.do(http.MethodGet, "/api/v1/collectors/collector-1/collections?start=2024-01-15", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthHandler_Ready(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer client.Close()

	tests := []struct {
		name           string
		health         *handler.HealthHandler
		expectedStatus int
		expectedBody   string
	}{
		{"database and redis up", handler.NewHealthHandler(stubPinger{}, client, 0), http.StatusOK, `"redis":"ok"`},
		{"redis disabled", handler.NewHealthHandler(stubPinger{}, nil, 0), http.StatusOK, `"redis":"disabled"`},
		{"database down", handler.NewHealthHandler(stubPinger{err: errors.New("db down")}, nil, 0), http.StatusServiceUnavailable, "db down"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.health.Ready(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
		})
	}
}
