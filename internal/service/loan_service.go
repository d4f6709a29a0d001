package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/segyhp/collection-engine/internal/config"
	"github.com/segyhp/collection-engine/internal/domain"
	"github.com/segyhp/collection-engine/internal/logger"
	"github.com/segyhp/collection-engine/internal/repository"
	customError "github.com/segyhp/collection-engine/pkg/errors"
	"github.com/segyhp/collection-engine/pkg/utils"
)

type LoanService struct {
	store    repository.Store
	authz    Authorizer
	settings settings
	log      zerolog.Logger
}

func NewLoanService(store repository.Store, authz Authorizer, cfg *config.Config) *LoanService {
	return &LoanService{
		store:    store,
		authz:    authz,
		settings: settingsFrom(cfg),
		log:      logger.WithComponent("loan_service"),
	}
}

// CreateLoan stores an ACTIVE loan together with its generated schedule.
// When DisburseFromWalletID is set the principal is debited from that
// wallet in the same transaction.
func (s *LoanService) CreateLoan(ctx context.Context, req *domain.CreateLoanRequest, now time.Time) (*domain.CreateLoanResponse, error) {
	if err := s.authz.Authorize(ctx, CapManageLoans); err != nil {
		return nil, err
	}

	startDate := req.StartDate
	if startDate.IsZero() {
		startDate = s.settings.today(now)
	}
	currency := req.Currency
	if currency == "" {
		currency = s.settings.currency
	}
	if req.PenaltyInterestRate.IsNegative() {
		return nil, customError.WrapInvalidLoanTerms("penalty interest rate must not be negative")
	}

	loan := &domain.Loan{
		ID:                  uuid.NewString(),
		ClientID:            req.ClientID,
		CollectorID:         req.CollectorID,
		Principal:           req.Principal,
		BaseInterestRate:    req.BaseInterestRate,
		PenaltyInterestRate: req.PenaltyInterestRate,
		TotalAmount:         utils.CalculateTotalAmount(req.Principal, req.BaseInterestRate),
		Currency:            currency,
		PaymentFrequency:    req.PaymentFrequency,
		TotalInstallments:   req.TotalInstallments,
		StartDate:           startDate,
		Status:              domain.LoanStatusActive,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	schedule, err := domain.GenerateSchedule(domain.ScheduleTerms{
		LoanID:            loan.ID,
		Principal:         loan.Principal,
		BaseInterestRate:  loan.BaseInterestRate,
		TotalInstallments: loan.TotalInstallments,
		Frequency:         loan.PaymentFrequency,
		StartDate:         loan.StartDate,
	}, now)
	if err != nil {
		return nil, err
	}

	err = s.store.WithTx(ctx, func(repos *repository.Repositories) error {
		if err := repos.Loans.Create(ctx, loan); err != nil {
			return err
		}
		if err := repos.Installments.CreateBatch(ctx, schedule); err != nil {
			return err
		}
		if req.DisburseFromWalletID == "" {
			return nil
		}

		wallet, err := repos.Wallets.GetByIDForUpdate(ctx, req.DisburseFromWalletID)
		if isNotFound(err) {
			return customError.WrapWalletNotFound(req.DisburseFromWalletID)
		}
		if err != nil {
			return err
		}
		_, err = applyToWallet(ctx, repos, wallet, ledgerEntry{
			Type:        domain.TransactionLoanDisbursement,
			Amount:      loan.Principal,
			Description: "disbursement of loan " + loan.ID,
		}, now)
		return err
	})
	if err != nil {
		return nil, storeError(err, "loan", loan.ID)
	}

	s.log.Info().
		Str("loan_id", loan.ID).
		Str("collector_id", loan.CollectorID).
		Str("total_amount", loan.TotalAmount.String()).
		Int("installments", len(schedule)).
		Msg("loan created")

	today := s.settings.today(now)
	for _, installment := range schedule {
		installment.Refresh(today)
	}
	return &domain.CreateLoanResponse{Loan: loan, Schedule: schedule}, nil
}

func (s *LoanService) GetLoan(ctx context.Context, loanID string) (*domain.Loan, error) {
	if err := s.authz.Authorize(ctx, CapViewLoans); err != nil {
		return nil, err
	}
	return s.getLoan(ctx, s.store.Repositories(), loanID)
}

func (s *LoanService) getLoan(ctx context.Context, repos *repository.Repositories, loanID string) (*domain.Loan, error) {
	loan, err := repos.Loans.GetByID(ctx, loanID)
	if isNotFound(err) {
		return nil, customError.WrapLoanNotFound(loanID)
	}
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return loan, nil
}

// GetInstallments returns the schedule with statuses derived for now.
func (s *LoanService) GetInstallments(ctx context.Context, loanID string, now time.Time) ([]*domain.Installment, error) {
	if err := s.authz.Authorize(ctx, CapViewLoans); err != nil {
		return nil, err
	}

	repos := s.store.Repositories()
	if _, err := s.getLoan(ctx, repos, loanID); err != nil {
		return nil, err
	}

	installments, err := repos.Installments.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	today := s.settings.today(now)
	for _, installment := range installments {
		installment.Refresh(today)
	}
	return installments, nil
}

// GetOutstanding returns the unpaid part of the loan's total amount.
func (s *LoanService) GetOutstanding(ctx context.Context, loanID string) (*domain.OutstandingResponse, error) {
	if err := s.authz.Authorize(ctx, CapViewLoans); err != nil {
		return nil, err
	}

	repos := s.store.Repositories()
	loan, err := s.getLoan(ctx, repos, loanID)
	if err != nil {
		return nil, err
	}

	installments, err := repos.Installments.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	paid := decimal.Zero
	for _, installment := range installments {
		paid = paid.Add(installment.PaidAmount)
	}

	return &domain.OutstandingResponse{
		LoanID:      loanID,
		TotalAmount: loan.TotalAmount,
		PaidAmount:  paid,
		Outstanding: loan.TotalAmount.Sub(paid),
	}, nil
}

// IsDelinquent reports whether the loan has at least the configured number
// of consecutive installments past due and not fully paid.
func (s *LoanService) IsDelinquent(ctx context.Context, loanID string, now time.Time) (*domain.DelinquentResponse, error) {
	if err := s.authz.Authorize(ctx, CapViewLoans); err != nil {
		return nil, err
	}

	repos := s.store.Repositories()
	if _, err := s.getLoan(ctx, repos, loanID); err != nil {
		return nil, err
	}

	installments, err := repos.Installments.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	missed := consecutiveMissed(installments, s.settings.today(now))
	return &domain.DelinquentResponse{
		LoanID:       loanID,
		IsDelinquent: missed >= s.settings.delinquencyThreshold,
		MissedCount:  missed,
	}, nil
}

// consecutiveMissed returns the longest run of past-due unpaid installments.
func consecutiveMissed(installments []*domain.Installment, today domain.Date) int {
	longest, run := 0, 0
	for _, installment := range installments {
		if !installment.IsPaid() && installment.DueDate.Before(today) {
			run++
			if run > longest {
				longest = run
			}
			continue
		}
		run = 0
	}
	return longest
}

func (s *LoanService) ListActiveLoans(ctx context.Context) ([]*domain.Loan, error) {
	if err := s.authz.Authorize(ctx, CapViewLoans); err != nil {
		return nil, err
	}

	loans, err := s.store.Repositories().Loans.ListByStatus(ctx, domain.LoanStatusActive)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	if loans == nil {
		loans = []*domain.Loan{}
	}
	return loans, nil
}

// ListDelinquentLoans scans every active loan and returns the delinquent ones.
func (s *LoanService) ListDelinquentLoans(ctx context.Context, now time.Time) ([]*domain.DelinquentResponse, error) {
	loans, err := s.ListActiveLoans(ctx)
	if err != nil {
		return nil, err
	}

	repos := s.store.Repositories()
	today := s.settings.today(now)
	delinquent := []*domain.DelinquentResponse{}
	for _, loan := range loans {
		installments, err := repos.Installments.GetByLoanID(ctx, loan.ID)
		if err != nil {
			return nil, customError.WrapDatabaseError(err)
		}
		if missed := consecutiveMissed(installments, today); missed >= s.settings.delinquencyThreshold {
			delinquent = append(delinquent, &domain.DelinquentResponse{LoanID: loan.ID, IsDelinquent: true, MissedCount: missed})
		}
	}
	return delinquent, nil
}
