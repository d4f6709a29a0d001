package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/segyhp/collection-engine/internal/config"
	"github.com/segyhp/collection-engine/internal/domain"
	"github.com/segyhp/collection-engine/internal/logger"
	"github.com/segyhp/collection-engine/internal/repository"
	customError "github.com/segyhp/collection-engine/pkg/errors"
	"github.com/segyhp/collection-engine/pkg/utils"
)

// PaymentService drives the installment state machine. Every accepted
// payment or reset touches the installment, the payment trail, the
// collector's wallet and the day's route in one transaction.
type PaymentService struct {
	store    repository.Store
	authz    Authorizer
	settings settings
	log      zerolog.Logger
}

func NewPaymentService(store repository.Store, authz Authorizer, cfg *config.Config) *PaymentService {
	return &PaymentService{
		store:    store,
		authz:    authz,
		settings: settingsFrom(cfg),
		log:      logger.WithComponent("payment_service"),
	}
}

// RecordPayment applies a full or partial payment to an installment and
// credits the collector's wallet.
//
// Concurrent payments on one installment credit the wallet once. With
// ExpectedVersion every loser fails with StaleState. Without it a loser whose
// transaction overlaps the winner's fails with StaleState, while one that
// starts after the winner committed reads the installment as PAID and fails
// with InstallmentAlreadyPaid.
func (s *PaymentService) RecordPayment(ctx context.Context, req *domain.RecordPaymentRequest, now time.Time) (*domain.PaymentResult, error) {
	if err := s.authz.Authorize(ctx, CapRecordPayment); err != nil {
		return nil, err
	}
	if !req.Amount.IsPositive() || !utils.IsMoney(req.Amount) {
		return nil, customError.WrapInvalidPaymentAmount(req.Amount.String())
	}
	if req.CollectorID == "" {
		return nil, customError.WrapInvalidRequest("collector_id is required")
	}

	today := s.settings.today(now)
	result := &domain.PaymentResult{}

	err := s.store.WithTx(ctx, func(repos *repository.Repositories) error {
		installment, err := repos.Installments.GetByID(ctx, req.InstallmentID)
		if isNotFound(err) {
			return customError.WrapInstallmentNotFound(req.InstallmentID)
		}
		if err != nil {
			return err
		}
		if err := checkVersion(req.ExpectedVersion, installment.Version, "installment", installment.ID); err != nil {
			return err
		}

		loan, err := repos.Loans.GetByID(ctx, installment.LoanID)
		if err != nil {
			return err
		}
		if !loan.IsActive() {
			return customError.WrapLoanNotActive(loan.ID, loan.Status)
		}
		if installment.IsPaid() {
			return customError.WrapInstallmentAlreadyPaid(installment.ID)
		}

		blocking, err := repos.Installments.FirstUnpaidBefore(ctx, loan.ID, installment.PaymentNumber)
		if err == nil {
			return customError.WrapOutOfOrderPayment(installment.ID, blocking.PaymentNumber)
		}
		if !isNotFound(err) {
			return err
		}

		if remaining := installment.Remaining(); req.Amount.GreaterThan(remaining) {
			return customError.WrapOverpayment(installment.ID, req.Amount.String(), remaining.String())
		}

		route, err := openRouteFor(ctx, repos, req.CollectorID, today, now)
		if err != nil {
			return err
		}
		if err := touchRoute(ctx, repos, route.ID, now); err != nil {
			return err
		}

		wallet, err := walletForOwner(ctx, repos, req.CollectorID, loan.Currency, now)
		if err != nil {
			return err
		}

		sequence := installment.Version
		paidBefore := installment.PaidAmount
		installment.ApplyPaidAmount(paidBefore.Add(req.Amount), now)
		if err := repos.Installments.UpdatePayment(ctx, installment); err != nil {
			return storeError(err, "installment", installment.ID)
		}

		tx, err := applyToWallet(ctx, repos, wallet, ledgerEntry{
			Type:                 domain.TransactionLoanPayment,
			Amount:               req.Amount,
			RelatedInstallmentID: &installment.ID,
			Description:          paymentDescription(loan, installment, req.Note),
		}, now)
		if err != nil {
			return storeError(err, "wallet", wallet.ID)
		}

		event := &domain.PaymentEvent{
			ID:            uuid.NewString(),
			InstallmentID: installment.ID,
			LoanID:        loan.ID,
			CollectorID:   req.CollectorID,
			WalletID:      wallet.ID,
			RouteID:       route.ID,
			Kind:          domain.PaymentEventPayment,
			Amount:        req.Amount,
			PaidBefore:    paidBefore,
			PaidAfter:     installment.PaidAmount,
			RouteDate:     route.RouteDate,
			Sequence:      sequence,
			TransactionID: tx.ID,
			Note:          req.Note,
			OccurredAt:    now,
		}
		if err := repos.Events.Create(ctx, event); err != nil {
			return storeError(err, "installment", installment.ID)
		}

		if err := addToRouteItem(ctx, repos, route.ID, installment.ID, req.Amount); err != nil {
			return err
		}

		if installment.IsPaid() {
			if err := completeLoanIfPaid(ctx, repos, loan, now); err != nil {
				return err
			}
		}

		result.Installment = installment.Refresh(today)
		result.Event = event
		result.Transaction = tx
		result.RouteID = route.ID
		return nil
	})
	if err != nil {
		return nil, storeError(err, "installment", req.InstallmentID)
	}

	l := s.log
	if actor, ok := ActorFrom(ctx); ok {
		l = logger.WithActor(l, actor.ID)
	}
	l.Info().
		Str("installment_id", req.InstallmentID).
		Str("collector_id", req.CollectorID).
		Str("amount", req.Amount.String()).
		Str("state", result.Installment.PaymentState).
		Msg("payment recorded")

	return result, nil
}

// ResetPayment reverses the most recent payment of an installment while
// the reset window is open and its route is not closed.
func (s *PaymentService) ResetPayment(ctx context.Context, req *domain.ResetPaymentRequest, now time.Time) (*domain.PaymentResult, error) {
	if err := s.authz.Authorize(ctx, CapResetPayment); err != nil {
		return nil, err
	}

	today := s.settings.today(now)
	result := &domain.PaymentResult{}

	err := s.store.WithTx(ctx, func(repos *repository.Repositories) error {
		installment, err := repos.Installments.GetByID(ctx, req.InstallmentID)
		if isNotFound(err) {
			return customError.WrapInstallmentNotFound(req.InstallmentID)
		}
		if err != nil {
			return err
		}
		if err := checkVersion(req.ExpectedVersion, installment.Version, "installment", installment.ID); err != nil {
			return err
		}

		payment, err := repos.Events.Latest(ctx, installment.ID)
		if isNotFound(err) {
			return customError.WrapNothingToReset(installment.ID)
		}
		if err != nil {
			return err
		}
		if !payment.IsPayment() {
			return customError.WrapNothingToReset(installment.ID)
		}
		if !utils.WithinWindow(payment.OccurredAt, now, s.settings.resetWindow) {
			return customError.WrapResetWindowExpired(installment.ID)
		}

		// Earlier installments must stay PAID while a later one holds money.
		later, err := repos.Installments.FirstPaidAfter(ctx, installment.LoanID, installment.PaymentNumber)
		if err == nil {
			return customError.WrapOutOfOrderReset(installment.ID, later.PaymentNumber)
		}
		if !isNotFound(err) {
			return err
		}
		if err := touchRoute(ctx, repos, payment.RouteID, now); err != nil {
			return err
		}

		loan, err := repos.Loans.GetByID(ctx, installment.LoanID)
		if err != nil {
			return err
		}

		sequence := installment.Version
		paidBefore := installment.PaidAmount
		installment.ApplyPaidAmount(payment.PaidBefore, now)
		if err := repos.Installments.UpdatePayment(ctx, installment); err != nil {
			return storeError(err, "installment", installment.ID)
		}

		wallet, err := repos.Wallets.GetByIDForUpdate(ctx, payment.WalletID)
		if err != nil {
			return err
		}
		tx, err := applyToWallet(ctx, repos, wallet, ledgerEntry{
			Type:                 domain.TransactionPaymentReset,
			Amount:               payment.Amount,
			RelatedInstallmentID: &installment.ID,
			RelatedTransactionID: &payment.TransactionID,
			Description:          "reset of payment " + payment.ID,
		}, now)
		if err != nil {
			return storeError(err, "wallet", wallet.ID)
		}

		event := &domain.PaymentEvent{
			ID:              uuid.NewString(),
			InstallmentID:   installment.ID,
			LoanID:          loan.ID,
			CollectorID:     payment.CollectorID,
			WalletID:        wallet.ID,
			RouteID:         payment.RouteID,
			Kind:            domain.PaymentEventReset,
			Amount:          payment.Amount,
			PaidBefore:      paidBefore,
			PaidAfter:       installment.PaidAmount,
			RouteDate:       payment.RouteDate,
			Sequence:        sequence,
			TransactionID:   tx.ID,
			ReversesEventID: &payment.ID,
			OccurredAt:      now,
		}
		if err := repos.Events.Create(ctx, event); err != nil {
			return storeError(err, "installment", installment.ID)
		}

		if err := subtractFromRouteItem(ctx, repos, payment.RouteID, installment.ID, payment.Amount); err != nil {
			return err
		}

		if loan.Status == domain.LoanStatusCompleted {
			if err := repos.Loans.UpdateStatus(ctx, loan.ID, domain.LoanStatusActive, now); err != nil {
				return err
			}
		}

		result.Installment = installment.Refresh(today)
		result.Event = event
		result.Transaction = tx
		result.RouteID = payment.RouteID
		return nil
	})
	if err != nil {
		return nil, storeError(err, "installment", req.InstallmentID)
	}

	s.log.Info().
		Str("installment_id", req.InstallmentID).
		Str("amount", result.Event.Amount.String()).
		Str("reverses_event_id", *result.Event.ReversesEventID).
		Msg("payment reset")

	return result, nil
}

// History returns the payment trail of an installment.
func (s *PaymentService) History(ctx context.Context, installmentID string) ([]*domain.PaymentEvent, error) {
	if err := s.authz.Authorize(ctx, CapViewLoans); err != nil {
		return nil, err
	}

	repos := s.store.Repositories()
	if _, err := repos.Installments.GetByID(ctx, installmentID); err != nil {
		if isNotFound(err) {
			return nil, customError.WrapInstallmentNotFound(installmentID)
		}
		return nil, customError.WrapDatabaseError(err)
	}

	events, err := repos.Events.ListByInstallment(ctx, installmentID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	if events == nil {
		events = []*domain.PaymentEvent{}
	}
	return events, nil
}

func completeLoanIfPaid(ctx context.Context, repos *repository.Repositories, loan *domain.Loan, now time.Time) error {
	unpaid, err := repos.Installments.CountUnpaid(ctx, loan.ID)
	if err != nil {
		return err
	}
	if unpaid > 0 {
		return nil
	}
	return repos.Loans.UpdateStatus(ctx, loan.ID, domain.LoanStatusCompleted, now)
}

func paymentDescription(loan *domain.Loan, installment *domain.Installment, note string) string {
	desc := "payment of installment " + installment.ID + " of loan " + loan.ID
	if note != "" {
		desc += ": " + note
	}
	return desc
}
