package errors

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrLoanNotFound           = errors.New("loan not found")
	ErrInstallmentNotFound    = errors.New("installment not found")
	ErrWalletNotFound         = errors.New("wallet not found")
	ErrRouteNotFound          = errors.New("route not found")
	ErrExpenseNotFound        = errors.New("expense not found")
	ErrInvalidLoanTerms       = errors.New("invalid loan terms")
	ErrInvalidPercentage      = errors.New("invalid percentage")
	ErrInvalidPaymentAmount   = errors.New("invalid payment amount")
	ErrInvalidRequest         = errors.New("invalid request")
	ErrLoanNotActive          = errors.New("loan is not active")
	ErrInstallmentAlreadyPaid = errors.New("installment is already paid")
	ErrOutOfOrderPayment      = errors.New("earlier installments must be paid first")
	ErrOverpayment            = errors.New("payment exceeds the amount due")
	ErrNothingToReset         = errors.New("no payment to reset")
	ErrResetWindowExpired     = errors.New("reset window expired")
	ErrRouteClosed            = errors.New("route is closed")
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrStaleState             = errors.New("stale state")
	ErrForbidden              = errors.New("forbidden")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodeLoanNotFound           = "LOAN_NOT_FOUND"
	ErrCodeInstallmentNotFound    = "INSTALLMENT_NOT_FOUND"
	ErrCodeWalletNotFound         = "WALLET_NOT_FOUND"
	ErrCodeRouteNotFound          = "ROUTE_NOT_FOUND"
	ErrCodeExpenseNotFound        = "EXPENSE_NOT_FOUND"
	ErrCodeInvalidLoanTerms       = "INVALID_LOAN_TERMS"
	ErrCodeInvalidPercentage      = "INVALID_PERCENTAGE"
	ErrCodeInvalidPaymentAmount   = "INVALID_PAYMENT_AMOUNT"
	ErrCodeInvalidRequest         = "INVALID_REQUEST"
	ErrCodeLoanNotActive          = "LOAN_NOT_ACTIVE"
	ErrCodeInstallmentAlreadyPaid = "INSTALLMENT_ALREADY_PAID"
	ErrCodeOutOfOrderPayment      = "OUT_OF_ORDER_PAYMENT"
	ErrCodeOverpayment            = "OVERPAYMENT"
	ErrCodeNothingToReset         = "NOTHING_TO_RESET"
	ErrCodeResetWindowExpired     = "RESET_WINDOW_EXPIRED"
	ErrCodeRouteClosed            = "ROUTE_CLOSED"
	ErrCodeInsufficientFunds      = "INSUFFICIENT_FUNDS"
	ErrCodeStaleState             = "STALE_STATE"
	ErrCodeForbidden              = "FORBIDDEN"
	ErrCodeDatabaseError          = "DATABASE_ERROR"
	ErrCodeCacheError             = "CACHE_ERROR"
)

// Code extracts the business code of err, or "" when err is not a BusinessError.
func Code(err error) string {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}

// Wrap common errors with business context
func WrapLoanNotFound(loanID string) *BusinessError {
	return NewBusinessError(
		ErrCodeLoanNotFound,
		fmt.Sprintf("Loan with ID %s not found", loanID),
		ErrLoanNotFound,
	)
}

func WrapInstallmentNotFound(installmentID string) *BusinessError {
	return NewBusinessError(
		ErrCodeInstallmentNotFound,
		fmt.Sprintf("Installment with ID %s not found", installmentID),
		ErrInstallmentNotFound,
	)
}

func WrapWalletNotFound(walletID string) *BusinessError {
	return NewBusinessError(
		ErrCodeWalletNotFound,
		fmt.Sprintf("Wallet %s not found", walletID),
		ErrWalletNotFound,
	)
}

func WrapRouteNotFound(routeID string) *BusinessError {
	return NewBusinessError(
		ErrCodeRouteNotFound,
		fmt.Sprintf("Route %s not found", routeID),
		ErrRouteNotFound,
	)
}

func WrapExpenseNotFound(expenseID string) *BusinessError {
	return NewBusinessError(
		ErrCodeExpenseNotFound,
		fmt.Sprintf("Expense %s not found", expenseID),
		ErrExpenseNotFound,
	)
}

func WrapInvalidLoanTerms(reason string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidLoanTerms,
		reason,
		ErrInvalidLoanTerms,
	)
}

func WrapInvalidPercentage(percentage string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidPercentage,
		fmt.Sprintf("Percentage %s must be between 0 and 100", percentage),
		ErrInvalidPercentage,
	)
}

func WrapInvalidPaymentAmount(amount string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidPaymentAmount,
		fmt.Sprintf("Invalid payment amount: %s", amount),
		ErrInvalidPaymentAmount,
	)
}

func WrapInvalidRequest(reason string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidRequest,
		reason,
		ErrInvalidRequest,
	)
}

func WrapLoanNotActive(loanID, status string) *BusinessError {
	return NewBusinessError(
		ErrCodeLoanNotActive,
		fmt.Sprintf("Loan %s is %s", loanID, status),
		ErrLoanNotActive,
	)
}

func WrapInstallmentAlreadyPaid(installmentID string) *BusinessError {
	return NewBusinessError(
		ErrCodeInstallmentAlreadyPaid,
		fmt.Sprintf("Installment %s is already paid", installmentID),
		ErrInstallmentAlreadyPaid,
	)
}

func WrapOutOfOrderPayment(installmentID string, blockingNumber int) *BusinessError {
	return NewBusinessError(
		ErrCodeOutOfOrderPayment,
		fmt.Sprintf("Installment %s cannot be paid before installment #%d", installmentID, blockingNumber),
		ErrOutOfOrderPayment,
	)
}

func WrapOutOfOrderReset(installmentID string, laterNumber int) *BusinessError {
	return NewBusinessError(
		ErrCodeOutOfOrderPayment,
		fmt.Sprintf("Installment %s cannot be reset while installment #%d holds a payment", installmentID, laterNumber),
		ErrOutOfOrderPayment,
	)
}

func WrapOverpayment(installmentID, amount, remaining string) *BusinessError {
	return NewBusinessError(
		ErrCodeOverpayment,
		fmt.Sprintf("Payment %s exceeds remaining %s on installment %s", amount, remaining, installmentID),
		ErrOverpayment,
	)
}

func WrapNothingToReset(installmentID string) *BusinessError {
	return NewBusinessError(
		ErrCodeNothingToReset,
		fmt.Sprintf("Installment %s has no payment to reset", installmentID),
		ErrNothingToReset,
	)
}

func WrapResetWindowExpired(installmentID string) *BusinessError {
	return NewBusinessError(
		ErrCodeResetWindowExpired,
		fmt.Sprintf("Latest payment on installment %s is outside the reset window", installmentID),
		ErrResetWindowExpired,
	)
}

func WrapRouteClosed(routeID string) *BusinessError {
	return NewBusinessError(
		ErrCodeRouteClosed,
		fmt.Sprintf("Route %s is closed", routeID),
		ErrRouteClosed,
	)
}

func WrapInsufficientFunds(walletID, balance, amount string) *BusinessError {
	return NewBusinessError(
		ErrCodeInsufficientFunds,
		fmt.Sprintf("Wallet %s balance %s cannot cover %s", walletID, balance, amount),
		ErrInsufficientFunds,
	)
}

func WrapStaleState(entity, id string) *BusinessError {
	return NewBusinessError(
		ErrCodeStaleState,
		fmt.Sprintf("%s %s was modified concurrently, re-read and retry", entity, id),
		ErrStaleState,
	)
}

func WrapForbidden(capability string) *BusinessError {
	return NewBusinessError(
		ErrCodeForbidden,
		fmt.Sprintf("Actor is not allowed to %s", capability),
		ErrForbidden,
	)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDatabaseError,
		"database operation failed",
		err,
	)
}

func WrapCacheError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeCacheError,
		"Cache operation failed",
		err,
	)
}
