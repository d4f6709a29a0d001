package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies a wallet ledger entry.
type TransactionType string

const (
	TransactionDeposit              TransactionType = "DEPOSIT"
	TransactionWithdrawal           TransactionType = "WITHDRAWAL"
	TransactionLoanDisbursement     TransactionType = "LOAN_DISBURSEMENT"
	TransactionLoanPayment          TransactionType = "LOAN_PAYMENT"
	TransactionTransferToManager    TransactionType = "TRANSFER_TO_MANAGER"
	TransactionTransferFromSubadmin TransactionType = "TRANSFER_FROM_SUBADMIN"
	TransactionPaymentReset         TransactionType = "PAYMENT_RESET"
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionDeposit, TransactionWithdrawal, TransactionLoanDisbursement,
		TransactionLoanPayment, TransactionTransferToManager,
		TransactionTransferFromSubadmin, TransactionPaymentReset:
		return true
	}
	return false
}

// IsStandalone reports whether the type may be posted on its own. Transfer
// legs and payment entries are only written together with their counterpart.
func (t TransactionType) IsStandalone() bool {
	switch t {
	case TransactionDeposit, TransactionWithdrawal, TransactionLoanDisbursement:
		return true
	}
	return false
}

// IsCredit reports whether the type increases the balance.
func (t TransactionType) IsCredit() bool {
	switch t {
	case TransactionLoanPayment, TransactionDeposit, TransactionTransferFromSubadmin:
		return true
	}
	return false
}

// Signed applies the type's sign to a positive amount.
func (t TransactionType) Signed(amount decimal.Decimal) decimal.Decimal {
	if t.IsCredit() {
		return amount
	}
	return amount.Neg()
}

// RequiresCover reports whether the debit may not overdraw the wallet.
// PAYMENT_RESET compensates an earlier credit and is always applied.
func (t TransactionType) RequiresCover() bool {
	switch t {
	case TransactionWithdrawal, TransactionLoanDisbursement, TransactionTransferToManager:
		return true
	}
	return false
}

// Wallet holds a collector's (or manager's) cash position.
type Wallet struct {
	ID        string          `json:"id" db:"id"`
	OwnerID   string          `json:"owner_id" db:"owner_id"`
	Balance   decimal.Decimal `json:"balance" db:"balance"`
	Currency  string          `json:"currency" db:"currency"`
	Version   int64           `json:"version" db:"version"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

// WalletTransaction is an immutable ledger row.
// BalanceAfter == BalanceBefore + SignedAmount always holds.
type WalletTransaction struct {
	ID                   string          `json:"id" db:"id"`
	WalletID             string          `json:"wallet_id" db:"wallet_id"`
	Sequence             int64           `json:"sequence" db:"sequence"`
	Type                 TransactionType `json:"type" db:"type"`
	Amount               decimal.Decimal `json:"amount" db:"amount"`
	SignedAmount         decimal.Decimal `json:"signed_amount" db:"signed_amount"`
	BalanceBefore        decimal.Decimal `json:"balance_before" db:"balance_before"`
	BalanceAfter         decimal.Decimal `json:"balance_after" db:"balance_after"`
	RelatedInstallmentID *string         `json:"related_installment_id,omitempty" db:"related_installment_id"`
	RelatedTransactionID *string         `json:"related_transaction_id,omitempty" db:"related_transaction_id"`
	Description          string          `json:"description" db:"description"`
	OccurredAt           time.Time       `json:"occurred_at" db:"occurred_at"`
}

type CreateWalletRequest struct {
	OwnerID  string `json:"owner_id" validate:"required"`
	Currency string `json:"currency" validate:"omitempty,len=3"`
}

type ApplyTransactionRequest struct {
	WalletID             string          `json:"-"`
	Type                 TransactionType `json:"type" validate:"required"`
	Amount               decimal.Decimal `json:"amount" validate:"decimal_gt=0"`
	RelatedInstallmentID *string         `json:"related_installment_id,omitempty"`
	RelatedTransactionID *string         `json:"-"`
	Description          string          `json:"description" validate:"max=500"`
}

type TransferRequest struct {
	FromWalletID string          `json:"from_wallet_id" validate:"required"`
	ToWalletID   string          `json:"to_wallet_id" validate:"required,nefield=FromWalletID"`
	Amount       decimal.Decimal `json:"amount" validate:"decimal_gt=0"`
	Description  string          `json:"description" validate:"max=500"`
}

type TransferResult struct {
	Debit  *WalletTransaction `json:"debit"`
	Credit *WalletTransaction `json:"credit"`
}

// TransactionFilter narrows a wallet history query. Date bounds are
// inclusive operational days.
type TransactionFilter struct {
	Type     *TransactionType
	DateFrom *Date
	DateTo   *Date
	Page     int
	Limit    int
}

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 200
)

// Normalize clamps paging to sane values.
func (f *TransactionFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = DefaultPageLimit
	}
	if f.Limit > MaxPageLimit {
		f.Limit = MaxPageLimit
	}
}

// Offset returns the row offset of the page.
func (f TransactionFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

type TransactionPage struct {
	Items      []*WalletTransaction `json:"items"`
	Page       int                  `json:"page"`
	Limit      int                  `json:"limit"`
	Total      int                  `json:"total"`
	TotalPages int                  `json:"total_pages"`
}

// WalletReconciliation compares the stored balance with a replay of history.
type WalletReconciliation struct {
	WalletID         string          `json:"wallet_id"`
	StoredBalance    decimal.Decimal `json:"stored_balance"`
	ReplayedBalance  decimal.Decimal `json:"replayed_balance"`
	LastBalanceAfter decimal.Decimal `json:"last_balance_after"`
	Transactions     int             `json:"transactions"`
	BrokenChainAt    *int64          `json:"broken_chain_at,omitempty"`
	Consistent       bool            `json:"consistent"`
}

// ReplayLedger folds a wallet's ordered history into a reconciliation report.
func ReplayLedger(wallet *Wallet, history []*WalletTransaction) *WalletReconciliation {
	report := &WalletReconciliation{
		WalletID:         wallet.ID,
		StoredBalance:    wallet.Balance,
		ReplayedBalance:  decimal.Zero,
		LastBalanceAfter: decimal.Zero,
		Transactions:     len(history),
	}

	for _, tx := range history {
		if report.BrokenChainAt == nil &&
			(!tx.BalanceBefore.Equal(report.ReplayedBalance) ||
				!tx.BalanceAfter.Equal(tx.BalanceBefore.Add(tx.SignedAmount)) ||
				!tx.SignedAmount.Equal(tx.Type.Signed(tx.Amount))) {
			seq := tx.Sequence
			report.BrokenChainAt = &seq
		}
		report.ReplayedBalance = report.ReplayedBalance.Add(tx.Type.Signed(tx.Amount))
		report.LastBalanceAfter = tx.BalanceAfter
	}

	report.Consistent = report.BrokenChainAt == nil &&
		report.ReplayedBalance.Equal(wallet.Balance) &&
		report.LastBalanceAfter.Equal(wallet.Balance)
	return report
}
