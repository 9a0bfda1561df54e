package terminal

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/iho/goatm/internal/domain"
)

// Operations whose failures get their own wording.
const (
	opDeposit  = "deposit"
	opWithdraw = "withdraw"
	opTransfer = "transfer"
)

const msgBusy = "Account busy. Please try again."

// mapDomainError maps a failed operation to the line shown to the customer.
func mapDomainError(op string, err error) string {
	if errors.Is(err, domain.ErrLockTimeout) {
		return msgBusy
	}

	switch op {
	case opDeposit:
		return "Deposit failed."
	case opWithdraw:
		return "Withdrawal failed. Check balance or amount."
	case opTransfer:
		switch {
		case errors.Is(err, domain.ErrSelfTransfer):
			return "Cannot transfer to same account."
		case errors.Is(err, domain.ErrAccountNotFound):
			return "Destination account not found."
		default:
			return "Transfer failed. Check balance or amount."
		}
	default:
		return "Operation failed."
	}
}

// formatAmount renders money with two fraction digits.
func formatAmount(d decimal.Decimal) string {
	return d.StringFixed(domain.AmountPlaces)
}

// formatTransaction renders one mini-statement line.
func formatTransaction(t domain.Transaction) string {
	return fmt.Sprintf("%s | %-18s | %9s | Bal: %8s",
		t.Timestamp.Local().Format("2006-01-02 15:04:05"),
		t.Type,
		formatAmount(t.Amount),
		formatAmount(t.Balance))
}
