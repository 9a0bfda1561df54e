package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// HistoryCapacity is the number of transactions an account retains.
const HistoryCapacity = 20

// TransactionKind classifies a history record.
type TransactionKind string

const (
	TransactionKindOpened      TransactionKind = "opened"
	TransactionKindDeposit     TransactionKind = "deposit"
	TransactionKindWithdraw    TransactionKind = "withdraw"
	TransactionKindTransferOut TransactionKind = "transfer_out"
	TransactionKindTransferIn  TransactionKind = "transfer_in"
)

// Transaction is an immutable record of one balance change on an account.
// Amount is signed: positive for credits, negative for debits.
type Transaction struct {
	Timestamp    time.Time
	Kind         TransactionKind
	Type         string
	Counterparty string
	Amount       decimal.Decimal
	Balance      decimal.Decimal
}

// TypeLabel returns the display label for a transaction kind.
func TypeLabel(kind TransactionKind, counterparty string) string {
	switch kind {
	case TransactionKindOpened:
		return "Account opened"
	case TransactionKindDeposit:
		return "Deposit"
	case TransactionKindWithdraw:
		return "Withdraw"
	case TransactionKindTransferOut:
		return "Transfer to " + counterparty
	case TransactionKindTransferIn:
		return "Transfer from " + counterparty
	default:
		return string(kind)
	}
}

// history is a fixed-size ring of transactions. The oldest entry is
// overwritten once the ring is full.
type history struct {
	buf  []Transaction
	next int
	size int
}

func newHistory(capacity int) *history {
	return &history{buf: make([]Transaction, capacity)}
}

func (h *history) push(t Transaction) {
	h.buf[h.next] = t
	h.next = (h.next + 1) % len(h.buf)
	if h.size < len(h.buf) {
		h.size++
	}
}

// recent returns up to n entries, newest first.
func (h *history) recent(n int) []Transaction {
	if n > h.size {
		n = h.size
	}
	if n <= 0 {
		return []Transaction{}
	}

	out := make([]Transaction, n)
	for i := range n {
		idx := (h.next - 1 - i + len(h.buf)) % len(h.buf)
		out[i] = h.buf[idx]
	}
	return out
}

func (h *history) len() int {
	return h.size
}
