package domain

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Transfer represents a completed money movement between two accounts.
type Transfer struct {
	CreatedAt   time.Time
	ID          string
	FromAccount string
	ToAccount   string
	Amount      decimal.Decimal
}

// Validate validates transfer request.
func (t *Transfer) Validate() error {
	if t.FromAccount == t.ToAccount {
		return ErrSelfTransfer
	}

	if t.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	return nil
}

// LockOrder returns a and b ordered by account number. Every operation that
// holds two account locks acquires them in this order.
func LockOrder(a, b *Account) (first, second *Account) {
	if a.Number() <= b.Number() {
		return a, b
	}
	return b, a
}

// LockAll locks every distinct account in ascending number order and returns
// a function that releases them in reverse. If any acquisition fails, the
// locks already taken are released before the error is returned.
func LockAll(ctx context.Context, accounts ...*Account) (unlock func(), err error) {
	ordered := make([]*Account, 0, len(accounts))
	seen := make(map[*Account]bool, len(accounts))
	for _, a := range accounts {
		if !seen[a] {
			seen[a] = true
			ordered = append(ordered, a)
		}
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Number() < ordered[j].Number()
	})

	release := func(held []*Account) {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}

	for i, a := range ordered {
		if err := a.Lock(ctx); err != nil {
			release(ordered[:i])
			return nil, err
		}
	}

	return func() { release(ordered) }, nil
}
