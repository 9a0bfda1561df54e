package domain

import (
	"context"
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Account is a bank account with a balance, a PIN and a bounded history.
//
// All mutable state is guarded by a single-slot semaphore so that lock
// acquisition can be bounded by a context. Deposit, Withdraw, Balance and
// History take the lock themselves. TransferOut and TransferIn expect the
// caller to hold it, which lets a coordinator lock two accounts in a fixed
// order and apply both halves of a transfer as one step.
type Account struct {
	number string
	owner  string
	sem    chan struct{}

	pin     string
	balance decimal.Decimal
	history *history
	now     func() time.Time
}

// NewAccount opens an account with an initial balance and records an
// "Account opened" entry.
func NewAccount(number, pin, owner string, initial decimal.Decimal) (*Account, error) {
	if initial.IsNegative() {
		return nil, fmt.Errorf("%w: initial balance cannot be negative", ErrInvalidAmount)
	}
	if !initial.Equal(initial.Round(AmountPlaces)) {
		return nil, fmt.Errorf("%w: at most %d fraction digits allowed", ErrInvalidAmount, AmountPlaces)
	}

	a := &Account{
		number:  number,
		owner:   owner,
		sem:     make(chan struct{}, 1),
		pin:     pin,
		balance: initial,
		history: newHistory(HistoryCapacity),
		now:     func() time.Time { return time.Now().UTC() },
	}
	a.record(TransactionKindOpened, "", initial)

	return a, nil
}

// Number returns the account number.
func (a *Account) Number() string { return a.number }

// Owner returns the owner's display name.
func (a *Account) Owner() string { return a.owner }

// Lock acquires exclusive access to the account. It gives up when ctx is
// done and returns an error wrapping ErrLockTimeout.
func (a *Account) Lock(ctx context.Context) error {
	select {
	case a.sem <- struct{}{}:
		return nil
	default:
	}

	select {
	case a.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: account %s: %w", ErrLockTimeout, a.number, ctx.Err())
	}
}

// Unlock releases the lock taken by Lock.
func (a *Account) Unlock() {
	<-a.sem
}

// VerifyPin reports whether attempt matches the stored PIN.
func (a *Account) VerifyPin(attempt string) bool {
	a.sem <- struct{}{}
	defer a.Unlock()

	return subtle.ConstantTimeCompare([]byte(a.pin), []byte(attempt)) == 1
}

// ChangePin replaces the PIN. The caller re-authenticates and validates the
// format beforehand.
func (a *Account) ChangePin(newPin string) {
	a.sem <- struct{}{}
	defer a.Unlock()

	a.pin = newPin
}

// Balance returns the current balance.
func (a *Account) Balance() decimal.Decimal {
	a.sem <- struct{}{}
	defer a.Unlock()

	return a.balance
}

// History returns up to count of the most recent transactions, newest first.
// Only retained entries are returned.
func (a *Account) History(count int) []Transaction {
	a.sem <- struct{}{}
	defer a.Unlock()

	return a.history.recent(count)
}

// Snapshot is a consistent view of an account.
type Snapshot struct {
	Number  string
	Owner   string
	Balance decimal.Decimal
	History []Transaction
}

// Snapshot returns the balance together with the full retained history.
func (a *Account) Snapshot() Snapshot {
	a.sem <- struct{}{}
	defer a.Unlock()

	return a.ReadLocked()
}

// ReadLocked is Snapshot for a caller that already holds the lock.
func (a *Account) ReadLocked() Snapshot {
	return Snapshot{
		Number:  a.number,
		Owner:   a.owner,
		Balance: a.balance,
		History: a.history.recent(a.history.len()),
	}
}

// Deposit credits amount to the account.
func (a *Account) Deposit(ctx context.Context, amount decimal.Decimal) (Transaction, error) {
	if err := ValidateAmount(amount); err != nil {
		return Transaction{}, err
	}

	if err := a.Lock(ctx); err != nil {
		return Transaction{}, err
	}
	defer a.Unlock()

	return a.credit(TransactionKindDeposit, "", amount), nil
}

// Withdraw debits amount from the account if the balance covers it.
func (a *Account) Withdraw(ctx context.Context, amount decimal.Decimal) (Transaction, error) {
	if err := ValidateAmount(amount); err != nil {
		return Transaction{}, err
	}

	if err := a.Lock(ctx); err != nil {
		return Transaction{}, err
	}
	defer a.Unlock()

	return a.debit(TransactionKindWithdraw, "", amount)
}

// TransferOut is the debit half of a transfer to account to. The caller must
// hold the lock. The counterparty is not touched.
func (a *Account) TransferOut(amount decimal.Decimal, to string) (Transaction, error) {
	if err := ValidateAmount(amount); err != nil {
		return Transaction{}, err
	}

	return a.debit(TransactionKindTransferOut, to, amount)
}

// TransferIn is the credit half of a transfer from account from. The caller
// must hold the lock and must have debited the source with TransferOut.
func (a *Account) TransferIn(amount decimal.Decimal, from string) Transaction {
	return a.credit(TransactionKindTransferIn, from, amount)
}

// ValidateDebit checks if the account can be debited by amount. The caller
// must hold the lock for the result to stay valid.
func (a *Account) ValidateDebit(amount decimal.Decimal) error {
	if amount.GreaterThan(a.balance) {
		return fmt.Errorf("%w: balance %s, requested %s", ErrInsufficientFunds,
			a.balance.StringFixed(AmountPlaces), amount.StringFixed(AmountPlaces))
	}
	return nil
}

func (a *Account) debit(kind TransactionKind, counterparty string, amount decimal.Decimal) (Transaction, error) {
	if err := a.ValidateDebit(amount); err != nil {
		return Transaction{}, err
	}

	a.balance = a.balance.Sub(amount)
	return a.record(kind, counterparty, amount.Neg()), nil
}

func (a *Account) credit(kind TransactionKind, counterparty string, amount decimal.Decimal) Transaction {
	a.balance = a.balance.Add(amount)
	return a.record(kind, counterparty, amount)
}

func (a *Account) record(kind TransactionKind, counterparty string, amount decimal.Decimal) Transaction {
	t := Transaction{
		Timestamp:    a.now(),
		Kind:         kind,
		Type:         TypeLabel(kind, counterparty),
		Counterparty: counterparty,
		Amount:       amount,
		Balance:      a.balance,
	}
	a.history.push(t)
	return t
}
