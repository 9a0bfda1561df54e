package domain

import "time"

// Event types
const (
	EventTypeAccountOpened        = "account.opened"
	EventTypeAccountDeposited     = "account.deposited"
	EventTypeAccountWithdrawn     = "account.withdrawn"
	EventTypeAccountPINChanged    = "account.pin_changed"
	EventTypeSessionAuthenticated = "session.authenticated"
	EventTypeSessionAuthFailed    = "session.authentication_failed"
	EventTypeTransferCreated      = "transfer.created"
)

// Aggregate types
const (
	AggregateTypeAccount  = "account"
	AggregateTypeTransfer = "transfer"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// TransferCreatedEvent payload
type TransferCreatedEvent struct {
	TransferID  string `json:"transfer_id"`
	FromAccount string `json:"from_account"`
	ToAccount   string `json:"to_account"`
	Amount      string `json:"amount"`
}

// AccountTransactionEvent payload for deposits, withdrawals and openings
type AccountTransactionEvent struct {
	AccountNumber string `json:"account_number"`
	Type          string `json:"type"`
	Amount        string `json:"amount"`
	Balance       string `json:"balance"`
}

// Payload flattens the event into the outbox payload map.
func (e TransferCreatedEvent) Payload() map[string]any {
	return map[string]any{
		"transfer_id":  e.TransferID,
		"from_account": e.FromAccount,
		"to_account":   e.ToAccount,
		"amount":       e.Amount,
	}
}

// Payload flattens the event into the outbox payload map.
func (e AccountTransactionEvent) Payload() map[string]any {
	return map[string]any{
		"account_number": e.AccountNumber,
		"type":           e.Type,
		"amount":         e.Amount,
		"balance":        e.Balance,
	}
}

// NewAccountTransactionEvent builds the payload for a single-account transaction.
func NewAccountTransactionEvent(number string, t Transaction) AccountTransactionEvent {
	return AccountTransactionEvent{
		AccountNumber: number,
		Type:          t.Type,
		Amount:        t.Amount.StringFixed(AmountPlaces),
		Balance:       t.Balance.StringFixed(AmountPlaces),
	}
}
