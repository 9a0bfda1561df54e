package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/goatm/internal/domain"
	"github.com/iho/goatm/internal/infrastructure/metrics"
)

// AccountUseCase handles single-account operations for an authenticated session.
type AccountUseCase struct {
	accountRepo  AccountRepository
	outboxRepo   OutboxRepository
	idGen        IDGenerator
	metrics      *metrics.Metrics
	logger       zerolog.Logger
	lockTimeout  time.Duration
	historyCount int
}

// AccountConfig holds the collaborators of an AccountUseCase.
type AccountConfig struct {
	AccountRepo  AccountRepository
	OutboxRepo   OutboxRepository
	IDGen        IDGenerator
	Metrics      *metrics.Metrics
	Logger       zerolog.Logger
	LockTimeout  time.Duration
	HistoryCount int
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(cfg AccountConfig) *AccountUseCase {
	if cfg.LockTimeout <= 0 {
		cfg.LockTimeout = DefaultLockTimeout
	}
	if cfg.HistoryCount <= 0 {
		cfg.HistoryCount = DefaultHistoryCount
	}

	return &AccountUseCase{
		accountRepo:  cfg.AccountRepo,
		outboxRepo:   cfg.OutboxRepo,
		idGen:        cfg.IDGen,
		metrics:      cfg.Metrics,
		logger:       cfg.Logger,
		lockTimeout:  cfg.LockTimeout,
		historyCount: cfg.HistoryCount,
	}
}

// OpenAccountInput represents input for opening an account at seeding time.
type OpenAccountInput struct {
	Number         string
	PIN            string
	Owner          string
	InitialBalance decimal.Decimal
}

// OpenAccount creates an account and adds it to the registry.
func (uc *AccountUseCase) OpenAccount(ctx context.Context, input OpenAccountInput) (*domain.Account, error) {
	account, err := domain.NewAccount(input.Number, input.PIN, input.Owner, input.InitialBalance)
	if err != nil {
		return nil, err
	}

	if err := uc.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.AccountsOpened.Inc()
	}

	opened := account.History(1)[0]
	uc.emit(ctx, account.Number(), domain.EventTypeAccountOpened,
		domain.NewAccountTransactionEvent(account.Number(), opened).Payload())

	return account, nil
}

// GetAccount looks up an account by number.
func (uc *AccountUseCase) GetAccount(ctx context.Context, number string) (*domain.Account, error) {
	return uc.accountRepo.GetByNumber(ctx, number)
}

// ListAccounts returns every registered account.
func (uc *AccountUseCase) ListAccounts(ctx context.Context) ([]*domain.Account, error) {
	return uc.accountRepo.List(ctx)
}

// Authenticate returns the account if pin matches. A lookup miss and a wrong
// PIN are reported as different errors.
func (uc *AccountUseCase) Authenticate(ctx context.Context, number, pin string) (*domain.Account, error) {
	account, err := uc.accountRepo.GetByNumber(ctx, number)
	if err != nil {
		uc.observeAuth("not_found")
		return nil, err
	}

	if !account.VerifyPin(pin) {
		uc.observeAuth("failure")
		uc.logger.Warn().Str("account", number).Msg("authentication failed")
		uc.emit(ctx, number, domain.EventTypeSessionAuthFailed, map[string]any{"account_number": number})
		return nil, domain.ErrAuthenticationFailed
	}

	uc.observeAuth("success")
	if uc.metrics != nil {
		uc.metrics.ActiveSessions.Inc()
	}
	uc.logger.Info().Str("account", number).Msg("session started")
	uc.emit(ctx, number, domain.EventTypeSessionAuthenticated, map[string]any{"account_number": number})

	return account, nil
}

// Logout ends the session of an authenticated account.
func (uc *AccountUseCase) Logout(_ context.Context, account *domain.Account) {
	if uc.metrics != nil {
		uc.metrics.ActiveSessions.Dec()
	}
	uc.logger.Info().Str("account", account.Number()).Msg("session ended")
}

// Balance returns the account's current balance.
func (uc *AccountUseCase) Balance(_ context.Context, account *domain.Account) decimal.Decimal {
	uc.observeOperation("balance", nil)
	return account.Balance()
}

// Deposit credits amount to account.
func (uc *AccountUseCase) Deposit(ctx context.Context, account *domain.Account, amount decimal.Decimal) (domain.Transaction, error) {
	lockCtx, cancel := context.WithTimeout(ctx, uc.lockTimeout)
	defer cancel()

	tx, err := account.Deposit(lockCtx, amount)
	uc.observeOperation("deposit", err)
	if err != nil {
		uc.logRejected("deposit", account, amount, err)
		return domain.Transaction{}, err
	}

	uc.logApplied("deposit", account, tx)
	uc.emit(ctx, account.Number(), domain.EventTypeAccountDeposited,
		domain.NewAccountTransactionEvent(account.Number(), tx).Payload())

	return tx, nil
}

// Withdraw debits amount from account.
func (uc *AccountUseCase) Withdraw(ctx context.Context, account *domain.Account, amount decimal.Decimal) (domain.Transaction, error) {
	lockCtx, cancel := context.WithTimeout(ctx, uc.lockTimeout)
	defer cancel()

	tx, err := account.Withdraw(lockCtx, amount)
	uc.observeOperation("withdraw", err)
	if err != nil {
		uc.logRejected("withdraw", account, amount, err)
		return domain.Transaction{}, err
	}

	uc.logApplied("withdraw", account, tx)
	uc.emit(ctx, account.Number(), domain.EventTypeAccountWithdrawn,
		domain.NewAccountTransactionEvent(account.Number(), tx).Payload())

	return tx, nil
}

// MiniStatement returns up to count recent transactions, newest first. A
// non-positive count uses the configured default.
func (uc *AccountUseCase) MiniStatement(_ context.Context, account *domain.Account, count int) []domain.Transaction {
	if count <= 0 {
		count = uc.historyCount
	}
	uc.observeOperation("mini_statement", nil)
	return account.History(count)
}

// DefaultHistoryCount returns the configured mini-statement length.
func (uc *AccountUseCase) DefaultHistoryCount() int {
	return uc.historyCount
}

// ChangePinInput represents input for changing a PIN.
type ChangePinInput struct {
	CurrentPIN string
	NewPIN     string
	ConfirmPIN string
}

// ChangePin re-authenticates with the current PIN, validates the new one and
// replaces it.
func (uc *AccountUseCase) ChangePin(ctx context.Context, account *domain.Account, input ChangePinInput) error {
	err := uc.changePin(account, input)
	uc.observeOperation("change_pin", err)
	if err != nil {
		uc.logger.Debug().Err(err).Str("account", account.Number()).Msg("PIN change rejected")
		return err
	}

	uc.logger.Info().Str("account", account.Number()).Msg("PIN changed")
	uc.emit(ctx, account.Number(), domain.EventTypeAccountPINChanged, map[string]any{"account_number": account.Number()})

	return nil
}

func (uc *AccountUseCase) changePin(account *domain.Account, input ChangePinInput) error {
	if !account.VerifyPin(input.CurrentPIN) {
		return domain.ErrAuthenticationFailed
	}
	if err := domain.ValidatePIN(input.NewPIN); err != nil {
		return err
	}
	if input.NewPIN != input.ConfirmPIN {
		return domain.ErrPINMismatch
	}

	account.ChangePin(input.NewPIN)
	return nil
}

func (uc *AccountUseCase) emit(ctx context.Context, number, eventType string, payload map[string]any) {
	if uc.outboxRepo == nil {
		return
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   number,
		AggregateType: domain.AggregateTypeAccount,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     time.Now().UTC(),
	}

	if err := uc.outboxRepo.Create(ctx, event); err != nil {
		uc.logger.Warn().Err(err).Str("event_type", eventType).Msg("failed to store account event")
	}
}

func (uc *AccountUseCase) observeAuth(status string) {
	if uc.metrics != nil {
		uc.metrics.AuthAttempts.WithLabelValues(status).Inc()
	}
}

func (uc *AccountUseCase) observeOperation(operation string, err error) {
	if uc.metrics == nil {
		return
	}

	status := "success"
	if err != nil {
		status = errorLabel(err)
	}
	uc.metrics.AccountOperations.WithLabelValues(operation, status).Inc()

	if errors.Is(err, domain.ErrLockTimeout) {
		uc.metrics.LockTimeouts.WithLabelValues(operation).Inc()
	}
}

func (uc *AccountUseCase) logApplied(operation string, account *domain.Account, tx domain.Transaction) {
	uc.logger.Info().
		Str("account", account.Number()).
		Str("operation", operation).
		Str("amount", tx.Amount.StringFixed(domain.AmountPlaces)).
		Str("balance", tx.Balance.StringFixed(domain.AmountPlaces)).
		Msg("transaction applied")
}

func (uc *AccountUseCase) logRejected(operation string, account *domain.Account, amount decimal.Decimal, err error) {
	uc.logger.Debug().Err(err).
		Str("account", account.Number()).
		Str("operation", operation).
		Str("amount", amount.String()).
		Msg("transaction rejected")
}
