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

// TransferUseCase moves funds between two accounts as one atomic step.
type TransferUseCase struct {
	accountRepo AccountRepository
	outboxRepo  OutboxRepository
	idGen       IDGenerator
	retrier     Retrier
	metrics     *metrics.Metrics
	logger      zerolog.Logger
	lockTimeout time.Duration
}

// TransferConfig holds the collaborators of a TransferUseCase.
type TransferConfig struct {
	AccountRepo AccountRepository
	OutboxRepo  OutboxRepository
	IDGen       IDGenerator
	Retrier     Retrier // optional, attempts once when nil
	Metrics     *metrics.Metrics
	Logger      zerolog.Logger
	LockTimeout time.Duration
}

// NewTransferUseCase creates a new TransferUseCase.
func NewTransferUseCase(cfg TransferConfig) *TransferUseCase {
	if cfg.LockTimeout <= 0 {
		cfg.LockTimeout = DefaultLockTimeout
	}

	return &TransferUseCase{
		accountRepo: cfg.AccountRepo,
		outboxRepo:  cfg.OutboxRepo,
		idGen:       cfg.IDGen,
		retrier:     cfg.Retrier,
		metrics:     cfg.Metrics,
		logger:      cfg.Logger,
		lockTimeout: cfg.LockTimeout,
	}
}

// CreateTransferInput represents input for creating a transfer.
type CreateTransferInput struct {
	FromAccount string
	ToAccount   string
	Amount      decimal.Decimal
}

// CreateTransfer resolves both account numbers and executes the transfer.
func (uc *TransferUseCase) CreateTransfer(ctx context.Context, input CreateTransferInput) (*domain.Transfer, error) {
	if input.FromAccount == input.ToAccount {
		uc.observeError(domain.ErrSelfTransfer)
		return nil, domain.ErrSelfTransfer
	}

	source, err := uc.accountRepo.GetByNumber(ctx, input.FromAccount)
	if err != nil {
		uc.observeError(err)
		return nil, err
	}

	destination, err := uc.accountRepo.GetByNumber(ctx, input.ToAccount)
	if err != nil {
		uc.observeError(err)
		return nil, err
	}

	return uc.Execute(ctx, source, destination, input.Amount)
}

// Execute debits source and credits destination while holding both account
// locks. Either both history records are written or neither is.
func (uc *TransferUseCase) Execute(ctx context.Context, source, destination *domain.Account, amount decimal.Decimal) (*domain.Transfer, error) {
	start := time.Now()

	transfer := &domain.Transfer{
		FromAccount: source.Number(),
		ToAccount:   destination.Number(),
		Amount:      amount,
	}

	// 0. Validate before touching any lock
	if source == destination {
		uc.observeError(domain.ErrSelfTransfer)
		return nil, domain.ErrSelfTransfer
	}
	if err := transfer.Validate(); err != nil {
		uc.observeError(err)
		return nil, err
	}
	if err := domain.ValidateAmount(amount); err != nil {
		uc.observeError(err)
		return nil, err
	}

	// 1. Lock both accounts in global order, apply both halves
	apply := func() error {
		return uc.applyLocked(ctx, source, destination, amount)
	}

	var err error
	if uc.retrier != nil {
		err = uc.retrier.Retry(ctx, apply)
	} else {
		err = apply()
	}
	if err != nil {
		uc.observeError(err)
		uc.logger.Debug().Err(err).
			Str("from", transfer.FromAccount).
			Str("to", transfer.ToAccount).
			Str("amount", amount.StringFixed(domain.AmountPlaces)).
			Msg("transfer rejected")
		return nil, err
	}

	transfer.ID = uc.idGen.Generate()
	transfer.CreatedAt = time.Now().UTC()

	// 2. Publish after the locks are released
	uc.emit(ctx, transfer)

	if uc.metrics != nil {
		uc.metrics.TransfersCreated.Inc()
		uc.metrics.TransferDuration.Observe(time.Since(start).Seconds())
		uc.metrics.TransferAmount.Observe(amount.InexactFloat64())
	}

	uc.logger.Info().
		Str("transfer_id", transfer.ID).
		Str("from", transfer.FromAccount).
		Str("to", transfer.ToAccount).
		Str("amount", amount.StringFixed(domain.AmountPlaces)).
		Msg("transfer completed")

	return transfer, nil
}

// applyLocked runs one attempt of the transfer. A failure to take the
// second lock releases the first before returning.
func (uc *TransferUseCase) applyLocked(ctx context.Context, source, destination *domain.Account, amount decimal.Decimal) error {
	lockCtx, cancel := context.WithTimeout(ctx, uc.lockTimeout)
	defer cancel()

	first, second := domain.LockOrder(source, destination)

	if err := first.Lock(lockCtx); err != nil {
		return err
	}
	defer first.Unlock()

	if err := second.Lock(lockCtx); err != nil {
		return err
	}
	defer second.Unlock()

	if _, err := source.TransferOut(amount, destination.Number()); err != nil {
		return err
	}
	destination.TransferIn(amount, source.Number())

	return nil
}

func (uc *TransferUseCase) emit(ctx context.Context, transfer *domain.Transfer) {
	if uc.outboxRepo == nil {
		return
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   transfer.ID,
		AggregateType: domain.AggregateTypeTransfer,
		EventType:     domain.EventTypeTransferCreated,
		Payload: domain.TransferCreatedEvent{
			TransferID:  transfer.ID,
			FromAccount: transfer.FromAccount,
			ToAccount:   transfer.ToAccount,
			Amount:      transfer.Amount.StringFixed(domain.AmountPlaces),
		}.Payload(),
		CreatedAt: transfer.CreatedAt,
	}

	if err := uc.outboxRepo.Create(ctx, event); err != nil {
		uc.logger.Warn().Err(err).Str("transfer_id", transfer.ID).Msg("failed to store transfer event")
	}
}

func (uc *TransferUseCase) observeError(err error) {
	if uc.metrics == nil {
		return
	}

	label := errorLabel(err)
	uc.metrics.TransferErrors.WithLabelValues(label).Inc()
	if errors.Is(err, domain.ErrLockTimeout) {
		uc.metrics.LockTimeouts.WithLabelValues("transfer").Inc()
	}
}

// errorLabel maps an error to a low-cardinality metric label.
func errorLabel(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, domain.ErrSelfTransfer):
		return "self_transfer"
	case errors.Is(err, domain.ErrAccountNotFound):
		return "account_not_found"
	case errors.Is(err, domain.ErrAuthenticationFailed):
		return "authentication_failed"
	case errors.Is(err, domain.ErrLockTimeout):
		return "lock_timeout"
	default:
		return "internal"
	}
}
