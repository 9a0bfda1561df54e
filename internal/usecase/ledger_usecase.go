package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/goatm/internal/domain"
)

var (
	// ErrInconsistentLedger is returned when an account balance disagrees with its history.
	ErrInconsistentLedger = errors.New("ledger is inconsistent: balance does not match history")
)

// LedgerUseCase handles checks that span every account.
type LedgerUseCase struct {
	accountRepo AccountRepository
	logger      zerolog.Logger
	lockTimeout time.Duration
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(accountRepo AccountRepository, logger zerolog.Logger, lockTimeout time.Duration) *LedgerUseCase {
	if lockTimeout <= 0 {
		lockTimeout = DefaultLockTimeout
	}

	return &LedgerUseCase{
		accountRepo: accountRepo,
		logger:      logger,
		lockTimeout: lockTimeout,
	}
}

// ReconciliationResult is the outcome of checking one account.
type ReconciliationResult struct {
	AccountNumber     string
	RecordedBalance   decimal.Decimal
	CalculatedBalance decimal.Decimal
	Difference        decimal.Decimal
	IsReconciled      bool
}

// LedgerReport is a point-in-time view of all accounts.
type LedgerReport struct {
	TotalAccounts      int
	ReconciledAccounts int
	TotalBalance       decimal.Decimal
	Discrepancies      []*ReconciliationResult
	CheckedAt          time.Time
}

// Consistent reports whether every account reconciled.
func (r *LedgerReport) Consistent() bool {
	return len(r.Discrepancies) == 0
}

// CheckConsistency locks every account in number order and reconciles each
// balance against its retained history. No transfer can be observed half
// applied while the report is taken. An inconsistent ledger returns the
// report together with ErrInconsistentLedger.
func (uc *LedgerUseCase) CheckConsistency(ctx context.Context) (*LedgerReport, error) {
	accounts, err := uc.accountRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	lockCtx, cancel := context.WithTimeout(ctx, uc.lockTimeout)
	defer cancel()

	unlock, err := domain.LockAll(lockCtx, accounts...)
	if err != nil {
		return nil, err
	}
	snapshots := make([]domain.Snapshot, 0, len(accounts))
	for _, account := range accounts {
		snapshots = append(snapshots, account.ReadLocked())
	}
	unlock()

	report := &LedgerReport{
		TotalAccounts: len(snapshots),
		TotalBalance:  decimal.Zero,
		Discrepancies: make([]*ReconciliationResult, 0),
		CheckedAt:     time.Now().UTC(),
	}

	for _, snapshot := range snapshots {
		result := ReconcileSnapshot(snapshot)
		report.TotalBalance = report.TotalBalance.Add(snapshot.Balance)
		if result.IsReconciled {
			report.ReconciledAccounts++
			continue
		}
		report.Discrepancies = append(report.Discrepancies, result)
		uc.logger.Error().
			Str("account", result.AccountNumber).
			Str("recorded", result.RecordedBalance.String()).
			Str("calculated", result.CalculatedBalance.String()).
			Msg("account does not reconcile")
	}

	if !report.Consistent() {
		return report, fmt.Errorf("%w: %d of %d accounts", ErrInconsistentLedger,
			len(report.Discrepancies), report.TotalAccounts)
	}

	return report, nil
}

// ReconcileSnapshot replays the retained history of one account. Each entry's
// balance must equal the previous balance plus its amount, the newest entry
// must carry the recorded balance, and the balance must not be negative.
func ReconcileSnapshot(s domain.Snapshot) *ReconciliationResult {
	result := &ReconciliationResult{
		AccountNumber:     s.Number,
		RecordedBalance:   s.Balance,
		CalculatedBalance: s.Balance,
		IsReconciled:      !s.Balance.IsNegative(),
	}

	if len(s.History) == 0 {
		return result
	}

	// History is newest first; walk it oldest first.
	oldest := s.History[len(s.History)-1]
	calculated := oldest.Balance
	for i := len(s.History) - 2; i >= 0; i-- {
		entry := s.History[i]
		calculated = calculated.Add(entry.Amount)
		if !calculated.Equal(entry.Balance) {
			result.IsReconciled = false
		}
	}

	result.CalculatedBalance = calculated
	result.Difference = s.Balance.Sub(calculated)
	if !result.Difference.IsZero() {
		result.IsReconciled = false
	}

	return result
}
