package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/iho/goatm/internal/adapter/repository/memory"
	"github.com/iho/goatm/internal/adapter/terminal"
	"github.com/iho/goatm/internal/domain"
	"github.com/iho/goatm/internal/infrastructure/config"
	"github.com/iho/goatm/internal/infrastructure/eventpublisher"
	"github.com/iho/goatm/internal/infrastructure/logger"
	"github.com/iho/goatm/internal/infrastructure/metrics"
	"github.com/iho/goatm/internal/usecase"
)

const shutdownTimeout = 5 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string

	rootCmd := &cobra.Command{
		Use:           "atm",
		Short:         "GoATM banking terminal",
		Long:          `An interactive ATM over an in-memory account registry.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, logLevel)
			if err != nil {
				return err
			}
			return a.runTerminal(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level, overrides LOG_LEVEL")

	accountsCmd := &cobra.Command{
		Use:   "accounts",
		Short: "List the seeded accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, logLevel)
			if err != nil {
				return err
			}
			return a.printAccounts(cmd.Context(), cmd.OutOrStdout())
		},
	}

	// Ledger commands
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	consistencyCmd := &cobra.Command{
		Use:   "consistency",
		Short: "Check ledger consistency",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, logLevel)
			if err != nil {
				return err
			}
			return a.checkConsistency(cmd.Context(), cmd.OutOrStdout())
		},
	}

	ledgerCmd.AddCommand(consistencyCmd)
	rootCmd.AddCommand(accountsCmd, ledgerCmd)

	return rootCmd
}

// app is the wired object graph shared by every command.
type app struct {
	cfg      *config.Config
	logger   zerolog.Logger
	registry *prometheus.Registry

	accountUC  *usecase.AccountUseCase
	transferUC *usecase.TransferUseCase
	ledgerUC   *usecase.LedgerUseCase
	publisher  *eventpublisher.EventPublisher
}

func newApp(cmd *cobra.Command, logLevel string) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}, cmd.ErrOrStderr())

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	// Initialize repositories
	accountRepo := memory.NewAccountRepository()
	outboxRepo := memory.NewOutboxRepository()
	idGen := memory.NewULIDGenerator()
	retrier := memory.NewRetrier(cfg.LockRetries, cfg.LockRetryInterval, log)

	// Initialize use cases
	accountUC := usecase.NewAccountUseCase(usecase.AccountConfig{
		AccountRepo:  accountRepo,
		OutboxRepo:   outboxRepo,
		IDGen:        idGen,
		Metrics:      m,
		Logger:       log,
		LockTimeout:  cfg.LockTimeout,
		HistoryCount: cfg.HistoryDefaultCount,
	})
	transferUC := usecase.NewTransferUseCase(usecase.TransferConfig{
		AccountRepo: accountRepo,
		OutboxRepo:  outboxRepo,
		IDGen:       idGen,
		Retrier:     retrier,
		Metrics:     m,
		Logger:      log,
		LockTimeout: cfg.LockTimeout,
	})
	ledgerUC := usecase.NewLedgerUseCase(accountRepo, log, cfg.LockTimeout)

	publisher := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: outboxRepo,
		Publisher:  eventpublisher.NewLogPublisher(log),
		Metrics:    m,
		Logger:     log,
		BatchSize:  cfg.EventBatchSize,
		Interval:   cfg.EventInterval,
	})

	for _, seed := range memory.DemoAccounts() {
		_, err := accountUC.OpenAccount(cmd.Context(), usecase.OpenAccountInput{
			Number:         seed.Number,
			PIN:            seed.PIN,
			Owner:          seed.Owner,
			InitialBalance: seed.Balance,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to seed account %s: %w", seed.Number, err)
		}
	}
	log.Debug().Int("accounts", len(memory.DemoAccounts())).Msg("registry seeded")

	return &app{
		cfg:        cfg,
		logger:     log,
		registry:   registry,
		accountUC:  accountUC,
		transferUC: transferUC,
		ledgerUC:   ledgerUC,
		publisher:  publisher,
	}, nil
}

// runTerminal serves one terminal session, then drains the outbox and
// writes metrics.
func (a *app) runTerminal(ctx context.Context, in io.Reader, out io.Writer) error {
	pubCtx, cancelPub := context.WithCancel(ctx)
	pubDone := make(chan struct{})
	go func() {
		defer close(pubDone)
		_ = a.publisher.Start(pubCtx)
	}()

	term := terminal.New(terminal.Config{
		AccountUC:  a.accountUC,
		TransferUC: a.transferUC,
		Logger:     a.logger,
		In:         in,
		Out:        out,
	})

	// A blocked read on in cannot be interrupted, so a signal ends the
	// session without waiting for the terminal goroutine.
	termDone := make(chan error, 1)
	go func() { termDone <- term.Run(ctx) }()

	var runErr error
	select {
	case runErr = <-termDone:
	case <-ctx.Done():
		a.logger.Info().Msg("interrupted, shutting down")
	}

	cancelPub()
	<-pubDone

	return a.shutdown(runErr)
}

func (a *app) shutdown(runErr error) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.publisher.Flush(ctx); err != nil {
		a.logger.Error().Err(err).Msg("failed to flush events")
	}

	if report, err := a.ledgerUC.CheckConsistency(ctx); err != nil {
		a.logger.Error().Err(err).Msg("ledger consistency check failed")
	} else {
		a.logger.Debug().
			Int("accounts", report.TotalAccounts).
			Str("total_balance", report.TotalBalance.StringFixed(domain.AmountPlaces)).
			Msg("ledger consistent")
	}

	if a.cfg.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(a.cfg.MetricsFile, a.registry); err != nil {
			a.logger.Error().Err(err).Str("file", a.cfg.MetricsFile).Msg("failed to write metrics")
		}
	}

	return runErr
}

func (a *app) printAccounts(ctx context.Context, out io.Writer) error {
	accounts, err := a.accountUC.ListAccounts(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NUMBER\tOWNER\tBALANCE")
	for _, acc := range accounts {
		fmt.Fprintf(w, "%s\t%s\t%s\n", acc.Number(), acc.Owner(), acc.Balance().StringFixed(domain.AmountPlaces))
	}
	return w.Flush()
}

func (a *app) checkConsistency(ctx context.Context, out io.Writer) error {
	report, err := a.ledgerUC.CheckConsistency(ctx)
	if err != nil {
		fmt.Fprintf(out, "Consistency check FAILED\n")
		return err
	}

	fmt.Fprintf(out, "Consistency check PASSED\n")
	fmt.Fprintf(out, "Accounts: %d\n", report.TotalAccounts)
	fmt.Fprintf(out, "Total balance: %s\n", report.TotalBalance.StringFixed(domain.AmountPlaces))
	return nil
}
