// Package terminal drives the menu-based ATM session over a line-oriented
// reader and writer.
package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/goatm/internal/domain"
	"github.com/iho/goatm/internal/usecase"
)

// Terminal is one interactive ATM session. At most one account is logged in
// at a time.
type Terminal struct {
	accountUC  *usecase.AccountUseCase
	transferUC *usecase.TransferUseCase
	logger     zerolog.Logger

	in  *bufio.Scanner
	out io.Writer

	current *domain.Account
}

// Config holds the collaborators of a Terminal.
type Config struct {
	AccountUC  *usecase.AccountUseCase
	TransferUC *usecase.TransferUseCase
	Logger     zerolog.Logger
	In         io.Reader
	Out        io.Writer
}

// New creates a new Terminal.
func New(cfg Config) *Terminal {
	return &Terminal{
		accountUC:  cfg.AccountUC,
		transferUC: cfg.TransferUC,
		logger:     cfg.Logger,
		in:         bufio.NewScanner(cfg.In),
		out:        cfg.Out,
	}
}

// errExit ends the loop after the customer chose Exit.
var errExit = errors.New("exit")

// Run reads choices until the customer exits or input ends. End of input is
// not an error.
func (t *Terminal) Run(ctx context.Context) error {
	t.println("=== Welcome to GoATM ===")

	for {
		if err := ctx.Err(); err != nil {
			t.endSession(ctx)
			return err
		}

		var err error
		if t.current == nil {
			err = t.loginMenu(ctx)
		} else {
			err = t.mainMenu(ctx)
		}

		switch {
		case err == nil:
		case errors.Is(err, errExit):
			return nil
		case errors.Is(err, io.EOF):
			t.logger.Debug().Msg("input closed, ending session")
			t.endSession(ctx)
			return nil
		default:
			t.endSession(ctx)
			return err
		}
	}
}

func (t *Terminal) loginMenu(ctx context.Context) error {
	t.println("\n1) Login\n2) Exit")
	choice, err := t.prompt("Choose: ")
	if err != nil {
		return err
	}

	switch choice {
	case "1":
		return t.loginFlow(ctx)
	case "2":
		t.println("Goodbye!")
		return errExit
	default:
		t.println("Invalid choice. Try again.")
		return nil
	}
}

func (t *Terminal) loginFlow(ctx context.Context) error {
	number, err := t.prompt("Enter account number: ")
	if err != nil {
		return err
	}
	if _, err := t.accountUC.GetAccount(ctx, number); err != nil {
		t.println("Account not found.")
		return nil
	}

	pin, err := t.prompt("Enter 4-digit PIN: ")
	if err != nil {
		return err
	}

	account, err := t.accountUC.Authenticate(ctx, number, pin)
	switch {
	case errors.Is(err, domain.ErrAccountNotFound):
		t.println("Account not found.")
	case err != nil:
		t.println("Incorrect PIN.")
	default:
		t.current = account
		t.printf("Login successful. Welcome, %s!\n", account.Owner())
	}
	return nil
}

func (t *Terminal) mainMenu(ctx context.Context) error {
	t.println("\n--- Main Menu ---")
	t.println("1) View Balance")
	t.println("2) Deposit")
	t.println("3) Withdraw")
	t.println("4) Transfer")
	t.println("5) Mini-statement")
	t.println("6) Change PIN")
	t.println("7) Logout")
	choice, err := t.prompt("Choose: ")
	if err != nil {
		return err
	}

	switch choice {
	case "1":
		t.viewBalance(ctx)
		return nil
	case "2":
		return t.depositFlow(ctx)
	case "3":
		return t.withdrawFlow(ctx)
	case "4":
		return t.transferFlow(ctx)
	case "5":
		return t.miniStatementFlow(ctx)
	case "6":
		return t.changePinFlow(ctx)
	case "7":
		t.logout(ctx)
		return nil
	default:
		t.println("Invalid choice. Try again.")
		return nil
	}
}

func (t *Terminal) viewBalance(ctx context.Context) {
	t.printf("Current balance: %s\n", formatAmount(t.accountUC.Balance(ctx, t.current)))
}

func (t *Terminal) depositFlow(ctx context.Context) error {
	amount, ok, err := t.promptAmount("Enter amount to deposit: ")
	if err != nil || !ok {
		return err
	}

	tx, err := t.accountUC.Deposit(ctx, t.current, amount)
	if err != nil {
		t.println(mapDomainError(opDeposit, err))
		return nil
	}
	t.printf("Deposited %s. New balance: %s\n", formatAmount(amount), formatAmount(tx.Balance))
	return nil
}

func (t *Terminal) withdrawFlow(ctx context.Context) error {
	amount, ok, err := t.promptAmount("Enter amount to withdraw: ")
	if err != nil || !ok {
		return err
	}

	tx, err := t.accountUC.Withdraw(ctx, t.current, amount)
	if err != nil {
		t.println(mapDomainError(opWithdraw, err))
		return nil
	}
	t.printf("Withdrawn %s. New balance: %s\n", formatAmount(amount), formatAmount(tx.Balance))
	return nil
}

func (t *Terminal) transferFlow(ctx context.Context) error {
	number, err := t.prompt("Enter destination account number: ")
	if err != nil {
		return err
	}
	if number == t.current.Number() {
		t.println(mapDomainError(opTransfer, domain.ErrSelfTransfer))
		return nil
	}

	destination, err := t.accountUC.GetAccount(ctx, number)
	if err != nil {
		t.println(mapDomainError(opTransfer, err))
		return nil
	}

	amount, ok, err := t.promptAmount("Enter amount to transfer: ")
	if err != nil || !ok {
		return err
	}

	if _, err := t.transferUC.Execute(ctx, t.current, destination, amount); err != nil {
		t.println(mapDomainError(opTransfer, err))
		return nil
	}
	t.printf("Transferred %s to %s. New balance: %s\n",
		formatAmount(amount), destination.Number(), formatAmount(t.accountUC.Balance(ctx, t.current)))
	return nil
}

func (t *Terminal) miniStatementFlow(ctx context.Context) error {
	def := t.accountUC.DefaultHistoryCount()
	input, err := t.prompt(fmt.Sprintf("How many recent transactions? (default %d): ", def))
	if err != nil {
		return err
	}

	history := t.accountUC.MiniStatement(ctx, t.current, domain.ValidateHistoryCount(input, def))
	t.println("\n--- Mini-statement ---")
	if len(history) == 0 {
		t.println("No transactions.")
		return nil
	}
	for _, tx := range history {
		t.println(formatTransaction(tx))
	}
	return nil
}

func (t *Terminal) changePinFlow(ctx context.Context) error {
	current, err := t.prompt("Enter current PIN: ")
	if err != nil {
		return err
	}
	if !t.current.VerifyPin(current) {
		t.println("Incorrect current PIN.")
		return nil
	}

	newPIN, err := t.prompt("Enter new 4-digit PIN: ")
	if err != nil {
		return err
	}
	if domain.ValidatePIN(newPIN) != nil {
		t.println("Invalid PIN format.")
		return nil
	}

	confirm, err := t.prompt("Confirm new PIN: ")
	if err != nil {
		return err
	}

	err = t.accountUC.ChangePin(ctx, t.current, usecase.ChangePinInput{
		CurrentPIN: current,
		NewPIN:     newPIN,
		ConfirmPIN: confirm,
	})
	switch {
	case errors.Is(err, domain.ErrPINMismatch):
		t.println("PINs do not match.")
	case errors.Is(err, domain.ErrAuthenticationFailed):
		t.println("Incorrect current PIN.")
	case errors.Is(err, domain.ErrInvalidPIN):
		t.println("Invalid PIN format.")
	case err != nil:
		t.println("PIN change failed.")
	default:
		t.println("PIN changed successfully.")
	}
	return nil
}

func (t *Terminal) logout(ctx context.Context) {
	t.printf("Logged out: %s\n", t.current.Owner())
	t.endSession(ctx)
}

// endSession clears the logged-in account without printing anything.
func (t *Terminal) endSession(ctx context.Context) {
	if t.current == nil {
		return
	}
	t.accountUC.Logout(ctx, t.current)
	t.current = nil
}

// promptAmount reads an amount. ok is false when the input was rejected and
// the message has already been shown.
func (t *Terminal) promptAmount(label string) (amount decimal.Decimal, ok bool, err error) {
	input, err := t.prompt(label)
	if err != nil {
		return decimal.Zero, false, err
	}

	amount, err = domain.ParseAmount(input)
	if err != nil {
		t.println("Invalid amount.")
		return decimal.Zero, false, nil
	}
	return amount, true, nil
}

// prompt writes label and returns the next trimmed input line. It returns
// io.EOF once input is exhausted.
func (t *Terminal) prompt(label string) (string, error) {
	fmt.Fprint(t.out, label)

	if !t.in.Scan() {
		if err := t.in.Err(); err != nil {
			return "", err
		}
		t.println("")
		return "", io.EOF
	}
	return strings.TrimSpace(t.in.Text()), nil
}

func (t *Terminal) println(s string) {
	fmt.Fprintln(t.out, s)
}

func (t *Terminal) printf(format string, args ...any) {
	fmt.Fprintf(t.out, format, args...)
}
