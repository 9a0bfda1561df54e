package terminal_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/goatm/internal/adapter/repository/memory"
	"github.com/iho/goatm/internal/adapter/terminal"
	"github.com/iho/goatm/internal/usecase"
)

type fixture struct {
	accountUC *usecase.AccountUseCase
	out       *bytes.Buffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	repo := memory.NewAccountRepository()
	idGen := memory.NewULIDGenerator()
	accountUC := usecase.NewAccountUseCase(usecase.AccountConfig{
		AccountRepo: repo,
		IDGen:       idGen,
		Logger:      zerolog.Nop(),
	})
	for _, seed := range memory.DemoAccounts() {
		_, err := accountUC.OpenAccount(context.Background(), usecase.OpenAccountInput{
			Number:         seed.Number,
			PIN:            seed.PIN,
			Owner:          seed.Owner,
			InitialBalance: seed.Balance,
		})
		require.NoError(t, err)
	}

	return &fixture{accountUC: accountUC, out: &bytes.Buffer{}}
}

func (f *fixture) run(t *testing.T, lines ...string) string {
	t.Helper()

	transferUC := usecase.NewTransferUseCase(usecase.TransferConfig{
		IDGen:       memory.NewULIDGenerator(),
		Logger:      zerolog.Nop(),
	})
	term := terminal.New(terminal.Config{
		AccountUC:  f.accountUC,
		TransferUC: transferUC,
		Logger:     zerolog.Nop(),
		In:         strings.NewReader(strings.Join(lines, "\n") + "\n"),
		Out:        f.out,
	})

	require.NoError(t, term.Run(context.Background()))
	return f.out.String()
}

func (f *fixture) balance(t *testing.T, number string) decimal.Decimal {
	t.Helper()

	acc, err := f.accountUC.GetAccount(context.Background(), number)
	require.NoError(t, err)
	return acc.Balance()
}

func TestTerminal_FullSession(t *testing.T) {
	f := newFixture(t)

	out := f.run(t,
		"1", "1001", "1234",
		"1",
		"2", "200",
		"3", "100",
		"4", "1002", "100",
		"5", "3",
		"6", "1234", "4321", "4321",
		"7",
		"2",
	)

	assert.Contains(t, out, "=== Welcome to GoATM ===")
	assert.Contains(t, out, "Login successful. Welcome, Alice!")
	assert.Contains(t, out, "Current balance: 5000.00")
	assert.Contains(t, out, "Deposited 200.00. New balance: 5200.00")
	assert.Contains(t, out, "Withdrawn 100.00. New balance: 5100.00")
	assert.Contains(t, out, "Transferred 100.00 to 1002. New balance: 5000.00")
	assert.Contains(t, out, "--- Mini-statement ---")
	assert.Contains(t, out, "| Transfer to 1002   |   -100.00 | Bal:  5000.00")
	assert.Contains(t, out, "| Withdraw           |   -100.00 | Bal:  5100.00")
	assert.Contains(t, out, "| Deposit            |    200.00 | Bal:  5200.00")
	assert.NotContains(t, out, "Account opened")
	assert.Contains(t, out, "PIN changed successfully.")
	assert.Contains(t, out, "Logged out: Alice")
	assert.True(t, strings.HasSuffix(out, "Goodbye!\n"))

	assert.True(t, f.balance(t, "1001").Equal(decimal.RequireFromString("5000")))
	assert.True(t, f.balance(t, "1002").Equal(decimal.RequireFromString("15100.50")))

	acc, err := f.accountUC.Authenticate(context.Background(), "1001", "4321")
	require.NoError(t, err)
	assert.Equal(t, "Alice", acc.Owner())
}

func TestTerminal_Messages(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  []string
	}{
		{
			name:  "unknown account",
			lines: []string{"1", "9999", "2"},
			want:  []string{"Account not found."},
		},
		{
			name:  "wrong pin",
			lines: []string{"1", "1001", "0000", "2"},
			want:  []string{"Incorrect PIN."},
		},
		{
			name:  "invalid login choice",
			lines: []string{"9", "2"},
			want:  []string{"Invalid choice. Try again.", "Goodbye!"},
		},
		{
			name:  "invalid menu choice",
			lines: []string{"1", "1001", "1234", "0", "7", "2"},
			want:  []string{"Invalid choice. Try again.", "Logged out: Alice"},
		},
		{
			name:  "invalid deposit amounts",
			lines: []string{"1", "1001", "1234", "2", "abc", "2", "-5", "2", "0.004", "7", "2"},
			want:  []string{"Invalid amount."},
		},
		{
			name:  "deposit rounds half up",
			lines: []string{"1", "1003", "3333", "2", "1.005", "7", "2"},
			want:  []string{"Deposited 1.01. New balance: 251.76"},
		},
		{
			name:  "withdraw more than balance",
			lines: []string{"1", "1003", "3333", "3", "250.76", "7", "2"},
			want:  []string{"Withdrawal failed. Check balance or amount."},
		},
		{
			name:  "self transfer",
			lines: []string{"1", "1001", "1234", "4", "1001", "7", "2"},
			want:  []string{"Cannot transfer to same account."},
		},
		{
			name:  "unknown destination",
			lines: []string{"1", "1001", "1234", "4", "9999", "7", "2"},
			want:  []string{"Destination account not found."},
		},
		{
			name:  "transfer more than balance",
			lines: []string{"1", "1003", "3333", "4", "1001", "1000", "7", "2"},
			want:  []string{"Transfer failed. Check balance or amount."},
		},
		{
			name:  "mini statement with unparsable count",
			lines: []string{"1", "1002", "2222", "5", "x", "7", "2"},
			want:  []string{"(default 5)", "| Account opened     |  15000.50 | Bal: 15000.50"},
		},
		{
			name:  "wrong current pin",
			lines: []string{"1", "1001", "1234", "6", "9999", "7", "2"},
			want:  []string{"Incorrect current PIN."},
		},
		{
			name:  "invalid new pin",
			lines: []string{"1", "1001", "1234", "6", "1234", "12345", "7", "2"},
			want:  []string{"Invalid PIN format."},
		},
		{
			name:  "pin confirmation mismatch",
			lines: []string{"1", "1001", "1234", "6", "1234", "1111", "2222", "7", "2"},
			want:  []string{"PINs do not match."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			out := f.run(t, tt.lines...)

			for _, want := range tt.want {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestTerminal_RejectionsLeaveStateUnchanged(t *testing.T) {
	f := newFixture(t)

	f.run(t,
		"1", "1003", "3333",
		"2", "0",
		"3", "1000",
		"4", "1003",
		"4", "1001", "-1",
		"4", "1001", "251",
		"7", "2",
	)

	assert.True(t, f.balance(t, "1003").Equal(decimal.RequireFromString("250.75")))
	assert.True(t, f.balance(t, "1001").Equal(decimal.RequireFromString("5000")))

	acc, err := f.accountUC.GetAccount(context.Background(), "1003")
	require.NoError(t, err)
	assert.Len(t, acc.History(20), 1)
}

func TestTerminal_EndOfInput(t *testing.T) {
	f := newFixture(t)

	// Input ends in the middle of a logged-in session.
	out := f.run(t, "1", "1001", "1234", "2")

	assert.Contains(t, out, "Enter amount to deposit: ")
	assert.NotContains(t, out, "Goodbye!")
	assert.True(t, f.balance(t, "1001").Equal(decimal.RequireFromString("5000")))
}
