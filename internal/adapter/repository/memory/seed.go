package memory

import (
	"github.com/shopspring/decimal"
)

// SeedAccount describes an account created at startup.
type SeedAccount struct {
	Number  string
	PIN     string
	Owner   string
	Balance decimal.Decimal
}

// DemoAccounts is the registry the terminal starts with.
func DemoAccounts() []SeedAccount {
	return []SeedAccount{
		{Number: "1001", PIN: "1234", Owner: "Alice", Balance: decimal.RequireFromString("5000.00")},
		{Number: "1002", PIN: "2222", Owner: "Bob", Balance: decimal.RequireFromString("15000.50")},
		{Number: "1003", PIN: "3333", Owner: "Charlie", Balance: decimal.RequireFromString("250.75")},
	}
}
