package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/iho/goatm/internal/domain"
)

// AccountRepository is an in-memory account registry keyed by account number.
type AccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account
}

// NewAccountRepository creates an empty AccountRepository.
func NewAccountRepository() *AccountRepository {
	return &AccountRepository{
		accounts: make(map[string]*domain.Account),
	}
}

// Create registers an account. Account numbers are unique.
func (r *AccountRepository) Create(_ context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.accounts[account.Number()]; ok {
		return fmt.Errorf("%w: %s", domain.ErrAccountExists, account.Number())
	}
	r.accounts[account.Number()] = account
	return nil
}

// GetByNumber looks up an account.
func (r *AccountRepository) GetByNumber(_ context.Context, number string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.accounts[number]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return account, nil
}

// List returns all accounts ordered by number.
func (r *AccountRepository) List(_ context.Context) ([]*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	accounts := make([]*domain.Account, 0, len(r.accounts))
	for _, a := range r.accounts {
		accounts = append(accounts, a)
	}
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].Number() < accounts[j].Number()
	})
	return accounts, nil
}
