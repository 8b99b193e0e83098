package terminal

import (
	"sync"

	"github.com/transit-ticketing-service/internal/pkg/errors"
)

// MemoryWallet is a thread-safe in-memory Wallet.
type MemoryWallet struct {
	mu      sync.Mutex
	balance int
}

func NewMemoryWallet(initial int) *MemoryWallet {
	return &MemoryWallet{balance: initial}
}

func (w *MemoryWallet) Balance() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.balance
}

func (w *MemoryWallet) HasFunds(amount int) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.balance >= amount
}

func (w *MemoryWallet) Deduct(amount int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.balance < amount {
		return errors.ErrInsufficientFunds
	}
	w.balance -= amount
	return nil
}

func (w *MemoryWallet) Deposit(amount int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.balance += amount
}
