// Package token implements the token ledger collaborator: balances,
// transfers, mint/burn and frozen voting-power snapshots.
package token

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrInsufficientBalance represents insufficient token balance error
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrSnapshotNotFound indicates an unknown snapshot id
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// ErrInvalidAmount indicates a nil or negative amount
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrTokenNotFound indicates an unregistered external token
	ErrTokenNotFound = errors.New("token not registered")
)

// Ledger holds token balances and voting-power snapshots. Snapshots are
// frozen copies of the balance table; a snapshot's voting powers never
// change after creation, isolating in-flight votes from later balance
// movements.
type Ledger struct {
	balances     map[common.Address]*big.Int
	snapshots    map[uint64]map[common.Address]*big.Int
	nextSnapshot uint64
	mutex        sync.RWMutex
}

// NewLedger creates a new token ledger.
func NewLedger() *Ledger {
	return &Ledger{
		balances:  make(map[common.Address]*big.Int),
		snapshots: make(map[uint64]map[common.Address]*big.Int),
	}
}

// BalanceOf returns the balance of an account.
func (l *Ledger) BalanceOf(account common.Address) (*big.Int, error) {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	if balance, exists := l.balances[account]; exists {
		return new(big.Int).Set(balance), nil
	}
	return big.NewInt(0), nil
}

// SetBalance sets the balance of an account. Used for genesis allocations.
func (l *Ledger) SetBalance(account common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}

	l.mutex.Lock()
	defer l.mutex.Unlock()

	l.balances[account] = new(big.Int).Set(amount)
	return nil
}

// Transfer transfers tokens from one account to another.
func (l *Ledger) Transfer(from, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}

	l.mutex.Lock()
	defer l.mutex.Unlock()

	fromBalance, exists := l.balances[from]
	if !exists {
		fromBalance = big.NewInt(0)
	}
	if fromBalance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s has %v, needs %v", ErrInsufficientBalance, from, fromBalance, amount)
	}

	toBalance, exists := l.balances[to]
	if !exists {
		toBalance = big.NewInt(0)
	}

	l.balances[from] = new(big.Int).Sub(fromBalance, amount)
	l.balances[to] = new(big.Int).Add(toBalance, amount)

	log.Debugf("Transfer %v from %s to %s", amount, from, to)
	return nil
}

// Mint creates new tokens for an account.
func (l *Ledger) Mint(to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}

	l.mutex.Lock()
	defer l.mutex.Unlock()

	balance, exists := l.balances[to]
	if !exists {
		balance = big.NewInt(0)
	}
	l.balances[to] = new(big.Int).Add(balance, amount)

	log.Debugf("Minted %v to %s", amount, to)
	return nil
}

// Burn destroys tokens held by an account.
func (l *Ledger) Burn(from common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}

	l.mutex.Lock()
	defer l.mutex.Unlock()

	balance, exists := l.balances[from]
	if !exists {
		balance = big.NewInt(0)
	}
	if balance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s has %v, burning %v", ErrInsufficientBalance, from, balance, amount)
	}
	l.balances[from] = new(big.Int).Sub(balance, amount)

	log.Debugf("Burned %v from %s", amount, from)
	return nil
}

// TotalSupply returns the total supply of tokens.
func (l *Ledger) TotalSupply() (*big.Int, error) {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	total := big.NewInt(0)
	for _, balance := range l.balances {
		total.Add(total, balance)
	}
	return total, nil
}

// CreateSnapshot freezes the current balance table and returns its id.
func (l *Ledger) CreateSnapshot() (uint64, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	l.nextSnapshot++
	frozen := make(map[common.Address]*big.Int, len(l.balances))
	for account, balance := range l.balances {
		frozen[account] = new(big.Int).Set(balance)
	}
	l.snapshots[l.nextSnapshot] = frozen

	log.Debugf("Created snapshot %d (%d accounts)", l.nextSnapshot, len(frozen))
	return l.nextSnapshot, nil
}

// EffectiveVotingPower returns an account's voting power at a snapshot.
func (l *Ledger) EffectiveVotingPower(account common.Address, snapshot uint64) (*big.Int, error) {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	frozen, exists := l.snapshots[snapshot]
	if !exists {
		return nil, fmt.Errorf("%w: %d", ErrSnapshotNotFound, snapshot)
	}
	if power, exists := frozen[account]; exists {
		return new(big.Int).Set(power), nil
	}
	return big.NewInt(0), nil
}

// Registry maps external token addresses to their ledgers.
type Registry struct {
	tokens map[common.Address]*Ledger
	mutex  sync.RWMutex
}

// NewRegistry creates a new external token registry.
func NewRegistry() *Registry {
	return &Registry{
		tokens: make(map[common.Address]*Ledger),
	}
}

// Register registers a token ledger under an address.
func (r *Registry) Register(token common.Address, ledger *Ledger) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.tokens[token] = ledger
}

// Lookup resolves a token address to its ledger.
func (r *Registry) Lookup(token common.Address) (*Ledger, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if ledger, exists := r.tokens[token]; exists {
		return ledger, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrTokenNotFound, token)
}
