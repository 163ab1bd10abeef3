package gov

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// TokenLedger defines the token collaborator surface consumed by the engine.
type TokenLedger interface {
	// BalanceOf returns the current balance of an account
	BalanceOf(account common.Address) (*big.Int, error)

	// Transfer moves tokens between accounts
	Transfer(from, to common.Address, amount *big.Int) error

	// Mint creates new tokens for an account
	Mint(to common.Address, amount *big.Int) error

	// Burn destroys tokens held by an account
	Burn(from common.Address, amount *big.Int) error

	// CreateSnapshot freezes the current voting power table and returns
	// its id
	CreateSnapshot() (uint64, error)

	// EffectiveVotingPower returns an account's voting power at a snapshot
	EffectiveVotingPower(account common.Address, snapshot uint64) (*big.Int, error)
}

// TokenResolver resolves an external token address to its ledger. Used by
// ExternalTokenTransfer proposals.
type TokenResolver func(token common.Address) (TokenLedger, error)

// QueuedState represents the delay queue's own state for a queued call
type QueuedState int

const (
	QueuedStatePending QueuedState = iota
	QueuedStateExecuted
	QueuedStateCanceled
	QueuedStateExpired
)

// QueuedCall is the delay queue's reported status for a handle.
type QueuedCall struct {
	Target common.Address
	Value  *big.Int
	Data   []byte
	ETA    time.Time
	State  QueuedState
}

// DelayQueue defines the delay-queue collaborator surface consumed by the
// engine. The queue independently classifies the risk of a submitted call
// and assigns its mandatory execution delay.
type DelayQueue interface {
	// QueueWithRiskClassification submits a call and returns an opaque handle
	QueueWithRiskClassification(target common.Address, value *big.Int, data []byte) (string, error)

	// Execute dispatches a queued call; fails if the call is not ready or
	// was already executed
	Execute(handle string) error

	// Cancel cancels a queued call
	Cancel(handle string) error

	// Status returns the queue's view of a handle
	Status(handle string) (*QueuedCall, error)

	// GracePeriod returns the window after ETA during which a call stays
	// executable
	GracePeriod() time.Duration
}

// CallDispatcher performs the arbitrary call carried by a General proposal.
type CallDispatcher interface {
	Call(target common.Address, data []byte) error
}

// ProposalStore defines methods for storing proposals and vote records. The
// store is append-only: proposals are never deleted and vote records are
// never overwritten.
type ProposalStore interface {
	SaveProposal(proposal *Proposal) error
	GetProposal(id string) (*Proposal, error)
	ListProposals() ([]*Proposal, error)
	UpdateProposal(id string, update func(*Proposal) error) error

	SaveVote(vote *VoteRecord) error
	GetVote(id string, voter common.Address) (*VoteRecord, error)
	ListVotes(id string) ([]*VoteRecord, error)
	VoteCount(id string) (int, error)
}

// EventRecorder publishes structured governance facts for observers.
type EventRecorder interface {
	Emit(event string, data interface{})
}

// Clock supplies the current time. Tests substitute a fixed clock.
type Clock func() time.Time
