package gov

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// ProposalType represents the type of a proposal
type ProposalType string

const (
	ProposalTypeGeneral               ProposalType = "general"
	ProposalTypeWithdrawal            ProposalType = "withdrawal"
	ProposalTypeTokenTransfer         ProposalType = "token_transfer"
	ProposalTypeGovernanceChange      ProposalType = "governance_change"
	ProposalTypeExternalTokenTransfer ProposalType = "external_token_transfer"
	ProposalTypeTokenMint             ProposalType = "token_mint"
	ProposalTypeTokenBurn             ProposalType = "token_burn"
	ProposalTypeSignaling             ProposalType = "signaling"
)

// VoteChoice represents a voter's position on a proposal
type VoteChoice int

const (
	VoteAgainst VoteChoice = iota
	VoteFor
	VoteAbstain
)

// String returns the human readable name of a vote choice.
func (c VoteChoice) String() string {
	switch c {
	case VoteAgainst:
		return "against"
	case VoteFor:
		return "for"
	case VoteAbstain:
		return "abstain"
	default:
		return "unknown"
	}
}

// Payload is the type-specific payload carried by a proposal. Each proposal
// type decodes to exactly one concrete payload type; a mismatch between the
// declared type and the concrete payload is a validation error.
type Payload interface {
	isPayload()
}

// CallPayload is the payload of a General proposal: an arbitrary call to an
// allow-listed target selector.
type CallPayload struct {
	Target common.Address
	Data   []byte
}

// TransferPayload is the payload of Withdrawal, TokenTransfer, TokenMint and
// TokenBurn proposals.
type TransferPayload struct {
	Recipient common.Address
	Amount    *big.Int
}

// ExternalTransferPayload is the payload of an ExternalTokenTransfer
// proposal.
type ExternalTransferPayload struct {
	Token     common.Address
	Recipient common.Address
	Amount    *big.Int
}

// ParamChangePayload is the payload of a GovernanceChange proposal. Each
// field is an optional delta; nil means the parameter is left unchanged. At
// least one delta must be set.
type ParamChangePayload struct {
	VotingDuration    *time.Duration
	Quorum            *big.Int
	StakeAmount       *big.Int
	ProposalThreshold *big.Int
}

func (CallPayload) isPayload()             {}
func (TransferPayload) isPayload()         {}
func (ExternalTransferPayload) isPayload() {}
func (ParamChangePayload) isPayload()      {}

// Proposal represents a governance proposal. Proposals are never deleted;
// the store keeps every proposal ever created as a permanent audit trail.
//
// The status flags (Executed, Canceled, StakeRefunded, Queued) are set-only.
// Once a flag is set it is never cleared; the current lifecycle status is
// derived from these flags rather than stored.
type Proposal struct {
	ID          string
	Proposer    common.Address
	Type        ProposalType
	Description string
	Payload     Payload

	CreatedAt  time.Time
	Deadline   time.Time
	SnapshotID uint64

	YesVotes     *big.Int
	NoVotes      *big.Int
	AbstainVotes *big.Int

	StakedAmount *big.Int

	Executed       bool
	Canceled       bool
	StakeRefunded  bool
	Queued         bool
	TimelockHandle string
}

// VoteRecord represents a recorded vote on a proposal. Existence of a record
// implies the voter has voted; the weight is fixed at recording time from the
// proposal's snapshot.
type VoteRecord struct {
	ProposalID string
	Voter      common.Address
	Choice     VoteChoice
	Weight     *big.Int
	Time       time.Time
}

// Role represents an access control role
type Role int

const (
	RoleAdmin Role = iota
	RoleGuardian
)

// String returns the human readable name of a role.
func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleGuardian:
		return "guardian"
	default:
		return "unknown"
	}
}

// Status represents the derived lifecycle status of a proposal
type Status int

const (
	StatusActive Status = iota
	StatusCanceled
	StatusExecuted
	StatusDefeated
	StatusSucceeded
	StatusQueued
	StatusExpired
)

// String returns the human readable name of a status.
func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusCanceled:
		return "canceled"
	case StatusExecuted:
		return "executed"
	case StatusDefeated:
		return "defeated"
	case StatusSucceeded:
		return "succeeded"
	case StatusQueued:
		return "queued"
	case StatusExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Terminal reports whether a status permits no further transitions.
func (s Status) Terminal() bool {
	switch s {
	case StatusCanceled, StatusExecuted, StatusDefeated, StatusExpired:
		return true
	default:
		return false
	}
}
