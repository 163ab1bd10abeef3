package gov

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Event type names published by the engine. Every mutation emits a fact
// carrying enough structured data to reconstruct full history without
// re-executing.
const (
	EventProposalCreated      = "proposal-created"
	EventVoteCast             = "vote-cast"
	EventProposalCanceled     = "proposal-canceled"
	EventProposalQueued       = "proposal-queued"
	EventProposalExecuted     = "proposal-executed"
	EventExecutionReconciled  = "execution-reconciled"
	EventRefundIssued         = "refund-issued"
	EventRefundTransferFailed = "refund-transfer-failed"
	EventParamChanged         = "param-changed"
	EventRoleGranted          = "role-granted"
	EventRoleRevoked          = "role-revoked"
	EventPaused               = "paused"
	EventUnpaused             = "unpaused"
)

// ProposalCreatedEvent is emitted when a proposal is recorded.
type ProposalCreatedEvent struct {
	ID           string
	Proposer     common.Address
	Type         ProposalType
	Deadline     time.Time
	SnapshotID   uint64
	StakedAmount *big.Int
}

// VoteCastEvent is emitted when a vote is recorded.
type VoteCastEvent struct {
	ID     string
	Voter  common.Address
	Choice VoteChoice
	Weight *big.Int
}

// ProposalCanceledEvent is emitted when a proposal is canceled.
type ProposalCanceledEvent struct {
	ID    string
	Actor common.Address
}

// ProposalQueuedEvent is emitted when a proposal enters the delay queue.
type ProposalQueuedEvent struct {
	ID     string
	Actor  common.Address
	Handle string
	ETA    time.Time
}

// ProposalExecutedEvent is emitted when a proposal is executed.
type ProposalExecutedEvent struct {
	ID    string
	Actor common.Address
}

// ExecutionReconciledEvent is emitted when the delay queue reports a handle
// executed that the engine had not yet marked executed. The proposal is
// marked executed locally without re-running its side effect; the event
// surfaces the divergence as an auditable anomaly.
type ExecutionReconciledEvent struct {
	ID     string
	Handle string
	Actor  common.Address
}

// RefundIssuedEvent is emitted when a stake refund is granted.
type RefundIssuedEvent struct {
	ID       string
	Proposer common.Address
	Amount   *big.Int
	Pct      uint64
	Outcome  Status
}

// RefundTransferFailedEvent is emitted when a refund transfer fails during
// execution. The failure never aborts the execution itself.
type RefundTransferFailedEvent struct {
	ID       string
	Proposer common.Address
	Amount   *big.Int
	Reason   string
}

// ParamChangedEvent is emitted when a governance parameter changes.
type ParamChangedEvent struct {
	Param ParamID
	Old   *big.Int
	New   *big.Int
	Actor common.Address
}

// RoleChangedEvent is emitted when a role is granted or revoked.
type RoleChangedEvent struct {
	Role    Role
	Account common.Address
	Actor   common.Address
}

// PauseEvent is emitted when the system is paused or unpaused.
type PauseEvent struct {
	Actor common.Address
}

// noopRecorder is substituted when no event recorder is configured.
type noopRecorder struct{}

func (noopRecorder) Emit(string, interface{}) {}
