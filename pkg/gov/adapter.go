package gov

import (
	"crypto/sha256"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/asthmajoy/govcore/pkg/timelock"
)

// CallSelector returns the self-callback selector for a proposal type. The
// selector prefixes the queued call data so the delay queue can classify
// risk per proposal type without understanding governance semantics.
func CallSelector(proposalType ProposalType) [SelectorSize]byte {
	sum := sha256.Sum256([]byte("executeProposalLogic/" + string(proposalType)))
	var selector [SelectorSize]byte
	copy(selector[:], sum[:SelectorSize])
	return selector
}

// EncodeExecutePayload encodes the self-callback payload submitted to the
// delay queue: the type selector followed by the proposal id.
func EncodeExecutePayload(proposalType ProposalType, id string) []byte {
	selector := CallSelector(proposalType)
	return append(selector[:], []byte(id)...)
}

// DecodeExecutePayload decodes a self-callback payload back into the
// proposal id it carries.
func DecodeExecutePayload(data []byte) (string, error) {
	if len(data) <= SelectorSize {
		return "", fmt.Errorf("%w: callback payload too short", ErrInvalidPayload)
	}
	var selector [SelectorSize]byte
	copy(selector[:], data)
	for _, t := range []ProposalType{
		ProposalTypeGeneral, ProposalTypeWithdrawal, ProposalTypeTokenTransfer,
		ProposalTypeGovernanceChange, ProposalTypeExternalTokenTransfer,
		ProposalTypeTokenMint, ProposalTypeTokenBurn, ProposalTypeSignaling,
	} {
		if CallSelector(t) == selector {
			return string(data[SelectorSize:]), nil
		}
	}
	return "", fmt.Errorf("%w: unknown callback selector %x", ErrInvalidPayload, selector)
}

// QueueAdapter bridges the engine to a timelock queue, translating lifecycle
// transitions into queue operations and queue state back into the engine's
// view.
type QueueAdapter struct {
	queue *timelock.Queue
}

// NewQueueAdapter creates an adapter over a timelock queue.
func NewQueueAdapter(queue *timelock.Queue) *QueueAdapter {
	return &QueueAdapter{queue: queue}
}

// QueueWithRiskClassification submits a call to the timelock.
func (a *QueueAdapter) QueueWithRiskClassification(target common.Address, value *big.Int, data []byte) (string, error) {
	handle, err := a.queue.QueueWithRiskClassification(target, value, data)
	if err != nil {
		return "", errors.Wrap(err, "timelock queue")
	}
	return handle, nil
}

// Execute dispatches a queued call.
func (a *QueueAdapter) Execute(handle string) error {
	return a.queue.Execute(handle)
}

// Cancel cancels a queued call.
func (a *QueueAdapter) Cancel(handle string) error {
	return errors.Wrap(a.queue.Cancel(handle), "timelock cancel")
}

// Status returns the timelock's view of a handle.
func (a *QueueAdapter) Status(handle string) (*QueuedCall, error) {
	call, err := a.queue.Status(handle)
	if err != nil {
		return nil, errors.Wrap(err, "timelock status")
	}
	var state QueuedState
	switch call.State {
	case timelock.StateExecuted:
		state = QueuedStateExecuted
	case timelock.StateCanceled:
		state = QueuedStateCanceled
	case timelock.StateExpired:
		state = QueuedStateExpired
	default:
		state = QueuedStatePending
	}
	return &QueuedCall{
		Target: call.Target,
		Value:  call.Value,
		Data:   call.Data,
		ETA:    call.ETA,
		State:  state,
	}, nil
}

// GracePeriod returns the timelock's grace period.
func (a *QueueAdapter) GracePeriod() time.Duration {
	return a.queue.GracePeriod()
}

// Dispatcher routes timelock dispatches back into the engine. The timelock
// calls Dispatch under its own identity when a queued governance
// self-callback becomes ready.
type Dispatcher struct {
	engine   *Engine
	identity common.Address
}

// NewDispatcher creates a dispatcher that invokes the engine under the
// given timelock identity.
func NewDispatcher(engine *Engine, identity common.Address) *Dispatcher {
	return &Dispatcher{engine: engine, identity: identity}
}

// Dispatch decodes a queued self-callback and runs the proposal's execution
// logic under the timelock's identity.
func (d *Dispatcher) Dispatch(target common.Address, value *big.Int, data []byte) error {
	if target != d.engine.Self() {
		return fmt.Errorf("%w: dispatch target %s is not the engine", ErrInvalidPayload, target)
	}
	id, err := DecodeExecutePayload(data)
	if err != nil {
		return err
	}
	return d.engine.ExecuteProposalLogic(d.identity, id)
}
