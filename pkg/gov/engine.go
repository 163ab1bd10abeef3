package gov

import (
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

// Config configures the governance engine.
type Config struct {
	// Self is the engine's own identity. Escrowed stakes and treasury
	// funds are held under this address.
	Self common.Address

	// Admin is the initial admin. The engine is never left without one.
	Admin common.Address

	// Params are the initial governance parameters.
	Params ParamsConfig

	// AllowedSelectors is the allow-list of call selectors for General
	// proposals. A General proposal whose call data does not start with
	// one of these selectors is rejected at creation.
	AllowedSelectors [][SelectorSize]byte
}

// Engine is the governance decision engine. It accepts proposals, runs
// token-weighted voting, escrows proposer stakes, routes approved proposals
// through the delay queue, executes them exactly once and settles stake
// refunds according to outcome.
//
// Every mutating entry point runs under a call-scoped guard: while one
// mutating call is in flight any other mutating call fails with
// ErrReentrantCall instead of blocking. The single sanctioned reentry is the
// Execute -> delay queue -> ExecuteProposalLogic callback, admitted through
// an armed gate scoped to the initiating Execute call.
type Engine struct {
	mu    sync.Mutex
	busy  bool
	armed string

	self             common.Address
	store            ProposalStore
	token            TokenLedger
	treasury         TokenLedger
	resolve          TokenResolver
	caller           CallDispatcher
	dq               DelayQueue
	dqIdentity       common.Address
	params           *Params
	access           *AccessList
	events           EventRecorder
	now              Clock
	allowedSelectors map[[SelectorSize]byte]bool
}

// NewEngine creates a new governance engine. The token ledger holds the
// governance token used for stakes and voting power; the treasury ledger
// holds the native funds moved by Withdrawal proposals.
func NewEngine(cfg Config, token TokenLedger, treasury TokenLedger, store ProposalStore) (*Engine, error) {
	if token == nil || treasury == nil || store == nil {
		return nil, fmt.Errorf("token ledger, treasury ledger and store are required")
	}
	params, err := NewParams(cfg.Params)
	if err != nil {
		return nil, err
	}

	selectors := make(map[[SelectorSize]byte]bool, len(cfg.AllowedSelectors))
	for _, sel := range cfg.AllowedSelectors {
		selectors[sel] = true
	}

	return &Engine{
		self:             cfg.Self,
		store:            store,
		token:            token,
		treasury:         treasury,
		params:           params,
		access:           NewAccessList(cfg.Admin),
		events:           noopRecorder{},
		now:              time.Now,
		allowedSelectors: selectors,
	}, nil
}

// SetEventRecorder sets the recorder that receives governance facts.
func (e *Engine) SetEventRecorder(recorder EventRecorder) {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	e.events = recorder
}

// SetClock overrides the engine's time source.
func (e *Engine) SetClock(clock Clock) {
	e.now = clock
}

// SetCallDispatcher sets the dispatcher that performs General proposal calls.
func (e *Engine) SetCallDispatcher(dispatcher CallDispatcher) {
	e.caller = dispatcher
}

// SetTokenResolver sets the resolver for external token ledgers.
func (e *Engine) SetTokenResolver(resolver TokenResolver) {
	e.resolve = resolver
}

// BindDelayQueue binds the delay queue collaborator and the identity it
// calls back under. The identity is the privileged "self" actor: it may
// invoke ExecuteProposalLogic and the admin-or-timelock entry points.
func (e *Engine) BindDelayQueue(dq DelayQueue, identity common.Address) {
	e.dq = dq
	e.dqIdentity = identity
}

// Self returns the engine's own identity.
func (e *Engine) Self() common.Address {
	return e.self
}

// enter acquires the call-scoped guard. It fails rather than blocks when
// another mutating call, including a reentrant one, is in flight.
func (e *Engine) enter() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.busy {
		return ErrReentrantCall
	}
	e.busy = true
	return nil
}

func (e *Engine) leave() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.busy = false
	e.armed = ""
}

func (e *Engine) arm(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.armed = id
}

func (e *Engine) isArmed(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.armed == id
}

// CreateProposal creates a new proposal. The proposer's stake is escrowed
// before the proposal is recorded; if the escrow transfer fails no proposal
// is recorded.
func (e *Engine) CreateProposal(proposer common.Address, proposalType ProposalType, payload Payload, description string) (string, error) {
	if err := e.enter(); err != nil {
		return "", err
	}
	defer e.leave()

	if e.access.Paused() {
		return "", ErrPaused
	}
	if err := e.validatePayload(proposalType, payload); err != nil {
		return "", err
	}

	balance, err := e.token.BalanceOf(proposer)
	if err != nil {
		return "", fmt.Errorf("balance of %s: %w", proposer, err)
	}
	threshold := e.params.ProposalThreshold()
	if balance.Cmp(threshold) < 0 {
		return "", fmt.Errorf("%w: balance %v below proposal threshold %v",
			ErrInsufficientBalance, balance, threshold)
	}

	// Escrow the stake. Nothing has been recorded yet, so a failed
	// transfer leaves no trace of the proposal.
	stake := e.params.StakeAmount()
	if err := e.token.Transfer(proposer, e.self, stake); err != nil {
		return "", fmt.Errorf("%w: stake escrow: %v", ErrTransferFailed, err)
	}

	// The snapshot follows the escrow, so the proposer's voting weight
	// excludes the staked amount.
	snapshot, err := e.token.CreateSnapshot()
	if err != nil {
		if refundErr := e.token.Transfer(e.self, proposer, stake); refundErr != nil {
			log.Errorf("Failed to unwind stake escrow for %s: %v", proposer, refundErr)
		}
		return "", fmt.Errorf("snapshot: %w", err)
	}

	now := e.now()
	proposal := &Proposal{
		ID:           uuid.New().String(),
		Proposer:     proposer,
		Type:         proposalType,
		Description:  description,
		Payload:      payload,
		CreatedAt:    now,
		Deadline:     now.Add(e.params.VotingDuration()),
		SnapshotID:   snapshot,
		YesVotes:     big.NewInt(0),
		NoVotes:      big.NewInt(0),
		AbstainVotes: big.NewInt(0),
		StakedAmount: stake,
	}

	if err := e.store.SaveProposal(proposal); err != nil {
		// Unwind the escrow so a store failure stays atomic.
		if refundErr := e.token.Transfer(e.self, proposer, stake); refundErr != nil {
			log.Errorf("Failed to unwind stake escrow for %s: %v", proposer, refundErr)
		}
		return "", fmt.Errorf("save proposal: %w", err)
	}

	log.Infof("Proposal %s created by %s (type %s, deadline %s)",
		proposal.ID, proposer, proposalType, proposal.Deadline)
	e.events.Emit(EventProposalCreated, ProposalCreatedEvent{
		ID:           proposal.ID,
		Proposer:     proposer,
		Type:         proposalType,
		Deadline:     proposal.Deadline,
		SnapshotID:   snapshot,
		StakedAmount: new(big.Int).Set(stake),
	})

	return proposal.ID, nil
}

// CastVote casts a vote on a proposal and returns the weight recorded. The
// weight is read from the token collaborator at the proposal's snapshot and
// is fixed at recording time. Any failure leaves no partial record.
func (e *Engine) CastVote(voter common.Address, id string, choice VoteChoice) (*big.Int, error) {
	if err := e.enter(); err != nil {
		return nil, err
	}
	defer e.leave()

	if e.access.Paused() {
		return nil, ErrPaused
	}
	switch choice {
	case VoteFor, VoteAgainst, VoteAbstain:
	default:
		return nil, fmt.Errorf("%w: unknown vote choice %d", ErrInvalidPayload, choice)
	}

	proposal, err := e.store.GetProposal(id)
	if err != nil {
		return nil, err
	}
	if proposal.Canceled || proposal.Executed {
		return nil, fmt.Errorf("%w: proposal %s is terminal", ErrWrongState, id)
	}
	now := e.now()
	if !now.Before(proposal.Deadline) {
		return nil, ErrVotingClosed
	}
	if record, err := e.store.GetVote(id, voter); err != nil {
		return nil, err
	} else if record != nil {
		return nil, ErrAlreadyVoted
	}

	weight, err := e.token.EffectiveVotingPower(voter, proposal.SnapshotID)
	if err != nil {
		return nil, fmt.Errorf("voting power at snapshot %d: %w", proposal.SnapshotID, err)
	}
	if weight.Sign() == 0 {
		return nil, ErrNoVotingPower
	}

	if err := e.store.SaveVote(&VoteRecord{
		ProposalID: id,
		Voter:      voter,
		Choice:     choice,
		Weight:     weight,
		Time:       now,
	}); err != nil {
		return nil, err
	}
	if err := e.store.UpdateProposal(id, func(p *Proposal) error {
		switch choice {
		case VoteFor:
			p.YesVotes.Add(p.YesVotes, weight)
		case VoteAgainst:
			p.NoVotes.Add(p.NoVotes, weight)
		case VoteAbstain:
			p.AbstainVotes.Add(p.AbstainVotes, weight)
		default:
			return fmt.Errorf("%w: unknown vote choice %d", ErrInvalidPayload, choice)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	log.Debugf("Vote on %s by %s: %s weight %v", id, voter, choice, weight)
	e.events.Emit(EventVoteCast, VoteCastEvent{
		ID:     id,
		Voter:  voter,
		Choice: choice,
		Weight: new(big.Int).Set(weight),
	})

	return new(big.Int).Set(weight), nil
}

// Cancel cancels a proposal. The proposer may cancel only while the
// proposal is Active and before any vote has been cast; a Guardian may
// cancel unconditionally while the proposal is Active, Succeeded or Queued.
// Cancellation is terminal and blocks all further votes, queueing and
// execution. Cancel stays available while the system is paused: it is the
// Guardian's emergency brake.
func (e *Engine) Cancel(id string, caller common.Address) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.leave()

	proposal, err := e.store.GetProposal(id)
	if err != nil {
		return err
	}
	status, err := DeriveStatus(proposal, e.now(), e.params.Quorum(), e.dq)
	if err != nil {
		return err
	}

	switch {
	case e.access.HasRole(RoleGuardian, caller):
		if status != StatusActive && status != StatusSucceeded && status != StatusQueued {
			return fmt.Errorf("%w: cannot cancel %s proposal", ErrWrongState, status)
		}
	case caller == proposal.Proposer:
		if status != StatusActive {
			return fmt.Errorf("%w: cannot cancel %s proposal", ErrWrongState, status)
		}
		count, err := e.store.VoteCount(id)
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrVotesAlreadyCast
		}
	default:
		return ErrNotAuthorized
	}

	if err := e.store.UpdateProposal(id, func(p *Proposal) error {
		p.Canceled = true
		return nil
	}); err != nil {
		return err
	}

	// The local cancel flag is committed before the collaborator call; a
	// delay queue failure leaves the proposal canceled either way.
	if proposal.Queued && e.dq != nil {
		if err := e.dq.Cancel(proposal.TimelockHandle); err != nil {
			log.Warnf("Delay queue cancel of handle %s failed: %v", proposal.TimelockHandle, err)
		}
	}

	log.Infof("Proposal %s canceled by %s", id, caller)
	e.events.Emit(EventProposalCanceled, ProposalCanceledEvent{ID: id, Actor: caller})
	return nil
}

// Queue moves a Succeeded proposal into the delay queue. The queue
// classifies the risk of the submitted self-callback and assigns its delay;
// the returned handle is stored on the proposal.
func (e *Engine) Queue(id string, caller common.Address) (string, error) {
	if err := e.enter(); err != nil {
		return "", err
	}
	defer e.leave()

	if e.access.Paused() {
		return "", ErrPaused
	}

	proposal, err := e.store.GetProposal(id)
	if err != nil {
		return "", err
	}
	status, err := DeriveStatus(proposal, e.now(), e.params.Quorum(), e.dq)
	if err != nil {
		return "", err
	}
	if status != StatusSucceeded {
		return "", fmt.Errorf("%w: cannot queue %s proposal", ErrWrongState, status)
	}
	if e.dq == nil {
		return "", ErrDelayQueueNotConfigured
	}

	data := EncodeExecutePayload(proposal.Type, id)
	handle, err := e.dq.QueueWithRiskClassification(e.self, big.NewInt(0), data)
	if err != nil {
		return "", fmt.Errorf("%w: queue: %v", ErrDelayQueue, err)
	}

	if err := e.store.UpdateProposal(id, func(p *Proposal) error {
		p.Queued = true
		p.TimelockHandle = handle
		return nil
	}); err != nil {
		return "", err
	}

	var eta time.Time
	if call, err := e.dq.Status(handle); err == nil {
		eta = call.ETA
	}

	log.Infof("Proposal %s queued by %s (handle %s, eta %s)", id, caller, handle, eta)
	e.events.Emit(EventProposalQueued, ProposalQueuedEvent{
		ID:     id,
		Actor:  caller,
		Handle: handle,
		ETA:    eta,
	})

	return handle, nil
}

// Execute executes a queued proposal once its delay has elapsed. Callable by
// anyone. The actual side effect runs inside ExecuteProposalLogic under the
// delay queue's identity; exactly-once execution is enforced there, never
// here.
//
// Re-invoking Execute on an already-Executed proposal is a no-op. If the
// delay queue already reports the handle executed while the local flag is
// unset, the proposal is marked executed locally without re-running the side
// effect, and the divergence is surfaced as an ExecutionReconciled anomaly
// event.
func (e *Engine) Execute(id string, caller common.Address) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.leave()

	if e.access.Paused() {
		return ErrPaused
	}

	proposal, err := e.store.GetProposal(id)
	if err != nil {
		return err
	}
	if proposal.Executed {
		// Idempotent no-op.
		return nil
	}
	status, err := DeriveStatus(proposal, e.now(), e.params.Quorum(), e.dq)
	if err != nil {
		return err
	}

	if status == StatusExecuted {
		// The delay queue executed the handle on its own sweep. Reconcile
		// the local flag and settle the refund without re-running the
		// side effect.
		if err := e.store.UpdateProposal(id, func(p *Proposal) error {
			p.Executed = true
			return nil
		}); err != nil {
			return err
		}
		log.Warnf("Proposal %s reconciled as executed from delay queue handle %s",
			id, proposal.TimelockHandle)
		e.events.Emit(EventExecutionReconciled, ExecutionReconciledEvent{
			ID:     id,
			Handle: proposal.TimelockHandle,
			Actor:  caller,
		})
		e.events.Emit(EventProposalExecuted, ProposalExecutedEvent{ID: id, Actor: caller})
		e.settleExecutionRefund(id)
		return nil
	}
	if status != StatusQueued {
		return fmt.Errorf("%w: cannot execute %s proposal", ErrNotExecutable, status)
	}

	// Admit the delay queue's synchronous callback through the guard for
	// this proposal only.
	e.arm(id)
	return e.dq.Execute(proposal.TimelockHandle)
}

// ExecuteProposalLogic runs a proposal's type-specific side effect. It is
// callable only by the bound delay queue, either as the synchronous callback
// of Execute or directly from the queue's own sweep.
func (e *Engine) ExecuteProposalLogic(caller common.Address, id string) error {
	if e.dq == nil {
		return ErrDelayQueueNotConfigured
	}
	if caller != e.dqIdentity {
		return ErrNotTimelock
	}

	if e.isArmed(id) {
		return e.executeLogic(id)
	}

	if err := e.enter(); err != nil {
		return err
	}
	defer e.leave()
	if e.access.Paused() {
		return ErrPaused
	}
	return e.executeLogic(id)
}

// executeLogic performs the execution in checks-effects-interactions order:
// the executed flag is committed before any external call so a reentrant
// callback observes the proposal as already executed. If the side effect
// itself fails the call aborts with the flag retained; that asymmetry is
// deliberate, it is what closes the double-execution window.
func (e *Engine) executeLogic(id string) error {
	proposal, err := e.store.GetProposal(id)
	if err != nil {
		return err
	}
	if proposal.Executed {
		return fmt.Errorf("%w: proposal %s already executed", ErrNotExecutable, id)
	}
	if !proposal.Queued {
		return fmt.Errorf("%w: proposal %s was never queued", ErrNotExecutable, id)
	}

	if err := e.store.UpdateProposal(id, func(p *Proposal) error {
		p.Executed = true
		return nil
	}); err != nil {
		return err
	}

	if err := e.applyEffect(proposal); err != nil {
		log.Errorf("Side effect of proposal %s failed: %v", id, err)
		return err
	}

	log.Infof("Proposal %s executed", id)
	e.events.Emit(EventProposalExecuted, ProposalExecutedEvent{ID: id, Actor: e.dqIdentity})

	// Refund failures are logged, never escalated; execution has already
	// happened and must stand.
	e.settleExecutionRefund(id)
	return nil
}

// settleExecutionRefund grants the one-time full stake refund after a
// successful execution.
func (e *Engine) settleExecutionRefund(id string) {
	proposal, err := e.store.GetProposal(id)
	if err != nil {
		log.Errorf("Refund lookup for proposal %s failed: %v", id, err)
		return
	}
	if proposal.StakeRefunded {
		return
	}
	if err := e.store.UpdateProposal(id, func(p *Proposal) error {
		p.StakeRefunded = true
		return nil
	}); err != nil {
		log.Errorf("Refund flag update for proposal %s failed: %v", id, err)
		return
	}

	if err := e.token.Transfer(e.self, proposal.Proposer, proposal.StakedAmount); err != nil {
		log.Warnf("Stake refund of %v to %s for proposal %s failed: %v",
			proposal.StakedAmount, proposal.Proposer, id, err)
		e.events.Emit(EventRefundTransferFailed, RefundTransferFailedEvent{
			ID:       id,
			Proposer: proposal.Proposer,
			Amount:   new(big.Int).Set(proposal.StakedAmount),
			Reason:   err.Error(),
		})
		return
	}

	e.events.Emit(EventRefundIssued, RefundIssuedEvent{
		ID:       id,
		Proposer: proposal.Proposer,
		Amount:   new(big.Int).Set(proposal.StakedAmount),
		Pct:      100,
		Outcome:  StatusExecuted,
	})
}

// ClaimPartialRefund settles the partial stake refund of a Defeated,
// Canceled or Expired proposal. Only the original proposer may claim, at
// most once; the percentage is read from the current parameter value, not
// the value at creation. The refunded flag is set before the transfer so a
// reentrant claim cannot double refund.
//
// Refund claims stay available while the system is paused: stake recovery
// is a funds-safety path and must not be freezable.
func (e *Engine) ClaimPartialRefund(id string, caller common.Address) (*big.Int, error) {
	if err := e.enter(); err != nil {
		return nil, err
	}
	defer e.leave()

	proposal, err := e.store.GetProposal(id)
	if err != nil {
		return nil, err
	}
	if caller != proposal.Proposer {
		return nil, ErrNotAuthorized
	}
	if proposal.StakeRefunded {
		return nil, ErrAlreadyRefunded
	}

	status, err := DeriveStatus(proposal, e.now(), e.params.Quorum(), e.dq)
	if err != nil {
		return nil, err
	}
	switch status {
	case StatusDefeated, StatusCanceled, StatusExpired:
	default:
		return nil, fmt.Errorf("%w: no partial refund for %s proposal", ErrWrongState, status)
	}

	pct := e.params.RefundPct(status)
	amount := new(big.Int).Mul(proposal.StakedAmount, new(big.Int).SetUint64(pct))
	amount.Div(amount, big.NewInt(100))

	if err := e.store.UpdateProposal(id, func(p *Proposal) error {
		p.StakeRefunded = true
		return nil
	}); err != nil {
		return nil, err
	}

	if amount.Sign() > 0 {
		if err := e.token.Transfer(e.self, caller, amount); err != nil {
			// The refunded flag is monotone and stays set.
			log.Errorf("Partial refund of %v to %s for proposal %s failed: %v",
				amount, caller, id, err)
			return nil, fmt.Errorf("%w: partial refund: %v", ErrTransferFailed, err)
		}
	}

	log.Infof("Partial refund of %v (%d%%) issued to %s for %s proposal %s",
		amount, pct, caller, status, id)
	e.events.Emit(EventRefundIssued, RefundIssuedEvent{
		ID:       id,
		Proposer: caller,
		Amount:   new(big.Int).Set(amount),
		Pct:      pct,
		Outcome:  status,
	})

	return amount, nil
}

// UpdateParam updates a governance parameter. Callable by an Admin or by
// the bound delay queue (which is how GovernanceChange proposals reach it
// from outside the engine).
func (e *Engine) UpdateParam(caller common.Address, id ParamID, value *big.Int) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.leave()

	if !e.isAdminOrTimelock(caller) {
		return ErrNotAuthorized
	}

	old, err := e.params.Set(id, value)
	if err != nil {
		return err
	}

	log.Infof("Parameter %s changed by %s: %v -> %v", id, caller, old, value)
	e.events.Emit(EventParamChanged, ParamChangedEvent{
		Param: id,
		Old:   old,
		New:   new(big.Int).Set(value),
		Actor: caller,
	})
	return nil
}

// GrantRole grants a role. Callable by an Admin or the bound delay queue.
func (e *Engine) GrantRole(caller common.Address, role Role, account common.Address) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.leave()

	if !e.isAdminOrTimelock(caller) {
		return ErrNotAuthorized
	}
	if err := e.access.Grant(role, account); err != nil {
		return err
	}

	log.Infof("Role %s granted to %s by %s", role, account, caller)
	e.events.Emit(EventRoleGranted, RoleChangedEvent{Role: role, Account: account, Actor: caller})
	return nil
}

// RevokeRole revokes a role. Callable by an Admin or the bound delay queue.
// Revoking the admin role from the last remaining admin is rejected; the
// system must never be left without an admin.
func (e *Engine) RevokeRole(caller common.Address, role Role, account common.Address) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.leave()

	if !e.isAdminOrTimelock(caller) {
		return ErrNotAuthorized
	}
	if err := e.access.Revoke(role, account); err != nil {
		return err
	}

	log.Infof("Role %s revoked from %s by %s", role, account, caller)
	e.events.Emit(EventRoleRevoked, RoleChangedEvent{Role: role, Account: account, Actor: caller})
	return nil
}

// Pause pauses the system, blocking proposal creation, voting, queueing and
// execution. Read-only queries, cancellation and refund claims remain
// available. Callable by a Guardian, an Admin or the bound delay queue.
func (e *Engine) Pause(caller common.Address) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.leave()

	if !e.access.HasRole(RoleGuardian, caller) && !e.isAdminOrTimelock(caller) {
		return ErrNotAuthorized
	}
	if e.access.Paused() {
		return ErrPaused
	}
	e.access.setPaused(true)

	log.Warnf("System paused by %s", caller)
	e.events.Emit(EventPaused, PauseEvent{Actor: caller})
	return nil
}

// Unpause unpauses the system. Callable only by an Admin or the bound delay
// queue; a Guardian can pause but not unpause.
func (e *Engine) Unpause(caller common.Address) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.leave()

	if !e.isAdminOrTimelock(caller) {
		return ErrNotAuthorized
	}
	if !e.access.Paused() {
		return ErrNotPaused
	}
	e.access.setPaused(false)

	log.Infof("System unpaused by %s", caller)
	e.events.Emit(EventUnpaused, PauseEvent{Actor: caller})
	return nil
}

func (e *Engine) isAdminOrTimelock(caller common.Address) bool {
	if e.access.HasRole(RoleAdmin, caller) {
		return true
	}
	return e.dq != nil && caller == e.dqIdentity
}

// State returns the derived lifecycle status of a proposal. Read-only and
// available while paused.
func (e *Engine) State(id string) (Status, error) {
	proposal, err := e.store.GetProposal(id)
	if err != nil {
		return 0, err
	}
	return DeriveStatus(proposal, e.now(), e.params.Quorum(), e.dq)
}

// Proposal returns a proposal by id.
func (e *Engine) Proposal(id string) (*Proposal, error) {
	return e.store.GetProposal(id)
}

// Proposals returns all proposals in creation order.
func (e *Engine) Proposals() ([]*Proposal, error) {
	return e.store.ListProposals()
}

// Votes returns the vote records of a proposal.
func (e *Engine) Votes(id string) ([]*VoteRecord, error) {
	return e.store.ListVotes(id)
}

// Params returns a snapshot of the current governance parameters.
func (e *Engine) Params() ParamsSnapshot {
	return e.params.Snapshot()
}

// Paused reports whether the system is paused.
func (e *Engine) Paused() bool {
	return e.access.Paused()
}

// HasRole checks whether an address holds a role.
func (e *Engine) HasRole(role Role, account common.Address) bool {
	return e.access.HasRole(role, account)
}

// RoleMembers returns the addresses holding a role.
func (e *Engine) RoleMembers(role Role) []common.Address {
	return e.access.Members(role)
}
