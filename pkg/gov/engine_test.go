package gov_test

import (
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asthmajoy/govcore/pkg/gov"
	"github.com/asthmajoy/govcore/pkg/gov/store"
	"github.com/asthmajoy/govcore/pkg/timelock"
	"github.com/asthmajoy/govcore/pkg/token"
)

var (
	self     = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	tlock    = common.HexToAddress("0x00000000000000000000000000000000000000bb")
	admin    = common.HexToAddress("0x0000000000000000000000000000000000000001")
	guardian = common.HexToAddress("0x0000000000000000000000000000000000000002")
	alice    = common.HexToAddress("0x0000000000000000000000000000000000000010")
	bob      = common.HexToAddress("0x0000000000000000000000000000000000000011")
	carol    = common.HexToAddress("0x0000000000000000000000000000000000000012")
	dave     = common.HexToAddress("0x0000000000000000000000000000000000000013")
)

// fakeClock is a mutable time source shared by the engine and the queue.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// recorder collects emitted events for assertions.
type recorder struct {
	mu      sync.Mutex
	entries []recordedEvent
}

type recordedEvent struct {
	event string
	data  interface{}
}

func (r *recorder) Emit(event string, data interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, recordedEvent{event, data})
}

func (r *recorder) count(event string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.entries {
		if e.event == event {
			n++
		}
	}
	return n
}

func (r *recorder) last(event string) (interface{}, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.entries) - 1; i >= 0; i-- {
		if r.entries[i].event == event {
			return r.entries[i].data, true
		}
	}
	return nil, false
}

// harness wires a full in-process deployment: real ledgers, real store,
// real delay queue, fixed clock.
type harness struct {
	engine   *gov.Engine
	token    *token.Ledger
	treasury *token.Ledger
	queue    *timelock.Queue
	clock    *fakeClock
	events   *recorder
}

func callSelector() [gov.SelectorSize]byte {
	return [gov.SelectorSize]byte{0xde, 0xad, 0xbe, 0xef}
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	ledger := token.NewLedger()
	for account, balance := range map[common.Address]int64{
		alice: 1000,
		bob:   600,
		carol: 400,
	} {
		require.NoError(t, ledger.Mint(account, big.NewInt(balance)))
	}
	treasury := token.NewLedger()
	require.NoError(t, treasury.Mint(self, big.NewInt(1000)))

	engine, err := gov.NewEngine(gov.Config{
		Self:  self,
		Admin: admin,
		Params: gov.ParamsConfig{
			VotingDuration:    7 * 24 * time.Hour,
			Quorum:            big.NewInt(1000),
			StakeAmount:       big.NewInt(100),
			ProposalThreshold: big.NewInt(100),
			DefeatedRefundPct: 50,
			CanceledRefundPct: 75,
			ExpiredRefundPct:  25,
			MinVotingDuration: time.Hour,
			MaxVotingDuration: 30 * 24 * time.Hour,
		},
		AllowedSelectors: [][gov.SelectorSize]byte{callSelector()},
	}, ledger, treasury, store.NewMemoryStore())
	require.NoError(t, err)

	clock := newFakeClock()
	engine.SetClock(clock.Now)

	queue := timelock.NewQueue(timelock.Config{
		LowDelay:    time.Hour,
		MediumDelay: 2 * time.Hour,
		HighDelay:   3 * time.Hour,
		GracePeriod: 24 * time.Hour,
		SelectorRisk: map[[4]byte]timelock.Risk{
			gov.CallSelector(gov.ProposalTypeSignaling):        timelock.RiskLow,
			gov.CallSelector(gov.ProposalTypeGovernanceChange): timelock.RiskHigh,
			gov.CallSelector(gov.ProposalTypeTokenMint):        timelock.RiskHigh,
			gov.CallSelector(gov.ProposalTypeTokenBurn):        timelock.RiskHigh,
		},
	})
	queue.SetClock(clock.Now)
	queue.SetDispatcher(gov.NewDispatcher(engine, tlock))
	engine.BindDelayQueue(gov.NewQueueAdapter(queue), tlock)

	events := &recorder{}
	engine.SetEventRecorder(events)

	require.NoError(t, engine.GrantRole(admin, gov.RoleGuardian, guardian))

	return &harness{
		engine:   engine,
		token:    ledger,
		treasury: treasury,
		queue:    queue,
		clock:    clock,
		events:   events,
	}
}

func (h *harness) balance(t *testing.T, ledger *token.Ledger, account common.Address) *big.Int {
	t.Helper()
	balance, err := ledger.BalanceOf(account)
	require.NoError(t, err)
	return balance
}

// createSignaling creates a bare signaling proposal from alice.
func (h *harness) createSignaling(t *testing.T) string {
	t.Helper()
	id, err := h.engine.CreateProposal(alice, gov.ProposalTypeSignaling, nil, "signal")
	require.NoError(t, err)
	return id
}

// succeed votes a proposal past quorum and advances past the deadline.
func (h *harness) succeed(t *testing.T, id string) {
	t.Helper()
	_, err := h.engine.CastVote(alice, id, gov.VoteFor)
	require.NoError(t, err)
	_, err = h.engine.CastVote(bob, id, gov.VoteFor)
	require.NoError(t, err)
	h.clock.Advance(7*24*time.Hour + time.Minute)
}

func (h *harness) status(t *testing.T, id string) gov.Status {
	t.Helper()
	status, err := h.engine.State(id)
	require.NoError(t, err)
	return status
}

func TestCreateProposal(t *testing.T) {
	t.Run("escrows the stake", func(t *testing.T) {
		h := newHarness(t)
		id := h.createSignaling(t)

		assert.Equal(t, big.NewInt(900), h.balance(t, h.token, alice))
		assert.Equal(t, big.NewInt(100), h.balance(t, h.token, self))
		assert.Equal(t, gov.StatusActive, h.status(t, id))

		proposal, err := h.engine.Proposal(id)
		require.NoError(t, err)
		assert.Equal(t, alice, proposal.Proposer)
		assert.Equal(t, big.NewInt(100), proposal.StakedAmount)
		assert.Equal(t, 1, h.events.count(gov.EventProposalCreated))
	})

	t.Run("rejects a proposer below the threshold", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.engine.CreateProposal(dave, gov.ProposalTypeSignaling, nil, "broke")
		assert.ErrorIs(t, err, gov.ErrInsufficientBalance)
	})

	t.Run("rejects a mismatched payload", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.engine.CreateProposal(alice, gov.ProposalTypeWithdrawal,
			gov.CallPayload{Target: dave, Data: []byte{1, 2, 3, 4}}, "mismatch")
		assert.ErrorIs(t, err, gov.ErrInvalidPayload)
	})

	t.Run("rejects a call with an unlisted selector", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.engine.CreateProposal(alice, gov.ProposalTypeGeneral,
			gov.CallPayload{Target: dave, Data: []byte{1, 2, 3, 4, 5}}, "unlisted")
		assert.ErrorIs(t, err, gov.ErrInvalidPayload)
	})

	t.Run("blocked while paused", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, h.engine.Pause(guardian))
		_, err := h.engine.CreateProposal(alice, gov.ProposalTypeSignaling, nil, "paused")
		assert.ErrorIs(t, err, gov.ErrPaused)
	})
}

func TestCastVote(t *testing.T) {
	t.Run("records snapshot weight", func(t *testing.T) {
		h := newHarness(t)
		id := h.createSignaling(t)

		// Balance movements after the snapshot must not affect weight.
		require.NoError(t, h.token.Transfer(bob, carol, big.NewInt(500)))

		weight, err := h.engine.CastVote(bob, id, gov.VoteFor)
		require.NoError(t, err)
		assert.Equal(t, big.NewInt(600), weight)

		proposal, err := h.engine.Proposal(id)
		require.NoError(t, err)
		assert.Equal(t, big.NewInt(600), proposal.YesVotes)
	})

	t.Run("one vote per voter", func(t *testing.T) {
		h := newHarness(t)
		id := h.createSignaling(t)

		_, err := h.engine.CastVote(bob, id, gov.VoteFor)
		require.NoError(t, err)
		_, err = h.engine.CastVote(bob, id, gov.VoteAgainst)
		assert.ErrorIs(t, err, gov.ErrAlreadyVoted)

		// The first vote stands untouched.
		proposal, err := h.engine.Proposal(id)
		require.NoError(t, err)
		assert.Equal(t, big.NewInt(600), proposal.YesVotes)
		assert.Equal(t, big.NewInt(0), proposal.NoVotes)
	})

	t.Run("rejects an unknown choice without recording", func(t *testing.T) {
		h := newHarness(t)
		id := h.createSignaling(t)

		_, err := h.engine.CastVote(bob, id, gov.VoteChoice(99))
		assert.ErrorIs(t, err, gov.ErrInvalidPayload)

		// The rejected vote must leave no record behind: bob can still
		// vote and the tally picks up his full weight.
		weight, err := h.engine.CastVote(bob, id, gov.VoteFor)
		require.NoError(t, err)
		assert.Equal(t, big.NewInt(600), weight)

		proposal, err := h.engine.Proposal(id)
		require.NoError(t, err)
		assert.Equal(t, big.NewInt(600), proposal.YesVotes)
	})

	t.Run("rejects a voter with no power", func(t *testing.T) {
		h := newHarness(t)
		id := h.createSignaling(t)
		_, err := h.engine.CastVote(dave, id, gov.VoteFor)
		assert.ErrorIs(t, err, gov.ErrNoVotingPower)
	})

	t.Run("rejects votes after the deadline", func(t *testing.T) {
		h := newHarness(t)
		id := h.createSignaling(t)
		h.clock.Advance(7*24*time.Hour + time.Minute)
		_, err := h.engine.CastVote(bob, id, gov.VoteFor)
		assert.ErrorIs(t, err, gov.ErrVotingClosed)
	})

	t.Run("abstain counts toward quorum only", func(t *testing.T) {
		h := newHarness(t)
		id := h.createSignaling(t)

		_, err := h.engine.CastVote(bob, id, gov.VoteFor)
		require.NoError(t, err)
		_, err = h.engine.CastVote(carol, id, gov.VoteAbstain)
		require.NoError(t, err)
		h.clock.Advance(7*24*time.Hour + time.Minute)

		// 600 yes, 0 no, 400 abstain: quorum 1000 reached, yes > no.
		assert.Equal(t, gov.StatusSucceeded, h.status(t, id))
	})
}

func TestDefeat(t *testing.T) {
	t.Run("tie is a defeat", func(t *testing.T) {
		h := newHarness(t)
		// Thin bob out before the snapshot so the tallies can tie.
		require.NoError(t, h.token.Transfer(bob, dave, big.NewInt(100)))
		id := h.createSignaling(t)

		// The escrow precedes the snapshot, so alice weighs 900 after
		// staking 100.
		weight, err := h.engine.CastVote(alice, id, gov.VoteFor)
		require.NoError(t, err)
		assert.Equal(t, big.NewInt(900), weight)

		// Force a tie: 900 for vs 500 + 400 against.
		_, err = h.engine.CastVote(bob, id, gov.VoteAgainst)
		require.NoError(t, err)
		_, err = h.engine.CastVote(carol, id, gov.VoteAgainst)
		require.NoError(t, err)
		h.clock.Advance(7*24*time.Hour + time.Minute)
		assert.Equal(t, gov.StatusDefeated, h.status(t, id))
	})

	t.Run("missed quorum is a defeat", func(t *testing.T) {
		h := newHarness(t)
		id := h.createSignaling(t)
		_, err := h.engine.CastVote(bob, id, gov.VoteFor)
		require.NoError(t, err)
		h.clock.Advance(7*24*time.Hour + time.Minute)
		// 600 total < 1000 quorum despite unanimous yes.
		assert.Equal(t, gov.StatusDefeated, h.status(t, id))
	})

	t.Run("queueing a defeated proposal fails", func(t *testing.T) {
		h := newHarness(t)
		id := h.createSignaling(t)
		h.clock.Advance(7*24*time.Hour + time.Minute)
		_, err := h.engine.Queue(id, alice)
		assert.ErrorIs(t, err, gov.ErrWrongState)
	})
}

func TestWithdrawalLifecycle(t *testing.T) {
	h := newHarness(t)

	id, err := h.engine.CreateProposal(alice, gov.ProposalTypeWithdrawal,
		gov.TransferPayload{Recipient: dave, Amount: big.NewInt(250)}, "fund dave")
	require.NoError(t, err)

	_, err = h.engine.CastVote(alice, id, gov.VoteFor)
	require.NoError(t, err)
	_, err = h.engine.CastVote(bob, id, gov.VoteFor)
	require.NoError(t, err)
	_, err = h.engine.CastVote(carol, id, gov.VoteAgainst)
	require.NoError(t, err)

	h.clock.Advance(7*24*time.Hour + time.Minute)
	require.Equal(t, gov.StatusSucceeded, h.status(t, id))

	handle, err := h.engine.Queue(id, bob)
	require.NoError(t, err)
	require.NotEmpty(t, handle)
	require.Equal(t, gov.StatusQueued, h.status(t, id))

	// The delay has not elapsed yet.
	err = h.engine.Execute(id, bob)
	assert.ErrorIs(t, err, timelock.ErrNotReady)

	h.clock.Advance(2*time.Hour + time.Minute)
	require.NoError(t, h.engine.Execute(id, bob))

	assert.Equal(t, gov.StatusExecuted, h.status(t, id))
	assert.Equal(t, big.NewInt(250), h.balance(t, h.treasury, dave))
	assert.Equal(t, big.NewInt(750), h.balance(t, h.treasury, self))

	// Full stake refund on execution.
	assert.Equal(t, big.NewInt(1000), h.balance(t, h.token, alice))
	assert.Equal(t, big.NewInt(0), h.balance(t, h.token, self))
	assert.Equal(t, 1, h.events.count(gov.EventRefundIssued))

	// Re-executing is a silent no-op with no double effect.
	require.NoError(t, h.engine.Execute(id, carol))
	assert.Equal(t, big.NewInt(250), h.balance(t, h.treasury, dave))
	assert.Equal(t, 1, h.events.count(gov.EventProposalExecuted))

	// No partial refund on top of the full one.
	_, err = h.engine.ClaimPartialRefund(id, alice)
	assert.ErrorIs(t, err, gov.ErrAlreadyRefunded)
}

func TestRefundTransferFailure(t *testing.T) {
	h := newHarness(t)
	id := h.createSignaling(t)
	h.succeed(t, id)

	_, err := h.engine.Queue(id, bob)
	require.NoError(t, err)
	h.clock.Advance(time.Hour + time.Minute)

	// Drain the escrow so the post-execution refund transfer cannot be
	// honored.
	require.NoError(t, h.token.Transfer(self, carol, big.NewInt(100)))

	// Execution still succeeds; the failed refund is recorded, never
	// escalated.
	require.NoError(t, h.engine.Execute(id, bob))
	assert.Equal(t, gov.StatusExecuted, h.status(t, id))
	assert.Equal(t, 1, h.events.count(gov.EventRefundTransferFailed))
	assert.Equal(t, 0, h.events.count(gov.EventRefundIssued))
	assert.Equal(t, big.NewInt(900), h.balance(t, h.token, alice))

	// The refunded flag is spent, so no later claim can double dip.
	_, err = h.engine.ClaimPartialRefund(id, alice)
	assert.ErrorIs(t, err, gov.ErrAlreadyRefunded)
}

func TestGovernanceChangeExecution(t *testing.T) {
	h := newHarness(t)

	quorum := big.NewInt(500)
	id, err := h.engine.CreateProposal(alice, gov.ProposalTypeGovernanceChange,
		gov.ParamChangePayload{Quorum: quorum}, "lower quorum")
	require.NoError(t, err)

	h.succeed(t, id)
	_, err = h.engine.Queue(id, alice)
	require.NoError(t, err)

	// Governance changes ride the high-risk tier.
	h.clock.Advance(3*time.Hour + time.Minute)
	require.NoError(t, h.engine.Execute(id, alice))

	assert.Equal(t, big.NewInt(500), h.engine.Params().Quorum)
	assert.Equal(t, 1, h.events.count(gov.EventParamChanged))

	data, ok := h.events.last(gov.EventParamChanged)
	require.True(t, ok)
	change := data.(gov.ParamChangedEvent)
	assert.Equal(t, gov.ParamQuorum, change.Param)
	assert.Equal(t, big.NewInt(1000), change.Old)
	assert.Equal(t, big.NewInt(500), change.New)
}

func TestMintAndBurnExecution(t *testing.T) {
	h := newHarness(t)

	id, err := h.engine.CreateProposal(alice, gov.ProposalTypeTokenMint,
		gov.TransferPayload{Recipient: dave, Amount: big.NewInt(300)}, "mint for dave")
	require.NoError(t, err)
	h.succeed(t, id)
	_, err = h.engine.Queue(id, alice)
	require.NoError(t, err)
	h.clock.Advance(3*time.Hour + time.Minute)
	require.NoError(t, h.engine.Execute(id, alice))

	assert.Equal(t, big.NewInt(300), h.balance(t, h.token, dave))
}

func TestCancel(t *testing.T) {
	t.Run("proposer cancels before votes", func(t *testing.T) {
		h := newHarness(t)
		id := h.createSignaling(t)
		require.NoError(t, h.engine.Cancel(id, alice))
		assert.Equal(t, gov.StatusCanceled, h.status(t, id))

		// Terminal: no further votes.
		_, err := h.engine.CastVote(bob, id, gov.VoteFor)
		assert.ErrorIs(t, err, gov.ErrWrongState)
	})

	t.Run("proposer cannot cancel after votes", func(t *testing.T) {
		h := newHarness(t)
		id := h.createSignaling(t)
		_, err := h.engine.CastVote(bob, id, gov.VoteFor)
		require.NoError(t, err)
		assert.ErrorIs(t, h.engine.Cancel(id, alice), gov.ErrVotesAlreadyCast)
	})

	t.Run("guardian cancels despite votes", func(t *testing.T) {
		h := newHarness(t)
		id := h.createSignaling(t)
		_, err := h.engine.CastVote(bob, id, gov.VoteFor)
		require.NoError(t, err)
		require.NoError(t, h.engine.Cancel(id, guardian))
		assert.Equal(t, gov.StatusCanceled, h.status(t, id))
	})

	t.Run("guardian cancel of a queued proposal cancels the queued call", func(t *testing.T) {
		h := newHarness(t)
		id := h.createSignaling(t)
		h.succeed(t, id)
		handle, err := h.engine.Queue(id, alice)
		require.NoError(t, err)

		require.NoError(t, h.engine.Cancel(id, guardian))
		assert.Equal(t, gov.StatusCanceled, h.status(t, id))

		call, err := h.queue.Status(handle)
		require.NoError(t, err)
		assert.Equal(t, timelock.StateCanceled, call.State)

		// Execution is permanently off the table.
		h.clock.Advance(2 * time.Hour)
		assert.ErrorIs(t, h.engine.Execute(id, alice), gov.ErrNotExecutable)
	})

	t.Run("bystander cannot cancel", func(t *testing.T) {
		h := newHarness(t)
		id := h.createSignaling(t)
		assert.ErrorIs(t, h.engine.Cancel(id, bob), gov.ErrNotAuthorized)
	})

	t.Run("cancel works while paused", func(t *testing.T) {
		h := newHarness(t)
		id := h.createSignaling(t)
		require.NoError(t, h.engine.Pause(guardian))
		require.NoError(t, h.engine.Cancel(id, guardian))
		assert.Equal(t, gov.StatusCanceled, h.status(t, id))
	})
}

func TestExpiry(t *testing.T) {
	h := newHarness(t)
	id := h.createSignaling(t)
	h.succeed(t, id)
	_, err := h.engine.Queue(id, alice)
	require.NoError(t, err)

	// Past ETA plus the full grace period.
	h.clock.Advance(time.Hour + 24*time.Hour + time.Minute)
	assert.Equal(t, gov.StatusExpired, h.status(t, id))
	assert.ErrorIs(t, h.engine.Execute(id, alice), gov.ErrNotExecutable)

	// Expired proposals settle at the expired percentage.
	amount, err := h.engine.ClaimPartialRefund(id, alice)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(25), amount)
	assert.Equal(t, big.NewInt(925), h.balance(t, h.token, alice))
}

func TestPartialRefund(t *testing.T) {
	defeat := func(t *testing.T, h *harness) string {
		id := h.createSignaling(t)
		_, err := h.engine.CastVote(alice, id, gov.VoteFor)
		require.NoError(t, err)
		_, err = h.engine.CastVote(bob, id, gov.VoteAgainst)
		require.NoError(t, err)
		_, err = h.engine.CastVote(carol, id, gov.VoteAgainst)
		require.NoError(t, err)
		h.clock.Advance(7*24*time.Hour + time.Minute)
		require.Equal(t, gov.StatusDefeated, h.status(t, id))
		return id
	}

	t.Run("defeated settles at the defeated percentage", func(t *testing.T) {
		h := newHarness(t)
		id := defeat(t, h)
		amount, err := h.engine.ClaimPartialRefund(id, alice)
		require.NoError(t, err)
		assert.Equal(t, big.NewInt(50), amount)
		assert.Equal(t, big.NewInt(950), h.balance(t, h.token, alice))
	})

	t.Run("at most once", func(t *testing.T) {
		h := newHarness(t)
		id := defeat(t, h)
		_, err := h.engine.ClaimPartialRefund(id, alice)
		require.NoError(t, err)
		_, err = h.engine.ClaimPartialRefund(id, alice)
		assert.ErrorIs(t, err, gov.ErrAlreadyRefunded)
		assert.Equal(t, big.NewInt(950), h.balance(t, h.token, alice))
	})

	t.Run("proposer only", func(t *testing.T) {
		h := newHarness(t)
		id := defeat(t, h)
		_, err := h.engine.ClaimPartialRefund(id, bob)
		assert.ErrorIs(t, err, gov.ErrNotAuthorized)
	})

	t.Run("no refund while active", func(t *testing.T) {
		h := newHarness(t)
		id := h.createSignaling(t)
		_, err := h.engine.ClaimPartialRefund(id, alice)
		assert.ErrorIs(t, err, gov.ErrWrongState)
	})

	t.Run("uses the current percentage, not the creation-time one", func(t *testing.T) {
		h := newHarness(t)
		id := defeat(t, h)
		require.NoError(t, h.engine.UpdateParam(admin, gov.ParamDefeatedRefundPct, big.NewInt(80)))
		amount, err := h.engine.ClaimPartialRefund(id, alice)
		require.NoError(t, err)
		assert.Equal(t, big.NewInt(80), amount)
	})

	t.Run("claim works while paused", func(t *testing.T) {
		h := newHarness(t)
		id := defeat(t, h)
		require.NoError(t, h.engine.Pause(guardian))
		amount, err := h.engine.ClaimPartialRefund(id, alice)
		require.NoError(t, err)
		assert.Equal(t, big.NewInt(50), amount)
	})
}

func TestPause(t *testing.T) {
	t.Run("pause blocks mutation, reads stay available", func(t *testing.T) {
		h := newHarness(t)
		id := h.createSignaling(t)
		require.NoError(t, h.engine.Pause(guardian))

		_, err := h.engine.CreateProposal(alice, gov.ProposalTypeSignaling, nil, "x")
		assert.ErrorIs(t, err, gov.ErrPaused)
		_, err = h.engine.CastVote(bob, id, gov.VoteFor)
		assert.ErrorIs(t, err, gov.ErrPaused)
		_, err = h.engine.Queue(id, alice)
		assert.ErrorIs(t, err, gov.ErrPaused)
		assert.ErrorIs(t, h.engine.Execute(id, alice), gov.ErrPaused)

		assert.Equal(t, gov.StatusActive, h.status(t, id))
		assert.True(t, h.engine.Paused())
	})

	t.Run("guardian cannot unpause", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, h.engine.Pause(guardian))
		assert.ErrorIs(t, h.engine.Unpause(guardian), gov.ErrNotAuthorized)
		require.NoError(t, h.engine.Unpause(admin))
		assert.False(t, h.engine.Paused())
	})

	t.Run("double pause and stray unpause fail", func(t *testing.T) {
		h := newHarness(t)
		assert.ErrorIs(t, h.engine.Unpause(admin), gov.ErrNotPaused)
		require.NoError(t, h.engine.Pause(admin))
		assert.ErrorIs(t, h.engine.Pause(guardian), gov.ErrPaused)
	})

	t.Run("bystander cannot pause", func(t *testing.T) {
		h := newHarness(t)
		assert.ErrorIs(t, h.engine.Pause(bob), gov.ErrNotAuthorized)
	})
}

func TestRoles(t *testing.T) {
	t.Run("admin manages roles", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, h.engine.GrantRole(admin, gov.RoleGuardian, carol))
		assert.True(t, h.engine.HasRole(gov.RoleGuardian, carol))
		require.NoError(t, h.engine.RevokeRole(admin, gov.RoleGuardian, carol))
		assert.False(t, h.engine.HasRole(gov.RoleGuardian, carol))
	})

	t.Run("last admin cannot be revoked", func(t *testing.T) {
		h := newHarness(t)
		assert.ErrorIs(t, h.engine.RevokeRole(admin, gov.RoleAdmin, admin), gov.ErrLastAdmin)

		require.NoError(t, h.engine.GrantRole(admin, gov.RoleAdmin, bob))
		require.NoError(t, h.engine.RevokeRole(bob, gov.RoleAdmin, admin))
		assert.ErrorIs(t, h.engine.RevokeRole(bob, gov.RoleAdmin, bob), gov.ErrLastAdmin)
	})

	t.Run("non-admin cannot manage roles or params", func(t *testing.T) {
		h := newHarness(t)
		assert.ErrorIs(t, h.engine.GrantRole(guardian, gov.RoleGuardian, carol), gov.ErrNotAuthorized)
		assert.ErrorIs(t, h.engine.UpdateParam(bob, gov.ParamQuorum, big.NewInt(1)), gov.ErrNotAuthorized)
	})

	t.Run("timelock identity passes admin gates", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, h.engine.UpdateParam(tlock, gov.ParamQuorum, big.NewInt(700)))
		assert.Equal(t, big.NewInt(700), h.engine.Params().Quorum)
	})
}

func TestUpdateParamBounds(t *testing.T) {
	h := newHarness(t)

	assert.ErrorIs(t, h.engine.UpdateParam(admin, gov.ParamQuorum, big.NewInt(0)),
		gov.ErrInvalidParamValue)
	assert.ErrorIs(t, h.engine.UpdateParam(admin, gov.ParamDefeatedRefundPct, big.NewInt(101)),
		gov.ErrInvalidParamValue)

	// Duration updates are expressed in whole seconds.
	require.NoError(t, h.engine.UpdateParam(admin, gov.ParamVotingDuration,
		big.NewInt(int64((48*time.Hour)/time.Second))))
	assert.Equal(t, 48*time.Hour, h.engine.Params().VotingDuration)
}

// evilDispatcher re-enters the engine from inside a General proposal call.
type evilDispatcher struct {
	engine *gov.Engine
	id     string
	err    error
}

func (d *evilDispatcher) Call(target common.Address, data []byte) error {
	_, d.err = d.engine.CastVote(bob, d.id, gov.VoteFor)
	return d.err
}

func TestReentrancyGuard(t *testing.T) {
	h := newHarness(t)

	selector := callSelector()
	id, err := h.engine.CreateProposal(alice, gov.ProposalTypeGeneral,
		gov.CallPayload{Target: dave, Data: append(selector[:], 0x01)}, "general call")
	require.NoError(t, err)

	evil := &evilDispatcher{engine: h.engine, id: id}
	h.engine.SetCallDispatcher(evil)

	h.succeed(t, id)
	_, err = h.engine.Queue(id, alice)
	require.NoError(t, err)
	h.clock.Advance(2*time.Hour + time.Minute)

	// The reentrant vote is rejected, which fails the side effect; the
	// executed flag stays set so the window never reopens.
	err = h.engine.Execute(id, alice)
	require.Error(t, err)
	assert.ErrorIs(t, evil.err, gov.ErrReentrantCall)

	proposal, err := h.engine.Proposal(id)
	require.NoError(t, err)
	assert.True(t, proposal.Executed)
	assert.Equal(t, gov.StatusExecuted, h.status(t, id))
	require.NoError(t, h.engine.Execute(id, alice))
}

// reportingQueue is a delay queue stub whose view of a handle diverges from
// the engine's local flags.
type reportingQueue struct {
	state gov.QueuedState
	eta   time.Time
}

func (q *reportingQueue) QueueWithRiskClassification(common.Address, *big.Int, []byte) (string, error) {
	return "stub-handle", nil
}
func (q *reportingQueue) Execute(string) error { return nil }
func (q *reportingQueue) Cancel(string) error  { return nil }
func (q *reportingQueue) Status(string) (*gov.QueuedCall, error) {
	return &gov.QueuedCall{ETA: q.eta, State: q.state}, nil
}
func (q *reportingQueue) GracePeriod() time.Duration { return 24 * time.Hour }

func TestExecutionReconciliation(t *testing.T) {
	h := newHarness(t)

	stub := &reportingQueue{state: gov.QueuedStatePending, eta: h.clock.Now().Add(time.Hour)}
	h.engine.BindDelayQueue(stub, tlock)

	id := h.createSignaling(t)
	h.succeed(t, id)
	_, err := h.engine.Queue(id, alice)
	require.NoError(t, err)

	// The queue executed the call on its own sweep; the engine never saw it.
	stub.state = gov.QueuedStateExecuted
	require.Equal(t, gov.StatusExecuted, h.status(t, id))

	require.NoError(t, h.engine.Execute(id, bob))

	proposal, err := h.engine.Proposal(id)
	require.NoError(t, err)
	assert.True(t, proposal.Executed)
	assert.True(t, proposal.StakeRefunded)
	assert.Equal(t, 1, h.events.count(gov.EventExecutionReconciled))
	assert.Equal(t, 1, h.events.count(gov.EventProposalExecuted))
	assert.Equal(t, big.NewInt(1000), h.balance(t, h.token, alice))

	// A second execute is the plain idempotent path, no second anomaly.
	require.NoError(t, h.engine.Execute(id, bob))
	assert.Equal(t, 1, h.events.count(gov.EventExecutionReconciled))
}

func TestTimelockOnlyEntry(t *testing.T) {
	h := newHarness(t)
	id := h.createSignaling(t)
	h.succeed(t, id)
	_, err := h.engine.Queue(id, alice)
	require.NoError(t, err)

	// Direct invocation under any other identity is rejected.
	assert.ErrorIs(t, h.engine.ExecuteProposalLogic(admin, id), gov.ErrNotTimelock)
	assert.ErrorIs(t, h.engine.ExecuteProposalLogic(alice, id), gov.ErrNotTimelock)
}
