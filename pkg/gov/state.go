package gov

import (
	"fmt"
	"math/big"
	"time"
)

// DeriveStatus computes the lifecycle status of a proposal. Status is never
// stored; it is derived from the proposal's recorded facts, the current
// time, the current quorum and a live delay queue read, so repeated calls
// without mutation always agree.
//
// The checks run in fixed priority order: the canceled and executed flags
// are terminal and win over everything else, an unexpired deadline means the
// proposal is still Active, then the tally decides Defeated vs Succeeded,
// and only a queued proposal consults the delay queue.
func DeriveStatus(p *Proposal, now time.Time, quorum *big.Int, dq DelayQueue) (Status, error) {
	if p.Canceled {
		return StatusCanceled, nil
	}
	if p.Executed {
		return StatusExecuted, nil
	}
	if now.Before(p.Deadline) {
		return StatusActive, nil
	}

	// Voting is over. A tie is not a win: yes must strictly exceed no, and
	// the combined weight must reach quorum.
	total := new(big.Int).Add(p.YesVotes, p.NoVotes)
	total.Add(total, p.AbstainVotes)
	if p.YesVotes.Cmp(p.NoVotes) <= 0 || total.Cmp(quorum) < 0 {
		return StatusDefeated, nil
	}

	if !p.Queued {
		return StatusSucceeded, nil
	}

	if dq == nil {
		return 0, ErrDelayQueueNotConfigured
	}
	call, err := dq.Status(p.TimelockHandle)
	if err != nil {
		return 0, fmt.Errorf("%w: status of handle %s: %v", ErrDelayQueue, p.TimelockHandle, err)
	}
	if call.State == QueuedStateExecuted {
		// The queue executed the call before the engine recorded it. The
		// caller reconciles the local flag; here it simply reads as
		// Executed.
		return StatusExecuted, nil
	}
	if now.After(call.ETA.Add(dq.GracePeriod())) {
		return StatusExpired, nil
	}
	return StatusQueued, nil
}
