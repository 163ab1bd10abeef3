package gov

import (
	"fmt"
	"math/big"
	"time"
)

// applyEffect performs the type-specific side effect of an executed
// proposal. It runs after the executed flag is committed; a failure aborts
// the call with the flag retained.
func (e *Engine) applyEffect(proposal *Proposal) error {
	switch proposal.Type {
	case ProposalTypeGeneral:
		payload, ok := proposal.Payload.(CallPayload)
		if !ok {
			return fmt.Errorf("%w: %s payload mismatch", ErrInvalidPayload, proposal.Type)
		}
		if e.caller == nil {
			return fmt.Errorf("%w: no call dispatcher bound", ErrDelayQueue)
		}
		if err := e.caller.Call(payload.Target, payload.Data); err != nil {
			return fmt.Errorf("call %s: %w", payload.Target, err)
		}
		return nil

	case ProposalTypeWithdrawal:
		payload, ok := proposal.Payload.(TransferPayload)
		if !ok {
			return fmt.Errorf("%w: %s payload mismatch", ErrInvalidPayload, proposal.Type)
		}
		if err := e.treasury.Transfer(e.self, payload.Recipient, payload.Amount); err != nil {
			return fmt.Errorf("%w: withdrawal: %v", ErrTransferFailed, err)
		}
		return nil

	case ProposalTypeTokenTransfer:
		payload, ok := proposal.Payload.(TransferPayload)
		if !ok {
			return fmt.Errorf("%w: %s payload mismatch", ErrInvalidPayload, proposal.Type)
		}
		if err := e.token.Transfer(e.self, payload.Recipient, payload.Amount); err != nil {
			return fmt.Errorf("%w: token transfer: %v", ErrTransferFailed, err)
		}
		return nil

	case ProposalTypeExternalTokenTransfer:
		payload, ok := proposal.Payload.(ExternalTransferPayload)
		if !ok {
			return fmt.Errorf("%w: %s payload mismatch", ErrInvalidPayload, proposal.Type)
		}
		if e.resolve == nil {
			return fmt.Errorf("%w: no external token resolver bound", ErrDelayQueue)
		}
		ledger, err := e.resolve(payload.Token)
		if err != nil {
			return fmt.Errorf("resolve token %s: %w", payload.Token, err)
		}
		if err := ledger.Transfer(e.self, payload.Recipient, payload.Amount); err != nil {
			return fmt.Errorf("%w: external token transfer: %v", ErrTransferFailed, err)
		}
		return nil

	case ProposalTypeGovernanceChange:
		payload, ok := proposal.Payload.(ParamChangePayload)
		if !ok {
			return fmt.Errorf("%w: %s payload mismatch", ErrInvalidPayload, proposal.Type)
		}
		changes, err := e.params.ApplyChange(payload)
		if err != nil {
			return err
		}
		for _, change := range changes {
			change.Actor = e.self
			log.Infof("Parameter %s changed by proposal %s: %v -> %v",
				change.Param, proposal.ID, change.Old, change.New)
			e.events.Emit(EventParamChanged, change)
		}
		return nil

	case ProposalTypeTokenMint:
		payload, ok := proposal.Payload.(TransferPayload)
		if !ok {
			return fmt.Errorf("%w: %s payload mismatch", ErrInvalidPayload, proposal.Type)
		}
		if err := e.token.Mint(payload.Recipient, payload.Amount); err != nil {
			return fmt.Errorf("%w: mint: %v", ErrTransferFailed, err)
		}
		return nil

	case ProposalTypeTokenBurn:
		payload, ok := proposal.Payload.(TransferPayload)
		if !ok {
			return fmt.Errorf("%w: %s payload mismatch", ErrInvalidPayload, proposal.Type)
		}
		if err := e.token.Burn(payload.Recipient, payload.Amount); err != nil {
			return fmt.Errorf("%w: burn: %v", ErrTransferFailed, err)
		}
		return nil

	case ProposalTypeSignaling:
		// Signaling proposals carry no effect.
		return nil

	default:
		return fmt.Errorf("%w: unknown proposal type %q", ErrInvalidPayload, proposal.Type)
	}
}

// ApplyChange applies a GovernanceChange payload all-or-nothing: every delta
// is bounds-checked before any is applied. Returns one ParamChangedEvent per
// applied delta.
func (p *Params) ApplyChange(change ParamChangePayload) ([]ParamChangedEvent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if change.VotingDuration != nil {
		d := *change.VotingDuration
		if d < p.minVotingDuration || d > p.maxVotingDuration {
			return nil, fmt.Errorf("%w: voting duration %v outside [%v, %v]",
				ErrInvalidParamValue, d, p.minVotingDuration, p.maxVotingDuration)
		}
	}
	if change.Quorum != nil && change.Quorum.Sign() <= 0 {
		return nil, fmt.Errorf("%w: quorum must be positive", ErrInvalidParamValue)
	}
	if change.StakeAmount != nil && change.StakeAmount.Sign() <= 0 {
		return nil, fmt.Errorf("%w: stake amount must be positive", ErrInvalidParamValue)
	}
	if change.ProposalThreshold != nil && change.ProposalThreshold.Sign() <= 0 {
		return nil, fmt.Errorf("%w: proposal threshold must be positive", ErrInvalidParamValue)
	}

	var changes []ParamChangedEvent
	if change.VotingDuration != nil {
		old := big.NewInt(int64(p.votingDuration / time.Second))
		p.votingDuration = *change.VotingDuration
		changes = append(changes, ParamChangedEvent{
			Param: ParamVotingDuration,
			Old:   old,
			New:   big.NewInt(int64(*change.VotingDuration / time.Second)),
		})
	}
	if change.Quorum != nil {
		changes = append(changes, ParamChangedEvent{
			Param: ParamQuorum,
			Old:   p.quorum,
			New:   new(big.Int).Set(change.Quorum),
		})
		p.quorum = new(big.Int).Set(change.Quorum)
	}
	if change.StakeAmount != nil {
		changes = append(changes, ParamChangedEvent{
			Param: ParamStakeAmount,
			Old:   p.stakeAmount,
			New:   new(big.Int).Set(change.StakeAmount),
		})
		p.stakeAmount = new(big.Int).Set(change.StakeAmount)
	}
	if change.ProposalThreshold != nil {
		changes = append(changes, ParamChangedEvent{
			Param: ParamProposalThreshold,
			Old:   p.proposalThreshold,
			New:   new(big.Int).Set(change.ProposalThreshold),
		})
		p.proposalThreshold = new(big.Int).Set(change.ProposalThreshold)
	}
	return changes, nil
}
