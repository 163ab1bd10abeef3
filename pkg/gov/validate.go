package gov

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// SelectorSize is the length of the call selector prefix on General
// proposal payloads.
const SelectorSize = 4

// validatePayload checks a payload against its declared proposal type. A
// concrete payload type that does not match the declared proposal type is a
// validation error, never a crash.
func (e *Engine) validatePayload(proposalType ProposalType, payload Payload) error {
	switch proposalType {
	case ProposalTypeGeneral:
		call, ok := payload.(CallPayload)
		if !ok {
			return fmt.Errorf("%w: %s requires a call payload", ErrInvalidPayload, proposalType)
		}
		return e.validateCall(call)
	case ProposalTypeWithdrawal, ProposalTypeTokenTransfer, ProposalTypeTokenMint, ProposalTypeTokenBurn:
		transfer, ok := payload.(TransferPayload)
		if !ok {
			return fmt.Errorf("%w: %s requires a transfer payload", ErrInvalidPayload, proposalType)
		}
		return validateTransfer(transfer)
	case ProposalTypeExternalTokenTransfer:
		transfer, ok := payload.(ExternalTransferPayload)
		if !ok {
			return fmt.Errorf("%w: %s requires an external transfer payload", ErrInvalidPayload, proposalType)
		}
		if transfer.Token == (common.Address{}) {
			return fmt.Errorf("%w: token address is required", ErrInvalidPayload)
		}
		return validateTransfer(TransferPayload{Recipient: transfer.Recipient, Amount: transfer.Amount})
	case ProposalTypeGovernanceChange:
		change, ok := payload.(ParamChangePayload)
		if !ok {
			return fmt.Errorf("%w: %s requires a parameter change payload", ErrInvalidPayload, proposalType)
		}
		return validateParamChange(change)
	case ProposalTypeSignaling:
		if payload != nil {
			return fmt.Errorf("%w: %s carries no payload", ErrInvalidPayload, proposalType)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown proposal type %q", ErrInvalidPayload, proposalType)
	}
}

func (e *Engine) validateCall(call CallPayload) error {
	if call.Target == (common.Address{}) {
		return fmt.Errorf("%w: call target is required", ErrInvalidPayload)
	}
	if len(call.Data) < SelectorSize {
		return fmt.Errorf("%w: call data is missing a selector", ErrInvalidPayload)
	}
	var selector [SelectorSize]byte
	copy(selector[:], call.Data)
	if !e.allowedSelectors[selector] {
		return fmt.Errorf("%w: call selector %x is not allow-listed", ErrInvalidPayload, selector)
	}
	return nil
}

func validateTransfer(transfer TransferPayload) error {
	if transfer.Recipient == (common.Address{}) {
		return fmt.Errorf("%w: recipient is required", ErrInvalidPayload)
	}
	if transfer.Amount == nil || transfer.Amount.Sign() <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidPayload)
	}
	return nil
}

func validateParamChange(change ParamChangePayload) error {
	set := 0
	if change.VotingDuration != nil {
		if *change.VotingDuration <= 0 {
			return fmt.Errorf("%w: voting duration delta must be positive", ErrInvalidPayload)
		}
		set++
	}
	if change.Quorum != nil {
		if change.Quorum.Sign() <= 0 {
			return fmt.Errorf("%w: quorum delta must be positive", ErrInvalidPayload)
		}
		set++
	}
	if change.StakeAmount != nil {
		if change.StakeAmount.Sign() <= 0 {
			return fmt.Errorf("%w: stake amount delta must be positive", ErrInvalidPayload)
		}
		set++
	}
	if change.ProposalThreshold != nil {
		if change.ProposalThreshold.Sign() <= 0 {
			return fmt.Errorf("%w: proposal threshold delta must be positive", ErrInvalidPayload)
		}
		set++
	}
	if set == 0 {
		return fmt.Errorf("%w: at least one parameter delta is required", ErrInvalidPayload)
	}
	return nil
}
