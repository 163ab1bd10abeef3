package gov

import "errors"

var (
	// ErrInvalidPayload indicates a payload that does not match the declared
	// proposal type or fails type-specific validation
	ErrInvalidPayload = errors.New("invalid proposal payload")

	// ErrInvalidParamValue indicates a parameter update outside its bounds
	ErrInvalidParamValue = errors.New("parameter value out of bounds")

	// ErrUnknownParam indicates an unknown parameter id
	ErrUnknownParam = errors.New("unknown parameter")

	// ErrNotAuthorized indicates the caller lacks the required role
	ErrNotAuthorized = errors.New("caller is not authorized")

	// ErrNotTimelock indicates a call restricted to the bound delay queue
	ErrNotTimelock = errors.New("caller is not the bound delay queue")

	// ErrLastAdmin indicates an attempt to revoke the only remaining admin
	ErrLastAdmin = errors.New("cannot revoke the last admin")

	// ErrPaused indicates the operation is blocked while the system is paused
	ErrPaused = errors.New("system is paused")

	// ErrNotPaused indicates an unpause while the system is not paused
	ErrNotPaused = errors.New("system is not paused")

	// ErrProposalNotFound indicates the proposal was not found
	ErrProposalNotFound = errors.New("proposal not found")

	// ErrWrongState indicates the operation is invalid for the proposal's
	// current derived status
	ErrWrongState = errors.New("operation invalid for proposal state")

	// ErrVotingClosed indicates a vote cast after the deadline
	ErrVotingClosed = errors.New("voting period has ended")

	// ErrAlreadyVoted indicates the voter has already voted on the proposal
	ErrAlreadyVoted = errors.New("voter has already voted")

	// ErrNoVotingPower indicates the voter held no tokens at the snapshot
	ErrNoVotingPower = errors.New("voter has no voting power")

	// ErrVotesAlreadyCast indicates a proposer self-cancel after votes exist
	ErrVotesAlreadyCast = errors.New("votes have already been cast")

	// ErrInsufficientBalance indicates the proposer holds less than the
	// proposal threshold
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrTransferFailed indicates a token collaborator transfer failed
	ErrTransferFailed = errors.New("token transfer failed")

	// ErrAlreadyRefunded indicates the stake has already been refunded
	ErrAlreadyRefunded = errors.New("stake already refunded")

	// ErrNotExecutable indicates execution preconditions are not met
	ErrNotExecutable = errors.New("proposal is not executable")

	// ErrDelayQueueNotConfigured indicates no delay queue is bound
	ErrDelayQueueNotConfigured = errors.New("delay queue not configured")

	// ErrDelayQueue indicates a delay queue collaborator call failed
	ErrDelayQueue = errors.New("delay queue call failed")

	// ErrReentrantCall indicates a rejected reentrant call into the engine
	ErrReentrantCall = errors.New("reentrant call")
)

// ErrorKind classifies engine errors so callers can present a precise
// message and map failures onto their own surfaces.
type ErrorKind int

const (
	// KindInternal is the fallback for unclassified failures.
	KindInternal ErrorKind = iota

	// KindValidation covers bad payloads and out-of-bounds parameters.
	KindValidation

	// KindAuthorization covers failed role and sender checks.
	KindAuthorization

	// KindState covers operations invalid for the current derived status,
	// including votes after the deadline and double votes.
	KindState

	// KindResource covers insufficient balances and failed transfers.
	KindResource

	// KindNotFound covers lookups of unknown proposals.
	KindNotFound

	// KindIntegration covers collaborator call failures.
	KindIntegration
)

// Classify maps an engine error onto its ErrorKind.
func Classify(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrInvalidPayload),
		errors.Is(err, ErrInvalidParamValue),
		errors.Is(err, ErrUnknownParam):
		return KindValidation
	case errors.Is(err, ErrNotAuthorized),
		errors.Is(err, ErrNotTimelock),
		errors.Is(err, ErrLastAdmin):
		return KindAuthorization
	case errors.Is(err, ErrPaused),
		errors.Is(err, ErrNotPaused),
		errors.Is(err, ErrWrongState),
		errors.Is(err, ErrVotingClosed),
		errors.Is(err, ErrAlreadyVoted),
		errors.Is(err, ErrVotesAlreadyCast),
		errors.Is(err, ErrAlreadyRefunded),
		errors.Is(err, ErrNotExecutable),
		errors.Is(err, ErrReentrantCall):
		return KindState
	case errors.Is(err, ErrInsufficientBalance),
		errors.Is(err, ErrTransferFailed),
		errors.Is(err, ErrNoVotingPower):
		return KindResource
	case errors.Is(err, ErrProposalNotFound):
		return KindNotFound
	case errors.Is(err, ErrDelayQueueNotConfigured),
		errors.Is(err, ErrDelayQueue):
		return KindIntegration
	default:
		return KindInternal
	}
}
