package gov

import (
	"fmt"
	"math/big"
	"sync"
	"time"
)

// ParamID identifies a governance parameter
type ParamID int

const (
	ParamVotingDuration ParamID = iota
	ParamQuorum
	ParamStakeAmount
	ParamProposalThreshold
	ParamDefeatedRefundPct
	ParamCanceledRefundPct
	ParamExpiredRefundPct
)

// String returns the human readable name of a parameter.
func (p ParamID) String() string {
	switch p {
	case ParamVotingDuration:
		return "voting_duration"
	case ParamQuorum:
		return "quorum"
	case ParamStakeAmount:
		return "stake_amount"
	case ParamProposalThreshold:
		return "proposal_threshold"
	case ParamDefeatedRefundPct:
		return "defeated_refund_pct"
	case ParamCanceledRefundPct:
		return "canceled_refund_pct"
	case ParamExpiredRefundPct:
		return "expired_refund_pct"
	default:
		return "unknown"
	}
}

// ParamsSnapshot is a point-in-time copy of all governance parameters.
type ParamsSnapshot struct {
	VotingDuration    time.Duration
	Quorum            *big.Int
	StakeAmount       *big.Int
	ProposalThreshold *big.Int
	DefeatedRefundPct uint64
	CanceledRefundPct uint64
	ExpiredRefundPct  uint64
}

// ParamsConfig configures the parameter registry.
type ParamsConfig struct {
	VotingDuration    time.Duration
	Quorum            *big.Int
	StakeAmount       *big.Int
	ProposalThreshold *big.Int
	DefeatedRefundPct uint64
	CanceledRefundPct uint64
	ExpiredRefundPct  uint64

	// MinVotingDuration and MaxVotingDuration bound updates to the voting
	// duration parameter.
	MinVotingDuration time.Duration
	MaxVotingDuration time.Duration
}

// DefaultParamsConfig returns the default governance parameters.
func DefaultParamsConfig() ParamsConfig {
	return ParamsConfig{
		VotingDuration:    7 * 24 * time.Hour,
		Quorum:            big.NewInt(1000),
		StakeAmount:       big.NewInt(100),
		ProposalThreshold: big.NewInt(100),
		DefeatedRefundPct: 50,
		CanceledRefundPct: 75,
		ExpiredRefundPct:  25,
		MinVotingDuration: time.Hour,
		MaxVotingDuration: 30 * 24 * time.Hour,
	}
}

// Params holds the mutable governance knobs. Mutations go through Set, which
// bounds-checks every value; duration values are expressed in seconds.
type Params struct {
	mu sync.RWMutex

	votingDuration    time.Duration
	quorum            *big.Int
	stakeAmount       *big.Int
	proposalThreshold *big.Int
	defeatedRefundPct uint64
	canceledRefundPct uint64
	expiredRefundPct  uint64

	minVotingDuration time.Duration
	maxVotingDuration time.Duration
}

// NewParams creates a parameter registry from a config.
func NewParams(cfg ParamsConfig) (*Params, error) {
	if cfg.Quorum == nil || cfg.Quorum.Sign() <= 0 {
		return nil, fmt.Errorf("%w: quorum must be positive", ErrInvalidParamValue)
	}
	if cfg.StakeAmount == nil || cfg.StakeAmount.Sign() <= 0 {
		return nil, fmt.Errorf("%w: stake amount must be positive", ErrInvalidParamValue)
	}
	if cfg.ProposalThreshold == nil || cfg.ProposalThreshold.Sign() <= 0 {
		return nil, fmt.Errorf("%w: proposal threshold must be positive", ErrInvalidParamValue)
	}
	if cfg.DefeatedRefundPct > 100 || cfg.CanceledRefundPct > 100 || cfg.ExpiredRefundPct > 100 {
		return nil, fmt.Errorf("%w: refund percentage above 100", ErrInvalidParamValue)
	}
	if cfg.MinVotingDuration <= 0 || cfg.MaxVotingDuration < cfg.MinVotingDuration {
		return nil, fmt.Errorf("%w: invalid voting duration bounds", ErrInvalidParamValue)
	}
	if cfg.VotingDuration < cfg.MinVotingDuration || cfg.VotingDuration > cfg.MaxVotingDuration {
		return nil, fmt.Errorf("%w: voting duration outside bounds", ErrInvalidParamValue)
	}
	return &Params{
		votingDuration:    cfg.VotingDuration,
		quorum:            new(big.Int).Set(cfg.Quorum),
		stakeAmount:       new(big.Int).Set(cfg.StakeAmount),
		proposalThreshold: new(big.Int).Set(cfg.ProposalThreshold),
		defeatedRefundPct: cfg.DefeatedRefundPct,
		canceledRefundPct: cfg.CanceledRefundPct,
		expiredRefundPct:  cfg.ExpiredRefundPct,
		minVotingDuration: cfg.MinVotingDuration,
		maxVotingDuration: cfg.MaxVotingDuration,
	}, nil
}

// Snapshot returns a copy of all current parameter values.
func (p *Params) Snapshot() ParamsSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return ParamsSnapshot{
		VotingDuration:    p.votingDuration,
		Quorum:            new(big.Int).Set(p.quorum),
		StakeAmount:       new(big.Int).Set(p.stakeAmount),
		ProposalThreshold: new(big.Int).Set(p.proposalThreshold),
		DefeatedRefundPct: p.defeatedRefundPct,
		CanceledRefundPct: p.canceledRefundPct,
		ExpiredRefundPct:  p.expiredRefundPct,
	}
}

// VotingDuration returns the current voting duration.
func (p *Params) VotingDuration() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.votingDuration
}

// Quorum returns the current quorum.
func (p *Params) Quorum() *big.Int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return new(big.Int).Set(p.quorum)
}

// StakeAmount returns the current proposer stake.
func (p *Params) StakeAmount() *big.Int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return new(big.Int).Set(p.stakeAmount)
}

// ProposalThreshold returns the current proposal threshold.
func (p *Params) ProposalThreshold() *big.Int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return new(big.Int).Set(p.proposalThreshold)
}

// RefundPct returns the current refund percentage for a terminal status.
// Statuses without a partial refund path return 0.
func (p *Params) RefundPct(status Status) uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()

	switch status {
	case StatusDefeated:
		return p.defeatedRefundPct
	case StatusCanceled:
		return p.canceledRefundPct
	case StatusExpired:
		return p.expiredRefundPct
	default:
		return 0
	}
}

// Get returns the current value of a parameter. Duration parameters are
// returned as whole seconds.
func (p *Params) Get(id ParamID) (*big.Int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	switch id {
	case ParamVotingDuration:
		return big.NewInt(int64(p.votingDuration / time.Second)), nil
	case ParamQuorum:
		return new(big.Int).Set(p.quorum), nil
	case ParamStakeAmount:
		return new(big.Int).Set(p.stakeAmount), nil
	case ParamProposalThreshold:
		return new(big.Int).Set(p.proposalThreshold), nil
	case ParamDefeatedRefundPct:
		return new(big.Int).SetUint64(p.defeatedRefundPct), nil
	case ParamCanceledRefundPct:
		return new(big.Int).SetUint64(p.canceledRefundPct), nil
	case ParamExpiredRefundPct:
		return new(big.Int).SetUint64(p.expiredRefundPct), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownParam, id)
	}
}

// Set updates a parameter after bounds-checking the value and returns the
// previous value. Duration parameters take whole seconds.
func (p *Params) Set(id ParamID, value *big.Int) (*big.Int, error) {
	if value == nil {
		return nil, fmt.Errorf("%w: nil value", ErrInvalidParamValue)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	switch id {
	case ParamVotingDuration:
		if !value.IsInt64() {
			return nil, fmt.Errorf("%w: voting duration too large", ErrInvalidParamValue)
		}
		d := time.Duration(value.Int64()) * time.Second
		if d < p.minVotingDuration || d > p.maxVotingDuration {
			return nil, fmt.Errorf("%w: voting duration %v outside [%v, %v]",
				ErrInvalidParamValue, d, p.minVotingDuration, p.maxVotingDuration)
		}
		old := big.NewInt(int64(p.votingDuration / time.Second))
		p.votingDuration = d
		return old, nil
	case ParamQuorum:
		if value.Sign() <= 0 {
			return nil, fmt.Errorf("%w: quorum must be positive", ErrInvalidParamValue)
		}
		old := p.quorum
		p.quorum = new(big.Int).Set(value)
		return old, nil
	case ParamStakeAmount:
		if value.Sign() <= 0 {
			return nil, fmt.Errorf("%w: stake amount must be positive", ErrInvalidParamValue)
		}
		old := p.stakeAmount
		p.stakeAmount = new(big.Int).Set(value)
		return old, nil
	case ParamProposalThreshold:
		if value.Sign() <= 0 {
			return nil, fmt.Errorf("%w: proposal threshold must be positive", ErrInvalidParamValue)
		}
		old := p.proposalThreshold
		p.proposalThreshold = new(big.Int).Set(value)
		return old, nil
	case ParamDefeatedRefundPct, ParamCanceledRefundPct, ParamExpiredRefundPct:
		if value.Sign() < 0 || value.Cmp(big.NewInt(100)) > 0 {
			return nil, fmt.Errorf("%w: refund percentage must be within [0, 100]", ErrInvalidParamValue)
		}
		pct := value.Uint64()
		var old uint64
		switch id {
		case ParamDefeatedRefundPct:
			old, p.defeatedRefundPct = p.defeatedRefundPct, pct
		case ParamCanceledRefundPct:
			old, p.canceledRefundPct = p.canceledRefundPct, pct
		case ParamExpiredRefundPct:
			old, p.expiredRefundPct = p.expiredRefundPct, pct
		}
		return new(big.Int).SetUint64(old), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownParam, id)
	}
}
