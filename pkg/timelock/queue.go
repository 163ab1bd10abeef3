// Package timelock implements the delay-queue collaborator: a mandatory,
// risk-classified delay between governance approval and execution, keyed by
// an opaque handle.
package timelock

import (
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

var (
	// ErrCallNotFound indicates an unknown handle
	ErrCallNotFound = errors.New("queued call not found")

	// ErrNotReady indicates an execute before the call's ETA
	ErrNotReady = errors.New("call delay has not elapsed")

	// ErrAlreadyExecuted indicates the call has already been executed
	ErrAlreadyExecuted = errors.New("call already executed")

	// ErrCanceled indicates the call has been canceled
	ErrCanceled = errors.New("call has been canceled")

	// ErrExpired indicates the call's grace period has passed
	ErrExpired = errors.New("call grace period has passed")

	// ErrNoDispatcher indicates an execute with no dispatcher bound
	ErrNoDispatcher = errors.New("no dispatcher bound")
)

// Risk represents the queue's own classification of a submitted call
type Risk int

const (
	RiskLow Risk = iota
	RiskMedium
	RiskHigh
)

// String returns the human readable name of a risk level.
func (r Risk) String() string {
	switch r {
	case RiskLow:
		return "low"
	case RiskMedium:
		return "medium"
	case RiskHigh:
		return "high"
	default:
		return "unknown"
	}
}

// State represents the queue's state for a call
type State int

const (
	StatePending State = iota
	StateExecuted
	StateCanceled
	StateExpired
)

// Call is a queued call.
type Call struct {
	Handle string
	Target common.Address
	Value  *big.Int
	Data   []byte
	Risk   Risk
	ETA    time.Time
	State  State
}

// Dispatcher performs a queued call when it is executed.
type Dispatcher interface {
	Dispatch(target common.Address, value *big.Int, data []byte) error
}

// Config configures the queue's risk classification and delays.
type Config struct {
	// LowDelay, MediumDelay and HighDelay are the execution delays per
	// risk tier.
	LowDelay    time.Duration
	MediumDelay time.Duration
	HighDelay   time.Duration

	// GracePeriod is the window after ETA during which a call stays
	// executable.
	GracePeriod time.Duration

	// SelectorRisk maps call data selectors to risk tiers. Calls with an
	// unlisted selector default to RiskMedium.
	SelectorRisk map[[4]byte]Risk

	// HighValueThreshold promotes any call moving at least this value to
	// RiskHigh. Nil disables value-based promotion.
	HighValueThreshold *big.Int
}

// DefaultConfig returns the default queue configuration.
func DefaultConfig() Config {
	return Config{
		LowDelay:    24 * time.Hour,
		MediumDelay: 2 * 24 * time.Hour,
		HighDelay:   7 * 24 * time.Hour,
		GracePeriod: 14 * 24 * time.Hour,
	}
}

// Queue is an in-memory delay queue. Queued calls are kept forever; executed
// and canceled calls remain queryable.
type Queue struct {
	mutex      sync.RWMutex
	calls      map[string]*Call
	dispatcher Dispatcher
	cfg        Config
	now        func() time.Time
}

// NewQueue creates a new delay queue.
func NewQueue(cfg Config) *Queue {
	return &Queue{
		calls: make(map[string]*Call),
		cfg:   cfg,
		now:   time.Now,
	}
}

// SetDispatcher binds the dispatcher that performs executed calls.
func (q *Queue) SetDispatcher(dispatcher Dispatcher) {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	q.dispatcher = dispatcher
}

// SetClock overrides the queue's time source.
func (q *Queue) SetClock(clock func() time.Time) {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	q.now = clock
}

// classify assigns a risk tier from the call's selector and value.
func (q *Queue) classify(value *big.Int, data []byte) Risk {
	if q.cfg.HighValueThreshold != nil && value != nil &&
		value.Cmp(q.cfg.HighValueThreshold) >= 0 {
		return RiskHigh
	}
	if len(data) >= 4 {
		var selector [4]byte
		copy(selector[:], data)
		if risk, ok := q.cfg.SelectorRisk[selector]; ok {
			return risk
		}
	}
	return RiskMedium
}

func (q *Queue) delay(risk Risk) time.Duration {
	switch risk {
	case RiskLow:
		return q.cfg.LowDelay
	case RiskHigh:
		return q.cfg.HighDelay
	default:
		return q.cfg.MediumDelay
	}
}

// QueueWithRiskClassification queues a call, classifies its risk and assigns
// the matching delay. Returns the call's opaque handle.
func (q *Queue) QueueWithRiskClassification(target common.Address, value *big.Int, data []byte) (string, error) {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	if value == nil {
		value = big.NewInt(0)
	}
	risk := q.classify(value, data)
	call := &Call{
		Handle: uuid.New().String(),
		Target: target,
		Value:  new(big.Int).Set(value),
		Data:   append([]byte(nil), data...),
		Risk:   risk,
		ETA:    q.now().Add(q.delay(risk)),
	}
	q.calls[call.Handle] = call

	log.Infof("Queued call %s to %s (risk %s, eta %s)", call.Handle, target, risk, call.ETA)
	return call.Handle, nil
}

// Execute dispatches a queued call. Fails if the call is unknown, canceled,
// already executed, before its ETA or past its grace period. The call is
// marked executed only after the dispatcher succeeds; a failed dispatch
// leaves it queued.
func (q *Queue) Execute(handle string) error {
	q.mutex.Lock()
	call, exists := q.calls[handle]
	if !exists {
		q.mutex.Unlock()
		return fmt.Errorf("%w: %s", ErrCallNotFound, handle)
	}

	now := q.now()
	var err error
	switch {
	case call.State == StateExecuted:
		err = ErrAlreadyExecuted
	case call.State == StateCanceled:
		err = ErrCanceled
	case now.Before(call.ETA):
		err = fmt.Errorf("%w: eta %s", ErrNotReady, call.ETA)
	case now.After(call.ETA.Add(q.cfg.GracePeriod)):
		err = ErrExpired
	case q.dispatcher == nil:
		err = ErrNoDispatcher
	}
	if err != nil {
		q.mutex.Unlock()
		return err
	}

	dispatcher := q.dispatcher
	target, value, data := call.Target, call.Value, call.Data
	q.mutex.Unlock()

	// The dispatch may call back into the queue's own caller; the queue
	// lock is not held across it.
	if err := dispatcher.Dispatch(target, value, data); err != nil {
		log.Warnf("Dispatch of call %s failed: %v", handle, err)
		return err
	}

	q.mutex.Lock()
	call.State = StateExecuted
	q.mutex.Unlock()

	log.Infof("Executed call %s", handle)
	return nil
}

// Cancel cancels a queued call. An executed call cannot be canceled.
func (q *Queue) Cancel(handle string) error {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	call, exists := q.calls[handle]
	if !exists {
		return fmt.Errorf("%w: %s", ErrCallNotFound, handle)
	}
	if call.State == StateExecuted {
		return ErrAlreadyExecuted
	}
	call.State = StateCanceled

	log.Infof("Canceled call %s", handle)
	return nil
}

// Status returns a copy of the queue's state for a handle. A pending call
// past its grace period reads as expired.
func (q *Queue) Status(handle string) (*Call, error) {
	q.mutex.RLock()
	defer q.mutex.RUnlock()

	call, exists := q.calls[handle]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrCallNotFound, handle)
	}

	copied := *call
	copied.Value = new(big.Int).Set(call.Value)
	copied.Data = append([]byte(nil), call.Data...)
	if copied.State == StatePending && q.now().After(call.ETA.Add(q.cfg.GracePeriod)) {
		copied.State = StateExpired
	}
	return &copied, nil
}

// GracePeriod returns the window after ETA during which a call stays
// executable.
func (q *Queue) GracePeriod() time.Duration {
	return q.cfg.GracePeriod
}
