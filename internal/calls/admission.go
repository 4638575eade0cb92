// Package calls decides what happens to an incoming call: ring locally, or
// answer busy when another call is already in progress.
package calls

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/danhigham/cometcharm/internal/chat"
	"github.com/danhigham/cometcharm/internal/domain"
)

// DefaultBusyRejectDelay is how long a second caller hears ringing before
// the busy reject goes out.
const DefaultBusyRejectDelay = 2 * time.Second

// rejectTimeout bounds a single reject request once it has been sent.
const rejectTimeout = 10 * time.Second

type State int

const (
	Idle State = iota
	RingingLocal
)

func (s State) String() string {
	if s == RingingLocal {
		return "ringing"
	}
	return "idle"
}

// Outcome reports what Incoming did with a call.
type Outcome int

const (
	Presented Outcome = iota
	BusyRejectScheduled
)

// Scheduler runs f once after d. Tests substitute a manual clock.
type Scheduler func(d time.Duration, f func())

func afterFunc(d time.Duration, f func()) {
	time.AfterFunc(d, f)
}

type Option func(*Admission)

func WithDelay(d time.Duration) Option {
	return func(a *Admission) {
		if d >= 0 {
			a.delay = d
		}
	}
}

func WithScheduler(s Scheduler) Option {
	return func(a *Admission) { a.schedule = s }
}

func WithLogger(l *zap.Logger) Option {
	return func(a *Admission) { a.logger = l.Named("calls") }
}

// Admission holds at most one pending incoming call. Its state is owned by
// the UI loop and must not be touched from other goroutines; scheduled
// rejects only talk to the client.
type Admission struct {
	client   chat.Client
	delay    time.Duration
	schedule Scheduler
	logger   *zap.Logger

	pending *domain.Call

	// done is cancelled by Close; scheduled rejects that fire afterwards
	// are dropped and in-flight ones are aborted.
	done   context.Context
	cancel context.CancelFunc
}

func NewAdmission(client chat.Client, opts ...Option) *Admission {
	done, cancel := context.WithCancel(context.Background())
	a := &Admission{
		client:   client,
		delay:    DefaultBusyRejectDelay,
		schedule: afterFunc,
		logger:   zap.NewNop(),
		done:     done,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Admission) State() State {
	if a.pending != nil {
		return RingingLocal
	}
	return Idle
}

// Pending returns the call being presented, if any.
func (a *Admission) Pending() (domain.Call, bool) {
	if a.pending == nil {
		return domain.Call{}, false
	}
	return *a.pending, true
}

// Incoming admits call. When the client already has an active call, a busy
// reject is scheduled and the state is left alone; otherwise the call is
// stored for presentation. A failure to query the active call is logged and
// the call is presented.
func (a *Admission) Incoming(call domain.Call) Outcome {
	active, err := a.client.ActiveCall()
	if err != nil {
		a.logger.Warn("Active call lookup failed, presenting call",
			zap.String("session_id", call.SessionID), zap.Error(err))
	}
	if err == nil && active != nil {
		a.logger.Info("Already on a call, rejecting as busy",
			zap.String("session_id", call.SessionID),
			zap.String("active_session_id", active.SessionID),
			zap.Duration("delay", a.delay),
		)
		a.scheduleReject(call.SessionID, domain.CallStatusBusy, a.delay)
		return BusyRejectScheduled
	}

	c := call
	a.pending = &c
	a.logger.Info("Incoming call",
		zap.String("session_id", call.SessionID),
		zap.String("from", call.Initiator.UID),
		zap.String("type", string(call.Type)),
	)
	return Presented
}

// OutgoingRejected, IncomingCancelled and Ended return to Idle. They are
// no-ops when already Idle.
func (a *Admission) OutgoingRejected(call domain.Call) { a.clear("outgoing rejected", call) }

func (a *Admission) IncomingCancelled(call domain.Call) { a.clear("incoming cancelled", call) }

func (a *Admission) Ended(call domain.Call) { a.clear("ended", call) }

// Decline clears the pending call and sends a best-effort reject for it.
func (a *Admission) Decline() {
	if a.pending == nil {
		return
	}
	call := *a.pending
	a.clear("declined", call)
	a.scheduleReject(call.SessionID, domain.CallStatusRejected, 0)
}

// Reset forgets the pending call without rejecting it. Used when the
// session ends and its call events can no longer arrive.
func (a *Admission) Reset() { a.clear("session ended", domain.Call{}) }

// Close drops rejects that have not been sent yet.
func (a *Admission) Close() {
	a.cancel()
}

func (a *Admission) clear(reason string, call domain.Call) {
	if a.pending == nil {
		return
	}
	a.logger.Debug("Call cleared",
		zap.String("reason", reason),
		zap.String("session_id", a.pending.SessionID),
		zap.String("event_session_id", call.SessionID),
	)
	a.pending = nil
}

// scheduleReject sends the reject after d. Failures are logged and never
// retried.
func (a *Admission) scheduleReject(sessionID string, status domain.CallStatus, d time.Duration) {
	a.schedule(d, func() {
		if a.done.Err() != nil {
			return
		}
		ctx, cancel := context.WithTimeout(a.done, rejectTimeout)
		defer cancel()
		if err := a.client.RejectCall(ctx, sessionID, status); err != nil {
			a.logger.Warn("Reject call failed",
				zap.String("session_id", sessionID),
				zap.String("status", string(status)),
				zap.Error(err),
			)
			return
		}
		a.logger.Debug("Call rejected", zap.String("session_id", sessionID), zap.String("status", string(status)))
	})
}
