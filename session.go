package chatstream

import (
	"context"
	"strings"
	"time"

	"github.com/looplab/fsm"
)

// RunState is the lifecycle state of one Coalescer run.
type RunState string

const (
	StateCreated   RunState = "created"   // Before the placeholder render.
	StateStreaming RunState = "streaming" // Placeholder shown, pulling deltas.
	StateFinalized RunState = "finalized" // Terminal render issued.
	StateFailed    RunState = "failed"    // Source or surface error.
	StateDone      RunState = "done"      // Run returned.
)

const (
	eventBegin    = "begin"
	eventFinalize = "finalize"
	eventFail     = "fail"
	eventClose    = "close"
)

// session is the ephemeral state of a single run. It is owned by the
// goroutine executing Run and needs no locking.
type session struct {
	text strings.Builder

	// accepted counts non-empty deltas. It is never reset: the count gate
	// is evaluated modulo the running total.
	accepted int
	lastEmit time.Time // zero until the first intermediate render

	machine *fsm.FSM
}

func newSession(initial string, hook func(from, to RunState)) *session {
	s := &session{}
	s.text.WriteString(initial)
	callbacks := fsm.Callbacks{}
	if hook != nil {
		callbacks["enter_state"] = func(_ context.Context, e *fsm.Event) {
			hook(RunState(e.Src), RunState(e.Dst))
		}
	}
	s.machine = fsm.NewFSM(
		string(StateCreated),
		fsm.Events{
			{Name: eventBegin, Src: []string{string(StateCreated)}, Dst: string(StateStreaming)},
			{Name: eventFinalize, Src: []string{string(StateStreaming)}, Dst: string(StateFinalized)},
			{Name: eventFail, Src: []string{string(StateCreated), string(StateStreaming)}, Dst: string(StateFailed)},
			{Name: eventClose, Src: []string{string(StateFinalized), string(StateFailed)}, Dst: string(StateDone)},
		},
		callbacks,
	)
	return s
}

func (s *session) String() string { return s.text.String() }

func (s *session) append(delta string) {
	s.text.WriteString(delta)
	s.accepted++
}

// countReady reports whether the accepted count is on a flush boundary.
func (s *session) countReady(flushEvery int) bool {
	return flushEvery > 0 && s.accepted%flushEvery == 0
}

// timeReady reports whether the throttle window since the last
// intermediate render has elapsed.
func (s *session) timeReady(throttle time.Duration, now time.Time) bool {
	return throttle <= 0 || s.lastEmit.IsZero() || now.Sub(s.lastEmit) >= throttle
}

func (s *session) emitted(now time.Time) { s.lastEmit = now }

func (s *session) state() RunState { return RunState(s.machine.Current()) }

// fire performs a lifecycle transition. The transition table is closed over
// by the coalescer, so an error here means a programming mistake.
func (s *session) fire(event string) error {
	return s.machine.Event(context.Background(), event)
}
