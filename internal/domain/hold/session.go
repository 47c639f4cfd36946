package hold

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oshokin/rig-panel/internal/logger"
)

// DefaultDelay is how long a button must stay pressed before the hold begins.
const DefaultDelay = 500 * time.Millisecond

// Action is invoked when a hold begins or ends and reports whether it was accepted.
// Actions run while the session lock is held and must not block or call back into the session.
type Action func(ctx context.Context) bool

// Session is the press/release state of one button.
type Session struct {
	// name identifies the button in logs.
	name string
	// delay is the minimum press duration before begin fires.
	delay time.Duration
	// begin runs once the press outlasts delay.
	begin Action
	// end runs on release of a press that reached begin.
	end Action

	// mu protects the fields below.
	mu sync.Mutex
	// timer is the pending begin callback, nil when none is scheduled.
	timer *time.Timer
	// pressed is true between Press and Release.
	pressed bool
	// heldEnough is true once begin was accepted for the current press.
	heldEnough bool
	// closed rejects presses after Close.
	closed bool
	// generation invalidates callbacks scheduled by earlier presses.
	generation uint64
	// pressID correlates log lines of one press cycle.
	pressID string
}

// New creates an idle session. A non-positive delay falls back to DefaultDelay.
func New(name string, delay time.Duration, begin, end Action) *Session {
	if delay <= 0 {
		delay = DefaultDelay
	}

	if begin == nil {
		begin = func(context.Context) bool { return true }
	}

	if end == nil {
		end = func(context.Context) bool { return true }
	}

	return &Session{
		name:  name,
		delay: delay,
		begin: begin,
		end:   end,
	}
}

// Name returns the button name.
func (s *Session) Name() string {
	return s.name
}

// Delay returns the hold threshold.
func (s *Session) Delay() time.Duration {
	return s.delay
}

// Press starts a hold window and reports whether one was started.
// A press while the button is already down is ignored, so a begin
// is always matched by exactly one end.
func (s *Session) Press(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pressed {
		logger.DebugKV(ctx, "Press ignored, button already down", "button", s.name, "press_id", s.pressID)

		return false
	}

	if s.closed {
		return false
	}

	s.generation++
	s.pressed = true
	s.heldEnough = false
	s.pressID = uuid.NewString()

	var (
		generation = s.generation
		// The callback outlives request-scoped contexts such as HTTP handlers.
		callbackCtx = logger.WithKV(context.WithoutCancel(ctx), "button", s.name, "press_id", s.pressID)
	)

	s.timer = time.AfterFunc(s.delay, func() {
		s.fire(callbackCtx, generation)
	})

	logger.DebugKV(callbackCtx, "Button pressed", "delay", s.delay)

	return true
}

// Release ends the current press and reports whether the end action ran.
// Releasing an idle button is a no-op.
func (s *Session) Release(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.pressed {
		return false
	}

	ctx = logger.WithKV(ctx, "button", s.name, "press_id", s.pressID)

	wasHeld := s.releaseLocked(ctx)

	logger.DebugKV(ctx, "Button released", "held", wasHeld)

	return wasHeld
}

// releaseLocked runs end for a held press and resets the press state.
func (s *Session) releaseLocked(ctx context.Context) bool {
	wasHeld := s.heldEnough
	if wasHeld && !s.end(ctx) {
		logger.WarnKV(ctx, "Hold end not accepted")
	}

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}

	// Bumping the generation stops a callback that already left the timer
	// but has not taken the lock yet.
	s.generation++
	s.pressed = false
	s.heldEnough = false

	return wasHeld
}

// Held reports whether the current press has passed the hold threshold.
func (s *Session) Held() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.heldEnough
}

// Pressed reports whether the button is currently down.
func (s *Session) Pressed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.pressed
}

// Close releases the button and rejects later presses.
// A held press gets its end action; a pending window is dropped silently.
func (s *Session) Close(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true

	if !s.pressed {
		return
	}

	ctx = logger.WithKV(ctx, "button", s.name, "press_id", s.pressID)

	if s.releaseLocked(ctx) {
		logger.DebugKV(ctx, "Held button released on close")
	}
}

func (s *Session) fire(ctx context.Context, generation uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.pressed || s.generation != generation {
		return
	}

	s.timer = nil

	logger.DebugKV(ctx, "Hold threshold reached")

	// A begin that was not accepted must not be followed by an end.
	if !s.begin(ctx) {
		logger.WarnKV(ctx, "Hold begin not accepted, release will be silent")

		return
	}

	s.heldEnough = true
}
