package sequencer

import (
	"errors"
	"time"

	"github.com/oshokin/rig-panel/internal/domain/indicator"
)

// errRingTooShort is returned for rings that cannot have two distinct neighbours.
var errRingTooShort = errors.New("sequencer ring needs at least three LEDs")

// Sequencer is the light state of the rig. It is not safe for concurrent use.
type Sequencer struct {
	// ring lists LED names; next is index+1, prev is index-1, both wrapping.
	ring []string
	// step is the period between light changes.
	step time.Duration
	// hold is how long a press must last before pair mode starts.
	hold time.Duration

	// current is the ring position the next step works on.
	current int
	// blinkOn is true while the current LED is lit in blink mode.
	blinkOn bool
	// lit holds the physical LED states, parallel to ring.
	lit []bool
	// lastStep is when the last light change happened.
	lastStep time.Time
	// pressedAt is when the current press started.
	pressedAt time.Time
	// pressed is the button state seen by the previous tick.
	pressed bool
}

// New creates a sequencer positioned on the first LED with everything off.
// The first Tick always performs a step.
func New(ring []string, step, hold time.Duration) (*Sequencer, error) {
	if len(ring) < 3 {
		return nil, errRingTooShort
	}

	return &Sequencer{
		ring: append([]string(nil), ring...),
		step: step,
		hold: hold,
		lit:  make([]bool, len(ring)),
	}, nil
}

// Tick advances the sequencer to now with the given button state.
// It returns the status message to broadcast and whether a step happened.
func (s *Sequencer) Tick(now time.Time, pressed bool) (string, bool) {
	if pressed != s.pressed {
		if pressed {
			s.pressedAt = now
		} else {
			s.current = s.prev(s.current)
			s.blinkOn = false
			s.lastStep = now
		}

		s.pressed = pressed
	}

	if !s.lastStep.IsZero() && now.Sub(s.lastStep) < s.step {
		return "", false
	}

	s.lastStep = now

	if pressed && now.Sub(s.pressedAt) >= s.hold {
		return s.pairStep(), true
	}

	return s.blinkStep(), true
}

// Lit returns the names of physically lit LEDs in ring order.
func (s *Sequencer) Lit() []string {
	names := make([]string, 0, len(s.ring))
	for i, on := range s.lit {
		if on {
			names = append(names, s.ring[i])
		}
	}

	return names
}

// Current returns the LED the sequencer is positioned on.
func (s *Sequencer) Current() string {
	return s.ring[s.current]
}

// blinkStep lights the current LED alone, or turns it off and moves on.
// The broadcast names the current position after the move.
func (s *Sequencer) blinkStep() string {
	if !s.blinkOn {
		clear(s.lit)
		s.lit[s.current] = true
		s.blinkOn = true
	} else {
		s.lit[s.current] = false
		s.blinkOn = false
		s.current = s.next(s.current)
	}

	return s.ring[s.current]
}

// pairStep lights both neighbours of the current LED and moves on.
func (s *Sequencer) pairStep() string {
	a, b := s.next(s.current), s.prev(s.current)

	clear(s.lit)
	s.lit[a] = true
	s.lit[b] = true
	s.current = a

	return indicator.MultiPrefix + s.ring[a] + "," + s.ring[b]
}

func (s *Sequencer) next(i int) int {
	return (i + 1) % len(s.ring)
}

func (s *Sequencer) prev(i int) int {
	return (i + len(s.ring) - 1) % len(s.ring)
}
