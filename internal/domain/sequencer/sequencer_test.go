package sequencer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/rig-panel/internal/domain/indicator"
)

const step = 500 * time.Millisecond

func newRig(t *testing.T) *Sequencer {
	t.Helper()

	s, err := New(indicator.DefaultNames(), step, step)
	require.NoError(t, err)

	return s
}

// run ticks every 100ms from start for the given number of steps worth of time
// and returns the broadcast messages.
func run(s *Sequencer, start time.Time, steps int, pressed bool) ([]string, time.Time) {
	var (
		messages []string
		now      = start
		end      = start.Add(time.Duration(steps) * step)
	)

	for ; now.Before(end); now = now.Add(100 * time.Millisecond) {
		if msg, ok := s.Tick(now, pressed); ok {
			messages = append(messages, msg)
		}
	}

	return messages, now
}

// TestNew_RejectsShortRing needs two distinct neighbours.
func TestNew_RejectsShortRing(t *testing.T) {
	t.Parallel()

	_, err := New([]string{"red", "green"}, step, step)
	require.Error(t, err)
}

// TestSequencer_Blink follows the idle blink cycle around the ring.
func TestSequencer_Blink(t *testing.T) {
	t.Parallel()

	s := newRig(t)
	start := time.Unix(1_000, 0)

	msg, ok := s.Tick(start, false)
	require.True(t, ok)
	require.Equal(t, "red", msg)
	require.Equal(t, []string{"red"}, s.Lit())

	// Nothing happens within the step interval.
	_, ok = s.Tick(start.Add(step-time.Millisecond), false)
	require.False(t, ok)

	msg, ok = s.Tick(start.Add(step), false)
	require.True(t, ok)
	require.Equal(t, "yellow", msg)
	require.Empty(t, s.Lit())

	messages, _ := run(s, start.Add(2*step), 5, false)
	require.Equal(t, []string{"yellow", "green", "green", "red", "red"}, messages)
}

// TestSequencer_ShortPressBlinks keeps blinking while the press is younger than the hold interval.
func TestSequencer_ShortPressBlinks(t *testing.T) {
	t.Parallel()

	s := newRig(t)
	start := time.Unix(1_000, 0)

	s.Tick(start, false)

	msg, ok := s.Tick(start.Add(step), true)
	require.True(t, ok)
	require.Equal(t, "yellow", msg)
}

// TestSequencer_HoldPairs lights both neighbours once the press outlasts the hold interval.
func TestSequencer_HoldPairs(t *testing.T) {
	t.Parallel()

	s := newRig(t)
	start := time.Unix(1_000, 0)

	// Red lit, current red.
	s.Tick(start, false)

	// Press at +100ms; the step at +500ms is still a blink (press is 400ms old).
	s.Tick(start.Add(100*time.Millisecond), true)

	msg, ok := s.Tick(start.Add(step), true)
	require.True(t, ok)
	require.Equal(t, "yellow", msg)

	msg, ok = s.Tick(start.Add(2*step), true)
	require.True(t, ok)
	require.Equal(t, "held:green,red", msg)
	require.Equal(t, []string{"red", "green"}, s.Lit())
	require.Equal(t, "green", s.Current())

	msg, ok = s.Tick(start.Add(3*step), true)
	require.True(t, ok)
	require.Equal(t, "held:red,yellow", msg)
}

// TestSequencer_ReleaseStepsBack moves one LED back and restarts the step timer.
func TestSequencer_ReleaseStepsBack(t *testing.T) {
	t.Parallel()

	s := newRig(t)
	start := time.Unix(1_000, 0)

	s.Tick(start, true)
	s.Tick(start.Add(step), true)
	require.Equal(t, "yellow", s.Current())

	release := start.Add(step + 200*time.Millisecond)

	_, ok := s.Tick(release, false)
	require.False(t, ok)
	require.Equal(t, "red", s.Current())

	_, ok = s.Tick(release.Add(step-time.Millisecond), false)
	require.False(t, ok)

	msg, ok := s.Tick(release.Add(step), false)
	require.True(t, ok)
	require.Equal(t, "red", msg)
	require.Equal(t, []string{"red"}, s.Lit())
}
