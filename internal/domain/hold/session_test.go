package hold

import (
	"context"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/require"
)

// recorder collects action invocations in order.
type recorder struct {
	// mu protects calls.
	mu sync.Mutex
	// calls lists the labels of invoked actions.
	calls []string
}

// action returns an accepting Action that appends label when invoked.
func (r *recorder) action(label string) Action {
	return r.reply(label, true)
}

// reply returns an Action that appends label and answers accepted.
func (r *recorder) reply(label string, accepted bool) Action {
	return func(context.Context) bool {
		r.mu.Lock()
		defer r.mu.Unlock()

		r.calls = append(r.calls, label)

		return accepted
	}
}

// got returns a copy of the recorded calls.
func (r *recorder) got() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.calls...)
}

func newRecordedSession(rec *recorder) *Session {
	return New("algo1", DefaultDelay, rec.action("hold"), rec.action("release"))
}

// TestSession_ShortPress verifies that releasing before the threshold produces no actions.
func TestSession_ShortPress(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		var (
			ctx = context.Background()
			rec = new(recorder)
			s   = newRecordedSession(rec)
		)

		for _, d := range []time.Duration{0, time.Millisecond, 250 * time.Millisecond, 499 * time.Millisecond} {
			require.True(t, s.Press(ctx))
			time.Sleep(d)
			require.False(t, s.Release(ctx))
		}

		// Give any leaked callback a chance to run.
		time.Sleep(2 * time.Second)
		synctest.Wait()

		require.Empty(t, rec.got())
		require.False(t, s.Held())
	})
}

// TestSession_LongPress verifies that a press past the threshold yields begin then end.
func TestSession_LongPress(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		var (
			ctx = context.Background()
			rec = new(recorder)
			s   = newRecordedSession(rec)
		)

		require.True(t, s.Press(ctx))

		time.Sleep(DefaultDelay + time.Millisecond)
		synctest.Wait()

		require.Equal(t, []string{"hold"}, rec.got())
		require.True(t, s.Held())

		time.Sleep(3 * time.Second)
		require.True(t, s.Release(ctx))
		require.Equal(t, []string{"hold", "release"}, rec.got())
		require.False(t, s.Held())
		require.False(t, s.Pressed())
	})
}

// TestSession_RepeatedCycles checks that independent press cycles do not interfere.
func TestSession_RepeatedCycles(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		var (
			ctx = context.Background()
			rec = new(recorder)
			s   = newRecordedSession(rec)
		)

		// Long, short, long.
		s.Press(ctx)
		time.Sleep(time.Second)
		s.Release(ctx)

		s.Press(ctx)
		time.Sleep(100 * time.Millisecond)
		s.Release(ctx)

		s.Press(ctx)
		time.Sleep(600 * time.Millisecond)
		s.Release(ctx)

		time.Sleep(time.Second)
		synctest.Wait()

		require.Equal(t, []string{"hold", "release", "hold", "release"}, rec.got())
	})
}

// TestSession_RepressIgnored verifies that a second press without a release keeps the first window.
func TestSession_RepressIgnored(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		var (
			ctx = context.Background()
			rec = new(recorder)
			s   = newRecordedSession(rec)
		)

		require.True(t, s.Press(ctx))
		time.Sleep(300 * time.Millisecond)
		require.False(t, s.Press(ctx))

		// The first window ends at 500ms, not 800ms.
		time.Sleep(250 * time.Millisecond)
		synctest.Wait()
		require.Equal(t, []string{"hold"}, rec.got())

		require.False(t, s.Press(ctx))
		require.True(t, s.Release(ctx))
		require.Equal(t, []string{"hold", "release"}, rec.got())
	})
}

// TestSession_ReleaseWhenIdle ensures a stray release does nothing.
func TestSession_ReleaseWhenIdle(t *testing.T) {
	t.Parallel()

	rec := new(recorder)
	s := newRecordedSession(rec)

	require.False(t, s.Release(context.Background()))
	require.Empty(t, rec.got())
}

// TestSession_IndependentButtons runs two sessions side by side with separate actions.
func TestSession_IndependentButtons(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		var (
			ctx  = context.Background()
			rec  = new(recorder)
			algo = New("algo1", DefaultDelay, rec.action("hold"), rec.action("release"))
			run  = New("algo2", DefaultDelay, rec.action("start"), rec.action("stop"))
		)

		algo.Press(ctx)
		time.Sleep(200 * time.Millisecond)
		run.Press(ctx)

		// algo1 crosses the threshold at 500ms, algo2 at 700ms.
		time.Sleep(400 * time.Millisecond)
		synctest.Wait()
		require.Equal(t, []string{"hold"}, rec.got())

		run.Release(ctx)
		time.Sleep(time.Second)
		algo.Release(ctx)

		require.Equal(t, []string{"hold", "release"}, rec.got())
	})
}

// TestSession_Close cancels a pending window silently and rejects later presses.
func TestSession_Close(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		var (
			ctx = context.Background()
			rec = new(recorder)
			s   = newRecordedSession(rec)
		)

		s.Press(ctx)
		s.Close(ctx)

		time.Sleep(time.Second)
		synctest.Wait()

		require.Empty(t, rec.got())
		require.False(t, s.Pressed())

		require.False(t, s.Press(ctx))
		time.Sleep(time.Second)
		synctest.Wait()

		require.Empty(t, rec.got())
	})
}

// TestSession_CloseEndsHold sends the end of a hold that is still down.
func TestSession_CloseEndsHold(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		var (
			ctx = context.Background()
			rec = new(recorder)
			s   = newRecordedSession(rec)
		)

		require.True(t, s.Press(ctx))
		time.Sleep(time.Second)
		synctest.Wait()

		s.Close(ctx)
		require.Equal(t, []string{"hold", "release"}, rec.got())
		require.False(t, s.Held())

		// Closing twice or releasing afterwards sends nothing more.
		s.Close(ctx)
		require.False(t, s.Release(ctx))
		require.Equal(t, []string{"hold", "release"}, rec.got())
	})
}

// TestSession_StaleCallbackAfterRelease ignores a timer callback that lost the race with Release.
func TestSession_StaleCallbackAfterRelease(t *testing.T) {
	t.Parallel()

	var (
		ctx = context.Background()
		rec = new(recorder)
		s   = New("algo1", time.Hour, rec.action("hold"), rec.action("release"))
	)

	require.True(t, s.Press(ctx))

	s.mu.Lock()
	generation := s.generation
	s.mu.Unlock()

	require.False(t, s.Release(ctx))

	// The callback already left the timer before Release stopped it.
	s.fire(ctx, generation)

	require.Empty(t, rec.got())
	require.False(t, s.Held())

	// Same after a new press: the old generation stays stale.
	require.True(t, s.Press(ctx))
	s.fire(ctx, generation)

	require.Empty(t, rec.got())
	require.False(t, s.Held())
	s.Close(ctx)
}

// TestSession_RejectedBeginSkipsEnd keeps the rig from seeing an end without its begin.
func TestSession_RejectedBeginSkipsEnd(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		var (
			ctx = context.Background()
			rec = new(recorder)
			s   = New("algo1", DefaultDelay, rec.reply("hold", false), rec.action("release"))
		)

		require.True(t, s.Press(ctx))
		time.Sleep(time.Second)
		synctest.Wait()

		require.False(t, s.Held())
		require.False(t, s.Release(ctx))
		require.Equal(t, []string{"hold"}, rec.got())
	})
}

// TestNew_Defaults fills in the delay and no-op actions.
func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	s := New("algo2", 0, nil, nil)
	require.Equal(t, DefaultDelay, s.Delay())
	require.Equal(t, "algo2", s.Name())
}
