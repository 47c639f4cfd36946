package gpio

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/rig-panel/internal/domain/indicator"
)

// countingPresser counts press and release calls.
type countingPresser struct {
	// presses and releases count calls.
	presses, releases int
}

// Press implements Presser.
func (c *countingPresser) Press(context.Context) bool {
	c.presses++

	return true
}

// Release implements Presser.
func (c *countingPresser) Release(context.Context) bool {
	c.releases++

	return false
}

// TestDispatchEdge maps falling edges to presses on active-low buttons.
func TestDispatchEdge(t *testing.T) {
	t.Parallel()

	p := new(countingPresser)

	dispatchEdge(context.Background(), p, true)
	dispatchEdge(context.Background(), p, false)
	dispatchEdge(context.Background(), p, false)

	require.Equal(t, 1, p.presses)
	require.Equal(t, 2, p.releases)
}

// TestLevels follows LED bindings rather than set order.
func TestLevels(t *testing.T) {
	t.Parallel()

	set, err := indicator.NewSet(indicator.DefaultNames())
	require.NoError(t, err)

	leds := []LEDBinding{
		{Name: "green", Line: 2},
		{Name: "red", Line: 13},
		{Name: "yellow", Line: 14},
	}

	require.Equal(t, []int{1, 0, 1}, levels(set.Apply("held:yellow,green"), leds))
	require.Equal(t, []int{0, 1, 0}, levels(set.Apply("red"), leds))
	require.Equal(t, []int{2, 13, 14}, offsets(leds))
}
