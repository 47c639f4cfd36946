package gpio

import (
	"context"
	"errors"

	"github.com/oshokin/rig-panel/internal/domain/indicator"
)

// consumerName labels requested lines in gpioinfo output.
const consumerName = "rig-panel"

// ErrUnavailable is returned when the binary was built without GPIO support.
var ErrUnavailable = errors.New("GPIO support not compiled in, rebuild with -tags gpio")

// Presser is driven by button edges. *hold.Session implements it.
type Presser interface {
	Press(ctx context.Context) bool
	Release(ctx context.Context) bool
}

// ButtonBinding wires one input line to a press session.
type ButtonBinding struct {
	// Name identifies the button in logs.
	Name string
	// Line is the input offset on the chip.
	Line int
	// Presser receives press and release calls.
	Presser Presser
}

// LEDBinding wires one indicator to an output line.
type LEDBinding struct {
	// Name is the indicator name.
	Name string
	// Line is the output offset on the chip.
	Line int
}

// dispatchEdge turns an edge into a press or release.
// Buttons are wired active low against a pull-up, so a falling edge is a press.
func dispatchEdge(ctx context.Context, presser Presser, falling bool) {
	if falling {
		presser.Press(ctx)
		return
	}

	presser.Release(ctx)
}

// levels returns the output value of every LED for a snapshot.
func levels(snapshot indicator.Snapshot, leds []LEDBinding) []int {
	values := make([]int, len(leds))
	for i, led := range leds {
		if snapshot.IsActive(led.Name) {
			values[i] = 1
		}
	}

	return values
}

// offsets returns the line offsets of the LED bindings.
func offsets(leds []LEDBinding) []int {
	result := make([]int, len(leds))
	for i, led := range leds {
		result[i] = led.Line
	}

	return result
}
