//go:build !gpio || !linux

package gpio

import (
	"context"
	"time"

	"github.com/oshokin/rig-panel/internal/domain/indicator"
)

// Buttons is a placeholder for builds without GPIO support.
type Buttons struct{}

// WatchButtons always fails with ErrUnavailable.
func WatchButtons(context.Context, string, time.Duration, []ButtonBinding) (*Buttons, error) {
	return nil, ErrUnavailable
}

// Close implements io.Closer.
func (*Buttons) Close() error {
	return nil
}

// LEDSink is a placeholder for builds without GPIO support.
type LEDSink struct{}

// OpenLEDs always fails with ErrUnavailable.
func OpenLEDs(string, []LEDBinding) (*LEDSink, error) {
	return nil, ErrUnavailable
}

// Name implements receiver.Sink.
func (*LEDSink) Name() string {
	return "gpio"
}

// Show implements receiver.Sink.
func (*LEDSink) Show(context.Context, indicator.Snapshot) error {
	return ErrUnavailable
}

// Close implements io.Closer.
func (*LEDSink) Close() error {
	return nil
}
