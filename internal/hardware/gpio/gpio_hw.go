//go:build gpio && linux

package gpio

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/warthog618/go-gpiocdev"

	"github.com/oshokin/rig-panel/internal/domain/indicator"
	"github.com/oshokin/rig-panel/internal/logger"
)

// Buttons holds the requested input lines.
type Buttons struct {
	// lines are closed together.
	lines []*gpiocdev.Line
}

// WatchButtons requests one input line per binding and forwards edges to its presser.
func WatchButtons(ctx context.Context, chip string, debounce time.Duration, bindings []ButtonBinding) (*Buttons, error) {
	buttons := &Buttons{
		lines: make([]*gpiocdev.Line, 0, len(bindings)),
	}

	for _, binding := range bindings {
		var (
			presser   = binding.Presser
			buttonCtx = logger.WithKV(ctx, "button", binding.Name, "line", binding.Line)
		)

		handler := func(event gpiocdev.LineEvent) {
			dispatchEdge(buttonCtx, presser, event.Type == gpiocdev.LineEventFallingEdge)
		}

		options := []gpiocdev.LineReqOption{
			gpiocdev.WithConsumer(consumerName),
			gpiocdev.AsInput,
			gpiocdev.WithPullUp,
			gpiocdev.WithBothEdges,
			gpiocdev.WithEventHandler(handler),
		}

		if debounce > 0 {
			options = append(options, gpiocdev.WithDebounce(debounce))
		}

		line, err := gpiocdev.RequestLine(chip, binding.Line, options...)
		if err != nil {
			_ = buttons.Close()

			return nil, fmt.Errorf("request button %s line %d: %w", binding.Name, binding.Line, err)
		}

		buttons.lines = append(buttons.lines, line)

		logger.DebugKV(buttonCtx, "Watching button line")
	}

	return buttons, nil
}

// Close releases every button line.
func (b *Buttons) Close() error {
	var errs []error

	for _, line := range b.lines {
		if err := line.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	b.lines = nil

	return errors.Join(errs...)
}

// LEDSink drives one output line per indicator.
type LEDSink struct {
	// lines are the requested outputs, ordered like leds.
	lines *gpiocdev.Lines
	// leds maps outputs to indicator names.
	leds []LEDBinding
}

// OpenLEDs requests the LED lines, all initially off.
func OpenLEDs(chip string, leds []LEDBinding) (*LEDSink, error) {
	lines, err := gpiocdev.RequestLines(
		chip,
		offsets(leds),
		gpiocdev.WithConsumer(consumerName),
		gpiocdev.AsOutput(make([]int, len(leds))...),
	)
	if err != nil {
		return nil, fmt.Errorf("request LED lines: %w", err)
	}

	return &LEDSink{
		lines: lines,
		leds:  leds,
	}, nil
}

// Name implements receiver.Sink.
func (*LEDSink) Name() string {
	return "gpio"
}

// Show implements receiver.Sink.
func (s *LEDSink) Show(_ context.Context, snapshot indicator.Snapshot) error {
	if err := s.lines.SetValues(levels(snapshot, s.leds)); err != nil {
		return fmt.Errorf("set LED lines: %w", err)
	}

	return nil
}

// Close turns the LEDs off and releases the lines.
func (s *LEDSink) Close() error {
	_ = s.lines.SetValues(make([]int, len(s.leds)))

	return s.lines.Close()
}
