package panel

import (
	"context"
	"errors"

	"github.com/oshokin/rig-panel/internal/config"
	"github.com/oshokin/rig-panel/internal/domain/hold"
	"github.com/oshokin/rig-panel/internal/hardware/gpio"
	"github.com/oshokin/rig-panel/internal/hardware/modbus"
	"github.com/oshokin/rig-panel/internal/logger"
	"github.com/oshokin/rig-panel/internal/service/receiver"
)

// openSinks opens every configured indicator sink.
// A sink that cannot be opened is logged and skipped.
func openSinks(ctx context.Context, cfg *config.Config) ([]receiver.Sink, func()) {
	var (
		sinks   = []receiver.Sink{receiver.LogSink{}}
		closers []func() error
	)

	if leds := ledBindings(cfg.Indicators); len(leds) > 0 {
		sink, err := gpio.OpenLEDs(cfg.GPIO.Chip, leds)
		if err != nil {
			logHardwareError(ctx, "GPIO LEDs disabled", err)
		} else {
			sinks = append(sinks, sink)
			closers = append(closers, sink.Close)
		}
	}

	if cfg.Modbus.Address != "" {
		sink, err := modbus.Dial(cfg.Modbus)
		if err != nil {
			logHardwareError(ctx, "Modbus mirror disabled", err)
		} else {
			sinks = append(sinks, sink)
			closers = append(closers, sink.Close)
		}
	}

	return sinks, func() {
		for _, closeSink := range closers {
			if err := closeSink(); err != nil {
				logger.DebugKV(ctx, "Close sink failed", "error", err)
			}
		}
	}
}

// watchButtons requests GPIO lines for wired buttons.
// Without wired buttons, or when the lines are unavailable, only the API drives the board.
func watchButtons(ctx context.Context, cfg *config.Config, board *hold.Board) func() {
	bindings := buttonBindings(cfg.Buttons, board)
	if len(bindings) == 0 {
		return func() {}
	}

	buttons, err := gpio.WatchButtons(ctx, cfg.GPIO.Chip, cfg.GPIO.Debounce, bindings)
	if err != nil {
		logHardwareError(ctx, "GPIO buttons disabled", err)

		return func() {}
	}

	return func() {
		if err := buttons.Close(); err != nil {
			logger.DebugKV(ctx, "Close buttons failed", "error", err)
		}
	}
}

// ledBindings returns the indicators wired to output lines.
func ledBindings(indicators []config.IndicatorConfig) []gpio.LEDBinding {
	var leds []gpio.LEDBinding

	for _, ind := range indicators {
		if ind.GPIOLine == nil {
			continue
		}

		leds = append(leds, gpio.LEDBinding{Name: ind.Name, Line: *ind.GPIOLine})
	}

	return leds
}

// buttonBindings returns the buttons wired to input lines.
func buttonBindings(buttons []config.ButtonConfig, board *hold.Board) []gpio.ButtonBinding {
	var bindings []gpio.ButtonBinding

	for _, button := range buttons {
		if button.GPIOLine == nil {
			continue
		}

		session, err := board.Session(button.Name)
		if err != nil {
			continue
		}

		bindings = append(bindings, gpio.ButtonBinding{
			Name:    button.Name,
			Line:    *button.GPIOLine,
			Presser: session,
		})
	}

	return bindings
}

// logHardwareError reports an optional device that could not be opened.
func logHardwareError(ctx context.Context, message string, err error) {
	if errors.Is(err, gpio.ErrUnavailable) {
		logger.InfoKV(ctx, message, "reason", err)
		return
	}

	logger.WarnKV(ctx, message, "error", err)
}
