package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/oshokin/rig-panel/internal/domain/indicator"
)

var (
	// errBaseURLRequired is returned when the device base URL is missing.
	errBaseURLRequired = errors.New("device base URL must be provided")
	// errStatusURLRequired is returned when the status websocket URL is missing.
	errStatusURLRequired = errors.New("device status URL must be provided")
	// errUnsupportedScheme is returned for URLs with an unexpected scheme.
	errUnsupportedScheme = errors.New("unsupported URL scheme")
	// errInvalidButton is returned for malformed button entries.
	errInvalidButton = errors.New("invalid button")
	// errDuplicateButton is returned when a button name is reused.
	errDuplicateButton = errors.New("duplicate button name")
	// errDuplicateLine is returned when a GPIO line is assigned twice.
	errDuplicateLine = errors.New("GPIO line assigned twice")
)

// Validate checks the provided settings and fills in defaults for optional fields.
//
//nolint:cyclop // A flat list of checks reads better than helpers per field.
func Validate(settings *Config) error {
	if settings == nil {
		return errConfigIsNotSet
	}

	if err := validateURL(settings.Device.BaseURL, errBaseURLRequired, "http", "https"); err != nil {
		return fmt.Errorf("invalid device base URL: %w", err)
	}

	if err := validateURL(settings.Device.StatusURL, errStatusURLRequired, "ws", "wss"); err != nil {
		return fmt.Errorf("invalid device status URL: %w", err)
	}

	if settings.Device.Timeout <= 0 {
		settings.Device.Timeout = DefaultTimeout
	}

	if settings.HoldDelay <= 0 {
		settings.HoldDelay = DefaultHoldDelay
	}

	if len(settings.Buttons) == 0 {
		settings.Buttons = DefaultButtons()
	}

	if len(settings.Indicators) == 0 {
		settings.Indicators = DefaultIndicators()
	}

	if err := validateButtons(settings.Buttons); err != nil {
		return err
	}

	if _, err := indicator.NewSet(settings.IndicatorNames()); err != nil {
		return fmt.Errorf("invalid indicators: %w", err)
	}

	if err := validateLines(settings); err != nil {
		return err
	}

	if settings.Status.ReconnectDelay <= 0 {
		settings.Status.ReconnectDelay = DefaultReconnectDelay
	}

	if settings.Status.MaxReconnectDelay < settings.Status.ReconnectDelay {
		settings.Status.MaxReconnectDelay = max(DefaultMaxReconnectDelay, settings.Status.ReconnectDelay)
	}

	for name, address := range map[string]string{
		"API":       settings.API.ListenAddress,
		"health":    settings.Health.ListenAddress,
		"Modbus":    settings.Modbus.Address,
		"simulator": settings.Simulator.ListenAddress,
	} {
		if address == "" {
			continue
		}

		if _, err := net.ResolveTCPAddr("tcp", address); err != nil {
			return fmt.Errorf("invalid %s address: %w", name, err)
		}
	}

	if settings.GPIO.Chip == "" {
		settings.GPIO.Chip = DefaultGPIOChip
	}

	if settings.GPIO.Debounce < 0 {
		settings.GPIO.Debounce = 0
	}

	if settings.Modbus.Timeout <= 0 {
		settings.Modbus.Timeout = DefaultTimeout
	}

	if settings.Simulator.StepInterval <= 0 {
		settings.Simulator.StepInterval = DefaultStepInterval
	}

	if settings.Simulator.HoldInterval <= 0 {
		settings.Simulator.HoldInterval = DefaultHoldDelay
	}

	return nil
}

// validateURL checks that raw is an absolute URL with one of the allowed schemes.
func validateURL(raw string, errMissing error, schemes ...string) error {
	if raw == "" {
		return errMissing
	}

	parsed, err := url.ParseRequestURI(raw)
	if err != nil {
		return err
	}

	for _, scheme := range schemes {
		if strings.EqualFold(parsed.Scheme, scheme) {
			if parsed.Host == "" {
				return fmt.Errorf("%w: missing host in %q", errUnsupportedScheme, raw)
			}

			return nil
		}
	}

	return fmt.Errorf("%w: %q, want one of %v", errUnsupportedScheme, parsed.Scheme, schemes)
}

// validateButtons checks names and paths of every button.
func validateButtons(buttons []ButtonConfig) error {
	seen := make(map[string]struct{}, len(buttons))

	for i, button := range buttons {
		if strings.TrimSpace(button.Name) == "" {
			return fmt.Errorf("%w #%d: name is required", errInvalidButton, i)
		}

		if _, ok := seen[button.Name]; ok {
			return fmt.Errorf("%w: %q", errDuplicateButton, button.Name)
		}

		seen[button.Name] = struct{}{}

		if !strings.HasPrefix(button.BeginPath, "/") || !strings.HasPrefix(button.EndPath, "/") {
			return fmt.Errorf("%w %q: begin and end paths must start with '/'", errInvalidButton, button.Name)
		}
	}

	return nil
}

// validateLines rejects GPIO offsets shared between buttons and indicators.
func validateLines(settings *Config) error {
	used := make(map[int]string)

	claim := func(owner string, line *int) error {
		if line == nil {
			return nil
		}

		if previous, ok := used[*line]; ok {
			return fmt.Errorf("%w: line %d used by %s and %s", errDuplicateLine, *line, previous, owner)
		}

		used[*line] = owner

		return nil
	}

	for _, button := range settings.Buttons {
		if err := claim("button "+button.Name, button.GPIOLine); err != nil {
			return err
		}
	}

	for _, ind := range settings.Indicators {
		if err := claim("indicator "+ind.Name, ind.GPIOLine); err != nil {
			return err
		}
	}

	return nil
}
