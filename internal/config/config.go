package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds the panel, device and simulator settings.
type Config struct {
	// Device describes the rig's HTTP and websocket addresses.
	Device DeviceConfig `yaml:"device" split_words:"true"`
	// HoldDelay is how long a button must stay pressed before its hold begins.
	HoldDelay time.Duration `yaml:"hold_delay" split_words:"true"`
	// Buttons lists the hold-gated panel buttons.
	Buttons []ButtonConfig `yaml:"buttons" ignored:"true"`
	// Indicators lists the lights in ring order.
	Indicators []IndicatorConfig `yaml:"indicators" ignored:"true"`
	// Status controls the status connection.
	Status StatusConfig `yaml:"status" split_words:"true"`
	// API configures the local HTTP control API.
	API ListenerConfig `yaml:"api" split_words:"true"`
	// Health configures the gRPC health endpoint.
	Health ListenerConfig `yaml:"health" split_words:"true"`
	// GPIO configures physical buttons and LEDs.
	GPIO GPIOConfig `yaml:"gpio" split_words:"true"`
	// Modbus configures the coil mirror.
	Modbus ModbusConfig `yaml:"modbus" split_words:"true"`
	// Simulator configures rig-simulator.
	Simulator SimulatorConfig `yaml:"simulator" split_words:"true"`
	// LogLevel is the minimum zap level ("debug", "info", ...).
	LogLevel string `yaml:"log_level" split_words:"true"`
}

// DeviceConfig holds the rig addresses.
type DeviceConfig struct {
	// BaseURL is where hold notifications are sent, e.g. http://192.168.4.2.
	BaseURL string `yaml:"base_url" split_words:"true"`
	// StatusURL is the websocket pushing light states, e.g. ws://192.168.4.2/ws.
	StatusURL string `yaml:"status_url" split_words:"true"`
	// Timeout bounds a single notification or dial.
	Timeout time.Duration `yaml:"timeout" split_words:"true"`
}

// ButtonConfig binds a button to its begin and end paths.
type ButtonConfig struct {
	// Name identifies the button in the API and logs.
	Name string `yaml:"name"`
	// BeginPath is requested once the hold threshold is reached.
	BeginPath string `yaml:"begin_path"`
	// EndPath is requested on release of a hold.
	EndPath string `yaml:"end_path"`
	// GPIOLine is the input line offset, nil when the button has no wire.
	GPIOLine *int `yaml:"gpio_line,omitempty"`
}

// IndicatorConfig describes one light.
type IndicatorConfig struct {
	// Name is matched against status messages.
	Name string `yaml:"name"`
	// GPIOLine is the output line offset, nil when the light has no wire.
	GPIOLine *int `yaml:"gpio_line,omitempty"`
}

// StatusConfig controls the status websocket.
type StatusConfig struct {
	// Reconnect enables redialing after the connection drops.
	Reconnect bool `yaml:"reconnect" split_words:"true"`
	// ReconnectDelay is the first backoff delay.
	ReconnectDelay time.Duration `yaml:"reconnect_delay" split_words:"true"`
	// MaxReconnectDelay caps the exponential backoff.
	MaxReconnectDelay time.Duration `yaml:"max_reconnect_delay" split_words:"true"`
}

// ListenerConfig is an optional local listener; empty address disables it.
type ListenerConfig struct {
	// ListenAddress is host:port to bind.
	ListenAddress string `yaml:"listen_addr" split_words:"true"`
}

// GPIOConfig selects the GPIO character device.
type GPIOConfig struct {
	// Chip is the gpiochip name, e.g. gpiochip0.
	Chip string `yaml:"chip" split_words:"true"`
	// Debounce filters contact bounce on button lines.
	Debounce time.Duration `yaml:"debounce" split_words:"true"`
}

// ModbusConfig describes a Modbus TCP endpoint receiving indicator coils.
type ModbusConfig struct {
	// Address is host:port of the Modbus TCP server; empty disables the mirror.
	Address string `yaml:"address" split_words:"true"`
	// UnitID is the Modbus slave id.
	UnitID uint8 `yaml:"unit_id" split_words:"true"`
	// CoilStart is the address of the first indicator coil.
	CoilStart uint16 `yaml:"coil_start" split_words:"true"`
	// Timeout bounds a single Modbus request.
	Timeout time.Duration `yaml:"timeout" split_words:"true"`
}

// SimulatorConfig holds rig-simulator settings.
type SimulatorConfig struct {
	// ListenAddress overrides the address derived from Device.BaseURL.
	ListenAddress string `yaml:"listen_addr" split_words:"true"`
	// StepInterval is the light sequencer period.
	StepInterval time.Duration `yaml:"step_interval" split_words:"true"`
	// HoldInterval is how long the rig button must be held to enter pair mode.
	HoldInterval time.Duration `yaml:"hold_interval" split_words:"true"`
}

const (
	// DefaultConfigFilename is the default filename for panel settings.
	DefaultConfigFilename = "rig-panel.yaml"

	// DefaultEnvFilename is the dotenv file read before environment overrides.
	DefaultEnvFilename = ".env"

	// EnvPrefix prefixes every environment override, e.g. RIG_PANEL_DEVICE_BASE_URL.
	EnvPrefix = "RIG_PANEL"

	// DefaultBaseURL is the rig's access point address.
	DefaultBaseURL = "http://192.168.4.2"

	// DefaultStatusURL is the rig's websocket endpoint.
	DefaultStatusURL = "ws://192.168.4.2/ws"

	// DefaultTimeout is the default duration for network operations.
	DefaultTimeout = 5 * time.Second

	// DefaultHoldDelay is the press duration that starts a hold.
	DefaultHoldDelay = 500 * time.Millisecond

	// DefaultReconnectDelay is the first status reconnect delay.
	DefaultReconnectDelay = time.Second

	// DefaultMaxReconnectDelay caps status reconnect backoff.
	DefaultMaxReconnectDelay = 30 * time.Second

	// DefaultGPIOChip is the usual Raspberry Pi GPIO chip.
	DefaultGPIOChip = "gpiochip0"

	// DefaultDebounce filters button contact bounce.
	DefaultDebounce = 10 * time.Millisecond

	// DefaultStepInterval is the simulator's light step period.
	DefaultStepInterval = 500 * time.Millisecond

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

// errConfigIsNotSet is returned when a nil configuration is provided.
var errConfigIsNotSet = errors.New("configuration is not set")

// Default returns the settings matching the stock rig firmware.
func Default() *Config {
	return &Config{
		Device: DeviceConfig{
			BaseURL:   DefaultBaseURL,
			StatusURL: DefaultStatusURL,
			Timeout:   DefaultTimeout,
		},
		HoldDelay:  DefaultHoldDelay,
		Buttons:    DefaultButtons(),
		Indicators: DefaultIndicators(),
		Status: StatusConfig{
			ReconnectDelay:    DefaultReconnectDelay,
			MaxReconnectDelay: DefaultMaxReconnectDelay,
		},
		GPIO: GPIOConfig{
			Chip:     DefaultGPIOChip,
			Debounce: DefaultDebounce,
		},
		Modbus: ModbusConfig{
			UnitID:  1,
			Timeout: DefaultTimeout,
		},
		Simulator: SimulatorConfig{
			StepInterval: DefaultStepInterval,
			HoldInterval: DefaultHoldDelay,
		},
		LogLevel: "info",
	}
}

// Load reads configuration from the provided path, applies environment
// overrides and validates the result. A missing file at the default path
// yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	cfg := Default()

	contents, err := os.ReadFile(filepath.Clean(path))

	switch {
	case err == nil:
		if err = yaml.Unmarshal(contents, cfg); err != nil {
			return nil, fmt.Errorf("unmarshal settings: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist) && path == DefaultConfigFilename:
		// Run on defaults.
	default:
		return nil, fmt.Errorf("read settings: %w", err)
	}

	if err = ApplyEnvironment(cfg); err != nil {
		return nil, err
	}

	if err = Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadDotEnv copies variables from a dotenv file into the process
// environment without overriding existing ones. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = DefaultEnvFilename
	}

	err := godotenv.Load(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}

	return nil
}

// ApplyEnvironment overrides settings from RIG_PANEL_* variables.
func ApplyEnvironment(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return fmt.Errorf("environment overrides: %w", err)
	}

	return nil
}

// Save writes settings to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// IndicatorNames returns the configured indicator names in order.
func (c *Config) IndicatorNames() []string {
	names := make([]string, len(c.Indicators))
	for i, ind := range c.Indicators {
		names[i] = ind.Name
	}

	return names
}
