package config

import "github.com/oshokin/rig-panel/internal/domain/indicator"

// Rig endpoints toggled by the two stock buttons.
const (
	PathHold    = "/hold"
	PathRelease = "/release"
	PathStart   = "/start"
	PathStop    = "/stop"
)

// DefaultButtons returns the two stock buttons: algo1 drives the web hold,
// algo2 drives the remote start/stop signal.
func DefaultButtons() []ButtonConfig {
	return []ButtonConfig{
		{
			Name:      "algo1",
			BeginPath: PathHold,
			EndPath:   PathRelease,
		},
		{
			Name:      "algo2",
			BeginPath: PathStart,
			EndPath:   PathStop,
		},
	}
}

// DefaultIndicators returns red, yellow and green without GPIO wiring.
func DefaultIndicators() []IndicatorConfig {
	names := indicator.DefaultNames()

	indicators := make([]IndicatorConfig, len(names))
	for i, name := range names {
		indicators[i] = IndicatorConfig{Name: name}
	}

	return indicators
}
