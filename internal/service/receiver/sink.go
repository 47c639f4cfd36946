package receiver

import (
	"context"

	"github.com/oshokin/rig-panel/internal/domain/indicator"
	"github.com/oshokin/rig-panel/internal/logger"
)

// Sink displays indicator snapshots.
type Sink interface {
	// Name identifies the sink in logs.
	Name() string
	// Show renders one snapshot.
	Show(ctx context.Context, snapshot indicator.Snapshot) error
}

// LogSink writes each snapshot to the log.
type LogSink struct{}

// Name implements Sink.
func (LogSink) Name() string {
	return "log"
}

// Show implements Sink.
func (LogSink) Show(ctx context.Context, snapshot indicator.Snapshot) error {
	logger.Infof(ctx, "Indicators: %s", snapshot)

	return nil
}
