package panel

import (
	"context"
	"fmt"

	"github.com/oshokin/rig-panel/internal/config"
	"github.com/oshokin/rig-panel/internal/domain/hold"
	"github.com/oshokin/rig-panel/internal/domain/indicator"
	"github.com/oshokin/rig-panel/internal/service/notifier"
	"github.com/oshokin/rig-panel/internal/service/receiver"
)

// Service holds the panel state shared by every input and output.
type Service struct {
	// board routes presses to per-button sessions.
	board *hold.Board
	// set holds the current indicator state.
	set *indicator.Set
	// notifier delivers begin and end notifications.
	notifier *notifier.Notifier
	// receiver keeps the status connection, nil until attached.
	receiver *receiver.Receiver
}

// newService builds the sessions and indicator set described by cfg.
func newService(cfg *config.Config) (*Service, error) {
	n, err := notifier.New(
		cfg.Device.BaseURL,
		notifier.WithCallTimeout(cfg.Device.Timeout),
		notifier.WithDrainTimeout(cfg.Device.Timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("create notifier: %w", err)
	}

	set, err := indicator.NewSet(cfg.IndicatorNames())
	if err != nil {
		return nil, fmt.Errorf("create indicator set: %w", err)
	}

	sessions := make([]*hold.Session, 0, len(cfg.Buttons))
	for _, button := range cfg.Buttons {
		sessions = append(sessions, hold.New(
			button.Name,
			cfg.HoldDelay,
			n.Action(button.BeginPath),
			n.Action(button.EndPath),
		))
	}

	return &Service{
		board:    hold.NewBoard(sessions...),
		set:      set,
		notifier: n,
	}, nil
}

// Press presses the named button.
func (s *Service) Press(ctx context.Context, button string) (bool, error) {
	return s.board.Press(ctx, button)
}

// Release releases the named button.
func (s *Service) Release(ctx context.Context, button string) (bool, error) {
	return s.board.Release(ctx, button)
}

// Buttons returns the state of every button.
func (s *Service) Buttons() []hold.ButtonState {
	return s.board.States()
}

// Indicators returns the current indicator snapshot.
func (s *Service) Indicators() indicator.Snapshot {
	return s.set.Snapshot()
}

// Connection reports the status connection state.
func (s *Service) Connection() receiver.ConnectionStatus {
	if s.receiver == nil {
		return receiver.ConnectionStatus{}
	}

	return s.receiver.Status()
}
