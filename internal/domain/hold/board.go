package hold

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnknownButton is returned for names that are not on the board.
var ErrUnknownButton = errors.New("unknown button")

// ButtonState is the externally visible state of one session.
type ButtonState struct {
	// Name identifies the button.
	Name string `json:"name"`
	// Pressed is true while the button is down.
	Pressed bool `json:"pressed"`
	// Held is true once the press passed the hold threshold.
	Held bool `json:"held"`
}

// Board groups the sessions of a panel by button name.
// Sessions stay independent; the board only routes calls.
type Board struct {
	// order keeps the configured button order.
	order []*Session
	// byName indexes sessions.
	byName map[string]*Session
}

// NewBoard creates a board; duplicate names keep the first session.
func NewBoard(sessions ...*Session) *Board {
	b := &Board{
		order:  make([]*Session, 0, len(sessions)),
		byName: make(map[string]*Session, len(sessions)),
	}

	for _, s := range sessions {
		if _, ok := b.byName[s.Name()]; ok {
			continue
		}

		b.order = append(b.order, s)
		b.byName[s.Name()] = s
	}

	return b
}

// Session returns the named session.
func (b *Board) Session(name string) (*Session, error) {
	s, ok := b.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownButton, name)
	}

	return s, nil
}

// Sessions returns the sessions in board order.
func (b *Board) Sessions() []*Session {
	return append([]*Session(nil), b.order...)
}

// Press forwards to the named session.
func (b *Board) Press(ctx context.Context, name string) (bool, error) {
	s, err := b.Session(name)
	if err != nil {
		return false, err
	}

	return s.Press(ctx), nil
}

// Release forwards to the named session.
func (b *Board) Release(ctx context.Context, name string) (bool, error) {
	s, err := b.Session(name)
	if err != nil {
		return false, err
	}

	return s.Release(ctx), nil
}

// States returns the state of every button in board order.
func (b *Board) States() []ButtonState {
	states := make([]ButtonState, len(b.order))
	for i, s := range b.order {
		states[i] = ButtonState{
			Name:    s.Name(),
			Pressed: s.Pressed(),
			Held:    s.Held(),
		}
	}

	return states
}

// Close ends every held button and rejects later presses.
func (b *Board) Close(ctx context.Context) {
	for _, s := range b.order {
		s.Close(ctx)
	}
}
