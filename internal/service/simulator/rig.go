package simulator

import (
	"context"
	"sync"
	"time"

	"github.com/oshokin/rig-panel/internal/domain/sequencer"
	"github.com/oshokin/rig-panel/internal/logger"
)

// Rig is the simulated device: a sequencer plus the two hold sources.
type Rig struct {
	// hub receives every status message.
	hub *Hub

	// mu protects the fields below.
	mu sync.Mutex
	// seq is the light sequencer.
	seq *sequencer.Sequencer
	// webHeld is set by /hold and cleared by /release.
	webHeld bool
	// remoteHeld is set by /start and cleared by /stop.
	remoteHeld bool
}

// State is the externally visible rig state.
type State struct {
	// Lit lists physically lit LEDs.
	Lit []string `json:"lit"`
	// Current is the sequencer position.
	Current string `json:"current"`
	// WebHeld mirrors /hold and /release.
	WebHeld bool `json:"web_held"`
	// RemoteHeld mirrors /start and /stop.
	RemoteHeld bool `json:"remote_held"`
	// Clients counts connected status listeners.
	Clients int `json:"clients"`
}

// NewRig creates a rig broadcasting through hub.
func NewRig(seq *sequencer.Sequencer, hub *Hub) *Rig {
	return &Rig{
		hub: hub,
		seq: seq,
	}
}

// SetWebHeld records the /hold and /release requests.
func (r *Rig) SetWebHeld(held bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.webHeld = held
}

// SetRemoteHeld records the /start and /stop requests.
func (r *Rig) SetRemoteHeld(held bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.remoteHeld = held
}

// Tick advances the sequencer and broadcasts the step, if any.
func (r *Rig) Tick(ctx context.Context, now time.Time) (string, bool) {
	r.mu.Lock()
	message, ok := r.seq.Tick(now, r.webHeld || r.remoteHeld)
	r.mu.Unlock()

	if ok {
		logger.DebugKV(ctx, "Broadcasting", "message", message)
		r.hub.Broadcast(ctx, message)
	}

	return message, ok
}

// Run ticks the sequencer every interval until ctx is canceled.
func (r *Rig) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.Tick(ctx, time.Now())

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			r.Tick(ctx, now)
		}
	}
}

// State returns a copy of the rig state.
func (r *Rig) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()

	return State{
		Lit:        r.seq.Lit(),
		Current:    r.seq.Current(),
		WebHeld:    r.webHeld,
		RemoteHeld: r.remoteHeld,
		Clients:    r.hub.Clients(),
	}
}
