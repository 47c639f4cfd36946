package modbus

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/goburrow/modbus"

	"github.com/oshokin/rig-panel/internal/config"
	"github.com/oshokin/rig-panel/internal/domain/indicator"
)

// errAddressRequired is returned when no Modbus endpoint is configured.
var errAddressRequired = errors.New("modbus address must be provided")

// coilWriter is the subset of modbus.Client used by the sink.
type coilWriter interface {
	WriteMultipleCoils(address, quantity uint16, value []byte) (results []byte, err error)
}

// CoilSink writes snapshots to consecutive coils.
// It serializes requests over one TCP connection.
type CoilSink struct {
	// mu serializes writes.
	mu sync.Mutex
	// handler owns the TCP connection, nil in tests.
	handler *modbus.TCPClientHandler
	// client issues the requests.
	client coilWriter
	// start is the address of the first coil.
	start uint16
}

// Dial connects to the Modbus endpoint described by cfg.
func Dial(cfg config.ModbusConfig) (*CoilSink, error) {
	if cfg.Address == "" {
		return nil, errAddressRequired
	}

	h := modbus.NewTCPClientHandler(cfg.Address)
	h.Timeout = cfg.Timeout
	h.SlaveId = cfg.UnitID

	if err := h.Connect(); err != nil {
		return nil, fmt.Errorf("connect modbus %s: %w", cfg.Address, err)
	}

	return &CoilSink{
		handler: h,
		client:  modbus.NewClient(h),
		start:   cfg.CoilStart,
	}, nil
}

// Name implements receiver.Sink.
func (*CoilSink) Name() string {
	return "modbus"
}

// Show implements receiver.Sink.
func (s *CoilSink) Show(_ context.Context, snapshot indicator.Snapshot) error {
	if len(snapshot) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	bits := snapshot.Bits()

	if _, err := s.client.WriteMultipleCoils(s.start, uint16(len(bits)), packBits(bits)); err != nil {
		return fmt.Errorf("write coils: %w", err)
	}

	return nil
}

// Close releases the TCP connection.
func (s *CoilSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handler == nil {
		return nil
	}

	return s.handler.Close()
}

// packBits packs coil values LSB first, eight per byte.
func packBits(bits []bool) []byte {
	out := make([]byte, (len(bits)+7)/8)
	for i, v := range bits {
		if v {
			out[i/8] |= 1 << uint(i%8)
		}
	}

	return out
}
