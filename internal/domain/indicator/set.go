package indicator

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// MultiPrefix marks a status message that activates several indicators at once.
const MultiPrefix = "held:"

// Default indicator names in ring order.
const (
	Red    = "red"
	Yellow = "yellow"
	Green  = "green"
)

var (
	// ErrNoIndicators is returned when a set is created without names.
	ErrNoIndicators = errors.New("at least one indicator is required")
	// ErrInvalidName is returned for empty names or names the grammar cannot carry.
	ErrInvalidName = errors.New("invalid indicator name")
	// ErrDuplicateName is returned when the same name is listed twice.
	ErrDuplicateName = errors.New("duplicate indicator name")
)

// DefaultNames returns the indicator names used by the rig firmware.
func DefaultNames() []string {
	return []string{Red, Yellow, Green}
}

// Set is a fixed collection of named indicators.
// Membership never changes after construction; only the active flags do.
type Set struct {
	// names keeps the configured order for snapshots and coil layouts.
	names []string
	// index maps a name to its position in names.
	index map[string]int
	// active holds the current state, parallel to names.
	active []bool
	// mu protects active.
	mu sync.RWMutex
}

// NewSet creates a set with every indicator inactive.
func NewSet(names []string) (*Set, error) {
	if len(names) == 0 {
		return nil, ErrNoIndicators
	}

	s := &Set{
		names:  make([]string, 0, len(names)),
		index:  make(map[string]int, len(names)),
		active: make([]bool, len(names)),
	}

	for _, name := range names {
		if err := ValidateName(name); err != nil {
			return nil, err
		}

		if _, ok := s.index[name]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateName, name)
		}

		s.index[name] = len(s.names)
		s.names = append(s.names, name)
	}

	return s, nil
}

// ValidateName rejects names that could never be matched by a status message.
func ValidateName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: empty", ErrInvalidName)
	case strings.Contains(name, ","):
		return fmt.Errorf("%w: %q contains a comma", ErrInvalidName, name)
	case strings.HasPrefix(name, MultiPrefix):
		return fmt.Errorf("%w: %q starts with %q", ErrInvalidName, name, MultiPrefix)
	}

	return nil
}

// Names returns the indicator names in set order.
func (s *Set) Names() []string {
	return append([]string(nil), s.names...)
}

// Has reports whether name belongs to the set.
func (s *Set) Has(name string) bool {
	_, ok := s.index[name]

	return ok
}

// Apply recomputes the set from one status message and returns the result.
// Unknown names are ignored, so an unrecognised message leaves everything off.
func (s *Set) Apply(message string) Snapshot {
	active := Parse(message)

	s.mu.Lock()
	defer s.mu.Unlock()

	clear(s.active)

	for _, name := range active {
		if i, ok := s.index[name]; ok {
			s.active[i] = true
		}
	}

	return s.snapshotLocked()
}

// Snapshot returns the current state of every indicator.
func (s *Set) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.snapshotLocked()
}

func (s *Set) snapshotLocked() Snapshot {
	snapshot := make(Snapshot, len(s.names))
	for i, name := range s.names {
		snapshot[i] = State{
			Name:   name,
			Active: s.active[i],
		}
	}

	return snapshot
}

// Parse returns the indicator names a status message asks to activate.
// A bare message yields itself; a prefixed message yields its comma-separated tail.
// Membership is not checked here.
func Parse(message string) []string {
	rest, multi := strings.CutPrefix(message, MultiPrefix)
	if !multi {
		return []string{message}
	}

	return strings.Split(rest, ",")
}
