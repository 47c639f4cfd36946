package indicator

import "strings"

// State is the active flag of one indicator.
type State struct {
	// Name identifies the indicator, e.g. "red".
	Name string `json:"name"`
	// Active is true while the indicator is lit.
	Active bool `json:"active"`
}

// Snapshot is the state of a whole set, in set order.
type Snapshot []State

// Active returns the names of lit indicators in set order.
func (s Snapshot) Active() []string {
	names := make([]string, 0, len(s))
	for _, state := range s {
		if state.Active {
			names = append(names, state.Name)
		}
	}

	return names
}

// IsActive reports whether the named indicator is lit.
func (s Snapshot) IsActive(name string) bool {
	for _, state := range s {
		if state.Name == name {
			return state.Active
		}
	}

	return false
}

// Bits returns the active flags in set order.
func (s Snapshot) Bits() []bool {
	bits := make([]bool, len(s))
	for i, state := range s {
		bits[i] = state.Active
	}

	return bits
}

// String renders the snapshot as "red=on yellow=off green=off".
func (s Snapshot) String() string {
	var b strings.Builder

	for i, state := range s {
		if i > 0 {
			b.WriteByte(' ')
		}

		b.WriteString(state.Name)

		if state.Active {
			b.WriteString("=on")
		} else {
			b.WriteString("=off")
		}
	}

	return b.String()
}
