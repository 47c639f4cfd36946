// Package panel runs rig-panel: it wires configuration, hold sessions,
// the notifier, the status receiver, hardware inputs and sinks, and the
// local API and health listeners.
package panel
