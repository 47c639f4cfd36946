// Package simulator runs a stand-in for the rig firmware.
//
// It exposes the same GET endpoints the panel notifies (/hold, /release,
// /start, /stop) and a /ws websocket that broadcasts the light sequencer's
// status messages to every connected panel.
package simulator
