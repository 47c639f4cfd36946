// Package sequencer models the rig's light sequencer.
//
// The rig blinks its LEDs one at a time around a ring. While the rig button
// is held past the hold interval it lights the two neighbours of the current
// LED instead, and on release it steps back one position. Every step yields
// the status message the rig broadcasts to panels.
package sequencer
