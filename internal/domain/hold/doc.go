// Package hold implements the press-and-hold gate shared by every panel button.
//
// A Session fires its begin action only after the button has stayed pressed
// for the configured delay, and fires its end action on the matching release.
// Short taps produce no actions at all.
package hold
