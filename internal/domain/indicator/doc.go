// Package indicator contains the indicator set driven by status messages.
//
// A Set holds a fixed, ordered list of named indicators. Every status message
// clears all of them and then activates either a single bare name or the
// comma-separated names following the "held:" prefix. Snapshot is the
// immutable view handed to sinks and API handlers.
package indicator
