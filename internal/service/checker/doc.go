// Package checker probes a running panel's gRPC health endpoint.
package checker
