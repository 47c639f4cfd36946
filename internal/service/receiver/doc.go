// Package receiver keeps the status websocket to the rig open and applies
// every text frame to the indicator set.
//
// Each resulting snapshot is pushed to the configured sinks (log line, GPIO
// LEDs, Modbus coils). Without reconnect the receiver stops after the first
// disconnect and the indicators keep their last state.
package receiver
