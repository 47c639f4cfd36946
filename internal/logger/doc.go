// Package logger wraps zap's sugared logger for the panel and the simulator.
//
// Components take a context and log through the logger stored in it, so a
// button name or a connection URL attached once with WithKV shows up on every
// line logged below that point. Contexts without a logger use the global one.
package logger
