// Package logging provides a minimal logging interface and adapters for the
// clinic agent.
//
// The Logger interface defines the standard logging methods (Debug, Info,
// Warn, Error) used across the dispatcher, store and model adapters. This
// package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	agent := clinicagent.New(st, func(o *clinicagent.Options) { o.Logger = logger })
//
// The design intentionally keeps the interface minimal so any structured
// logger can be plugged in.
package logging
