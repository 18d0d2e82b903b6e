// Package logging provides a minimal logging interface and adapters for grocerymesh.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that the catalog, cart, order and tool layers use for observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	mesh, err := grocerymesh.New(func(o *grocerymesh.Options) { o.Logger = logger })
package logging
