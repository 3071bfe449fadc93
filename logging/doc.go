// Package logging provides a minimal logging interface and adapters for flowpipe.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn,
// Error) that the orchestrator and step executor use for observability. This
// package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - NoOpLogger for silent operation (testing, minimal setups)
//   - PipelineLogger with run/artifact context and domain helpers
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "text", false)
//	orc, err := orchestrator.New(cfg, graph, exec, func(o *orchestrator.Options) {
//		o.Logger = logger
//	})
//
// The design intentionally keeps the interface minimal to avoid vendor lock-in
// while supporting structured logging where available.
package logging
