// Package config loads and resolves the three configuration documents that
// drive a pipeline run: global defaults (including the nested default step
// settings block), per-step override settings, and the flow mapping from step
// name to its ordered successor names.
//
// Loading is exposed through Provider, which caches the loaded Set so the
// documents are read once per process; Reset exists for test isolation. A
// missing document yields ErrMissingResource, an unparsable one
// ErrMalformedContent; both are unrecoverable startup conditions, never
// per-step errors.
//
// StepSpec is the merged view of one step's settings: default step settings
// overlaid with the step's overrides, override winning on collision.
package config
