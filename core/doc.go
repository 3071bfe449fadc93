// Package core provides the foundational domain types shared by the flowpipe
// packages. It defines the core abstractions for:
//
//   - Messages (role-tagged conversation entries sent to completion models)
//   - StepResult (the persisted output one step produced for one artifact)
//   - ExecutionContext (per-artifact accumulator of ancestor step outputs)
//   - ArtifactStore (pluggable persistence for step outputs)
//
// The package intentionally keeps implementation concerns (configuration,
// model adapters, orchestration) out of scope, exposing small types and
// interfaces so the higher layers stay independently testable.
package core
