// Package orchestrator drives the declarative flow graph over a batch of
// input artifacts.
//
// Each eligible file in the repository folder becomes one independent
// traversal: depth-first from the graph root, one step executor invocation
// per node, with a per-artifact ExecutionContext threading ancestor outputs
// to descendants. Failures are isolated twice over: a failed step abandons
// only its own subtree, and a failed artifact never affects other artifacts.
// Per-branch failures are reported in ArtifactResult values, not as errors
// from Run; only startup conditions (missing repository folder, malformed
// step settings) fail the run itself.
//
// Traversal state is passed explicitly down the call chain rather than
// captured in closures, which keeps the walk independently testable and lets
// the artifact-level worker pool run traversals in parallel safely.
package orchestrator
