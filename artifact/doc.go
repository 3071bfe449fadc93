// Package artifact provides core.ArtifactStore implementations for step
// output persistence: FSStore writing the per-artifact output tree on the
// local filesystem, and InMemoryStore for tests and examples.
package artifact
