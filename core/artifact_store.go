package core

// ArtifactStore defines the interface for step output persistence.
// Implementations should be thread-safe and scope stored entries by artifact
// identifier (one namespace per input artifact). Save returns the storage
// location so that StepResult can carry a stable reference for descendants.
type ArtifactStore interface {
	// Prepare creates the artifact's output namespace before any step runs,
	// so a traversal that fails at its first step still leaves the (empty)
	// namespace behind.
	Prepare(artifactID string) error
	Save(artifactID, name string, data []byte) (string, error)
	Get(artifactID, name string) ([]byte, error)
	List(artifactID string) ([]string, error)
}
