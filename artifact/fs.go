package artifact

import (
	"os"
	"path/filepath"
	"sort"
)

// FSStore persists step outputs on the local filesystem under a root output
// folder, one subdirectory per input artifact:
//
//	{root}/{artifactID}/{name}
//
// Parent directories are created as needed. Saves are plain file writes; the
// store holds no state of its own, so it is safe for concurrent use as long
// as distinct artifacts do not share output names (the orchestrator
// guarantees one subdirectory per artifact).
type FSStore struct {
	root string
}

// NewFSStore creates a filesystem store rooted at the given output folder.
func NewFSStore(root string) *FSStore {
	return &FSStore{root: root}
}

// Root returns the configured output root.
func (s *FSStore) Root() string { return s.root }

// Prepare creates the artifact's output directory, empty until the first Save.
func (s *FSStore) Prepare(artifactID string) error {
	return os.MkdirAll(filepath.Join(s.root, artifactID), 0o755)
}

// Save writes the output bytes to {root}/{artifactID}/{name}, creating parent
// directories, and returns the written path.
func (s *FSStore) Save(artifactID, name string, data []byte) (string, error) {
	dir := filepath.Join(s.root, artifactID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// Get reads the stored bytes or returns ErrNotFound when the file is absent.
func (s *FSStore) Get(artifactID, name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.root, artifactID, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

// List returns the output names present for the artifact, sorted. A missing
// artifact directory yields an empty list, mirroring InMemoryStore.
func (s *FSStore) List(artifactID string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, artifactID))
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
