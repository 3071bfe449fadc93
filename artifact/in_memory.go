package artifact

import "sync"

// InMemoryStore is a trivial in-process ArtifactStore implementation useful
// for tests, examples and single-process prototypes. It keeps all step
// outputs in a nested map guarded by an RWMutex. Data is copied on save /
// retrieval to avoid accidental external mutation of internal buffers.
//
// Layout: artifactID -> output name -> raw bytes
//
// The reported location uses "artifactID/name" so StepResult references stay
// stable across Save calls without touching a filesystem.
type InMemoryStore struct {
	mu      sync.RWMutex
	outputs map[string]map[string][]byte
}

// NewInMemoryStore returns an empty in-memory artifact store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{outputs: make(map[string]map[string][]byte)}
}

// Prepare allocates the artifact's namespace so it exists even before the
// first Save.
func (a *InMemoryStore) Prepare(artifactID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, exists := a.outputs[artifactID]; !exists {
		a.outputs[artifactID] = make(map[string][]byte)
	}
	return nil
}

// Save stores (or overwrites) the output bytes for the given artifact and
// name. The input slice is copied before storage.
func (a *InMemoryStore) Save(artifactID, name string, data []byte) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, exists := a.outputs[artifactID]; !exists {
		a.outputs[artifactID] = make(map[string][]byte)
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	a.outputs[artifactID][name] = cp
	return artifactID + "/" + name, nil
}

// Get returns a copy of the stored bytes or ErrNotFound.
func (a *InMemoryStore) Get(artifactID, name string) ([]byte, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	m, ok := a.outputs[artifactID]
	if !ok {
		return nil, ErrNotFound
	}
	data, ok := m[name]
	if !ok {
		return nil, ErrNotFound
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

// List returns the output names stored for the artifact. The slice is a
// snapshot and safe for caller mutation.
func (a *InMemoryStore) List(artifactID string) ([]string, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	m, ok := a.outputs[artifactID]
	if !ok {
		return []string{}, nil
	}
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	return names, nil
}
