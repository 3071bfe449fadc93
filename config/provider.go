package config

import (
	"sync"

	"github.com/flowpipe/flowpipe/logging"
)

// ProviderOptions configures a Provider instance.
type ProviderOptions struct {
	// Logger receives load diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Provider loads the configuration Set with cached-instance semantics:
// repeated Load calls with the same paths return the identical in-memory Set
// rather than re-reading storage. Callers that need a fresh load (test
// isolation, mostly) call Reset explicitly. Provider is safe for concurrent
// use; the Set it returns is read-only.
type Provider struct {
	mu     sync.Mutex
	cached *Set
	paths  Paths
	logger logging.Logger
}

// NewProvider constructs a Provider with optional overrides.
func NewProvider(optFns ...func(o *ProviderOptions)) *Provider {
	opts := ProviderOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Provider{logger: opts.Logger}
}

// Load returns the configuration Set for the given paths. The first call
// reads and validates all three documents; subsequent calls with equal paths
// return the cached instance. Calling with different paths replaces the
// cached instance with a fresh load.
func (p *Provider) Load(paths Paths) (*Set, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cached != nil && paths == p.paths {
		p.logger.Debug("Returning cached configuration set")
		return p.cached, nil
	}

	p.logger.Info("Loading configuration",
		"defaults", paths.Defaults, "steps", paths.Steps, "flow", paths.Flow)
	set, err := loadSet(paths)
	if err != nil {
		return nil, err
	}
	p.cached = set
	p.paths = paths
	p.logger.Info("Configuration loaded", "steps", len(set.stepOverrides), "flow_nodes", len(set.flow))
	return set, nil
}

// Reset discards the cached instance so the next Load re-reads storage.
// Exposed for test isolation; production code loads once per process.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cached = nil
	p.paths = Paths{}
}
