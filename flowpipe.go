// Package flowpipe provides a high-level façade over the configuration
// provider, flow graph, step executor and orchestrator, enabling a pipeline
// run to be wired in a few lines. Most applications interact with this
// package by:
//  1. Creating a Pipeline via New() (optionally overriding paths, stores,
//     model resolution or logging)
//  2. Calling Run() to process every artifact in the repository folder
//
// The façade delegates traversal to orchestrator.Orchestrator while keeping
// setup ergonomics concise. Defaults follow the configuration documents; CLI
// flags and tests override them through functional options.
package flowpipe

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/flowpipe/flowpipe/artifact"
	"github.com/flowpipe/flowpipe/config"
	"github.com/flowpipe/flowpipe/core"
	"github.com/flowpipe/flowpipe/executor"
	"github.com/flowpipe/flowpipe/flowgraph"
	"github.com/flowpipe/flowpipe/logging"
	"github.com/flowpipe/flowpipe/model"
	"github.com/flowpipe/flowpipe/model/anthropic"
	"github.com/flowpipe/flowpipe/model/openai"
	"github.com/flowpipe/flowpipe/orchestrator"
)

// Options configures a Pipeline instance.
type Options struct {
	// ConfigPaths locate the three configuration documents.
	ConfigPaths config.Paths

	// RepositoryDir overrides the configured input folder. Empty keeps the
	// configuration default.
	RepositoryDir string

	// OutputDir overrides the configured output root. Empty keeps the
	// configuration default.
	OutputDir string

	// Concurrency is the number of artifacts processed in parallel.
	Concurrency int

	// Store overrides the artifact store (defaults to an FSStore rooted at
	// the output folder).
	Store core.ArtifactStore

	// Resolver overrides model resolution (defaults to DefaultResolver).
	Resolver model.Resolver

	// Logger receives diagnostics from every component. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Pipeline aggregates the wired components for one configuration.
type Pipeline struct {
	cfg   *config.Set
	graph *flowgraph.Graph
	orc   *orchestrator.Orchestrator
}

// New loads configuration, validates the flow graph and wires the executor
// and orchestrator. Any error here is startup-fatal: missing or malformed
// configuration must abort the run before any step is dispatched.
func New(optFns ...func(o *Options)) (*Pipeline, error) {
	opts := Options{
		ConfigPaths: config.DefaultPaths(),
		Concurrency: 1,
		Logger:      logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	provider := config.NewProvider(func(o *config.ProviderOptions) { o.Logger = opts.Logger })
	cfg, err := provider.Load(opts.ConfigPaths)
	if err != nil {
		return nil, err
	}

	graph, err := flowgraph.New(cfg.Flow(), func(o *flowgraph.Options) { o.KnownStep = cfg.KnownStep })
	if err != nil {
		return nil, err
	}

	outputDir := cfg.OutputFolder()
	if opts.OutputDir != "" {
		outputDir = opts.OutputDir
	}
	store := opts.Store
	if store == nil {
		if err := os.MkdirAll(outputDir, 0o755); err != nil {
			return nil, fmt.Errorf("ensuring output folder %s: %w", outputDir, err)
		}
		store = artifact.NewFSStore(outputDir)
	}

	resolver := opts.Resolver
	if resolver == nil {
		resolver = DefaultResolver()
	}

	exec := executor.New(store, resolver, func(o *executor.Options) {
		o.PromptsDir = cfg.PromptsFolder()
		o.Logger = opts.Logger
	})

	orcOpts := []func(o *orchestrator.Options){func(o *orchestrator.Options) {
		o.Concurrency = opts.Concurrency
		o.Logger = opts.Logger
		if opts.RepositoryDir != "" {
			o.RepositoryDir = opts.RepositoryDir
		}
	}}
	orc, err := orchestrator.New(cfg, graph, exec, orcOpts...)
	if err != nil {
		return nil, err
	}

	return &Pipeline{cfg: cfg, graph: graph, orc: orc}, nil
}

// Config returns the loaded configuration set.
func (p *Pipeline) Config() *config.Set { return p.cfg }

// Graph returns the validated flow graph.
func (p *Pipeline) Graph() *flowgraph.Graph { return p.graph }

// Run processes every eligible artifact and returns per-artifact summaries.
// Per-branch failures live in the results; the returned error covers only
// startup-level conditions such as a missing repository folder.
func (p *Pipeline) Run(ctx context.Context) ([]orchestrator.ArtifactResult, error) {
	return p.orc.Run(ctx)
}

// DefaultResolver maps provider selectors to SDK-backed models, constructing
// each (provider, model) pair once and reusing it across steps and artifacts.
// Supported selectors: "openai" (default), "gemini" (OpenAI-compatible
// endpoint), "anthropic".
func DefaultResolver() model.Resolver {
	var mu sync.Mutex
	cache := make(map[string]model.Model)

	return func(provider, modelID string) (model.Model, error) {
		if provider == "" {
			provider = "openai"
		}
		key := provider + "/" + modelID

		mu.Lock()
		defer mu.Unlock()
		if m, ok := cache[key]; ok {
			return m, nil
		}

		var (
			m   model.Model
			err error
		)
		switch provider {
		case "openai":
			if os.Getenv("OPENAI_API_KEY") == "" {
				return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
			}
			m = openai.NewModel(func(o *openai.Options) {
				if modelID != "" {
					o.Model = modelID
				}
			})
		case "gemini":
			m, err = openai.NewGeminiModel(func(o *openai.Options) {
				if modelID != "" {
					o.Model = modelID
				}
			})
			if err != nil {
				return nil, err
			}
		case "anthropic":
			m = anthropic.NewModel(func(o *anthropic.Options) {
				if modelID != "" {
					o.Model = modelID
				}
			})
		default:
			return nil, fmt.Errorf("unsupported provider: %s", provider)
		}

		cache[key] = m
		return m, nil
	}
}
