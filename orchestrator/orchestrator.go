package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/flowpipe/flowpipe/config"
	"github.com/flowpipe/flowpipe/core"
	"github.com/flowpipe/flowpipe/executor"
	"github.com/flowpipe/flowpipe/flowgraph"
	"github.com/flowpipe/flowpipe/logging"
)

// reservedNames are repository entries that are never treated as input
// artifacts (package markers and similar).
var reservedNames = map[string]bool{
	"__init__.py": true,
}

// StepFailure records one failed branch: the step that failed and the cause.
type StepFailure struct {
	Step string
	Err  error
}

// ArtifactResult summarizes one artifact's traversal: the steps that
// completed in completion order and every branch failure. A failed branch
// does not undo outputs of already-completed sibling branches.
type ArtifactResult struct {
	Artifact  string        // input artifact base name
	ID        string        // output namespace (artifact stem)
	Completed []string      // step names in completion order
	Failures  []StepFailure // one entry per failed branch
	Duration  time.Duration
}

// Failed reports whether any branch of the traversal failed.
func (r *ArtifactResult) Failed() bool { return len(r.Failures) > 0 }

// Options configure an Orchestrator instance.
type Options struct {
	// Concurrency is the number of artifacts processed in parallel. Artifacts
	// share no mutable state, so this is safe at any value; the default of 1
	// keeps execution fully sequential.
	Concurrency int
	// RepositoryDir overrides the configured input folder.
	RepositoryDir string
	// Logger receives traversal diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Orchestrator drives the flow graph over a batch of input artifacts: one
// independent depth-first traversal per artifact, invoking the step executor
// at each node and propagating outputs as context to descendants. Failures
// are isolated per artifact and per branch.
type Orchestrator struct {
	graph       *flowgraph.Graph
	exec        *executor.Executor
	specs       map[string]*config.StepSpec
	repoDir     string
	concurrency int
	logger      logging.Logger
}

// New constructs an Orchestrator. Step specifications for every graph node
// are resolved eagerly so malformed settings surface as a startup error, not
// mid-run.
func New(cfg *config.Set, graph *flowgraph.Graph, exec *executor.Executor, optFns ...func(o *Options)) (*Orchestrator, error) {
	opts := Options{
		Concurrency:   1,
		RepositoryDir: cfg.RepositoryFolder(),
		Logger:        logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}

	specs := make(map[string]*config.StepSpec, graph.Len())
	for _, name := range graph.Steps() {
		spec, err := cfg.StepSpec(name)
		if err != nil {
			return nil, err
		}
		specs[name] = spec
	}

	return &Orchestrator{
		graph:       graph,
		exec:        exec,
		specs:       specs,
		repoDir:     opts.RepositoryDir,
		concurrency: opts.Concurrency,
		logger:      opts.Logger,
	}, nil
}

// Run processes every eligible artifact in the repository folder. A missing
// repository folder is a startup-fatal error; per-artifact and per-branch
// failures are recorded in the results and never abort other artifacts.
// Results are returned in enumeration order regardless of concurrency.
func (o *Orchestrator) Run(ctx context.Context) ([]ArtifactResult, error) {
	artifacts, err := o.listArtifacts()
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	o.logger.Info("Starting orchestration run",
		"run_id", runID, "artifacts", len(artifacts), "root_step", o.graph.Root(), "concurrency", o.concurrency)

	results := make([]ArtifactResult, len(artifacts))
	if o.concurrency == 1 {
		for i, path := range artifacts {
			results[i] = o.processArtifact(ctx, path)
		}
		return results, nil
	}

	// Worker pool over independent artifacts. Each traversal owns its
	// ExecutionContext, so workers share nothing mutable.
	type job struct {
		idx  int
		path string
	}
	jobs := make(chan job)
	var wg sync.WaitGroup
	for w := 0; w < o.concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				results[j.idx] = o.processArtifact(ctx, j.path)
			}
		}()
	}
	for i, path := range artifacts {
		jobs <- job{idx: i, path: path}
	}
	close(jobs)
	wg.Wait()

	return results, nil
}

// listArtifacts enumerates eligible input files: regular entries of the
// repository folder, excluding reserved package markers and hidden files.
// Sorted for deterministic processing order.
func (o *Orchestrator) listArtifacts() ([]string, error) {
	entries, err := os.ReadDir(o.repoDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("repository folder does not exist: %s", o.repoDir)
		}
		return nil, fmt.Errorf("reading repository folder %s: %w", o.repoDir, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || reservedNames[e.Name()] || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		paths = append(paths, filepath.Join(o.repoDir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// processArtifact runs one independent traversal: fresh ExecutionContext,
// output namespace derived from the artifact stem (independent of step names
// so unrelated pipelines cannot collide), depth-first from the graph root.
func (o *Orchestrator) processArtifact(ctx context.Context, path string) ArtifactResult {
	base := filepath.Base(path)
	id := strings.TrimSuffix(base, filepath.Ext(base))

	res := ArtifactResult{Artifact: base, ID: id}
	start := time.Now()

	o.logger.Info("Processing artifact", "artifact", base, "output_dir", id)

	// The output namespace exists even when every step of the traversal
	// fails, so a rerun finds the same output tree shape.
	if err := o.exec.Store().Prepare(id); err != nil {
		res.Failures = append(res.Failures, StepFailure{
			Step: o.graph.Root(),
			Err:  fmt.Errorf("preparing output directory: %w", err),
		})
		res.Duration = time.Since(start)
		o.logger.Error("Artifact output directory could not be created",
			"artifact", base, "output_dir", id, "error", err)
		return res
	}

	ec := core.NewExecutionContext()
	input := core.InputRef{Path: path, Initial: true}
	o.visit(ctx, id, o.graph.Root(), input, nil, ec, &res)

	res.Duration = time.Since(start)
	if res.Failed() {
		o.logger.Warn("Artifact traversal finished with failures",
			"artifact", base, "completed_steps", res.Completed,
			"failed_steps", failedSteps(res.Failures), "duration", res.Duration)
	} else {
		o.logger.Info("Artifact traversal completed",
			"artifact", base, "completed_steps", res.Completed, "duration", res.Duration)
	}
	return res
}

func failedSteps(failures []StepFailure) []string {
	steps := make([]string, len(failures))
	for i, f := range failures {
		steps[i] = f.Step
	}
	return steps
}

// visit dispatches one node and, on success, its successors in declared
// order. ancestors is this node's path from the root; it bounds the context
// the executor may expose, so sibling branches recorded in the shared
// ExecutionContext stay invisible to each other. On failure only the failed
// node's remaining subtree is abandoned: its not-yet-started descendants are
// never dispatched, while siblings later in the parent's declared order still
// run and already-completed branches keep their outputs.
func (o *Orchestrator) visit(
	ctx context.Context,
	artifactID, step string,
	input core.InputRef,
	ancestors []string,
	ec *core.ExecutionContext,
	res *ArtifactResult,
) {
	if err := ctx.Err(); err != nil {
		res.Failures = append(res.Failures, StepFailure{Step: step, Err: err})
		return
	}
	if ec.Has(step) {
		// Reachable via more than one ancestor path; the step already ran for
		// this artifact and must not be dispatched twice.
		return
	}

	stepStart := time.Now()
	result, err := o.exec.Execute(ctx, o.specs[step], artifactID, input, ancestors, ec)
	if err != nil {
		o.logger.Error("Stopping branch: step failed",
			"step", step, "artifact", res.Artifact, "duration", time.Since(stepStart), "error", err)
		res.Failures = append(res.Failures, StepFailure{Step: step, Err: err})
		return
	}
	o.logger.Debug("Step completed", "step", step, "artifact", res.Artifact, "duration", time.Since(stepStart))

	ec.Record(result)
	res.Completed = append(res.Completed, step)

	next := core.InputRef{Path: result.Path}
	path := append(append([]string(nil), ancestors...), step)
	for _, succ := range o.graph.Successors(step) {
		o.visit(ctx, artifactID, succ, next, path, ec, res)
	}
}
