package orchestrator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowpipe/flowpipe/artifact"
	"github.com/flowpipe/flowpipe/config"
	"github.com/flowpipe/flowpipe/core"
	"github.com/flowpipe/flowpipe/executor"
	"github.com/flowpipe/flowpipe/flowgraph"
	"github.com/flowpipe/flowpipe/model"
)

// harness bundles the pieces one orchestration test needs: a loaded
// configuration, the validated graph, a mock-backed executor and the
// in-memory store holding produced outputs.
type harness struct {
	cfg     *config.Set
	graph   *flowgraph.Graph
	exec    *executor.Executor
	store   *artifact.InMemoryStore
	mock    *model.MockModel
	repoDir string
}

func newHarness(t *testing.T, flowDoc string, templates map[string]string, inputs map[string]string) *harness {
	t.Helper()
	dir := t.TempDir()

	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	paths := config.Paths{
		Defaults: write("default_config.json", `{"default_step_settings": {"provider": "mock", "model": "test-model"}}`),
		Steps:    write("step_config.json", `{}`),
		Flow:     write("flow.json", flowDoc),
	}
	cfg, err := config.NewProvider().Load(paths)
	require.NoError(t, err)

	graph, err := flowgraph.New(cfg.Flow(), func(o *flowgraph.Options) { o.KnownStep = cfg.KnownStep })
	require.NoError(t, err)

	promptsDir := filepath.Join(dir, "prompts")
	for step, tmpl := range templates {
		stepDir := filepath.Join(promptsDir, step)
		require.NoError(t, os.MkdirAll(stepDir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(stepDir, "user_template.txt"), []byte(tmpl), 0o644))
	}

	repoDir := filepath.Join(dir, "repository")
	require.NoError(t, os.MkdirAll(repoDir, 0o755))
	for name, content := range inputs {
		require.NoError(t, os.WriteFile(filepath.Join(repoDir, name), []byte(content), 0o644))
	}

	mock := model.NewMockModel("test-model")
	store := artifact.NewInMemoryStore()
	exec := executor.New(store,
		func(provider, modelID string) (model.Model, error) { return mock, nil },
		func(o *executor.Options) { o.PromptsDir = promptsDir })

	return &harness{cfg: cfg, graph: graph, exec: exec, store: store, mock: mock, repoDir: repoDir}
}

func (h *harness) orchestrator(t *testing.T, optFns ...func(o *Options)) *Orchestrator {
	t.Helper()
	optFns = append([]func(o *Options){func(o *Options) { o.RepositoryDir = h.repoDir }}, optFns...)
	o, err := New(h.cfg, h.graph, h.exec, optFns...)
	require.NoError(t, err)
	return o
}

func TestRun_FailureIsolatedPerArtifact(t *testing.T) {
	h := newHarness(t,
		`{"extract": ["summarize"], "summarize": []}`,
		map[string]string{
			"extract":   "E: {input_content}",
			"summarize": "S: {extract}",
		},
		map[string]string{
			"a.txt": "alpha",
			"b.txt": "beta",
		})

	// a.txt's extraction yields no fenced payload; b.txt succeeds end to end.
	h.mock.AddResponse("E: alpha", "no fenced payload here")
	h.mock.AddResponse("E: beta", "```\nbeta facts\n```")
	h.mock.AddResponse("S: beta facts", "```\nbeta summary\n```")

	results, err := h.orchestrator(t).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 2)

	a := results[0]
	assert.Equal(t, "a.txt", a.Artifact)
	assert.Equal(t, "a", a.ID)
	assert.True(t, a.Failed())
	assert.Empty(t, a.Completed)
	require.Len(t, a.Failures, 1)
	assert.Equal(t, "extract", a.Failures[0].Step)

	b := results[1]
	assert.Equal(t, "b.txt", b.Artifact)
	assert.False(t, b.Failed())
	assert.Equal(t, []string{"extract", "summarize"}, b.Completed)

	// Outputs exist only for the successful artifact.
	data, err := h.store.Get("b", "summarize.txt")
	require.NoError(t, err)
	assert.Equal(t, "beta summary", string(data))

	_, err = h.store.Get("a", "extract.txt")
	assert.True(t, errors.Is(err, artifact.ErrNotFound))
	_, err = h.store.Get("a", "summarize.txt")
	assert.True(t, errors.Is(err, artifact.ErrNotFound))
}

func TestRun_FailedBranchDoesNotStopSiblings(t *testing.T) {
	h := newHarness(t,
		`{"root": ["left", "right"], "left": [], "right": []}`,
		map[string]string{
			"root":  "R: {input_content}",
			"left":  "L: {root}",
			"right": "G: {root}",
		},
		map[string]string{"doc.txt": "content"})

	h.mock.AddResponse("R: content", "```\nroot out\n```")
	h.mock.AddResponse("L: root out", "left payload without fences")
	h.mock.AddResponse("G: root out", "```\nright out\n```")

	results, err := h.orchestrator(t).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)

	res := results[0]
	assert.True(t, res.Failed())
	require.Len(t, res.Failures, 1)
	assert.Equal(t, "left", res.Failures[0].Step)

	// The sibling after the failed branch still ran, and the completed
	// branches kept their outputs.
	assert.Equal(t, []string{"root", "right"}, res.Completed)
	data, err := h.store.Get("doc", "right.txt")
	require.NoError(t, err)
	assert.Equal(t, "right out", string(data))
}

func TestRun_FailedSubtreeAbandoned(t *testing.T) {
	h := newHarness(t,
		`{"root": ["mid"], "mid": ["leaf"], "leaf": []}`,
		map[string]string{
			"root": "R: {input_content}",
			"mid":  "M: {root}",
			"leaf": "F: {mid}",
		},
		map[string]string{"doc.txt": "content"})

	h.mock.AddResponse("R: content", "```\nroot out\n```")
	h.mock.AddResponse("M: root out", "unfenced")

	results, err := h.orchestrator(t).Run(context.Background())
	require.NoError(t, err)

	res := results[0]
	assert.Equal(t, []string{"root"}, res.Completed)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, "mid", res.Failures[0].Step)

	// The failed node's descendant was never dispatched.
	_, err = h.store.Get("doc", "leaf.txt")
	assert.True(t, errors.Is(err, artifact.ErrNotFound))
}

func TestRun_DiamondDispatchesOnce(t *testing.T) {
	h := newHarness(t,
		`{"root": ["left", "right"], "left": ["merge"], "right": ["merge"], "merge": []}`,
		map[string]string{
			"root":  "R: {input_content}",
			"left":  "L: {root}",
			"right": "G: {root}",
			"merge": "M: {left}",
		},
		map[string]string{"doc.txt": "content"})

	h.mock.AddResponse("R: content", "```\nroot out\n```")
	h.mock.AddResponse("L: root out", "```\nleft out\n```")
	h.mock.AddResponse("G: root out", "```\nright out\n```")
	h.mock.AddResponse("M: left out", "```\nmerged\n```")

	results, err := h.orchestrator(t).Run(context.Background())
	require.NoError(t, err)

	res := results[0]
	assert.False(t, res.Failed())
	// Depth-first in declared order: merge runs on the left path; reaching
	// it again through right must not dispatch it a second time.
	assert.Equal(t, []string{"root", "left", "merge", "right"}, res.Completed)
}

func TestRun_SkipsReservedAndHiddenEntries(t *testing.T) {
	h := newHarness(t,
		`{"extract": []}`,
		map[string]string{"extract": "E: {input_content}"},
		map[string]string{
			"doc.txt":     "content",
			"__init__.py": "",
			".hidden":     "nope",
		})
	require.NoError(t, os.MkdirAll(filepath.Join(h.repoDir, "subdir"), 0o755))

	h.mock.SetFallback("```\nout\n```")

	results, err := h.orchestrator(t).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "doc.txt", results[0].Artifact)
}

func TestRun_MissingRepositoryFolder(t *testing.T) {
	h := newHarness(t, `{"extract": []}`, nil, nil)

	o, err := New(h.cfg, h.graph, h.exec, func(o *Options) {
		o.RepositoryDir = filepath.Join(t.TempDir(), "nope")
	})
	require.NoError(t, err)

	_, err = o.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "repository folder does not exist")
}

func TestRun_EmptyRepository(t *testing.T) {
	h := newHarness(t, `{"extract": []}`, nil, nil)

	results, err := h.orchestrator(t).Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRun_ConcurrentArtifacts(t *testing.T) {
	h := newHarness(t,
		`{"extract": ["summarize"], "summarize": []}`,
		map[string]string{
			"extract":   "E: {input_content}",
			"summarize": "S: {extract}",
		},
		map[string]string{
			"a.txt": "alpha",
			"b.txt": "beta",
			"c.txt": "gamma",
		})
	h.mock.SetFallback("```\nout\n```")

	results, err := h.orchestrator(t, func(o *Options) { o.Concurrency = 2 }).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 3)

	// Enumeration order holds regardless of worker scheduling.
	assert.Equal(t, "a.txt", results[0].Artifact)
	assert.Equal(t, "b.txt", results[1].Artifact)
	assert.Equal(t, "c.txt", results[2].Artifact)
	for _, res := range results {
		assert.False(t, res.Failed())
		assert.Equal(t, []string{"extract", "summarize"}, res.Completed)
	}
}

func TestRun_CancelledContext(t *testing.T) {
	h := newHarness(t,
		`{"extract": []}`,
		map[string]string{"extract": "E: {input_content}"},
		map[string]string{"doc.txt": "content"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := h.orchestrator(t).Run(ctx)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Len(t, results[0].Failures, 1)
	assert.True(t, errors.Is(results[0].Failures[0].Err, context.Canceled))
}

func TestNew_MalformedStepSettings(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}
	paths := config.Paths{
		Defaults: write("default_config.json", `{}`),
		Steps:    write("step_config.json", `{"extract": {"temperature": "hot"}}`),
		Flow:     write("flow.json", `{"extract": []}`),
	}
	cfg, err := config.NewProvider().Load(paths)
	require.NoError(t, err)
	graph, err := flowgraph.New(cfg.Flow())
	require.NoError(t, err)

	exec := executor.New(artifact.NewInMemoryStore(),
		func(provider, modelID string) (model.Model, error) { return model.NewMockModel("m"), nil })

	_, err = New(cfg, graph, exec)
	assert.Error(t, err)
}

func TestRun_SiblingOutputsNotVisible(t *testing.T) {
	h := newHarness(t,
		`{"root": ["left", "right"], "left": [], "right": []}`,
		map[string]string{
			"root":  "R: {input_content}",
			"left":  "L: {root}",
			"right": "G: {root} {left}",
		},
		map[string]string{"doc.txt": "content"})

	h.mock.AddResponse("R: content", "```\nroot out\n```")
	h.mock.AddResponse("L: root out", "```\nleft out\n```")
	h.mock.AddResponse("G: root out {left}", "```\nright out\n```")

	results, err := h.orchestrator(t).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].Failed())
	assert.Equal(t, []string{"root", "left", "right"}, results[0].Completed)

	// right only descends from root: left's completed output must neither
	// substitute the {left} placeholder nor appear as a context message.
	reqs := h.mock.Requests()
	require.Len(t, reqs, 3)
	right := reqs[2]
	require.Len(t, right.Messages, 3)
	assert.Equal(t, core.RoleAssistant, right.Messages[1].Role)
	assert.Equal(t, "[Context from root]:\nroot out", right.Messages[1].Content)
	assert.Equal(t, "G: root out {left}", right.Messages[2].Content)
}

func TestRun_OutputDirCreatedForFailedArtifact(t *testing.T) {
	h := newHarness(t,
		`{"extract": []}`,
		map[string]string{"extract": "E: {input_content}"},
		map[string]string{"doc.txt": "content"})
	h.mock.SetFallback("no fenced payload")

	outDir := t.TempDir()
	fsExec := executor.New(artifact.NewFSStore(outDir),
		func(provider, modelID string) (model.Model, error) { return h.mock, nil })

	o, err := New(h.cfg, h.graph, fsExec, func(o *Options) { o.RepositoryDir = h.repoDir })
	require.NoError(t, err)

	results, err := o.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Failed())

	// The artifact's output directory exists even though no step produced
	// anything.
	info, err := os.Stat(filepath.Join(outDir, "doc"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
