package executor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/flowpipe/flowpipe/code"
	"github.com/flowpipe/flowpipe/config"
	"github.com/flowpipe/flowpipe/core"
	"github.com/flowpipe/flowpipe/logging"
	"github.com/flowpipe/flowpipe/model"
	"github.com/flowpipe/flowpipe/prompt"
)

// Options configure an Executor instance.
type Options struct {
	// PromptsDir is the root folder of per-step prompt templates.
	PromptsDir string
	// Logger receives execution diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Executor runs one pipeline step: it assembles the conversation from the
// step specification, the input artifact and the accumulated context, invokes
// the text-completion capability, extracts the fenced payload and persists it
// through the artifact store. Executor holds no per-artifact state and is
// safe for concurrent use across artifacts.
type Executor struct {
	store      core.ArtifactStore
	resolve    model.Resolver
	promptsDir string
	logger     logging.Logger
}

// New constructs an Executor with optional overrides. The resolver maps a
// step's provider selector to a Model instance.
func New(store core.ArtifactStore, resolve model.Resolver, optFns ...func(o *Options)) *Executor {
	opts := Options{
		PromptsDir: "prompts",
		Logger:     logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Executor{
		store:      store,
		resolve:    resolve,
		promptsDir: opts.PromptsDir,
		logger:     opts.Logger,
	}
}

// Store returns the artifact store step outputs are persisted through.
func (e *Executor) Store() core.ArtifactStore { return e.store }

// Execute runs the step described by spec against one input for the given
// artifact, returning the persisted StepResult. ancestors names the steps on
// the path from the graph root to this node; only their outputs are visible
// to the prompt and conversation, never those of sibling branches that happen
// to share the ExecutionContext. Failures are *StepError with a kind of
// prompt-resolution, generation, extraction or write; they abort only this
// step's subtree, never the surrounding run.
func (e *Executor) Execute(
	ctx context.Context,
	spec *config.StepSpec,
	artifactID string,
	input core.InputRef,
	ancestors []string,
	ec *core.ExecutionContext,
) (*core.StepResult, error) {
	e.logger.Debug("Executing step", "step", spec.Name, "artifact", artifactID, "input", input.Path)

	system := prompt.ResolveSystem(e.promptsDir, spec.Name, spec.SystemPrompt)
	userPrompt, err := e.buildUserPrompt(spec, input, ancestors, ec)
	if err != nil {
		return nil, stepErr(KindPromptResolution, spec.Name, err)
	}

	messages := e.buildConversation(system, userPrompt, ancestors, ec)

	text, err := e.generate(ctx, spec, messages)
	if err != nil {
		return nil, stepErr(KindGeneration, spec.Name, err)
	}

	payload, err := code.ExtractFencedBlock(text)
	if err != nil {
		return nil, stepErr(KindExtraction, spec.Name, err)
	}

	name := spec.OutputName(stem(input.Path))
	path, err := e.store.Save(artifactID, name, []byte(payload))
	if err != nil {
		return nil, stepErr(KindWrite, spec.Name, err)
	}
	e.logger.Info("Step output written", "step", spec.Name, "artifact", artifactID, "output", path)

	return &core.StepResult{Step: spec.Name, Text: payload, Path: path}, nil
}

// buildUserPrompt loads the step's user template and substitutes placeholders
// from the ancestor outputs on this node's path. The raw input content is
// exposed under the reserved input_content placeholder only for the root
// step, before any ancestor output exists. A missing template degrades to an
// empty prompt; missing placeholder keys degrade to unsubstituted sites.
// Both are logged warnings, not failures.
func (e *Executor) buildUserPrompt(spec *config.StepSpec, input core.InputRef, ancestors []string, ec *core.ExecutionContext) (string, error) {
	template, found, err := prompt.LoadUserTemplate(e.promptsDir, spec.Name)
	if err != nil {
		return "", fmt.Errorf("reading user template: %w", err)
	}
	if !found {
		e.logger.Warn("User prompt template not found, using empty prompt",
			"step", spec.Name, "path", prompt.UserTemplatePath(e.promptsDir, spec.Name))
		return "", nil
	}

	vars := make(map[string]string, len(ancestors)+1)
	for _, res := range ec.Ancestors(ancestors) {
		vars[res.Step] = res.Text
	}
	if len(ancestors) == 0 && input.Initial {
		content, err := os.ReadFile(input.Path)
		if err != nil {
			e.logger.Warn("Input artifact unreadable, omitting input_content",
				"step", spec.Name, "input", input.Path, "error", err)
		} else {
			vars[prompt.InputContentVar] = strings.TrimSpace(string(content))
		}
	}

	result, missing := prompt.Substitute(template, vars)
	for _, key := range missing {
		e.logger.Warn("Missing placeholder key in user prompt template", "step", spec.Name, "placeholder", key)
	}
	return result, nil
}

// buildConversation assembles the ordered message list: the system
// instruction, one assistant message per ancestor output on this node's path
// tagged with its originating step so the model can distinguish provenance,
// then the user prompt.
func (e *Executor) buildConversation(system, userPrompt string, ancestors []string, ec *core.ExecutionContext) []core.Message {
	messages := make([]core.Message, 0, len(ancestors)+2)
	messages = append(messages, core.SystemMessage(system))
	for _, res := range ec.Ancestors(ancestors) {
		messages = append(messages, core.AssistantMessage(
			fmt.Sprintf("[Context from %s]:\n%s", res.Step, strings.TrimSpace(res.Text))))
	}
	messages = append(messages, core.UserMessage(userPrompt))
	return messages
}

// generate invokes the text-completion capability with the step's generation
// parameters. Transient errors are not retried here; retry policy, if any,
// belongs to the capability itself.
func (e *Executor) generate(ctx context.Context, spec *config.StepSpec, messages []core.Message) (string, error) {
	m, err := e.resolve(spec.Provider, spec.Model)
	if err != nil {
		return "", err
	}

	req := model.Request{
		Messages:         messages,
		Model:            spec.Model,
		Temperature:      spec.Temperature,
		TopP:             spec.TopP,
		N:                spec.N,
		MaxTokens:        spec.MaxTokens,
		Stop:             spec.Stop,
		PresencePenalty:  spec.PresencePenalty,
		FrequencyPenalty: spec.FrequencyPenalty,
		LogitBias:        spec.LogitBias,
		User:             spec.User,
	}

	start := time.Now()
	resp, err := m.Generate(ctx, req)
	dur := time.Since(start)
	if err != nil {
		e.logger.Error("Model call failed", "step", spec.Name, "model", m.Info().Name, "duration", dur, "error", err)
		return "", err
	}
	if resp.Usage != nil {
		e.logger.Info("Model usage",
			"step", spec.Name, "model", m.Info().Name, "duration", dur,
			"prompt_tokens", resp.Usage.PromptTokens,
			"completion_tokens", resp.Usage.CompletionTokens,
			"total_tokens", resp.Usage.TotalTokens)
	}
	if strings.TrimSpace(resp.Text) == "" {
		return "", fmt.Errorf("model returned no usable content")
	}
	return resp.Text, nil
}

// stem returns the input file name without its extension.
func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
