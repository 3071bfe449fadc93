// Package openai provides an implementation of model.Model using the OpenAI
// Chat Completions API. It also serves any OpenAI-compatible endpoint via a
// base URL override, which is how the gemini provider selector is wired.
package openai

import (
	"context"
	"fmt"
	"os"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/flowpipe/flowpipe/core"
	"github.com/flowpipe/flowpipe/model"
)

// geminiBaseURL is the OpenAI-compatible endpoint of the Gemini API.
const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"

// Options configure the OpenAI model adapter. Fields mirror a subset of
// client construction parameters intentionally kept minimal; per-request
// generation parameters travel on model.Request instead.
type Options struct {
	Model    string
	APIKey   string
	BaseURL  string
	Provider string // reported via Info; defaults to "openai"
}

// Model wraps the OpenAI Chat Completions API behind the generic model.Model interface.
type Model struct {
	client *openai.Client
	opts   Options
}

// NewModel creates a new OpenAI model using the official client. The API key
// is taken from Options or the OPENAI_API_KEY environment variable.
func NewModel(optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:    openai.ChatModelGPT4oMini,
		Provider: "openai",
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(opts.BaseURL))
	}

	client := openai.NewClient(clientOpts...)
	return &Model{client: &client, opts: opts}
}

// NewModelFromClient creates a new OpenAI model from an existing client.
func NewModelFromClient(client *openai.Client, optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:    openai.ChatModelGPT4oMini,
		Provider: "openai",
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{client: client, opts: opts}
}

// NewGeminiModel creates a model that talks to the Gemini API through its
// OpenAI-compatible endpoint. The API key is taken from Options or the
// GEMINI_API_KEY environment variable.
func NewGeminiModel(optFns ...func(o *Options)) (*Model, error) {
	opts := Options{Provider: "gemini"}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.APIKey == "" {
		opts.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if opts.APIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}
	if opts.BaseURL == "" {
		opts.BaseURL = geminiBaseURL
	}
	return NewModel(func(o *Options) { *o = opts }), nil
}

// Generate implements model.Model using a non-streaming chat completion.
func (m *Model) Generate(ctx context.Context, req model.Request) (*model.Response, error) {
	params := m.buildParams(req)

	resp, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices returned")
	}

	ch0 := resp.Choices[0]
	out := &model.Response{
		Text:         ch0.Message.Content,
		FinishReason: string(ch0.FinishReason),
	}
	if resp.Usage.TotalTokens > 0 {
		out.Usage = &model.TokenUsage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		}
	}
	return out, nil
}

// buildParams assembles the request parameters, omitting every parameter the
// step specification left unset.
func (m *Model) buildParams(req model.Request) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Messages: buildMessages(req.Messages),
		Model:    m.resolveModel(req.Model),
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}
	if req.TopP != nil {
		params.TopP = openai.Float(*req.TopP)
	}
	if req.N != nil {
		params.N = openai.Int(*req.N)
	}
	if req.MaxTokens != nil {
		params.MaxCompletionTokens = openai.Int(*req.MaxTokens)
	}
	if len(req.Stop) > 0 {
		params.Stop = openai.ChatCompletionNewParamsStopUnion{OfStringArray: req.Stop}
	}
	if req.PresencePenalty != nil {
		params.PresencePenalty = openai.Float(*req.PresencePenalty)
	}
	if req.FrequencyPenalty != nil {
		params.FrequencyPenalty = openai.Float(*req.FrequencyPenalty)
	}
	if len(req.LogitBias) > 0 {
		params.LogitBias = req.LogitBias
	}
	if req.User != nil {
		params.User = openai.String(*req.User)
	}
	return params
}

func (m *Model) resolveModel(override string) string {
	if override != "" {
		return override
	}
	return m.opts.Model
}

// buildMessages converts normalized messages into OpenAI chat messages.
func buildMessages(messages []core.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case core.RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case core.RoleAssistant:
			out = append(out, openai.AssistantMessage(msg.Content))
		default:
			out = append(out, openai.UserMessage(msg.Content))
		}
	}
	return out
}

// Info returns metadata describing this model implementation.
func (m *Model) Info() model.Info {
	return model.Info{Name: m.opts.Model, Provider: m.opts.Provider}
}
