package config

// StepSpec is the merged, resolved settings for one named step. It is derived
// once from the Set and immutable afterwards. Generation parameters use
// pointer fields so unset values can be omitted from provider requests rather
// than sent as zero values.
type StepSpec struct {
	// Name is the step's flow graph node name. Populated by Set.StepSpec,
	// never from the document itself.
	Name string `json:"-"`

	// Provider selects the text-completion backend ("openai", "gemini",
	// "anthropic"). Empty selects the default provider.
	Provider string `json:"provider,omitempty"`

	// Model is the provider-specific model identifier.
	Model string `json:"model,omitempty"`

	Temperature      *float64         `json:"temperature,omitempty"`
	TopP             *float64         `json:"top_p,omitempty"`
	N                *int64           `json:"n,omitempty"`
	MaxTokens        *int64           `json:"max_tokens,omitempty"`
	Stop             []string         `json:"stop,omitempty"`
	PresencePenalty  *float64         `json:"presence_penalty,omitempty"`
	FrequencyPenalty *float64         `json:"frequency_penalty,omitempty"`
	LogitBias        map[string]int64 `json:"logit_bias,omitempty"`
	User             *string          `json:"user,omitempty"`

	// OutputFile, when set, names the step's output file explicitly.
	OutputFile string `json:"output_file,omitempty"`

	// OutputFileSuffix, when set, derives the output name by appending the
	// suffix to the input artifact's stem.
	OutputFileSuffix string `json:"output_file_suffix,omitempty"`

	// SystemPrompt overrides the step's system instruction when no
	// per-step system template file exists.
	SystemPrompt string `json:"system_prompt,omitempty"`
}

// OutputName computes the step's output file name per the naming rule:
// explicit output_file, else input stem plus output_file_suffix, else the
// step name with the default extension. Naming is deterministic so reruns
// reproduce an identical output tree.
func (s *StepSpec) OutputName(inputStem string) string {
	if s.OutputFile != "" {
		return s.OutputFile
	}
	if s.OutputFileSuffix != "" {
		return inputStem + s.OutputFileSuffix
	}
	return s.Name + ".txt"
}
