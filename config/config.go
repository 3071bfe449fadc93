package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

var (
	// ErrMissingResource is returned when a required configuration file cannot
	// be located. This is a startup-fatal condition: the pipeline cannot run
	// without all three documents.
	ErrMissingResource = errors.New("configuration file not found")

	// ErrMalformedContent is returned when a configuration file exists but
	// cannot be parsed as the expected structured data. Startup-fatal.
	ErrMalformedContent = errors.New("configuration file malformed")
)

// Paths locates the three configuration documents.
type Paths struct {
	Defaults string // global defaults, including the default step settings block
	Steps    string // per-step override settings
	Flow     string // step name -> ordered successor names
}

// DefaultPaths returns the conventional configuration layout.
func DefaultPaths() Paths {
	return Paths{
		Defaults: "config/default_config.json",
		Steps:    "config/step_config.json",
		Flow:     "config/flow.json",
	}
}

// Set is the immutable bundle of loaded configuration. All three documents
// must be present and well-formed before any execution begins; Load enforces
// this. A Set is safe for concurrent readers once constructed.
type Set struct {
	defaults      map[string]any
	stepOverrides map[string]map[string]any
	flow          map[string][]string
}

// Defaults returns the raw global defaults document.
func (s *Set) Defaults() map[string]any { return s.defaults }

// StepOverrides returns the raw per-step override document.
func (s *Set) StepOverrides() map[string]map[string]any { return s.stepOverrides }

// Flow returns the flow mapping: step name to ordered successor names.
func (s *Set) Flow() map[string][]string { return s.flow }

// KnownStep reports whether a step name is declared anywhere in the
// configuration, either as a flow node or as an override key. Steps missing
// from the overrides still resolve against the default step settings.
func (s *Set) KnownStep(name string) bool {
	if _, ok := s.flow[name]; ok {
		return true
	}
	_, ok := s.stepOverrides[name]
	return ok
}

// RepositoryFolder returns the configured input folder, defaulting to "repository".
func (s *Set) RepositoryFolder() string { return s.stringDefault("repository_folder", "repository") }

// OutputFolder returns the configured output root, defaulting to "output".
func (s *Set) OutputFolder() string { return s.stringDefault("output_folder", "output") }

// PromptsFolder returns the prompt template root, defaulting to "prompts".
func (s *Set) PromptsFolder() string { return s.stringDefault("prompts_folder", "prompts") }

func (s *Set) stringDefault(key, fallback string) string {
	if v, ok := s.defaults[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

// defaultStepSettings returns the nested default step settings block, or an
// empty map when absent.
func (s *Set) defaultStepSettings() map[string]any {
	if block, ok := s.defaults["default_step_settings"].(map[string]any); ok {
		return block
	}
	return map[string]any{}
}

// StepSpec resolves the merged settings for one named step: the default step
// settings overlaid with the step's overrides, override winning on key
// collision. The merged map is decoded into the typed StepSpec.
func (s *Set) StepSpec(name string) (*StepSpec, error) {
	merged := make(map[string]any)
	for k, v := range s.defaultStepSettings() {
		merged[k] = v
	}
	for k, v := range s.stepOverrides[name] {
		merged[k] = v
	}

	raw, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("merging settings for step %q: %w", name, err)
	}
	spec := &StepSpec{Name: name}
	if err := json.Unmarshal(raw, spec); err != nil {
		return nil, fmt.Errorf("settings for step %q: %w: %v", name, ErrMalformedContent, err)
	}
	return spec, nil
}

// loadSet reads and validates the three documents into a Set.
func loadSet(paths Paths) (*Set, error) {
	set := &Set{}
	if err := loadJSON(paths.Defaults, "default configuration", &set.defaults); err != nil {
		return nil, err
	}
	if err := loadJSON(paths.Steps, "step configuration", &set.stepOverrides); err != nil {
		return nil, err
	}
	if err := loadJSON(paths.Flow, "flow configuration", &set.flow); err != nil {
		return nil, err
	}
	return set, nil
}

// loadJSON reads a single document, distinguishing missing files from
// unparsable content so callers can report the right startup-fatal cause.
func loadJSON(path, label string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s at %s: %w", label, path, ErrMissingResource)
		}
		return fmt.Errorf("reading %s at %s: %w", label, path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s at %s: %w: %v", label, path, ErrMalformedContent, err)
	}
	return nil
}
