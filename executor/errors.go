package executor

import "fmt"

// ErrorKind classifies step-fatal failures so the orchestrator can log the
// cause without string matching.
type ErrorKind string

const (
	// KindPromptResolution marks a hard failure while assembling the prompt.
	KindPromptResolution ErrorKind = "prompt-resolution"
	// KindGeneration marks a text-completion failure or unusable response.
	KindGeneration ErrorKind = "generation"
	// KindExtraction marks generated text without the required fenced payload.
	KindExtraction ErrorKind = "extraction"
	// KindWrite marks a failure persisting the extracted payload.
	KindWrite ErrorKind = "write"
)

// StepError is the explicit failure result of one step execution. It aborts
// only the failing step's subtree for the current artifact; the orchestrator
// decides how to continue with siblings and other artifacts.
type StepError struct {
	Kind ErrorKind
	Step string
	Err  error
}

// Error implements the error interface.
func (e *StepError) Error() string {
	return fmt.Sprintf("step %s: %s error: %v", e.Step, e.Kind, e.Err)
}

// Unwrap exposes the underlying cause for errors.Is / errors.As.
func (e *StepError) Unwrap() error { return e.Err }

func stepErr(kind ErrorKind, step string, err error) *StepError {
	return &StepError{Kind: kind, Step: step, Err: err}
}
