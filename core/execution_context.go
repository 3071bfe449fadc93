package core

// ExecutionContext accumulates step outputs for a single artifact's traversal.
// It records each completed step's produced text in completion order and is
// discarded when the traversal finishes. An ExecutionContext is never shared
// across artifacts; a traversal mutates its own instance only, so no locking
// is required as long as sibling subtrees of one artifact run sequentially.
type ExecutionContext struct {
	outputs map[string]*StepResult
	order   []string
}

// NewExecutionContext returns an empty per-artifact accumulator.
func NewExecutionContext() *ExecutionContext {
	return &ExecutionContext{outputs: make(map[string]*StepResult)}
}

// Record stores a completed step's result. Recording the same step twice
// replaces the prior entry but keeps its original position.
func (ec *ExecutionContext) Record(res *StepResult) {
	if _, exists := ec.outputs[res.Step]; !exists {
		ec.order = append(ec.order, res.Step)
	}
	ec.outputs[res.Step] = res
}

// Output returns the result recorded for the given step, if any.
func (ec *ExecutionContext) Output(step string) (*StepResult, bool) {
	res, ok := ec.outputs[step]
	return res, ok
}

// Has reports whether the given step has completed for this artifact.
func (ec *ExecutionContext) Has(step string) bool {
	_, ok := ec.outputs[step]
	return ok
}

// Len returns the number of recorded step outputs.
func (ec *ExecutionContext) Len() int { return len(ec.order) }

// Steps returns the names of completed steps in completion order. The slice
// is a snapshot and safe for caller mutation.
func (ec *ExecutionContext) Steps() []string {
	steps := make([]string, len(ec.order))
	copy(steps, ec.order)
	return steps
}

// Ancestors returns the results for the given step names, in completion
// order, skipping names with no recorded output. Step executors use this to
// assemble provenance-tagged context messages and template variables.
func (ec *ExecutionContext) Ancestors(steps []string) []*StepResult {
	requested := make(map[string]bool, len(steps))
	for _, s := range steps {
		requested[s] = true
	}
	var results []*StepResult
	for _, name := range ec.order {
		if requested[name] {
			results = append(results, ec.outputs[name])
		}
	}
	return results
}
