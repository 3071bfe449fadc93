package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExecutionContext_RecordAndLookup(t *testing.T) {
	ec := NewExecutionContext()
	assert.Equal(t, 0, ec.Len())
	assert.False(t, ec.Has("extract"))

	ec.Record(&StepResult{Step: "extract", Text: "payload", Path: "doc/extract.txt"})

	assert.True(t, ec.Has("extract"))
	assert.Equal(t, 1, ec.Len())

	res, ok := ec.Output("extract")
	assert.True(t, ok)
	assert.Equal(t, "payload", res.Text)
	assert.Equal(t, "doc/extract.txt", res.Path)

	_, ok = ec.Output("summarize")
	assert.False(t, ok)
}

func TestExecutionContext_CompletionOrder(t *testing.T) {
	ec := NewExecutionContext()
	ec.Record(&StepResult{Step: "extract", Text: "a"})
	ec.Record(&StepResult{Step: "summarize", Text: "b"})
	ec.Record(&StepResult{Step: "review", Text: "c"})

	assert.Equal(t, []string{"extract", "summarize", "review"}, ec.Steps())

	// Re-recording replaces the value but keeps the original position.
	ec.Record(&StepResult{Step: "extract", Text: "a2"})
	assert.Equal(t, []string{"extract", "summarize", "review"}, ec.Steps())
	res, _ := ec.Output("extract")
	assert.Equal(t, "a2", res.Text)
	assert.Equal(t, 3, ec.Len())
}

func TestExecutionContext_Ancestors(t *testing.T) {
	ec := NewExecutionContext()
	ec.Record(&StepResult{Step: "extract", Text: "a"})
	ec.Record(&StepResult{Step: "summarize", Text: "b"})
	ec.Record(&StepResult{Step: "review", Text: "c"})

	// Results come back in completion order, not request order, and names
	// with no recorded output are skipped.
	got := ec.Ancestors([]string{"review", "extract", "missing"})
	if assert.Len(t, got, 2) {
		assert.Equal(t, "extract", got[0].Step)
		assert.Equal(t, "review", got[1].Step)
	}

	assert.Empty(t, ec.Ancestors(nil))
}

func TestExecutionContext_StepsSnapshot(t *testing.T) {
	ec := NewExecutionContext()
	ec.Record(&StepResult{Step: "extract"})

	steps := ec.Steps()
	steps[0] = "mutated"
	assert.Equal(t, []string{"extract"}, ec.Steps())
}
