package prompt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemplate(t *testing.T, promptsDir, step, name, content string) {
	t.Helper()
	dir := filepath.Join(promptsDir, step)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestResolveSystem(t *testing.T) {
	promptsDir := t.TempDir()
	writeTemplate(t, promptsDir, "extract", "system.txt", "You extract data.")

	// File wins over override.
	assert.Equal(t, "You extract data.", ResolveSystem(promptsDir, "extract", "configured override"))

	// No file: configured override wins.
	assert.Equal(t, "configured override", ResolveSystem(promptsDir, "summarize", "configured override"))

	// Neither: generic default.
	assert.Equal(t, DefaultSystemInstruction, ResolveSystem(promptsDir, "summarize", ""))
}

func TestLoadUserTemplate(t *testing.T) {
	promptsDir := t.TempDir()
	writeTemplate(t, promptsDir, "extract", "user_template.txt", "Process: {input_content}")

	tmpl, found, err := LoadUserTemplate(promptsDir, "extract")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "Process: {input_content}", tmpl)

	// Missing template degrades, it is not an error.
	tmpl, found, err = LoadUserTemplate(promptsDir, "summarize")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, tmpl)
}

func TestSubstitute(t *testing.T) {
	vars := map[string]string{
		"extract":       "the facts",
		"input_content": "raw input",
	}

	result, missing := Substitute("Given {input_content}, refine {extract}.", vars)
	assert.Equal(t, "Given raw input, refine the facts.", result)
	assert.Empty(t, missing)
}

func TestSubstitute_MissingKeysLeftVerbatim(t *testing.T) {
	result, missing := Substitute("Use {extract} and {review}; again {review}.", map[string]string{
		"extract": "facts",
	})

	assert.Equal(t, "Use facts and {review}; again {review}.", result)
	// Each missing key is reported once regardless of occurrence count.
	assert.Equal(t, []string{"review"}, missing)
}

func TestSubstitute_NonPlaceholderBracesUntouched(t *testing.T) {
	result, missing := Substitute("JSON like {\"k\": 1} and {123} stay as-is", nil)
	assert.Equal(t, "JSON like {\"k\": 1} and {123} stay as-is", result)
	assert.Empty(t, missing)
}

func TestTemplatePaths(t *testing.T) {
	assert.Equal(t, filepath.Join("prompts", "extract", "system.txt"), SystemPath("prompts", "extract"))
	assert.Equal(t, filepath.Join("prompts", "extract", "user_template.txt"), UserTemplatePath("prompts", "extract"))
}
