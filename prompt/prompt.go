// Package prompt resolves the system instruction and user prompt for one
// step. Templates are plain text files addressed by step name under the
// prompts folder; user templates carry {name} placeholders substituted from
// the accumulated step context.
package prompt

import (
	"os"
	"path/filepath"
	"regexp"
)

// DefaultSystemInstruction is the generic fallback used when a step has
// neither a system template file nor a configured override.
const DefaultSystemInstruction = "You are a helpful assistant."

// InputContentVar is the reserved placeholder carrying the raw input artifact
// content. It is only populated for the first step of an artifact's
// traversal, before any prior output exists.
const InputContentVar = "input_content"

// placeholder matches {name} substitution sites. Named after Python's
// str.format syntax the original templates were written for.
var placeholder = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

// SystemPath returns the step's system instruction file location.
func SystemPath(promptsDir, step string) string {
	return filepath.Join(promptsDir, step, "system.txt")
}

// UserTemplatePath returns the step's user prompt template file location.
func UserTemplatePath(promptsDir, step string) string {
	return filepath.Join(promptsDir, step, "user_template.txt")
}

// ResolveSystem returns the step's system instruction: the per-step template
// file if present, else the configured override, else the generic default.
func ResolveSystem(promptsDir, step, override string) string {
	data, err := os.ReadFile(SystemPath(promptsDir, step))
	if err == nil {
		return string(data)
	}
	if override != "" {
		return override
	}
	return DefaultSystemInstruction
}

// LoadUserTemplate reads the step's user template. A missing file degrades
// to an empty template (found=false) rather than an error; callers log the
// degradation and proceed with an empty prompt. Read failures other than
// absence are returned.
func LoadUserTemplate(promptsDir, step string) (template string, found bool, err error) {
	data, err := os.ReadFile(UserTemplatePath(promptsDir, step))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return string(data), true, nil
}

// Substitute replaces {name} placeholders with values from vars. Placeholders
// with no matching key are left verbatim and returned in missing so callers
// can log one warning per key; substitution itself never fails.
func Substitute(template string, vars map[string]string) (result string, missing []string) {
	seen := make(map[string]bool)
	result = placeholder.ReplaceAllStringFunc(template, func(site string) string {
		name := site[1 : len(site)-1]
		if val, ok := vars[name]; ok {
			return val
		}
		if !seen[name] {
			seen[name] = true
			missing = append(missing, name)
		}
		return site
	})
	return result, missing
}
