// Package code extracts the essential payload a step produced from raw model
// output. Steps require their result inside a fenced block bounded by triple
// backticks; everything around the fence is conversational filler.
package code

import (
	"errors"
	"regexp"
	"strings"
)

// ErrNoFencedBlock is returned when the generated text contains no triple
// backtick fence. This is a hard failure for the step: there is no fallback
// to the raw text, since unfenced output cannot be trusted to be the payload.
var ErrNoFencedBlock = errors.New("expected fenced block not found between triple backticks")

// fencedBlock matches the first ``` fence, with an optional language hint on
// the opening line, capturing everything up to the closing fence.
var fencedBlock = regexp.MustCompile("(?s)```(?:[a-zA-Z0-9_+-]*)\\n(.*?)```")

// ExtractFencedBlock returns the payload between the first pair of triple
// backtick markers, with leading and trailing whitespace trimmed. The
// optional language tag after the opening fence is discarded.
func ExtractFencedBlock(text string) (string, error) {
	m := fencedBlock.FindStringSubmatch(text)
	if m == nil {
		return "", ErrNoFencedBlock
	}
	return strings.TrimSpace(m[1]), nil
}
