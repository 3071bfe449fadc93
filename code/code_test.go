package code

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractFencedBlock(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "language tag",
			in:   "Here you go:\n```go\npackage main\n```\nanything after",
			want: "package main",
		},
		{
			name: "no language tag",
			in:   "```\nplain payload\n```",
			want: "plain payload",
		},
		{
			name: "surrounding whitespace trimmed",
			in:   "```text\n\n  indented line\n\n```",
			want: "indented line",
		},
		{
			name: "first of multiple blocks wins",
			in:   "```python\nfirst\n```\nand also\n```python\nsecond\n```",
			want: "first",
		},
		{
			name: "multiline payload",
			in:   "```md\n# Title\n\nbody text\n```",
			want: "# Title\n\nbody text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractFencedBlock(tt.in)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractFencedBlock_NoBlock(t *testing.T) {
	_, err := ExtractFencedBlock("no fences anywhere, just prose")
	assert.True(t, errors.Is(err, ErrNoFencedBlock))

	// An unterminated fence does not count as a block.
	_, err = ExtractFencedBlock("```go\nnever closed")
	assert.True(t, errors.Is(err, ErrNoFencedBlock))
}
