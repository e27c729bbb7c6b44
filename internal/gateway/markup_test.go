package gateway_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nebulap8/teams-automation/internal/gateway"
)

func TestStripMarkup(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		body     string
		expected string
	}{
		{
			name:     "plain text",
			body:     "Working on it",
			expected: "Working on it",
		},
		{
			name:     "html tags removed",
			body:     "<p>Started <b>yesterday</b></p>",
			expected: "Started yesterday",
		},
		{
			name:     "emoji alt text preserved",
			body:     `<p>Done <emoji id="yes" alt="👍" title="yes"></emoji></p>`,
			expected: "Done 👍",
		},
		{
			name:     "entities unescaped",
			body:     "Tom&nbsp;&amp;&nbsp;Jerry &lt;3",
			expected: "Tom & Jerry <3",
		},
		{
			name:     "collapsed whitespace",
			body:     "<div>\n  first\n  <br>\n  second\n</div>",
			expected: "first second",
		},
		{
			name:     "angle bracket inside attribute",
			body:     `<span data-note="a>b">stuck</span>`,
			expected: "stuck",
		},
		{
			name:     "emoji attribute with angle bracket",
			body:     `<emoji alt="👍" title="a>b"></emoji> done`,
			expected: "👍 done",
		},
		{
			name:     "lone angle bracket kept",
			body:     "closed 3 < 10 tasks",
			expected: "closed 3 < 10 tasks",
		},
		{
			name:     "truncated tag dropped",
			body:     "broken <tag",
			expected: "broken",
		},
		{
			name:     "empty body",
			body:     "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, gateway.StripMarkup(tt.body))
		})
	}
}

func TestColumnLetter(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "A", gateway.ColumnLetter(0))
	assert.Equal(t, "G", gateway.ColumnLetter(6))
	assert.Equal(t, "Z", gateway.ColumnLetter(25))
	assert.Equal(t, "AA", gateway.ColumnLetter(26))
	assert.Equal(t, "AZ", gateway.ColumnLetter(51))
}
