// internal/common/fuzzy/synonyms_test.go
package fuzzy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpand(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "hose pipe keeps original and adds garden hose",
			input:    "Need a hose pipe for garden",
			expected: "need a hose pipe for garden garden hose",
		},
		{
			name:     "multiple phrases append in table order",
			input:    "Paint Remover and TAP CONNECTOR",
			expected: "paint remover and tap connector faucet connector paint stripper",
		},
		{
			name:     "no synonym only lower-cases",
			input:    "Garden Rake",
			expected: "garden rake",
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Expand(tt.input))
		})
	}
}

func TestExpand_ContainsPhrases(t *testing.T) {
	out := Expand("Need a hose pipe for garden")
	assert.Contains(t, out, "hose pipe")
	assert.Contains(t, out, "garden hose")
}
