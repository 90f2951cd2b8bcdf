package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchSchema = `{
	"type": "object",
	"properties": {
		"query":    {"type": "string"},
		"n":        {"type": "integer"},
		"strategy": {"type": "string"}
	},
	"required": ["query"]
}`

func TestSchemaValidateJSON(t *testing.T) {
	schema := MustCompile(searchSchema)

	tests := []struct {
		name        string
		doc         string
		wantValid   bool
		wantMissing []string
	}{
		{
			name:      "minimal valid",
			doc:       `{"query": "garden hose"}`,
			wantValid: true,
		},
		{
			name:      "extra process variables are allowed",
			doc:       `{"query": "drill", "n": 3, "strategy": "partial", "processId": "p-1"}`,
			wantValid: true,
		},
		{
			name:        "missing query",
			doc:         `{"n": 3}`,
			wantValid:   false,
			wantMissing: []string{"query"},
		},
		{
			name:      "n is not an integer",
			doc:       `{"query": "drill", "n": "three"}`,
			wantValid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := schema.ValidateJSON(tt.doc)
			require.NoError(t, err)
			assert.Equal(t, tt.wantValid, result.Valid)
			assert.Equal(t, tt.wantMissing, result.Missing())
			if !tt.wantValid {
				assert.NotEmpty(t, result.Error())
			}
		})
	}
}

func TestSchemaValidateJSONMalformed(t *testing.T) {
	schema := MustCompile(searchSchema)

	_, err := schema.ValidateJSON(`{"query": `)
	assert.Error(t, err)
}

func TestCompileRejectsBadSchema(t *testing.T) {
	_, err := Compile(`{"type": 12}`)
	assert.Error(t, err)

	assert.Panics(t, func() { MustCompile(`not json`) })
}
