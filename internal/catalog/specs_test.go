package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-lookup-workers/internal/models"
)

func testTemplateDocument() *TemplateDocument {
	return &TemplateDocument{
		Rows: []models.TemplateRow{
			{
				DisplayName:         "Color",
				CategoryCodes:       []string{"A1", "A2"},
				RequirementLevel:    "Required",
				DataType:            "String",
				Description:         "Main color",
				AllowedValuesRef:    "Refer to sheet for COLOR Allowed Values",
				HasAllowedValuesRef: true,
			},
			{
				DisplayName:      "Length",
				CategoryCodes:    []string{"A2"},
				RequirementLevel: "Optional",
				DataType:         "Decimal",
				Description:      "Length in metres",
			},
			{
				DisplayName:         "Finish",
				CategoryCodes:       []string{"A2"},
				RequirementLevel:    "Optional",
				DataType:            "String",
				AllowedValuesRef:    "See the other tab",
				HasAllowedValuesRef: true,
			},
			{
				DisplayName:      "Voltage",
				CategoryCodes:    []string{"B7"},
				RequirementLevel: "Required",
				DataType:         "Integer",
			},
		},
		AllowedValues: []models.AllowedValue{
			{GroupID: "COLOR_GRP", ValueName: "Red"},
			{GroupID: "SIZE_GRP", ValueName: "Large"},
			{GroupID: "COLOR_GRP", ValueName: "Blue"},
			{GroupID: "COLOR_GRP", ValueName: "  "},
		},
	}
}

func TestResolveSpecs(t *testing.T) {
	doc := testTemplateDocument()

	t.Run("expands allowed values group", func(t *testing.T) {
		specs := ResolveSpecs(doc, "A1")
		require.Len(t, specs, 1)
		assert.Equal(t, models.SpecResult{
			DisplayName:       "Color",
			RequirementLevel:  "Required",
			DataType:          "String",
			Description:       "Main color",
			AllowedValueNames: []string{"Red", "Blue"},
		}, specs[0])
	})

	t.Run("keeps document order", func(t *testing.T) {
		specs := ResolveSpecs(doc, "A2")
		require.Len(t, specs, 3)
		assert.Equal(t, "Color", specs[0].DisplayName)
		assert.Equal(t, "Length", specs[1].DisplayName)
		assert.Equal(t, "Finish", specs[2].DisplayName)

		assert.NotNil(t, specs[1].AllowedValueNames)
		assert.Empty(t, specs[1].AllowedValueNames)
		assert.Empty(t, specs[2].AllowedValueNames, "malformed reference yields no values")
	})

	t.Run("code is trimmed", func(t *testing.T) {
		specs := ResolveSpecs(doc, "  B7 ")
		require.Len(t, specs, 1)
		assert.Equal(t, "Voltage", specs[0].DisplayName)
	})

	t.Run("codes match whole entries only", func(t *testing.T) {
		assert.Empty(t, ResolveSpecs(doc, "A"))
	})

	for _, code := range []string{"", "   ", "Z9"} {
		t.Run("no rows for "+code, func(t *testing.T) {
			specs := ResolveSpecs(doc, code)
			assert.NotNil(t, specs)
			assert.Empty(t, specs)
		})
	}

	t.Run("nil document", func(t *testing.T) {
		assert.Empty(t, ResolveSpecs(nil, "A1"))
	})
}

func TestResolveSpecsFromSplitCell(t *testing.T) {
	doc := &TemplateDocument{
		Rows: []models.TemplateRow{{
			DisplayName:   "Width",
			CategoryCodes: splitCategoryCodes("A1|^| A2 "),
		}},
	}

	specs := ResolveSpecs(doc, "A2")
	require.Len(t, specs, 1)
	assert.Equal(t, "Width", specs[0].DisplayName)
}

func TestExtractGroupID(t *testing.T) {
	tests := []struct {
		name   string
		ref    string
		want   string
		wantOK bool
	}{
		{"standard reference", "Refer to sheet for COLOR Allowed Values", "COLOR", true},
		{"extra spacing", "Values for   SIZE   Allowed", "SIZE", true},
		{"stops at second for", "Values for MATERIAL Allowed for use", "MATERIAL", true},
		{"missing for", "COLOR Allowed Values", "", false},
		{"missing Allowed", "Refer to sheet for COLOR", "", false},
		{"Allowed only before for", "Allowed values for COLOR", "", false},
		{"blank token", "Values for   Allowed", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractGroupID(tt.ref)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

type stubSource struct {
	doc *TemplateDocument
	err error
}

func (s stubSource) Document(context.Context) (*TemplateDocument, error) {
	return s.doc, s.err
}

func TestResolver(t *testing.T) {
	t.Run("resolves from source", func(t *testing.T) {
		r := NewResolver(stubSource{doc: testTemplateDocument()})
		specs, err := r.Resolve(context.Background(), "A1")
		require.NoError(t, err)
		require.Len(t, specs, 1)
		assert.Equal(t, []string{"Red", "Blue"}, specs[0].AllowedValueNames)
	})

	t.Run("propagates load failure", func(t *testing.T) {
		r := NewResolver(stubSource{err: loadErr("template specs", errors.New("missing"))})
		_, err := r.Resolve(context.Background(), "A1")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrReferenceLoad)
	})
}
