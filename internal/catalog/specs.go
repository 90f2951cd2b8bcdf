// internal/catalog/specs.go
package catalog

import (
	"context"
	"strings"

	"catalog-lookup-workers/internal/models"
)

// TemplateSource supplies the current item specs document.
type TemplateSource interface {
	Document(ctx context.Context) (*TemplateDocument, error)
}

// Resolver answers item spec lookups from a TemplateSource.
type Resolver struct {
	source TemplateSource
}

func NewResolver(source TemplateSource) *Resolver {
	return &Resolver{source: source}
}

// Resolve loads the current document and returns the spec rows for code.
// The error is a LoadError when the document cannot be read.
func (r *Resolver) Resolve(ctx context.Context, code string) ([]models.SpecResult, error) {
	doc, err := r.source.Document(ctx)
	if err != nil {
		return nil, err
	}
	return ResolveSpecs(doc, code), nil
}

// ResolveSpecs returns every template row listing code among its categories,
// in document order, with allowed-value groups expanded to value names.
func ResolveSpecs(doc *TemplateDocument, code string) []models.SpecResult {
	code = strings.TrimSpace(code)
	results := []models.SpecResult{}
	if code == "" || doc == nil {
		return results
	}

	for _, row := range doc.Rows {
		if !hasCode(row.CategoryCodes, code) {
			continue
		}
		names := []string{}
		if row.HasAllowedValuesRef {
			if token, ok := ExtractGroupID(row.AllowedValuesRef); ok {
				names = allowedValueNames(doc.AllowedValues, token)
			}
		}
		results = append(results, models.SpecResult{
			DisplayName:       row.DisplayName,
			RequirementLevel:  row.RequirementLevel,
			DataType:          row.DataType,
			Description:       row.Description,
			AllowedValueNames: names,
		})
	}
	return results
}

// ExtractGroupID pulls the group token out of an allowed-values reference such
// as "Refer to sheet for COLOR Allowed Values". The token is the text after
// the first "for" (up to any later "for") and before "Allowed". ok is false
// when either marker is missing or the token is blank.
func ExtractGroupID(ref string) (token string, ok bool) {
	_, after, found := strings.Cut(ref, "for")
	if !found {
		return "", false
	}
	if i := strings.Index(after, "for"); i >= 0 {
		after = after[:i]
	}
	before, _, found := strings.Cut(after, "Allowed")
	if !found {
		return "", false
	}
	token = strings.TrimSpace(before)
	return token, token != ""
}

func hasCode(codes []string, code string) bool {
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}

func allowedValueNames(values []models.AllowedValue, token string) []string {
	names := []string{}
	for _, v := range values {
		if !strings.Contains(v.GroupID, token) {
			continue
		}
		if strings.TrimSpace(v.ValueName) == "" {
			continue
		}
		names = append(names, v.ValueName)
	}
	return names
}
