// internal/models/catalog.go
package models

// ProductEntry is one row of the product catalog reference table.
type ProductEntry struct {
	ProductType string `json:"productType"`
	ProductCode string `json:"productCode"`
}

// CategoryEntry is one row of the category tree reference table.
type CategoryEntry struct {
	CategoryPath string `json:"categoryPath"`
	Code         string `json:"code"`
}

// TemplateRow is an attribute specification row from the "Custom Template File" sheet.
type TemplateRow struct {
	DisplayName      string   `json:"displayName"`
	CategoryCodes    []string `json:"categoryCodes"`
	RequirementLevel string   `json:"requirementLevel"`
	DataType         string   `json:"dataType"`
	Description      string   `json:"description"`
	AllowedValuesRef string   `json:"allowedValuesRef,omitempty"`
	// HasAllowedValuesRef is false when the Allowed Values cell was empty.
	HasAllowedValuesRef bool `json:"hasAllowedValuesRef"`
}

// AllowedValue is one row of the "Allowed Values" sheet.
type AllowedValue struct {
	GroupID   string `json:"groupId"`
	ValueName string `json:"valueName,omitempty"`
}

type MatchResult struct {
	Label string  `json:"label"`
	Code  string  `json:"code"`
	Score float64 `json:"score"`
}

type SpecResult struct {
	DisplayName       string   `json:"displayName"`
	RequirementLevel  string   `json:"requirementLevel"`
	DataType          string   `json:"dataType"`
	Description       string   `json:"description"`
	AllowedValueNames []string `json:"allowedValueNames"`
}
