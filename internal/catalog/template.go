// internal/catalog/template.go
package catalog

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"catalog-lookup-workers/internal/models"
)

const (
	TemplateSheet      = "Custom Template File"
	AllowedValuesSheet = "Allowed Values"

	ColDisplayName      = "Display Name of Field"
	ColCategory         = "Category"
	ColRequirementLevel = "Requirement Level"
	ColDataType         = "Data Type"
	ColDescription      = "Description"
	ColAllowedValues    = "Allowed Values"
	ColGroupID          = "Allowed Value Group ID"
	ColValueName        = "Allowed Value Name (optional)"

	// CategoryDelimiter joins multiple category codes in one Category cell.
	CategoryDelimiter = "|^|"
)

var (
	templateColumns = []string{
		ColDisplayName, ColCategory, ColRequirementLevel,
		ColDataType, ColDescription, ColAllowedValues,
	}
	allowedValueColumns = []string{ColGroupID, ColValueName}
)

// TemplateDocument is the parsed item specs workbook.
type TemplateDocument struct {
	Rows          []models.TemplateRow
	AllowedValues []models.AllowedValue
}

// LoadTemplateDocument opens the item specs workbook and parses both sheets.
func LoadTemplateDocument(path string) (*TemplateDocument, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, loadErr("template specs "+path, err)
	}
	defer f.Close()

	templateRows, err := f.GetRows(TemplateSheet)
	if err != nil {
		return nil, loadErr("template specs "+path, fmt.Errorf("sheet %q: %w", TemplateSheet, err))
	}
	allowedRows, err := f.GetRows(AllowedValuesSheet)
	if err != nil {
		return nil, loadErr("template specs "+path, fmt.Errorf("sheet %q: %w", AllowedValuesSheet, err))
	}

	doc, err := ParseTemplateSheets(templateRows, allowedRows)
	if err != nil {
		return nil, loadErr("template specs "+path, err)
	}
	return doc, nil
}

// ParseTemplateSheets builds a TemplateDocument from raw sheet rows. The first
// row of each sheet is the header; header names are trimmed before lookup.
func ParseTemplateSheets(templateRows, allowedRows [][]string) (*TemplateDocument, error) {
	tcols, err := columnIndex(TemplateSheet, templateRows, templateColumns)
	if err != nil {
		return nil, err
	}
	acols, err := columnIndex(AllowedValuesSheet, allowedRows, allowedValueColumns)
	if err != nil {
		return nil, err
	}

	doc := &TemplateDocument{}
	for _, row := range templateRows[1:] {
		get := func(col string) string { return cell(row, tcols[col]) }
		if blankRow(row) {
			continue
		}
		ref := get(ColAllowedValues)
		doc.Rows = append(doc.Rows, models.TemplateRow{
			DisplayName:         get(ColDisplayName),
			CategoryCodes:       splitCategoryCodes(get(ColCategory)),
			RequirementLevel:    get(ColRequirementLevel),
			DataType:            get(ColDataType),
			Description:         get(ColDescription),
			AllowedValuesRef:    ref,
			HasAllowedValuesRef: strings.TrimSpace(ref) != "",
		})
	}

	for _, row := range allowedRows[1:] {
		if blankRow(row) {
			continue
		}
		doc.AllowedValues = append(doc.AllowedValues, models.AllowedValue{
			GroupID:   cell(row, acols[ColGroupID]),
			ValueName: cell(row, acols[ColValueName]),
		})
	}
	return doc, nil
}

func columnIndex(sheet string, rows [][]string, required []string) (map[string]int, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q has no header row", sheet)
	}
	index := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		name = strings.TrimSpace(name)
		if _, seen := index[name]; !seen {
			index[name] = i
		}
	}

	out := make(map[string]int, len(required))
	for _, col := range required {
		i, ok := index[col]
		if !ok {
			return nil, fmt.Errorf("sheet %q is missing column %q", sheet, col)
		}
		out[col] = i
	}
	return out, nil
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func splitCategoryCodes(field string) []string {
	parts := strings.Split(field, CategoryDelimiter)
	codes := make([]string, 0, len(parts))
	for _, p := range parts {
		codes = append(codes, strings.TrimSpace(p))
	}
	return codes
}
