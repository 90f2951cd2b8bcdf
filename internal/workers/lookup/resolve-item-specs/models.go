package resolveitemspecs

import "catalog-lookup-workers/internal/models"

type Input struct {
	CategoryCode string `json:"categoryCode"`
}

type Output struct {
	LookupID     string              `json:"lookupId"`
	CategoryCode string              `json:"categoryCode"`
	Specs        []models.SpecResult `json:"specs"`
	Count        int                 `json:"count"`
}

const inputSchema = `{
	"type": "object",
	"properties": {
		"categoryCode": {"type": "string"}
	},
	"required": ["categoryCode"]
}`
