package searchproducts

import "catalog-lookup-workers/internal/models"

type Input struct {
	Query    string `json:"query"`
	N        *int   `json:"n,omitempty"`
	Strategy string `json:"strategy,omitempty"`
}

type Output struct {
	LookupID      string               `json:"lookupId"`
	Query         string               `json:"query"`
	ExpandedQuery string               `json:"expandedQuery"`
	Strategy      string               `json:"strategy"`
	Results       []models.MatchResult `json:"results"`
	Count         int                  `json:"count"`
	Cached        bool                 `json:"cached"`
}

// inputSchema accepts any other process variables alongside the lookup fields.
const inputSchema = `{
	"type": "object",
	"properties": {
		"query":    {"type": "string"},
		"n":        {"type": "integer"},
		"strategy": {"type": "string"}
	},
	"required": ["query"]
}`
