package searchcategories

import "catalog-lookup-workers/internal/models"

type Input struct {
	SelectedName string `json:"selectedName"`
	N            *int   `json:"n,omitempty"`
	Strategy     string `json:"strategy,omitempty"`
}

type Output struct {
	LookupID     string               `json:"lookupId"`
	SelectedName string               `json:"selectedName"`
	Strategy     string               `json:"strategy"`
	ExactMatch   bool                 `json:"exactMatch"`
	Results      []models.MatchResult `json:"results"`
	Count        int                  `json:"count"`
	Cached       bool                 `json:"cached"`
}

// cachedRanking is the cache representation of a category ranking.
type cachedRanking struct {
	Results    []models.MatchResult `json:"results"`
	ExactMatch bool                 `json:"exactMatch"`
}

const inputSchema = `{
	"type": "object",
	"properties": {
		"selectedName": {"type": "string"},
		"n":            {"type": "integer"},
		"strategy":     {"type": "string"}
	},
	"required": ["selectedName"]
}`
