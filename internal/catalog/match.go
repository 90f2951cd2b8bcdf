// internal/catalog/match.go
package catalog

import (
	"sort"
	"strings"

	"catalog-lookup-workers/internal/common/fuzzy"
	"catalog-lookup-workers/internal/models"
)

// CategoryFloor is the minimum score a category needs when no path contains
// the query literally.
const CategoryFloor = 50.0

// CategoryRanking is the outcome of a category search.
type CategoryRanking struct {
	Results    []models.MatchResult
	ExactMatch bool
}

// MatchProducts expands query with domain synonyms and returns the n catalog
// entries most similar to it, best first.
func (d *Dataset) MatchProducts(query string, n int, s fuzzy.Strategy) []models.MatchResult {
	if n <= 0 {
		return []models.MatchResult{}
	}

	expanded := fuzzy.Expand(query)
	scored := make([]models.MatchResult, len(d.products))
	for i, p := range d.products {
		scored[i] = models.MatchResult{
			Label: p.ProductType,
			Code:  p.ProductCode,
			Score: fuzzy.Score(strings.ToLower(p.ProductType), expanded, s),
		}
	}
	return topN(scored, n)
}

// MatchCategories returns the ranked categories for query.
func (d *Dataset) MatchCategories(query string, n int, s fuzzy.Strategy) []models.MatchResult {
	return d.RankCategories(query, n, s).Results
}

// RankCategories ranks category paths that contain query (case-insensitive)
// ahead of everything else: when any path contains it, only those paths are
// ranked. Otherwise every path is scored and those under CategoryFloor are
// dropped.
func (d *Dataset) RankCategories(query string, n int, s fuzzy.Strategy) CategoryRanking {
	if n <= 0 {
		return CategoryRanking{Results: []models.MatchResult{}}
	}

	needle := strings.ToLower(query)
	var exact []models.MatchResult
	for _, c := range d.categories {
		if strings.Contains(strings.ToLower(c.CategoryPath), needle) {
			exact = append(exact, categoryResult(c, query, s))
		}
	}
	if len(exact) > 0 {
		return CategoryRanking{Results: topN(exact, n), ExactMatch: true}
	}

	var fallback []models.MatchResult
	for _, c := range d.categories {
		r := categoryResult(c, query, s)
		if r.Score >= CategoryFloor {
			fallback = append(fallback, r)
		}
	}
	return CategoryRanking{Results: topN(fallback, n)}
}

func categoryResult(c models.CategoryEntry, query string, s fuzzy.Strategy) models.MatchResult {
	return models.MatchResult{
		Label: c.CategoryPath,
		Code:  c.Code,
		Score: fuzzy.Score(strings.ToLower(c.CategoryPath), query, s),
	}
}

// topN sorts scored in place, best first, keeping source order for ties.
func topN(scored []models.MatchResult, n int) []models.MatchResult {
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if len(scored) > n {
		scored = scored[:n]
	}
	if scored == nil {
		return []models.MatchResult{}
	}
	return scored
}
