// internal/common/fuzzy/synonyms.go
package fuzzy

import "strings"

type synonym struct {
	phrase    string
	expansion string
}

// synonyms is checked in order; every phrase found appends its expansion.
var synonyms = []synonym{
	{phrase: "hose pipe", expansion: "garden hose"},
	{phrase: "tap connector", expansion: "faucet connector"},
	{phrase: "paint remover", expansion: "paint stripper"},
}

// Expand lower-cases query and appends the expansion of every known phrase it
// contains. The original text is kept.
func Expand(query string) string {
	lowered := strings.ToLower(query)

	var b strings.Builder
	b.WriteString(lowered)
	for _, s := range synonyms {
		if strings.Contains(lowered, s.phrase) {
			b.WriteByte(' ')
			b.WriteString(s.expansion)
		}
	}
	return b.String()
}
