// internal/common/fuzzy/similarity.go
package fuzzy

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/hbollon/go-edlib"
)

// Strategy selects how two strings are compared.
type Strategy int

const (
	Combined Strategy = iota
	Partial
	TokenSet
)

var ErrUnknownStrategy = errors.New("unknown similarity strategy")

func (s Strategy) String() string {
	switch s {
	case Partial:
		return "partial"
	case TokenSet:
		return "token"
	default:
		return "combined"
	}
}

// ParseStrategy maps a wire name to a Strategy. An empty name selects Combined.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "combined":
		return Combined, nil
	case "partial":
		return Partial, nil
	case "token", "token_set":
		return TokenSet, nil
	default:
		return Combined, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

// Score compares a and b with the given strategy. The result is in [0,100].
func Score(a, b string, s Strategy) float64 {
	switch s {
	case Partial:
		return PartialRatio(a, b)
	case TokenSet:
		return TokenSetRatio(a, b)
	default:
		return 0.5*PartialRatio(a, b) + 0.5*TokenSetRatio(a, b)
	}
}

// Ratio is the indel similarity of a and b scaled to 0-100 and rounded.
func Ratio(a, b string) float64 {
	return toPercent(rawRatio([]rune(a), []rune(b)))
}

// PartialRatio scores the best alignment of the shorter string against every
// equally sized window of the longer one. Both inputs are lower-cased.
func PartialRatio(a, b string) float64 {
	shorter := []rune(strings.ToLower(a))
	longer := []rune(strings.ToLower(b))
	if len(shorter) == 0 || len(longer) == 0 {
		return 0
	}
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}

	best := 0.0
	for start := 0; start+len(shorter) <= len(longer); start++ {
		r := rawRatio(shorter, longer[start:start+len(shorter)])
		if r > best {
			best = r
			if best > 0.995 {
				return 100
			}
		}
	}
	return toPercent(best)
}

// TokenSetRatio compares the deduplicated word sets of a and b, so word order
// and one side being a subset of the other do not lower the score.
func TokenSetRatio(a, b string) float64 {
	tokensA := tokenSet(a)
	tokensB := tokenSet(b)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0
	}

	var common, onlyA, onlyB []string
	for tok := range tokensA {
		if _, ok := tokensB[tok]; ok {
			common = append(common, tok)
		} else {
			onlyA = append(onlyA, tok)
		}
	}
	for tok := range tokensB {
		if _, ok := tokensA[tok]; !ok {
			onlyB = append(onlyB, tok)
		}
	}
	sort.Strings(common)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	sect := strings.Join(common, " ")
	combinedA := strings.TrimSpace(sect + " " + strings.Join(onlyA, " "))
	combinedB := strings.TrimSpace(sect + " " + strings.Join(onlyB, " "))

	return math.Max(
		math.Max(Ratio(sect, combinedA), Ratio(sect, combinedB)),
		Ratio(combinedA, combinedB),
	)
}

func rawRatio(a, b []rune) float64 {
	total := len(a) + len(b)
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	lcs := edlib.LCS(string(a), string(b))
	return 2 * float64(lcs) / float64(total)
}

func toPercent(r float64) float64 {
	return math.RoundToEven(100 * r)
}

// tokenSet lower-cases s, treats every rune that is not a word rune (letter,
// digit or underscore) as a separator and returns the distinct words.
func tokenSet(s string) map[string]struct{} {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			return unicode.ToLower(r)
		}
		return ' '
	}, s)

	fields := strings.Fields(cleaned)
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}
