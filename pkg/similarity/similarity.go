// Package similarity scores how close two strings are on a 0–100 scale.
package similarity

import (
	"math"

	"github.com/franceroutage/annuaire/pkg/constants"
)

// Ratio returns 100 × (1 − distance / longest length) using the Levenshtein
// edit distance over runes. Identical strings score 100, a string against an
// empty one scores 0.
func Ratio(a, b string) float64 {
	if a == b {
		return constants.MaxSimilarityScore
	}
	ar, br := []rune(a), []rune(b)
	longest := max(len(ar), len(br))
	if len(ar) == 0 || len(br) == 0 {
		return 0
	}
	dist := Distance(a, b)
	return math.Max(0, constants.MaxSimilarityScore*(1-float64(dist)/float64(longest)))
}

// Distance returns the Levenshtein edit distance between a and b.
func Distance(a, b string) int {
	ar, br := []rune(a), []rune(b)
	if len(ar) < len(br) {
		ar, br = br, ar
	}
	if len(br) == 0 {
		return len(ar)
	}

	prev := make([]int, len(br)+1)
	curr := make([]int, len(br)+1)
	for j := range prev {
		prev[j] = j
	}
	for i, ca := range ar {
		curr[0] = i + 1
		for j, cb := range br {
			sub := prev[j]
			if ca != cb {
				sub++
			}
			curr[j+1] = min(curr[j]+1, prev[j+1]+1, sub)
		}
		prev, curr = curr, prev
	}
	return prev[len(br)]
}
