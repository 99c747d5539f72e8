package directive

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Suggest returns the candidate closest to name by case-insensitive edit
// distance, considering registered names before structural ones on ties.
// It returns "" for an exact match or when nothing lies within maxDistance.
func Suggest(name string, registered, structural []string, maxDistance int) string {
	if name == "" || maxDistance <= 0 {
		return ""
	}
	target := strings.ToLower(name)

	best, bestDist := "", maxDistance+1
	for _, pool := range [][]string{registered, structural} {
		sorted := append([]string(nil), pool...)
		sort.Strings(sorted)
		for _, cand := range sorted {
			d := fuzzy.LevenshteinDistance(target, strings.ToLower(cand))
			if d == 0 {
				return ""
			}
			if d < bestDist {
				best, bestDist = cand, d
			}
		}
	}
	return best
}
