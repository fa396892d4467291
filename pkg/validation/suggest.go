package validation

import (
	"sort"

	"github.com/agnivade/levenshtein"
)

// Suggest returns the candidates closest to input by edit distance, nearest
// first, dropping anything farther than a length-scaled limit. Used to turn
// "unknown species" and "unknown projection" errors into fixes.
func Suggest(input string, candidates []string) []string {
	type scored struct {
		name string
		dist int
	}
	var hits []scored
	for _, cand := range candidates {
		dist := levenshtein.ComputeDistance(input, cand)
		if dist > suggestLimit(len(cand)) {
			continue
		}
		hits = append(hits, scored{cand, dist})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].dist != hits[j].dist {
			return hits[i].dist < hits[j].dist
		}
		return hits[i].name < hits[j].name
	})
	if len(hits) > 3 {
		hits = hits[:3]
	}
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.name
	}
	return out
}

func suggestLimit(length int) int {
	switch {
	case length <= 4:
		return 1
	case length <= 8:
		return 2
	default:
		return 3
	}
}
