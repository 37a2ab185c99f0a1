package fragment

import (
	"github.com/DeusData/antigravity-autopilot/internal/shape"
)

// DisambiguateAlias scores every candidate name by the weighted hit counts of
// dis.Generic and dis.Confident and returns the highest-scoring one with its
// score. Non whole-file patterns scan [anchorOffset-radius, anchorOffset+radius).
// Equal scores resolve to the lexicographically smallest name so repeated runs
// over the same text always agree.
func DisambiguateAlias(text string, anchorOffset int, excluded []string, radius int, dis *shape.Disambiguation) (string, int, error) {
	skip := make(map[string]bool, len(excluded))
	for _, name := range excluded {
		skip[name] = true
	}

	lo := max(0, anchorOffset-radius)
	hi := min(len(text), anchorOffset+radius)
	if lo > hi {
		lo = hi
	}
	window := text[lo:hi]

	scores := make(map[string]int)
	for _, p := range []shape.WeightedPattern{dis.Generic, dis.Confident} {
		if p.Pattern == nil {
			continue
		}
		src := window
		if p.WholeFile {
			src = text
		}
		for _, m := range p.Pattern.FindAllStringSubmatch(src, -1) {
			if len(m) < 2 || m[1] == "" || skip[m[1]] {
				continue
			}
			scores[m[1]] += p.Weight
		}
	}

	best, bestScore := "", 0
	for name, score := range scores {
		if score > bestScore || (score == bestScore && name < best) {
			best, bestScore = name, score
		}
	}
	if best == "" {
		return "", 0, ErrNotFound
	}
	return best, bestScore, nil
}
