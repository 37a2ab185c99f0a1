package fragment

import "github.com/DeusData/antigravity-autopilot/internal/shape"

// Locate runs the descriptor's anchor over the full text and returns the first
// match that satisfies its same-as constraints. Uniqueness is the caller's check.
func Locate(text string, d *shape.Descriptor) (*Resolved, error) {
	names := d.Anchor.SubexpNames()
	for _, loc := range d.Anchor.FindAllStringSubmatchIndex(text, -1) {
		ids := make(map[string]string, len(names))
		for i, name := range names {
			if name == "" || loc[2*i] < 0 {
				continue
			}
			ids[name] = text[loc[2*i]:loc[2*i+1]]
		}
		if !sameAs(ids, d.SameAs) {
			continue
		}
		return &Resolved{
			Kind:        d.Kind,
			MatchedText: text[loc[0]:loc[1]],
			MatchOffset: loc[0],
			Identifiers: ids,
		}, nil
	}
	return nil, ErrNotFound
}

func sameAs(ids map[string]string, constraints map[string]string) bool {
	for from, to := range constraints {
		if ids[from] != ids[to] {
			return false
		}
	}
	return true
}
