package fragment

import (
	"strings"

	"github.com/DeusData/antigravity-autopilot/internal/shape"
)

// Patch replaces Target with Replacement; the insertion sits immediately before
// the anchor.
type Patch struct {
	Target      string
	Replacement string
}

// Synthesize fills r.InsertionText from the descriptor's template and returns the
// resulting patch.
func Synthesize(r *Resolved, d *shape.Descriptor) Patch {
	r.InsertionText = d.Insert(r.Identifiers)
	return Patch{Target: r.MatchedText, Replacement: r.InsertionText + r.MatchedText}
}

// Apply substitutes the first occurrence of the patch target.
func (p Patch) Apply(text string) string {
	return strings.Replace(text, p.Target, p.Replacement, 1)
}

// IsApplied reports whether d's insertion is already present: the marker literal
// must occur and the verification pattern must match.
func IsApplied(text string, d *shape.Descriptor) bool {
	if !strings.Contains(text, d.Signature.Marker) {
		return false
	}
	return d.Signature.Verify.MatchString(text)
}
