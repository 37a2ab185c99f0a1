// Package shape describes the minified code shapes the engine locates and patches.
package shape

import (
	"fmt"
	"regexp"
	"strings"
)

// Kind names one independently locatable and patchable code shape.
type Kind string

const (
	Terminal Kind = "terminal"
	Browser  Kind = "browser"
	FilePerm Kind = "fileperm"
)

// AllKinds returns every known kind in the order the engine applies them.
func AllKinds() []Kind {
	return []Kind{Terminal, Browser, FilePerm}
}

// Role names shared by more than one descriptor.
const (
	RoleEffect   = "effect"
	RoleCallback = "callback"
	RoleConfirm  = "confirm"
)

// ContextPattern resolves one additional identifier from the text preceding the
// anchor. Template slots ({{role}}) are replaced with already-resolved identifiers
// before compiling; the pattern must have exactly one capture group.
type ContextPattern struct {
	Role     string
	Template string
}

// WeightedPattern is one scoring sub-pattern of the alias disambiguator. The first
// capture group is the candidate alias.
type WeightedPattern struct {
	Pattern *regexp.Regexp
	Weight  int
	// WholeFile scans the entire text instead of the window around the anchor.
	WholeFile bool
}

// Disambiguation picks the effect-like alias for Role.
type Disambiguation struct {
	Role      string
	Generic   WeightedPattern
	Confident WeightedPattern
	// Exclude lists names that are never candidates (keywords matching the shape).
	// It applies to the whole-file Confident pass as well, where these keywords
	// cannot match anyway.
	Exclude []string
	// ExcludeRoles lists roles whose resolved names are never candidates.
	ExcludeRoles []string
}

// Signature detects a prior application without re-deriving identifiers.
type Signature struct {
	Marker string
	Verify *regexp.Regexp
}

// Descriptor is the immutable description of one fragment kind.
type Descriptor struct {
	Kind  Kind
	Title string

	// Anchor uses named groups; group names are the identifier roles.
	Anchor *regexp.Regexp
	// SameAs maps a group to another group whose text it must equal. RE2 has no
	// back-references, so the constraint is checked per candidate match.
	SameAs map[string]string

	// Context steps run in order; later templates may reference earlier roles.
	Context []ContextPattern
	Alias   *Disambiguation

	Signature Signature

	// Hint is a literal that survives minification; when the anchor misses, the
	// text around it is logged to help update the pattern.
	Hint string

	// Uses lists the roles Insert reads.
	Uses   []string
	Insert func(ids map[string]string) string
}

var slotRe = regexp.MustCompile(`\{\{(\w+)\}\}`)

// Slots returns the role names referenced by a context template.
func (c ContextPattern) Slots() []string {
	var roles []string
	for _, m := range slotRe.FindAllStringSubmatch(c.Template, -1) {
		roles = append(roles, m[1])
	}
	return roles
}

// Compile fills the template slots with quoted identifiers and compiles the result.
func (c ContextPattern) Compile(ids map[string]string) (*regexp.Regexp, error) {
	var missing string
	expr := slotRe.ReplaceAllStringFunc(c.Template, func(slot string) string {
		role := slotRe.FindStringSubmatch(slot)[1]
		name, ok := ids[role]
		if !ok {
			missing = role
			return slot
		}
		return regexp.QuoteMeta(name)
	})
	if missing != "" {
		return nil, fmt.Errorf("context %s: unresolved slot %q", c.Role, missing)
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("context %s: %w", c.Role, err)
	}
	if re.NumSubexp() != 1 {
		return nil, fmt.Errorf("context %s: want 1 capture group, got %d", c.Role, re.NumSubexp())
	}
	return re, nil
}

// AnchorRoles returns the named groups of the anchor pattern.
func (d *Descriptor) AnchorRoles() []string {
	var roles []string
	for _, name := range d.Anchor.SubexpNames() {
		if name != "" {
			roles = append(roles, name)
		}
	}
	return roles
}

// Validate checks that every role referenced by a context step, the alias step or
// the insertion template is produced by the anchor or by an earlier step.
func (d *Descriptor) Validate() error {
	if d.Anchor == nil || d.Insert == nil {
		return fmt.Errorf("%s: anchor and insert are required", d.Kind)
	}
	if d.Signature.Marker == "" || d.Signature.Verify == nil {
		return fmt.Errorf("%s: signature is required", d.Kind)
	}
	if !strings.HasPrefix(d.Signature.Verify.String(), regexp.QuoteMeta(d.Signature.Marker)) {
		return fmt.Errorf("%s: verification pattern must start with the marker", d.Kind)
	}

	known := make(map[string]bool)
	for _, r := range d.AnchorRoles() {
		known[r] = true
	}
	for from, to := range d.SameAs {
		if !known[from] || !known[to] {
			return fmt.Errorf("%s: same-as constraint %s=%s names an unknown group", d.Kind, from, to)
		}
	}
	for _, c := range d.Context {
		for _, slot := range c.Slots() {
			if !known[slot] {
				return fmt.Errorf("%s: context %s references %q before it is resolved", d.Kind, c.Role, slot)
			}
		}
		known[c.Role] = true
	}
	if d.Alias != nil {
		for _, r := range d.Alias.ExcludeRoles {
			if !known[r] {
				return fmt.Errorf("%s: alias exclusion references unresolved role %q", d.Kind, r)
			}
		}
		known[d.Alias.Role] = true
	}
	for _, r := range d.Uses {
		if !known[r] {
			return fmt.Errorf("%s: insertion uses unresolved role %q", d.Kind, r)
		}
	}
	return nil
}

// registry maps kinds to descriptors.
var registry = map[Kind]*Descriptor{}

// Register adds a Descriptor to the global registry. It panics on an invalid
// descriptor since descriptors are package-level constants.
func Register(d *Descriptor) {
	if err := d.Validate(); err != nil {
		panic(err)
	}
	registry[d.Kind] = d
}

// ForKind returns the descriptor for a kind, or nil.
func ForKind(k Kind) *Descriptor {
	return registry[k]
}

// Descriptors returns the registered descriptors for kinds, in AllKinds order.
// A nil or empty kinds slice selects every registered kind.
func Descriptors(kinds []Kind) []*Descriptor {
	want := make(map[Kind]bool, len(kinds))
	for _, k := range kinds {
		want[k] = true
	}
	var out []*Descriptor
	for _, k := range AllKinds() {
		d := registry[k]
		if d == nil {
			continue
		}
		if len(want) > 0 && !want[k] {
			continue
		}
		out = append(out, d)
	}
	return out
}

// ParseKind maps a user-supplied name to a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if registry[k] == nil {
		return "", fmt.Errorf("unknown fragment kind: %q", s)
	}
	return k, nil
}
