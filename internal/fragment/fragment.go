// Package fragment locates code shapes in minified script text, recovers the
// renamed identifiers they reference, and synthesizes the insertion for each
// kind. Nothing here touches the filesystem.
package fragment

import (
	"errors"
	"fmt"
	"strings"

	"github.com/DeusData/antigravity-autopilot/internal/shape"
)

const (
	DefaultContextRadius = 2000
	DefaultAliasRadius   = 5000
)

var (
	// ErrNotFound is a soft miss: the shape is absent from this text.
	ErrNotFound = errors.New("pattern not found")
	// ErrAmbiguous means the matched anchor text occurs more than once.
	ErrAmbiguous = errors.New("anchor is not unique")
	// ErrContextConflict means a context window resolved two different names.
	ErrContextConflict = errors.New("context resolved conflicting identifiers")
	// ErrInvalidSyntax means the synthesized insertion did not parse.
	ErrInvalidSyntax = errors.New("synthesized insertion is not valid syntax")
)

// Resolved is one located fragment with every identifier its insertion needs.
// It is derived from one text and never reused for another.
type Resolved struct {
	Kind          shape.Kind
	MatchedText   string
	MatchOffset   int
	Identifiers   map[string]string
	InsertionText string
}

// SyntaxChecker reports whether a JavaScript snippet parses cleanly.
type SyntaxChecker interface {
	Check(snippet string) error
}

// Resolver runs the full locate/context/alias/synthesize chain for a descriptor.
// Zero radii fall back to the defaults. A nil Checker skips the syntax check.
type Resolver struct {
	ContextRadius int
	AliasRadius   int
	Checker       SyntaxChecker
}

// Resolve returns the resolved fragment for d in text. Errors wrap ErrNotFound,
// ErrAmbiguous, ErrContextConflict or ErrInvalidSyntax.
func (r *Resolver) Resolve(text string, d *shape.Descriptor) (*Resolved, error) {
	res, err := Locate(text, d)
	if err != nil {
		return nil, err
	}
	if n := CountOccurrences(text, res.MatchedText); n > 1 {
		return nil, fmt.Errorf("%w: %d occurrences of %s anchor", ErrAmbiguous, n, d.Kind)
	}

	ctxRadius := r.ContextRadius
	if ctxRadius <= 0 {
		ctxRadius = DefaultContextRadius
	}
	for _, c := range d.Context {
		re, err := c.Compile(res.Identifiers)
		if err != nil {
			return nil, err
		}
		name, err := ResolveContext(text, res.MatchOffset, ctxRadius, re)
		if err != nil {
			return nil, fmt.Errorf("context %s: %w", c.Role, err)
		}
		res.Identifiers[c.Role] = name
	}

	if d.Alias != nil {
		aliasRadius := r.AliasRadius
		if aliasRadius <= 0 {
			aliasRadius = DefaultAliasRadius
		}
		excluded := append([]string{}, d.Alias.Exclude...)
		for _, role := range d.Alias.ExcludeRoles {
			excluded = append(excluded, res.Identifiers[role])
		}
		name, _, err := DisambiguateAlias(text, res.MatchOffset, excluded, aliasRadius, d.Alias)
		if err != nil {
			return nil, fmt.Errorf("alias %s: %w", d.Alias.Role, err)
		}
		res.Identifiers[d.Alias.Role] = name
	}

	p := Synthesize(res, d)
	if r.Checker != nil {
		if err := r.Checker.Check(p.Replacement); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidSyntax, d.Kind, err)
		}
	}
	return res, nil
}

// CountOccurrences counts literal, non-overlapping occurrences of s in text.
func CountOccurrences(text, s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(text, s)
}
