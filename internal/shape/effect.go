package shape

import "regexp"

// Effect-like call shapes. The generic shape is "alias(()=>{short body},[" and the
// confident shape additionally returns a zero-argument cleanup closure.
var (
	genericEffectRe   = regexp.MustCompile(`\b(\w{2,3})\(\(\)=>\{[^}]{3,80}\},\[`)
	confidentEffectRe = regexp.MustCompile(`\b(\w{2,3})\(\(\)=>\{[^}]*return\s*\(\)=>`)
)

// effectAlias returns the disambiguation step shared by every kind. Names bound
// to excludeRoles are stable-callback or memo aliases of the same file.
func effectAlias(excludeRoles ...string) *Disambiguation {
	return &Disambiguation{
		Role:         RoleEffect,
		Generic:      WeightedPattern{Pattern: genericEffectRe, Weight: 1},
		Confident:    WeightedPattern{Pattern: confidentEffectRe, Weight: 5, WholeFile: true},
		Exclude:      []string{"var", "new"},
		ExcludeRoles: excludeRoles,
	}
}
