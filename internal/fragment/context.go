package fragment

import (
	"fmt"
	"regexp"
)

// ResolveContext searches [anchorOffset-radius, anchorOffset) for re and returns
// its single capture. Repeated matches naming the same identifier count once;
// two different names are a conflict.
func ResolveContext(text string, anchorOffset, radius int, re *regexp.Regexp) (string, error) {
	if anchorOffset > len(text) {
		anchorOffset = len(text)
	}
	start := max(0, anchorOffset-radius)
	window := text[start:anchorOffset]

	matches := re.FindAllStringSubmatch(window, -1)
	if len(matches) == 0 {
		return "", ErrNotFound
	}
	name := matches[0][1]
	for _, m := range matches[1:] {
		if m[1] != name {
			return "", fmt.Errorf("%w: %q and %q", ErrContextConflict, name, m[1])
		}
	}
	return name, nil
}
