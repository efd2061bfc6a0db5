package dialogue

import (
	"regexp"
	"strings"
)

var nullResponses = map[string]struct{}{
	"skip": {},
	"null": {},
	"n/a":  {},
	"none": {},
	"no":   {},
}

// bare negation followed only by punctuation, e.g. "none." or "no!"
var nullPattern = regexp.MustCompile(`^(no|none|n/a)[\s.,;!]*$`)

// IsNullResponse reports whether a clarification answer declines to
// provide the value. Anything longer than a bare negation is a real answer,
// so "no issue reported" is not null.
func IsNullResponse(text string) bool {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if _, ok := nullResponses[normalized]; ok {
		return true
	}
	return nullPattern.MatchString(normalized)
}
