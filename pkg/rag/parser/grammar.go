package parser

import "strings"

// FormatVersion identifies the response convention the model is prompted with.
// Bump it together with the analysis prompt whenever a token changes.
const FormatVersion = "v1"

// Token constants - the whole wire format of a model response
const (
	TokenFenceOpen  = "```json"
	TokenFenceClose = "```"

	HeaderMissing   = "MISSING DATA:"
	HeaderQuestions = "QUESTIONS FOR CLARIFICATION:"
	HeaderNextSteps = "NEXT STEPS:"
)

// sectionTerminators end the MISSING DATA section, whichever comes first.
var sectionTerminators = []string{HeaderQuestions, HeaderNextSteps}

// span is a located token: [start, end) in the scanned text.
type span struct {
	start int
	end   int
}

func (s span) found() bool { return s.start >= 0 }

var notFound = span{start: -1, end: -1}

// locate finds the first occurrence of token at or after offset.
func locate(text, token string, offset int) span {
	if offset > len(text) {
		return notFound
	}
	idx := strings.Index(text[offset:], token)
	if idx < 0 {
		return notFound
	}
	start := offset + idx
	return span{start: start, end: start + len(token)}
}

// locateFold is locate with case folding, used for the fence tag
// ("```json" and "```JSON" are the same token). Windows of the original
// text are compared, so offsets stay valid when lowercasing would change
// the byte length of a rune ("İ", "Ⱥ").
func locateFold(text, token string, offset int) span {
	if offset < 0 || offset > len(text) {
		return notFound
	}
	for start := offset; start+len(token) <= len(text); start++ {
		if strings.EqualFold(text[start:start+len(token)], token) {
			return span{start: start, end: start + len(token)}
		}
	}
	return notFound
}

// earliest returns the first of the given tokens found at or after offset.
func earliest(text string, offset int, tokens ...string) span {
	best := notFound
	for _, tok := range tokens {
		sp := locate(text, tok, offset)
		if sp.found() && (!best.found() || sp.start < best.start) {
			best = sp
		}
	}
	return best
}

// sectionLines splits a section body into cleaned, non-empty lines.
func sectionLines(body string) []string {
	var lines []string
	for _, line := range strings.Split(body, "\n") {
		if cleaned := stripBullet(line); cleaned != "" {
			lines = append(lines, cleaned)
		}
	}
	return lines
}

// stripBullet removes surrounding whitespace and leading "-" / "*" markers.
func stripBullet(line string) string {
	line = strings.TrimSpace(line)
	line = strings.TrimLeft(line, "-*")
	return strings.TrimSpace(line)
}
