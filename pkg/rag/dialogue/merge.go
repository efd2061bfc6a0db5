package dialogue

import (
	"sort"
	"strings"
	"unicode"

	"trackbot-be/pkg/store"
)

// minKeyLen keeps short keys like "id" from matching every question.
const minKeyLen = 3

// normalizeWords lowercases and turns every run of non alphanumerics
// (including '_' and '-') into a single space.
func normalizeWords(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := true
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	return strings.TrimSpace(b.String())
}

// ImpliedField returns the field a question asks about, chosen among the
// record keys and the outstanding missing labels. A question implies a
// field when it equals it, or when the normalized field appears in the
// normalized question as whole words ("project_budget" matches "What is the
// project budget?"). Candidates are tried longest first so the most
// specific match wins: "contact_name" beats "name" in "What is the client
// contact name?".
func ImpliedField(question string, record store.Record, missing []string) (string, bool) {
	if _, ok := record[question]; ok {
		return question, true
	}
	if contains(missing, question) {
		return question, true
	}

	type candidate struct {
		field string
		words string
	}
	candidates := make([]candidate, 0, len(record)+len(missing))
	for k := range record {
		candidates = append(candidates, candidate{field: k, words: normalizeWords(k)})
	}
	for _, label := range missing {
		candidates = append(candidates, candidate{field: label, words: normalizeWords(label)})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if len(candidates[i].words) != len(candidates[j].words) {
			return len(candidates[i].words) > len(candidates[j].words)
		}
		return candidates[i].field < candidates[j].field
	})

	padded := " " + normalizeWords(question) + " "
	for _, c := range candidates {
		if len(c.words) < minKeyLen {
			continue
		}
		if strings.Contains(padded, " "+c.words+" ") {
			return c.field, true
		}
	}
	return "", false
}

// resolved reports whether the field a question asks about is already in
// the record. A question about a still-missing field is never resolved.
func resolved(question string, s *store.Session) bool {
	field, ok := ImpliedField(question, s.Record, s.MissingFields)
	if !ok {
		return false
	}
	_, inRecord := s.Record[field]
	return inRecord
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// mergeFields overwrites record values and drops labels the record now holds.
func mergeFields(s *store.Session, fields map[string]interface{}) {
	for k, v := range fields {
		s.Record[k] = v
	}

	kept := s.MissingFields[:0]
	for _, f := range s.MissingFields {
		if _, ok := s.Record[f]; !ok {
			kept = append(kept, f)
		}
	}
	s.MissingFields = kept
}

func mergeMissing(s *store.Session, labels []string) {
	for _, label := range labels {
		label = strings.TrimSpace(label)
		if label == "" {
			continue
		}
		if _, ok := s.Record[label]; ok {
			continue
		}
		if contains(s.MissingFields, label) {
			continue
		}
		s.MissingFields = append(s.MissingFields, label)
	}
}

// pruneStale drops queued questions the record already answers. Questions
// up to and including the one under the cursor have been surfaced and stay,
// so the cursor keeps pointing at the same question.
func pruneStale(s *store.Session) {
	keep := 0
	if s.State == store.StateClarifying {
		keep = s.Cursor + 1
	}
	if keep > len(s.Questions) {
		keep = len(s.Questions)
	}

	out := append([]string(nil), s.Questions[:keep]...)
	for _, q := range s.Questions[keep:] {
		if !resolved(q, s) {
			out = append(out, q)
		}
	}
	s.Questions = out
}

func mergeQuestions(s *store.Session, questions []string) {
	for _, q := range questions {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		if contains(s.Questions, q) {
			continue
		}
		if resolved(q, s) {
			continue
		}
		s.Questions = append(s.Questions, q)
	}
}
