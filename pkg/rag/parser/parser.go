// Package parser turns one model response into typed extraction results.
//
// The expected response carries a fenced JSON block with the extracted
// fields, optionally followed by MISSING DATA: and QUESTIONS FOR
// CLARIFICATION: sections. Only the JSON block is mandatory.
package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedResponse is returned when the mandatory JSON block is absent
// or cannot be decoded.
var ErrMalformedResponse = errors.New("malformed response")

// Parsed holds the three independent extractions of one response.
type Parsed struct {
	Fields        map[string]interface{}
	MissingFields []string
	Questions     []string
}

// Parse runs all three extractions. When the JSON block is malformed the
// returned error wraps ErrMalformedResponse and Fields is nil, but the
// missing-field and question lists are still populated.
func Parse(raw string) (Parsed, error) {
	fields, err := ExtractFields(raw)
	return Parsed{
		Fields:        fields,
		MissingFields: ExtractMissingFields(raw),
		Questions:     ExtractQuestions(raw),
	}, err
}

// ExtractFields decodes the first ```json fenced block into a map.
func ExtractFields(raw string) (map[string]interface{}, error) {
	open := locateFold(raw, TokenFenceOpen, 0)
	if !open.found() {
		return nil, fmt.Errorf("%w: no %s fence", ErrMalformedResponse, TokenFenceOpen)
	}

	body := raw[open.end:]
	if closing := locate(raw, TokenFenceClose, open.end); closing.found() {
		body = raw[open.end:closing.start]
	}

	var fields map[string]interface{}
	if err := json.Unmarshal([]byte(strings.TrimSpace(body)), &fields); err != nil {
		return nil, fmt.Errorf("%w: decode json block: %v", ErrMalformedResponse, err)
	}
	if fields == nil {
		// "null" decodes without error
		fields = map[string]interface{}{}
	}
	return fields, nil
}

// ExtractMissingFields returns one label per line of the MISSING DATA section.
func ExtractMissingFields(raw string) []string {
	header := locate(raw, HeaderMissing, 0)
	if !header.found() {
		return []string{}
	}

	body := raw[header.end:]
	if next := earliest(raw, header.end, sectionTerminators...); next.found() {
		body = raw[header.end:next.start]
	}

	labels := sectionLines(body)
	if labels == nil {
		return []string{}
	}
	return labels
}

// ExtractQuestions returns every line after QUESTIONS FOR CLARIFICATION: that
// contains a question mark.
func ExtractQuestions(raw string) []string {
	header := locate(raw, HeaderQuestions, 0)
	if !header.found() {
		return []string{}
	}

	questions := []string{}
	for _, line := range sectionLines(raw[header.end:]) {
		if strings.Contains(line, "?") {
			questions = append(questions, line)
		}
	}
	return questions
}

// StripFences removes every ```json and ``` marker, leaving the raw payload.
// Used for responses that are expected to be pure JSON.
func StripFences(raw string) string {
	out := raw
	for {
		sp := locateFold(out, TokenFenceOpen, 0)
		if !sp.found() {
			break
		}
		out = out[:sp.start] + out[sp.end:]
	}
	return strings.TrimSpace(strings.ReplaceAll(out, TokenFenceClose, ""))
}
