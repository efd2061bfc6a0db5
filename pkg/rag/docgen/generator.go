// Package docgen turns a finished extraction record into project documents.
// Generated text is returned to the caller and never merged into the record.
package docgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"trackbot-be/internal/pkg/logger"
	"trackbot-be/pkg/llm"
	"trackbot-be/pkg/rag/prompt"
	"trackbot-be/pkg/store"
)

type Kind string

const (
	UserStories            Kind = prompt.UserStories
	BusinessRules          Kind = prompt.BusinessRules
	FunctionalRequirements Kind = prompt.FunctionalRequirements
	InceptionBrief         Kind = prompt.InceptionBrief
)

// Kinds lists every document kind in display order.
var Kinds = []Kind{UserStories, BusinessRules, FunctionalRequirements, InceptionBrief}

var (
	ErrUnknownKind = errors.New("docgen: unknown document kind")
	ErrEmptyRecord = errors.New("docgen: record is empty")
)

// ParseKind accepts the kind names used in URLs, case-insensitively and
// with '-' or '_' as separator.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Title is the human readable label of a kind.
func (k Kind) Title() string {
	switch k {
	case UserStories:
		return "User Stories"
	case BusinessRules:
		return "Business Rules"
	case FunctionalRequirements:
		return "Functional Requirements"
	case InceptionBrief:
		return "Project Inception Brief"
	}
	return string(k)
}

type Generator struct {
	llm       llm.LLMProvider
	templates *prompt.Registry
	logger    logger.ILogger
}

func NewGenerator(provider llm.LLMProvider, templates *prompt.Registry, log logger.ILogger) *Generator {
	return &Generator{
		llm:       provider,
		templates: templates,
		logger:    log,
	}
}

// Generate makes one model call per document. It is stateless.
func (g *Generator) Generate(ctx context.Context, kind Kind, record store.Record) (string, error) {
	instruction := g.templates.Get(string(kind))
	if instruction == "" {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	if len(record) == 0 {
		return "", ErrEmptyRecord
	}

	recordJSON, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "", fmt.Errorf("docgen: encode record: %w", err)
	}

	text, err := g.llm.Generate(ctx, prompt.BuildRecordPrompt(instruction, string(recordJSON)), llm.WithTemperature(0))
	if err != nil {
		g.logger.Error("DOCGEN", "Document generation failed", map[string]interface{}{
			"kind":  string(kind),
			"error": err.Error(),
		})
		return "", fmt.Errorf("docgen: generate %s: %w", kind, err)
	}

	g.logger.Info("DOCGEN", "Document generated", map[string]interface{}{
		"kind":  string(kind),
		"chars": len(text),
	})
	return text, nil
}
