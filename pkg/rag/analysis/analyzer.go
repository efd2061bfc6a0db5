// Package analysis runs the extraction prompt against the language model
// and parses the answer.
package analysis

import (
	"context"
	"errors"
	"fmt"

	"trackbot-be/internal/pkg/logger"
	"trackbot-be/pkg/llm"
	"trackbot-be/pkg/rag/parser"
	"trackbot-be/pkg/rag/prompt"
)

// ErrGeneration wraps any failure of the model call itself.
var ErrGeneration = errors.New("analysis: generation failed")

// Output is the raw model answer and what the parser got out of it.
type Output struct {
	Prompt string
	Raw    string
	Parsed parser.Parsed
}

type Analyzer struct {
	llm         llm.LLMProvider
	instruction string
	logger      logger.ILogger
}

func NewAnalyzer(provider llm.LLMProvider, instruction string, log logger.ILogger) *Analyzer {
	return &Analyzer{
		llm:         provider,
		instruction: instruction,
		logger:      log,
	}
}

// Analyze makes exactly one model call. On a generation failure the error
// wraps ErrGeneration. On a parse failure the error wraps
// parser.ErrMalformedResponse and Output.Raw is still set.
func (a *Analyzer) Analyze(ctx context.Context, query string, contexts []string) (Output, error) {
	p := prompt.NewAnalysisBuilder(a.instruction).
		WithContext(contexts).
		WithQuery(query).
		Build()

	a.logger.Debug("ANALYSIS", "Prompt built", map[string]interface{}{
		"context_chunks": len(contexts),
		"prompt_chars":   len(p),
	})

	raw, err := a.llm.Generate(ctx, p, llm.WithTemperature(0))
	if err != nil {
		return Output{Prompt: p}, fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	out := Output{Prompt: p, Raw: raw}
	parsed, err := parser.Parse(raw)
	out.Parsed = parsed
	if err != nil {
		return out, err
	}

	a.logger.Debug("ANALYSIS", "Response parsed", map[string]interface{}{
		"fields":    len(parsed.Fields),
		"missing":   len(parsed.MissingFields),
		"questions": len(parsed.Questions),
	})
	return out, nil
}
