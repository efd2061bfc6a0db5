// Package pipeline wires retrieval and analysis into the single entry point
// the dialogue layer calls. Every failure is folded into a usable
// AnalysisResult; nothing here returns an error to the caller.
package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"

	"trackbot-be/internal/pkg/logger"
	"trackbot-be/pkg/rag/analysis"
	"trackbot-be/pkg/rag/parser"
	"trackbot-be/pkg/rag/retrieval"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	GenerationFailedAnswer = "Sorry, I encountered an error while analyzing the communication dump."
	EmptyQueryAnswer       = "Sorry, I couldn't process your communication dump."
)

var (
	// ErrRetrieval marks a retriever failure. Analysis continues without context.
	ErrRetrieval = errors.New("pipeline: retrieval failed")
	// ErrGeneration marks a model failure.
	ErrGeneration = analysis.ErrGeneration
)

type Status string

const (
	StatusOK                Status = "ok"
	StatusRetrievalDegraded Status = "retrieval_degraded"
	StatusGenerationFailed  Status = "generation_failed"
	StatusMalformed         Status = "malformed"
	StatusEmptyQuery        Status = "empty_query"
)

// AnalysisResult is the transient outcome of one Analyze call. The
// collections are never nil.
type AnalysisResult struct {
	RawAnswer              string                 `json:"raw_answer"`
	ExtractedFields        map[string]interface{} `json:"extracted_fields"`
	MissingFields          []string               `json:"missing_fields"`
	ClarificationQuestions []string               `json:"clarification_questions"`
	Status                 Status                 `json:"status"`
	RetrievedChunks        int                    `json:"retrieved_chunks"`
	Err                    error                  `json:"-"`
}

func emptyResult(answer string, status Status) AnalysisResult {
	return AnalysisResult{
		RawAnswer:              answer,
		ExtractedFields:        map[string]interface{}{},
		MissingFields:          []string{},
		ClarificationQuestions: []string{},
		Status:                 status,
	}
}

type Orchestrator struct {
	retriever retrieval.Retriever
	analyzer  *analysis.Analyzer
	topK      int
	logger    logger.ILogger
	tracer    trace.Tracer

	malformed atomic.Int64
}

// NewOrchestrator builds the pipeline. A nil retriever means no knowledge
// base is configured; every result is then marked retrieval_degraded.
func NewOrchestrator(retriever retrieval.Retriever, analyzer *analysis.Analyzer, topK int, log logger.ILogger) *Orchestrator {
	if topK <= 0 {
		topK = retrieval.DefaultTopK
	}
	return &Orchestrator{
		retriever: retriever,
		analyzer:  analyzer,
		topK:      topK,
		logger:    log,
		tracer:    otel.Tracer("trackbot-be/pkg/rag/pipeline"),
	}
}

// WithTracerProvider replaces the global tracer provider.
func (o *Orchestrator) WithTracerProvider(tp trace.TracerProvider) *Orchestrator {
	o.tracer = tp.Tracer("trackbot-be/pkg/rag/pipeline")
	return o
}

// MalformedCount reports how many model answers failed to parse since start.
func (o *Orchestrator) MalformedCount() int64 {
	return o.malformed.Load()
}

func (o *Orchestrator) Analyze(ctx context.Context, query string) AnalysisResult {
	ctx, span := o.tracer.Start(ctx, "pipeline.analyze")
	defer span.End()

	if strings.TrimSpace(query) == "" {
		span.SetAttributes(attribute.String("pipeline.status", string(StatusEmptyQuery)))
		return emptyResult(EmptyQueryAnswer, StatusEmptyQuery)
	}

	contexts, retrievalErr := o.retrieve(ctx, query)

	out, err := o.generate(ctx, query, contexts)
	result := o.fold(out, err, retrievalErr)
	result.RetrievedChunks = len(contexts)

	span.SetAttributes(
		attribute.String("pipeline.status", string(result.Status)),
		attribute.Int("pipeline.fields", len(result.ExtractedFields)),
		attribute.Int("pipeline.questions", len(result.ClarificationQuestions)),
	)
	if result.Err != nil {
		span.RecordError(result.Err)
		if result.Status == StatusGenerationFailed {
			span.SetStatus(codes.Error, result.Err.Error())
		}
	}
	return result
}

func (o *Orchestrator) retrieve(ctx context.Context, query string) ([]string, error) {
	ctx, span := o.tracer.Start(ctx, "pipeline.retrieve")
	defer span.End()

	if o.retriever == nil {
		return nil, errors.Join(ErrRetrieval, errors.New("no knowledge base configured"))
	}

	chunks, err := o.retriever.Search(ctx, query, o.topK)
	if err != nil {
		span.RecordError(err)
		o.logger.Warn("PIPELINE", "Retrieval failed, continuing without context", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, errors.Join(ErrRetrieval, err)
	}

	span.SetAttributes(attribute.Int("retrieval.chunks", len(chunks)))
	return retrieval.Contents(chunks), nil
}

func (o *Orchestrator) generate(ctx context.Context, query string, contexts []string) (analysis.Output, error) {
	ctx, span := o.tracer.Start(ctx, "pipeline.generate")
	defer span.End()

	out, err := o.analyzer.Analyze(ctx, query, contexts)
	if err != nil {
		span.RecordError(err)
	}
	return out, err
}

// fold maps the stage outcomes onto a result. Generation and parse
// failures outrank a degraded retrieval.
func (o *Orchestrator) fold(out analysis.Output, err, retrievalErr error) AnalysisResult {
	switch {
	case errors.Is(err, ErrGeneration):
		o.logger.Error("PIPELINE", "Model call failed", map[string]interface{}{
			"error": err.Error(),
		})
		res := emptyResult(GenerationFailedAnswer, StatusGenerationFailed)
		res.Err = err
		return res

	case errors.Is(err, parser.ErrMalformedResponse):
		n := o.malformed.Add(1)
		o.logger.Warn("PIPELINE", "Malformed model response", map[string]interface{}{
			"error":           err.Error(),
			"malformed_total": n,
			"raw_chars":       len(out.Raw),
		})
		res := emptyResult(out.Raw, StatusMalformed)
		res.Err = err
		return res

	case err != nil:
		res := emptyResult(GenerationFailedAnswer, StatusGenerationFailed)
		res.Err = err
		return res
	}

	res := AnalysisResult{
		RawAnswer:              out.Raw,
		ExtractedFields:        out.Parsed.Fields,
		MissingFields:          nonNil(out.Parsed.MissingFields),
		ClarificationQuestions: nonNil(out.Parsed.Questions),
		Status:                 StatusOK,
	}
	if res.ExtractedFields == nil {
		res.ExtractedFields = map[string]interface{}{}
	}
	if retrievalErr != nil {
		res.Status = StatusRetrievalDegraded
		res.Err = retrievalErr
	}
	return res
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
