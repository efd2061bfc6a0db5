package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"trackbot-be/internal/pkg/logger"
	"trackbot-be/pkg/llm"
	"trackbot-be/pkg/rag/analysis"
	"trackbot-be/pkg/rag/parser"
	"trackbot-be/pkg/rag/retrieval"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type fakeLLM struct {
	answer  string
	err     error
	calls   int
	prompts []string
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	return f.Generate(ctx, history[len(history)-1].Content, opts...)
}

func (f *fakeLLM) Generate(_ context.Context, prompt string, _ ...llm.Option) (string, error) {
	f.calls++
	f.prompts = append(f.prompts, prompt)
	return f.answer, f.err
}

type fakeRetriever struct {
	chunks []retrieval.Chunk
	err    error
	calls  int
	gotK   int
}

func (f *fakeRetriever) Search(_ context.Context, _ string, k int) ([]retrieval.Chunk, error) {
	f.calls++
	f.gotK = k
	return f.chunks, f.err
}

const wellFormed = "```json\n{\"name\": \"Acme\"}\n```\n" +
	"MISSING DATA:\n- budget\n" +
	"QUESTIONS FOR CLARIFICATION:\n- What is the budget?\n"

func newOrchestrator(r retrieval.Retriever, model *fakeLLM) *Orchestrator {
	nop := logger.NewNopLogger()
	return NewOrchestrator(r, analysis.NewAnalyzer(model, "INSTR", nop), 3, nop)
}

func TestAnalyzeHappyPath(t *testing.T) {
	r := &fakeRetriever{chunks: []retrieval.Chunk{{Content: "Budget is mandatory."}}}
	model := &fakeLLM{answer: wellFormed}
	o := newOrchestrator(r, model)

	res := o.Analyze(context.Background(), "Acme wants a portal")

	assert.Equal(t, StatusOK, res.Status)
	assert.NoError(t, res.Err)
	assert.Equal(t, map[string]interface{}{"name": "Acme"}, res.ExtractedFields)
	assert.Equal(t, []string{"budget"}, res.MissingFields)
	assert.Equal(t, []string{"What is the budget?"}, res.ClarificationQuestions)
	assert.Equal(t, wellFormed, res.RawAnswer)
	assert.Equal(t, 1, res.RetrievedChunks)
	assert.Equal(t, 3, r.gotK)

	require.Len(t, model.prompts, 1)
	assert.Contains(t, model.prompts[0], "Knowledge Base  (use this to understand what data is needed):\nBudget is mandatory.")
	assert.True(t, strings.HasSuffix(model.prompts[0], "Communication Dump to Analyze:\nAcme wants a portal"))
}

func TestAnalyzeDegradesOnRetrievalFailure(t *testing.T) {
	r := &fakeRetriever{err: errors.New("index offline")}
	model := &fakeLLM{answer: wellFormed}
	o := newOrchestrator(r, model)

	res := o.Analyze(context.Background(), "Acme wants a portal")

	assert.Equal(t, StatusRetrievalDegraded, res.Status)
	assert.ErrorIs(t, res.Err, ErrRetrieval)
	assert.Equal(t, []string{"budget"}, res.MissingFields)
	assert.NotContains(t, model.prompts[0], "Knowledge Base")
}

func TestAnalyzeWithoutRetriever(t *testing.T) {
	model := &fakeLLM{answer: wellFormed}
	o := newOrchestrator(nil, model)

	res := o.Analyze(context.Background(), "text")
	assert.Equal(t, StatusRetrievalDegraded, res.Status)
	assert.Equal(t, 1, model.calls)
}

func TestAnalyzeGenerationFailure(t *testing.T) {
	model := &fakeLLM{err: errors.New("503")}
	o := newOrchestrator(&fakeRetriever{}, model)

	res := o.Analyze(context.Background(), "text")

	assert.Equal(t, StatusGenerationFailed, res.Status)
	assert.Equal(t, GenerationFailedAnswer, res.RawAnswer)
	assert.ErrorIs(t, res.Err, ErrGeneration)
	assert.Empty(t, res.ExtractedFields)
	assert.NotNil(t, res.MissingFields)
	assert.NotNil(t, res.ClarificationQuestions)
}

func TestAnalyzeMalformedIsCounted(t *testing.T) {
	model := &fakeLLM{answer: "I could not find anything useful.\nQUESTIONS FOR CLARIFICATION:\n- Who?"}
	o := newOrchestrator(&fakeRetriever{}, model)

	first := o.Analyze(context.Background(), "text")
	o.Analyze(context.Background(), "text")

	assert.Equal(t, StatusMalformed, first.Status)
	assert.ErrorIs(t, first.Err, parser.ErrMalformedResponse)
	assert.Equal(t, model.answer, first.RawAnswer)
	assert.Empty(t, first.ExtractedFields)
	// malformed answers never feed questions into the dialogue
	assert.Empty(t, first.ClarificationQuestions)
	assert.Equal(t, int64(2), o.MalformedCount())
}

func TestAnalyzeEmptyQueryShortCircuits(t *testing.T) {
	r := &fakeRetriever{}
	model := &fakeLLM{answer: wellFormed}
	o := newOrchestrator(r, model)

	res := o.Analyze(context.Background(), "   ")

	assert.Equal(t, StatusEmptyQuery, res.Status)
	assert.Equal(t, EmptyQueryAnswer, res.RawAnswer)
	assert.Zero(t, r.calls)
	assert.Zero(t, model.calls)
}

func TestAnalyzeEmitsSpans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	o := newOrchestrator(&fakeRetriever{}, &fakeLLM{answer: wellFormed}).WithTracerProvider(tp)
	o.Analyze(context.Background(), "text")

	var names []string
	for _, s := range sr.Ended() {
		names = append(names, s.Name())
	}
	assert.ElementsMatch(t, []string{"pipeline.retrieve", "pipeline.generate", "pipeline.analyze"}, names)
}
