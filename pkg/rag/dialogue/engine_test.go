package dialogue

import (
	"context"
	"testing"

	"trackbot-be/internal/pkg/logger"
	"trackbot-be/pkg/rag/pipeline"
	"trackbot-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedAnalyzer returns its results in order and records the queries.
type scriptedAnalyzer struct {
	results []pipeline.AnalysisResult
	queries []string
}

func (a *scriptedAnalyzer) Analyze(_ context.Context, query string) pipeline.AnalysisResult {
	a.queries = append(a.queries, query)
	if len(a.results) == 0 {
		return result(nil, nil, nil)
	}
	r := a.results[0]
	a.results = a.results[1:]
	return r
}

func TestEngineEndToEndSkipThenDone(t *testing.T) {
	first := result(map[string]interface{}{"name": "Acme"}, []string{"budget"}, []string{"What is the budget?"})
	first.RawAnswer = "analysis #1"
	second := result(nil, nil, nil)
	second.RawAnswer = "analysis #2"

	analyzer := &scriptedAnalyzer{results: []pipeline.AnalysisResult{first, second}}
	e := NewEngine(analyzer, logger.NewNopLogger())
	ctx := context.Background()

	s, reply, err := e.Handle(ctx, store.NewSession("s", "u"), "Acme wants a new portal")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"analysis #1",
		"I found some information but need clarification on 1 items. I'll ask you one by one:",
	}, reply.Messages)
	assert.Equal(t, ModeClarifying, reply.Snapshot.Mode)
	assert.Equal(t, "What is the budget?", reply.Snapshot.CurrentQuestion)

	s, reply, err = e.Handle(ctx, s, "skip")
	require.NoError(t, err)
	assert.True(t, reply.Reanalyzed)
	assert.Equal(t, []string{
		"Noted. 'What is the budget?'= can not provide any more details Use any info you have or set it to null.",
		"analysis #2",
		DoneMessage,
	}, reply.Messages)

	assert.Equal(t, store.StateIdle, s.State)
	assert.Equal(t, store.Record{"name": "Acme"}, s.Record)
	assert.True(t, s.ExtractionDone)
	assert.True(t, reply.Snapshot.Complete)

	// the re-analysis saw the role-labelled log up to the acknowledgement
	require.Len(t, analyzer.queries, 2)
	assert.Equal(t, "Acme wants a new portal", analyzer.queries[0])
	assert.Equal(t,
		"User: Acme wants a new portal\n"+
			"Assistant: analysis #1\n"+
			"Assistant: I found some information but need clarification on 1 items. I'll ask you one by one:\n"+
			"User: skip\n"+
			"Assistant: Noted. 'What is the budget?'= can not provide any more details Use any info you have or set it to null.",
		analyzer.queries[1])

	// the assistant answer and done message are appended to the log
	last := s.Log[len(s.Log)-1]
	assert.Equal(t, store.Turn{Role: store.RoleAssistant, Text: DoneMessage}, last)
}

func TestEngineReanalysisCanReopenClarification(t *testing.T) {
	first := result(map[string]interface{}{"name": "Acme"}, nil, []string{"What is the budget?"})
	second := result(map[string]interface{}{"budget": "42k"}, []string{"deadline"}, []string{"What is the budget?", "When is the deadline?"})

	e := NewEngine(&scriptedAnalyzer{results: []pipeline.AnalysisResult{first, second}}, logger.NewNopLogger())
	ctx := context.Background()

	s, _, err := e.Handle(ctx, store.NewSession("s", "u"), "dump")
	require.NoError(t, err)
	s, reply, err := e.Handle(ctx, s, "42k")
	require.NoError(t, err)

	assert.Equal(t, store.StateClarifying, s.State)
	assert.Equal(t, []string{"When is the deadline?"}, s.Questions)
	assert.Equal(t, "I found some new information but need clarification on 1 items. I'll ask you one by one:", reply.Messages[len(reply.Messages)-1])
	assert.Equal(t, "Question 1 of 1", reply.Snapshot.Progress)
}

func TestEngineMidQueueAnswerDoesNotAnalyze(t *testing.T) {
	first := result(nil, nil, []string{"What is the budget?", "Who owns it?"})
	analyzer := &scriptedAnalyzer{results: []pipeline.AnalysisResult{first}}
	e := NewEngine(analyzer, logger.NewNopLogger())
	ctx := context.Background()

	s, _, _ := e.Handle(ctx, store.NewSession("s", "u"), "dump")
	s, reply, err := e.Handle(ctx, s, "10k")
	require.NoError(t, err)

	assert.Len(t, analyzer.queries, 1)
	assert.False(t, reply.Reanalyzed)
	assert.Equal(t, "Question 2 of 2", reply.Snapshot.Progress)
	assert.Equal(t, 1, s.Cursor)
}

func TestEngineGenerationFailureDuringReanalysis(t *testing.T) {
	first := result(map[string]interface{}{"name": "Acme"}, nil, []string{"What is the budget?"})
	failed := result(nil, nil, nil)
	failed.Status = pipeline.StatusGenerationFailed
	failed.RawAnswer = pipeline.GenerationFailedAnswer

	e := NewEngine(&scriptedAnalyzer{results: []pipeline.AnalysisResult{first, failed}}, logger.NewNopLogger())
	ctx := context.Background()

	s, _, _ := e.Handle(ctx, store.NewSession("s", "u"), "dump")
	s, reply, err := e.Handle(ctx, s, "no")
	require.NoError(t, err)

	assert.Equal(t, pipeline.StatusGenerationFailed, reply.Status)
	assert.NotContains(t, reply.Messages, DoneMessage)
	assert.Equal(t, store.StateIdle, s.State)
	assert.Equal(t, "Acme", s.Record["name"])
}
