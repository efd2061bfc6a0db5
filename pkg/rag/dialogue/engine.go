package dialogue

import (
	"context"
	"fmt"

	"trackbot-be/internal/pkg/logger"
	"trackbot-be/pkg/rag/pipeline"
	"trackbot-be/pkg/store"
)

const (
	DoneMessage = "No further clarification needed. All data processed successfully."

	clarifyFormat   = "I found some information but need clarification on %d items. I'll ask you one by one:"
	reclarifyFormat = "I found some new information but need clarification on %d items. I'll ask you one by one:"
)

// Analyzer is the pipeline as seen by the engine.
type Analyzer interface {
	Analyze(ctx context.Context, query string) pipeline.AnalysisResult
}

// Reply is what one user turn produced: the assistant messages in order
// and the session view after the turn.
type Reply struct {
	Messages []string        `json:"messages"`
	Snapshot Snapshot        `json:"snapshot"`
	Status   pipeline.Status `json:"status,omitempty"`
	// Reanalyzed is set when the turn drained the queue and the log was
	// analyzed again.
	Reanalyzed bool `json:"reanalyzed"`
}

// Engine drives the state machine: it routes user text to Submit or
// Answer and runs the re-analysis after the queue drains.
type Engine struct {
	analyzer Analyzer
	logger   logger.ILogger
}

func NewEngine(analyzer Analyzer, log logger.ILogger) *Engine {
	return &Engine{analyzer: analyzer, logger: log}
}

// Handle routes free text by state. Idle text is a new communication dump;
// Clarifying text answers the current question.
func (e *Engine) Handle(ctx context.Context, s store.Session, text string) (store.Session, Reply, error) {
	if s.State == store.StateClarifying {
		return e.Answer(ctx, s, text)
	}
	n, reply := e.Submit(ctx, s, text)
	return n, reply, nil
}

// Submit analyzes a communication dump and merges the result.
func (e *Engine) Submit(ctx context.Context, s store.Session, text string) (store.Session, Reply) {
	n := s.Clone()
	n.Log = append(n.Log, store.Turn{Role: store.RoleUser, Text: text})

	res := e.analyzer.Analyze(ctx, text)
	reply := Reply{Status: res.Status}

	n.Log = append(n.Log, store.Turn{Role: store.RoleAssistant, Text: res.RawAnswer})
	reply.Messages = append(reply.Messages, res.RawAnswer)

	wasClarifying := n.State == store.StateClarifying
	n = Ingest(n, res)

	if !wasClarifying && n.State == store.StateClarifying {
		msg := fmt.Sprintf(clarifyFormat, len(n.Questions))
		n.Log = append(n.Log, store.Turn{Role: store.RoleAssistant, Text: msg})
		reply.Messages = append(reply.Messages, msg)
	}

	e.logger.Info("DIALOGUE", "Dump analyzed", map[string]interface{}{
		"session_id": n.ID,
		"status":     string(res.Status),
		"fields":     len(n.Record),
		"questions":  len(n.Questions),
	})

	reply.Snapshot = TakeSnapshot(n)
	return n, reply
}

// Answer records a clarification answer. When it was the last queued
// question the whole log is analyzed again and merged, which may start a
// new clarification round.
func (e *Engine) Answer(ctx context.Context, s store.Session, text string) (store.Session, Reply, error) {
	n := s.Clone()
	n.Log = append(n.Log, store.Turn{Role: store.RoleUser, Text: text})

	n, out, err := Answer(n, text)
	if err != nil {
		return s, Reply{Snapshot: TakeSnapshot(s)}, err
	}

	n.Log = append(n.Log, store.Turn{Role: store.RoleAssistant, Text: out.Acknowledgement})
	reply := Reply{Messages: []string{out.Acknowledgement}}

	if !out.Drained {
		reply.Snapshot = TakeSnapshot(n)
		return n, reply, nil
	}

	res := e.analyzer.Analyze(ctx, Transcript(n.Log))
	reply.Status = res.Status
	reply.Reanalyzed = true

	n.Log = append(n.Log, store.Turn{Role: store.RoleAssistant, Text: res.RawAnswer})
	reply.Messages = append(reply.Messages, res.RawAnswer)

	n = Ingest(n, res)

	switch {
	case n.State == store.StateClarifying:
		msg := fmt.Sprintf(reclarifyFormat, len(n.Questions))
		n.Log = append(n.Log, store.Turn{Role: store.RoleAssistant, Text: msg})
		reply.Messages = append(reply.Messages, msg)
	case res.Status != pipeline.StatusGenerationFailed:
		n.Log = append(n.Log, store.Turn{Role: store.RoleAssistant, Text: DoneMessage})
		reply.Messages = append(reply.Messages, DoneMessage)
	}

	e.logger.Info("DIALOGUE", "Clarification round finished", map[string]interface{}{
		"session_id": n.ID,
		"status":     string(res.Status),
		"questions":  len(n.Questions),
		"complete":   n.ExtractionDone,
	})

	reply.Snapshot = TakeSnapshot(n)
	return n, reply, nil
}
