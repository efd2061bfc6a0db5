// Package dialogue holds the clarification state machine and the engine
// that drives it.
//
// Sessions are values. Ingest, Answer and Reset never mutate their input;
// they return the next session. The machine has two states, Idle (accepting
// free text) and Clarifying (walking the question queue with a cursor).
package dialogue

import (
	"errors"
	"fmt"
	"strings"

	"trackbot-be/pkg/rag/pipeline"
	"trackbot-be/pkg/store"
)

// ErrNotClarifying is returned by Answer when no question is pending.
var ErrNotClarifying = errors.New("dialogue: no clarification question pending")

// Outcome describes what an Answer transition produced.
type Outcome struct {
	Question        string
	Acknowledgement string
	Null            bool
	// NextQuestion is empty once the queue drains.
	NextQuestion string
	// Drained asks the driver to re-analyze the whole conversation log.
	Drained bool
}

// Ingest merges one analysis result into the session. It is total: in
// Clarifying it merges and keeps the cursor; in Idle a non-empty queue
// starts clarification at the first question.
func Ingest(s store.Session, res pipeline.AnalysisResult) store.Session {
	n := s.Clone()
	if n.Record == nil {
		n.Record = store.Record{}
	}

	mergeFields(&n, res.ExtractedFields)
	mergeMissing(&n, res.MissingFields)
	pruneStale(&n)
	mergeQuestions(&n, res.ClarificationQuestions)

	if n.State != store.StateClarifying && len(n.Questions) > 0 {
		n.State = store.StateClarifying
		n.Cursor = 0
	}
	// an empty record is never complete, e.g. after a failed first analysis
	n.ExtractionDone = len(n.Questions) == 0 && len(n.MissingFields) == 0 && len(n.Record) > 0
	return n
}

// Answer records the reply to the current question and advances the
// cursor. Answers are kept literally in Session.Answers and never merged
// into the record; they reach it through re-analysis of the log.
func Answer(s store.Session, text string) (store.Session, Outcome, error) {
	q, ok := s.CurrentQuestion()
	if !ok {
		return s, Outcome{}, ErrNotClarifying
	}

	n := s.Clone()
	out := Outcome{Question: q}

	if IsNullResponse(text) {
		out.Null = true
		out.Acknowledgement = fmt.Sprintf("Noted. '%s'= can not provide any more details Use any info you have or set it to null.", q)
		n.Answers = append(n.Answers, store.Answer{Question: q})
	} else {
		value := strings.TrimSpace(text)
		out.Acknowledgement = fmt.Sprintf("Thank you! I've recorded: %s = %s", q, value)
		n.Answers = append(n.Answers, store.Answer{Question: q, Value: &value})
	}

	n.Cursor++
	if n.Cursor < len(n.Questions) {
		out.NextQuestion = n.Questions[n.Cursor]
		return n, out, nil
	}

	n.Questions = nil
	n.MissingFields = nil
	n.Cursor = 0
	n.State = store.StateIdle
	out.Drained = true
	return n, out, nil
}

// Reset clears everything but the session identity.
func Reset(s store.Session) store.Session {
	return store.NewSession(s.ID, s.UserID)
}

// Transcript renders the log the way it is re-submitted for analysis:
// one "Role: text" line per turn.
func Transcript(log []store.Turn) string {
	lines := make([]string, len(log))
	for i, t := range log {
		role := t.Role
		if role != "" {
			role = strings.ToUpper(role[:1]) + role[1:]
		}
		lines[i] = role + ": " + t.Text
	}
	return strings.Join(lines, "\n")
}
