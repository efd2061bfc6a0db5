package dialogue

import (
	"fmt"

	"trackbot-be/pkg/store"
)

// Mode tells a client what kind of input the next turn expects.
type Mode string

const (
	// ModeFreeText accepts a new communication dump.
	ModeFreeText Mode = "free_text"
	// ModeClarifying expects an answer to CurrentQuestion.
	ModeClarifying Mode = "clarifying"
)

// Snapshot is the render-ready view of a session.
type Snapshot struct {
	State             string   `json:"state"`
	Mode              Mode     `json:"mode"`
	CurrentQuestion   string   `json:"current_question,omitempty"`
	Progress          string   `json:"progress,omitempty"`
	QuestionIndex     int      `json:"question_index"`
	QuestionTotal     int      `json:"question_total"`
	ExtractedCount    int      `json:"extracted_count"`
	MissingCount      int      `json:"missing_count"`
	CompletionPercent float64  `json:"completion_percent"`
	MissingFields     []string `json:"missing_fields"`
	Complete          bool     `json:"complete"`
}

// TakeSnapshot derives the render-ready view of a session.
func TakeSnapshot(s store.Session) Snapshot {
	snap := Snapshot{
		State:          s.State,
		Mode:           ModeFreeText,
		ExtractedCount: len(s.Record),
		MissingCount:   len(s.MissingFields),
		MissingFields:  append([]string{}, s.MissingFields...),
		Complete:       s.ExtractionDone,
	}
	if snap.State == "" {
		snap.State = store.StateIdle
	}

	total := snap.ExtractedCount + snap.MissingCount
	if total > 0 {
		snap.CompletionPercent = float64(snap.ExtractedCount) / float64(total) * 100
	}
	if s.ExtractionDone {
		snap.MissingCount = 0
		snap.MissingFields = []string{}
	}

	if q, ok := s.CurrentQuestion(); ok {
		snap.Mode = ModeClarifying
		snap.CurrentQuestion = q
		snap.QuestionIndex = s.Cursor + 1
		snap.QuestionTotal = len(s.Questions)
		snap.Progress = fmt.Sprintf("Question %d of %d", snap.QuestionIndex, snap.QuestionTotal)
	}
	return snap
}
