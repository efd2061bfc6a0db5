// Package persist reshapes an extraction record through the model and
// hands the result to a storage sink.
package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"trackbot-be/internal/pkg/logger"
	"trackbot-be/pkg/llm"
	"trackbot-be/pkg/rag/parser"
	"trackbot-be/pkg/rag/prompt"
	"trackbot-be/pkg/store"
)

const SavedMessage = "JSON generated and saved successfully!"

var ErrEmptyRecord = errors.New("nothing extracted yet, there is no data to save")

// Meta identifies where a record came from.
type Meta struct {
	SessionID string
	UserID    string
}

// Sink stores one reshaped record. Delivery is at most once; callers
// retry by saving again.
type Sink interface {
	Save(ctx context.Context, meta Meta, record map[string]interface{}) error
}

// PersistenceError is shown to the user as is. Stage names the step that
// failed: "reshape", "decode" or "save".
type PersistenceError struct {
	Stage string
	Err   error
}

func (e *PersistenceError) Error() string {
	return e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

type Exporter struct {
	llm         llm.LLMProvider
	instruction string
	sink        Sink
	logger      logger.ILogger
}

func NewExporter(provider llm.LLMProvider, instruction string, sink Sink, log logger.ILogger) *Exporter {
	return &Exporter{
		llm:         provider,
		instruction: instruction,
		sink:        sink,
		logger:      log,
	}
}

// Export reshapes the session record and saves it. The session itself is
// never modified. Every failure is a *PersistenceError.
func (x *Exporter) Export(ctx context.Context, s store.Session) (map[string]interface{}, error) {
	if len(s.Record) == 0 {
		return nil, &PersistenceError{Stage: "reshape", Err: ErrEmptyRecord}
	}

	recordJSON, err := json.Marshal(s.Record)
	if err != nil {
		return nil, &PersistenceError{Stage: "reshape", Err: fmt.Errorf("encode record: %w", err)}
	}

	raw, err := x.llm.Generate(ctx, prompt.BuildReshapePrompt(x.instruction, string(recordJSON)), llm.WithTemperature(0), llm.WithJSONOutput())
	if err != nil {
		x.logger.Error("PERSIST", "Reshape call failed", map[string]interface{}{
			"session_id": s.ID,
			"error":      err.Error(),
		})
		return nil, &PersistenceError{Stage: "reshape", Err: err}
	}

	var shaped map[string]interface{}
	if err := json.Unmarshal([]byte(parser.StripFences(raw)), &shaped); err != nil {
		x.logger.Warn("PERSIST", "Reshaped record is not a JSON object", map[string]interface{}{
			"session_id": s.ID,
			"error":      err.Error(),
		})
		return nil, &PersistenceError{Stage: "decode", Err: err}
	}
	if shaped == nil {
		return nil, &PersistenceError{Stage: "decode", Err: errors.New("reshaped record is null")}
	}

	if err := x.sink.Save(ctx, Meta{SessionID: s.ID, UserID: s.UserID}, shaped); err != nil {
		x.logger.Error("PERSIST", "Sink rejected record", map[string]interface{}{
			"session_id": s.ID,
			"error":      err.Error(),
		})
		return nil, &PersistenceError{Stage: "save", Err: err}
	}

	x.logger.Info("PERSIST", "Record saved", map[string]interface{}{
		"session_id": s.ID,
		"fields":     len(shaped),
	})
	return shaped, nil
}
