package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"trackbot-be/internal/dto"
	"trackbot-be/internal/pkg/logger"
	"trackbot-be/internal/pkg/serverutils"
	"trackbot-be/internal/repository/memory"
	"trackbot-be/pkg/events"
	"trackbot-be/pkg/rag/dialogue"
	"trackbot-be/pkg/rag/docgen"
	"trackbot-be/pkg/rag/persist"
	"trackbot-be/pkg/rag/pipeline"
	"trackbot-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExporter struct {
	err   error
	calls int
}

func (e *fakeExporter) Export(_ context.Context, s store.Session) (map[string]interface{}, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	return map[string]interface{}{"project": s.Record}, nil
}

type fakeGenerator struct {
	err error
}

func (g *fakeGenerator) Generate(_ context.Context, kind docgen.Kind, record store.Record) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	if len(record) == 0 {
		return "", docgen.ErrEmptyRecord
	}
	return "# " + kind.Title(), nil
}

type fakeArchive struct {
	objects map[string][]byte
	err     error
}

func (a *fakeArchive) Put(_ context.Context, sessionID, name string, content []byte) (string, error) {
	if a.err != nil {
		return "", a.err
	}
	key := sessionID + "/" + name
	a.objects[key] = content
	return key, nil
}

func (a *fakeArchive) Get(_ context.Context, key string) ([]byte, error) {
	return a.objects[key], nil
}

func (a *fakeArchive) URL(_ context.Context, key string) (string, error) {
	return "http://minio.local/" + key, nil
}

type trackbotFixture struct {
	svc       ITrackbotService
	analyzer  *scriptedAnalyzer
	exporter  *fakeExporter
	generator *fakeGenerator
	archive   *fakeArchive
	publisher *recordingPublisher
	db        *memDB
}

func newTrackbotFixture(results ...pipeline.AnalysisResult) *trackbotFixture {
	f := &trackbotFixture{
		analyzer:  &scriptedAnalyzer{results: results},
		exporter:  &fakeExporter{},
		generator: &fakeGenerator{},
		archive:   &fakeArchive{objects: map[string][]byte{}},
		publisher: &recordingPublisher{},
		db:        &memDB{},
	}
	log := logger.NewNopLogger()
	f.svc = NewTrackbotService(TrackbotDeps{
		Sessions:   memory.NewSessionRepository(time.Hour),
		Engine:     dialogue.NewEngine(f.analyzer, log),
		Exporter:   f.exporter,
		Documents:  f.generator,
		Archive:    f.archive,
		UowFactory: fakeFactory{db: f.db},
		Publisher:  f.publisher,
		Logger:     log,
	})
	return f
}

func appCode(t *testing.T, err error) int {
	t.Helper()
	var appErr *serverutils.AppError
	require.ErrorAs(t, err, &appErr)
	return appErr.Code
}

func TestTrackbotServiceConversation(t *testing.T) {
	f := newTrackbotFixture(
		analysisResult(map[string]interface{}{"name": "Acme"}, []string{"budget"}, []string{"What is the budget?"}),
		analysisResult(nil, nil, nil),
	)
	ctx := context.Background()

	created, err := f.svc.CreateSession(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, dialogue.ModeFreeText, created.Snapshot.Mode)

	res, err := f.svc.SendMessage(ctx, "u1", created.Id, &dto.SendMessageRequest{Text: "Acme wants a portal"})
	require.NoError(t, err)
	assert.Equal(t, dialogue.ModeClarifying, res.Snapshot.Mode)
	assert.Equal(t, "What is the budget?", res.Snapshot.CurrentQuestion)
	assert.Equal(t, "Question 1 of 1", res.Snapshot.Progress)
	assert.Empty(t, f.publisher.types())

	res, err = f.svc.SendMessage(ctx, "u1", created.Id, &dto.SendMessageRequest{Text: "skip"})
	require.NoError(t, err)
	assert.True(t, res.Reanalyzed)
	assert.True(t, res.Snapshot.Complete)
	assert.Equal(t, dialogue.DoneMessage, res.Messages[len(res.Messages)-1])
	assert.Equal(t, []string{events.TypeExtractionCompleted}, f.publisher.types())

	shown, err := f.svc.Show(ctx, "u1", created.Id)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"name": "Acme"}, shown.Record)
	assert.NotEmpty(t, shown.Log)
}

func TestTrackbotServiceHidesForeignSessions(t *testing.T) {
	f := newTrackbotFixture()
	ctx := context.Background()

	created, err := f.svc.CreateSession(ctx, "owner")
	require.NoError(t, err)

	_, err = f.svc.Show(ctx, "intruder", created.Id)
	assert.Equal(t, 404, appCode(t, err))

	_, err = f.svc.Show(ctx, "owner", "missing")
	assert.Equal(t, 404, appCode(t, err))
}

func TestTrackbotServiceReset(t *testing.T) {
	f := newTrackbotFixture(analysisResult(map[string]interface{}{"name": "Acme"}, nil, nil))
	ctx := context.Background()

	created, _ := f.svc.CreateSession(ctx, "u1")
	_, err := f.svc.SendMessage(ctx, "u1", created.Id, &dto.SendMessageRequest{Text: "dump"})
	require.NoError(t, err)

	res, err := f.svc.Reset(ctx, "u1", created.Id)
	require.NoError(t, err)
	assert.Empty(t, res.Record)
	assert.Empty(t, res.Log)
	assert.Equal(t, store.StateIdle, res.Snapshot.State)
	assert.False(t, res.Snapshot.Complete)
}

func TestTrackbotServiceSave(t *testing.T) {
	f := newTrackbotFixture(analysisResult(map[string]interface{}{"name": "Acme"}, nil, nil))
	ctx := context.Background()

	created, _ := f.svc.CreateSession(ctx, "u1")
	_, _ = f.svc.SendMessage(ctx, "u1", created.Id, &dto.SendMessageRequest{Text: "dump"})

	res, err := f.svc.Save(ctx, "u1", created.Id)
	require.NoError(t, err)
	assert.Equal(t, persist.SavedMessage, res.Message)

	f.exporter.err = &persist.PersistenceError{Stage: "decode", Err: errors.New("invalid character 'x'")}
	_, err = f.svc.Save(ctx, "u1", created.Id)
	assert.Equal(t, 422, appCode(t, err))
	assert.Equal(t, "invalid character 'x'", err.Error())

	// session is untouched by a failed save
	shown, err := f.svc.Show(ctx, "u1", created.Id)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"name": "Acme"}, shown.Record)
}

func TestTrackbotServiceGenerateDocument(t *testing.T) {
	f := newTrackbotFixture(analysisResult(map[string]interface{}{"name": "Acme"}, nil, nil))
	ctx := context.Background()

	created, _ := f.svc.CreateSession(ctx, "u1")

	_, err := f.svc.GenerateDocument(ctx, "u1", created.Id, "user-stories")
	assert.Equal(t, 422, appCode(t, err), "empty record")

	_, _ = f.svc.SendMessage(ctx, "u1", created.Id, &dto.SendMessageRequest{Text: "dump"})

	_, err = f.svc.GenerateDocument(ctx, "u1", created.Id, "poem")
	assert.Equal(t, 400, appCode(t, err))

	doc, err := f.svc.GenerateDocument(ctx, "u1", created.Id, "user-stories")
	require.NoError(t, err)
	assert.Equal(t, string(docgen.UserStories), doc.Kind)
	assert.Equal(t, "# User Stories", doc.Content)
	assert.NotEmpty(t, doc.ObjectKey)
	assert.Equal(t, "http://minio.local/"+doc.ObjectKey, doc.URL)
	assert.Contains(t, f.archive.objects, doc.ObjectKey)
	require.Len(t, f.db.documents, 1)
	assert.Equal(t, doc.ObjectKey, f.db.documents[0].ObjectKey)
	assert.Contains(t, f.publisher.types(), events.TypeDocumentGenerated)

	docs, err := f.svc.ListDocuments(ctx, "u1", created.Id)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	// documents never leak into the record
	shown, _ := f.svc.Show(ctx, "u1", created.Id)
	assert.Equal(t, map[string]interface{}{"name": "Acme"}, shown.Record)
}

func TestTrackbotServiceGenerateDocumentWithoutArchive(t *testing.T) {
	f := newTrackbotFixture(analysisResult(map[string]interface{}{"name": "Acme"}, nil, nil))
	f.archive.err = errors.New("bucket unavailable")
	ctx := context.Background()

	created, _ := f.svc.CreateSession(ctx, "u1")
	_, _ = f.svc.SendMessage(ctx, "u1", created.Id, &dto.SendMessageRequest{Text: "dump"})

	doc, err := f.svc.GenerateDocument(ctx, "u1", created.Id, "business_rules")
	require.NoError(t, err)
	assert.Empty(t, doc.ObjectKey)
	assert.Empty(t, doc.URL)

	f.generator.err = errors.New("model offline")
	_, err = f.svc.GenerateDocument(ctx, "u1", created.Id, "business_rules")
	assert.Equal(t, 502, appCode(t, err))
}

func TestTrackbotServiceSerializesSessionTurns(t *testing.T) {
	results := make([]pipeline.AnalysisResult, 0, 20)
	for i := 0; i < 20; i++ {
		results = append(results, analysisResult(map[string]interface{}{"name": "Acme"}, nil, nil))
	}
	f := newTrackbotFixture(results...)
	ctx := context.Background()
	created, _ := f.svc.CreateSession(ctx, "u1")

	// scriptedAnalyzer is not safe for concurrent use; the session lock
	// must keep the turns sequential
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.SendMessage(ctx, "u1", created.Id, &dto.SendMessageRequest{Text: "dump"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	shown, err := f.svc.Show(ctx, "u1", created.Id)
	require.NoError(t, err)
	assert.Len(t, shown.Log, 40)
}

func TestTrackbotServiceListRecords(t *testing.T) {
	f := newTrackbotFixture()
	ctx := context.Background()
	created, _ := f.svc.CreateSession(ctx, "u1")

	sink := NewRecordSink(fakeFactory{db: f.db}, f.publisher, logger.NewNopLogger())
	require.NoError(t, sink.Save(ctx, persist.Meta{SessionID: created.Id, UserID: "u1"}, map[string]interface{}{"a": 1}))

	records, err := f.svc.ListRecords(ctx, "u1", created.Id)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, created.Id, records[0].SessionId)
}
