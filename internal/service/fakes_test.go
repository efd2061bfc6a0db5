package service

import (
	"context"
	"errors"
	"sync"

	"trackbot-be/internal/entity"
	"trackbot-be/internal/repository/contract"
	"trackbot-be/internal/repository/specification"
	"trackbot-be/internal/repository/unitofwork"
	"trackbot-be/pkg/embedding"
	"trackbot-be/pkg/events"
	"trackbot-be/pkg/rag/persist"
	"trackbot-be/pkg/rag/pipeline"
)

// memDB backs every fake repository; one instance per test.
type memDB struct {
	mu        sync.Mutex
	chunks    []*entity.KnowledgeChunk
	records   []*entity.TrackRecord
	documents []*entity.GeneratedDocument
	failWrite error
	commits   int
}

type fakeFactory struct{ db *memDB }

func (f fakeFactory) NewUnitOfWork(context.Context) unitofwork.UnitOfWork {
	return &fakeUow{db: f.db}
}

type fakeUow struct {
	db      *memDB
	pending []*entity.KnowledgeChunk
	deleted string
	inTx    bool
}

func (u *fakeUow) Begin(context.Context) error { u.inTx = true; return nil }

func (u *fakeUow) Commit() error {
	if !u.inTx {
		return errors.New("no transaction to commit")
	}
	u.db.mu.Lock()
	defer u.db.mu.Unlock()
	if u.deleted != "" {
		kept := u.db.chunks[:0]
		for _, c := range u.db.chunks {
			if c.Source != u.deleted {
				kept = append(kept, c)
			}
		}
		u.db.chunks = kept
	}
	u.db.chunks = append(u.db.chunks, u.pending...)
	u.db.commits++
	u.inTx = false
	return nil
}

func (u *fakeUow) Rollback() error {
	if !u.inTx {
		return errors.New("no transaction to rollback")
	}
	u.pending, u.deleted, u.inTx = nil, "", false
	return nil
}

func (u *fakeUow) KnowledgeChunkRepository() contract.KnowledgeChunkRepository {
	return &fakeChunkRepo{uow: u}
}

func (u *fakeUow) TrackRecordRepository() contract.TrackRecordRepository {
	return &fakeRecordRepo{db: u.db}
}

func (u *fakeUow) GeneratedDocumentRepository() contract.GeneratedDocumentRepository {
	return &fakeDocumentRepo{db: u.db}
}

type fakeChunkRepo struct{ uow *fakeUow }

func (r *fakeChunkRepo) CreateBulk(_ context.Context, chunks []*entity.KnowledgeChunk) error {
	if r.uow.db.failWrite != nil {
		return r.uow.db.failWrite
	}
	r.uow.pending = append(r.uow.pending, chunks...)
	return nil
}

func (r *fakeChunkRepo) DeleteBySource(_ context.Context, source string) error {
	if r.uow.inTx {
		r.uow.deleted = source
		return nil
	}
	r.uow.db.mu.Lock()
	defer r.uow.db.mu.Unlock()
	kept := r.uow.db.chunks[:0]
	for _, c := range r.uow.db.chunks {
		if c.Source != source {
			kept = append(kept, c)
		}
	}
	r.uow.db.chunks = kept
	return nil
}

func (r *fakeChunkRepo) FindAll(context.Context, ...specification.Specification) ([]*entity.KnowledgeChunk, error) {
	r.uow.db.mu.Lock()
	defer r.uow.db.mu.Unlock()
	return append([]*entity.KnowledgeChunk(nil), r.uow.db.chunks...), nil
}

func (r *fakeChunkRepo) Count(context.Context, ...specification.Specification) (int64, error) {
	r.uow.db.mu.Lock()
	defer r.uow.db.mu.Unlock()
	return int64(len(r.uow.db.chunks)), nil
}

func (r *fakeChunkRepo) SearchSimilarWithScore(context.Context, []float32, int, float64) ([]*contract.ScoredKnowledgeChunk, error) {
	return nil, nil
}

type fakeRecordRepo struct{ db *memDB }

func (r *fakeRecordRepo) Create(_ context.Context, rec *entity.TrackRecord) error {
	if r.db.failWrite != nil {
		return r.db.failWrite
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.records = append(r.db.records, rec)
	return nil
}

func (r *fakeRecordRepo) FindAll(context.Context, ...specification.Specification) ([]*entity.TrackRecord, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return append([]*entity.TrackRecord(nil), r.db.records...), nil
}

func (r *fakeRecordRepo) Count(context.Context, ...specification.Specification) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return int64(len(r.db.records)), nil
}

type fakeDocumentRepo struct{ db *memDB }

func (r *fakeDocumentRepo) Create(_ context.Context, doc *entity.GeneratedDocument) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.documents = append(r.db.documents, doc)
	return nil
}

func (r *fakeDocumentRepo) FindAll(context.Context, ...specification.Specification) ([]*entity.GeneratedDocument, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return append([]*entity.GeneratedDocument(nil), r.db.documents...), nil
}

type fakeEmbedder struct {
	err   error
	calls int
}

func (e *fakeEmbedder) Generate(_ context.Context, text string, _ string) (*embedding.EmbeddingResponse, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	return &embedding.EmbeddingResponse{Embedding: embedding.EmbeddingResponseEmbedding{Values: []float32{float32(len(text))}}}, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}

// scriptedAnalyzer feeds the dialogue engine canned pipeline results.
type scriptedAnalyzer struct {
	results []pipeline.AnalysisResult
}

func (a *scriptedAnalyzer) Analyze(context.Context, string) pipeline.AnalysisResult {
	if len(a.results) == 0 {
		return analysisResult(nil, nil, nil)
	}
	r := a.results[0]
	a.results = a.results[1:]
	return r
}

func analysisResult(fields map[string]interface{}, missing, questions []string) pipeline.AnalysisResult {
	if fields == nil {
		fields = map[string]interface{}{}
	}
	return pipeline.AnalysisResult{
		RawAnswer:              "analysis",
		ExtractedFields:        fields,
		MissingFields:          append([]string{}, missing...),
		ClarificationQuestions: append([]string{}, questions...),
		Status:                 pipeline.StatusOK,
	}
}

func metaFor(sessionID, userID string) persist.Meta {
	return persist.Meta{SessionID: sessionID, UserID: userID}
}
