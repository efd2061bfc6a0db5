package service

import (
	"context"
	"errors"
	"time"

	"trackbot-be/internal/dto"
	"trackbot-be/internal/entity"
	"trackbot-be/internal/pkg/logger"
	"trackbot-be/internal/pkg/serverutils"
	"trackbot-be/internal/repository/contract"
	"trackbot-be/internal/repository/specification"
	"trackbot-be/internal/repository/unitofwork"
	"trackbot-be/internal/storage"
	"trackbot-be/pkg/events"
	"trackbot-be/pkg/rag/dialogue"
	"trackbot-be/pkg/rag/docgen"
	"trackbot-be/pkg/rag/persist"
	"trackbot-be/pkg/store"

	"github.com/google/uuid"
)

type ITrackbotService interface {
	CreateSession(ctx context.Context, userId string) (*dto.CreateTrackSessionResponse, error)
	Show(ctx context.Context, userId string, sessionId string) (*dto.ShowTrackSessionResponse, error)
	SendMessage(ctx context.Context, userId string, sessionId string, req *dto.SendMessageRequest) (*dto.SendMessageResponse, error)
	Reset(ctx context.Context, userId string, sessionId string) (*dto.ShowTrackSessionResponse, error)
	Save(ctx context.Context, userId string, sessionId string) (*dto.SaveRecordResponse, error)
	GenerateDocument(ctx context.Context, userId string, sessionId string, kind string) (*dto.GeneratedDocumentResponse, error)
	ListDocuments(ctx context.Context, userId string, sessionId string) ([]*dto.GeneratedDocumentResponse, error)
	ListRecords(ctx context.Context, userId string, sessionId string) ([]*dto.TrackRecordResponse, error)
}

// DialogueEngine routes one user turn through the state machine.
type DialogueEngine interface {
	Handle(ctx context.Context, s store.Session, text string) (store.Session, dialogue.Reply, error)
}

type RecordExporter interface {
	Export(ctx context.Context, s store.Session) (map[string]interface{}, error)
}

type DocumentGenerator interface {
	Generate(ctx context.Context, kind docgen.Kind, record store.Record) (string, error)
}

// TrackbotDeps groups the collaborators of the trackbot service. Archive
// and UowFactory are optional.
type TrackbotDeps struct {
	Sessions   contract.SessionRepository
	Engine     DialogueEngine
	Exporter   RecordExporter
	Documents  DocumentGenerator
	Archive    storage.DocumentArchive
	UowFactory unitofwork.RepositoryFactory
	Publisher  events.Publisher
	Logger     logger.ILogger
}

type trackbotService struct {
	sessions   contract.SessionRepository
	engine     DialogueEngine
	exporter   RecordExporter
	documents  DocumentGenerator
	archive    storage.DocumentArchive
	uowFactory unitofwork.RepositoryFactory
	publisher  events.Publisher
	logger     logger.ILogger
	locks      *sessionLocks
}

func NewTrackbotService(deps TrackbotDeps) ITrackbotService {
	publisher := deps.Publisher
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &trackbotService{
		sessions:   deps.Sessions,
		engine:     deps.Engine,
		exporter:   deps.Exporter,
		documents:  deps.Documents,
		archive:    deps.Archive,
		uowFactory: deps.UowFactory,
		publisher:  publisher,
		logger:     deps.Logger,
		locks:      newSessionLocks(),
	}
}

func (s *trackbotService) CreateSession(ctx context.Context, userId string) (*dto.CreateTrackSessionResponse, error) {
	session := store.NewSession(uuid.New().String(), userId)
	session.UpdatedAt = time.Now()
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	s.logger.Info("SESSION", "Session created", map[string]interface{}{
		"session_id": session.ID,
		"user_id":    userId,
	})
	return &dto.CreateTrackSessionResponse{
		Id:       session.ID,
		Snapshot: dialogue.TakeSnapshot(session),
	}, nil
}

func (s *trackbotService) Show(ctx context.Context, userId string, sessionId string) (*dto.ShowTrackSessionResponse, error) {
	session, err := s.load(ctx, userId, sessionId)
	if err != nil {
		return nil, err
	}
	return toShowResponse(session), nil
}

func (s *trackbotService) SendMessage(ctx context.Context, userId string, sessionId string, req *dto.SendMessageRequest) (*dto.SendMessageResponse, error) {
	unlock := s.locks.Lock(sessionId)
	defer unlock()

	session, err := s.load(ctx, userId, sessionId)
	if err != nil {
		return nil, err
	}

	next, reply, err := s.engine.Handle(ctx, session, req.Text)
	if err != nil {
		if errors.Is(err, dialogue.ErrNotClarifying) {
			return nil, serverutils.NewConflictError(err.Error())
		}
		return nil, err
	}

	next.UpdatedAt = time.Now()
	if err := s.sessions.Save(ctx, next); err != nil {
		return nil, err
	}

	if !session.ExtractionDone && next.ExtractionDone {
		evt := events.ExtractionCompleted(next.ID, next.UserID, len(next.Record))
		if err := s.publisher.Publish(ctx, evt); err != nil {
			s.logger.Warn("SESSION", "Failed to publish completion event", map[string]interface{}{
				"session_id": next.ID,
				"error":      err.Error(),
			})
		}
	}

	return &dto.SendMessageResponse{
		SessionId:  next.ID,
		Messages:   reply.Messages,
		Status:     string(reply.Status),
		Reanalyzed: reply.Reanalyzed,
		Snapshot:   reply.Snapshot,
	}, nil
}

func (s *trackbotService) Reset(ctx context.Context, userId string, sessionId string) (*dto.ShowTrackSessionResponse, error) {
	unlock := s.locks.Lock(sessionId)
	defer unlock()

	session, err := s.load(ctx, userId, sessionId)
	if err != nil {
		return nil, err
	}

	fresh := dialogue.Reset(session)
	fresh.UpdatedAt = time.Now()
	if err := s.sessions.Save(ctx, fresh); err != nil {
		return nil, err
	}

	s.logger.Info("SESSION", "Session data cleared", map[string]interface{}{"session_id": sessionId})
	return toShowResponse(fresh), nil
}

// Save reshapes and persists the record. The session is left untouched,
// whatever the outcome.
func (s *trackbotService) Save(ctx context.Context, userId string, sessionId string) (*dto.SaveRecordResponse, error) {
	unlock := s.locks.Lock(sessionId)
	defer unlock()

	session, err := s.load(ctx, userId, sessionId)
	if err != nil {
		return nil, err
	}

	shaped, err := s.exporter.Export(ctx, session)
	if err != nil {
		var perr *persist.PersistenceError
		if errors.As(err, &perr) {
			return nil, serverutils.NewUnprocessableError(perr.Error(), perr)
		}
		return nil, err
	}

	return &dto.SaveRecordResponse{
		Message: persist.SavedMessage,
		Record:  shaped,
	}, nil
}

func (s *trackbotService) GenerateDocument(ctx context.Context, userId string, sessionId string, kind string) (*dto.GeneratedDocumentResponse, error) {
	k, err := docgen.ParseKind(kind)
	if err != nil {
		return nil, serverutils.NewBadRequestError(err.Error())
	}

	unlock := s.locks.Lock(sessionId)
	defer unlock()

	session, err := s.load(ctx, userId, sessionId)
	if err != nil {
		return nil, err
	}

	content, err := s.documents.Generate(ctx, k, session.Record)
	if err != nil {
		if errors.Is(err, docgen.ErrEmptyRecord) {
			return nil, serverutils.NewUnprocessableError(err.Error(), err)
		}
		return nil, serverutils.NewBadGatewayError("Failed to generate "+k.Title()+": "+err.Error(), err)
	}

	doc := store.Document{
		Kind:      string(k),
		Content:   content,
		CreatedAt: time.Now(),
	}
	doc.ObjectKey = s.archiveDocument(ctx, session.ID, doc)

	next := session.Clone()
	next.Documents = append(next.Documents, doc)
	next.UpdatedAt = time.Now()
	if err := s.sessions.Save(ctx, next); err != nil {
		return nil, err
	}

	s.recordDocument(ctx, session.ID, doc)

	if err := s.publisher.Publish(ctx, events.DocumentGenerated(session.ID, doc.Kind, doc.ObjectKey)); err != nil {
		s.logger.Warn("DOCGEN", "Failed to publish document event", map[string]interface{}{
			"session_id": session.ID,
			"error":      err.Error(),
		})
	}

	return s.toDocumentResponse(ctx, doc), nil
}

func (s *trackbotService) ListDocuments(ctx context.Context, userId string, sessionId string) ([]*dto.GeneratedDocumentResponse, error) {
	session, err := s.load(ctx, userId, sessionId)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.GeneratedDocumentResponse, 0, len(session.Documents))
	for _, doc := range session.Documents {
		res = append(res, s.toDocumentResponse(ctx, doc))
	}
	return res, nil
}

func (s *trackbotService) ListRecords(ctx context.Context, userId string, sessionId string) ([]*dto.TrackRecordResponse, error) {
	if _, err := s.load(ctx, userId, sessionId); err != nil {
		return nil, err
	}
	if s.uowFactory == nil {
		return []*dto.TrackRecordResponse{}, nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	records, err := uow.TrackRecordRepository().FindAll(ctx,
		specification.BySessionID{SessionID: sessionId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.TrackRecordResponse, 0, len(records))
	for _, r := range records {
		res = append(res, &dto.TrackRecordResponse{
			Id:        r.Id.String(),
			SessionId: r.SessionId,
			Payload:   r.Payload,
			CreatedAt: r.CreatedAt,
		})
	}
	return res, nil
}

// load fetches a session owned by userId. Foreign sessions look missing.
func (s *trackbotService) load(ctx context.Context, userId string, sessionId string) (store.Session, error) {
	session, err := s.sessions.Get(ctx, sessionId)
	if err != nil {
		if errors.Is(err, contract.ErrSessionNotFound) {
			return store.Session{}, serverutils.NewNotFoundError("Session not found")
		}
		return store.Session{}, err
	}
	if session.UserID != userId {
		return store.Session{}, serverutils.NewNotFoundError("Session not found")
	}
	return session, nil
}

// archiveDocument uploads the document and returns its object key. Upload
// failures keep the document in the session only.
func (s *trackbotService) archiveDocument(ctx context.Context, sessionId string, doc store.Document) string {
	if s.archive == nil {
		return ""
	}
	name := doc.Kind + "-" + doc.CreatedAt.UTC().Format("20060102T150405") + ".md"
	key, err := s.archive.Put(ctx, sessionId, name, []byte(doc.Content))
	if err != nil {
		s.logger.Warn("DOCGEN", "Failed to archive document", map[string]interface{}{
			"session_id": sessionId,
			"kind":       doc.Kind,
			"error":      err.Error(),
		})
		return ""
	}
	return key
}

func (s *trackbotService) recordDocument(ctx context.Context, sessionId string, doc store.Document) {
	if s.uowFactory == nil {
		return
	}
	uow := s.uowFactory.NewUnitOfWork(ctx)
	err := uow.GeneratedDocumentRepository().Create(ctx, &entity.GeneratedDocument{
		Id:        uuid.New(),
		SessionId: sessionId,
		Kind:      doc.Kind,
		Content:   doc.Content,
		ObjectKey: doc.ObjectKey,
		CreatedAt: doc.CreatedAt,
	})
	if err != nil {
		s.logger.Warn("DOCGEN", "Failed to record document", map[string]interface{}{
			"session_id": sessionId,
			"error":      err.Error(),
		})
	}
}

func (s *trackbotService) toDocumentResponse(ctx context.Context, doc store.Document) *dto.GeneratedDocumentResponse {
	res := &dto.GeneratedDocumentResponse{
		Kind:      doc.Kind,
		Title:     docgen.Kind(doc.Kind).Title(),
		Content:   doc.Content,
		ObjectKey: doc.ObjectKey,
		CreatedAt: doc.CreatedAt,
	}
	if s.archive != nil && doc.ObjectKey != "" {
		if url, err := s.archive.URL(ctx, doc.ObjectKey); err == nil {
			res.URL = url
		}
	}
	return res
}

func toShowResponse(session store.Session) *dto.ShowTrackSessionResponse {
	log := make([]dto.TurnDTO, 0, len(session.Log))
	for _, t := range session.Log {
		log = append(log, dto.TurnDTO{Role: t.Role, Text: t.Text})
	}
	record := map[string]interface{}(session.Record)
	if record == nil {
		record = map[string]interface{}{}
	}
	return &dto.ShowTrackSessionResponse{
		Id:            session.ID,
		Record:        record,
		MissingFields: append([]string{}, session.MissingFields...),
		Questions:     append([]string{}, session.Questions...),
		Log:           log,
		Snapshot:      dialogue.TakeSnapshot(session),
		UpdatedAt:     session.UpdatedAt,
	}
}
