package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log"

	"trackbot-be/internal/config"
	"trackbot-be/internal/controller"
	"trackbot-be/internal/pkg/logger"
	"trackbot-be/internal/pkg/serverutils"
	"trackbot-be/internal/repository/contract"
	"trackbot-be/internal/repository/implementation"
	"trackbot-be/internal/repository/memory"
	"trackbot-be/internal/repository/redisstore"
	"trackbot-be/internal/repository/unitofwork"
	"trackbot-be/internal/service"
	"trackbot-be/internal/storage"
	"trackbot-be/pkg/embedding"
	"trackbot-be/pkg/embedding/jina"
	"trackbot-be/pkg/events"
	"trackbot-be/pkg/llm"
	"trackbot-be/pkg/llm/factory"
	pktNats "trackbot-be/pkg/nats"
	"trackbot-be/pkg/rag/analysis"
	"trackbot-be/pkg/rag/dialogue"
	"trackbot-be/pkg/rag/docgen"
	"trackbot-be/pkg/rag/persist"
	"trackbot-be/pkg/rag/pipeline"
	"trackbot-be/pkg/rag/prompt"
	"trackbot-be/pkg/rag/retrieval"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	HealthController    controller.IHealthController
	TrackbotController  controller.ITrackbotController
	KnowledgeController controller.IKnowledgeController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
	AuditService    *service.AuditService

	// Exposed for the CLI commands
	KnowledgeIndexer *service.KnowledgeIndexer
	Orchestrator     *pipeline.Orchestrator

	closers []func()
}

// Close releases broker connections and flushes the loggers.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

// NewEmbeddingProvider picks the embedding backend named in the config.
func NewEmbeddingProvider(cfg *config.Config) (embedding.EmbeddingProvider, error) {
	switch cfg.Ai.EmbeddingProvider {
	case "ollama":
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
		return embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaModel), nil
	case "jina":
		if cfg.Keys.Jina == "" {
			return nil, errors.New("jina embedding provider requires JINA_API_KEY")
		}
		log.Printf("[INFO] Using Embedding Provider: JINA AI")
		return jina.NewJinaProvider(cfg.Keys.Jina), nil
	case "gemini", "":
		if cfg.Keys.GoogleGemini == "" {
			return nil, errors.New("gemini embedding provider requires GOOGLE_GEMINI_API_KEY")
		}
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
		return embedding.NewGeminiProvider(cfg.Keys.GoogleGemini), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Ai.EmbeddingProvider)
	}
}

// NewLLMProvider builds the language model client. Missing credentials are
// a construction failure.
func NewLLMProvider(ctx context.Context, cfg *config.Config) (llm.LLMProvider, error) {
	pc := factory.ProviderConfig{
		Provider: cfg.Ai.LLMProvider,
		Model:    cfg.Ai.LLMModel,
		BaseURL:  cfg.Ai.LLMBaseURL,
	}
	switch cfg.Ai.LLMProvider {
	case "gemini":
		pc.APIKey = cfg.Keys.GoogleGemini
	case "huggingface":
		pc.APIKey = cfg.Keys.HuggingFace
	case "ollama":
		if pc.BaseURL == "" {
			pc.BaseURL = cfg.Ai.OllamaBaseURL
		}
	}

	provider, err := factory.NewLLMProvider(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM provider: %w", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)
	return provider, nil
}

func NewContainer(ctx context.Context, db *gorm.DB, cfg *config.Config) (*Container, error) {
	c := &Container{}

	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	ragLogger := logger.NewIsolatedLogger(cfg.App.RagLogFilePath)
	c.closers = append(c.closers, func() { _ = sysLogger.Sync() }, func() { _ = ragLogger.Sync() })

	templates, err := prompt.Load(cfg.Ai.PromptsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load prompt templates: %w", err)
	}
	for _, name := range []string{prompt.Input, prompt.GetJSON, prompt.Clarification} {
		sysLogger.Info("BOOT", "Prompt template loaded", map[string]interface{}{
			"name":   name,
			"source": templates.Source(name),
		})
	}

	// 2. AI Providers
	embeddingProvider, err := NewEmbeddingProvider(cfg)
	if err != nil {
		return nil, err
	}
	queryEmbedder, err := embedding.NewCachedProvider(embeddingProvider, cfg.Ai.EmbeddingCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to build embedding cache: %w", err)
	}

	llmProvider, err := NewLLMProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// 3. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	var publisher events.Publisher = events.NopPublisher{}
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	} else {
		publisher = natsPub
		c.closers = append(c.closers, natsPub.Close)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	} else {
		c.closers = append(c.closers, natsSub.Close)
		c.AuditService = service.NewAuditService(natsSub, sysLogger)
	}

	// 4. Session Storage
	sessionRepo, err := newSessionRepository(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// 5. Knowledge Base
	c.KnowledgeIndexer = service.NewKnowledgeIndexer(uowFactory, embeddingProvider, cfg.Ai.ChunkSize, cfg.Ai.ChunkOverlap, sysLogger)
	publisherService := service.NewPublisherService(pubSub, cfg.Keys.KnowledgeTopic)
	c.ConsumerService = service.NewConsumerService(pubSub, cfg.Keys.KnowledgeTopic, c.KnowledgeIndexer, sysLogger)
	knowledgeService := service.NewKnowledgeService(uowFactory, c.KnowledgeIndexer, publisherService, sysLogger)

	chunkRepo := implementation.NewKnowledgeChunkRepository(db)
	knowledgeReady := true
	if count, err := chunkRepo.Count(ctx); err != nil || count == 0 {
		knowledgeReady = false
		sysLogger.Warn("BOOT", "Knowledge base is empty, analysis runs without retrieved context", map[string]interface{}{
			"error": errString(err),
		})
	}

	// 6. RAG Pipeline
	retriever := retrieval.NewVectorRetriever(queryEmbedder, chunkRepo, ragLogger)
	analyzer := analysis.NewAnalyzer(llmProvider, templates.AnalysisInstruction(), ragLogger)
	c.Orchestrator = pipeline.NewOrchestrator(retriever, analyzer, cfg.Ai.RetrievalTopK, ragLogger)
	engine := dialogue.NewEngine(c.Orchestrator, ragLogger)

	sink := service.NewRecordSink(uowFactory, publisher, sysLogger)
	exporter := persist.NewExporter(llmProvider, templates.Get(prompt.GetJSON), sink, ragLogger)
	generator := docgen.NewGenerator(llmProvider, templates, ragLogger)

	// 7. Object Storage
	var archive storage.DocumentArchive
	if cfg.Storage.Endpoint != "" {
		s3, err := storage.NewS3DocumentStore(storage.S3Config{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			Bucket:    cfg.Storage.Bucket,
			UseSSL:    cfg.Storage.UseSSL,
		})
		if err != nil {
			log.Printf("[WARN] Document archive disabled: %v", err)
		} else {
			archive = s3
		}
	}

	trackbotService := service.NewTrackbotService(service.TrackbotDeps{
		Sessions:   sessionRepo,
		Engine:     engine,
		Exporter:   exporter,
		Documents:  generator,
		Archive:    archive,
		UowFactory: uowFactory,
		Publisher:  publisher,
		Logger:     sysLogger,
	})

	// 8. Controllers
	auth, err := authMiddleware(cfg)
	if err != nil {
		return nil, err
	}

	c.HealthController = controller.NewHealthController(controller.HealthInfo{
		LLMProvider:    cfg.Ai.LLMProvider,
		SessionStore:   cfg.App.SessionStore,
		KnowledgeReady: knowledgeReady,
		EventBus:       natsPub != nil,
		Archive:        archive != nil,
	})
	c.TrackbotController = controller.NewTrackbotController(trackbotService, auth)
	c.KnowledgeController = controller.NewKnowledgeController(knowledgeService, auth)

	return c, nil
}

func newSessionRepository(ctx context.Context, cfg *config.Config) (contract.SessionRepository, error) {
	switch cfg.App.SessionStore {
	case "redis":
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{
				Addr: cfg.App.RedisURL,
			}
		}
		rdb := redis.NewClient(opt)
		if _, err := rdb.Ping(ctx).Result(); err != nil {
			return nil, fmt.Errorf("failed to connect to Redis session store: %w", err)
		}
		log.Printf("[INFO] Using Session Store: REDIS")
		return redisstore.NewSessionRepository(rdb, cfg.App.SessionTTL), nil
	case "memory", "":
		log.Printf("[INFO] Using Session Store: MEMORY")
		return memory.NewSessionRepository(cfg.App.SessionTTL), nil
	default:
		return nil, fmt.Errorf("unsupported session store: %s", cfg.App.SessionStore)
	}
}

func authMiddleware(cfg *config.Config) (fiber.Handler, error) {
	if !cfg.App.AuthEnabled {
		return serverutils.AnonymousMiddleware, nil
	}
	if cfg.Keys.JWTSecret == "" {
		return nil, errors.New("AUTH_ENABLED requires JWT_SECRET")
	}
	return serverutils.NewJwtMiddleware(cfg.Keys.JWTSecret), nil
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
