package bootstrap

import (
	"context"
	"log"
	"time"

	"doc-chat-be/internal/config"
	"doc-chat-be/internal/controller"
	"doc-chat-be/internal/pkg/logger"
	"doc-chat-be/internal/repository/unitofwork"
	"doc-chat-be/internal/service"
	"doc-chat-be/internal/websocket"
	"doc-chat-be/pkg/chunker"
	"doc-chat-be/pkg/decoder"
	"doc-chat-be/pkg/embedding"
	"doc-chat-be/pkg/lexical"
	"doc-chat-be/pkg/llm"
	"doc-chat-be/pkg/llm/factory"
	pkgnats "doc-chat-be/pkg/nats"
	"doc-chat-be/pkg/rag/answer"
	"doc-chat-be/pkg/rag/ingest"
	"doc-chat-be/pkg/retriever"
	"doc-chat-be/pkg/storage"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ProjectController  controller.IProjectController
	DocumentController controller.IDocumentController
	ChatController     controller.IChatController

	// Background Services (Exposed for main.go to run)
	IngestionService    service.IIngestionService
	NotificationService service.INotificationService

	// WebSockets
	WebSocketHandler *websocket.Handler
	WebSocketHub     *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	objectStore, err := storage.NewLocalStore(cfg.Storage.Root)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize object store: %v", err)
	}

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 2.5 Infrastructure
	// NATS
	natsPub, err := pkgnats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pkgnats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/notification.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 3. Retrieval Stack
	// Embedding provider based on Config
	var embeddingProvider embedding.Provider
	switch cfg.Rag.EmbeddingProvider {
	case "gemini":
		embeddingProvider = embedding.NewGeminiProvider(cfg.Keys.Gemini)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	case "openai":
		embeddingProvider = embedding.NewOpenAIProvider(cfg.Keys.Groq, cfg.Rag.GroqBaseURL, cfg.Rag.EmbeddingModel, cfg.Rag.EmbeddingDims)
		log.Printf("[INFO] Using Embedding Provider: OPENAI-compatible (%s)", cfg.Rag.EmbeddingModel)
	default:
		embeddingProvider = embedding.NewOllamaProvider(cfg.Rag.OllamaBaseURL, cfg.Rag.EmbeddingModel, cfg.Rag.EmbeddingDims)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Rag.EmbeddingModel)
	}

	// LLM router. Provider and model come from the project at request time,
	// so the factory closes over the backend credentials only.
	llmRouter := llm.NewRouter(func(provider, model string) (llm.LLMProvider, error) {
		return factory.NewLLMProvider(provider, model, factory.ProviderConfig{
			OllamaBaseURL: cfg.Rag.OllamaBaseURL,
			GroqAPIKey:    cfg.Keys.Groq,
			GroqBaseURL:   cfg.Rag.GroqBaseURL,
			GeminiAPIKey:  cfg.Keys.Gemini,
		})
	})

	lexicalIndex := lexical.NewIndex()

	hybridRetriever := retriever.NewHybridRetriever(
		embeddingProvider,
		service.NewVectorSearchAdapter(uowFactory),
		lexicalIndex,
		retriever.Config{
			Alpha:       cfg.Rag.FusionAlpha,
			VectorTopK:  cfg.Rag.VectorTopK,
			LexicalTopK: cfg.Rag.LexicalTopK,
			FinalK:      cfg.Rag.AnswerTopK,
		},
	)

	synthesizer := answer.NewSynthesizer(llmRouter, cfg.Rag.HistoryWindow)

	pipeline := ingest.NewPipeline(
		decoder.New(),
		chunker.New(cfg.Rag.ChunkSize, cfg.Rag.ChunkOverlap),
		embeddingProvider,
		service.NewChunkWriterAdapter(uowFactory),
		lexicalIndex,
	)

	// 4. Services
	queryCache := service.NewQueryCacheService(rdb, time.Duration(cfg.Rag.CacheTTLSeconds)*time.Second, sysLogger)
	publisherService := service.NewPublisherService(cfg.Rag.IngestTopicName, pubSub)

	projectService := service.NewProjectService(uowFactory)
	documentService := service.NewDocumentService(uowFactory, publisherService, objectStore, lexicalIndex, queryCache, sysLogger)
	chatService := service.NewChatService(uowFactory, hybridRetriever, synthesizer, queryCache, sysLogger)

	ingestionService := service.NewIngestionService(
		pubSub,
		cfg.Rag.IngestTopicName,
		cfg.Rag.IngestWorkers,
		uowFactory,
		pipeline,
		objectStore,
		natsPub,
		queryCache,
		lexicalIndex,
		sysLogger,
	)

	notificationService := service.NewNotificationService(natsSub, wsHub, wsLogger)

	// 5. Controllers
	return &Container{
		ProjectController:  controller.NewProjectController(projectService),
		DocumentController: controller.NewDocumentController(documentService),
		ChatController:     controller.NewChatController(chatService),

		IngestionService:    ingestionService,
		NotificationService: notificationService,

		WebSocketHandler: websocket.NewHandler(wsHub),
		WebSocketHub:     wsHub,
	}
}
