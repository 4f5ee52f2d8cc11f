package bootstrap

import (
	"context"
	"log"
	"os"

	"oneask-be/internal/config"
	"oneask-be/internal/controller"
	"oneask-be/internal/handler"
	"oneask-be/internal/pkg/logger"
	"oneask-be/internal/repository/implementation"
	"oneask-be/internal/repository/memory"
	"oneask-be/internal/repository/unitofwork"
	"oneask-be/internal/service"
	"oneask-be/internal/websocket"
	"oneask-be/pkg/embedding"
	"oneask-be/pkg/qa/generation"
	"oneask-be/pkg/qa/indexing"
	"oneask-be/pkg/qa/intent"
	"oneask-be/pkg/qa/retrieval"

	pktNats "oneask-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	QaController       controller.IQaController
	DocumentController controller.IDocumentController
	AdminController    controller.IAdminController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// WebSockets
	IndexingHandler *handler.IndexingHandler
	WebSocketHub    *websocket.Hub

	// Exposed for the DB health endpoint
	DB *gorm.DB
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 2.5 Infrastructure
	// NATS (optional event mirror)
	var natsPub *pktNats.Publisher
	if cfg.App.NatsURL != "" {
		pub, err := pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			natsPub = pub
		}
	}

	// Redis (optional cross-instance websocket relay)
	var rdb *redis.Client
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{
				Addr: cfg.App.RedisURL,
			}
		}
		rdb = redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/indexing.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 3. QA Components
	// Embedding provider is only needed for the local retrieval path
	var embeddingProvider embedding.Provider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	} else {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Rag.GeminiAPIKey)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	}

	chunkRepo := implementation.NewDocumentChunkRepository(db)

	var retriever retrieval.Retriever
	var indexer indexing.Indexer
	if cfg.Ai.RetrieverProvider == "local" {
		retriever = retrieval.NewLocalRetriever(embeddingProvider, chunkRepo)
		indexer = service.NewLocalIndexer(chunkRepo, embeddingProvider, cfg.Ai.ChunkSize, cfg.Ai.ChunkOverlap)
		log.Printf("[INFO] Using Retriever Provider: LOCAL (pgvector)")
	} else {
		retriever = retrieval.NewHTTPRetriever(cfg.Rag.BackendURL)
		indexer = indexing.NewHTTPIndexer(cfg.Rag.BackendURL)
		log.Printf("[INFO] Using Retriever Provider: HTTP (%s)", cfg.Rag.BackendURL)
	}

	generator := generation.NewHTTPGenerator(cfg.Rag.BackendURL)

	var webSearch *generation.WebSearchClient
	if cfg.Rag.GeminiAPIKey != "" {
		webSearch = generation.NewWebSearchClient(cfg.Rag.GeminiAPIKey, cfg.Rag.WebSearchModel)
		log.Printf("[INFO] Web search fallback enabled (%s)", cfg.Rag.WebSearchModel)
	}

	classifier := intent.NewClassifier(
		generator,
		cfg.Ai.SmallTalkKeywords,
		log.New(os.Stdout, "", log.LstdFlags),
	)

	answerCache := memory.NewAnswerCache(cfg.Cache.AnswerTTL, cfg.Cache.AnswerCapacity)
	previewStore := memory.NewPreviewStore()

	// 4. Services
	askService := service.NewAskService(
		retriever,
		generator,
		webSearch,
		classifier,
		answerCache,
		sysLogger,
		cfg.Ai.TopK,
		cfg.Ai.ScoreThreshold,
	)

	documentService := service.NewDocumentService(
		uowFactory,
		pubSub,
		previewStore,
		sysLogger,
		cfg.Storage.Root,
	)

	consumerService := service.NewConsumerService(
		pubSub,
		uowFactory,
		indexer,
		askService,
		wsHub,
		natsPub,
		sysLogger,
		cfg.Storage.Root,
	)

	// 5. Controllers
	return &Container{
		QaController:       controller.NewQaController(askService),
		DocumentController: controller.NewDocumentController(documentService),
		AdminController:    controller.NewAdminController(sysLogger, cfg.Jwt.Secret),

		ConsumerService: consumerService,

		IndexingHandler: handler.NewIndexingHandler(wsHub, wsLogger),
		WebSocketHub:    wsHub,

		DB: db,
	}
}
