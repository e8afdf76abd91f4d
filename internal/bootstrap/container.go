package bootstrap

import (
	"context"
	"log"
	"time"

	"chartnotes-be/internal/config"
	"chartnotes-be/internal/controller"
	"chartnotes-be/internal/pkg/logger"
	"chartnotes-be/internal/pkg/mailer"
	memoryrepo "chartnotes-be/internal/repository/memory"
	redisrepo "chartnotes-be/internal/repository/redis"
	"chartnotes-be/internal/service"
	"chartnotes-be/pkg/embedding"
	"chartnotes-be/pkg/llm/factory"
	"chartnotes-be/pkg/rag/contextbuilder"
	"chartnotes-be/pkg/rag/indexer"
	"chartnotes-be/pkg/rag/state"
	"chartnotes-be/pkg/rag/synthesis"
	"chartnotes-be/pkg/rerank"
	"chartnotes-be/pkg/tokenizer"
	"chartnotes-be/pkg/utils"
	"chartnotes-be/pkg/vectorstore/pgvector"

	pktNats "chartnotes-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AssistantController controller.IAssistantController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	alertMailer := mailer.NewAlertMailer(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.SenderName,
		cfg.SMTP.AlertRecipient,
	)

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI Providers
	var embeddingProvider embedding.Provider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaEmbedModel, 0)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaEmbedModel)
	} else {
		embeddingProvider = embedding.NewOpenAIProvider("", cfg.Ai.OpenAIAPIKey, "")
		log.Printf("[INFO] Using Embedding Provider: OPENAI")
	}

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.LLMBaseURL,
		cfg.Ai.OpenAIAPIKey,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	reranker := rerank.NewCohereProvider("", cfg.Ai.CohereAPIKey, cfg.Ai.RerankModel)

	counter, err := tokenizer.NewTiktokenCounter(cfg.Ai.TokenEncoding)
	if err != nil {
		log.Fatalf("[FATAL] Failed to load token encoding: %v", err)
	}
	splitter := utils.NewTextSplitter(utils.DefaultChunkSize, utils.DefaultChunkOverlap, counter.Count)

	// 4. Retrieval Pipeline
	vectorStore := pgvector.NewStore(db)
	sessionIndexer := indexer.NewIndexer(vectorStore, embeddingProvider, llmProvider, splitter, sysLogger)
	assembler := contextbuilder.NewAssembler(vectorStore, embeddingProvider, reranker, sysLogger)
	synthesizer := synthesis.NewSynthesizer(llmProvider, counter, alertMailer, sysLogger, cfg.Ai.MaxOutputTokens)
	mapReducer := synthesis.NewMapReducer(synthesizer, splitter, sysLogger)

	// 5. Conversation State
	var sessionRepo state.Repository
	if cfg.App.SessionStore == "redis" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{Addr: cfg.App.RedisURL}
		}
		rdb := redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
		sessionRepo = redisrepo.NewSessionRepository(rdb, time.Hour)
		log.Printf("[INFO] Using Session Store: REDIS")
	} else {
		sessionRepo = memoryrepo.NewSessionRepository(time.Hour)
		log.Printf("[INFO] Using Session Store: MEMORY")
	}
	sessions := state.NewManager(sessionRepo)

	// 6. Infrastructure
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	// 7. Services
	var eventPublisher service.IEventPublisher
	if natsPub != nil {
		eventPublisher = natsPub
	}

	assistantService := service.NewAssistantService(
		sessionIndexer,
		assembler,
		synthesizer,
		mapReducer,
		sessions,
		eventPublisher,
		pubSub,
		cfg.App.IndexSessionTopic,
		sysLogger,
	)

	consumerService := service.NewConsumerService(
		pubSub,
		cfg.App.IndexSessionTopic,
		sessionIndexer,
		sessions,
		eventPublisher,
		sysLogger,
	)

	// 8. Controllers
	return &Container{
		AssistantController: controller.NewAssistantController(assistantService),
		ConsumerService:     consumerService,
	}
}
