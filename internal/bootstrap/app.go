package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"studymate/internal/ai"
	"studymate/internal/app"
	"studymate/internal/cache"
	"studymate/internal/config"
	"studymate/internal/platform/database"
	rabbitmqClient "studymate/internal/platform/rabbitmq"
	redisClient "studymate/internal/platform/redis"
	"studymate/internal/repository"
	"studymate/internal/retrieval"
	"studymate/internal/worker"
)

type App struct {
	Config *config.Config
	DB     *gorm.DB
	Redis  *redis.Client
	MQConn *amqp.Connection

	Documents *repository.DocumentRepository
	Passages  *repository.PassageRepository
	Indexer   *retrieval.Indexer
	Retriever *retrieval.Retriever

	DocumentService *app.DocumentService
	ChatService     *app.ChatService
	StudyService    *app.StudyService

	IndexWorker     *worker.IndexWorker
	MessageWorker   *worker.MessagePersistWorker
	localDispatcher *worker.LocalDispatcher

	StartedAt time.Time
}

// New loads configuration, connects every enabled dependency and starts the
// queue consumers.
func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	a, err := Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := a.StartWorkers(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

// Open connects dependencies and builds the services without starting any
// consumer. Redis and RabbitMQ are skipped when disabled in cfg.
func Open(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg, StartedAt: time.Now()}
	if err := a.open(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) open(ctx context.Context) error {
	cfg := a.Config

	db, err := database.New(ctx, cfg.Database.Driver, cfg.DSN())
	if err != nil {
		return err
	}
	a.DB = db
	if err := database.Migrate(db); err != nil {
		return err
	}

	if cfg.Redis.Enabled {
		a.Redis, err = redisClient.New(ctx, redisClient.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
	}

	if cfg.RabbitMQ.Enabled {
		a.MQConn, err = rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
		if err != nil {
			return err
		}
	}

	completer, err := ai.New(ai.Config{
		Provider:    cfg.LLM.Provider,
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		return fmt.Errorf("init llm provider failed: %w", err)
	}

	embeddingProvider, err := ai.New(ai.Config{
		Provider: cfg.Embedding.Provider,
		BaseURL:  cfg.Embedding.BaseURL,
		APIKey:   cfg.Embedding.APIKey,
		Model:    cfg.Embedding.Model,
		Timeout:  time.Duration(cfg.Embedding.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		return fmt.Errorf("init embedding provider failed: %w", err)
	}
	var embedder retrieval.Embedder = embeddingProvider
	if a.Redis != nil {
		embedder = cache.NewEmbeddingCache(embeddingProvider, a.Redis, cfg.Embedding.Provider, cfg.Embedding.Model, cfg.EmbeddingCacheTTL())
	}

	a.Documents = repository.NewDocumentRepository(db)
	a.Passages = repository.NewPassageRepository(db)
	conversationRepo := repository.NewConversationRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	questionRepo := repository.NewQuestionRepository(db)

	a.Indexer = retrieval.NewIndexer(embedder, a.Passages, retrieval.IndexerConfig{
		ChunkSize:     cfg.Retrieval.ChunkSize,
		EmbedTimeout:  time.Duration(cfg.Retrieval.EmbedTimeoutSeconds) * time.Second,
		RatePerSecond: cfg.Retrieval.IndexRatePerSecond,
		Burst:         cfg.Retrieval.IndexBurst,
	})
	a.Retriever = retrieval.NewRetriever(embedder, a.Passages, a.Documents, retrieval.RetrieverConfig{
		TopK:          cfg.Retrieval.TopK,
		FallbackChars: cfg.Retrieval.FallbackChars,
		Timeout:       time.Duration(cfg.Retrieval.RetrieveTimeoutSeconds) * time.Second,
	})

	var dispatcher app.IndexDispatcher
	var publisher app.AsyncMessagePublisher
	if a.MQConn != nil {
		dispatcher = worker.NewQueueDispatcher(rabbitmqClient.NewPublisher(a.MQConn, cfg.RabbitMQ.IndexQueue))
		publisher = rabbitmqClient.NewPublisher(a.MQConn, cfg.RabbitMQ.MessagePersistQueue)
		a.IndexWorker = worker.NewIndexWorker(a.MQConn, a.Documents, a.Indexer, cfg.RabbitMQ.IndexQueue)
		a.MessageWorker = worker.NewMessagePersistWorker(a.MQConn, messageRepo, cfg.RabbitMQ.MessagePersistQueue)
	} else {
		a.localDispatcher = worker.NewLocalDispatcher(a.Documents, a.Indexer)
		dispatcher = a.localDispatcher
	}

	var historyCache app.HistoryCache
	if a.Redis != nil {
		historyCache = cache.NewHistoryCache(a.Redis, cfg.HistoryTTL(), 0)
	}

	a.DocumentService = app.NewDocumentService(a.Documents, a.Passages, dispatcher, cfg.MaxUploadBytes())
	a.ChatService = app.NewChatService(a.Documents, conversationRepo, messageRepo, a.Retriever, completer, publisher, historyCache, cfg.Retrieval.TopK)
	a.StudyService = app.NewStudyService(a.Documents, questionRepo, a.Retriever, completer)
	return nil
}

// StartWorkers starts the RabbitMQ consumers. Without RabbitMQ it is a no-op.
func (a *App) StartWorkers(ctx context.Context) error {
	if a.MessageWorker != nil {
		if err := a.MessageWorker.Start(ctx); err != nil {
			return fmt.Errorf("start message worker failed: %w", err)
		}
	}
	if a.IndexWorker != nil {
		if err := a.IndexWorker.Start(ctx); err != nil {
			return fmt.Errorf("start index worker failed: %w", err)
		}
	}
	if a.MQConn == nil {
		log.Printf("rabbitmq disabled: indexing in-process, messages written directly")
	}
	return nil
}

func (a *App) Close() error {
	var errs []error
	if a.MessageWorker != nil {
		a.MessageWorker.Close()
	}
	if a.IndexWorker != nil {
		a.IndexWorker.Close()
	}
	if a.localDispatcher != nil {
		a.localDispatcher.Close()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.MQConn != nil && !a.MQConn.IsClosed() {
		if err := a.MQConn.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.DB != nil {
		sqlDB, err := a.DB.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
