package bootstrap

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"smartstudy/internal/ai"
	"smartstudy/internal/config"
	"smartstudy/internal/filestore"
	"smartstudy/internal/model"
	mysqlClient "smartstudy/internal/platform/mysql"
	rabbitmqClient "smartstudy/internal/platform/rabbitmq"
	redisClient "smartstudy/internal/platform/redis"
	"smartstudy/internal/rag"
	"smartstudy/internal/repository"
	"smartstudy/internal/vectorstore"
	"smartstudy/internal/worker"
)

type App struct {
	Config        *config.Config
	MySQL         *gorm.DB
	Redis         *redis.Client
	MQConn        *amqp.Connection
	MessageWorker *worker.MessagePersistWorker

	Vectors   *vectorstore.Store
	Uploads   *filestore.FileStore
	Embedder  ai.Embedder
	Generator *ai.Generator
	Splitter  *rag.Splitter

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	mysqlDB, err := mysqlClient.New(ctx, cfg.MySQLDSN())
	if err != nil {
		return nil, err
	}
	if err := mysqlDB.AutoMigrate(
		&model.User{},
		&model.Document{},
		&model.ChatMessage{},
		&model.QuizAttempt{},
	); err != nil {
		return nil, fmt.Errorf("auto migrate tables failed: %w", err)
	}

	redisCli, err := redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, err
	}

	mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
	if err != nil {
		return nil, err
	}

	vectors, err := vectorstore.NewStore(cfg.Vector.Path)
	if err != nil {
		return nil, err
	}

	uploads, err := filestore.New(cfg.Uploads.Dir)
	if err != nil {
		return nil, err
	}

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return nil, err
	}

	chatClient, err := newChatClient(cfg)
	if err != nil {
		return nil, err
	}
	generator := ai.NewGenerator(chatClient, time.Duration(cfg.LLM.TimeoutSeconds)*time.Second)

	splitter, err := rag.NewSplitter(cfg.Chunking.ChunkSize, cfg.Chunking.Overlap)
	if err != nil {
		return nil, err
	}

	messageRepo := repository.NewChatMessageRepository(mysqlDB)
	messageWorker := worker.NewMessagePersistWorker(mqConn, messageRepo, cfg.RabbitMQ.MessagePersistQueue)
	if err := messageWorker.Start(ctx); err != nil {
		return nil, fmt.Errorf("start message worker failed: %w", err)
	}

	return &App{
		Config:        cfg,
		MySQL:         mysqlDB,
		Redis:         redisCli,
		MQConn:        mqConn,
		MessageWorker: messageWorker,
		Vectors:       vectors,
		Uploads:       uploads,
		Embedder:      embedder,
		Generator:     generator,
		Splitter:      splitter,
		StartedAt:     time.Now(),
	}, nil
}

func newEmbedder(cfg *config.Config) (ai.Embedder, error) {
	switch cfg.Embedding.Provider {
	case "ollama":
		return ai.NewOllamaEmbedder(cfg.Embedding.BaseURL, cfg.Embedding.Model)
	case "openai":
		return ai.NewOpenAIEmbedder(cfg.Embedding.BaseURL, cfg.Embedding.APIKey, cfg.Embedding.Model, cfg.Embedding.BatchSize)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Embedding.Provider)
	}
}

func newChatClient(cfg *config.Config) (ai.ChatClient, error) {
	switch cfg.LLM.Provider {
	case "ollama":
		return ai.NewOllamaClient(cfg.LLM.BaseURL, cfg.LLM.Model)
	case "openai":
		return ai.NewOpenAICompatibleClient(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Model)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}
}

func (a *App) Close() error {
	var closeErr error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MessageWorker != nil {
		a.MessageWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MySQL != nil {
		sqlDB, err := a.MySQL.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
