package bootstrap

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"docassist/internal/ai"
	"docassist/internal/app"
	"docassist/internal/cache"
	"docassist/internal/config"
	"docassist/internal/model"
	postgresClient "docassist/internal/platform/postgres"
	rabbitmqClient "docassist/internal/platform/rabbitmq"
	redisClient "docassist/internal/platform/redis"
	"docassist/internal/repository"
	"docassist/internal/storage"
	"docassist/internal/worker"
)

type App struct {
	Config   *config.Config
	Postgres *gorm.DB
	Redis    *redis.Client
	MQConn   *amqp.Connection

	DocumentService *app.DocumentService
	SearchService   *app.SearchService
	ChatService     *app.ChatService
	ParseWorker     *worker.ParseWorker

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	db, err := postgresClient.New(ctx, cfg.PostgresDSN())
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&model.Document{}, &model.Chunk{}); err != nil {
		return nil, fmt.Errorf("auto migrate tables failed: %w", err)
	}
	if err := postgresClient.EnsureVectorIndex(ctx, db); err != nil {
		return nil, err
	}

	redisCli, err := redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, err
	}

	mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
	if err != nil {
		return nil, err
	}

	blobs, err := storage.NewLocalStore(cfg.Storage.Root)
	if err != nil {
		return nil, fmt.Errorf("init blob store failed: %w", err)
	}

	docRepo := repository.NewDocumentRepository(db)
	chunkRepo := repository.NewChunkRepository(db)

	embedder := ai.NewEmbeddingClient(ai.EmbeddingConfig{
		BaseURL:    cfg.Embedding.BaseURL,
		APIKey:     cfg.Embedding.APIKey,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
	})
	embeddingCache := cache.NewEmbeddingCache(redisCli, time.Duration(cfg.Embedding.CacheTTLSeconds)*time.Second)
	publisher := rabbitmqClient.NewParseJobPublisher(mqConn, cfg.RabbitMQ.ParseQueue)

	docService := app.NewDocumentService(
		docRepo,
		chunkRepo,
		blobs,
		embedder,
		embeddingCache,
		publisher,
		cfg.LLM.Model,
	)
	searchService := app.NewSearchService(
		embedder,
		chunkRepo,
		chunkRepo,
		cfg.Retrieval.DefaultLimit,
		cfg.Retrieval.DefaultThreshold,
		cfg.Retrieval.HybridAlpha,
	)
	chatService := app.NewChatService(docRepo, searchService, ai.NewChatClient(), ai.ChatConfig{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
	})

	parseWorker := worker.NewParseWorker(mqConn, docService, cfg.RabbitMQ.ParseQueue)
	if err := parseWorker.Start(ctx); err != nil {
		return nil, fmt.Errorf("start parse worker failed: %w", err)
	}

	return &App{
		Config:          cfg,
		Postgres:        db,
		Redis:           redisCli,
		MQConn:          mqConn,
		DocumentService: docService,
		SearchService:   searchService,
		ChatService:     chatService,
		ParseWorker:     parseWorker,
		StartedAt:       time.Now(),
	}, nil
}

func (a *App) Close() error {
	var closeErr error
	if a.ParseWorker != nil {
		a.ParseWorker.Close()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.Postgres != nil {
		sqlDB, err := a.Postgres.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
