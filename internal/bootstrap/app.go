package bootstrap

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"tenantbot/internal/ai"
	"tenantbot/internal/config"
	"tenantbot/internal/model"
	"tenantbot/internal/platform/blob"
	mysqlClient "tenantbot/internal/platform/mysql"
	rabbitmqClient "tenantbot/internal/platform/rabbitmq"
	redisClient "tenantbot/internal/platform/redis"
	"tenantbot/internal/repository"
	"tenantbot/internal/worker"
)

type App struct {
	Config           *config.Config
	MySQL            *gorm.DB
	Redis            *redis.Client
	MQConn           *amqp.Connection
	Blob             *blob.Store
	Provider         *ai.Client
	TranscriptWorker *worker.TranscriptPersistWorker

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
	err = mysqlDB.AutoMigrate(
		&model.Tenant{}, &model.TenantSecret{}, &model.Bot{},
		&model.Document{}, &model.Fragment{}, &model.ChatMessage{},
	)
	if err != nil {
		return nil, fmt.Errorf("auto migrate tables failed: %w", err)
	}

	redisCli, err := redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, err
	}

	mqConn, err := rabbitmqClient.New(cfg.RabbitMQ.URL)
	if err != nil {
		return nil, err
	}

	blobStore, err := blob.New(ctx, blob.Config{
		Region:         cfg.Blob.Region,
		Bucket:         cfg.Blob.Bucket,
		Endpoint:       cfg.Blob.Endpoint,
		ForcePathStyle: cfg.Blob.ForcePathStyle,
	})
	if err != nil {
		return nil, fmt.Errorf("init blob store failed: %w", err)
	}

	provider := ai.NewClient(ai.Config{
		BaseURL:        cfg.Provider.BaseURL,
		EmbeddingModel: cfg.Provider.EmbeddingModel,
		Timeout:        cfg.ProviderTimeout(),
	})

	messageRepo := repository.NewMessageRepository(mysqlDB)
	transcriptWorker := worker.NewTranscriptPersistWorker(mqConn, messageRepo, cfg.RabbitMQ.TranscriptQueue)
	if err := transcriptWorker.Start(ctx); err != nil {
		return nil, fmt.Errorf("start transcript worker failed: %w", err)
	}

	return &App{
		Config:           cfg,
		MySQL:            mysqlDB,
		Redis:            redisCli,
		MQConn:           mqConn,
		Blob:             blobStore,
		Provider:         provider,
		TranscriptWorker: transcriptWorker,
		StartedAt:        time.Now(),
	}, nil
}

func (a *App) Close() error {
	var closeErr error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.TranscriptWorker != nil {
		a.TranscriptWorker.Close()
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
