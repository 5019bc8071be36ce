package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	fiber_log "github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"

	_ "portal_chat_service/docs"
	"portal_chat_service/internal/chat/app"
	"portal_chat_service/internal/chat/domain"
	"portal_chat_service/internal/chat/repository"
	"portal_chat_service/internal/chat/router"
	"portal_chat_service/pkg/config"
	"portal_chat_service/pkg/database"
	"portal_chat_service/pkg/logger"
	testtool "portal_chat_service/pkg/test_tool"
)

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.ChatService, config.EnvConfig.ChatServiceLogPath)
	cfg := config.LoadConfig[config.Chat](config.EnvConfig.ChatService, config.EnvConfig.ChatServiceYAMLPath)
	testtool.StartPprof()

	// 1. Mongo (訊息與反應)
	ctx := context.Background()
	mongoURI := fmt.Sprintf("mongodb://%s:%s@%s:%d", cfg.MongoSQL.User, cfg.MongoSQL.Password, cfg.MongoSQL.Host, cfg.MongoSQL.Port)
	mongo, err := database.NewMongoDB(ctx,
		database.Connection{
			ConnectStr:    mongoURI,
			RetryCount:    cfg.MongoSQL.RetryCount,
			RetryInterval: time.Duration(cfg.MongoSQL.RetryInterval) * time.Second,
		},
		cfg.MongoSQL.Database)
	if err != nil {
		logger.Log.Fatal(
			"Unable to connect to mongoDB database after retries",
			zap.String("address", fmt.Sprintf("[%s]", mongoURI)),
			zap.Error(err),
		)
	}
	defer mongo.Close(ctx)

	// 2. Redis (在線鏡像與房間快取)
	masterName, sentinel := config.GetRedisSetting()
	redisClient, err := database.NewRedisClient(masterName, sentinel, cfg.Redis.RedisDB)
	if err != nil {
		logger.Log.Fatal(fmt.Sprintf("connect redis err : %v", err))
	}

	// 3. PostgreSQL, 入口網站的表走 pgxpool 唯讀, 自有的已讀表走 gorm
	pgDSN := fmt.Sprintf("postgres://%s:%s@%s:%d/%s",
		cfg.PostgreSQL.User, cfg.PostgreSQL.Password, cfg.PostgreSQL.Host, cfg.PostgreSQL.Port, cfg.PostgreSQL.Database)
	pgPool, err := database.NewDatabaseConnection(database.Connection{
		ConnectStr:    pgDSN,
		RetryCount:    cfg.PostgreSQL.RetryCount,
		RetryInterval: time.Duration(cfg.PostgreSQL.RetryInterval),
	})
	if err != nil || pgPool == nil {
		logger.Log.Fatal(fmt.Sprintf("connect postgres err : %v", err))
	}
	defer pgPool.Close()

	gormDB, err := database.NewPGConnection(database.Connection{
		ConnectStr:    pgDSN,
		RetryCount:    cfg.PostgreSQL.RetryCount,
		RetryInterval: time.Duration(cfg.PostgreSQL.RetryInterval),
	})
	if err != nil {
		logger.Log.Fatal(fmt.Sprintf("open gorm err : %v", err))
	}

	// 4. MinIO (附件)
	minioClient, err := database.NewMinIOConnection(database.MinIOConnection{
		Endpoint:      fmt.Sprintf("%s:%d", cfg.MinIO.Host, cfg.MinIO.Port),
		User:          cfg.MinIO.User,
		Password:      cfg.MinIO.Password,
		BucketName:    cfg.MinIO.BucketName,
		UseSSL:        cfg.MinIO.UseSSL,
		RetryCount:    cfg.MinIO.RetryCount,
		RetryInterval: time.Duration(cfg.MinIO.RetryInterval),
	})
	if err != nil {
		logger.Log.Fatal(fmt.Sprintf("connect minio err : %v", err))
	}

	// 5. Kafka (房間事件審計流)
	kafkaWriter, err := database.NewKafkaWriterWithRetry(database.KafkaConnection{
		Brokers:       cfg.Kafka.Brokers,
		Topic:         cfg.Kafka.Topic,
		RetryCount:    cfg.Kafka.RetryCount,
		RetryInterval: time.Duration(cfg.Kafka.RetryInterval),
	})
	if err != nil {
		logger.Log.Fatal(fmt.Sprintf("connect kafka err : %v", err))
	}
	defer kafkaWriter.Close()

	// 6. RabbitMQ (離線通知工作)
	rabbitConn, err := database.ConnectRabbitMQWithRetry(database.Connection{
		ConnectStr:    fmt.Sprintf("amqp://%s:%s@%s:%s/", cfg.RabbitMQ.User, cfg.RabbitMQ.Password, cfg.RabbitMQ.IP, cfg.RabbitMQ.Port),
		RetryCount:    cfg.RabbitMQ.RetryCount,
		RetryInterval: time.Duration(cfg.RabbitMQ.RetryInterval),
	})
	if err != nil {
		logger.Log.Fatal(fmt.Sprintf("connect rabbitmq err : %v", err))
	}
	defer rabbitConn.Close()

	rabbitCh, err := database.GetRabbitMQChannelWithRetry(rabbitConn, cfg.RabbitMQ.RetryCount, time.Duration(cfg.RabbitMQ.RetryInterval))
	if err != nil {
		logger.Log.Fatal(fmt.Sprintf("rabbitmq channel err : %v", err))
	}
	defer rabbitCh.Close()

	if err := database.DeclareDurableQueue(rabbitCh, cfg.RabbitMQ.Queue); err != nil {
		logger.Log.Fatal(fmt.Sprintf("declare queue err : %v", err))
	}

	// 7. Repository
	msgRepo := repository.NewMongoMessageRepository(mongo.Database)
	reactRepo := repository.NewMongoReactionRepository(mongo.Database)
	if err := msgRepo.EnsureIndexes(ctx); err != nil {
		logger.Log.Fatal(fmt.Sprintf("message indexes err : %v", err))
	}
	if err := reactRepo.EnsureIndexes(ctx); err != nil {
		logger.Log.Fatal(fmt.Sprintf("reaction indexes err : %v", err))
	}

	portalRepo := repository.NewPortalRepository(pgPool)
	readRepo := repository.NewReadStatusRepository(gormDB)
	if err := readRepo.AutoMigrate(); err != nil {
		logger.Log.Fatal(fmt.Sprintf("migrate read status err : %v", err))
	}

	presenceRepo := repository.NewPresenceRepository(redisClient)
	roomCache := database.NewRedisRepository[domain.Room](redisClient)
	archive := repository.NewKafkaArchivePublisher(kafkaWriter)
	notifier := repository.NewRabbitOfflineNotifier(database.NewRabbitRepository(rabbitCh), cfg.RabbitMQ.Queue)

	// 8. UseCase
	registry := app.NewRoomRegistry()
	broadcast := app.NewBroadcaster(registry)
	typing := app.NewTypingBoard(cfg.Room.TypingTTL)

	roomUC := app.NewRoomUseCase(registry, broadcast, typing, portalRepo, presenceRepo, roomCache)
	messageUC := app.NewMessageUseCase(msgRepo, reactRepo, readRepo, portalRepo,
		minioClient, archive, notifier, registry, broadcast, cfg.Room)
	reactionUC := app.NewReactionUseCase(msgRepo, reactRepo, archive, broadcast)

	// 9. Fiber
	r := fiber.New()
	file, err := os.OpenFile(fmt.Sprintf("%s/access.log", config.EnvConfig.ChatServiceLogPath), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer file.Close()

	r.Use(fiber_log.New(fiber_log.Config{
		Output: file,
	}))

	router.RegisterRoutes(r,
		app.NewChatWebsocketHandler(roomUC, messageUC, reactionUC, broadcast),
		app.NewHistoryHandler(roomUC, messageUC))

	// Listen
	port := ":" + cfg.Port
	log.Printf("Chat Service listening on %s", port)
	if err := r.Listen(port); err != nil {
		log.Fatalf("Failed to start Fiber: %v", err)
	}
}
