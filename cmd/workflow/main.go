// 工作流服务入口：申请受理、状态机执行与事件发布
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	workflowapp "github.com/rgbportal/fboauthorization/internal/workflow/application"
	"github.com/rgbportal/fboauthorization/internal/workflow/domain"
	"github.com/rgbportal/fboauthorization/internal/workflow/infrastructure/messaging"
	"github.com/rgbportal/fboauthorization/internal/workflow/infrastructure/persistence"
	"github.com/rgbportal/fboauthorization/internal/workflow/interfaces/consumer"
	workflowhttp "github.com/rgbportal/fboauthorization/internal/workflow/interfaces/http"
	"github.com/rgbportal/fboauthorization/pkg/cache"
	"github.com/rgbportal/fboauthorization/pkg/config"
	"github.com/rgbportal/fboauthorization/pkg/db"
	"github.com/rgbportal/fboauthorization/pkg/logger"
	"github.com/rgbportal/fboauthorization/pkg/metrics"
	"github.com/rgbportal/fboauthorization/pkg/middleware"
	"github.com/rgbportal/fboauthorization/pkg/mq"
	"github.com/rgbportal/fboauthorization/pkg/ratelimit"
	"github.com/rgbportal/fboauthorization/pkg/utils"
)

func main() {
	configPath := flag.String("config", "configs/workflow/config.toml", "path to config file")
	nodeID := flag.Int64("node", 1, "snowflake node id")
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	if err := logger.Init(logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		FilePath:   cfg.Logger.FilePath,
		MaxSize:    cfg.Logger.MaxSize,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAge:     cfg.Logger.MaxAge,
		Compress:   cfg.Logger.Compress,
		WithCaller: cfg.Logger.WithCaller,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info(ctx, "Starting workflow service",
		"version", cfg.Version,
		"environment", cfg.Environment,
	)

	// 3. 初始化数据库
	database, err := db.Init(db.Config{
		Driver:             cfg.Database.Driver,
		DSN:                cfg.Database.DSN,
		MaxOpenConns:       cfg.Database.MaxOpenConns,
		MaxIdleConns:       cfg.Database.MaxIdleConns,
		ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
		LogEnabled:         cfg.Database.LogEnabled,
		SlowQueryThreshold: cfg.Database.SlowQueryThreshold,
	})
	if err != nil {
		logger.Fatal(ctx, "Failed to init database", "error", err)
	}
	defer database.Close()

	if err := database.AutoMigrate(
		&domain.Application{},
		&domain.Document{},
		&domain.Comment{},
		&domain.User{},
		&domain.OutboxMessage{},
	); err != nil {
		logger.Fatal(ctx, "Failed to migrate database", "error", err)
	}

	// 4. 初始化 Redis（限流用）
	redisCache, err := cache.New(cache.Config{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		MaxPoolSize:  cfg.Redis.MaxPoolSize,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		logger.Fatal(ctx, "Failed to init redis", "error", err)
	}
	defer redisCache.Close()

	// 5. 初始化 Kafka
	kafkaCfg := mq.KafkaConfig{
		Brokers:         cfg.Kafka.Brokers,
		GroupID:         cfg.Kafka.GroupID,
		SessionTimeout:  cfg.Kafka.SessionTimeout,
		MaxRetries:      cfg.Kafka.MaxRetries,
		RetryBackoff:    cfg.Kafka.RetryBackoff,
		DeadLetterTopic: cfg.Kafka.DeadLetterTopic,
	}
	producer, err := mq.NewProducer(kafkaCfg)
	if err != nil {
		logger.Fatal(ctx, "Failed to create kafka producer", "error", err)
	}
	defer producer.Close()

	certConsumer, err := mq.NewConsumer(kafkaCfg, []string{domain.TopicCertificateIssued})
	if err != nil {
		logger.Fatal(ctx, "Failed to create kafka consumer", "error", err)
	}
	defer certConsumer.Close()

	// 6. 初始化指标
	m := metrics.New("workflow")
	if cfg.Metrics.Enabled {
		if err := m.Register(); err != nil {
			logger.Fatal(ctx, "Failed to register metrics", "error", err)
		}
		if err := metrics.StartHTTPServer(cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
			logger.Fatal(ctx, "Failed to start metrics server", "error", err)
		}
	}

	// 7. 组装依赖
	appRepo := persistence.NewApplicationRepository(database.DB)
	docRepo := persistence.NewDocumentRepository(database.DB)
	commentRepo := persistence.NewCommentRepository(database.DB)
	userRepo := persistence.NewUserRepository(database.DB)
	outboxRepo := persistence.NewOutboxRepository(database.DB)

	commands := workflowapp.NewCommandService(
		appRepo, docRepo, commentRepo, userRepo,
		utils.NewSnowflakeID(*nodeID), m,
	)
	queries := workflowapp.NewQueryService(appRepo, docRepo, commentRepo, userRepo)

	// 8. 启动发件箱中继与证书事件消费
	relay := messaging.NewOutboxRelay(outboxRepo, producer, m)
	go relay.Run(ctx)

	certHandler := consumer.NewCertificateIssuedHandler(commands)
	go func() {
		if err := certConsumer.Run(ctx, certHandler.Handle); err != nil {
			logger.Error(ctx, "Certificate consumer stopped with error", "error", err)
		}
	}()

	// 9. 启动 HTTP 服务
	if cfg.Environment == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(
		middleware.GinRecoveryMiddleware(),
		middleware.GinLoggingMiddleware(),
		middleware.GinCORSMiddleware(),
		middleware.RateLimitMiddleware(ratelimit.NewRedisRateLimiter(redisCache.GetClient()), cfg.RateLimit),
	)

	handler := workflowhttp.NewWorkflowHandler(commands, queries)
	handler.RegisterRoutes(router)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info(ctx, "HTTP server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(ctx, "HTTP server failed", "error", err)
		}
	}()

	// 10. 优雅关停
	<-ctx.Done()
	logger.Info(context.Background(), "Shutting down workflow service")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "HTTP server shutdown failed", "error", err)
	}

	logger.Info(context.Background(), "Workflow service stopped")
}
