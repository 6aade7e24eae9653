// 证书服务入口：消费批准事件、签发证书、对外提供公开核验
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

	certapp "github.com/rgbportal/fboauthorization/internal/certificate/application"
	"github.com/rgbportal/fboauthorization/internal/certificate/domain"
	"github.com/rgbportal/fboauthorization/internal/certificate/infrastructure/persistence"
	"github.com/rgbportal/fboauthorization/internal/certificate/interfaces/consumer"
	certhttp "github.com/rgbportal/fboauthorization/internal/certificate/interfaces/http"
	"github.com/rgbportal/fboauthorization/pkg/config"
	"github.com/rgbportal/fboauthorization/pkg/db"
	"github.com/rgbportal/fboauthorization/pkg/logger"
	"github.com/rgbportal/fboauthorization/pkg/metrics"
	"github.com/rgbportal/fboauthorization/pkg/middleware"
	"github.com/rgbportal/fboauthorization/pkg/mq"
	"github.com/rgbportal/fboauthorization/pkg/utils"
)

func main() {
	configPath := flag.String("config", "configs/certificate/config.toml", "path to config file")
	nodeID := flag.Int64("node", 2, "snowflake node id")
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

	logger.Info(ctx, "Starting certificate service",
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
		&domain.Certificate{},
		&domain.VerificationRecord{},
	); err != nil {
		logger.Fatal(ctx, "Failed to migrate database", "error", err)
	}

	// 4. 初始化 Kafka
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

	approvedConsumer, err := mq.NewConsumer(kafkaCfg, []string{consumer.TopicApplicationApproved})
	if err != nil {
		logger.Fatal(ctx, "Failed to create kafka consumer", "error", err)
	}
	defer approvedConsumer.Close()

	// 5. 初始化指标
	m := metrics.New("certificate")
	if cfg.Metrics.Enabled {
		if err := m.Register(); err != nil {
			logger.Fatal(ctx, "Failed to register metrics", "error", err)
		}
		if err := metrics.StartHTTPServer(cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
			logger.Fatal(ctx, "Failed to start metrics server", "error", err)
		}
	}

	// 6. 组装依赖
	certRepo := persistence.NewCertificateRepository(database.DB)
	verifyRepo := persistence.NewVerificationRepository(database.DB)

	service := certapp.NewCertificateService(
		certRepo, verifyRepo, producer,
		utils.NewSnowflakeID(*nodeID), m,
	)

	// 7. 启动批准事件消费
	approvedHandler := consumer.NewApprovedHandler(service)
	go func() {
		if err := approvedConsumer.Run(ctx, approvedHandler.Handle); err != nil {
			logger.Error(ctx, "Approved consumer stopped with error", "error", err)
		}
	}()

	// 8. 启动 HTTP 服务
	if cfg.Environment == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(
		middleware.GinRecoveryMiddleware(),
		middleware.GinLoggingMiddleware(),
		middleware.GinCORSMiddleware(),
	)

	handler := certhttp.NewCertificateHandler(service)
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

	// 9. 优雅关停
	<-ctx.Done()
	logger.Info(context.Background(), "Shutting down certificate service")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "HTTP server shutdown failed", "error", err)
	}

	logger.Info(context.Background(), "Certificate service stopped")
}
