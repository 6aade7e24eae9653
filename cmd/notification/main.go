// 通知服务入口：消费状态变更事件并分发邮件/Webhook 通知
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	notifapp "github.com/rgbportal/fboauthorization/internal/notification/application"
	"github.com/rgbportal/fboauthorization/internal/notification/domain"
	"github.com/rgbportal/fboauthorization/internal/notification/infrastructure/persistence"
	"github.com/rgbportal/fboauthorization/internal/notification/infrastructure/sender"
	"github.com/rgbportal/fboauthorization/internal/notification/interfaces/consumer"
	notifhttp "github.com/rgbportal/fboauthorization/internal/notification/interfaces/http"
	"github.com/rgbportal/fboauthorization/pkg/config"
	"github.com/rgbportal/fboauthorization/pkg/db"
	"github.com/rgbportal/fboauthorization/pkg/logger"
	"github.com/rgbportal/fboauthorization/pkg/metrics"
	"github.com/rgbportal/fboauthorization/pkg/middleware"
	"github.com/rgbportal/fboauthorization/pkg/mq"
)

func main() {
	configPath := flag.String("config", "configs/notification/config.toml", "path to config file")
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

	logger.Info(ctx, "Starting notification service",
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

	if err := database.AutoMigrate(&domain.Notification{}); err != nil {
		logger.Fatal(ctx, "Failed to migrate database", "error", err)
	}

	// 4. 初始化 Kafka 消费者
	statusConsumer, err := mq.NewConsumer(mq.KafkaConfig{
		Brokers:         cfg.Kafka.Brokers,
		GroupID:         cfg.Kafka.GroupID,
		SessionTimeout:  cfg.Kafka.SessionTimeout,
		MaxRetries:      cfg.Kafka.MaxRetries,
		RetryBackoff:    cfg.Kafka.RetryBackoff,
		DeadLetterTopic: cfg.Kafka.DeadLetterTopic,
	}, []string{consumer.TopicApplicationStatusChanged})
	if err != nil {
		logger.Fatal(ctx, "Failed to create kafka consumer", "error", err)
	}
	defer statusConsumer.Close()

	// 5. 初始化指标
	m := metrics.New("notification")
	if cfg.Metrics.Enabled {
		if err := m.Register(); err != nil {
			logger.Fatal(ctx, "Failed to register metrics", "error", err)
		}
		if err := metrics.StartHTTPServer(cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
			logger.Fatal(ctx, "Failed to start metrics server", "error", err)
		}
	}

	// 6. 组装依赖。SMTP 与 Webhook 地址来自环境变量，未配置时两个渠道均为 dry-run。
	smtpPort, _ := strconv.Atoi(config.GetEnv("APP_SMTP_PORT", "587"))
	senders := []domain.Sender{
		sender.NewEmailSender(
			config.GetEnv("APP_SMTP_HOST", ""),
			smtpPort,
			config.GetEnv("APP_SMTP_USERNAME", ""),
			config.GetEnv("APP_SMTP_PASSWORD", ""),
			config.GetEnv("APP_SMTP_FROM", "noreply@fbo.gov"),
		),
		sender.NewWebhookSender(config.GetEnv("APP_WEBHOOK_URL", "")),
	}

	repo := persistence.NewNotificationRepository(database.DB)
	dispatch := notifapp.NewDispatchService(repo, senders, m)

	// 7. 启动事件消费
	statusHandler := consumer.NewStatusChangedHandler(dispatch)
	go func() {
		if err := statusConsumer.Run(ctx, statusHandler.Handle); err != nil {
			logger.Error(ctx, "Status changed consumer stopped with error", "error", err)
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

	handler := notifhttp.NewNotificationHandler(dispatch)
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
	logger.Info(context.Background(), "Shutting down notification service")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "HTTP server shutdown failed", "error", err)
	}

	logger.Info(context.Background(), "Notification service stopped")
}
