// Package messaging 发件箱中继：把事务内落库的事件投递到 Kafka
package messaging

import (
	"context"
	"time"

	"github.com/rgbportal/fboauthorization/internal/workflow/domain"
	"github.com/rgbportal/fboauthorization/pkg/logger"
	"github.com/rgbportal/fboauthorization/pkg/metrics"
	"github.com/rgbportal/fboauthorization/pkg/mq"
)

// OutboxRelay 轮询发件箱并投递到 Kafka。投递失败只累加重试计数，
// 消息保持 PENDING 等待下一轮，保证至少一次送达。
type OutboxRelay struct {
	outboxRepo domain.OutboxRepository
	producer   *mq.KafkaProducer
	metrics    *metrics.Metrics
	interval   time.Duration
	batchSize  int
}

// NewOutboxRelay 创建发件箱中继
func NewOutboxRelay(outboxRepo domain.OutboxRepository, producer *mq.KafkaProducer, m *metrics.Metrics) *OutboxRelay {
	return &OutboxRelay{
		outboxRepo: outboxRepo,
		producer:   producer,
		metrics:    m,
		interval:   time.Second,
		batchSize:  100,
	}
}

// Run 中继循环，阻塞直到 ctx 取消
func (r *OutboxRelay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	logger.Info(ctx, "Outbox relay started", "interval", r.interval, "batch_size", r.batchSize)
	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Outbox relay stopped")
			return
		case <-ticker.C:
			r.relayBatch(ctx)
		}
	}
}

func (r *OutboxRelay) relayBatch(ctx context.Context) {
	messages, err := r.outboxRepo.FetchPending(ctx, r.batchSize)
	if err != nil {
		logger.Error(ctx, "Failed to fetch pending outbox messages", "error", err)
		return
	}
	if r.metrics != nil {
		r.metrics.OutboxPending.Set(float64(len(messages)))
	}
	if len(messages) == 0 {
		return
	}

	for i := range messages {
		msg := &messages[i]
		if err := r.producer.SendRaw(ctx, msg.Topic, msg.MessageKey, msg.Payload); err != nil {
			logger.Error(ctx, "Failed to relay outbox message",
				"outbox_id", msg.ID,
				"topic", msg.Topic,
				"retry_count", msg.RetryCount,
				"error", err,
			)
			if retryErr := r.outboxRepo.IncrementRetry(ctx, msg); retryErr != nil {
				logger.Error(ctx, "Failed to record outbox retry", "outbox_id", msg.ID, "error", retryErr)
			}
			continue
		}

		if err := r.outboxRepo.MarkPublished(ctx, msg); err != nil {
			// 消息已投出但状态未落库，下一轮会重投，消费端需幂等
			logger.Error(ctx, "Failed to mark outbox message published", "outbox_id", msg.ID, "error", err)
		}
	}
}
