// Package metrics 提供 Prometheus helper，包含 HTTP/数据库/业务指标模板
package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rgbportal/fboauthorization/pkg/logger"
)

// Metrics 指标集合
type Metrics struct {
	// HTTP 请求计数
	HTTPRequestsTotal prometheus.Counter
	// HTTP 请求耗时
	HTTPRequestDuration prometheus.Histogram

	// 数据库查询计数
	DBQueriesTotal prometheus.Counter
	// 数据库查询耗时
	DBQueryDuration prometheus.Histogram

	// 业务指标
	ApplicationsSubmitted prometheus.Counter
	TransitionsTotal      prometheus.Counter
	TransitionsRejected   *prometheus.CounterVec
	CertificatesIssued    prometheus.Counter
	NotificationsSent     prometheus.Counter
	OutboxPending         prometheus.Gauge
}

// New 创建指标实例
func New(serviceName string) *Metrics {
	return &Metrics{
		HTTPRequestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fbo",
			Subsystem: serviceName,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}),
		HTTPRequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "fbo",
			Subsystem: serviceName,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		DBQueriesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fbo",
			Subsystem: serviceName,
			Name:      "db_queries_total",
			Help:      "Total database queries",
		}),
		DBQueryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "fbo",
			Subsystem: serviceName,
			Name:      "db_query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		ApplicationsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fbo",
			Subsystem: serviceName,
			Name:      "applications_submitted_total",
			Help:      "Total authorization applications submitted",
		}),
		TransitionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fbo",
			Subsystem: serviceName,
			Name:      "status_transitions_total",
			Help:      "Total status transitions applied",
		}),
		TransitionsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fbo",
			Subsystem: serviceName,
			Name:      "status_transitions_rejected_total",
			Help:      "Status transitions rejected, by error code",
		}, []string{"code"}),
		CertificatesIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fbo",
			Subsystem: serviceName,
			Name:      "certificates_issued_total",
			Help:      "Total certificates issued",
		}),
		NotificationsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fbo",
			Subsystem: serviceName,
			Name:      "notifications_sent_total",
			Help:      "Total notifications dispatched",
		}),
		OutboxPending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "fbo",
			Subsystem: serviceName,
			Name:      "outbox_pending_messages",
			Help:      "Outbox messages waiting to be relayed",
		}),
	}
}

// Register 注册所有指标
func (m *Metrics) Register() error {
	collectors := []prometheus.Collector{
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.DBQueriesTotal,
		m.DBQueryDuration,
		m.ApplicationsSubmitted,
		m.TransitionsTotal,
		m.TransitionsRejected,
		m.CertificatesIssued,
		m.NotificationsSent,
		m.OutboxPending,
	}

	for _, collector := range collectors {
		if err := prometheus.DefaultRegisterer.Register(collector); err != nil {
			logger.Error(context.Background(), "Failed to register metric", "error", err)
			return err
		}
	}

	logger.Info(context.Background(), "Metrics registered successfully")
	return nil
}

// StartHTTPServer 启动 Prometheus HTTP 服务器
func StartHTTPServer(port int, path string) error {
	if path == "" {
		path = "/metrics"
	}

	mux := http.NewServeMux()
	mux.Handle(path, promhttp.Handler())

	addr := fmt.Sprintf(":%d", port)
	logger.Info(context.Background(), "Starting Prometheus HTTP server", "addr", addr, "path", path)

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error(context.Background(), "Failed to start Prometheus HTTP server", "error", err)
		}
	}()

	return nil
}
