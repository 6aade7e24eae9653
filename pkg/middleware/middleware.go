// Package middleware 提供 Gin 通用中间件（日志、panic recover、CORS、限流、调用方身份）
package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rgbportal/fboauthorization/pkg/logger"
)

// ActorIDHeader 网关注入的调用方用户 ID 请求头。认证与会话签发在网关侧完成。
const ActorIDHeader = "X-User-ID"

// ActorIDKey gin context 中的调用方用户 ID 键
const ActorIDKey = "actor_id"

// RequestIDKey gin context 中的 request ID 键
const RequestIDKey = "request_id"

// TraceIDKey gin context 中的 trace ID 键
const TraceIDKey = "trace_id"

// GinLoggingMiddleware Gin 日志中间件，注入 request_id/trace_id 并记录请求始末
func GinLoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.New().String()
		traceID := c.GetHeader("X-Trace-ID")
		if traceID == "" {
			traceID = uuid.New().String()
		}

		c.Set(RequestIDKey, requestID)
		c.Set(TraceIDKey, traceID)

		ctx := context.WithValue(c.Request.Context(), logger.TraceIDContextKey, traceID)
		ctx = context.WithValue(ctx, logger.RequestIDContextKey, requestID)
		c.Request = c.Request.WithContext(ctx)

		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		logger.Info(ctx, "HTTP request started",
			"method", method,
			"path", path,
			"client_ip", c.ClientIP(),
		)

		c.Next()

		logger.Info(ctx, "HTTP request completed",
			"method", method,
			"path", path,
			"status_code", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// GinRecoveryMiddleware Gin panic 恢复中间件
func GinRecoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				requestID, _ := c.Get(RequestIDKey)

				logger.Error(c.Request.Context(), "HTTP request panicked",
					"request_id", requestID,
					"panic", err,
				)

				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"code":       "INTERNAL",
					"message":    "internal server error",
					"request_id": requestID,
				})
			}
		}()
		c.Next()
	}
}

// GinCORSMiddleware Gin CORS 中间件
func GinCORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, Cache-Control, X-Requested-With, X-Trace-ID, X-User-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// GinActorMiddleware 从请求头提取调用方用户 ID。缺失时拒绝请求。
func GinActorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		actorID := c.GetHeader(ActorIDHeader)
		if actorID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    "VALIDATION_FAILED",
				"message": "missing " + ActorIDHeader + " header",
			})
			return
		}
		c.Set(ActorIDKey, actorID)
		c.Next()
	}
}

// ActorID 读取当前请求的调用方用户 ID
func ActorID(c *gin.Context) string {
	return c.GetString(ActorIDKey)
}
