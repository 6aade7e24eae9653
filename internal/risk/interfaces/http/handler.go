// Package http 风险评估服务的 HTTP 接口层
package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rgbportal/fboauthorization/internal/risk/application"
	"github.com/rgbportal/fboauthorization/internal/risk/domain"
	"github.com/rgbportal/fboauthorization/pkg/middleware"
	"github.com/rgbportal/fboauthorization/pkg/response"
)

// RiskHandler 风险评估 HTTP 处理器
type RiskHandler struct {
	queries *application.QueryService
}

// NewRiskHandler 创建风险评估 HTTP 处理器
func NewRiskHandler(queries *application.QueryService) *RiskHandler {
	return &RiskHandler{queries: queries}
}

// RegisterRoutes 注册路由
func (h *RiskHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", h.Health)

	v1 := router.Group("/api/v1/risk")
	v1.Use(middleware.GinActorMiddleware())
	{
		v1.GET("/applications", h.ListByBucket)
		v1.GET("/applications/:id/score", h.GetScore)
		v1.GET("/applications/:id/audit", h.ListAudit)
	}
}

// Health 健康检查
func (h *RiskHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "risk"})
}

// GetScore 申请的风险评分
func (h *RiskHandler) GetScore(c *gin.Context) {
	applicationID, ok := h.applicationID(c)
	if !ok {
		return
	}

	score, err := h.queries.GetScore(c.Request.Context(), applicationID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "risk score not found", nil)
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL", "internal server error", nil)
		return
	}
	response.Success(c, score)
}

// ListByBucket 按风险分档查询申请评分
func (h *RiskHandler) ListByBucket(c *gin.Context) {
	page, pageSize := h.pageParams(c)

	view, err := h.queries.ListByBucket(
		c.Request.Context(),
		domain.RiskBucket(c.Query("bucket")),
		page, pageSize,
	)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL", "internal server error", nil)
		return
	}
	response.Success(c, view)
}

// ListAudit 申请的审计轨迹
func (h *RiskHandler) ListAudit(c *gin.Context) {
	applicationID, ok := h.applicationID(c)
	if !ok {
		return
	}
	page, pageSize := h.pageParams(c)

	view, err := h.queries.ListAudit(c.Request.Context(), applicationID, page, pageSize)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL", "internal server error", nil)
		return
	}
	response.Success(c, view)
}

func (h *RiskHandler) applicationID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_FAILED", "invalid application id", nil)
		return 0, false
	}
	return id, true
}

func (h *RiskHandler) pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	return page, pageSize
}
