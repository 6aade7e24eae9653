// Package http 通知服务的 HTTP 接口层
package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rgbportal/fboauthorization/internal/notification/application"
	"github.com/rgbportal/fboauthorization/pkg/middleware"
	"github.com/rgbportal/fboauthorization/pkg/response"
)

// NotificationHandler 通知 HTTP 处理器
type NotificationHandler struct {
	dispatch *application.DispatchService
}

// NewNotificationHandler 创建通知 HTTP 处理器
func NewNotificationHandler(dispatch *application.DispatchService) *NotificationHandler {
	return &NotificationHandler{dispatch: dispatch}
}

// RegisterRoutes 注册路由
func (h *NotificationHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", h.Health)

	v1 := router.Group("/api/v1/notifications")
	v1.Use(middleware.GinActorMiddleware())
	{
		v1.GET("/mine", h.ListMine)
		v1.GET("/applications/:id", h.ListByApplication)
	}
}

// Health 健康检查
func (h *NotificationHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "notification"})
}

// ListMine 调用方自己的通知
func (h *NotificationHandler) ListMine(c *gin.Context) {
	page, pageSize := h.pageParams(c)

	items, pagination, err := h.dispatch.ListByRecipient(
		c.Request.Context(), middleware.ActorID(c), page, pageSize,
	)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL", "internal server error", nil)
		return
	}
	response.Success(c, gin.H{"items": items, "pagination": pagination})
}

// ListByApplication 某申请的通知
func (h *NotificationHandler) ListByApplication(c *gin.Context) {
	applicationID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_FAILED", "invalid application id", nil)
		return
	}
	page, pageSize := h.pageParams(c)

	items, pagination, listErr := h.dispatch.ListByApplication(c.Request.Context(), applicationID, page, pageSize)
	if listErr != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL", "internal server error", nil)
		return
	}
	response.Success(c, gin.H{"items": items, "pagination": pagination})
}

func (h *NotificationHandler) pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	return page, pageSize
}
