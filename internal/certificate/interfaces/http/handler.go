// Package http 证书服务的 HTTP 接口层。核验端点面向公众，不要求调用方身份。
package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rgbportal/fboauthorization/internal/certificate/application"
	"github.com/rgbportal/fboauthorization/internal/certificate/domain"
	"github.com/rgbportal/fboauthorization/pkg/middleware"
	"github.com/rgbportal/fboauthorization/pkg/response"
)

// CertificateHandler 证书 HTTP 处理器
type CertificateHandler struct {
	service *application.CertificateService
}

// NewCertificateHandler 创建证书 HTTP 处理器
func NewCertificateHandler(service *application.CertificateService) *CertificateHandler {
	return &CertificateHandler{service: service}
}

// RegisterRoutes 注册路由
func (h *CertificateHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", h.Health)

	// 公开核验，无需网关身份
	router.GET("/api/v1/certificates/verify/:number", h.Verify)

	v1 := router.Group("/api/v1/certificates")
	v1.Use(middleware.GinActorMiddleware())
	{
		v1.GET("", h.List)
		v1.GET("/applications/:id", h.GetByApplication)
		v1.GET("/:number/verifications", h.ListVerifications)
	}
}

// Health 健康检查
func (h *CertificateHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "certificate"})
}

// Verify 公开核验证书编号
func (h *CertificateHandler) Verify(c *gin.Context) {
	result, err := h.service.Verify(c.Request.Context(), c.Param("number"), c.ClientIP())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL", "internal server error", nil)
		return
	}
	response.Success(c, result)
}

// GetByApplication 按申请查询证书
func (h *CertificateHandler) GetByApplication(c *gin.Context) {
	applicationID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_FAILED", "invalid application id", nil)
		return
	}

	cert, err := h.service.GetByApplication(c.Request.Context(), applicationID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "certificate not found", nil)
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL", "internal server error", nil)
		return
	}
	response.Success(c, cert)
}

// List 证书列表
func (h *CertificateHandler) List(c *gin.Context) {
	page, pageSize := h.pageParams(c)

	view, err := h.service.List(c.Request.Context(), page, pageSize)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL", "internal server error", nil)
		return
	}
	response.Success(c, view)
}

// ListVerifications 某证书的核验记录
func (h *CertificateHandler) ListVerifications(c *gin.Context) {
	page, pageSize := h.pageParams(c)

	view, err := h.service.ListVerifications(c.Request.Context(), c.Param("number"), page, pageSize)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL", "internal server error", nil)
		return
	}
	response.Success(c, view)
}

func (h *CertificateHandler) pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	return page, pageSize
}
