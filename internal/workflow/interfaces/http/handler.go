// Package http 工作流服务的 HTTP 接口层
package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rgbportal/fboauthorization/internal/workflow/application"
	"github.com/rgbportal/fboauthorization/internal/workflow/domain"
	"github.com/rgbportal/fboauthorization/pkg/middleware"
	"github.com/rgbportal/fboauthorization/pkg/response"
)

// WorkflowHandler 工作流 HTTP 处理器
type WorkflowHandler struct {
	commands *application.CommandService
	queries  *application.QueryService
}

// NewWorkflowHandler 创建工作流 HTTP 处理器
func NewWorkflowHandler(commands *application.CommandService, queries *application.QueryService) *WorkflowHandler {
	return &WorkflowHandler{
		commands: commands,
		queries:  queries,
	}
}

// RegisterRoutes 注册路由
func (h *WorkflowHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", h.Health)

	v1 := router.Group("/api/v1")
	v1.Use(middleware.GinActorMiddleware())
	{
		applications := v1.Group("/applications")
		{
			applications.POST("", h.SubmitApplication)
			applications.GET("", h.ListApplications)
			applications.GET("/queue", h.ListQueue)
			applications.GET("/:id", h.GetApplication)
			applications.PUT("/:id/status", h.UpdateStatus)
			applications.GET("/:id/documents", h.GetDocumentStatus)
			applications.POST("/:id/documents", h.UploadDocument)
			applications.POST("/:id/documents/:type/validate", h.ValidateDocument)
			applications.GET("/:id/comments", h.ListComments)
			applications.POST("/:id/comments", h.AddComment)
		}

		users := v1.Group("/users")
		{
			users.POST("", h.CreateUser)
			users.GET("", h.ListUsers)
			users.GET("/:id", h.GetUser)
			users.PUT("/:id/role", h.AssignRole)
		}
	}
}

// Health 健康检查
func (h *WorkflowHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "workflow"})
}

// SubmitApplication 提交注册申请
func (h *WorkflowHandler) SubmitApplication(c *gin.Context) {
	var req application.SubmitApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, domain.CodeValidationFailed, err.Error(), nil)
		return
	}

	view, err := h.commands.SubmitApplication(c.Request.Context(), middleware.ActorID(c), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Created(c, view)
}

// GetApplication 申请详情
func (h *WorkflowHandler) GetApplication(c *gin.Context) {
	applicationID, ok := h.applicationID(c)
	if !ok {
		return
	}

	view, err := h.queries.GetApplication(c.Request.Context(), middleware.ActorID(c), applicationID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, view)
}

// ListApplications 申请列表
func (h *WorkflowHandler) ListApplications(c *gin.Context) {
	filter := domain.ApplicationFilter{
		Status:   domain.Status(c.Query("status")),
		District: c.Query("district"),
		Province: c.Query("province"),
	}
	page, pageSize := h.pageParams(c)

	view, err := h.queries.ListApplications(c.Request.Context(), middleware.ActorID(c), filter, page, pageSize)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, view)
}

// ListQueue 调用方角色的待办队列
func (h *WorkflowHandler) ListQueue(c *gin.Context) {
	page, pageSize := h.pageParams(c)

	view, err := h.queries.ListQueue(c.Request.Context(), middleware.ActorID(c), page, pageSize)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, view)
}

// UpdateStatus 执行状态转移
func (h *WorkflowHandler) UpdateStatus(c *gin.Context) {
	applicationID, ok := h.applicationID(c)
	if !ok {
		return
	}

	var req application.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, domain.CodeValidationFailed, err.Error(), nil)
		return
	}

	view, err := h.commands.UpdateStatus(c.Request.Context(), middleware.ActorID(c), applicationID, req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, view)
}

// GetDocumentStatus 材料清单与上传情况
func (h *WorkflowHandler) GetDocumentStatus(c *gin.Context) {
	applicationID, ok := h.applicationID(c)
	if !ok {
		return
	}

	views, err := h.queries.GetDocumentStatus(c.Request.Context(), applicationID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, views)
}

// UploadDocument 上传或重新上传材料
func (h *WorkflowHandler) UploadDocument(c *gin.Context) {
	applicationID, ok := h.applicationID(c)
	if !ok {
		return
	}

	var req application.UploadDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, domain.CodeValidationFailed, err.Error(), nil)
		return
	}

	doc, err := h.commands.UploadDocument(c.Request.Context(), middleware.ActorID(c), applicationID, req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Created(c, doc)
}

// ValidateDocument 审查人核验材料
func (h *WorkflowHandler) ValidateDocument(c *gin.Context) {
	applicationID, ok := h.applicationID(c)
	if !ok {
		return
	}

	doc, err := h.commands.ValidateDocument(
		c.Request.Context(), middleware.ActorID(c),
		applicationID, domain.DocumentType(c.Param("type")),
	)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, doc)
}

// ListComments 审批意见列表
func (h *WorkflowHandler) ListComments(c *gin.Context) {
	applicationID, ok := h.applicationID(c)
	if !ok {
		return
	}
	page, pageSize := h.pageParams(c)

	view, err := h.queries.ListComments(c.Request.Context(), applicationID, page, pageSize)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, view)
}

// AddComment 追加审批意见
func (h *WorkflowHandler) AddComment(c *gin.Context) {
	applicationID, ok := h.applicationID(c)
	if !ok {
		return
	}

	var req application.AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, domain.CodeValidationFailed, err.Error(), nil)
		return
	}

	comment, err := h.commands.AddComment(c.Request.Context(), middleware.ActorID(c), applicationID, req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Created(c, comment)
}

// CreateUser 创建用户
func (h *WorkflowHandler) CreateUser(c *gin.Context) {
	var req application.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, domain.CodeValidationFailed, err.Error(), nil)
		return
	}

	user, err := h.commands.CreateUser(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Created(c, user)
}

// GetUser 用户详情
func (h *WorkflowHandler) GetUser(c *gin.Context) {
	user, err := h.queries.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, user)
}

// ListUsers 用户列表
func (h *WorkflowHandler) ListUsers(c *gin.Context) {
	page, pageSize := h.pageParams(c)

	view, err := h.queries.ListUsers(c.Request.Context(), domain.Role(c.Query("role")), page, pageSize)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, view)
}

// AssignRole 变更用户角色
func (h *WorkflowHandler) AssignRole(c *gin.Context) {
	var req application.AssignRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, domain.CodeValidationFailed, err.Error(), nil)
		return
	}

	user, err := h.commands.AssignRole(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, user)
}

func (h *WorkflowHandler) applicationID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, domain.CodeValidationFailed, "invalid application id", nil)
		return 0, false
	}
	return id, true
}

func (h *WorkflowHandler) pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	return page, pageSize
}

// writeError 将领域错误映射为 HTTP 响应
func (h *WorkflowHandler) writeError(c *gin.Context, err error) {
	var domainErr *domain.Error
	if !errors.As(err, &domainErr) {
		response.Error(c, http.StatusInternalServerError, domain.CodeInternal, "internal server error", nil)
		return
	}

	status := http.StatusInternalServerError
	switch domainErr.Code {
	case domain.CodeValidationFailed:
		status = http.StatusBadRequest
	case domain.CodeForbiddenTransition:
		status = http.StatusForbidden
	case domain.CodeNotFound:
		status = http.StatusNotFound
	case domain.CodeStaleState:
		status = http.StatusConflict
	case domain.CodeDocumentsIncomplete:
		status = http.StatusUnprocessableEntity
	}
	response.Error(c, status, domainErr.Code, domainErr.Message, domainErr.Details)
}
