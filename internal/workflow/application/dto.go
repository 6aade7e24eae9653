// Package application 工作流服务的应用层：状态转移执行器、材料与用户用例
package application

import (
	"time"

	"github.com/rgbportal/fboauthorization/internal/workflow/domain"
	"github.com/rgbportal/fboauthorization/pkg/utils"
)

// SubmitApplicationRequest 提交注册申请
type SubmitApplicationRequest struct {
	OrgName      string `json:"org_name" binding:"required"`
	Acronym      string `json:"acronym"`
	District     string `json:"district" binding:"required"`
	Province     string `json:"province" binding:"required"`
	ContactEmail string `json:"contact_email"`
	ContactPhone string `json:"contact_phone"`
}

// UpdateStatusRequest 执行一次状态转移
type UpdateStatusRequest struct {
	TargetStatus string `json:"target_status" binding:"required"`
	// ExpectedCurrentStatus 乐观并发检查：调用方最后看到的状态
	ExpectedCurrentStatus string `json:"expected_current_status" binding:"required"`
	Comment               string `json:"comment"`
}

// UploadDocumentRequest 上传或重新上传一份材料
type UploadDocumentRequest struct {
	Type        string `json:"type" binding:"required"`
	FileName    string `json:"file_name" binding:"required"`
	StorageKey  string `json:"storage_key" binding:"required"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
}

// AddCommentRequest 追加审批意见
type AddCommentRequest struct {
	Content string `json:"content" binding:"required"`
}

// CreateUserRequest 创建用户并分配角色
type CreateUserRequest struct {
	UserID   string `json:"user_id" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Role     string `json:"role" binding:"required"`
	District string `json:"district"`
}

// AssignRoleRequest 变更用户角色
type AssignRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// ApplicationView 申请详情视图
type ApplicationView struct {
	ApplicationID     int64           `json:"application_id"`
	OrgName           string          `json:"org_name"`
	Acronym           string          `json:"acronym,omitempty"`
	ApplicantID       string          `json:"applicant_id"`
	District          string          `json:"district"`
	Province          string          `json:"province"`
	ContactEmail      string          `json:"contact_email,omitempty"`
	ContactPhone      string          `json:"contact_phone,omitempty"`
	Status            domain.Status   `json:"status"`
	StepIndex         int             `json:"step_index"`
	CanEdit           bool            `json:"can_edit"`
	Terminal          bool            `json:"terminal"`
	CertificateNumber string          `json:"certificate_number,omitempty"`
	SubmittedAt       time.Time       `json:"submitted_at"`
	LastModified      time.Time       `json:"last_modified"`
	AllowedTargets    []domain.Status `json:"allowed_targets"`
}

// NewApplicationView 从聚合与调用方角色构造视图
func NewApplicationView(app *domain.Application, actorRole domain.Role) *ApplicationView {
	return &ApplicationView{
		ApplicationID:     app.ApplicationID,
		OrgName:           app.OrgName,
		Acronym:           app.Acronym,
		ApplicantID:       app.ApplicantID,
		District:          app.District,
		Province:          app.Province,
		ContactEmail:      app.ContactEmail,
		ContactPhone:      app.ContactPhone,
		Status:            app.Status,
		StepIndex:         app.StepIndex(),
		CanEdit:           app.CanEdit,
		Terminal:          app.IsTerminal(),
		CertificateNumber: app.CertificateNumber,
		SubmittedAt:       app.SubmittedAt,
		LastModified:      app.LastModified,
		AllowedTargets:    domain.AllowedTransitions(actorRole, app.Status),
	}
}

// ApplicationListView 申请分页列表
type ApplicationListView struct {
	Items      []ApplicationView `json:"items"`
	Pagination *utils.Pagination `json:"pagination"`
}

// DocumentStatusView 材料清单条目与上传情况
type DocumentStatusView struct {
	Type        domain.DocumentType `json:"type"`
	Name        string              `json:"name"`
	Required    bool                `json:"required"`
	Uploaded    bool                `json:"uploaded"`
	Valid       bool                `json:"valid"`
	FileName    string              `json:"file_name,omitempty"`
	UploadedAt  *time.Time          `json:"uploaded_at,omitempty"`
	ValidatedBy string              `json:"validated_by,omitempty"`
}

// CommentListView 审批意见分页列表
type CommentListView struct {
	Items      []domain.Comment  `json:"items"`
	Pagination *utils.Pagination `json:"pagination"`
}

// UserListView 用户分页列表
type UserListView struct {
	Items      []domain.User     `json:"items"`
	Pagination *utils.Pagination `json:"pagination"`
}
