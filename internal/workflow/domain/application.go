package domain

import (
	"time"

	"gorm.io/gorm"
)

// Application 注册申请聚合根
type Application struct {
	gorm.Model
	ApplicationID int64  `gorm:"uniqueIndex;not null;comment:业务申请ID" json:"application_id"`
	OrgName       string `gorm:"type:varchar(255);not null;comment:组织名称" json:"org_name"`
	Acronym       string `gorm:"type:varchar(64);comment:组织简称" json:"acronym"`
	ApplicantID   string `gorm:"type:varchar(64);index;not null;comment:申请人用户ID" json:"applicant_id"`
	District      string `gorm:"type:varchar(128);comment:所在区" json:"district"`
	Province      string `gorm:"type:varchar(128);comment:所在省" json:"province"`
	ContactEmail  string `gorm:"type:varchar(255);comment:联系邮箱" json:"contact_email"`
	ContactPhone  string `gorm:"type:varchar(32);comment:联系电话" json:"contact_phone"`
	Status        Status `gorm:"type:varchar(32);index;not null;comment:当前状态" json:"status"`
	// CanEdit 申请人是否可以编辑申请内容与材料，仅在 PASTOR_DOCUMENT 状态开放
	CanEdit           bool      `gorm:"not null;default:false" json:"can_edit"`
	CertificateNumber string    `gorm:"type:varchar(64);comment:证书编号" json:"certificate_number,omitempty"`
	SubmittedAt       time.Time `gorm:"not null;comment:提交时间" json:"submitted_at"`
	LastModified      time.Time `gorm:"not null;index;comment:最后状态变更时间" json:"last_modified"`
}

// TableName 指定表名
func (Application) TableName() string {
	return "applications"
}

// NewApplication 创建新申请，初始状态 PENDING
func NewApplication(applicationID int64, applicantID, orgName, acronym, district, province, email, phone string) (*Application, error) {
	if orgName == "" {
		return nil, NewValidationFailed("org_name is required")
	}
	if applicantID == "" {
		return nil, NewValidationFailed("applicant_id is required")
	}
	if district == "" || province == "" {
		return nil, NewValidationFailed("district and province are required")
	}

	now := time.Now()
	return &Application{
		ApplicationID: applicationID,
		OrgName:       orgName,
		Acronym:       acronym,
		ApplicantID:   applicantID,
		District:      district,
		Province:      province,
		ContactEmail:  email,
		ContactPhone:  phone,
		Status:        StatusPending,
		CanEdit:       false,
		SubmittedAt:   now,
		LastModified:  now,
	}, nil
}

// ApplyTransition 在聚合上落实一次已通过全部前置检查的状态转移。
// 编辑权随状态翻转：进入 PASTOR_DOCUMENT 解锁，离开即收回。
func (a *Application) ApplyTransition(to Status) {
	a.Status = to
	a.CanEdit = to == StatusPastorDocument
	a.LastModified = time.Now()
}

// StepIndex 当前进度条步骤
func (a *Application) StepIndex() int {
	return StepIndex(a.Status)
}

// IsTerminal 申请是否已到终态
func (a *Application) IsTerminal() bool {
	return a.Status.IsTerminal()
}
