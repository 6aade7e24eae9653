// Package domain 证书服务的领域模型：注册证书与公开核验记录
package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// ErrRecordNotFound 记录不存在
var ErrRecordNotFound = errors.New("record not found")

// Certificate 注册证书。一份申请最多一张证书，重复签发请求幂等返回。
type Certificate struct {
	gorm.Model
	ApplicationID     int64     `gorm:"uniqueIndex;not null;comment:业务申请ID" json:"application_id"`
	CertificateNumber string    `gorm:"uniqueIndex;type:varchar(64);not null;comment:证书编号" json:"certificate_number"`
	OrgName           string    `gorm:"type:varchar(255);not null;comment:组织名称" json:"org_name"`
	Acronym           string    `gorm:"type:varchar(64);comment:组织简称" json:"acronym,omitempty"`
	District          string    `gorm:"type:varchar(128);comment:所在区" json:"district"`
	Province          string    `gorm:"type:varchar(128);comment:所在省" json:"province"`
	IssuedAt          time.Time `gorm:"not null;comment:签发时间" json:"issued_at"`
	ExpiresAt         time.Time `gorm:"not null;comment:到期时间" json:"expires_at"`
}

// TableName 指定表名
func (Certificate) TableName() string {
	return "certificates"
}

// 证书有效期
const validityYears = 5

// NewCertificate 签发证书，编号由签发序号生成
func NewCertificate(applicationID, serial int64, orgName, acronym, district, province string) *Certificate {
	now := time.Now()
	return &Certificate{
		ApplicationID:     applicationID,
		CertificateNumber: FormatCertificateNumber(now.Year(), serial),
		OrgName:           orgName,
		Acronym:           acronym,
		District:          district,
		Province:          province,
		IssuedAt:          now,
		ExpiresAt:         now.AddDate(validityYears, 0, 0),
	}
}

// FormatCertificateNumber 证书编号格式：FBO-<年份>-<序号>
func FormatCertificateNumber(year int, serial int64) string {
	return fmt.Sprintf("FBO-%d-%d", year, serial)
}

// IsExpired 证书是否已过期
func (c *Certificate) IsExpired() bool {
	return time.Now().After(c.ExpiresAt)
}

// VerificationRecord 公开核验记录
type VerificationRecord struct {
	gorm.Model
	CertificateNumber string    `gorm:"index;type:varchar(64);not null;comment:证书编号" json:"certificate_number"`
	ClientIP          string    `gorm:"type:varchar(64);comment:来源IP" json:"client_ip"`
	Found             bool      `gorm:"not null;comment:是否命中" json:"found"`
	VerifiedAt        time.Time `gorm:"not null;comment:核验时间" json:"verified_at"`
}

// TableName 指定表名
func (VerificationRecord) TableName() string {
	return "certificate_verifications"
}

// CertificateRepository 证书仓储
type CertificateRepository interface {
	Create(ctx context.Context, cert *Certificate) error
	GetByApplicationID(ctx context.Context, applicationID int64) (*Certificate, error)
	GetByNumber(ctx context.Context, number string) (*Certificate, error)
	List(ctx context.Context, offset, limit int) ([]Certificate, int64, error)
}

// VerificationRepository 核验记录仓储
type VerificationRepository interface {
	Create(ctx context.Context, record *VerificationRecord) error
	ListByNumber(ctx context.Context, number string, offset, limit int) ([]VerificationRecord, int64, error)
}
