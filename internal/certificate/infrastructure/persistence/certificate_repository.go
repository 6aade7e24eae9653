// Package persistence 证书服务的 GORM 仓储实现
package persistence

import (
	"context"
	"errors"

	"github.com/rgbportal/fboauthorization/internal/certificate/domain"
	"gorm.io/gorm"
)

// CertificateRepositoryImpl 证书仓储 GORM 实现
type CertificateRepositoryImpl struct {
	db *gorm.DB
}

// NewCertificateRepository 创建证书仓储
func NewCertificateRepository(db *gorm.DB) domain.CertificateRepository {
	return &CertificateRepositoryImpl{db: db}
}

// Create 落库新证书
func (r *CertificateRepositoryImpl) Create(ctx context.Context, cert *domain.Certificate) error {
	return r.db.WithContext(ctx).Create(cert).Error
}

// GetByApplicationID 按申请 ID 查询
func (r *CertificateRepositoryImpl) GetByApplicationID(ctx context.Context, applicationID int64) (*domain.Certificate, error) {
	var cert domain.Certificate
	err := r.db.WithContext(ctx).Where("application_id = ?", applicationID).First(&cert).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, err
	}
	return &cert, nil
}

// GetByNumber 按证书编号查询
func (r *CertificateRepositoryImpl) GetByNumber(ctx context.Context, number string) (*domain.Certificate, error) {
	var cert domain.Certificate
	err := r.db.WithContext(ctx).Where("certificate_number = ?", number).First(&cert).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, err
	}
	return &cert, nil
}

// List 证书列表，新签发的在前
func (r *CertificateRepositoryImpl) List(ctx context.Context, offset, limit int) ([]domain.Certificate, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&domain.Certificate{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var certs []domain.Certificate
	err := r.db.WithContext(ctx).
		Order("issued_at DESC").
		Offset(offset).Limit(limit).
		Find(&certs).Error
	if err != nil {
		return nil, 0, err
	}
	return certs, total, nil
}

// VerificationRepositoryImpl 核验记录仓储 GORM 实现
type VerificationRepositoryImpl struct {
	db *gorm.DB
}

// NewVerificationRepository 创建核验记录仓储
func NewVerificationRepository(db *gorm.DB) domain.VerificationRepository {
	return &VerificationRepositoryImpl{db: db}
}

// Create 落库核验记录
func (r *VerificationRepositoryImpl) Create(ctx context.Context, record *domain.VerificationRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// ListByNumber 某证书的核验记录，按时间倒序
func (r *VerificationRepositoryImpl) ListByNumber(ctx context.Context, number string, offset, limit int) ([]domain.VerificationRecord, int64, error) {
	query := r.db.WithContext(ctx).Model(&domain.VerificationRecord{}).Where("certificate_number = ?", number)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var records []domain.VerificationRecord
	err := query.Order("verified_at DESC").Offset(offset).Limit(limit).Find(&records).Error
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}
