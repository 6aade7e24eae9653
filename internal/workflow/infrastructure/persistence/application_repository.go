// Package persistence 工作流服务的 GORM 仓储实现
package persistence

import (
	"context"
	"errors"

	"github.com/rgbportal/fboauthorization/internal/workflow/domain"
	"gorm.io/gorm"
)

// ApplicationRepositoryImpl 申请仓储 GORM 实现
type ApplicationRepositoryImpl struct {
	db *gorm.DB
}

// NewApplicationRepository 创建申请仓储
func NewApplicationRepository(db *gorm.DB) domain.ApplicationRepository {
	return &ApplicationRepositoryImpl{db: db}
}

// Create 新建申请，同事务写入发件箱
func (r *ApplicationRepositoryImpl) Create(ctx context.Context, app *domain.Application, events []*domain.OutboxMessage) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(app).Error; err != nil {
			return err
		}
		for _, event := range events {
			if err := tx.Create(event).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// GetByApplicationID 按业务 ID 查询
func (r *ApplicationRepositoryImpl) GetByApplicationID(ctx context.Context, applicationID int64) (*domain.Application, error) {
	var app domain.Application
	err := r.db.WithContext(ctx).Where("application_id = ?", applicationID).First(&app).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, err
	}
	return &app, nil
}

// List 分页列表，按最后变更时间倒序
func (r *ApplicationRepositoryImpl) List(ctx context.Context, filter domain.ApplicationFilter, offset, limit int) ([]domain.Application, int64, error) {
	query := r.db.WithContext(ctx).Model(&domain.Application{})

	if filter.ApplicantID != "" {
		query = query.Where("applicant_id = ?", filter.ApplicantID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.District != "" {
		query = query.Where("district = ?", filter.District)
	}
	if filter.Province != "" {
		query = query.Where("province = ?", filter.Province)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var apps []domain.Application
	err := query.Order("last_modified DESC").Offset(offset).Limit(limit).Find(&apps).Error
	if err != nil {
		return nil, 0, err
	}
	return apps, total, nil
}

// Transition 原子落实一次状态转移。状态列作守卫条件，
// 未命中任何行说明并发修改，返回 ErrStaleUpdate 并回滚整个事务。
func (r *ApplicationRepositoryImpl) Transition(ctx context.Context, app *domain.Application, from domain.Status, comment *domain.Comment, events []*domain.OutboxMessage) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&domain.Application{}).
			Where("application_id = ? AND status = ?", app.ApplicationID, from).
			Updates(map[string]interface{}{
				"status":             app.Status,
				"can_edit":           app.CanEdit,
				"certificate_number": app.CertificateNumber,
				"last_modified":      app.LastModified,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrStaleUpdate
		}

		if comment != nil {
			if err := tx.Create(comment).Error; err != nil {
				return err
			}
		}
		for _, event := range events {
			if err := tx.Create(event).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
