package persistence

import (
	"context"
	"errors"

	"github.com/rgbportal/fboauthorization/internal/workflow/domain"
	"gorm.io/gorm"
)

// DocumentRepositoryImpl 材料仓储 GORM 实现
type DocumentRepositoryImpl struct {
	db *gorm.DB
}

// NewDocumentRepository 创建材料仓储
func NewDocumentRepository(db *gorm.DB) domain.DocumentRepository {
	return &DocumentRepositoryImpl{db: db}
}

// Save 保存材料（新建或覆盖），同事务写入发件箱
func (r *DocumentRepositoryImpl) Save(ctx context.Context, doc *domain.Document, events []*domain.OutboxMessage) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(doc).Error; err != nil {
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

// FindByApplication 申请的全部已上传材料
func (r *DocumentRepositoryImpl) FindByApplication(ctx context.Context, applicationID int64) ([]domain.Document, error) {
	var docs []domain.Document
	err := r.db.WithContext(ctx).
		Where("application_id = ?", applicationID).
		Order("uploaded_at ASC").
		Find(&docs).Error
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// FindByType 按类型查询单份材料
func (r *DocumentRepositoryImpl) FindByType(ctx context.Context, applicationID int64, docType domain.DocumentType) (*domain.Document, error) {
	var doc domain.Document
	err := r.db.WithContext(ctx).
		Where("application_id = ? AND type = ?", applicationID, docType).
		First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, err
	}
	return &doc, nil
}
