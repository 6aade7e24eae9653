package persistence

import (
	"context"
	"errors"

	"github.com/rgbportal/fboauthorization/internal/workflow/domain"
	"gorm.io/gorm"
)

// UserRepositoryImpl 用户仓储 GORM 实现
type UserRepositoryImpl struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓储
func NewUserRepository(db *gorm.DB) domain.UserRepository {
	return &UserRepositoryImpl{db: db}
}

// Create 创建用户
func (r *UserRepositoryImpl) Create(ctx context.Context, user *domain.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// GetByUserID 按用户 ID 查询
func (r *UserRepositoryImpl) GetByUserID(ctx context.Context, userID string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, err
	}
	return &user, nil
}

// List 用户列表，可按角色过滤
func (r *UserRepositoryImpl) List(ctx context.Context, role domain.Role, offset, limit int) ([]domain.User, int64, error) {
	query := r.db.WithContext(ctx).Model(&domain.User{})
	if role != "" {
		query = query.Where("role = ?", role)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []domain.User
	err := query.Order("user_id ASC").Offset(offset).Limit(limit).Find(&users).Error
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// Update 更新用户
func (r *UserRepositoryImpl) Update(ctx context.Context, user *domain.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}
