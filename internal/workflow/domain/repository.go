package domain

import (
	"context"
	"errors"
)

// ErrStaleUpdate 守卫更新未命中任何行，调用方看到的状态已过期
var ErrStaleUpdate = errors.New("application state changed concurrently")

// ErrRecordNotFound 记录不存在
var ErrRecordNotFound = errors.New("record not found")

// ApplicationFilter 申请列表过滤条件
type ApplicationFilter struct {
	ApplicantID string
	Status      Status
	District    string
	Province    string
}

// ApplicationRepository 申请仓储。写操作与发件箱条目同事务落库。
type ApplicationRepository interface {
	// Create 新建申请并写入发件箱
	Create(ctx context.Context, app *Application, events []*OutboxMessage) error
	// GetByApplicationID 按业务 ID 查询
	GetByApplicationID(ctx context.Context, applicationID int64) (*Application, error)
	// List 分页列表
	List(ctx context.Context, filter ApplicationFilter, offset, limit int) ([]Application, int64, error)
	// Transition 原子落实一次状态转移：以 from 为守卫条件更新申请行，
	// 同事务写入审计意见与发件箱。守卫未命中返回 ErrStaleUpdate。
	Transition(ctx context.Context, app *Application, from Status, comment *Comment, events []*OutboxMessage) error
}

// DocumentRepository 材料仓储
type DocumentRepository interface {
	Save(ctx context.Context, doc *Document, events []*OutboxMessage) error
	FindByApplication(ctx context.Context, applicationID int64) ([]Document, error)
	FindByType(ctx context.Context, applicationID int64, docType DocumentType) (*Document, error)
}

// CommentRepository 审批意见仓储，只增不改
type CommentRepository interface {
	Create(ctx context.Context, comment *Comment) error
	ListByApplication(ctx context.Context, applicationID int64, offset, limit int) ([]Comment, int64, error)
}

// UserRepository 用户仓储
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByUserID(ctx context.Context, userID string) (*User, error)
	List(ctx context.Context, role Role, offset, limit int) ([]User, int64, error)
	Update(ctx context.Context, user *User) error
}

// OutboxRepository 发件箱仓储，供中继轮询
type OutboxRepository interface {
	FetchPending(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkPublished(ctx context.Context, msg *OutboxMessage) error
	IncrementRetry(ctx context.Context, msg *OutboxMessage) error
}
