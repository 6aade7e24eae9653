package domain

import (
	"time"

	"gorm.io/gorm"
)

// Comment 审批意见，追加后不可修改，构成申请的审计轨迹
type Comment struct {
	gorm.Model
	ApplicationID int64  `gorm:"index;not null;comment:业务申请ID" json:"application_id"`
	AuthorID      string `gorm:"type:varchar(64);not null;comment:留言人用户ID" json:"author_id"`
	AuthorRole    Role   `gorm:"type:varchar(32);not null;comment:留言人角色" json:"author_role"`
	Content       string `gorm:"type:text;not null;comment:意见内容" json:"content"`
	// FromStatus/ToStatus 仅当意见随状态转移产生时填写
	FromStatus Status    `gorm:"type:varchar(32);comment:转移前状态" json:"from_status,omitempty"`
	ToStatus   Status    `gorm:"type:varchar(32);comment:转移后状态" json:"to_status,omitempty"`
	WrittenAt  time.Time `gorm:"not null;comment:留言时间" json:"written_at"`
}

// TableName 指定表名
func (Comment) TableName() string {
	return "application_comments"
}

// NewComment 创建独立意见
func NewComment(applicationID int64, authorID string, authorRole Role, content string) (*Comment, error) {
	if content == "" {
		return nil, NewValidationFailed("comment content is required")
	}
	return &Comment{
		ApplicationID: applicationID,
		AuthorID:      authorID,
		AuthorRole:    authorRole,
		Content:       content,
		WrittenAt:     time.Now(),
	}, nil
}

// NewTransitionComment 创建随状态转移产生的审计意见
func NewTransitionComment(applicationID int64, authorID string, authorRole Role, content string, from, to Status) *Comment {
	return &Comment{
		ApplicationID: applicationID,
		AuthorID:      authorID,
		AuthorRole:    authorRole,
		Content:       content,
		FromStatus:    from,
		ToStatus:      to,
		WrittenAt:     time.Now(),
	}
}
