package domain

import (
	"time"

	"gorm.io/gorm"
)

// AuditEntry 状态变更审计条目，由工作流事件投影而来。
// 唯一索引挡掉重复投递：同一次转移只落一条。
type AuditEntry struct {
	gorm.Model
	ApplicationID int64     `gorm:"index;uniqueIndex:idx_audit_dedupe;not null;comment:业务申请ID" json:"application_id"`
	FromStatus    string    `gorm:"type:varchar(32);not null;comment:转移前状态" json:"from_status"`
	ToStatus      string    `gorm:"uniqueIndex:idx_audit_dedupe;type:varchar(32);not null;comment:转移后状态" json:"to_status"`
	ActorID       string    `gorm:"type:varchar(64);not null;comment:操作人" json:"actor_id"`
	ActorRole     string    `gorm:"type:varchar(32);not null;comment:操作人角色" json:"actor_role"`
	Comment       string    `gorm:"type:text;comment:审批意见" json:"comment,omitempty"`
	OccurredAt    time.Time `gorm:"uniqueIndex:idx_audit_dedupe;not null;comment:发生时间" json:"occurred_at"`
}

// TableName 指定表名
func (AuditEntry) TableName() string {
	return "risk_audit_entries"
}
