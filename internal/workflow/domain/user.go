package domain

import (
	"gorm.io/gorm"
)

// User 工作流参与者。认证在网关侧完成，这里只维护角色归属。
type User struct {
	gorm.Model
	UserID   string `gorm:"uniqueIndex;type:varchar(64);not null;comment:用户ID" json:"user_id"`
	Name     string `gorm:"type:varchar(128);not null;comment:姓名" json:"name"`
	Email    string `gorm:"type:varchar(255);comment:邮箱" json:"email"`
	Phone    string `gorm:"type:varchar(32);comment:电话" json:"phone"`
	Role     Role   `gorm:"type:varchar(32);index;not null;comment:角色" json:"role"`
	District string `gorm:"type:varchar(128);comment:负责的区" json:"district"`
	Active   bool   `gorm:"not null;default:true;comment:是否在岗" json:"active"`
}

// TableName 指定表名
func (User) TableName() string {
	return "workflow_users"
}

// NewUser 创建用户并分配角色
func NewUser(userID, name, email, phone string, role Role, district string) (*User, error) {
	if userID == "" {
		return nil, NewValidationFailed("user_id is required")
	}
	if name == "" {
		return nil, NewValidationFailed("name is required")
	}
	if !role.IsAssignable() {
		return nil, NewValidationFailed("unknown role: " + string(role))
	}
	return &User{
		UserID:   userID,
		Name:     name,
		Email:    email,
		Phone:    phone,
		Role:     role,
		District: district,
		Active:   true,
	}, nil
}

// AssignRole 变更用户角色
func (u *User) AssignRole(role Role) error {
	if !role.IsAssignable() {
		return NewValidationFailed("unknown role: " + string(role))
	}
	u.Role = role
	return nil
}
