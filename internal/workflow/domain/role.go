package domain

// Role 审批链上的角色
type Role string

const (
	// RoleApplicant 申请人（教会/信仰组织的经办人）
	RoleApplicant Role = "APPLICANT"
	// RoleFBOOfficer FBO 受理专员
	RoleFBOOfficer Role = "FBO_OFFICER"
	// RoleDivisionManager 部门经理
	RoleDivisionManager Role = "DIVISION_MANAGER"
	// RoleHOD 部门主管
	RoleHOD Role = "HOD"
	// RoleSecretaryGeneral 秘书长
	RoleSecretaryGeneral Role = "SECRETARY_GENERAL"
	// RoleCEO 首席执行官
	RoleCEO Role = "CEO"
	// RoleSystem 系统内部角色，仅用于证书签发回调，不对应任何真实用户
	RoleSystem Role = "SYSTEM"
)

// AllRoles 可以分配给用户的角色（不含 SYSTEM）
var AllRoles = []Role{
	RoleApplicant,
	RoleFBOOfficer,
	RoleDivisionManager,
	RoleHOD,
	RoleSecretaryGeneral,
	RoleCEO,
}

// IsAssignable 角色是否可分配给真实用户
func (r Role) IsAssignable() bool {
	for _, known := range AllRoles {
		if r == known {
			return true
		}
	}
	return false
}

// transitionMatrix 角色授权矩阵：角色 → 当前状态 → 允许的目标状态集合。
// 授权完全由此表驱动，执行器不做任何硬编码的角色判断。
var transitionMatrix = map[Role]map[Status][]Status{
	RoleApplicant: {
		// 补正后重新提交，回到 FBO 审查
		StatusPastorDocument: {StatusFBOReview},
	},
	RoleFBOOfficer: {
		StatusPending:        {StatusTransferToDM, StatusPastorDocument},
		StatusFBOReview:      {StatusTransferToDM, StatusPastorDocument},
		StatusPastorDocument: {StatusFBOReview},
	},
	RoleDivisionManager: {
		StatusTransferToDM: {StatusDMReview},
		StatusDMReview:     {StatusTransferToHOD, StatusPastorDocument},
	},
	RoleHOD: {
		StatusTransferToHOD: {StatusHODReview},
		StatusHODReview:     {StatusTransferToSG, StatusPastorDocument},
	},
	RoleSecretaryGeneral: {
		StatusTransferToSG: {StatusSGReview},
		StatusSGReview:     {StatusTransferToCEO, StatusPastorDocument, StatusRejected},
	},
	RoleCEO: {
		StatusTransferToCEO: {StatusCEOReview},
		StatusCEOReview:     {StatusApproved, StatusRejected},
	},
	RoleSystem: {
		StatusApproved: {StatusCertificateIssued},
	},
}

// AllowedTransitions 返回角色在当前状态下允许的目标状态。
// 矩阵中没有的 (role, status) 组合返回空集合，从不报错。
func AllowedTransitions(role Role, current Status) []Status {
	byStatus, ok := transitionMatrix[role]
	if !ok {
		return []Status{}
	}
	targets, ok := byStatus[current]
	if !ok {
		return []Status{}
	}
	out := make([]Status, len(targets))
	copy(out, targets)
	return out
}

// CanTransition 角色能否把申请从 current 转到 target
func CanTransition(role Role, current, target Status) bool {
	for _, allowed := range AllowedTransitions(role, current) {
		if allowed == target {
			return true
		}
	}
	return false
}

// ActionableStatuses 角色在矩阵中至少有一个出边的状态集合，即该角色的待办队列范围
func ActionableStatuses(role Role) []Status {
	byStatus, ok := transitionMatrix[role]
	if !ok {
		return []Status{}
	}
	out := make([]Status, 0, len(byStatus))
	for _, s := range AllStatuses {
		if targets, exists := byStatus[s]; exists && len(targets) > 0 {
			out = append(out, s)
		}
	}
	return out
}

// reviewerByStatus 每个状态的当值审查角色，用于通知下一环节的处理人
var reviewerByStatus = map[Status]Role{
	StatusPending:        RoleFBOOfficer,
	StatusFBOReview:      RoleFBOOfficer,
	StatusPastorDocument: RoleApplicant,
	StatusTransferToDM:   RoleDivisionManager,
	StatusDMReview:       RoleDivisionManager,
	StatusTransferToHOD:  RoleHOD,
	StatusHODReview:      RoleHOD,
	StatusTransferToSG:   RoleSecretaryGeneral,
	StatusSGReview:       RoleSecretaryGeneral,
	StatusTransferToCEO:  RoleCEO,
	StatusCEOReview:      RoleCEO,
}

// ReviewerRole 返回状态的当值处理角色，终态与未知状态返回空串
func ReviewerRole(s Status) (Role, bool) {
	role, ok := reviewerByStatus[s]
	return role, ok
}
