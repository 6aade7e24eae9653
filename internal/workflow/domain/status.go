// Package domain 审批工作流的领域模型：申请、状态机、角色授权矩阵与材料门禁
package domain

// Status 申请状态
type Status string

const (
	// StatusPending 初始状态，等待 FBO 专员受理。与 FBO_REVIEW 在进度展示上等价。
	StatusPending Status = "PENDING"
	// StatusFBOReview FBO 专员审查中
	StatusFBOReview Status = "FBO_REVIEW"
	// StatusPastorDocument 材料被退回，申请人需补充/更正后重新提交
	StatusPastorDocument Status = "PASTOR_DOCUMENT"
	// StatusTransferToDM 已转交部门经理
	StatusTransferToDM Status = "TRANSFER_TO_DM"
	// StatusDMReview 部门经理审查中
	StatusDMReview Status = "DM_REVIEW"
	// StatusTransferToHOD 已转交部门主管
	StatusTransferToHOD Status = "TRANSFER_TO_HOD"
	// StatusHODReview 部门主管审查中
	StatusHODReview Status = "HOD_REVIEW"
	// StatusTransferToSG 已转交秘书长
	StatusTransferToSG Status = "TRANSFER_TO_SG"
	// StatusSGReview 秘书长审查中
	StatusSGReview Status = "SG_REVIEW"
	// StatusTransferToCEO 已转交首席执行官
	StatusTransferToCEO Status = "TRANSFER_TO_CEO"
	// StatusCEOReview 首席执行官审查中
	StatusCEOReview Status = "CEO_REVIEW"
	// StatusApproved 批准，等待证书签发
	StatusApproved Status = "APPROVED"
	// StatusRejected 驳回，终态，不在线性进度之内
	StatusRejected Status = "REJECTED"
	// StatusCertificateIssued 证书已签发，终态
	StatusCertificateIssued Status = "CERTIFICATE_ISSUED"
)

// AllStatuses 全部合法状态
var AllStatuses = []Status{
	StatusPending,
	StatusFBOReview,
	StatusPastorDocument,
	StatusTransferToDM,
	StatusDMReview,
	StatusTransferToHOD,
	StatusHODReview,
	StatusTransferToSG,
	StatusSGReview,
	StatusTransferToCEO,
	StatusCEOReview,
	StatusApproved,
	StatusRejected,
	StatusCertificateIssued,
}

// stepIndex 进度条步骤映射（0-7）。REJECTED 是线性进度之外的终止分支，
// 故意不在表内，查询时落入默认值 0。
var stepIndex = map[Status]int{
	StatusPending:           0,
	StatusFBOReview:         0,
	StatusPastorDocument:    0,
	StatusTransferToDM:      1,
	StatusDMReview:          2,
	StatusTransferToHOD:     2,
	StatusHODReview:         3,
	StatusTransferToSG:      3,
	StatusSGReview:          4,
	StatusTransferToCEO:     4,
	StatusCEOReview:         5,
	StatusApproved:          6,
	StatusCertificateIssued: 7,
}

// linearRank 审批链内的先后次序，用于判定一次转移是否"向前"。
// PASTOR_DOCUMENT 排在链首之前：从它回到任一审查状态都算向前（重新提交）。
var linearRank = map[Status]int{
	StatusPastorDocument:    -1,
	StatusPending:           0,
	StatusFBOReview:         0,
	StatusTransferToDM:      1,
	StatusDMReview:          2,
	StatusTransferToHOD:     3,
	StatusHODReview:         4,
	StatusTransferToSG:      5,
	StatusSGReview:          6,
	StatusTransferToCEO:     7,
	StatusCEOReview:         8,
	StatusApproved:          9,
	StatusCertificateIssued: 10,
}

// StepIndex 返回进度条步骤（0-7）。未知状态返回 0，从不报错。
func StepIndex(s Status) int {
	return stepIndex[s]
}

// IsValid 状态是否在合法枚举内
func (s Status) IsValid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminal 是否终态（不再有任何角色驱动的转移）
func (s Status) IsTerminal() bool {
	return s == StatusRejected || s == StatusCertificateIssued
}

// IsForward 判定 from → to 是否为朝着批准方向的转移。
// 退回（PASTOR_DOCUMENT）与驳回（REJECTED）不算向前，材料门禁只拦向前的转移。
func IsForward(from, to Status) bool {
	fromRank, ok := linearRank[from]
	if !ok {
		return false
	}
	toRank, ok := linearRank[to]
	if !ok {
		return false
	}
	return toRank > fromRank
}
