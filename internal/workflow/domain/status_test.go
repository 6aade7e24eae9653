package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStepIndex(t *testing.T) {
	assert.Equal(t, 0, StepIndex(StatusPending))
	assert.Equal(t, 0, StepIndex(StatusFBOReview))
	assert.Equal(t, 0, StepIndex(StatusPastorDocument))
	assert.Equal(t, 1, StepIndex(StatusTransferToDM))
	assert.Equal(t, 5, StepIndex(StatusCEOReview))
	assert.Equal(t, 6, StepIndex(StatusApproved))
	assert.Equal(t, 7, StepIndex(StatusCertificateIssued))
}

func TestStepIndexRejectedAndUnknown(t *testing.T) {
	// REJECTED 在线性进度之外，未知状态同样落到 0
	assert.Equal(t, 0, StepIndex(StatusRejected))
	assert.Equal(t, 0, StepIndex(Status("SOMETHING_ELSE")))
}

func TestStepIndexRange(t *testing.T) {
	for _, s := range AllStatuses {
		idx := StepIndex(s)
		assert.GreaterOrEqual(t, idx, 0, "status %s", s)
		assert.LessOrEqual(t, idx, 7, "status %s", s)
	}
}

func TestIsValid(t *testing.T) {
	for _, s := range AllStatuses {
		assert.True(t, s.IsValid(), "status %s", s)
	}
	assert.False(t, Status("APPROVED ").IsValid())
	assert.False(t, Status("").IsValid())
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, StatusRejected.IsTerminal())
	assert.True(t, StatusCertificateIssued.IsTerminal())
	assert.False(t, StatusApproved.IsTerminal())
	assert.False(t, StatusPending.IsTerminal())
}

func TestIsForward(t *testing.T) {
	assert.True(t, IsForward(StatusFBOReview, StatusTransferToDM))
	assert.True(t, IsForward(StatusCEOReview, StatusApproved))
	assert.True(t, IsForward(StatusApproved, StatusCertificateIssued))
	// 重新提交也算向前，要过材料门禁
	assert.True(t, IsForward(StatusPastorDocument, StatusFBOReview))

	// 退回与驳回不算向前
	assert.False(t, IsForward(StatusDMReview, StatusPastorDocument))
	assert.False(t, IsForward(StatusSGReview, StatusRejected))
	assert.False(t, IsForward(StatusCEOReview, StatusRejected))

	// 终止分支出发的转移不算向前
	assert.False(t, IsForward(StatusRejected, StatusApproved))
}
