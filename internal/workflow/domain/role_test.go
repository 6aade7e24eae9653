package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllowedTransitionsMatrix(t *testing.T) {
	assert.ElementsMatch(t,
		[]Status{StatusTransferToDM, StatusPastorDocument},
		AllowedTransitions(RoleFBOOfficer, StatusFBOReview),
	)
	assert.ElementsMatch(t,
		[]Status{StatusTransferToDM, StatusPastorDocument},
		AllowedTransitions(RoleFBOOfficer, StatusPending),
	)
	assert.ElementsMatch(t,
		[]Status{StatusTransferToHOD, StatusPastorDocument},
		AllowedTransitions(RoleDivisionManager, StatusDMReview),
	)
	assert.ElementsMatch(t,
		[]Status{StatusTransferToCEO, StatusPastorDocument, StatusRejected},
		AllowedTransitions(RoleSecretaryGeneral, StatusSGReview),
	)
	assert.ElementsMatch(t,
		[]Status{StatusApproved, StatusRejected},
		AllowedTransitions(RoleCEO, StatusCEOReview),
	)
	assert.ElementsMatch(t,
		[]Status{StatusCertificateIssued},
		AllowedTransitions(RoleSystem, StatusApproved),
	)
	assert.ElementsMatch(t,
		[]Status{StatusFBOReview},
		AllowedTransitions(RoleApplicant, StatusPastorDocument),
	)
}

func TestAllowedTransitionsAbsentPairs(t *testing.T) {
	// 矩阵中没有的组合返回空集合，从不报错
	assert.Empty(t, AllowedTransitions(RoleApplicant, StatusCEOReview))
	assert.Empty(t, AllowedTransitions(RoleFBOOfficer, StatusApproved))
	assert.Empty(t, AllowedTransitions(RoleCEO, StatusPending))
	assert.Empty(t, AllowedTransitions(Role("AUDITOR"), StatusPending))
	assert.Empty(t, AllowedTransitions(RoleCEO, StatusRejected))
	assert.Empty(t, AllowedTransitions(RoleCEO, StatusCertificateIssued))
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(RoleFBOOfficer, StatusFBOReview, StatusTransferToDM))
	assert.True(t, CanTransition(RoleCEO, StatusCEOReview, StatusApproved))

	// 越级审批被矩阵挡住
	assert.False(t, CanTransition(RoleFBOOfficer, StatusFBOReview, StatusApproved))
	assert.False(t, CanTransition(RoleDivisionManager, StatusDMReview, StatusApproved))
	assert.False(t, CanTransition(RoleApplicant, StatusFBOReview, StatusTransferToDM))
}

func TestTerminalStatesHaveNoOutgoingTransitions(t *testing.T) {
	for _, role := range append(AllRoles, RoleSystem) {
		assert.Empty(t, AllowedTransitions(role, StatusRejected), "role %s", role)
		assert.Empty(t, AllowedTransitions(role, StatusCertificateIssued), "role %s", role)
	}
}

func TestAllMatrixTargetsAreValidStatuses(t *testing.T) {
	for _, role := range append(AllRoles, RoleSystem) {
		for _, current := range AllStatuses {
			for _, target := range AllowedTransitions(role, current) {
				assert.True(t, target.IsValid(), "role %s: %s -> %s", role, current, target)
			}
		}
	}
}

func TestActionableStatuses(t *testing.T) {
	assert.ElementsMatch(t,
		[]Status{StatusPending, StatusFBOReview, StatusPastorDocument},
		ActionableStatuses(RoleFBOOfficer),
	)
	assert.ElementsMatch(t,
		[]Status{StatusTransferToCEO, StatusCEOReview},
		ActionableStatuses(RoleCEO),
	)
	assert.Empty(t, ActionableStatuses(Role("AUDITOR")))
}

func TestReviewerRole(t *testing.T) {
	role, ok := ReviewerRole(StatusDMReview)
	assert.True(t, ok)
	assert.Equal(t, RoleDivisionManager, role)

	role, ok = ReviewerRole(StatusPastorDocument)
	assert.True(t, ok)
	assert.Equal(t, RoleApplicant, role)

	_, ok = ReviewerRole(StatusRejected)
	assert.False(t, ok)
}

func TestIsAssignable(t *testing.T) {
	assert.True(t, RoleApplicant.IsAssignable())
	assert.True(t, RoleCEO.IsAssignable())
	assert.False(t, RoleSystem.IsAssignable())
	assert.False(t, Role("AUDITOR").IsAssignable())
}
