package application

import (
	"context"
	"errors"
	"testing"

	"github.com/rgbportal/fboauthorization/internal/notification/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNotificationRepo struct {
	saved []*domain.Notification
}

func (r *fakeNotificationRepo) Save(_ context.Context, notification *domain.Notification) error {
	r.saved = append(r.saved, notification)
	return nil
}

func (r *fakeNotificationRepo) ListByRecipient(_ context.Context, recipientID string, _, _ int) ([]domain.Notification, int64, error) {
	var out []domain.Notification
	for _, n := range r.saved {
		if n.RecipientID == recipientID {
			out = append(out, *n)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeNotificationRepo) ListByApplication(_ context.Context, applicationID int64, _, _ int) ([]domain.Notification, int64, error) {
	var out []domain.Notification
	for _, n := range r.saved {
		if n.ApplicationID == applicationID {
			out = append(out, *n)
		}
	}
	return out, int64(len(out)), nil
}

type fakeSender struct {
	channel domain.Channel
	sent    []*domain.Notification
	fail    error
}

func (s *fakeSender) Channel() domain.Channel {
	return s.channel
}

func (s *fakeSender) Send(_ context.Context, notification *domain.Notification) error {
	if s.fail != nil {
		return s.fail
	}
	s.sent = append(s.sent, notification)
	return nil
}

func TestHandleStatusChangedNotifiesApplicantAndReviewer(t *testing.T) {
	repo := &fakeNotificationRepo{}
	email := &fakeSender{channel: domain.ChannelEmail}
	webhook := &fakeSender{channel: domain.ChannelWebhook}
	service := NewDispatchService(repo, []domain.Sender{email, webhook}, nil)

	err := service.HandleStatusChanged(context.Background(), StatusChangedEvent{
		ApplicationID: 100,
		ApplicantID:   "applicant-1",
		OrgName:       "Grace Church",
		FromStatus:    "FBO_REVIEW",
		ToStatus:      "TRANSFER_TO_DM",
		Comment:       "looks complete",
	})

	require.NoError(t, err)
	require.Len(t, repo.saved, 2)

	assert.Equal(t, "applicant-1", repo.saved[0].RecipientID)
	assert.Equal(t, domain.StatusSent, repo.saved[0].Status)
	assert.Contains(t, repo.saved[0].Body, "looks complete")

	assert.Equal(t, "DIVISION_MANAGER", repo.saved[1].RecipientRole)
	assert.Equal(t, domain.StatusSent, repo.saved[1].Status)

	assert.Len(t, email.sent, 1)
	assert.Len(t, webhook.sent, 1)
}

func TestHandleStatusChangedReturnToApplicantSkipsReviewerPing(t *testing.T) {
	// 下一环节就是申请人本人，不再追加角色提醒
	repo := &fakeNotificationRepo{}
	email := &fakeSender{channel: domain.ChannelEmail}
	service := NewDispatchService(repo, []domain.Sender{email}, nil)

	err := service.HandleStatusChanged(context.Background(), StatusChangedEvent{
		ApplicationID: 100,
		ApplicantID:   "applicant-1",
		FromStatus:    "DM_REVIEW",
		ToStatus:      "PASTOR_DOCUMENT",
	})

	require.NoError(t, err)
	require.Len(t, repo.saved, 1)
	assert.Equal(t, "applicant-1", repo.saved[0].RecipientID)
}

func TestHandleStatusChangedTerminalStateNotifiesApplicantOnly(t *testing.T) {
	repo := &fakeNotificationRepo{}
	email := &fakeSender{channel: domain.ChannelEmail}
	service := NewDispatchService(repo, []domain.Sender{email}, nil)

	err := service.HandleStatusChanged(context.Background(), StatusChangedEvent{
		ApplicationID: 100,
		ApplicantID:   "applicant-1",
		FromStatus:    "SG_REVIEW",
		ToStatus:      "REJECTED",
	})

	require.NoError(t, err)
	require.Len(t, repo.saved, 1)
	assert.Equal(t, "applicant-1", repo.saved[0].RecipientID)
}

func TestHandleStatusChangedSenderFailureRecorded(t *testing.T) {
	repo := &fakeNotificationRepo{}
	email := &fakeSender{channel: domain.ChannelEmail, fail: errors.New("smtp unreachable")}
	service := NewDispatchService(repo, []domain.Sender{email}, nil)

	err := service.HandleStatusChanged(context.Background(), StatusChangedEvent{
		ApplicationID: 100,
		ApplicantID:   "applicant-1",
		FromStatus:    "SG_REVIEW",
		ToStatus:      "REJECTED",
	})

	// 发送失败不阻断消费，通知落库为 FAILED
	require.NoError(t, err)
	require.Len(t, repo.saved, 1)
	assert.Equal(t, domain.StatusFailed, repo.saved[0].Status)
	assert.Contains(t, repo.saved[0].LastError, "smtp unreachable")
	assert.Equal(t, 3, repo.saved[0].Attempts)
}

func TestHandleStatusChangedMissingChannel(t *testing.T) {
	repo := &fakeNotificationRepo{}
	service := NewDispatchService(repo, nil, nil)

	err := service.HandleStatusChanged(context.Background(), StatusChangedEvent{
		ApplicationID: 100,
		ApplicantID:   "applicant-1",
		FromStatus:    "FBO_REVIEW",
		ToStatus:      "TRANSFER_TO_DM",
	})

	require.NoError(t, err)
	require.Len(t, repo.saved, 2)
	for _, n := range repo.saved {
		assert.Equal(t, domain.StatusFailed, n.Status)
	}
}
