package application

import (
	"context"
	"testing"
	"time"

	"github.com/rgbportal/fboauthorization/internal/risk/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeScoreRepo struct {
	scores map[int64]*domain.RiskScore
}

func newFakeScoreRepo() *fakeScoreRepo {
	return &fakeScoreRepo{scores: make(map[int64]*domain.RiskScore)}
}

func (r *fakeScoreRepo) Save(_ context.Context, score *domain.RiskScore) error {
	copied := *score
	r.scores[score.ApplicationID] = &copied
	return nil
}

func (r *fakeScoreRepo) GetByApplicationID(_ context.Context, applicationID int64) (*domain.RiskScore, error) {
	score, ok := r.scores[applicationID]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	copied := *score
	return &copied, nil
}

func (r *fakeScoreRepo) ListByBucket(_ context.Context, _ domain.RiskBucket, _, _ int) ([]domain.RiskScore, int64, error) {
	return nil, 0, nil
}

type auditKey struct {
	applicationID int64
	toStatus      string
	occurredAt    time.Time
}

type fakeAuditRepo struct {
	entries []*domain.AuditEntry
	seen    map[auditKey]bool
}

func newFakeAuditRepo() *fakeAuditRepo {
	return &fakeAuditRepo{seen: make(map[auditKey]bool)}
}

func (r *fakeAuditRepo) Create(_ context.Context, entry *domain.AuditEntry) error {
	key := auditKey{entry.ApplicationID, entry.ToStatus, entry.OccurredAt}
	if r.seen[key] {
		return domain.ErrDuplicateEntry
	}
	r.seen[key] = true
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeAuditRepo) ListByApplication(_ context.Context, applicationID int64, _, _ int) ([]domain.AuditEntry, int64, error) {
	var out []domain.AuditEntry
	for _, entry := range r.entries {
		if entry.ApplicationID == applicationID {
			out = append(out, *entry)
		}
	}
	return out, int64(len(out)), nil
}

func TestHandleSubmittedCreatesInitialScore(t *testing.T) {
	scoreRepo := newFakeScoreRepo()
	service := NewProjectionService(scoreRepo, newFakeAuditRepo(), nil)

	event := applicationSubmittedEvent{ApplicationID: 100, SubmittedAt: time.Now()}
	require.NoError(t, service.HandleSubmitted(context.Background(), event))

	score := scoreRepo.scores[100]
	require.NotNil(t, score)
	assert.Equal(t, 1, score.MissingOptional)
	// 10 + 5 = 15
	assert.True(t, score.Score.Equal(decimal.NewFromInt(15)), "got %s", score.Score)
	assert.Equal(t, domain.BucketLow, score.Bucket)

	// 重复投递不重置评分
	score.Returns = 2
	scoreRepo.scores[100] = score
	require.NoError(t, service.HandleSubmitted(context.Background(), event))
	assert.Equal(t, 2, scoreRepo.scores[100].Returns)
}

func TestHandleStatusChangedCountsReturnsAndRejections(t *testing.T) {
	scoreRepo := newFakeScoreRepo()
	auditRepo := newFakeAuditRepo()
	service := NewProjectionService(scoreRepo, auditRepo, nil)

	returned := applicationStatusChangedEvent{
		ApplicationID: 100,
		FromStatus:    "DM_REVIEW",
		ToStatus:      "PASTOR_DOCUMENT",
		ActorID:       "dm-1",
		ActorRole:     "DIVISION_MANAGER",
		OccurredAt:    time.Now(),
	}
	require.NoError(t, service.HandleStatusChanged(context.Background(), returned))

	score := scoreRepo.scores[100]
	require.NotNil(t, score)
	assert.Equal(t, 1, score.Returns)
	require.Len(t, auditRepo.entries, 1)

	// 同一事件重复投递：审计去重，计数不翻倍
	require.NoError(t, service.HandleStatusChanged(context.Background(), returned))
	assert.Equal(t, 1, scoreRepo.scores[100].Returns)
	assert.Len(t, auditRepo.entries, 1)

	rejected := applicationStatusChangedEvent{
		ApplicationID: 100,
		FromStatus:    "SG_REVIEW",
		ToStatus:      "REJECTED",
		ActorID:       "sg-1",
		ActorRole:     "SECRETARY_GENERAL",
		OccurredAt:    time.Now().Add(time.Minute),
	}
	require.NoError(t, service.HandleStatusChanged(context.Background(), rejected))
	assert.Equal(t, 1, scoreRepo.scores[100].Rejections)
}

func TestHandleStatusChangedOrdinaryMoveOnlyAudits(t *testing.T) {
	scoreRepo := newFakeScoreRepo()
	auditRepo := newFakeAuditRepo()
	service := NewProjectionService(scoreRepo, auditRepo, nil)

	event := applicationStatusChangedEvent{
		ApplicationID: 100,
		FromStatus:    "FBO_REVIEW",
		ToStatus:      "TRANSFER_TO_DM",
		ActorID:       "officer-1",
		ActorRole:     "FBO_OFFICER",
		OccurredAt:    time.Now(),
	}
	require.NoError(t, service.HandleStatusChanged(context.Background(), event))

	require.Len(t, auditRepo.entries, 1)
	score := scoreRepo.scores[100]
	require.NotNil(t, score)
	assert.Equal(t, 0, score.Returns)
	assert.Equal(t, 0, score.Rejections)
}

func TestHandleDocumentUploaded(t *testing.T) {
	scoreRepo := newFakeScoreRepo()
	service := NewProjectionService(scoreRepo, newFakeAuditRepo(), nil)

	// 首次上传普通材料不影响评分
	require.NoError(t, service.HandleDocumentUploaded(context.Background(), documentUploadedEvent{
		ApplicationID: 100,
		DocumentType:  "CONSTITUTION",
		Reupload:      false,
	}))
	assert.Nil(t, scoreRepo.scores[100])

	// 重新上传计入评分
	require.NoError(t, service.HandleDocumentUploaded(context.Background(), documentUploadedEvent{
		ApplicationID: 100,
		DocumentType:  "CONSTITUTION",
		Reupload:      true,
	}))
	require.NotNil(t, scoreRepo.scores[100])
	assert.Equal(t, 1, scoreRepo.scores[100].Reuploads)

	// 财务报表补齐后去掉缺失项
	scoreRepo.scores[100].MissingOptional = 1
	require.NoError(t, service.HandleDocumentUploaded(context.Background(), documentUploadedEvent{
		ApplicationID: 100,
		DocumentType:  "FINANCIAL_STATEMENT",
		Reupload:      false,
	}))
	assert.Equal(t, 0, scoreRepo.scores[100].MissingOptional)
}
