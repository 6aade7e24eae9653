package application

import (
	"context"
	"testing"

	"github.com/rgbportal/fboauthorization/internal/workflow/domain"
	"github.com/rgbportal/fboauthorization/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 内存仓储，模拟守卫更新与发件箱落库

type fakeApplicationRepo struct {
	apps     map[int64]*domain.Application
	comments []*domain.Comment
	outbox   []*domain.OutboxMessage
}

func newFakeApplicationRepo() *fakeApplicationRepo {
	return &fakeApplicationRepo{apps: make(map[int64]*domain.Application)}
}

func (r *fakeApplicationRepo) Create(_ context.Context, app *domain.Application, events []*domain.OutboxMessage) error {
	stored := *app
	r.apps[app.ApplicationID] = &stored
	r.outbox = append(r.outbox, events...)
	return nil
}

func (r *fakeApplicationRepo) GetByApplicationID(_ context.Context, applicationID int64) (*domain.Application, error) {
	app, ok := r.apps[applicationID]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	copied := *app
	return &copied, nil
}

func (r *fakeApplicationRepo) List(_ context.Context, filter domain.ApplicationFilter, offset, limit int) ([]domain.Application, int64, error) {
	var out []domain.Application
	for _, app := range r.apps {
		if filter.ApplicantID != "" && app.ApplicantID != filter.ApplicantID {
			continue
		}
		if filter.Status != "" && app.Status != filter.Status {
			continue
		}
		out = append(out, *app)
	}
	return out, int64(len(out)), nil
}

func (r *fakeApplicationRepo) Transition(_ context.Context, app *domain.Application, from domain.Status, comment *domain.Comment, events []*domain.OutboxMessage) error {
	stored, ok := r.apps[app.ApplicationID]
	if !ok {
		return domain.ErrRecordNotFound
	}
	if stored.Status != from {
		return domain.ErrStaleUpdate
	}
	copied := *app
	r.apps[app.ApplicationID] = &copied
	if comment != nil {
		r.comments = append(r.comments, comment)
	}
	r.outbox = append(r.outbox, events...)
	return nil
}

type fakeDocumentRepo struct {
	docs map[int64]map[domain.DocumentType]*domain.Document
}

func newFakeDocumentRepo() *fakeDocumentRepo {
	return &fakeDocumentRepo{docs: make(map[int64]map[domain.DocumentType]*domain.Document)}
}

func (r *fakeDocumentRepo) Save(_ context.Context, doc *domain.Document, _ []*domain.OutboxMessage) error {
	if r.docs[doc.ApplicationID] == nil {
		r.docs[doc.ApplicationID] = make(map[domain.DocumentType]*domain.Document)
	}
	copied := *doc
	r.docs[doc.ApplicationID][doc.Type] = &copied
	return nil
}

func (r *fakeDocumentRepo) FindByApplication(_ context.Context, applicationID int64) ([]domain.Document, error) {
	var out []domain.Document
	for _, doc := range r.docs[applicationID] {
		out = append(out, *doc)
	}
	return out, nil
}

func (r *fakeDocumentRepo) FindByType(_ context.Context, applicationID int64, docType domain.DocumentType) (*domain.Document, error) {
	doc, ok := r.docs[applicationID][docType]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	copied := *doc
	return &copied, nil
}

type fakeCommentRepo struct {
	comments []*domain.Comment
}

func (r *fakeCommentRepo) Create(_ context.Context, comment *domain.Comment) error {
	r.comments = append(r.comments, comment)
	return nil
}

func (r *fakeCommentRepo) ListByApplication(_ context.Context, applicationID int64, _, _ int) ([]domain.Comment, int64, error) {
	var out []domain.Comment
	for _, comment := range r.comments {
		if comment.ApplicationID == applicationID {
			out = append(out, *comment)
		}
	}
	return out, int64(len(out)), nil
}

type fakeUserRepo struct {
	users map[string]*domain.User
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[string]*domain.User)}
	for _, user := range users {
		repo.users[user.UserID] = user
	}
	return repo
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.users[user.UserID] = user
	return nil
}

func (r *fakeUserRepo) GetByUserID(_ context.Context, userID string) (*domain.User, error) {
	user, ok := r.users[userID]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) List(_ context.Context, _ domain.Role, _, _ int) ([]domain.User, int64, error) {
	return nil, 0, nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	r.users[user.UserID] = user
	return nil
}

type testFixture struct {
	appRepo  *fakeApplicationRepo
	docRepo  *fakeDocumentRepo
	userRepo *fakeUserRepo
	commands *CommandService
}

func newFixture(users ...*domain.User) *testFixture {
	appRepo := newFakeApplicationRepo()
	docRepo := newFakeDocumentRepo()
	commentRepo := &fakeCommentRepo{}
	userRepo := newFakeUserRepo(users...)
	return &testFixture{
		appRepo:  appRepo,
		docRepo:  docRepo,
		userRepo: userRepo,
		commands: NewCommandService(appRepo, docRepo, commentRepo, userRepo, utils.NewSnowflakeID(1), nil),
	}
}

func activeUser(userID string, role domain.Role) *domain.User {
	return &domain.User{UserID: userID, Name: userID, Role: role, Active: true}
}

func seedApplication(f *testFixture, applicationID int64, applicantID string, status domain.Status) {
	app, _ := domain.NewApplication(applicationID, applicantID, "Grace Church", "GC", "Central", "Western", "", "")
	app.ApplyTransition(status)
	stored := *app
	f.appRepo.apps[applicationID] = &stored
}

func seedAllRequiredDocuments(f *testFixture, applicationID int64) {
	for _, req := range domain.DocumentChecklist() {
		if !req.Required {
			continue
		}
		doc := &domain.Document{ApplicationID: applicationID, Type: req.Type}
		doc.Replace(string(req.Type)+".pdf", "s3://docs/"+string(req.Type), "application/pdf", 1024)
		_ = f.docRepo.Save(context.Background(), doc, nil)
	}
}

func TestUpdateStatusSuccess(t *testing.T) {
	f := newFixture(activeUser("officer-1", domain.RoleFBOOfficer))
	seedApplication(f, 100, "applicant-1", domain.StatusFBOReview)
	seedAllRequiredDocuments(f, 100)

	view, err := f.commands.UpdateStatus(context.Background(), "officer-1", 100, UpdateStatusRequest{
		TargetStatus:          string(domain.StatusTransferToDM),
		ExpectedCurrentStatus: string(domain.StatusFBOReview),
		Comment:               "forwarded to division manager",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusTransferToDM, view.Status)
	assert.Equal(t, domain.StatusTransferToDM, f.appRepo.apps[100].Status)

	require.Len(t, f.appRepo.comments, 1)
	assert.Equal(t, domain.StatusFBOReview, f.appRepo.comments[0].FromStatus)
	assert.Equal(t, domain.StatusTransferToDM, f.appRepo.comments[0].ToStatus)
	assert.Equal(t, "forwarded to division manager", f.appRepo.comments[0].Content)

	require.Len(t, f.appRepo.outbox, 1)
	assert.Equal(t, domain.TopicApplicationStatusChanged, f.appRepo.outbox[0].Topic)
}

func TestUpdateStatusForbiddenTransition(t *testing.T) {
	f := newFixture(activeUser("officer-1", domain.RoleFBOOfficer))
	seedApplication(f, 100, "applicant-1", domain.StatusFBOReview)
	seedAllRequiredDocuments(f, 100)

	_, err := f.commands.UpdateStatus(context.Background(), "officer-1", 100, UpdateStatusRequest{
		TargetStatus:          string(domain.StatusApproved),
		ExpectedCurrentStatus: string(domain.StatusFBOReview),
	})

	var domainErr *domain.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.CodeForbiddenTransition, domainErr.Code)

	// 被拒绝的转移不留任何痕迹
	assert.Equal(t, domain.StatusFBOReview, f.appRepo.apps[100].Status)
	assert.Empty(t, f.appRepo.comments)
	assert.Empty(t, f.appRepo.outbox)
}

func TestUpdateStatusDocumentsIncomplete(t *testing.T) {
	f := newFixture(activeUser("dm-1", domain.RoleDivisionManager))
	seedApplication(f, 100, "applicant-1", domain.StatusDMReview)
	// 成员名册缺失
	for _, req := range domain.DocumentChecklist() {
		if !req.Required || req.Type == domain.DocTypeMemberRegister {
			continue
		}
		doc := &domain.Document{ApplicationID: 100, Type: req.Type}
		doc.Replace("f.pdf", "s3://docs/f", "application/pdf", 1)
		_ = f.docRepo.Save(context.Background(), doc, nil)
	}

	_, err := f.commands.UpdateStatus(context.Background(), "dm-1", 100, UpdateStatusRequest{
		TargetStatus:          string(domain.StatusTransferToHOD),
		ExpectedCurrentStatus: string(domain.StatusDMReview),
	})

	var domainErr *domain.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.CodeDocumentsIncomplete, domainErr.Code)

	details, ok := domainErr.Details.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, []domain.DocumentType{domain.DocTypeMemberRegister}, details["missing_documents"])

	assert.Equal(t, domain.StatusDMReview, f.appRepo.apps[100].Status)
}

func TestUpdateStatusStaleState(t *testing.T) {
	f := newFixture(activeUser("officer-1", domain.RoleFBOOfficer))
	seedApplication(f, 100, "applicant-1", domain.StatusTransferToDM)

	_, err := f.commands.UpdateStatus(context.Background(), "officer-1", 100, UpdateStatusRequest{
		TargetStatus:          string(domain.StatusTransferToDM),
		ExpectedCurrentStatus: string(domain.StatusFBOReview),
	})

	var domainErr *domain.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.CodeStaleState, domainErr.Code)
	assert.Equal(t, domain.StatusTransferToDM, f.appRepo.apps[100].Status)
}

func TestUpdateStatusReturnSkipsDocumentGate(t *testing.T) {
	// 退回补正不经过材料门禁
	f := newFixture(activeUser("dm-1", domain.RoleDivisionManager))
	seedApplication(f, 100, "applicant-1", domain.StatusDMReview)

	view, err := f.commands.UpdateStatus(context.Background(), "dm-1", 100, UpdateStatusRequest{
		TargetStatus:          string(domain.StatusPastorDocument),
		ExpectedCurrentStatus: string(domain.StatusDMReview),
		Comment:               "pastor credential is illegible",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusPastorDocument, view.Status)
	assert.True(t, view.CanEdit)
	assert.True(t, f.appRepo.apps[100].CanEdit)
}

func TestUpdateStatusApprovalEmitsApprovedEvent(t *testing.T) {
	f := newFixture(activeUser("ceo-1", domain.RoleCEO))
	seedApplication(f, 100, "applicant-1", domain.StatusCEOReview)
	seedAllRequiredDocuments(f, 100)

	view, err := f.commands.UpdateStatus(context.Background(), "ceo-1", 100, UpdateStatusRequest{
		TargetStatus:          string(domain.StatusApproved),
		ExpectedCurrentStatus: string(domain.StatusCEOReview),
		Comment:               "approved",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, view.Status)

	topics := make([]string, 0, len(f.appRepo.outbox))
	for _, msg := range f.appRepo.outbox {
		topics = append(topics, msg.Topic)
	}
	assert.ElementsMatch(t, []string{
		domain.TopicApplicationStatusChanged,
		domain.TopicApplicationApproved,
	}, topics)
}

func TestUpdateStatusUnknownActor(t *testing.T) {
	f := newFixture()
	seedApplication(f, 100, "applicant-1", domain.StatusFBOReview)

	_, err := f.commands.UpdateStatus(context.Background(), "ghost", 100, UpdateStatusRequest{
		TargetStatus:          string(domain.StatusTransferToDM),
		ExpectedCurrentStatus: string(domain.StatusFBOReview),
	})

	var domainErr *domain.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.CodeValidationFailed, domainErr.Code)
}

func TestUpdateStatusApplicationNotFound(t *testing.T) {
	f := newFixture(activeUser("officer-1", domain.RoleFBOOfficer))

	_, err := f.commands.UpdateStatus(context.Background(), "officer-1", 404, UpdateStatusRequest{
		TargetStatus:          string(domain.StatusTransferToDM),
		ExpectedCurrentStatus: string(domain.StatusFBOReview),
	})

	var domainErr *domain.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.CodeNotFound, domainErr.Code)
}

func TestCompleteCertificateIssuance(t *testing.T) {
	f := newFixture()
	seedApplication(f, 100, "applicant-1", domain.StatusApproved)

	event := domain.CertificateIssuedEvent{
		ApplicationID:     100,
		CertificateNumber: "FBO-2026-42",
	}
	require.NoError(t, f.commands.CompleteCertificateIssuance(context.Background(), event))

	app := f.appRepo.apps[100]
	assert.Equal(t, domain.StatusCertificateIssued, app.Status)
	assert.Equal(t, "FBO-2026-42", app.CertificateNumber)

	// 至少一次投递：重复事件幂等返回
	require.NoError(t, f.commands.CompleteCertificateIssuance(context.Background(), event))
	assert.Equal(t, domain.StatusCertificateIssued, f.appRepo.apps[100].Status)
}

func TestSubmitApplication(t *testing.T) {
	f := newFixture(activeUser("applicant-1", domain.RoleApplicant))

	view, err := f.commands.SubmitApplication(context.Background(), "applicant-1", SubmitApplicationRequest{
		OrgName:  "Grace Church",
		Acronym:  "GC",
		District: "Central",
		Province: "Western",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, view.Status)
	assert.Equal(t, 0, view.StepIndex)
	assert.NotZero(t, view.ApplicationID)

	require.Len(t, f.appRepo.outbox, 1)
	assert.Equal(t, domain.TopicApplicationSubmitted, f.appRepo.outbox[0].Topic)
}

func TestSubmitApplicationRequiresApplicantRole(t *testing.T) {
	f := newFixture(activeUser("officer-1", domain.RoleFBOOfficer))

	_, err := f.commands.SubmitApplication(context.Background(), "officer-1", SubmitApplicationRequest{
		OrgName:  "Grace Church",
		District: "Central",
		Province: "Western",
	})

	var domainErr *domain.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.CodeValidationFailed, domainErr.Code)
}

func TestUploadDocumentReuploadClearsValidation(t *testing.T) {
	f := newFixture(activeUser("applicant-1", domain.RoleApplicant))
	seedApplication(f, 100, "applicant-1", domain.StatusPastorDocument)

	doc := &domain.Document{ApplicationID: 100, Type: domain.DocTypeConstitution}
	doc.Replace("v1.pdf", "s3://docs/v1", "application/pdf", 1024)
	doc.MarkValidated("officer-1")
	require.NoError(t, f.docRepo.Save(context.Background(), doc, nil))

	updated, err := f.commands.UploadDocument(context.Background(), "applicant-1", 100, UploadDocumentRequest{
		Type:       string(domain.DocTypeConstitution),
		FileName:   "v2.pdf",
		StorageKey: "s3://docs/v2",
	})

	require.NoError(t, err)
	assert.False(t, updated.Valid)
	assert.Empty(t, updated.ValidatedBy)
	assert.Equal(t, "v2.pdf", updated.FileName)
}

func TestUploadDocumentRejectedWhenNotEditable(t *testing.T) {
	f := newFixture(activeUser("applicant-1", domain.RoleApplicant))
	seedApplication(f, 100, "applicant-1", domain.StatusDMReview)

	_, err := f.commands.UploadDocument(context.Background(), "applicant-1", 100, UploadDocumentRequest{
		Type:       string(domain.DocTypeConstitution),
		FileName:   "v1.pdf",
		StorageKey: "s3://docs/v1",
	})

	var domainErr *domain.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.CodeValidationFailed, domainErr.Code)
}

func TestUploadDocumentOnlyByApplicant(t *testing.T) {
	f := newFixture(activeUser("officer-1", domain.RoleFBOOfficer))
	seedApplication(f, 100, "applicant-1", domain.StatusFBOReview)

	_, err := f.commands.UploadDocument(context.Background(), "officer-1", 100, UploadDocumentRequest{
		Type:       string(domain.DocTypeConstitution),
		FileName:   "v1.pdf",
		StorageKey: "s3://docs/v1",
	})

	var domainErr *domain.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.CodeValidationFailed, domainErr.Code)
}

func TestResubmissionAfterReupload(t *testing.T) {
	f := newFixture(activeUser("applicant-1", domain.RoleApplicant))
	seedApplication(f, 100, "applicant-1", domain.StatusPastorDocument)
	seedAllRequiredDocuments(f, 100)

	view, err := f.commands.UpdateStatus(context.Background(), "applicant-1", 100, UpdateStatusRequest{
		TargetStatus:          string(domain.StatusFBOReview),
		ExpectedCurrentStatus: string(domain.StatusPastorDocument),
	})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusFBOReview, view.Status)
	assert.False(t, view.CanEdit)
}
