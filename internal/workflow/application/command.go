package application

import (
	"context"
	"errors"
	"strconv"

	"github.com/rgbportal/fboauthorization/internal/workflow/domain"
	"github.com/rgbportal/fboauthorization/pkg/logger"
	"github.com/rgbportal/fboauthorization/pkg/metrics"
	"github.com/rgbportal/fboauthorization/pkg/utils"
)

// CommandService 工作流写用例：提交申请、执行状态转移、材料管理、用户管理
type CommandService struct {
	appRepo     domain.ApplicationRepository
	docRepo     domain.DocumentRepository
	commentRepo domain.CommentRepository
	userRepo    domain.UserRepository
	idGen       *utils.SnowflakeID
	metrics     *metrics.Metrics
}

// NewCommandService 创建写用例服务
func NewCommandService(
	appRepo domain.ApplicationRepository,
	docRepo domain.DocumentRepository,
	commentRepo domain.CommentRepository,
	userRepo domain.UserRepository,
	idGen *utils.SnowflakeID,
	m *metrics.Metrics,
) *CommandService {
	return &CommandService{
		appRepo:     appRepo,
		docRepo:     docRepo,
		commentRepo: commentRepo,
		userRepo:    userRepo,
		idGen:       idGen,
		metrics:     m,
	}
}

// resolveActor 解析调用方的用户记录与角色
func (s *CommandService) resolveActor(ctx context.Context, actorID string) (*domain.User, error) {
	user, err := s.userRepo.GetByUserID(ctx, actorID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, domain.NewValidationFailed("unknown actor: " + actorID)
		}
		return nil, err
	}
	if !user.Active {
		return nil, domain.NewValidationFailed("actor is deactivated: " + actorID)
	}
	return user, nil
}

// SubmitApplication 申请人提交新的注册申请
func (s *CommandService) SubmitApplication(ctx context.Context, actorID string, req SubmitApplicationRequest) (*ApplicationView, error) {
	actor, err := s.resolveActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if actor.Role != domain.RoleApplicant {
		return nil, domain.NewValidationFailed("only applicants can submit applications")
	}

	app, err := domain.NewApplication(
		s.idGen.Generate(), actorID,
		req.OrgName, req.Acronym, req.District, req.Province,
		req.ContactEmail, req.ContactPhone,
	)
	if err != nil {
		return nil, err
	}

	submitted, err := domain.NewOutboxMessage(
		domain.TopicApplicationSubmitted,
		strconv.FormatInt(app.ApplicationID, 10),
		domain.ApplicationSubmittedEvent{
			ApplicationID: app.ApplicationID,
			ApplicantID:   app.ApplicantID,
			OrgName:       app.OrgName,
			District:      app.District,
			Province:      app.Province,
			SubmittedAt:   app.SubmittedAt,
		},
	)
	if err != nil {
		return nil, err
	}

	if err := s.appRepo.Create(ctx, app, []*domain.OutboxMessage{submitted}); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.ApplicationsSubmitted.Inc()
	}
	logger.Info(ctx, "Application submitted",
		"application_id", app.ApplicationID,
		"applicant_id", actorID,
		"org_name", app.OrgName,
	)
	return NewApplicationView(app, actor.Role), nil
}

// UpdateStatus 状态转移执行器。前置检查顺序固定：
// 入参合法性、申请存在、乐观并发、授权矩阵、材料门禁；
// 全部通过后才原子落库状态、审计意见与发件箱事件。
func (s *CommandService) UpdateStatus(ctx context.Context, actorID string, applicationID int64, req UpdateStatusRequest) (*ApplicationView, error) {
	target := domain.Status(req.TargetStatus)
	if !target.IsValid() {
		return nil, s.rejected(domain.NewValidationFailed("unknown target status: " + req.TargetStatus))
	}
	expected := domain.Status(req.ExpectedCurrentStatus)
	if !expected.IsValid() {
		return nil, s.rejected(domain.NewValidationFailed("unknown expected status: " + req.ExpectedCurrentStatus))
	}

	actor, err := s.resolveActor(ctx, actorID)
	if err != nil {
		return nil, s.rejected(err)
	}

	app, err := s.appRepo.GetByApplicationID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, s.rejected(domain.NewNotFound("application", applicationID))
		}
		return nil, err
	}

	if app.Status != expected {
		return nil, s.rejected(domain.NewStaleState(expected, app.Status))
	}

	if !domain.CanTransition(actor.Role, app.Status, target) {
		return nil, s.rejected(domain.NewForbiddenTransition(actor.Role, app.Status, target))
	}

	if domain.IsForward(app.Status, target) {
		docs, err := s.docRepo.FindByApplication(ctx, applicationID)
		if err != nil {
			return nil, err
		}
		if missing := domain.MissingRequiredDocuments(docs); len(missing) > 0 {
			return nil, s.rejected(domain.NewDocumentsIncomplete(missing))
		}
	}

	return s.commit(ctx, actor, app, target, req.Comment)
}

// commit 落实已通过全部前置检查的转移
func (s *CommandService) commit(ctx context.Context, actor *domain.User, app *domain.Application, target domain.Status, commentText string) (*ApplicationView, error) {
	from := app.Status
	app.ApplyTransition(target)

	var comment *domain.Comment
	if commentText != "" {
		comment = domain.NewTransitionComment(app.ApplicationID, actor.UserID, actor.Role, commentText, from, target)
	}

	events, err := s.transitionEvents(actor, app, from, target, commentText)
	if err != nil {
		return nil, err
	}

	if err := s.appRepo.Transition(ctx, app, from, comment, events); err != nil {
		if errors.Is(err, domain.ErrStaleUpdate) {
			// 守卫条件未命中：另一调用方抢先转移了状态
			current, readErr := s.appRepo.GetByApplicationID(ctx, app.ApplicationID)
			actual := domain.Status("")
			if readErr == nil {
				actual = current.Status
			}
			return nil, s.rejected(domain.NewStaleState(from, actual))
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.TransitionsTotal.Inc()
	}
	logger.Info(ctx, "Application status changed",
		"application_id", app.ApplicationID,
		"from", from,
		"to", target,
		"actor_id", actor.UserID,
		"actor_role", actor.Role,
	)
	return NewApplicationView(app, actor.Role), nil
}

// transitionEvents 一次转移要写入发件箱的事件集合
func (s *CommandService) transitionEvents(actor *domain.User, app *domain.Application, from, to domain.Status, commentText string) ([]*domain.OutboxMessage, error) {
	key := strconv.FormatInt(app.ApplicationID, 10)

	statusChanged, err := domain.NewOutboxMessage(
		domain.TopicApplicationStatusChanged, key,
		domain.ApplicationStatusChangedEvent{
			ApplicationID: app.ApplicationID,
			ApplicantID:   app.ApplicantID,
			OrgName:       app.OrgName,
			FromStatus:    from,
			ToStatus:      to,
			ActorID:       actor.UserID,
			ActorRole:     actor.Role,
			Comment:       commentText,
			OccurredAt:    app.LastModified,
		},
	)
	if err != nil {
		return nil, err
	}
	events := []*domain.OutboxMessage{statusChanged}

	if to == domain.StatusApproved {
		approved, err := domain.NewOutboxMessage(
			domain.TopicApplicationApproved, key,
			domain.ApplicationApprovedEvent{
				ApplicationID: app.ApplicationID,
				ApplicantID:   app.ApplicantID,
				OrgName:       app.OrgName,
				Acronym:       app.Acronym,
				District:      app.District,
				Province:      app.Province,
				ApprovedBy:    actor.UserID,
				ApprovedAt:    app.LastModified,
			},
		)
		if err != nil {
			return nil, err
		}
		events = append(events, approved)
	}

	return events, nil
}

// rejected 记录被拒绝的转移指标后原样返回错误
func (s *CommandService) rejected(err error) error {
	var domainErr *domain.Error
	if s.metrics != nil && errors.As(err, &domainErr) {
		s.metrics.TransitionsRejected.WithLabelValues(domainErr.Code).Inc()
	}
	return err
}

// CompleteCertificateIssuance 证书服务签发完成后的系统回调：
// APPROVED → CERTIFICATE_ISSUED，由 SYSTEM 角色执行。重复投递时幂等返回。
func (s *CommandService) CompleteCertificateIssuance(ctx context.Context, event domain.CertificateIssuedEvent) error {
	app, err := s.appRepo.GetByApplicationID(ctx, event.ApplicationID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return domain.NewNotFound("application", event.ApplicationID)
		}
		return err
	}

	if app.Status == domain.StatusCertificateIssued {
		return nil
	}
	if !domain.CanTransition(domain.RoleSystem, app.Status, domain.StatusCertificateIssued) {
		return domain.NewForbiddenTransition(domain.RoleSystem, app.Status, domain.StatusCertificateIssued)
	}

	from := app.Status
	app.ApplyTransition(domain.StatusCertificateIssued)
	app.CertificateNumber = event.CertificateNumber

	statusChanged, err := domain.NewOutboxMessage(
		domain.TopicApplicationStatusChanged,
		strconv.FormatInt(app.ApplicationID, 10),
		domain.ApplicationStatusChangedEvent{
			ApplicationID: app.ApplicationID,
			ApplicantID:   app.ApplicantID,
			OrgName:       app.OrgName,
			FromStatus:    from,
			ToStatus:      domain.StatusCertificateIssued,
			ActorID:       "system",
			ActorRole:     domain.RoleSystem,
			OccurredAt:    app.LastModified,
		},
	)
	if err != nil {
		return err
	}

	comment := domain.NewTransitionComment(
		app.ApplicationID, "system", domain.RoleSystem,
		"Certificate "+event.CertificateNumber+" issued",
		from, domain.StatusCertificateIssued,
	)

	if err := s.appRepo.Transition(ctx, app, from, comment, []*domain.OutboxMessage{statusChanged}); err != nil {
		if errors.Is(err, domain.ErrStaleUpdate) {
			// 并发投递同一事件，另一个消费者已完成收尾
			return nil
		}
		return err
	}

	logger.Info(ctx, "Application certificate issuance completed",
		"application_id", app.ApplicationID,
		"certificate_number", event.CertificateNumber,
	)
	return nil
}

// UploadDocument 上传或重新上传材料。重新上传会清掉核验标记。
func (s *CommandService) UploadDocument(ctx context.Context, actorID string, applicationID int64, req UploadDocumentRequest) (*domain.Document, error) {
	docType := domain.DocumentType(req.Type)
	if !domain.IsKnownDocumentType(docType) {
		return nil, domain.NewValidationFailed("unknown document type: " + req.Type)
	}

	app, err := s.appRepo.GetByApplicationID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, domain.NewNotFound("application", applicationID)
		}
		return nil, err
	}

	if app.ApplicantID != actorID {
		return nil, domain.NewValidationFailed("only the applicant can upload documents")
	}
	uploadable := app.CanEdit ||
		app.Status == domain.StatusPending ||
		app.Status == domain.StatusFBOReview
	if !uploadable {
		return nil, domain.NewValidationFailed("application is not editable in status " + string(app.Status))
	}

	doc, err := s.docRepo.FindByType(ctx, applicationID, docType)
	if err != nil && !errors.Is(err, domain.ErrRecordNotFound) {
		return nil, err
	}

	reupload := doc != nil
	if reupload {
		doc.Replace(req.FileName, req.StorageKey, req.ContentType, req.SizeBytes)
	} else {
		doc = &domain.Document{
			ApplicationID: applicationID,
			Type:          docType,
		}
		doc.Replace(req.FileName, req.StorageKey, req.ContentType, req.SizeBytes)
	}

	uploaded, err := domain.NewOutboxMessage(
		domain.TopicDocumentUploaded,
		strconv.FormatInt(applicationID, 10),
		domain.DocumentUploadedEvent{
			ApplicationID: applicationID,
			DocumentType:  docType,
			FileName:      doc.FileName,
			Reupload:      reupload,
			UploadedAt:    doc.UploadedAt,
		},
	)
	if err != nil {
		return nil, err
	}

	if err := s.docRepo.Save(ctx, doc, []*domain.OutboxMessage{uploaded}); err != nil {
		return nil, err
	}

	logger.Info(ctx, "Document uploaded",
		"application_id", applicationID,
		"document_type", docType,
		"reupload", reupload,
	)
	return doc, nil
}

// ValidateDocument 审查人核验一份已上传的材料
func (s *CommandService) ValidateDocument(ctx context.Context, actorID string, applicationID int64, docType domain.DocumentType) (*domain.Document, error) {
	actor, err := s.resolveActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if actor.Role == domain.RoleApplicant {
		return nil, domain.NewValidationFailed("applicants cannot validate documents")
	}

	doc, err := s.docRepo.FindByType(ctx, applicationID, docType)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, domain.NewNotFound("document", docType)
		}
		return nil, err
	}

	doc.MarkValidated(actorID)

	validated, err := domain.NewOutboxMessage(
		domain.TopicDocumentValidated,
		strconv.FormatInt(applicationID, 10),
		domain.DocumentValidatedEvent{
			ApplicationID: applicationID,
			DocumentType:  docType,
			ValidatedBy:   actorID,
			ValidatedAt:   *doc.ValidatedAt,
		},
	)
	if err != nil {
		return nil, err
	}

	if err := s.docRepo.Save(ctx, doc, []*domain.OutboxMessage{validated}); err != nil {
		return nil, err
	}
	return doc, nil
}

// AddComment 追加一条独立审批意见
func (s *CommandService) AddComment(ctx context.Context, actorID string, applicationID int64, req AddCommentRequest) (*domain.Comment, error) {
	actor, err := s.resolveActor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	if _, err := s.appRepo.GetByApplicationID(ctx, applicationID); err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, domain.NewNotFound("application", applicationID)
		}
		return nil, err
	}

	comment, err := domain.NewComment(applicationID, actorID, actor.Role, req.Content)
	if err != nil {
		return nil, err
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateUser 创建用户并分配角色
func (s *CommandService) CreateUser(ctx context.Context, req CreateUserRequest) (*domain.User, error) {
	user, err := domain.NewUser(req.UserID, req.Name, req.Email, req.Phone, domain.Role(req.Role), req.District)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	logger.Info(ctx, "User created", "user_id", user.UserID, "role", user.Role)
	return user, nil
}

// AssignRole 变更用户角色
func (s *CommandService) AssignRole(ctx context.Context, userID string, req AssignRoleRequest) (*domain.User, error) {
	user, err := s.userRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, domain.NewNotFound("user", userID)
		}
		return nil, err
	}
	if err := user.AssignRole(domain.Role(req.Role)); err != nil {
		return nil, err
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
