package application

import (
	"context"
	"errors"

	"github.com/rgbportal/fboauthorization/internal/workflow/domain"
	"github.com/rgbportal/fboauthorization/pkg/utils"
)

// QueryService 工作流读用例：详情、列表、待办队列、材料清单、意见与用户
type QueryService struct {
	appRepo     domain.ApplicationRepository
	docRepo     domain.DocumentRepository
	commentRepo domain.CommentRepository
	userRepo    domain.UserRepository
}

// NewQueryService 创建读用例服务
func NewQueryService(
	appRepo domain.ApplicationRepository,
	docRepo domain.DocumentRepository,
	commentRepo domain.CommentRepository,
	userRepo domain.UserRepository,
) *QueryService {
	return &QueryService{
		appRepo:     appRepo,
		docRepo:     docRepo,
		commentRepo: commentRepo,
		userRepo:    userRepo,
	}
}

// actorRole 解析调用方角色，查不到时按申请人处理（只影响视图里的可转移集合）
func (s *QueryService) actorRole(ctx context.Context, actorID string) domain.Role {
	user, err := s.userRepo.GetByUserID(ctx, actorID)
	if err != nil {
		return domain.RoleApplicant
	}
	return user.Role
}

// GetApplication 申请详情，附带调用方视角的可转移目标集合
func (s *QueryService) GetApplication(ctx context.Context, actorID string, applicationID int64) (*ApplicationView, error) {
	app, err := s.appRepo.GetByApplicationID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, domain.NewNotFound("application", applicationID)
		}
		return nil, err
	}
	return NewApplicationView(app, s.actorRole(ctx, actorID)), nil
}

// ListApplications 申请列表。申请人只能看到自己的申请，审查角色可按条件过滤。
func (s *QueryService) ListApplications(ctx context.Context, actorID string, filter domain.ApplicationFilter, page, pageSize int) (*ApplicationListView, error) {
	role := s.actorRole(ctx, actorID)
	if role == domain.RoleApplicant {
		filter.ApplicantID = actorID
	}

	pagination := utils.NewPagination(page, pageSize, 0)
	apps, total, err := s.appRepo.List(ctx, filter, pagination.Offset(), pagination.Limit())
	if err != nil {
		return nil, err
	}

	return s.listView(apps, role, page, pageSize, total), nil
}

// ListQueue 调用方角色的待办队列：角色在矩阵中有出边的全部状态
func (s *QueryService) ListQueue(ctx context.Context, actorID string, page, pageSize int) (*ApplicationListView, error) {
	role := s.actorRole(ctx, actorID)
	statuses := domain.ActionableStatuses(role)

	pagination := utils.NewPagination(page, pageSize, 0)
	items := []domain.Application{}
	var total int64

	// 待办状态逐个查询后合并。队列状态数最多为 3，不值得为此加专用查询。
	for _, status := range statuses {
		filter := domain.ApplicationFilter{Status: status}
		if role == domain.RoleApplicant {
			filter.ApplicantID = actorID
		}
		apps, count, err := s.appRepo.List(ctx, filter, 0, pagination.Limit())
		if err != nil {
			return nil, err
		}
		items = append(items, apps...)
		total += count
	}

	if len(items) > pagination.Limit() {
		items = items[:pagination.Limit()]
	}
	return s.listView(items, role, page, pageSize, total), nil
}

func (s *QueryService) listView(apps []domain.Application, role domain.Role, page, pageSize int, total int64) *ApplicationListView {
	views := make([]ApplicationView, 0, len(apps))
	for i := range apps {
		views = append(views, *NewApplicationView(&apps[i], role))
	}
	return &ApplicationListView{
		Items:      views,
		Pagination: utils.NewPagination(page, pageSize, total),
	}
}

// GetDocumentStatus 材料清单与上传/核验情况
func (s *QueryService) GetDocumentStatus(ctx context.Context, applicationID int64) ([]DocumentStatusView, error) {
	if _, err := s.appRepo.GetByApplicationID(ctx, applicationID); err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, domain.NewNotFound("application", applicationID)
		}
		return nil, err
	}

	docs, err := s.docRepo.FindByApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	byType := make(map[domain.DocumentType]*domain.Document, len(docs))
	for i := range docs {
		byType[docs[i].Type] = &docs[i]
	}

	checklist := domain.DocumentChecklist()
	views := make([]DocumentStatusView, 0, len(checklist))
	for _, req := range checklist {
		view := DocumentStatusView{
			Type:     req.Type,
			Name:     req.Name,
			Required: req.Required,
		}
		if doc, ok := byType[req.Type]; ok {
			view.Uploaded = true
			view.Valid = doc.Valid
			view.FileName = doc.FileName
			view.UploadedAt = &doc.UploadedAt
			view.ValidatedBy = doc.ValidatedBy
		}
		views = append(views, view)
	}
	return views, nil
}

// ListComments 申请的审批意见，按时间排序
func (s *QueryService) ListComments(ctx context.Context, applicationID int64, page, pageSize int) (*CommentListView, error) {
	pagination := utils.NewPagination(page, pageSize, 0)
	comments, total, err := s.commentRepo.ListByApplication(ctx, applicationID, pagination.Offset(), pagination.Limit())
	if err != nil {
		return nil, err
	}
	return &CommentListView{
		Items:      comments,
		Pagination: utils.NewPagination(page, pageSize, total),
	}, nil
}

// GetUser 用户详情
func (s *QueryService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, domain.NewNotFound("user", userID)
		}
		return nil, err
	}
	return user, nil
}

// ListUsers 用户列表，可按角色过滤
func (s *QueryService) ListUsers(ctx context.Context, role domain.Role, page, pageSize int) (*UserListView, error) {
	pagination := utils.NewPagination(page, pageSize, 0)
	users, total, err := s.userRepo.List(ctx, role, pagination.Offset(), pagination.Limit())
	if err != nil {
		return nil, err
	}
	return &UserListView{
		Items:      users,
		Pagination: utils.NewPagination(page, pageSize, total),
	}, nil
}
