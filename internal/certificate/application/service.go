// Package application 证书服务的应用层：签发、查询与公开核验
package application

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/rgbportal/fboauthorization/internal/certificate/domain"
	"github.com/rgbportal/fboauthorization/pkg/logger"
	"github.com/rgbportal/fboauthorization/pkg/metrics"
	"github.com/rgbportal/fboauthorization/pkg/mq"
	"github.com/rgbportal/fboauthorization/pkg/utils"
)

// 上下游主题
const (
	topicCertificateIssued = "certificate.issued"
)

// ApplicationApprovedEvent 工作流批准事件的本地视图
type ApplicationApprovedEvent struct {
	ApplicationID int64     `json:"application_id"`
	ApplicantID   string    `json:"applicant_id"`
	OrgName       string    `json:"org_name"`
	Acronym       string    `json:"acronym"`
	District      string    `json:"district"`
	Province      string    `json:"province"`
	ApprovedBy    string    `json:"approved_by"`
	ApprovedAt    time.Time `json:"approved_at"`
}

// certificateIssuedEvent 发往工作流服务的签发完成事件
type certificateIssuedEvent struct {
	ApplicationID     int64     `json:"application_id"`
	CertificateNumber string    `json:"certificate_number"`
	IssuedAt          time.Time `json:"issued_at"`
}

// VerificationResult 公开核验结果
type VerificationResult struct {
	Valid             bool      `json:"valid"`
	CertificateNumber string    `json:"certificate_number"`
	OrgName           string    `json:"org_name,omitempty"`
	District          string    `json:"district,omitempty"`
	Province          string    `json:"province,omitempty"`
	IssuedAt          time.Time `json:"issued_at,omitempty"`
	ExpiresAt         time.Time `json:"expires_at,omitempty"`
	Expired           bool      `json:"expired,omitempty"`
}

// CertificateListView 证书分页列表
type CertificateListView struct {
	Items      []domain.Certificate `json:"items"`
	Pagination *utils.Pagination    `json:"pagination"`
}

// VerificationListView 核验记录分页列表
type VerificationListView struct {
	Items      []domain.VerificationRecord `json:"items"`
	Pagination *utils.Pagination           `json:"pagination"`
}

// CertificateService 证书签发与核验用例
type CertificateService struct {
	certRepo   domain.CertificateRepository
	verifyRepo domain.VerificationRepository
	producer   *mq.KafkaProducer
	idGen      *utils.SnowflakeID
	metrics    *metrics.Metrics
}

// NewCertificateService 创建证书服务
func NewCertificateService(
	certRepo domain.CertificateRepository,
	verifyRepo domain.VerificationRepository,
	producer *mq.KafkaProducer,
	idGen *utils.SnowflakeID,
	m *metrics.Metrics,
) *CertificateService {
	return &CertificateService{
		certRepo:   certRepo,
		verifyRepo: verifyRepo,
		producer:   producer,
		idGen:      idGen,
		metrics:    m,
	}
}

// IssueForApplication 为已批准的申请签发证书。
// 事件至少一次投递：已签发过的申请直接重发完成事件，不再建新证书。
func (s *CertificateService) IssueForApplication(ctx context.Context, event ApplicationApprovedEvent) error {
	existing, err := s.certRepo.GetByApplicationID(ctx, event.ApplicationID)
	if err != nil && !errors.Is(err, domain.ErrRecordNotFound) {
		return err
	}

	cert := existing
	if cert == nil {
		cert = domain.NewCertificate(
			event.ApplicationID, s.idGen.Generate(),
			event.OrgName, event.Acronym, event.District, event.Province,
		)
		if err := s.certRepo.Create(ctx, cert); err != nil {
			return err
		}
		if s.metrics != nil {
			s.metrics.CertificatesIssued.Inc()
		}
		logger.Info(ctx, "Certificate issued",
			"application_id", cert.ApplicationID,
			"certificate_number", cert.CertificateNumber,
		)
	}

	return s.publishIssued(ctx, cert)
}

// publishIssued 带退避重试地发布签发完成事件
func (s *CertificateService) publishIssued(ctx context.Context, cert *domain.Certificate) error {
	event := certificateIssuedEvent{
		ApplicationID:     cert.ApplicationID,
		CertificateNumber: cert.CertificateNumber,
		IssuedAt:          cert.IssuedAt,
	}

	return utils.RetryWithBackoff(5, 200*time.Millisecond, 5*time.Second, func() error {
		return s.producer.SendMessage(ctx, topicCertificateIssued,
			strconv.FormatInt(cert.ApplicationID, 10), event)
	})
}

// GetByApplication 按申请查询证书
func (s *CertificateService) GetByApplication(ctx context.Context, applicationID int64) (*domain.Certificate, error) {
	return s.certRepo.GetByApplicationID(ctx, applicationID)
}

// List 证书列表
func (s *CertificateService) List(ctx context.Context, page, pageSize int) (*CertificateListView, error) {
	pagination := utils.NewPagination(page, pageSize, 0)
	certs, total, err := s.certRepo.List(ctx, pagination.Offset(), pagination.Limit())
	if err != nil {
		return nil, err
	}
	return &CertificateListView{
		Items:      certs,
		Pagination: utils.NewPagination(page, pageSize, total),
	}, nil
}

// Verify 公开核验证书编号，每次核验都落记录
func (s *CertificateService) Verify(ctx context.Context, number, clientIP string) (*VerificationResult, error) {
	cert, err := s.certRepo.GetByNumber(ctx, number)
	if err != nil && !errors.Is(err, domain.ErrRecordNotFound) {
		return nil, err
	}

	record := &domain.VerificationRecord{
		CertificateNumber: number,
		ClientIP:          clientIP,
		Found:             cert != nil,
		VerifiedAt:        time.Now(),
	}
	if recordErr := s.verifyRepo.Create(ctx, record); recordErr != nil {
		logger.Warn(ctx, "Failed to record certificate verification",
			"certificate_number", number,
			"error", recordErr,
		)
	}

	if cert == nil {
		return &VerificationResult{Valid: false, CertificateNumber: number}, nil
	}
	return &VerificationResult{
		Valid:             !cert.IsExpired(),
		CertificateNumber: cert.CertificateNumber,
		OrgName:           cert.OrgName,
		District:          cert.District,
		Province:          cert.Province,
		IssuedAt:          cert.IssuedAt,
		ExpiresAt:         cert.ExpiresAt,
		Expired:           cert.IsExpired(),
	}, nil
}

// ListVerifications 某证书的核验记录
func (s *CertificateService) ListVerifications(ctx context.Context, number string, page, pageSize int) (*VerificationListView, error) {
	pagination := utils.NewPagination(page, pageSize, 0)
	records, total, err := s.verifyRepo.ListByNumber(ctx, number, pagination.Offset(), pagination.Limit())
	if err != nil {
		return nil, err
	}
	return &VerificationListView{
		Items:      records,
		Pagination: utils.NewPagination(page, pageSize, total),
	}, nil
}
