package domain

import "time"

// Kafka 主题。工作流服务只发不收（certificate.issued 除外）。
const (
	TopicApplicationSubmitted     = "application.submitted"
	TopicApplicationStatusChanged = "application.status.changed"
	TopicApplicationApproved      = "application.approved"
	TopicDocumentUploaded         = "document.uploaded"
	TopicDocumentValidated        = "document.validated"
	TopicCertificateIssued        = "certificate.issued"
)

// ApplicationSubmittedEvent 新申请提交
type ApplicationSubmittedEvent struct {
	ApplicationID int64     `json:"application_id"`
	ApplicantID   string    `json:"applicant_id"`
	OrgName       string    `json:"org_name"`
	District      string    `json:"district"`
	Province      string    `json:"province"`
	SubmittedAt   time.Time `json:"submitted_at"`
}

// ApplicationStatusChangedEvent 状态转移已提交。下游消费至少一次，需幂等。
type ApplicationStatusChangedEvent struct {
	ApplicationID int64     `json:"application_id"`
	ApplicantID   string    `json:"applicant_id"`
	OrgName       string    `json:"org_name"`
	FromStatus    Status    `json:"from_status"`
	ToStatus      Status    `json:"to_status"`
	ActorID       string    `json:"actor_id"`
	ActorRole     Role      `json:"actor_role"`
	Comment       string    `json:"comment,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// ApplicationApprovedEvent CEO 批准，触发证书签发
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

// DocumentUploadedEvent 材料上传（含重新上传）
type DocumentUploadedEvent struct {
	ApplicationID int64        `json:"application_id"`
	DocumentType  DocumentType `json:"document_type"`
	FileName      string       `json:"file_name"`
	Reupload      bool         `json:"reupload"`
	UploadedAt    time.Time    `json:"uploaded_at"`
}

// DocumentValidatedEvent 审查人核验材料
type DocumentValidatedEvent struct {
	ApplicationID int64        `json:"application_id"`
	DocumentType  DocumentType `json:"document_type"`
	ValidatedBy   string       `json:"validated_by"`
	ValidatedAt   time.Time    `json:"validated_at"`
}

// CertificateIssuedEvent 证书服务签发完成，工作流据此收尾到 CERTIFICATE_ISSUED
type CertificateIssuedEvent struct {
	ApplicationID     int64     `json:"application_id"`
	CertificateNumber string    `json:"certificate_number"`
	IssuedAt          time.Time `json:"issued_at"`
}
