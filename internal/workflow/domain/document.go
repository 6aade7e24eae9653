package domain

import (
	"time"

	"gorm.io/gorm"
)

// DocumentType 材料类型
type DocumentType string

const (
	// DocTypeConstitution 组织章程
	DocTypeConstitution DocumentType = "CONSTITUTION"
	// DocTypePastorCredential 牧者资格证明
	DocTypePastorCredential DocumentType = "PASTOR_CREDENTIAL"
	// DocTypeRecommendationLetter 推荐信
	DocTypeRecommendationLetter DocumentType = "RECOMMENDATION_LETTER"
	// DocTypeProofOfPremises 场所证明
	DocTypeProofOfPremises DocumentType = "PROOF_OF_PREMISES"
	// DocTypeMemberRegister 成员名册
	DocTypeMemberRegister DocumentType = "MEMBER_REGISTER"
	// DocTypeFinancialStatement 财务报表，选交
	DocTypeFinancialStatement DocumentType = "FINANCIAL_STATEMENT"
)

// DocumentRequirement 材料清单条目
type DocumentRequirement struct {
	Type     DocumentType `json:"type"`
	Name     string       `json:"name"`
	Required bool         `json:"required"`
}

// documentChecklist 每份申请的统一材料清单
var documentChecklist = []DocumentRequirement{
	{Type: DocTypeConstitution, Name: "Organization constitution", Required: true},
	{Type: DocTypePastorCredential, Name: "Pastor credential", Required: true},
	{Type: DocTypeRecommendationLetter, Name: "Recommendation letter", Required: true},
	{Type: DocTypeProofOfPremises, Name: "Proof of premises", Required: true},
	{Type: DocTypeMemberRegister, Name: "Member register", Required: true},
	{Type: DocTypeFinancialStatement, Name: "Financial statement", Required: false},
}

// DocumentChecklist 返回材料清单副本
func DocumentChecklist() []DocumentRequirement {
	out := make([]DocumentRequirement, len(documentChecklist))
	copy(out, documentChecklist)
	return out
}

// IsKnownDocumentType 材料类型是否在清单内
func IsKnownDocumentType(t DocumentType) bool {
	for _, req := range documentChecklist {
		if req.Type == t {
			return true
		}
	}
	return false
}

// Document 申请人上传的一份材料
type Document struct {
	gorm.Model
	ApplicationID int64        `gorm:"index:idx_app_doc,unique;not null;comment:业务申请ID" json:"application_id"`
	Type          DocumentType `gorm:"index:idx_app_doc,unique;type:varchar(64);not null;comment:材料类型" json:"type"`
	FileName      string       `gorm:"type:varchar(255);not null;comment:文件名" json:"file_name"`
	StorageKey    string       `gorm:"type:varchar(512);not null;comment:对象存储键" json:"storage_key"`
	ContentType   string       `gorm:"type:varchar(128);comment:MIME类型" json:"content_type"`
	SizeBytes     int64        `gorm:"comment:文件大小" json:"size_bytes"`
	// Valid 审查人是否已核验该材料。重新上传会清掉核验标记。
	Valid       bool       `gorm:"not null;default:false" json:"valid"`
	ValidatedBy string     `gorm:"type:varchar(64);comment:核验人用户ID" json:"validated_by,omitempty"`
	ValidatedAt *time.Time `gorm:"comment:核验时间" json:"validated_at,omitempty"`
	UploadedAt  time.Time  `gorm:"not null;comment:上传时间" json:"uploaded_at"`
}

// TableName 指定表名
func (Document) TableName() string {
	return "application_documents"
}

// Replace 重新上传：覆盖文件信息并清掉核验标记
func (d *Document) Replace(fileName, storageKey, contentType string, sizeBytes int64) {
	d.FileName = fileName
	d.StorageKey = storageKey
	d.ContentType = contentType
	d.SizeBytes = sizeBytes
	d.Valid = false
	d.ValidatedBy = ""
	d.ValidatedAt = nil
	d.UploadedAt = time.Now()
}

// MarkValidated 审查人核验通过
func (d *Document) MarkValidated(validatorID string) {
	now := time.Now()
	d.Valid = true
	d.ValidatedBy = validatorID
	d.ValidatedAt = &now
}

// MissingRequiredDocuments 材料门禁：清单里 required 且尚未上传的类型。
// 只看是否上传过，核验标记不参与门禁。
func MissingRequiredDocuments(uploaded []Document) []DocumentType {
	present := make(map[DocumentType]bool, len(uploaded))
	for _, doc := range uploaded {
		present[doc.Type] = true
	}

	missing := []DocumentType{}
	for _, req := range documentChecklist {
		if req.Required && !present[req.Type] {
			missing = append(missing, req.Type)
		}
	}
	return missing
}
