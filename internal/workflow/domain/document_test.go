package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMissingRequiredDocuments(t *testing.T) {
	missing := MissingRequiredDocuments(nil)
	assert.ElementsMatch(t, []DocumentType{
		DocTypeConstitution,
		DocTypePastorCredential,
		DocTypeRecommendationLetter,
		DocTypeProofOfPremises,
		DocTypeMemberRegister,
	}, missing)

	uploaded := []Document{
		{ApplicationID: 1, Type: DocTypeConstitution},
		{ApplicationID: 1, Type: DocTypePastorCredential},
		{ApplicationID: 1, Type: DocTypeRecommendationLetter},
		{ApplicationID: 1, Type: DocTypeProofOfPremises},
	}
	assert.Equal(t, []DocumentType{DocTypeMemberRegister}, MissingRequiredDocuments(uploaded))

	uploaded = append(uploaded, Document{ApplicationID: 1, Type: DocTypeMemberRegister})
	assert.Empty(t, MissingRequiredDocuments(uploaded))
}

func TestMissingRequiredDocumentsIgnoresOptional(t *testing.T) {
	// 选交的财务报表缺失不拦转移
	uploaded := []Document{
		{Type: DocTypeConstitution},
		{Type: DocTypePastorCredential},
		{Type: DocTypeRecommendationLetter},
		{Type: DocTypeProofOfPremises},
		{Type: DocTypeMemberRegister},
	}
	assert.Empty(t, MissingRequiredDocuments(uploaded))
}

func TestMissingRequiredDocumentsIgnoresValidFlag(t *testing.T) {
	// 门禁只看是否上传，未核验的材料不算缺失
	uploaded := []Document{
		{Type: DocTypeConstitution, Valid: false},
		{Type: DocTypePastorCredential, Valid: false},
		{Type: DocTypeRecommendationLetter, Valid: false},
		{Type: DocTypeProofOfPremises, Valid: false},
		{Type: DocTypeMemberRegister, Valid: false},
	}
	assert.Empty(t, MissingRequiredDocuments(uploaded))
}

func TestDocumentReplaceClearsValidation(t *testing.T) {
	doc := &Document{
		ApplicationID: 1,
		Type:          DocTypeConstitution,
	}
	doc.Replace("constitution.pdf", "s3://bucket/constitution.pdf", "application/pdf", 2048)
	doc.MarkValidated("officer-1")

	require.True(t, doc.Valid)
	require.Equal(t, "officer-1", doc.ValidatedBy)
	require.NotNil(t, doc.ValidatedAt)

	doc.Replace("constitution-v2.pdf", "s3://bucket/constitution-v2.pdf", "application/pdf", 4096)

	assert.False(t, doc.Valid)
	assert.Empty(t, doc.ValidatedBy)
	assert.Nil(t, doc.ValidatedAt)
	assert.Equal(t, "constitution-v2.pdf", doc.FileName)
}

func TestIsKnownDocumentType(t *testing.T) {
	assert.True(t, IsKnownDocumentType(DocTypeConstitution))
	assert.True(t, IsKnownDocumentType(DocTypeFinancialStatement))
	assert.False(t, IsKnownDocumentType(DocumentType("TAX_RETURN")))
}

func TestApplyTransitionTogglesEdit(t *testing.T) {
	app, err := NewApplication(100, "user-1", "Grace Church", "GC", "Central", "Western", "", "")
	require.NoError(t, err)
	require.Equal(t, StatusPending, app.Status)
	require.False(t, app.CanEdit)

	before := app.LastModified
	app.ApplyTransition(StatusPastorDocument)
	assert.True(t, app.CanEdit)
	assert.False(t, app.LastModified.Before(before))

	app.ApplyTransition(StatusFBOReview)
	assert.False(t, app.CanEdit)
}

func TestNewApplicationValidation(t *testing.T) {
	_, err := NewApplication(1, "user-1", "", "GC", "Central", "Western", "", "")
	assert.Error(t, err)

	_, err = NewApplication(1, "", "Grace Church", "GC", "Central", "Western", "", "")
	assert.Error(t, err)

	_, err = NewApplication(1, "user-1", "Grace Church", "GC", "", "Western", "", "")
	assert.Error(t, err)
}
