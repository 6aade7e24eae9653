package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCertificate(t *testing.T) {
	cert := NewCertificate(100, 42, "Grace Church", "GC", "Central", "Western")

	assert.Equal(t, int64(100), cert.ApplicationID)
	assert.Equal(t, FormatCertificateNumber(time.Now().Year(), 42), cert.CertificateNumber)
	assert.Equal(t, "Grace Church", cert.OrgName)
	assert.False(t, cert.IsExpired())

	// 有效期五年
	require.WithinDuration(t, cert.IssuedAt.AddDate(5, 0, 0), cert.ExpiresAt, time.Second)
}

func TestFormatCertificateNumber(t *testing.T) {
	assert.Equal(t, "FBO-2026-42", FormatCertificateNumber(2026, 42))
}

func TestIsExpired(t *testing.T) {
	cert := NewCertificate(100, 42, "Grace Church", "", "Central", "Western")
	cert.ExpiresAt = time.Now().Add(-time.Hour)
	assert.True(t, cert.IsExpired())
}
