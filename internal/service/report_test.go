package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArchivedReportRequiresCloud(t *testing.T) {
	svc := &AdvisorService{} // no S3 client configured

	_, err := svc.ArchivedReport("abc")
	assert.ErrorIs(t, err, ErrArchiveDisabled)

	_, err = svc.ArchivedReportIDs()
	assert.ErrorIs(t, err, ErrArchiveDisabled)
}

func TestReportKey(t *testing.T) {
	assert.Equal(t, "reports/r-1.json", reportKey("r-1"))
}
