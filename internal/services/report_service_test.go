package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"access-console/internal/models"
	"access-console/internal/storage"
	"access-console/internal/upstream"
)

type fakeUploader struct {
	name        string
	contentType string
	body        []byte
}

func (u *fakeUploader) Upload(_ context.Context, name, contentType string, body []byte) (*storage.Object, error) {
	u.name, u.contentType, u.body = name, contentType, body
	return &storage.Object{Bucket: "reports", Key: "reports/" + name, Size: len(body)}, nil
}

func TestReportCollectAndRender(t *testing.T) {
	f := newFixture(t)
	f.up.reply(upstream.PathInternalUsers, usersJSON)
	reports := NewReportService(f.conns, f.access, nil, f.audit)

	report, err := reports.Collect(context.Background(), f.sess)
	require.NoError(t, err)
	assert.Len(t, report.Connections, 2)
	assert.Len(t, report.Users, 2)
	assert.Equal(t, "admin@example.com", report.GeneratedBy)

	pdf, err := GenerateAccessPDF(report)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))

	raw, err := GenerateAccessCSV(report)
	require.NoError(t, err)
	rows, err := csv.NewReader(bytes.NewReader(raw)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4, "header plus one row per user and company")
	assert.Equal(t, []string{"Asha", "asha@example.com", "Yes", "Acme Traders", "g1", "1", "5", "No"}, rows[1])
	assert.Equal(t, "Yes", rows[3][7])
}

func TestReportExport(t *testing.T) {
	f := newFixture(t)
	f.up.reply(upstream.PathInternalUsers, usersJSON)

	_, err := NewReportService(f.conns, f.access, nil, f.audit).Export(context.Background(), f.sess)
	assert.True(t, errors.Is(err, errors.NotSupported))

	up := &fakeUploader{}
	obj, err := NewReportService(f.conns, f.access, up, f.audit).Export(context.Background(), f.sess)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", up.contentType)
	assert.Regexp(t, `^access-report-\d{8}-\d{6}\.pdf$`, up.name)
	assert.Equal(t, "reports/"+up.name, obj.Key)
	assert.Equal(t, []string{models.ActionReportExport}, f.audit.actions())
}

func TestReportFileName(t *testing.T) {
	at := time.Date(2024, 3, 1, 18, 45, 0, 0, time.UTC)
	assert.Equal(t, "access-report-20240302-001500.csv", ReportFileName(at, "csv"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "caf? ok", truncate("caf中 ok", 20))
}
