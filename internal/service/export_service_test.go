package service

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classtrack/school-report-api/internal/models"
)

type fakeReportLister struct {
	reports []models.TeacherReportDetail
	err     error
	gotDate string
}

func (f *fakeReportLister) ListByDate(_ context.Context, date string) ([]models.TeacherReportDetail, error) {
	f.gotDate = date
	return f.reports, f.err
}

func exportDetail(period int, status models.ReportStatus, homework *string) models.TeacherReportDetail {
	return models.TeacherReportDetail{
		TeacherReport: models.TeacherReport{
			ID:        "rep-1",
			Period:    period,
			Activity:  "Fractions drill",
			Status:    status,
			CreatedAt: time.Date(2026, 2, 3, 8, 15, 0, 0, time.UTC),
		},
		TeacherName: "Siti Rahma",
		TeacherCode: "T-104",
		SubjectName: "Mathematics",
		ClassName:   "7A",
		HomeworkRef: homework,
	}
}

func TestExportRenderRejectsUnknownFormat(t *testing.T) {
	svc := NewExportService(&fakeReportLister{}, nil)

	_, err := svc.Render(context.Background(), "2026-02-03", "xlsx")
	appErr := asAppError(t, err)
	assert.Equal(t, "INVALID_PARAMETER", appErr.Code)
}

func TestExportRenderCSV(t *testing.T) {
	title := "Worksheet p.12"
	lister := &fakeReportLister{reports: []models.TeacherReportDetail{
		exportDetail(2, models.ReportStatusApproved, &title),
		exportDetail(3, models.ReportStatusPending, nil),
	}}
	svc := NewExportService(lister, func() time.Time {
		return time.Date(2026, 2, 3, 9, 0, 0, 0, time.UTC)
	})

	file, err := svc.Render(context.Background(), "2026-02-03", "csv")
	require.NoError(t, err)
	assert.Equal(t, "2026-02-03", lister.gotDate)
	assert.Equal(t, "teacher-reports-2026-02-03.csv", file.Filename)
	assert.Equal(t, "text/csv", file.ContentType)

	body := string(file.Body)
	lines := strings.Split(strings.TrimSpace(body), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "Teacher")
	assert.Contains(t, lines[0], "Filed At")
	assert.Contains(t, lines[1], "Siti Rahma")
	assert.Contains(t, lines[1], "Worksheet p.12")
	assert.Contains(t, lines[2], "pending")
}

func TestExportRenderCSVDefaultsDateToToday(t *testing.T) {
	lister := &fakeReportLister{}
	svc := NewExportService(lister, func() time.Time {
		return time.Date(2026, 2, 3, 9, 0, 0, 0, time.UTC)
	})

	file, err := svc.Render(context.Background(), "", "csv")
	require.NoError(t, err)
	assert.Equal(t, "", lister.gotDate)
	assert.Equal(t, "teacher-reports-2026-02-03.csv", file.Filename)
}

func TestExportRenderPDF(t *testing.T) {
	lister := &fakeReportLister{reports: []models.TeacherReportDetail{
		exportDetail(2, models.ReportStatusPending, nil),
	}}
	svc := NewExportService(lister, nil)

	file, err := svc.Render(context.Background(), "2026-02-03", "pdf")
	require.NoError(t, err)
	assert.Equal(t, "teacher-reports-2026-02-03.pdf", file.Filename)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, bytes.HasPrefix(file.Body, []byte("%PDF")))
}
