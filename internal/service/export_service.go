package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/classtrack/school-report-api/internal/models"
	appErrors "github.com/classtrack/school-report-api/pkg/errors"
	"github.com/classtrack/school-report-api/pkg/export"
)

type reportLister interface {
	ListByDate(ctx context.Context, date string) ([]models.TeacherReportDetail, error)
}

// ExportFile is a rendered export ready to stream to the client.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService renders a day's reports as CSV or PDF.
type ExportService struct {
	reports reportLister
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
	now     func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(reports reportLister, now func() time.Time) *ExportService {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &ExportService{
		reports: reports,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		now:     now,
	}
}

// Render produces the day's report sheet in the requested format. An empty
// date means today; format must be csv or pdf.
func (s *ExportService) Render(ctx context.Context, date, format string) (*ExportFile, error) {
	if format != "csv" && format != "pdf" {
		return nil, appErrors.Clone(appErrors.ErrInvalidParameter, "format must be csv or pdf")
	}

	reports, err := s.reports.ListByDate(ctx, date)
	if err != nil {
		return nil, err
	}

	label := date
	if label == "" {
		label = s.now().Format("2006-01-02")
	}
	dataset := buildReportDataset(reports)

	switch format {
	case "csv":
		body, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render CSV")
		}
		return &ExportFile{
			Filename:    fmt.Sprintf("teacher-reports-%s.csv", label),
			ContentType: "text/csv",
			Body:        body,
		}, nil
	default:
		body, err := s.pdf.Render(dataset, fmt.Sprintf("Teacher Reports - %s", label))
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render PDF")
		}
		return &ExportFile{
			Filename:    fmt.Sprintf("teacher-reports-%s.pdf", label),
			ContentType: "application/pdf",
			Body:        body,
		}, nil
	}
}

func buildReportDataset(reports []models.TeacherReportDetail) export.Dataset {
	dataset := export.Dataset{
		Headers: []string{"Teacher", "Code", "Period", "Subject", "Class", "Activity", "Homework", "Status", "Filed At"},
	}
	for _, report := range reports {
		homework := ""
		if report.HomeworkRef != nil {
			homework = *report.HomeworkRef
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Teacher":  report.TeacherName,
			"Code":     report.TeacherCode,
			"Period":   strconv.Itoa(report.Period),
			"Subject":  report.SubjectName,
			"Class":    report.ClassName,
			"Activity": report.Activity,
			"Homework": homework,
			"Status":   string(report.Status),
			"Filed At": report.CreatedAt.Format(time.RFC3339),
		})
	}
	return dataset
}
