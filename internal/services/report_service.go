package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/juju/errors"
	"github.com/jung-kurt/gofpdf/v2"
	"golang.org/x/sync/errgroup"

	"access-console/internal/models"
	"access-console/internal/storage"
	"access-console/internal/timeutil"
)

// Uploader stores an exported file.
type Uploader interface {
	Upload(ctx context.Context, name, contentType string, body []byte) (*storage.Object, error)
}

// AccessReport is a snapshot of who can reach which company.
type AccessReport struct {
	GeneratedAt time.Time
	GeneratedBy string
	Connections []models.Connection
	Users       []models.UserRow
}

// ReportService builds access reports
type ReportService struct {
	Connections *ConnectionService
	Access      *AccessService
	Uploader    Uploader
	Audit       AuditRecorder
}

func NewReportService(conns *ConnectionService, access *AccessService, uploader Uploader, audit AuditRecorder) *ReportService {
	return &ReportService{Connections: conns, Access: access, Uploader: uploader, Audit: audit}
}

// Collect gathers the report data in parallel.
func (s *ReportService) Collect(ctx context.Context, sess *models.Session) (*AccessReport, error) {
	report := &AccessReport{GeneratedAt: timeutil.Now(), GeneratedBy: sess.Email}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		report.Connections, err = s.Connections.List(gctx, sess)
		return err
	})
	g.Go(func() error {
		var err error
		report.Users, err = s.Access.List(gctx, sess)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return report, nil
}

// PDF renders the access report.
func (s *ReportService) PDF(ctx context.Context, sess *models.Session) ([]byte, error) {
	report, err := s.Collect(ctx, sess)
	if err != nil {
		return nil, err
	}
	return GenerateAccessPDF(report)
}

// CSV renders the user access table.
func (s *ReportService) CSV(ctx context.Context, sess *models.Session) ([]byte, error) {
	report, err := s.Collect(ctx, sess)
	if err != nil {
		return nil, err
	}
	return GenerateAccessCSV(report)
}

// Export uploads the PDF report to object storage.
func (s *ReportService) Export(ctx context.Context, sess *models.Session) (*storage.Object, error) {
	if s.Uploader == nil {
		return nil, errors.NotSupportedf("report export without object storage")
	}
	report, err := s.Collect(ctx, sess)
	if err != nil {
		return nil, err
	}
	pdf, err := GenerateAccessPDF(report)
	if err != nil {
		return nil, errors.Trace(err)
	}
	name := ReportFileName(report.GeneratedAt, "pdf")
	obj, err := s.Uploader.Upload(ctx, name, "application/pdf", pdf)
	if err != nil {
		return nil, errors.Annotate(err, "Error exporting report")
	}
	audit(ctx, s.Audit, sess, models.ActionReportExport, "report", obj.Key, "",
		fmt.Sprintf("Exported access report (%d connections, %d users)", len(report.Connections), len(report.Users)))
	return obj, nil
}

// ReportFileName names a report generated at t.
func ReportFileName(t time.Time, ext string) string {
	return fmt.Sprintf("access-report-%s.%s", timeutil.FormatIST(t, timeutil.FileLayout), ext)
}

func truncate(s string, n int) string {
	s = reportSafe(s)
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

// GenerateAccessPDF lays the report out on A4 landscape pages.
func GenerateAccessPDF(r *AccessReport) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 12)
	pdf.AddPage()

	// Header
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(277, 10, "Access Report", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(277, 6, fmt.Sprintf("Generated: %s by %s", timeutil.FormatIST(r.GeneratedAt, timeutil.DisplayLayout), r.GeneratedBy), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	// Connections
	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(277, 8, fmt.Sprintf("Company Connections (%d)", len(r.Connections)), "1", 1, "L", true, 0, "")

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(200, 200, 200)
	pdf.CellFormat(90, 7, "Company", "1", 0, "C", true, 0, "")
	pdf.CellFormat(30, 7, "Location", "1", 0, "C", true, 0, "")
	pdf.CellFormat(35, 7, "Access", "1", 0, "C", true, 0, "")
	pdf.CellFormat(30, 7, "Status", "1", 0, "C", true, 0, "")
	pdf.CellFormat(92, 7, "Shared By", "1", 1, "C", true, 0, "")

	pdf.SetFont("Arial", "", 9)
	for _, c := range r.Connections {
		pdf.CellFormat(90, 6, truncate(c.Company, 50), "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, string(c.TallylocID), "1", 0, "C", false, 0, "")
		pdf.CellFormat(35, 6, c.AccessType, "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, c.Status, "1", 0, "C", false, 0, "")
		pdf.CellFormat(92, 6, truncate(c.SharedEmail, 50), "1", 1, "L", false, 0, "")
	}
	pdf.Ln(5)

	// Users
	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(277, 8, fmt.Sprintf("Internal Users (%d)", len(r.Users)), "1", 1, "L", true, 0, "")

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(200, 200, 200)
	pdf.CellFormat(55, 7, "Name", "1", 0, "C", true, 0, "")
	pdf.CellFormat(80, 7, "Email", "1", 0, "C", true, 0, "")
	pdf.CellFormat(22, 7, "Active", "1", 0, "C", true, 0, "")
	pdf.CellFormat(25, 7, "Companies", "1", 0, "C", true, 0, "")
	pdf.CellFormat(60, 7, "Role", "1", 0, "C", true, 0, "")
	pdf.CellFormat(35, 7, "External", "1", 1, "C", true, 0, "")

	pdf.SetFont("Arial", "", 9)
	for _, u := range r.Users {
		pdf.CellFormat(55, 6, truncate(u.Name, 30), "1", 0, "L", false, 0, "")
		pdf.CellFormat(80, 6, truncate(u.Email, 45), "1", 0, "L", false, 0, "")
		pdf.CellFormat(22, 6, yesNo(u.UserActive), "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 6, strconv.Itoa(len(u.Companies)), "1", 0, "C", false, 0, "")
		pdf.CellFormat(60, 6, truncate(u.Consolidated.Role, 32), "1", 0, "L", false, 0, "")
		pdf.CellFormat(35, 6, u.Consolidated.External, "1", 1, "C", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, errors.Annotate(err, "rendering access report")
	}
	return buf.Bytes(), nil
}

// GenerateAccessCSV writes one row per user and company.
func GenerateAccessCSV(r *AccessReport) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"Name", "Email", "Active", "Company", "Company GUID", "Location", "Role ID", "External"})
	for _, u := range r.Users {
		if len(u.Companies) == 0 {
			_ = w.Write([]string{u.Name, u.Email, yesNo(u.UserActive), "", "", "", "", ""})
			continue
		}
		for _, c := range u.Companies {
			_ = w.Write([]string{
				u.Name, u.Email, yesNo(u.UserActive),
				c.CompanyName, c.CompanyGUID, string(c.TallylocID), c.RoleID.String(), yesNo(c.IsExternalUser),
			})
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, errors.Annotate(err, "writing access csv")
	}
	return buf.Bytes(), nil
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// reportSafe strips characters the core PDF fonts cannot render.
func reportSafe(s string) string {
	return strings.Map(func(r rune) rune {
		if r > 0xff {
			return '?'
		}
		return r
	}, s)
}
