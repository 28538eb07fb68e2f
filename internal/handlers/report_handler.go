package handlers

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Dagmawi-Y/techtonic-AMS-sub000/internal/logger"
	"github.com/Dagmawi-Y/techtonic-AMS-sub000/internal/models"
	"github.com/Dagmawi-Y/techtonic-AMS-sub000/internal/reporting"
	"github.com/Dagmawi-Y/techtonic-AMS-sub000/internal/utils"
)

// ReportMailer sends a generated report.
type ReportMailer interface {
	SendEmail(to, subject, body string, attachments ...utils.Attachment) error
}

type ReportHandler struct {
	reporter *reporting.Reporter
	mailer   ReportMailer
	log      *zap.Logger
	timeout  time.Duration
	now      func() time.Time
}

func NewReportHandler(reporter *reporting.Reporter, mailer ReportMailer, log *zap.Logger, timeout time.Duration) *ReportHandler {
	return &ReportHandler{reporter: reporter, mailer: mailer, log: log, timeout: timeout, now: time.Now}
}

func filterFrom(r *http.Request) reporting.Filter {
	return reporting.Filter{
		BatchID:   r.URL.Query().Get("batch_id"),
		ProgramID: r.URL.Query().Get("program_id"),
	}
}

func (h *ReportHandler) build(w http.ResponseWriter, r *http.Request, filter reporting.Filter, op string) ([]models.Report, bool) {
	ctx, cancel := withTimeout(r, h.timeout)
	defer cancel()

	reports, err := h.reporter.Build(ctx, filter)
	if err != nil {
		h.log.Error("build reports", zap.String(logger.FieldOperation, op), zap.Error(err))
		http.Error(w, "Failed to fetch reports", http.StatusInternalServerError)
		return nil, false
	}
	return reports, true
}

// GetReports returns one report per batch and program.
func (h *ReportHandler) GetReports(w http.ResponseWriter, r *http.Request) {
	reports, ok := h.build(w, r, filterFrom(r), "get_reports")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

// ExportReports downloads the reports as CSV or printable HTML.
func (h *ReportHandler) ExportReports(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "html" {
		http.Error(w, "Unsupported export format", http.StatusBadRequest)
		return
	}

	reports, ok := h.build(w, r, filterFrom(r), "export_reports")
	if !ok {
		return
	}

	var (
		buf bytes.Buffer
		err error
	)
	if format == "csv" {
		err = reporting.WriteCSV(&buf, reports)
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="attendance_report.csv"`)
	} else {
		err = reporting.WriteHTML(&buf, reports, h.now())
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
	}
	if err != nil {
		h.log.Error("render export", zap.String(logger.FieldOperation, "export_reports"), zap.String("format", format), zap.Error(err))
		w.Header().Del("Content-Disposition")
		http.Error(w, "Failed to export reports", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

type emailReportRequest struct {
	To        string `json:"to" validate:"required,email"`
	BatchID   string `json:"batch_id"`
	ProgramID string `json:"program_id"`
}

// EmailReport mails the reports as a CSV attachment with an HTML body.
func (h *ReportHandler) EmailReport(w http.ResponseWriter, r *http.Request) {
	var req emailReportRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	reports, ok := h.build(w, r, reporting.Filter{BatchID: req.BatchID, ProgramID: req.ProgramID}, "email_report")
	if !ok {
		return
	}

	var body bytes.Buffer
	if err := reporting.WriteHTML(&body, reports, h.now()); err != nil {
		h.log.Error("render report", zap.String(logger.FieldOperation, "email_report"), zap.Error(err))
		http.Error(w, "Failed to send report", http.StatusInternalServerError)
		return
	}
	attachment := utils.Attachment{
		Name:  "attendance_report.csv",
		Write: func(w io.Writer) error { return reporting.WriteCSV(w, reports) },
	}
	if err := h.mailer.SendEmail(req.To, "Attendance Report", body.String(), attachment); err != nil {
		h.log.Error("send report", zap.String(logger.FieldOperation, "email_report"), zap.Error(err))
		http.Error(w, "Failed to send report", http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
