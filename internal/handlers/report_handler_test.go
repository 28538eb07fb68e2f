package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Dagmawi-Y/techtonic-AMS-sub000/internal/models"
	"github.com/Dagmawi-Y/techtonic-AMS-sub000/internal/utils"
)

type sentReport struct {
	to, subject, body string
	attachments       map[string]string
}

type captureMailer struct {
	sent []sentReport
	err  error
}

func (m *captureMailer) SendEmail(to, subject, body string, attachments ...utils.Attachment) error {
	s := sentReport{to: to, subject: subject, body: body, attachments: map[string]string{}}
	for _, a := range attachments {
		var buf bytes.Buffer
		if err := a.Write(&buf); err != nil {
			return err
		}
		s.attachments[a.Name] = buf.String()
	}
	m.sent = append(m.sent, s)
	return m.err
}

func newReportHandler(f *fixture, mailer ReportMailer) *ReportHandler {
	h := NewReportHandler(f.reporter, mailer, zap.NewNop(), time.Second)
	h.now = func() time.Time { return testDay }
	return h
}

func TestGetReports(t *testing.T) {
	f := newFixture(t)
	f.addSession(t, "a1", testDay, true, false)
	f.addSession(t, "a2", testDay.AddDate(0, 0, 7), true, true, true, false)
	h := newReportHandler(f, &captureMailer{})

	rec := serve(h.GetReports, newRequest(t, http.MethodGet, "/api/reports", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var reports []models.Report
	decode(t, rec, &reports)
	require.Len(t, reports, 1)
	r := reports[0]
	assert.Equal(t, "Cohort 3", r.BatchName)
	assert.Equal(t, "Web Development", r.ProgramName)
	assert.True(t, testDay.Equal(r.StartDate))
	assert.True(t, testDay.AddDate(0, 0, 7).Equal(r.EndDate))
	assert.Equal(t, 2, r.Summary.TotalSessions)
	assert.Equal(t, 3, r.Summary.TotalStudents)
	assert.InDelta(t, 62.5, r.Summary.AverageAttendance, 0.001)
}

func TestGetReportsFiltered(t *testing.T) {
	f := newFixture(t)
	f.addSession(t, "a1", testDay, true)
	h := newReportHandler(f, &captureMailer{})

	rec := serve(h.GetReports, newRequest(t, http.MethodGet, "/api/reports?batch_id=b9", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestExportReports(t *testing.T) {
	f := newFixture(t)
	f.addSession(t, "a1", testDay, true, false)
	h := newReportHandler(f, &captureMailer{})

	t.Run("csv", func(t *testing.T) {
		rec := serve(h.ExportReports, newRequest(t, http.MethodGet, "/api/reports/export?format=csv", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), "attendance_report.csv")
		lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
		require.Len(t, lines, 2)
		assert.Equal(t, "Batch,Program,Date,Total,Present,Absent,Rate", lines[0])
		assert.Equal(t, "Cohort 3,Web Development,2024-03-04,2,1,1,50.0", lines[1])
	})

	t.Run("html", func(t *testing.T) {
		rec := serve(h.ExportReports, newRequest(t, http.MethodGet, "/api/reports/export?format=html", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
		assert.Contains(t, rec.Body.String(), "Cohort 3")
		assert.Contains(t, rec.Body.String(), "Average attendance: 50.0%")
	})

	t.Run("unsupported format", func(t *testing.T) {
		rec := serve(h.ExportReports, newRequest(t, http.MethodGet, "/api/reports/export?format=pdf", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestEmailReport(t *testing.T) {
	f := newFixture(t)
	f.addSession(t, "a1", testDay, true, false)

	t.Run("sends csv attachment", func(t *testing.T) {
		mailer := &captureMailer{}
		h := newReportHandler(f, mailer)

		rec := serve(h.EmailReport, newRequest(t, http.MethodPost, "/api/reports/email", map[string]string{"to": "lead@tribe.test", "batch_id": "b1"}))
		require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
		require.Len(t, mailer.sent, 1)
		sent := mailer.sent[0]
		assert.Equal(t, "lead@tribe.test", sent.to)
		assert.Equal(t, "Attendance Report", sent.subject)
		assert.Contains(t, sent.body, "Cohort 3")
		assert.Contains(t, sent.attachments["attendance_report.csv"], "Cohort 3,Web Development,2024-03-04,2,1,1,50.0")
	})

	t.Run("invalid address", func(t *testing.T) {
		mailer := &captureMailer{}
		h := newReportHandler(f, mailer)

		rec := serve(h.EmailReport, newRequest(t, http.MethodPost, "/api/reports/email", map[string]string{"to": "not-an-address"}))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		var resp validationResponse
		decode(t, rec, &resp)
		require.Len(t, resp.Fields, 1)
		assert.Equal(t, FieldError{Field: "to", Error: "must be a valid email"}, resp.Fields[0])
		assert.Empty(t, mailer.sent)
	})

	t.Run("smtp failure", func(t *testing.T) {
		h := newReportHandler(f, &captureMailer{err: errors.New("connection refused")})

		rec := serve(h.EmailReport, newRequest(t, http.MethodPost, "/api/reports/email", map[string]string{"to": "lead@tribe.test"}))
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})
}
