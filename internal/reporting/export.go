package reporting

import (
	"encoding/csv"
	"fmt"
	"html/template"
	"io"
	"strconv"
	"time"

	"github.com/Dagmawi-Y/techtonic-AMS-sub000/internal/models"
)

const dateLayout = "2006-01-02"

var csvHeader = []string{"Batch", "Program", "Date", "Total", "Present", "Absent", "Rate"}

// WriteCSV writes one row per session of every report.
func WriteCSV(w io.Writer, reports []models.Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range reports {
		for _, s := range r.Records {
			row := []string{
				r.BatchName,
				r.ProgramName,
				s.Date.Format(dateLayout),
				strconv.Itoa(s.Total),
				strconv.Itoa(s.Present),
				strconv.Itoa(s.Absent),
				s.Rate,
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("write csv row for session %s: %w", s.SessionID, err)
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"date": func(t time.Time) string { return t.Format(dateLayout) },
	"pct":  func(f float64) string { return strconv.FormatFloat(f, 'f', 1, 64) },
}).Parse(`<!DOCTYPE html>
<html>
<head>
	<meta charset="utf-8">
	<title>Attendance Report</title>
	<style>
		body { font-family: Arial, sans-serif; color: #333; margin: 24px; }
		h1 { color: #003366; font-size: 22px; }
		h2 { font-size: 18px; margin-bottom: 4px; }
		.meta { color: #666; font-size: 12px; margin-bottom: 8px; }
		table { border-collapse: collapse; width: 100%; margin-bottom: 24px; }
		th, td { border: 1px solid #ccc; padding: 6px 8px; text-align: left; font-size: 13px; }
		th { background-color: #003366; color: #fff; }
		.summary { font-weight: bold; margin-bottom: 8px; }
	</style>
</head>
<body>
	<h1>Attendance Report</h1>
	<div class="meta">Generated {{date .GeneratedAt}}</div>
	{{range .Reports}}
	<h2>{{.BatchName}} &middot; {{.ProgramName}}</h2>
	<div class="meta">{{date .StartDate}} to {{date .EndDate}}</div>
	<div class="summary">Sessions: {{.Summary.TotalSessions}} &middot; Average attendance: {{pct .Summary.AverageAttendance}}% &middot; Students: {{.Summary.TotalStudents}}</div>
	<table>
		<tr><th>Date</th><th>Total</th><th>Present</th><th>Absent</th><th>Rate</th></tr>
		{{range .Records}}<tr><td>{{date .Date}}</td><td>{{.Total}}</td><td>{{.Present}}</td><td>{{.Absent}}</td><td>{{.Rate}}%</td></tr>
		{{end}}
	</table>
	{{else}}
	<p>No attendance records found.</p>
	{{end}}
</body>
</html>
`))

// WriteHTML renders the printable report document.
func WriteHTML(w io.Writer, reports []models.Report, generatedAt time.Time) error {
	return reportTemplate.Execute(w, struct {
		Reports     []models.Report
		GeneratedAt time.Time
	}{reports, generatedAt})
}
