package reporting

import (
	"strconv"

	"github.com/Dagmawi-Y/techtonic-AMS-sub000/internal/models"
)

// Summarize counts presence over one session's records.
func Summarize(records []models.RawRecord) models.SessionStats {
	stats := models.SessionStats{Total: len(records)}
	for _, r := range records {
		if r.IsPresent {
			stats.Present++
		}
	}
	stats.Absent = stats.Total - stats.Present
	stats.Rate = FormatRate(stats.Present, stats.Total)
	return stats
}

// Percentage is present/total*100, or 0 for an empty session.
func Percentage(present, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(present) / float64(total) * 100
}

// FormatRate renders the attendance percentage with one decimal.
func FormatRate(present, total int) string {
	return strconv.FormatFloat(Percentage(present, total), 'f', 1, 64)
}

// RollUp summarizes a report. AverageAttendance is the unweighted mean of
// the displayed per-session rates, so sessions of different sizes count
// equally. It is not rounded; display code formats it. TotalStudents is the batch's stored count, not derived from
// records.
func RollUp(sessions []models.SessionStats, studentCount int) models.ReportSummary {
	summary := models.ReportSummary{
		TotalSessions: len(sessions),
		TotalStudents: studentCount,
	}
	if len(sessions) == 0 {
		return summary
	}

	var sum float64
	for _, s := range sessions {
		rate, err := strconv.ParseFloat(s.Rate, 64)
		if err != nil {
			rate = Percentage(s.Present, s.Total)
		}
		sum += rate
	}
	summary.AverageAttendance = sum / float64(len(sessions))
	return summary
}
