package models

import "time"

// SessionStats summarizes one session. Present+Absent always equals Total.
type SessionStats struct {
	SessionID string    `json:"session_id,omitempty"`
	Date      time.Time `json:"date"`
	Total     int       `json:"total"`
	Present   int       `json:"present"`
	Absent    int       `json:"absent"`
	Rate      string    `json:"rate"`
}

type ReportSummary struct {
	TotalSessions     int     `json:"total_sessions"`
	AverageAttendance float64 `json:"average_attendance"`
	TotalStudents     int     `json:"total_students"`
}

// Report aggregates every session sharing one batch and program.
type Report struct {
	BatchID     string         `json:"batch_id"`
	BatchName   string         `json:"batch_name"`
	ProgramID   string         `json:"program_id"`
	ProgramName string         `json:"program_name"`
	StartDate   time.Time      `json:"start_date"`
	EndDate     time.Time      `json:"end_date"`
	Records     []SessionStats `json:"records"`
	Summary     ReportSummary  `json:"summary"`
}

// SessionHeader is a session with its references resolved for display.
type SessionHeader struct {
	SessionID   string       `json:"session_id"`
	Date        time.Time    `json:"date"`
	BatchID     string       `json:"batch_id"`
	BatchName   string       `json:"batch_name"`
	ProgramID   string       `json:"program_id"`
	ProgramName string       `json:"program_name"`
	SubmittedBy string       `json:"submitted_by"`
	Stats       SessionStats `json:"stats"`
}
