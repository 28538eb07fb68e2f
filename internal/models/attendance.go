package models

import "time"

// MarkMethod records how a student's presence was captured.
type MarkMethod string

const (
	MarkedManual MarkMethod = "manual"
	MarkedScan   MarkMethod = "scan"
)

// RawRecord is one student's entry in a roll-call as stored.
type RawRecord struct {
	StudentID string     `json:"student_id" bson:"studentId"`
	IsPresent bool       `json:"is_present" bson:"isPresent"`
	MarkedBy  MarkMethod `json:"marked_by" bson:"markedBy"`
	Timestamp time.Time  `json:"timestamp" bson:"timestamp"`
}

// AttendanceSession is one submitted roll-call. Sessions are never edited
// after creation.
type AttendanceSession struct {
	ID        string      `json:"id" bson:"_id"`
	Date      time.Time   `json:"date" bson:"date"`
	BatchID   string      `json:"batch_id" bson:"batchId"`
	ProgramID string      `json:"program_id" bson:"programId"`
	CreatedBy string      `json:"created_by" bson:"createdBy"`
	CreatedAt time.Time   `json:"created_at" bson:"createdAt"`
	Records   []RawRecord `json:"records,omitempty" bson:"records,omitempty"`
}

// ResolvedRecord is a RawRecord joined with the student's display name.
type ResolvedRecord struct {
	StudentID   string     `json:"student_id"`
	StudentName string     `json:"student_name"`
	IsPresent   bool       `json:"is_present"`
	MarkedBy    MarkMethod `json:"marked_by"`
	Timestamp   time.Time  `json:"timestamp"`
}
