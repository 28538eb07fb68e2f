package models

import "time"

type Batch struct {
	ID           string    `json:"id" bson:"_id"`
	Name         string    `json:"name" bson:"name"`
	StartDate    time.Time `json:"start_date" bson:"startDate"`
	EndDate      time.Time `json:"end_date" bson:"endDate"`
	ProgramID    string    `json:"program_id,omitempty" bson:"programId,omitempty"`
	StudentCount int       `json:"student_count" bson:"studentCount"`
	CreatedAt    time.Time `json:"created_at" bson:"createdAt"`
}

type Program struct {
	ID          string    `json:"id" bson:"_id"`
	Name        string    `json:"name" bson:"name"`
	Description string    `json:"description" bson:"description"`
	CreatedAt   time.Time `json:"created_at" bson:"createdAt"`
}
