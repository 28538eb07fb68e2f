package models

import "time"

// BatchRef is the denormalized batch embedded in a student document.
type BatchRef struct {
	ID   string `json:"id" bson:"id"`
	Name string `json:"name" bson:"name"`
}

type Student struct {
	ID        string     `json:"id" bson:"_id"`
	Name      string     `json:"name" bson:"name"`
	Email     string     `json:"email,omitempty" bson:"email,omitempty"`
	Phone     string     `json:"phone,omitempty" bson:"phone,omitempty"`
	Code      string     `json:"code" bson:"code"` // barcode printed on the student card
	Batch     BatchRef   `json:"batch" bson:"batch"`
	ProgramID string     `json:"program_id,omitempty" bson:"programId,omitempty"`
	IsDeleted bool       `json:"is_deleted" bson:"isDeleted"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" bson:"deletedAt,omitempty"`
	CreatedAt time.Time  `json:"created_at" bson:"createdAt"`
}
