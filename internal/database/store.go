package database

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/Dagmawi-Y/techtonic-AMS-sub000/internal/models"
)

// ErrNotFound is returned when a document lookup by id or key matches nothing.
var ErrNotFound = errors.New("document not found")

// ErrDuplicate is returned when an insert collides with a unique key such as
// a student code or a user email.
var ErrDuplicate = errors.New("duplicate document")

// SessionCursor marks the last session of a page. Sessions are ordered by
// createdAt desc, then id desc.
type SessionCursor struct {
	CreatedAt time.Time
	ID        string
}

type SessionQuery struct {
	BatchID   string
	ProgramID string
	After     *SessionCursor
	Limit     int64
}

type StudentQuery struct {
	BatchID string
	Limit   int64
}

// Repository is the document store used by the API and the reporting
// pipeline.
type Repository interface {
	FindByID(ctx context.Context, entity models.EntityType, id string) (bson.Raw, error)
	FindByIDs(ctx context.Context, entity models.EntityType, ids []string) (map[string]bson.Raw, error)
	Count(ctx context.Context, entity models.EntityType) (int64, error)

	ListSessions(ctx context.Context, q SessionQuery) ([]models.AttendanceSession, error)
	GetSession(ctx context.Context, id string) (models.AttendanceSession, error)
	CreateSession(ctx context.Context, s *models.AttendanceSession) error

	ListStudents(ctx context.Context, q StudentQuery) ([]models.Student, error)
	CountStudents(ctx context.Context, q StudentQuery) (int64, error)
	CreateStudent(ctx context.Context, s *models.Student) error
	SoftDeleteStudent(ctx context.Context, id string) error
	FindStudentByCode(ctx context.Context, code string) (models.Student, error)

	ListBatches(ctx context.Context) ([]models.Batch, error)
	CreateBatch(ctx context.Context, b *models.Batch) error
	ListPrograms(ctx context.Context) ([]models.Program, error)
	CreateProgram(ctx context.Context, p *models.Program) error

	FindUserByEmail(ctx context.Context, email string) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	CreateUser(ctx context.Context, u *models.User) error
}

// NewID returns a fresh document id.
func NewID() string {
	return newObjectIDHex()
}
