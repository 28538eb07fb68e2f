// Package inmem is a Repository kept in process memory. It backs local runs
// with STORE_DRIVER=memory and serves as the store in tests.
package inmem

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/Dagmawi-Y/techtonic-AMS-sub000/internal/database"
	"github.com/Dagmawi-Y/techtonic-AMS-sub000/internal/models"
)

// Calls counts lookups served per entity.
type Calls struct {
	Single int
	Batch  int
}

type DB struct {
	mu       sync.RWMutex
	students map[string]models.Student
	batches  map[string]models.Batch
	programs map[string]models.Program
	users    map[string]models.User
	sessions map[string]models.AttendanceSession

	calls     map[models.EntityType]*Calls
	lookupErr error
}

func Open() *DB {
	return &DB{
		students: map[string]models.Student{},
		batches:  map[string]models.Batch{},
		programs: map[string]models.Program{},
		users:    map[string]models.User{},
		sessions: map[string]models.AttendanceSession{},
		calls:    map[models.EntityType]*Calls{},
	}
}

var _ database.Repository = (*DB)(nil)

// Calls reports how many lookups were made for entity.
func (db *DB) Calls(entity models.EntityType) Calls {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if c, ok := db.calls[entity]; ok {
		return *c
	}
	return Calls{}
}

// FailLookups makes FindByID and FindByIDs return err until called with nil.
func (db *DB) FailLookups(err error) {
	db.mu.Lock()
	db.lookupErr = err
	db.mu.Unlock()
}

func (db *DB) count(entity models.EntityType, batch bool) {
	c, ok := db.calls[entity]
	if !ok {
		c = &Calls{}
		db.calls[entity] = c
	}
	if batch {
		c.Batch++
	} else {
		c.Single++
	}
}

func (db *DB) document(entity models.EntityType, id string) (interface{}, bool) {
	var (
		v  interface{}
		ok bool
	)
	switch entity {
	case models.EntityStudent:
		v, ok = db.students[id]
	case models.EntityBatch:
		v, ok = db.batches[id]
	case models.EntityProgram:
		v, ok = db.programs[id]
	case models.EntityUser:
		v, ok = db.users[id]
	case models.EntityAttendance:
		v, ok = db.sessions[id]
	}
	return v, ok
}

func (db *DB) FindByID(ctx context.Context, entity models.EntityType, id string) (bson.Raw, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.count(entity, false)
	if db.lookupErr != nil {
		return nil, db.lookupErr
	}
	doc, ok := db.document(entity, id)
	if !ok {
		return nil, database.ErrNotFound
	}
	return bson.Marshal(doc)
}

func (db *DB) FindByIDs(ctx context.Context, entity models.EntityType, ids []string) (map[string]bson.Raw, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.count(entity, true)
	if db.lookupErr != nil {
		return nil, db.lookupErr
	}
	out := make(map[string]bson.Raw, len(ids))
	for _, id := range ids {
		doc, ok := db.document(entity, id)
		if !ok {
			continue
		}
		raw, err := bson.Marshal(doc)
		if err != nil {
			return nil, err
		}
		out[id] = raw
	}
	return out, nil
}

func (db *DB) Count(ctx context.Context, entity models.EntityType) (int64, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	switch entity {
	case models.EntityStudent:
		return db.countStudents(database.StudentQuery{}), nil
	case models.EntityBatch:
		return int64(len(db.batches)), nil
	case models.EntityProgram:
		return int64(len(db.programs)), nil
	case models.EntityUser:
		return int64(len(db.users)), nil
	case models.EntityAttendance:
		return int64(len(db.sessions)), nil
	}
	return 0, nil
}

func newer(a, b models.AttendanceSession) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

func (db *DB) ListSessions(ctx context.Context, q database.SessionQuery) ([]models.AttendanceSession, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	sessions := []models.AttendanceSession{}
	for _, s := range db.sessions {
		if q.BatchID != "" && s.BatchID != q.BatchID {
			continue
		}
		if q.ProgramID != "" && s.ProgramID != q.ProgramID {
			continue
		}
		if q.After != nil && !newer(models.AttendanceSession{ID: q.After.ID, CreatedAt: q.After.CreatedAt}, s) {
			continue
		}
		sessions = append(sessions, s)
	}
	sort.Slice(sessions, func(i, j int) bool { return newer(sessions[i], sessions[j]) })
	if q.Limit > 0 && int64(len(sessions)) > q.Limit {
		sessions = sessions[:q.Limit]
	}
	return sessions, nil
}

func (db *DB) GetSession(ctx context.Context, id string) (models.AttendanceSession, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	s, ok := db.sessions[id]
	if !ok {
		return models.AttendanceSession{}, database.ErrNotFound
	}
	return s, nil
}

func (db *DB) CreateSession(ctx context.Context, s *models.AttendanceSession) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if s.ID == "" {
		s.ID = database.NewID()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	db.sessions[s.ID] = *s
	return nil
}

func (db *DB) countStudents(q database.StudentQuery) int64 {
	var n int64
	for _, s := range db.students {
		if !s.IsDeleted && (q.BatchID == "" || s.Batch.ID == q.BatchID) {
			n++
		}
	}
	return n
}

func (db *DB) ListStudents(ctx context.Context, q database.StudentQuery) ([]models.Student, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	students := []models.Student{}
	for _, s := range db.students {
		if s.IsDeleted || (q.BatchID != "" && s.Batch.ID != q.BatchID) {
			continue
		}
		students = append(students, s)
	}
	sort.Slice(students, func(i, j int) bool { return students[i].Name < students[j].Name })
	if q.Limit > 0 && int64(len(students)) > q.Limit {
		students = students[:q.Limit]
	}
	return students, nil
}

func (db *DB) CountStudents(ctx context.Context, q database.StudentQuery) (int64, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.countStudents(q), nil
}

func (db *DB) CreateStudent(ctx context.Context, s *models.Student) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if s.Code != "" {
		for _, other := range db.students {
			if !other.IsDeleted && other.Code == s.Code {
				return database.ErrDuplicate
			}
		}
	}
	if s.ID == "" {
		s.ID = database.NewID()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	db.students[s.ID] = *s
	db.bumpStudentCount(s.Batch.ID, 1)
	return nil
}

func (db *DB) SoftDeleteStudent(ctx context.Context, id string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	s, ok := db.students[id]
	if !ok || s.IsDeleted {
		return database.ErrNotFound
	}
	now := time.Now()
	s.IsDeleted = true
	s.DeletedAt = &now
	db.students[id] = s
	db.bumpStudentCount(s.Batch.ID, -1)
	return nil
}

func (db *DB) bumpStudentCount(batchID string, delta int) {
	if b, ok := db.batches[batchID]; ok {
		b.StudentCount += delta
		db.batches[batchID] = b
	}
}

func (db *DB) FindStudentByCode(ctx context.Context, code string) (models.Student, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	for _, s := range db.students {
		if !s.IsDeleted && s.Code == code {
			return s, nil
		}
	}
	return models.Student{}, database.ErrNotFound
}

func (db *DB) ListBatches(ctx context.Context) ([]models.Batch, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	batches := make([]models.Batch, 0, len(db.batches))
	for _, b := range db.batches {
		batches = append(batches, b)
	}
	sort.Slice(batches, func(i, j int) bool { return batches[i].CreatedAt.After(batches[j].CreatedAt) })
	return batches, nil
}

func (db *DB) CreateBatch(ctx context.Context, b *models.Batch) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if b.ID == "" {
		b.ID = database.NewID()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	db.batches[b.ID] = *b
	return nil
}

func (db *DB) ListPrograms(ctx context.Context) ([]models.Program, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	programs := make([]models.Program, 0, len(db.programs))
	for _, p := range db.programs {
		programs = append(programs, p)
	}
	sort.Slice(programs, func(i, j int) bool { return programs[i].CreatedAt.After(programs[j].CreatedAt) })
	return programs, nil
}

func (db *DB) CreateProgram(ctx context.Context, p *models.Program) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if p.ID == "" {
		p.ID = database.NewID()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	db.programs[p.ID] = *p
	return nil
}

func (db *DB) FindUserByEmail(ctx context.Context, email string) (models.User, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	for _, u := range db.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, database.ErrNotFound
}

func (db *DB) ListUsers(ctx context.Context) ([]models.User, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	users := make([]models.User, 0, len(db.users))
	for _, u := range db.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.After(users[j].CreatedAt) })
	return users, nil
}

func (db *DB) CreateUser(ctx context.Context, u *models.User) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, other := range db.users {
		if other.Email == u.Email {
			return database.ErrDuplicate
		}
	}
	if u.ID == "" {
		u.ID = database.NewID()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	db.users[u.ID] = *u
	return nil
}
