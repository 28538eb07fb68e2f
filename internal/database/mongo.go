package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Dagmawi-Y/techtonic-AMS-sub000/internal/models"
)

// ConnectMongoDB connects to the cluster and verifies it with a ping.
func ConnectMongoDB(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping: %w", err)
	}
	return client, nil
}

func newObjectIDHex() string {
	return primitive.NewObjectID().Hex()
}

// MongoStore implements Repository on a MongoDB database.
type MongoStore struct {
	db *mongo.Database
}

func NewMongoStore(client *mongo.Client, dbName string) *MongoStore {
	return &MongoStore{db: client.Database(dbName)}
}

func (s *MongoStore) collection(entity models.EntityType) *mongo.Collection {
	return s.db.Collection(entity.Collection())
}

// EnsureIndexes creates the unique keys inserts rely on: active student
// codes and user emails.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.collection(models.EntityStudent).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "code", Value: 1}},
		Options: options.Index().
			SetUnique(true).
			SetPartialFilterExpression(bson.M{"isDeleted": false}),
	})
	if err != nil {
		return fmt.Errorf("create student code index: %w", err)
	}
	_, err = s.collection(models.EntityUser).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create user email index: %w", err)
	}
	return nil
}

func duplicate(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

func (s *MongoStore) FindByID(ctx context.Context, entity models.EntityType, id string) (bson.Raw, error) {
	raw, err := s.collection(entity).FindOne(ctx, bson.M{"_id": id}).Raw()
	if err != nil {
		return nil, notFound(err)
	}
	return raw, nil
}

// FindByIDs issues a single $in query. Callers bound the size of ids.
func (s *MongoStore) FindByIDs(ctx context.Context, entity models.EntityType, ids []string) (map[string]bson.Raw, error) {
	out := make(map[string]bson.Raw, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cursor, err := s.collection(entity).Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("find %s by ids: %w", entity, err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		id, ok := cursor.Current.Lookup("_id").StringValueOK()
		if !ok {
			continue
		}
		doc := make(bson.Raw, len(cursor.Current))
		copy(doc, cursor.Current)
		out[id] = doc
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", entity, err)
	}
	return out, nil
}

func (s *MongoStore) Count(ctx context.Context, entity models.EntityType) (int64, error) {
	filter := bson.M{}
	if entity == models.EntityStudent {
		filter["isDeleted"] = false
	}
	return s.collection(entity).CountDocuments(ctx, filter)
}

func sessionFilter(q SessionQuery) bson.M {
	filter := bson.M{}
	if q.BatchID != "" {
		filter["batchId"] = q.BatchID
	}
	if q.ProgramID != "" {
		filter["programId"] = q.ProgramID
	}
	if q.After != nil {
		filter["$or"] = bson.A{
			bson.M{"createdAt": bson.M{"$lt": q.After.CreatedAt}},
			bson.M{"createdAt": q.After.CreatedAt, "_id": bson.M{"$lt": q.After.ID}},
		}
	}
	return filter
}

func (s *MongoStore) ListSessions(ctx context.Context, q SessionQuery) ([]models.AttendanceSession, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}
	cursor, err := s.collection(models.EntityAttendance).Find(ctx, sessionFilter(q), opts)
	if err != nil {
		return nil, fmt.Errorf("find sessions: %w", err)
	}
	defer cursor.Close(ctx)

	sessions := []models.AttendanceSession{}
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, fmt.Errorf("decode sessions: %w", err)
	}
	return sessions, nil
}

func (s *MongoStore) GetSession(ctx context.Context, id string) (models.AttendanceSession, error) {
	var session models.AttendanceSession
	err := s.collection(models.EntityAttendance).FindOne(ctx, bson.M{"_id": id}).Decode(&session)
	if err != nil {
		return models.AttendanceSession{}, notFound(err)
	}
	return session, nil
}

func (s *MongoStore) CreateSession(ctx context.Context, session *models.AttendanceSession) error {
	if session.ID == "" {
		session.ID = NewID()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}
	_, err := s.collection(models.EntityAttendance).InsertOne(ctx, session)
	return err
}

func studentFilter(q StudentQuery) bson.M {
	filter := bson.M{"isDeleted": false}
	if q.BatchID != "" {
		filter["batch.id"] = q.BatchID
	}
	return filter
}

func (s *MongoStore) ListStudents(ctx context.Context, q StudentQuery) ([]models.Student, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}
	cursor, err := s.collection(models.EntityStudent).Find(ctx, studentFilter(q), opts)
	if err != nil {
		return nil, fmt.Errorf("find students: %w", err)
	}
	defer cursor.Close(ctx)

	students := []models.Student{}
	if err := cursor.All(ctx, &students); err != nil {
		return nil, fmt.Errorf("decode students: %w", err)
	}
	return students, nil
}

func (s *MongoStore) CountStudents(ctx context.Context, q StudentQuery) (int64, error) {
	return s.collection(models.EntityStudent).CountDocuments(ctx, studentFilter(q))
}

// CreateStudent inserts the student and bumps the stored count of its batch.
func (s *MongoStore) CreateStudent(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = NewID()
	}
	if student.CreatedAt.IsZero() {
		student.CreatedAt = time.Now()
	}
	if _, err := s.collection(models.EntityStudent).InsertOne(ctx, student); err != nil {
		return fmt.Errorf("insert student: %w", duplicate(err))
	}
	return s.bumpStudentCount(ctx, student.Batch.ID, 1)
}

func (s *MongoStore) SoftDeleteStudent(ctx context.Context, id string) error {
	var student models.Student
	err := s.collection(models.EntityStudent).FindOneAndUpdate(ctx,
		bson.M{"_id": id, "isDeleted": false},
		bson.M{"$set": bson.M{"isDeleted": true, "deletedAt": time.Now()}},
	).Decode(&student)
	if err != nil {
		return notFound(err)
	}
	return s.bumpStudentCount(ctx, student.Batch.ID, -1)
}

func (s *MongoStore) bumpStudentCount(ctx context.Context, batchID string, delta int) error {
	if batchID == "" {
		return nil
	}
	_, err := s.collection(models.EntityBatch).UpdateOne(ctx,
		bson.M{"_id": batchID},
		bson.M{"$inc": bson.M{"studentCount": delta}},
	)
	if err != nil {
		return fmt.Errorf("update batch student count: %w", err)
	}
	return nil
}

func (s *MongoStore) FindStudentByCode(ctx context.Context, code string) (models.Student, error) {
	var student models.Student
	err := s.collection(models.EntityStudent).FindOne(ctx, bson.M{"code": code, "isDeleted": false}).Decode(&student)
	if err != nil {
		return models.Student{}, notFound(err)
	}
	return student, nil
}

func (s *MongoStore) ListBatches(ctx context.Context) ([]models.Batch, error) {
	batches := []models.Batch{}
	if err := s.findAll(ctx, models.EntityBatch, &batches); err != nil {
		return nil, err
	}
	return batches, nil
}

func (s *MongoStore) CreateBatch(ctx context.Context, b *models.Batch) error {
	if b.ID == "" {
		b.ID = NewID()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	_, err := s.collection(models.EntityBatch).InsertOne(ctx, b)
	return err
}

func (s *MongoStore) ListPrograms(ctx context.Context) ([]models.Program, error) {
	programs := []models.Program{}
	if err := s.findAll(ctx, models.EntityProgram, &programs); err != nil {
		return nil, err
	}
	return programs, nil
}

func (s *MongoStore) CreateProgram(ctx context.Context, p *models.Program) error {
	if p.ID == "" {
		p.ID = NewID()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	_, err := s.collection(models.EntityProgram).InsertOne(ctx, p)
	return err
}

func (s *MongoStore) FindUserByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	if err := s.collection(models.EntityUser).FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
		return models.User{}, notFound(err)
	}
	return user, nil
}

func (s *MongoStore) ListUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	if err := s.findAll(ctx, models.EntityUser, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *MongoStore) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = NewID()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	if _, err := s.collection(models.EntityUser).InsertOne(ctx, u); err != nil {
		return fmt.Errorf("insert user: %w", duplicate(err))
	}
	return nil
}

// findAll loads every document of entity, newest first.
func (s *MongoStore) findAll(ctx context.Context, entity models.EntityType, out interface{}) error {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := s.collection(entity).Find(ctx, bson.M{}, opts)
	if err != nil {
		return fmt.Errorf("find %s: %w", entity, err)
	}
	defer cursor.Close(ctx)
	if err := cursor.All(ctx, out); err != nil {
		return fmt.Errorf("decode %s: %w", entity, err)
	}
	return nil
}
