package reporting

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/Dagmawi-Y/techtonic-AMS-sub000/internal/database"
	"github.com/Dagmawi-Y/techtonic-AMS-sub000/internal/logger"
	"github.com/Dagmawi-Y/techtonic-AMS-sub000/internal/models"
)

// ErrSessionNotFound is returned when the requested attendance session does
// not exist.
var ErrSessionNotFound = errors.New("attendance session not found")

const defaultSessionsPageSize = 50

// Source is the part of the document store the reporting pipeline reads.
type Source interface {
	Loader
	ListSessions(ctx context.Context, q database.SessionQuery) ([]models.AttendanceSession, error)
	GetSession(ctx context.Context, id string) (models.AttendanceSession, error)
}

// Filter narrows sessions to one batch and/or program. Empty fields match
// everything.
type Filter struct {
	BatchID   string
	ProgramID string
}

// Fetcher reads sessions and resolves the entities they reference. Display
// lookups never fail: misses and errors become placeholders.
type Fetcher struct {
	src      Source
	cache    *Cache
	log      *zap.Logger
	pageSize int64
}

func NewFetcher(src Source, cache *Cache, log *zap.Logger, pageSize int) *Fetcher {
	if pageSize <= 0 {
		pageSize = defaultSessionsPageSize
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Fetcher{src: src, cache: cache, log: log, pageSize: int64(pageSize)}
}

// Page returns one page of sessions, newest first, starting after cursor.
// The returned cursor is nil when no further page exists.
func (f *Fetcher) Page(ctx context.Context, filter Filter, after *database.SessionCursor, limit int64) ([]models.AttendanceSession, *database.SessionCursor, error) {
	if limit <= 0 {
		limit = f.pageSize
	}
	sessions, err := f.src.ListSessions(ctx, database.SessionQuery{
		BatchID:   filter.BatchID,
		ProgramID: filter.ProgramID,
		After:     after,
		Limit:     limit,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("list sessions: %w", err)
	}
	if int64(len(sessions)) < limit {
		return sessions, nil, nil
	}
	last := sessions[len(sessions)-1]
	return sessions, &database.SessionCursor{CreatedAt: last.CreatedAt, ID: last.ID}, nil
}

// Sessions pages through every matching session, newest first.
func (f *Fetcher) Sessions(ctx context.Context, filter Filter) ([]models.AttendanceSession, error) {
	var (
		all   []models.AttendanceSession
		after *database.SessionCursor
	)
	for {
		page, next, err := f.Page(ctx, filter, after, f.pageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if next == nil {
			return all, nil
		}
		after = next
	}
}

// Session returns one session with its full record list.
func (f *Fetcher) Session(ctx context.Context, id string) (models.AttendanceSession, error) {
	s, err := f.src.GetSession(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return models.AttendanceSession{}, ErrSessionNotFound
	}
	if err != nil {
		return models.AttendanceSession{}, fmt.Errorf("get session %s: %w", id, err)
	}
	return s, nil
}

// lookup resolves a display entity, logging and swallowing failures.
func (f *Fetcher) lookup(ctx context.Context, entity models.EntityType, id string) bson.Raw {
	doc, err := f.cache.Lookup(ctx, entity, id)
	if err != nil {
		f.log.Warn("entity lookup failed",
			zap.String(logger.FieldEntity, string(entity)),
			zap.String("id", id),
			zap.Error(err))
		return nil
	}
	return doc
}

// DisplayName resolves the name of a batch, program or user.
func (f *Fetcher) DisplayName(ctx context.Context, entity models.EntityType, id string) string {
	return Name(entity, f.lookup(ctx, entity, id))
}

// Batch resolves a batch. ok is false when it could not be loaded.
func (f *Fetcher) Batch(ctx context.Context, id string) (models.Batch, bool) {
	doc := f.lookup(ctx, models.EntityBatch, id)
	if doc == nil {
		return models.Batch{}, false
	}
	var b models.Batch
	if err := bson.Unmarshal(doc, &b); err != nil {
		f.log.Warn("decode batch", zap.String("id", id), zap.Error(err))
		return models.Batch{}, false
	}
	return b, true
}

// Header resolves the names a session references and summarizes it.
func (f *Fetcher) Header(ctx context.Context, s models.AttendanceSession) models.SessionHeader {
	stats := Summarize(s.Records)
	stats.SessionID = s.ID
	stats.Date = s.Date
	return models.SessionHeader{
		SessionID:   s.ID,
		Date:        s.Date,
		BatchID:     s.BatchID,
		BatchName:   f.DisplayName(ctx, models.EntityBatch, s.BatchID),
		ProgramID:   s.ProgramID,
		ProgramName: f.DisplayName(ctx, models.EntityProgram, s.ProgramID),
		SubmittedBy: f.DisplayName(ctx, models.EntityUser, s.CreatedBy),
		Stats:       stats,
	}
}
