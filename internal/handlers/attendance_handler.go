package handlers

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/Dagmawi-Y/techtonic-AMS-sub000/internal/database"
	"github.com/Dagmawi-Y/techtonic-AMS-sub000/internal/logger"
	"github.com/Dagmawi-Y/techtonic-AMS-sub000/internal/middleware"
	"github.com/Dagmawi-Y/techtonic-AMS-sub000/internal/models"
	"github.com/Dagmawi-Y/techtonic-AMS-sub000/internal/reporting"
)

const maxSessionsPerPage = 100

type AttendanceHandler struct {
	repo     database.Repository
	reporter *reporting.Reporter
	views    *reporting.Views
	log      *zap.Logger
	timeout  time.Duration
	pageSize int
}

func NewAttendanceHandler(repo database.Repository, reporter *reporting.Reporter, views *reporting.Views, log *zap.Logger, timeout time.Duration, pageSize int) *AttendanceHandler {
	return &AttendanceHandler{repo: repo, reporter: reporter, views: views, log: log, timeout: timeout, pageSize: pageSize}
}

type sessionList struct {
	Sessions []models.SessionHeader `json:"sessions"`
	Next     string                 `json:"next,omitempty"`
}

func encodeCursor(c *database.SessionCursor) string {
	if c == nil {
		return ""
	}
	raw := strconv.FormatInt(c.CreatedAt.UnixNano(), 10) + ":" + c.ID
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func decodeCursor(s string) (*database.SessionCursor, error) {
	if s == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}
	nanos, id, ok := strings.Cut(string(raw), ":")
	if !ok || id == "" {
		return nil, errors.New("malformed cursor")
	}
	n, err := strconv.ParseInt(nanos, 10, 64)
	if err != nil {
		return nil, err
	}
	return &database.SessionCursor{CreatedAt: time.Unix(0, n).UTC(), ID: id}, nil
}

// ListSessions returns a page of sessions, newest first, with names
// resolved.
func (h *AttendanceHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	after, err := decodeCursor(r.URL.Query().Get("after"))
	if err != nil {
		http.Error(w, "Invalid cursor", http.StatusBadRequest)
		return
	}
	filter := reporting.Filter{
		BatchID:   r.URL.Query().Get("batch_id"),
		ProgramID: r.URL.Query().Get("program_id"),
	}
	limit := queryInt(r, "limit", h.pageSize, maxSessionsPerPage)

	ctx, cancel := withTimeout(r, h.timeout)
	defer cancel()

	f := h.reporter.Fetcher()
	sessions, next, err := f.Page(ctx, filter, after, int64(limit))
	if err != nil {
		h.log.Error("list sessions", zap.String(logger.FieldOperation, "list_sessions"), zap.Error(err))
		http.Error(w, "Failed to fetch attendance records", http.StatusInternalServerError)
		return
	}

	resp := sessionList{Sessions: make([]models.SessionHeader, 0, len(sessions)), Next: encodeCursor(next)}
	for _, s := range sessions {
		resp.Sessions = append(resp.Sessions, f.Header(ctx, s))
	}
	writeJSON(w, http.StatusOK, resp)
}

type recordRequest struct {
	StudentID string    `json:"student_id" validate:"required"`
	IsPresent bool      `json:"is_present"`
	MarkedBy  string    `json:"marked_by" validate:"required,oneof=manual scan"`
	Timestamp time.Time `json:"timestamp"`
}

type createSessionRequest struct {
	Date      time.Time       `json:"date" validate:"required"`
	BatchID   string          `json:"batch_id" validate:"required"`
	ProgramID string          `json:"program_id" validate:"required"`
	Records   []recordRequest `json:"records" validate:"required,min=1,dive"`
}

// CreateSession stores a submitted roll-call.
func (h *AttendanceHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	now := time.Now().UTC()
	seen := make(map[string]bool, len(req.Records))
	records := make([]models.RawRecord, 0, len(req.Records))
	for _, rec := range req.Records {
		if seen[rec.StudentID] {
			writeJSON(w, http.StatusBadRequest, validationResponse{
				Error:  "Validation failed",
				Fields: []FieldError{{Field: "records", Error: "student " + rec.StudentID + " is listed more than once"}},
			})
			return
		}
		seen[rec.StudentID] = true
		ts := rec.Timestamp
		if ts.IsZero() {
			ts = now
		}
		records = append(records, models.RawRecord{
			StudentID: rec.StudentID,
			IsPresent: rec.IsPresent,
			MarkedBy:  models.MarkMethod(rec.MarkedBy),
			Timestamp: ts,
		})
	}

	ctx, cancel := withTimeout(r, h.timeout)
	defer cancel()

	session := models.AttendanceSession{
		Date:      req.Date,
		BatchID:   req.BatchID,
		ProgramID: req.ProgramID,
		CreatedBy: userID,
		CreatedAt: now,
		Records:   records,
	}
	if err := h.repo.CreateSession(ctx, &session); err != nil {
		h.log.Error("create session", zap.String(logger.FieldOperation, "create_session"), zap.String(logger.FieldUserID, userID), zap.Error(err))
		http.Error(w, "Failed to submit attendance", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, h.reporter.Fetcher().Header(ctx, session))
}

// GetSession returns the header and statistics of one session.
func (h *AttendanceHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	ctx, cancel := withTimeout(r, h.timeout)
	defer cancel()

	f := h.reporter.Fetcher()
	session, err := f.Session(ctx, id)
	if errors.Is(err, reporting.ErrSessionNotFound) {
		http.Error(w, "Attendance record not found", http.StatusNotFound)
		return
	} else if err != nil {
		h.log.Error("get session", zap.String(logger.FieldOperation, "get_session"), zap.String(logger.FieldSessionID, id), zap.Error(err))
		http.Error(w, "Failed to load attendance details", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, f.Header(ctx, session))
}

// OpenView starts a paginated view of a session's records and returns its
// first page.
func (h *AttendanceHandler) OpenView(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	ctx, cancel := withTimeout(r, h.timeout)
	defer cancel()

	page, err := h.views.Open(ctx, id)
	if errors.Is(err, reporting.ErrSessionNotFound) {
		http.Error(w, "Attendance record not found", http.StatusNotFound)
		return
	} else if errors.Is(err, reporting.ErrTooManyViews) {
		http.Error(w, "Too many open views, close one and retry", http.StatusTooManyRequests)
		return
	} else if err != nil {
		h.log.Error("open view", zap.String(logger.FieldOperation, "open_view"), zap.String(logger.FieldSessionID, id), zap.Error(err))
		http.Error(w, "Failed to load attendance details", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, page)
}

// LoadMore serves the next page of an open view.
func (h *AttendanceHandler) LoadMore(w http.ResponseWriter, r *http.Request) {
	viewID := mux.Vars(r)["viewID"]

	ctx, cancel := withTimeout(r, h.timeout)
	defer cancel()

	page, err := h.views.LoadMore(ctx, viewID)
	switch {
	case errors.Is(err, reporting.ErrViewNotFound), errors.Is(err, reporting.ErrViewClosed):
		http.Error(w, "View not found", http.StatusNotFound)
		return
	case err != nil:
		h.log.Error("load more", zap.String(logger.FieldOperation, "load_more"), zap.String(logger.FieldViewID, viewID), zap.Error(err))
		http.Error(w, "Failed to load more records", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// CloseView discards a view.
func (h *AttendanceHandler) CloseView(w http.ResponseWriter, r *http.Request) {
	if !h.views.Close(mux.Vars(r)["viewID"]) {
		http.Error(w, "View not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
