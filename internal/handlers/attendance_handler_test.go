package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Dagmawi-Y/techtonic-AMS-sub000/internal/database"
	"github.com/Dagmawi-Y/techtonic-AMS-sub000/internal/models"
	"github.com/Dagmawi-Y/techtonic-AMS-sub000/internal/reporting"
)

func newAttendanceHandler(f *fixture) *AttendanceHandler {
	return NewAttendanceHandler(f.db, f.reporter, f.views, zap.NewNop(), time.Second, 20)
}

func TestCreateSession(t *testing.T) {
	f := newFixture(t)
	h := newAttendanceHandler(f)

	body := map[string]interface{}{
		"date":       testDay,
		"batch_id":   "b1",
		"program_id": "p1",
		"records": []map[string]interface{}{
			{"student_id": "s0", "is_present": true, "marked_by": "scan"},
			{"student_id": "s1", "is_present": false, "marked_by": "manual"},
		},
	}
	rec := serve(h.CreateSession, asUser(newRequest(t, http.MethodPost, "/api/attendance", body), "u1"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var header models.SessionHeader
	decode(t, rec, &header)
	assert.NotEmpty(t, header.SessionID)
	assert.Equal(t, "Cohort 3", header.BatchName)
	assert.Equal(t, "Web Development", header.ProgramName)
	assert.Equal(t, "Hana", header.SubmittedBy)
	assert.Equal(t, 2, header.Stats.Total)
	assert.Equal(t, 1, header.Stats.Present)
	assert.Equal(t, "50.0", header.Stats.Rate)

	stored, err := f.db.GetSession(context.Background(), header.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "u1", stored.CreatedBy)
	require.Len(t, stored.Records, 2)
	assert.False(t, stored.Records[0].Timestamp.IsZero())
}

func TestCreateSessionRejects(t *testing.T) {
	record := func(id, by string) map[string]interface{} {
		return map[string]interface{}{"student_id": id, "is_present": true, "marked_by": by}
	}
	tests := []struct {
		name    string
		records []map[string]interface{}
		user    string
		status  int
		field   string
	}{
		{name: "no records", user: "u1", status: http.StatusBadRequest, field: "records"},
		{name: "unknown mark method", records: []map[string]interface{}{record("s0", "guess")}, user: "u1", status: http.StatusBadRequest, field: "records[0].marked_by"},
		{name: "student listed twice", records: []map[string]interface{}{record("s0", "scan"), record("s0", "manual")}, user: "u1", status: http.StatusBadRequest, field: "records"},
		{name: "no user", records: []map[string]interface{}{record("s0", "scan")}, status: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			h := newAttendanceHandler(f)

			req := newRequest(t, http.MethodPost, "/api/attendance", map[string]interface{}{
				"date":       testDay,
				"batch_id":   "b1",
				"program_id": "p1",
				"records":    tt.records,
			})
			if tt.user != "" {
				req = asUser(req, tt.user)
			}
			rec := serve(h.CreateSession, req)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())

			if tt.field != "" {
				var resp validationResponse
				decode(t, rec, &resp)
				require.NotEmpty(t, resp.Fields)
				assert.Equal(t, tt.field, resp.Fields[0].Field)
			}
			n, err := f.db.Count(context.Background(), models.EntityAttendance)
			require.NoError(t, err)
			assert.Zero(t, n)
		})
	}
}

func TestGetSession(t *testing.T) {
	f := newFixture(t)
	f.addSession(t, "a1", testDay, true, true, false)
	h := newAttendanceHandler(f)

	rec := serve(h.GetSession, withVars(newRequest(t, http.MethodGet, "/api/attendance/a1", nil), map[string]string{"id": "a1"}))
	require.Equal(t, http.StatusOK, rec.Code)
	var header models.SessionHeader
	decode(t, rec, &header)
	assert.Equal(t, "a1", header.SessionID)
	assert.Equal(t, "66.7", header.Stats.Rate)

	rec = serve(h.GetSession, withVars(newRequest(t, http.MethodGet, "/api/attendance/nope", nil), map[string]string{"id": "nope"}))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Attendance record not found\n", rec.Body.String())
}

func TestGetSessionPlaceholders(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.CreateSession(context.Background(), &models.AttendanceSession{
		ID: "a1", Date: testDay, BatchID: "gone", ProgramID: "gone", CreatedBy: "gone", CreatedAt: testDay,
	}))
	h := newAttendanceHandler(f)

	rec := serve(h.GetSession, withVars(newRequest(t, http.MethodGet, "/api/attendance/a1", nil), map[string]string{"id": "a1"}))
	require.Equal(t, http.StatusOK, rec.Code)
	var header models.SessionHeader
	decode(t, rec, &header)
	assert.Equal(t, "Unknown Batch", header.BatchName)
	assert.Equal(t, "Unknown Program", header.ProgramName)
	assert.Equal(t, "Unknown User", header.SubmittedBy)
	assert.Equal(t, "0.0", header.Stats.Rate)
}

func TestListSessions(t *testing.T) {
	f := newFixture(t)
	for i, id := range []string{"a1", "a2", "a3"} {
		f.addSession(t, id, testDay.AddDate(0, 0, i), true)
	}
	h := newAttendanceHandler(f)

	rec := serve(h.ListSessions, newRequest(t, http.MethodGet, "/api/attendance?limit=2", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var first sessionList
	decode(t, rec, &first)
	require.Len(t, first.Sessions, 2)
	assert.Equal(t, "a3", first.Sessions[0].SessionID)
	assert.Equal(t, "a2", first.Sessions[1].SessionID)
	assert.Equal(t, "Cohort 3", first.Sessions[0].BatchName)
	require.NotEmpty(t, first.Next)

	rec = serve(h.ListSessions, newRequest(t, http.MethodGet, "/api/attendance?limit=2&after="+first.Next, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var second sessionList
	decode(t, rec, &second)
	require.Len(t, second.Sessions, 1)
	assert.Equal(t, "a1", second.Sessions[0].SessionID)
	assert.Empty(t, second.Next)

	rec = serve(h.ListSessions, newRequest(t, http.MethodGet, "/api/attendance?batch_id=b9", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var none sessionList
	decode(t, rec, &none)
	assert.Empty(t, none.Sessions)

	rec = serve(h.ListSessions, newRequest(t, http.MethodGet, "/api/attendance?after=%25%25", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCursorRoundTrip(t *testing.T) {
	c := &database.SessionCursor{CreatedAt: testDay.Add(123 * time.Nanosecond), ID: "a1"}
	got, err := decodeCursor(encodeCursor(c))
	require.NoError(t, err)
	assert.True(t, c.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, "a1", got.ID)

	got, err = decodeCursor("")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Empty(t, encodeCursor(nil))
}

func TestViewLifecycle(t *testing.T) {
	f := newFixture(t)
	f.addSession(t, "a1", testDay, true, false, true)
	h := newAttendanceHandler(f)

	rec := serve(h.OpenView, withVars(newRequest(t, http.MethodPost, "/api/attendance/a1/views", nil), map[string]string{"id": "a1"}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var first reporting.ViewPage
	decode(t, rec, &first)
	require.NotEmpty(t, first.ViewID)
	assert.Equal(t, "Cohort 3", first.Session.BatchName)
	require.Len(t, first.Records, 2)
	assert.Equal(t, "Student 0", first.Records[0].StudentName)
	assert.Equal(t, "Student 1", first.Records[1].StudentName)
	assert.True(t, first.Cursor.HasMore)
	assert.Equal(t, "idle", first.State)

	vars := map[string]string{"viewID": first.ViewID}
	rec = serve(h.LoadMore, withVars(newRequest(t, http.MethodPost, "/api/views/"+first.ViewID+"/more", nil), vars))
	require.Equal(t, http.StatusOK, rec.Code)
	var second reporting.ViewPage
	decode(t, rec, &second)
	require.Len(t, second.Records, 1)
	assert.Equal(t, "Student 2", second.Records[0].StudentName)
	assert.False(t, second.Cursor.HasMore)
	assert.Equal(t, "exhausted", second.State)

	rec = serve(h.LoadMore, withVars(newRequest(t, http.MethodPost, "/api/views/"+first.ViewID+"/more", nil), vars))
	require.Equal(t, http.StatusOK, rec.Code)
	var third reporting.ViewPage
	decode(t, rec, &third)
	assert.Empty(t, third.Records)

	rec = serve(h.CloseView, withVars(newRequest(t, http.MethodDelete, "/api/views/"+first.ViewID, nil), vars))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, f.views.Len())

	rec = serve(h.LoadMore, withVars(newRequest(t, http.MethodPost, "/api/views/"+first.ViewID+"/more", nil), vars))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = serve(h.CloseView, withVars(newRequest(t, http.MethodDelete, "/api/views/"+first.ViewID, nil), vars))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOpenViewMissingSession(t *testing.T) {
	f := newFixture(t)
	h := newAttendanceHandler(f)

	rec := serve(h.OpenView, withVars(newRequest(t, http.MethodPost, "/api/attendance/nope/views", nil), map[string]string{"id": "nope"}))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Zero(t, f.views.Len())
}

func TestOpenViewLimit(t *testing.T) {
	f := newFixture(t)
	f.addSession(t, "a1", testDay, true)
	f.views = reporting.NewViews(f.reporter, time.Minute, 1)
	h := newAttendanceHandler(f)

	open := func() int {
		req := withVars(newRequest(t, http.MethodPost, "/api/attendance/a1/views", nil), map[string]string{"id": "a1"})
		return serve(h.OpenView, req).Code
	}
	assert.Equal(t, http.StatusCreated, open())
	assert.Equal(t, http.StatusTooManyRequests, open())
	assert.Equal(t, 1, f.views.Len())
}
