package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Dagmawi-Y/techtonic-AMS-sub000/internal/database/inmem"
	"github.com/Dagmawi-Y/techtonic-AMS-sub000/internal/middleware"
	"github.com/Dagmawi-Y/techtonic-AMS-sub000/internal/models"
	"github.com/Dagmawi-Y/techtonic-AMS-sub000/internal/reporting"
)

var testDay = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

type fixture struct {
	db       *inmem.DB
	reporter *reporting.Reporter
	views    *reporting.Views
}

// newFixture seeds program p1, batch b1 with three students and user u1.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	db := inmem.Open()
	require.NoError(t, db.CreateProgram(ctx, &models.Program{ID: "p1", Name: "Web Development"}))
	require.NoError(t, db.CreateBatch(ctx, &models.Batch{ID: "b1", Name: "Cohort 3", ProgramID: "p1"}))
	require.NoError(t, db.CreateUser(ctx, &models.User{ID: "u1", Name: "Hana", Email: "hana@tribe.test", Role: models.RoleAdmin}))
	for i := 0; i < 3; i++ {
		require.NoError(t, db.CreateStudent(ctx, &models.Student{
			ID:    fmt.Sprintf("s%d", i),
			Name:  fmt.Sprintf("Student %d", i),
			Code:  fmt.Sprintf("TT-%03d", i),
			Batch: models.BatchRef{ID: "b1", Name: "Cohort 3"},
		}))
	}
	reporter := reporting.NewReporter(db, reporting.Options{PageSize: 2, Logger: zap.NewNop()})
	return &fixture{db: db, reporter: reporter, views: reporting.NewViews(reporter, time.Minute, 0)}
}

// addSession stores a session of b1/p1 with one record per flag, student
// s0 first.
func (f *fixture) addSession(t *testing.T, id string, date time.Time, present ...bool) {
	t.Helper()
	records := make([]models.RawRecord, len(present))
	for i, p := range present {
		records[i] = models.RawRecord{StudentID: fmt.Sprintf("s%d", i), IsPresent: p, MarkedBy: models.MarkedScan, Timestamp: date}
	}
	require.NoError(t, f.db.CreateSession(context.Background(), &models.AttendanceSession{
		ID:        id,
		Date:      date,
		BatchID:   "b1",
		ProgramID: "p1",
		CreatedBy: "u1",
		CreatedAt: date,
		Records:   records,
	}))
}

func newRequest(t *testing.T, method, target string, body interface{}) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	return httptest.NewRequest(method, target, &buf)
}

func asUser(r *http.Request, userID string) *http.Request {
	return r.WithContext(middleware.WithUserID(r.Context(), userID))
}

func withVars(r *http.Request, vars map[string]string) *http.Request {
	return mux.SetURLVars(r, vars)
}

func serve(h http.HandlerFunc, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h(rec, r)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	body := rec.Body.Bytes()
	require.NoError(t, json.Unmarshal(body, dst), string(body))
}
