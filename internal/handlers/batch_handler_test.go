package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Dagmawi-Y/techtonic-AMS-sub000/internal/models"
)

func TestCreateBatch(t *testing.T) {
	f := newFixture(t)
	h := NewBatchHandler(f.db, zap.NewNop(), time.Second)

	body := map[string]interface{}{
		"name":       "Cohort 4",
		"start_date": testDay,
		"end_date":   testDay.AddDate(0, 3, 0),
		"program_id": "p1",
	}
	rec := serve(h.CreateBatch, newRequest(t, http.MethodPost, "/api/batches", body))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var b models.Batch
	decode(t, rec, &b)
	assert.NotEmpty(t, b.ID)
	assert.Zero(t, b.StudentCount)

	body["end_date"] = testDay.AddDate(0, 0, -1)
	rec = serve(h.CreateBatch, newRequest(t, http.MethodPost, "/api/batches", body))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp validationResponse
	decode(t, rec, &resp)
	require.Len(t, resp.Fields, 1)
	assert.Equal(t, FieldError{Field: "end_date", Error: "must not be before StartDate"}, resp.Fields[0])
}

func TestPrograms(t *testing.T) {
	f := newFixture(t)
	h := NewBatchHandler(f.db, zap.NewNop(), time.Second)

	rec := serve(h.CreateProgram, newRequest(t, http.MethodPost, "/api/programs", map[string]string{"name": "Data Science"}))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = serve(h.CreateProgram, newRequest(t, http.MethodPost, "/api/programs", map[string]string{}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(h.GetPrograms, newRequest(t, http.MethodGet, "/api/programs", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var programs []models.Program
	decode(t, rec, &programs)
	assert.Len(t, programs, 2)
}

func TestGetDashboard(t *testing.T) {
	f := newFixture(t)
	f.addSession(t, "a1", testDay, true)
	h := NewBatchHandler(f.db, zap.NewNop(), time.Second)

	rec := serve(h.GetDashboard, newRequest(t, http.MethodGet, "/api/dashboard", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"students":3,"batches":1,"programs":1,"sessions":1}`, rec.Body.String())
}
