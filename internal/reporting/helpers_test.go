package reporting

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Dagmawi-Y/techtonic-AMS-sub000/internal/database/inmem"
	"github.com/Dagmawi-Y/techtonic-AMS-sub000/internal/models"
)

var day0 = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

func addStudents(t *testing.T, db *inmem.DB, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, db.CreateStudent(context.Background(), &models.Student{
			ID:   fmt.Sprintf("s%d", i),
			Name: fmt.Sprintf("Student %d", i),
			Code: fmt.Sprintf("TT-%03d", i),
		}))
	}
}

func rawRecords(n int) []models.RawRecord {
	out := make([]models.RawRecord, n)
	for i := range out {
		out[i] = models.RawRecord{
			StudentID: fmt.Sprintf("s%d", i),
			IsPresent: i%2 == 0,
			MarkedBy:  models.MarkedScan,
			Timestamp: day0,
		}
	}
	return out
}

func addSession(t *testing.T, db *inmem.DB, id, batchID, programID string, date time.Time, recs []models.RawRecord) {
	t.Helper()
	require.NoError(t, db.CreateSession(context.Background(), &models.AttendanceSession{
		ID:        id,
		Date:      date,
		BatchID:   batchID,
		ProgramID: programID,
		CreatedBy: "u1",
		CreatedAt: date,
		Records:   recs,
	}))
}
