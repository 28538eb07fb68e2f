package reporting

import (
	"context"

	"go.uber.org/zap"

	"github.com/Dagmawi-Y/techtonic-AMS-sub000/internal/metrics"
	"github.com/Dagmawi-Y/techtonic-AMS-sub000/internal/models"
)

// GroupKey is the report grouping key of a session.
func GroupKey(batchID, programID string) string {
	return batchID + "-" + programID
}

// BuildReports folds sessions into one Report per batch and program, in the
// order each pair is first seen. Names and student counts are resolved
// through f.
func BuildReports(ctx context.Context, f *Fetcher, sessions []models.AttendanceSession) []models.Report {
	var (
		order  []string
		groups = map[string]*models.Report{}
	)
	for _, s := range sessions {
		key := GroupKey(s.BatchID, s.ProgramID)
		r, ok := groups[key]
		if !ok {
			r = &models.Report{
				BatchID:   s.BatchID,
				ProgramID: s.ProgramID,
				StartDate: s.Date,
				EndDate:   s.Date,
			}
			groups[key] = r
			order = append(order, key)
		}
		if s.Date.Before(r.StartDate) {
			r.StartDate = s.Date
		}
		if s.Date.After(r.EndDate) {
			r.EndDate = s.Date
		}
		stats := Summarize(s.Records)
		stats.SessionID = s.ID
		stats.Date = s.Date
		r.Records = append(r.Records, stats)
	}

	reports := make([]models.Report, 0, len(order))
	for _, key := range order {
		r := groups[key]
		batch, ok := f.Batch(ctx, r.BatchID)
		if ok && batch.Name != "" {
			r.BatchName = batch.Name
		} else {
			r.BatchName = models.EntityBatch.Placeholder()
		}
		r.ProgramName = f.DisplayName(ctx, models.EntityProgram, r.ProgramID)
		r.Summary = RollUp(r.Records, batch.StudentCount)
		reports = append(reports, *r)
	}
	return reports
}

// Options tunes the reporting pipeline. Zero values select defaults.
type Options struct {
	PageSize         int
	SessionsPageSize int
	BatchSize        int
	Metrics          *metrics.Metrics
	Logger           *zap.Logger
}

// Reporter builds attendance reports. Every call gets its own entity cache.
type Reporter struct {
	src  Source
	opts Options
}

func NewReporter(src Source, opts Options) *Reporter {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Reporter{src: src, opts: opts}
}

// NewCache returns an empty cache over the reporter's source.
func (r *Reporter) NewCache() *Cache {
	return NewCache(r.src, WithBatchSize(r.opts.BatchSize), WithMetrics(r.opts.Metrics))
}

// Fetcher returns a fetcher backed by a fresh cache.
func (r *Reporter) Fetcher() *Fetcher {
	return r.fetcher(r.NewCache())
}

func (r *Reporter) fetcher(c *Cache) *Fetcher {
	return NewFetcher(r.src, c, r.opts.Logger, r.opts.SessionsPageSize)
}

// Build returns the reports for every session matching filter.
func (r *Reporter) Build(ctx context.Context, filter Filter) ([]models.Report, error) {
	f := r.Fetcher()
	sessions, err := f.Sessions(ctx, filter)
	if err != nil {
		return nil, err
	}
	return BuildReports(ctx, f, sessions), nil
}
