package reporting

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Dagmawi-Y/techtonic-AMS-sub000/internal/logger"
	"github.com/Dagmawi-Y/techtonic-AMS-sub000/internal/models"
)

var (
	ErrViewNotFound = errors.New("view not found")
	ErrTooManyViews = errors.New("too many open views")
)

const (
	DefaultViewIdleTimeout = 15 * time.Minute
	DefaultMaxOpenViews    = 500
)

// ViewPage is what a session detail view returns after each load.
type ViewPage struct {
	ViewID  string                  `json:"view_id"`
	Session models.SessionHeader    `json:"session"`
	Records []models.ResolvedRecord `json:"records"`
	Cursor  Cursor                  `json:"cursor"`
	State   string                  `json:"state"`
}

type view struct {
	id        string
	header    models.SessionHeader
	cache     *Cache
	paginator *Paginator
	lastUsed  time.Time
}

// Views keeps the state of open session detail views: a cache and a
// paginator each, discarded when the view is closed or left idle.
type Views struct {
	reporter *Reporter
	idle     time.Duration
	limit    int
	now      func() time.Time

	mu    sync.Mutex
	views map[string]*view
}

// NewViews returns an empty registry holding at most limit views, each
// closed after idle without use.
func NewViews(r *Reporter, idle time.Duration, limit int) *Views {
	if idle <= 0 {
		idle = DefaultViewIdleTimeout
	}
	if limit <= 0 {
		limit = DefaultMaxOpenViews
	}
	return &Views{reporter: r, idle: idle, limit: limit, now: time.Now, views: map[string]*view{}}
}

func (v *Views) full() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.views) >= v.limit
}

func (v *Views) gauge() {
	if m := v.reporter.opts.Metrics; m != nil {
		m.OpenViews.Set(float64(len(v.views)))
	}
}

// Open loads a session once, resolves its header and serves the first page.
func (v *Views) Open(ctx context.Context, sessionID string) (ViewPage, error) {
	if v.full() {
		return ViewPage{}, ErrTooManyViews
	}
	cache := v.reporter.NewCache()
	f := v.reporter.fetcher(cache)

	s, err := f.Session(ctx, sessionID)
	if err != nil {
		return ViewPage{}, err
	}

	vw := &view{
		id:        uuid.NewString(),
		header:    f.Header(ctx, s),
		cache:     cache,
		paginator: NewPaginator(s.Records, cache, v.reporter.opts.PageSize),
		lastUsed:  v.now(),
	}

	v.mu.Lock()
	if len(v.views) >= v.limit {
		v.mu.Unlock()
		cache.Close()
		return ViewPage{}, ErrTooManyViews
	}
	v.views[vw.id] = vw
	v.gauge()
	v.mu.Unlock()

	v.reporter.opts.Logger.Debug("view opened",
		zap.String(logger.FieldViewID, vw.id),
		zap.String(logger.FieldSessionID, sessionID))
	page, err := v.load(ctx, vw)
	if err != nil {
		v.Close(vw.id)
		return ViewPage{}, err
	}
	return page, nil
}

// LoadMore serves the next page of an open view.
func (v *Views) LoadMore(ctx context.Context, viewID string) (ViewPage, error) {
	v.mu.Lock()
	vw, ok := v.views[viewID]
	if ok {
		vw.lastUsed = v.now()
	}
	v.mu.Unlock()
	if !ok {
		return ViewPage{}, ErrViewNotFound
	}
	return v.load(ctx, vw)
}

func (v *Views) load(ctx context.Context, vw *view) (ViewPage, error) {
	added, err := vw.paginator.LoadMore(ctx)
	if err != nil {
		return ViewPage{}, err
	}
	if added == nil {
		added = []models.ResolvedRecord{}
	}
	return ViewPage{
		ViewID:  vw.id,
		Session: vw.header,
		Records: added,
		Cursor:  vw.paginator.Cursor(),
		State:   vw.paginator.State().String(),
	}, nil
}

// Close discards a view. It reports whether the view was open.
func (v *Views) Close(viewID string) bool {
	v.mu.Lock()
	vw, ok := v.views[viewID]
	delete(v.views, viewID)
	v.gauge()
	v.mu.Unlock()
	if ok {
		vw.paginator.Close()
		vw.cache.Close()
	}
	return ok
}

// Sweep closes views idle for longer than the idle timeout and returns how
// many were closed.
func (v *Views) Sweep() int {
	cutoff := v.now().Add(-v.idle)
	var stale []string
	v.mu.Lock()
	for id, vw := range v.views {
		if vw.lastUsed.Before(cutoff) {
			stale = append(stale, id)
		}
	}
	v.mu.Unlock()
	for _, id := range stale {
		v.Close(id)
	}
	return len(stale)
}

// Run sweeps idle views every interval until ctx is done, then closes all
// remaining views.
func (v *Views) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			v.closeAll()
			return
		case <-ticker.C:
			if n := v.Sweep(); n > 0 {
				v.reporter.opts.Logger.Info("closed idle views", zap.Int("count", n))
			}
		}
	}
}

func (v *Views) closeAll() {
	v.mu.Lock()
	ids := make([]string, 0, len(v.views))
	for id := range v.views {
		ids = append(ids, id)
	}
	v.mu.Unlock()
	for _, id := range ids {
		v.Close(id)
	}
}

// Len is the number of open views.
func (v *Views) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.views)
}
