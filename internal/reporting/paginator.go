package reporting

import (
	"context"
	"errors"
	"sync"

	"github.com/Dagmawi-Y/techtonic-AMS-sub000/internal/models"
)

const DefaultPageSize = 20

// ErrViewClosed is returned by LoadMore when the view was closed while the
// page was loading. The page is discarded.
var ErrViewClosed = errors.New("view closed")

type PageState int

const (
	Idle PageState = iota
	Loading
	Exhausted
)

func (s PageState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Exhausted:
		return "exhausted"
	}
	return "unknown"
}

// Cursor is the resumable position of a Paginator.
type Cursor struct {
	CurrentPage int  `json:"current_page"`
	PageSize    int  `json:"page_size"`
	HasMore     bool `json:"has_more"`
}

// Paginator serves a session's records page by page. The full record list
// is held locally; each page only resolves the student names it shows.
type Paginator struct {
	cache    *Cache
	records  []models.RawRecord
	pageSize int

	mu      sync.Mutex
	state   PageState
	page    int
	visible []models.ResolvedRecord
	closed  bool
}

func NewPaginator(records []models.RawRecord, cache *Cache, pageSize int) *Paginator {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Paginator{cache: cache, records: records, pageSize: pageSize}
}

// LoadMore resolves and appends the next page, returning the records it
// added. It is a no-op returning nil while a load is in flight or once all
// records were delivered. On failure the state returns to Idle so the
// caller can retry.
func (p *Paginator) LoadMore(ctx context.Context) ([]models.ResolvedRecord, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrViewClosed
	}
	if p.state != Idle {
		p.mu.Unlock()
		return nil, nil
	}
	start := p.page * p.pageSize
	end := start + p.pageSize
	if end > len(p.records) {
		end = len(p.records)
	}
	if start >= end {
		p.state = Exhausted
		p.mu.Unlock()
		return nil, nil
	}
	p.state = Loading
	slice := p.records[start:end]
	p.mu.Unlock()

	resolved, err := p.resolve(ctx, slice)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrViewClosed
	}
	if err != nil {
		p.state = Idle
		return nil, err
	}
	p.visible = append(p.visible, resolved...)
	p.page++
	if end >= len(p.records) {
		p.state = Exhausted
	} else {
		p.state = Idle
	}
	return resolved, nil
}

func (p *Paginator) resolve(ctx context.Context, slice []models.RawRecord) ([]models.ResolvedRecord, error) {
	ids := make([]string, len(slice))
	for i, r := range slice {
		ids[i] = r.StudentID
	}
	docs, err := p.cache.Resolve(ctx, models.EntityStudent, ids)
	if err != nil {
		return nil, err
	}
	out := make([]models.ResolvedRecord, len(slice))
	for i, r := range slice {
		out[i] = models.ResolvedRecord{
			StudentID:   r.StudentID,
			StudentName: Name(models.EntityStudent, docs[r.StudentID]),
			IsPresent:   r.IsPresent,
			MarkedBy:    r.MarkedBy,
			Timestamp:   r.Timestamp,
		}
	}
	return out, nil
}

// Visible returns a copy of every record loaded so far.
func (p *Paginator) Visible() []models.ResolvedRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.ResolvedRecord, len(p.visible))
	copy(out, p.visible)
	return out
}

func (p *Paginator) State() PageState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Paginator) Cursor() Cursor {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Cursor{
		CurrentPage: p.page,
		PageSize:    p.pageSize,
		HasMore:     p.state != Exhausted && p.page*p.pageSize < len(p.records),
	}
}

// Total is the number of records in the session.
func (p *Paginator) Total() int {
	return len(p.records)
}

// Close stops the paginator. Loads finishing afterwards are discarded.
func (p *Paginator) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
}
