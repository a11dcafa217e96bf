// Package session owns the interactive search state: the raw result set,
// its facets, the filter snapshot and the sequence numbers that order
// concurrent searches.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/modelsearch/internal/domain"
	"github.com/kailas-cloud/modelsearch/internal/domain/facet"
	"github.com/kailas-cloud/modelsearch/internal/domain/filter"
	"github.com/kailas-cloud/modelsearch/internal/domain/item"
	"github.com/kailas-cloud/modelsearch/internal/usecase/pipeline"
)

// DefaultMinTopK is the smallest candidate count requested from the backend.
const DefaultMinTopK = 100

// Config holds session settings. Zero values fall back to defaults.
type Config struct {
	MinTopK      int
	DefaultLimit int
	Memo         *pipeline.Memo
	// StaleTotal counts responses discarded because a newer search was issued.
	StaleTotal prometheus.Counter
	Logger     *zap.Logger
}

// Ticket identifies one issued search.
type Ticket struct {
	Seq   uint64
	Query string
	TopK  int
}

// Snapshot is a consistent view of the session. Items, Groups and Facets
// always derive from the same raw result set and filter state.
type Snapshot struct {
	Seq     uint64
	Query   string
	Loading bool
	// Err is the message of the last failed search, empty on success.
	Err      string
	Facets   facet.Facets
	Filter   filter.State
	Items    []item.Item
	Groups   []pipeline.GroupView
	Selected *item.Item
}

// Session serializes state transitions behind a mutex; the backend call
// itself runs without holding it.
type Session struct {
	id           string
	searcher     Searcher
	memo         *pipeline.Memo
	minTopK      int
	defaultLimit int
	staleTotal   prometheus.Counter
	logger       *zap.Logger

	mu            sync.Mutex
	seq           uint64
	loading       bool
	inFlightQuery string
	query         string
	generation    uint64
	raw           []item.Item
	lastErr       error
	facets        facet.Facets
	filter        filter.State
	selected      string
}

// New creates a session with an empty result set.
func New(searcher Searcher, cfg Config) *Session {
	if cfg.MinTopK <= 0 {
		cfg.MinTopK = DefaultMinTopK
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = filter.DefaultLimit
	}
	if cfg.Memo == nil {
		cfg.Memo = pipeline.NewMemo(nil, nil)
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	s := &Session{
		id:           uuid.NewString(),
		searcher:     searcher,
		memo:         cfg.Memo,
		minTopK:      cfg.MinTopK,
		defaultLimit: cfg.DefaultLimit,
		staleTotal:   cfg.StaleTotal,
	}
	s.logger = cfg.Logger.With(zap.String("session_id", s.id))
	s.filter = s.resetFilter(0)
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Submit runs a search to completion and returns the resulting snapshot.
// The returned error is the backend failure, if any; it is also recorded
// in the snapshot. A response overtaken by a newer search is discarded.
func (s *Session) Submit(ctx context.Context, query string) (Snapshot, error) {
	t, err := s.Begin(query)
	if err != nil {
		return s.Snapshot(), err
	}
	if _, err = s.Run(ctx, t); err != nil {
		return s.Snapshot(), err
	}
	return s.Snapshot(), nil
}

// Run calls the backend for an issued ticket and completes it. applied is
// false when a newer search overtook t.
func (s *Session) Run(ctx context.Context, t Ticket) (applied bool, err error) {
	items, searchErr := s.searcher.Search(ctx, t.Query, t.TopK)
	applied = s.Complete(t, items, searchErr)
	if searchErr != nil {
		return applied, fmt.Errorf("search %q: %w", t.Query, searchErr)
	}
	return applied, nil
}

// Begin issues a new sequence number, resets the filters and enters the
// loading state. Resubmitting the query already in flight is rejected;
// any other query supersedes it.
func (s *Session) Begin(query string) (Ticket, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Ticket{}, domain.ErrEmptyQuery
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loading && s.inFlightQuery == query {
		return Ticket{}, fmt.Errorf("%w: %q", domain.ErrDuplicateSearch, query)
	}

	topK := max(s.minTopK, s.filter.Limit())
	s.seq++
	s.loading = true
	s.inFlightQuery = query
	s.filter = s.resetFilter(s.facets.MaxDownloads)

	s.logger.Debug("Search issued",
		zap.Uint64("seq", s.seq), zap.String("query", query), zap.Int("top_k", topK))

	return Ticket{Seq: s.seq, Query: query, TopK: topK}, nil
}

// Complete applies the outcome of t if t is still the latest issued search
// and reports whether it was applied. On failure the raw set is cleared.
func (s *Session) Complete(t Ticket, items []item.Item, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.Seq != s.seq {
		if s.staleTotal != nil {
			s.staleTotal.Inc()
		}
		s.logger.Debug("Discarded stale search response",
			zap.Uint64("seq", t.Seq), zap.Uint64("latest", s.seq))
		return false
	}

	s.loading = false
	s.inFlightQuery = ""
	s.query = t.Query
	s.generation++
	s.selected = ""

	if err != nil {
		s.raw = nil
		s.lastErr = err
		s.logger.Warn("Search failed", zap.Uint64("seq", t.Seq), zap.Error(err))
	} else {
		s.raw = items
		s.lastErr = nil
		s.logger.Debug("Search applied", zap.Uint64("seq", t.Seq), zap.Int("results", len(items)))
	}

	s.facets = facet.Extract(s.raw)
	s.filter = s.resetFilter(s.facets.MaxDownloads)
	return true
}

// ToggleTag selects or deselects a tag.
func (s *Session) ToggleTag(t string) Snapshot {
	s.mu.Lock()
	s.filter = s.filter.ToggleTag(t)
	s.mu.Unlock()
	return s.Snapshot()
}

// SetDownloadRange replaces the inclusive download bound.
func (s *Session) SetDownloadRange(r filter.Range) (Snapshot, error) {
	return s.SetDownloadBounds(&r.Low, &r.High)
}

// SetDownloadBounds replaces the given bounds of the download range; a nil
// bound keeps its current value. The merge runs under the session lock.
func (s *Session) SetDownloadBounds(low, high *int64) (Snapshot, error) {
	s.mu.Lock()
	r := s.filter.Downloads()
	if low != nil {
		r.Low = *low
	}
	if high != nil {
		r.High = *high
	}
	next, err := s.filter.WithDownloads(r)
	if err != nil {
		s.mu.Unlock()
		return s.Snapshot(), fmt.Errorf("set download range: %w", err)
	}
	s.filter = next
	s.mu.Unlock()
	return s.Snapshot(), nil
}

// SetSort replaces the sort mode. Unrecognized modes keep backend order.
func (s *Session) SetSort(m filter.SortMode) Snapshot {
	if !m.IsValid() {
		s.logger.Warn("Unrecognized sort mode, keeping backend order", zap.String("sort", string(m)))
	}
	s.mu.Lock()
	s.filter = s.filter.WithSort(m)
	s.mu.Unlock()
	return s.Snapshot()
}

// SetLimit replaces the result cap.
func (s *Session) SetLimit(n int) (Snapshot, error) {
	s.mu.Lock()
	next, err := s.filter.WithLimit(n)
	if err != nil {
		s.mu.Unlock()
		return s.Snapshot(), fmt.Errorf("set limit: %w", err)
	}
	s.filter = next
	s.mu.Unlock()
	return s.Snapshot(), nil
}

// ClearFilters restores the default filter state for the current results.
func (s *Session) ClearFilters() Snapshot {
	s.mu.Lock()
	s.filter = s.resetFilter(s.facets.MaxDownloads)
	s.mu.Unlock()
	return s.Snapshot()
}

// Select marks an item of the current result set for detail display.
// An empty id clears the selection.
func (s *Session) Select(id string) (Snapshot, error) {
	s.mu.Lock()
	if id != "" && s.find(id) < 0 {
		s.mu.Unlock()
		return s.Snapshot(), fmt.Errorf("%w: %s", domain.ErrUnknownItem, id)
	}
	s.selected = id
	s.mu.Unlock()
	return s.Snapshot(), nil
}

// Snapshot recomputes (or reuses) the view for the current state.
// While a search is loading no results are exposed.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Seq:     s.seq,
		Query:   s.query,
		Loading: s.loading,
		Err:     domain.Message(s.lastErr),
		Facets:  s.facets,
		Filter:  s.filter,
	}
	if s.loading {
		snap.Query = s.inFlightQuery
		return snap
	}

	view := s.memo.Run(s.generation, s.raw, s.filter)
	snap.Items = view.Items
	snap.Groups = view.Groups
	if i := s.find(s.selected); i >= 0 {
		sel := s.raw[i]
		snap.Selected = &sel
	}
	return snap
}

func (s *Session) find(id string) int {
	if id == "" {
		return -1
	}
	for i, it := range s.raw {
		if it.ID() == id {
			return i
		}
	}
	return -1
}

func (s *Session) resetFilter(maxDownloads int64) filter.State {
	st := filter.Default(maxDownloads)
	if s.defaultLimit != filter.DefaultLimit {
		// defaultLimit is positive, so WithLimit cannot fail.
		st, _ = st.WithLimit(s.defaultLimit)
	}
	return st
}
