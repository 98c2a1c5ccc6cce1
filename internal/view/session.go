package view

import (
	"context"
	"slices"
	"time"

	"countryview/internal/observability"
	"countryview/pkg/domain"
)

// Options carries the optional collaborators of a Session.
type Options struct {
	Logger  observability.Logger
	Metrics observability.MetricsRecorder
}

// Session owns the master collection, the current view and the sort memory.
// It is not safe for concurrent use; a UI drives it from one goroutine.
type Session struct {
	master  []domain.Country
	view    []domain.Country
	filter  Filter
	sorter  *Sorter
	sink    Sink
	logger  observability.Logger
	metrics observability.MetricsRecorder
}

// NewSession starts with the view equal to master, in master order. A nil
// sink is allowed and discards renders.
func NewSession(master []domain.Country, sink Sink, opts Options) *Session {
	s := &Session{
		master:  slices.Clone(master),
		view:    slices.Clone(master),
		filter:  NoFilter(),
		sorter:  NewSorter(),
		sink:    sink,
		logger:  opts.Logger,
		metrics: opts.Metrics,
	}
	if s.logger == nil {
		s.logger = observability.NoopLogger()
	}
	if s.metrics == nil {
		s.metrics = observability.NoopRecorder()
	}
	s.recordRows("master", len(s.master))
	s.recordRows("view", len(s.view))
	return s
}

// ApplyFilter replaces the view with the master records matching in, in
// master order, and renders it. Invalid bounds leave the view untouched and
// return a *domain.InvalidInputError.
func (s *Session) ApplyFilter(in FilterInput) (int, error) {
	start := time.Now()
	f, err := in.Parse()
	if err != nil {
		s.logger.Warn("filter rejected", "error", err)
		s.observe("filter", false, start)
		return len(s.view), err
	}
	s.filter = f
	s.view = Apply(s.master, f)
	s.observe("filter", true, start)
	s.recordRows("view", len(s.view))
	s.logger.Debug("filter applied", "group", f.Group, "name", f.Name, "rows", len(s.view))
	return len(s.view), s.Render()
}

// Sort reorders the view in place by key, toggling direction on repeated
// calls for the same key, and renders it.
func (s *Session) Sort(key SortKey) (Direction, error) {
	start := time.Now()
	dir := s.sorter.Sort(s.view, key)
	s.observe("sort", true, start)
	s.logger.Debug("view sorted", "key", key, "direction", dir)
	return dir, s.Render()
}

// SortDirection sorts the view by key in an explicit direction without
// touching the toggle memory.
func (s *Session) SortDirection(key SortKey, dir Direction) error {
	start := time.Now()
	SortDirection(s.view, key, dir)
	s.observe("sort", true, start)
	return s.Render()
}

// Reset clears every filter, forgets sort memory and shows the whole master
// sorted by name ascending.
func (s *Session) Reset() error {
	s.filter = NoFilter()
	s.view = slices.Clone(s.master)
	s.sorter.Reset()
	s.sorter.Sort(s.view, SortName)
	s.recordRows("view", len(s.view))
	return s.Render()
}

// Stats computes statistics over the master collection, never the view.
func (s *Session) Stats() (Stats, error) {
	start := time.Now()
	st, err := ComputeStats(s.master)
	s.observe("stats", err == nil, start)
	return st, err
}

// View returns a copy of the current view.
func (s *Session) View() []domain.Country { return slices.Clone(s.view) }

// Filter returns the filter that produced the current view.
func (s *Session) Filter() Filter { return s.filter }

// LastSort reports the most recent toggled sort.
func (s *Session) LastSort() (SortKey, Direction, bool) { return s.sorter.Last() }

// MasterLen returns the size of the master collection.
func (s *Session) MasterLen() int { return len(s.master) }

// Render pushes the current view to the sink.
func (s *Session) Render() error {
	if s.sink == nil {
		return nil
	}
	if err := s.sink.Render(Rows(s.view)); err != nil {
		s.logger.Error("render failed", "error", err)
		return err
	}
	return nil
}

func (s *Session) observe(op string, ok bool, start time.Time) {
	s.metrics.Observe(context.Background(), op, ok, time.Since(start))
}

func (s *Session) recordRows(collection string, n int) {
	if rr, ok := s.metrics.(observability.RowsRecorder); ok {
		rr.SetRows(collection, n)
	}
}
