package ingest

import (
	"context"
	"fmt"
	"time"

	"countryview/internal/blob"
	"countryview/internal/config"
	"countryview/internal/observability"
	"countryview/pkg/domain"
)

// Fetcher retrieves the normalized records of one grouping.
type Fetcher interface {
	FetchGrouping(ctx context.Context, g domain.Grouping) ([]domain.Country, error)
}

// Pipeline runs the full ingestion: fetch and write every grouping, then merge.
type Pipeline struct {
	Fetcher   Fetcher
	Store     blob.Store
	Layout    config.Data
	Groupings []domain.Grouping
	// Refresh ignores an existing merged file and re-ingests everything.
	Refresh bool
	Logger  observability.Logger
	Metrics observability.MetricsRecorder
}

// GroupingResult records the outcome of one grouping.
type GroupingResult struct {
	Grouping domain.Grouping
	Key      string
	Rows     int
	Err      error
}

// Summary describes what a Run did.
type Summary struct {
	// Cached is true when the merged file already existed and nothing ran.
	Cached    bool
	Groupings []GroupingResult
	Merge     MergeReport
	Duration  time.Duration
}

// Failed returns the groupings that could not be ingested.
func (s Summary) Failed() []GroupingResult {
	var out []GroupingResult
	for _, g := range s.Groupings {
		if g.Err != nil {
			out = append(out, g)
		}
	}
	return out
}

// GroupingKey returns the blob key of grouping g's file.
func GroupingKey(layout config.Data, g domain.Grouping) string {
	return layout.Prefix + string(g) + ".csv"
}

// Run executes the pipeline. Per-grouping failures are logged and recorded in
// the summary but do not stop the run; merge failures are returned.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	summary, err := p.run(ctx)
	summary.Duration = time.Since(start)
	return summary, err
}

func (p *Pipeline) run(ctx context.Context) (Summary, error) {
	logger := p.Logger
	if logger == nil {
		logger = observability.NoopLogger()
	}
	metrics := p.Metrics
	if metrics == nil {
		metrics = observability.NoopRecorder()
	}
	var summary Summary

	if !p.Refresh {
		cached, err := blob.Exists(ctx, p.Store, p.Layout.MergedKey())
		if err != nil {
			return summary, fmt.Errorf("check %s: %w", p.Layout.MergedKey(), err)
		}
		if cached {
			logger.Info("merged dataset present, skipping ingestion", "key", p.Layout.MergedKey())
			summary.Cached = true
			return summary, nil
		}
	}

	groupings := p.Groupings
	if len(groupings) == 0 {
		groupings = domain.DefaultGroupings()
	}
	for _, g := range groupings {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		res := p.ingestOne(ctx, g, metrics)
		if res.Err != nil {
			logger.Warn("grouping ingestion failed", "grouping", g, "error", res.Err)
		} else {
			logger.Info("grouping written", "grouping", g, "key", res.Key, "rows", res.Rows)
		}
		summary.Groupings = append(summary.Groupings, res)
	}

	var report MergeReport
	err := observability.Track(ctx, metrics, "merge", func() error {
		var mergeErr error
		report, mergeErr = Merge(ctx, p.Store, p.Layout)
		return mergeErr
	})
	if err != nil {
		logger.Error("merge failed", "prefix", p.Layout.Prefix, "error", err)
		return summary, fmt.Errorf("merge: %w", err)
	}
	summary.Merge = report
	logger.Info("merged dataset written", "key", report.Key, "inputs", len(report.Inputs), "rows", report.Rows)
	return summary, nil
}

// ingestOne fetches then writes; the write is attempted only after a
// successful fetch. Panics from the fetcher are contained to the grouping.
func (p *Pipeline) ingestOne(ctx context.Context, g domain.Grouping, metrics observability.MetricsRecorder) (res GroupingResult) {
	res = GroupingResult{Grouping: g, Key: GroupingKey(p.Layout, g)}
	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("ingest %s: unexpected failure: %v", g, r)
		}
	}()
	var countries []domain.Country
	err := observability.Track(ctx, metrics, "fetch", func() error {
		var fetchErr error
		countries, fetchErr = p.Fetcher.FetchGrouping(ctx, g)
		return fetchErr
	})
	if err != nil {
		res.Err = err
		return res
	}
	err = observability.Track(ctx, metrics, "write_grouping", func() error {
		_, writeErr := WriteGrouping(ctx, p.Store, res.Key, countries)
		return writeErr
	})
	if err != nil {
		res.Err = err
		return res
	}
	res.Rows = len(countries)
	return res
}
