package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"countryview/internal/blob"
	"countryview/internal/catalog"
	"countryview/internal/config"
	"countryview/internal/ingest"
	"countryview/internal/observability"
	"countryview/internal/storage"
	"countryview/internal/tui"
	"countryview/internal/view"
	"countryview/pkg/domain"
)

// runTUI is swapped in tests so the view command can run headless.
var runTUI = tui.Run

type app struct {
	cfg     config.Config
	opts    options
	stdout  io.Writer
	stderr  io.Writer
	logger  *slog.Logger
	logFile *os.File
	metrics *observability.PrometheusRecorder
	blobs   blob.Store
}

func newApp(command string, opts options, stdout, stderr io.Writer) (*app, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	if opts.metricsFile != "" {
		cfg.Metrics.File = opts.metricsFile
	}
	a := &app{cfg: cfg, opts: opts, stdout: stdout, stderr: stderr, metrics: observability.NewPrometheusRecorder("")}

	var logOut io.Writer = stderr
	switch {
	case cfg.Logging.File != "":
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0o750); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		a.logFile, logOut = f, f
	case command == "view":
		// the terminal belongs to the viewer
		logOut = io.Discard
	}
	a.logger = observability.NewLogger(logOut, cfg.Logging.Level).With("run_id", uuid.NewString(), "command", command)
	return a, nil
}

func (a *app) close() error {
	var errs []error
	if a.cfg.Metrics.File != "" {
		if err := a.metrics.WriteTextfile(a.cfg.Metrics.File); err != nil {
			errs = append(errs, fmt.Errorf("write metrics: %w", err))
		}
	}
	if a.logFile != nil {
		errs = append(errs, a.logFile.Close())
	}
	return errors.Join(errs...)
}

func (a *app) run(ctx context.Context, command string) error {
	switch command {
	case "ingest":
		return a.ingest(ctx)
	case "list":
		return a.list(ctx)
	case "stats":
		return a.stats(ctx)
	case "export":
		return a.export(ctx)
	default:
		return a.view(ctx)
	}
}

func (a *app) blobStore(ctx context.Context) (blob.Store, error) {
	if a.blobs != nil {
		return a.blobs, nil
	}
	s, err := blob.Open(ctx, a.cfg.Blob)
	if err != nil {
		return nil, fmt.Errorf("open blob store: %w", err)
	}
	a.blobs = s
	return s, nil
}

func (a *app) pipeline(store blob.Store) *ingest.Pipeline {
	groupings := make([]domain.Grouping, len(a.cfg.Source.Groupings))
	for i, g := range a.cfg.Source.Groupings {
		groupings[i] = domain.Grouping(g)
	}
	return &ingest.Pipeline{
		Fetcher:   ingest.NewClient(a.cfg.Source, nil),
		Store:     store,
		Layout:    a.cfg.Data,
		Groupings: groupings,
		Refresh:   a.opts.refresh,
		Logger:    a.logger,
		Metrics:   a.metrics,
	}
}

func (a *app) ingest(ctx context.Context) error {
	store, err := a.blobStore(ctx)
	if err != nil {
		return err
	}
	summary, err := a.pipeline(store).Run(ctx)
	if summary.Cached {
		_, werr := fmt.Fprintf(a.stdout, "%s already exists; use -refresh to download again\n", a.cfg.Data.MergedKey())
		return werr
	}
	for _, g := range summary.Groupings {
		if g.Err != nil {
			_, _ = fmt.Fprintf(a.stdout, "%-10s failed: %v\n", g.Grouping, g.Err)
			continue
		}
		_, _ = fmt.Fprintf(a.stdout, "%-10s %4d rows  %s\n", g.Grouping, g.Rows, g.Key)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(a.stdout, "merged %d files, %d rows into %s in %s\n",
		len(summary.Merge.Inputs), summary.Merge.Rows, summary.Merge.Key, summary.Duration.Round(time.Millisecond))
	return err
}

// loadMaster reads the master collection from the selected source.
func (a *app) loadMaster(ctx context.Context) (*catalog.Catalog, error) {
	var cat *catalog.Catalog
	err := observability.Track(ctx, a.metrics, "load", func() error {
		if a.opts.source == "db" {
			cs, err := storage.OpenCountryStore(ctx, a.cfg.Storage)
			if err != nil {
				return err
			}
			defer func() { _ = cs.Close() }()
			countries, err := cs.Countries(ctx)
			if err != nil {
				return &domain.ReadError{Key: "storage:" + a.cfg.Storage.Driver, Err: err}
			}
			cat = catalog.FromCountries(countries, "storage:"+a.cfg.Storage.Driver)
			return nil
		}
		store, err := a.blobStore(ctx)
		if err != nil {
			return err
		}
		cat, err = catalog.Load(ctx, store, a.cfg.Data.MergedKey())
		return err
	})
	if err != nil {
		a.logger.Warn("master collection unavailable", "source", a.opts.source, "error", err)
		return catalog.Empty(), err
	}
	a.logger.Info("master collection loaded", "source", cat.Source(), "rows", cat.Len())
	return cat, nil
}

func (a *app) session(cat *catalog.Catalog) (*view.Session, error) {
	s := view.NewSession(cat.Countries(), nil, view.Options{Logger: a.logger, Metrics: a.metrics})
	in := view.FilterInput{
		Group:         a.opts.group,
		Name:          a.opts.name,
		MinPopulation: a.opts.minPopulation,
		MaxPopulation: a.opts.maxPopulation,
		MinArea:       a.opts.minArea,
		MaxArea:       a.opts.maxArea,
	}
	if _, err := s.ApplyFilter(in); err != nil {
		return nil, usageError{err}
	}
	if a.opts.sortKey == "" {
		return s, nil
	}
	key, err := view.ParseSortKey(a.opts.sortKey)
	if err != nil {
		return nil, usageError{err}
	}
	dir, err := view.ParseDirection(a.opts.order)
	if err != nil {
		return nil, usageError{err}
	}
	return s, s.SortDirection(key, dir)
}

func (a *app) list(ctx context.Context) error {
	cat, err := a.loadMaster(ctx)
	if err != nil {
		_, _ = fmt.Fprintf(a.stderr, "warning: %v\n", err)
	}
	s, err := a.session(cat)
	if err != nil {
		return err
	}
	return tui.TextSink{W: a.stdout}.Render(view.Rows(s.View()))
}

// stats prints statistics over the master. An empty master reports "no data"
// without failing.
func (a *app) stats(ctx context.Context) error {
	cat, err := a.loadMaster(ctx)
	if err != nil {
		_, _ = fmt.Fprintf(a.stderr, "warning: %v\n", err)
	}
	if cat.Len() == 0 {
		_, err = fmt.Fprintln(a.stdout, "no data")
		return err
	}
	st, err := view.NewSession(cat.Countries(), nil, view.Options{Logger: a.logger, Metrics: a.metrics}).Stats()
	if err != nil {
		return err
	}
	return tui.RenderStats(a.stdout, st, tui.Locale(a.cfg.Display.Locale))
}

// export writes the filtered and sorted view to the snapshot store. A missing
// master is an error here so an existing snapshot is never wiped.
func (a *app) export(ctx context.Context) error {
	if a.opts.source == "db" {
		return usageError{errors.New("export reads from -source csv only")}
	}
	cat, err := a.loadMaster(ctx)
	if err != nil {
		return err
	}
	s, err := a.session(cat)
	if err != nil {
		return err
	}
	cs, err := storage.OpenCountryStore(ctx, a.cfg.Storage)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() { _ = cs.Close() }()
	rows := s.View()
	if err := observability.Track(ctx, a.metrics, "export", func() error {
		return cs.ReplaceCountries(ctx, rows)
	}); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	a.logger.Info("snapshot exported", "driver", a.cfg.Storage.Driver, "rows", len(rows))
	_, err = fmt.Fprintf(a.stdout, "exported %d countries to %s storage\n", len(rows), a.cfg.Storage.Driver)
	return err
}

func (a *app) view(ctx context.Context) error {
	var status string
	if a.opts.source == "csv" {
		store, err := a.blobStore(ctx)
		if err != nil {
			return err
		}
		summary, err := a.pipeline(store).Run(ctx)
		switch {
		case err != nil:
			a.logger.Error("ingestion failed", "error", err)
			status = "ingestion failed: " + err.Error()
		case len(summary.Failed()) > 0:
			status = fmt.Sprintf("%d continents could not be downloaded", len(summary.Failed()))
		}
	}
	cat, err := a.loadMaster(ctx)
	if err != nil {
		status = "no data: " + err.Error()
	}
	title := "countryview"
	if cat.Source() != "" {
		title += " · " + cat.Source()
	}
	m := tui.New(cat.Countries(), cat.Groups(), tui.Options{
		Title:   title,
		Locale:  tui.Locale(a.cfg.Display.Locale),
		Status:  status,
		Logger:  a.logger,
		Metrics: a.metrics,
	})
	if err := runTUI(ctx, m); err != nil {
		return fmt.Errorf("terminal ui: %w", err)
	}
	return nil
}
