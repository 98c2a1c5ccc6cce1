package ingest

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ohler55/ojg/oj"

	"countryview/internal/blob"
	"countryview/internal/config"
	memblob "countryview/internal/infra/blob/memory"
	"countryview/internal/observability"
	"countryview/pkg/domain"
)

const peruJSON = `[
  {"name": {"common": "Peru"},
   "translations": {"spa": {"common": "Perú", "official": "República del Perú"}},
   "capital": ["Lima"], "region": "Americas", "population": 32971846, "area": 1285216.2},
  {"translations": {"eng": {"common": "Nowhere"}},
   "capital": ["Pretoria", "Bloemfontein", "Cape Town"], "population": 1.5e3},
  {"translations": {"spa": {"common": ""}}, "capital": [], "region": "Antarctic"}
]`

func testLayout() config.Data { return config.Data{Prefix: "Continentes/", MergedName: "Todos.csv"} }

func TestNormalize(t *testing.T) {
	doc, err := oj.ParseString(peruJSON)
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	recs := doc.([]any)

	peru := Normalize(recs[0], "spa")
	if peru.CommonName != "Perú" || peru.OfficialName != "República del Perú" || peru.Capital != "Lima" || peru.Region != "Americas" {
		t.Fatalf("unexpected peru %+v", peru)
	}
	if peru.PopulationRaw != "32971846" || peru.AreaRaw != "1285216" || peru.Area != 1285216 {
		t.Fatalf("numbers not truncated: %+v", peru)
	}

	partial := Normalize(recs[1], "spa")
	if partial.CommonName != domain.NotAvailable || partial.OfficialName != domain.NotAvailable || partial.Region != domain.NotAvailable {
		t.Fatalf("missing levels should become N/A: %+v", partial)
	}
	if partial.Capital != "Pretoria, Bloemfontein, Cape Town" {
		t.Fatalf("capital join: %q", partial.Capital)
	}
	if partial.PopulationRaw != "1500" || partial.AreaRaw != "0" {
		t.Fatalf("numeric defaults: %+v", partial)
	}

	empty := Normalize(recs[2], "spa")
	if empty.CommonName != domain.NotAvailable || empty.Capital != domain.NotAvailable {
		t.Fatalf("empty values should become N/A: %+v", empty)
	}

	eng := Normalize(recs[1], "eng")
	if eng.CommonName != "Nowhere" {
		t.Fatalf("language should select translation: %+v", eng)
	}
	if got := Normalize("not an object", ""); got.CommonName != domain.NotAvailable || got.PopulationRaw != "0" {
		t.Fatalf("non-object record: %+v", got)
	}
}

func TestNumber(t *testing.T) {
	cases := []struct {
		in   any
		want int64
	}{
		{int64(42), 42}, {41.9, 41}, {-3.7, -3}, {"12", 0}, {nil, 0}, {1e300, 0},
	}
	for _, c := range cases {
		if got := number(c.in); got != c.want {
			t.Fatalf("number(%v) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestClientFetchGrouping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v3.1/region/Americas":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(peruJSON))
		case "/v3.1/region/Asia":
			_, _ = w.Write([]byte(`{"status": 404}`))
		default:
			http.Error(w, "not found", http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewClient(config.Source{BaseURL: srv.URL + "/v3.1/", Language: "spa", Timeout: time.Second}, nil)
	if got := c.RegionURL("Americas"); got != srv.URL+"/v3.1/region/Americas" {
		t.Fatalf("region url: %s", got)
	}
	countries, err := c.FetchGrouping(context.Background(), domain.GroupingAmericas)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(countries) != 3 || countries[0].CommonName != "Perú" {
		t.Fatalf("unexpected countries %+v", countries)
	}

	_, err = c.FetchGrouping(context.Background(), domain.GroupingEurope)
	var te *domain.TransportError
	if !errors.Is(err, domain.ErrTransport) || !errors.As(err, &te) || te.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 transport error, got %v", err)
	}
	if _, err := c.FetchGrouping(context.Background(), domain.GroupingAsia); err == nil || errors.Is(err, domain.ErrTransport) {
		t.Fatalf("non-array body should be a decode error, got %v", err)
	}

	down := NewClient(config.Source{BaseURL: "http://127.0.0.1:1"}, &http.Client{Timeout: 200 * time.Millisecond})
	if _, err := down.FetchGrouping(context.Background(), domain.GroupingAfrica); !errors.Is(err, domain.ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func readRows(t *testing.T, store blob.Store, key string) [][]string {
	t.Helper()
	data, err := blob.ReadAll(context.Background(), store, key)
	if err != nil {
		t.Fatalf("read %s: %v", key, err)
	}
	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("decode %s: %v", key, err)
	}
	return rows
}

func TestWriteGroupingReplaces(t *testing.T) {
	store := memblob.New()
	ctx := context.Background()
	first := []domain.Country{{CommonName: "Chile", OfficialName: "República de Chile", Capital: "Santiago", Region: "Americas", PopulationRaw: "19116209", AreaRaw: "756102"}}
	if _, err := WriteGrouping(ctx, store, "Continentes/Americas.csv", first); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := WriteGrouping(ctx, store, "Continentes/Americas.csv", append(first, first[0])); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	rows := readRows(t, store, "Continentes/Americas.csv")
	if len(rows) != 3 || strings.Join(rows[0], ",") != strings.Join(domain.GroupingColumns(), ",") {
		t.Fatalf("unexpected rows %v", rows)
	}
}

func TestMergeTagsGroupLabels(t *testing.T) {
	store := memblob.New()
	ctx := context.Background()
	layout := testLayout()
	put := func(g string, names ...string) {
		var cs []domain.Country
		for _, n := range names {
			cs = append(cs, domain.Country{CommonName: n, Region: "Americas", PopulationRaw: "1", AreaRaw: "1"})
		}
		if _, err := WriteGrouping(ctx, store, layout.Prefix+g+".csv", cs); err != nil {
			t.Fatalf("write %s: %v", g, err)
		}
	}
	put("Oceania", "Fiji")
	put("Americas", "Chile", "Perú")
	// noise the merge must ignore
	_, _ = store.Put(ctx, "Continentes/notes.txt", strings.NewReader("x"), blob.PutOptions{})
	_, _ = store.Put(ctx, "Continentes/old/Asia.csv", strings.NewReader("x"), blob.PutOptions{})

	report, err := Merge(ctx, store, layout)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if report.Rows != 3 || len(report.Inputs) != 2 || report.Inputs[0] != "Continentes/Americas.csv" {
		t.Fatalf("unexpected report %+v", report)
	}
	rows := readRows(t, store, layout.MergedKey())
	if strings.Join(rows[0], ",") != strings.Join(domain.MergedColumns(), ",") {
		t.Fatalf("merged header %v", rows[0])
	}
	want := []string{"Americas", "Americas", "Oceania"}
	for i, w := range want {
		if got := rows[i+1][len(rows[i+1])-1]; got != w {
			t.Fatalf("row %d group = %q, want %q", i, got, w)
		}
	}

	// merging again must not pick up the merged file itself
	again, err := Merge(ctx, store, layout)
	if err != nil || again.Rows != 3 {
		t.Fatalf("re-merge: %v %+v", err, again)
	}
}

func TestMergeErrors(t *testing.T) {
	ctx := context.Background()
	layout := testLayout()
	if _, err := Merge(ctx, memblob.New(), layout); !errors.Is(err, ErrNothingToMerge) {
		t.Fatalf("expected ErrNothingToMerge, got %v", err)
	}

	store := memblob.New()
	_, _ = store.Put(ctx, "Continentes/Africa.csv", strings.NewReader("a,b\n1,2\n"), blob.PutOptions{})
	_, _ = store.Put(ctx, "Continentes/Asia.csv", strings.NewReader("a,c\n1,2\n"), blob.PutOptions{})
	if _, err := Merge(ctx, store, layout); !errors.Is(err, domain.ErrHeaderMismatch) {
		t.Fatalf("expected ErrHeaderMismatch, got %v", err)
	}
	if ok, _ := blob.Exists(ctx, store, layout.MergedKey()); ok {
		t.Fatalf("failed merge must not write output")
	}

	empty := memblob.New()
	_, _ = empty.Put(ctx, "Continentes/Africa.csv", strings.NewReader(""), blob.PutOptions{})
	if _, err := Merge(ctx, empty, layout); !errors.Is(err, domain.ErrReadFailure) {
		t.Fatalf("expected read failure for empty file, got %v", err)
	}
}

func TestGroupLabel(t *testing.T) {
	for key, want := range map[string]string{
		"Continentes/Americas.csv": "Americas",
		"Asia.CSV":                 "Asia",
		"a/b/Oceania":              "Oceania",
	} {
		if got := GroupLabel(key); got != want {
			t.Fatalf("GroupLabel(%q) = %q, want %q", key, got, want)
		}
	}
}

type fakeFetcher struct {
	calls atomic.Int32
	fail  map[domain.Grouping]error
	panic domain.Grouping
}

func (f *fakeFetcher) FetchGrouping(_ context.Context, g domain.Grouping) ([]domain.Country, error) {
	f.calls.Add(1)
	if g == f.panic {
		panic("boom")
	}
	if err := f.fail[g]; err != nil {
		return nil, err
	}
	return []domain.Country{{CommonName: string(g) + "-land", Region: string(g), PopulationRaw: "10", AreaRaw: "5"}}, nil
}

func TestPipelineRun(t *testing.T) {
	ctx := context.Background()
	store := memblob.New()
	fetcher := &fakeFetcher{
		fail:  map[domain.Grouping]error{domain.GroupingAsia: &domain.TransportError{Grouping: domain.GroupingAsia, StatusCode: 503}},
		panic: domain.GroupingOceania,
	}
	rec := observability.NewPrometheusRecorder("test")
	p := &Pipeline{Fetcher: fetcher, Store: store, Layout: testLayout(), Metrics: rec}
	summary, err := p.Run(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Cached || len(summary.Groupings) != 6 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	failed := summary.Failed()
	if len(failed) != 2 || failed[0].Grouping != domain.GroupingAsia || failed[1].Grouping != domain.GroupingOceania {
		t.Fatalf("unexpected failures %+v", failed)
	}
	if !errors.Is(failed[0].Err, domain.ErrTransport) {
		t.Fatalf("asia should carry transport error: %v", failed[0].Err)
	}
	if ok, _ := blob.Exists(ctx, store, "Continentes/Asia.csv"); ok {
		t.Fatalf("failed grouping must not leave a file")
	}
	if summary.Merge.Rows != 4 {
		t.Fatalf("expected 4 merged rows, got %+v", summary.Merge)
	}

	// sentinel present: nothing is fetched
	before := fetcher.calls.Load()
	again, err := p.Run(ctx)
	if err != nil || !again.Cached || fetcher.calls.Load() != before {
		t.Fatalf("expected cached skip: %v %+v", err, again)
	}

	p.Refresh = true
	p.Groupings = []domain.Grouping{domain.GroupingEurope}
	forced, err := p.Run(ctx)
	if err != nil || forced.Cached || fetcher.calls.Load() != before+1 {
		t.Fatalf("refresh should re-ingest: %v %+v", err, forced)
	}
}

func TestPipelineAllFail(t *testing.T) {
	boom := errors.New("offline")
	fetcher := &fakeFetcher{fail: map[domain.Grouping]error{}}
	for _, g := range domain.DefaultGroupings() {
		fetcher.fail[g] = boom
	}
	p := &Pipeline{Fetcher: fetcher, Store: memblob.New(), Layout: testLayout()}
	summary, err := p.Run(context.Background())
	if !errors.Is(err, ErrNothingToMerge) {
		t.Fatalf("expected ErrNothingToMerge, got %v", err)
	}
	if len(summary.Failed()) != 6 {
		t.Fatalf("expected all groupings to fail: %+v", summary)
	}
}

func TestPipelineCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := &Pipeline{Fetcher: &fakeFetcher{}, Store: memblob.New(), Layout: testLayout()}
	if _, err := p.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
