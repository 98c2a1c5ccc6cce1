package memory

import (
	"context"
	"testing"
	"time"

	"countryview/pkg/domain"
)

func TestReplaceAndReadPreservesOrder(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	if got, err := s.Countries(ctx); err != nil || len(got) != 0 {
		t.Fatalf("empty store: %v %v", got, err)
	}
	in := []domain.Country{{CommonName: "b"}, {CommonName: "a"}}
	if err := s.ReplaceCountries(ctx, in); err != nil {
		t.Fatalf("replace: %v", err)
	}
	in[0].CommonName = "mutated"
	got, err := s.Countries(ctx)
	if err != nil || len(got) != 2 || got[0].CommonName != "b" || got[1].CommonName != "a" {
		t.Fatalf("countries: %+v %v", got, err)
	}
	got[1].CommonName = "mutated"
	if s.ExportState().Countries[1].CommonName != "a" {
		t.Fatalf("Countries must return a copy")
	}
	if !s.ExportState().UpdatedAt.Equal(fixed) {
		t.Fatalf("updated at not recorded")
	}

	if err := s.ReplaceCountries(ctx, []domain.Country{{CommonName: "c"}}); err != nil {
		t.Fatalf("second replace: %v", err)
	}
	if got, _ := s.Countries(ctx); len(got) != 1 || got[0].CommonName != "c" {
		t.Fatalf("replace should drop the previous snapshot: %+v", got)
	}
}

func TestImportStateAndClose(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	s.ImportState(Snapshot{Countries: []domain.Country{{CommonName: "x"}}})
	if got, _ := s.Countries(ctx); len(got) != 1 {
		t.Fatalf("import: %+v", got)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := s.Countries(ctx); err == nil {
		t.Fatalf("expected error after close")
	}
	if err := s.ReplaceCountries(ctx, nil); err == nil {
		t.Fatalf("expected error after close")
	}
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewStore().ReplaceCountries(ctx, nil); err == nil {
		t.Fatalf("expected context error")
	}
}
