package domain

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
)

func TestColumnLayout(t *testing.T) {
	want := []string{"nombre_comun_es", "nombre_oficial_es", "capital", "region", "poblacion", "area"}
	if got := GroupingColumns(); !reflect.DeepEqual(got, want) {
		t.Fatalf("grouping columns = %v, want %v", got, want)
	}
	merged := MergedColumns()
	if len(merged) != len(want)+1 || merged[len(merged)-1] != ColumnGroup {
		t.Fatalf("merged columns should append %s, got %v", ColumnGroup, merged)
	}
	// MergedColumns must not alias the grouping slice.
	merged[0] = "x"
	if GroupingColumns()[0] != ColumnCommonName {
		t.Fatalf("grouping columns mutated through merged header")
	}
}

func TestCountryRecords(t *testing.T) {
	c := Country{CommonName: "Chile", OfficialName: "República de Chile", Capital: "Santiago", Region: "Americas", PopulationRaw: "19116209", AreaRaw: "756102", Group: "Americas"}
	rec := c.MergedRecord()
	if len(rec) != len(MergedColumns()) {
		t.Fatalf("record width %d does not match header", len(rec))
	}
	if rec[4] != "19116209" || rec[6] != "Americas" {
		t.Fatalf("unexpected record %v", rec)
	}
	if len(DefaultGroupings()) != 6 {
		t.Fatalf("expected six groupings")
	}
}

func TestErrorTaxonomy(t *testing.T) {
	cases := []struct {
		err    error
		target error
	}{
		{&TransportError{Grouping: GroupingAsia, StatusCode: 503}, ErrTransport},
		{fmt.Errorf("wrapped: %w", &TransportError{Grouping: GroupingAsia, Err: errors.New("dial")}), ErrTransport},
		{&ReadError{Key: "a.csv", Err: errors.New("bad quote")}, ErrReadFailure},
		{&InvalidInputError{Field: "min_population", Value: "-1", Reason: "negative"}, ErrInvalidInput},
	}
	for _, tc := range cases {
		if !errors.Is(tc.err, tc.target) {
			t.Fatalf("%v should match %v", tc.err, tc.target)
		}
		if errors.Is(tc.err, ErrEmptyDataset) {
			t.Fatalf("%v should not match ErrEmptyDataset", tc.err)
		}
	}
	inner := errors.New("dial tcp")
	te := &TransportError{Grouping: GroupingEurope, Err: inner}
	if !errors.Is(te, inner) {
		t.Fatalf("transport error should unwrap to its cause")
	}
	if te.Error() != "fetch Europe: dial tcp" {
		t.Fatalf("unexpected message %q", te.Error())
	}
}
