package view

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"countryview/pkg/domain"
)

func country(name, group string, pop, area int64) domain.Country {
	return domain.Country{
		CommonName:    name,
		Group:         group,
		Population:    pop,
		Area:          area,
		PopulationRaw: decimal.NewFromInt(pop).String(),
		AreaRaw:       decimal.NewFromInt(area).String(),
	}
}

func sample() []domain.Country {
	return []domain.Country{
		country("Perú", "Americas", 33715471, 1285216),
		country("Chile", "Americas", 19116209, 756102),
		country("Fiyi", "Oceania", 896444, 18272),
		country("Suiza", "Europe", 8654622, 41285),
		country("Antártida", "Antarctic", 1000, 14000000),
		country("Islas Pitcairn", "Oceania", 56, 47),
		country("Japón", "Asia", 125836021, 377930),
		country("Mónaco", "Europe", 38682, 2),
	}
}

func names(cs []domain.Country) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.CommonName
	}
	return out
}

func TestParseBound(t *testing.T) {
	cases := []struct {
		raw  string
		def  int64
		want int64
	}{
		{"", 7, 7}, {"   ", 0, 0}, {"1.000.000", 0, 1000000}, {"1,000", 0, 1000}, {" 42 ", 0, 42}, {"0", 5, 0},
	}
	for _, c := range cases {
		got, err := ParseBound("min_population", c.raw, c.def)
		if err != nil || got != c.want {
			t.Fatalf("ParseBound(%q) = %d, %v; want %d", c.raw, got, err, c.want)
		}
	}
	for _, raw := range []string{"-1", "abc", "1e6", "12.5x", "99999999999999999999"} {
		_, err := ParseBound("max_area", raw, 0)
		var ie *domain.InvalidInputError
		if !errors.Is(err, domain.ErrInvalidInput) || !errors.As(err, &ie) || ie.Field != "max_area" {
			t.Fatalf("ParseBound(%q) should be invalid input, got %v", raw, err)
		}
	}
}

func TestFilterInputParse(t *testing.T) {
	f, err := FilterInput{Group: "Todos"}.Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if f.Group != AllGroups || f.Population != FullRange() || f.Area != FullRange() {
		t.Fatalf("empty input should match everything: %+v", f)
	}
	if _, err := (FilterInput{MinArea: "-3"}).Parse(); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestApplySubsetAndPredicates(t *testing.T) {
	master := sample()
	filters := []Filter{
		NoFilter(),
		{Group: "Oceania", Population: FullRange(), Area: FullRange()},
		{Group: AllGroups, Name: "ÁRT", Population: FullRange(), Area: FullRange()},
		{Group: AllGroups, Population: Range{Min: 1000, Max: 20000000}, Area: FullRange()},
		{Group: "Europe", Name: "ó", Population: Range{Min: 0, Max: 100000}, Area: Range{Min: 0, Max: 10}},
	}
	for i, f := range filters {
		got := Apply(master, f)
		// every result is in master, in master order, and satisfies all predicates
		j := 0
		for _, c := range got {
			for j < len(master) && master[j] != c {
				j++
			}
			if j == len(master) {
				t.Fatalf("filter %d: %s not found in master order", i, c.CommonName)
			}
			if !f.Population.Contains(c.Population) || !f.Area.Contains(c.Area) {
				t.Fatalf("filter %d: %s violates ranges", i, c.CommonName)
			}
			if f.Group != AllGroups && c.Group != f.Group {
				t.Fatalf("filter %d: %s has group %s", i, c.CommonName, c.Group)
			}
		}
		// nothing matching was dropped
		want := 0
		for _, c := range master {
			if (f.Group == AllGroups || c.Group == f.Group) && f.Population.Contains(c.Population) && f.Area.Contains(c.Area) &&
				strings.Contains(strings.ToLower(c.CommonName), strings.ToLower(f.Name)) {
				want++
			}
		}
		if len(got) != want {
			t.Fatalf("filter %d: got %d rows, want %d", i, len(got), want)
		}
		// idempotent
		if again := Apply(got, f); !slices.Equal(names(again), names(got)) {
			t.Fatalf("filter %d not idempotent", i)
		}
	}
	if got := names(Apply(master, filters[2])); !slices.Equal(got, []string{"Antártida"}) {
		t.Fatalf("case-folded name match: %v", got)
	}
	if got := names(Apply(master, filters[4])); !slices.Equal(got, []string{"Mónaco"}) {
		t.Fatalf("conjunction: %v", got)
	}
}

func TestApplyMinGreaterThanMaxIsEmpty(t *testing.T) {
	f, err := FilterInput{MinPopulation: "1000000", MaxPopulation: "500000"}.Parse()
	if err != nil {
		t.Fatalf("min > max must parse: %v", err)
	}
	if got := Apply(sample(), f); len(got) != 0 {
		t.Fatalf("expected empty result, got %v", names(got))
	}
}

func TestApplyDoesNotMutateMaster(t *testing.T) {
	master := sample()
	before := names(master)
	out := Apply(master, NoFilter())
	SortDirection(out, SortPopulation, Descending)
	if !slices.Equal(names(master), before) {
		t.Fatalf("master was reordered")
	}
}

func TestSortPopulationMonotonicAndStable(t *testing.T) {
	rows := []domain.Country{
		country("a", "X", 5, 0), country("b", "X", 1, 0), country("c", "X", 5, 0),
		country("d", "X", 3, 0), country("e", "X", 1, 0),
	}
	SortDirection(rows, SortPopulation, Ascending)
	if got := strings.Join(names(rows), ""); got != "bedac" {
		t.Fatalf("ascending stable order: %s", got)
	}
	SortDirection(rows, SortPopulation, Descending)
	for i := 1; i < len(rows); i++ {
		if rows[i-1].Population < rows[i].Population {
			t.Fatalf("not monotonic descending at %d", i)
		}
	}
	if got := strings.Join(names(rows), ""); got != "acdbe" {
		t.Fatalf("descending stable order: %s", got)
	}
}

func TestSortUsesProjectionNotText(t *testing.T) {
	rows := []domain.Country{
		{CommonName: "big", PopulationRaw: "1,000", Population: 1000},
		{CommonName: "small", PopulationRaw: "999", Population: 999},
	}
	SortDirection(rows, SortPopulation, Ascending)
	if rows[0].CommonName != "small" {
		t.Fatalf("numeric sort should use projection: %v", names(rows))
	}
}

func TestSortTextCaseFolded(t *testing.T) {
	rows := []domain.Country{country("bolivia", "", 0, 0), country("Argentina", "", 0, 0), country("brasil", "", 0, 0), country("Bahamas", "", 0, 0)}
	SortDirection(rows, SortName, Ascending)
	if got := strings.Join(names(rows), ","); got != "Argentina,Bahamas,bolivia,brasil" {
		t.Fatalf("case-folded order: %s", got)
	}
	groups := []domain.Country{country("x", "oceania", 0, 0), country("y", "Asia", 0, 0)}
	SortDirection(groups, SortGroup, Ascending)
	if groups[0].Group != "Asia" {
		t.Fatalf("group sort: %+v", groups)
	}
}

func TestSorterToggle(t *testing.T) {
	s := NewSorter()
	rows := sample()
	seq := []struct {
		key  SortKey
		want Direction
	}{
		{SortPopulation, Ascending},
		{SortPopulation, Descending},
		{SortPopulation, Ascending},
		{SortName, Ascending},
		{SortPopulation, Ascending}, // memory of population was cleared by switching keys
		{SortPopulation, Descending},
	}
	for i, step := range seq {
		if got := s.Sort(rows, step.key); got != step.want {
			t.Fatalf("step %d (%s): got %s, want %s", i, step.key, got, step.want)
		}
	}
	if k, d, ok := s.Last(); !ok || k != SortPopulation || d != Descending {
		t.Fatalf("last: %s %s %v", k, d, ok)
	}
	s.Reset()
	if _, _, ok := s.Last(); ok {
		t.Fatalf("reset should clear last")
	}
	if got := s.Sort(rows, SortPopulation); got != Ascending {
		t.Fatalf("after reset should start ascending")
	}
}

func TestParseSortKeyAndDirection(t *testing.T) {
	if k, err := ParseSortKey(" Population "); err != nil || k != SortPopulation {
		t.Fatalf("parse key: %v %v", k, err)
	}
	if _, err := ParseSortKey("capital"); err == nil {
		t.Fatalf("expected unknown key error")
	}
	if d, err := ParseDirection("DESC"); err != nil || d != Descending {
		t.Fatalf("parse dir: %v %v", d, err)
	}
	if _, err := ParseDirection("sideways"); err == nil {
		t.Fatalf("expected unknown direction error")
	}
}

func TestComputeStats(t *testing.T) {
	master := []domain.Country{country("A", "Europe", 10, 1), country("B", "Asia", 20, 2), country("C", "Asia", 30, 4)}
	st, err := ComputeStats(master)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if !st.MeanPopulation.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("mean population = %s", st.MeanPopulation)
	}
	if st.MostPopulous.Population != 30 || st.LeastPopulous.Population != 10 || st.Total != 3 {
		t.Fatalf("extremes: %+v", st)
	}
	if want := decimal.RequireFromString("2.3333333333333333"); !st.MeanArea.Equal(want) {
		t.Fatalf("mean area = %s", st.MeanArea)
	}
	if len(st.Groups) != 2 || st.Groups[0] != (GroupCount{"Asia", 2}) || st.Groups[1] != (GroupCount{"Europe", 1}) {
		t.Fatalf("groups: %+v", st.Groups)
	}
}

func TestComputeStatsTiesAndEmpty(t *testing.T) {
	master := []domain.Country{country("first", "X", 5, 0), country("second", "X", 5, 0)}
	st, _ := ComputeStats(master)
	if st.MostPopulous.CommonName != "first" || st.LeastPopulous.CommonName != "first" {
		t.Fatalf("ties should go to first occurrence: %+v", st)
	}
	if _, err := ComputeStats(nil); !errors.Is(err, domain.ErrEmptyDataset) {
		t.Fatalf("expected ErrEmptyDataset, got %v", err)
	}
}

func TestRows(t *testing.T) {
	c := domain.Country{CommonName: "Perú", PopulationRaw: "33715471", AreaRaw: "1285216", Group: "Americas", Population: 1}
	rows := Rows([]domain.Country{c})
	if rows[0] != (Row{"Perú", "33715471", "1285216", "Americas"}) {
		t.Fatalf("row: %+v", rows[0])
	}
	if len(rows[0].Values()) != len(Columns()) {
		t.Fatalf("values/columns mismatch")
	}
}
