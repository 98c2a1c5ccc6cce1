// Package view holds the query layer over the master collection: filtering,
// sorting and statistics, plus the Session that ties them to a display Sink.
package view

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"

	"countryview/pkg/domain"
)

// MaxBound is the default upper bound of a range filter.
const MaxBound int64 = 999999999999999

// AllGroups matches every group label. "Todos" and an empty group are accepted as aliases.
const AllGroups = "all"

// FilterInput is the raw text of the filter controls.
type FilterInput struct {
	Group         string
	Name          string
	MinPopulation string
	MaxPopulation string
	MinArea       string
	MaxArea       string
}

// Range is an inclusive integer interval. Min > Max is accepted and matches nothing.
type Range struct {
	Min, Max int64
}

// FullRange covers every non-negative value up to MaxBound.
func FullRange() Range { return Range{Min: 0, Max: MaxBound} }

// Contains reports whether v lies in [Min, Max].
func (r Range) Contains(v int64) bool { return r.Min <= v && v <= r.Max }

// Filter is a parsed filter specification; the four predicates are ANDed.
type Filter struct {
	Group      string // exact group label, or AllGroups
	Name       string // substring of the common name, case-folded; empty matches all
	Population Range
	Area       Range
}

// NoFilter matches every record.
func NoFilter() Filter {
	return Filter{Group: AllGroups, Population: FullRange(), Area: FullRange()}
}

// Parse validates every bound. The first invalid bound is returned as a
// *domain.InvalidInputError.
func (in FilterInput) Parse() (Filter, error) {
	f := Filter{Group: normalizeGroup(in.Group), Name: in.Name}
	var err error
	if f.Population.Min, err = ParseBound("min_population", in.MinPopulation, 0); err != nil {
		return Filter{}, err
	}
	if f.Population.Max, err = ParseBound("max_population", in.MaxPopulation, MaxBound); err != nil {
		return Filter{}, err
	}
	if f.Area.Min, err = ParseBound("min_area", in.MinArea, 0); err != nil {
		return Filter{}, err
	}
	if f.Area.Max, err = ParseBound("max_area", in.MaxArea, MaxBound); err != nil {
		return Filter{}, err
	}
	return f, nil
}

func normalizeGroup(g string) string {
	g = strings.TrimSpace(g)
	if g == "" || strings.EqualFold(g, AllGroups) || strings.EqualFold(g, "todos") {
		return AllGroups
	}
	return g
}

// ParseBound reads a user-typed bound. Whitespace and '.' or ',' thousands
// separators are ignored; empty text yields def. Negative and non-integer
// values are rejected.
func ParseBound(field, raw string, def int64) (int64, error) {
	s := strings.NewReplacer(".", "", ",", "").Replace(strings.TrimSpace(raw))
	if s == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		reason := "not a whole number"
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			reason = "out of range"
		}
		return 0, &domain.InvalidInputError{Field: field, Value: raw, Reason: reason}
	}
	if n < 0 {
		return 0, &domain.InvalidInputError{Field: field, Value: raw, Reason: "negative values are not allowed"}
	}
	return n, nil
}

// Apply returns the records of master that satisfy f, in master order.
// master is not modified.
func Apply(master []domain.Country, f Filter) []domain.Country {
	fold := cases.Fold()
	needle := fold.String(f.Name)
	allGroups := normalizeGroup(f.Group) == AllGroups
	out := make([]domain.Country, 0, len(master))
	for _, c := range master {
		if !allGroups && c.Group != f.Group {
			continue
		}
		if !f.Population.Contains(c.Population) || !f.Area.Contains(c.Area) {
			continue
		}
		if needle != "" && !strings.Contains(fold.String(c.CommonName), needle) {
			continue
		}
		out = append(out, c)
	}
	return out
}
