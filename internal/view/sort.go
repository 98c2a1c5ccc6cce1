package view

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"countryview/pkg/domain"
)

// SortKey names a sortable column.
type SortKey string

// Sort keys.
const (
	SortName       SortKey = "name"
	SortPopulation SortKey = "population"
	SortArea       SortKey = "area"
	SortGroup      SortKey = "group"
)

// SortKeys lists the keys in display order.
func SortKeys() []SortKey { return []SortKey{SortName, SortPopulation, SortArea, SortGroup} }

// ParseSortKey accepts a key name case-insensitively.
func ParseSortKey(s string) (SortKey, error) {
	k := SortKey(strings.ToLower(strings.TrimSpace(s)))
	if slices.Contains(SortKeys(), k) {
		return k, nil
	}
	return "", fmt.Errorf("unknown sort key %q (want name, population, area or group)", s)
}

// Direction is a sort order.
type Direction int

// Directions.
const (
	Ascending Direction = iota
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// ParseDirection accepts asc|desc.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "asc", "ascending":
		return Ascending, nil
	case "desc", "descending":
		return Descending, nil
	default:
		return Ascending, fmt.Errorf("unknown sort direction %q", s)
	}
}

// Sorter remembers, for the most recently sorted key only, which direction
// the next call will use. Sorting by a different key forgets the others, so
// a key always starts ascending after another key was used.
type Sorter struct {
	nextDesc map[SortKey]bool
	last     SortKey
	lastDir  Direction
}

// NewSorter returns a Sorter with no memory.
func NewSorter() *Sorter { return &Sorter{nextDesc: map[SortKey]bool{}} }

// Sort reorders rows in place by key, alternating direction on consecutive
// calls for the same key. It returns the direction used.
func (s *Sorter) Sort(rows []domain.Country, key SortKey) Direction {
	dir := Ascending
	if s.nextDesc[key] {
		dir = Descending
	}
	s.nextDesc = map[SortKey]bool{key: dir == Ascending}
	s.last, s.lastDir = key, dir
	SortDirection(rows, key, dir)
	return dir
}

// Reset forgets every key's direction.
func (s *Sorter) Reset() {
	s.nextDesc = map[SortKey]bool{}
	s.last, s.lastDir = "", Ascending
}

// Last returns the most recent key and direction, if any.
func (s *Sorter) Last() (SortKey, Direction, bool) {
	return s.last, s.lastDir, s.last != ""
}

// SortDirection stably sorts rows by key in the given direction. Numeric keys
// use the integer projections; text keys compare case-folded.
func SortDirection(rows []domain.Country, key SortKey, dir Direction) {
	sign := 1
	if dir == Descending {
		sign = -1
	}
	switch key {
	case SortPopulation:
		slices.SortStableFunc(rows, func(a, b domain.Country) int { return sign * cmp.Compare(a.Population, b.Population) })
	case SortArea:
		slices.SortStableFunc(rows, func(a, b domain.Country) int { return sign * cmp.Compare(a.Area, b.Area) })
	case SortName, SortGroup:
		sortText(rows, key, sign)
	}
}

// sortText folds every key once and permutes rows alongside the keys.
func sortText(rows []domain.Country, key SortKey, sign int) {
	fold := cases.Fold()
	type keyed struct {
		k string
		c domain.Country
	}
	tmp := make([]keyed, len(rows))
	for i, c := range rows {
		v := c.CommonName
		if key == SortGroup {
			v = c.Group
		}
		tmp[i] = keyed{k: fold.String(v), c: c}
	}
	slices.SortStableFunc(tmp, func(a, b keyed) int { return sign * strings.Compare(a.k, b.k) })
	for i := range tmp {
		rows[i] = tmp[i].c
	}
}
