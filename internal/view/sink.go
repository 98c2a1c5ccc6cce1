package view

import "countryview/pkg/domain"

// Row is one displayed line. Numbers are shown as stored.
type Row struct {
	Name       string
	Population string
	Area       string
	Group      string
}

// Columns are the display column titles in Row field order.
func Columns() []string { return []string{"name", "population", "area", "group"} }

// Values returns the row's cells in Columns order.
func (r Row) Values() []string { return []string{r.Name, r.Population, r.Area, r.Group} }

// Rows projects countries to display rows, preserving order.
func Rows(countries []domain.Country) []Row {
	out := make([]Row, len(countries))
	for i, c := range countries {
		out[i] = Row{Name: c.CommonName, Population: c.PopulationRaw, Area: c.AreaRaw, Group: c.Group}
	}
	return out
}

// Sink displays an ordered list of rows. Each Render fully replaces what was
// shown before; an empty slice clears the display.
type Sink interface {
	Render(rows []Row) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(rows []Row) error

// Render implements Sink.
func (f SinkFunc) Render(rows []Row) error { return f(rows) }
