// Package domain defines the country record, the ingestion groupings and the
// error taxonomy shared by the ingestion, catalog and view layers.
package domain

// NotAvailable is the sentinel stored for any text field missing at the source.
const NotAvailable = "N/A"

// Grouping identifies a continent-like partition used both as an ingestion key
// and as the derived group label of a merged record.
type Grouping string

// Groupings requested from the remote source, in ingestion order.
const (
	GroupingAfrica    Grouping = "Africa"
	GroupingAmericas  Grouping = "Americas"
	GroupingAsia      Grouping = "Asia"
	GroupingEurope    Grouping = "Europe"
	GroupingOceania   Grouping = "Oceania"
	GroupingAntarctic Grouping = "Antarctic"
)

// DefaultGroupings returns the fixed enumerated set of groupings.
func DefaultGroupings() []Grouping {
	return []Grouping{
		GroupingAfrica,
		GroupingAmericas,
		GroupingAsia,
		GroupingEurope,
		GroupingOceania,
		GroupingAntarctic,
	}
}

// Flat-file column names. Grouping files carry the first six in this order;
// the merged file appends ColumnGroup.
const (
	ColumnCommonName   = "nombre_comun_es"
	ColumnOfficialName = "nombre_oficial_es"
	ColumnCapital      = "capital"
	ColumnRegion       = "region"
	ColumnPopulation   = "poblacion"
	ColumnArea         = "area"
	ColumnGroup        = "continente"
)

// GroupingColumns returns the header of a per-grouping flat file.
func GroupingColumns() []string {
	return []string{ColumnCommonName, ColumnOfficialName, ColumnCapital, ColumnRegion, ColumnPopulation, ColumnArea}
}

// MergedColumns returns the header of the merged flat file.
func MergedColumns() []string {
	return append(GroupingColumns(), ColumnGroup)
}

// Country is one country or territory.
//
// PopulationRaw and AreaRaw hold the text exactly as stored in the flat file.
// Population and Area are integer projections derived once when the record is
// loaded; they are never recomputed by queries.
type Country struct {
	CommonName    string `json:"common_name"`
	OfficialName  string `json:"official_name"`
	Capital       string `json:"capital"`
	Region        string `json:"region"`
	PopulationRaw string `json:"population"`
	AreaRaw       string `json:"area"`
	Population    int64  `json:"-"`
	Area          int64  `json:"-"`
	// Group is the grouping the record was ingested under. It is assigned at
	// merge time from the grouping file name and may differ from Region.
	Group string `json:"group"`
}

// GroupingRecord returns the fields written to a per-grouping flat file.
func (c Country) GroupingRecord() []string {
	return []string{c.CommonName, c.OfficialName, c.Capital, c.Region, c.PopulationRaw, c.AreaRaw}
}

// MergedRecord returns the fields written to the merged flat file.
func (c Country) MergedRecord() []string {
	return append(c.GroupingRecord(), c.Group)
}
