package model

import "strconv"

// Provenance is the period/site metadata derived from a source file's name.
// Every NormalizedRow carries a fully populated Provenance.
type Provenance struct {
	PeriodYear  int    `json:"period_year"`
	PeriodCycle int    `json:"period_cycle"`
	SiteCode    string `json:"site_code"`
	SiteName    string `json:"site_name"`
	SourcePath  string `json:"source_path"`
}

// ProvenanceColumns is the fixed ordered set of provenance columns appended
// to every extract. The downstream warehouse schema depends on this order.
var ProvenanceColumns = []string{
	"period_year",
	"period_cycle",
	"site_code",
	"site_name",
	"source_origin",
}

// NormalizedRow is one reconciled output row. Values map canonical field
// names to typed scalars (string, int64 or float64; nil for absent cells).
// Rows are immutable once produced.
type NormalizedRow struct {
	Group      string
	Origin     Origin
	Values     map[string]any
	Provenance Provenance
}

// ProvenanceCells renders the provenance columns in ProvenanceColumns order.
func (r NormalizedRow) ProvenanceCells() []string {
	return []string{
		strconv.Itoa(r.Provenance.PeriodYear),
		strconv.Itoa(r.Provenance.PeriodCycle),
		r.Provenance.SiteCode,
		r.Provenance.SiteName,
		string(r.Origin),
	}
}

// FormatValue renders a typed cell value for tabular output. Absent cells
// render as the empty string.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	default:
		return ""
	}
}
