// Package writer serializes normalized rows to tabular extract files, one
// file per logical group within a document. Column order is canonical
// fields in schema order followed by the provenance columns, matching the
// downstream warehouse schema exactly.
package writer

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/ncl-icb-analytics/cosd-extract/internal/model"
	"github.com/ncl-icb-analytics/cosd-extract/internal/reconcile"
	"github.com/ncl-icb-analytics/cosd-extract/internal/schema"
)

// Format selects the extract serialization.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// Extract is one written extract file.
type Extract struct {
	Group   string
	Path    string
	Columns []string
	Rows    int
}

// Write serializes a document's rows under
// <dir>/<site-code>/<doc-stem>/<group>.<ext>. Output is deterministic:
// re-running on the same document produces byte-identical files.
func Write(dir, docStem string, rows []model.NormalizedRow, s *schema.Schema, format Format) ([]Extract, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	outDir := filepath.Join(dir, rows[0].Provenance.SiteCode, docStem)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "writer: create %s", outDir)
	}

	var extracts []Extract
	for _, group := range groupOrder(rows) {
		groupRows := rowsInGroup(rows, group)
		cols := append(reconcile.Columns(groupRows, s), model.ProvenanceColumns...)
		path := filepath.Join(outDir, group+"."+string(format))

		var err error
		switch format {
		case FormatXLSX:
			err = writeXLSX(path, group, cols, groupRows)
		default:
			err = writeCSV(path, cols, groupRows)
		}
		if err != nil {
			return nil, err
		}

		extracts = append(extracts, Extract{
			Group:   group,
			Path:    path,
			Columns: cols,
			Rows:    len(groupRows),
		})
	}
	return extracts, nil
}

// Cells renders one row in the extract's column order.
func Cells(r model.NormalizedRow, cols []string) []string {
	canonical := cols[:len(cols)-len(model.ProvenanceColumns)]
	out := make([]string, 0, len(cols))
	for _, c := range canonical {
		out = append(out, model.FormatValue(r.Values[c]))
	}
	return append(out, r.ProvenanceCells()...)
}

func groupOrder(rows []model.NormalizedRow) []string {
	seen := make(map[string]bool)
	var order []string
	for _, r := range rows {
		if !seen[r.Group] {
			seen[r.Group] = true
			order = append(order, r.Group)
		}
	}
	return order
}

func rowsInGroup(rows []model.NormalizedRow, group string) []model.NormalizedRow {
	var out []model.NormalizedRow
	for _, r := range rows {
		if r.Group == group {
			out = append(out, r)
		}
	}
	return out
}
