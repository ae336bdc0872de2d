package writer

import (
	"encoding/csv"
	"os"

	"github.com/rotisserie/eris"

	"github.com/ncl-icb-analytics/cosd-extract/internal/model"
)

func writeCSV(path string, cols []string, rows []model.NormalizedRow) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "writer: create %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(cols); err != nil {
		return eris.Wrapf(err, "writer: write header %s", path)
	}
	for _, r := range rows {
		if err := w.Write(Cells(r, cols)); err != nil {
			return eris.Wrapf(err, "writer: write row %s", path)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrapf(err, "writer: flush %s", path)
	}
	return nil
}
