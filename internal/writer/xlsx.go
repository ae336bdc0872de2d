package writer

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/ncl-icb-analytics/cosd-extract/internal/model"
)

// sheetNameLimit is the spreadsheet format's sheet name cap.
const sheetNameLimit = 31

func writeXLSX(path, group string, cols []string, rows []model.NormalizedRow) error {
	f := xlsx.NewFile()
	name := group
	if len(name) > sheetNameLimit {
		name = name[:sheetNameLimit]
	}
	sheet, err := f.AddSheet(name)
	if err != nil {
		return eris.Wrapf(err, "writer: add sheet %s", name)
	}

	header := sheet.AddRow()
	for _, c := range cols {
		header.AddCell().SetString(c)
	}
	for _, r := range rows {
		out := sheet.AddRow()
		for _, cell := range Cells(r, cols) {
			out.AddCell().SetString(cell)
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "writer: save %s", path)
	}
	return nil
}
