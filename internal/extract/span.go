package extract

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// spanTracker expands merged table cells. A colspan duplicates its value
// across the covered columns within the row; a rowspan carries its value
// down into the covered rows, so every logical column receives a value.
type spanTracker struct {
	carry map[int]*carriedCell
}

type carriedCell struct {
	value string
	rows  int
}

func newSpanTracker() *spanTracker {
	return &spanTracker{carry: make(map[int]*carriedCell)}
}

// expand converts one row's cell selection into logical column values,
// applying pending rowspans and registering new ones.
func (t *spanTracker) expand(cells *goquery.Selection) []string {
	var out []string
	col := 0

	emitCarried := func() {
		for {
			c, ok := t.carry[col]
			if !ok {
				return
			}
			out = append(out, c.value)
			c.rows--
			if c.rows == 0 {
				delete(t.carry, col)
			}
			col++
		}
	}

	cells.Each(func(_ int, cell *goquery.Selection) {
		emitCarried()

		value := strings.TrimSpace(cell.Text())
		colspan := spanAttr(cell, "colspan")
		rowspan := spanAttr(cell, "rowspan")

		for k := 0; k < colspan; k++ {
			if rowspan > 1 {
				t.carry[col] = &carriedCell{value: value, rows: rowspan - 1}
			}
			out = append(out, value)
			col++
		}
	})
	emitCarried()

	return out
}

func spanAttr(cell *goquery.Selection, name string) int {
	v, ok := cell.Attr(name)
	if !ok {
		return 1
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 1 {
		return 1
	}
	return n
}
