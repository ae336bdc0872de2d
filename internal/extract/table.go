// Package extract locates the data-bearing regions of a parsed COSD report
// and yields raw records from both its table and chart renderings.
package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"

	"github.com/ncl-icb-analytics/cosd-extract/internal/document"
	"github.com/ncl-icb-analytics/cosd-extract/internal/model"
)

// Tables yields one raw record per body row of every table rendering in the
// document: structural <table> regions with a header row, plus the
// script-embedded ranking payloads that the report renders as tables.
// Re-scanning the same document yields the same records.
func Tables(doc *document.Document) ([]model.RawRecord, []model.Warning) {
	var records []model.RawRecord
	var warnings []model.Warning

	doc.Find("table").Each(func(i int, tbl *goquery.Selection) {
		group, title := enclosingSection(tbl)
		if group == "" {
			group = fmt.Sprintf("table_%d", i+1)
		}
		element := elementID(tbl, group, i)

		recs, warns := structuralTable(tbl, group, title, element)
		records = append(records, recs...)
		warnings = append(warnings, warns...)
	})

	for _, sec := range doc.Sections() {
		if sec.InTabset {
			continue
		}
		raw, ok := sec.PayloadJSON()
		if !ok || !isTablePayload(raw) {
			continue
		}
		recs, warn := rankingTable(sec, raw)
		records = append(records, recs...)
		if warn != nil {
			warnings = append(warnings, *warn)
		}
	}

	return records, warnings
}

// structuralTable extracts records from one <table> element. Header cells
// name the fields; merged cells are expanded so every logical column still
// receives a value; rows whose cell count disagrees with the header are
// skipped with a warning rather than failing the document, since malformed
// rows are common in hand-edited extracts.
func structuralTable(tbl *goquery.Selection, group, title, element string) ([]model.RawRecord, []model.Warning) {
	rows := tbl.Find("tr")
	headerIdx := -1
	var header []string
	spans := newSpanTracker()

	rows.EachWithBreak(func(i int, tr *goquery.Selection) bool {
		if tr.ChildrenFiltered("th").Length() == 0 {
			return true
		}
		header = spans.expand(tr.ChildrenFiltered("th,td"))
		headerIdx = i
		return false
	})
	if headerIdx < 0 || len(header) == 0 {
		return nil, nil // not a data table
	}

	var records []model.RawRecord
	var warnings []model.Warning
	rows.Each(func(i int, tr *goquery.Selection) {
		if i <= headerIdx {
			return
		}
		cells := spans.expand(tr.ChildrenFiltered("td,th"))
		if len(cells) == 0 {
			return
		}
		if len(cells) != len(header) {
			warnings = append(warnings, model.Warning{
				Kind:    model.WarningRowSkipped,
				Element: element,
				Detail:  fmt.Sprintf("%s row %d has %d cells, header has %d", element, i, len(cells), len(header)),
			})
			return
		}
		fields := make(map[string]string, len(header))
		for j, name := range header {
			fields[name] = cells[j]
		}
		records = append(records, model.RawRecord{
			Fields:     fields,
			Origin:     model.OriginTable,
			Group:      group,
			GroupTitle: title,
			Element:    element,
		})
	})
	return records, warnings
}

// isTablePayload reports whether an embedded JSON payload is a table widget
// rather than a chart: table widgets carry column definitions.
func isTablePayload(raw string) bool {
	return gjson.Valid(raw) && gjson.Get(raw, "x.options.columnDefs").Exists()
}

// rankingTable decodes a table-widget payload: column-major x.data, column
// names from x.options.columnDefs, with the container markup as the name
// source for older report issues that shipped a single blanket columnDef.
func rankingTable(sec document.Section, raw string) ([]model.RawRecord, *model.Warning) {
	names := rankingColumns(raw)
	if len(names) == 0 {
		return nil, payloadWarning(sec.ID, "table payload has no column names")
	}

	cols := gjson.Get(raw, "x.data").Array()
	// Widgets that display a row-index column carry one extra data column.
	if len(cols) == len(names)+1 {
		cols = cols[1:]
	}
	if len(cols) != len(names) {
		return nil, payloadWarning(sec.ID, fmt.Sprintf("table payload has %d data columns for %d names", len(cols), len(names)))
	}

	var rowCount int
	for _, c := range cols {
		if n := len(c.Array()); n > rowCount {
			rowCount = n
		}
	}

	records := make([]model.RawRecord, 0, rowCount)
	for i := 0; i < rowCount; i++ {
		fields := make(map[string]string, len(names))
		for j, name := range names {
			col := cols[j].Array()
			if i < len(col) {
				fields[name] = col[i].String()
			} else {
				fields[name] = ""
			}
		}
		records = append(records, model.RawRecord{
			Fields:     fields,
			Origin:     model.OriginTable,
			Group:      sec.GroupKey(),
			GroupTitle: sec.Name,
			Element:    sec.ID,
		})
	}
	return records, nil
}

// rankingColumns resolves the payload's column names. Current issues list
// them in columnDefs (first entry is the row-index column); older issues
// shipped one blanket columnDef and left the names in the container markup.
func rankingColumns(raw string) []string {
	defs := gjson.Get(raw, "x.options.columnDefs").Array()
	if len(defs) > 1 {
		var names []string
		for _, d := range defs[1:] {
			if name := d.Get("name").String(); name != "" {
				names = append(names, name)
			}
		}
		return names
	}

	container := gjson.Get(raw, "x.container").String()
	parts := strings.Split(container, "<th>")
	var names []string
	for _, p := range parts[1:] {
		name, _, ok := strings.Cut(p, "</th>")
		if ok {
			names = append(names, strings.TrimSpace(name))
		}
	}
	return names
}

// enclosingSection finds the nearest ancestor report section of an element.
func enclosingSection(sel *goquery.Selection) (group, title string) {
	parent := sel.ParentsFiltered("div.section").First()
	if parent.Length() == 0 {
		return "", ""
	}
	id, _ := parent.Attr("id")
	h := parent.ChildrenFiltered("h1,h2,h3,h4,h5,h6").First().Text()
	_, name := splitNum(strings.TrimSpace(h))
	return strings.ReplaceAll(id, "-", "_"), name
}

func elementID(sel *goquery.Selection, group string, i int) string {
	if id, ok := sel.Attr("id"); ok && id != "" {
		return id
	}
	return fmt.Sprintf("%s/table[%d]", group, i+1)
}

func splitNum(heading string) (num, name string) {
	first, rest, found := strings.Cut(heading, " ")
	if !found || first == "" || first[0] < '0' || first[0] > '9' {
		return "", heading
	}
	return first, strings.TrimSpace(rest)
}
