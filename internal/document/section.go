package document

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Section is one structural report section: a `div.section.levelN` with an
// id, as produced by the national report generator. Modelling the tree as an
// explicit tagged structure lets the extractors pattern-match on shape
// instead of duck-typing their way through the DOM.
type Section struct {
	ID       string
	Level    int
	Num      string // leading "N.N" token of the heading, if present
	Name     string // heading with the leading number removed
	InTabset bool   // section sits inside a tabbed panel
	sel      *goquery.Selection
}

// Sections returns every identified section in document order.
func (d *Document) Sections() []Section {
	var out []Section
	d.doc.Find("div.section").Each(func(_ int, sel *goquery.Selection) {
		id, ok := sel.Attr("id")
		if !ok || id == "" {
			return
		}
		s := Section{
			ID:       id,
			Level:    sectionLevel(sel),
			InTabset: sel.ParentsFiltered("div.tabset").Length() > 0,
			sel:      sel,
		}
		s.Num, s.Name = splitHeading(headingText(sel))
		out = append(out, s)
	})
	return out
}

// Tabs returns the leaf sections that render tabbed chart panels.
func (d *Document) Tabs() []Section {
	var out []Section
	for _, s := range d.Sections() {
		if s.InTabset {
			out = append(out, s)
		}
	}
	return out
}

// GroupKey is the section id in identifier form, used as the logical
// table/metric key for grouping records.
func (s Section) GroupKey() string {
	return strings.ReplaceAll(s.ID, "-", "_")
}

// PayloadJSON returns the section's own embedded JSON payload, if any.
// Sections nest, so a payload counts as this section's only when this
// section is its nearest enclosing section; otherwise every ancestor would
// claim the same payload and it would be extracted once per level.
func (s Section) PayloadJSON() (string, bool) {
	var payload string
	found := false
	s.sel.Find(`script[type="application/json"]`).EachWithBreak(func(_ int, script *goquery.Selection) bool {
		owner, _ := script.ParentsFiltered("div.section").First().Attr("id")
		if owner != s.ID {
			return true
		}
		payload = script.Text()
		found = true
		return false
	})
	return payload, found
}

// Selection exposes the section's subtree for structural queries.
func (s Section) Selection() *goquery.Selection {
	return s.sel
}

func sectionLevel(sel *goquery.Selection) int {
	class, _ := sel.Attr("class")
	for _, c := range strings.Fields(class) {
		if rest, ok := strings.CutPrefix(c, "level"); ok {
			if n, err := strconv.Atoi(rest); err == nil {
				return n
			}
		}
	}
	return 0
}

// headingText returns the text of the section's own heading element,
// skipping headings that belong to nested sections.
func headingText(sel *goquery.Selection) string {
	h := sel.ChildrenFiltered("h1,h2,h3,h4,h5,h6").First()
	return strings.TrimSpace(h.Text())
}

// splitHeading separates a "3.2 Treatment by stage" heading into its number
// and name. Headings without a numeric prefix keep the full text as the name.
func splitHeading(heading string) (num, name string) {
	if heading == "" {
		return "", ""
	}
	first, rest, found := strings.Cut(heading, " ")
	if !found || !startsNumeric(first) {
		return "", heading
	}
	return first, strings.TrimSpace(rest)
}

func startsNumeric(s string) bool {
	return s != "" && s[0] >= '0' && s[0] <= '9'
}
