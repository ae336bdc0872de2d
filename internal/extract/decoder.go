package extract

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/ncl-icb-analytics/cosd-extract/internal/document"
	"github.com/ncl-icb-analytics/cosd-extract/internal/model"
)

// A payloadDecoder either fully decodes one chart payload or declines it.
type payloadDecoder struct {
	name string
	fn   func(sec document.Section, root gjson.Result) ([]model.RawRecord, bool)
}

// payloadDecoders is the closed set of payload shapes, tried in fixed
// priority order. The first decoder to accept a payload owns it.
var payloadDecoders = []payloadDecoder{
	{name: "plotly-series", fn: decodePlotlySeries},
	{name: "dataset-points", fn: decodeDatasetPoints},
	{name: "bare-points", fn: decodeBarePoints},
}

// decodePlotlySeries handles htmlwidget chart payloads: one trace per
// series, categories and values as parallel x/y arrays. Scatter payloads
// carry a leading axis trace that holds no data; bar payloads do not.
// Bar traces with a literal hover template also carry numerator and
// denominator values for each point.
func decodePlotlySeries(sec document.Section, root gjson.Result) ([]model.RawRecord, bool) {
	traces := firstResult(root, "x.data", "data").Array()
	if len(traces) == 0 {
		return nil, false
	}

	plotType := traces[0].Get("type").String()
	if plotType == "scatter" && len(traces) > 1 {
		traces = traces[1:]
	}

	layout := firstResult(root, "x.layout", "layout")
	xName := fieldName(layout.Get("xaxis.title.text").String(), "X")
	yName := fieldName(layout.Get("yaxis.title.text").String(), "Y")
	title := plotName(layout.Get("title.text").String())
	if title == "" {
		title = sec.Name
	}

	var records []model.RawRecord
	for ti, trace := range traces {
		xs := trace.Get("x").Array()
		ys := trace.Get("y").Array()
		if len(xs) == 0 || len(xs) != len(ys) {
			return nil, false // not parallel arrays, whole payload declined
		}

		category := trace.Get("name").String()
		if category == "" {
			category = fmt.Sprintf("series_%d", ti+1)
		}

		var nums, dens []string
		if plotType == "bar" {
			nums, dens = hoverFields(trace.Get("hovertemplate"), len(xs))
		}

		for i := range xs {
			fields := map[string]string{
				"CATEGORY": category,
				xName:      xs[i].String(),
				yName:      ys[i].String(),
			}
			if nums != nil {
				fields["NUMERATOR"] = nums[i]
				fields["DENOMINATOR"] = dens[i]
			}
			records = append(records, model.RawRecord{
				Fields:     fields,
				Origin:     model.OriginPlot,
				Group:      sec.GroupKey(),
				GroupTitle: title,
				Element:    sec.ID,
			})
		}
	}
	return records, len(records) > 0
}

// decodeDatasetPoints handles payloads whose series hold arrays of point
// objects, with the series label alongside the points.
func decodeDatasetPoints(sec document.Section, root gjson.Result) ([]model.RawRecord, bool) {
	datasets := firstResult(root, "data.datasets", "datasets").Array()
	if len(datasets) == 0 {
		return nil, false
	}

	var records []model.RawRecord
	for di, ds := range datasets {
		points := ds.Get("data").Array()
		if len(points) == 0 {
			return nil, false
		}
		category := ds.Get("label").String()
		if category == "" {
			category = fmt.Sprintf("series_%d", di+1)
		}
		for _, p := range points {
			if !p.IsObject() {
				return nil, false
			}
			fields := objectFields(p)
			if _, ok := fields["CATEGORY"]; !ok {
				fields["CATEGORY"] = category
			}
			records = append(records, model.RawRecord{
				Fields:     fields,
				Origin:     model.OriginPlot,
				Group:      sec.GroupKey(),
				GroupTitle: sec.Name,
				Element:    sec.ID,
			})
		}
	}
	return records, len(records) > 0
}

// decodeBarePoints handles payloads that are a bare array of flat point
// objects, one record per object with field names from the object keys.
func decodeBarePoints(sec document.Section, root gjson.Result) ([]model.RawRecord, bool) {
	if !root.IsArray() {
		return nil, false
	}
	points := root.Array()
	if len(points) == 0 {
		return nil, false
	}

	records := make([]model.RawRecord, 0, len(points))
	for _, p := range points {
		if !p.IsObject() {
			return nil, false
		}
		records = append(records, model.RawRecord{
			Fields:     objectFields(p),
			Origin:     model.OriginPlot,
			Group:      sec.GroupKey(),
			GroupTitle: sec.Name,
			Element:    sec.ID,
		})
	}
	return records, true
}

// hoverFields parses numerator/denominator pairs out of a literal hover
// template. A single template string applies to every point in the trace.
func hoverFields(hover gjson.Result, n int) (nums, dens []string) {
	var raw []string
	if hover.IsArray() {
		for _, h := range hover.Array() {
			raw = append(raw, h.String())
		}
	} else if hover.Exists() {
		raw = []string{hover.String()}
	}
	if len(raw) == 0 || !strings.Contains(raw[0], "Numerator:") {
		return nil, nil
	}

	nums = make([]string, n)
	dens = make([]string, n)
	for i := 0; i < n; i++ {
		h := raw[0]
		if i < len(raw) {
			h = raw[i]
		}
		nums[i] = hoverValue(h, "Numerator:")
		dens[i] = hoverValue(h, "Denominator:")
	}
	return nums, dens
}

// hoverValue pulls the value following a label out of hover markup, e.g.
// "Numerator: 42<br>" yields "42".
func hoverValue(hover, label string) string {
	_, after, ok := strings.Cut(hover, label)
	if !ok {
		return ""
	}
	value, _, _ := strings.Cut(after, "<")
	return strings.TrimSpace(value)
}

// objectFields flattens a JSON object's scalar members into raw fields.
func objectFields(obj gjson.Result) map[string]string {
	fields := make(map[string]string)
	obj.ForEach(func(key, value gjson.Result) bool {
		if !value.IsObject() && !value.IsArray() {
			fields[key.String()] = value.String()
		}
		return true
	})
	return fields
}

// firstResult returns the first existing result among the given paths.
func firstResult(root gjson.Result, paths ...string) gjson.Result {
	for _, p := range paths {
		if r := root.Get(p); r.Exists() {
			return r
		}
	}
	return gjson.Result{}
}

// fieldName prefers an axis title over a generic payload key.
func fieldName(axisTitle, generic string) string {
	if t := strings.TrimSpace(axisTitle); t != "" {
		return t
	}
	return generic
}

// plotName strips the leading parenthetical qualifier some chart titles
// carry, e.g. "(1.2) Referral route" yields "Referral route".
func plotName(title string) string {
	if _, after, ok := strings.Cut(title, "("); ok {
		if _, name, ok2 := strings.Cut(after, ")"); ok2 && strings.TrimSpace(name) != "" {
			return strings.TrimSpace(name)
		}
	}
	return strings.TrimSpace(title)
}
