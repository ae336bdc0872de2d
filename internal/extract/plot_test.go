package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncl-icb-analytics/cosd-extract/internal/model"
)

func tabsetSection(payload string) string {
	return `<html><body>
<div class="tabset">
  <div class="section level3" id="treatment-by-stage">
    <h3>Treatment by stage</h3>
    <script type="application/json">` + payload + `</script>
  </div>
</div>
</body></html>`
}

func TestPlots_ScatterDropsAxisTrace(t *testing.T) {
	d := mustParse(t, tabsetSection(`{
	  "x": {
	    "data": [
	      {"type":"scatter","x":["Apr","May"],"y":[0,0]},
	      {"type":"scatter","name":"Lung","x":["Apr","May"],"y":[40.5,42.1]}
	    ],
	    "layout": {"xaxis":{"title":{"text":"Month"}},"yaxis":{"title":{"text":"Rate"}},"title":{"text":"(2.1) Treatment by stage"}}
	  }
	}`))

	records, warnings := Plots(d)
	require.Empty(t, warnings)
	require.Len(t, records, 2)

	r := records[0]
	assert.Equal(t, model.OriginPlot, r.Origin)
	assert.Equal(t, "treatment_by_stage", r.Group)
	assert.Equal(t, "Treatment by stage", r.GroupTitle)
	assert.Equal(t, "Lung", r.Fields["CATEGORY"])
	assert.Equal(t, "Apr", r.Fields["Month"])
	assert.Equal(t, "40.5", r.Fields["Rate"])
	assert.Equal(t, "May", records[1].Fields["Month"])
}

func TestPlots_BarKeepsAllTracesAndHoverFields(t *testing.T) {
	d := mustParse(t, tabsetSection(`{
	  "x": {
	    "data": [
	      {"type":"bar","name":"Lung","x":["Q1"],"y":[80],
	       "hovertemplate":"Numerator: 40<br>Denominator: 50<extra></extra>"}
	    ],
	    "layout": {}
	  }
	}`))

	records, warnings := Plots(d)
	require.Empty(t, warnings)
	require.Len(t, records, 1)

	r := records[0]
	assert.Equal(t, "Lung", r.Fields["CATEGORY"])
	assert.Equal(t, "Q1", r.Fields["X"])
	assert.Equal(t, "80", r.Fields["Y"])
	assert.Equal(t, "40", r.Fields["NUMERATOR"])
	assert.Equal(t, "50", r.Fields["DENOMINATOR"])
}

func TestPlots_BarPerPointHoverTemplates(t *testing.T) {
	d := mustParse(t, tabsetSection(`{
	  "x": {
	    "data": [
	      {"type":"bar","name":"Breast","x":["Q1","Q2"],"y":[50,60],
	       "hovertemplate":["Numerator: 5<br>Denominator: 10","Numerator: 6<br>Denominator: 10"]}
	    ]
	  }
	}`))

	records, warnings := Plots(d)
	require.Empty(t, warnings)
	require.Len(t, records, 2)
	assert.Equal(t, "5", records[0].Fields["NUMERATOR"])
	assert.Equal(t, "6", records[1].Fields["NUMERATOR"])
	assert.Equal(t, "10", records[1].Fields["DENOMINATOR"])
}

func TestPlots_UnnamedTraceGetsSyntheticCategory(t *testing.T) {
	d := mustParse(t, tabsetSection(`{
	  "x": {"data": [{"type":"bar","x":["a"],"y":[1]}]}
	}`))

	records, warnings := Plots(d)
	require.Empty(t, warnings)
	require.Len(t, records, 1)
	assert.Equal(t, "series_1", records[0].Fields["CATEGORY"])
}

func TestPlots_DatasetPoints(t *testing.T) {
	d := mustParse(t, tabsetSection(`{
	  "data": {"datasets": [
	    {"label":"Lung","data":[{"month":"Apr","value":40.5},{"month":"May","value":42.1}]}
	  ]}
	}`))

	records, warnings := Plots(d)
	require.Empty(t, warnings)
	require.Len(t, records, 2)
	assert.Equal(t, "Lung", records[0].Fields["CATEGORY"])
	assert.Equal(t, "Apr", records[0].Fields["month"])
	assert.Equal(t, "42.1", records[1].Fields["value"])
}

func TestPlots_BarePoints(t *testing.T) {
	d := mustParse(t, tabsetSection(`[
	  {"name":"Lung","x":"Apr","y":40.5},
	  {"name":"Breast","x":"Apr","y":38.0}
	]`))

	records, warnings := Plots(d)
	require.Empty(t, warnings)
	require.Len(t, records, 2)
	assert.Equal(t, "Breast", records[1].Fields["name"])
	assert.Equal(t, "38", records[1].Fields["y"])
}

func TestPlots_UndecodablePayloadWarns(t *testing.T) {
	d := mustParse(t, tabsetSection(`{"unrelated":true}`))

	records, warnings := Plots(d)
	assert.Empty(t, records)
	require.Len(t, warnings, 1)
	assert.Equal(t, model.WarningPayloadParse, warnings[0].Kind)
	assert.Equal(t, "treatment-by-stage", warnings[0].Element)
}

func TestPlots_InvalidJSONWarns(t *testing.T) {
	d := mustParse(t, tabsetSection(`{"x": [broken`))

	records, warnings := Plots(d)
	assert.Empty(t, records)
	require.Len(t, warnings, 1)
	assert.Equal(t, model.WarningPayloadParse, warnings[0].Kind)
	assert.Contains(t, warnings[0].Detail, "valid JSON")
}

func TestPlots_MismatchedAxesDeclineWholePayload(t *testing.T) {
	d := mustParse(t, tabsetSection(`{
	  "x": {"data": [{"type":"bar","name":"Lung","x":["a","b"],"y":[1]}]}
	}`))

	records, warnings := Plots(d)
	assert.Empty(t, records)
	require.Len(t, warnings, 1)
	assert.Equal(t, model.WarningPayloadParse, warnings[0].Kind)
}

func TestPlots_Restartable(t *testing.T) {
	d := mustParse(t, tabsetSection(`{
	  "x": {"data": [{"type":"bar","name":"Lung","x":["Q1"],"y":[80]}]}
	}`))

	first, _ := Plots(d)
	second, _ := Plots(d)
	require.NotEmpty(t, first)
	assert.Equal(t, first, second)
}
