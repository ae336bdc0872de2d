package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "", FormatValue(nil))
	assert.Equal(t, "Lung", FormatValue("Lung"))
	assert.Equal(t, "42", FormatValue(int64(42)))
	assert.Equal(t, "87.5", FormatValue(87.5))
	assert.Equal(t, "80", FormatValue(80.0))
}

func TestProvenanceCells_Order(t *testing.T) {
	r := NormalizedRow{
		Origin: OriginPlot,
		Provenance: Provenance{
			PeriodYear:  2026,
			PeriodCycle: 1,
			SiteCode:    "XXX",
			SiteName:    "My Hospital",
		},
	}

	cells := r.ProvenanceCells()
	assert.Equal(t, []string{"2026", "1", "XXX", "My Hospital", "plot"}, cells)
	assert.Len(t, cells, len(ProvenanceColumns))
}
