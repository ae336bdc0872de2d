package provenance

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncl-icb-analytics/cosd-extract/internal/model"
)

func TestParse_Convention(t *testing.T) {
	prov, err := Parse("data/unprocessed/2026_1_XXX_My_Hospital.html")
	require.NoError(t, err)

	assert.Equal(t, 2026, prov.PeriodYear)
	assert.Equal(t, 1, prov.PeriodCycle)
	assert.Equal(t, "XXX", prov.SiteCode)
	assert.Equal(t, "My Hospital", prov.SiteName)
	assert.Equal(t, "data/unprocessed/2026_1_XXX_My_Hospital.html", prov.SourcePath)
}

func TestParse_FixMarkerIgnored(t *testing.T) {
	prov, err := Parse("2025_3_RAL_Royal_Free_FIX.html")
	require.NoError(t, err)
	assert.Equal(t, 2025, prov.PeriodYear)
	assert.Equal(t, 3, prov.PeriodCycle)
	assert.Equal(t, "RAL", prov.SiteCode)
	assert.Equal(t, "Royal Free", prov.SiteName)
}

func TestParse_TooFewSegments(t *testing.T) {
	_, err := Parse("2026_1_XXX.html")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrProvenance))
}

func TestParse_BadYear(t *testing.T) {
	_, err := Parse("latest_1_XXX_My_Hospital.html")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrProvenance))
}

func TestParse_BadCycle(t *testing.T) {
	_, err := Parse("2026_0_XXX_My_Hospital.html")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrProvenance))
}

func TestParse_MissingCycle(t *testing.T) {
	// Enough segments to split, but the cycle position holds the site code.
	_, err := Parse("2026_XXX_My_Hospital.html")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrProvenance))
}

func TestStamp_CopiesRows(t *testing.T) {
	prov := model.Provenance{PeriodYear: 2026, PeriodCycle: 1, SiteCode: "XXX", SiteName: "My Hospital"}
	in := []model.NormalizedRow{
		{Group: "dq", Values: map[string]any{"category": "Lung"}},
	}

	out := Stamp(in, prov)
	require.Len(t, out, 1)
	assert.Equal(t, prov, out[0].Provenance)
	assert.Equal(t, model.Provenance{}, in[0].Provenance)
}
