package reconcile

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncl-icb-analytics/cosd-extract/internal/model"
	"github.com/ncl-icb-analytics/cosd-extract/internal/schema"
)

func tableRec(group string, fields map[string]string) model.RawRecord {
	return model.RawRecord{Fields: fields, Origin: model.OriginTable, Group: group, Element: group}
}

func plotRec(group string, fields map[string]string) model.RawRecord {
	return model.RawRecord{Fields: fields, Origin: model.OriginPlot, Group: group, Element: group}
}

func TestReconcile_NormalizesAndCoerces(t *testing.T) {
	s := schema.Default()
	recs := []model.RawRecord{
		tableRec("dq", map[string]string{"Cancer Group": "Lung", "Numerator": "40", "Denominator": "50"}),
	}

	rows, warnings, err := Reconcile(recs, s)
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.Len(t, rows, 1)

	r := rows[0]
	assert.Equal(t, "dq", r.Group)
	assert.Equal(t, model.OriginTable, r.Origin)
	assert.Equal(t, "Lung", r.Values["category"])
	assert.Equal(t, int64(40), r.Values["numerator"])
	assert.Equal(t, int64(50), r.Values["denominator"])
}

func TestReconcile_UnknownFieldIsFatal(t *testing.T) {
	s := schema.Default()
	recs := []model.RawRecord{
		tableRec("dq", map[string]string{"Mystery Column": "1"}),
	}

	_, _, err := Reconcile(recs, s)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSchemaMismatch))
	assert.Contains(t, err.Error(), "Mystery Column")
}

func TestReconcile_TableWinsOverPlot(t *testing.T) {
	s := schema.Default()
	recs := []model.RawRecord{
		// Plot arrives first in document order; table still wins.
		plotRec("dq", map[string]string{"CATEGORY": "Lung", "X": "Q1", "Y": "79.9"}),
		tableRec("dq", map[string]string{"Cancer Group": "Lung", "month": "Q1", "value": "80.0"}),
	}

	rows, warnings, err := Reconcile(recs, s)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, model.OriginTable, rows[0].Origin)
	assert.Equal(t, 80.0, rows[0].Values["y"])

	require.Len(t, warnings, 1)
	assert.Equal(t, model.WarningValueConflict, warnings[0].Kind)
	assert.Contains(t, warnings[0].Detail, "table value")
}

func TestReconcile_PlotFillsTableGaps(t *testing.T) {
	s := schema.Default()
	recs := []model.RawRecord{
		tableRec("dq", map[string]string{"Cancer Group": "Lung", "month": "Q1", "value": "80.0"}),
		plotRec("dq", map[string]string{"CATEGORY": "Lung", "X": "Q1", "Y": "80", "NUMERATOR": "40", "DENOMINATOR": "50"}),
	}

	rows, warnings, err := Reconcile(recs, s)
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(40), rows[0].Values["numerator"])
	assert.Equal(t, int64(50), rows[0].Values["denominator"])
	assert.Equal(t, 80.0, rows[0].Values["y"])
}

func TestReconcile_PlotOnlyRowSurvives(t *testing.T) {
	s := schema.Default()
	recs := []model.RawRecord{
		tableRec("dq", map[string]string{"Cancer Group": "Lung", "month": "Q1", "value": "80"}),
		plotRec("dq", map[string]string{"CATEGORY": "Breast", "X": "Q1", "Y": "62"}),
	}

	rows, _, err := Reconcile(recs, s)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, model.OriginPlot, rows[1].Origin)
	assert.Equal(t, "Breast", rows[1].Values["category"])
}

func TestReconcile_GroupsDoNotMerge(t *testing.T) {
	s := schema.Default()
	recs := []model.RawRecord{
		tableRec("dq", map[string]string{"Cancer Group": "Lung", "month": "Q1", "value": "80"}),
		plotRec("treatment", map[string]string{"CATEGORY": "Lung", "X": "Q1", "Y": "80"}),
	}

	rows, _, err := Reconcile(recs, s)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "dq", rows[0].Group)
	assert.Equal(t, "treatment", rows[1].Group)
}

func TestReconcile_CoerceFailureWarnsAndNils(t *testing.T) {
	s := schema.Default()
	recs := []model.RawRecord{
		tableRec("dq", map[string]string{"Cancer Group": "Lung", "Numerator": "lots"}),
	}

	rows, warnings, err := Reconcile(recs, s)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].Values["numerator"])

	require.Len(t, warnings, 1)
	assert.Equal(t, model.WarningCoerceFailed, warnings[0].Kind)
}

func TestReconcile_PadsGroupToFieldUnion(t *testing.T) {
	s := schema.Default()
	recs := []model.RawRecord{
		tableRec("dq", map[string]string{"Cancer Group": "Lung", "Numerator": "40"}),
		tableRec("dq", map[string]string{"Cancer Group": "Breast", "Denominator": "30"}),
	}

	rows, _, err := Reconcile(recs, s)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	v, ok := rows[0].Values["denominator"]
	assert.True(t, ok)
	assert.Nil(t, v)
	v, ok = rows[1].Values["numerator"]
	assert.True(t, ok)
	assert.Nil(t, v)
}

func TestReconcile_KeylessRecordsNeverMerge(t *testing.T) {
	s := schema.Default()
	recs := []model.RawRecord{
		tableRec("dq", map[string]string{"Numerator": "1"}),
		plotRec("dq", map[string]string{"NUMERATOR": "1"}),
	}

	rows, _, err := Reconcile(recs, s)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestColumns_SchemaOrder(t *testing.T) {
	s := schema.Default()
	recs := []model.RawRecord{
		tableRec("dq", map[string]string{"Denominator": "50", "Cancer Group": "Lung", "Numerator": "40"}),
	}

	rows, _, err := Reconcile(recs, s)
	require.NoError(t, err)
	assert.Equal(t, []string{"category", "numerator", "denominator"}, Columns(rows, s))
}
