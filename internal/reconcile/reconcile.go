// Package reconcile folds table-derived and plot-derived raw records into
// one normalized row set per document.
package reconcile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/ncl-icb-analytics/cosd-extract/internal/model"
	"github.com/ncl-icb-analytics/cosd-extract/internal/schema"
)

// ErrSchemaMismatch marks an observed field that matches no known alias.
// Fatal for the document: silently mis-mapping clinical data is worse than
// dropping the file.
var ErrSchemaMismatch = eris.New("reconcile: observed field matches no known alias")

// Reconcile maps every observed field name through the schema to its
// canonical name, coerces values to the declared types, and merges records
// that describe the same logical row. When a table and a plot both yield a
// record with the same key in the same group, the table value wins; the
// plot-derived row survives only where no table counterpart exists, and
// plot-only fields are merged into the winning table row.
func Reconcile(records []model.RawRecord, s *schema.Schema) ([]model.NormalizedRow, []model.Warning, error) {
	groups, order := groupRecords(records)

	var rows []model.NormalizedRow
	var warnings []model.Warning

	for _, g := range order {
		groupRows, warns, err := reconcileGroup(g, groups[g], s)
		if err != nil {
			return nil, nil, err
		}
		rows = append(rows, groupRows...)
		warnings = append(warnings, warns...)
	}

	return rows, warnings, nil
}

func groupRecords(records []model.RawRecord) (map[string][]model.RawRecord, []string) {
	groups := make(map[string][]model.RawRecord)
	var order []string
	for _, r := range records {
		if _, ok := groups[r.Group]; !ok {
			order = append(order, r.Group)
		}
		groups[r.Group] = append(groups[r.Group], r)
	}
	return groups, order
}

func reconcileGroup(group string, records []model.RawRecord, s *schema.Schema) ([]model.NormalizedRow, []model.Warning, error) {
	var rows []model.NormalizedRow
	var warnings []model.Warning
	byKey := make(map[string]int)

	// Table records first: tables are the authoritative rendering.
	for _, origin := range []model.Origin{model.OriginTable, model.OriginPlot} {
		for _, rec := range records {
			if rec.Origin != origin {
				continue
			}
			values, warns, err := normalizeRecord(rec, s)
			if err != nil {
				return nil, nil, err
			}
			warnings = append(warnings, warns...)

			key := rowKey(values, s)
			if origin == model.OriginPlot && key != "" {
				if idx, ok := byKey[key]; ok {
					warnings = append(warnings, mergeInto(&rows[idx], values, rec.Element)...)
					continue
				}
			}

			rows = append(rows, model.NormalizedRow{
				Group:  group,
				Origin: origin,
				Values: values,
			})
			if key != "" {
				if _, ok := byKey[key]; !ok {
					byKey[key] = len(rows) - 1
				}
			}
		}
	}

	padGroup(rows, s)
	return rows, warnings, nil
}

// normalizeRecord maps one raw record's fields to canonical typed values.
func normalizeRecord(rec model.RawRecord, s *schema.Schema) (map[string]any, []model.Warning, error) {
	names := make([]string, 0, len(rec.Fields))
	for name := range rec.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	values := make(map[string]any, len(names))
	var warnings []model.Warning
	for _, name := range names {
		f, ok := s.Resolve(name)
		if !ok {
			return nil, nil, eris.Wrapf(ErrSchemaMismatch, "field %q in group %q (element %s)", name, rec.Group, rec.Element)
		}
		v, err := s.Coerce(f, rec.Fields[name])
		if err != nil {
			warnings = append(warnings, model.Warning{
				Kind:    model.WarningCoerceFailed,
				Element: rec.Element,
				Detail:  err.Error(),
			})
			v = nil
		}
		values[f.Name] = v
	}
	return values, warnings, nil
}

// rowKey builds the logical-row identity from the schema's key fields.
// Records carrying none of the key fields never merge.
func rowKey(values map[string]any, s *schema.Schema) string {
	var parts []string
	present := false
	for _, k := range s.Keys() {
		v, ok := values[k]
		if ok && v != nil {
			present = true
		}
		parts = append(parts, model.FormatValue(v))
	}
	if !present {
		return ""
	}
	return strings.Join(parts, "\x1f")
}

// mergeInto fills plot-only fields into an existing table row and reports
// disagreements on shared fields. The table value always wins.
func mergeInto(row *model.NormalizedRow, plot map[string]any, element string) []model.Warning {
	var warnings []model.Warning
	for name, pv := range plot {
		tv, ok := row.Values[name]
		if !ok || tv == nil {
			row.Values[name] = pv
			continue
		}
		if pv != nil && model.FormatValue(tv) != model.FormatValue(pv) {
			warnings = append(warnings, model.Warning{
				Kind:    model.WarningValueConflict,
				Element: element,
				Detail:  fmt.Sprintf("field %q: table value %q kept over plot value %q", name, model.FormatValue(tv), model.FormatValue(pv)),
			})
		}
	}
	return warnings
}

// padGroup makes the field set consistent across all rows of a group: every
// row carries the union of the group's canonical fields, absent cells nil.
func padGroup(rows []model.NormalizedRow, s *schema.Schema) {
	observed := make(map[string]bool)
	for _, r := range rows {
		for name := range r.Values {
			observed[name] = true
		}
	}
	for _, f := range s.Fields() {
		if !observed[f.Name] {
			continue
		}
		for i := range rows {
			if _, ok := rows[i].Values[f.Name]; !ok {
				rows[i].Values[f.Name] = nil
			}
		}
	}
}

// Columns returns the canonical columns observed in a row set, in schema
// declaration order. This is the extract's column order for the group.
func Columns(rows []model.NormalizedRow, s *schema.Schema) []string {
	observed := make(map[string]bool)
	for _, r := range rows {
		for name := range r.Values {
			observed[name] = true
		}
	}
	var cols []string
	for _, f := range s.Fields() {
		if observed[f.Name] {
			cols = append(cols, f.Name)
		}
	}
	return cols
}
