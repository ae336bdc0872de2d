// Package model defines the data types shared across the extraction pipeline.
package model

// Origin identifies which rendering of the underlying data a record came from.
type Origin string

const (
	// OriginTable marks records extracted from a table rendering.
	OriginTable Origin = "table"
	// OriginPlot marks records extracted from an embedded chart payload.
	OriginPlot Origin = "plot"
)

// RawRecord is one logical data row as found in either a table or a plot
// payload, before reconciliation. Field names are as seen in the source.
type RawRecord struct {
	Fields     map[string]string
	Origin     Origin
	Group      string // logical table/metric key, derived from the enclosing section id
	GroupTitle string
	Element    string // originating element id, kept for traceability
}
