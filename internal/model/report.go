package model

import (
	"fmt"
	"strings"
	"time"
)

// DocumentStatus is the terminal state of one document in a batch.
type DocumentStatus string

const (
	DocumentOK     DocumentStatus = "ok"
	DocumentFailed DocumentStatus = "failed"
)

// ErrorKind classifies a fatal per-document failure for reporting.
type ErrorKind string

const (
	ErrorKindNone           ErrorKind = ""
	ErrorKindLoad           ErrorKind = "load"
	ErrorKindSchemaMismatch ErrorKind = "schema_mismatch"
	ErrorKindProvenance     ErrorKind = "provenance"
	ErrorKindWrite          ErrorKind = "write"
	ErrorKindUpload         ErrorKind = "upload"
)

// WarningKind classifies a recoverable, per-document extraction warning.
type WarningKind string

const (
	WarningRowSkipped    WarningKind = "row_skipped"
	WarningPayloadParse  WarningKind = "payload_undecodable"
	WarningCoerceFailed  WarningKind = "coerce_failed"
	WarningValueConflict WarningKind = "value_conflict"
	WarningArchiveClash  WarningKind = "archive_clash"
)

// Warning records a recoverable problem that did not stop extraction.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Element string      `json:"element,omitempty"`
	Detail  string      `json:"detail"`
}

// DocumentResult is the outcome of processing a single source document.
type DocumentResult struct {
	Path      string         `json:"path"`
	Status    DocumentStatus `json:"status"`
	ErrorKind ErrorKind      `json:"error_kind,omitempty"`
	Error     string         `json:"error,omitempty"`
	Groups    int            `json:"groups"`
	Rows      int            `json:"rows"`
	Extracts  []string       `json:"extracts,omitempty"`
	Warnings  []Warning      `json:"warnings,omitempty"`
}

// BatchReport aggregates the outcomes of one batch run. Every document that
// entered the batch appears exactly once; no failure is absorbed silently.
type BatchReport struct {
	RunID      string           `json:"run_id"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Documents  []DocumentResult `json:"documents"`
}

// Succeeded returns the count of documents that completed extraction.
func (r *BatchReport) Succeeded() int {
	n := 0
	for _, d := range r.Documents {
		if d.Status == DocumentOK {
			n++
		}
	}
	return n
}

// Failed returns the count of documents skipped with a fatal error.
func (r *BatchReport) Failed() int {
	return len(r.Documents) - r.Succeeded()
}

// Rows returns the total rows emitted across the batch.
func (r *BatchReport) Rows() int {
	n := 0
	for _, d := range r.Documents {
		n += d.Rows
	}
	return n
}

// Render formats the report for terminal output.
func (r *BatchReport) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "run %s: %d succeeded, %d failed, %d rows\n",
		r.RunID, r.Succeeded(), r.Failed(), r.Rows())
	for _, d := range r.Documents {
		if d.Status == DocumentOK {
			fmt.Fprintf(&b, "  ok     %s (%d groups, %d rows", d.Path, d.Groups, d.Rows)
			if len(d.Warnings) > 0 {
				fmt.Fprintf(&b, ", %d warnings", len(d.Warnings))
			}
			b.WriteString(")\n")
		} else {
			fmt.Fprintf(&b, "  failed %s [%s] %s\n", d.Path, d.ErrorKind, d.Error)
		}
		for _, w := range d.Warnings {
			fmt.Fprintf(&b, "         warn [%s] %s\n", w.Kind, w.Detail)
		}
	}
	return b.String()
}
