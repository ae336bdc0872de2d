// Package pipeline orchestrates per-document extraction and batch runs.
package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ncl-icb-analytics/cosd-extract/internal/document"
	"github.com/ncl-icb-analytics/cosd-extract/internal/extract"
	"github.com/ncl-icb-analytics/cosd-extract/internal/filestate"
	"github.com/ncl-icb-analytics/cosd-extract/internal/model"
	"github.com/ncl-icb-analytics/cosd-extract/internal/provenance"
	"github.com/ncl-icb-analytics/cosd-extract/internal/reconcile"
	"github.com/ncl-icb-analytics/cosd-extract/internal/schema"
	"github.com/ncl-icb-analytics/cosd-extract/internal/store"
	"github.com/ncl-icb-analytics/cosd-extract/internal/warehouse"
	"github.com/ncl-icb-analytics/cosd-extract/internal/writer"
)

// Runner processes source documents. The schema is read-only and shared;
// everything else is per-document, so documents may run concurrently.
type Runner struct {
	Schema     *schema.Schema
	ExtractDir string
	Format     writer.Format

	Archiver      *filestate.Manager // optional: move sources to processed after success
	Journal       store.Store        // optional: run journal
	Warehouse     *warehouse.Loader  // optional: bulk load after write
	UploadExclude []string           // group-key substrings written but never uploaded
}

// Document processes one source file to completion. Fatal errors are scoped
// to this document and captured in the result, never propagated.
func (r *Runner) Document(ctx context.Context, path string) model.DocumentResult {
	res := model.DocumentResult{Path: path, Status: model.DocumentOK}

	prov, err := provenance.Parse(path)
	if err != nil {
		return failed(res, err)
	}

	doc, err := document.Load(path)
	if err != nil {
		return failed(res, err)
	}

	tableRecs, tableWarns := extract.Tables(doc)
	plotRecs, plotWarns := extract.Plots(doc)
	res.Warnings = append(res.Warnings, tableWarns...)
	res.Warnings = append(res.Warnings, plotWarns...)

	rows, reconWarns, err := reconcile.Reconcile(append(tableRecs, plotRecs...), r.Schema)
	if err != nil {
		return failed(res, err)
	}
	res.Warnings = append(res.Warnings, reconWarns...)

	rows = provenance.Stamp(rows, prov)

	extracts, err := writer.Write(r.ExtractDir, docStem(path), rows, r.Schema, r.Format)
	if err != nil {
		return failed(res, err)
	}
	res.Rows = len(rows)
	res.Groups = len(extracts)
	for _, ex := range extracts {
		res.Extracts = append(res.Extracts, ex.Path)
	}

	if r.Warehouse != nil {
		if err := r.upload(ctx, rows, extracts); err != nil {
			return failed(res, err)
		}
	}

	if r.Archiver != nil {
		dest, err := r.Archiver.Archive(path, prov.SiteCode)
		if err != nil {
			return failed(res, err)
		}
		if dest == "" {
			res.Warnings = append(res.Warnings, model.Warning{
				Kind:   model.WarningArchiveClash,
				Detail: path + " already present in processed archive, source left in place",
			})
		}
	}

	zap.L().Info("document extracted",
		zap.String("path", path),
		zap.Int("groups", res.Groups),
		zap.Int("rows", res.Rows),
		zap.Int("warnings", len(res.Warnings)),
	)
	return res
}

// upload bulk-loads each written group into its warehouse staging table.
// Excluded groups keep their extract files but are skipped here.
func (r *Runner) upload(ctx context.Context, rows []model.NormalizedRow, extracts []writer.Extract) error {
	for _, ex := range extracts {
		if r.excluded(ex.Group) {
			zap.L().Debug("group excluded from upload", zap.String("group", ex.Group))
			continue
		}
		var out [][]any
		for _, row := range rows {
			if row.Group != ex.Group {
				continue
			}
			cells := writer.Cells(row, ex.Columns)
			vals := make([]any, len(cells))
			for i, c := range cells {
				vals[i] = c
			}
			out = append(out, vals)
		}
		if _, err := r.Warehouse.Load(ctx, ex.Group, ex.Columns, out); err != nil {
			return eris.Wrapf(errUpload, "%s: %v", ex.Group, err)
		}
	}
	return nil
}

func (r *Runner) excluded(group string) bool {
	for _, pat := range r.UploadExclude {
		if pat != "" && strings.Contains(group, pat) {
			return true
		}
	}
	return false
}

// errUpload scopes warehouse failures for report classification. The source
// file stays in unprocessed so the document is retried next run.
var errUpload = eris.New("pipeline: warehouse upload failed")

func failed(res model.DocumentResult, err error) model.DocumentResult {
	res.Status = model.DocumentFailed
	res.ErrorKind = classify(err)
	res.Error = err.Error()
	zap.L().Error("document failed",
		zap.String("path", res.Path),
		zap.String("kind", string(res.ErrorKind)),
		zap.Error(err),
	)
	return res
}

// classify maps a fatal per-document error onto its reporting kind.
func classify(err error) model.ErrorKind {
	switch {
	case errors.Is(err, provenance.ErrProvenance):
		return model.ErrorKindProvenance
	case errors.Is(err, document.ErrLoad):
		return model.ErrorKindLoad
	case errors.Is(err, reconcile.ErrSchemaMismatch):
		return model.ErrorKindSchemaMismatch
	case errors.Is(err, errUpload):
		return model.ErrorKindUpload
	default:
		return model.ErrorKindWrite
	}
}

func docStem(path string) string {
	base := filepath.Base(path)
	stem, _, _ := strings.Cut(base, ".")
	return stem
}
