package main

import (
	"github.com/rotisserie/eris"

	"github.com/ncl-icb-analytics/cosd-extract/internal/schema"
	"github.com/ncl-icb-analytics/cosd-extract/internal/store"
)

// loadSchema returns the configured field schema, falling back to the
// built-in declaration when no file is configured.
func loadSchema() (*schema.Schema, error) {
	if cfg.Schema.Path == "" {
		return schema.Default(), nil
	}
	s, err := schema.Load(cfg.Schema.Path)
	if err != nil {
		return nil, eris.Wrap(err, "load schema")
	}
	return s, nil
}

// initJournal opens the run journal. Callers migrate before first use.
func initJournal() (store.Store, error) {
	st, err := store.NewSQLite(cfg.Journal.Path)
	if err != nil {
		return nil, eris.Wrap(err, "open journal")
	}
	return st, nil
}
