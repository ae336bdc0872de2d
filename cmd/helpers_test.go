package main

import (
	"testing"

	"github.com/ncl-icb-analytics/cosd-extract/internal/config"
)

// testConfig returns a config with paths scoped to the test's temp space.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Dirs: config.DirsConfig{
			Unprocessed: dir + "/unprocessed",
			Processed:   dir + "/processed",
			Extracts:    dir + "/extracts",
		},
		Extract: config.ExtractConfig{Format: "csv", Concurrency: 1, SourceExt: ".html"},
		Journal: config.JournalConfig{Path: dir + "/journal.db"},
	}
}
