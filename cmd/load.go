package main

import (
	"context"
	"encoding/csv"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ncl-icb-analytics/cosd-extract/internal/warehouse"
)

var loadDir string

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Bulk load written extracts into the warehouse",
	Long:  "Walks the extracts area (or --dir) and appends every CSV extract to its per-group staging table. Used to replay extracts without re-running extraction.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if cfg.Warehouse.DatabaseURL == "" {
			return eris.New("warehouse database URL is required (COSD_WAREHOUSE_DATABASE_URL)")
		}
		wh, err := warehouse.New(ctx, cfg.Warehouse.DatabaseURL, cfg.Warehouse.SchemaName)
		if err != nil {
			return err
		}
		defer wh.Close()

		dir := loadDir
		if dir == "" {
			dir = cfg.Dirs.Extracts
		}

		var files, rows int64
		err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !strings.HasSuffix(d.Name(), ".csv") {
				return nil
			}
			n, err := loadExtractCSV(ctx, wh, path)
			if err != nil {
				return err
			}
			files++
			rows += n
			return nil
		})
		if err != nil {
			return eris.Wrapf(err, "load %s", dir)
		}

		zap.L().Info("load complete", zap.Int64("files", files), zap.Int64("rows", rows))
		return nil
	},
}

// loadExtractCSV appends one extract file to its staging table. The group
// name is the file stem; the header row is the authoritative column order.
func loadExtractCSV(ctx context.Context, wh *warehouse.Loader, path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, eris.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return 0, eris.Wrapf(err, "read %s", path)
	}
	if len(records) < 2 {
		return 0, nil // header only, nothing to load
	}

	cols := records[0]
	out := make([][]any, 0, len(records)-1)
	for _, rec := range records[1:] {
		vals := make([]any, len(rec))
		for i, c := range rec {
			vals[i] = c
		}
		out = append(out, vals)
	}

	group := strings.TrimSuffix(filepath.Base(path), ".csv")
	return wh.Load(ctx, group, cols, out)
}

func init() {
	loadCmd.Flags().StringVar(&loadDir, "dir", "", "directory of extracts to load (defaults to the extracts area)")
	rootCmd.AddCommand(loadCmd)
}
