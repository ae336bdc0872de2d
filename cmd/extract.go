package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/ncl-icb-analytics/cosd-extract/internal/filestate"
	"github.com/ncl-icb-analytics/cosd-extract/internal/pipeline"
	"github.com/ncl-icb-analytics/cosd-extract/internal/warehouse"
	"github.com/ncl-icb-analytics/cosd-extract/internal/writer"
)

var (
	extractFile   string
	extractKeep   bool
	extractUpload bool
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract all unprocessed COSD reports",
	Long:  "Processes every source file in the unprocessed area (or a single file via --file), writes one tabular extract per logical table, and moves successful sources to the processed archive.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		s, err := loadSchema()
		if err != nil {
			return err
		}

		journal, err := initJournal()
		if err != nil {
			return err
		}
		defer journal.Close()
		if err := journal.Migrate(ctx); err != nil {
			return err
		}

		runner := &pipeline.Runner{
			Schema:     s,
			ExtractDir: cfg.Dirs.Extracts,
			Format:     writer.Format(cfg.Extract.Format),
			Journal:    journal,
		}
		if !extractKeep {
			runner.Archiver = &filestate.Manager{ProcessedDir: cfg.Dirs.Processed}
		}
		if extractUpload {
			if cfg.Warehouse.DatabaseURL == "" {
				return eris.New("warehouse database URL is required for --upload (COSD_WAREHOUSE_DATABASE_URL)")
			}
			wh, err := warehouse.New(ctx, cfg.Warehouse.DatabaseURL, cfg.Warehouse.SchemaName)
			if err != nil {
				return err
			}
			defer wh.Close()
			runner.Warehouse = wh
			runner.UploadExclude = cfg.Warehouse.ExcludeGroups
		}

		paths := []string{extractFile}
		if extractFile == "" {
			paths, err = filestate.ListUnprocessed(cfg.Dirs.Unprocessed, cfg.Extract.SourceExt)
			if err != nil {
				return err
			}
			if len(paths) == 0 {
				return eris.Errorf("no %s files found in %s", cfg.Extract.SourceExt, cfg.Dirs.Unprocessed)
			}
		}

		report := runner.Batch(ctx, paths, cfg.Extract.Concurrency)
		fmt.Print(report.Render())
		return nil
	},
}

func init() {
	extractCmd.Flags().StringVar(&extractFile, "file", "", "extract a single source file instead of the unprocessed area")
	extractCmd.Flags().BoolVar(&extractKeep, "keep", false, "leave source files in unprocessed after extraction")
	extractCmd.Flags().BoolVar(&extractUpload, "upload", false, "bulk load extracts into the warehouse after writing")
	rootCmd.AddCommand(extractCmd)
}
