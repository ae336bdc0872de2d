package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ncl-icb-analytics/cosd-extract/internal/fetcher"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Pull new report files from the national FTP drop",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if cfg.FTP.Host == "" {
			return eris.New("ftp host is required (COSD_FTP_HOST)")
		}

		f := fetcher.NewFTPFetcher(fetcher.FTPOptions{
			Host:      cfg.FTP.Host,
			User:      cfg.FTP.User,
			Password:  cfg.FTP.Password,
			RemoteDir: cfg.FTP.RemoteDir,
			PerSecond: cfg.FTP.PerSecond,
		})

		fetched, err := f.Pull(ctx, cfg.Dirs.Unprocessed, cfg.Extract.SourceExt)
		if err != nil {
			return eris.Wrap(err, "fetch")
		}

		zap.L().Info("fetch complete",
			zap.Int("fetched", len(fetched)),
			zap.String("dest", cfg.Dirs.Unprocessed),
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}
