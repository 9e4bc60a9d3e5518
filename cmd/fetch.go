package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/energy-comms/internal/fetcher"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download the upstream agency inputs",
	Long:  "Downloads the MSHA mines archive, EPA RE-Powering workbook, BLS flat files and QCEW archives, and the crosswalk workbooks into the input directory.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := os.MkdirAll(cfg.Data.InputDir, 0o755); err != nil {
			return eris.Wrap(err, "create input dir")
		}

		downloads := []struct {
			url  string
			name string
		}{
			{cfg.Sources.MinesURL, minesArchive},
			{cfg.Sources.BrownfieldsURL, brownfieldsWorkbook},
			{cfg.Sources.AreaDefsURL, areaDefsWorkbook},
			{cfg.Sources.ZipCrosswalkURL, zipCrosswalkWorkbook},
			{cfg.Sources.LAUCountyURL, lauCountyFile},
			{cfg.Sources.LAUMetroURL, lauMetroFile},
			{cfg.Sources.NationalCPSURL, nationalCPSFile},
		}
		for year := cfg.Employment.StartYear; year <= cfg.Employment.EndYear; year++ {
			downloads = append(downloads, struct {
				url  string
				name string
			}{fmt.Sprintf(cfg.Sources.QCEWURLTemplate, year, year), qcewArchive(year)})
		}

		skipExisting, _ := cmd.Flags().GetBool("skip-existing")

		httpFetcher := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
			UserAgent:  cfg.Fetch.UserAgent,
			Timeout:    time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
			MaxRetries: cfg.Fetch.MaxRetries,
		})
		ftpFetcher := fetcher.NewFTPFetcher(fetcher.FTPOptions{
			Timeout: time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
		})

		for _, d := range downloads {
			dest := inputPath(d.name)
			if skipExisting {
				if _, err := os.Stat(dest); err == nil {
					zap.L().Info("already downloaded", zap.String("file", d.name))
					continue
				}
			}

			var f fetcher.Fetcher = httpFetcher
			if strings.HasPrefix(d.url, "ftp://") {
				f = ftpFetcher
			}

			n, err := downloadOne(ctx, f, d.url, dest)
			if err != nil {
				return eris.Wrapf(err, "fetch %s", d.name)
			}
			zap.L().Info("downloaded",
				zap.String("file", d.name),
				zap.String("url", d.url),
				zap.Int64("bytes", n),
			)
		}

		return nil
	},
}

func downloadOne(ctx context.Context, f fetcher.Fetcher, url, dest string) (int64, error) {
	// Download to a temp name first so an interrupted transfer is never
	// mistaken for a complete file.
	tmp := dest + ".part"
	n, err := f.DownloadToFile(ctx, url, tmp)
	if err != nil {
		os.Remove(tmp) //nolint:errcheck
		return 0, err
	}
	if err := os.Rename(tmp, dest); err != nil {
		return 0, eris.Wrap(err, "finalize download")
	}
	return n, nil
}

func init() {
	fetchCmd.Flags().Bool("skip-existing", true, "skip files already present in the input directory")
	rootCmd.AddCommand(fetchCmd)
}
