package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/energy-comms/internal/census"
	"github.com/sells-group/energy-comms/internal/fetcher"
	"github.com/sells-group/energy-comms/internal/model"
)

var geoCmd = &cobra.Command{
	Use:   "geo",
	Short: "Inspect the Census boundary files",
}

var geoStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which boundary files are present and loadable",
	RunE: func(cmd *cobra.Command, _ []string) error {
		files := []struct {
			name  string
			level model.GeoLevel
		}{
			{census.StateShapefile, model.LevelState},
			{census.CountyShapefile, model.LevelCounty},
			{census.TractShapefile, model.LevelTract},
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "LEVEL\tFILE\tSTATUS\tUNITS")
		for _, f := range files {
			path := filepath.Join(cfg.Geo.Dir, f.name)
			if _, err := os.Stat(path); err != nil {
				fmt.Fprintf(tw, "%s\t%s\tmissing\t-\n", f.level, f.name)
				continue
			}
			layer, err := census.LoadLayer(path, f.level)
			if err != nil {
				fmt.Fprintf(tw, "%s\t%s\tunreadable\t-\n", f.level, f.name)
				continue
			}
			fmt.Fprintf(tw, "%s\t%s\tok\t%d\n", f.level, f.name, layer.Len())
		}
		return tw.Flush()
	},
}

var geoFetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download the Census boundary archives",
	Long:  "Downloads the state, county, and tract boundary archives from the Census FTP mirror and unpacks them into the geometry directory under the names the loader expects.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := os.MkdirAll(cfg.Geo.Dir, 0o755); err != nil {
			return eris.Wrap(err, "create geometry dir")
		}

		httpFetcher := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
			UserAgent:  cfg.Fetch.UserAgent,
			Timeout:    time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
			MaxRetries: cfg.Fetch.MaxRetries,
		})
		ftpFetcher := fetcher.NewFTPFetcher(fetcher.FTPOptions{
			Timeout: time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
		})

		skipExisting, _ := cmd.Flags().GetBool("skip-existing")

		archives := []struct {
			url    string
			target string
		}{
			{cfg.Sources.StateShapesURL, census.StateShapefile},
			{cfg.Sources.CountyShapesURL, census.CountyShapefile},
			{cfg.Sources.TractShapesURL, census.TractShapefile},
		}
		for _, a := range archives {
			if skipExisting {
				if _, err := os.Stat(filepath.Join(cfg.Geo.Dir, a.target)); err == nil {
					zap.L().Info("boundary layer present", zap.String("file", a.target))
					continue
				}
			}

			var f fetcher.Fetcher = httpFetcher
			if strings.HasPrefix(a.url, "ftp://") {
				f = ftpFetcher
			}

			archive := filepath.Join(cfg.Geo.Dir, filepath.Base(a.url))
			n, err := downloadOne(ctx, f, a.url, archive)
			if err != nil {
				return eris.Wrapf(err, "fetch %s", a.target)
			}
			if err := unpackBoundary(archive, a.target); err != nil {
				return err
			}
			os.Remove(archive) //nolint:errcheck
			zap.L().Info("boundary layer ready",
				zap.String("file", a.target),
				zap.String("url", a.url),
				zap.Int64("bytes", n),
			)
		}
		return nil
	},
}

// unpackBoundary extracts a boundary archive into the geometry directory and
// renames the shapefile members to target, extensions preserved. Archive
// member names vary by vintage; the loader only knows the curated names.
func unpackBoundary(archive, target string) error {
	extracted, err := fetcher.ExtractZIP(archive, cfg.Geo.Dir)
	if err != nil {
		return eris.Wrapf(err, "unpack %s", filepath.Base(archive))
	}
	base := strings.TrimSuffix(target, filepath.Ext(target))
	for _, src := range extracted {
		switch ext := strings.ToLower(filepath.Ext(src)); ext {
		case ".shp", ".shx", ".dbf", ".prj":
			dst := filepath.Join(cfg.Geo.Dir, base+ext)
			if src == dst {
				continue
			}
			if err := os.Rename(src, dst); err != nil {
				return eris.Wrapf(err, "place %s", filepath.Base(dst))
			}
		default:
			os.Remove(src) //nolint:errcheck
		}
	}
	return nil
}

func init() {
	geoFetchCmd.Flags().Bool("skip-existing", true, "skip boundary layers already present in the geometry directory")
	geoCmd.AddCommand(geoStatusCmd, geoFetchCmd)
	rootCmd.AddCommand(geoCmd)
}
