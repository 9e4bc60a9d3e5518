package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/energy-comms/internal/census"
	"github.com/sells-group/energy-comms/internal/criteria"
	"github.com/sells-group/energy-comms/internal/crosswalk"
	"github.com/sells-group/energy-comms/internal/extract"
	"github.com/sells-group/energy-comms/internal/model"
	"github.com/sells-group/energy-comms/internal/monitoring"
	"github.com/sells-group/energy-comms/internal/store"
	"github.com/sells-group/energy-comms/internal/transform"
)

// Downloaded input file names under data.input_dir.
const (
	minesArchive         = "Mines.zip"
	brownfieldsWorkbook  = "re-powering-screening.xlsx"
	generatorsCSV        = "pudl_generators.csv"
	areaDefsWorkbook     = "area_definitions.xlsx"
	zipCrosswalkWorkbook = "zip_county.xlsx"
	lauCountyFile        = "la.data.64.County"
	lauMetroFile         = "la.data.60.Metro"
	nationalCPSFile      = "ln.data.1.AllData"
)

func qcewArchive(year int) string {
	return fmt.Sprintf("%d_annual_by_area.zip", year)
}

func inputPath(name string) string {
	return filepath.Join(cfg.Data.InputDir, name)
}

func outputPath(name string) string {
	return filepath.Join(cfg.Data.OutputDir, name)
}

// Criterion selection names accepted by the run commands.
const (
	runCoal       = "coal"
	runBrownfield = "brownfield"
	runEmployment = "employment"
)

func openStore(ctx context.Context) (*store.SQLiteStore, error) {
	st, err := store.NewSQLite(cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}

func loadGeometries(resolution model.GeoLevel) (*census.Geometries, error) {
	levels := []model.GeoLevel{model.LevelCounty}
	if resolution == model.LevelTract {
		levels = append(levels, model.LevelTract)
	}
	return census.Load(cfg.Geo.Dir, levels...)
}

func loadMines(collector *monitoring.Collector) ([]model.MineRecord, error) {
	mines, err := extract.ReadMinesZip(inputPath(minesArchive))
	if err != nil {
		return nil, err
	}
	return transform.CleanMines(mines, transform.DefaultMineFilter(), collector), nil
}

func loadGenerators(collector *monitoring.Collector) ([]model.GeneratorRecord, error) {
	f, err := os.Open(inputPath(generatorsCSV))
	if err != nil {
		return nil, eris.Wrap(err, "open generators export")
	}
	defer f.Close() //nolint:errcheck

	gens, err := extract.ReadGenerators(f)
	if err != nil {
		return nil, err
	}
	return transform.CleanGenerators(gens, collector), nil
}

func loadBrownfields(collector *monitoring.Collector) ([]model.BrownfieldRecord, error) {
	sites, err := extract.ReadBrownfields(inputPath(brownfieldsWorkbook))
	if err != nil {
		return nil, err
	}
	return transform.CleanBrownfields(sites, collector), nil
}

func loadZipCounties() map[string]string {
	path := inputPath(zipCrosswalkWorkbook)
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	zipCounties, err := extract.ReadZipCountyCrosswalk(path)
	if err != nil {
		zap.L().Warn("zip crosswalk unreadable, skipping fallback", zap.Error(err))
		return nil
	}
	return zipCounties
}

func loadCrosswalk(collector *monitoring.Collector) (*crosswalk.Crosswalk, error) {
	defs, err := extract.ReadAreaDefinitions(inputPath(areaDefsWorkbook))
	if err != nil {
		return nil, err
	}
	return crosswalk.Build(defs, crosswalk.DefaultMSACorrections, collector), nil
}

func loadQCEW() ([]model.QCEWRecord, error) {
	var out []model.QCEWRecord
	for year := cfg.Employment.StartYear; year <= cfg.Employment.EndYear; year++ {
		records, err := extract.ReadQCEWZip(inputPath(qcewArchive(year)))
		if err != nil {
			return nil, err
		}
		out = append(out, records...)
	}
	return out, nil
}

func loadLocalSeries() ([]model.SeriesObservation, error) {
	var out []model.SeriesObservation
	for _, name := range []string{lauCountyFile, lauMetroFile} {
		f, err := os.Open(inputPath(name))
		if err != nil {
			return nil, eris.Wrapf(err, "open %s", name)
		}
		obs, err := extract.ReadSeriesFile(f)
		f.Close() //nolint:errcheck
		if err != nil {
			return nil, eris.Wrapf(err, "read %s", name)
		}
		out = append(out, obs...)
	}
	return out, nil
}

func loadNationalSeries() ([]model.SeriesObservation, error) {
	f, err := os.Open(inputPath(nationalCPSFile))
	if err != nil {
		return nil, eris.Wrap(err, "open national series")
	}
	defer f.Close() //nolint:errcheck

	obs, err := extract.ReadSeriesFile(f)
	if err != nil {
		return nil, err
	}

	// The flat file carries the whole CPS catalog.
	out := obs[:0]
	for _, o := range obs {
		if o.SeriesID == transform.NationalUnemploymentSeriesID {
			out = append(out, o)
		}
	}
	return out, nil
}

// runQualification executes the selected criteria at the given resolution,
// merges, aggregates, persists, and exports.
func runQualification(ctx context.Context, resolution model.GeoLevel, selected []string) error {
	collector := monitoring.NewCollector()

	geos, err := loadGeometries(resolution)
	if err != nil {
		return eris.Wrap(err, "load geometries")
	}
	layer := geos.Layer(resolution)
	if layer == nil {
		return eris.Errorf("no boundary layer for %s", resolution)
	}

	want := make(map[string]bool, len(selected))
	for _, s := range selected {
		want[s] = true
	}

	var batches [][]model.QualifyingRecord

	if want[runCoal] {
		mines, err := loadMines(collector)
		if err != nil {
			return eris.Wrap(err, "load mines")
		}
		generators, err := loadGenerators(collector)
		if err != nil {
			return eris.Wrap(err, "load generators")
		}
		batches = append(batches, criteria.NewCoalEvaluator(layer, collector).Evaluate(mines, generators))
	}

	if want[runBrownfield] {
		sites, err := loadBrownfields(collector)
		if err != nil {
			return eris.Wrap(err, "load brownfields")
		}
		eval := criteria.NewBrownfieldEvaluator(layer, collector).WithZipCounties(loadZipCounties())
		batches = append(batches, eval.Evaluate(sites))
	}

	if want[runEmployment] {
		cw, err := loadCrosswalk(collector)
		if err != nil {
			return eris.Wrap(err, "load crosswalk")
		}
		qcew, err := loadQCEW()
		if err != nil {
			return eris.Wrap(err, "load QCEW")
		}
		local, err := loadLocalSeries()
		if err != nil {
			return eris.Wrap(err, "load local unemployment")
		}
		national, err := loadNationalSeries()
		if err != nil {
			return eris.Wrap(err, "load national unemployment")
		}

		eval := criteria.NewEmploymentEvaluator(cw, cfg.Employment.FossilNAICS, cfg.Employment.Threshold, collector)
		records, err := eval.Evaluate(ctx, qcew, national, local)
		if err != nil {
			return eris.Wrap(err, "employment evaluation")
		}
		batches = append(batches, records)
	}

	merged := criteria.NewMerger(geos).Merge(batches...)

	aggregator, err := criteria.NewAggregator(geos, cfg.Geo.EqualAreaProj, collector)
	if err != nil {
		return eris.Wrap(err, "init aggregator")
	}
	summaries, err := aggregator.Summarize(merged)
	if err != nil {
		return eris.Wrap(err, "aggregate")
	}

	st, err := openStore(ctx)
	if err != nil {
		return eris.Wrap(err, "open store")
	}
	defer st.Close() //nolint:errcheck

	run, err := st.CreateRun(ctx, resolution, selected)
	if err != nil {
		return err
	}
	if err := st.InsertRecords(ctx, run.ID, merged); err != nil {
		st.FailRun(ctx, run.ID) //nolint:errcheck
		return err
	}
	if err := st.InsertSummaries(ctx, run.ID, summaries); err != nil {
		st.FailRun(ctx, run.ID) //nolint:errcheck
		return err
	}

	summary := collector.Snapshot()
	if err := st.FinishRun(ctx, run.ID, len(merged), summary); err != nil {
		return err
	}
	summary.Log()

	if err := exportCSVs(merged, summaries); err != nil {
		return err
	}

	zap.L().Info("qualification run complete",
		zap.String("run_id", run.ID),
		zap.String("resolution", string(resolution)),
		zap.Strings("criteria", selected),
		zap.Int("records", len(merged)),
		zap.Int("counties", len(summaries)),
	)
	return nil
}

func exportCSVs(records []model.QualifyingRecord, summaries []criteria.CountySummary) error {
	if err := os.MkdirAll(cfg.Data.OutputDir, 0o755); err != nil {
		return eris.Wrap(err, "create output dir")
	}

	recFile, err := os.Create(outputPath("qualifying_areas.csv"))
	if err != nil {
		return eris.Wrap(err, "create records export")
	}
	defer recFile.Close() //nolint:errcheck
	if err := store.WriteRecordsCSV(recFile, records); err != nil {
		return err
	}

	sumFile, err := os.Create(outputPath("county_summaries.csv"))
	if err != nil {
		return eris.Wrap(err, "create summaries export")
	}
	defer sumFile.Close() //nolint:errcheck
	return store.WriteSummariesCSV(sumFile, summaries)
}
