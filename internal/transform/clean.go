package transform

import (
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/energy-comms/internal/model"
	"github.com/sells-group/energy-comms/internal/monitoring"
)

var titleCaser = cases.Title(language.AmericanEnglish)

// TitleCase normalizes a site name the way the agency tables present mixed
// casing.
func TitleCase(s string) string {
	return titleCaser.String(strings.ToLower(strings.TrimSpace(s)))
}

// ValidLatLon reports whether a coordinate pair is inside the valid
// lat/lon window.
func ValidLatLon(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180 && !(lat == 0 && lon == 0)
}

// MineFilter holds the IRA coal-mine closure criteria applied to raw MSHA
// records.
type MineFilter struct {
	Statuses   []string // qualifying current_mine_status values
	CutoffYear int      // status date must fall in or after this year
}

// DefaultMineFilter matches abandoned and nonproducing coal mines with a
// status change in 2000 or later.
func DefaultMineFilter() MineFilter {
	return MineFilter{
		Statuses:   []string{"abandoned and sealed", "abandoned", "nonproducing"},
		CutoffYear: 2000,
	}
}

// CleanMines standardizes and filters raw MSHA rows: coal mines only, a
// qualifying closure status on or after the cutoff year, and valid
// coordinates. Rows dropped for invalid coordinates are counted.
func CleanMines(records []model.MineRecord, filter MineFilter, collector *monitoring.Collector) []model.MineRecord {
	statuses := make(map[string]bool, len(filter.Statuses))
	for _, s := range filter.Statuses {
		statuses[strings.ToLower(s)] = true
	}

	out := make([]model.MineRecord, 0, len(records))
	var dropped int
	for _, rec := range records {
		rec.Status = strings.ToLower(strings.TrimSpace(rec.Status))
		rec.CoalMetal = strings.ToLower(strings.TrimSpace(rec.CoalMetal))
		rec.Name = TitleCase(rec.Name)
		rec.CountyFIPS = NormalizeCountyFIPS(rec.CountyFIPS)

		if rec.CoalMetal != "c" || !statuses[rec.Status] {
			continue
		}
		if rec.StatusDate.IsZero() || rec.StatusDate.Year() < filter.CutoffYear {
			continue
		}
		if !ValidLatLon(rec.Latitude, rec.Longitude) {
			dropped++
			continue
		}
		out = append(out, rec)
	}
	if dropped > 0 {
		collector.Add(monitoring.DroppedSite, dropped)
		zap.L().Info("dropped mine records with invalid coordinates", zap.Int("count", dropped))
	}
	return out
}

// Coal generator filters. EIA reporting switched from fuel codes to
// technology descriptions with the 2014 form revision, so the two windows
// are matched differently.
var (
	CoalEnergyCodes  = []string{"ANT", "BIT", "LIG", "RC", "SGC", "WC", "SUB"}
	CoalTechnologies = []string{
		"Conventional Steam Coal",
		"Coal Integrated Gasification Combined Cycle",
	}
	eiaTechnologyEra = time.Date(2014, time.January, 1, 0, 0, 0, 0, time.UTC)
	eiaWindowStart   = time.Date(2010, time.January, 1, 0, 0, 0, 0, time.UTC)
)

// CleanGenerators filters raw EIA-860 rows to retired coal generators with
// valid coordinates, keeping the most recent report for each generator
// (retired units are re-reported every year).
func CleanGenerators(records []model.GeneratorRecord, collector *monitoring.Collector) []model.GeneratorRecord {
	coalCodes := make(map[string]bool, len(CoalEnergyCodes))
	for _, c := range CoalEnergyCodes {
		coalCodes[c] = true
	}
	coalTechs := make(map[string]bool, len(CoalTechnologies))
	for _, tech := range CoalTechnologies {
		coalTechs[tech] = true
	}

	type genKey struct {
		plant   int
		utility int
		genID   string
	}
	latest := make(map[genKey]model.GeneratorRecord)
	order := make([]genKey, 0, len(records))
	var dropped int

	for _, rec := range records {
		if !strings.EqualFold(strings.TrimSpace(rec.OperationalStatus), "retired") {
			continue
		}
		fuelEra := !rec.ReportDate.Before(eiaWindowStart) &&
			rec.ReportDate.Before(eiaTechnologyEra) &&
			coalCodes[strings.TrimSpace(rec.EnergySourceCode)]
		techEra := !rec.ReportDate.Before(eiaTechnologyEra) &&
			coalTechs[strings.TrimSpace(rec.Technology)]
		if !fuelEra && !techEra {
			continue
		}
		if !ValidLatLon(rec.Latitude, rec.Longitude) {
			dropped++
			continue
		}

		key := genKey{rec.PlantID, rec.UtilityID, rec.GeneratorID}
		prev, seen := latest[key]
		if !seen {
			order = append(order, key)
			latest[key] = rec
			continue
		}
		if rec.ReportDate.After(prev.ReportDate) {
			latest[key] = rec
		}
	}

	if dropped > 0 {
		collector.Add(monitoring.DroppedSite, dropped)
		zap.L().Info("dropped generator records with invalid coordinates", zap.Int("count", dropped))
	}

	out := make([]model.GeneratorRecord, 0, len(latest))
	for _, key := range order {
		out = append(out, latest[key])
	}
	return out
}

// CleanBrownfields title-cases names and drops sites that can never be
// placed: no usable coordinates and no ZIP to fall back on. Sites with only
// a ZIP are kept for crosswalk resolution downstream.
func CleanBrownfields(records []model.BrownfieldRecord, collector *monitoring.Collector) []model.BrownfieldRecord {
	out := make([]model.BrownfieldRecord, 0, len(records))
	var dropped int
	for _, rec := range records {
		if !ValidLatLon(rec.Latitude, rec.Longitude) {
			if rec.ZipCode == "" {
				dropped++
				continue
			}
			rec.Latitude, rec.Longitude = 0, 0
		}
		rec.Name = TitleCase(rec.Name)
		out = append(out, rec)
	}
	if dropped > 0 {
		collector.Add(monitoring.DroppedSite, dropped)
		zap.L().Info("dropped brownfield records with invalid coordinates", zap.Int("count", dropped))
	}
	return out
}
