package model

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// MineRecord is a cleaned MSHA mine-closure row.
type MineRecord struct {
	MineID     int       `csv:"mine_id"`
	Name       string    `csv:"current_mine_name"`
	Status     string    `csv:"current_mine_status"`
	StatusDate time.Time `csv:"-"`
	CoalMetal  string    `csv:"coal_metal_ind"`
	CountyFIPS string    `csv:"fips_cnty_cd"`
	Latitude   float64   `csv:"latitude"`
	Longitude  float64   `csv:"longitude"`
}

// GeneratorRecord is a cleaned EIA-860 generator row.
type GeneratorRecord struct {
	PlantID           int       `csv:"plant_id_eia"`
	UtilityID         int       `csv:"utility_id_eia"`
	GeneratorID       string    `csv:"generator_id"`
	PlantName         string    `csv:"plant_name_eia"`
	OperationalStatus string    `csv:"operational_status"`
	EnergySourceCode  string    `csv:"energy_source_code_1"`
	Technology        string    `csv:"technology_description"`
	ReportDate        time.Time `csv:"-"`
	RetirementDate    time.Time `csv:"-"`
	Latitude          float64   `csv:"latitude"`
	Longitude         float64   `csv:"longitude"`
}

// BrownfieldRecord is a cleaned EPA brownfield site row.
type BrownfieldRecord struct {
	Name      string  `csv:"site_name"`
	ZipCode   string  `csv:"zip_code"`
	Latitude  float64 `csv:"latitude"`
	Longitude float64 `csv:"longitude"`
	Acreage   float64 `csv:"acreage"`
}

// QCEWRecord is one QCEW annual-average row: one area, year, industry and
// ownership sector.
type QCEWRecord struct {
	AreaFIPS     string  `csv:"area_fips"`
	AreaTitle    string  `csv:"area_title"`
	OwnCode      int     `csv:"own_code"`
	IndustryCode string  `csv:"industry_code"`
	Year         int     `csv:"year"`
	AnnualAvgEmp float64 `csv:"annual_avg_emplvl"`
}

// SeriesObservation is one monthly value of a BLS time series (LAU or CPS).
type SeriesObservation struct {
	SeriesID string  `csv:"series_id"`
	Year     int     `csv:"year"`
	Period   string  `csv:"period"` // M01..M12 monthly, M13 annual
	Value    float64 `csv:"value"`
}

// Monthly reports whether the observation is a calendar-month value. Annual
// averages (M13) are recomputed from monthly values rather than trusted,
// since BLS nulls them when any month is missing.
func (o SeriesObservation) Monthly() bool {
	return o.Period >= "M01" && o.Period <= "M12"
}

// AreaDefinition is one row of an agency area-definition table: an MSA or
// nonmetropolitan-area code paired with one member county.
type AreaDefinition struct {
	Code       string // MSA code ("C1018") or non-MSA group code ("100004")
	Title      string
	CountyFIPS string // full 5-digit county FIPS
	NonMetro   bool
}

// RequireColumns checks an input table header against the columns a reader
// depends on. A missing column is a construction-time contract failure, not
// a per-row condition.
func RequireColumns(header []string, required ...string) error {
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[strings.ToLower(strings.TrimSpace(h))] = true
	}
	var missing []string
	for _, col := range required {
		if !present[strings.ToLower(col)] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return eris.Errorf("model: input table missing expected columns %v", missing)
	}
	return nil
}
