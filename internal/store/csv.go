package store

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"

	"github.com/sells-group/energy-comms/internal/criteria"
	"github.com/sells-group/energy-comms/internal/model"
)

// recordRow is the CSV shape of one qualifying record.
type recordRow struct {
	GeoID      string  `csv:"geoid"`
	GeoLevel   string  `csv:"geo_level"`
	Criterion  string  `csv:"criteria"`
	AreaType   string  `csv:"qualifying_area"`
	SiteName   string  `csv:"site_name,omitempty"`
	Year       int     `csv:"year,omitempty"`
	TractFIPS  string  `csv:"tract_fips,omitempty"`
	TractName  string  `csv:"tract_name,omitempty"`
	CountyFIPS string  `csv:"county_fips,omitempty"`
	CountyName string  `csv:"county_name,omitempty"`
	StateFIPS  string  `csv:"state_fips,omitempty"`
	StateName  string  `csv:"state_name,omitempty"`
	StateAbbr  string  `csv:"state_abbr,omitempty"`
	Latitude   float64 `csv:"latitude,omitempty"`
	Longitude  float64 `csv:"longitude,omitempty"`
	Acreage    float64 `csv:"acreage,omitempty"`
	Adjacent   string  `csv:"adjacent_ids,omitempty"`
}

// WriteRecordsCSV writes the merged qualifying table as CSV.
func WriteRecordsCSV(w io.Writer, records []model.QualifyingRecord) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)

	for _, r := range records {
		row := recordRow{
			GeoID:      r.GeoID,
			GeoLevel:   string(r.GeoLevel),
			Criterion:  string(r.Criterion),
			AreaType:   string(r.AreaType),
			SiteName:   r.SiteName,
			Year:       r.Year,
			TractFIPS:  r.TractFIPS,
			TractName:  r.TractName,
			CountyFIPS: r.CountyFIPS,
			CountyName: r.CountyName,
			StateFIPS:  r.StateFIPS,
			StateName:  r.StateName,
			StateAbbr:  r.StateAbbr,
			Latitude:   r.Latitude,
			Longitude:  r.Longitude,
			Acreage:    r.Acreage,
			Adjacent:   strings.Join(r.AdjacentFIPS, ";"),
		}
		if err := enc.Encode(row); err != nil {
			return eris.Wrapf(err, "csv: encode record %s", r.GeoID)
		}
	}

	cw.Flush()
	return eris.Wrap(cw.Error(), "csv: flush records")
}

// summaryRow is the CSV shape of one county rollup.
type summaryRow struct {
	CountyFIPS        string  `csv:"county_fips"`
	CountyName        string  `csv:"county_name"`
	StateAbbr         string  `csv:"state_abbr"`
	DistinctCriteria  int     `csv:"distinct_criteria"`
	CriteriaCounts    string  `csv:"criteria_counts"`
	BrownfieldCount   int     `csv:"brownfield_count"`
	BrownfieldAcreage float64 `csv:"brownfield_acreage"`
	PercentArea       float64 `csv:"percent_of_county_area_qualified"`
}

// WriteSummariesCSV writes the per-county rollup as CSV. The per-criterion
// counts land in one JSON-encoded column.
func WriteSummariesCSV(w io.Writer, summaries []criteria.CountySummary) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)

	for _, cs := range summaries {
		counts, err := json.Marshal(cs.CriteriaCounts)
		if err != nil {
			return eris.Wrapf(err, "csv: marshal counts for %s", cs.CountyFIPS)
		}
		row := summaryRow{
			CountyFIPS:        cs.CountyFIPS,
			CountyName:        cs.CountyName,
			StateAbbr:         cs.StateAbbr,
			DistinctCriteria:  len(cs.CriteriaCounts),
			CriteriaCounts:    string(counts),
			BrownfieldCount:   cs.BrownfieldCount,
			BrownfieldAcreage: cs.BrownfieldAcreage,
			PercentArea:       cs.PercentAreaQualified,
		}
		if err := enc.Encode(row); err != nil {
			return eris.Wrapf(err, "csv: encode summary %s", cs.CountyFIPS)
		}
	}

	cw.Flush()
	return eris.Wrap(cw.Error(), "csv: flush summaries")
}
