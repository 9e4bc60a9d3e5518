package transform

import (
	"strings"

	"github.com/rotisserie/eris"
)

// BLS LAU measure codes (last two characters of a series id).
const (
	MeasureUnemploymentRate = "03"
	MeasureUnemployment     = "04"
	MeasureLaborForce       = "06"
)

// LAU area-type prefixes (first two characters of an area code).
const (
	areaTypeCounty = "CN"
	areaTypeMSA    = "MT"
)

// NationalUnemploymentSeriesID is the CPS seasonally adjusted national
// unemployment rate series.
const NationalUnemploymentSeriesID = "LNS14000000"

const seriesIDLen = 20

// LAUSeries is a decoded Local Area Unemployment Statistics series id,
// implemented against the documented BLS format: "LAU", a 15-character area
// code (zero-padded on the right), and a 2-character measure code.
type LAUSeries struct {
	AreaType  string // "county" or "metropolitan_stat_area"
	StateFIPS string
	// CountyFIPS is the full 5-digit county FIPS; county series only.
	CountyFIPS string
	// MSACode is the agency form ("C1018"); MSA series only.
	MSACode string
	// CensusMSACode is the Census crosswalk form ("10180"); MSA series only.
	CensusMSACode string
	Measure       string
}

// BuildSeriesID constructs a LAU series id from an area code prefix, e.g.
// "CN01005" or "MT4810180", and a measure code.
func BuildSeriesID(areaCode, measure string) string {
	id := "LAU" + strings.TrimSpace(areaCode)
	for len(id) < seriesIDLen-2 {
		id += "0"
	}
	return id + measure
}

// ParseSeriesID decodes a LAU series id. Only county (CN) and metropolitan
// (MT) area types are recognized; other LAU area types are not part of this
// pipeline's inputs.
func ParseSeriesID(id string) (LAUSeries, error) {
	id = strings.TrimSpace(id)
	if len(id) != seriesIDLen || !strings.HasPrefix(id, "LAU") {
		return LAUSeries{}, eris.Errorf("transform: malformed LAU series id %q", id)
	}

	s := LAUSeries{
		StateFIPS: id[5:7],
		Measure:   id[seriesIDLen-2:],
	}
	switch id[3:5] {
	case areaTypeCounty:
		s.AreaType = "county"
		s.CountyFIPS = id[5:10]
	case areaTypeMSA:
		s.AreaType = "metropolitan_stat_area"
		s.CensusMSACode = id[7:12]
		s.MSACode = "C" + id[7:11]
	default:
		return LAUSeries{}, eris.Errorf("transform: unsupported LAU area type %q in series %q", id[3:5], id)
	}
	return s, nil
}
