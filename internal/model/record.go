package model

import (
	"fmt"

	"github.com/ctessum/geom"
)

// Criterion labels the IRA provision under which an area qualifies.
type Criterion string

const (
	CriterionCoalMine         Criterion = "coal_mine"
	CriterionCoalPlant        Criterion = "coal_plant"
	CriterionBrownfield       Criterion = "brownfield"
	CriterionFossilEmployment Criterion = "fossil_fuel_employment"
)

// AdjacentCriterion returns the criterion label for an area that qualifies
// only by touching a closure area, e.g. "coal_mine_adjacent_tract".
func AdjacentCriterion(base Criterion, level GeoLevel) Criterion {
	return Criterion(fmt.Sprintf("%s_adjacent_%s", base, level))
}

// AreaType labels the kind of geographic unit a record qualifies as.
type AreaType string

const (
	AreaTract       AreaType = "tract"
	AreaCounty      AreaType = "county"
	AreaSite        AreaType = "site"
	AreaMSAOrNonMSA AreaType = "MSA or non-MSA"
)

// AreaTypeFor maps a geography level to its qualifying-area label.
func AreaTypeFor(level GeoLevel) AreaType {
	if level == LevelCounty {
		return AreaCounty
	}
	return AreaTract
}

// QualifyingRecord is one area qualifying under one criterion. Records are
// immutable once produced by an evaluator; the merger copies rather than
// mutates. AdjacentFIPS holds outbound touch edges only and is not
// deduplicated across records sharing a unit.
type QualifyingRecord struct {
	GeoID    string
	GeoLevel GeoLevel

	Criterion Criterion
	AreaType  AreaType

	SiteName string
	Year     int // 0 when the criterion is not year-scoped

	// Identity columns attached by the merger.
	TractFIPS  string
	TractName  string
	CountyFIPS string
	CountyName string
	StateFIPS  string
	StateName  string
	StateAbbr  string

	Latitude  float64
	Longitude float64
	Acreage   float64 // brownfield sites only

	SiteGeometry geom.Geom      // point criteria
	AreaGeometry geom.Polygonal // area criteria, attached by the merger

	AdjacentFIPS []string
}

// Key is the deduplication key: two records are duplicates iff their keys
// match, and the first occurrence wins.
func (r QualifyingRecord) Key() string {
	return r.GeoID + "|" + string(r.Criterion)
}
