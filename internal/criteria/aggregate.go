package criteria

import (
	"sort"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/energy-comms/internal/census"
	"github.com/sells-group/energy-comms/internal/model"
	"github.com/sells-group/energy-comms/internal/monitoring"
)

// GeographicProj is the NAD83 geographic system the boundary files ship in.
const GeographicProj = "+proj=longlat +datum=NAD83 +no_defs"

// DefaultEqualAreaProj is the projection used for area math. Polygon areas
// are meaningless in a geographic system, so tract and county polygons are
// projected before any ratio is computed.
const DefaultEqualAreaProj = "+proj=aea +lat_1=29.5 +lat_2=45.5 +lat_0=23 +lon_0=-96 +x_0=0 +y_0=0 +datum=NAD83 +units=m +no_defs"

// CountySummary is the per-county rollup of the merged qualification table.
type CountySummary struct {
	CountyFIPS string
	CountyName string
	StateAbbr  string

	// CriteriaCounts is the number of qualifying records per criterion.
	CriteriaCounts map[model.Criterion]int

	BrownfieldCount   int
	BrownfieldAcreage float64

	// PercentAreaQualified is qualifying tract area over county area,
	// computed in the equal-area projection. Zero when the county has no
	// tract-level records.
	PercentAreaQualified float64
}

// Aggregator rolls the merged table up to county statistics.
type Aggregator struct {
	geos      *census.Geometries
	transform proj.Transformer
	collector *monitoring.Collector
	log       *zap.Logger
}

// NewAggregator builds an aggregator projecting into projString for area
// computation.
func NewAggregator(geos *census.Geometries, projString string, collector *monitoring.Collector) (*Aggregator, error) {
	if projString == "" {
		projString = DefaultEqualAreaProj
	}
	src, err := proj.Parse(GeographicProj)
	if err != nil {
		return nil, eris.Wrap(err, "parsing geographic projection")
	}
	dst, err := proj.Parse(projString)
	if err != nil {
		return nil, eris.Wrapf(err, "parsing equal-area projection %q", projString)
	}
	ct, err := src.NewTransform(dst)
	if err != nil {
		return nil, eris.Wrap(err, "building area projection transform")
	}
	return &Aggregator{
		geos:      geos,
		transform: ct,
		collector: collector,
		log:       zap.L().With(zap.String("component", "criteria.aggregate")),
	}, nil
}

// Summarize groups the merged records by county. Results are sorted by
// county FIPS.
func (a *Aggregator) Summarize(records []model.QualifyingRecord) ([]CountySummary, error) {
	byCounty := make(map[string]*CountySummary)
	tractsByCounty := make(map[string]map[string]bool)
	var order []string

	for _, r := range records {
		if r.CountyFIPS == "" {
			continue
		}
		s, ok := byCounty[r.CountyFIPS]
		if !ok {
			s = &CountySummary{
				CountyFIPS:     r.CountyFIPS,
				CountyName:     r.CountyName,
				StateAbbr:      r.StateAbbr,
				CriteriaCounts: make(map[model.Criterion]int),
			}
			byCounty[r.CountyFIPS] = s
			order = append(order, r.CountyFIPS)
		}
		s.CriteriaCounts[r.Criterion]++

		if r.Criterion == model.CriterionBrownfield {
			s.BrownfieldCount++
			s.BrownfieldAcreage += r.Acreage
		}

		if r.GeoLevel == model.LevelTract && r.AreaType == model.AreaTract {
			if tractsByCounty[r.CountyFIPS] == nil {
				tractsByCounty[r.CountyFIPS] = make(map[string]bool)
			}
			tractsByCounty[r.CountyFIPS][r.GeoID] = true
		}
	}

	for county, tracts := range tractsByCounty {
		ratio, err := a.percentArea(county, tracts)
		if err != nil {
			return nil, err
		}
		if ratio > 1 {
			a.collector.Inc(monitoring.AreaRatioOverflow)
			a.log.Warn("qualifying tract area exceeds county area",
				zap.String("county", county),
				zap.Float64("ratio", ratio))
		}
		byCounty[county].PercentAreaQualified = ratio
	}

	sort.Strings(order)
	out := make([]CountySummary, 0, len(order))
	for _, county := range order {
		out = append(out, *byCounty[county])
	}
	return out, nil
}

func (a *Aggregator) percentArea(county string, tracts map[string]bool) (float64, error) {
	countyLayer := a.geos.Layer(model.LevelCounty)
	tractLayer := a.geos.Layer(model.LevelTract)
	if countyLayer == nil || tractLayer == nil {
		return 0, nil
	}
	countyGeom := countyLayer.Geometry(county)
	if countyGeom == nil {
		return 0, nil
	}
	countyArea, err := a.projectedArea(countyGeom)
	if err != nil {
		return 0, err
	}
	if countyArea == 0 {
		return 0, nil
	}

	var tractArea float64
	ids := make([]string, 0, len(tracts))
	for id := range tracts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		g := tractLayer.Geometry(id)
		if g == nil {
			continue
		}
		area, err := a.projectedArea(g)
		if err != nil {
			return 0, err
		}
		tractArea += area
	}
	return tractArea / countyArea, nil
}

func (a *Aggregator) projectedArea(g geom.Polygonal) (float64, error) {
	projected, err := g.Transform(a.transform)
	if err != nil {
		return 0, eris.Wrap(err, "projecting polygon for area computation")
	}
	poly, ok := projected.(geom.Polygonal)
	if !ok {
		return 0, eris.New("projected geometry is not polygonal")
	}
	return poly.Area(), nil
}
