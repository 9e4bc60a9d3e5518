package criteria

import (
	"github.com/ctessum/geom"
	"go.uber.org/zap"

	"github.com/sells-group/energy-comms/internal/census"
	"github.com/sells-group/energy-comms/internal/model"
	"github.com/sells-group/energy-comms/internal/monitoring"
)

// BrownfieldEvaluator qualifies EPA brownfield sites as point records,
// resolved to the geography containing them.
type BrownfieldEvaluator struct {
	layer       *census.Layer
	zipCounties map[string]string
	collector   *monitoring.Collector
	log         *zap.Logger
}

// NewBrownfieldEvaluator builds an evaluator against the boundary layer at
// the requested resolution.
func NewBrownfieldEvaluator(layer *census.Layer, collector *monitoring.Collector) *BrownfieldEvaluator {
	return &BrownfieldEvaluator{
		layer:     layer,
		collector: collector,
		log:       zap.L().With(zap.String("component", "criteria.brownfield")),
	}
}

// WithZipCounties installs a zip-to-county fallback for sites whose
// coordinates resolve nowhere. Only meaningful at county resolution.
func (e *BrownfieldEvaluator) WithZipCounties(zipCounties map[string]string) *BrownfieldEvaluator {
	e.zipCounties = zipCounties
	return e
}

// Evaluate produces one site-typed record per resolvable brownfield. Sites
// that resolve nowhere are dropped and counted. Brownfields qualify the site
// itself, so no adjacency expansion happens here.
func (e *BrownfieldEvaluator) Evaluate(sites []model.BrownfieldRecord) []model.QualifyingRecord {
	level := e.layer.Level()
	out := make([]model.QualifyingRecord, 0, len(sites))
	for _, s := range sites {
		pt := geom.Point{X: s.Longitude, Y: s.Latitude}
		rec := model.QualifyingRecord{
			GeoLevel:  level,
			Criterion: model.CriterionBrownfield,
			AreaType:  model.AreaSite,
			SiteName:  s.Name,
			Latitude:  s.Latitude,
			Longitude: s.Longitude,
			Acreage:   s.Acreage,
		}
		if fips, ok := e.layer.Locate(pt); ok {
			rec.GeoID = fips
			rec.SiteGeometry = pt
		} else if fips, ok := e.zipCounty(s.ZipCode); ok {
			rec.GeoID = fips
		} else {
			e.collector.Inc(monitoring.GeometryUnresolved)
			continue
		}
		out = append(out, rec)
	}

	e.log.Info("brownfield evaluation complete",
		zap.String("level", string(level)),
		zap.Int("sites", len(sites)),
		zap.Int("records", len(out)))
	return out
}

// zipCounty resolves a site through the zip-to-county crosswalk. The mapped
// county must exist in the layer, so the fallback is inert at tract
// resolution.
func (e *BrownfieldEvaluator) zipCounty(zip string) (string, bool) {
	if e.zipCounties == nil || zip == "" {
		return "", false
	}
	fips, ok := e.zipCounties[zip]
	if !ok || !e.layer.Contains(fips) {
		return "", false
	}
	return fips, true
}
