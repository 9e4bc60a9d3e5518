// Package criteria implements the IRA energy-community qualification rules:
// coal closures, brownfield sites, and fossil-fuel employment.
package criteria

import (
	"github.com/ctessum/geom"
	"go.uber.org/zap"

	"github.com/sells-group/energy-comms/internal/census"
	"github.com/sells-group/energy-comms/internal/model"
	"github.com/sells-group/energy-comms/internal/monitoring"
)

// site is a closure or brownfield point pending geography resolution.
type site struct {
	name    string
	lat     float64
	lon     float64
	acreage float64
}

// CoalEvaluator qualifies areas containing or touching a closed coal mine or
// a retired coal-fired generator.
type CoalEvaluator struct {
	layer     *census.Layer
	collector *monitoring.Collector
	log       *zap.Logger
}

// NewCoalEvaluator builds an evaluator against the boundary layer at the
// requested resolution.
func NewCoalEvaluator(layer *census.Layer, collector *monitoring.Collector) *CoalEvaluator {
	return &CoalEvaluator{
		layer:     layer,
		collector: collector,
		log:       zap.L().With(zap.String("component", "criteria.coal")),
	}
}

// Evaluate produces one primary record per resolvable closure site plus one
// adjacency record per area touching a qualifying area. Adjacency records
// across both closure types are deduplicated by geography; the first closure
// type to reach an area labels it.
func (e *CoalEvaluator) Evaluate(mines []model.MineRecord, generators []model.GeneratorRecord) []model.QualifyingRecord {
	mineSites := make([]site, len(mines))
	for i, m := range mines {
		mineSites[i] = site{name: m.Name, lat: m.Latitude, lon: m.Longitude}
	}
	genSites := make([]site, len(generators))
	for i, g := range generators {
		genSites[i] = site{name: g.PlantName, lat: g.Latitude, lon: g.Longitude}
	}

	minePrimary := e.primaryRecords(mineSites, model.CriterionCoalMine)
	genPrimary := e.primaryRecords(genSites, model.CriterionCoalPlant)

	seenAdjacent := make(map[string]bool)
	out := append(minePrimary, genPrimary...)
	out = append(out, e.adjacentRecords(minePrimary, model.CriterionCoalMine, seenAdjacent)...)
	out = append(out, e.adjacentRecords(genPrimary, model.CriterionCoalPlant, seenAdjacent)...)

	e.log.Info("coal closure evaluation complete",
		zap.String("level", string(e.layer.Level())),
		zap.Int("mines", len(minePrimary)),
		zap.Int("plants", len(genPrimary)),
		zap.Int("records", len(out)))
	return out
}

// primaryRecords resolves each site to its containing geography. Sites that
// resolve nowhere are dropped and counted.
func (e *CoalEvaluator) primaryRecords(sites []site, criterion model.Criterion) []model.QualifyingRecord {
	level := e.layer.Level()
	out := make([]model.QualifyingRecord, 0, len(sites))
	for _, s := range sites {
		pt := geom.Point{X: s.lon, Y: s.lat}
		fips, ok := e.layer.Locate(pt)
		if !ok {
			e.collector.Inc(monitoring.GeometryUnresolved)
			continue
		}
		out = append(out, model.QualifyingRecord{
			GeoID:        fips,
			GeoLevel:     level,
			Criterion:    criterion,
			AreaType:     model.AreaTypeFor(level),
			SiteName:     s.name,
			Latitude:     s.lat,
			Longitude:    s.lon,
			Acreage:      s.acreage,
			SiteGeometry: pt,
		})
	}
	return out
}

// adjacentRecords explodes the neighbor lists of the primary records into
// standalone records carrying no site identity. The seen set is shared
// across calls so an area touching closures of both types appears once. An
// area holding a closure of its own still gets an adjacency record for
// touching another closure; the criteria differ, so the merger keeps both.
func (e *CoalEvaluator) adjacentRecords(primaries []model.QualifyingRecord, base model.Criterion, seen map[string]bool) []model.QualifyingRecord {
	level := e.layer.Level()

	var ids []string
	inIDs := make(map[string]bool)
	for _, r := range primaries {
		if !inIDs[r.GeoID] {
			inIDs[r.GeoID] = true
			ids = append(ids, r.GeoID)
		}
	}
	adjacency := e.layer.Adjacent(ids)

	for i := range primaries {
		primaries[i].AdjacentFIPS = adjacency[primaries[i].GeoID]
	}

	var out []model.QualifyingRecord
	for _, id := range ids {
		for _, neighbor := range adjacency[id] {
			if seen[neighbor] {
				continue
			}
			seen[neighbor] = true
			out = append(out, model.QualifyingRecord{
				GeoID:     neighbor,
				GeoLevel:  level,
				Criterion: model.AdjacentCriterion(base, level),
				AreaType:  model.AreaTypeFor(level),
			})
		}
	}
	return out
}
