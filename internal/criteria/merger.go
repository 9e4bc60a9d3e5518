package criteria

import (
	"go.uber.org/zap"

	"github.com/sells-group/energy-comms/internal/census"
	"github.com/sells-group/energy-comms/internal/model"
	"github.com/sells-group/energy-comms/internal/transform"
)

// Merger combines evaluator outputs into one table with a common schema:
// tract/county/state identity attached, canonical geometry for area-typed
// records, and one row per (geo_id, criterion).
type Merger struct {
	geos *census.Geometries
	log  *zap.Logger
}

// NewMerger builds a merger over the loaded boundary layers.
func NewMerger(geos *census.Geometries) *Merger {
	return &Merger{
		geos: geos,
		log:  zap.L().With(zap.String("component", "criteria.merger")),
	}
}

// Merge concatenates the batches in argument order and deduplicates by
// (geo_id, criterion), keeping the first occurrence. The winner of a
// duplicate key therefore depends on batch order; callers pass batches in a
// fixed order so runs are reproducible.
func (m *Merger) Merge(batches ...[]model.QualifyingRecord) []model.QualifyingRecord {
	var out []model.QualifyingRecord
	seen := make(map[string]bool)
	total := 0
	for _, batch := range batches {
		total += len(batch)
		for _, r := range batch {
			if seen[r.Key()] {
				continue
			}
			seen[r.Key()] = true
			out = append(out, m.decorate(r))
		}
	}
	m.log.Info("merged qualifying areas",
		zap.Int("input_records", total),
		zap.Int("output_records", len(out)),
		zap.Int("duplicates_collapsed", total-len(out)))
	return out
}

// decorate attaches the identity columns and, for area-typed records, the
// canonical boundary geometry.
func (m *Merger) decorate(r model.QualifyingRecord) model.QualifyingRecord {
	switch r.GeoLevel {
	case model.LevelTract:
		r.TractFIPS = r.GeoID
		r.CountyFIPS = transform.CountyPrefix(r.GeoID)
		if layer := m.geos.Layer(model.LevelTract); layer != nil {
			r.TractName = layer.Name(r.GeoID)
		}
	case model.LevelCounty:
		r.CountyFIPS = r.GeoID
	}

	if r.CountyFIPS != "" {
		if layer := m.geos.Layer(model.LevelCounty); layer != nil {
			r.CountyName = layer.Name(r.CountyFIPS)
		}
	}

	r.StateFIPS = transform.StatePrefix(r.GeoID)
	if state, ok := m.geos.State(r.StateFIPS); ok {
		r.StateName = state.Name
		r.StateAbbr = state.Abbr
	}

	// Point-only records keep their site geometry; the area polygon is for
	// records that qualify an area outright.
	if r.AreaType != model.AreaSite {
		if layer := m.geos.Layer(r.GeoLevel); layer != nil {
			r.AreaGeometry = layer.Geometry(r.GeoID)
		}
	}
	return r
}
