package criteria

import (
	"testing"

	"github.com/ctessum/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/energy-comms/internal/census"
	"github.com/sells-group/energy-comms/internal/model"
	"github.com/sells-group/energy-comms/internal/monitoring"
)

func square(x, y float64) geom.Polygon {
	return geom.Polygon{{
		{X: x, Y: y}, {X: x + 1, Y: y}, {X: x + 1, Y: y + 1}, {X: x, Y: y + 1}, {X: x, Y: y},
	}}
}

// rowLayer lays out three unit squares in a row: T1 | T3 | T2. T3 touches
// both ends; T1 and T2 do not touch each other.
func rowLayer() *census.Layer {
	return census.NewLayer(model.LevelTract, []model.GeoUnit{
		{Level: model.LevelTract, FIPS: "T1", Name: "Tract 1", Geometry: square(0, 0)},
		{Level: model.LevelTract, FIPS: "T3", Name: "Tract 3", Geometry: square(1, 0)},
		{Level: model.LevelTract, FIPS: "T2", Name: "Tract 2", Geometry: square(2, 0)},
	})
}

func recordsByKey(records []model.QualifyingRecord) map[string]model.QualifyingRecord {
	out := make(map[string]model.QualifyingRecord, len(records))
	for _, r := range records {
		out[r.Key()] = r
	}
	return out
}

func TestCoalEvaluatorPrimaryAndAdjacent(t *testing.T) {
	collector := monitoring.NewCollector()
	e := NewCoalEvaluator(rowLayer(), collector)

	mines := []model.MineRecord{
		{Name: "Bear Canyon", Latitude: 0.5, Longitude: 0.5},
	}
	out := e.Evaluate(mines, nil)
	require.Len(t, out, 2)

	byKey := recordsByKey(out)
	primary, ok := byKey["T1|coal_mine"]
	require.True(t, ok)
	assert.Equal(t, model.AreaTract, primary.AreaType)
	assert.Equal(t, "Bear Canyon", primary.SiteName)
	assert.Equal(t, []string{"T3"}, primary.AdjacentFIPS)

	adjacent, ok := byKey["T3|coal_mine_adjacent_tract"]
	require.True(t, ok)
	assert.Empty(t, adjacent.SiteName)
	assert.Equal(t, model.AreaTract, adjacent.AreaType)
}

func TestCoalEvaluatorSharedAdjacencyDedupe(t *testing.T) {
	collector := monitoring.NewCollector()
	e := NewCoalEvaluator(rowLayer(), collector)

	mines := []model.MineRecord{{Name: "Mine", Latitude: 0.5, Longitude: 0.5}}
	gens := []model.GeneratorRecord{{PlantName: "Plant", Latitude: 0.5, Longitude: 2.5}}
	out := e.Evaluate(mines, gens)

	// T3 touches both the mine tract and the plant tract but appears once,
	// labeled by the first closure type to reach it.
	var t3 []model.QualifyingRecord
	for _, r := range out {
		if r.GeoID == "T3" {
			t3 = append(t3, r)
		}
	}
	require.Len(t, t3, 1)
	assert.Equal(t, model.Criterion("coal_mine_adjacent_tract"), t3[0].Criterion)
}

func TestCoalEvaluatorTouchingClosures(t *testing.T) {
	collector := monitoring.NewCollector()
	e := NewCoalEvaluator(rowLayer(), collector)

	// Mines in touching tracts: each tract carries its primary record plus
	// an adjacency record for the other tract's closure.
	mines := []model.MineRecord{
		{Name: "West Mine", Latitude: 0.5, Longitude: 0.5},
		{Name: "East Mine", Latitude: 0.5, Longitude: 1.5},
	}
	out := e.Evaluate(mines, nil)
	require.Len(t, out, 5)

	byKey := recordsByKey(out)
	for _, key := range []string{
		"T1|coal_mine",
		"T3|coal_mine",
		"T1|coal_mine_adjacent_tract",
		"T3|coal_mine_adjacent_tract",
		"T2|coal_mine_adjacent_tract",
	} {
		_, ok := byKey[key]
		assert.True(t, ok, key)
	}
	assert.Equal(t, []string{"T3"}, byKey["T1|coal_mine"].AdjacentFIPS)
	assert.Equal(t, []string{"T1", "T2"}, byKey["T3|coal_mine"].AdjacentFIPS)
}

func TestCoalEvaluatorDropsUnresolvableSites(t *testing.T) {
	collector := monitoring.NewCollector()
	e := NewCoalEvaluator(rowLayer(), collector)

	mines := []model.MineRecord{
		{Name: "Offshore", Latitude: -40, Longitude: -40},
		{Name: "Onshore", Latitude: 0.5, Longitude: 1.5},
	}
	out := e.Evaluate(mines, nil)

	byKey := recordsByKey(out)
	_, hasPrimary := byKey["T3|coal_mine"]
	assert.True(t, hasPrimary)
	for _, r := range out {
		assert.NotEqual(t, "Offshore", r.SiteName)
	}
	assert.Equal(t, 1, collector.Count(monitoring.GeometryUnresolved))
}

func TestBrownfieldEvaluator(t *testing.T) {
	collector := monitoring.NewCollector()
	e := NewBrownfieldEvaluator(rowLayer(), collector)

	out := e.Evaluate([]model.BrownfieldRecord{
		{Name: "Old Foundry", Latitude: 0.5, Longitude: 0.5, Acreage: 2.5},
		{Name: "Nowhere", Latitude: -40, Longitude: -40},
	})
	require.Len(t, out, 1)
	assert.Equal(t, "T1", out[0].GeoID)
	assert.Equal(t, model.CriterionBrownfield, out[0].Criterion)
	assert.Equal(t, model.AreaSite, out[0].AreaType)
	assert.Equal(t, 2.5, out[0].Acreage)
	assert.Equal(t, 1, collector.Count(monitoring.GeometryUnresolved))
}

func TestBrownfieldEvaluatorZipFallback(t *testing.T) {
	collector := monitoring.NewCollector()
	e := NewBrownfieldEvaluator(rowLayer(), collector).
		WithZipCounties(map[string]string{"79601": "T2", "99999": "XX"})

	out := e.Evaluate([]model.BrownfieldRecord{
		{Name: "No Coords", ZipCode: "79601"},
		{Name: "Unknown County", ZipCode: "99999"},
		{Name: "No Zip Either"},
	})
	require.Len(t, out, 1)
	assert.Equal(t, "T2", out[0].GeoID)
	assert.Nil(t, out[0].SiteGeometry)
	assert.Equal(t, 2, collector.Count(monitoring.GeometryUnresolved))
}
