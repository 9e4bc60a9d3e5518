package criteria

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/energy-comms/internal/census"
	"github.com/sells-group/energy-comms/internal/model"
)

func testGeometries() *census.Geometries {
	tracts := census.NewLayer(model.LevelTract, []model.GeoUnit{
		{Level: model.LevelTract, FIPS: "48059950100", Name: "Census Tract 9501", Geometry: square(0, 0)},
		{Level: model.LevelTract, FIPS: "48059950200", Name: "Census Tract 9502", Geometry: square(1, 0)},
	})
	counties := census.NewLayer(model.LevelCounty, []model.GeoUnit{
		{Level: model.LevelCounty, FIPS: "48059", Name: "Callahan County", Geometry: geomSquare(0, 0, 2)},
	})
	states := map[string]model.StateInfo{
		"48": {FIPS: "48", Name: "Texas", Abbr: "TX"},
	}
	return census.NewGeometries(states, tracts, counties)
}

func TestMergeAttachesIdentity(t *testing.T) {
	m := NewMerger(testGeometries())

	out := m.Merge([]model.QualifyingRecord{{
		GeoID:     "48059950100",
		GeoLevel:  model.LevelTract,
		Criterion: model.CriterionCoalMine,
		AreaType:  model.AreaTract,
	}})
	require.Len(t, out, 1)
	r := out[0]
	assert.Equal(t, "48059950100", r.TractFIPS)
	assert.Equal(t, "Census Tract 9501", r.TractName)
	assert.Equal(t, "48059", r.CountyFIPS)
	assert.Equal(t, "Callahan County", r.CountyName)
	assert.Equal(t, "48", r.StateFIPS)
	assert.Equal(t, "Texas", r.StateName)
	assert.Equal(t, "TX", r.StateAbbr)
	assert.NotNil(t, r.AreaGeometry)
}

func TestMergeSiteRecordsCarryNoAreaGeometry(t *testing.T) {
	m := NewMerger(testGeometries())

	out := m.Merge([]model.QualifyingRecord{{
		GeoID:     "48059950100",
		GeoLevel:  model.LevelTract,
		Criterion: model.CriterionBrownfield,
		AreaType:  model.AreaSite,
		SiteName:  "Old Foundry",
	}})
	require.Len(t, out, 1)
	assert.Nil(t, out[0].AreaGeometry)
	assert.Equal(t, "Callahan County", out[0].CountyName)
}

func TestMergeDedupeKeepsFirst(t *testing.T) {
	m := NewMerger(testGeometries())

	first := []model.QualifyingRecord{{
		GeoID: "48059950100", GeoLevel: model.LevelTract,
		Criterion: model.CriterionCoalMine, AreaType: model.AreaTract,
		SiteName: "First Mine",
	}}
	second := []model.QualifyingRecord{{
		GeoID: "48059950100", GeoLevel: model.LevelTract,
		Criterion: model.CriterionCoalMine, AreaType: model.AreaTract,
		SiteName: "Second Mine",
	}}

	out := m.Merge(first, second)
	require.Len(t, out, 1)
	assert.Equal(t, "First Mine", out[0].SiteName)

	// Distinct criteria for the same area both survive.
	plant := []model.QualifyingRecord{{
		GeoID: "48059950100", GeoLevel: model.LevelTract,
		Criterion: model.CriterionCoalPlant, AreaType: model.AreaTract,
	}}
	out = m.Merge(first, second, plant)
	assert.Len(t, out, 2)
}

func TestMergeIdempotent(t *testing.T) {
	m := NewMerger(testGeometries())

	batch := []model.QualifyingRecord{
		{GeoID: "48059950100", GeoLevel: model.LevelTract, Criterion: model.CriterionCoalMine, AreaType: model.AreaTract},
		{GeoID: "48059950200", GeoLevel: model.LevelTract, Criterion: model.Criterion("coal_mine_adjacent_tract"), AreaType: model.AreaTract},
	}
	once := m.Merge(batch)
	twice := m.Merge(once)
	assert.Equal(t, once, twice)
}
