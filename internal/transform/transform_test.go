package transform

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/energy-comms/internal/model"
	"github.com/sells-group/energy-comms/internal/monitoring"
)

func TestNormalizeFIPS(t *testing.T) {
	assert.Equal(t, "06", NormalizeStateFIPS("6"))
	assert.Equal(t, "48", NormalizeStateFIPS("48"))
	assert.Equal(t, "", NormalizeStateFIPS(" "))
	assert.Equal(t, "005", NormalizeCountyFIPS("5"))
	assert.Equal(t, "059", NormalizeCountyFIPS("59"))
	assert.Equal(t, "48059", CombineFIPS("48", "59"))
	assert.Equal(t, "", CombineFIPS("", "59"))
}

func TestPadGeoID(t *testing.T) {
	assert.Equal(t, "01005", PadGeoID("1005", model.LevelCounty))
	assert.Equal(t, "09", PadGeoID("9", model.LevelState))
	assert.Equal(t, "49015976300", PadGeoID("49015976300", model.LevelTract))
}

func TestStateCountyPrefix(t *testing.T) {
	assert.Equal(t, "49", StatePrefix("49015976300"))
	assert.Equal(t, "49015", CountyPrefix("49015976300"))
	assert.Equal(t, "48", StatePrefix("48059"))
	assert.Equal(t, "", CountyPrefix("48"))
}

func TestNormalizeQCEWArea(t *testing.T) {
	// MSA codes lose the C prefix and gain a trailing zero to match the
	// Census crosswalk form.
	assert.Equal(t, "10180", NormalizeQCEWArea("C1018"))
	assert.Equal(t, "48059", NormalizeQCEWArea("48059"))
	assert.Equal(t, "01005", NormalizeQCEWArea("1005"))
	assert.True(t, IsQCEWMSAArea("C1018"))
	assert.False(t, IsQCEWMSAArea("48059"))
}

func TestNAICSSet(t *testing.T) {
	set := NAICSSet(FossilNAICSCodes)
	assert.True(t, set["2121"])
	assert.True(t, set["211"])
	// Exact membership: the 6-digit child of a listed 4-digit code is its
	// own QCEW aggregation level and must not match.
	assert.False(t, set["212111"])
	assert.False(t, set["10"])
}

func TestBuildSeriesID(t *testing.T) {
	assert.Equal(t, "LAUCN010050000000003", BuildSeriesID("CN01005", MeasureUnemploymentRate))
	assert.Equal(t, "LAUMT481018000000003", BuildSeriesID("MT4810180", MeasureUnemploymentRate))
	assert.Equal(t, "LAUCN011090000000006", BuildSeriesID("CN01109", MeasureLaborForce))
}

func TestParseSeriesID(t *testing.T) {
	s, err := ParseSeriesID("LAUCN010050000000003")
	require.NoError(t, err)
	assert.Equal(t, "county", s.AreaType)
	assert.Equal(t, "01", s.StateFIPS)
	assert.Equal(t, "01005", s.CountyFIPS)
	assert.Equal(t, MeasureUnemploymentRate, s.Measure)

	s, err = ParseSeriesID("LAUMT481018000000003")
	require.NoError(t, err)
	assert.Equal(t, "metropolitan_stat_area", s.AreaType)
	assert.Equal(t, "48", s.StateFIPS)
	assert.Equal(t, "C1018", s.MSACode)
	assert.Equal(t, "10180", s.CensusMSACode)

	_, err = ParseSeriesID("LAUST48000000000003")
	assert.Error(t, err)
	_, err = ParseSeriesID("LAUST480000000000003") // state series: unsupported type
	assert.Error(t, err)
}

func TestSeriesIDRoundTrip(t *testing.T) {
	id := BuildSeriesID("MT0449740", MeasureUnemploymentRate)
	s, err := ParseSeriesID(id)
	require.NoError(t, err)
	assert.Equal(t, "C4974", s.MSACode)
	assert.Equal(t, "04", s.StateFIPS)
}

func TestValidLatLon(t *testing.T) {
	assert.True(t, ValidLatLon(39.2975, -111.121944))
	assert.False(t, ValidLatLon(95, -111))
	assert.False(t, ValidLatLon(40, -190))
	assert.False(t, ValidLatLon(0, 0))
}

func TestCleanMines(t *testing.T) {
	collector := monitoring.NewCollector()
	records := []model.MineRecord{
		{MineID: 1, Name: "BEAR CANYON", Status: " Abandoned ", CoalMetal: "C",
			StatusDate: time.Date(2015, 3, 1, 0, 0, 0, 0, time.UTC),
			CountyFIPS: "15", Latitude: 39.3, Longitude: -111.1},
		{MineID: 2, Name: "Metal Mine", Status: "abandoned", CoalMetal: "m",
			StatusDate: time.Date(2015, 3, 1, 0, 0, 0, 0, time.UTC),
			Latitude: 39.3, Longitude: -111.1},
		{MineID: 3, Name: "Old Closure", Status: "abandoned", CoalMetal: "c",
			StatusDate: time.Date(1998, 1, 1, 0, 0, 0, 0, time.UTC),
			Latitude: 39.3, Longitude: -111.1},
		{MineID: 4, Name: "No Coords", Status: "nonproducing", CoalMetal: "c",
			StatusDate: time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)},
		{MineID: 5, Name: "Active", Status: "active", CoalMetal: "c",
			StatusDate: time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC),
			Latitude: 39.3, Longitude: -111.1},
	}

	out := CleanMines(records, DefaultMineFilter(), collector)
	require.Len(t, out, 1)
	assert.Equal(t, 1, out[0].MineID)
	assert.Equal(t, "Bear Canyon", out[0].Name)
	assert.Equal(t, "015", out[0].CountyFIPS)
	assert.Equal(t, 1, collector.Count(monitoring.DroppedSite))
}

func TestCleanGenerators(t *testing.T) {
	collector := monitoring.NewCollector()
	records := []model.GeneratorRecord{
		// Fuel-code era match, reported twice: latest report wins.
		{PlantID: 10, GeneratorID: "1", OperationalStatus: "retired", EnergySourceCode: "BIT",
			ReportDate: time.Date(2012, 1, 1, 0, 0, 0, 0, time.UTC), Latitude: 32, Longitude: -99},
		{PlantID: 10, GeneratorID: "1", OperationalStatus: "retired", EnergySourceCode: "BIT",
			ReportDate: time.Date(2013, 1, 1, 0, 0, 0, 0, time.UTC), Latitude: 32, Longitude: -99},
		// Technology era: fuel code alone no longer qualifies.
		{PlantID: 11, GeneratorID: "1", OperationalStatus: "retired", EnergySourceCode: "BIT",
			ReportDate: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), Latitude: 32, Longitude: -99},
		{PlantID: 12, GeneratorID: "2", OperationalStatus: "retired", Technology: "Conventional Steam Coal",
			ReportDate: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), Latitude: 32, Longitude: -99},
		{PlantID: 13, GeneratorID: "1", OperationalStatus: "existing", Technology: "Conventional Steam Coal",
			ReportDate: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), Latitude: 32, Longitude: -99},
	}

	out := CleanGenerators(records, collector)
	require.Len(t, out, 2)
	assert.Equal(t, 10, out[0].PlantID)
	assert.Equal(t, 2013, out[0].ReportDate.Year())
	assert.Equal(t, 12, out[1].PlantID)
}

func TestCleanBrownfields(t *testing.T) {
	collector := monitoring.NewCollector()
	records := []model.BrownfieldRecord{
		{Name: "OLD FOUNDRY SITE", Latitude: 41.8, Longitude: -87.6, Acreage: 2.5},
		{Name: "ZIP ONLY SITE", ZipCode: "02114"},
		{Name: "missing coords"},
	}
	out := CleanBrownfields(records, collector)
	require.Len(t, out, 2)
	assert.Equal(t, "Old Foundry Site", out[0].Name)
	assert.Equal(t, "Zip Only Site", out[1].Name)
	assert.Equal(t, 1, collector.Count(monitoring.DroppedSite))
}
