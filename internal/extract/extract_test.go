package extract

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func TestReadQCEW(t *testing.T) {
	data := `area_fips,own_code,industry_code,year,annual_avg_emplvl
48059,0,10,2020,67929
48059,5,2121,2020,1000
`
	records, err := ReadQCEW(strings.NewReader(data), "Callahan County, TX")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "48059", records[0].AreaFIPS)
	assert.Equal(t, "Callahan County, TX", records[0].AreaTitle)
	assert.Equal(t, 0, records[0].OwnCode)
	assert.Equal(t, "10", records[0].IndustryCode)
	assert.Equal(t, 2020, records[0].Year)
	assert.Equal(t, 67929.0, records[0].AnnualAvgEmp)
	assert.Equal(t, "2121", records[1].IndustryCode)
}

func TestReadQCEWKeepsFileTitle(t *testing.T) {
	data := `area_fips,area_title,own_code,industry_code,year,annual_avg_emplvl
C1018,"Abilene, TX MSA",0,10,2020,81824
`
	records, err := ReadQCEW(strings.NewReader(data), "ignored")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Abilene, TX MSA", records[0].AreaTitle)
}

func TestReadQCEWMissingColumns(t *testing.T) {
	data := "area_fips,year\n48059,2020\n"
	_, err := ReadQCEW(strings.NewReader(data), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing expected columns")
}

func TestReadQCEWZip(t *testing.T) {
	zipPath := filepath.Join(t.TempDir(), "2020_annual_by_area.zip")
	f, err := os.Create(zipPath)
	require.NoError(t, err)
	w := zip.NewWriter(f)
	fw, err := w.Create("2020.annual.by_area/2020.annual 48059 Callahan County, Texas.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte("area_fips,own_code,industry_code,year,annual_avg_emplvl\n48059,0,10,2020,67929\n"))
	require.NoError(t, err)
	fw, err = w.Create("2020.annual.by_area/readme.txt")
	require.NoError(t, err)
	_, err = fw.Write([]byte("not data"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	records, err := ReadQCEWZip(zipPath)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Callahan County, Texas", records[0].AreaTitle)
}

func TestQCEWTitleFromName(t *testing.T) {
	assert.Equal(t, "Abilene, TX MSA",
		qcewTitleFromName("2020.annual.by_area/2020.annual C1018 Abilene, TX MSA.csv"))
	assert.Equal(t, "", qcewTitleFromName("readme.csv"))
}

func TestReadSeriesFile(t *testing.T) {
	// Header and series ids are space-padded in the published flat files.
	data := "series_id        \tyear\tperiod\t       value\tfootnote_codes\n" +
		"LAUCN481410000000003        \t2020\tM01\t         6.8\t\n" +
		"LAUCN481410000000003        \t2020\tM13\t         7.1\t\n" +
		"LAUCN481410000000003        \t2021\tM02\t         -\t\n"
	obs, err := ReadSeriesFile(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, obs, 2)
	assert.Equal(t, "LAUCN481410000000003", obs[0].SeriesID)
	assert.Equal(t, 2020, obs[0].Year)
	assert.Equal(t, "M01", obs[0].Period)
	assert.Equal(t, 6.8, obs[0].Value)
	// M13 annual rows survive extraction; callers filter them.
	assert.Equal(t, "M13", obs[1].Period)
}

func TestReadSeriesFileMissingColumns(t *testing.T) {
	data := "series_id\tyear\n" + "LAUCN481410000000003\t2020\n"
	_, err := ReadSeriesFile(strings.NewReader(data))
	require.Error(t, err)
}

func TestReadMines(t *testing.T) {
	// The \xf1 byte is a latin-1 ñ; the decoder must turn it into UTF-8.
	data := "MINE_ID|CURRENT_MINE_NAME|CURRENT_MINE_STATUS|CURRENT_STATUS_DT|COAL_METAL_IND|FIPS_CNTY_CD|LATITUDE|LONGITUDE\n" +
		"1|BEAR CANYON|Abandoned|03/27/2009|C|15|39.476|-111.160\n" +
		"2|CA\xf1ON MINE|Active|01/01/2015|C|7|36.835|-112.075\n" +
		"3|NO DATE||||||\n"

	mines, err := ReadMines(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, mines, 3)
	assert.Equal(t, 1, mines[0].MineID)
	assert.Equal(t, "BEAR CANYON", mines[0].Name)
	assert.Equal(t, "Abandoned", mines[0].Status)
	assert.Equal(t, time.Date(2009, 3, 27, 0, 0, 0, 0, time.UTC), mines[0].StatusDate)
	assert.Equal(t, "C", mines[0].CoalMetal)
	assert.Equal(t, "15", mines[0].CountyFIPS)
	assert.InDelta(t, 39.476, mines[0].Latitude, 1e-9)
	assert.Equal(t, "CAñON MINE", mines[1].Name)
	assert.True(t, mines[2].StatusDate.IsZero())
}

func TestReadMinesZip(t *testing.T) {
	zipPath := filepath.Join(t.TempDir(), "Mines.zip")
	f, err := os.Create(zipPath)
	require.NoError(t, err)
	w := zip.NewWriter(f)
	fw, err := w.Create("Mines.txt")
	require.NoError(t, err)
	_, err = fw.Write([]byte("MINE_ID|CURRENT_MINE_NAME|CURRENT_MINE_STATUS|CURRENT_STATUS_DT|COAL_METAL_IND|FIPS_CNTY_CD|LATITUDE|LONGITUDE\n" +
		"1|BEAR CANYON|Abandoned|03/27/2009|C|15|39.476|-111.160\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	mines, err := ReadMinesZip(zipPath)
	require.NoError(t, err)
	require.Len(t, mines, 1)
	assert.Equal(t, "BEAR CANYON", mines[0].Name)
}

func TestReadGenerators(t *testing.T) {
	data := `plant_id_eia,utility_id_eia,generator_id,plant_name_eia,operational_status,energy_source_code_1,technology_description,report_date,retirement_date,latitude,longitude
3,195,1,Barry,retired,BIT,Conventional Steam Coal,2013-01-01,2012-06-30,31.0069,-88.0103
4,195,2,Gadsden,existing,NG,Natural Gas Fired Combustion Turbine,2020-01-01,,34.0128,-85.9708
`
	gens, err := ReadGenerators(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, gens, 2)
	assert.Equal(t, 3, gens[0].PlantID)
	assert.Equal(t, 195, gens[0].UtilityID)
	assert.Equal(t, "1", gens[0].GeneratorID)
	assert.Equal(t, "retired", gens[0].OperationalStatus)
	assert.Equal(t, "BIT", gens[0].EnergySourceCode)
	assert.Equal(t, time.Date(2013, 1, 1, 0, 0, 0, 0, time.UTC), gens[0].ReportDate)
	assert.Equal(t, time.Date(2012, 6, 30, 0, 0, 0, 0, time.UTC), gens[0].RetirementDate)
	assert.True(t, gens[1].RetirementDate.IsZero())
}

func createWorkbook(t *testing.T, sheetName string, rows [][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(sheetName)
	require.NoError(t, err)
	for _, rowData := range rows {
		row := sheet.AddRow()
		for _, cell := range rowData {
			row.AddCell().SetString(cell)
		}
	}
	path := filepath.Join(t.TempDir(), "test.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestReadBrownfields(t *testing.T) {
	path := createWorkbook(t, "Re-Powering Sites", [][]string{
		{"Site Name", "Zip Code", "Latitude", "Longitude", "Site Acreage"},
		{"OLD FOUNDRY", "79601", "32.45", "-99.73", "12.5"},
		{"harbor mill", "2114", "42.36", "-71.06", ""},
		{"", "00000", "1", "1", "1"},
	})

	sites, err := ReadBrownfields(path)
	require.NoError(t, err)
	require.Len(t, sites, 2)
	assert.Equal(t, "Old Foundry", sites[0].Name)
	assert.Equal(t, "79601", sites[0].ZipCode)
	assert.InDelta(t, 32.45, sites[0].Latitude, 1e-9)
	assert.Equal(t, 12.5, sites[0].Acreage)
	// Leading zeros restored after the spreadsheet stored the zip as a number.
	assert.Equal(t, "02114", sites[1].ZipCode)
	assert.Equal(t, 0.0, sites[1].Acreage)
}

func TestReadBrownfieldsMissingSheet(t *testing.T) {
	path := createWorkbook(t, "Sheet1", [][]string{{"Site Name"}})
	_, err := ReadBrownfields(path)
	require.Error(t, err)
}

func TestReadZipCountyCrosswalk(t *testing.T) {
	path := createWorkbook(t, "ZIP_COUNTY", [][]string{
		{"ZIP", "COUNTY", "RES_RATIO"},
		{"79601", "48441", "0.9"},
		{"79601", "48253", "0.1"},
		{"2114", "25025", "1.0"},
	})

	cw, err := ReadZipCountyCrosswalk(path)
	require.NoError(t, err)
	assert.Equal(t, "48441", cw["79601"], "first listing wins")
	assert.Equal(t, "25025", cw["02114"])
}

func TestReadAreaDefinitions(t *testing.T) {
	path := createWorkbook(t, "Sheet1", [][]string{
		{"May 2021 MSA code ", "May 2021 MSA name", "FIPS code", "County code", "Township code"},
		{"10180", "Abilene, TX", "48", "59", ""},
		{"10180", "Abilene, TX", "48", "253", ""},
		{"0100004", "Southeast Alabama nonmetropolitan area", "1", "5", ""},
		{"71650", "Boston-Cambridge-Newton, MA NECTA", "25", "25", "07000"},
		{"71650", "Boston-Cambridge-Newton, MA NECTA", "25", "25", "13205"},
	})

	defs, err := ReadAreaDefinitions(path)
	require.NoError(t, err)
	require.Len(t, defs, 4)

	assert.Equal(t, "C1018", defs[0].Code)
	assert.Equal(t, "48059", defs[0].CountyFIPS)
	assert.False(t, defs[0].NonMetro)

	assert.Equal(t, "100004", defs[2].Code)
	assert.Equal(t, "01005", defs[2].CountyFIPS)
	assert.True(t, defs[2].NonMetro)

	// Township rows collapse onto one county row.
	assert.Equal(t, "C7165", defs[3].Code)
	assert.Equal(t, "25025", defs[3].CountyFIPS)
}

func TestReadAreaDefinitionsMissingColumns(t *testing.T) {
	path := createWorkbook(t, "Sheet1", [][]string{
		{"MSA code", "MSA name"},
		{"10180", "Abilene, TX"},
	})
	_, err := ReadAreaDefinitions(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing columns")
}
