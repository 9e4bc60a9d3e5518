package extract

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/energy-comms/internal/fetcher"
	"github.com/sells-group/energy-comms/internal/model"
	"github.com/sells-group/energy-comms/internal/transform"
)

// BrownfieldSheet is the tab of the EPA RE-Powering workbook that carries
// the site listing. Matched case-insensitively since the agency renames it
// between releases.
const BrownfieldSheet = "re-powering sites"

var brownfieldColumns = []string{"site name", "zip code", "latitude", "longitude"}

// ReadBrownfields decodes the EPA RE-Powering screening workbook into site
// records. Site names are title-cased and zip codes restored to five digits
// where the spreadsheet stripped leading zeros.
func ReadBrownfields(path string) ([]model.BrownfieldRecord, error) {
	rows, err := fetcher.ReadXLSX(path, fetcher.XLSXOptions{SheetName: BrownfieldSheet})
	if err != nil {
		return nil, eris.Wrapf(err, "opening brownfields workbook %s", path)
	}
	if len(rows) < 2 {
		return nil, eris.Errorf("brownfields workbook %s has no data rows", path)
	}

	cols := make(map[string]int)
	acreIdx := -1
	for i, cell := range rows[0] {
		name := strings.ToLower(strings.TrimSpace(cell))
		for _, want := range brownfieldColumns {
			if name == want {
				cols[want] = i
			}
		}
		if acreIdx < 0 && strings.Contains(name, "acre") {
			acreIdx = i
		}
	}
	var missing []string
	for _, want := range brownfieldColumns {
		if _, ok := cols[want]; !ok {
			missing = append(missing, want)
		}
	}
	if len(missing) > 0 {
		return nil, eris.Errorf("brownfields workbook missing columns: %s", strings.Join(missing, ", "))
	}

	var out []model.BrownfieldRecord
	for _, row := range rows[1:] {
		name := cellValue(row, cols["site name"])
		if name == "" {
			continue
		}
		out = append(out, model.BrownfieldRecord{
			Name:      transform.TitleCase(name),
			ZipCode:   normalizeZip(cellValue(row, cols["zip code"])),
			Latitude:  parseCellFloat(cellValue(row, cols["latitude"])),
			Longitude: parseCellFloat(cellValue(row, cols["longitude"])),
			Acreage:   parseCellFloat(cellValue(row, acreIdx)),
		})
	}

	zap.L().With(zap.String("component", "extract")).Info("read brownfields",
		zap.Int("records", len(out)))
	return out, nil
}

// ReadZipCountyCrosswalk decodes the HUD USPS zip-to-county workbook into a
// zip→county FIPS map. Zips that span counties keep the first listing.
func ReadZipCountyCrosswalk(path string) (map[string]string, error) {
	rows, err := fetcher.ReadXLSX(path, fetcher.XLSXOptions{})
	if err != nil {
		return nil, eris.Wrapf(err, "opening zip crosswalk %s", path)
	}
	if len(rows) < 2 {
		return nil, eris.Errorf("zip crosswalk %s has no data rows", path)
	}

	zipIdx, countyIdx := -1, -1
	for i, cell := range rows[0] {
		switch strings.ToLower(strings.TrimSpace(cell)) {
		case "zip":
			zipIdx = i
		case "county":
			countyIdx = i
		}
	}
	if zipIdx < 0 || countyIdx < 0 {
		return nil, eris.Errorf("zip crosswalk %s missing zip or county column", path)
	}

	out := make(map[string]string)
	for _, row := range rows[1:] {
		zip := normalizeZip(cellValue(row, zipIdx))
		county := cellValue(row, countyIdx)
		if zip == "" || county == "" {
			continue
		}
		if _, ok := out[zip]; !ok {
			out[zip] = county
		}
	}
	return out, nil
}

func normalizeZip(zip string) string {
	zip = strings.TrimSpace(zip)
	if zip == "" {
		return ""
	}
	// Drop ZIP+4 suffixes and restore leading zeros lost to numeric cells.
	if base, _, ok := strings.Cut(zip, "-"); ok {
		zip = base
	}
	for len(zip) < 5 {
		zip = "0" + zip
	}
	return zip
}

func parseCellFloat(s string) float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
