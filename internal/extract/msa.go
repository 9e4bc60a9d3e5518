package extract

import (
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/energy-comms/internal/fetcher"
	"github.com/sells-group/energy-comms/internal/model"
	"github.com/sells-group/energy-comms/internal/transform"
)

var areaDefColumns = []string{"msa code", "msa name", "fips code", "county code"}

// ReadAreaDefinitions decodes the BLS OES area-definitions workbook into
// crosswalk rows. MSA codes are normalized to the QCEW "C" convention and
// nonmetropolitan group codes keep the agency form with leading zeros
// stripped. Township-level rows collapse onto their county.
func ReadAreaDefinitions(path string) ([]model.AreaDefinition, error) {
	rows, err := fetcher.ReadXLSX(path, fetcher.XLSXOptions{})
	if err != nil {
		return nil, eris.Wrapf(err, "opening area definitions %s", path)
	}
	if len(rows) < 2 {
		return nil, eris.Errorf("area definitions %s has no data rows", path)
	}

	cols, err := areaDefIndexes(rows[0])
	if err != nil {
		return nil, err
	}

	var out []model.AreaDefinition
	seen := make(map[string]bool)
	for _, row := range rows[1:] {
		code := cellValue(row, cols["msa code"])
		title := cellValue(row, cols["msa name"])
		state := transform.NormalizeStateFIPS(cellValue(row, cols["fips code"]))
		county := transform.NormalizeCountyFIPS(cellValue(row, cols["county code"]))
		if code == "" || state == "" || county == "" {
			continue
		}
		def := model.AreaDefinition{
			Title:      title,
			CountyFIPS: state + county,
			NonMetro:   strings.Contains(strings.ToLower(title), "nonmetropolitan"),
		}
		if def.NonMetro {
			def.Code = strings.TrimLeft(code, "0")
		} else {
			def.Code = msaCodeFromCensus(code)
		}
		// New England areas list one row per township; one county row is
		// enough.
		key := def.Code + "|" + def.CountyFIPS
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, def)
	}

	zap.L().With(zap.String("component", "extract")).Info("read area definitions",
		zap.Int("rows", len(out)))
	return out, nil
}

// msaCodeFromCensus converts a census-form MSA code ("10180") to the QCEW
// convention ("C1018").
func msaCodeFromCensus(code string) string {
	if strings.HasPrefix(code, "C") {
		return code
	}
	if len(code) == 5 && strings.HasSuffix(code, "0") {
		return "C" + code[:4]
	}
	return code
}

func areaDefIndexes(header []string) (map[string]int, error) {
	cols := make(map[string]int)
	for i, cell := range header {
		name := strings.ToLower(strings.TrimSpace(cell))
		for _, want := range areaDefColumns {
			// The published headers carry vintage prefixes such as
			// "May 2021 MSA code", so match on the stable suffix.
			if strings.HasSuffix(name, want) {
				cols[want] = i
			}
		}
	}
	missing := make([]string, 0)
	for _, want := range areaDefColumns {
		if _, ok := cols[want]; !ok {
			missing = append(missing, want)
		}
	}
	if len(missing) > 0 {
		return nil, eris.Errorf("area definitions missing columns: %s", strings.Join(missing, ", "))
	}
	return cols, nil
}

func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
