package extract

import (
	"encoding/csv"
	"io"
	"strings"
	"time"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/energy-comms/internal/model"
)

var generatorColumns = []string{
	"plant_id_eia", "generator_id", "operational_status", "report_date", "latitude", "longitude",
}

// generatorRow adds the raw date columns to the cleaned record shape.
type generatorRow struct {
	model.GeneratorRecord
	ReportDt     string `csv:"report_date"`
	RetirementDt string `csv:"retirement_date"`
}

// ReadGenerators decodes a CSV export of the PUDL EIA-860 generators table.
// Dates arrive as ISO "2013-01-01"; the retirement date is empty for
// operating units.
func ReadGenerators(r io.Reader) ([]model.GeneratorRecord, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	dec, err := csvutil.NewDecoder(cr)
	if err != nil {
		return nil, eris.Wrap(err, "reading generators header")
	}
	if err := model.RequireColumns(dec.Header(), generatorColumns...); err != nil {
		return nil, err
	}

	var out []model.GeneratorRecord
	for {
		var row generatorRow
		if err := dec.Decode(&row); err == io.EOF {
			break
		} else if err != nil {
			return nil, eris.Wrap(err, "decoding generators row")
		}
		row.ReportDate = parseISODate(row.ReportDt)
		row.RetirementDate = parseISODate(row.RetirementDt)
		out = append(out, row.GeneratorRecord)
	}

	zap.L().With(zap.String("component", "extract")).Info("read generators",
		zap.Int("records", len(out)))
	return out, nil
}

func parseISODate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	if datePart, _, ok := strings.Cut(s, " "); ok {
		s = datePart
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}
	}
	return t
}
