package extract

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/energy-comms/internal/model"
)

// seriesRow mirrors the BLS flat-file layout. Values arrive as padded text
// and may be "-" when the agency withheld the observation.
type seriesRow struct {
	SeriesID  string `csv:"series_id"`
	Year      int    `csv:"year"`
	Period    string `csv:"period"`
	Value     string `csv:"value"`
	Footnotes string `csv:"footnote_codes"`
}

var seriesColumns = []string{"series_id", "year", "period", "value"}

// ReadSeriesFile decodes a BLS tab-separated time-series file (the la.data
// and CPS download formats). Rows with a non-numeric value are skipped; the
// annual-average M13 rows are kept for the caller to filter.
func ReadSeriesFile(r io.Reader) ([]model.SeriesObservation, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.TrimLeadingSpace = true

	// The agency pads header fields with trailing whitespace, so the header
	// row is trimmed by hand before decoding.
	rawHeader, err := cr.Read()
	if err != nil {
		return nil, eris.Wrap(err, "reading series header")
	}
	header := make([]string, len(rawHeader))
	for i, h := range rawHeader {
		header[i] = strings.TrimSpace(h)
	}
	if err := model.RequireColumns(header, seriesColumns...); err != nil {
		return nil, err
	}
	dec, err := csvutil.NewDecoder(cr, header...)
	if err != nil {
		return nil, eris.Wrap(err, "preparing series decoder")
	}

	var out []model.SeriesObservation
	skipped := 0
	for {
		var row seriesRow
		if err := dec.Decode(&row); err == io.EOF {
			break
		} else if err != nil {
			return nil, eris.Wrap(err, "decoding series row")
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(row.Value), 64)
		if err != nil {
			skipped++
			continue
		}
		out = append(out, model.SeriesObservation{
			SeriesID: strings.TrimSpace(row.SeriesID),
			Year:     row.Year,
			Period:   strings.TrimSpace(row.Period),
			Value:    value,
		})
	}

	if skipped > 0 {
		zap.L().With(zap.String("component", "extract")).Debug("skipped withheld series values",
			zap.Int("rows", skipped))
	}
	return out, nil
}
