package extract

import (
	"encoding/csv"
	"io"
	"strings"
	"time"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"

	"github.com/sells-group/energy-comms/internal/fetcher"
	"github.com/sells-group/energy-comms/internal/model"
)

var mineColumns = []string{
	"mine_id", "current_mine_name", "current_mine_status", "current_status_dt",
	"coal_metal_ind", "fips_cnty_cd", "latitude", "longitude",
}

// mineRow adds the raw status-date column to the cleaned record shape.
type mineRow struct {
	model.MineRecord
	StatusDt string `csv:"current_status_dt"`
}

// ReadMinesZip decodes the MSHA mines archive, a ZIP holding a single
// Mines.txt member.
func ReadMinesZip(zipPath string) ([]model.MineRecord, error) {
	rc, err := fetcher.OpenZIPSingle(zipPath)
	if err != nil {
		return nil, eris.Wrapf(err, "opening mines archive %s", zipPath)
	}
	defer rc.Close() //nolint:errcheck

	records, err := ReadMines(rc)
	if err != nil {
		return nil, eris.Wrapf(err, "reading mines archive %s", zipPath)
	}
	return records, nil
}

// ReadMines decodes the MSHA mines table: pipe-delimited, latin-1 encoded,
// upper-case headers.
func ReadMines(r io.Reader) ([]model.MineRecord, error) {
	cr := csv.NewReader(charmap.ISO8859_1.NewDecoder().Reader(r))
	cr.Comma = '|'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	rawHeader, err := cr.Read()
	if err != nil {
		return nil, eris.Wrap(err, "reading mines header")
	}
	header := make([]string, len(rawHeader))
	for i, h := range rawHeader {
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}
	if err := model.RequireColumns(header, mineColumns...); err != nil {
		return nil, err
	}

	dec, err := csvutil.NewDecoder(cr, header...)
	if err != nil {
		return nil, eris.Wrap(err, "decoding mines header")
	}

	var out []model.MineRecord
	for {
		var row mineRow
		if err := dec.Decode(&row); err == io.EOF {
			break
		} else if err != nil {
			return nil, eris.Wrap(err, "decoding mines row")
		}
		row.StatusDate = parseMineDate(row.StatusDt)
		out = append(out, row.MineRecord)
	}

	zap.L().With(zap.String("component", "extract")).Info("read mines",
		zap.Int("records", len(out)))
	return out, nil
}

// parseMineDate parses the MSHA status date. The agency publishes
// "mm/dd/yyyy", sometimes with a trailing time component.
func parseMineDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	if datePart, _, ok := strings.Cut(s, " "); ok {
		s = datePart
	}
	t, err := time.Parse("01/02/2006", s)
	if err != nil {
		return time.Time{}
	}
	return t
}
