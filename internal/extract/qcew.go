// Package extract reads the upstream agency files into typed records. Each
// reader validates the columns it needs up front and fails fast on drift.
package extract

import (
	"archive/zip"
	"encoding/csv"
	"io"
	"path"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/energy-comms/internal/model"
)

var qcewColumns = []string{"area_fips", "own_code", "industry_code", "year", "annual_avg_emplvl"}

// ReadQCEW decodes one QCEW annual-by-area CSV. areaTitle fills the title
// column when the file does not carry one; the by-area files encode the
// title in the filename instead.
func ReadQCEW(r io.Reader, areaTitle string) ([]model.QCEWRecord, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	dec, err := csvutil.NewDecoder(cr)
	if err != nil {
		return nil, eris.Wrap(err, "reading QCEW header")
	}
	if err := model.RequireColumns(dec.Header(), qcewColumns...); err != nil {
		return nil, err
	}

	var out []model.QCEWRecord
	for {
		var rec model.QCEWRecord
		if err := dec.Decode(&rec); err == io.EOF {
			break
		} else if err != nil {
			return nil, eris.Wrap(err, "decoding QCEW row")
		}
		rec.AreaFIPS = strings.TrimSpace(rec.AreaFIPS)
		if rec.AreaTitle == "" {
			rec.AreaTitle = areaTitle
		}
		out = append(out, rec)
	}
	return out, nil
}

// ReadQCEWZip decodes every CSV inside a QCEW annual-by-area archive. Area
// titles come from the member filenames, which follow the
// "<year>.annual <area_fips> <area title>.csv" convention.
func ReadQCEWZip(zipPath string) ([]model.QCEWRecord, error) {
	archive, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, eris.Wrapf(err, "opening QCEW archive %s", zipPath)
	}
	defer archive.Close()

	var out []model.QCEWRecord
	for _, f := range archive.File {
		if !strings.HasSuffix(strings.ToLower(f.Name), ".csv") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, eris.Wrapf(err, "opening QCEW member %s", f.Name)
		}
		records, err := ReadQCEW(rc, qcewTitleFromName(f.Name))
		rc.Close()
		if err != nil {
			return nil, eris.Wrapf(err, "reading QCEW member %s", f.Name)
		}
		out = append(out, records...)
	}

	zap.L().With(zap.String("component", "extract")).Info("read QCEW archive",
		zap.String("file", path.Base(zipPath)),
		zap.Int("records", len(out)))
	return out, nil
}

// qcewTitleFromName recovers the area title from a by-area member filename.
func qcewTitleFromName(name string) string {
	base := strings.TrimSuffix(path.Base(name), ".csv")
	idx := strings.Index(base, ".annual ")
	if idx < 0 {
		return ""
	}
	rest := base[idx+len(".annual "):]
	if _, title, ok := strings.Cut(rest, " "); ok {
		return title
	}
	return ""
}
