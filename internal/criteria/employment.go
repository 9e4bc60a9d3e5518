package criteria

import (
	"context"
	"runtime"
	"sort"
	"strconv"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/energy-comms/internal/crosswalk"
	"github.com/sells-group/energy-comms/internal/model"
	"github.com/sells-group/energy-comms/internal/monitoring"
	"github.com/sells-group/energy-comms/internal/transform"
)

// FossilEmploymentThreshold is the IRA employment-share cutoff: an area
// qualifies when its fossil share of total employment strictly exceeds
// 0.17%, expressed here as a fraction.
const FossilEmploymentThreshold = 0.0017

// EmploymentEvaluator qualifies counties under the statutory employment
// criterion: a fossil employment share above the threshold in some year,
// combined with a local unemployment rate at or above the prior-year
// national average for that same year.
type EmploymentEvaluator struct {
	cw          *crosswalk.Crosswalk
	fossilNAICS map[string]bool
	threshold   float64
	collector   *monitoring.Collector
	log         *zap.Logger
}

// NewEmploymentEvaluator builds an evaluator. The NAICS code list is
// injected because its valid members change across NAICS revisions.
func NewEmploymentEvaluator(cw *crosswalk.Crosswalk, fossilNAICS []string, threshold float64, collector *monitoring.Collector) *EmploymentEvaluator {
	if threshold == 0 {
		threshold = FossilEmploymentThreshold
	}
	return &EmploymentEvaluator{
		cw:          cw,
		fossilNAICS: transform.NAICSSet(fossilNAICS),
		threshold:   threshold,
		collector:   collector,
		log:         zap.L().With(zap.String("component", "criteria.employment")),
	}
}

// fossilCounty is a county-year reached by expanding a qualifying MSA or
// nonmetropolitan group.
type fossilCounty struct {
	countyFIPS string
	year       int
	areaCode   string
	areaTitle  string
}

// fossilArea accumulates the per-area-year employment sums.
type fossilArea struct {
	code   string
	title  string
	total  float64
	fossil float64
	// hasTotal distinguishes a zero total from an absent one.
	hasTotal bool
}

// Evaluate runs both halves of the employment criterion and intersects them
// on (county, year). QCEW records may span multiple years; years are
// evaluated independently and concurrently.
func (e *EmploymentEvaluator) Evaluate(ctx context.Context, qcew []model.QCEWRecord, national, local []model.SeriesObservation) ([]model.QualifyingRecord, error) {
	fossil, err := e.fossilCounties(ctx, qcew)
	if err != nil {
		return nil, err
	}
	natl := NationalAnnualAverages(national)
	unemployed := e.unemploymentQualifiers(local, natl)

	var out []model.QualifyingRecord
	seen := make(map[string]bool)
	for _, fc := range fossil {
		if !unemployed[countyYearKey(fc.countyFIPS, fc.year)] {
			continue
		}
		if seen[fc.countyFIPS] {
			continue
		}
		seen[fc.countyFIPS] = true
		out = append(out, model.QualifyingRecord{
			GeoID:      fc.countyFIPS,
			GeoLevel:   model.LevelCounty,
			Criterion:  model.CriterionFossilEmployment,
			AreaType:   model.AreaMSAOrNonMSA,
			SiteName:   fc.areaTitle,
			Year:       fc.year,
			CountyFIPS: fc.countyFIPS,
		})
	}

	e.log.Info("employment evaluation complete",
		zap.Int("fossil_county_years", len(fossil)),
		zap.Int("qualifying_counties", len(out)))
	return out, nil
}

// fossilCounties computes the fossil-share test per area-year and expands
// qualifying areas to member counties, ordered by year then area code.
func (e *EmploymentEvaluator) fossilCounties(ctx context.Context, qcew []model.QCEWRecord) ([]fossilCounty, error) {
	byYear := make(map[int][]model.QCEWRecord)
	for _, r := range qcew {
		byYear[r.Year] = append(byYear[r.Year], r)
	}
	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)

	results := make(map[int][]fossilCounty, len(years))
	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, year := range years {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			counties := e.fossilCountiesForYear(year, byYear[year])
			mu.Lock()
			results[year] = counties
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []fossilCounty
	for _, y := range years {
		out = append(out, results[y]...)
	}
	return out, nil
}

func (e *EmploymentEvaluator) fossilCountiesForYear(year int, records []model.QCEWRecord) []fossilCounty {
	areas := make(map[string]*fossilArea)
	var order []string
	get := func(code, title string) *fossilArea {
		a, ok := areas[code]
		if !ok {
			a = &fossilArea{code: code, title: title}
			areas[code] = a
			order = append(order, code)
		}
		return a
	}

	orphaned := make(map[string]bool)
	for _, r := range records {
		var code, title string
		if transform.IsQCEWMSAArea(r.AreaFIPS) {
			code = r.AreaFIPS
			title = r.AreaTitle
		} else {
			// A bare county row rolls up to its nonmetropolitan group;
			// counties delineated into an MSA are already covered by the
			// MSA rows and are skipped here. A county in neither crosswalk
			// is an orphan, surfaced once per year.
			county := transform.NormalizeQCEWArea(r.AreaFIPS)
			code = e.cw.GroupForCounty(county)
			if code == "" {
				if !e.cw.IsMSACounty(county) && !orphaned[county] {
					orphaned[county] = true
					e.collector.RecordOrphan(county)
				}
				continue
			}
			title = e.cw.NonMSATitle(code)
		}
		a := get(code, title)
		if r.IndustryCode == transform.TotalIndustryCode && r.OwnCode == transform.TotalOwnershipCode {
			a.total += r.AnnualAvgEmp
			a.hasTotal = true
		}
		if e.fossilNAICS[r.IndustryCode] {
			a.fossil += r.AnnualAvgEmp
		}
	}

	var out []fossilCounty
	for _, code := range order {
		a := areas[code]
		if a.fossil > 0 && !a.hasTotal {
			e.collector.Inc(monitoring.FossilWithoutTotal)
			e.log.Warn("area has fossil employment but no total employment row",
				zap.String("area", code), zap.Int("year", year))
		}
		if !a.hasTotal || a.total == 0 {
			if a.hasTotal {
				e.collector.Inc(monitoring.DegenerateRatio)
			}
			continue
		}
		if a.fossil/a.total <= e.threshold {
			continue
		}

		var counties []string
		if transform.IsQCEWMSAArea(code) {
			counties = e.cw.MSACounties(code, e.collector)
		} else {
			counties = e.cw.NonMSACounties(code, e.collector)
		}
		for _, county := range counties {
			out = append(out, fossilCounty{
				countyFIPS: county,
				year:       year,
				areaCode:   code,
				areaTitle:  a.title,
			})
		}
	}
	return out
}

func countyYearKey(fips string, year int) string {
	return fips + "|" + strconv.Itoa(year)
}
