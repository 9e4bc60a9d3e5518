package criteria

import (
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/sells-group/energy-comms/internal/model"
	"github.com/sells-group/energy-comms/internal/monitoring"
	"github.com/sells-group/energy-comms/internal/transform"
)

// NationalAnnualAverages computes the national average unemployment rate per
// year from the monthly CPS series and keys it by the criteria year it
// applies to. The statute compares against the previous year's national
// average, so the average computed over year N is stored under N+1. Rates
// are rounded to one decimal to match the published figures.
func NationalAnnualAverages(obs []model.SeriesObservation) map[int]float64 {
	sums := make(map[int]float64)
	counts := make(map[int]int)
	for _, o := range obs {
		if !o.Monthly() {
			continue
		}
		sums[o.Year] += o.Value
		counts[o.Year]++
	}
	out := make(map[int]float64, len(sums))
	for year, sum := range sums {
		out[year+1] = math.Round(sum/float64(counts[year])*10) / 10
	}
	return out
}

// localRate is one area-year local unemployment observation after annual
// averaging.
type localRate struct {
	year int
	rate float64
}

// unemploymentQualifiers returns the set of county-years whose local rate is
// at or above the applicable national average. MSA series expand to member
// counties through the crosswalk; county series roll up to their
// nonmetropolitan group before the rate is computed.
func (e *EmploymentEvaluator) unemploymentQualifiers(obs []model.SeriesObservation, national map[int]float64) map[string]bool {
	type msaYear struct {
		code string
		year int
	}
	type groupYear struct {
		group string
		year  int
	}
	type groupSums struct {
		unemployed float64
		laborForce float64
	}

	msaSums := make(map[msaYear]float64)
	msaCounts := make(map[msaYear]int)
	groups := make(map[groupYear]*groupSums)
	groupCounties := make(map[string]map[string]bool)
	orphaned := make(map[string]bool)

	for _, o := range obs {
		if !o.Monthly() {
			continue
		}
		series, err := transform.ParseSeriesID(o.SeriesID)
		if err != nil {
			continue
		}
		switch {
		case series.AreaType == "metropolitan_stat_area" && series.Measure == transform.MeasureUnemploymentRate:
			k := msaYear{code: series.MSACode, year: o.Year}
			msaSums[k] += o.Value
			msaCounts[k]++
		case series.AreaType == "county":
			group := e.cw.GroupForCounty(series.CountyFIPS)
			if group == "" {
				// MSA-member counties are covered by the MSA series; a
				// county in neither crosswalk is an orphan, surfaced once.
				if !e.cw.IsMSACounty(series.CountyFIPS) && !orphaned[series.CountyFIPS] {
					orphaned[series.CountyFIPS] = true
					e.collector.RecordOrphan(series.CountyFIPS)
				}
				continue
			}
			k := groupYear{group: group, year: o.Year}
			s, ok := groups[k]
			if !ok {
				s = &groupSums{}
				groups[k] = s
			}
			switch series.Measure {
			case transform.MeasureUnemployment:
				s.unemployed += o.Value
			case transform.MeasureLaborForce:
				s.laborForce += o.Value
			}
			if groupCounties[group] == nil {
				groupCounties[group] = make(map[string]bool)
			}
			groupCounties[group][series.CountyFIPS] = true
		}
	}

	qualifies := make(map[string]bool)
	mark := func(counties []string, year int, rate float64) {
		natl, ok := national[year]
		if !ok || rate < natl {
			return
		}
		for _, c := range counties {
			qualifies[countyYearKey(c, year)] = true
		}
	}

	for k, sum := range msaSums {
		rate := math.Round(sum/float64(msaCounts[k])*10) / 10
		counties := e.cw.MSACounties(k.code, e.collector)
		mark(counties, k.year, rate)
	}

	for k, s := range groups {
		if s.laborForce == 0 {
			e.collector.Inc(monitoring.DegenerateRatio)
			continue
		}
		// Group rate follows the agency truncation convention: three
		// decimals on the fraction, floored, then a percentage.
		rate := math.Floor(s.unemployed/s.laborForce*1000) / 10
		counties := make([]string, 0, len(groupCounties[k.group]))
		for c := range groupCounties[k.group] {
			counties = append(counties, c)
		}
		sort.Strings(counties)
		mark(counties, k.year, rate)
	}

	e.log.Debug("unemployment qualifiers computed",
		zap.Int("msa_area_years", len(msaSums)),
		zap.Int("non_msa_group_years", len(groups)),
		zap.Int("qualifying_county_years", len(qualifies)))
	return qualifies
}
