// Package crosswalk maps BLS metropolitan and nonmetropolitan area codes to
// their member counties.
package crosswalk

import (
	"sort"

	"go.uber.org/zap"

	"github.com/sells-group/energy-comms/internal/model"
	"github.com/sells-group/energy-comms/internal/monitoring"
)

// DefaultMSACorrections rewrites retired New England NECTA division codes
// to the metropolitan areas that replaced them in the 2023 delineations.
var DefaultMSACorrections = map[string]string{
	"C7090": "C1446", // Boston-Cambridge-Newton NECTA division
	"C7645": "C3980", // Springfield NECTA
	"C7465": "C3930", // Providence-Warwick NECTA
	"C7165": "C2554", // Hartford NECTA
	"C7565": "C3534", // New Haven NECTA
	"C7555": "C3598", // New Bedford NECTA
	"C7875": "C4964", // Worcester NECTA
}

// Crosswalk resolves area codes to county membership. MSA and non-MSA
// memberships are mutually exclusive: a county delineated into any MSA is
// removed from nonmetropolitan groups before lookup.
type Crosswalk struct {
	msaCounties    map[string][]string
	msaTitles      map[string]string
	nonMSACounties map[string][]string
	nonMSATitles   map[string]string
	countyToGroup  map[string]string
	msaMember      map[string]bool
	corrections    map[string]string
}

// Build assembles a crosswalk from area definition rows. A county listed in
// several nonmetropolitan groups keeps its first listing; later listings are
// counted and dropped.
func Build(defs []model.AreaDefinition, corrections map[string]string, collector *monitoring.Collector) *Crosswalk {
	if corrections == nil {
		corrections = DefaultMSACorrections
	}
	cw := &Crosswalk{
		msaCounties:    make(map[string][]string),
		msaTitles:      make(map[string]string),
		nonMSACounties: make(map[string][]string),
		nonMSATitles:   make(map[string]string),
		countyToGroup:  make(map[string]string),
		msaMember:      make(map[string]bool),
		corrections:    corrections,
	}

	msaMember := cw.msaMember
	for _, d := range defs {
		if d.NonMetro {
			continue
		}
		code := cw.canonicalMSA(d.Code)
		cw.msaCounties[code] = append(cw.msaCounties[code], d.CountyFIPS)
		if cw.msaTitles[code] == "" {
			cw.msaTitles[code] = d.Title
		}
		msaMember[d.CountyFIPS] = true
	}

	for _, d := range defs {
		if !d.NonMetro {
			continue
		}
		if msaMember[d.CountyFIPS] {
			continue
		}
		if prev, ok := cw.countyToGroup[d.CountyFIPS]; ok {
			if prev != d.Code {
				collector.Inc(monitoring.SplitNonMSACounty)
			}
			continue
		}
		cw.countyToGroup[d.CountyFIPS] = d.Code
		cw.nonMSACounties[d.Code] = append(cw.nonMSACounties[d.Code], d.CountyFIPS)
		if cw.nonMSATitles[d.Code] == "" {
			cw.nonMSATitles[d.Code] = d.Title
		}
	}

	for _, m := range [2]map[string][]string{cw.msaCounties, cw.nonMSACounties} {
		for _, counties := range m {
			sort.Strings(counties)
		}
	}

	zap.L().With(zap.String("component", "crosswalk")).Info("crosswalk built",
		zap.Int("msas", len(cw.msaCounties)),
		zap.Int("non_msa_groups", len(cw.nonMSACounties)))
	return cw
}

func (c *Crosswalk) canonicalMSA(code string) string {
	if fixed, ok := c.corrections[code]; ok {
		return fixed
	}
	return code
}

// MSACounties returns the member counties of an MSA code, NECTA corrections
// applied. An unknown code is recorded as an orphan and returns nil.
func (c *Crosswalk) MSACounties(code string, collector *monitoring.Collector) []string {
	counties, ok := c.msaCounties[c.canonicalMSA(code)]
	if !ok {
		collector.RecordOrphan(code)
		return nil
	}
	return counties
}

// NonMSACounties returns the member counties of a nonmetropolitan group
// code. An unknown code is recorded as an orphan and returns nil.
func (c *Crosswalk) NonMSACounties(code string, collector *monitoring.Collector) []string {
	counties, ok := c.nonMSACounties[code]
	if !ok {
		collector.RecordOrphan(code)
		return nil
	}
	return counties
}

// MSATitle returns the recorded title for an MSA code, or "".
func (c *Crosswalk) MSATitle(code string) string {
	return c.msaTitles[c.canonicalMSA(code)]
}

// NonMSATitle returns the recorded title for a nonmetropolitan group code.
func (c *Crosswalk) NonMSATitle(code string) string {
	return c.nonMSATitles[code]
}

// GroupForCounty returns the nonmetropolitan group a county belongs to,
// or "" when the county is delineated into an MSA or unknown.
func (c *Crosswalk) GroupForCounty(countyFIPS string) string {
	return c.countyToGroup[countyFIPS]
}

// IsMSACounty reports whether the county belongs to any MSA.
func (c *Crosswalk) IsMSACounty(countyFIPS string) bool {
	return c.msaMember[countyFIPS]
}

// NonMSAGroups returns every nonmetropolitan group code, sorted.
func (c *Crosswalk) NonMSAGroups() []string {
	codes := make([]string, 0, len(c.nonMSACounties))
	for code := range c.nonMSACounties {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
