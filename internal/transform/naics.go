package transform

import "strings"

// FossilNAICSCodes is the May 2021 revision of the NAICS codes counted as
// fossil-fuel-related employment: coal mining, oil and gas extraction,
// support activities for mining, pipeline construction and transport,
// petroleum merchant wholesalers, and fossil-fuel electric power generation.
// NAICS revisions change valid code values, so the list is injected through
// configuration; this is the default.
var FossilNAICSCodes = []string{
	"2121",  // Coal Mining
	"211",   // Oil and Gas Extraction
	"213",   // Support Activities for Mining
	"23712", // Oil and Gas Pipeline Construction
	"486",   // Pipeline Transportation
	"4247",  // Petroleum Merchant Wholesalers
	"22112", // Fossil Fuel Electric Power Generation
}

// TotalIndustryCode is the QCEW industry code for the total across all
// industries.
const TotalIndustryCode = "10"

// TotalOwnershipCode is the QCEW ownership code covering all sectors.
const TotalOwnershipCode = 0

// NAICSSet builds a membership set from a configured code list. Matching is
// exact: QCEW reports each aggregation level as its own industry_code value,
// so a prefix match would double-count nested levels.
func NAICSSet(codes []string) map[string]bool {
	set := make(map[string]bool, len(codes))
	for _, code := range codes {
		code = strings.TrimSpace(code)
		if code != "" {
			set[code] = true
		}
	}
	return set
}
