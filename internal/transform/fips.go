package transform

import (
	"fmt"
	"strings"

	"github.com/sells-group/energy-comms/internal/model"
)

// NormalizeStateFIPS zero-pads a state FIPS code to 2 digits.
func NormalizeStateFIPS(code string) string {
	return leftPad(code, 2)
}

// NormalizeCountyFIPS zero-pads a bare county FIPS fragment to 3 digits.
func NormalizeCountyFIPS(code string) string {
	return leftPad(code, 3)
}

// CombineFIPS joins state and county fragments into a full 5-digit county
// FIPS code. Either part empty yields "".
func CombineFIPS(state, county string) string {
	s := NormalizeStateFIPS(state)
	c := NormalizeCountyFIPS(county)
	if s == "" || c == "" {
		return ""
	}
	return s + c
}

// PadGeoID zero-pads a geographic id to the fixed width of its level.
// Padding widths vary by level (2/5/11); ids are never truncated.
func PadGeoID(id string, level model.GeoLevel) string {
	return leftPad(id, level.FIPSWidth())
}

// FormatFIPS formats a numeric code with fixed-width zero padding.
func FormatFIPS(code, digits int) string {
	return fmt.Sprintf("%0*d", digits, code)
}

// StatePrefix returns the 2-digit state prefix of a county or tract FIPS.
func StatePrefix(fips string) string {
	if len(fips) < 2 {
		return ""
	}
	return fips[:2]
}

// CountyPrefix returns the 5-digit county prefix of a county or tract FIPS.
func CountyPrefix(fips string) string {
	if len(fips) < 5 {
		return ""
	}
	return fips[:5]
}

// NormalizeQCEWArea converts a QCEW area_fips value to the geoid scheme used
// by the Census crosswalks: county codes are zero-padded to 5 digits, MSA
// codes ("C1018") lose their prefix and gain a trailing zero ("10180").
func NormalizeQCEWArea(areaFIPS string) string {
	code := strings.TrimSpace(areaFIPS)
	if code == "" {
		return ""
	}
	if strings.HasPrefix(code, "C") {
		return strings.TrimPrefix(code, "C") + "0"
	}
	return leftPad(code, 5)
}

// IsQCEWMSAArea reports whether a QCEW area_fips value denotes a
// metropolitan statistical area rather than a county.
func IsQCEWMSAArea(areaFIPS string) bool {
	return strings.HasPrefix(strings.TrimSpace(areaFIPS), "C")
}

func leftPad(code string, width int) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	for len(code) < width {
		code = "0" + code
	}
	return code
}
