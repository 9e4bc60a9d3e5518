package model

import (
	"github.com/ctessum/geom"
	"github.com/rotisserie/eris"
)

// GeoLevel identifies a Census geography resolution.
type GeoLevel string

const (
	LevelState  GeoLevel = "state"
	LevelCounty GeoLevel = "county"
	LevelTract  GeoLevel = "tract"
)

// ParseGeoLevel validates a user-supplied geography level.
func ParseGeoLevel(s string) (GeoLevel, error) {
	switch GeoLevel(s) {
	case LevelState, LevelCounty, LevelTract:
		return GeoLevel(s), nil
	}
	return "", eris.Errorf("model: invalid geography level %q (want state, county, or tract)", s)
}

// FIPSWidth returns the fixed digit width of a FIPS code at this level.
func (l GeoLevel) FIPSWidth() int {
	switch l {
	case LevelState:
		return 2
	case LevelCounty:
		return 5
	case LevelTract:
		return 11
	}
	return 0
}

// GeoUnit is an immutable geographic reference from the Census geometry
// source. Units are uniquely identified by (Level, FIPS) and never mutated
// after load.
type GeoUnit struct {
	Level    GeoLevel
	FIPS     string
	Name     string
	Geometry geom.Polygonal
}

// StateInfo carries the identity columns of the state reference table.
type StateInfo struct {
	FIPS string
	Name string
	Abbr string
}
