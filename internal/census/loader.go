package census

import (
	"path/filepath"
	"strings"

	"github.com/ctessum/geom"
	shp "github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/energy-comms/internal/model"
)

// Shapefile names for the 2010 cartographic boundary vintage. Tract and
// county qualification is pinned to the 2010 Census geography.
const (
	StateShapefile  = "cb_2018_us_state_500k.shp"
	CountyShapefile = "census_county_2010.shp"
	TractShapefile  = "census_tract_2010.shp"
)

var loaderLog = func() *zap.Logger { return zap.L().With(zap.String("component", "census")) }

// LoadLayer reads a polygon shapefile into an indexed Layer. The attribute
// table must carry a GEOID column and a name column; TIGER 2010 files suffix
// these with "10", cartographic boundary files call it GEO_ID, and the
// loader accepts any of the forms.
func LoadLayer(path string, level model.GeoLevel) (*Layer, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "opening %s shapefile %s", level, path)
	}
	defer reader.Close()

	geoidIdx := fieldIndex(reader, "GEOID10", "GEOID", "GEO_ID")
	nameIdx := fieldIndex(reader, "NAMELSAD10", "NAMELSAD", "NAME10", "NAME")
	if geoidIdx < 0 || nameIdx < 0 {
		return nil, eris.Errorf("shapefile %s is missing GEOID or name columns", path)
	}

	var geos []model.GeoUnit
	for reader.Next() {
		n, shape := reader.Shape()
		poly := toPolygon(shape)
		if poly == nil {
			continue
		}
		geos = append(geos, model.GeoUnit{
			Level:    level,
			FIPS:     bareGEOID(strings.TrimSpace(reader.ReadAttribute(n, geoidIdx))),
			Name:     strings.TrimSpace(reader.ReadAttribute(n, nameIdx)),
			Geometry: poly,
		})
	}
	if err := reader.Err(); err != nil {
		return nil, eris.Wrapf(err, "reading %s shapefile %s", level, path)
	}
	if len(geos) == 0 {
		return nil, eris.Errorf("shapefile %s contains no polygon records", path)
	}

	loaderLog().Info("loaded boundary layer",
		zap.String("level", string(level)),
		zap.String("file", filepath.Base(path)),
		zap.Int("records", len(geos)))
	return NewLayer(level, geos), nil
}

// LoadStates reads the state boundary file, which additionally carries the
// postal abbreviation column.
func LoadStates(path string) (*Layer, map[string]model.StateInfo, error) {
	layer, err := LoadLayer(path, model.LevelState)
	if err != nil {
		return nil, nil, err
	}

	reader, err := shp.Open(path)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "opening state shapefile %s", path)
	}
	defer reader.Close()

	geoidIdx := fieldIndex(reader, "GEOID10", "GEOID", "STATEFP10", "STATEFP")
	nameIdx := fieldIndex(reader, "NAME10", "NAME")
	abbrIdx := fieldIndex(reader, "STUSPS10", "STUSPS")
	if geoidIdx < 0 || nameIdx < 0 || abbrIdx < 0 {
		return nil, nil, eris.Errorf("state shapefile %s is missing identity columns", path)
	}

	states := make(map[string]model.StateInfo)
	for reader.Next() {
		n, _ := reader.Shape()
		fips := bareGEOID(strings.TrimSpace(reader.ReadAttribute(n, geoidIdx)))
		states[fips] = model.StateInfo{
			FIPS: fips,
			Name: strings.TrimSpace(reader.ReadAttribute(n, nameIdx)),
			Abbr: strings.TrimSpace(reader.ReadAttribute(n, abbrIdx)),
		}
	}
	if err := reader.Err(); err != nil {
		return nil, nil, eris.Wrapf(err, "reading state shapefile %s", path)
	}
	return layer, states, nil
}

// bareGEOID strips the summary-level prefix from cartographic boundary
// identifiers. "1400000US48059950100" becomes "48059950100"; TIGER GEOID10
// values are already bare and pass through.
func bareGEOID(v string) string {
	if _, after, ok := strings.Cut(v, "US"); ok {
		return after
	}
	return v
}

func fieldIndex(reader *shp.Reader, names ...string) int {
	for i, f := range reader.Fields() {
		col := strings.ToUpper(strings.TrimRight(f.String(), "\x00"))
		for _, want := range names {
			if col == want {
				return i
			}
		}
	}
	return -1
}

// toPolygon converts a shapefile polygon to a geom.Polygon, one ring per
// part. Returns nil for non-polygon shapes.
func toPolygon(shape shp.Shape) geom.Polygon {
	sp, ok := shape.(*shp.Polygon)
	if !ok {
		return nil
	}
	poly := make(geom.Polygon, 0, len(sp.Parts))
	for p, start := range sp.Parts {
		end := len(sp.Points)
		if p+1 < len(sp.Parts) {
			end = int(sp.Parts[p+1])
		}
		ring := make([]geom.Point, 0, end-int(start))
		for _, pt := range sp.Points[start:end] {
			ring = append(ring, geom.Point{X: pt.X, Y: pt.Y})
		}
		poly = append(poly, ring)
	}
	return poly
}

// Geometries holds the loaded boundary layers for a run.
type Geometries struct {
	layers map[model.GeoLevel]*Layer
	states map[string]model.StateInfo
}

// NewGeometries assembles a Geometries from already-built layers.
func NewGeometries(states map[string]model.StateInfo, layers ...*Layer) *Geometries {
	g := &Geometries{
		layers: make(map[model.GeoLevel]*Layer, len(layers)),
		states: states,
	}
	for _, l := range layers {
		g.layers[l.Level()] = l
	}
	return g
}

// Load reads the requested levels from dir. The state layer is always
// loaded so that records can carry state identity.
func Load(dir string, levels ...model.GeoLevel) (*Geometries, error) {
	g := &Geometries{layers: make(map[model.GeoLevel]*Layer)}

	stateLayer, states, err := LoadStates(filepath.Join(dir, StateShapefile))
	if err != nil {
		return nil, err
	}
	g.layers[model.LevelState] = stateLayer
	g.states = states

	for _, level := range levels {
		var file string
		switch level {
		case model.LevelState:
			continue
		case model.LevelCounty:
			file = CountyShapefile
		case model.LevelTract:
			file = TractShapefile
		default:
			return nil, eris.Errorf("no shapefile mapping for level %q", level)
		}
		layer, err := LoadLayer(filepath.Join(dir, file), level)
		if err != nil {
			return nil, err
		}
		g.layers[level] = layer
	}
	return g, nil
}

// Layer returns the loaded layer for a level, or nil.
func (g *Geometries) Layer(level model.GeoLevel) *Layer {
	if g == nil {
		return nil
	}
	return g.layers[level]
}

// State returns the state identity for a 2-digit FIPS prefix.
func (g *Geometries) State(fips string) (model.StateInfo, bool) {
	s, ok := g.states[fips]
	return s, ok
}
