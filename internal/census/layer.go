// Package census loads TIGER/Line cartographic boundaries into memory and
// answers point-in-polygon and adjacency queries against them.
package census

import (
	"sort"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
	"go.uber.org/zap"

	"github.com/sells-group/energy-comms/internal/model"
	"github.com/sells-group/energy-comms/internal/monitoring"
)

// unit is one census geography wrapped for r-tree insertion.
type unit struct {
	geom.Polygonal
	idx  int
	fips string
	name string
}

// Layer indexes every geography of one level. Units keep their source file
// order so that boundary ties resolve the same way on every run.
type Layer struct {
	level  model.GeoLevel
	units  []*unit
	byFIPS map[string]*unit
	tree   *rtree.Rtree

	// vertices maps each boundary vertex to the units that use it. TIGER
	// neighbors share boundary vertices exactly, so a shared vertex is a
	// reliable touch test, corner contact included.
	vertices map[geom.Point][]int
}

// NewLayer builds a layer from already-loaded units.
func NewLayer(level model.GeoLevel, geos []model.GeoUnit) *Layer {
	l := &Layer{
		level:    level,
		byFIPS:   make(map[string]*unit, len(geos)),
		tree:     rtree.NewTree(25, 50),
		vertices: make(map[geom.Point][]int),
	}
	for _, g := range geos {
		if g.Geometry == nil {
			continue
		}
		u := &unit{Polygonal: g.Geometry, idx: len(l.units), fips: g.FIPS, name: g.Name}
		l.units = append(l.units, u)
		if _, dup := l.byFIPS[u.fips]; !dup {
			l.byFIPS[u.fips] = u
		}
		l.tree.Insert(u)
		l.indexVertices(u)
	}
	zap.L().With(zap.String("component", "census")).Debug("layer indexed",
		zap.String("level", string(level)), zap.Int("units", len(l.units)))
	return l
}

func (l *Layer) indexVertices(u *unit) {
	poly, ok := u.Polygonal.(geom.Polygon)
	if !ok {
		return
	}
	for _, ring := range poly {
		for _, pt := range ring {
			ids := l.vertices[pt]
			if len(ids) > 0 && ids[len(ids)-1] == u.idx {
				continue
			}
			l.vertices[pt] = append(ids, u.idx)
		}
	}
}

// Level reports which geography level this layer holds.
func (l *Layer) Level() model.GeoLevel { return l.level }

// Len reports the number of indexed geographies.
func (l *Layer) Len() int { return len(l.units) }

// Name returns the display name recorded for a FIPS code.
func (l *Layer) Name(fips string) string {
	if u, ok := l.byFIPS[fips]; ok {
		return u.name
	}
	return ""
}

// Contains reports whether the FIPS code is indexed.
func (l *Layer) Contains(fips string) bool {
	_, ok := l.byFIPS[fips]
	return ok
}

// Geometry returns the boundary polygon for a FIPS code, or nil.
func (l *Layer) Geometry(fips string) geom.Polygonal {
	if u, ok := l.byFIPS[fips]; ok {
		return u.Polygonal
	}
	return nil
}

// Locate resolves a point to the FIPS code of the geography containing it.
// Points that land exactly on a shared boundary take the earliest unit in
// source order. The second return is false when no geography contains the
// point.
func (l *Layer) Locate(pt geom.Point) (string, bool) {
	var inside, onEdge *unit
	for _, s := range l.tree.SearchIntersect(pt.Bounds()) {
		u := s.(*unit)
		switch pt.Within(u.Polygonal) {
		case geom.Inside:
			if inside == nil || u.idx < inside.idx {
				inside = u
			}
		case geom.OnEdge:
			if onEdge == nil || u.idx < onEdge.idx {
				onEdge = u
			}
		}
	}
	if inside != nil {
		return inside.fips, true
	}
	if onEdge != nil {
		return onEdge.fips, true
	}
	return "", false
}

// LocateAll resolves a batch of points, counting unresolved ones on the
// collector. The result maps input index to FIPS code; unresolved points
// are absent.
func (l *Layer) LocateAll(pts []geom.Point, collector *monitoring.Collector) map[int]string {
	out := make(map[int]string, len(pts))
	for i, pt := range pts {
		fips, ok := l.Locate(pt)
		if !ok {
			collector.Inc(monitoring.GeometryUnresolved)
			continue
		}
		out[i] = fips
	}
	return out
}

// Adjacent returns, for each input FIPS code, the codes of every geography
// touching it. Only the unit itself is excluded from its own list; other
// queried units that touch it are neighbors like any other. Codes without a
// geometry are skipped. Neighbor lists are sorted.
func (l *Layer) Adjacent(fipsCodes []string) map[string][]string {
	out := make(map[string][]string, len(fipsCodes))
	for _, f := range fipsCodes {
		u, ok := l.byFIPS[f]
		if !ok {
			continue
		}
		seen := map[int]bool{u.idx: true}
		var neighbors []string
		poly, ok := u.Polygonal.(geom.Polygon)
		if !ok {
			out[f] = nil
			continue
		}
		for _, ring := range poly {
			for _, pt := range ring {
				for _, idx := range l.vertices[pt] {
					if seen[idx] {
						continue
					}
					seen[idx] = true
					neighbors = append(neighbors, l.units[idx].fips)
				}
			}
		}
		sort.Strings(neighbors)
		out[f] = neighbors
	}
	return out
}
