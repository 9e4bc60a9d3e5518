package store

import (
	cgeom "github.com/ctessum/geom"
	"github.com/rotisserie/eris"
	tgeom "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
)

// Census boundary files ship in NAD83.
const censusSRID = 4269

// EncodeWKB converts a pipeline geometry to EWKB bytes with the census SRID.
// Returns nil, nil for nil geometries.
func EncodeWKB(g cgeom.Geom) ([]byte, error) {
	if g == nil {
		return nil, nil
	}

	var t tgeom.T

	switch s := g.(type) {
	case cgeom.Point:
		t = tgeom.NewPointFlat(tgeom.XY, []float64{s.X, s.Y}).SetSRID(censusSRID)

	case cgeom.Polygon:
		t = polygonToMultiPolygon(cgeom.MultiPolygon{s})

	case cgeom.MultiPolygon:
		t = polygonToMultiPolygon(s)

	default:
		return nil, eris.Errorf("store: unsupported geometry type %T", g)
	}

	if t == nil {
		return nil, nil
	}

	data, err := ewkb.Marshal(t, ewkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "store: encode WKB")
	}

	return data, nil
}

func polygonToMultiPolygon(mp cgeom.MultiPolygon) tgeom.T {
	out := tgeom.NewMultiPolygon(tgeom.XY).SetSRID(censusSRID)

	for _, p := range mp {
		poly := tgeom.NewPolygon(tgeom.XY)
		for _, ring := range p {
			flat := make([]float64, 0, (len(ring)+1)*2)
			for _, pt := range ring {
				flat = append(flat, pt.X, pt.Y)
			}
			// Shapefile rings are not closed; EWKB rings must be.
			if len(ring) > 0 && ring[0] != ring[len(ring)-1] {
				flat = append(flat, ring[0].X, ring[0].Y)
			}
			if err := poly.Push(tgeom.NewLinearRingFlat(tgeom.XY, flat)); err != nil {
				continue
			}
		}
		if poly.NumLinearRings() == 0 {
			continue
		}
		if err := out.Push(poly); err != nil {
			continue
		}
	}

	if out.NumPolygons() == 0 {
		return nil
	}
	return out
}
