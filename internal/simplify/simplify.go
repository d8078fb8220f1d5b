// Package simplify reduces the vertex count of GeoJSON geometries for the web
// map. Every ring and line keeps enough vertices to stay a valid shape, so no
// feature disappears.
package simplify

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/woozymasta/parcelstrip/internal/geo"

	"github.com/paulmach/orb"
	orbsimplify "github.com/paulmach/orb/simplify"
)

const (
	minRing = 4 // closed triangle
	minLine = 2
)

// ErrCoordinates means a geometry does not have the nesting its type requires.
var ErrCoordinates = errors.New("invalid coordinates")

// Points counts vertices before and after simplification.
type Points struct {
	In  int
	Out int
}

// Simplifier applies Visvalingam-Whyatt simplification with a fixed share of
// vertices kept per ring or line, then rounds the result.
type Simplifier struct {
	retention float64
	places    int
}

// New returns a Simplifier keeping the retention share of vertices and
// rounding to places decimals.
func New(retention float64, places int) (*Simplifier, error) {
	if !(retention > 0 && retention <= 1) {
		return nil, fmt.Errorf("retention %v out of range (0, 1]", retention)
	}
	if places < 0 {
		return nil, fmt.Errorf("negative precision %d", places)
	}

	return &Simplifier{retention: retention, places: places}, nil
}

// Geometry returns a simplified, rounded copy of g. Points and MultiPoints are
// only rounded. Ordinates past the second are dropped. A nil geometry stays nil.
func (s *Simplifier) Geometry(g *geo.Geometry) (*geo.Geometry, Points, error) {
	var pts Points

	out, err := s.geometry(g, &pts)
	if err != nil {
		return nil, pts, err
	}

	rounded, err := geo.RoundGeometry(out, s.places)
	if err != nil {
		return nil, pts, err
	}

	return rounded, pts, nil
}

func (s *Simplifier) geometry(g *geo.Geometry, pts *Points) (*geo.Geometry, error) {
	if g == nil {
		return nil, nil
	}

	out := &geo.Geometry{Type: g.Type}
	var err error

	switch g.Type {
	case "Point":
		var p orb.Point
		if p, err = point(g.Coordinates); err == nil {
			pts.In++
			pts.Out++
			out.Coordinates = []any{p[0], p[1]}
		}
	case "MultiPoint":
		var ps []orb.Point
		if ps, err = points(g.Coordinates); err == nil {
			pts.In += len(ps)
			pts.Out += len(ps)
			out.Coordinates = encode(ps)
		}
	case "LineString":
		out.Coordinates, err = s.line(g.Coordinates, minLine, pts)
	case "MultiLineString":
		out.Coordinates, err = s.lines(g.Coordinates, minLine, pts)
	case "Polygon":
		out.Coordinates, err = s.lines(g.Coordinates, minRing, pts)
	case "MultiPolygon":
		var polygons []any
		if polygons, err = list(g.Coordinates); err == nil {
			rings := make([]any, len(polygons))
			for i, polygon := range polygons {
				if rings[i], err = s.lines(polygon, minRing, pts); err != nil {
					break
				}
			}
			out.Coordinates = rings
		}
	case "GeometryCollection":
		for _, member := range g.Geometries {
			var m *geo.Geometry
			if m, err = s.geometry(member, pts); err != nil {
				return nil, err
			}
			out.Geometries = append(out.Geometries, m)
		}
	default:
		err = fmt.Errorf("unsupported geometry type %q", g.Type)
	}

	if err != nil {
		return nil, fmt.Errorf("%s: %w", g.Type, err)
	}

	return out, nil
}

// lines simplifies each member of a list of rings or lines.
func (s *Simplifier) lines(v any, floor int, pts *Points) ([]any, error) {
	members, err := list(v)
	if err != nil {
		return nil, err
	}

	out := make([]any, len(members))
	for i, member := range members {
		if out[i], err = s.line(member, floor, pts); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// line keeps the retention share of vertices, never fewer than floor.
// Visvalingam never removes the end points, so closed rings stay closed.
func (s *Simplifier) line(v any, floor int, pts *Points) ([]any, error) {
	ps, err := points(v)
	if err != nil {
		return nil, err
	}
	pts.In += len(ps)

	keep := max(floor, int(math.Ceil(float64(len(ps))*s.retention)))
	if len(ps) > keep {
		ps = orbsimplify.VisvalingamKeep(keep).LineString(orb.LineString(ps))
	}
	pts.Out += len(ps)

	return encode(ps), nil
}

func list(v any) ([]any, error) {
	c, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %v is not an array", ErrCoordinates, v)
	}
	return c, nil
}

func points(v any) ([]orb.Point, error) {
	c, err := list(v)
	if err != nil {
		return nil, err
	}

	out := make([]orb.Point, len(c))
	for i, item := range c {
		if out[i], err = point(item); err != nil {
			return nil, err
		}
	}

	return out, nil
}

func point(v any) (orb.Point, error) {
	var p orb.Point

	c, ok := v.([]any)
	if !ok || len(c) < 2 {
		return p, fmt.Errorf("%w: position %v", ErrCoordinates, v)
	}

	for i := range p {
		switch n := c[i].(type) {
		case json.Number:
			f, err := n.Float64()
			if err != nil {
				return p, fmt.Errorf("%w: %w", ErrCoordinates, err)
			}
			p[i] = f
		case float64:
			p[i] = n
		default:
			return p, fmt.Errorf("%w: %v is not a number", ErrCoordinates, c[i])
		}
	}

	return p, nil
}

func encode(ps []orb.Point) []any {
	out := make([]any, len(ps))
	for i, p := range ps {
		out[i] = []any{p[0], p[1]}
	}
	return out
}
