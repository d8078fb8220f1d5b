package simplify

import (
	"encoding/json"
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woozymasta/parcelstrip/internal/geo"
)

func num(f float64) json.Number {
	return json.Number(strconv.FormatFloat(f, 'f', -1, 64))
}

// circle returns a closed ring of n distinct vertices plus the closing one.
func circle(n int, cx, cy, r float64) []any {
	ring := make([]any, 0, n+1)
	for i := 0; i < n; i++ {
		a := 2 * math.Pi * float64(i) / float64(n)
		ring = append(ring, []any{num(cx + r*math.Cos(a)), num(cy + r*math.Sin(a))})
	}
	return append(ring, ring[0])
}

func newSimplifier(t *testing.T, retention float64) *Simplifier {
	t.Helper()

	s, err := New(retention, 6)
	require.NoError(t, err)
	return s
}

func ring(t *testing.T, g *geo.Geometry, polygon, index int) []any {
	t.Helper()

	rings, ok := g.Coordinates.([]any)
	require.True(t, ok)
	if g.Type == "MultiPolygon" {
		rings, ok = rings[polygon].([]any)
		require.True(t, ok)
	}
	r, ok := rings[index].([]any)
	require.True(t, ok)
	return r
}

func TestPolygonRetention(t *testing.T) {
	s := newSimplifier(t, 0.1)

	in := &geo.Geometry{Type: "Polygon", Coordinates: []any{circle(40, -122.2, 47.9, 0.001)}}
	out, pts, err := s.Geometry(in)
	require.NoError(t, err)

	r := ring(t, out, 0, 0)
	assert.Len(t, r, 5, "ceil(41 * 0.1)")
	assert.Equal(t, r[0], r[len(r)-1], "ring stays closed")
	assert.Equal(t, Points{In: 41, Out: 5}, pts)

	first := r[0].([]any)
	assert.Equal(t, json.Number("-122.199"), first[0])
	assert.Equal(t, json.Number("47.9"), first[1])
}

func TestSmallRingsAreKept(t *testing.T) {
	s := newSimplifier(t, 0.1)

	triangle := []any{
		[]any{json.Number("0"), json.Number("0")},
		[]any{json.Number("1"), json.Number("0")},
		[]any{json.Number("0"), json.Number("1")},
		[]any{json.Number("0"), json.Number("0")},
	}
	in := &geo.Geometry{Type: "MultiPolygon", Coordinates: []any{
		[]any{circle(100, 10, 10, 1), circle(12, 10, 10, 0.1)},
		[]any{triangle},
	}}

	out, pts, err := s.Geometry(in)
	require.NoError(t, err)

	assert.Len(t, ring(t, out, 0, 0), 11, "outer ring")
	assert.Len(t, ring(t, out, 0, 1), 4, "hole keeps a closed triangle")
	assert.Equal(t, triangle, ring(t, out, 1, 0))
	assert.Equal(t, Points{In: 101 + 13 + 4, Out: 11 + 4 + 4}, pts)
}

func TestLineKeepsEndPoints(t *testing.T) {
	s := newSimplifier(t, 0.1)

	in := &geo.Geometry{Type: "LineString", Coordinates: []any{
		[]any{json.Number("0"), json.Number("0")},
		[]any{json.Number("1"), json.Number("0.1")},
		[]any{json.Number("2"), json.Number("0")},
	}}

	out, _, err := s.Geometry(in)
	require.NoError(t, err)
	assert.Equal(t, []any{
		[]any{json.Number("0"), json.Number("0")},
		[]any{json.Number("2"), json.Number("0")},
	}, out.Coordinates)
}

func TestFullRetentionOnlyRounds(t *testing.T) {
	s := newSimplifier(t, 1)

	in := &geo.Geometry{Type: "MultiLineString", Coordinates: []any{[]any{
		[]any{json.Number("1.23456789"), json.Number("2"), json.Number("100")},
		[]any{json.Number("3"), json.Number("4")},
		[]any{json.Number("5"), json.Number("6")},
	}}}

	out, pts, err := s.Geometry(in)
	require.NoError(t, err)
	assert.Equal(t, []any{[]any{
		[]any{json.Number("1.234568"), json.Number("2")},
		[]any{json.Number("3"), json.Number("4")},
		[]any{json.Number("5"), json.Number("6")},
	}}, out.Coordinates)
	assert.Equal(t, Points{In: 3, Out: 3}, pts)
}

func TestPointsAndCollections(t *testing.T) {
	s := newSimplifier(t, 0.1)

	in := &geo.Geometry{Type: "GeometryCollection", Geometries: []*geo.Geometry{
		{Type: "Point", Coordinates: []any{json.Number("-122.1234567"), json.Number("47.9876543")}},
		{Type: "MultiPoint", Coordinates: []any{
			[]any{json.Number("1"), json.Number("2")},
			[]any{json.Number("3"), json.Number("4")},
			[]any{json.Number("5"), json.Number("6")},
		}},
	}}

	out, pts, err := s.Geometry(in)
	require.NoError(t, err)
	require.Len(t, out.Geometries, 2)
	assert.Equal(t, []any{json.Number("-122.123457"), json.Number("47.987654")}, out.Geometries[0].Coordinates)
	assert.Len(t, out.Geometries[1].Coordinates, 3)
	assert.Equal(t, Points{In: 4, Out: 4}, pts)
}

func TestNilGeometry(t *testing.T) {
	out, pts, err := newSimplifier(t, 0.1).Geometry(nil)
	require.NoError(t, err)
	assert.Nil(t, out)
	assert.Zero(t, pts)
}

func TestBadGeometry(t *testing.T) {
	s := newSimplifier(t, 0.1)

	tests := []struct {
		name string
		in   *geo.Geometry
	}{
		{"flat polygon", &geo.Geometry{Type: "Polygon", Coordinates: []any{json.Number("1")}}},
		{"short position", &geo.Geometry{Type: "Point", Coordinates: []any{json.Number("1")}}},
		{"string ordinate", &geo.Geometry{Type: "LineString", Coordinates: []any{[]any{"1", "2"}}}},
		{"bad member", &geo.Geometry{Type: "MultiPolygon", Coordinates: []any{[]any{"x"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := s.Geometry(tt.in)
			assert.ErrorIs(t, err, ErrCoordinates)
		})
	}

	_, _, err := s.Geometry(&geo.Geometry{Type: "Circle"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported geometry type")
}

func TestNewRejectsRetention(t *testing.T) {
	for _, r := range []float64{0, -0.5, 1.01, math.NaN()} {
		_, err := New(r, 6)
		assert.Error(t, err, r)
	}

	_, err := New(0.5, -1)
	assert.Error(t, err)
}
