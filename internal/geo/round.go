package geo

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// RoundNumber rounds n to places decimals, half away from zero.
//
// Rounding works on the written decimal digits, so a value such as 0.0000005
// is a tie at 6 places no matter how it would be stored as a float64.
// Exponent forms are first rewritten through their shortest float64 form.
// A value that already has at most places decimals is returned unchanged.
func RoundNumber(n json.Number, places int) (json.Number, error) {
	if places < 0 {
		return "", fmt.Errorf("negative precision %d", places)
	}

	s := string(n)
	if strings.ContainsAny(s, "eE") {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return "", fmt.Errorf("invalid number %q: %w", s, err)
		}
		s = strconv.FormatFloat(f, 'f', -1, 64)
	}

	digits, neg := strings.CutPrefix(s, "-")
	intPart, frac, _ := strings.Cut(digits, ".")
	if !isDigits(intPart) || (frac != "" && !isDigits(frac)) {
		return "", fmt.Errorf("invalid number %q", string(n))
	}

	if len(frac) <= places {
		return json.Number(s), nil
	}

	buf := []byte(intPart + frac[:places])
	if frac[places] >= '5' {
		i := len(buf) - 1
		for ; i >= 0; i-- {
			if buf[i] != '9' {
				buf[i]++
				break
			}
			buf[i] = '0'
		}
		if i < 0 {
			buf = append([]byte{'1'}, buf...)
		}
	}

	split := len(buf) - places
	out := strings.TrimLeft(string(buf[:split]), "0")
	if out == "" {
		out = "0"
	}
	if fp := strings.TrimRight(string(buf[split:]), "0"); fp != "" {
		out += "." + fp
	}
	if neg && out != "0" {
		out = "-" + out
	}

	return json.Number(out), nil
}

// RoundCoordinates rounds every number in a nested coordinate structure and
// returns a copy with the same nesting and point count.
func RoundCoordinates(v any, places int) (any, error) {
	switch c := v.(type) {
	case json.Number:
		return RoundNumber(c, places)
	case float64:
		return RoundNumber(json.Number(strconv.FormatFloat(c, 'f', -1, 64)), places)
	case []any:
		out := make([]any, len(c))
		for i, item := range c {
			r, err := RoundCoordinates(item, places)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil
	}

	return nil, fmt.Errorf("unexpected coordinate value %v", v)
}

// RoundGeometry returns a copy of g with rounded coordinates. Members of a
// GeometryCollection are rounded as well. A nil geometry stays nil.
func RoundGeometry(g *Geometry, places int) (*Geometry, error) {
	if g == nil {
		return nil, nil
	}

	out := &Geometry{Type: g.Type}
	if g.Coordinates != nil {
		c, err := RoundCoordinates(g.Coordinates, places)
		if err != nil {
			return nil, fmt.Errorf("%s coordinates: %w", g.Type, err)
		}
		out.Coordinates = c
	}

	for _, member := range g.Geometries {
		r, err := RoundGeometry(member, places)
		if err != nil {
			return nil, err
		}
		out.Geometries = append(out.Geometries, r)
	}

	return out, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
