package project

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woozymasta/parcelstrip/internal/config"
	"github.com/woozymasta/parcelstrip/internal/filter"
	"github.com/woozymasta/parcelstrip/internal/geo"
)

func newProjector(t *testing.T) *Projector {
	t.Helper()
	cfg := config.Default().Strip
	p, err := New(cfg, filter.NewZones(cfg.Zones))
	require.NoError(t, err)
	return p
}

func decode(t *testing.T, doc string) *geo.Feature {
	t.Helper()
	f, err := geo.DecodeFeature([]byte(doc), 0)
	require.NoError(t, err)
	return f
}

func TestProject(t *testing.T) {
	p := newProjector(t)
	f := decode(t, `{"type":"Feature","properties":{"PARCEL_ID":"00371500100100","USECODE":"111",`+
		`"GIS_ACRES":0.25,"OWNERNAME":"SMITH","MKTTL":450000,"SITUSCITY":null},`+
		`"geometry":{"type":"Point","coordinates":[122.1234567,47.9876543]}}`)

	out, err := p.Project(f)
	require.NoError(t, err)

	assert.Equal(t, map[string]json.RawMessage{
		"PARCEL_ID": json.RawMessage(`"00371500100100"`),
		"USECODE":   json.RawMessage(`"111"`),
		"GIS_ACRES": json.RawMessage(`0.25`),
		"MKTTL":     json.RawMessage(`450000`),
		"SITUSCITY": json.RawMessage(`null`),
		"ZONE_CAT":  json.RawMessage(`"Residential"`),
	}, out.Properties)

	geometry, err := json.Marshal(out.Geometry)
	require.NoError(t, err)
	assert.Equal(t, `{"type":"Point","coordinates":[122.123457,47.987654]}`, string(geometry))

	// source untouched
	assert.Contains(t, f.Properties, "OWNERNAME")
}

func TestProjectWhitelistClosure(t *testing.T) {
	cfg := config.Default().Strip
	allowed := map[string]bool{cfg.CategoryField: true}
	for _, k := range cfg.KeepFields {
		allowed[k] = true
	}

	p := newProjector(t)
	out, err := p.Project(decode(t, `{"properties":{"A":1,"B":2,"USECODE":"520","SITUSZIP":"98201","ZONE":"x"}}`))
	require.NoError(t, err)

	for k := range out.Properties {
		assert.True(t, allowed[k], "unexpected key %s", k)
	}
	assert.Equal(t, json.RawMessage(`"Trade"`), out.Properties["ZONE_CAT"])
	assert.NotContains(t, out.Properties, "GIS_ACRES")
}

func TestProjectDefaultCategory(t *testing.T) {
	p := newProjector(t)

	for _, doc := range []string{
		`{"properties":{}}`,
		`{"properties":{"USECODE":""}}`,
		`{"properties":{"USECODE":null}}`,
		`{"properties":{"USECODE":"A10"}}`,
	} {
		out, err := p.Project(decode(t, doc))
		require.NoError(t, err, doc)
		assert.Equal(t, json.RawMessage(`"Other"`), out.Properties["ZONE_CAT"], doc)
	}
}

func TestProjectWithoutGeometry(t *testing.T) {
	p := newProjector(t)

	out, err := p.Project(decode(t, `{"type":"Feature","properties":{"USECODE":"111"}}`))
	require.NoError(t, err)
	assert.Nil(t, out.Geometry)

	data, err := json.Marshal(out)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "geometry")
}

func TestProjectBadCoordinates(t *testing.T) {
	p := newProjector(t)

	_, err := p.Project(decode(t, `{"properties":{"USECODE":"111"},"geometry":{"type":"Point","coordinates":["a","b"]}}`))
	assert.Error(t, err)
}

func TestNewRejectsCollision(t *testing.T) {
	cfg := config.Default().Strip
	cfg.KeepFields = append(cfg.KeepFields, cfg.CategoryField)

	_, err := New(cfg, filter.NewZones(cfg.Zones))
	assert.Error(t, err)
}
