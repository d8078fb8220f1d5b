package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woozymasta/parcelstrip/internal/config"
	"github.com/woozymasta/parcelstrip/internal/geo"
)

const tractsDoc = `{"type":"FeatureCollection","features":[
{"type":"Feature","properties":{"GEOID":"53061040100","NAME":"Census Tract 401"},"geometry":{"type":"Polygon","coordinates":[[[-122.123456789,47.1],[-122.2,47.2],[-122.123456789,47.1]]]}},
{"type":"Feature","properties":{"GEOID":"53061040200","NAME":"Census Tract 402"},"geometry":{"type":"Polygon","coordinates":[[[-122.3,47.3],[-122.4,47.4],[-122.3,47.3]]]}},
{"type":"Feature","properties":{"GEOID":"53061040300","NAME":"Census Tract 403; Snohomish County"},"geometry":null},
{"type":"Feature","properties":{"GEOID":"53061040100","NAME":"Census Tract 401 (replaced)"},"geometry":{"type":"Point","coordinates":[-122.000001,47.000001]}},
{"type":"Feature","properties":{"NAME":"orphan"},"geometry":null}
]}`

const incomeDoc = `[
["NAME","B19013_001E","state","county","tract"],
["Census Tract 401; Snohomish County; Washington","81234","53","061","040100"],
["Census Tract 402; Snohomish County; Washington","-666666666","53","061","040200"],
["Census Tract 999; Snohomish County; Washington","41000.9","53","061","099900"]
]`

func testTracts(output string) config.Tracts {
	cfg := config.Default().Tracts
	cfg.Output = output
	return cfg
}

func strp(s string) *string { return &s }
func intp(v int) *int       { return &v }

func TestClassify(t *testing.T) {
	th := config.Thresholds{Medium: 50000, High: 75000}

	tests := []struct {
		value *int
		want  string
	}{
		{nil, BracketNoData},
		{intp(-1), BracketNoData},
		{intp(0), BracketLow},
		{intp(49999), BracketLow},
		{intp(50000), BracketMedium},
		{intp(74999), BracketMedium},
		{intp(75000), BracketHigh},
		{intp(250001), BracketHigh},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.value, th))
	}
}

func TestParseIncome(t *testing.T) {
	header := []*string{strp("NAME"), strp("B19013_001E"), strp("state"), strp("county"), strp("tract")}
	row := func(name string, value *string, tract string) []*string {
		return []*string{strp(name), value, strp("53"), strp("061"), strp(tract)}
	}

	rows := [][]*string{
		header,
		row("a", strp("81234"), "000100"),
		row("b", strp("-666666666"), "000200"),
		row("c", strp("-666666666.0"), "000300"),
		row("d", strp(""), "000400"),
		row("e", nil, "000500"),
		row("f", strp("n/a"), "000600"),
		row("g", strp("52000.7"), "000700"),
		{strp("short")},
	}

	incomes, err := ParseIncome(rows, "B19013_001E", "-666666666")
	require.NoError(t, err)
	require.Len(t, incomes, 7)

	assert.Equal(t, Income{Name: "a", Value: intp(81234)}, incomes["53061000100"])
	assert.Equal(t, Income{Name: "g", Value: intp(52000)}, incomes["53061000700"])
	for _, id := range []string{"53061000200", "53061000300", "53061000400", "53061000500", "53061000600"} {
		assert.Nil(t, incomes[id].Value, id)
	}
}

func TestParseIncomeErrors(t *testing.T) {
	_, err := ParseIncome(nil, "B19013_001E", "")
	assert.Error(t, err)

	_, err = ParseIncome([][]*string{{strp("NAME"), strp("state")}}, "B19013_001E", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "B19013_001E")
}

func TestJoin(t *testing.T) {
	fc, err := geo.ReadFeatureCollection(strings.NewReader(tractsDoc))
	require.NoError(t, err)

	incomes := map[string]Income{
		"53061040100": {Name: "Census Tract 401; Snohomish County; Washington", Value: intp(81234)},
		"53061040200": {Name: "Census Tract 402; Snohomish County; Washington"},
	}

	out, stats, err := Join(fc.Features, incomes, testTracts(""))
	require.NoError(t, err)

	assert.Equal(t, JoinStats{Tracts: 3, Matched: 1, NoData: 2, Skipped: 1}, stats)
	require.Len(t, out.Features, 3)

	first := out.Features[0]
	assert.Equal(t, "53061040100", first.Text("GEOID"))
	assert.Equal(t, "Census Tract 401", first.Text("tract_name"))
	assert.Equal(t, json.RawMessage(`81234`), first.Properties["median_income"])
	assert.Equal(t, json.RawMessage(`"high"`), first.Properties["income_bracket"])
	require.NotNil(t, first.Geometry)
	assert.Equal(t, "Point", first.Geometry.Type, "last duplicate wins")
	assert.Equal(t, []any{json.Number("-122"), json.Number("47")}, first.Geometry.Coordinates)

	second := out.Features[1]
	assert.Equal(t, json.RawMessage(`null`), second.Properties["median_income"])
	assert.Equal(t, json.RawMessage(`"nodata"`), second.Properties["income_bracket"])

	third := out.Features[2]
	assert.Equal(t, "Census Tract 403", third.Text("tract_name"), "falls back to the tract name")
	assert.Nil(t, third.Geometry)
	assert.Len(t, third.Properties, 4)
}

func newCensusServer(t *testing.T, tractsStatus int) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	hits := new(atomic.Int32)
	mux := http.NewServeMux()
	mux.HandleFunc("/tracts", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "CensusDataFetch/1.0", r.Header.Get("User-Agent"))
		if tractsStatus != http.StatusOK {
			w.WriteHeader(tractsStatus)
			return
		}
		_, _ = fmt.Fprint(w, tractsDoc)
	})
	mux.HandleFunc("/income", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = fmt.Fprint(w, incomeDoc)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, hits
}

func TestProcessTracts(t *testing.T) {
	srv, hits := newCensusServer(t, http.StatusOK)

	cfg := testTracts(filepath.Join(t.TempDir(), "public", "income-tracts.geojson"))
	cfg.GeometryURL = srv.URL + "/tracts"
	cfg.IncomeURL = srv.URL + "/income"

	require.NoError(t, ProcessTracts(context.Background(), srv.Client(), cfg, false))
	assert.EqualValues(t, 2, hits.Load())

	f, err := os.Open(cfg.Output)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	fc, err := geo.ReadFeatureCollection(f)
	require.NoError(t, err)
	require.Len(t, fc.Features, 3)

	ids := make([]string, 0, len(fc.Features))
	for _, feature := range fc.Features {
		ids = append(ids, feature.Text("GEOID"))
	}
	assert.Equal(t, []string{"53061040100", "53061040200", "53061040300"}, ids)
	assert.Equal(t, json.RawMessage(`"high"`), fc.Features[0].Properties["income_bracket"])
	assert.Equal(t, json.RawMessage(`"nodata"`), fc.Features[1].Properties["income_bracket"])

	// existing output is kept unless forced
	require.NoError(t, ProcessTracts(context.Background(), srv.Client(), cfg, false))
	assert.EqualValues(t, 2, hits.Load())

	require.NoError(t, ProcessTracts(context.Background(), srv.Client(), cfg, true))
	assert.EqualValues(t, 4, hits.Load())
}

func TestProcessTractsHTTPError(t *testing.T) {
	srv, _ := newCensusServer(t, http.StatusServiceUnavailable)

	cfg := testTracts(filepath.Join(t.TempDir(), "income-tracts.geojson"))
	cfg.GeometryURL = srv.URL + "/tracts"
	cfg.IncomeURL = srv.URL + "/income"

	err := ProcessTracts(context.Background(), srv.Client(), cfg, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
	assert.NoFileExists(t, cfg.Output)
}

func TestProcessTractsCanceled(t *testing.T) {
	srv, _ := newCensusServer(t, http.StatusOK)

	cfg := testTracts(filepath.Join(t.TempDir(), "income-tracts.geojson"))
	cfg.GeometryURL = srv.URL + "/tracts"
	cfg.IncomeURL = srv.URL + "/income"

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := ProcessTracts(ctx, srv.Client(), cfg, false)
	assert.ErrorIs(t, err, context.Canceled)
}
