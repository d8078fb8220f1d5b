package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/woozymasta/parcelstrip/internal/config"
	"github.com/woozymasta/parcelstrip/internal/geo"

	"github.com/rs/zerolog/log"
)

// Income is the census record of one tract.
type Income struct {
	Name  string
	Value *int // nil when the census reports no estimate
}

// get performs a GET request and returns the response when the status is 200.
func get(ctx context.Context, client *http.Client, url, userAgent string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}

	log.Debug().Str("url", url).Msg("Fetching")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		// Explicitly ignore close error as it's a read-only operation
		_ = resp.Body.Close()
		return nil, fmt.Errorf("GET %s: status %d", url, resp.StatusCode)
	}

	return resp, nil
}

// FetchTracts downloads the tract geometries as a GeoJSON FeatureCollection.
func FetchTracts(ctx context.Context, client *http.Client, url, userAgent string) ([]*geo.Feature, error) {
	resp, err := get(ctx, client, url, userAgent)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	fc, err := geo.ReadFeatureCollection(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode tracts: %w", err)
	}

	return fc.Features, nil
}

// FetchIncome downloads the census table and indexes it by GEOID.
func FetchIncome(ctx context.Context, client *http.Client, cfg config.Tracts) (map[string]Income, error) {
	resp, err := get(ctx, client, cfg.IncomeURL, cfg.UserAgent)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	var rows [][]*string
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode income table: %w", err)
	}

	return ParseIncome(rows, cfg.IncomeField, cfg.Sentinel)
}

// ParseIncome reads census API rows, where the first row is the header.
// The GEOID is the concatenation of the state, county and tract columns.
func ParseIncome(rows [][]*string, field, sentinel string) (map[string]Income, error) {
	if len(rows) == 0 {
		return nil, errors.New("income table has no header")
	}

	columns := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		if h != nil {
			columns[*h] = i
		}
	}

	idx := make([]int, 0, 5)
	for _, name := range []string{"NAME", field, "state", "county", "tract"} {
		i, ok := columns[name]
		if !ok {
			return nil, fmt.Errorf("income table has no %q column", name)
		}
		idx = append(idx, i)
	}
	nameIdx, valueIdx, stateIdx, countyIdx, tractIdx := idx[0], idx[1], idx[2], idx[3], idx[4]

	noData, hasSentinel := parseFloat(sentinel)

	incomes := make(map[string]Income, len(rows)-1)
	for n, row := range rows[1:] {
		if len(row) < len(rows[0]) {
			log.Warn().Int("row", n+1).Msg("Skipping short income row")
			continue
		}

		geoid := cell(row, stateIdx) + cell(row, countyIdx) + cell(row, tractIdx)
		inc := Income{Name: cell(row, nameIdx)}

		if v, ok := parseFloat(cell(row, valueIdx)); ok && !(hasSentinel && v == noData) {
			value := int(v)
			inc.Value = &value
		}

		incomes[geoid] = inc
	}

	return incomes, nil
}

func cell(row []*string, i int) string {
	if row[i] == nil {
		return ""
	}
	return *row[i]
}

func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
