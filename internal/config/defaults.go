package config

import "time"

// Default returns the settings for the Snohomish County parcel export and
// the ACS median household income layer.
func Default() *Config {
	return &Config{
		Strip: Strip{
			Input:         "parcels.geojson",
			Output:        "parcels-stripped.geojson",
			Compression:   "auto",
			OnMalformed:   MalformedFail,
			CodeField:     "USECODE",
			CategoryField: "ZONE_CAT",
			KeepFields: []string{
				"PARCEL_ID", "USECODE", "GIS_ACRES", "GIS_SQ_FT",
				"SITUSLINE1", "SITUSCITY", "SITUSZIP", "MKTTL",
			},
			Exclude: Exclusions{
				Categories: []string{"4", "8", "9"},
				Prefixes: []string{
					// services: churches, schools, funeral, banking, salons, legal,
					// military, postal, corrections, insurance, storage, auto repair, medical
					"611", "612", "613", "614", "621", "622", "623", "631", "632",
					"633", "634", "636", "638", "641", "651", "699",
					// trade: dealers, groceries, gas, restaurants, bars, pharmacies,
					// specialty retail, warehouse clubs, outlets
					"511", "512", "513", "514", "515", "516", "517", "518", "519", "599",
					// recreation
					"711", "712", "713", "714", "715", "716", "717", "721", "742", "743",
					// commercial
					"211", "212", "213", "214", "215", "216",
					// industrial
					"311", "312", "313", "314", "315",
					// manufactured homes, vacation cabins
					"118", "198",
				},
				Residential:  "1",
				SingleFamily: "111",
			},
			Zones: Zones{
				Labels: map[string]string{
					"0": "Undeveloped",
					"1": "Residential",
					"2": "Commercial",
					"3": "Industrial",
					"4": "Transportation",
					"5": "Trade",
					"6": "Services",
					"7": "Cultural/Recreation",
					"8": "Resource/Agriculture",
					"9": "Government",
				},
				Default: "Other",
			},
			ChunkSize:     1 << 20,
			Precision:     6,
			ProgressEvery: 50000,
		},
		Simplify: Simplify{
			Input:         "parcels-stripped.geojson",
			Output:        "public/parcels-web.geojson",
			Compression:   "auto",
			Retention:     0.1,
			ChunkSize:     1 << 20,
			Precision:     6,
			ProgressEvery: 50000,
		},
		Tracts: Tracts{
			GeometryURL: "https://tigerweb.geo.census.gov/arcgis/rest/services/TIGERweb/" +
				"tigerWMS_ACS2022/MapServer/6/query" +
				"?where=STATE%3D'53'+AND+COUNTY%3D'061'" +
				"&outFields=GEOID,NAME,STATE,COUNTY,TRACT" +
				"&outSR=4326&f=geojson&returnGeometry=true" +
				"&resultRecordCount=500",
			IncomeURL: "https://api.census.gov/data/2022/acs/acs5" +
				"?get=NAME,B19013_001E&for=tract:*&in=state:53%20county:061",
			IncomeField: "B19013_001E",
			Output:      "public/income-tracts.geojson",
			UserAgent:   "CensusDataFetch/1.0",
			Thresholds: Thresholds{
				Medium: 50000,
				High:   75000,
			},
			Sentinel:  "-666666666",
			Precision: 5,
			Timeout:   60 * time.Second,
		},
		Server: Server{
			PublicDir: "public",
			Layers: []Layer{
				{Name: "parcels", File: "parcels-web.geojson"},
				{Name: "gyms", File: "gyms.geojson"},
				{Name: "income-tracts", File: "income-tracts.geojson"},
			},
		},
	}
}
