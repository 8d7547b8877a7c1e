package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sells-group/geo-dashboard/internal/config"
)

const upstreamPayload = `[
	{"id": "1", "projectName": "Harbor", "latitude": 10, "longitude": 20, "status": "Active", "lastUpdated": "2024-01-01"},
	{"id": "2", "name": "Quarry", "lat": 11, "lng": 21, "status": "Pending"},
	{"id": "3", "projectName": "Airfield", "Latitude": "12.5", "Longitude": "22.5", "Status": "Closed"}
]`

// newUpstream serves body as the record endpoint.
func newUpstream(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(apiURL string) *config.Config {
	return &config.Config{
		API: config.APIConfig{
			URL:         apiURL,
			TimeoutSecs: 5,
			MaxRetries:  1,
			UserAgent:   "geo-dashboard-test",
		},
		Dashboard: config.DashboardConfig{
			PageSize:  2,
			PageSizes: []int{2, 10},
			Layout:    "split",
			TileStyle: "street",
			Timezone:  "UTC",
		},
		Server: config.ServerConfig{Port: 8080},
		Tiles:  config.TilesConfig{CacheEntries: 16, CacheTTLMins: 1},
		Log:    config.LogConfig{Level: "info", Format: "json"},
	}
}

// withConfig installs c as the package config for the duration of the test.
func withConfig(t *testing.T, c *config.Config) {
	t.Helper()
	prev := cfg
	cfg = c
	t.Cleanup(func() { cfg = prev })
}
