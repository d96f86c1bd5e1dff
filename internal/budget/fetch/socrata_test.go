package fetch

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civistat/budget_pipeline/internal/budget/config"
	"github.com/civistat/budget_pipeline/internal/logger"
)

func testClient(baseURL string) *Client {
	c := NewClient(logger.New(zerolog.Disabled))
	c.baseURL = baseURL
	return c
}

func socrataEntity() config.Entity {
	return config.Entity{
		ID: "chicago",
		Socrata: config.Socrata{
			Domain: "data.cityofchicago.org",
			Datasets: map[string]map[string]string{
				"fy2025": {DatasetAppropriations: "gzry-5xnw"},
			},
		},
	}
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/resource/gzry-5xnw.csv", r.URL.Path)
		assert.Equal(t, fmt.Sprintf("%d", rowLimit), r.URL.Query().Get("$limit"))
		assert.Equal(t, "text/csv", r.Header.Get("Accept"))

		w.Header().Set("Content-Type", "text/csv")
		fmt.Fprint(w, "department_description,2025_ordinance\nPOLICE DEPARTMENT,1000000\n")
	}))
	defer srv.Close()

	records, err := testClient(srv.URL).Fetch(socrataEntity(), "fy2025", DatasetAppropriations)
	require.NoError(t, err)
	assert.Equal(t, 1, records.Nrow())
	assert.Equal(t, "POLICE DEPARTMENT", records.Get("department_description", 0))
}

func TestFetchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream outage", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Fetch(socrataEntity(), "fy2025", DatasetAppropriations)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status")
}

func TestFetchUnconfiguredDataset(t *testing.T) {
	_, err := testClient("http://unused").Fetch(socrataEntity(), "fy2030", DatasetAppropriations)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fy2030")
}
