package videos

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Trending(t *testing.T) {
	catalog := []Video{
		{ID: "vid-1", Title: "Full Body Burn", Duration: "45:00", Calories: 400},
		{ID: "vid-2", Title: "Morning Yoga", Duration: "25:30", Calories: 120},
	}

	var hits int
	testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		assert.Equal(t, "/videos/trending", r.URL.Path)
		assert.Equal(t, "10", r.URL.Query().Get("count"))
		assert.Equal(t, "Bearer test-api-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewEncoder(w).Encode(catalog))
	}))
	defer testServer.Close()

	client := NewClient(testServer.URL, "test-api-key", testServer.Client())

	videos, err := client.Trending(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, catalog, videos)

	// second call is served from the cache
	videos, err = client.Trending(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, catalog, videos)
	assert.Equal(t, 1, hits)
}

func TestClient_ByCategory(t *testing.T) {
	testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/videos", r.URL.Path)
		assert.Equal(t, "yoga", r.URL.Query().Get("category"))
		require.NoError(t, json.NewEncoder(w).Encode([]Video{{ID: "vid-7", Category: "yoga"}}))
	}))
	defer testServer.Close()

	client := NewClient(testServer.URL, "", testServer.Client())

	videos, err := client.ByCategory(context.Background(), "yoga", 5)
	require.NoError(t, err)
	require.Len(t, videos, 1)
	assert.Equal(t, "vid-7", videos[0].ID)
}

func TestClient_ApiErrors(t *testing.T) {
	testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer testServer.Close()

	client := NewClient(testServer.URL, "", testServer.Client())

	_, err := client.Newest(context.Background(), 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog api status")

	brokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer brokenServer.Close()

	client = NewClient(brokenServer.URL, "", brokenServer.Client())
	_, err = client.Newest(context.Background(), 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal")
}
