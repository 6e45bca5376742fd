package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTavilySearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var req tavilyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-key", req.APIKey)
		assert.Equal(t, "hot fries nutrition", req.Query)
		assert.Equal(t, 5, req.MaxResults)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"answer": "Hot fries are a corn snack.",
			"results": [
				{"title": "Hot Fries", "url": "https://example.com/hot-fries", "content": "A crunchy corn snack."}
			]
		}`))
	}))
	defer srv.Close()

	c := NewTavilyClient("test-key")
	c.baseURL = srv.URL

	out, err := c.Search(context.Background(), "hot fries nutrition")
	require.NoError(t, err)
	assert.Contains(t, out, "corn snack")
	assert.Contains(t, out, "https://example.com/hot-fries")
}

func TestTavilySearchNoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"answer": "", "results": []}`))
	}))
	defer srv.Close()

	c := NewTavilyClient("test-key")
	c.baseURL = srv.URL

	out, err := c.Search(context.Background(), "nothing")
	require.NoError(t, err)
	assert.Contains(t, out, "No web results")
}

func TestTavilySearchMissingKey(t *testing.T) {
	c := NewTavilyClient("")
	_, err := c.Search(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}
