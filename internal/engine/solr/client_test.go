package solr

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loziogigio/vinc-pim-sub001/internal/engine"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestClient_Search(t *testing.T) {
	var gotPath string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"response": {
				"numFound": 1,
				"start": 0,
				"docs": [{"entity_code": "P1", "name_it": "Vaso"}]
			}
		}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, CorePrefix: "catalog"}, newTestLogger())

	resp, err := c.Search(context.Background(), "acme", &engine.Query{
		Query:  "*:*",
		Limit:  10,
		Fields: "*",
	})
	require.NoError(t, err)

	assert.Equal(t, "/catalog_acme/query", gotPath)
	assert.Equal(t, "*:*", gotBody["query"])
	require.NotNil(t, resp.Response)
	assert.Equal(t, 1, resp.Response.NumFound)
	require.Len(t, resp.Response.Docs, 1)
	assert.Equal(t, "P1", resp.Response.Docs[0]["entity_code"])
}

func TestClient_Search_NoCorePrefix(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"response":{"numFound":0,"start":0,"docs":[]}}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL}, newTestLogger())

	_, err := c.Search(context.Background(), "acme", &engine.Query{Query: "*:*"})
	require.NoError(t, err)
	assert.Equal(t, "/acme/query", gotPath)
}

func TestClient_Search_EngineErrorOnBadRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"msg":"undefined field bogus"}}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, CorePrefix: "catalog"}, newTestLogger())

	_, err := c.Search(context.Background(), "acme", &engine.Query{Query: "bogus:x"})
	require.Error(t, err)

	var engErr *engine.Error
	require.ErrorAs(t, err, &engErr)
	assert.Equal(t, http.StatusBadRequest, engErr.StatusCode)
	assert.Contains(t, engErr.Body, "undefined field")
}

func TestClient_Search_TransportError(t *testing.T) {
	c := New(Config{BaseURL: "http://127.0.0.1:1", CorePrefix: "catalog"}, newTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Search(ctx, "acme", &engine.Query{Query: "*:*"})
	require.Error(t, err)

	var engErr *engine.Error
	assert.ErrorAs(t, err, &engErr)
}

func TestClient_Ping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/info/system", r.URL.Path)
		_, _ = w.Write([]byte(`{"responseHeader":{"status":0}}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL}, newTestLogger())
	assert.NoError(t, c.Ping(context.Background()))
}

func TestClient_Ping_Failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL}, newTestLogger())
	assert.Error(t, c.Ping(context.Background()))
}
