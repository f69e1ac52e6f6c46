package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukydev/carlog/internal/lookup"
)

func newLookupServer(t *testing.T) (*http.ServeMux, *httptest.Server) {
	t.Helper()
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/makes":
			json.NewEncoder(w).Encode([]string{"Fiat", "Lancia"})
		case "/models":
			json.NewEncoder(w).Encode([]string{"Panda", "500"})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(upstream.Close)

	mux := http.NewServeMux()
	NewLookupHandler(lookup.NewClient(upstream.URL, upstream.Client(), nil)).Routes(mux)
	return mux, upstream
}

func TestLookupHandler_Makes(t *testing.T) {
	mux, _ := newLookupServer(t)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/lookup/makes", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var makes []string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &makes))
	assert.Equal(t, []string{"Fiat", "Lancia"}, makes)
}

func TestLookupHandler_ModelsRequiresMake(t *testing.T) {
	mux, _ := newLookupServer(t)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/lookup/models", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/lookup/models?make=Fiat", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLookupHandler_UpstreamDown(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer upstream.Close()

	mux := http.NewServeMux()
	NewLookupHandler(lookup.NewClient(upstream.URL, upstream.Client(), nil)).Routes(mux)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/lookup/makes", nil))
	assert.Equal(t, http.StatusBadGateway, w.Code)
}
