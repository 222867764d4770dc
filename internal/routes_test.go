package internal

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"festmap/internal/controllers"
	"festmap/internal/structures"
	"festmap/internal/testutil"
)

func TestInitRoutes(t *testing.T) {
	conf := &structures.Config{}
	service := &testutil.MockPostService{}
	ac := controllers.NewApiController(&testutil.MockLogger{}, service, nil, nil, nil, testutil.NewMockCache())

	router := InitRoutes(ac, conf)
	routes := router.GetRoutes()

	urls := make([]string, 0, len(routes))
	for _, route := range routes {
		urls = append(urls, route.Url)
	}
	assert.Equal(t, []string{
		"GET /posts",
		"POST /posts",
		"GET /hotspots",
		"GET /status",
		"GET /places",
	}, urls)

	mux := http.NewServeMux()
	for _, route := range routes {
		mux.Handle(route.Url, route.Handler)
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/posts", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	// The mux answers for unsupported methods on known paths.
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/posts", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
