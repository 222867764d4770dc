package store

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"festmap/internal/models"
	"festmap/internal/structures"
)

func storeConfig(baseURL string) *structures.Config {
	return &structures.Config{
		Store: structures.StoreConfig{
			BaseURL: baseURL,
			APIKey:  "secret-key",
			Table:   "posts",
			Bucket:  "posts",
			Timeout: 5 * time.Second,
		},
	}
}

func TestRowStore_FetchRecentBuildsQuery(t *testing.T) {
	var captured *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r.Clone(context.Background())
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":"p1","media_url":"https://m/p.jpg","media_type":"image","lat":30.1,"lng":-97.2,"created_at":"2026-08-30T12:00:00Z"}]`))
	}))
	defer srv.Close()

	rs := NewRowStore(storeConfig(srv.URL))
	since := time.Date(2026, 8, 30, 11, 0, 0, 0, time.UTC)
	rows, err := rs.FetchRecent(context.Background(), since, "acl_demo", 250)

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "p1", rows[0].ID)

	require.NotNil(t, captured)
	assert.Equal(t, "/rest/v1/posts", captured.URL.Path)
	q := captured.URL.Query()
	assert.Equal(t, "*", q.Get("select"))
	assert.Equal(t, "gt.2026-08-30T11:00:00Z", q.Get("created_at"))
	assert.Equal(t, "eq.acl_demo", q.Get("festival_id"))
	assert.Equal(t, "created_at.desc", q.Get("order"))
	assert.Equal(t, "250", q.Get("limit"))
	assert.Equal(t, "secret-key", captured.Header.Get("apikey"))
	assert.Equal(t, "Bearer secret-key", captured.Header.Get("Authorization"))
}

func TestRowStore_FetchRecentWithoutTenantFilter(t *testing.T) {
	var captured *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r.Clone(context.Background())
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	rs := NewRowStore(storeConfig(srv.URL))
	rows, err := rs.FetchRecent(context.Background(), time.Now(), "", 10)

	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.False(t, captured.URL.Query().Has("festival_id"))
}

func TestRowStore_UndefinedColumnClassified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":"42703","message":"column posts.festival_id does not exist"}`))
	}))
	defer srv.Close()

	rs := NewRowStore(storeConfig(srv.URL))
	_, err := rs.FetchRecent(context.Background(), time.Now(), "acl_demo", 10)

	require.Error(t, err)
	assert.True(t, IsUnknownColumn(err))
	serr := err.(*Error)
	assert.Equal(t, "42703", serr.Code)
	assert.Equal(t, http.StatusBadRequest, serr.Status)
}

func TestRowStore_ServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	rs := NewRowStore(storeConfig(srv.URL))
	_, err := rs.FetchRecent(context.Background(), time.Now(), "acl_demo", 10)

	require.Error(t, err)
	assert.False(t, IsUnknownColumn(err))
	assert.Equal(t, KindTransient, err.(*Error).Kind)
}

func TestRowStore_InsertReturnsRepresentation(t *testing.T) {
	var captured *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r.Clone(context.Background())
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`[{"id":"p9","media_url":"https://m/p.jpg","media_type":"image","lat":1,"lng":2,"created_at":"2026-08-30T12:00:00Z","festival_id":"acl_demo"}]`))
	}))
	defer srv.Close()

	rs := NewRowStore(storeConfig(srv.URL))
	stored, err := rs.Insert(context.Background(), &models.PostRecord{
		MediaURL:   "https://m/p.jpg",
		MediaType:  models.MediaImage,
		Lat:        1,
		Lng:        2,
		FestivalID: "acl_demo",
	})

	require.NoError(t, err)
	assert.Equal(t, "p9", stored.ID)
	assert.Equal(t, http.MethodPost, captured.Method)
	assert.Equal(t, "application/json", captured.Header.Get("Content-Type"))
	assert.Equal(t, "return=representation", captured.Header.Get("Prefer"))
}

func TestRowStore_InsertUndefinedColumn(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":"42703","message":"column posts.festival_id does not exist"}`))
	}))
	defer srv.Close()

	rs := NewRowStore(storeConfig(srv.URL))
	_, err := rs.Insert(context.Background(), &models.PostRecord{MediaURL: "x", MediaType: models.MediaImage})

	assert.True(t, IsUnknownColumn(err))
}

func TestClassifyKind(t *testing.T) {
	assert.Equal(t, KindUnknownColumn, classifyKind(400, "42703"))
	assert.Equal(t, KindConflict, classifyKind(409, ""))
	assert.Equal(t, KindBadRequest, classifyKind(422, ""))
	assert.Equal(t, KindTransient, classifyKind(500, ""))
	assert.Equal(t, KindTransient, classifyKind(0, ""))
}
