package store

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMediaStore_Upload(t *testing.T) {
	var captured *http.Request
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r.Clone(context.Background())
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ms := NewMediaStore(storeConfig(srv.URL))
	err := ms.Upload(context.Background(), "acl_demo/123-abc.jpg", []byte("jpeg bytes"), "image/jpeg")

	require.NoError(t, err)
	assert.Equal(t, "/storage/v1/object/posts/acl_demo/123-abc.jpg", captured.URL.Path)
	assert.Equal(t, "image/jpeg", captured.Header.Get("Content-Type"))
	assert.Equal(t, "false", captured.Header.Get("x-upsert"))
	assert.Equal(t, "Bearer secret-key", captured.Header.Get("Authorization"))
	assert.Equal(t, []byte("jpeg bytes"), body)
}

func TestMediaStore_UploadConflict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"message":"The resource already exists"}`))
	}))
	defer srv.Close()

	ms := NewMediaStore(storeConfig(srv.URL))
	err := ms.Upload(context.Background(), "acl_demo/dup.jpg", []byte("x"), "image/jpeg")

	require.Error(t, err)
	serr := err.(*Error)
	assert.Equal(t, KindConflict, serr.Kind)
	assert.Equal(t, "The resource already exists", serr.Message)
}

func TestMediaStore_UploadServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer srv.Close()

	ms := NewMediaStore(storeConfig(srv.URL))
	err := ms.Upload(context.Background(), "acl_demo/x.jpg", []byte("x"), "image/jpeg")

	require.Error(t, err)
	assert.Equal(t, KindTransient, err.(*Error).Kind)
}

func TestMediaStore_PublicURL(t *testing.T) {
	ms := NewMediaStore(storeConfig("https://project.supabase.co"))

	assert.Equal(t,
		"https://project.supabase.co/storage/v1/object/public/posts/acl_demo/123-abc.jpg",
		ms.PublicURL("acl_demo/123-abc.jpg"))
}
