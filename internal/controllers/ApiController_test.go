package controllers

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"festmap/internal/models"
	"festmap/internal/places"
	"festmap/internal/publish"
	"festmap/internal/store"
	"festmap/internal/testutil"
)

type mockPublisher struct {
	mu       sync.Mutex
	Requests []*publish.Request
	Result   *models.PostRecord
	Err      error
}

func (m *mockPublisher) Publish(_ context.Context, req *publish.Request) (*models.PostRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests = append(m.Requests, req)
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Result != nil {
		return m.Result, nil
	}
	return &models.PostRecord{ID: "p1", Lat: req.Lat, Lng: req.Lng}, nil
}

type mockScheduler struct {
	mu       sync.Mutex
	Triggers int
}

func (m *mockScheduler) Init()          {}
func (m *mockScheduler) Stop()          {}
func (m *mockScheduler) Restore() error { return nil }
func (m *mockScheduler) Persist() error { return nil }
func (m *mockScheduler) TriggerPoll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Triggers++
}

type mockPlaces struct {
	Queries []string
	Results []places.Place
}

func (m *mockPlaces) Search(_ context.Context, query string, _, _ float64) []places.Place {
	m.Queries = append(m.Queries, query)
	return m.Results
}

func newTestController(service *testutil.MockPostService, publisher *mockPublisher, placesClient *mockPlaces, scheduler *mockScheduler) *ApiController {
	return NewApiController(&testutil.MockLogger{}, service, publisher, placesClient, scheduler, testutil.NewMockCache())
}

func multipartBody(t *testing.T, fields map[string]string, photo []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	if photo != nil {
		part, err := writer.CreateFormFile("photo", "pin.jpg")
		require.NoError(t, err)
		_, err = part.Write(photo)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func TestApiController_GetPosts(t *testing.T) {
	service := &testutil.MockPostService{
		Posts: []*models.PostRecord{{ID: "a", Lat: 30.1, Lng: -97.2, CreatedAt: time.Now()}},
	}
	ac := newTestController(service, &mockPublisher{}, &mockPlaces{}, &mockScheduler{})

	rec := httptest.NewRecorder()
	ac.GetPosts(rec, httptest.NewRequest(http.MethodGet, "/posts", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var got []*models.PostRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)
}

func TestApiController_GetPostsEmptyIsArray(t *testing.T) {
	ac := newTestController(&testutil.MockPostService{}, &mockPublisher{}, &mockPlaces{}, &mockScheduler{})

	rec := httptest.NewRecorder()
	ac.GetPosts(rec, httptest.NewRequest(http.MethodGet, "/posts", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", rec.Body.String())
}

func TestApiController_GetPostsServedFromCache(t *testing.T) {
	service := &testutil.MockPostService{}
	cache := testutil.NewMockCache()
	cache.Set("posts", []byte(`[{"id":"cached"}]`))
	ac := NewApiController(&testutil.MockLogger{}, service, &mockPublisher{}, &mockPlaces{}, &mockScheduler{}, cache)

	rec := httptest.NewRecorder()
	ac.GetPosts(rec, httptest.NewRequest(http.MethodGet, "/posts", nil))

	assert.Contains(t, rec.Body.String(), "cached")
}

func TestApiController_GetHotspots(t *testing.T) {
	service := &testutil.MockPostService{
		Hotspots: []models.Hotspot{{Key: "c1:2", Count: 4, Lat: 30.1, Lng: -97.2}},
	}
	ac := newTestController(service, &mockPublisher{}, &mockPlaces{}, &mockScheduler{})

	rec := httptest.NewRecorder()
	ac.GetHotspots(rec, httptest.NewRequest(http.MethodGet, "/hotspots", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var got []models.Hotspot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, 4, got[0].Count)
}

func TestApiController_GetStatus(t *testing.T) {
	service := &testutil.MockPostService{Status: "loaded 3 pins", Seq: 7}
	service.Posts = []*models.PostRecord{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	ac := newTestController(service, &mockPublisher{}, &mockPlaces{}, &mockScheduler{})

	rec := httptest.NewRecorder()
	ac.GetStatus(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "loaded 3 pins", got["status"])
	assert.Equal(t, float64(3), got["post_count"])
	assert.Equal(t, float64(7), got["last_seq"])
}

func TestApiController_PublishPost(t *testing.T) {
	publisher := &mockPublisher{}
	scheduler := &mockScheduler{}
	ac := newTestController(&testutil.MockPostService{}, publisher, &mockPlaces{}, scheduler)

	body, contentType := multipartBody(t, map[string]string{
		"lat":     "30.2669",
		"lng":     "-97.7428",
		"caption": "main stage",
	}, []byte("jpeg bytes"))
	req := httptest.NewRequest(http.MethodPost, "/posts", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	ac.PublishPost(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, publisher.Requests, 1)
	assert.Equal(t, []byte("jpeg bytes"), publisher.Requests[0].Data)
	assert.InDelta(t, 30.2669, publisher.Requests[0].Lat, 1e-9)
	assert.Equal(t, "main stage", publisher.Requests[0].Caption)
	assert.Equal(t, 1, scheduler.Triggers)
}

func TestApiController_PublishPostMissingCoordinates(t *testing.T) {
	publisher := &mockPublisher{}
	ac := newTestController(&testutil.MockPostService{}, publisher, &mockPlaces{}, &mockScheduler{})

	body, contentType := multipartBody(t, map[string]string{"lat": "30.2669"}, []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/posts", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	ac.PublishPost(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, publisher.Requests)
}

func TestApiController_PublishPostMissingPhoto(t *testing.T) {
	publisher := &mockPublisher{}
	ac := newTestController(&testutil.MockPostService{}, publisher, &mockPlaces{}, &mockScheduler{})

	body, contentType := multipartBody(t, map[string]string{"lat": "1", "lng": "2"}, nil)
	req := httptest.NewRequest(http.MethodPost, "/posts", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	ac.PublishPost(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, publisher.Requests)
}

func TestApiController_PublishPostStoreRejection(t *testing.T) {
	publisher := &mockPublisher{Err: &store.Error{Kind: store.KindBadRequest, Op: "insert", Status: 422}}
	scheduler := &mockScheduler{}
	ac := newTestController(&testutil.MockPostService{}, publisher, &mockPlaces{}, scheduler)

	body, contentType := multipartBody(t, map[string]string{"lat": "1", "lng": "2"}, []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/posts", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	ac.PublishPost(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, scheduler.Triggers)
}

func TestApiController_PublishPostUpstreamFailure(t *testing.T) {
	publisher := &mockPublisher{Err: &store.Error{Kind: store.KindTransient, Op: "upload", Status: 503}}
	ac := newTestController(&testutil.MockPostService{}, publisher, &mockPlaces{}, &mockScheduler{})

	body, contentType := multipartBody(t, map[string]string{"lat": "1", "lng": "2"}, []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/posts", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	ac.PublishPost(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestApiController_SearchPlaces(t *testing.T) {
	placesClient := &mockPlaces{Results: []places.Place{{Name: "Zilker Park", Lat: 30.26, Lng: -97.77}}}
	ac := newTestController(&testutil.MockPostService{}, &mockPublisher{}, placesClient, &mockScheduler{})

	rec := httptest.NewRecorder()
	ac.SearchPlaces(rec, httptest.NewRequest(http.MethodGet, "/places?q=zilker&lat=30.26&lng=-97.77", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"zilker"}, placesClient.Queries)
	var got []places.Place
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Zilker Park", got[0].Name)
}

func TestApiController_SearchPlacesMissingQuery(t *testing.T) {
	ac := newTestController(&testutil.MockPostService{}, &mockPublisher{}, &mockPlaces{}, &mockScheduler{})

	rec := httptest.NewRecorder()
	ac.SearchPlaces(rec, httptest.NewRequest(http.MethodGet, "/places", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestApiController_SearchPlacesEmptyIsArray(t *testing.T) {
	ac := newTestController(&testutil.MockPostService{}, &mockPublisher{}, &mockPlaces{}, &mockScheduler{})

	rec := httptest.NewRecorder()
	ac.SearchPlaces(rec, httptest.NewRequest(http.MethodGet, "/places?q=nothing", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", rec.Body.String())
}
