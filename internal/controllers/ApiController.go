package controllers

import (
	"errors"
	"io"
	"net/http"

	json "github.com/goccy/go-json"
	"github.com/spf13/cast"

	"festmap/internal/ingest/interfaces"
	"festmap/internal/models"
	"festmap/internal/places"
	"festmap/internal/providers"
	"festmap/internal/publish"
	"festmap/internal/services"
	"festmap/internal/store"
)

const maxUploadSize = 8 << 20 // 8 MB

type ApiController struct {
	logger    providers.Logger
	service   services.PostServiceInterface
	publisher publish.PublisherInterface
	places    places.ClientInterface
	scheduler interfaces.SchedulerInterface
	cache     providers.CacheProviderInterface
}

func NewApiController(logger providers.Logger, service services.PostServiceInterface, publisher publish.PublisherInterface, placesClient places.ClientInterface, scheduler interfaces.SchedulerInterface, cache providers.CacheProviderInterface) *ApiController {
	return &ApiController{
		logger:    logger,
		service:   service,
		publisher: publisher,
		places:    placesClient,
		scheduler: scheduler,
		cache:     cache,
	}
}

func (ac *ApiController) serveFromCacheOrCompute(w http.ResponseWriter, cacheKey string, compute func() (any, error)) {
	if data, ok := ac.cache.Get(cacheKey); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		return
	}

	result, err := compute()
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	gson, err := json.Marshal(result)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	ac.cache.Set(cacheKey, gson)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(gson)
}

// GetPosts returns the currently-visible pin set, newest first.
func (ac *ApiController) GetPosts(w http.ResponseWriter, r *http.Request) {
	ac.serveFromCacheOrCompute(w, "posts", func() (any, error) {
		posts := ac.service.GetPosts()
		if posts == nil {
			posts = []*models.PostRecord{}
		}
		return posts, nil
	})
}

// GetHotspots returns the current hotspot ranking.
func (ac *ApiController) GetHotspots(w http.ResponseWriter, r *http.Request) {
	ac.serveFromCacheOrCompute(w, "hotspots", func() (any, error) {
		hotspots := ac.service.GetHotspots()
		if hotspots == nil {
			hotspots = []models.Hotspot{}
		}
		return hotspots, nil
	})
}

type statusResponse struct {
	Status       string `json:"status"`
	PostCount    int    `json:"post_count"`
	HotspotCount int    `json:"hotspot_count"`
	LastSeq      int64  `json:"last_seq"`
	UpdatedAt    string `json:"updated_at,omitempty"`
}

// GetStatus reports the ingestion state (loading / loaded-N / error text).
func (ac *ApiController) GetStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		Status:       ac.service.GetStatus(),
		PostCount:    ac.service.GetPostCount(),
		HotspotCount: len(ac.service.GetHotspots()),
		LastSeq:      ac.service.LastSeq(),
	}
	if updated := ac.service.LastUpdated(); !updated.IsZero() {
		resp.UpdatedAt = updated.UTC().Format("2006-01-02T15:04:05Z07:00")
	}
	writeJSON(w, http.StatusOK, resp)
}

// PublishPost accepts a multipart pin publication: photo plus coordinates
// and optional caption/tag. Coordinates are mandatory; a client whose
// location is blocked cannot form a valid request.
func (ac *ApiController) PublishPost(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	lat, latErr := cast.ToFloat64E(r.FormValue("lat"))
	lng, lngErr := cast.ToFloat64E(r.FormValue("lng"))
	if r.FormValue("lat") == "" || r.FormValue("lng") == "" || latErr != nil || lngErr != nil {
		http.Error(w, "lat and lng are required", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		http.Error(w, "photo is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	req := &publish.Request{
		Data:        data,
		ContentType: header.Header.Get("Content-Type"),
		MediaType:   models.MediaType(r.FormValue("media_type")),
		Caption:     r.FormValue("caption"),
		Tag:         r.FormValue("tag"),
		Lat:         lat,
		Lng:         lng,
	}

	stored, err := ac.publisher.Publish(r.Context(), req)
	if err != nil {
		ac.logger.Errorf(providers.TypePost, "Publish rejected: %s", err)
		var se *store.Error
		if errors.As(err, &se) && se.Kind == store.KindBadRequest {
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}
		http.Error(w, "publish failed: "+err.Error(), http.StatusBadGateway)
		return
	}

	// The pin would otherwise appear only on the next scheduled poll.
	ac.scheduler.TriggerPoll()

	writeJSON(w, http.StatusCreated, stored)
}

// SearchPlaces proxies the free-text place lookup. Lookup failures show up
// as an empty list, never as a 5xx.
func (ac *ApiController) SearchPlaces(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		http.Error(w, "q is required", http.StatusBadRequest)
		return
	}
	biasLat := cast.ToFloat64(r.URL.Query().Get("lat"))
	biasLng := cast.ToFloat64(r.URL.Query().Get("lng"))

	results := ac.places.Search(r.Context(), query, biasLat, biasLng)
	if results == nil {
		results = []places.Place{}
	}
	writeJSON(w, http.StatusOK, results)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	gson, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(gson)
}
