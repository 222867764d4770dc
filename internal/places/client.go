package places

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"festmap/internal/providers"
	"festmap/internal/structures"
)

// Place is one candidate returned by the free-text lookup.
type Place struct {
	Name    string  `json:"name"`
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

type ClientInterface interface {
	// Search resolves a free-text query, optionally biased toward a
	// coordinate. Lookup failures degrade to an empty result list.
	Search(ctx context.Context, query string, biasLat, biasLng float64) []Place
}

// Client queries a Nominatim-style geocoding endpoint and caches results so
// repeated searches during one festival do not hammer the provider.
type Client struct {
	conf   *structures.Config
	logger providers.Logger
	cache  providers.CacheProviderInterface
	client *http.Client
}

func NewClient(conf *structures.Config, logger providers.Logger, cache providers.CacheProviderInterface) ClientInterface {
	timeout := conf.Places.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		conf:   conf,
		logger: logger,
		cache:  cache,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:       http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
			},
		},
	}
}

type nominatimRow struct {
	DisplayName string `json:"display_name"`
	Name        string `json:"name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
}

func (c *Client) Search(ctx context.Context, query string, biasLat, biasLng float64) []Place {
	query = strings.TrimSpace(query)
	if query == "" || c.conf.Places.BaseURL == "" {
		return nil
	}

	cacheKey := fmt.Sprintf("places:%s:%.3f:%.3f", query, biasLat, biasLng)
	if data, ok := c.cache.Get(cacheKey); ok {
		var cached []Place
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached
		}
	}

	results := c.lookup(ctx, query, biasLat, biasLng)
	if data, err := json.Marshal(results); err == nil {
		c.cache.Set(cacheKey, data)
	}
	return results
}

func (c *Client) lookup(ctx context.Context, query string, biasLat, biasLng float64) []Place {
	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "jsonv2")
	q.Set("limit", fmt.Sprintf("%d", c.conf.Places.Limit))
	if biasLat != 0 || biasLng != 0 {
		// Bias box of roughly a couple of kilometers around the map center.
		q.Set("viewbox", fmt.Sprintf("%f,%f,%f,%f", biasLng-0.02, biasLat-0.02, biasLng+0.02, biasLat+0.02))
	}

	endpoint := strings.TrimRight(c.conf.Places.BaseURL, "/") + "/search?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		c.logger.Warnf(providers.TypeApp, "Place search request build failed: %s", err)
		return nil
	}
	req.Header.Set("User-Agent", "festmap-daemon")

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warnf(providers.TypeApp, "Place search failed: %s", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		c.logger.Warnf(providers.TypeApp, "Place search returned status %d", resp.StatusCode)
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil
	}
	var rows []nominatimRow
	if err := json.Unmarshal(body, &rows); err != nil {
		c.logger.Warnf(providers.TypeApp, "Place search decode failed: %s", err)
		return nil
	}

	results := make([]Place, 0, len(rows))
	for _, row := range rows {
		var lat, lng float64
		if _, err := fmt.Sscanf(row.Lat, "%f", &lat); err != nil {
			continue
		}
		if _, err := fmt.Sscanf(row.Lon, "%f", &lng); err != nil {
			continue
		}
		name := row.Name
		if name == "" {
			name = row.DisplayName
		}
		results = append(results, Place{
			Name:    name,
			Address: row.DisplayName,
			Lat:     lat,
			Lng:     lng,
		})
	}
	return results
}
