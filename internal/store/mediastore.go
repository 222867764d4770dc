package store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"

	"festmap/internal/structures"
)

// MediaStoreInterface uploads photo bytes and resolves durable public URLs.
type MediaStoreInterface interface {
	Upload(ctx context.Context, path string, data []byte, contentType string) error
	PublicURL(path string) string
}

// MediaStore talks to a Supabase-style object storage endpoint
// (/storage/v1/object/{bucket}).
type MediaStore struct {
	baseURL string
	apiKey  string
	bucket  string
	client  *http.Client
}

func NewMediaStore(conf *structures.Config) MediaStoreInterface {
	return &MediaStore{
		baseURL: strings.TrimRight(conf.Store.BaseURL, "/"),
		apiKey:  conf.Store.APIKey,
		bucket:  conf.Store.Bucket,
		client:  newHTTPClient(conf.Store.Timeout),
	}
}

func (ms *MediaStore) Upload(ctx context.Context, path string, data []byte, contentType string) error {
	endpoint := fmt.Sprintf("%s/storage/v1/object/%s/%s", ms.baseURL, ms.bucket, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return &Error{Kind: KindTransient, Op: "upload", Message: err.Error()}
	}
	if ms.apiKey != "" {
		req.Header.Set("apikey", ms.apiKey)
		req.Header.Set("Authorization", "Bearer "+ms.apiKey)
	}
	req.Header.Set("Content-Type", contentType)
	// Never overwrite: the path scheme guarantees practical non-collision,
	// the store enforces it.
	req.Header.Set("x-upsert", "false")

	resp, err := ms.client.Do(req)
	if err != nil {
		return &Error{Kind: KindTransient, Op: "upload", Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 == 2 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var storageErr struct {
		Message string `json:"message"`
	}
	_ = json.Unmarshal(body, &storageErr)
	if storageErr.Message == "" {
		storageErr.Message = strings.TrimSpace(string(body))
	}
	return &Error{
		Kind:    classifyKind(resp.StatusCode, ""),
		Op:      "upload",
		Status:  resp.StatusCode,
		Message: storageErr.Message,
	}
}

func (ms *MediaStore) PublicURL(path string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", ms.baseURL, ms.bucket, path)
}
