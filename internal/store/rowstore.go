package store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"festmap/internal/models"
	"festmap/internal/structures"
)

// RowStoreInterface is the query/insert contract of the remote posts table.
type RowStoreInterface interface {
	// FetchRecent returns rows with created_at strictly after since, newest
	// first, capped at limit. An empty festivalID skips the tenant filter.
	FetchRecent(ctx context.Context, since time.Time, festivalID string, limit int) ([]*models.PostRecord, error)
	// Insert stores one row (id and created_at are store-assigned) and
	// returns the stored record.
	Insert(ctx context.Context, row *models.PostRecord) (*models.PostRecord, error)
}

// RowStore talks to a PostgREST-style endpoint (/rest/v1/{table}).
type RowStore struct {
	baseURL string
	apiKey  string
	table   string
	client  *http.Client
}

func NewRowStore(conf *structures.Config) RowStoreInterface {
	return &RowStore{
		baseURL: strings.TrimRight(conf.Store.BaseURL, "/"),
		apiKey:  conf.Store.APIKey,
		table:   conf.Store.Table,
		client:  newHTTPClient(conf.Store.Timeout),
	}
}

func (rs *RowStore) FetchRecent(ctx context.Context, since time.Time, festivalID string, limit int) ([]*models.PostRecord, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("created_at", "gt."+since.UTC().Format(time.RFC3339))
	if festivalID != "" {
		q.Set("festival_id", "eq."+festivalID)
	}
	q.Set("order", "created_at.desc")
	q.Set("limit", fmt.Sprintf("%d", limit))

	endpoint := fmt.Sprintf("%s/rest/v1/%s?%s", rs.baseURL, rs.table, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &Error{Kind: KindTransient, Op: "fetch", Message: err.Error()}
	}
	rs.setHeaders(req)

	body, serr := rs.do(req, "fetch")
	if serr != nil {
		return nil, serr
	}

	var rows []*models.PostRecord
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, &Error{Kind: KindTransient, Op: "fetch", Message: "decode rows: " + err.Error()}
	}
	return rows, nil
}

func (rs *RowStore) Insert(ctx context.Context, row *models.PostRecord) (*models.PostRecord, error) {
	payload, err := json.Marshal(row)
	if err != nil {
		return nil, &Error{Kind: KindBadRequest, Op: "insert", Message: err.Error()}
	}

	endpoint := fmt.Sprintf("%s/rest/v1/%s", rs.baseURL, rs.table)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, &Error{Kind: KindTransient, Op: "insert", Message: err.Error()}
	}
	rs.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=representation")

	body, serr := rs.do(req, "insert")
	if serr != nil {
		return nil, serr
	}

	var rows []*models.PostRecord
	if err := json.Unmarshal(body, &rows); err != nil || len(rows) == 0 {
		return nil, &Error{Kind: KindTransient, Op: "insert", Message: "decode inserted row"}
	}
	return rows[0], nil
}

func (rs *RowStore) setHeaders(req *http.Request) {
	if rs.apiKey != "" {
		req.Header.Set("apikey", rs.apiKey)
		req.Header.Set("Authorization", "Bearer "+rs.apiKey)
	}
}

// do executes the request and maps non-2xx responses to classified errors.
// PostgREST reports failures as {"code","message","details","hint"}.
func (rs *RowStore) do(req *http.Request, op string) ([]byte, *Error) {
	resp, err := rs.client.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindTransient, Op: op, Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, &Error{Kind: KindTransient, Op: op, Status: resp.StatusCode, Message: err.Error()}
	}
	if resp.StatusCode/100 == 2 {
		return body, nil
	}

	var pgErr struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	_ = json.Unmarshal(body, &pgErr)
	if pgErr.Message == "" {
		pgErr.Message = strings.TrimSpace(string(body))
	}
	return nil, &Error{
		Kind:    classifyKind(resp.StatusCode, pgErr.Code),
		Op:      op,
		Status:  resp.StatusCode,
		Code:    pgErr.Code,
		Message: pgErr.Message,
	}
}
