package models

import "time"

type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

// DefaultTag is the sentinel classifier used when a post carries no tag.
const DefaultTag = "stage"

// PostRecord is one user-submitted pin as stored in the remote posts table.
// JSON tags match the PostgREST column names, so the same struct is used for
// fetch decoding, insert encoding and snapshot persistence.
type PostRecord struct {
	ID         string     `json:"id,omitempty"`
	MediaURL   string     `json:"media_url"`
	MediaType  MediaType  `json:"media_type"`
	Caption    string     `json:"caption,omitempty"`
	Tag        string     `json:"tag,omitempty"`
	Lat        float64    `json:"lat"`
	Lng        float64    `json:"lng"`
	CreatedAt  time.Time  `json:"created_at,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	FestivalID string     `json:"festival_id,omitempty"`
}

// Snapshot is the on-disk persistence envelope for the visible pin set.
type Snapshot struct {
	Version int           `json:"version"`
	SavedAt time.Time     `json:"saved_at"`
	LastSeq int64         `json:"last_seq"`
	Posts   []*PostRecord `json:"posts"`
}

const SnapshotVersion = 1
