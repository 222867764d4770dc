package services

import (
	"sync"
	"time"

	"festmap/internal/models"
	"festmap/internal/structures"
)

// StatusLoading is the externally observable state before the first poll
// completes.
const StatusLoading = "loading"

type PostServiceInterface interface {
	// ApplyFetch installs a poll result and synchronously recomputes the
	// hotspot ranking. Results from polls older than the last applied one
	// are discarded; returns whether the result was applied.
	ApplyFetch(seq int64, posts []*models.PostRecord) bool
	GetPosts() []*models.PostRecord
	GetHotspots() []models.Hotspot
	GetPostCount() int
	GetStatus() string
	SetStatus(status string)
	LastSeq() int64
	LastUpdated() time.Time
	GetSnapshot() *models.Snapshot
	PutSnapshot(snap *models.Snapshot)
}

// PostService owns the visible pin set and everything derived from it.
type PostService struct {
	conf *structures.Config

	posts models.PostSet

	mu          sync.RWMutex
	hotspots    []models.Hotspot
	status      string
	lastUpdated time.Time
}

func NewPostService(conf *structures.Config) PostServiceInterface {
	return &PostService{
		conf:   conf,
		status: StatusLoading,
	}
}

func (ps *PostService) ApplyFetch(seq int64, posts []*models.PostRecord) bool {
	if !ps.posts.Apply(seq, posts) {
		return false
	}
	ps.recompute(posts)
	return true
}

// recompute derives the hotspot ranking from one consistent post-set
// reference. No hidden caching: every applied update goes through here.
func (ps *PostService) recompute(posts []*models.PostRecord) {
	f := ps.conf.Festival
	hotspots := models.ComputeHotspots(posts, time.Now(), f.HotspotWindow, f.CellSize, f.TopHotspots)

	ps.mu.Lock()
	ps.hotspots = hotspots
	ps.lastUpdated = time.Now()
	ps.mu.Unlock()
}

func (ps *PostService) GetPosts() []*models.PostRecord {
	return ps.posts.Get()
}

func (ps *PostService) GetHotspots() []models.Hotspot {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return ps.hotspots
}

func (ps *PostService) GetPostCount() int {
	return ps.posts.Len()
}

func (ps *PostService) GetStatus() string {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return ps.status
}

func (ps *PostService) SetStatus(status string) {
	ps.mu.Lock()
	ps.status = status
	ps.mu.Unlock()
}

func (ps *PostService) LastSeq() int64 {
	return ps.posts.LastSeq()
}

func (ps *PostService) LastUpdated() time.Time {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return ps.lastUpdated
}

func (ps *PostService) GetSnapshot() *models.Snapshot {
	return &models.Snapshot{
		Version: models.SnapshotVersion,
		SavedAt: time.Now(),
		LastSeq: ps.posts.LastSeq(),
		Posts:   ps.posts.Get(),
	}
}

// PutSnapshot restores a persisted pin set, dropping rows that have aged out
// of the lookback window while the daemon was down.
func (ps *PostService) PutSnapshot(snap *models.Snapshot) {
	if snap == nil {
		return
	}
	cutoff := time.Now().Add(-ps.conf.Festival.Lookback)
	fresh := make([]*models.PostRecord, 0, len(snap.Posts))
	for _, p := range snap.Posts {
		if p == nil || p.CreatedAt.Before(cutoff) {
			continue
		}
		fresh = append(fresh, p)
		if max := ps.conf.Festival.MaxPosts; max > 0 && len(fresh) >= max {
			break
		}
	}
	seq := snap.LastSeq
	if seq <= 0 {
		// Legacy snapshots carry no sequence; still newer than nothing.
		seq = 1
	}
	if ps.posts.Apply(seq, fresh) {
		ps.recompute(fresh)
	}
}
