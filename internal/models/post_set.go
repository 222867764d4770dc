package models

import "sync"

// PostSet holds the currently-visible pin set together with the sequence
// number of the poll that produced it. Apply rejects results from polls
// older than the last applied one, so overlapping fetches that resolve out
// of order cannot roll the set backwards.
type PostSet struct {
	mu      sync.RWMutex
	posts   []*PostRecord
	lastSeq int64
}

// Apply replaces the set if seq is newer than the last applied sequence.
// Returns false when the result is stale and was discarded.
func (ps *PostSet) Apply(seq int64, posts []*PostRecord) bool {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if seq <= ps.lastSeq {
		return false
	}
	ps.lastSeq = seq
	ps.posts = posts
	return true
}

// Get returns the current set. The slice is shared; callers must treat it
// as read-only and hold the same reference for a whole computation.
func (ps *PostSet) Get() []*PostRecord {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return ps.posts
}

func (ps *PostSet) Len() int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return len(ps.posts)
}

func (ps *PostSet) LastSeq() int64 {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return ps.lastSeq
}
