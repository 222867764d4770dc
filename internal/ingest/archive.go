package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"

	"festmap/internal/ingest/interfaces"
	"festmap/internal/models"
	"festmap/internal/providers"
	"festmap/internal/structures"
)

const archiveSuffix = ".arch.zst"

// ArchivedPin is a single expired pin kept for the festival record.
type ArchivedPin struct {
	Post       *models.PostRecord `json:"post"`
	ArchivedAt time.Time          `json:"archived_at"`
}

type archiveFile struct {
	Entries []*ArchivedPin `json:"entries"`
}

// PinArchive keeps pins that aged out of the lookback window in per-day
// compressed files. Append buffers in memory; Flush is the only method that
// touches disk. Disabled entirely when no directory is configured.
type PinArchive struct {
	mu         sync.Mutex
	dir        string
	ttl        time.Duration
	pending    []*ArchivedPin
	compressor interfaces.CompressorInterface
	logger     providers.Logger
}

func NewPinArchive(conf *structures.Config, compressor interfaces.CompressorInterface, logger providers.Logger) *PinArchive {
	return &PinArchive{
		dir:        conf.Archive.Dir,
		ttl:        conf.Archive.TTL,
		compressor: compressor,
		logger:     logger,
	}
}

func (pa *PinArchive) Enabled() bool {
	return pa.dir != ""
}

// Append buffers expired pins for the next flush. No disk I/O.
func (pa *PinArchive) Append(posts ...*models.PostRecord) {
	if !pa.Enabled() || len(posts) == 0 {
		return
	}
	now := time.Now()
	pa.mu.Lock()
	defer pa.mu.Unlock()
	for _, p := range posts {
		if p == nil {
			continue
		}
		pa.pending = append(pa.pending, &ArchivedPin{Post: p, ArchivedAt: now})
	}
}

// Flush merges pending entries into their day files and removes files older
// than the retention TTL.
func (pa *PinArchive) Flush() error {
	if !pa.Enabled() {
		return nil
	}
	pa.mu.Lock()
	defer pa.mu.Unlock()

	if len(pa.pending) > 0 {
		if err := os.MkdirAll(pa.dir, 0755); err != nil {
			return err
		}

		byDay := make(map[string][]*ArchivedPin)
		for _, entry := range pa.pending {
			day := entry.ArchivedAt.Format("2006-01-02")
			byDay[day] = append(byDay[day], entry)
		}

		for day, entries := range byDay {
			path := filepath.Join(pa.dir, "pins-"+day+archiveSuffix)
			existing := pa.loadArchiveFile(path)
			existing.Entries = append(existing.Entries, entries...)
			if err := pa.writeArchiveFile(path, existing); err != nil {
				return err
			}
		}
		pa.pending = nil
	}

	pa.cleanupExpired()
	return nil
}

func (pa *PinArchive) Close() {
	if err := pa.Flush(); err != nil {
		pa.logger.Errorf(providers.TypeApp, "Archive flush on close failed: %s", err)
	}
}

func (pa *PinArchive) loadArchiveFile(path string) *archiveFile {
	af := &archiveFile{}
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			pa.logger.Errorf(providers.TypeApp, "Failed to read archive file %s: %s", path, err)
		}
		return af
	}
	decompressed, err := pa.compressor.Decompress(data)
	if err != nil {
		pa.logger.Errorf(providers.TypeApp, "Failed to decompress archive file %s: %s", path, err)
		return af
	}
	if err := json.Unmarshal(decompressed, af); err != nil {
		pa.logger.Errorf(providers.TypeApp, "Failed to decode archive file %s: %s", path, err)
		return &archiveFile{}
	}
	return af
}

func (pa *PinArchive) writeArchiveFile(path string, af *archiveFile) error {
	jsonData, err := json.Marshal(af)
	if err != nil {
		return err
	}
	data, err := pa.compressor.Compress(jsonData)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// cleanupExpired removes whole day files past the retention TTL. Must be
// called under pa.mu.
func (pa *PinArchive) cleanupExpired() {
	if pa.ttl <= 0 {
		return
	}
	files, err := filepath.Glob(filepath.Join(pa.dir, "pins-*"+archiveSuffix))
	if err != nil {
		return
	}
	cutoff := time.Now().Add(-pa.ttl)
	for _, file := range files {
		name := strings.TrimSuffix(filepath.Base(file), archiveSuffix)
		day, err := time.Parse("2006-01-02", strings.TrimPrefix(name, "pins-"))
		if err != nil {
			continue
		}
		// A day file is expired only once the whole day is past the TTL.
		if day.Add(24 * time.Hour).Before(cutoff) {
			os.Remove(file)
		}
	}
}
