package testutil

import (
	"context"
	"sync"
	"time"

	"festmap/internal/models"
	"festmap/internal/providers"
)

// MockLogger implements providers.Logger and records calls.
type MockLogger struct {
	mu   sync.Mutex
	Logs []LogEntry
}

type LogEntry struct {
	Level  string
	Type   providers.TypeEnum
	Format string
	Args   []interface{}
}

func (m *MockLogger) record(level string, t providers.TypeEnum, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logs = append(m.Logs, LogEntry{Level: level, Type: t, Format: format, Args: args})
}

func (m *MockLogger) Errorf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("error", t, format, args...)
}
func (m *MockLogger) Warnf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("warn", t, format, args...)
}
func (m *MockLogger) Debugf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("debug", t, format, args...)
}
func (m *MockLogger) Infof(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("info", t, format, args...)
}
func (m *MockLogger) Fatalf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("fatal", t, format, args...)
}
func (m *MockLogger) Close() {}

// MockPostService implements services.PostServiceInterface.
type MockPostService struct {
	mu           sync.Mutex
	Applied      []ApplyCall
	Posts        []*models.PostRecord
	Hotspots     []models.Hotspot
	Status       string
	Seq          int64
	Snapshot     *models.Snapshot
	PutSnapshots []*models.Snapshot
	RejectApply  bool
}

type ApplyCall struct {
	Seq   int64
	Posts []*models.PostRecord
}

func (m *MockPostService) ApplyFetch(seq int64, posts []*models.PostRecord) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.RejectApply {
		return false
	}
	m.Applied = append(m.Applied, ApplyCall{Seq: seq, Posts: posts})
	m.Posts = posts
	m.Seq = seq
	return true
}

func (m *MockPostService) GetPosts() []*models.PostRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Posts
}

func (m *MockPostService) GetHotspots() []models.Hotspot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Hotspots
}

func (m *MockPostService) GetPostCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Posts)
}

func (m *MockPostService) GetStatus() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Status
}

func (m *MockPostService) SetStatus(status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Status = status
}

func (m *MockPostService) LastSeq() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Seq
}

func (m *MockPostService) LastUpdated() time.Time { return time.Time{} }

func (m *MockPostService) GetSnapshot() *models.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Snapshot != nil {
		return m.Snapshot
	}
	return &models.Snapshot{Version: models.SnapshotVersion, Posts: m.Posts, LastSeq: m.Seq}
}

func (m *MockPostService) PutSnapshot(snap *models.Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PutSnapshots = append(m.PutSnapshots, snap)
	if snap != nil {
		m.Posts = snap.Posts
		m.Seq = snap.LastSeq
	}
}

// MockRowStore implements store.RowStoreInterface with injectable behavior.
type MockRowStore struct {
	mu          sync.Mutex
	FetchFn     func(ctx context.Context, since time.Time, festivalID string, limit int) ([]*models.PostRecord, error)
	InsertFn    func(ctx context.Context, row *models.PostRecord) (*models.PostRecord, error)
	FetchCalls  []FetchCall
	InsertCalls []*models.PostRecord
}

type FetchCall struct {
	Since      time.Time
	FestivalID string
	Limit      int
}

func (m *MockRowStore) FetchRecent(ctx context.Context, since time.Time, festivalID string, limit int) ([]*models.PostRecord, error) {
	m.mu.Lock()
	m.FetchCalls = append(m.FetchCalls, FetchCall{Since: since, FestivalID: festivalID, Limit: limit})
	m.mu.Unlock()
	if m.FetchFn != nil {
		return m.FetchFn(ctx, since, festivalID, limit)
	}
	return nil, nil
}

func (m *MockRowStore) Insert(ctx context.Context, row *models.PostRecord) (*models.PostRecord, error) {
	m.mu.Lock()
	m.InsertCalls = append(m.InsertCalls, row)
	m.mu.Unlock()
	if m.InsertFn != nil {
		return m.InsertFn(ctx, row)
	}
	stored := *row
	stored.ID = "generated"
	stored.CreatedAt = time.Now()
	return &stored, nil
}

// MockMediaStore implements store.MediaStoreInterface.
type MockMediaStore struct {
	mu          sync.Mutex
	UploadFn    func(ctx context.Context, path string, data []byte, contentType string) error
	UploadCalls []UploadCall
}

type UploadCall struct {
	Path        string
	Size        int
	ContentType string
}

func (m *MockMediaStore) Upload(ctx context.Context, path string, data []byte, contentType string) error {
	m.mu.Lock()
	m.UploadCalls = append(m.UploadCalls, UploadCall{Path: path, Size: len(data), ContentType: contentType})
	m.mu.Unlock()
	if m.UploadFn != nil {
		return m.UploadFn(ctx, path, data, contentType)
	}
	return nil
}

func (m *MockMediaStore) PublicURL(path string) string {
	return "https://media.example/" + path
}

// MockCache implements providers.CacheProviderInterface.
type MockCache struct {
	mu   sync.Mutex
	Data map[string][]byte
}

func NewMockCache() *MockCache {
	return &MockCache{Data: make(map[string][]byte)}
}

func (m *MockCache) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.Data[key]
	return val, ok
}

func (m *MockCache) Set(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Data[key] = value
}

// MockCompressor implements interfaces.CompressorInterface with injectable behavior.
type MockCompressor struct {
	CompressFn   func([]byte) ([]byte, error)
	DecompressFn func([]byte) ([]byte, error)
}

func (m *MockCompressor) Compress(val []byte) ([]byte, error) {
	if m.CompressFn != nil {
		return m.CompressFn(val)
	}
	// Default: return as-is (identity)
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (m *MockCompressor) Decompress(val []byte) ([]byte, error) {
	if m.DecompressFn != nil {
		return m.DecompressFn(val)
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (m *MockCompressor) Close() {}

// MockMetrics implements providers.MetricsProviderInterface and counts calls.
type MockMetrics struct {
	mu              sync.Mutex
	Polls           map[string]int
	SchemaFallbacks map[string]int
	Publishes       map[string]int
}

func (m *MockMetrics) inc(target *map[string]int, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if *target == nil {
		*target = make(map[string]int)
	}
	(*target)[key]++
}

func (m *MockMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (m *MockMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (m *MockMetrics) IncCacheHits()                                    {}
func (m *MockMetrics) IncCacheMisses()                                  {}
func (m *MockMetrics) IncPollsTotal(result string)                      { m.inc(&m.Polls, result) }
func (m *MockMetrics) ObservePollDuration(_ time.Duration)              {}
func (m *MockMetrics) IncSchemaFallbacks(op string)                     { m.inc(&m.SchemaFallbacks, op) }
func (m *MockMetrics) IncPublishesTotal(result string)                  { m.inc(&m.Publishes, result) }
func (m *MockMetrics) ObservePersistenceDuration(_ time.Duration)       {}
