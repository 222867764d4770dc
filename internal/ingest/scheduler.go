package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/roylee0704/gron"
	"go.uber.org/atomic"

	"festmap/internal/ingest/interfaces"
	"festmap/internal/models"
	"festmap/internal/providers"
	"festmap/internal/services"
	"festmap/internal/store"
	"festmap/internal/structures"
)

// Scheduler drives the ingestion loop: one immediate poll at startup, then
// one per poll interval, plus the snapshot-persist cycle. Every poll carries
// a sequence number so an overlapping fetch that resolves late cannot
// overwrite a newer result.
type Scheduler struct {
	config      *structures.Config
	logger      providers.Logger
	service     services.PostServiceInterface
	rows        store.RowStoreInterface
	fileManager *FileManager
	archive     *PinArchive
	metrics     providers.MetricsProviderInterface
	cron        *gron.Cron
	seq         atomic.Int64
	ctx         context.Context
	cancel      context.CancelFunc
	knownMu     sync.Mutex
	known       map[string]*models.PostRecord
	opsMu       sync.Mutex
}

func NewScheduler(config *structures.Config, logger providers.Logger, service services.PostServiceInterface, rows store.RowStoreInterface, fileManager *FileManager, archive *PinArchive, metrics providers.MetricsProviderInterface) interfaces.SchedulerInterface {
	return &Scheduler{
		config:      config,
		logger:      logger,
		service:     service,
		rows:        rows,
		fileManager: fileManager,
		archive:     archive,
		metrics:     metrics,
		known:       make(map[string]*models.PostRecord),
	}
}

func (s *Scheduler) Init() {
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.cron = gron.New()

	s.cron.AddFunc(gron.Every(s.config.Festival.PollInterval), s.poll)

	s.cron.AddFunc(gron.Every(s.config.Persistence.SaveInterval), func() {
		if err := s.Persist(); err != nil {
			s.logger.Errorf(providers.TypeApp, "Error while persisting data: %s", err)
			return
		}
		s.logger.Infof(providers.TypeApp, "Persisted data to file %s", s.config.Persistence.FilePath)
	})

	s.cron.Start()

	// First fetch happens right away, not a full interval from now.
	go s.poll()
}

func (s *Scheduler) Stop() {
	// Cancelling the root context tears down any in-flight fetch; a stale
	// response can no longer land after teardown.
	if s.cancel != nil {
		s.cancel()
	}
	if s.cron != nil {
		s.cron.Stop()
	}
}

// TriggerPoll runs one extra cycle immediately. Sequence numbers keep it
// safe next to the recurring timer.
func (s *Scheduler) TriggerPoll() {
	if s.ctx == nil || s.ctx.Err() != nil {
		return
	}
	go s.poll()
}

func (s *Scheduler) poll() {
	start := time.Now()
	seq := s.seq.Inc()
	f := s.config.Festival
	since := time.Now().Add(-f.Lookback)

	posts, err := s.rows.FetchRecent(s.ctx, since, f.TenantID, f.MaxPosts)
	if store.IsUnknownColumn(err) {
		// Backing schema without festival_id: retry the identical query
		// once without the tenant filter.
		s.metrics.IncSchemaFallbacks("fetch")
		s.logger.Warnf(providers.TypeIngest, "Schema without festival_id, retrying fetch without filter")
		posts, err = s.rows.FetchRecent(s.ctx, since, "", f.MaxPosts)
	}
	s.metrics.ObservePollDuration(time.Since(start))

	if err != nil {
		if s.ctx.Err() != nil {
			return
		}
		s.metrics.IncPollsTotal("error")
		s.logger.Errorf(providers.TypeIngest, "Poll %d failed: %s", seq, err)
		s.service.SetStatus(fmt.Sprintf("error: %s", err))
		return
	}

	if !s.service.ApplyFetch(seq, posts) {
		s.metrics.IncPollsTotal("stale")
		s.logger.Debugf(providers.TypeIngest, "Poll %d resolved after a newer one, discarded", seq)
		return
	}

	s.archiveDropped(posts)
	s.metrics.IncPollsTotal("ok")
	s.service.SetStatus(fmt.Sprintf("loaded %d pins", len(posts)))
	s.logger.Infof(providers.TypeIngest, "Poll %d applied: %d pins, %d hotspots", seq, len(posts), len(s.service.GetHotspots()))
}

// archiveDropped hands pins that fell out of the lookback window since the
// previous poll to the archive, then updates the known set.
func (s *Scheduler) archiveDropped(current []*models.PostRecord) {
	s.knownMu.Lock()
	defer s.knownMu.Unlock()

	currentIDs := make(map[string]struct{}, len(current))
	for _, p := range current {
		if p != nil && p.ID != "" {
			currentIDs[p.ID] = struct{}{}
		}
	}

	cutoff := time.Now().Add(-s.config.Festival.Lookback)
	for id, p := range s.known {
		if _, still := currentIDs[id]; still {
			continue
		}
		// Missing because it expired, not because a capped fetch lost it.
		if p.CreatedAt.Before(cutoff) {
			s.archive.Append(p)
		}
		delete(s.known, id)
	}
	for _, p := range current {
		if p != nil && p.ID != "" {
			s.known[p.ID] = p
		}
	}
}

func (s *Scheduler) Restore() error {
	if err := s.fileManager.LoadFromFile(s.config.Persistence.FilePath); err != nil {
		return err
	}
	// Resume sequence numbering past the restored snapshot so the next poll
	// is not mistaken for a stale one.
	s.seq.Store(s.service.LastSeq())

	s.knownMu.Lock()
	for _, p := range s.service.GetPosts() {
		if p != nil && p.ID != "" {
			s.known[p.ID] = p
		}
	}
	s.knownMu.Unlock()
	return nil
}

func (s *Scheduler) Persist() error {
	s.opsMu.Lock()
	defer s.opsMu.Unlock()

	start := time.Now()
	if err := s.fileManager.SaveToFile(s.config.Persistence.FilePath); err != nil {
		return err
	}
	if err := s.archive.Flush(); err != nil {
		return err
	}
	s.metrics.ObservePersistenceDuration(time.Since(start))
	return nil
}
