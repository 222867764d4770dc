package publish

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"festmap/internal/models"
	"festmap/internal/providers"
	"festmap/internal/store"
	"festmap/internal/structures"
)

// Request carries everything needed to turn a captured photo into a pin.
// Coordinates come from the caller; a client with a blocked location simply
// cannot build a valid request.
type Request struct {
	Data        []byte
	ContentType string
	MediaType   models.MediaType
	Caption     string
	Tag         string
	Lat         float64
	Lng         float64
}

type PublisherInterface interface {
	Publish(ctx context.Context, req *Request) (*models.PostRecord, error)
}

// Publisher uploads media and inserts the post row. The insert never starts
// before the upload succeeded; the two are not atomic with respect to a
// concurrently running poll.
type Publisher struct {
	conf    *structures.Config
	logger  providers.Logger
	rows    store.RowStoreInterface
	media   store.MediaStoreInterface
	metrics providers.MetricsProviderInterface
}

func NewPublisher(conf *structures.Config, logger providers.Logger, rows store.RowStoreInterface, media store.MediaStoreInterface, metrics providers.MetricsProviderInterface) PublisherInterface {
	return &Publisher{
		conf:    conf,
		logger:  logger,
		rows:    rows,
		media:   media,
		metrics: metrics,
	}
}

func (p *Publisher) Publish(ctx context.Context, req *Request) (*models.PostRecord, error) {
	if len(req.Data) == 0 {
		p.metrics.IncPublishesTotal("bad_request")
		return nil, fmt.Errorf("publish: empty media payload")
	}
	contentType := req.ContentType
	if contentType == "" {
		contentType = "image/jpeg"
	}
	mediaType := req.MediaType
	if mediaType == "" {
		mediaType = models.MediaImage
	}
	tag := req.Tag
	if tag == "" {
		tag = models.DefaultTag
	}

	tenant := p.conf.Festival.TenantID
	path := objectPath(tenant, contentType)

	if err := p.media.Upload(ctx, path, req.Data, contentType); err != nil {
		p.metrics.IncPublishesTotal("upload_error")
		p.logger.Errorf(providers.TypePublish, "Upload of %s failed: %s", path, err)
		return nil, fmt.Errorf("media upload: %w", err)
	}

	expiresAt := time.Now().Add(p.conf.Festival.PostTTL)
	row := &models.PostRecord{
		MediaURL:   p.media.PublicURL(path),
		MediaType:  mediaType,
		Caption:    req.Caption,
		Tag:        tag,
		Lat:        req.Lat,
		Lng:        req.Lng,
		ExpiresAt:  &expiresAt,
		FestivalID: tenant,
	}

	stored, err := p.rows.Insert(ctx, row)
	if store.IsUnknownColumn(err) {
		// Backing schema without festival_id: retry once without the
		// discriminator so the insert works either way.
		p.metrics.IncSchemaFallbacks("insert")
		p.logger.Warnf(providers.TypePublish, "Schema without festival_id, retrying insert without it")
		bare := *row
		bare.FestivalID = ""
		stored, err = p.rows.Insert(ctx, &bare)
	}
	if err != nil {
		p.metrics.IncPublishesTotal("insert_error")
		p.logger.Errorf(providers.TypePublish, "Insert failed for %s: %s", path, err)
		return nil, fmt.Errorf("row insert: %w", err)
	}

	p.metrics.IncPublishesTotal("ok")
	p.logger.Infof(providers.TypePublish, "Published pin %s at (%f, %f)", stored.ID, stored.Lat, stored.Lng)
	return stored, nil
}

// objectPath builds a collision-resistant storage path from the tenant,
// current time and a random suffix.
func objectPath(tenant, contentType string) string {
	return fmt.Sprintf("%s/%d-%s%s", tenant, time.Now().UnixMilli(), uuid.NewString(), extFor(contentType))
}

func extFor(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "video/mp4":
		return ".mp4"
	default:
		return ".bin"
	}
}
