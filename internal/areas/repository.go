package areas

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/exploremaine/explore/internal/metrics"
	"github.com/exploremaine/explore/internal/portal"
)

// Cache is the offline storage the repository downloads into.
// *offline.Store implements it.
type Cache interface {
	portal.Materializer
	Root() string
	Provision() (created bool, err error)
	Exists(title string) bool
	Remove(ctx context.Context, title string) error
}

// Options configure a Repository.
type Options struct {
	// ThumbnailTimeout bounds each thumbnail fetch. Zero leaves fetches bound
	// only by the caller's context.
	ThumbnailTimeout time.Duration
	Logger           zerolog.Logger
	Metrics          *metrics.Recorder
}

// Repository wraps a portal data source and the offline cache behind
// blocking, context-aware operations.
type Repository struct {
	source           portal.DataSource
	cache            Cache
	thumbnailTimeout time.Duration
	logger           zerolog.Logger
	metrics          *metrics.Recorder
}

// NewRepository builds a Repository over source and cache.
func NewRepository(source portal.DataSource, cache Cache, opts Options) *Repository {
	return &Repository{
		source:           source,
		cache:            cache,
		thumbnailTimeout: opts.ThumbnailTimeout,
		logger:           opts.Logger.With().Str("component", "areas").Logger(),
		metrics:          opts.Metrics,
	}
}

// ProvisionStorage creates the offline directory. The outcome is logged and
// never returned.
func (r *Repository) ProvisionStorage() {
	created, err := r.cache.Provision()
	switch {
	case err != nil:
		r.logger.Error().Err(err).Str("dir", r.cache.Root()).Msg("offline map directory could not be created")
	case created:
		r.logger.Info().Str("dir", r.cache.Root()).Msg("offline map directory created")
	default:
		r.logger.Debug().Str("dir", r.cache.Root()).Msg("offline map directory already exists")
	}
}

// FetchMap loads the web map summary, including its thumbnail when the item
// names one.
func (r *Repository) FetchMap(ctx context.Context) (MapSummary, error) {
	item, err := r.source.FetchItem(ctx)
	if err != nil {
		return MapSummary{}, fmt.Errorf("fetch map: %w", err)
	}
	return MapSummary{
		ID:        item.ID,
		Title:     item.Title,
		Snippet:   item.Snippet,
		Thumbnail: r.fetchThumbnail(ctx, item),
	}, nil
}

// FetchAreas lists the map's offline areas in data-source order. Each area is
// Downloaded when its package path exists now, else Downloadable. Thumbnails
// are fetched concurrently and the list is returned once every fetch has
// settled.
func (r *Repository) FetchAreas(ctx context.Context) ([]AreaInfo, error) {
	descriptors, err := r.source.FetchAreas(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch areas: %w", err)
	}

	infos := make([]AreaInfo, len(descriptors))
	for i, area := range descriptors {
		status := Downloadable
		if r.cache.Exists(area.Title) {
			status = Downloaded
		}
		infos[i] = AreaInfo{Area: area, Status: status}
	}

	var g errgroup.Group
	for i := range infos {
		g.Go(func() error {
			infos[i].Thumbnail = r.fetchThumbnail(ctx, infos[i].Area.Item)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("fetch areas: %w", err)
	}
	r.logger.Debug().Int("count", len(infos)).Msg("map areas loaded")
	return infos, nil
}

func (r *Repository) fetchThumbnail(ctx context.Context, item portal.Item) []byte {
	if !item.HasThumbnail() {
		return nil
	}
	if r.thumbnailTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.thumbnailTimeout)
		defer cancel()
	}

	data, err := r.source.FetchThumbnail(ctx, item)
	if err != nil {
		label := metrics.ResultFailure
		if errors.Is(err, context.DeadlineExceeded) {
			label = metrics.ResultTimeout
		}
		r.metrics.ThumbnailFetched(label)
		r.logger.Warn().Err(err).Str("item", item.ID).Str("result", label).Msg("thumbnail unavailable")
		return nil
	}
	r.metrics.ThumbnailFetched(metrics.ResultSuccess)
	return data
}

// DownloadArea runs the area's package job into the offline cache and
// reports whether it succeeded. Failure detail is logged, not returned.
func (r *Repository) DownloadArea(ctx context.Context, area portal.Area) bool {
	finish := r.metrics.DownloadStarted()
	logger := r.logger.With().Str("area", area.Title).Logger()
	logger.Info().Msg("download started")

	job := r.source.DownloadArea(area, r.cache)
	job.Start(ctx)
	status, err := job.Wait(ctx)

	ok := err == nil && status == portal.JobSucceeded
	finish(ok)
	if !ok {
		if err == nil {
			err = job.Err()
		}
		logger.Error().Err(err).Str("status", status.String()).Msg("download failed")
		return false
	}
	logger.Info().Msg("download finished")
	return true
}

// DeleteArea removes the area's package from the offline cache. Removing an
// area that is not present succeeds.
func (r *Repository) DeleteArea(ctx context.Context, area portal.Area) error {
	err := r.cache.Remove(ctx, area.Title)
	r.metrics.DeleteFinished(err)
	if err != nil {
		r.logger.Error().Err(err).Str("area", area.Title).Msg("delete failed")
		return fmt.Errorf("delete area %q: %w", area.Title, err)
	}
	r.logger.Info().Str("area", area.Title).Msg("area deleted")
	return nil
}
