// Package explore implements the controller behind both screens. It owns the
// single ExploreState record, loads the map and its areas on Start, and turns
// user intents into optimistic status transitions backed by the area
// repository.
package explore

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/exploremaine/explore/internal/areas"
	"github.com/exploremaine/explore/internal/portal"
	"github.com/exploremaine/explore/internal/state"
)

const (
	defaultRetryBase = 2 * time.Second
	maxBackoff       = 30 * time.Second
)

// Repository is the subset of *areas.Repository the controller composes.
type Repository interface {
	ProvisionStorage()
	FetchMap(ctx context.Context) (areas.MapSummary, error)
	FetchAreas(ctx context.Context) ([]areas.AreaInfo, error)
	DownloadArea(ctx context.Context, area portal.Area) bool
	DeleteArea(ctx context.Context, area portal.Area) error
}

var _ Repository = (*areas.Repository)(nil)

// Options configure a Controller.
type Options struct {
	MapID     string
	RetryBase time.Duration // zero uses default
	Logger    zerolog.Logger
}

// Controller coordinates loading and area intents.
type Controller struct {
	repo      Repository
	store     *state.Store
	mapID     string
	retryBase time.Duration
	logger    zerolog.Logger

	ctxMu sync.Mutex
	ctx   context.Context

	startOnce sync.Once

	// closed is set by Close; background work is only added under wgMu while
	// it is false.
	wgMu   sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// New returns a Controller in the loading state. Nothing is fetched until
// Start is called.
func New(repo Repository, opts Options) *Controller {
	base := opts.RetryBase
	if base <= 0 {
		base = defaultRetryBase
	}
	return &Controller{
		repo:      repo,
		store:     state.NewStore(state.Initial()),
		mapID:     opts.MapID,
		retryBase: base,
		logger:    opts.Logger.With().Str("component", "explore").Logger(),
		ctx:       context.Background(),
	}
}

// Start provisions offline storage and begins loading in the background. All
// background work, including downloads, runs on ctx. Later calls are no-ops.
func (c *Controller) Start(ctx context.Context) {
	c.startOnce.Do(func() {
		c.ctxMu.Lock()
		c.ctx = ctx
		c.ctxMu.Unlock()

		c.repo.ProvisionStorage()
		if !c.track() {
			return
		}
		go c.load(ctx)
	})
}

// MapID returns the web map the controller was configured with.
func (c *Controller) MapID() string {
	return c.mapID
}

// UiState returns the current projection.
func (c *Controller) UiState() state.UiState {
	return c.store.UiState()
}

// Subscribe returns a latest-value channel of projections. See
// state.Store.Subscribe.
func (c *Controller) Subscribe() (<-chan state.UiState, func()) {
	return c.store.Subscribe()
}

// Wait blocks until loading and every download or delete started so far has
// settled.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Close stops accepting download and delete intents, then waits for
// background work already started to settle. Later intents are refused.
func (c *Controller) Close() {
	c.wgMu.Lock()
	c.closed = true
	c.wgMu.Unlock()
	c.wg.Wait()
}

// track registers one unit of background work. It fails once Close has
// been called.
func (c *Controller) track() bool {
	c.wgMu.Lock()
	defer c.wgMu.Unlock()
	if c.closed {
		return false
	}
	c.wg.Add(1)
	return true
}

// Ready blocks until loading has finished or ctx ends.
func (c *Controller) Ready(ctx context.Context) error {
	updates, cancel := c.Subscribe()
	defer cancel()
	for {
		select {
		case ui := <-updates:
			if !ui.Loading {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// FindArea returns the current entry for the area with the given title.
func (c *Controller) FindArea(title string) (areas.AreaInfo, bool) {
	for _, info := range c.store.State().Areas {
		if info.Title() == title {
			return info, true
		}
	}
	return areas.AreaInfo{}, false
}

func (c *Controller) runContext() context.Context {
	c.ctxMu.Lock()
	defer c.ctxMu.Unlock()
	return c.ctx
}

func (c *Controller) load(ctx context.Context) {
	defer c.wg.Done()

	summary, ok := retry(ctx, c, "map", c.repo.FetchMap)
	if !ok {
		return
	}
	c.store.Update(func(st state.ExploreState) state.ExploreState {
		st.Map = &summary
		return st
	})

	list, ok := retry(ctx, c, "areas", c.repo.FetchAreas)
	if !ok {
		return
	}
	c.store.Update(func(st state.ExploreState) state.ExploreState {
		st.Areas = list
		st.Loading = false
		return st
	})
	c.logger.Info().Str("map", summary.Title).Int("areas", len(list)).Msg("map loaded")
}

// retry calls fn until it succeeds or ctx ends, sleeping with exponential
// backoff between failures.
func retry[T any](ctx context.Context, c *Controller, what string, fn func(context.Context) (T, error)) (T, bool) {
	var zero T
	for failures := 0; ; failures++ {
		value, err := fn(ctx)
		if err == nil {
			return value, true
		}
		if ctx.Err() != nil {
			return zero, false
		}
		delay := calculateBackoff(failures, c.retryBase)
		c.logger.Warn().Err(err).Str("fetch", what).Dur("retry_in", delay).Msg("load failed")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, false
		case <-timer.C:
		}
	}
}

// calculateBackoff doubles base for every prior failure, capped at
// maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	delay := base
	for range failures {
		delay *= 2
		if delay >= maxBackoff {
			return maxBackoff
		}
	}
	return delay
}
