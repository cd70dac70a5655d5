package explore

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exploremaine/explore/internal/areas"
	"github.com/exploremaine/explore/internal/portal"
)

type fakeRepo struct {
	mapFailures atomic.Int32
	summary     areas.MapSummary
	list        []areas.AreaInfo

	downloadGate chan bool
	deleteGate   chan error
	provisioned  atomic.Bool

	mu        sync.Mutex
	deleted   []string
	downloads []string
}

func (f *fakeRepo) ProvisionStorage() { f.provisioned.Store(true) }

func (f *fakeRepo) FetchMap(ctx context.Context) (areas.MapSummary, error) {
	if f.mapFailures.Load() > 0 {
		f.mapFailures.Add(-1)
		return areas.MapSummary{}, errors.New("portal unavailable")
	}
	return f.summary, ctx.Err()
}

func (f *fakeRepo) FetchAreas(ctx context.Context) ([]areas.AreaInfo, error) {
	return f.list, ctx.Err()
}

func (f *fakeRepo) DownloadArea(ctx context.Context, area portal.Area) bool {
	f.mu.Lock()
	f.downloads = append(f.downloads, area.Title)
	f.mu.Unlock()
	select {
	case ok := <-f.downloadGate:
		return ok
	case <-ctx.Done():
		return false
	}
}

func (f *fakeRepo) DeleteArea(_ context.Context, area portal.Area) error {
	err := <-f.deleteGate
	f.mu.Lock()
	f.deleted = append(f.deleted, area.Title)
	f.mu.Unlock()
	return err
}

func info(id, title string, status areas.AreaStatus) areas.AreaInfo {
	return areas.AreaInfo{Area: portal.Area{Item: portal.Item{ID: id, Title: title}}, Status: status}
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		summary: areas.MapSummary{ID: "map", Title: "Explore Maine"},
		list: []areas.AreaInfo{
			info("1", "Acadia", areas.Downloadable),
			info("2", "Baxter", areas.Downloaded),
			info("3", "Katahdin", areas.Downloadable),
		},
		downloadGate: make(chan bool, 1),
		deleteGate:   make(chan error, 1),
	}
}

func startController(t *testing.T, repo *fakeRepo) *Controller {
	t.Helper()
	c := New(repo, Options{MapID: "map", RetryBase: time.Millisecond, Logger: zerolog.Nop()})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		c.Wait()
	})
	c.Start(ctx)

	readyCtx, readyCancel := context.WithTimeout(ctx, 5*time.Second)
	defer readyCancel()
	require.NoError(t, c.Ready(readyCtx))
	return c
}

func status(t *testing.T, c *Controller, title string) areas.AreaStatus {
	t.Helper()
	found, ok := c.FindArea(title)
	require.True(t, ok, "area %s not found", title)
	return found.Status
}

func TestCalculateBackoff(t *testing.T) {
	baseInterval := 2 * time.Second

	tests := []struct {
		name     string
		failures int
		want     time.Duration
	}{
		{"zero failures", 0, 2 * time.Second},
		{"negative failures", -1, 2 * time.Second},
		{"one failure", 1, 4 * time.Second},
		{"two failures", 2, 8 * time.Second},
		{"three failures", 3, 16 * time.Second},
		{"four failures capped", 4, 30 * time.Second},
		{"many failures capped", 10, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, calculateBackoff(tt.failures, baseInterval))
		})
	}
}

func TestController_NewIsLoadingWithoutMapInfo(t *testing.T) {
	c := New(newFakeRepo(), Options{Logger: zerolog.Nop()})
	ui := c.UiState()
	assert.True(t, ui.Loading)
	assert.False(t, ui.HasMapInfo())
	assert.Empty(t, ui.Areas)
}

func TestController_StartLoadsMapThenAreas(t *testing.T) {
	repo := newFakeRepo()
	c := startController(t, repo)

	assert.True(t, repo.provisioned.Load())
	ui := c.UiState()
	require.True(t, ui.HasMapInfo())
	assert.False(t, ui.Loading)
	assert.Equal(t, "Explore Maine", ui.Map.Title)
	require.Len(t, ui.Areas, 3)
	assert.Equal(t, "map", c.MapID())
}

func TestController_StartRetriesFailedFetch(t *testing.T) {
	repo := newFakeRepo()
	repo.mapFailures.Store(2)
	c := startController(t, repo)

	assert.Equal(t, int32(0), repo.mapFailures.Load())
	assert.True(t, c.UiState().HasMapInfo())
}

func TestController_StartWithEndedContextStaysLoading(t *testing.T) {
	repo := newFakeRepo()
	repo.mapFailures.Store(1)
	c := New(repo, Options{RetryBase: time.Hour, Logger: zerolog.Nop()})

	ctx, cancel := context.WithCancel(context.Background())
	c.Start(ctx)
	cancel()
	c.Wait()

	assert.True(t, c.UiState().Loading)
	assert.False(t, c.UiState().HasMapInfo())
}

func TestController_DownloadSuccess(t *testing.T) {
	repo := newFakeRepo()
	c := startController(t, repo)
	acadia, _ := c.FindArea("Acadia")

	require.True(t, c.RequestDownload(acadia))
	assert.Equal(t, areas.Downloading, status(t, c, "Acadia"))

	repo.downloadGate <- true
	c.Wait()
	assert.Equal(t, areas.Downloaded, status(t, c, "Acadia"))
}

func TestController_DownloadFailureReverts(t *testing.T) {
	repo := newFakeRepo()
	c := startController(t, repo)
	acadia, _ := c.FindArea("Acadia")

	require.True(t, c.RequestDownload(acadia))
	repo.downloadGate <- false
	c.Wait()
	assert.Equal(t, areas.Downloadable, status(t, c, "Acadia"))
}

func TestController_DownloadPublishesEachTransition(t *testing.T) {
	repo := newFakeRepo()
	c := startController(t, repo)
	acadia, _ := c.FindArea("Acadia")

	updates, cancel := c.Subscribe()
	defer cancel()
	<-updates

	require.True(t, c.RequestDownload(acadia))
	ui := <-updates
	assert.Equal(t, areas.Downloading, ui.Areas[0].Status)

	repo.downloadGate <- true
	c.Wait()
	ui = <-updates
	assert.Equal(t, areas.Downloaded, ui.Areas[0].Status)
	assert.Len(t, ui.Areas, 3)
}

func TestController_DeleteFlipsBeforeRemovalSettles(t *testing.T) {
	repo := newFakeRepo()
	c := startController(t, repo)
	baxter, _ := c.FindArea("Baxter")

	require.True(t, c.RequestDelete(baxter))
	assert.Equal(t, areas.Downloadable, status(t, c, "Baxter"))

	repo.mu.Lock()
	assert.Empty(t, repo.deleted)
	repo.mu.Unlock()

	repo.deleteGate <- nil
	c.Wait()
	assert.Equal(t, []string{"Baxter"}, repo.deleted)
}

func TestController_DeleteFailureKeepsDownloadable(t *testing.T) {
	repo := newFakeRepo()
	c := startController(t, repo)
	baxter, _ := c.FindArea("Baxter")

	require.True(t, c.RequestDelete(baxter))
	repo.deleteGate <- errors.New("permission denied")
	c.Wait()
	assert.Equal(t, areas.Downloadable, status(t, c, "Baxter"))
}

func TestController_IntentsRespectStatus(t *testing.T) {
	repo := newFakeRepo()
	c := startController(t, repo)
	acadia, _ := c.FindArea("Acadia")
	baxter, _ := c.FindArea("Baxter")

	assert.False(t, c.RequestDownload(baxter), "download of downloaded area")
	assert.False(t, c.RequestDelete(acadia), "delete of downloadable area")
	assert.False(t, c.RequestDownload(info("9", "Nowhere", areas.Downloadable)), "unknown area")

	require.True(t, c.RequestDownload(acadia))
	assert.False(t, c.RequestDownload(acadia), "second download while downloading")
	assert.False(t, c.RequestDelete(acadia), "delete while downloading")

	repo.downloadGate <- true
	c.Wait()
	assert.Equal(t, []string{"Acadia"}, repo.downloads)
}

func TestController_SelectionFollowsStatus(t *testing.T) {
	repo := newFakeRepo()
	c := startController(t, repo)
	acadia, _ := c.FindArea("Acadia")

	c.SelectArea(acadia)
	require.NotNil(t, c.UiState().Selected)
	assert.Equal(t, "Acadia", c.UiState().Selected.Title())

	require.True(t, c.RequestDownload(acadia))
	assert.Equal(t, areas.Downloading, c.UiState().Selected.Status)
	repo.downloadGate <- true
	c.Wait()
	assert.Equal(t, areas.Downloaded, c.UiState().Selected.Status)

	c.ClearSelection()
	assert.Nil(t, c.UiState().Selected)

	c.SelectArea(info("9", "Nowhere", areas.Downloadable))
	assert.Nil(t, c.UiState().Selected)
}

func TestController_DownloadSurvivesSelectionChanges(t *testing.T) {
	repo := newFakeRepo()
	c := startController(t, repo)
	acadia, _ := c.FindArea("Acadia")

	c.SelectArea(acadia)
	require.True(t, c.RequestDownload(acadia))
	c.ClearSelection()

	repo.downloadGate <- true
	c.Wait()
	assert.Equal(t, areas.Downloaded, status(t, c, "Acadia"))
}

func TestController_CloseWaitsForInFlightDownload(t *testing.T) {
	repo := newFakeRepo()
	c := startController(t, repo)
	acadia, _ := c.FindArea("Acadia")
	require.True(t, c.RequestDownload(acadia))

	closed := make(chan struct{})
	go func() {
		c.Close()
		close(closed)
	}()

	select {
	case <-closed:
		t.Fatal("Close returned before the download settled")
	case <-time.After(50 * time.Millisecond):
	}

	repo.downloadGate <- true
	select {
	case <-closed:
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not return after the download settled")
	}
	assert.Equal(t, areas.Downloaded, status(t, c, "Acadia"))
}

func TestController_IntentsRefusedAfterClose(t *testing.T) {
	repo := newFakeRepo()
	c := startController(t, repo)
	c.Close()

	katahdin, _ := c.FindArea("Katahdin")
	baxter, _ := c.FindArea("Baxter")
	assert.False(t, c.RequestDownload(katahdin))
	assert.False(t, c.RequestDelete(baxter))
	assert.Equal(t, areas.Downloadable, status(t, c, "Katahdin"))
	assert.Equal(t, areas.Downloaded, status(t, c, "Baxter"))
	assert.Empty(t, repo.downloads)
}
