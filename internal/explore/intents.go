package explore

import (
	"github.com/exploremaine/explore/internal/areas"
	"github.com/exploremaine/explore/internal/state"
)

// SelectArea makes the current entry for area the selection. Unknown areas
// are ignored.
func (c *Controller) SelectArea(area areas.AreaInfo) {
	_, ok := c.store.UpdateIf(func(st state.ExploreState) (state.ExploreState, bool) {
		idx := state.IndexOf(st.Areas, area.ID())
		if idx < 0 {
			return st, false
		}
		selected := st.Areas[idx]
		st.Selected = &selected
		return st, true
	})
	if !ok {
		c.logger.Debug().Str("area", area.Title()).Msg("select ignored: unknown area")
	}
}

// ClearSelection returns the map screen to the whole web map.
func (c *Controller) ClearSelection() {
	c.store.UpdateIf(func(st state.ExploreState) (state.ExploreState, bool) {
		if st.Selected == nil {
			return st, false
		}
		st.Selected = nil
		return st, true
	})
}

// RequestDownload flips a Downloadable area to Downloading before returning
// and downloads it in the background. The area ends Downloaded on success and
// Downloadable otherwise. It reports whether the intent was accepted.
func (c *Controller) RequestDownload(area areas.AreaInfo) bool {
	if !c.track() {
		c.logger.Debug().Str("area", area.Title()).Msg("download ignored: controller closed")
		return false
	}
	moved, ok := c.transition(area.ID(), areas.Downloadable, areas.Downloading)
	if !ok {
		c.wg.Done()
		c.logger.Debug().Str("area", area.Title()).Msg("download ignored: area is not downloadable")
		return false
	}

	ctx := c.runContext()
	go func() {
		defer c.wg.Done()
		final := areas.Downloadable
		if c.repo.DownloadArea(ctx, moved.Area) {
			final = areas.Downloaded
		}
		if _, ok := c.transition(moved.ID(), areas.Downloading, final); !ok {
			c.logger.Warn().Str("area", moved.Title()).Msg("download settled for an area no longer downloading")
		}
	}()
	return true
}

// RequestDelete flips a Downloaded area to Downloadable before returning and
// removes its package in the background. A failed removal is logged; the
// status is not reverted. It reports whether the intent was accepted.
func (c *Controller) RequestDelete(area areas.AreaInfo) bool {
	if !c.track() {
		c.logger.Debug().Str("area", area.Title()).Msg("delete ignored: controller closed")
		return false
	}
	moved, ok := c.transition(area.ID(), areas.Downloaded, areas.Downloadable)
	if !ok {
		c.wg.Done()
		c.logger.Debug().Str("area", area.Title()).Msg("delete ignored: area is not downloaded")
		return false
	}

	ctx := c.runContext()
	go func() {
		defer c.wg.Done()
		if err := c.repo.DeleteArea(ctx, moved.Area); err != nil {
			c.logger.Warn().Err(err).Str("area", moved.Title()).Msg("delete did not complete")
		}
	}()
	return true
}

// transition moves the area with the given descriptor from one status to
// another in a single replacement. A selected copy of the area follows.
func (c *Controller) transition(id string, from, to areas.AreaStatus) (areas.AreaInfo, bool) {
	var moved areas.AreaInfo
	_, ok := c.store.UpdateIf(func(st state.ExploreState) (state.ExploreState, bool) {
		idx := state.IndexOf(st.Areas, id)
		if idx < 0 || st.Areas[idx].Status != from {
			return st, false
		}
		moved = st.Areas[idx].WithStatus(to)
		st.Areas, _ = state.ReplaceArea(st.Areas, moved)
		if st.Selected != nil && st.Selected.ID() == id {
			selected := moved
			st.Selected = &selected
		}
		return st, true
	})
	return moved, ok
}
