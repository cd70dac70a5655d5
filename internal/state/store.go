package state

import (
	"sync"
	"sync/atomic"

	"github.com/exploremaine/explore/internal/areas"
)

// ExploreState is the whole record owned by the explore controller. It is
// replaced as a unit and never mutated after it has been stored.
type ExploreState struct {
	Map      *areas.MapSummary
	Areas    []areas.AreaInfo
	Selected *areas.AreaInfo
	Loading  bool
}

// Initial returns the state a controller starts with: loading, no map and an
// empty area list.
func Initial() ExploreState {
	return ExploreState{Loading: true, Areas: []areas.AreaInfo{}}
}

// UiState is the projection published to the presentation layer. Map, Areas
// and Selected are only populated once a map summary exists.
type UiState struct {
	Version  uint64
	Loading  bool
	Map      *areas.MapSummary
	Areas    []areas.AreaInfo
	Selected *areas.AreaInfo
}

// HasMapInfo reports whether the map summary has been loaded.
func (u UiState) HasMapInfo() bool {
	return u.Map != nil
}

type versioned struct {
	version uint64
	state   ExploreState
}

// Store holds one ExploreState behind an atomic pointer. Update is the only
// write path.
type Store struct {
	current atomic.Pointer[versioned]

	subMu  sync.Mutex
	subs   map[int]chan UiState
	nextID int
}

// NewStore returns a Store holding initial at version 0.
func NewStore(initial ExploreState) *Store {
	s := &Store{subs: make(map[int]chan UiState)}
	s.current.Store(&versioned{state: initial})
	return s
}

// State returns the current record.
func (s *Store) State() ExploreState {
	return s.current.Load().state
}

// UiState returns the projection of the current record.
func (s *Store) UiState() UiState {
	return project(s.current.Load())
}

// Update replaces the record with fn(current) using compare-and-swap,
// retrying when another writer got there first. fn may run more than once and
// must not have side effects. The new projection is published to subscribers
// and returned.
func (s *Store) Update(fn func(ExploreState) ExploreState) UiState {
	for {
		old := s.current.Load()
		next := &versioned{version: old.version + 1, state: fn(old.state)}
		if s.current.CompareAndSwap(old, next) {
			ui := project(next)
			s.publish(ui)
			return ui
		}
	}
}

// UpdateIf is Update for conditional transitions. When fn reports false the
// record is left untouched, nothing is published and the current projection
// is returned with false.
func (s *Store) UpdateIf(fn func(ExploreState) (ExploreState, bool)) (UiState, bool) {
	for {
		old := s.current.Load()
		record, changed := fn(old.state)
		if !changed {
			return project(old), false
		}
		next := &versioned{version: old.version + 1, state: record}
		if s.current.CompareAndSwap(old, next) {
			ui := project(next)
			s.publish(ui)
			return ui, true
		}
	}
}

// Subscribe returns a channel that always holds the latest published UiState.
// A slow reader skips intermediate versions. Call cancel to stop delivery.
func (s *Store) Subscribe() (<-chan UiState, func()) {
	ch := make(chan UiState, 1)

	s.subMu.Lock()
	ch <- s.UiState()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

func (s *Store) publish(ui UiState) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case stale := <-ch:
			if stale.Version > ui.Version {
				ch <- stale
				continue
			}
		default:
		}
		ch <- ui
	}
}

func project(v *versioned) UiState {
	ui := UiState{Version: v.version, Loading: v.state.Loading}
	if v.state.Map == nil {
		return ui
	}
	ui.Map = v.state.Map
	ui.Areas = v.state.Areas
	ui.Selected = v.state.Selected
	return ui
}

// ReplaceArea returns a new list with the entry matching updated's descriptor
// replaced. The input is not modified. When no entry matches, the original
// list is returned with false.
func ReplaceArea(list []areas.AreaInfo, updated areas.AreaInfo) ([]areas.AreaInfo, bool) {
	idx := IndexOf(list, updated.ID())
	if idx < 0 {
		return list, false
	}
	next := make([]areas.AreaInfo, len(list))
	copy(next, list)
	next[idx] = updated
	return next, true
}

// IndexOf returns the position of the area with the given descriptor ID, or
// -1.
func IndexOf(list []areas.AreaInfo, id string) int {
	for i := range list {
		if list[i].ID() == id {
			return i
		}
	}
	return -1
}
