package areas

import "github.com/exploremaine/explore/internal/portal"

// MapSummary is the display summary of the web map. Thumbnail is nil when the
// item has none or its fetch failed.
type MapSummary struct {
	ID        string
	Title     string
	Snippet   string
	Thumbnail []byte
}

// AreaStatus is the offline status of a map area.
type AreaStatus int

const (
	Downloadable AreaStatus = iota
	Downloading
	Downloaded
)

// String returns a lowercase label for the status.
func (s AreaStatus) String() string {
	switch s {
	case Downloadable:
		return "downloadable"
	case Downloading:
		return "downloading"
	case Downloaded:
		return "downloaded"
	default:
		return "unknown"
	}
}

// AreaInfo pairs an area descriptor with its thumbnail and offline status.
// Values are replaced, never mutated, once published.
type AreaInfo struct {
	Area      portal.Area
	Thumbnail []byte
	Status    AreaStatus
}

// ID returns the descriptor identity used to match areas across updates.
func (a AreaInfo) ID() string {
	return a.Area.ID
}

// Title returns the area's display title.
func (a AreaInfo) Title() string {
	return a.Area.Title
}

// WithStatus returns a copy of a carrying status.
func (a AreaInfo) WithStatus(status AreaStatus) AreaInfo {
	a.Status = status
	return a
}
