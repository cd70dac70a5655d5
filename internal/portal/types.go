package portal

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
)

// Item mirrors the subset of a portal item Explore reads.
type Item struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Snippet   string `json:"snippet"`
	Thumbnail string `json:"thumbnail"`
}

// HasThumbnail reports whether the portal advertises a thumbnail for the item.
func (i Item) HasThumbnail() bool {
	return i.Thumbnail != ""
}

// Area describes one preplanned offline area of a web map. The descriptor is
// owned by the portal; callers treat it as opaque apart from its identity and
// display fields.
type Area struct {
	Item
	Extent orb.Bound `json:"-"`
}

// UnmarshalJSON decodes an area item, converting the portal's
// [[xmin,ymin],[xmax,ymax]] extent into a bound.
func (a *Area) UnmarshalJSON(data []byte) error {
	var raw struct {
		Item
		Extent [][]float64 `json:"extent"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	a.Item = raw.Item
	a.Extent = orb.Bound{}
	switch len(raw.Extent) {
	case 0:
	case 2:
		if len(raw.Extent[0]) != 2 || len(raw.Extent[1]) != 2 {
			return fmt.Errorf("area %q: malformed extent", raw.ID)
		}
		a.Extent = orb.Bound{
			Min: orb.Point{raw.Extent[0][0], raw.Extent[0][1]},
			Max: orb.Point{raw.Extent[1][0], raw.Extent[1][1]},
		}
	default:
		return fmt.Errorf("area %q: extent has %d corners, want 2", raw.ID, len(raw.Extent))
	}
	return nil
}

// HasExtent reports whether the portal supplied an extent for the area.
func (a Area) HasExtent() bool {
	return a.Extent != orb.Bound{}
}

// relatedItemsResponse mirrors the relatedItems endpoint.
type relatedItemsResponse struct {
	RelatedItems []Area `json:"relatedItems"`
}

// apiError is the JSON error envelope portals return alongside HTTP 200.
type apiError struct {
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
