package model

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Validation errors for view configuration values.
var (
	ErrInvalidLayout    = eris.New("model: invalid layout mode")
	ErrInvalidTileStyle = eris.New("model: invalid tile style")
	ErrInvalidSortField = eris.New("model: invalid sort field")
	ErrInvalidOrigin    = eris.New("model: invalid selection origin")
)

// LayoutMode selects which views the dashboard shows.
type LayoutMode string

const (
	LayoutSplit     LayoutMode = "split"
	LayoutTableOnly LayoutMode = "table"
	LayoutMapOnly   LayoutMode = "map"
)

// ParseLayoutMode accepts the canonical names plus the "-only" spellings.
func ParseLayoutMode(s string) (LayoutMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "split":
		return LayoutSplit, nil
	case "table", "table-only":
		return LayoutTableOnly, nil
	case "map", "map-only":
		return LayoutMapOnly, nil
	}
	return "", eris.Wrapf(ErrInvalidLayout, "%q", s)
}

// ShowsTable reports whether the table view is visible in this layout.
func (m LayoutMode) ShowsTable() bool {
	return m == LayoutSplit || m == LayoutTableOnly
}

// ShowsMap reports whether the map view is visible in this layout.
func (m LayoutMode) ShowsMap() bool {
	return m == LayoutSplit || m == LayoutMapOnly
}

// TileStyle names a visual theme for the map background layer.
type TileStyle string

const (
	TileStreet    TileStyle = "street"
	TileSatellite TileStyle = "satellite"
	TileTerrain   TileStyle = "terrain"
	TileDark      TileStyle = "dark"
)

// AllTileStyles returns every recognized tile style in menu order.
func AllTileStyles() []TileStyle {
	return []TileStyle{TileStreet, TileSatellite, TileTerrain, TileDark}
}

// ParseTileStyle validates a tile style name.
func ParseTileStyle(s string) (TileStyle, error) {
	ts := TileStyle(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllTileStyles() {
		if ts == known {
			return ts, nil
		}
	}
	return "", eris.Wrapf(ErrInvalidTileStyle, "%q", s)
}

// SortField is a sortable table column.
type SortField string

const (
	SortNone        SortField = ""
	SortProjectName SortField = "projectName"
	SortLatitude    SortField = "latitude"
	SortLongitude   SortField = "longitude"
	SortStatus      SortField = "status"
	SortLastUpdated SortField = "lastUpdated"
)

// ParseSortField validates a sort column name.
func ParseSortField(s string) (SortField, error) {
	switch f := SortField(strings.TrimSpace(s)); f {
	case SortProjectName, SortLatitude, SortLongitude, SortStatus, SortLastUpdated:
		return f, nil
	}
	return SortNone, eris.Wrapf(ErrInvalidSortField, "%q", s)
}

// SortDirection is ascending or descending.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// SortConfig holds the single active sort key. Field is SortNone when the
// table is unsorted.
type SortConfig struct {
	Field     SortField     `json:"field"`
	Direction SortDirection `json:"direction"`
}

// Origin identifies which view raised a selection event.
type Origin string

const (
	OriginTable Origin = "table"
	OriginMap   Origin = "map"
)

// ParseOrigin validates a selection origin.
func ParseOrigin(s string) (Origin, error) {
	switch o := Origin(strings.ToLower(strings.TrimSpace(s))); o {
	case OriginTable, OriginMap:
		return o, nil
	}
	return "", eris.Wrapf(ErrInvalidOrigin, "%q", s)
}
