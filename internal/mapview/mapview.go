// Package mapview computes what the map shows for the visible page: one
// marker per record, the viewport, and the highlight around the selection.
package mapview

import (
	"sync"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/geo-dashboard/internal/model"
	"github.com/sells-group/geo-dashboard/internal/table"
)

// Zoom levels and highlight size.
const (
	SelectedZoom    = 15
	SingleZoom      = 10
	OverviewZoom    = 2
	HighlightRadius = 500.0 // meters
)

// IconSpec describes a marker icon. Sizes are in pixels.
type IconSpec struct {
	URL       string `json:"url"`
	RetinaURL string `json:"retinaUrl"`
	ShadowURL string `json:"shadowUrl"`
	Size      [2]int `json:"size"`
	Anchor    [2]int `json:"anchor"`
	Popup     [2]int `json:"popupAnchor"`
	Shadow    [2]int `json:"shadowSize"`
}

const shadowURL = "https://cdnjs.cloudflare.com/ajax/libs/leaflet/1.9.4/images/marker-shadow.png"

// DefaultIcon and SelectedIcon are the two marker styles.
var (
	DefaultIcon = IconSpec{
		URL:       "https://cdnjs.cloudflare.com/ajax/libs/leaflet/1.9.4/images/marker-icon.png",
		RetinaURL: "https://cdnjs.cloudflare.com/ajax/libs/leaflet/1.9.4/images/marker-icon-2x.png",
		ShadowURL: shadowURL,
		Size:      [2]int{25, 41},
		Anchor:    [2]int{12, 41},
		Popup:     [2]int{1, -34},
		Shadow:    [2]int{41, 41},
	}
	SelectedIcon = IconSpec{
		URL:       "https://raw.githubusercontent.com/pointhi/leaflet-color-markers/master/img/marker-icon-red.png",
		RetinaURL: "https://raw.githubusercontent.com/pointhi/leaflet-color-markers/master/img/marker-icon-2x-red.png",
		ShadowURL: shadowURL,
		Size:      [2]int{35, 55},
		Anchor:    [2]int{17, 55},
		Popup:     [2]int{1, -44},
		Shadow:    [2]int{55, 55},
	}
)

// Popup is the text shown when a marker is opened.
type Popup struct {
	Title       string `json:"title"`
	Status      string `json:"status"`
	Coordinates string `json:"coordinates"`
}

// Marker is one record drawn on the map.
type Marker struct {
	ID       string      `json:"id"`
	Point    *geom.Point `json:"-"`
	Position [2]float64  `json:"position"` // lat, lng
	Selected bool        `json:"selected"`
	Icon     IconSpec    `json:"icon"`
	Popup    Popup       `json:"popup"`
}

// Lat returns the marker latitude.
func (m Marker) Lat() float64 { return m.Point.Y() }

// Lng returns the marker longitude.
func (m Marker) Lng() float64 { return m.Point.X() }

// Highlight is the ring drawn around the selected record.
type Highlight struct {
	Center       [2]float64 `json:"center"`
	RadiusMeters float64    `json:"radiusMeters"`
	Color        string     `json:"color"`
}

// HighlightColor strokes and fills the selection ring.
const HighlightColor = "#ef4444"

// Viewport is where the map is centered and how far it is zoomed.
type Viewport struct {
	Center    [2]float64 `json:"center"` // lat, lng
	Zoom      int        `json:"zoom"`
	Highlight *Highlight `json:"highlight,omitempty"`
}

// Model is the render-ready state of the map.
type Model struct {
	Markers  []Marker   `json:"markers"`
	Viewport Viewport   `json:"viewport"`
	Tiles    TileSource `json:"tiles"`
	Empty    bool       `json:"empty"`
	// FocusID names the record the map was asked to pan to, if any.
	FocusID string `json:"focusId,omitempty"`
}

// NewPoint builds the geometry for a record. Coordinates are stored
// longitude first, matching GeoJSON axis order.
func NewPoint(r model.Record) *geom.Point {
	return geom.NewPointFlat(geom.XY, []float64{r.Longitude, r.Latitude}).SetSRID(4326)
}

// Markers returns one marker per record, in order.
func Markers(records []model.Record, selectedID string) []Marker {
	out := make([]Marker, 0, len(records))
	for _, r := range records {
		sel := selectedID != "" && r.ID == selectedID
		icon := DefaultIcon
		if sel {
			icon = SelectedIcon
		}
		out = append(out, Marker{
			ID:       r.ID,
			Point:    NewPoint(r),
			Position: [2]float64{r.Latitude, r.Longitude},
			Selected: sel,
			Icon:     icon,
			Popup: Popup{
				Title:       r.ProjectName,
				Status:      r.Status,
				Coordinates: "Lat: " + table.FormatCoordinate(r.Latitude) + ", Lng: " + table.FormatCoordinate(r.Longitude),
			},
		})
	}
	return out
}

// Centroid returns the arithmetic mean (lat, lng) of records, or the origin
// when records is empty.
func Centroid(records []model.Record) [2]float64 {
	if len(records) == 0 {
		return [2]float64{0, 0}
	}
	var lat, lng float64
	for _, r := range records {
		lat += r.Latitude
		lng += r.Longitude
	}
	n := float64(len(records))
	return [2]float64{lat / n, lng / n}
}

// ComputeViewport centers on selected at a close zoom with a highlight ring,
// or on the centroid of records otherwise.
func ComputeViewport(records []model.Record, selected *model.Record) Viewport {
	if selected != nil {
		center := [2]float64{selected.Latitude, selected.Longitude}
		return Viewport{
			Center:    center,
			Zoom:      SelectedZoom,
			Highlight: &Highlight{Center: center, RadiusMeters: HighlightRadius, Color: HighlightColor},
		}
	}
	zoom := OverviewZoom
	if len(records) == 1 {
		zoom = SingleZoom
	}
	return Viewport{Center: Centroid(records), Zoom: zoom}
}

// FeatureCollection encodes markers as GeoJSON. Each feature carries the
// record fields as properties.
func FeatureCollection(records []model.Record, selectedID string) ([]byte, error) {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(records))}
	if len(records) > 0 {
		bounds := geom.NewBounds(geom.XY)
		for _, r := range records {
			bounds.Extend(NewPoint(r))
		}
		fc.BBox = bounds
	}
	for _, r := range records {
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       r.ID,
			Geometry: NewPoint(r),
			Properties: map[string]any{
				"projectName": r.ProjectName,
				"status":      r.Status,
				"lastUpdated": r.LastUpdated,
				"tone":        string(r.Tone()),
				"selected":    selectedID != "" && r.ID == selectedID,
			},
		})
	}
	data, err := fc.MarshalJSON()
	if err != nil {
		return nil, eris.Wrap(err, "mapview: encode geojson")
	}
	return data, nil
}

// View is the map's side of the selection protocol. It records pan requests
// from the dashboard until the presentation layer consumes them. It is safe
// for concurrent use.
type View struct {
	mu    sync.Mutex
	focus string
}

// NewView creates a map view with no pending pan request.
func NewView() *View {
	return &View{}
}

// CenterOn records a request to pan to rec.
func (v *View) CenterOn(rec model.Record) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.focus = rec.ID
}

// TakeFocus returns and clears the pending pan request.
func (v *View) TakeFocus() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	id := v.focus
	v.focus = ""
	return id
}

// Render builds the map model for records with the given selection and
// tile style. The pending pan request is left in place.
func (v *View) Render(records []model.Record, selected *model.Record, style model.TileStyle) Model {
	v.mu.Lock()
	focus := v.focus
	v.mu.Unlock()

	selectedID := ""
	if selected != nil {
		selectedID = selected.ID
	}
	return Model{
		Markers:  Markers(records, selectedID),
		Viewport: ComputeViewport(records, selected),
		Tiles:    TileSourceFor(style),
		Empty:    len(records) == 0,
		FocusID:  focus,
	}
}
