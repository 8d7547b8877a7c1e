package mapview

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/geo-dashboard/internal/model"
)

func records() []model.Record {
	return []model.Record{
		{ID: "a", ProjectName: "North", Latitude: 10, Longitude: 20, Status: "Active", LastUpdated: "2024-01-01T00:00:00Z"},
		{ID: "b", ProjectName: "South", Latitude: -10, Longitude: 40, Status: "Pending", LastUpdated: "2024-01-02T00:00:00Z"},
	}
}

func TestMarkers(t *testing.T) {
	m := Markers(records(), "b")
	require.Len(t, m, 2)

	assert.Equal(t, "a", m[0].ID)
	assert.False(t, m[0].Selected)
	assert.Equal(t, DefaultIcon, m[0].Icon)
	assert.InDelta(t, 10.0, m[0].Lat(), 1e-9)
	assert.InDelta(t, 20.0, m[0].Lng(), 1e-9)
	assert.Equal(t, 4326, m[0].Point.SRID())
	assert.Equal(t, [2]float64{10, 20}, m[0].Position)

	assert.True(t, m[1].Selected)
	assert.Equal(t, SelectedIcon, m[1].Icon)
	assert.Equal(t, Popup{Title: "South", Status: "Pending", Coordinates: "Lat: -10.000000, Lng: 40.000000"}, m[1].Popup)
}

func TestMarkers_NoSelection(t *testing.T) {
	for _, m := range Markers(records(), "") {
		assert.False(t, m.Selected)
	}
	assert.Empty(t, Markers(nil, ""))
}

func TestComputeViewport(t *testing.T) {
	t.Run("centroid", func(t *testing.T) {
		vp := ComputeViewport(records(), nil)
		assert.Equal(t, [2]float64{0, 30}, vp.Center)
		assert.Equal(t, OverviewZoom, vp.Zoom)
		assert.Nil(t, vp.Highlight)
	})

	t.Run("single record", func(t *testing.T) {
		vp := ComputeViewport(records()[:1], nil)
		assert.Equal(t, [2]float64{10, 20}, vp.Center)
		assert.Equal(t, SingleZoom, vp.Zoom)
	})

	t.Run("empty", func(t *testing.T) {
		vp := ComputeViewport(nil, nil)
		assert.Equal(t, [2]float64{0, 0}, vp.Center)
		assert.Equal(t, OverviewZoom, vp.Zoom)
	})

	t.Run("selected", func(t *testing.T) {
		sel := records()[1]
		vp := ComputeViewport(records(), &sel)
		assert.Equal(t, [2]float64{-10, 40}, vp.Center)
		assert.Equal(t, SelectedZoom, vp.Zoom)
		require.NotNil(t, vp.Highlight)
		assert.Equal(t, vp.Center, vp.Highlight.Center)
		assert.InDelta(t, 500.0, vp.Highlight.RadiusMeters, 1e-9)
		assert.Equal(t, HighlightColor, vp.Highlight.Color)
	})
}

func TestTileSourceFor(t *testing.T) {
	for _, style := range model.AllTileStyles() {
		src := TileSourceFor(style)
		assert.Equal(t, style, src.Style)
		assert.NotEmpty(t, src.URL)
		assert.NotEmpty(t, src.Attribution)
	}

	assert.Empty(t, TileSourceFor(model.TileSatellite).Subdomains)
	assert.Equal(t, []string{"a", "b", "c"}, TileSourceFor(model.TileDark).Subdomains)
	assert.Contains(t, TileSourceFor(model.TileDark).URL, "{r}")
	assert.Equal(t, model.TileStreet, TileSourceFor("bogus").Style)

	src := TileSourceFor(model.TileStreet)
	src.Subdomains[0] = "z"
	assert.Equal(t, "a", TileSourceFor(model.TileStreet).Subdomains[0])
}

func TestFeatureCollection(t *testing.T) {
	data, err := FeatureCollection(records(), "a")
	require.NoError(t, err)

	var fc struct {
		Type     string    `json:"type"`
		BBox     []float64 `json:"bbox"`
		Features []struct {
			ID       string `json:"id"`
			Geometry struct {
				Type        string    `json:"type"`
				Coordinates []float64 `json:"coordinates"`
			} `json:"geometry"`
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(data, &fc))

	assert.Equal(t, "FeatureCollection", fc.Type)
	assert.Equal(t, []float64{20, -10, 40, 10}, fc.BBox)
	require.Len(t, fc.Features, 2)

	f := fc.Features[0]
	assert.Equal(t, "a", f.ID)
	assert.Equal(t, "Point", f.Geometry.Type)
	assert.Equal(t, []float64{20, 10}, f.Geometry.Coordinates, "longitude first")
	assert.Equal(t, "North", f.Properties["projectName"])
	assert.Equal(t, "success", f.Properties["tone"])
	assert.Equal(t, true, f.Properties["selected"])
	assert.Equal(t, false, fc.Features[1].Properties["selected"])
}

func TestFeatureCollection_Empty(t *testing.T) {
	data, err := FeatureCollection(nil, "")
	require.NoError(t, err)

	var fc map[string]any
	require.NoError(t, json.Unmarshal(data, &fc))
	assert.Equal(t, "FeatureCollection", fc["type"])
	assert.Empty(t, fc["features"])
}

func TestView(t *testing.T) {
	v := NewView()
	assert.Empty(t, v.TakeFocus())
	v.CenterOn(records()[1])

	sel := records()[1]
	m := v.Render(records(), &sel, model.TileDark)
	assert.Equal(t, "b", m.FocusID)
	assert.Equal(t, model.TileDark, m.Tiles.Style)
	assert.False(t, m.Empty)
	assert.Equal(t, SelectedZoom, m.Viewport.Zoom)
	assert.True(t, m.Markers[1].Selected)

	assert.Equal(t, "b", v.TakeFocus())
	assert.Empty(t, v.TakeFocus())
	assert.Empty(t, v.Render(records(), &sel, model.TileDark).FocusID)
}

func TestView_RenderEmpty(t *testing.T) {
	m := NewView().Render(nil, nil, model.TileStreet)
	assert.True(t, m.Empty)
	assert.Empty(t, m.Markers)
	assert.Equal(t, [2]float64{0, 0}, m.Viewport.Center)
}
