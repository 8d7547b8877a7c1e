package mapview

import (
	"github.com/sells-group/geo-dashboard/internal/model"
)

// TileSource describes where a tile style's raster tiles come from.
type TileSource struct {
	Style       model.TileStyle `json:"style"`
	URL         string          `json:"url"`
	Subdomains  []string        `json:"subdomains,omitempty"`
	Attribution string          `json:"attribution"`
}

var tileSources = map[model.TileStyle]TileSource{
	model.TileStreet: {
		Style:       model.TileStreet,
		URL:         "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
		Subdomains:  []string{"a", "b", "c"},
		Attribution: `&copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors`,
	},
	model.TileSatellite: {
		Style:       model.TileSatellite,
		URL:         "https://server.arcgisonline.com/ArcGIS/rest/services/World_Imagery/MapServer/tile/{z}/{y}/{x}",
		Attribution: `&copy; <a href="https://www.esri.com/">Esri</a> &copy; <a href="https://www.esri.com/">Esri</a>`,
	},
	model.TileTerrain: {
		Style:       model.TileTerrain,
		URL:         "https://{s}.tile.opentopomap.org/{z}/{x}/{y}.png",
		Subdomains:  []string{"a", "b", "c"},
		Attribution: `Map data: &copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors, <a href="http://viewfinderpanoramas.org">SRTM</a> | Map style: &copy; <a href="https://opentopomap.org">OpenTopoMap</a>`,
	},
	model.TileDark: {
		Style:       model.TileDark,
		URL:         "https://{s}.basemaps.cartocdn.com/dark_all/{z}/{x}/{y}{r}.png",
		Subdomains:  []string{"a", "b", "c"},
		Attribution: `&copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors &copy; <a href="https://carto.com/attributions">CARTO</a>`,
	},
}

// TileSourceFor returns the tile source for style. Unknown styles fall back
// to street.
func TileSourceFor(style model.TileStyle) TileSource {
	src, ok := tileSources[style]
	if !ok {
		src = tileSources[model.TileStreet]
	}
	src.Subdomains = append([]string(nil), src.Subdomains...)
	return src
}
