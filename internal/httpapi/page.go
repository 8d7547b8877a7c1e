package httpapi

import (
	"bytes"
	_ "embed"
	"html/template"
	"net/http"

	"go.uber.org/zap"

	"github.com/sells-group/geo-dashboard/internal/dashboard"
	"github.com/sells-group/geo-dashboard/internal/mapview"
	"github.com/sells-group/geo-dashboard/internal/model"
	"github.com/sells-group/geo-dashboard/internal/table"
)

//go:embed templates/index.html
var indexHTML string

var funcMap = template.FuncMap{
	"toneColor": func(t model.StatusTone) string {
		switch t {
		case model.ToneSuccess:
			return "#16a34a"
		case model.ToneWarning:
			return "#ca8a04"
		default:
			return "#dc2626"
		}
	},
	// attribution marks a tile source attribution as trusted markup. Only
	// the built-in tile sources reach the template.
	"attribution": func(s string) template.HTML { return template.HTML(s) }, //nolint:gosec
	"sortMark": func(cfg model.SortConfig, f string) string {
		if string(cfg.Field) != f {
			return ""
		}
		if cfg.Direction == model.SortDesc {
			return " ▼"
		}
		return " ▲"
	},
}

var indexTmpl = template.Must(template.New("index").Funcs(funcMap).Parse(indexHTML))

type pageData struct {
	Snapshot   dashboard.Snapshot
	Table      table.Model
	Map        mapview.Model
	TileStyles []model.TileStyle
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	f := s.dash.Frame()
	data := pageData{
		Snapshot:   f.Snapshot,
		Table:      s.tableModel(f),
		Map:        s.mapModel(f),
		TileStyles: model.AllTileStyles(),
	}

	var buf bytes.Buffer
	if err := indexTmpl.Execute(&buf, data); err != nil {
		zap.L().Error("httpapi: render index", zap.Error(err))
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
