package httpapi

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/sells-group/geo-dashboard/internal/dashboard"
	"github.com/sells-group/geo-dashboard/internal/mapview"
	"github.com/sells-group/geo-dashboard/internal/model"
	"github.com/sells-group/geo-dashboard/internal/paginate"
	"github.com/sells-group/geo-dashboard/internal/table"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.dash.Snapshot())
}

// tableModel renders the table for one dashboard frame and hands over any
// pending scroll command.
func (s *Server) tableModel(f dashboard.Frame) table.Model {
	scroll := s.table.TakeScroll()
	m := s.table.Render(f.Visible, f.Snapshot.SelectedID)
	m.ScrollTo = scroll
	return m
}

// mapModel renders the map for one dashboard frame and hands over any
// pending pan command.
func (s *Server) mapModel(f dashboard.Frame) mapview.Model {
	focus := s.mapv.TakeFocus()
	m := s.mapv.Render(f.Visible, f.Selected, f.Snapshot.TileStyle)
	m.FocusID = focus
	return m
}

func (s *Server) handleTable(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.tableModel(s.dash.Frame()))
}

func (s *Server) handleMap(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.mapModel(s.dash.Frame()))
}

func (s *Server) handleGeoJSON(w http.ResponseWriter, _ *http.Request) {
	f := s.dash.Frame()
	data, err := mapview.FeatureCollection(f.Visible, f.Snapshot.SelectedID)
	if err != nil {
		zap.L().Error("httpapi: geojson", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "encode failed")
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	_, _ = w.Write(data)
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID     string `json:"id"`
		Origin string `json:"origin"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	err := s.dash.Select(model.Origin(req.Origin), req.ID)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, s.dash.Snapshot())
	case errors.Is(err, model.ErrInvalidOrigin):
		writeError(w, http.StatusBadRequest, "origin must be table or map")
	case errors.Is(err, dashboard.ErrNotLoaded):
		writeError(w, http.StatusConflict, "records not loaded")
	case errors.Is(err, dashboard.ErrNotVisible):
		writeError(w, http.StatusNotFound, "record not on the visible page")
	default:
		zap.L().Error("httpapi: select", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "select failed")
	}
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Page int `json:"page"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.dash.SetPage(req.Page)
	writeJSON(w, http.StatusOK, s.dash.Snapshot())
}

func (s *Server) handleNextPage(w http.ResponseWriter, _ *http.Request) {
	s.dash.NextPage()
	writeJSON(w, http.StatusOK, s.dash.Snapshot())
}

func (s *Server) handlePrevPage(w http.ResponseWriter, _ *http.Request) {
	s.dash.PrevPage()
	writeJSON(w, http.StatusOK, s.dash.Snapshot())
}

func (s *Server) handlePageSize(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Size int `json:"size"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := s.dash.SetPageSize(req.Size); err != nil {
		if errors.Is(err, paginate.ErrInvalidPageSize) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "set page size failed")
		return
	}
	writeJSON(w, http.StatusOK, s.dash.Snapshot())
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mode string `json:"mode"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := s.dash.SetLayout(model.LayoutMode(req.Mode)); err != nil {
		writeError(w, http.StatusBadRequest, "mode must be split, table or map")
		return
	}
	writeJSON(w, http.StatusOK, s.dash.Snapshot())
}

func (s *Server) handleTileStyle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Style string `json:"style"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := s.dash.SetTileStyle(model.TileStyle(req.Style)); err != nil {
		writeError(w, http.StatusBadRequest, "style must be street, satellite, terrain or dark")
		return
	}
	writeJSON(w, http.StatusOK, s.dash.Snapshot())
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Term string `json:"term"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.table.SetSearch(req.Term)
	writeJSON(w, http.StatusOK, s.tableModel(s.dash.Frame()))
}

func (s *Server) handleSort(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Field string `json:"field"`
	}
	if !decode(w, r, &req) {
		return
	}
	field, err := model.ParseSortField(req.Field)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown sort field")
		return
	}
	s.table.ToggleSort(field)
	writeJSON(w, http.StatusOK, s.tableModel(s.dash.Frame()))
}

// handleReload starts a background load. It answers 409 while one is
// already running.
func (s *Server) handleReload(w http.ResponseWriter, _ *http.Request) {
	if s.loader == nil {
		writeError(w, http.StatusServiceUnavailable, "no loader configured")
		return
	}
	if state, _ := s.dash.State(); state == dashboard.StateLoading {
		writeError(w, http.StatusConflict, "load already in progress")
		return
	}

	go func() {
		if err := s.dash.Load(s.baseCtx, s.loader); err != nil {
			if errors.Is(err, dashboard.ErrLoadInProgress) {
				return
			}
			zap.L().Error("httpapi: reload failed", zap.Error(err))
		}
	}()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "loading"})
}
