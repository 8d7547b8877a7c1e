// Package httpapi exposes the dashboard over HTTP: JSON read endpoints for each
// view, POST endpoints for the dashboard events, the tile proxy, and a
// server-rendered HTML page.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/geo-dashboard/internal/dashboard"
	"github.com/sells-group/geo-dashboard/internal/mapview"
	"github.com/sells-group/geo-dashboard/internal/table"
)

const maxBodyBytes = 1 << 20

// Deps are the collaborators the HTTP surface drives.
type Deps struct {
	Dashboard *dashboard.Coordinator
	Table     *table.View
	Map       *mapview.View
	Loader    dashboard.RecordLoader
	// Tiles serves /tiles/{style}/{z}/{x}/{y}.png. Optional.
	Tiles http.Handler
	// CORSOrigins lists allowed origins; empty allows all.
	CORSOrigins []string
	// BaseContext bounds background reloads. Defaults to context.Background.
	BaseContext context.Context
}

// Server holds the HTTP handlers.
type Server struct {
	dash    *dashboard.Coordinator
	table   *table.View
	mapv    *mapview.View
	loader  dashboard.RecordLoader
	tiles   http.Handler
	origins []string
	baseCtx context.Context
}

// New creates a Server.
func New(d Deps) *Server {
	if d.BaseContext == nil {
		d.BaseContext = context.Background()
	}
	if len(d.CORSOrigins) == 0 {
		d.CORSOrigins = []string{"*"}
	}
	return &Server{
		dash:    d.Dashboard,
		table:   d.Table,
		mapv:    d.Map,
		loader:  d.Loader,
		tiles:   d.Tiles,
		origins: d.CORSOrigins,
		baseCtx: d.BaseContext,
	}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/", s.handleIndex)
	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", s.handleState)
		r.Get("/table", s.handleTable)
		r.Get("/map", s.handleMap)
		r.Get("/map/markers.geojson", s.handleGeoJSON)

		r.Post("/select", s.handleSelect)
		r.Post("/page", s.handlePage)
		r.Post("/page/next", s.handleNextPage)
		r.Post("/page/prev", s.handlePrevPage)
		r.Post("/page-size", s.handlePageSize)
		r.Post("/layout", s.handleLayout)
		r.Post("/tile-style", s.handleTileStyle)
		r.Post("/table/search", s.handleSearch)
		r.Post("/table/sort", s.handleSort)
		r.Post("/reload", s.handleReload)
	})

	if s.tiles != nil {
		r.Method(http.MethodGet, "/tiles/{style}/{z}/{x}/{y}.png", s.tiles)
	}
	return r
}

// requestLogger logs each request at debug level and server errors at error
// level.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
		}
		if ww.Status() >= http.StatusInternalServerError {
			zap.L().Error("httpapi: request failed", fields...)
			return
		}
		zap.L().Debug("httpapi: request", fields...)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("httpapi: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decode reads a JSON request body into v.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
