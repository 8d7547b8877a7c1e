package main

import (
	"context"
	"net/http"
	"net/url"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/geo-dashboard/internal/config"
	"github.com/sells-group/geo-dashboard/internal/dashboard"
	"github.com/sells-group/geo-dashboard/internal/fetcher"
	"github.com/sells-group/geo-dashboard/internal/httpapi"
	"github.com/sells-group/geo-dashboard/internal/loader"
	"github.com/sells-group/geo-dashboard/internal/mapview"
	"github.com/sells-group/geo-dashboard/internal/model"
	"github.com/sells-group/geo-dashboard/internal/normalize"
	"github.com/sells-group/geo-dashboard/internal/table"
	"github.com/sells-group/geo-dashboard/internal/tiles"
)

// app bundles the dashboard components shared by every command.
type app struct {
	dash   *dashboard.Coordinator
	table  *table.View
	mapv   *mapview.View
	loader *loader.Loader
}

// newLoader wires the HTTP fetcher and normalizer for the configured endpoint.
func newLoader(c *config.Config) (*loader.Loader, error) {
	u, err := url.Parse(c.API.URL)
	if err != nil {
		return nil, eris.Wrap(err, "parse api url")
	}

	opts := fetcher.HTTPOptions{
		UserAgent:  c.API.UserAgent,
		Timeout:    c.API.Timeout(),
		MaxRetries: c.API.MaxRetries,
	}
	if c.API.RateLimit > 0 {
		opts.RateLimiters = map[string]*rate.Limiter{
			u.Host: rate.NewLimiter(rate.Limit(c.API.RateLimit), max(1, int(c.API.RateLimit))),
		}
	}

	return loader.New(fetcher.NewHTTPFetcher(opts), normalize.New(), c.API.URL), nil
}

func buildApp(c *config.Config) (*app, error) {
	loc, err := c.Dashboard.Location()
	if err != nil {
		return nil, err
	}
	l, err := newLoader(c)
	if err != nil {
		return nil, err
	}

	tv := table.NewView(loc)
	mv := mapview.NewView()
	dash, err := dashboard.New(tv, mv, dashboard.Options{
		PageSize:  c.Dashboard.PageSize,
		PageSizes: c.Dashboard.PageSizes,
		Layout:    model.LayoutMode(c.Dashboard.Layout),
		TileStyle: model.TileStyle(c.Dashboard.TileStyle),
	})
	if err != nil {
		return nil, eris.Wrap(err, "build dashboard")
	}

	return &app{dash: dash, table: tv, mapv: mv, loader: l}, nil
}

// handler builds the HTTP surface. Background reloads are bound to ctx.
func (a *app) handler(ctx context.Context, c *config.Config) http.Handler {
	cache := tiles.NewCache(c.Tiles.CacheEntries, c.Tiles.CacheTTL())
	proxy := tiles.NewProxy(cache, tiles.Options{
		UserAgent: c.API.UserAgent,
		RateLimit: c.Tiles.RateLimit,
	})

	return httpapi.New(httpapi.Deps{
		Dashboard:   a.dash,
		Table:       a.table,
		Map:         a.mapv,
		Loader:      a.loader,
		Tiles:       proxy,
		CORSOrigins: c.Server.CORSOrigins,
		BaseContext: ctx,
	}).Routes()
}

// visiblePage loads once and returns the requested page after table
// filtering and sorting. A zero size keeps the configured page size.
func (a *app) visiblePage(ctx context.Context, page, size int) ([]model.Record, dashboard.Snapshot, error) {
	if size > 0 {
		if err := a.dash.SetPageSize(size); err != nil {
			return nil, dashboard.Snapshot{}, err
		}
	}
	if err := a.dash.Load(ctx, a.loader); err != nil {
		return nil, dashboard.Snapshot{}, err
	}
	a.dash.SetPage(page)
	f := a.dash.Frame()
	return a.table.Apply(f.Visible), f.Snapshot, nil
}
