package tiles

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/sells-group/geo-dashboard/internal/mapview"
	"github.com/sells-group/geo-dashboard/internal/model"
)

// MaxZoom is the deepest zoom level the proxy serves.
const MaxZoom = 22

const maxTileBytes = 4 << 20

// Validation errors for tile coordinates.
var (
	ErrUnknownStyle = eris.New("tiles: unknown style")
	ErrBadCoord     = eris.New("tiles: tile coordinate out of range")
)

// Options configures a Proxy.
type Options struct {
	UserAgent string
	Timeout   time.Duration
	// RateLimit caps upstream requests per second. Zero means unlimited.
	RateLimit float64
	// BreakerThreshold is the number of consecutive upstream failures that
	// open a style's breaker. Default 5.
	BreakerThreshold int
	// BreakerReset is how long an open breaker rejects calls. Default 30s.
	BreakerReset time.Duration
	// Upstreams overrides the URL template per style. Templates use the
	// {s}, {z}, {x}, {y} and {r} placeholders.
	Upstreams map[model.TileStyle]mapview.TileSource
}

// Proxy fetches basemap tiles from the upstream server of each style and
// caches the results.
type Proxy struct {
	sources   map[model.TileStyle]mapview.TileSource
	client    *http.Client
	cache     *Cache
	userAgent string
	limiter   *rate.Limiter
	breakers  map[model.TileStyle]*breaker
	group     singleflight.Group
}

// NewProxy creates a tile proxy. cache may be nil.
func NewProxy(cache *Cache, opts Options) *Proxy {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "geo-dashboard/1.0"
	}

	sources := make(map[model.TileStyle]mapview.TileSource)
	for _, style := range model.AllTileStyles() {
		sources[style] = mapview.TileSourceFor(style)
	}
	for style, src := range opts.Upstreams {
		sources[style] = src
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), max(1, int(opts.RateLimit)))
	}

	breakers := make(map[model.TileStyle]*breaker, len(sources))
	for style := range sources {
		breakers[style] = newBreaker(opts.BreakerThreshold, opts.BreakerReset)
	}

	return &Proxy{
		sources:   sources,
		breakers:  breakers,
		client:    &http.Client{Timeout: opts.Timeout},
		cache:     cache,
		userAgent: opts.UserAgent,
		limiter:   limiter,
	}
}

// UpstreamURL expands the style's template for one tile. Subdomains rotate
// on x+y.
func UpstreamURL(src mapview.TileSource, z, x, y int) string {
	sub := ""
	if n := len(src.Subdomains); n > 0 {
		sub = src.Subdomains[(x+y)%n]
	}
	return strings.NewReplacer(
		"{s}", sub,
		"{z}", strconv.Itoa(z),
		"{x}", strconv.Itoa(x),
		"{y}", strconv.Itoa(y),
		"{r}", "",
	).Replace(src.URL)
}

// ValidCoord reports whether z/x/y addresses a real tile.
func ValidCoord(z, x, y int) bool {
	if z < 0 || z > MaxZoom {
		return false
	}
	n := 1 << z
	return x >= 0 && x < n && y >= 0 && y < n
}

// Fetch returns a tile from the cache or the upstream server. Concurrent
// requests for the same tile share one upstream call.
func (p *Proxy) Fetch(ctx context.Context, style model.TileStyle, z, x, y int) (Tile, error) {
	src, ok := p.sources[style]
	if !ok {
		return Tile{}, eris.Wrapf(ErrUnknownStyle, "%q", style)
	}
	if !ValidCoord(z, x, y) {
		return Tile{}, eris.Wrapf(ErrBadCoord, "%d/%d/%d", z, x, y)
	}

	if p.cache != nil {
		if t, ok := p.cache.Get(style, z, x, y); ok {
			return t, nil
		}
	}

	b := p.breakers[style]
	if err := b.allow(); err != nil {
		return Tile{}, eris.Wrapf(err, "%s", style)
	}

	v, err, _ := p.group.Do(cacheKey(style, z, x, y), func() (any, error) {
		return p.fetchUpstream(ctx, src, z, x, y)
	})
	b.record(err)
	if err != nil {
		return Tile{}, err
	}
	t := v.(Tile)

	if p.cache != nil {
		p.cache.Put(style, z, x, y, t)
	}
	return t, nil
}

func (p *Proxy) fetchUpstream(ctx context.Context, src mapview.TileSource, z, x, y int) (Tile, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return Tile{}, eris.Wrap(err, "tiles: rate limiter")
	}

	url := UpstreamURL(src, z, x, y)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Tile{}, eris.Wrap(err, "tiles: create request")
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return Tile{}, eris.Wrap(err, "tiles: fetch tile")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return Tile{}, eris.Errorf("tiles: upstream returned %d for %s", resp.StatusCode, url)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxTileBytes))
	if err != nil {
		return Tile{}, eris.Wrap(err, "tiles: read tile body")
	}

	zap.L().Debug("tiles: fetched upstream tile",
		zap.String("style", string(src.Style)),
		zap.String("url", url),
		zap.Int("bytes", len(data)),
	)
	return Tile{Data: data, ContentType: contentType(resp.Header.Get("Content-Type"), url)}, nil
}

// contentType prefers the upstream header and falls back to the URL
// extension.
func contentType(header, url string) string {
	if header != "" {
		if mt, _, err := mime.ParseMediaType(header); err == nil && strings.HasPrefix(mt, "image/") {
			return mt
		}
	}
	switch strings.ToLower(path.Ext(url)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	}
	return "application/octet-stream"
}

// ServeHTTP serves /{style}/{z}/{x}/{y}.png routes registered on a chi
// router.
func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	style, err := model.ParseTileStyle(chi.URLParam(r, "style"))
	if err != nil {
		http.Error(w, "unknown tile style", http.StatusNotFound)
		return
	}

	var coord [3]int
	for i, name := range []string{"z", "x", "y"} {
		n, err := strconv.Atoi(chi.URLParam(r, name))
		if err != nil {
			http.Error(w, "invalid tile path", http.StatusBadRequest)
			return
		}
		coord[i] = n
	}
	z, x, y := coord[0], coord[1], coord[2]
	if !ValidCoord(z, x, y) {
		http.Error(w, fmt.Sprintf("tile %d/%d/%d out of range", z, x, y), http.StatusBadRequest)
		return
	}

	t, err := p.Fetch(r.Context(), style, z, x, y)
	if err != nil {
		zap.L().Error("tiles: fetch failed",
			zap.String("style", string(style)),
			zap.Int("z", z), zap.Int("x", x), zap.Int("y", y),
			zap.Error(err),
		)
		if errors.Is(err, ErrUpstreamUnavailable) {
			http.Error(w, "tile upstream unavailable", http.StatusServiceUnavailable)
			return
		}
		http.Error(w, "upstream fetch failed", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", t.ContentType)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(t.Data)
}
