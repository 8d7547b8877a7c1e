// Package dashboard owns the shared view state: the loaded record set, the
// page, the layout and tile style, and the single selected record. Table and
// map views observe it through accessors and receive scroll and pan commands
// when a selection originates in the other view.
package dashboard

import (
	"context"
	"slices"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/geo-dashboard/internal/loader"
	"github.com/sells-group/geo-dashboard/internal/model"
	"github.com/sells-group/geo-dashboard/internal/paginate"
)

// Errors returned by Coordinator operations.
var (
	ErrNotLoaded      = eris.New("dashboard: records not loaded")
	ErrNotVisible     = eris.New("dashboard: record not on the visible page")
	ErrLoadInProgress = eris.New("dashboard: load already in progress")
)

// LoadState is the lifecycle of the single asynchronous load.
type LoadState string

const (
	StateIdle    LoadState = "idle"
	StateLoading LoadState = "loading"
	StateReady   LoadState = "ready"
	StateFailed  LoadState = "failed"
)

// RecordLoader fetches and normalizes the full record set.
type RecordLoader interface {
	Load(ctx context.Context) ([]model.Record, error)
}

// TableView receives scroll commands for map-originated selections.
type TableView interface {
	BringIntoView(id string)
}

// MapView receives pan commands for table-originated selections.
type MapView interface {
	CenterOn(rec model.Record)
}

// Options configures the initial view state.
type Options struct {
	PageSize  int
	PageSizes []int
	Layout    model.LayoutMode
	TileStyle model.TileStyle
}

// Snapshot is a point-in-time copy of the view state.
type Snapshot struct {
	State      LoadState        `json:"state"`
	Error      string           `json:"error,omitempty"`
	Total      int              `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"pageSize"`
	PageSizes  []int            `json:"pageSizes"`
	PageCount  int              `json:"pageCount"`
	HasPrev    bool             `json:"hasPrev"`
	HasNext    bool             `json:"hasNext"`
	SelectedID string           `json:"selectedId,omitempty"`
	Layout     model.LayoutMode `json:"layout"`
	TileStyle  model.TileStyle  `json:"tileStyle"`
	ShowTable  bool             `json:"showTable"`
	ShowMap    bool             `json:"showMap"`
}

// Coordinator keeps table and map selection consistent. It is safe for
// concurrent use; view commands are issued after the state lock is released.
type Coordinator struct {
	mu        sync.RWMutex
	state     LoadState
	loadErr   error
	records   []model.Record
	pager     *paginate.Pager
	selected  string
	layout    model.LayoutMode
	tileStyle model.TileStyle

	table TableView
	mapv  MapView
}

// New creates a coordinator in the idle state.
func New(table TableView, mapv MapView, opts Options) (*Coordinator, error) {
	if opts.PageSize == 0 {
		opts.PageSize = 50
	}
	if opts.PageSizes == nil {
		opts.PageSizes = paginate.DefaultPageSizes
	}
	if opts.Layout == "" {
		opts.Layout = model.LayoutSplit
	}
	if opts.TileStyle == "" {
		opts.TileStyle = model.TileStreet
	}

	pager, err := paginate.NewPager(opts.PageSize, opts.PageSizes)
	if err != nil {
		return nil, eris.Wrap(err, "dashboard: new pager")
	}
	layout, err := model.ParseLayoutMode(string(opts.Layout))
	if err != nil {
		return nil, eris.Wrap(err, "dashboard: layout")
	}
	style, err := model.ParseTileStyle(string(opts.TileStyle))
	if err != nil {
		return nil, eris.Wrap(err, "dashboard: tile style")
	}

	return &Coordinator{
		state:     StateIdle,
		pager:     pager,
		layout:    layout,
		tileStyle: style,
		table:     table,
		mapv:      mapv,
	}, nil
}

// Load runs the single fetch-and-normalize step. Previously loaded data is
// discarded when the load starts. On success the page resets to 1 and the
// selection clears; on failure the coordinator enters StateFailed.
func (c *Coordinator) Load(ctx context.Context, l RecordLoader) error {
	c.mu.Lock()
	if c.state == StateLoading {
		c.mu.Unlock()
		return ErrLoadInProgress
	}
	c.state = StateLoading
	c.loadErr = nil
	c.records = nil
	c.selected = ""
	c.pager.Reset()
	c.mu.Unlock()

	records, err := l.Load(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.state = StateFailed
		c.loadErr = err
		return eris.Wrap(err, "dashboard: load")
	}
	c.state = StateReady
	c.records = records
	zap.L().Debug("dashboard: records ready", zap.Int("count", len(records)))
	return nil
}

// Select makes id the shared selection. A table-originated selection pans
// the map; a map-originated one scrolls the table. Reselecting the current
// id repeats the command.
func (c *Coordinator) Select(origin model.Origin, id string) error {
	if _, err := model.ParseOrigin(string(origin)); err != nil {
		return err
	}

	c.mu.Lock()
	if c.state != StateReady {
		c.mu.Unlock()
		return ErrNotLoaded
	}
	visible := c.visibleLocked()
	idx := model.IndexOf(visible, id)
	if idx < 0 {
		c.mu.Unlock()
		return eris.Wrapf(ErrNotVisible, "id %q", id)
	}
	rec := visible[idx]
	c.selected = id
	c.mu.Unlock()

	zap.L().Debug("dashboard: selected",
		zap.String("id", id),
		zap.String("origin", string(origin)),
	)

	switch origin {
	case model.OriginTable:
		if c.mapv != nil {
			c.mapv.CenterOn(rec)
		}
	case model.OriginMap:
		if c.table != nil {
			c.table.BringIntoView(id)
		}
	}
	return nil
}

// SetPage moves to page, clamped to the available range.
func (c *Coordinator) SetPage(page int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pager.SetPage(page, len(c.records))
	c.dropStaleSelectionLocked()
}

// NextPage advances one page when a next page exists.
func (c *Coordinator) NextPage() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pager.Next(len(c.records))
	c.dropStaleSelectionLocked()
}

// PrevPage goes back one page when a previous page exists.
func (c *Coordinator) PrevPage() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pager.Prev(len(c.records))
	c.dropStaleSelectionLocked()
}

// SetPageSize changes the page size and returns to page 1.
func (c *Coordinator) SetPageSize(size int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.pager.SetSize(size); err != nil {
		return err
	}
	c.dropStaleSelectionLocked()
	return nil
}

// SetLayout changes which views are shown.
func (c *Coordinator) SetLayout(mode model.LayoutMode) error {
	m, err := model.ParseLayoutMode(string(mode))
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.layout = m
	return nil
}

// SetTileStyle changes the map background style.
func (c *Coordinator) SetTileStyle(style model.TileStyle) error {
	s, err := model.ParseTileStyle(string(style))
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tileStyle = s
	return nil
}

// Frame is one consistent read of the dashboard: the view state, the
// visible page, and the selected record when it is on that page.
type Frame struct {
	Snapshot Snapshot
	Visible  []model.Record
	Selected *model.Record
}

// Frame returns the snapshot, visible page and selection under a single
// lock so that renderers never mix two pages.
func (c *Coordinator) Frame() Frame {
	c.mu.RLock()
	defer c.mu.RUnlock()

	f := Frame{
		Snapshot: c.snapshotLocked(),
		Visible:  c.visibleLocked(),
	}
	if c.selected != "" {
		if i := model.IndexOf(f.Visible, c.selected); i >= 0 {
			rec := f.Visible[i]
			f.Selected = &rec
		}
	}
	return f
}

// Snapshot returns a copy of the current view state.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

func (c *Coordinator) snapshotLocked() Snapshot {
	total := len(c.records)
	s := Snapshot{
		State:      c.state,
		Total:      total,
		Page:       c.pager.Page(),
		PageSize:   c.pager.Size(),
		PageSizes:  c.pager.Allowed(),
		PageCount:  paginate.PageCount(total, c.pager.Size()),
		HasPrev:    c.pager.HasPrev(total),
		HasNext:    c.pager.HasNext(total),
		SelectedID: c.selected,
		Layout:     c.layout,
		TileStyle:  c.tileStyle,
		ShowTable:  c.layout.ShowsTable(),
		ShowMap:    c.layout.ShowsMap(),
	}
	if c.state == StateFailed {
		s.Error = loader.UserMessage
	}
	return s
}

// State returns the load state and, when failed, the load error.
func (c *Coordinator) State() (LoadState, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state, c.loadErr
}

// VisibleSlice returns a copy of the records on the current page.
func (c *Coordinator) VisibleSlice() []model.Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.visibleLocked()
}

// Records returns a copy of the full loaded set.
func (c *Coordinator) Records() []model.Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.records)
}

// Selected returns the selected record, if any.
func (c *Coordinator) Selected() (model.Record, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.selected == "" {
		return model.Record{}, false
	}
	visible := c.visibleLocked()
	if i := model.IndexOf(visible, c.selected); i >= 0 {
		return visible[i], true
	}
	return model.Record{}, false
}

func (c *Coordinator) visibleLocked() []model.Record {
	return paginate.Slice(c.records, c.pager.Page(), c.pager.Size())
}

// dropStaleSelectionLocked clears a selection that left the visible page.
func (c *Coordinator) dropStaleSelectionLocked() {
	if c.selected == "" {
		return
	}
	if model.IndexOf(c.visibleLocked(), c.selected) < 0 {
		zap.L().Debug("dashboard: selection left visible page", zap.String("id", c.selected))
		c.selected = ""
	}
}
