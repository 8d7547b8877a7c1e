package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/geo-dashboard/internal/dashboard/mocks"
	"github.com/sells-group/geo-dashboard/internal/loader"
	"github.com/sells-group/geo-dashboard/internal/model"
	"github.com/sells-group/geo-dashboard/internal/paginate"
)

func makeRecords(n int) []model.Record {
	out := make([]model.Record, n)
	for i := range out {
		out[i] = model.Record{
			ID:          fmt.Sprint(i + 1),
			ProjectName: fmt.Sprintf("Project %d", i+1),
			Latitude:    float64(i),
			Longitude:   float64(-i),
			Status:      model.StatusActive,
		}
	}
	return out
}

type fixture struct {
	c     *Coordinator
	table *mocks.MockTableView
	mapv  *mocks.MockMapView
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	table := mocks.NewMockTableView(t)
	mapv := mocks.NewMockMapView(t)
	c, err := New(table, mapv, Options{PageSize: 3, PageSizes: []int{2, 3, 10}})
	require.NoError(t, err)
	return fixture{c: c, table: table, mapv: mapv}
}

func (f fixture) load(t *testing.T, recs []model.Record) {
	t.Helper()
	l := mocks.NewMockRecordLoader(t)
	l.On("Load", mock.Anything).Return(recs, nil).Once()
	require.NoError(t, f.c.Load(context.Background(), l))
}

func TestNew_Defaults(t *testing.T) {
	c, err := New(nil, nil, Options{})
	require.NoError(t, err)

	s := c.Snapshot()
	assert.Equal(t, StateIdle, s.State)
	assert.Equal(t, 1, s.Page)
	assert.Equal(t, 50, s.PageSize)
	assert.Equal(t, paginate.DefaultPageSizes, s.PageSizes)
	assert.Equal(t, 0, s.PageCount)
	assert.False(t, s.HasPrev)
	assert.False(t, s.HasNext)
	assert.Equal(t, model.LayoutSplit, s.Layout)
	assert.Equal(t, model.TileStreet, s.TileStyle)
	assert.True(t, s.ShowTable)
	assert.True(t, s.ShowMap)
	assert.Empty(t, c.VisibleSlice())
}

func TestNew_InvalidOptions(t *testing.T) {
	_, err := New(nil, nil, Options{PageSize: 7})
	assert.True(t, errors.Is(err, paginate.ErrInvalidPageSize))

	_, err = New(nil, nil, Options{Layout: "grid"})
	assert.True(t, errors.Is(err, model.ErrInvalidLayout))

	_, err = New(nil, nil, Options{TileStyle: "sepia"})
	assert.True(t, errors.Is(err, model.ErrInvalidTileStyle))
}

func TestLoad_Success(t *testing.T) {
	f := newFixture(t)
	f.load(t, makeRecords(7))

	s := f.c.Snapshot()
	assert.Equal(t, StateReady, s.State)
	assert.Empty(t, s.Error)
	assert.Equal(t, 7, s.Total)
	assert.Equal(t, 3, s.PageCount)
	assert.True(t, s.HasNext)
	assert.False(t, s.HasPrev)

	visible := f.c.VisibleSlice()
	require.Len(t, visible, 3)
	assert.Equal(t, "1", visible[0].ID)
	assert.Len(t, f.c.Records(), 7)

	state, err := f.c.State()
	assert.Equal(t, StateReady, state)
	assert.NoError(t, err)
}

func TestLoad_FailureDiscardsData(t *testing.T) {
	f := newFixture(t)
	f.load(t, makeRecords(5))

	l := mocks.NewMockRecordLoader(t)
	l.On("Load", mock.Anything).Return(nil, loader.ErrLoadFailed).Once()

	err := f.c.Load(context.Background(), l)
	require.Error(t, err)
	assert.True(t, errors.Is(err, loader.ErrLoadFailed))

	s := f.c.Snapshot()
	assert.Equal(t, StateFailed, s.State)
	assert.Equal(t, loader.UserMessage, s.Error)
	assert.Equal(t, 0, s.Total)
	assert.Empty(t, f.c.VisibleSlice())

	state, loadErr := f.c.State()
	assert.Equal(t, StateFailed, state)
	assert.True(t, errors.Is(loadErr, loader.ErrLoadFailed))
}

type blockingLoader struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingLoader) Load(context.Context) ([]model.Record, error) {
	close(b.started)
	<-b.release
	return makeRecords(2), nil
}

func TestLoad_RejectedWhileInFlight(t *testing.T) {
	f := newFixture(t)
	bl := &blockingLoader{started: make(chan struct{}), release: make(chan struct{})}

	done := make(chan error, 1)
	go func() { done <- f.c.Load(context.Background(), bl) }()
	<-bl.started

	assert.Equal(t, StateLoading, f.c.Snapshot().State)
	err := f.c.Load(context.Background(), mocks.NewMockRecordLoader(t))
	assert.ErrorIs(t, err, ErrLoadInProgress)

	close(bl.release)
	require.NoError(t, <-done)
	assert.Equal(t, 2, f.c.Snapshot().Total)
}

func TestReload_ResetsPageAndSelection(t *testing.T) {
	f := newFixture(t)
	f.load(t, makeRecords(7))
	f.c.NextPage()
	f.mapv.On("CenterOn", mock.Anything).Once()
	require.NoError(t, f.c.Select(model.OriginTable, "4"))

	f.load(t, makeRecords(7))
	s := f.c.Snapshot()
	assert.Equal(t, 1, s.Page)
	assert.Empty(t, s.SelectedID)
}

func TestSelect_FromTableCentersMap(t *testing.T) {
	f := newFixture(t)
	recs := makeRecords(5)
	f.load(t, recs)

	f.mapv.On("CenterOn", recs[1]).Once()
	require.NoError(t, f.c.Select(model.OriginTable, "2"))

	assert.Equal(t, "2", f.c.Snapshot().SelectedID)
	sel, ok := f.c.Selected()
	require.True(t, ok)
	assert.Equal(t, recs[1], sel)
	f.table.AssertNotCalled(t, "BringIntoView", mock.Anything)
}

func TestSelect_FromMapScrollsTable(t *testing.T) {
	f := newFixture(t)
	f.load(t, makeRecords(5))

	f.table.On("BringIntoView", "3").Once()
	require.NoError(t, f.c.Select(model.OriginMap, "3"))

	assert.Equal(t, "3", f.c.Snapshot().SelectedID)
	f.mapv.AssertNotCalled(t, "CenterOn", mock.Anything)
}

func TestSelect_ReselectRepeatsCommand(t *testing.T) {
	f := newFixture(t)
	f.load(t, makeRecords(3))

	f.table.On("BringIntoView", "1").Twice()
	require.NoError(t, f.c.Select(model.OriginMap, "1"))
	require.NoError(t, f.c.Select(model.OriginMap, "1"))
}

func TestSelect_SwitchesSelection(t *testing.T) {
	f := newFixture(t)
	f.load(t, makeRecords(3))

	f.mapv.On("CenterOn", mock.Anything).Once()
	f.table.On("BringIntoView", "3").Once()
	require.NoError(t, f.c.Select(model.OriginTable, "1"))
	require.NoError(t, f.c.Select(model.OriginMap, "3"))

	assert.Equal(t, "3", f.c.Snapshot().SelectedID)
}

func TestSelect_Errors(t *testing.T) {
	f := newFixture(t)

	err := f.c.Select(model.OriginTable, "1")
	assert.ErrorIs(t, err, ErrNotLoaded)

	f.load(t, makeRecords(7))

	err = f.c.Select(model.OriginTable, "5")
	assert.ErrorIs(t, err, ErrNotVisible, "id 5 is on page 2")

	err = f.c.Select(model.OriginTable, "missing")
	assert.ErrorIs(t, err, ErrNotVisible)

	err = f.c.Select("keyboard", "1")
	assert.ErrorIs(t, err, model.ErrInvalidOrigin)

	assert.Empty(t, f.c.Snapshot().SelectedID)
	_, ok := f.c.Selected()
	assert.False(t, ok)
}

func TestPageChange_ClearsSelectionOffPage(t *testing.T) {
	f := newFixture(t)
	f.load(t, makeRecords(7))

	f.mapv.On("CenterOn", mock.Anything).Once()
	require.NoError(t, f.c.Select(model.OriginTable, "2"))

	f.c.NextPage()
	s := f.c.Snapshot()
	assert.Equal(t, 2, s.Page)
	assert.True(t, s.HasPrev)
	assert.Empty(t, s.SelectedID)

	visible := f.c.VisibleSlice()
	require.Len(t, visible, 3)
	assert.Equal(t, "4", visible[0].ID)
}

func TestPageNavigation(t *testing.T) {
	f := newFixture(t)
	f.load(t, makeRecords(7))

	f.c.PrevPage()
	assert.Equal(t, 1, f.c.Snapshot().Page)

	f.c.NextPage()
	f.c.NextPage()
	f.c.NextPage()
	s := f.c.Snapshot()
	assert.Equal(t, 3, s.Page)
	assert.False(t, s.HasNext)
	require.Len(t, f.c.VisibleSlice(), 1)

	f.c.SetPage(99)
	assert.Equal(t, 3, f.c.Snapshot().Page)
	f.c.SetPage(2)
	assert.Equal(t, 2, f.c.Snapshot().Page)
	f.c.PrevPage()
	assert.Equal(t, 1, f.c.Snapshot().Page)
}

func TestSetPageSize(t *testing.T) {
	f := newFixture(t)
	f.load(t, makeRecords(7))
	f.c.SetPage(2)

	f.table.On("BringIntoView", "5").Once()
	require.NoError(t, f.c.Select(model.OriginMap, "5"))

	require.NoError(t, f.c.SetPageSize(10))
	s := f.c.Snapshot()
	assert.Equal(t, 1, s.Page, "page size change resets to page 1")
	assert.Equal(t, 10, s.PageSize)
	assert.Equal(t, 1, s.PageCount)
	assert.Equal(t, "5", s.SelectedID, "still visible on the larger page")

	require.NoError(t, f.c.SetPageSize(2))
	assert.Empty(t, f.c.Snapshot().SelectedID, "id 5 fell off page 1")

	err := f.c.SetPageSize(4)
	assert.ErrorIs(t, err, paginate.ErrInvalidPageSize)
	assert.Equal(t, 2, f.c.Snapshot().PageSize)
}

func TestSetLayout(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.c.SetLayout(model.LayoutTableOnly))
	s := f.c.Snapshot()
	assert.Equal(t, model.LayoutTableOnly, s.Layout)
	assert.True(t, s.ShowTable)
	assert.False(t, s.ShowMap)

	require.NoError(t, f.c.SetLayout("map-only"))
	s = f.c.Snapshot()
	assert.Equal(t, model.LayoutMapOnly, s.Layout)
	assert.False(t, s.ShowTable)

	assert.ErrorIs(t, f.c.SetLayout("grid"), model.ErrInvalidLayout)
	assert.Equal(t, model.LayoutMapOnly, f.c.Snapshot().Layout)
}

func TestSetTileStyle(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.c.SetTileStyle(model.TileSatellite))
	assert.Equal(t, model.TileSatellite, f.c.Snapshot().TileStyle)

	assert.ErrorIs(t, f.c.SetTileStyle("sepia"), model.ErrInvalidTileStyle)
	assert.Equal(t, model.TileSatellite, f.c.Snapshot().TileStyle)
}

func TestAccessorsReturnCopies(t *testing.T) {
	f := newFixture(t)
	f.load(t, makeRecords(4))

	f.c.VisibleSlice()[0].ProjectName = "mutated"
	f.c.Records()[1].ProjectName = "mutated"

	assert.Equal(t, "Project 1", f.c.VisibleSlice()[0].ProjectName)
	assert.Equal(t, "Project 2", f.c.Records()[1].ProjectName)
}

func TestConcurrentSelectAndRead(t *testing.T) {
	c, err := New(nil, nil, Options{PageSize: 10, PageSizes: []int{10}})
	require.NoError(t, err)
	l := mocks.NewMockRecordLoader(t)
	l.On("Load", mock.Anything).Return(makeRecords(10), nil).Once()
	require.NoError(t, c.Load(context.Background(), l))

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = c.Select(model.OriginTable, fmt.Sprint(n%10+1))
			_ = c.Snapshot()
			_ = c.VisibleSlice()
		}(i)
	}
	wg.Wait()

	_, ok := c.Selected()
	assert.True(t, ok)
}

func TestFrame_SelectionOnVisiblePage(t *testing.T) {
	f := newFixture(t)
	recs := makeRecords(7)
	f.load(t, recs)

	fr := f.c.Frame()
	assert.Equal(t, 1, fr.Snapshot.Page)
	assert.Equal(t, recs[:3], fr.Visible)
	assert.Nil(t, fr.Selected)

	f.mapv.On("CenterOn", recs[2]).Once()
	require.NoError(t, f.c.Select(model.OriginTable, "3"))

	fr = f.c.Frame()
	require.NotNil(t, fr.Selected)
	assert.Equal(t, recs[2], *fr.Selected)
	assert.Equal(t, "3", fr.Snapshot.SelectedID)

	fr.Visible[0].ProjectName = "mutated"
	assert.Equal(t, "Project 1", f.c.Frame().Visible[0].ProjectName)
}

func TestFrame_ConsistentUnderPageChanges(t *testing.T) {
	c, err := New(nil, nil, Options{PageSize: 2, PageSizes: []int{2}})
	require.NoError(t, err)
	l := mocks.NewMockRecordLoader(t)
	l.On("Load", mock.Anything).Return(makeRecords(6), nil).Once()
	require.NoError(t, c.Load(context.Background(), l))

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			c.SetPage(n%3 + 1)
			_ = c.Select(model.OriginMap, fmt.Sprint(n%6+1))
		}(i)
		go func() {
			defer wg.Done()
			fr := c.Frame()
			if !assert.Len(t, fr.Visible, 2) {
				return
			}
			want := fmt.Sprint((fr.Snapshot.Page-1)*2 + 1)
			assert.Equal(t, want, fr.Visible[0].ID, "visible rows match the page")
			if fr.Selected != nil {
				assert.Equal(t, fr.Snapshot.SelectedID, fr.Selected.ID)
				assert.GreaterOrEqual(t, model.IndexOf(fr.Visible, fr.Selected.ID), 0)
			}
		}()
	}
	wg.Wait()
}
