// Package table implements the searchable, sortable record table. Search and
// sort apply only to the visible page handed in by the dashboard.
package table

import (
	"cmp"
	"math"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/sells-group/geo-dashboard/internal/model"
)

// TimestampLayout renders parseable timestamps, e.g. "Mar 14, 2026, 09:30 AM".
const TimestampLayout = "Jan 2, 2006, 03:04 PM"

// parseLayouts are tried in order when formatting a timestamp.
var parseLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Row is one rendered table row.
type Row struct {
	Record    model.Record     `json:"record"`
	Selected  bool             `json:"selected"`
	Tone      model.StatusTone `json:"tone"`
	Latitude  string           `json:"latitude"`
	Longitude string           `json:"longitude"`
	Updated   string           `json:"updated"`
}

// Model is the render-ready state of the table.
type Model struct {
	Rows   []Row            `json:"rows"`
	Search string           `json:"search"`
	Sort   model.SortConfig `json:"sort"`
	Shown  int              `json:"shown"`
	Total  int              `json:"total"`
	// ScrollTo names the row the table should bring into view, if any.
	ScrollTo string `json:"scrollTo,omitempty"`
}

// View holds the table's local search and sort state. It is safe for
// concurrent use.
type View struct {
	mu       sync.Mutex
	search   string
	sort     model.SortConfig
	collator *collate.Collator
	loc      *time.Location
	scrollTo string
}

// NewView creates an unsorted, unfiltered table using English collation and
// rendering timestamps in loc (UTC when nil).
func NewView(loc *time.Location) *View {
	if loc == nil {
		loc = time.UTC
	}
	return &View{
		sort:     model.SortConfig{Field: model.SortNone, Direction: model.SortAsc},
		collator: collate.New(language.English),
		loc:      loc,
	}
}

// SetSearch replaces the search term.
func (v *View) SetSearch(term string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.search = term
}

// Search returns the current search term.
func (v *View) Search() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.search
}

// ToggleSort activates field. Repeating the active field flips the
// direction; a different field starts ascending.
func (v *View) ToggleSort(field model.SortField) model.SortConfig {
	v.mu.Lock()
	defer v.mu.Unlock()

	dir := model.SortAsc
	if v.sort.Field == field && v.sort.Direction == model.SortAsc {
		dir = model.SortDesc
	}
	v.sort = model.SortConfig{Field: field, Direction: dir}
	return v.sort
}

// Sort returns the active sort configuration.
func (v *View) Sort() model.SortConfig {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.sort
}

// BringIntoView records a request to scroll the row for id into view.
func (v *View) BringIntoView(id string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.scrollTo = id
}

// TakeScroll returns and clears the pending scroll request.
func (v *View) TakeScroll() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	id := v.scrollTo
	v.scrollTo = ""
	return id
}

// Apply filters and sorts a copy of visible.
func (v *View) Apply(visible []model.Record) []model.Record {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.apply(visible)
}

func (v *View) apply(visible []model.Record) []model.Record {
	out := Filter(visible, v.search)
	if v.sort.Field != model.SortNone {
		cmpFn := v.comparator(v.sort.Field)
		if v.sort.Direction == model.SortDesc {
			slices.SortStableFunc(out, func(a, b model.Record) int { return cmpFn(b, a) })
		} else {
			slices.SortStableFunc(out, cmpFn)
		}
	}
	return out
}

// Render builds the table model for visible with the given selection. The
// pending scroll request is left in place.
func (v *View) Render(visible []model.Record, selectedID string) Model {
	v.mu.Lock()
	defer v.mu.Unlock()

	recs := v.apply(visible)
	rows := make([]Row, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, Row{
			Record:    r,
			Selected:  selectedID != "" && r.ID == selectedID,
			Tone:      r.Tone(),
			Latitude:  FormatCoordinate(r.Latitude),
			Longitude: FormatCoordinate(r.Longitude),
			Updated:   FormatTimestamp(r.LastUpdated, v.loc),
		})
	}

	return Model{
		Rows:     rows,
		Search:   v.search,
		Sort:     v.sort,
		Shown:    len(rows),
		Total:    len(visible),
		ScrollTo: v.scrollTo,
	}
}

func (v *View) comparator(field model.SortField) func(a, b model.Record) int {
	text := func(get func(model.Record) string) func(a, b model.Record) int {
		return func(a, b model.Record) int {
			return v.collator.CompareString(get(a), get(b))
		}
	}
	number := func(get func(model.Record) float64) func(a, b model.Record) int {
		return func(a, b model.Record) int {
			return cmp.Compare(get(a), get(b))
		}
	}

	switch field {
	case model.SortProjectName:
		return text(func(r model.Record) string { return r.ProjectName })
	case model.SortStatus:
		return text(func(r model.Record) string { return r.Status })
	case model.SortLastUpdated:
		return text(func(r model.Record) string { return r.LastUpdated })
	case model.SortLatitude:
		return number(func(r model.Record) float64 { return r.Latitude })
	case model.SortLongitude:
		return number(func(r model.Record) float64 { return r.Longitude })
	}
	return func(model.Record, model.Record) int { return 0 }
}

// Filter keeps records whose project name or status contains term
// case-insensitively, or whose coordinate text contains it. An empty term
// keeps everything. The result is always a fresh slice.
func Filter(records []model.Record, term string) []model.Record {
	if term == "" {
		return slices.Clone(records)
	}
	needle := strings.ToLower(term)

	out := make([]model.Record, 0, len(records))
	for _, r := range records {
		if strings.Contains(strings.ToLower(r.ProjectName), needle) ||
			strings.Contains(strings.ToLower(r.Status), needle) ||
			strings.Contains(coordinateText(r.Latitude), needle) ||
			strings.Contains(coordinateText(r.Longitude), needle) {
			out = append(out, r)
		}
	}
	return out
}

// coordinateText renders a coordinate the way a browser prints a number:
// shortest decimal form, switching to exponent form ("1e-7", "1e+21")
// below 1e-6 and from 1e21 up. Search matches against this text.
func coordinateText(f float64) string {
	switch {
	case f == 0:
		return "0"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	if abs := math.Abs(f); abs >= 1e-6 && abs < 1e21 || math.IsNaN(f) {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}

	mant, exp, _ := strings.Cut(strconv.FormatFloat(f, 'e', -1, 64), "e")
	sign, digits := exp[:1], strings.TrimLeft(exp[1:], "0")
	return mant + "e" + sign + digits
}

// FormatCoordinate renders a coordinate with six decimals.
func FormatCoordinate(f float64) string {
	return strconv.FormatFloat(f, 'f', 6, 64)
}

// FormatTimestamp renders raw with TimestampLayout in loc. Strings that do
// not parse are returned unchanged.
func FormatTimestamp(raw string, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	s := strings.TrimSpace(raw)
	for _, layout := range parseLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.In(loc).Format(TimestampLayout)
		}
	}
	return raw
}
