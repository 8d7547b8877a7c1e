// Package normalize converts heterogeneous API payloads into canonical records.
//
// Every field is resolved through a fixed, ordered list of alias keys. The
// first alias holding a non-empty value wins; when no exact alias matches,
// the same list is tried again with case-insensitive key matching. A field
// with no match at all takes its documented default. Normalization never
// fails.
package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sells-group/geo-dashboard/internal/model"
)

// Alias keys in priority order. The order is part of the API contract.
var (
	IDKeys          = []string{"id", "Id"}
	ProjectNameKeys = []string{"projectName", "ProjectName", "name"}
	LatitudeKeys    = []string{"latitude", "Latitude", "lat"}
	LongitudeKeys   = []string{"longitude", "Longitude", "lng", "lon"}
	StatusKeys      = []string{"status", "Status"}
	LastUpdatedKeys = []string{"lastUpdated", "LastUpdated", "lastDdate", "updatedAt"}
)

// Normalizer turns raw API records into canonical records.
type Normalizer struct {
	now   func() time.Time
	newID func() string
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithClock overrides the clock used for the missing-timestamp default.
func WithClock(now func() time.Time) Option {
	return func(n *Normalizer) { n.now = now }
}

// WithIDGenerator overrides the placeholder id generator.
func WithIDGenerator(gen func() string) Option {
	return func(n *Normalizer) { n.newID = gen }
}

// New creates a Normalizer. Placeholder ids are random UUIDs and the missing
// timestamp default is the current UTC time.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
	for _, o := range opts {
		o(n)
	}
	return n
}

// Normalize produces exactly one canonical record from raw. Records without an
// id get a fresh placeholder on every call.
func (n *Normalizer) Normalize(raw model.RawRecord) model.Record {
	rec := model.Record{
		ProjectName: model.DefaultProjectName,
		Status:      model.DefaultStatus,
	}

	if id, ok := resolveString(raw, IDKeys); ok {
		rec.ID = id
	} else {
		rec.ID = n.newID()
	}
	if name, ok := resolveString(raw, ProjectNameKeys); ok {
		rec.ProjectName = name
	}
	rec.Latitude = resolveCoordinate(raw, LatitudeKeys)
	rec.Longitude = resolveCoordinate(raw, LongitudeKeys)
	if status, ok := resolveString(raw, StatusKeys); ok {
		rec.Status = status
	}
	if ts, ok := resolveString(raw, LastUpdatedKeys); ok {
		rec.LastUpdated = ts
	} else {
		rec.LastUpdated = n.now().Format(time.RFC3339Nano)
	}

	return rec
}

// NormalizeAll normalizes every raw record, preserving order. All records
// missing a timestamp in one batch share the same load time.
func (n *Normalizer) NormalizeAll(raws []model.RawRecord) []model.Record {
	loadedAt := n.now()
	batch := &Normalizer{
		now:   func() time.Time { return loadedAt },
		newID: n.newID,
	}

	out := make([]model.Record, 0, len(raws))
	for _, raw := range raws {
		out = append(out, batch.Normalize(raw))
	}
	return out
}

// resolve returns the first non-empty value for keys. Exact keys are tried in
// order before any case-insensitive match is considered.
func resolve(raw model.RawRecord, keys []string) (any, bool) {
	for _, k := range keys {
		if v, ok := raw.Lookup(k); ok {
			return v, true
		}
	}
	for _, k := range keys {
		if v, ok := raw.LookupFold(k); ok {
			return v, true
		}
	}
	return nil, false
}

// resolveString resolves a text field. Numbers are rendered in their shortest
// decimal form; any other non-string value counts as absent.
func resolveString(raw model.RawRecord, keys []string) (string, bool) {
	v, ok := resolve(raw, keys)
	if !ok {
		return "", false
	}
	switch val := v.(type) {
	case string:
		return val, true
	case json.Number:
		return val.String(), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case int:
		return strconv.Itoa(val), true
	case int64:
		return strconv.FormatInt(val, 10), true
	}
	return "", false
}

// resolveCoordinate resolves a latitude or longitude. An explicit numeric 0 is
// kept as-is. Strings are parsed; unparseable or non-finite values become 0.
func resolveCoordinate(raw model.RawRecord, keys []string) float64 {
	v, ok := resolve(raw, keys)
	if !ok {
		return 0
	}

	var f float64
	switch val := v.(type) {
	case json.Number:
		parsed, err := val.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case float64:
		f = val
	case int:
		f = float64(val)
	case int64:
		f = float64(val)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
