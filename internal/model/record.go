// Package model holds the canonical record and the view-state enums shared
// by the table, the map and the dashboard.
package model

// Default values applied when a raw payload omits a field.
const (
	DefaultProjectName = "Unknown Project"
	DefaultStatus      = "Unknown"
)

// Known status values. Any other status renders with the error tone.
const (
	StatusActive  = "Active"
	StatusPending = "Pending"
)

// Record is the canonical, six-field representation of one geotagged item.
// ID is the join key between table rows and map markers.
type Record struct {
	ID          string  `json:"id" yaml:"id"`
	ProjectName string  `json:"projectName" yaml:"project_name"`
	Latitude    float64 `json:"latitude" yaml:"latitude"`
	Longitude   float64 `json:"longitude" yaml:"longitude"`
	Status      string  `json:"status" yaml:"status"`
	LastUpdated string  `json:"lastUpdated" yaml:"last_updated"`
}

// StatusTone classifies a status for colored rendering.
type StatusTone string

const (
	ToneSuccess StatusTone = "success"
	ToneWarning StatusTone = "warning"
	ToneError   StatusTone = "error"
)

// Tone returns the display tone for the record's status. Matching is exact.
func (r Record) Tone() StatusTone {
	switch r.Status {
	case StatusActive:
		return ToneSuccess
	case StatusPending:
		return ToneWarning
	default:
		return ToneError
	}
}

// IndexOf returns the position of the record with the given id, or -1.
func IndexOf(records []Record, id string) int {
	for i := range records {
		if records[i].ID == id {
			return i
		}
	}
	return -1
}
