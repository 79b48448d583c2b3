// Package location defines the birth-data record and the location candidates
// that the resolution engine commits into it.
package location

import "context"

// DefaultTimezone is the timezone a fresh birth-data form starts with.
const DefaultTimezone = "America/New_York"

// Candidate sources.
const (
	SourceGazetteer = "gazetteer"
	SourceRemote    = "remote"
)

// Candidate is a resolved place offered to the user.
// Identity is the display name; Source is diagnostic only.
type Candidate struct {
	DisplayName string  `json:"display_name"`
	Timezone    string  `json:"timezone"`
	Source      string  `json:"source,omitempty"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

// BirthData is the form record submitted to the assessment backend.
// Latitude, Longitude and Timezone are derived from BirthPlace by the engine.
type BirthData struct {
	Name       string  `json:"name"`
	BirthDate  string  `json:"birth_date"` // YYYY-MM-DD
	BirthTime  string  `json:"birth_time"` // HH:MM
	BirthPlace string  `json:"birth_place"`
	Timezone   string  `json:"timezone"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
}

// NewBirthData returns an empty record with the form's default timezone.
func NewBirthData() BirthData {
	return BirthData{Timezone: DefaultTimezone}
}

// Apply commits a resolved candidate into the record, overwriting the
// derived fields and normalizing the place text to the candidate's name.
func (b *BirthData) Apply(c Candidate) {
	b.BirthPlace = c.DisplayName
	b.Latitude = c.Latitude
	b.Longitude = c.Longitude
	b.Timezone = c.Timezone
}

// Submitter sends completed birth data to the assessment backend.
type Submitter interface {
	Submit(ctx context.Context, data BirthData) (Assessment, error)
}

// Assessment is the opaque personality report returned by the backend.
type Assessment map[string]any
