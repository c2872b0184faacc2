package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// WarningLevel is the ordinal severity of a station. Comparisons follow
// severity: Normal < Advisory < Watch < Warning.
type WarningLevel int

const (
	WarningLevelUnknown WarningLevel = iota
	WarningLevelNormal
	WarningLevelAdvisory
	WarningLevelWatch
	WarningLevelWarning
)

// WarningLevels lists the valid levels in severity order.
var WarningLevels = []WarningLevel{
	WarningLevelNormal,
	WarningLevelAdvisory,
	WarningLevelWatch,
	WarningLevelWarning,
}

func (l WarningLevel) String() string {
	switch l {
	case WarningLevelNormal:
		return "Normal"
	case WarningLevelAdvisory:
		return "Advisory"
	case WarningLevelWatch:
		return "Watch"
	case WarningLevelWarning:
		return "Warning"
	default:
		return "Unknown"
	}
}

func (l WarningLevel) Valid() bool {
	return l >= WarningLevelNormal && l <= WarningLevelWarning
}

func ParseWarningLevel(s string) (WarningLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "normal":
		return WarningLevelNormal, nil
	case "advisory":
		return WarningLevelAdvisory, nil
	case "watch":
		return WarningLevelWatch, nil
	case "warning":
		return WarningLevelWarning, nil
	default:
		return WarningLevelUnknown, fmt.Errorf("unknown warning level %q", s)
	}
}

func (l WarningLevel) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *WarningLevel) UnmarshalText(b []byte) error {
	parsed, err := ParseWarningLevel(string(b))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Observation is one flood-monitoring station's latest reading.
type Observation struct {
	ID           int64        `json:"id"`
	Name         string       `json:"name"`
	Latitude     float64      `json:"latitude"`
	Longitude    float64      `json:"longitude"`
	WarningLevel WarningLevel `json:"warningLevel"`
	WaterLevel   float64      `json:"waterLevel"` // meters
	Weather      string       `json:"weather"`
	LastUpdated  time.Time    `json:"lastUpdated"`
}

type Coordinates struct {
	Latitude  float64
	Longitude float64
}

func (o *Observation) Coordinates() Coordinates {
	return Coordinates{
		Latitude:  o.Latitude,
		Longitude: o.Longitude,
	}
}

// ObservationUpdate is the full-schema status update. Every field is
// required; WaterLevel is a pointer so an explicit 0 is distinguishable
// from an absent value.
type ObservationUpdate struct {
	WarningLevel string   `json:"warningLevel" binding:"required"`
	WaterLevel   *float64 `json:"waterLevel" binding:"required"`
	Weather      *string  `json:"weather" binding:"required"`
}

// ValidationError reports a client-side problem with a request.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Validate checks the update and returns the parsed warning level.
func (u ObservationUpdate) Validate() (WarningLevel, error) {
	if u.WarningLevel == "" {
		return WarningLevelUnknown, &ValidationError{Field: "warningLevel", Reason: "is required"}
	}
	level, err := ParseWarningLevel(u.WarningLevel)
	if err != nil {
		return WarningLevelUnknown, &ValidationError{Field: "warningLevel", Reason: "must be one of Normal, Advisory, Watch, Warning"}
	}
	if u.WaterLevel == nil {
		return WarningLevelUnknown, &ValidationError{Field: "waterLevel", Reason: "is required"}
	}
	if *u.WaterLevel < 0 {
		return WarningLevelUnknown, &ValidationError{Field: "waterLevel", Reason: "must not be negative"}
	}
	if u.Weather == nil {
		return WarningLevelUnknown, &ValidationError{Field: "weather", Reason: "is required"}
	}
	return level, nil
}

// Change is the state of a record before and after an update.
type Change struct {
	Previous Observation `json:"previous"`
	Current  Observation `json:"current"`
}

func (c Change) Escalated() bool {
	return c.Current.WarningLevel > c.Previous.WarningLevel
}

// Summary holds the dashboard statistics.
type Summary struct {
	Total       int                  `json:"total"`
	Counts      map[WarningLevel]int `json:"counts"`
	LastUpdated *time.Time           `json:"lastUpdated,omitempty"`
}

func (s Summary) Count(level WarningLevel) int {
	return s.Counts[level]
}

// MarshalJSON keys counts by level name.
func (s Summary) MarshalJSON() ([]byte, error) {
	counts := make(map[string]int, len(WarningLevels))
	for _, l := range WarningLevels {
		counts[l.String()] = s.Counts[l]
	}
	return json.Marshal(struct {
		Total       int            `json:"total"`
		Counts      map[string]int `json:"counts"`
		LastUpdated *time.Time     `json:"lastUpdated,omitempty"`
	}{s.Total, counts, s.LastUpdated})
}

func Summarize(observations []Observation) Summary {
	s := Summary{
		Total:  len(observations),
		Counts: make(map[WarningLevel]int, len(WarningLevels)),
	}
	for _, o := range observations {
		if o.WarningLevel.Valid() {
			s.Counts[o.WarningLevel]++
		}
		if s.LastUpdated == nil || o.LastUpdated.After(*s.LastUpdated) {
			t := o.LastUpdated
			s.LastUpdated = &t
		}
	}
	return s
}
