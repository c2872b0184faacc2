package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestParseWarningLevel(t *testing.T) {
	tests := []struct {
		in   string
		want WarningLevel
		ok   bool
	}{
		{"Normal", WarningLevelNormal, true},
		{"advisory", WarningLevelAdvisory, true},
		{" WATCH ", WarningLevelWatch, true},
		{"Warning", WarningLevelWarning, true},
		{"red", WarningLevelUnknown, false},
		{"", WarningLevelUnknown, false},
	}
	for _, tt := range tests {
		got, err := ParseWarningLevel(tt.in)
		if (err == nil) != tt.ok {
			t.Errorf("ParseWarningLevel(%q) error = %v, want ok=%v", tt.in, err, tt.ok)
		}
		if got != tt.want {
			t.Errorf("ParseWarningLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestWarningLevel_Ordering(t *testing.T) {
	if !(WarningLevelNormal < WarningLevelAdvisory &&
		WarningLevelAdvisory < WarningLevelWatch &&
		WarningLevelWatch < WarningLevelWarning) {
		t.Error("warning levels are not ordered by severity")
	}
	if WarningLevelUnknown.Valid() {
		t.Error("unknown level should not be valid")
	}
}

func TestObservation_JSON(t *testing.T) {
	o := Observation{ID: 7, Name: "Station A", WarningLevel: WarningLevelWatch, WaterLevel: 3.2}

	b, err := json.Marshal(o)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if raw["warningLevel"] != "Watch" {
		t.Errorf("expected warningLevel Watch, got %v", raw["warningLevel"])
	}

	var back Observation
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal into Observation: %v", err)
	}
	if back.WarningLevel != WarningLevelWatch {
		t.Errorf("expected Watch after round trip, got %v", back.WarningLevel)
	}
}

func TestObservationUpdate_Validate(t *testing.T) {
	water := 2.5
	zero := 0.0
	negative := -1.0
	weather := "Rain"

	tests := []struct {
		name  string
		u     ObservationUpdate
		field string
	}{
		{"valid", ObservationUpdate{WarningLevel: "Watch", WaterLevel: &water, Weather: &weather}, ""},
		{"zero water level", ObservationUpdate{WarningLevel: "Normal", WaterLevel: &zero, Weather: &weather}, ""},
		{"missing level", ObservationUpdate{WaterLevel: &water, Weather: &weather}, "warningLevel"},
		{"bad level", ObservationUpdate{WarningLevel: "Red", WaterLevel: &water, Weather: &weather}, "warningLevel"},
		{"missing water", ObservationUpdate{WarningLevel: "Watch", Weather: &weather}, "waterLevel"},
		{"negative water", ObservationUpdate{WarningLevel: "Watch", WaterLevel: &negative, Weather: &weather}, "waterLevel"},
		{"missing weather", ObservationUpdate{WarningLevel: "Watch", WaterLevel: &water}, "weather"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.u.Validate()
			if tt.field == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Field != tt.field {
				t.Errorf("expected field %s, got %s", tt.field, verr.Field)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	now := time.Date(2025, 1, 13, 7, 0, 0, 0, time.UTC)
	obs := make([]Observation, 25)
	for i := range obs {
		obs[i] = Observation{ID: int64(i + 1), WarningLevel: WarningLevelNormal, LastUpdated: now}
	}
	obs[3].WarningLevel = WarningLevelWarning
	obs[10].WarningLevel = WarningLevelWatch
	obs[10].LastUpdated = now.Add(time.Hour)

	s := Summarize(obs)
	if s.Total != 25 {
		t.Errorf("expected total 25, got %d", s.Total)
	}
	if s.Count(WarningLevelWarning) != 1 {
		t.Errorf("expected 1 warning, got %d", s.Count(WarningLevelWarning))
	}
	if s.Count(WarningLevelWatch) != 1 {
		t.Errorf("expected 1 watch, got %d", s.Count(WarningLevelWatch))
	}
	if s.Count(WarningLevelNormal) != 23 {
		t.Errorf("expected 23 normal, got %d", s.Count(WarningLevelNormal))
	}
	if s.LastUpdated == nil || !s.LastUpdated.Equal(now.Add(time.Hour)) {
		t.Errorf("expected latest update %v, got %v", now.Add(time.Hour), s.LastUpdated)
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	if s.Total != 0 || s.LastUpdated != nil {
		t.Errorf("expected empty summary, got %+v", s)
	}

	b, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var raw map[string]any
	json.Unmarshal(b, &raw)
	counts := raw["counts"].(map[string]any)
	if counts["Warning"] != float64(0) {
		t.Errorf("expected zero Warning count in JSON, got %v", counts["Warning"])
	}
}

func TestChange_Escalated(t *testing.T) {
	c := Change{
		Previous: Observation{WarningLevel: WarningLevelAdvisory},
		Current:  Observation{WarningLevel: WarningLevelWarning},
	}
	if !c.Escalated() {
		t.Error("expected Advisory -> Warning to escalate")
	}
	c.Current.WarningLevel = WarningLevelNormal
	if c.Escalated() {
		t.Error("expected Advisory -> Normal not to escalate")
	}
}
