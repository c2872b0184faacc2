package models

import (
	"fmt"
	"time"
)

// Alert is an escalation notice for one station.
type Alert struct {
	ObservationID int64
	Station       string
	From          WarningLevel
	To            WarningLevel
	WaterLevel    float64
	At            time.Time
}

func NewAlert(c Change) Alert {
	return Alert{
		ObservationID: c.Current.ID,
		Station:       c.Current.Name,
		From:          c.Previous.WarningLevel,
		To:            c.Current.WarningLevel,
		WaterLevel:    c.Current.WaterLevel,
		At:            c.Current.LastUpdated,
	}
}

// Text renders the alert for chat delivery, with times in loc.
func (a Alert) Text(loc *time.Location) string {
	return fmt.Sprintf("%s raised from %s to %s\nWater level: %.2f m\nAt: %s",
		a.Station, a.From, a.To, a.WaterLevel, a.At.In(loc).Format("2006-01-02 15:04 MST"))
}
