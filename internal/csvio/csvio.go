// Package csvio reads and writes observation tables as CSV.
package csvio

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/mr1hm/go-flood-watch/internal/models"
)

type row struct {
	ID           string `csv:"id"`
	Name         string `csv:"name"`
	Latitude     string `csv:"latitude"`
	Longitude    string `csv:"longitude"`
	WarningLevel string `csv:"warning_level"`
	WaterLevel   string `csv:"water_level"`
	Weather      string `csv:"weather"`
	LastUpdated  string `csv:"last_updated"`
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Write encodes observations with a header row. Timestamps are RFC 3339 in
// loc.
func Write(w io.Writer, observations []models.Observation, loc *time.Location) error {
	rows := make([]*row, 0, len(observations))
	for _, o := range observations {
		r := &row{
			ID:           strconv.FormatInt(o.ID, 10),
			Name:         o.Name,
			Latitude:     formatFloat(o.Latitude),
			Longitude:    formatFloat(o.Longitude),
			WarningLevel: o.WarningLevel.String(),
			WaterLevel:   formatFloat(o.WaterLevel),
			Weather:      o.Weather,
		}
		if !o.LastUpdated.IsZero() {
			r.LastUpdated = o.LastUpdated.In(loc).Format(time.RFC3339)
		}
		rows = append(rows, r)
	}

	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("error writing csv: %w", err)
	}
	return nil
}

// Read decodes a file produced by Write. The id and last_updated columns
// may be blank; blank ids are left zero for the store to assign.
func Read(r io.Reader) ([]models.Observation, error) {
	var rows []*row
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("error reading csv: %w", err)
	}

	out := make([]models.Observation, 0, len(rows))
	for i, r := range rows {
		o, err := r.observation()
		if err != nil {
			// Line 1 is the header.
			return nil, fmt.Errorf("csv line %d: %w", i+2, err)
		}
		out = append(out, o)
	}
	return out, nil
}

func (r *row) observation() (models.Observation, error) {
	var (
		o   models.Observation
		err error
	)

	if s := strings.TrimSpace(r.ID); s != "" {
		if o.ID, err = strconv.ParseInt(s, 10, 64); err != nil {
			return o, fmt.Errorf("invalid id %q", r.ID)
		}
	}
	o.Name = strings.TrimSpace(r.Name)
	if o.Name == "" {
		return o, fmt.Errorf("name is required")
	}
	if o.Latitude, err = strconv.ParseFloat(strings.TrimSpace(r.Latitude), 64); err != nil {
		return o, fmt.Errorf("invalid latitude %q", r.Latitude)
	}
	if o.Longitude, err = strconv.ParseFloat(strings.TrimSpace(r.Longitude), 64); err != nil {
		return o, fmt.Errorf("invalid longitude %q", r.Longitude)
	}
	if o.WarningLevel, err = models.ParseWarningLevel(r.WarningLevel); err != nil {
		return o, err
	}
	if o.WaterLevel, err = strconv.ParseFloat(strings.TrimSpace(r.WaterLevel), 64); err != nil {
		return o, fmt.Errorf("invalid water level %q", r.WaterLevel)
	}
	if o.WaterLevel < 0 {
		return o, fmt.Errorf("water level must not be negative")
	}
	o.Weather = strings.TrimSpace(r.Weather)
	if s := strings.TrimSpace(r.LastUpdated); s != "" {
		if o.LastUpdated, err = time.Parse(time.RFC3339, s); err != nil {
			return o, fmt.Errorf("invalid last_updated %q", r.LastUpdated)
		}
	}
	return o, nil
}
