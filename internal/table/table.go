// Package table implements the dashboard table view: search and column sort
// over an in-memory observation list.
package table

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/mr1hm/go-flood-watch/internal/models"
)

type Column string

const (
	ColumnNone         Column = ""
	ColumnID           Column = "id"
	ColumnName         Column = "name"
	ColumnWarningLevel Column = "warningLevel"
	ColumnWaterLevel   Column = "waterLevel"
	ColumnWeather      Column = "weather"
	ColumnLastUpdated  Column = "lastUpdated"
)

var comparators = map[Column]func(a, b models.Observation) int{
	ColumnID:           func(a, b models.Observation) int { return cmp.Compare(a.ID, b.ID) },
	ColumnName:         func(a, b models.Observation) int { return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)) },
	ColumnWarningLevel: func(a, b models.Observation) int { return cmp.Compare(a.WarningLevel, b.WarningLevel) },
	ColumnWaterLevel:   func(a, b models.Observation) int { return cmp.Compare(a.WaterLevel, b.WaterLevel) },
	ColumnWeather:      func(a, b models.Observation) int { return strings.Compare(strings.ToLower(a.Weather), strings.ToLower(b.Weather)) },
	ColumnLastUpdated:  func(a, b models.Observation) int { return a.LastUpdated.Compare(b.LastUpdated) },
}

// ParseColumn accepts the JSON field names plus their snake_case forms.
func ParseColumn(s string) (Column, error) {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "_", "")) {
	case "":
		return ColumnNone, nil
	case "id":
		return ColumnID, nil
	case "name":
		return ColumnName, nil
	case "warninglevel", "level":
		return ColumnWarningLevel, nil
	case "waterlevel", "water":
		return ColumnWaterLevel, nil
	case "weather":
		return ColumnWeather, nil
	case "lastupdated", "updated":
		return ColumnLastUpdated, nil
	default:
		return ColumnNone, &models.ValidationError{Field: "sort", Reason: fmt.Sprintf("unknown column %q", s)}
	}
}

type Query struct {
	Search string
	Sort   Column
	Desc   bool
}

// Apply returns the rows matching q.Search, sorted by q.Sort when set. With
// no sort column the input order is kept. The input slice is not modified.
func (q Query) Apply(rows []models.Observation) []models.Observation {
	term := strings.ToLower(strings.TrimSpace(q.Search))

	out := make([]models.Observation, 0, len(rows))
	for _, o := range rows {
		if term == "" || matches(o, term) {
			out = append(out, o)
		}
	}

	compare, ok := comparators[q.Sort]
	if !ok {
		return out
	}
	slices.SortStableFunc(out, func(a, b models.Observation) int {
		if q.Desc {
			return compare(b, a)
		}
		return compare(a, b)
	})
	return out
}

func matches(o models.Observation, term string) bool {
	return strings.Contains(strings.ToLower(o.Name), term) ||
		strings.Contains(strings.ToLower(o.WarningLevel.String()), term) ||
		strings.Contains(strings.ToLower(o.Weather), term)
}
