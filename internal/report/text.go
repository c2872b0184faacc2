package report

import (
	"strconv"
	"time"

	"github.com/mr1hm/go-flood-watch/internal/models"
)

const (
	placeholder = "-"
	ellipsis    = "..."

	nameBudget    = 25
	weatherBudget = 15
)

// truncate shortens s to at most budget runes, ending in an ellipsis when
// anything was cut.
func truncate(s string, budget int) string {
	r := []rune(s)
	if len(r) <= budget {
		return s
	}
	return string(r[:budget-len(ellipsis)]) + ellipsis
}

func orPlaceholder(s string) string {
	if s == "" {
		return placeholder
	}
	return s
}

func formatName(s string) string {
	return orPlaceholder(truncate(s, nameBudget))
}

func formatWeather(s string) string {
	return orPlaceholder(truncate(s, weatherBudget))
}

func formatWaterLevel(v float64) string {
	if v < 0 {
		return placeholder
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatLevel(l models.WarningLevel) string {
	if !l.Valid() {
		return placeholder
	}
	return l.String()
}

func formatUpdated(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return placeholder
	}
	return t.In(loc).Format("2006-01-02 15:04")
}

// rgb is a DeviceRGB color with 0-255 components.
type rgb struct {
	r, g, b int
}

var (
	levelColors = map[models.WarningLevel]rgb{
		models.WarningLevelNormal:   {34, 197, 94},
		models.WarningLevelAdvisory: {21, 128, 61},
		models.WarningLevelWatch:    {234, 179, 8},
		models.WarningLevelWarning:  {239, 68, 68},
	}
	unknownLevelColor = rgb{107, 114, 128}

	textColor       = rgb{17, 24, 39}
	mutedTextColor  = rgb{75, 85, 99}
	headerFillColor = rgb{30, 64, 175}
	headerTextColor = rgb{255, 255, 255}
	evenRowFill     = rgb{255, 255, 255}
	oddRowFill      = rgb{243, 244, 246}
	boxFillColor    = rgb{239, 246, 255}
	boxBorderColor  = rgb{191, 219, 254}
	ruleColor       = rgb{209, 213, 219}
)

func levelColor(l models.WarningLevel) rgb {
	if c, ok := levelColors[l]; ok {
		return c
	}
	return unknownLevelColor
}
