package report

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mr1hm/go-flood-watch/internal/models"
)

var jakarta = time.FixedZone("UTC+07:00", 7*60*60)

func makeObservations(n int) []models.Observation {
	base := time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC)
	obs := make([]models.Observation, n)
	for i := range obs {
		obs[i] = models.Observation{
			ID:           int64(i + 1),
			Name:         fmt.Sprintf("Station %03d - River", i+1),
			WarningLevel: models.WarningLevels[i%len(models.WarningLevels)],
			WaterLevel:   1.5 + float64(i)/10,
			Weather:      "Cloudy",
			LastUpdated:  base.Add(time.Duration(i) * time.Minute),
		}
	}
	return obs
}

func render(t *testing.T, cfg Config, records []models.Observation, now time.Time) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, New(cfg).Render(&buf, records, now))
	return buf.Bytes()
}

func TestTruncate(t *testing.T) {
	thirty := "Station Q - Pesanggrahan River"
	require.Len(t, []rune(thirty), 30)

	assert.Equal(t, thirty[:22]+"...", formatName(thirty))
	assert.Len(t, formatName(thirty), 25)

	twenty := "Station A - Ciliwung"
	require.Len(t, twenty, 20)
	assert.Equal(t, twenty, formatName(twenty))

	exact := strings.Repeat("x", nameBudget)
	assert.Equal(t, exact, formatName(exact))

	assert.Equal(t, "Thunderstorm...", formatWeather("Thunderstorms with hail"))
	assert.Equal(t, "Light Rain", formatWeather("Light Rain"))
}

func TestTruncate_MultibyteRunes(t *testing.T) {
	name := strings.Repeat("é", 30)
	got := formatName(name)
	assert.Equal(t, strings.Repeat("é", 22)+"...", got)
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, placeholder, formatName(""))
	assert.Equal(t, placeholder, formatWeather(""))
	assert.Equal(t, placeholder, formatLevel(models.WarningLevelUnknown))
	assert.Equal(t, placeholder, formatUpdated(time.Time{}, jakarta))
	assert.Equal(t, "2.50", formatWaterLevel(2.5))
	assert.Equal(t, "0.00", formatWaterLevel(0))
}

func TestLevelColors_AreDistinctRGB(t *testing.T) {
	seen := map[rgb]bool{}
	for _, l := range models.WarningLevels {
		c := levelColor(l)
		for _, v := range []int{c.r, c.g, c.b} {
			assert.True(t, v >= 0 && v <= 255, "component out of range for %s", l)
		}
		assert.False(t, seen[c], "duplicate color for %s", l)
		seen[c] = true
	}
}

func TestPaginate_EmptyTable(t *testing.T) {
	spans := paginate(0, 80)
	require.Len(t, spans, 1)
	assert.Equal(t, 0, spans[0].first)
	assert.Equal(t, 0, spans[0].last)
	assert.Equal(t, 80.0, spans[0].headerY)
}

func TestPaginate_RowsNeverCrossFooter(t *testing.T) {
	for _, n := range []int{1, 10, 26, 27, 60, 61, 200} {
		t.Run(fmt.Sprint(n), func(t *testing.T) {
			tableTop := 80.0
			spans := paginate(n, tableTop)

			next := 0
			for p, span := range spans {
				assert.Equal(t, next, span.first, "spans must be contiguous")
				assert.Greater(t, span.last, span.first, "page %d has no rows", p)
				if p == 0 {
					assert.Equal(t, tableTop, span.headerY)
				} else {
					assert.Equal(t, margin, span.headerY, "continuation header must start at the top margin")
				}
				for i := span.first; i < span.last; i++ {
					assert.LessOrEqual(t, span.rowY(i)+rowHeight, bodyLimit(), "row %d crosses the footer", i)
				}
				// A break only happens when the next row would not fit.
				if p < len(spans)-1 {
					assert.Greater(t, span.rowY(span.last)+rowHeight, bodyLimit())
				}
				next = span.last
			}
			assert.Equal(t, n, next, "every row must be placed")
		})
	}
}

func TestRender_Deterministic(t *testing.T) {
	now := time.Date(2025, 1, 13, 3, 0, 0, 0, time.UTC)
	records := makeObservations(70)

	for _, compress := range []bool{false, true} {
		cfg := Config{Location: jakarta, Compress: compress}
		first := render(t, cfg, records, now)
		second := render(t, cfg, records, now)
		assert.True(t, bytes.Equal(first, second), "compress=%v: output differs between renders", compress)
	}
}

func TestRender_HeaderRepeatsOnEveryPage(t *testing.T) {
	now := time.Date(2025, 1, 13, 3, 0, 0, 0, time.UTC)
	records := makeObservations(120)
	out := string(render(t, Config{Location: jakarta}, records, now))

	spans := paginate(len(records), 80)
	require.Greater(t, len(spans), 1, "fixture should span several pages")

	pages := strings.Count(out, "(Location)Tj")
	for i := 1; i <= pages; i++ {
		assert.Contains(t, out, fmt.Sprintf("(Page %d of %d)Tj", i, pages))
	}
	assert.NotContains(t, out, fmt.Sprintf("(Page %d of", pages+1))
	assert.Equal(t, pages, strings.Count(out, "(Flood Warning System)Tj"), "product label on every page")

	// Every record is printed exactly once.
	for _, o := range records {
		assert.Equal(t, 1, strings.Count(out, "("+o.Name+")Tj"), "row %s", o.Name)
	}
}

func TestRender_EmptyInput(t *testing.T) {
	now := time.Date(2025, 1, 13, 3, 0, 0, 0, time.UTC)
	out := string(render(t, Config{Location: jakarta}, nil, now))

	assert.Equal(t, 1, strings.Count(out, "(Location)Tj"))
	assert.Contains(t, out, "(Page 1 of 1)Tj")
	assert.Contains(t, out, "(0)Tj")
}

func TestRender_SummaryAndHeader(t *testing.T) {
	now := time.Date(2025, 1, 13, 0, 30, 0, 0, time.UTC)
	records := makeObservations(25)
	for i := range records {
		records[i].WarningLevel = models.WarningLevelNormal
	}
	records[4].WarningLevel = models.WarningLevelWarning
	records[9].WarningLevel = models.WarningLevelWatch

	out := string(render(t, Config{Location: jakarta, Title: "Laporan Banjir"}, records, now))

	assert.Contains(t, out, "(Laporan Banjir)Tj")
	assert.Contains(t, out, "(25)Tj")
	assert.Equal(t, 2, strings.Count(out, "(1)Tj"), "warning and watch boxes")
	assert.Contains(t, out, "(Generated 13 Jan 2025 07:30:00 UTC+07:00)Tj")
	assert.Contains(t, out, "(Page 1 of 1)Tj")
}

func TestRender_TruncatesAndPlaceholders(t *testing.T) {
	now := time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC)
	records := []models.Observation{
		{ID: 1, Name: "Station Q - Pesanggrahan River", WarningLevel: models.WarningLevelWatch, WaterLevel: 1.8, Weather: "Scattered thunderstorms"},
		{ID: 2},
	}
	out := string(render(t, Config{Location: jakarta}, records, now))

	assert.Contains(t, out, "(Station Q - Pesanggrah...)Tj")
	assert.Contains(t, out, "(Scattered th...)Tj")
	assert.Contains(t, out, "(1.80)Tj")
	assert.GreaterOrEqual(t, strings.Count(out, "(-)Tj"), 4, "missing fields render placeholders")
}

func TestFilename(t *testing.T) {
	now := time.Date(2025, 1, 13, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, "flood-observations-2025-01-14.pdf", New(Config{Location: jakarta}).Filename("flood-observations", now))
	assert.Equal(t, "flood-observations-2025-01-13.csv", Filename("flood-observations", "csv", now, time.UTC))
}
