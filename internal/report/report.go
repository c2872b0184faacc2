// Package report renders observation tables into paginated PDF documents.
package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/mr1hm/go-flood-watch/internal/models"
)

const fontFamily = "Helvetica"

// Config holds the report text and display settings.
type Config struct {
	Title        string
	Subtitle     string
	ProductLabel string
	// Location is the display zone for every rendered timestamp.
	Location *time.Location
	// Compress deflates page streams. Disable it to inspect page text.
	Compress bool
}

// Formatter lays out observation reports. It holds no per-render state and
// is safe for concurrent use.
type Formatter struct {
	cfg Config
}

// New returns a Formatter, filling empty text fields and a nil Location
// with defaults.
func New(cfg Config) *Formatter {
	if cfg.Title == "" {
		cfg.Title = "Flood Observation Report"
	}
	if cfg.Subtitle == "" {
		cfg.Subtitle = "Water levels and warning status by station"
	}
	if cfg.ProductLabel == "" {
		cfg.ProductLabel = "Flood Warning System"
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Formatter{cfg: cfg}
}

// Filename returns "<stem>-<YYYY-MM-DD>.<ext>" with the date taken in loc.
func Filename(stem, ext string, now time.Time, loc *time.Location) string {
	return fmt.Sprintf("%s-%s.%s", stem, now.In(loc).Format("2006-01-02"), ext)
}

func (f *Formatter) Filename(stem string, now time.Time) string {
	return Filename(stem, "pdf", now, f.cfg.Location)
}

// Render writes the report for records, in the given order, to w. now is
// the generation time printed in the header and stamped into the document
// metadata, so identical records and now yield identical bytes.
func (f *Formatter) Render(w io.Writer, records []models.Observation, now time.Time) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(f.cfg.Compress)
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(now)
	pdf.SetModificationDate(now)
	pdf.SetTitle(f.cfg.Title, true)
	pdf.SetCreator(f.cfg.ProductLabel, true)
	pdf.SetMargins(margin, margin, margin)
	// Breaks are placed by paginate; automatic breaks would split rows.
	pdf.SetAutoPageBreak(false, 0)

	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	y := f.drawHeader(pdf, tr, now)
	y = f.drawSummary(pdf, y, models.Summarize(records))

	for p, span := range paginate(len(records), y) {
		if p > 0 {
			pdf.AddPage()
		}
		drawTableHeader(pdf, span.headerY)
		for i := span.first; i < span.last; i++ {
			f.drawRow(pdf, tr, i, span.rowY(i), records[i])
		}
	}

	// The page total is only known now, so footers go on last.
	f.drawFooters(pdf, tr)

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("error laying out report: %w", err)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("error writing report: %w", err)
	}
	return nil
}

func setText(pdf *fpdf.Fpdf, c rgb) { pdf.SetTextColor(c.r, c.g, c.b) }
func setFill(pdf *fpdf.Fpdf, c rgb) { pdf.SetFillColor(c.r, c.g, c.b) }
func setDraw(pdf *fpdf.Fpdf, c rgb) { pdf.SetDrawColor(c.r, c.g, c.b) }

func (f *Formatter) drawHeader(pdf *fpdf.Fpdf, tr func(string) string, now time.Time) float64 {
	width := usableWidth()
	pdf.SetXY(margin, margin)

	setText(pdf, textColor)
	pdf.SetFont(fontFamily, "B", 18)
	pdf.CellFormat(width, 10, tr(f.cfg.Title), "", 1, "L", false, 0, "")

	setText(pdf, mutedTextColor)
	pdf.SetFont(fontFamily, "", 11)
	pdf.CellFormat(width, 6, tr(f.cfg.Subtitle), "", 1, "L", false, 0, "")

	pdf.SetFont(fontFamily, "", 9)
	generated := "Generated " + now.In(f.cfg.Location).Format("02 Jan 2006 15:04:05 MST")
	pdf.CellFormat(width, 6, generated, "", 1, "L", false, 0, "")

	y := pdf.GetY() + 2
	setDraw(pdf, ruleColor)
	pdf.SetLineWidth(0.3)
	pdf.Line(margin, y, pageWidth-margin, y)
	return y + 5
}

func (f *Formatter) drawSummary(pdf *fpdf.Fpdf, y float64, s models.Summary) float64 {
	boxWidth := (usableWidth() - 2*summaryGap) / 3
	boxes := []struct {
		value   int
		caption string
		color   rgb
	}{
		{s.Total, "Total stations", textColor},
		{s.Count(models.WarningLevelWarning), "Stations at Warning", levelColor(models.WarningLevelWarning)},
		{s.Count(models.WarningLevelWatch), "Stations at Watch", levelColor(models.WarningLevelWatch)},
	}

	for i, b := range boxes {
		x := margin + float64(i)*(boxWidth+summaryGap)

		setFill(pdf, boxFillColor)
		setDraw(pdf, boxBorderColor)
		pdf.Rect(x, y, boxWidth, summaryBoxHeight, "FD")

		setText(pdf, b.color)
		pdf.SetFont(fontFamily, "B", 20)
		pdf.SetXY(x, y+3)
		pdf.CellFormat(boxWidth, 11, strconv.Itoa(b.value), "", 0, "C", false, 0, "")

		setText(pdf, mutedTextColor)
		pdf.SetFont(fontFamily, "", 8)
		pdf.SetXY(x, y+15)
		pdf.CellFormat(boxWidth, 5, b.caption, "", 0, "C", false, 0, "")
	}
	return y + summaryBoxHeight + 8
}

func drawTableHeader(pdf *fpdf.Fpdf, y float64) {
	setFill(pdf, headerFillColor)
	setText(pdf, headerTextColor)
	pdf.SetFont(fontFamily, "B", 9)

	x := margin
	for _, c := range columns {
		w := c.share * usableWidth()
		pdf.SetXY(x, y)
		pdf.CellFormat(w, headerRowHeight, c.label, "", 0, c.align, true, 0, "")
		x += w
	}
}

func (f *Formatter) drawRow(pdf *fpdf.Fpdf, tr func(string) string, i int, y float64, o models.Observation) {
	fill := evenRowFill
	if i%2 == 1 {
		fill = oddRowFill
	}
	setFill(pdf, fill)

	cells := []string{
		formatName(o.Name),
		formatLevel(o.WarningLevel),
		formatWaterLevel(o.WaterLevel),
		formatWeather(o.Weather),
		formatUpdated(o.LastUpdated, f.cfg.Location),
	}

	x := margin
	for j, c := range columns {
		if j == 1 {
			setText(pdf, levelColor(o.WarningLevel))
			pdf.SetFont(fontFamily, "B", 8)
		} else {
			setText(pdf, textColor)
			pdf.SetFont(fontFamily, "", 8)
		}
		w := c.share * usableWidth()
		pdf.SetXY(x, y)
		pdf.CellFormat(w, rowHeight, tr(cells[j]), "", 0, c.align, true, 0, "")
		x += w
	}
}

func (f *Formatter) drawFooters(pdf *fpdf.Fpdf, tr func(string) string) {
	total := pdf.PageCount()
	y := bodyLimit() + 4

	for i := 1; i <= total; i++ {
		pdf.SetPage(i)

		// SetFont only writes to the page when the font changes, and each
		// page stream needs its own selection.
		pdf.SetFont(fontFamily, "", 9)
		pdf.SetFont(fontFamily, "I", 8)

		setDraw(pdf, ruleColor)
		pdf.SetLineWidth(0.2)
		pdf.Line(margin, bodyLimit()+2, pageWidth-margin, bodyLimit()+2)

		setText(pdf, mutedTextColor)
		pdf.SetXY(margin, y)
		pdf.CellFormat(usableWidth(), 5, fmt.Sprintf("Page %d of %d", i, total), "", 0, "C", false, 0, "")
		pdf.SetXY(margin, y)
		pdf.CellFormat(usableWidth(), 5, tr(f.cfg.ProductLabel), "", 0, "L", false, 0, "")
	}
}
