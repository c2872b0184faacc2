package report

// A4 portrait in millimetres.
const (
	pageWidth    = 210.0
	pageHeight   = 297.0
	margin       = 15.0
	footerHeight = 12.0

	headerRowHeight = 8.0
	rowHeight       = 7.0

	summaryGap       = 6.0
	summaryBoxHeight = 24.0
)

// Column proportions of the usable width.
var columns = []struct {
	label string
	share float64
	align string
}{
	{"Location", 0.30, "L"},
	{"Level", 0.15, "C"},
	{"Water (m)", 0.15, "R"},
	{"Weather", 0.20, "L"},
	{"Updated", 0.20, "L"},
}

func usableWidth() float64 {
	return pageWidth - 2*margin
}

// bodyLimit is the lowest y a row may reach before the footer band.
func bodyLimit() float64 {
	return pageHeight - margin - footerHeight
}

// pageSpan is the slice of body rows [first, last) placed on one page,
// under a table header drawn at headerY.
type pageSpan struct {
	headerY     float64
	first, last int
}

func (p pageSpan) rowY(i int) float64 {
	return p.headerY + headerRowHeight + float64(i-p.first)*rowHeight
}

// paginate walks a cursor down the page and breaks before any row that
// would cross bodyLimit. Every span after the first starts at the top
// margin with a repeated header. An empty table still yields one span.
func paginate(rows int, tableTop float64) []pageSpan {
	limit := bodyLimit()
	spans := []pageSpan{{headerY: tableTop, first: 0}}
	cursor := tableTop + headerRowHeight

	for i := 0; i < rows; i++ {
		if cursor+rowHeight > limit {
			spans[len(spans)-1].last = i
			spans = append(spans, pageSpan{headerY: margin, first: i})
			cursor = margin + headerRowHeight
		}
		cursor += rowHeight
	}
	spans[len(spans)-1].last = rows
	return spans
}
