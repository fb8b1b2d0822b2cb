package output

import (
	"fmt"
	"html"
	"os"
	"strings"

	"github.com/vsinha/opsplan/pkg/application/dto"
	"github.com/vsinha/opsplan/pkg/application/services/conflicts"
	"github.com/vsinha/opsplan/pkg/domain/entities"
)

const (
	colorComplete = "#4CAF50"
	colorPlanned  = "#2196F3"
	colorBlocking = "#FF9800"
	colorConflict = "#F44336"
	colorInactive = "#9E9E9E"
)

// GanttChart draws the schedule window as one row per entry and one column
// per day
type GanttChart struct {
	Width        int
	Height       int
	MarginLeft   int
	MarginTop    int
	MarginRight  int
	MarginBottom int
	RowHeight    int
	DayWidth     int
	StartDay     int
	Days         int
}

// GanttCell is one scheduled day of one entry
type GanttCell struct {
	Day      int
	X        int
	Color    string
	Conflict bool
}

// GanttRow is every visible day of one entry
type GanttRow struct {
	Entry entities.ScheduledProcess
	Cells []GanttCell
}

// NewGanttChart sizes a chart for the window of a conflict summary
func NewGanttChart(summary dto.ConflictSummary) (*GanttChart, error) {
	start, err := entities.ParseDay(summary.WindowStart)
	if err != nil {
		return nil, fmt.Errorf("invalid window start: %w", err)
	}
	end, err := entities.ParseDay(summary.WindowEnd)
	if err != nil {
		return nil, fmt.Errorf("invalid window end: %w", err)
	}
	if end < start {
		return nil, fmt.Errorf("window ends before it starts")
	}

	return &GanttChart{
		MarginLeft:   200,
		MarginTop:    60,
		MarginRight:  40,
		MarginBottom: 60,
		RowHeight:    26,
		DayWidth:     40,
		StartDay:     start,
		Days:         end - start + 1,
	}, nil
}

// Rows lays out every entry touching the window. A cell is flagged when the
// entry has a conflict on that day.
func (gc *GanttChart) Rows(s *entities.Snapshot) []GanttRow {
	bookings := conflicts.BuildBookingMap(s, gc.StartDay, gc.StartDay+gc.Days)

	var rows []GanttRow
	for _, entry := range s.Schedule {
		start, days, err := entry.Span()
		if err != nil {
			continue
		}
		lo, hi := bookings.Clip(start, days)
		if lo >= hi {
			continue
		}

		row := GanttRow{Entry: entry}
		for day := lo; day < hi; day++ {
			conflict := entry.Status != entities.ProcessCancelled && bookings.EventHasConflictOnDay(entry, day)
			color := statusColor(entry.Status)
			if conflict {
				color = colorConflict
			}
			row.Cells = append(row.Cells, GanttCell{
				Day:      day,
				X:        gc.MarginLeft + (day-gc.StartDay)*gc.DayWidth,
				Color:    color,
				Conflict: conflict,
			})
		}
		rows = append(rows, row)
	}
	return rows
}

// GenerateSVG creates an SVG representation of the schedule window
func (gc *GanttChart) GenerateSVG(s *entities.Snapshot) string {
	rows := gc.Rows(s)

	gc.Width = gc.MarginLeft + gc.Days*gc.DayWidth + gc.MarginRight
	gc.Height = gc.MarginTop + max(len(rows), 1)*gc.RowHeight + gc.MarginBottom

	var svg strings.Builder
	svg.WriteString(fmt.Sprintf(`<svg width="%d" height="%d" xmlns="http://www.w3.org/2000/svg">`, gc.Width, gc.Height))
	svg.WriteString(`<defs><style>`)
	svg.WriteString(`.row-label { font-family: Arial, sans-serif; font-size: 12px; fill: #333; }`)
	svg.WriteString(`.day-label { font-family: Arial, sans-serif; font-size: 10px; fill: #666; }`)
	svg.WriteString(`.title { font-family: Arial, sans-serif; font-size: 16px; font-weight: bold; fill: #333; }`)
	svg.WriteString(`.grid-line { stroke: #e0e0e0; stroke-width: 1; }`)
	svg.WriteString(`.cell { stroke: #333; stroke-width: 1; }`)
	svg.WriteString(`</style></defs>`)
	svg.WriteString(fmt.Sprintf(`<rect width="%d" height="%d" fill="white"/>`, gc.Width, gc.Height))
	svg.WriteString(fmt.Sprintf(`<text x="%d" y="30" class="title">Schedule %s to %s</text>`,
		gc.MarginLeft, entities.FormatDay(gc.StartDay), entities.FormatDay(gc.StartDay+gc.Days-1)))

	gc.drawDayAxis(&svg, len(rows))
	if len(rows) == 0 {
		svg.WriteString(fmt.Sprintf(`<text x="%d" y="%d" class="row-label">No scheduled work in window</text>`,
			gc.MarginLeft+10, gc.MarginTop+gc.RowHeight/2+4))
	}
	for i, row := range rows {
		gc.drawRow(&svg, row, gc.MarginTop+i*gc.RowHeight)
	}
	gc.drawLegend(&svg)

	svg.WriteString(`</svg>`)
	return svg.String()
}

func (gc *GanttChart) drawDayAxis(svg *strings.Builder, numRows int) {
	gridBottom := gc.MarginTop + max(numRows, 1)*gc.RowHeight
	for i := 0; i <= gc.Days; i++ {
		x := gc.MarginLeft + i*gc.DayWidth
		svg.WriteString(fmt.Sprintf(`<line x1="%d" y1="%d" x2="%d" y2="%d" class="grid-line"/>`,
			x, gc.MarginTop, x, gridBottom))
		if i < gc.Days {
			// MM-DD keeps the label inside one column
			label := entities.FormatDay(gc.StartDay + i)[5:]
			svg.WriteString(fmt.Sprintf(`<text x="%d" y="%d" class="day-label" text-anchor="middle">%s</text>`,
				x+gc.DayWidth/2, gridBottom+15, label))
		}
	}
}

func (gc *GanttChart) drawRow(svg *strings.Builder, row GanttRow, y int) {
	label := fmt.Sprintf("%s %s (%s)", row.Entry.ID, row.Entry.ProcessID, row.Entry.BatchID)
	svg.WriteString(fmt.Sprintf(`<text x="%d" y="%d" class="row-label" text-anchor="end">%s</text>`,
		gc.MarginLeft-10, y+gc.RowHeight/2+4, html.EscapeString(label)))
	svg.WriteString(fmt.Sprintf(`<line x1="%d" y1="%d" x2="%d" y2="%d" class="grid-line"/>`,
		gc.MarginLeft, y+gc.RowHeight, gc.MarginLeft+gc.Days*gc.DayWidth, y+gc.RowHeight))

	for _, cell := range row.Cells {
		svg.WriteString(fmt.Sprintf(`<rect x="%d" y="%d" width="%d" height="%d" fill="%s" class="cell">`,
			cell.X+1, y+3, gc.DayWidth-2, gc.RowHeight-6, cell.Color))
		tooltip := fmt.Sprintf("%s on %s: %s", row.Entry.ID, entities.FormatDay(cell.Day), row.Entry.Status)
		if cell.Conflict {
			tooltip += ", conflict"
		}
		svg.WriteString(fmt.Sprintf(`<title>%s</title></rect>`, html.EscapeString(tooltip)))
	}
}

func (gc *GanttChart) drawLegend(svg *strings.Builder) {
	items := []struct {
		color string
		label string
	}{
		{colorPlanned, "Scheduled"},
		{colorComplete, "Complete"},
		{colorBlocking, "Issue / Quarantine"},
		{colorConflict, "Conflict"},
		{colorInactive, "Cancelled"},
	}

	y := gc.Height - 20
	for i, item := range items {
		x := gc.MarginLeft + i*120
		svg.WriteString(fmt.Sprintf(`<rect x="%d" y="%d" width="12" height="8" fill="%s"/>`, x, y-8, item.color))
		svg.WriteString(fmt.Sprintf(`<text x="%d" y="%d" class="day-label">%s</text>`, x+18, y, item.label))
	}
}

func statusColor(status entities.ProcessStatus) string {
	switch {
	case status == entities.ProcessCancelled:
		return colorInactive
	case status == entities.ProcessComplete:
		return colorComplete
	case status.IsBlocking():
		return colorBlocking
	default:
		return colorPlanned
	}
}

// WriteGanttSVG renders the schedule window of summary to filename
func WriteGanttSVG(s *entities.Snapshot, summary dto.ConflictSummary, filename string) error {
	chart, err := NewGanttChart(summary)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filename, []byte(chart.GenerateSVG(s)), 0644); err != nil {
		return fmt.Errorf("failed to write SVG file: %w", err)
	}
	return nil
}
