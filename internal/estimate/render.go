package estimate

import (
	"io"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
)

// Render writes a projection as a terminal table.
func Render(w io.Writer, e Estimate) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRow(table.Row{"Schools", humanize.Comma(int64(e.Schools))})
	t.AppendRow(table.Row{"Mode", string(e.Phase)})
	t.AppendRow(table.Row{"Estimated time", FormatSeconds(e.Seconds)})
	t.AppendRow(table.Row{"Buffer applied", yesNo(e.Buffered)})
	t.AppendSeparator()
	t.AppendRow(table.Row{"Recommended batch size", humanize.Comma(int64(e.BatchSize))})
	t.AppendRow(table.Row{"Number of batches", e.NumBatches})
	t.AppendRow(table.Row{"Time per batch", e.BatchTime})
	t.AppendSeparator()
	t.AppendRow(table.Row{"Schools per day (24h)", humanize.Comma(int64(e.DailyCapacity))})
	t.AppendRow(table.Row{"Schools per day (8h)", humanize.Comma(int64(e.WorkdayCapacity))})
	t.SetStyle(table.StyleRounded)
	t.Render()
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
