package report

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// WriteConsoleSummary prints the run counts as a plain text table.
func WriteConsoleSummary(w io.Writer, status Status) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.Style().Format.Header = text.FormatDefault
	t.Style().Format.Footer = text.FormatDefault
	t.AppendHeader(table.Row{"Status", "Count"})
	t.AppendRows([]table.Row{
		{"Passed", status.Passed},
		{"Failed", status.Failed},
		{"Timed out", status.TimedOut},
		{"Skipped", status.Skipped},
	})
	t.AppendFooter(table.Row{"Total", status.Total()})
	t.Render()
}
