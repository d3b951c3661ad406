package report

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/waabox/runnerstat/internal/domain"
)

// ConsoleRows is how many rows PrintConsole shows.
const ConsoleRows = 10

// PrintConsole prints the largest groups, or the busiest repositories for a
// flat report, as a table.
func PrintConsole(out io.Writer, r domain.Report) {
	if r.Len() == 0 {
		return
	}

	table := tablewriter.NewWriter(out)
	table.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
	table.SetCenterSeparator("|")
	table.SetAutoWrapText(false)
	table.SetColWidth(60)

	if r.Grouped() {
		table.SetHeader([]string{r.GroupBy.Title(), "Total", "Successful", "Failed", "Success Rate", "Avg Duration"})
		groups := largestFirst(r.Groups)
		if len(groups) > ConsoleRows {
			groups = groups[:ConsoleRows]
		}
		for _, g := range groups {
			table.Append([]string{
				g.Key,
				fmt.Sprint(g.Total),
				fmt.Sprint(g.Successful),
				fmt.Sprint(g.Failed),
				g.SuccessRate,
				g.AverageDuration,
			})
		}
	} else {
		table.SetHeader([]string{"Repository", "Jobs"})
		for _, c := range Top(Summarize(r).ByRepo, ConsoleRows) {
			table.Append([]string{c.Key, fmt.Sprint(c.N)})
		}
	}
	table.Render()
}
