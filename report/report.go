package report

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"book-scraper/downloader"
	"book-scraper/model"
)

type column struct {
	title string
	align text.Align
}

func left(title string) column  { return column{title: title, align: text.AlignLeft} }
func right(title string) column { return column{title: title, align: text.AlignRight} }

// newTable returns a rounded table writer with one header cell per column.
// Headers stay left aligned whatever the column alignment.
func newTable(columns ...column) table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, 0, len(columns))
	configs := make([]table.ColumnConfig, 0, len(columns))
	for i, c := range columns {
		header = append(header, c.title)
		configs = append(configs, table.ColumnConfig{Number: i + 1, Align: c.align, AlignHeader: text.AlignLeft})
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)
	return tw
}

// Results renders the outcome of a download run, one row per target.
func Results(results []downloader.Result) string {
	tw := newTable(right("#"), left("Address"), left("State"), left("Title"),
		right("Start"), right("Chapters"), right("Time"), left("Error"))
	for i, r := range results {
		errText := ""
		if r.Err != nil {
			errText = truncate(r.Err.Error(), 80)
		}
		tw.AppendRow(table.Row{i + 1, r.Target.Address, r.State, r.Title, r.Start, r.Chapters, duration(r.Duration), errText})
	}
	return tw.Render()
}

// Counts summarises results by state, in state order.
func Counts(results []downloader.Result) string {
	counts := make(map[downloader.State]int)
	for _, r := range results {
		counts[r.State]++
	}
	tw := newTable(left("State"), right("Count"))
	for s := downloader.Pending; s <= downloader.Aborted; s++ {
		if counts[s] > 0 {
			tw.AppendRow(table.Row{s, counts[s]})
		}
	}
	return tw.Render()
}

// Targets renders the target list against the completion index.
func Targets(list []model.Target, done func(address string) bool, sectionSize int) string {
	tw := newTable(right("#"), left("Address"), right("Offset"), right("Resume from"), left("Status"))
	for i, t := range list {
		status := "pending"
		if done(t.Address) {
			status = "downloaded"
		}
		start := downloader.StartIndex(t.Offset, sectionSize)
		resume := fmt.Sprintf("%d (section %d)", start, downloader.SectionNumber(start, sectionSize))
		tw.AppendRow(table.Row{i + 1, t.Address, t.Offset, resume, status})
	}
	return tw.Render()
}

func duration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return d.Round(time.Second).String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
