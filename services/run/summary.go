package run

import (
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
)

type Summary struct {
	RunID         string
	Total         int
	PerSource     map[string]int
	Duplicates    map[string]int
	Gaps          int
	AlreadyStored int
	LogEntries    int
}

func (r *Run) Summarize() Summary {
	perSource := map[string]int{}
	for _, record := range r.records {
		perSource[record.Source]++
	}
	return Summary{
		RunID:         r.ID,
		Total:         len(r.records),
		PerSource:     perSource,
		Duplicates:    r.Duplicates,
		Gaps:          r.Gaps,
		AlreadyStored: r.AlreadyStored,
		LogEntries:    len(r.recorder.Entries()),
	}
}

// RenderSummary prints the per-source breakdown as a table.
func RenderSummary(w io.Writer, s Summary) {
	sources := make([]string, 0, len(s.PerSource))
	for name := range s.PerSource {
		sources = append(sources, name)
	}
	for name := range s.Duplicates {
		if _, ok := s.PerSource[name]; !ok {
			sources = append(sources, name)
		}
	}
	sort.Strings(sources)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Source", "Records", "Duplicates"})
	for _, name := range sources {
		t.AppendRow(table.Row{name, s.PerSource[name], s.Duplicates[name]})
	}
	t.AppendFooter(table.Row{"total", s.Total, ""})
	t.SetStyle(table.StyleRounded)
	t.Render()
}
