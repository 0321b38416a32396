package assembler

import (
	"strings"

	"github.com/synaptica-ai/chart-extractor/pkg/parser"
)

// HistoryRow is one line of the clinical history table. Index is 1-based and
// matches the row's position in the table so the navigator can address its
// detail control.
type HistoryRow struct {
	Index        int
	Activity     string
	SubActivity  string
	Professional string
	DateTime     string
	HasDetail    bool
}

// HistoryClasses names the markup conventions of the history table.
type HistoryClasses struct {
	ListAttr     string
	RowAttr      string
	Column       string
	DetailButton string
	MinColumns   int
}

func DefaultHistoryClasses() HistoryClasses {
	return HistoryClasses{
		ListAttr:     "wire:sortable",
		RowAttr:      "wire:key",
		Column:       "filament-tables-text-column",
		DetailButton: "Vista",
		MinColumns:   4,
	}
}

// ParseHistoryRows reads the rows of the history table container. Rows with fewer
// than the minimum number of text columns are skipped.
func ParseHistoryRows(markup string) ([]HistoryRow, error) {
	return ParseHistoryRowsWith(markup, DefaultHistoryClasses())
}

func ParseHistoryRowsWith(markup string, classes HistoryClasses) ([]HistoryRow, error) {
	doc, err := parser.Fragment(markup)
	if err != nil {
		return nil, err
	}

	list := parser.FindFirst(doc, parser.WithAttr("div", classes.ListAttr))
	if list == nil {
		return []HistoryRow{}, nil
	}

	rows := []HistoryRow{}
	for i, row := range parser.Children(list, parser.WithAttr("div", classes.RowAttr)) {
		cols := parser.FindAll(row, parser.WithClass("div", classes.Column))
		if len(cols) < classes.MinColumns {
			continue
		}
		hr := HistoryRow{
			Index:        i + 1,
			Activity:     parser.CollapseSpace(parser.Text(cols[0], " ")),
			SubActivity:  parser.CollapseSpace(parser.Text(cols[1], " ")),
			Professional: parser.CollapseSpace(parser.Text(cols[2], " ")),
			DateTime:     parser.CollapseSpace(parser.Text(cols[3], " ")),
		}
		for _, btn := range parser.FindAll(row, parser.Element("button")) {
			if strings.Contains(parser.Text(btn, " "), classes.DetailButton) {
				hr.HasDetail = true
				break
			}
		}
		rows = append(rows, hr)
	}
	return rows, nil
}
