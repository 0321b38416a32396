package assembler

import (
	"strings"

	"github.com/synaptica-ai/chart-extractor/pkg/common/models"
	"github.com/synaptica-ai/chart-extractor/pkg/parser"
	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

// PlanClasses names the markup conventions of the management-plan tab.
type PlanClasses struct {
	Container          string
	Heading            string
	Table              string
	Row                string
	Cell               string
	OrdersHeading      string
	PrescriptionsTitle string
	MinOrderCells      int
	MinFormulaCells    int
}

func DefaultPlanClasses() PlanClasses {
	return PlanClasses{
		Container:          "filament-tables-container",
		Heading:            "filament-tables-header-heading",
		Table:              "filament-tables-table",
		Row:                "filament-tables-row",
		Cell:               "filament-tables-cell",
		OrdersHeading:      "Ordenes De Servicio",
		PrescriptionsTitle: "Fórmulas Médicas",
		MinOrderCells:      7,
		MinFormulaCells:    3,
	}
}

// ParsePlan reads service orders and prescriptions from the plan tab markup.
// Tables whose heading matches neither known title are ignored.
func ParsePlan(markup string) (models.Plan, error) {
	return ParsePlanWith(markup, DefaultPlanClasses())
}

func ParsePlanWith(markup string, classes PlanClasses) (models.Plan, error) {
	plan := models.Plan{Orders: []models.Order{}, Prescriptions: []models.Prescription{}}

	doc, err := parser.Fragment(markup)
	if err != nil {
		return plan, err
	}

	for _, container := range parser.FindAll(doc, parser.WithClass("div", classes.Container)) {
		heading := parser.FindFirst(container, parser.WithClass("h2", classes.Heading))
		if heading == nil {
			continue
		}
		title := norm.NFC.String(parser.CollapseSpace(parser.Text(heading, " ")))
		table := parser.FindFirst(container, parser.WithClass("table", classes.Table))
		if table == nil {
			continue
		}

		switch {
		case strings.Contains(title, classes.OrdersHeading):
			for _, cells := range rowCells(table, classes) {
				if len(cells) < classes.MinOrderCells {
					continue
				}
				plan.Orders = append(plan.Orders, models.Order{
					Date:        cellText(cells[0]),
					Code:        cellText(cells[1]),
					Service:     cellText(cells[2]),
					Status:      cellText(cells[3]),
					Provider:    cellText(cells[4]),
					ActiveFrom:  cellText(cells[5]),
					ActiveUntil: cellText(cells[6]),
				})
			}
		case strings.Contains(title, norm.NFC.String(classes.PrescriptionsTitle)):
			for _, cells := range rowCells(table, classes) {
				if len(cells) < classes.MinFormulaCells {
					continue
				}
				date := cellText(cells[0])
				status := cellText(cells[2])
				for _, line := range medicationLines(cells[1]) {
					plan.Prescriptions = append(plan.Prescriptions, models.Prescription{
						Date:       date,
						Medication: line[0],
						Quantity:   line[1],
						Status:     status,
					})
				}
			}
		}
	}
	return plan, nil
}

// rowCells returns the cells of each body row belonging to table itself, not to
// tables nested inside its cells.
func rowCells(table *html.Node, classes PlanClasses) [][]*html.Node {
	body := parser.FindFirst(table, parser.Element("tbody"))
	if body == nil {
		return nil
	}
	var out [][]*html.Node
	for _, row := range parser.Children(body, parser.WithClass("tr", classes.Row)) {
		out = append(out, parser.Children(row, parser.WithClass("td", classes.Cell)))
	}
	return out
}

// medicationLines reads the nested sub-table of a formula cell; each two-cell row
// is one medication and its quantity.
func medicationLines(cell *html.Node) [][2]string {
	sub := parser.FindFirst(cell, parser.Element("table"))
	if sub == nil {
		return nil
	}
	var out [][2]string
	for _, tr := range parser.FindAll(sub, parser.Element("tr")) {
		tds := parser.Children(tr, parser.Element("td"))
		if len(tds) != 2 {
			continue
		}
		name := cellText(tds[0])
		if name == "" {
			continue
		}
		out = append(out, [2]string{name, cellText(tds[1])})
	}
	return out
}

func cellText(n *html.Node) string {
	return parser.CollapseSpace(parser.Text(n, " "))
}

// ParseDisplayName reads the patient header and strips the edit prefix.
func ParseDisplayName(markup, identifier string) string {
	const notFound = "No encontrado"
	doc, err := parser.Fragment(markup)
	if err != nil {
		return notFound
	}
	heading := parser.FindFirst(doc, parser.WithClass("h1", "filament-header-heading"))
	if heading == nil {
		return notFound
	}
	name := parser.CollapseSpace(parser.Text(heading, " "))
	name = strings.TrimSpace(strings.Replace(name, "Editar CC-"+identifier, "", 1))
	if name == "" {
		return notFound
	}
	return name
}
