package export

import (
	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// pdfColumns is the subset of Columns that fits a landscape page, with grid widths summing to 12.
var pdfColumns = []struct {
	key   string
	width int
}{
	{"contract_name", 3},
	{"period", 1},
	{"status", 2},
	{"predicted_amount", 2},
	{"billed_amount", 2},
	{"utilization_rate", 1},
	{"total_indirect_costs", 1},
}

type Document struct {
	Title     string
	Generated string
	Table     Table
	Totals    []string
}

func RenderPDF(doc Document) ([]byte, error) {
	cfg := config.NewBuilder().
		WithOrientation(orientation.Horizontal).
		WithPageNumber(props.PageNumber{
			Pattern: "Página {current} de {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(12, doc.Title, props.Text{
			Size:  16,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)
	m.AddRow(8,
		text.NewCol(12, doc.Generated, props.Text{Size: 8}),
	)

	index := columnIndex(doc.Table.Columns)

	header := make([]core.Col, 0, len(pdfColumns))
	for _, c := range pdfColumns {
		header = append(header, text.NewCol(c.width, headerOf(doc.Table.Columns, index, c.key), props.Text{
			Style: fontstyle.Bold,
			Size:  8,
			Align: alignFor(c.key),
		}))
	}
	m.AddRow(8, header...)

	for _, row := range doc.Table.Rows {
		cols := make([]core.Col, 0, len(pdfColumns))
		for _, c := range pdfColumns {
			value := ""
			if i, ok := index[c.key]; ok && i < len(row) {
				value = row[i]
			}
			cols = append(cols, text.NewCol(c.width, value, props.Text{Size: 8, Align: alignFor(c.key)}))
		}
		m.AddRow(7, cols...)
	}

	for _, line := range doc.Totals {
		m.AddRow(7, text.NewCol(12, line, props.Text{Size: 9, Style: fontstyle.Bold, Top: 2}))
	}

	out, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return out.GetBytes(), nil
}

func columnIndex(columns []Column) map[string]int {
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		index[c.Key] = i
	}
	return index
}

func headerOf(columns []Column, index map[string]int, key string) string {
	if i, ok := index[key]; ok {
		return columns[i].Header
	}
	return key
}

func alignFor(key string) align.Type {
	switch key {
	case "contract_name", "period", "status":
		return align.Left
	default:
		return align.Right
	}
}
