package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

type MarotoRenderer struct{}

func New() Renderer {
	return &MarotoRenderer{}
}

func (r *MarotoRenderer) RenderSettlement(ctx context.Context, data SettlementData) (io.Reader, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(12, "Settlement sheet", props.Text{
			Size:  18,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	m.AddRow(22,
		col.New(6).Add(
			text.New(data.GroupName, props.Text{Style: fontstyle.Bold}),
			text.New("Period: "+data.PeriodName, props.Text{Top: 5}),
			text.New("Generated: "+data.GeneratedAt, props.Text{Top: 10}),
		),
		col.New(6).Add(
			text.New(fmt.Sprintf("Transport cost: %s %s", data.Currency, data.TransportCost), props.Text{Align: align.Right}),
			text.New(fmt.Sprintf("Buyers: %d", data.DistinctBuyers), props.Text{Top: 5, Align: align.Right}),
			text.New(fmt.Sprintf("Share per buyer: %s %s", data.Currency, data.TransportShare), props.Text{Top: 10, Align: align.Right}),
		),
	)

	m.AddRow(8,
		text.NewCol(2, "Buyer", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(1, "Orders", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Subtotal", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Paid", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Outstanding", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(1, "Transport", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(1, "Total", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(1, "Status", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	for _, row := range data.Rows {
		m.AddRow(8,
			text.NewCol(2, row.Buyer, props.Text{Size: 9}),
			text.NewCol(1, fmt.Sprintf("%d", row.Orders), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, row.Subtotal, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, row.InferredPaid, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, row.Outstanding, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(1, row.TransportShare, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(1, row.Total, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(1, row.Status, props.Text{Size: 9, Align: align.Right}),
		)
	}

	m.AddRow(10,
		col.New(4),
		text.NewCol(4, "Total", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(4, fmt.Sprintf("%s %s / paid %s %s", data.Currency, data.TotalAmount, data.Currency, data.TotalInferredPaid), props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(10,
		col.New(4),
		text.NewCol(4, "Grand total incl. transport", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(4, fmt.Sprintf("%s %s", data.Currency, data.GrandTotal), props.Text{Size: 9, Align: align.Right}),
	)

	if data.Footer != "" {
		m.AddRow(12,
			text.NewCol(12, data.Footer, props.Text{Size: 8, Top: 4}),
		)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(doc.GetBytes()), nil
}
