package pdf

import (
	"bytes"
	"context"
	"io"
)

// SettlementData is the print-ready settlement sheet of one period.
// Amounts arrive preformatted so the renderer stays layout-only.
type SettlementData struct {
	GroupName      string
	PeriodName     string
	GeneratedAt    string
	Currency       string
	TransportCost  string
	TransportShare string
	DistinctBuyers int

	Rows []SettlementRow

	TotalAmount       string
	TotalInferredPaid string
	GrandTotal        string
	Footer            string
}

// SettlementRow is one buyer's line on the sheet.
type SettlementRow struct {
	Buyer          string
	Orders         int
	Subtotal       string
	InferredPaid   string
	Outstanding    string
	TransportShare string
	Total          string
	Status         string
}

type Renderer interface {
	RenderSettlement(ctx context.Context, data SettlementData) (io.Reader, error)
}

type NoOpRenderer struct{}

func (r *NoOpRenderer) RenderSettlement(ctx context.Context, data SettlementData) (io.Reader, error) {
	return bytes.NewReader(nil), nil
}
