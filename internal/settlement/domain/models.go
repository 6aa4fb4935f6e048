// Package domain defines the period settlement read models. The settlement
// sheet is derived on demand from orders and lines; nothing here is stored.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/samenkoop/winkel/internal/money"
	orderdomain "github.com/samenkoop/winkel/internal/order/domain"
)

// QualifyingOrder is an order with at least one surviving line in the
// period. PeriodSubtotal is the sum of those lines only; the other amounts
// are order-wide.
type QualifyingOrder struct {
	OrderID        snowflake.ID              `gorm:"column:order_id"`
	BuyerID        snowflake.ID              `gorm:"column:buyer_id"`
	TotalAmount    decimal.Decimal           `gorm:"column:total_amount"`
	PaidAmount     decimal.Decimal           `gorm:"column:paid_amount"`
	PaymentStatus  orderdomain.PaymentStatus `gorm:"column:payment_status"`
	PeriodSubtotal decimal.Decimal           `gorm:"column:period_subtotal"`
}

// BuyerRow is one buyer's line on the settlement sheet. InferredPaid is the
// period's slice of what the buyer paid across their qualifying orders,
// scaled by each order's paid fraction. TransportShare is informational and
// never part of Subtotal; Total is what the buyer actually owes, subtotal
// plus their transport share.
type BuyerRow struct {
	BuyerID        snowflake.ID              `json:"buyer_id"`
	DisplayName    string                    `json:"display_name"`
	Email          string                    `json:"email,omitempty"`
	OrderCount     int                       `json:"order_count"`
	Subtotal       money.Amount              `json:"subtotal"`
	InferredPaid   money.Amount              `json:"inferred_paid"`
	Outstanding    money.Amount              `json:"outstanding"`
	TransportShare money.Amount              `json:"transport_share"`
	Total          money.Amount              `json:"total"`
	Status         orderdomain.PaymentStatus `json:"status"`
}

// Summary is the full settlement sheet for one period. GrandTotal is the sum
// of all buyers' subtotals plus the period's raw transport cost, undivided.
type Summary struct {
	PeriodID          snowflake.ID `json:"period_id"`
	GroupID           snowflake.ID `json:"group_id"`
	PeriodName        string       `json:"period_name"`
	TransportCost     money.Amount `json:"transport_cost"`
	DistinctBuyers    int          `json:"distinct_buyers"`
	TransportShare    money.Amount `json:"transport_share"`
	TotalAmount       money.Amount `json:"total_amount"`
	TotalInferredPaid money.Amount `json:"total_inferred_paid"`
	GrandTotal        money.Amount `json:"grand_total"`
	Buyers            []BuyerRow   `json:"buyers"`
	GeneratedAt       time.Time    `json:"generated_at"`
}

// Service builds settlement sheets and flips buyers between paid and
// unpaid. MarkPaid settles each qualifying order in full, even when the
// order also carries lines from other periods; MarkUnpaid only takes back
// the period's inferred slice. The asymmetry is intentional: a treasurer
// collecting cash settles whole orders, while a correction should not undo
// payments that belong to other periods.
type Service interface {
	Summary(ctx context.Context, groupID, periodID string) (*Summary, error)
	SummaryPDF(ctx context.Context, groupID, periodID string) ([]byte, error)
	MarkPaid(ctx context.Context, groupID, periodID, buyerID string) (*Summary, error)
	MarkUnpaid(ctx context.Context, groupID, periodID, buyerID string) (*Summary, error)
}

// Repository reads the qualifying orders behind a settlement sheet.
type Repository interface {
	QualifyingOrders(ctx context.Context, db *gorm.DB, groupID, periodID snowflake.ID) ([]QualifyingOrder, error)
	QualifyingOrdersByBuyer(ctx context.Context, db *gorm.DB, groupID, periodID, buyerID snowflake.ID) ([]QualifyingOrder, error)
}

var (
	ErrInvalidID       = errors.New("invalid_id")
	ErrPeriodNotFound  = errors.New("period_not_found")
	ErrBuyerNotFound   = errors.New("buyer_not_found")
	ErrNothingToSettle = errors.New("nothing_to_settle")
)
