// Package domain contains the order aggregate persistence models.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// PaymentStatus is the order-level payment state. It deliberately has no
// PARTIAL value; partially settled orders stay UNPAID and carry their
// progress in PaidAmount. The simple-sale flow has its own, richer machine.
type PaymentStatus string

const (
	PaymentStatusUnpaid PaymentStatus = "UNPAID"
	PaymentStatusPaid   PaymentStatus = "PAID"
)

// StatusFor derives the payment status from amounts: PAID exactly when the
// paid amount covers a positive total.
func StatusFor(paid, total decimal.Decimal) PaymentStatus {
	if total.IsPositive() && paid.GreaterThanOrEqual(total) {
		return PaymentStatusPaid
	}
	return PaymentStatusUnpaid
}

// Order is one buyer's purchase within one consumer group. TotalAmount is
// the tax-inclusive sum of its surviving lines and never includes the
// transport share, which is derived at read time.
type Order struct {
	ID            snowflake.ID    `json:"id" gorm:"primaryKey"`
	GroupID       snowflake.ID    `json:"group_id" gorm:"column:group_id;not null;index"`
	BuyerID       snowflake.ID    `json:"buyer_id" gorm:"column:buyer_id;not null;index"`
	TotalAmount   decimal.Decimal `json:"total_amount" gorm:"type:numeric(12,2);not null;default:0"`
	PaidAmount    decimal.Decimal `json:"paid_amount" gorm:"type:numeric(12,2);not null;default:0"`
	PaymentStatus PaymentStatus   `json:"payment_status" gorm:"type:text;not null;default:'UNPAID'"`
	Delivered     bool            `json:"delivered" gorm:"not null;default:false"`
	CreatedAt     time.Time       `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt     time.Time       `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Order) TableName() string { return "orders" }

// OrderLine is one priced article selection inside an order. ArticleID goes
// null when the article is retired from the catalog; the line is then kept
// for history but excluded from every financial aggregation.
type OrderLine struct {
	ID          snowflake.ID    `json:"id" gorm:"primaryKey"`
	OrderID     snowflake.ID    `json:"order_id" gorm:"column:order_id;not null;index"`
	ArticleID   *snowflake.ID   `json:"article_id,omitempty" gorm:"column:article_id;index"`
	PeriodID    *snowflake.ID   `json:"period_id,omitempty" gorm:"column:period_id;index"`
	ArticleName string          `json:"article_name" gorm:"type:text;not null"`
	Quantity    decimal.Decimal `json:"quantity" gorm:"type:numeric(12,3);not null"`
	UnitPrice   decimal.Decimal `json:"unit_price" gorm:"type:numeric(12,2);not null"`
	TaxRate     decimal.Decimal `json:"tax_rate" gorm:"type:numeric(5,2);not null;default:0"`
	TotalPrice  decimal.Decimal `json:"total_price" gorm:"type:numeric(12,2);not null"`
	CreatedAt   time.Time       `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time       `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (OrderLine) TableName() string { return "order_lines" }

// Surviving reports whether the line still references a catalog article and
// therefore participates in totals and transport allocation.
func (l OrderLine) Surviving() bool {
	return l.ArticleID != nil
}

// OrderLineOption snapshots one selected article option at purchase time.
type OrderLineOption struct {
	ID          snowflake.ID    `json:"id" gorm:"primaryKey"`
	OrderLineID snowflake.ID    `json:"order_line_id" gorm:"column:order_line_id;not null;index"`
	OptionID    *snowflake.ID   `json:"option_id,omitempty" gorm:"column:option_id"`
	Name        string          `json:"name" gorm:"type:text;not null"`
	PriceDelta  decimal.Decimal `json:"price_delta" gorm:"type:numeric(12,2);not null;default:0"`
	CreatedAt   time.Time       `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (OrderLineOption) TableName() string { return "order_line_options" }
