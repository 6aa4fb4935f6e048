// Package domain contains the simple-sale models. A simple sale is a direct,
// over-the-counter sale outside any ordering period, with payments tracked
// per line.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/samenkoop/winkel/internal/money"
)

// Status is the simple-sale payment state. Unlike orders, a sale passes
// through PARTIAL while individual lines get paid off.
type Status string

const (
	StatusUnpaid  Status = "UNPAID"
	StatusPartial Status = "PARTIAL"
	StatusPaid    Status = "PAID"
)

// StatusFor derives a payment state from amounts.
func StatusFor(paid, total decimal.Decimal) Status {
	switch {
	case total.IsPositive() && paid.GreaterThanOrEqual(total):
		return StatusPaid
	case paid.IsPositive():
		return StatusPartial
	default:
		return StatusUnpaid
	}
}

// Sale is one direct sale with a human-readable receipt number.
type Sale struct {
	ID          snowflake.ID    `json:"id" gorm:"primaryKey"`
	GroupID     snowflake.ID    `json:"group_id" gorm:"column:group_id;not null;index"`
	SellerID    snowflake.ID    `json:"seller_id" gorm:"column:seller_id;not null;index"`
	ReceiptNo   string          `json:"receipt_no" gorm:"type:text;not null;uniqueIndex"`
	TotalAmount decimal.Decimal `json:"total_amount" gorm:"type:numeric(12,2);not null;default:0"`
	PaidAmount  decimal.Decimal `json:"paid_amount" gorm:"type:numeric(12,2);not null;default:0"`
	Status      Status          `json:"status" gorm:"type:text;not null;default:'UNPAID'"`
	CreatedAt   time.Time       `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time       `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Sale) TableName() string { return "sales" }

// SaleLine carries its own paid amount so a buyer can settle line by line.
type SaleLine struct {
	ID          snowflake.ID    `json:"id" gorm:"primaryKey"`
	SaleID      snowflake.ID    `json:"sale_id" gorm:"column:sale_id;not null;index"`
	ArticleID   *snowflake.ID   `json:"article_id,omitempty" gorm:"column:article_id;index"`
	ArticleName string          `json:"article_name" gorm:"type:text;not null"`
	Quantity    decimal.Decimal `json:"quantity" gorm:"type:numeric(12,3);not null"`
	UnitPrice   decimal.Decimal `json:"unit_price" gorm:"type:numeric(12,2);not null"`
	TaxRate     decimal.Decimal `json:"tax_rate" gorm:"type:numeric(5,2);not null;default:0"`
	TotalPrice  decimal.Decimal `json:"total_price" gorm:"type:numeric(12,2);not null"`
	PaidAmount  decimal.Decimal `json:"paid_amount" gorm:"type:numeric(12,2);not null;default:0"`
	Status      Status          `json:"status" gorm:"type:text;not null;default:'UNPAID'"`
	CreatedAt   time.Time       `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time       `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (SaleLine) TableName() string { return "sale_lines" }

// LineRequest is one requested sale line.
type LineRequest struct {
	ArticleID string          `json:"article_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// CreateRequest creates a sale with at least one line.
type CreateRequest struct {
	GroupID  string        `json:"group_id"`
	SellerID string        `json:"seller_id"`
	Lines    []LineRequest `json:"lines"`
}

// PayRequest records a payment against one line.
type PayRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// LineResponse is one sale line as returned to callers.
type LineResponse struct {
	ID          snowflake.ID    `json:"id"`
	ArticleID   *snowflake.ID   `json:"article_id,omitempty"`
	ArticleName string          `json:"article_name"`
	Quantity    money.Quantity  `json:"quantity"`
	UnitPrice   money.Amount    `json:"unit_price"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	TotalPrice  money.Amount    `json:"total_price"`
	PaidAmount  money.Amount    `json:"paid_amount"`
	Status      Status          `json:"status"`
}

// Response is a fully shaped sale.
type Response struct {
	ID          snowflake.ID   `json:"id"`
	GroupID     snowflake.ID   `json:"group_id"`
	SellerID    snowflake.ID   `json:"seller_id"`
	ReceiptNo   string         `json:"receipt_no"`
	TotalAmount money.Amount   `json:"total_amount"`
	PaidAmount  money.Amount   `json:"paid_amount"`
	Status      Status         `json:"status"`
	Lines       []LineResponse `json:"lines"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Service owns the simple-sale flow.
type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	// PayLine books a payment on one line. Paying more than the line's
	// remainder is rejected.
	PayLine(ctx context.Context, saleID, lineID string, req PayRequest) (*Response, error)
}

// Repository persists sales and their lines.
type Repository interface {
	InsertSale(ctx context.Context, db *gorm.DB, s *Sale) error
	InsertLine(ctx context.Context, db *gorm.DB, l *SaleLine) error
	FindSale(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Sale, error)
	FindLine(ctx context.Context, db *gorm.DB, saleID, lineID snowflake.ID) (*SaleLine, error)
	LinesBySale(ctx context.Context, db *gorm.DB, saleID snowflake.ID) ([]SaleLine, error)
	UpdateLinePayment(ctx context.Context, db *gorm.DB, lineID snowflake.ID, paid decimal.Decimal, status Status) error
	UpdateSalePayment(ctx context.Context, db *gorm.DB, saleID snowflake.ID, total, paid decimal.Decimal, status Status) error
}

var (
	ErrInvalidGroup       = errors.New("invalid_group")
	ErrInvalidSeller      = errors.New("invalid_seller")
	ErrInvalidID          = errors.New("invalid_id")
	ErrInvalidQuantity    = errors.New("invalid_quantity")
	ErrInvalidAmount      = errors.New("invalid_amount")
	ErrNoLines            = errors.New("no_lines")
	ErrArticleUnavailable = errors.New("article_unavailable")
	ErrSaleNotFound       = errors.New("sale_not_found")
	ErrLineNotFound       = errors.New("line_not_found")
	ErrOverpayment        = errors.New("overpayment")
)
