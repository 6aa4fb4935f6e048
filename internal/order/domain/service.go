package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"

	"github.com/samenkoop/winkel/internal/money"
)

// Service owns the order aggregate: creation, line edits and deletes keep
// total, paid amount and payment status mutually consistent.
type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	List(ctx context.Context, q ListQuery) ([]Response, error)
	// UpdateLine reprices one line and rescales the order's paid amount so
	// the paid fraction survives the edit.
	UpdateLine(ctx context.Context, orderID, lineID string, req UpdateLineRequest) (*Response, error)
	// DeleteLine removes one line; removing the last line deletes the whole
	// order, in which case the returned response is nil.
	DeleteLine(ctx context.Context, orderID, lineID string) (*Response, error)
}

// LineRequest is one requested purchase line.
type LineRequest struct {
	ArticleID string          `json:"article_id"`
	PeriodID  *string         `json:"period_id,omitempty"`
	Quantity  decimal.Decimal `json:"quantity"`
	OptionIDs []string        `json:"option_ids,omitempty"`
}

// CreateRequest creates an order with at least one line.
type CreateRequest struct {
	GroupID string        `json:"group_id"`
	BuyerID string        `json:"buyer_id"`
	Lines   []LineRequest `json:"lines"`
}

// UpdateLineRequest edits quantity and/or the selected options of a line.
// Nil fields are left unchanged.
type UpdateLineRequest struct {
	Quantity  *decimal.Decimal `json:"quantity,omitempty"`
	OptionIDs *[]string        `json:"option_ids,omitempty"`
}

// ListQuery narrows the order listing. BuyerID is optional.
type ListQuery struct {
	GroupID string
	BuyerID string
}

// OptionResponse is a selected option snapshot.
type OptionResponse struct {
	ID         snowflake.ID  `json:"id"`
	OptionID   *snowflake.ID `json:"option_id,omitempty"`
	Name       string        `json:"name"`
	PriceDelta money.Amount  `json:"price_delta"`
}

// LineResponse is one order line as returned to callers.
type LineResponse struct {
	ID          snowflake.ID     `json:"id"`
	ArticleID   *snowflake.ID    `json:"article_id,omitempty"`
	PeriodID    *snowflake.ID    `json:"period_id,omitempty"`
	ArticleName string           `json:"article_name"`
	Quantity    money.Quantity   `json:"quantity"`
	UnitPrice   money.Amount     `json:"unit_price"`
	TaxRate     decimal.Decimal  `json:"tax_rate"`
	TotalPrice  money.Amount     `json:"total_price"`
	Options     []OptionResponse `json:"options,omitempty"`
}

// Response is a fully shaped order. TransportCost is the derived share of
// the shared transport costs of the periods this order touches; it is shown
// to the buyer but never part of TotalAmount.
type Response struct {
	ID            snowflake.ID   `json:"id"`
	GroupID       snowflake.ID   `json:"group_id"`
	BuyerID       snowflake.ID   `json:"buyer_id"`
	TotalAmount   money.Amount   `json:"total_amount"`
	PaidAmount    money.Amount   `json:"paid_amount"`
	PaymentStatus PaymentStatus  `json:"payment_status"`
	Delivered     bool           `json:"delivered"`
	TransportCost money.Amount   `json:"transport_cost"`
	Lines         []LineResponse `json:"lines"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

var (
	ErrInvalidGroup          = errors.New("invalid_group")
	ErrInvalidBuyer          = errors.New("invalid_buyer")
	ErrInvalidID             = errors.New("invalid_id")
	ErrInvalidQuantity       = errors.New("invalid_quantity")
	ErrNoLines               = errors.New("no_lines")
	ErrArticleUnavailable    = errors.New("article_unavailable")
	ErrArticleWrongGroup     = errors.New("article_wrong_group")
	ErrInvalidOption         = errors.New("invalid_option")
	ErrMissingRequiredOption = errors.New("missing_required_option")
	ErrPeriodNotFound        = errors.New("period_not_found")
	ErrOrderNotFound         = errors.New("order_not_found")
	ErrLineNotFound          = errors.New("line_not_found")
)
