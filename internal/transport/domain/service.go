package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	orderdomain "github.com/samenkoop/winkel/internal/order/domain"
)

// Service computes transport cost shares. A period's transport cost is split
// evenly across the group's distinct buyers in that period, and the share is
// derived on every read. It is presented alongside an order or settlement
// row but never folded into stored amounts.
type Service interface {
	// BuyerShare is one buyer's slice of the period's transport cost.
	// Zero when the period has no cost or no buyers yet.
	BuyerShare(ctx context.Context, groupID, periodID snowflake.ID) (decimal.Decimal, error)
	// OrderShare sums BuyerShare over the distinct periods the given
	// surviving lines touch.
	OrderShare(ctx context.Context, groupID snowflake.ID, lines []orderdomain.OrderLine) (decimal.Decimal, error)
}

// Repository answers the distinct-buyer question behind the split.
type Repository interface {
	// DistinctBuyerCount counts buyers with at least one surviving line in
	// the period, group wide.
	DistinctBuyerCount(ctx context.Context, db *gorm.DB, groupID, periodID snowflake.ID) (int64, error)
}
