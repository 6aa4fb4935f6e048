package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Repository is the read-side period contract used by ordering and settlement.
type Repository interface {
	FindPeriod(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Period, error)
	// UnitPriceOverride returns the period-specific unit price for an
	// article, or nil when the period offers it at the catalog price.
	UnitPriceOverride(ctx context.Context, db *gorm.DB, periodID, articleID snowflake.ID) (*decimal.Decimal, error)
}
