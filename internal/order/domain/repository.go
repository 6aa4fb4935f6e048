package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Repository persists orders, lines and option snapshots. All methods take
// the database handle explicitly so services can run them inside one
// transaction.
type Repository interface {
	InsertOrder(ctx context.Context, db *gorm.DB, o *Order) error
	InsertLine(ctx context.Context, db *gorm.DB, l *OrderLine) error
	InsertLineOption(ctx context.Context, db *gorm.DB, o *OrderLineOption) error

	FindOrder(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Order, error)
	FindLine(ctx context.Context, db *gorm.DB, orderID, lineID snowflake.ID) (*OrderLine, error)
	LinesByOrder(ctx context.Context, db *gorm.DB, orderID snowflake.ID) ([]OrderLine, error)
	OptionsByLines(ctx context.Context, db *gorm.DB, lineIDs []snowflake.ID) (map[snowflake.ID][]OrderLineOption, error)
	ListOrders(ctx context.Context, db *gorm.DB, groupID snowflake.ID, buyerID *snowflake.ID) ([]Order, error)

	UpdateLinePricing(ctx context.Context, db *gorm.DB, lineID snowflake.ID, quantity, totalPrice decimal.Decimal) error
	UpdateOrderPayment(ctx context.Context, db *gorm.DB, orderID snowflake.ID, total, paid decimal.Decimal, status PaymentStatus) error

	DeleteLineOptions(ctx context.Context, db *gorm.DB, lineID snowflake.ID) error
	DeleteLine(ctx context.Context, db *gorm.DB, lineID snowflake.ID) error
	DeleteOrder(ctx context.Context, db *gorm.DB, orderID snowflake.ID) error
}
