package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	orderdomain "github.com/samenkoop/winkel/internal/order/domain"
)

type repo struct{}

func Provide() orderdomain.Repository {
	return &repo{}
}

func (r *repo) InsertOrder(ctx context.Context, db *gorm.DB, o *orderdomain.Order) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO orders (
			id, group_id, buyer_id, total_amount, paid_amount, payment_status,
			delivered, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID,
		o.GroupID,
		o.BuyerID,
		o.TotalAmount,
		o.PaidAmount,
		o.PaymentStatus,
		o.Delivered,
		o.CreatedAt,
		o.UpdatedAt,
	).Error
}

func (r *repo) InsertLine(ctx context.Context, db *gorm.DB, l *orderdomain.OrderLine) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO order_lines (
			id, order_id, article_id, period_id, article_name, quantity,
			unit_price, tax_rate, total_price, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID,
		l.OrderID,
		l.ArticleID,
		l.PeriodID,
		l.ArticleName,
		l.Quantity,
		l.UnitPrice,
		l.TaxRate,
		l.TotalPrice,
		l.CreatedAt,
		l.UpdatedAt,
	).Error
}

func (r *repo) InsertLineOption(ctx context.Context, db *gorm.DB, o *orderdomain.OrderLineOption) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO order_line_options (
			id, order_line_id, option_id, name, price_delta, created_at
		) VALUES (?, ?, ?, ?, ?, ?)`,
		o.ID,
		o.OrderLineID,
		o.OptionID,
		o.Name,
		o.PriceDelta,
		o.CreatedAt,
	).Error
}

func (r *repo) FindOrder(ctx context.Context, db *gorm.DB, id snowflake.ID) (*orderdomain.Order, error) {
	var o orderdomain.Order
	err := db.WithContext(ctx).Raw(
		`SELECT id, group_id, buyer_id, total_amount, paid_amount, payment_status,
		 delivered, created_at, updated_at
		 FROM orders WHERE id = ?`,
		id,
	).Scan(&o).Error
	if err != nil {
		return nil, err
	}
	if o.ID == 0 {
		return nil, nil
	}
	return &o, nil
}

func (r *repo) FindLine(ctx context.Context, db *gorm.DB, orderID, lineID snowflake.ID) (*orderdomain.OrderLine, error) {
	var l orderdomain.OrderLine
	err := db.WithContext(ctx).Raw(
		`SELECT id, order_id, article_id, period_id, article_name, quantity,
		 unit_price, tax_rate, total_price, created_at, updated_at
		 FROM order_lines WHERE order_id = ? AND id = ?`,
		orderID,
		lineID,
	).Scan(&l).Error
	if err != nil {
		return nil, err
	}
	if l.ID == 0 {
		return nil, nil
	}
	return &l, nil
}

func (r *repo) LinesByOrder(ctx context.Context, db *gorm.DB, orderID snowflake.ID) ([]orderdomain.OrderLine, error) {
	var lines []orderdomain.OrderLine
	err := db.WithContext(ctx).Raw(
		`SELECT id, order_id, article_id, period_id, article_name, quantity,
		 unit_price, tax_rate, total_price, created_at, updated_at
		 FROM order_lines WHERE order_id = ? ORDER BY created_at ASC, id ASC`,
		orderID,
	).Scan(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *repo) OptionsByLines(ctx context.Context, db *gorm.DB, lineIDs []snowflake.ID) (map[snowflake.ID][]orderdomain.OrderLineOption, error) {
	out := make(map[snowflake.ID][]orderdomain.OrderLineOption, len(lineIDs))
	if len(lineIDs) == 0 {
		return out, nil
	}

	var options []orderdomain.OrderLineOption
	err := db.WithContext(ctx).Raw(
		`SELECT id, order_line_id, option_id, name, price_delta, created_at
		 FROM order_line_options WHERE order_line_id IN ? ORDER BY created_at ASC, id ASC`,
		lineIDs,
	).Scan(&options).Error
	if err != nil {
		return nil, err
	}
	for _, opt := range options {
		out[opt.OrderLineID] = append(out[opt.OrderLineID], opt)
	}
	return out, nil
}

func (r *repo) ListOrders(ctx context.Context, db *gorm.DB, groupID snowflake.ID, buyerID *snowflake.ID) ([]orderdomain.Order, error) {
	query := `SELECT id, group_id, buyer_id, total_amount, paid_amount, payment_status,
	 delivered, created_at, updated_at
	 FROM orders WHERE group_id = ?`
	args := []interface{}{groupID}
	if buyerID != nil {
		query += ` AND buyer_id = ?`
		args = append(args, *buyerID)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	var orders []orderdomain.Order
	err := db.WithContext(ctx).Raw(query, args...).Scan(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repo) UpdateLinePricing(ctx context.Context, db *gorm.DB, lineID snowflake.ID, quantity, totalPrice decimal.Decimal) error {
	return db.WithContext(ctx).Exec(
		`UPDATE order_lines SET quantity = ?, total_price = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		quantity,
		totalPrice,
		lineID,
	).Error
}

func (r *repo) UpdateOrderPayment(ctx context.Context, db *gorm.DB, orderID snowflake.ID, total, paid decimal.Decimal, status orderdomain.PaymentStatus) error {
	return db.WithContext(ctx).Exec(
		`UPDATE orders SET total_amount = ?, paid_amount = ?, payment_status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		total,
		paid,
		status,
		orderID,
	).Error
}

func (r *repo) DeleteLineOptions(ctx context.Context, db *gorm.DB, lineID snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`DELETE FROM order_line_options WHERE order_line_id = ?`,
		lineID,
	).Error
}

func (r *repo) DeleteLine(ctx context.Context, db *gorm.DB, lineID snowflake.ID) error {
	if err := r.DeleteLineOptions(ctx, db, lineID); err != nil {
		return err
	}
	return db.WithContext(ctx).Exec(
		`DELETE FROM order_lines WHERE id = ?`,
		lineID,
	).Error
}

func (r *repo) DeleteOrder(ctx context.Context, db *gorm.DB, orderID snowflake.ID) error {
	if err := db.WithContext(ctx).Exec(
		`DELETE FROM order_line_options WHERE order_line_id IN (
			SELECT id FROM order_lines WHERE order_id = ?
		)`,
		orderID,
	).Error; err != nil {
		return err
	}
	if err := db.WithContext(ctx).Exec(
		`DELETE FROM order_lines WHERE order_id = ?`,
		orderID,
	).Error; err != nil {
		return err
	}
	return db.WithContext(ctx).Exec(
		`DELETE FROM orders WHERE id = ?`,
		orderID,
	).Error
}
