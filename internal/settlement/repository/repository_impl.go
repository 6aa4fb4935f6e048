package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	settlementdomain "github.com/samenkoop/winkel/internal/settlement/domain"
)

type repo struct{}

func Provide() settlementdomain.Repository {
	return &repo{}
}

const qualifyingOrdersQuery = `
SELECT o.id AS order_id,
       o.buyer_id,
       o.total_amount,
       o.paid_amount,
       o.payment_status,
       SUM(l.total_price) AS period_subtotal
FROM orders o
JOIN order_lines l ON l.order_id = o.id
WHERE o.group_id = ? AND l.period_id = ? AND l.article_id IS NOT NULL`

const qualifyingOrdersGroupBy = `
GROUP BY o.id, o.buyer_id, o.total_amount, o.paid_amount, o.payment_status
ORDER BY o.id`

func (r *repo) QualifyingOrders(ctx context.Context, db *gorm.DB, groupID, periodID snowflake.ID) ([]settlementdomain.QualifyingOrder, error) {
	var rows []settlementdomain.QualifyingOrder
	err := db.WithContext(ctx).Raw(
		qualifyingOrdersQuery+qualifyingOrdersGroupBy,
		groupID,
		periodID,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) QualifyingOrdersByBuyer(ctx context.Context, db *gorm.DB, groupID, periodID, buyerID snowflake.ID) ([]settlementdomain.QualifyingOrder, error) {
	var rows []settlementdomain.QualifyingOrder
	err := db.WithContext(ctx).Raw(
		qualifyingOrdersQuery+` AND o.buyer_id = ?`+qualifyingOrdersGroupBy,
		groupID,
		periodID,
		buyerID,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
