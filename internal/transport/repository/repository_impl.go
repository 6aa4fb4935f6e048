package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	transportdomain "github.com/samenkoop/winkel/internal/transport/domain"
)

type repo struct{}

func Provide() transportdomain.Repository {
	return &repo{}
}

func (r *repo) DistinctBuyerCount(ctx context.Context, db *gorm.DB, groupID, periodID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(DISTINCT o.buyer_id)
		 FROM orders o
		 JOIN order_lines l ON l.order_id = o.id
		 WHERE o.group_id = ? AND l.period_id = ? AND l.article_id IS NOT NULL`,
		groupID,
		periodID,
	).Scan(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
