package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	perioddomain "github.com/samenkoop/winkel/internal/period/domain"
)

type repo struct{}

func Provide() perioddomain.Repository {
	return &repo{}
}

func (r *repo) FindPeriod(ctx context.Context, db *gorm.DB, id snowflake.ID) (*perioddomain.Period, error) {
	var p perioddomain.Period
	err := db.WithContext(ctx).Raw(
		`SELECT id, group_id, supplier_id, name, starts_at, ends_at, delivery_at,
		 transport_cost, transport_tax_rate, created_at, updated_at
		 FROM periods WHERE id = ?`,
		id,
	).Scan(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, nil
	}
	return &p, nil
}

func (r *repo) UnitPriceOverride(ctx context.Context, db *gorm.DB, periodID, articleID snowflake.ID) (*decimal.Decimal, error) {
	var row perioddomain.PeriodArticle
	err := db.WithContext(ctx).Raw(
		`SELECT id, period_id, article_id, unit_price, created_at
		 FROM period_articles WHERE period_id = ? AND article_id = ?`,
		periodID,
		articleID,
	).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == 0 {
		return nil, nil
	}
	price := row.UnitPrice
	return &price, nil
}
