package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	catalogdomain "github.com/samenkoop/winkel/internal/catalog/domain"
)

type repo struct{}

func Provide() catalogdomain.Repository {
	return &repo{}
}

func (r *repo) FindArticle(ctx context.Context, db *gorm.DB, id snowflake.ID) (*catalogdomain.Article, error) {
	var a catalogdomain.Article
	err := db.WithContext(ctx).Raw(
		`SELECT id, group_id, supplier_id, name, slug, unit, unit_price, tax_rate,
		 visible, metadata, created_at, updated_at
		 FROM articles WHERE id = ?`,
		id,
	).Scan(&a).Error
	if err != nil {
		return nil, err
	}
	if a.ID == 0 {
		return nil, nil
	}
	return &a, nil
}

func (r *repo) OptionsByArticle(ctx context.Context, db *gorm.DB, articleID snowflake.ID) ([]catalogdomain.ArticleOption, error) {
	var options []catalogdomain.ArticleOption
	err := db.WithContext(ctx).Raw(
		`SELECT id, article_id, name, required, price_delta, created_at
		 FROM article_options WHERE article_id = ? ORDER BY created_at ASC`,
		articleID,
	).Scan(&options).Error
	if err != nil {
		return nil, err
	}
	return options, nil
}
