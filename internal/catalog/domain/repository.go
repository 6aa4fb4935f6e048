package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository is the read-side catalog contract used by order pricing.
type Repository interface {
	FindArticle(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Article, error)
	OptionsByArticle(ctx context.Context, db *gorm.DB, articleID snowflake.ID) ([]ArticleOption, error)
}
