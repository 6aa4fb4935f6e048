// Package domain contains the catalog read models consumed by ordering.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Article is one purchasable catalog line within a consumer group.
type Article struct {
	ID         snowflake.ID      `json:"id" gorm:"primaryKey"`
	GroupID    snowflake.ID      `json:"group_id" gorm:"column:group_id;not null;index"`
	SupplierID *snowflake.ID     `json:"supplier_id,omitempty" gorm:"column:supplier_id;index"`
	Name       string            `json:"name" gorm:"type:text;not null"`
	Slug       string            `json:"slug" gorm:"type:text;not null"`
	Unit       string            `json:"unit" gorm:"type:text;not null;default:'piece'"`
	UnitPrice  decimal.Decimal   `json:"unit_price" gorm:"type:numeric(12,2);not null"`
	TaxRate    decimal.Decimal   `json:"tax_rate" gorm:"type:numeric(5,2);not null;default:0"`
	Visible    bool              `json:"visible" gorm:"not null;default:true"`
	Metadata   datatypes.JSONMap `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt  time.Time         `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt  time.Time         `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Article) TableName() string { return "articles" }

// ArticleOption is a customization an article offers, optionally carrying a
// per-unit surcharge.
type ArticleOption struct {
	ID         snowflake.ID    `json:"id" gorm:"primaryKey"`
	ArticleID  snowflake.ID    `json:"article_id" gorm:"column:article_id;not null;index"`
	Name       string          `json:"name" gorm:"type:text;not null"`
	Required   bool            `json:"required" gorm:"not null;default:false"`
	PriceDelta decimal.Decimal `json:"price_delta" gorm:"type:numeric(12,2);not null;default:0"`
	CreatedAt  time.Time       `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (ArticleOption) TableName() string { return "article_options" }
