// Package domain contains supply-period read models.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Period is a supplier-scoped ordering window with its own price list and an
// optional shared transport cost. A zero TransportCost means the supplier
// delivers for free (or buyers collect); only a positive cost is allocated.
type Period struct {
	ID               snowflake.ID    `json:"id" gorm:"primaryKey"`
	GroupID          snowflake.ID    `json:"group_id" gorm:"column:group_id;not null;index"`
	SupplierID       snowflake.ID    `json:"supplier_id" gorm:"column:supplier_id;not null;index"`
	Name             string          `json:"name" gorm:"type:text;not null"`
	StartsAt         time.Time       `json:"starts_at" gorm:"not null"`
	EndsAt           time.Time       `json:"ends_at" gorm:"not null"`
	DeliveryAt       *time.Time      `json:"delivery_at,omitempty" gorm:""`
	TransportCost    decimal.Decimal `json:"transport_cost" gorm:"type:numeric(12,2);not null;default:0"`
	TransportTaxRate decimal.Decimal `json:"transport_tax_rate" gorm:"type:numeric(5,2);not null;default:0"`
	CreatedAt        time.Time       `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt        time.Time       `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Period) TableName() string { return "periods" }

// PeriodArticle overrides an article's unit price within one period.
type PeriodArticle struct {
	ID        snowflake.ID    `json:"id" gorm:"primaryKey"`
	PeriodID  snowflake.ID    `json:"period_id" gorm:"column:period_id;not null;index"`
	ArticleID snowflake.ID    `json:"article_id" gorm:"column:article_id;not null;index"`
	UnitPrice decimal.Decimal `json:"unit_price" gorm:"type:numeric(12,2);not null"`
	CreatedAt time.Time       `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (PeriodArticle) TableName() string { return "period_articles" }
