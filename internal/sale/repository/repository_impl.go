package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	saledomain "github.com/samenkoop/winkel/internal/sale/domain"
)

type repo struct{}

func Provide() saledomain.Repository {
	return &repo{}
}

func (r *repo) InsertSale(ctx context.Context, db *gorm.DB, s *saledomain.Sale) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO sales (
			id, group_id, seller_id, receipt_no, total_amount, paid_amount,
			status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID,
		s.GroupID,
		s.SellerID,
		s.ReceiptNo,
		s.TotalAmount,
		s.PaidAmount,
		s.Status,
		s.CreatedAt,
		s.UpdatedAt,
	).Error
}

func (r *repo) InsertLine(ctx context.Context, db *gorm.DB, l *saledomain.SaleLine) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO sale_lines (
			id, sale_id, article_id, article_name, quantity, unit_price,
			tax_rate, total_price, paid_amount, status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID,
		l.SaleID,
		l.ArticleID,
		l.ArticleName,
		l.Quantity,
		l.UnitPrice,
		l.TaxRate,
		l.TotalPrice,
		l.PaidAmount,
		l.Status,
		l.CreatedAt,
		l.UpdatedAt,
	).Error
}

func (r *repo) FindSale(ctx context.Context, db *gorm.DB, id snowflake.ID) (*saledomain.Sale, error) {
	var s saledomain.Sale
	err := db.WithContext(ctx).Raw(
		`SELECT id, group_id, seller_id, receipt_no, total_amount, paid_amount,
		 status, created_at, updated_at
		 FROM sales WHERE id = ?`,
		id,
	).Scan(&s).Error
	if err != nil {
		return nil, err
	}
	if s.ID == 0 {
		return nil, nil
	}
	return &s, nil
}

func (r *repo) FindLine(ctx context.Context, db *gorm.DB, saleID, lineID snowflake.ID) (*saledomain.SaleLine, error) {
	var l saledomain.SaleLine
	err := db.WithContext(ctx).Raw(
		`SELECT id, sale_id, article_id, article_name, quantity, unit_price,
		 tax_rate, total_price, paid_amount, status, created_at, updated_at
		 FROM sale_lines WHERE sale_id = ? AND id = ?`,
		saleID,
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

func (r *repo) LinesBySale(ctx context.Context, db *gorm.DB, saleID snowflake.ID) ([]saledomain.SaleLine, error) {
	var lines []saledomain.SaleLine
	err := db.WithContext(ctx).Raw(
		`SELECT id, sale_id, article_id, article_name, quantity, unit_price,
		 tax_rate, total_price, paid_amount, status, created_at, updated_at
		 FROM sale_lines WHERE sale_id = ? ORDER BY created_at ASC, id ASC`,
		saleID,
	).Scan(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *repo) UpdateLinePayment(ctx context.Context, db *gorm.DB, lineID snowflake.ID, paid decimal.Decimal, status saledomain.Status) error {
	return db.WithContext(ctx).Exec(
		`UPDATE sale_lines SET paid_amount = ?, status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		paid,
		status,
		lineID,
	).Error
}

func (r *repo) UpdateSalePayment(ctx context.Context, db *gorm.DB, saleID snowflake.ID, total, paid decimal.Decimal, status saledomain.Status) error {
	return db.WithContext(ctx).Exec(
		`UPDATE sales SET total_amount = ?, paid_amount = ?, status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		total,
		paid,
		status,
		saleID,
	).Error
}
