package service

import (
	"context"
	"math/rand"
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	catalogdomain "github.com/samenkoop/winkel/internal/catalog/domain"
	"github.com/samenkoop/winkel/internal/clock"
	memberdomain "github.com/samenkoop/winkel/internal/member/domain"
	"github.com/samenkoop/winkel/internal/money"
	"github.com/samenkoop/winkel/internal/observability/logger"
	"github.com/samenkoop/winkel/internal/pricing"
	saledomain "github.com/samenkoop/winkel/internal/sale/domain"
	pkgdb "github.com/samenkoop/winkel/pkg/db"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Repo        saledomain.Repository
	CatalogRepo catalogdomain.Repository
	MemberRepo  memberdomain.Repository
	Clock       clock.Clock
}

type service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	repo        saledomain.Repository
	catalogRepo catalogdomain.Repository
	memberRepo  memberdomain.Repository
	clock       clock.Clock

	entropyMu sync.Mutex
	entropy   *ulid.MonotonicEntropy
}

func New(p Params) saledomain.Service {
	return &service{
		db:          p.DB,
		log:         p.Log,
		genID:       p.GenID,
		repo:        p.Repo,
		catalogRepo: p.CatalogRepo,
		memberRepo:  p.MemberRepo,
		clock:       p.Clock,
		entropy:     ulid.Monotonic(rand.New(rand.NewSource(p.Clock.Now().UnixNano())), 0),
	}
}

func parseID(s string) (snowflake.ID, error) {
	if s == "" {
		return 0, saledomain.ErrInvalidID
	}
	id, err := snowflake.ParseString(s)
	if err != nil || id == 0 {
		return 0, saledomain.ErrInvalidID
	}
	return id, nil
}

func validQuantity(q decimal.Decimal) bool {
	return q.IsPositive() && q.Exponent() >= -3
}

// receiptNo issues a sortable, unique receipt number.
func (s *service) receiptNo() string {
	s.entropyMu.Lock()
	defer s.entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(s.clock.Now()), s.entropy).String()
}

func (s *service) Create(ctx context.Context, req saledomain.CreateRequest) (*saledomain.Response, error) {
	groupID, err := snowflake.ParseString(req.GroupID)
	if err != nil || groupID == 0 {
		return nil, saledomain.ErrInvalidGroup
	}
	sellerID, err := snowflake.ParseString(req.SellerID)
	if err != nil || sellerID == 0 {
		return nil, saledomain.ErrInvalidSeller
	}
	if len(req.Lines) == 0 {
		return nil, saledomain.ErrNoLines
	}
	for _, l := range req.Lines {
		if !validQuantity(l.Quantity) {
			return nil, saledomain.ErrInvalidQuantity
		}
	}

	var sale *saledomain.Sale
	var lines []saledomain.SaleLine

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := s.memberRepo.IsMember(ctx, tx, groupID, sellerID)
		if err != nil {
			return err
		}
		if !ok {
			return saledomain.ErrInvalidSeller
		}

		now := s.clock.Now()
		sale = &saledomain.Sale{
			ID:          s.genID.Generate(),
			GroupID:     groupID,
			SellerID:    sellerID,
			ReceiptNo:   s.receiptNo(),
			TotalAmount: decimal.Zero,
			PaidAmount:  decimal.Zero,
			Status:      saledomain.StatusUnpaid,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.repo.InsertSale(ctx, tx, sale); err != nil {
			// receipt_no carries a unique index; retry once with a
			// fresh number on collision.
			if !pkgdb.IsDuplicateKeyErr(err) {
				return err
			}
			sale.ReceiptNo = s.receiptNo()
			if err := s.repo.InsertSale(ctx, tx, sale); err != nil {
				return err
			}
		}

		total := decimal.Zero
		for _, lr := range req.Lines {
			articleID, err := parseID(lr.ArticleID)
			if err != nil {
				return err
			}
			article, err := s.catalogRepo.FindArticle(ctx, tx, articleID)
			if err != nil {
				return err
			}
			if article == nil || !article.Visible || article.GroupID != groupID {
				return saledomain.ErrArticleUnavailable
			}

			line := saledomain.SaleLine{
				ID:          s.genID.Generate(),
				SaleID:      sale.ID,
				ArticleID:   &articleID,
				ArticleName: article.Name,
				Quantity:    lr.Quantity,
				UnitPrice:   article.UnitPrice,
				TaxRate:     article.TaxRate,
				TotalPrice: pricing.Total(pricing.Line{
					UnitPrice: article.UnitPrice,
					Quantity:  lr.Quantity,
					TaxRate:   article.TaxRate,
				}),
				PaidAmount: decimal.Zero,
				Status:     saledomain.StatusUnpaid,
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			if err := s.repo.InsertLine(ctx, tx, &line); err != nil {
				return err
			}
			lines = append(lines, line)
			total = total.Add(line.TotalPrice)
		}

		sale.TotalAmount = money.Round2(total)
		return s.repo.UpdateSalePayment(ctx, tx, sale.ID, sale.TotalAmount, sale.PaidAmount, sale.Status)
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("sale created",
		zap.String("sale_id", sale.ID.String()),
		zap.String("receipt_no", sale.ReceiptNo),
		zap.String("total_amount", sale.TotalAmount.StringFixed(2)),
	)
	return respond(sale, lines), nil
}

func (s *service) Get(ctx context.Context, id string) (*saledomain.Response, error) {
	saleID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	sale, err := s.repo.FindSale(ctx, s.db, saleID)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, saledomain.ErrSaleNotFound
	}
	lines, err := s.repo.LinesBySale(ctx, s.db, saleID)
	if err != nil {
		return nil, err
	}
	return respond(sale, lines), nil
}

func (s *service) PayLine(ctx context.Context, saleID, lineID string, req saledomain.PayRequest) (*saledomain.Response, error) {
	sID, err := parseID(saleID)
	if err != nil {
		return nil, err
	}
	lID, err := parseID(lineID)
	if err != nil {
		return nil, err
	}
	if !req.Amount.IsPositive() || req.Amount.Exponent() < -2 {
		return nil, saledomain.ErrInvalidAmount
	}

	var sale *saledomain.Sale
	var lines []saledomain.SaleLine

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		sale, err = s.repo.FindSale(ctx, tx, sID)
		if err != nil {
			return err
		}
		if sale == nil {
			return saledomain.ErrSaleNotFound
		}
		line, err := s.repo.FindLine(ctx, tx, sID, lID)
		if err != nil {
			return err
		}
		if line == nil {
			return saledomain.ErrLineNotFound
		}

		newPaid := money.Round2(line.PaidAmount.Add(req.Amount))
		if newPaid.GreaterThan(line.TotalPrice) {
			return saledomain.ErrOverpayment
		}
		if err := s.repo.UpdateLinePayment(ctx, tx, line.ID, newPaid, saledomain.StatusFor(newPaid, line.TotalPrice)); err != nil {
			return err
		}

		lines, err = s.repo.LinesBySale(ctx, tx, sale.ID)
		if err != nil {
			return err
		}
		salePaid := decimal.Zero
		for _, l := range lines {
			salePaid = salePaid.Add(l.PaidAmount)
		}
		sale.PaidAmount = money.Round2(salePaid)
		sale.Status = saledomain.StatusFor(sale.PaidAmount, sale.TotalAmount)
		return s.repo.UpdateSalePayment(ctx, tx, sale.ID, sale.TotalAmount, sale.PaidAmount, sale.Status)
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("sale line paid",
		zap.String("sale_id", sale.ID.String()),
		zap.String("line_id", lID.String()),
		zap.String("amount", req.Amount.StringFixed(2)),
	)
	return respond(sale, lines), nil
}

func respond(sale *saledomain.Sale, lines []saledomain.SaleLine) *saledomain.Response {
	lineResponses := make([]saledomain.LineResponse, 0, len(lines))
	for _, l := range lines {
		lineResponses = append(lineResponses, saledomain.LineResponse{
			ID:          l.ID,
			ArticleID:   l.ArticleID,
			ArticleName: l.ArticleName,
			Quantity:    money.Qty(l.Quantity),
			UnitPrice:   money.Amt(l.UnitPrice),
			TaxRate:     l.TaxRate,
			TotalPrice:  money.Amt(l.TotalPrice),
			PaidAmount:  money.Amt(l.PaidAmount),
			Status:      l.Status,
		})
	}
	return &saledomain.Response{
		ID:          sale.ID,
		GroupID:     sale.GroupID,
		SellerID:    sale.SellerID,
		ReceiptNo:   sale.ReceiptNo,
		TotalAmount: money.Amt(sale.TotalAmount),
		PaidAmount:  money.Amt(sale.PaidAmount),
		Status:      sale.Status,
		Lines:       lineResponses,
		CreatedAt:   sale.CreatedAt,
		UpdatedAt:   sale.UpdatedAt,
	}
}
