package service

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/samenkoop/winkel/internal/clock"
	"github.com/samenkoop/winkel/internal/config"
	memberdomain "github.com/samenkoop/winkel/internal/member/domain"
	"github.com/samenkoop/winkel/internal/money"
	"github.com/samenkoop/winkel/internal/observability/logger"
	"github.com/samenkoop/winkel/internal/observability/metrics"
	orderdomain "github.com/samenkoop/winkel/internal/order/domain"
	perioddomain "github.com/samenkoop/winkel/internal/period/domain"
	"github.com/samenkoop/winkel/internal/providers/email"
	"github.com/samenkoop/winkel/internal/providers/pdf"
	settlementdomain "github.com/samenkoop/winkel/internal/settlement/domain"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Repo       settlementdomain.Repository
	OrderRepo  orderdomain.Repository
	PeriodRepo perioddomain.Repository
	MemberRepo memberdomain.Repository
	Metrics    *metrics.SettlementMetrics
	Email      email.Provider
	PDF        pdf.Renderer
	Storefront *config.StorefrontHolder
	Clock      clock.Clock
}

type service struct {
	db         *gorm.DB
	log        *zap.Logger
	repo       settlementdomain.Repository
	orderRepo  orderdomain.Repository
	periodRepo perioddomain.Repository
	memberRepo memberdomain.Repository
	metrics    *metrics.SettlementMetrics
	email      email.Provider
	pdf        pdf.Renderer
	storefront *config.StorefrontHolder
	clock      clock.Clock
}

func New(p Params) settlementdomain.Service {
	return &service{
		db:         p.DB,
		log:        p.Log,
		repo:       p.Repo,
		orderRepo:  p.OrderRepo,
		periodRepo: p.PeriodRepo,
		memberRepo: p.MemberRepo,
		metrics:    p.Metrics,
		email:      p.Email,
		pdf:        p.PDF,
		storefront: p.Storefront,
		clock:      p.Clock,
	}
}

func parseID(s string) (snowflake.ID, error) {
	if s == "" {
		return 0, settlementdomain.ErrInvalidID
	}
	id, err := snowflake.ParseString(s)
	if err != nil || id == 0 {
		return 0, settlementdomain.ErrInvalidID
	}
	return id, nil
}

// inferredPaid is the period's slice of an order's paid amount, at full
// precision. A fully paid order contributes its whole period subtotal, a
// partially paid one contributes proportionally.
func inferredPaid(row settlementdomain.QualifyingOrder) decimal.Decimal {
	if row.PaidAmount.GreaterThanOrEqual(row.TotalAmount) {
		return row.PeriodSubtotal
	}
	return row.PeriodSubtotal.Mul(money.Ratio(row.PaidAmount, row.TotalAmount))
}

func (s *service) Summary(ctx context.Context, groupID, periodID string) (*settlementdomain.Summary, error) {
	gID, err := parseID(groupID)
	if err != nil {
		return nil, err
	}
	pID, err := parseID(periodID)
	if err != nil {
		return nil, err
	}

	period, err := s.periodRepo.FindPeriod(ctx, s.db, pID)
	if err != nil {
		return nil, err
	}
	if period == nil || period.GroupID != gID {
		return nil, settlementdomain.ErrPeriodNotFound
	}

	rows, err := s.repo.QualifyingOrders(ctx, s.db, gID, pID)
	if err != nil {
		return nil, err
	}
	return s.buildSummary(ctx, period, rows)
}

// buildSummary aggregates qualifying orders per buyer. The transport share
// uses the buyer count of this very sheet as denominator, so the sheet is
// always internally consistent even while orders keep changing.
func (s *service) buildSummary(ctx context.Context, period *perioddomain.Period, rows []settlementdomain.QualifyingOrder) (*settlementdomain.Summary, error) {
	type acc struct {
		orders   int
		subtotal decimal.Decimal
		inferred decimal.Decimal
	}
	byBuyer := make(map[snowflake.ID]*acc)
	for _, row := range rows {
		a := byBuyer[row.BuyerID]
		if a == nil {
			a = &acc{subtotal: decimal.Zero, inferred: decimal.Zero}
			byBuyer[row.BuyerID] = a
		}
		a.orders++
		a.subtotal = a.subtotal.Add(row.PeriodSubtotal)
		a.inferred = a.inferred.Add(inferredPaid(row))
	}

	buyerIDs := make([]snowflake.ID, 0, len(byBuyer))
	for id := range byBuyer {
		buyerIDs = append(buyerIDs, id)
	}
	members, err := s.memberRepo.MembersByID(ctx, s.db, buyerIDs)
	if err != nil {
		return nil, err
	}

	share := decimal.Zero
	if period.TransportCost.IsPositive() {
		share = money.Share(period.TransportCost, int64(len(byBuyer)))
	}

	summary := &settlementdomain.Summary{
		PeriodID:       period.ID,
		GroupID:        period.GroupID,
		PeriodName:     period.Name,
		TransportCost:  money.Amt(period.TransportCost),
		DistinctBuyers: len(byBuyer),
		TransportShare: money.Amt(share),
		Buyers:         make([]settlementdomain.BuyerRow, 0, len(byBuyer)),
		GeneratedAt:    s.clock.Now(),
	}

	totalAmount := decimal.Zero
	totalInferred := decimal.Zero
	for id, a := range byBuyer {
		subtotal := money.Round2(a.subtotal)
		inferred := money.Clamp(money.Round2(a.inferred), subtotal)

		status := orderdomain.PaymentStatusUnpaid
		if subtotal.IsPositive() && inferred.GreaterThanOrEqual(subtotal) {
			status = orderdomain.PaymentStatusPaid
		}

		row := settlementdomain.BuyerRow{
			BuyerID:        id,
			OrderCount:     a.orders,
			Subtotal:       money.Amt(subtotal),
			InferredPaid:   money.Amt(inferred),
			Outstanding:    money.Amt(subtotal.Sub(inferred)),
			TransportShare: money.Amt(share),
			Total:          money.Amt(money.Round2(subtotal.Add(share))),
			Status:         status,
		}
		if m, ok := members[id]; ok {
			row.DisplayName = m.DisplayName
			row.Email = m.Email
		}
		summary.Buyers = append(summary.Buyers, row)
		totalAmount = totalAmount.Add(subtotal)
		totalInferred = totalInferred.Add(inferred)
	}
	summary.TotalAmount = money.Amt(totalAmount)
	summary.TotalInferredPaid = money.Amt(totalInferred)
	summary.GrandTotal = money.Amt(totalAmount.Add(period.TransportCost))

	sort.Slice(summary.Buyers, func(i, j int) bool {
		a, b := summary.Buyers[i], summary.Buyers[j]
		if a.DisplayName != b.DisplayName {
			return a.DisplayName < b.DisplayName
		}
		return a.BuyerID < b.BuyerID
	})
	return summary, nil
}

func (s *service) SummaryPDF(ctx context.Context, groupID, periodID string) ([]byte, error) {
	summary, err := s.Summary(ctx, groupID, periodID)
	if err != nil {
		return nil, err
	}

	group, err := s.memberRepo.FindGroup(ctx, s.db, summary.GroupID)
	if err != nil {
		return nil, err
	}
	groupName := ""
	if group != nil {
		groupName = group.Name
	}

	sf := s.storefront.Get()
	data := pdf.SettlementData{
		GroupName:         groupName,
		PeriodName:        summary.PeriodName,
		GeneratedAt:       summary.GeneratedAt.Format("2006-01-02 15:04"),
		Currency:          sf.Currency,
		TransportCost:     summary.TransportCost.StringFixed(2),
		TransportShare:    summary.TransportShare.StringFixed(2),
		DistinctBuyers:    summary.DistinctBuyers,
		Rows:              make([]pdf.SettlementRow, 0, len(summary.Buyers)),
		TotalAmount:       summary.TotalAmount.StringFixed(2),
		TotalInferredPaid: summary.TotalInferredPaid.StringFixed(2),
		GrandTotal:        summary.GrandTotal.StringFixed(2),
		Footer:            sf.SummaryFooter,
	}
	for _, b := range summary.Buyers {
		data.Rows = append(data.Rows, pdf.SettlementRow{
			Buyer:          b.DisplayName,
			Orders:         b.OrderCount,
			Subtotal:       b.Subtotal.StringFixed(2),
			InferredPaid:   b.InferredPaid.StringFixed(2),
			Outstanding:    b.Outstanding.StringFixed(2),
			TransportShare: b.TransportShare.StringFixed(2),
			Total:          b.Total.StringFixed(2),
			Status:         string(b.Status),
		})
	}

	reader, err := s.pdf.RenderSettlement(ctx, data)
	if err != nil {
		return nil, err
	}
	return io.ReadAll(reader)
}

func (s *service) MarkPaid(ctx context.Context, groupID, periodID, buyerID string) (*settlementdomain.Summary, error) {
	gID, pID, bID, period, err := s.resolveBuyerScope(ctx, groupID, periodID, buyerID)
	if err != nil {
		return nil, err
	}

	var buyer *memberdomain.Member
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		buyer, err = s.memberRepo.FindMember(ctx, tx, bID)
		if err != nil {
			return err
		}
		if buyer == nil {
			return settlementdomain.ErrBuyerNotFound
		}

		rows, err := s.repo.QualifyingOrdersByBuyer(ctx, tx, gID, pID, bID)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return settlementdomain.ErrNothingToSettle
		}

		// Settling a buyer settles each qualifying order in full, lines
		// from other periods included.
		for _, row := range rows {
			if row.PaymentStatus == orderdomain.PaymentStatusPaid {
				continue
			}
			if err := s.orderRepo.UpdateOrderPayment(ctx, tx, row.OrderID, row.TotalAmount, row.TotalAmount, orderdomain.PaymentStatusPaid); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordMarkPaid()
	logger.FromContext(ctx).Info("buyer marked paid",
		zap.String("period_id", pID.String()),
		zap.String("buyer_id", bID.String()),
	)
	s.sendPaymentConfirmation(ctx, buyer, period)

	return s.Summary(ctx, groupID, periodID)
}

func (s *service) MarkUnpaid(ctx context.Context, groupID, periodID, buyerID string) (*settlementdomain.Summary, error) {
	gID, pID, bID, _, err := s.resolveBuyerScope(ctx, groupID, periodID, buyerID)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		buyer, err := s.memberRepo.FindMember(ctx, tx, bID)
		if err != nil {
			return err
		}
		if buyer == nil {
			return settlementdomain.ErrBuyerNotFound
		}

		rows, err := s.repo.QualifyingOrdersByBuyer(ctx, tx, gID, pID, bID)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return settlementdomain.ErrNothingToSettle
		}

		// The reversal only takes back this period's inferred slice, so
		// payments belonging to other periods' lines stay untouched.
		for _, row := range rows {
			newPaid := money.Clamp(money.Round2(row.PaidAmount.Sub(inferredPaid(row))), row.TotalAmount)
			status := orderdomain.StatusFor(newPaid, row.TotalAmount)
			if err := s.orderRepo.UpdateOrderPayment(ctx, tx, row.OrderID, row.TotalAmount, newPaid, status); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordMarkUnpaid()
	logger.FromContext(ctx).Info("buyer marked unpaid",
		zap.String("period_id", pID.String()),
		zap.String("buyer_id", bID.String()),
	)
	return s.Summary(ctx, groupID, periodID)
}

func (s *service) resolveBuyerScope(ctx context.Context, groupID, periodID, buyerID string) (snowflake.ID, snowflake.ID, snowflake.ID, *perioddomain.Period, error) {
	gID, err := parseID(groupID)
	if err != nil {
		return 0, 0, 0, nil, err
	}
	pID, err := parseID(periodID)
	if err != nil {
		return 0, 0, 0, nil, err
	}
	bID, err := parseID(buyerID)
	if err != nil {
		return 0, 0, 0, nil, err
	}

	period, err := s.periodRepo.FindPeriod(ctx, s.db, pID)
	if err != nil {
		return 0, 0, 0, nil, err
	}
	if period == nil || period.GroupID != gID {
		return 0, 0, 0, nil, settlementdomain.ErrPeriodNotFound
	}
	return gID, pID, bID, period, nil
}

// sendPaymentConfirmation is best effort; settlement never fails on mail.
func (s *service) sendPaymentConfirmation(ctx context.Context, buyer *memberdomain.Member, period *perioddomain.Period) {
	if buyer == nil || buyer.Email == "" {
		return
	}
	subject := fmt.Sprintf("Betaling ontvangen voor %s", period.Name)
	body := fmt.Sprintf(
		"<p>Beste %s,</p><p>Je betaling voor bestelronde <b>%s</b> is verwerkt. Bedankt!</p>",
		buyer.DisplayName, period.Name,
	)
	if err := s.email.Send(ctx, []string{buyer.Email}, subject, body); err != nil {
		s.log.Warn("payment confirmation mail failed",
			zap.String("buyer_id", buyer.ID.String()),
			zap.Error(err),
		)
	}
}
