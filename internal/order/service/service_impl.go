package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	catalogdomain "github.com/samenkoop/winkel/internal/catalog/domain"
	"github.com/samenkoop/winkel/internal/clock"
	memberdomain "github.com/samenkoop/winkel/internal/member/domain"
	"github.com/samenkoop/winkel/internal/money"
	"github.com/samenkoop/winkel/internal/observability/logger"
	"github.com/samenkoop/winkel/internal/observability/metrics"
	orderdomain "github.com/samenkoop/winkel/internal/order/domain"
	perioddomain "github.com/samenkoop/winkel/internal/period/domain"
	"github.com/samenkoop/winkel/internal/pricing"
	transportdomain "github.com/samenkoop/winkel/internal/transport/domain"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Repo        orderdomain.Repository
	CatalogRepo catalogdomain.Repository
	PeriodRepo  perioddomain.Repository
	MemberRepo  memberdomain.Repository
	Transport   transportdomain.Service
	Metrics     *metrics.SettlementMetrics
	Clock       clock.Clock
}

type service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	repo        orderdomain.Repository
	catalogRepo catalogdomain.Repository
	periodRepo  perioddomain.Repository
	memberRepo  memberdomain.Repository
	transport   transportdomain.Service
	metrics     *metrics.SettlementMetrics
	clock       clock.Clock
}

func New(p Params) orderdomain.Service {
	return &service{
		db:          p.DB,
		log:         p.Log,
		genID:       p.GenID,
		repo:        p.Repo,
		catalogRepo: p.CatalogRepo,
		periodRepo:  p.PeriodRepo,
		memberRepo:  p.MemberRepo,
		transport:   p.Transport,
		metrics:     p.Metrics,
		clock:       p.Clock,
	}
}

func parseID(s string) (snowflake.ID, error) {
	if s == "" {
		return 0, orderdomain.ErrInvalidID
	}
	id, err := snowflake.ParseString(s)
	if err != nil || id == 0 {
		return 0, orderdomain.ErrInvalidID
	}
	return id, nil
}

// validQuantity accepts positive quantities with at most 3 fractional digits.
func validQuantity(q decimal.Decimal) bool {
	return q.IsPositive() && q.Exponent() >= -3
}

func (s *service) Create(ctx context.Context, req orderdomain.CreateRequest) (*orderdomain.Response, error) {
	log := logger.FromContext(ctx)

	groupID, err := snowflake.ParseString(req.GroupID)
	if err != nil || groupID == 0 {
		return nil, orderdomain.ErrInvalidGroup
	}
	buyerID, err := snowflake.ParseString(req.BuyerID)
	if err != nil || buyerID == 0 {
		return nil, orderdomain.ErrInvalidBuyer
	}
	if len(req.Lines) == 0 {
		return nil, orderdomain.ErrNoLines
	}
	for _, l := range req.Lines {
		if !validQuantity(l.Quantity) {
			return nil, orderdomain.ErrInvalidQuantity
		}
	}

	var order *orderdomain.Order
	var lines []orderdomain.OrderLine
	optionsByLine := make(map[snowflake.ID][]orderdomain.OrderLineOption)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := s.memberRepo.IsMember(ctx, tx, groupID, buyerID)
		if err != nil {
			return err
		}
		if !ok {
			return orderdomain.ErrInvalidBuyer
		}

		now := s.clock.Now()
		order = &orderdomain.Order{
			ID:            s.genID.Generate(),
			GroupID:       groupID,
			BuyerID:       buyerID,
			TotalAmount:   decimal.Zero,
			PaidAmount:    decimal.Zero,
			PaymentStatus: orderdomain.PaymentStatusUnpaid,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := s.repo.InsertOrder(ctx, tx, order); err != nil {
			return err
		}

		total := decimal.Zero
		for _, lr := range req.Lines {
			line, opts, err := s.buildLine(ctx, tx, order, lr, now)
			if err != nil {
				return err
			}
			if err := s.repo.InsertLine(ctx, tx, line); err != nil {
				return err
			}
			for i := range opts {
				if err := s.repo.InsertLineOption(ctx, tx, &opts[i]); err != nil {
					return err
				}
			}
			lines = append(lines, *line)
			optionsByLine[line.ID] = opts
			total = total.Add(line.TotalPrice)
		}

		order.TotalAmount = money.Round2(total)
		order.PaymentStatus = orderdomain.StatusFor(order.PaidAmount, order.TotalAmount)
		return s.repo.UpdateOrderPayment(ctx, tx, order.ID, order.TotalAmount, order.PaidAmount, order.PaymentStatus)
	})
	if err != nil {
		s.metrics.RecordOrderCreated("rejected")
		return nil, err
	}

	s.metrics.RecordOrderCreated("created")
	log.Info("order created",
		zap.String("order_id", order.ID.String()),
		zap.String("buyer_id", buyerID.String()),
		zap.Int("lines", len(lines)),
		zap.String("total_amount", order.TotalAmount.StringFixed(2)),
	)
	return s.respond(ctx, order, lines, optionsByLine)
}

// buildLine resolves one requested line against the catalog and the optional
// period price list, validates its option selection and prices it.
func (s *service) buildLine(ctx context.Context, tx *gorm.DB, order *orderdomain.Order, lr orderdomain.LineRequest, now time.Time) (*orderdomain.OrderLine, []orderdomain.OrderLineOption, error) {
	articleID, err := parseID(lr.ArticleID)
	if err != nil {
		return nil, nil, err
	}

	article, err := s.catalogRepo.FindArticle(ctx, tx, articleID)
	if err != nil {
		return nil, nil, err
	}
	if article == nil || !article.Visible {
		return nil, nil, orderdomain.ErrArticleUnavailable
	}
	if article.GroupID != order.GroupID {
		return nil, nil, orderdomain.ErrArticleWrongGroup
	}

	unitPrice := article.UnitPrice
	var periodID *snowflake.ID
	if lr.PeriodID != nil {
		pid, err := parseID(*lr.PeriodID)
		if err != nil {
			return nil, nil, err
		}
		period, err := s.periodRepo.FindPeriod(ctx, tx, pid)
		if err != nil {
			return nil, nil, err
		}
		if period == nil || period.GroupID != order.GroupID {
			return nil, nil, orderdomain.ErrPeriodNotFound
		}
		override, err := s.periodRepo.UnitPriceOverride(ctx, tx, pid, articleID)
		if err != nil {
			return nil, nil, err
		}
		if override != nil {
			unitPrice = *override
		}
		periodID = &pid
	}

	selected, err := s.resolveOptions(ctx, tx, articleID, lr.OptionIDs)
	if err != nil {
		return nil, nil, err
	}

	charges := make([]pricing.OptionCharge, 0, len(selected))
	for _, opt := range selected {
		charges = append(charges, pricing.OptionCharge{PriceDelta: opt.PriceDelta})
	}

	line := &orderdomain.OrderLine{
		ID:          s.genID.Generate(),
		OrderID:     order.ID,
		ArticleID:   &articleID,
		PeriodID:    periodID,
		ArticleName: article.Name,
		Quantity:    lr.Quantity,
		UnitPrice:   unitPrice,
		TaxRate:     article.TaxRate,
		TotalPrice: pricing.Total(pricing.Line{
			UnitPrice: unitPrice,
			Quantity:  lr.Quantity,
			TaxRate:   article.TaxRate,
			Options:   charges,
		}),
		CreatedAt: now,
		UpdatedAt: now,
	}

	snapshots := make([]orderdomain.OrderLineOption, 0, len(selected))
	for _, opt := range selected {
		optID := opt.ID
		snapshots = append(snapshots, orderdomain.OrderLineOption{
			ID:          s.genID.Generate(),
			OrderLineID: line.ID,
			OptionID:    &optID,
			Name:        opt.Name,
			PriceDelta:  opt.PriceDelta,
			CreatedAt:   now,
		})
	}
	return line, snapshots, nil
}

// resolveOptions validates a requested option selection against the
// article's offering: unknown options are rejected and every required
// option must be present. Duplicates collapse to one.
func (s *service) resolveOptions(ctx context.Context, tx *gorm.DB, articleID snowflake.ID, optionIDs []string) ([]catalogdomain.ArticleOption, error) {
	available, err := s.catalogRepo.OptionsByArticle(ctx, tx, articleID)
	if err != nil {
		return nil, err
	}
	byID := make(map[snowflake.ID]catalogdomain.ArticleOption, len(available))
	for _, opt := range available {
		byID[opt.ID] = opt
	}

	chosen := make(map[snowflake.ID]struct{}, len(optionIDs))
	var selected []catalogdomain.ArticleOption
	for _, raw := range optionIDs {
		id, err := parseID(raw)
		if err != nil {
			return nil, orderdomain.ErrInvalidOption
		}
		opt, ok := byID[id]
		if !ok {
			return nil, orderdomain.ErrInvalidOption
		}
		if _, dup := chosen[id]; dup {
			continue
		}
		chosen[id] = struct{}{}
		selected = append(selected, opt)
	}

	for _, opt := range available {
		if !opt.Required {
			continue
		}
		if _, ok := chosen[opt.ID]; !ok {
			return nil, orderdomain.ErrMissingRequiredOption
		}
	}
	return selected, nil
}

func (s *service) Get(ctx context.Context, id string) (*orderdomain.Response, error) {
	orderID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	order, err := s.repo.FindOrder(ctx, s.db, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, orderdomain.ErrOrderNotFound
	}
	return s.load(ctx, order)
}

func (s *service) List(ctx context.Context, q orderdomain.ListQuery) ([]orderdomain.Response, error) {
	groupID, err := snowflake.ParseString(q.GroupID)
	if err != nil || groupID == 0 {
		return nil, orderdomain.ErrInvalidGroup
	}

	var buyerID *snowflake.ID
	if q.BuyerID != "" {
		id, err := parseID(q.BuyerID)
		if err != nil {
			return nil, orderdomain.ErrInvalidBuyer
		}
		buyerID = &id
	}

	orders, err := s.repo.ListOrders(ctx, s.db, groupID, buyerID)
	if err != nil {
		return nil, err
	}

	out := make([]orderdomain.Response, 0, len(orders))
	for i := range orders {
		resp, err := s.load(ctx, &orders[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *resp)
	}
	return out, nil
}

func (s *service) UpdateLine(ctx context.Context, orderID, lineID string, req orderdomain.UpdateLineRequest) (*orderdomain.Response, error) {
	oID, err := parseID(orderID)
	if err != nil {
		return nil, err
	}
	lID, err := parseID(lineID)
	if err != nil {
		return nil, err
	}
	if req.Quantity != nil && !validQuantity(*req.Quantity) {
		return nil, orderdomain.ErrInvalidQuantity
	}

	var order *orderdomain.Order
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = s.repo.FindOrder(ctx, tx, oID)
		if err != nil {
			return err
		}
		if order == nil {
			return orderdomain.ErrOrderNotFound
		}
		line, err := s.repo.FindLine(ctx, tx, oID, lID)
		if err != nil {
			return err
		}
		if line == nil {
			return orderdomain.ErrLineNotFound
		}
		if !line.Surviving() {
			return orderdomain.ErrArticleUnavailable
		}

		quantity := line.Quantity
		if req.Quantity != nil {
			quantity = *req.Quantity
		}

		var charges []pricing.OptionCharge
		if req.OptionIDs != nil {
			article, err := s.catalogRepo.FindArticle(ctx, tx, *line.ArticleID)
			if err != nil {
				return err
			}
			if article == nil || !article.Visible {
				return orderdomain.ErrArticleUnavailable
			}
			selected, err := s.resolveOptions(ctx, tx, *line.ArticleID, *req.OptionIDs)
			if err != nil {
				return err
			}
			if err := s.repo.DeleteLineOptions(ctx, tx, line.ID); err != nil {
				return err
			}
			now := s.clock.Now()
			for _, opt := range selected {
				optID := opt.ID
				snapshot := orderdomain.OrderLineOption{
					ID:          s.genID.Generate(),
					OrderLineID: line.ID,
					OptionID:    &optID,
					Name:        opt.Name,
					PriceDelta:  opt.PriceDelta,
					CreatedAt:   now,
				}
				if err := s.repo.InsertLineOption(ctx, tx, &snapshot); err != nil {
					return err
				}
				charges = append(charges, pricing.OptionCharge{PriceDelta: opt.PriceDelta})
			}
		} else {
			existing, err := s.repo.OptionsByLines(ctx, tx, []snowflake.ID{line.ID})
			if err != nil {
				return err
			}
			for _, opt := range existing[line.ID] {
				charges = append(charges, pricing.OptionCharge{PriceDelta: opt.PriceDelta})
			}
		}

		lineTotal := pricing.Total(pricing.Line{
			UnitPrice: line.UnitPrice,
			Quantity:  quantity,
			TaxRate:   line.TaxRate,
			Options:   charges,
		})
		if err := s.repo.UpdateLinePricing(ctx, tx, line.ID, quantity, lineTotal); err != nil {
			return err
		}

		return s.settleOrderAmounts(ctx, tx, order)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordLineMutation("update")
	return s.load(ctx, order)
}

func (s *service) DeleteLine(ctx context.Context, orderID, lineID string) (*orderdomain.Response, error) {
	oID, err := parseID(orderID)
	if err != nil {
		return nil, err
	}
	lID, err := parseID(lineID)
	if err != nil {
		return nil, err
	}

	var order *orderdomain.Order
	var orderDeleted bool
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = s.repo.FindOrder(ctx, tx, oID)
		if err != nil {
			return err
		}
		if order == nil {
			return orderdomain.ErrOrderNotFound
		}
		line, err := s.repo.FindLine(ctx, tx, oID, lID)
		if err != nil {
			return err
		}
		if line == nil {
			return orderdomain.ErrLineNotFound
		}

		if err := s.repo.DeleteLine(ctx, tx, line.ID); err != nil {
			return err
		}

		remaining, err := s.repo.LinesByOrder(ctx, tx, order.ID)
		if err != nil {
			return err
		}
		if len(remaining) == 0 {
			orderDeleted = true
			return s.repo.DeleteOrder(ctx, tx, order.ID)
		}
		return s.settleOrderAmounts(ctx, tx, order)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordLineMutation("delete")
	if orderDeleted {
		logger.FromContext(ctx).Info("order removed with its last line",
			zap.String("order_id", order.ID.String()),
		)
		return nil, nil
	}
	return s.load(ctx, order)
}

// settleOrderAmounts recomputes the order total from its surviving lines
// and rescales the paid amount so the paid fraction is preserved across the
// edit, capped at the new total.
func (s *service) settleOrderAmounts(ctx context.Context, tx *gorm.DB, order *orderdomain.Order) error {
	lines, err := s.repo.LinesByOrder(ctx, tx, order.ID)
	if err != nil {
		return err
	}

	newTotal := decimal.Zero
	for _, l := range lines {
		if !l.Surviving() {
			continue
		}
		newTotal = newTotal.Add(l.TotalPrice)
	}
	newTotal = money.Round2(newTotal)

	newPaid := money.Clamp(order.PaidAmount, newTotal)
	if order.TotalAmount.IsPositive() && !newTotal.Equal(order.TotalAmount) {
		newPaid = money.Clamp(money.Scale(newTotal, money.Ratio(order.PaidAmount, order.TotalAmount)), newTotal)
	}

	order.TotalAmount = newTotal
	order.PaidAmount = newPaid
	order.PaymentStatus = orderdomain.StatusFor(newPaid, newTotal)
	return s.repo.UpdateOrderPayment(ctx, tx, order.ID, newTotal, newPaid, order.PaymentStatus)
}

// load rereads an order's lines and option snapshots and shapes the response.
func (s *service) load(ctx context.Context, order *orderdomain.Order) (*orderdomain.Response, error) {
	fresh, err := s.repo.FindOrder(ctx, s.db, order.ID)
	if err != nil {
		return nil, err
	}
	if fresh == nil {
		return nil, orderdomain.ErrOrderNotFound
	}

	lines, err := s.repo.LinesByOrder(ctx, s.db, fresh.ID)
	if err != nil {
		return nil, err
	}
	lineIDs := make([]snowflake.ID, 0, len(lines))
	for _, l := range lines {
		lineIDs = append(lineIDs, l.ID)
	}
	options, err := s.repo.OptionsByLines(ctx, s.db, lineIDs)
	if err != nil {
		return nil, err
	}
	return s.respond(ctx, fresh, lines, options)
}

func (s *service) respond(ctx context.Context, order *orderdomain.Order, lines []orderdomain.OrderLine, options map[snowflake.ID][]orderdomain.OrderLineOption) (*orderdomain.Response, error) {
	transportCost, err := s.transport.OrderShare(ctx, order.GroupID, lines)
	if err != nil {
		return nil, err
	}

	lineResponses := make([]orderdomain.LineResponse, 0, len(lines))
	for _, l := range lines {
		opts := make([]orderdomain.OptionResponse, 0, len(options[l.ID]))
		for _, o := range options[l.ID] {
			opts = append(opts, orderdomain.OptionResponse{
				ID:         o.ID,
				OptionID:   o.OptionID,
				Name:       o.Name,
				PriceDelta: money.Amt(o.PriceDelta),
			})
		}
		lineResponses = append(lineResponses, orderdomain.LineResponse{
			ID:          l.ID,
			ArticleID:   l.ArticleID,
			PeriodID:    l.PeriodID,
			ArticleName: l.ArticleName,
			Quantity:    money.Qty(l.Quantity),
			UnitPrice:   money.Amt(l.UnitPrice),
			TaxRate:     l.TaxRate,
			TotalPrice:  money.Amt(l.TotalPrice),
			Options:     opts,
		})
	}

	return &orderdomain.Response{
		ID:            order.ID,
		GroupID:       order.GroupID,
		BuyerID:       order.BuyerID,
		TotalAmount:   money.Amt(order.TotalAmount),
		PaidAmount:    money.Amt(order.PaidAmount),
		PaymentStatus: order.PaymentStatus,
		Delivered:     order.Delivered,
		TransportCost: money.Amt(transportCost),
		Lines:         lineResponses,
		CreatedAt:     order.CreatedAt,
		UpdatedAt:     order.UpdatedAt,
	}, nil
}
