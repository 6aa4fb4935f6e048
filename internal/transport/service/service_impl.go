package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/samenkoop/winkel/internal/money"
	orderdomain "github.com/samenkoop/winkel/internal/order/domain"
	perioddomain "github.com/samenkoop/winkel/internal/period/domain"
	transportdomain "github.com/samenkoop/winkel/internal/transport/domain"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Repo       transportdomain.Repository
	PeriodRepo perioddomain.Repository
}

type service struct {
	db         *gorm.DB
	log        *zap.Logger
	repo       transportdomain.Repository
	periodRepo perioddomain.Repository
}

func New(p Params) transportdomain.Service {
	return &service{
		db:         p.DB,
		log:        p.Log,
		repo:       p.Repo,
		periodRepo: p.PeriodRepo,
	}
}

func (s *service) BuyerShare(ctx context.Context, groupID, periodID snowflake.ID) (decimal.Decimal, error) {
	period, err := s.periodRepo.FindPeriod(ctx, s.db, periodID)
	if err != nil {
		return decimal.Zero, err
	}
	if period == nil || !period.TransportCost.IsPositive() {
		return decimal.Zero, nil
	}

	buyers, err := s.repo.DistinctBuyerCount(ctx, s.db, groupID, periodID)
	if err != nil {
		return decimal.Zero, err
	}
	return money.Share(period.TransportCost, buyers), nil
}

func (s *service) OrderShare(ctx context.Context, groupID snowflake.ID, lines []orderdomain.OrderLine) (decimal.Decimal, error) {
	seen := make(map[snowflake.ID]struct{})
	total := decimal.Zero
	for _, l := range lines {
		if !l.Surviving() || l.PeriodID == nil {
			continue
		}
		if _, ok := seen[*l.PeriodID]; ok {
			continue
		}
		seen[*l.PeriodID] = struct{}{}

		share, err := s.BuyerShare(ctx, groupID, *l.PeriodID)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(share)
	}
	return total, nil
}
