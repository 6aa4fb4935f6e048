package service_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	orderdomain "github.com/samenkoop/winkel/internal/order/domain"
	perioddomain "github.com/samenkoop/winkel/internal/period/domain"
	periodrepo "github.com/samenkoop/winkel/internal/period/repository"
	transportrepo "github.com/samenkoop/winkel/internal/transport/repository"
	transportservice "github.com/samenkoop/winkel/internal/transport/service"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&perioddomain.Period{},
		&orderdomain.Order{},
		&orderdomain.OrderLine{},
	))
	return db
}

func seedOrderWithLine(t *testing.T, db *gorm.DB, node *snowflake.Node, groupID, buyerID, periodID snowflake.ID, retired bool) orderdomain.OrderLine {
	t.Helper()

	orderID := node.Generate()
	require.NoError(t, db.Create(&orderdomain.Order{
		ID: orderID, GroupID: groupID, BuyerID: buyerID,
		TotalAmount: decimal.RequireFromString("10.00"),
		PaidAmount:  decimal.Zero, PaymentStatus: orderdomain.PaymentStatusUnpaid,
	}).Error)

	articleID := node.Generate()
	line := orderdomain.OrderLine{
		ID: node.Generate(), OrderID: orderID, ArticleID: &articleID, PeriodID: &periodID,
		ArticleName: "Pakket", Quantity: decimal.RequireFromString("1"),
		UnitPrice:  decimal.RequireFromString("10.00"),
		TotalPrice: decimal.RequireFromString("10.00"),
	}
	if retired {
		line.ArticleID = nil
	}
	require.NoError(t, db.Create(&line).Error)
	return line
}

func TestBuyerShareSplitsAcrossDistinctBuyers(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	node, err := snowflake.NewNode(3)
	require.NoError(t, err)

	groupID := node.Generate()
	periodID := node.Generate()
	require.NoError(t, db.Create(&perioddomain.Period{
		ID: periodID, GroupID: groupID, SupplierID: node.Generate(), Name: "Week 12",
		StartsAt:      time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC),
		EndsAt:        time.Date(2026, 3, 22, 0, 0, 0, 0, time.UTC),
		TransportCost: decimal.RequireFromString("10.00"),
	}).Error)

	svc := transportservice.New(transportservice.Params{
		DB:         db,
		Log:        zap.NewNop(),
		Repo:       transportrepo.Provide(),
		PeriodRepo: periodrepo.Provide(),
	})

	// Three buyers, one of them twice: the split is per buyer, not per order.
	buyerA := node.Generate()
	seedOrderWithLine(t, db, node, groupID, buyerA, periodID, false)
	seedOrderWithLine(t, db, node, groupID, buyerA, periodID, false)
	seedOrderWithLine(t, db, node, groupID, node.Generate(), periodID, false)
	seedOrderWithLine(t, db, node, groupID, node.Generate(), periodID, false)

	// A retired line does not make its buyer count.
	seedOrderWithLine(t, db, node, groupID, node.Generate(), periodID, true)

	share, err := svc.BuyerShare(ctx, groupID, periodID)
	require.NoError(t, err)
	assert.Equal(t, "3.33", share.StringFixed(2))
}

func TestBuyerShareZeroCases(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	node, err := snowflake.NewNode(4)
	require.NoError(t, err)

	groupID := node.Generate()
	freePeriod := node.Generate()
	require.NoError(t, db.Create(&perioddomain.Period{
		ID: freePeriod, GroupID: groupID, SupplierID: node.Generate(), Name: "Gratis",
		StartsAt: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		EndsAt:   time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC),
	}).Error)

	costly := node.Generate()
	require.NoError(t, db.Create(&perioddomain.Period{
		ID: costly, GroupID: groupID, SupplierID: node.Generate(), Name: "Leeg",
		StartsAt:      time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		EndsAt:        time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC),
		TransportCost: decimal.RequireFromString("25.00"),
	}).Error)

	svc := transportservice.New(transportservice.Params{
		DB:         db,
		Log:        zap.NewNop(),
		Repo:       transportrepo.Provide(),
		PeriodRepo: periodrepo.Provide(),
	})

	seedOrderWithLine(t, db, node, groupID, node.Generate(), freePeriod, false)

	share, err := svc.BuyerShare(ctx, groupID, freePeriod)
	require.NoError(t, err)
	assert.True(t, share.IsZero())

	// Costed period without any buyers yet.
	share, err = svc.BuyerShare(ctx, groupID, costly)
	require.NoError(t, err)
	assert.True(t, share.IsZero())

	// Unknown period.
	share, err = svc.BuyerShare(ctx, groupID, node.Generate())
	require.NoError(t, err)
	assert.True(t, share.IsZero())
}

func TestOrderShareSumsDistinctPeriods(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	node, err := snowflake.NewNode(5)
	require.NoError(t, err)

	groupID := node.Generate()
	periodA := node.Generate()
	periodB := node.Generate()
	for i, id := range []snowflake.ID{periodA, periodB} {
		require.NoError(t, db.Create(&perioddomain.Period{
			ID: id, GroupID: groupID, SupplierID: node.Generate(), Name: fmt.Sprintf("P%d", i),
			StartsAt:      time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
			EndsAt:        time.Date(2026, 5, 31, 0, 0, 0, 0, time.UTC),
			TransportCost: decimal.RequireFromString("6.00"),
		}).Error)
	}

	buyer := node.Generate()
	lineA := seedOrderWithLine(t, db, node, groupID, buyer, periodA, false)
	lineA2 := seedOrderWithLine(t, db, node, groupID, buyer, periodA, false)
	lineB := seedOrderWithLine(t, db, node, groupID, buyer, periodB, false)
	seedOrderWithLine(t, db, node, groupID, node.Generate(), periodA, false)

	svc := transportservice.New(transportservice.Params{
		DB:         db,
		Log:        zap.NewNop(),
		Repo:       transportrepo.Provide(),
		PeriodRepo: periodrepo.Provide(),
	})

	// Period A splits 6.00 over 2 buyers (3.00), period B over 1 (6.00).
	// A second line in the same period adds nothing.
	share, err := svc.OrderShare(ctx, groupID, []orderdomain.OrderLine{lineA, lineA2, lineB})
	require.NoError(t, err)
	assert.Equal(t, "9.00", share.StringFixed(2))
}
