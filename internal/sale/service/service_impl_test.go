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

	catalogdomain "github.com/samenkoop/winkel/internal/catalog/domain"
	catalogrepo "github.com/samenkoop/winkel/internal/catalog/repository"
	memberdomain "github.com/samenkoop/winkel/internal/member/domain"
	memberrepo "github.com/samenkoop/winkel/internal/member/repository"
	saledomain "github.com/samenkoop/winkel/internal/sale/domain"
	salerepo "github.com/samenkoop/winkel/internal/sale/repository"
	saleservice "github.com/samenkoop/winkel/internal/sale/service"
)

type fixedClock struct{ at time.Time }

func (c fixedClock) Now() time.Time { return c.at }

type fixture struct {
	db       *gorm.DB
	node     *snowflake.Node
	svc      saledomain.Service
	groupID  snowflake.ID
	sellerID snowflake.ID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&memberdomain.Group{},
		&memberdomain.Member{},
		&memberdomain.GroupMember{},
		&catalogdomain.Article{},
		&saledomain.Sale{},
		&saledomain.SaleLine{},
	))

	node, err := snowflake.NewNode(12)
	require.NoError(t, err)

	svc := saleservice.New(saleservice.Params{
		DB:          db,
		Log:         zap.NewNop(),
		GenID:       node,
		Repo:        salerepo.Provide(),
		CatalogRepo: catalogrepo.Provide(),
		MemberRepo:  memberrepo.Provide(),
		Clock:       fixedClock{at: time.Date(2026, 6, 2, 9, 30, 0, 0, time.UTC)},
	})

	f := &fixture{db: db, node: node, svc: svc}
	f.groupID = node.Generate()
	f.sellerID = node.Generate()
	require.NoError(t, db.Create(&memberdomain.Group{ID: f.groupID, Name: "Marktkraam", Slug: "marktkraam"}).Error)
	require.NoError(t, db.Create(&memberdomain.Member{ID: f.sellerID, DisplayName: "Eva", Email: "eva@example.org"}).Error)
	require.NoError(t, db.Create(&memberdomain.GroupMember{ID: node.Generate(), GroupID: f.groupID, MemberID: f.sellerID, Role: memberdomain.RoleManager}).Error)
	return f
}

func (f *fixture) addArticle(t *testing.T, name, price, taxRate string) snowflake.ID {
	t.Helper()
	id := f.node.Generate()
	require.NoError(t, f.db.Create(&catalogdomain.Article{
		ID: id, GroupID: f.groupID, Name: name, Slug: strings.ToLower(name),
		Unit: "piece", UnitPrice: decimal.RequireFromString(price),
		TaxRate: decimal.RequireFromString(taxRate), Visible: true,
	}).Error)
	return id
}

func (f *fixture) createSale(t *testing.T, lines ...saledomain.LineRequest) *saledomain.Response {
	t.Helper()
	resp, err := f.svc.Create(context.Background(), saledomain.CreateRequest{
		GroupID:  f.groupID.String(),
		SellerID: f.sellerID.String(),
		Lines:    lines,
	})
	require.NoError(t, err)
	return resp
}

func TestCreateSaleIssuesReceipt(t *testing.T) {
	f := newFixture(t)

	bread := f.addArticle(t, "Brood", "2.50", "9.00")
	cheese := f.addArticle(t, "Kaas", "7.00", "9.00")

	resp := f.createSale(t,
		saledomain.LineRequest{ArticleID: bread.String(), Quantity: decimal.RequireFromString("2")},
		saledomain.LineRequest{ArticleID: cheese.String(), Quantity: decimal.RequireFromString("0.5")},
	)

	// 2*2.50*1.09 = 5.45 and 0.5*7.00*1.09 = 3.82 (rounded per line)
	assert.Equal(t, "9.27", resp.TotalAmount.StringFixed(2))
	assert.Equal(t, saledomain.StatusUnpaid, resp.Status)
	assert.Len(t, resp.ReceiptNo, 26)

	second := f.createSale(t,
		saledomain.LineRequest{ArticleID: bread.String(), Quantity: decimal.RequireFromString("1")},
	)
	assert.NotEqual(t, resp.ReceiptNo, second.ReceiptNo)
}

func TestPayLineWalksThroughPartialToPaid(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	bread := f.addArticle(t, "Brood", "10.00", "0.00")
	cheese := f.addArticle(t, "Kaas", "20.00", "0.00")
	sale := f.createSale(t,
		saledomain.LineRequest{ArticleID: bread.String(), Quantity: decimal.RequireFromString("1")},
		saledomain.LineRequest{ArticleID: cheese.String(), Quantity: decimal.RequireFromString("1")},
	)

	resp, err := f.svc.PayLine(ctx, sale.ID.String(), sale.Lines[0].ID.String(), saledomain.PayRequest{
		Amount: decimal.RequireFromString("4.00"),
	})
	require.NoError(t, err)
	assert.Equal(t, saledomain.StatusPartial, resp.Status)
	assert.Equal(t, saledomain.StatusPartial, resp.Lines[0].Status)
	assert.Equal(t, "4.00", resp.PaidAmount.StringFixed(2))

	resp, err = f.svc.PayLine(ctx, sale.ID.String(), sale.Lines[0].ID.String(), saledomain.PayRequest{
		Amount: decimal.RequireFromString("6.00"),
	})
	require.NoError(t, err)
	assert.Equal(t, saledomain.StatusPaid, resp.Lines[0].Status)
	assert.Equal(t, saledomain.StatusPartial, resp.Status)

	resp, err = f.svc.PayLine(ctx, sale.ID.String(), sale.Lines[1].ID.String(), saledomain.PayRequest{
		Amount: decimal.RequireFromString("20.00"),
	})
	require.NoError(t, err)
	assert.Equal(t, saledomain.StatusPaid, resp.Status)
	assert.Equal(t, "30.00", resp.PaidAmount.StringFixed(2))
}

func TestPayLineRejectsOverpayment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	bread := f.addArticle(t, "Brood", "10.00", "0.00")
	sale := f.createSale(t,
		saledomain.LineRequest{ArticleID: bread.String(), Quantity: decimal.RequireFromString("1")},
	)

	_, err := f.svc.PayLine(ctx, sale.ID.String(), sale.Lines[0].ID.String(), saledomain.PayRequest{
		Amount: decimal.RequireFromString("10.01"),
	})
	assert.ErrorIs(t, err, saledomain.ErrOverpayment)

	_, err = f.svc.PayLine(ctx, sale.ID.String(), sale.Lines[0].ID.String(), saledomain.PayRequest{
		Amount: decimal.RequireFromString("0"),
	})
	assert.ErrorIs(t, err, saledomain.ErrInvalidAmount)

	// A partial payment followed by one that would tip past the total.
	_, err = f.svc.PayLine(ctx, sale.ID.String(), sale.Lines[0].ID.String(), saledomain.PayRequest{
		Amount: decimal.RequireFromString("8.00"),
	})
	require.NoError(t, err)
	_, err = f.svc.PayLine(ctx, sale.ID.String(), sale.Lines[0].ID.String(), saledomain.PayRequest{
		Amount: decimal.RequireFromString("2.01"),
	})
	assert.ErrorIs(t, err, saledomain.ErrOverpayment)
}

func TestCreateSaleValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	bread := f.addArticle(t, "Brood", "2.50", "9.00")
	outsider := f.node.Generate()
	require.NoError(t, f.db.Create(&memberdomain.Member{ID: outsider, DisplayName: "Gast", Email: "gast@example.org"}).Error)

	_, err := f.svc.Create(ctx, saledomain.CreateRequest{
		GroupID:  f.groupID.String(),
		SellerID: f.sellerID.String(),
	})
	assert.ErrorIs(t, err, saledomain.ErrNoLines)

	_, err = f.svc.Create(ctx, saledomain.CreateRequest{
		GroupID:  f.groupID.String(),
		SellerID: outsider.String(),
		Lines:    []saledomain.LineRequest{{ArticleID: bread.String(), Quantity: decimal.RequireFromString("1")}},
	})
	assert.ErrorIs(t, err, saledomain.ErrInvalidSeller)

	_, err = f.svc.Get(ctx, f.node.Generate().String())
	assert.ErrorIs(t, err, saledomain.ErrSaleNotFound)
}
