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
	orderdomain "github.com/samenkoop/winkel/internal/order/domain"
	orderrepo "github.com/samenkoop/winkel/internal/order/repository"
	orderservice "github.com/samenkoop/winkel/internal/order/service"
	perioddomain "github.com/samenkoop/winkel/internal/period/domain"
	periodrepo "github.com/samenkoop/winkel/internal/period/repository"
	transportrepo "github.com/samenkoop/winkel/internal/transport/repository"
	transportservice "github.com/samenkoop/winkel/internal/transport/service"
)

type fixedClock struct{ at time.Time }

func (c fixedClock) Now() time.Time { return c.at }

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&memberdomain.Group{},
		&memberdomain.Member{},
		&memberdomain.GroupMember{},
		&catalogdomain.Article{},
		&catalogdomain.ArticleOption{},
		&perioddomain.Period{},
		&perioddomain.PeriodArticle{},
		&orderdomain.Order{},
		&orderdomain.OrderLine{},
		&orderdomain.OrderLineOption{},
	))
	return db
}

type fixture struct {
	db      *gorm.DB
	node    *snowflake.Node
	svc     orderdomain.Service
	groupID snowflake.ID
	buyerID snowflake.ID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := setupTestDB(t)
	node, err := snowflake.NewNode(7)
	require.NoError(t, err)

	periodRepo := periodrepo.Provide()
	transportSvc := transportservice.New(transportservice.Params{
		DB:         db,
		Log:        zap.NewNop(),
		Repo:       transportrepo.Provide(),
		PeriodRepo: periodRepo,
	})
	svc := orderservice.New(orderservice.Params{
		DB:          db,
		Log:         zap.NewNop(),
		GenID:       node,
		Repo:        orderrepo.Provide(),
		CatalogRepo: catalogrepo.Provide(),
		PeriodRepo:  periodRepo,
		MemberRepo:  memberrepo.Provide(),
		Transport:   transportSvc,
		Clock:       fixedClock{at: time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)},
	})

	f := &fixture{db: db, node: node, svc: svc}
	f.groupID = node.Generate()
	f.buyerID = node.Generate()

	require.NoError(t, db.Create(&memberdomain.Group{ID: f.groupID, Name: "Buurtgroep Noord", Slug: "buurtgroep-noord"}).Error)
	require.NoError(t, db.Create(&memberdomain.Member{ID: f.buyerID, DisplayName: "Anna", Email: "anna@example.org"}).Error)
	require.NoError(t, db.Create(&memberdomain.GroupMember{ID: node.Generate(), GroupID: f.groupID, MemberID: f.buyerID, Role: memberdomain.RoleMember}).Error)
	return f
}

func (f *fixture) addMember(t *testing.T, name string) snowflake.ID {
	t.Helper()
	id := f.node.Generate()
	require.NoError(t, f.db.Create(&memberdomain.Member{ID: id, DisplayName: name, Email: strings.ToLower(name) + "@example.org"}).Error)
	require.NoError(t, f.db.Create(&memberdomain.GroupMember{ID: f.node.Generate(), GroupID: f.groupID, MemberID: id}).Error)
	return id
}

func (f *fixture) addArticle(t *testing.T, name, price, taxRate string) snowflake.ID {
	t.Helper()
	id := f.node.Generate()
	require.NoError(t, f.db.Create(&catalogdomain.Article{
		ID:        id,
		GroupID:   f.groupID,
		Name:      name,
		Slug:      strings.ToLower(name),
		Unit:      "piece",
		UnitPrice: mustDecimal(t, price),
		TaxRate:   mustDecimal(t, taxRate),
		Visible:   true,
	}).Error)
	return id
}

func (f *fixture) addOption(t *testing.T, articleID snowflake.ID, name, delta string, required bool) snowflake.ID {
	t.Helper()
	id := f.node.Generate()
	require.NoError(t, f.db.Create(&catalogdomain.ArticleOption{
		ID:         id,
		ArticleID:  articleID,
		Name:       name,
		Required:   required,
		PriceDelta: mustDecimal(t, delta),
	}).Error)
	return id
}

func (f *fixture) addPeriod(t *testing.T, name, transportCost string) snowflake.ID {
	t.Helper()
	id := f.node.Generate()
	require.NoError(t, f.db.Create(&perioddomain.Period{
		ID:            id,
		GroupID:       f.groupID,
		SupplierID:    f.node.Generate(),
		Name:          name,
		StartsAt:      time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		EndsAt:        time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		TransportCost: mustDecimal(t, transportCost),
	}).Error)
	return id
}

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func qty(t *testing.T, s string) decimal.Decimal { return mustDecimal(t, s) }

func TestCreateOrderPricesTaxInclusiveLines(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	articleID := f.addArticle(t, "Zuurdesem", "4.50", "21.00")
	optionID := f.addOption(t, articleID, "Gesneden", "1.00", true)

	resp, err := f.svc.Create(ctx, orderdomain.CreateRequest{
		GroupID: f.groupID.String(),
		BuyerID: f.buyerID.String(),
		Lines: []orderdomain.LineRequest{{
			ArticleID: articleID.String(),
			Quantity:  qty(t, "2"),
			OptionIDs: []string{optionID.String()},
		}},
	})
	require.NoError(t, err)

	// (4.50 + 1.00) * 2 = 11.00, plus 21% tax = 13.31
	assert.Equal(t, "13.31", resp.TotalAmount.StringFixed(2))
	assert.Equal(t, "0.00", resp.PaidAmount.StringFixed(2))
	assert.Equal(t, orderdomain.PaymentStatusUnpaid, resp.PaymentStatus)
	require.Len(t, resp.Lines, 1)
	assert.Equal(t, "13.31", resp.Lines[0].TotalPrice.StringFixed(2))
	assert.Equal(t, "Zuurdesem", resp.Lines[0].ArticleName)
	require.Len(t, resp.Lines[0].Options, 1)
	assert.Equal(t, "1.00", resp.Lines[0].Options[0].PriceDelta.StringFixed(2))
}

func TestCreateOrderUsesPeriodPriceOverride(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	articleID := f.addArticle(t, "Kaas", "10.00", "9.00")
	periodID := f.addPeriod(t, "Maart", "0.00")
	require.NoError(t, f.db.Create(&perioddomain.PeriodArticle{
		ID:        f.node.Generate(),
		PeriodID:  periodID,
		ArticleID: articleID,
		UnitPrice: mustDecimal(t, "8.00"),
	}).Error)

	pid := periodID.String()
	resp, err := f.svc.Create(ctx, orderdomain.CreateRequest{
		GroupID: f.groupID.String(),
		BuyerID: f.buyerID.String(),
		Lines: []orderdomain.LineRequest{{
			ArticleID: articleID.String(),
			PeriodID:  &pid,
			Quantity:  qty(t, "1"),
		}},
	})
	require.NoError(t, err)

	// 8.00 * 1.09 = 8.72, from the period price list rather than the catalog
	assert.Equal(t, "8.72", resp.TotalAmount.StringFixed(2))
	assert.Equal(t, "8.00", resp.Lines[0].UnitPrice.StringFixed(2))
}

func TestCreateOrderValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	articleID := f.addArticle(t, "Melk", "1.20", "9.00")
	f.addOption(t, articleID, "Glazen fles", "0.50", true)

	outsider := f.node.Generate()
	require.NoError(t, f.db.Create(&memberdomain.Member{ID: outsider, DisplayName: "Gast", Email: "gast@example.org"}).Error)

	line := func(q string, opts ...string) []orderdomain.LineRequest {
		return []orderdomain.LineRequest{{ArticleID: articleID.String(), Quantity: qty(t, q), OptionIDs: opts}}
	}

	cases := []struct {
		name    string
		req     orderdomain.CreateRequest
		wantErr error
	}{
		{
			name:    "no lines",
			req:     orderdomain.CreateRequest{GroupID: f.groupID.String(), BuyerID: f.buyerID.String()},
			wantErr: orderdomain.ErrNoLines,
		},
		{
			name:    "zero quantity",
			req:     orderdomain.CreateRequest{GroupID: f.groupID.String(), BuyerID: f.buyerID.String(), Lines: line("0")},
			wantErr: orderdomain.ErrInvalidQuantity,
		},
		{
			name:    "too many fractional digits",
			req:     orderdomain.CreateRequest{GroupID: f.groupID.String(), BuyerID: f.buyerID.String(), Lines: line("0.0001")},
			wantErr: orderdomain.ErrInvalidQuantity,
		},
		{
			name:    "buyer outside the group",
			req:     orderdomain.CreateRequest{GroupID: f.groupID.String(), BuyerID: outsider.String(), Lines: line("1")},
			wantErr: orderdomain.ErrInvalidBuyer,
		},
		{
			name:    "required option missing",
			req:     orderdomain.CreateRequest{GroupID: f.groupID.String(), BuyerID: f.buyerID.String(), Lines: line("1")},
			wantErr: orderdomain.ErrMissingRequiredOption,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, tc.req)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestCreateOrderRejectsForeignAndHiddenArticles(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	otherGroup := f.node.Generate()
	require.NoError(t, f.db.Create(&memberdomain.Group{ID: otherGroup, Name: "Elders", Slug: "elders"}).Error)
	foreign := f.node.Generate()
	require.NoError(t, f.db.Create(&catalogdomain.Article{
		ID: foreign, GroupID: otherGroup, Name: "Honing", Slug: "honing",
		Unit: "jar", UnitPrice: mustDecimal(t, "6.00"), Visible: true,
	}).Error)

	hidden := f.node.Generate()
	require.NoError(t, f.db.Create(&catalogdomain.Article{
		ID: hidden, GroupID: f.groupID, Name: "Seizoensgroente", Slug: "seizoensgroente",
		Unit: "box", UnitPrice: mustDecimal(t, "12.00"), Visible: false,
	}).Error)

	_, err := f.svc.Create(ctx, orderdomain.CreateRequest{
		GroupID: f.groupID.String(),
		BuyerID: f.buyerID.String(),
		Lines:   []orderdomain.LineRequest{{ArticleID: foreign.String(), Quantity: qty(t, "1")}},
	})
	assert.ErrorIs(t, err, orderdomain.ErrArticleWrongGroup)

	_, err = f.svc.Create(ctx, orderdomain.CreateRequest{
		GroupID: f.groupID.String(),
		BuyerID: f.buyerID.String(),
		Lines:   []orderdomain.LineRequest{{ArticleID: hidden.String(), Quantity: qty(t, "1")}},
	})
	assert.ErrorIs(t, err, orderdomain.ErrArticleUnavailable)
}

func TestUpdateLinePreservesPaidFraction(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	articleID := f.addArticle(t, "Aardappelen", "50.00", "0.00")
	created, err := f.svc.Create(ctx, orderdomain.CreateRequest{
		GroupID: f.groupID.String(),
		BuyerID: f.buyerID.String(),
		Lines:   []orderdomain.LineRequest{{ArticleID: articleID.String(), Quantity: qty(t, "2")}},
	})
	require.NoError(t, err)
	require.Equal(t, "100.00", created.TotalAmount.StringFixed(2))

	// Buyer has paid half.
	require.NoError(t, f.db.Exec(
		`UPDATE orders SET paid_amount = ? WHERE id = ?`,
		mustDecimal(t, "50.00"), created.ID,
	).Error)

	newQty := qty(t, "1.6")
	resp, err := f.svc.UpdateLine(ctx, created.ID.String(), created.Lines[0].ID.String(), orderdomain.UpdateLineRequest{
		Quantity: &newQty,
	})
	require.NoError(t, err)

	assert.Equal(t, "80.00", resp.TotalAmount.StringFixed(2))
	assert.Equal(t, "40.00", resp.PaidAmount.StringFixed(2))
	assert.Equal(t, orderdomain.PaymentStatusUnpaid, resp.PaymentStatus)
}

func TestUpdateLineScalesFullyPaidOrderUp(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	articleID := f.addArticle(t, "Eieren", "10.00", "0.00")
	created, err := f.svc.Create(ctx, orderdomain.CreateRequest{
		GroupID: f.groupID.String(),
		BuyerID: f.buyerID.String(),
		Lines:   []orderdomain.LineRequest{{ArticleID: articleID.String(), Quantity: qty(t, "1")}},
	})
	require.NoError(t, err)

	require.NoError(t, f.db.Exec(
		`UPDATE orders SET paid_amount = ?, payment_status = ? WHERE id = ?`,
		mustDecimal(t, "10.00"), orderdomain.PaymentStatusPaid, created.ID,
	).Error)

	newQty := qty(t, "2")
	resp, err := f.svc.UpdateLine(ctx, created.ID.String(), created.Lines[0].ID.String(), orderdomain.UpdateLineRequest{
		Quantity: &newQty,
	})
	require.NoError(t, err)

	// Ratio 1.0 carries over: the grown order stays fully paid.
	assert.Equal(t, "20.00", resp.TotalAmount.StringFixed(2))
	assert.Equal(t, "20.00", resp.PaidAmount.StringFixed(2))
	assert.Equal(t, orderdomain.PaymentStatusPaid, resp.PaymentStatus)
}

func TestUpdateRetiredLineRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	articleID := f.addArticle(t, "Boter", "3.00", "9.00")
	created, err := f.svc.Create(ctx, orderdomain.CreateRequest{
		GroupID: f.groupID.String(),
		BuyerID: f.buyerID.String(),
		Lines:   []orderdomain.LineRequest{{ArticleID: articleID.String(), Quantity: qty(t, "1")}},
	})
	require.NoError(t, err)

	// Article retired from the catalog: the line stays for history only.
	require.NoError(t, f.db.Exec(
		`UPDATE order_lines SET article_id = NULL WHERE id = ?`, created.Lines[0].ID,
	).Error)

	newQty := qty(t, "2")
	_, err = f.svc.UpdateLine(ctx, created.ID.String(), created.Lines[0].ID.String(), orderdomain.UpdateLineRequest{
		Quantity: &newQty,
	})
	assert.ErrorIs(t, err, orderdomain.ErrArticleUnavailable)
}

func TestRetiredLineExcludedFromTotals(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	bread := f.addArticle(t, "Brood", "2.00", "0.00")
	jam := f.addArticle(t, "Jam", "4.00", "0.00")
	created, err := f.svc.Create(ctx, orderdomain.CreateRequest{
		GroupID: f.groupID.String(),
		BuyerID: f.buyerID.String(),
		Lines: []orderdomain.LineRequest{
			{ArticleID: bread.String(), Quantity: qty(t, "1")},
			{ArticleID: jam.String(), Quantity: qty(t, "1")},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "6.00", created.TotalAmount.StringFixed(2))

	require.NoError(t, f.db.Exec(
		`UPDATE order_lines SET article_id = NULL WHERE id = ?`, created.Lines[1].ID,
	).Error)

	// Any surviving-line edit recomputes the total without the retired line.
	newQty := qty(t, "2")
	resp, err := f.svc.UpdateLine(ctx, created.ID.String(), created.Lines[0].ID.String(), orderdomain.UpdateLineRequest{
		Quantity: &newQty,
	})
	require.NoError(t, err)
	assert.Equal(t, "4.00", resp.TotalAmount.StringFixed(2))
	assert.Len(t, resp.Lines, 2)
}

func TestDeleteLineRescalesPaidAmount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	bread := f.addArticle(t, "Brood", "30.00", "0.00")
	jam := f.addArticle(t, "Jam", "70.00", "0.00")
	created, err := f.svc.Create(ctx, orderdomain.CreateRequest{
		GroupID: f.groupID.String(),
		BuyerID: f.buyerID.String(),
		Lines: []orderdomain.LineRequest{
			{ArticleID: bread.String(), Quantity: qty(t, "1")},
			{ArticleID: jam.String(), Quantity: qty(t, "1")},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "100.00", created.TotalAmount.StringFixed(2))

	require.NoError(t, f.db.Exec(
		`UPDATE orders SET paid_amount = ? WHERE id = ?`,
		mustDecimal(t, "50.00"), created.ID,
	).Error)

	resp, err := f.svc.DeleteLine(ctx, created.ID.String(), created.Lines[1].ID.String())
	require.NoError(t, err)
	require.NotNil(t, resp)

	assert.Equal(t, "30.00", resp.TotalAmount.StringFixed(2))
	assert.Equal(t, "15.00", resp.PaidAmount.StringFixed(2))
	assert.Len(t, resp.Lines, 1)
}

func TestDeleteLastLineRemovesOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	articleID := f.addArticle(t, "Brood", "2.50", "9.00")
	created, err := f.svc.Create(ctx, orderdomain.CreateRequest{
		GroupID: f.groupID.String(),
		BuyerID: f.buyerID.String(),
		Lines:   []orderdomain.LineRequest{{ArticleID: articleID.String(), Quantity: qty(t, "1")}},
	})
	require.NoError(t, err)

	resp, err := f.svc.DeleteLine(ctx, created.ID.String(), created.Lines[0].ID.String())
	require.NoError(t, err)
	assert.Nil(t, resp)

	_, err = f.svc.Get(ctx, created.ID.String())
	assert.ErrorIs(t, err, orderdomain.ErrOrderNotFound)

	var lineCount int64
	require.NoError(t, f.db.Raw(`SELECT COUNT(*) FROM order_lines WHERE order_id = ?`, created.ID).Scan(&lineCount).Error)
	assert.Zero(t, lineCount)
}

func TestOrderResponseCarriesTransportShare(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	articleID := f.addArticle(t, "Groentepakket", "15.00", "9.00")
	periodID := f.addPeriod(t, "Maart", "10.00")
	pid := periodID.String()

	buyers := []snowflake.ID{f.buyerID, f.addMember(t, "Bram"), f.addMember(t, "Carla")}
	var first *orderdomain.Response
	for _, buyer := range buyers {
		resp, err := f.svc.Create(ctx, orderdomain.CreateRequest{
			GroupID: f.groupID.String(),
			BuyerID: buyer.String(),
			Lines: []orderdomain.LineRequest{{
				ArticleID: articleID.String(),
				PeriodID:  &pid,
				Quantity:  qty(t, "1"),
			}},
		})
		require.NoError(t, err)
		if first == nil {
			first = resp
		}
	}

	// 10.00 across 3 buyers rounds to 3.33 each; the total stays goods-only.
	got, err := f.svc.Get(ctx, first.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "3.33", got.TransportCost.StringFixed(2))
	assert.Equal(t, "16.35", got.TotalAmount.StringFixed(2))
}

func TestListOrdersFiltersByBuyer(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	articleID := f.addArticle(t, "Brood", "2.00", "0.00")
	other := f.addMember(t, "Daan")
	for _, buyer := range []snowflake.ID{f.buyerID, f.buyerID, other} {
		_, err := f.svc.Create(ctx, orderdomain.CreateRequest{
			GroupID: f.groupID.String(),
			BuyerID: buyer.String(),
			Lines:   []orderdomain.LineRequest{{ArticleID: articleID.String(), Quantity: qty(t, "1")}},
		})
		require.NoError(t, err)
	}

	all, err := f.svc.List(ctx, orderdomain.ListQuery{GroupID: f.groupID.String()})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	mine, err := f.svc.List(ctx, orderdomain.ListQuery{GroupID: f.groupID.String(), BuyerID: f.buyerID.String()})
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}
