// Package seed provisions a demo group with a small catalog and an open
// supply period so a fresh local install has something to order from.
package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	catalogdomain "github.com/samenkoop/winkel/internal/catalog/domain"
	"github.com/samenkoop/winkel/internal/config"
	memberdomain "github.com/samenkoop/winkel/internal/member/domain"
	perioddomain "github.com/samenkoop/winkel/internal/period/domain"
)

const demoGroupName = "Demo Groep"

type demoArticle struct {
	name    string
	unit    string
	price   string
	taxRate string
	options []demoOption
}

type demoOption struct {
	name     string
	delta    string
	required bool
}

// Groceries carry no explicit rate and fall back to the storefront's
// default tax rate; only the non-food article pins its own.
var demoCatalog = []demoArticle{
	{name: "Havermout", unit: "kg", price: "2.10"},
	{name: "Olijfolie", unit: "liter", price: "8.95", options: []demoOption{
		{name: "Glazen fles", delta: "0.75"},
		{name: "Blik", delta: "0.00"},
	}},
	{name: "Koffiebonen", unit: "kg", price: "14.50", options: []demoOption{
		{name: "Maling", delta: "0.50", required: true},
	}},
	{name: "Afwasmiddel", unit: "liter", price: "3.40", taxRate: "21"},
}

// EnsureDemoGroup creates the demo group, members, catalog and one open
// period. It is idempotent: an existing demo group is left untouched.
func EnsureDemoGroup(db *gorm.DB, storefront config.StorefrontConfig) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	defaultTaxRate, err := decimal.NewFromString(storefront.DefaultTaxRate)
	if err != nil {
		return err
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing memberdomain.Group
		err := tx.Where("slug = ?", slug.Make(demoGroupName)).First(&existing).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		group := memberdomain.Group{
			ID:   node.Generate(),
			Name: demoGroupName,
			Slug: slug.Make(demoGroupName),
		}
		if err := tx.Create(&group).Error; err != nil {
			return err
		}

		if err := seedMembers(tx, node, group.ID); err != nil {
			return err
		}

		articleIDs, err := seedCatalog(tx, node, group.ID, defaultTaxRate)
		if err != nil {
			return err
		}

		return seedPeriod(tx, node, group.ID, articleIDs)
	})
}

func seedMembers(tx *gorm.DB, node *snowflake.Node, groupID snowflake.ID) error {
	people := []struct {
		name string
		role memberdomain.Role
	}{
		{"Anna de Vries", memberdomain.RoleManager},
		{"Bram Jansen", memberdomain.RoleMember},
		{"Carla Smit", memberdomain.RolePreparer},
	}
	for _, p := range people {
		member := memberdomain.Member{
			ID:          node.Generate(),
			DisplayName: p.name,
			Email:       slug.Make(p.name) + "@example.org",
		}
		if err := tx.Create(&member).Error; err != nil {
			return err
		}
		if err := tx.Create(&memberdomain.GroupMember{
			ID:       node.Generate(),
			GroupID:  groupID,
			MemberID: member.ID,
			Role:     p.role,
		}).Error; err != nil {
			return err
		}
	}
	return nil
}

func seedCatalog(tx *gorm.DB, node *snowflake.Node, groupID snowflake.ID, defaultTaxRate decimal.Decimal) ([]snowflake.ID, error) {
	ids := make([]snowflake.ID, 0, len(demoCatalog))
	for _, a := range demoCatalog {
		taxRate := defaultTaxRate
		if a.taxRate != "" {
			taxRate = decimal.RequireFromString(a.taxRate)
		}
		article := catalogdomain.Article{
			ID:        node.Generate(),
			GroupID:   groupID,
			Name:      a.name,
			Slug:      slug.Make(a.name),
			Unit:      a.unit,
			UnitPrice: decimal.RequireFromString(a.price),
			TaxRate:   taxRate,
			Visible:   true,
		}
		if err := tx.Create(&article).Error; err != nil {
			return nil, err
		}
		ids = append(ids, article.ID)

		for _, o := range a.options {
			if err := tx.Create(&catalogdomain.ArticleOption{
				ID:         node.Generate(),
				ArticleID:  article.ID,
				Name:       o.name,
				Required:   o.required,
				PriceDelta: decimal.RequireFromString(o.delta),
			}).Error; err != nil {
				return nil, err
			}
		}
	}
	return ids, nil
}

func seedPeriod(tx *gorm.DB, node *snowflake.Node, groupID snowflake.ID, articleIDs []snowflake.ID) error {
	now := time.Now().UTC()
	period := perioddomain.Period{
		ID:            node.Generate(),
		GroupID:       groupID,
		SupplierID:    node.Generate(),
		Name:          now.Month().String() + " levering",
		StartsAt:      now.AddDate(0, 0, -7),
		EndsAt:        now.AddDate(0, 0, 7),
		TransportCost: decimal.RequireFromString("12.50"),
	}
	if err := tx.Create(&period).Error; err != nil {
		return err
	}

	// The first article gets a period price so the override path is
	// visible in the demo data.
	if len(articleIDs) > 0 {
		return tx.Create(&perioddomain.PeriodArticle{
			ID:        node.Generate(),
			PeriodID:  period.ID,
			ArticleID: articleIDs[0],
			UnitPrice: decimal.RequireFromString("1.95"),
		}).Error
	}
	return nil
}
