package seed

import (
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	catalogdomain "github.com/samenkoop/winkel/internal/catalog/domain"
	"github.com/samenkoop/winkel/internal/config"
	memberdomain "github.com/samenkoop/winkel/internal/member/domain"
	perioddomain "github.com/samenkoop/winkel/internal/period/domain"
)

func openSeedDB(t *testing.T) *gorm.DB {
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
	))
	return db
}

func TestEnsureDemoGroupAppliesDefaultTaxRate(t *testing.T) {
	db := openSeedDB(t)

	storefront := config.DefaultStorefrontConfig()
	storefront.DefaultTaxRate = "6"
	require.NoError(t, EnsureDemoGroup(db, storefront))

	var articles []catalogdomain.Article
	require.NoError(t, db.Order("name").Find(&articles).Error)
	require.Len(t, articles, len(demoCatalog))

	byName := make(map[string]catalogdomain.Article, len(articles))
	for _, a := range articles {
		byName[a.Name] = a
	}

	// Articles without an explicit rate pick up the storefront default;
	// the one pinned rate is untouched.
	assert.Equal(t, "6.00", byName["Havermout"].TaxRate.StringFixed(2))
	assert.Equal(t, "6.00", byName["Koffiebonen"].TaxRate.StringFixed(2))
	assert.Equal(t, "21.00", byName["Afwasmiddel"].TaxRate.StringFixed(2))
}

func TestEnsureDemoGroupIsIdempotent(t *testing.T) {
	db := openSeedDB(t)

	storefront := config.DefaultStorefrontConfig()
	require.NoError(t, EnsureDemoGroup(db, storefront))
	require.NoError(t, EnsureDemoGroup(db, storefront))

	var groups int64
	require.NoError(t, db.Model(&memberdomain.Group{}).Count(&groups).Error)
	assert.Equal(t, int64(1), groups)

	var articles int64
	require.NoError(t, db.Model(&catalogdomain.Article{}).Count(&articles).Error)
	assert.Equal(t, int64(len(demoCatalog)), articles)
}

func TestEnsureDemoGroupRejectsBadDefaultTaxRate(t *testing.T) {
	db := openSeedDB(t)

	storefront := config.DefaultStorefrontConfig()
	storefront.DefaultTaxRate = "not-a-rate"
	require.Error(t, EnsureDemoGroup(db, storefront))
}
