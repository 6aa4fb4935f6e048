package migration

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	catalogdomain "github.com/samenkoop/winkel/internal/catalog/domain"
	"github.com/samenkoop/winkel/internal/config"
	memberdomain "github.com/samenkoop/winkel/internal/member/domain"
	orderdomain "github.com/samenkoop/winkel/internal/order/domain"
	perioddomain "github.com/samenkoop/winkel/internal/period/domain"
	saledomain "github.com/samenkoop/winkel/internal/sale/domain"
	"github.com/samenkoop/winkel/internal/seed"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, storefront *config.StorefrontHolder) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// sqlite and mysql are for local development only; gorm's
			// migrator keeps them in sync with the models.
			if err := conn.AutoMigrate(
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
				&saledomain.Sale{},
				&saledomain.SaleLine{},
			); err != nil {
				return err
			}
		}

		if cfg.SeedDemo {
			return seed.EnsureDemoGroup(conn, storefront.Get())
		}
		return nil
	}),
)
