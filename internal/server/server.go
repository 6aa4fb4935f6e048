package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/samenkoop/winkel/internal/authorization"
	"github.com/samenkoop/winkel/internal/catalog"
	"github.com/samenkoop/winkel/internal/config"
	"github.com/samenkoop/winkel/internal/member"
	"github.com/samenkoop/winkel/internal/observability"
	obslogger "github.com/samenkoop/winkel/internal/observability/logger"
	obsmetrics "github.com/samenkoop/winkel/internal/observability/metrics"
	obstracing "github.com/samenkoop/winkel/internal/observability/tracing"
	"github.com/samenkoop/winkel/internal/order"
	orderdomain "github.com/samenkoop/winkel/internal/order/domain"
	"github.com/samenkoop/winkel/internal/period"
	"github.com/samenkoop/winkel/internal/providers"
	"github.com/samenkoop/winkel/internal/ratelimit"
	"github.com/samenkoop/winkel/internal/sale"
	saledomain "github.com/samenkoop/winkel/internal/sale/domain"
	"github.com/samenkoop/winkel/internal/settlement"
	settlementdomain "github.com/samenkoop/winkel/internal/settlement/domain"
	"github.com/samenkoop/winkel/internal/transport"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	authorization.Module,
	providers.Module,
	ratelimit.Module,
	catalog.Module,
	period.Module,
	member.Module,
	transport.Module,
	order.Module,
	settlement.Module,
	sale.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server starting", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine        *gin.Engine
	cfg           config.Config
	authzSvc      authorization.Service
	orderSvc      orderdomain.Service
	settlementSvc settlementdomain.Service
	saleSvc       saledomain.Service
	limiter       *ratelimit.RequestLimiter
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	AuthzSvc      authorization.Service
	OrderSvc      orderdomain.Service
	SettlementSvc settlementdomain.Service
	SaleSvc       saledomain.Service
	Limiter       *ratelimit.RequestLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		authzSvc:      p.AuthzSvc,
		orderSvc:      p.OrderSvc,
		settlementSvc: p.SettlementSvc,
		saleSvc:       p.SaleSvc,
		limiter:       p.Limiter,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api/v1", s.IdentityRequired(), s.RateLimit())

	orders := api.Group("/orders")
	{
		orders.POST("", s.RequireAction(authorization.ObjectOrder, authorization.ActionOrderCreate), s.CreateOrder)
		orders.GET("", s.ListOrders)
		orders.GET("/:id", s.RequireAction(authorization.ObjectOrder, authorization.ActionOrderView), s.GetOrder)
		orders.PATCH("/:id/lines/:lineID", s.RequireAction(authorization.ObjectOrder, authorization.ActionOrderEdit), s.UpdateOrderLine)
		orders.DELETE("/:id/lines/:lineID", s.RequireAction(authorization.ObjectOrder, authorization.ActionOrderEdit), s.DeleteOrderLine)
	}

	periods := api.Group("/periods")
	{
		periods.GET("/:id/settlement", s.RequireAction(authorization.ObjectSettlement, authorization.ActionSettlementView), s.GetSettlement)
		periods.GET("/:id/settlement/pdf", s.RequireAction(authorization.ObjectSettlement, authorization.ActionSettlementExport), s.GetSettlementPDF)
		periods.POST("/:id/settlement/paid", s.RequireAction(authorization.ObjectSettlement, authorization.ActionSettlementSettle), s.MarkSettlementPaid)
		periods.POST("/:id/settlement/unpaid", s.RequireAction(authorization.ObjectSettlement, authorization.ActionSettlementSettle), s.MarkSettlementUnpaid)
	}

	sales := api.Group("/sales")
	{
		sales.POST("", s.RequireAction(authorization.ObjectSale, authorization.ActionSaleCreate), s.CreateSale)
		sales.GET("/:id", s.RequireAction(authorization.ObjectSale, authorization.ActionSaleView), s.GetSale)
		sales.POST("/:id/lines/:lineID/payments", s.RequireAction(authorization.ObjectSale, authorization.ActionSalePay), s.PaySaleLine)
	}
}

func classifyErrorForLog(err error) (string, string) {
	if err == nil {
		return "", ""
	}
	_, payload := mapError(err)
	return payload.Type, err.Error()
}
