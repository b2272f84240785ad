package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"HedgeDesk/internal/domain/repository"
	"HedgeDesk/internal/service/pricefeed"
	"HedgeDesk/internal/usecase"
	pkgcache "HedgeDesk/pkg/cache"
	pkgch "HedgeDesk/pkg/clickhouse"
	"HedgeDesk/pkg/config"
	xhttp "HedgeDesk/pkg/http"
	pkgkafka "HedgeDesk/pkg/kafka"
	applogger "HedgeDesk/pkg/logger"
	pkgqueue "HedgeDesk/pkg/queue"

	"github.com/labstack/echo/v4"
)

// RouteSet bundles multiple route groups into one pkg/http Handler.
type RouteSet struct {
	handlers []xhttp.Handler
}

// NewRouteSet composes handlers into a single registration point.
func NewRouteSet(handlers ...xhttp.Handler) *RouteSet {
	return &RouteSet{handlers: handlers}
}

func (r *RouteSet) RegisterRoutes(e *echo.Echo) {
	for _, h := range r.handlers {
		h.RegisterRoutes(e)
	}
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	l          *applogger.Logger
	handler    xhttp.Handler
	collector  *usecase.PriceCollector
	backfiller *pricefeed.Backfiller
	prices     repository.PriceStore
	consumer   *pkgkafka.Consumer
	ch         pkgkafka.MessageHandler
	queue      *pkgqueue.RedisQueue
	chClient   *pkgch.Client
	redisCache *pkgcache.RedisCache
	publisher  repository.RebuildPublisher
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	handler xhttp.Handler,
	collector *usecase.PriceCollector,
	backfiller *pricefeed.Backfiller,
	prices repository.PriceStore,
	consumer *pkgkafka.Consumer,
	ch pkgkafka.MessageHandler,
	queue *pkgqueue.RedisQueue,
	chClient *pkgch.Client,
	redisCache *pkgcache.RedisCache,
	publisher repository.RebuildPublisher,
) *App {
	return &App{
		cfg:        cfg,
		l:          l,
		handler:    handler,
		collector:  collector,
		backfiller: backfiller,
		prices:     prices,
		consumer:   consumer,
		ch:         ch,
		queue:      queue,
		chClient:   chClient,
		redisCache: redisCache,
		publisher:  publisher,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	if a.cfg.PriceFeed.Enabled {
		a.backfill(ctx)
		go func() {
			if err := a.collector.Start(ctx); err != nil {
				a.l.Error("collector error", applogger.Error(err))
			}
		}()
		a.l.Info("price collector started", applogger.Strings("commodities", a.cfg.PriceFeed.Commodities))
	}

	if a.consumer != nil && a.ch != nil {
		a.consumer.RegisterHandler(a.ch)
		go func() {
			if err := a.consumer.Start(); err != nil {
				a.l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		a.l.Info("kafka consumer started", applogger.String("topic", a.ch.Topic()))
	}

	if a.queue != nil {
		if err := a.queue.Start(); err != nil {
			a.l.Error("rebuild queue start error", applogger.Error(err))
			return err
		}
		a.l.Info("rebuild queue started", applogger.Int("workers", a.cfg.Rebuild.Workers))
	}

	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// backfill fills the estimation window from the REST history API before the
// live stream takes over.
func (a *App) backfill(ctx context.Context) {
	if a.backfiller == nil || a.cfg.PriceFeed.BackfillDays <= 0 {
		return
	}
	to := time.Now().UTC()
	from := to.AddDate(0, 0, -a.cfg.PriceFeed.BackfillDays)
	for _, commodity := range a.cfg.PriceFeed.Commodities {
		obs, err := a.backfiller.History(ctx, commodity, from, to)
		if err != nil {
			a.l.Warn("price backfill failed",
				applogger.String("commodity", commodity),
				applogger.Error(err),
			)
			continue
		}
		if err := a.prices.Append(ctx, obs); err != nil {
			a.l.Warn("price backfill store failed",
				applogger.String("commodity", commodity),
				applogger.Error(err),
			)
			continue
		}
		a.l.Info("price history backfilled",
			applogger.String("commodity", commodity),
			applogger.Int("observations", len(obs)),
		)
	}
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	a.l.Info("shutting down...")

	if a.cfg.PriceFeed.Enabled && a.collector != nil {
		if err := a.collector.Shutdown(ctx); err != nil {
			a.l.Warn("collector stop error", applogger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if a.queue != nil {
		if err := a.queue.Stop(shutdownCtx); err != nil {
			a.l.Warn("rebuild queue stop error", applogger.Error(err))
		}
	}

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.l.Warn("rebuild publisher close error", applogger.Error(err))
		}
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	if a.redisCache != nil {
		if err := a.redisCache.Close(); err != nil {
			a.l.Warn("redis close error", applogger.Error(err))
		}
	}

	a.l.Info("shutdown complete")
	return nil
}
