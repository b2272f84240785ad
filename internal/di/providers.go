package di

import (
	"context"
	"fmt"
	"time"

	"HedgeDesk/internal/domain/repository"
	"HedgeDesk/internal/handler/api"
	mid "HedgeDesk/internal/middleware"
	internalrepo "HedgeDesk/internal/repository"
	"HedgeDesk/internal/risk"
	icache "HedgeDesk/internal/service/cache"
	"HedgeDesk/internal/service/pricefeed"
	"HedgeDesk/internal/usecase"
	pkgcache "HedgeDesk/pkg/cache"
	pkgch "HedgeDesk/pkg/clickhouse"
	"HedgeDesk/pkg/config"
	pkghttp "HedgeDesk/pkg/http"
	pkgkafka "HedgeDesk/pkg/kafka"
	applogger "HedgeDesk/pkg/logger"
	"HedgeDesk/pkg/metrics"
	pkgqueue "HedgeDesk/pkg/queue"
	"HedgeDesk/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideClickHouseClient creates a ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db := cfg.ClickHouse.Database
	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS " + db,
		"CREATE TABLE IF NOT EXISTS " + db + ".price_observations (obs_date Date, commodity String, contract_month Date, price Float64) ENGINE=ReplacingMergeTree ORDER BY (commodity, contract_month, obs_date)",
		"CREATE TABLE IF NOT EXISTS " + db + ".purchase_commitments (id String, tenant_id String, commodity String, delivery_start Date, delivery_end Date, quantity Float64, unit_price Float64, ingested_at DateTime) ENGINE=MergeTree ORDER BY (tenant_id, delivery_start, id)",
		"CREATE TABLE IF NOT EXISTS " + db + ".exposure_buckets (tenant_id String, commodity String, month Date, quantity Float64, commitment_id String) ENGINE=MergeTree ORDER BY (tenant_id, commodity, month, commitment_id)",
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideRedisCache creates the shared Redis cache service.
func ProvideRedisCache(cfg *config.Config) (*pkgcache.RedisCache, error) {
	return pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(cfg.Redis.Host),
		pkgcache.WithRedisPort(cfg.Redis.Port),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
		pkgcache.WithRedisPrefix(cfg.Redis.Prefix),
	)
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvidePriceStore creates the ClickHouse price store.
func ProvidePriceStore(ch *pkgch.Client, l *applogger.Logger) repository.PriceStore {
	s := internalrepo.NewCHPriceStore(ch)
	s.SetLogger(l)
	return s
}

// ProvideCommitmentStore creates the ClickHouse commitment ingest log.
func ProvideCommitmentStore(ch *pkgch.Client, l *applogger.Logger) repository.CommitmentStore {
	s := internalrepo.NewCHCommitmentStore(ch)
	s.SetLogger(l)
	return s
}

// ProvideBucketStore creates the ClickHouse exposure bucket store.
func ProvideBucketStore(ch *pkgch.Client, l *applogger.Logger) repository.BucketStore {
	s := internalrepo.NewCHBucketStore(ch)
	s.SetLogger(l)
	return s
}

// ProvideHedgeStore creates the Redis hedge session store.
func ProvideHedgeStore(c *pkgcache.RedisCache, l *applogger.Logger) repository.HedgeSessionStore {
	s := internalrepo.NewRedisHedgeStore(c)
	s.SetLogger(l)
	return s
}

// ProvideRebuildPublisher creates the Kafka rebuild event publisher.
func ProvideRebuildPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.RebuildPublisher {
	return internalrepo.NewKafkaRebuildPublisher(producer, cfg.Kafka.RebuiltTopic)
}

// ProvidePriceStream creates the vendor WebSocket price stream.
func ProvidePriceStream(cfg *config.Config) repository.PriceStream {
	return pricefeed.New(
		cfg.PriceFeed.APIKey,
		cfg.PriceFeed.WebSocketURL,
		cfg.PriceFeed.Commodities,
		cfg.PriceFeed.ReconnectDelay,
		cfg.PriceFeed.PingInterval,
	)
}

// ProvideBackfiller creates the REST price history client.
func ProvideBackfiller(cfg *config.Config) *pricefeed.Backfiller {
	client := pkghttp.NewClient()
	return pricefeed.NewBackfiller(client, cfg.PriceFeed.RestURL, cfg.PriceFeed.APIKey)
}

// ProvideEstimator creates the volatility/correlation estimator.
func ProvideEstimator(cfg *config.Config) *risk.Estimator {
	return risk.NewEstimator(risk.Config{
		HistoryDays:           cfg.Risk.HistoryDays,
		TradingPeriodsPerYear: cfg.Risk.TradingPeriodsPerYear,
		VolatilityFloor:       cfg.Risk.VolatilityFloor,
	})
}

// ProvideTTLCache creates the in-process snapshot cache.
func ProvideTTLCache() *icache.TTLCache {
	return icache.NewTTLCache()
}

// ProvideMarketData creates the market data loader.
func ProvideMarketData(prices repository.PriceStore, est *risk.Estimator, ttl *icache.TTLCache, cfg *config.Config) *usecase.MarketDataService {
	return usecase.NewMarketDataService(prices, est, ttl, cfg.Risk.SnapshotCacheTTL, cfg.Risk.HistoryDays)
}

// ProvideExposureService creates the exposure rebuild/summary use case.
func ProvideExposureService(
	commitments repository.CommitmentStore,
	buckets repository.BucketStore,
	publisher repository.RebuildPublisher,
	c *pkgcache.RedisCache,
	m repository.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.ExposureService {
	// Summary reads go through a memory-fronted layer; locks stay on Redis.
	layered := pkgcache.NewLayeredCache(c)
	return usecase.NewExposureService(commitments, buckets, publisher, layered, m, l, cfg.Rebuild.LockTTL)
}

// ProvideRebuildQueue creates the Redis-backed async rebuild queue with its
// worker job registered.
func ProvideRebuildQueue(l *applogger.Logger, c *pkgcache.RedisCache, exposure *usecase.ExposureService, m repository.Metrics, cfg *config.Config) *pkgqueue.RedisQueue {
	qcfg := &pkgqueue.QueueConfig{
		Workers:    cfg.Rebuild.Workers,
		QueueSize:  cfg.Rebuild.QueueSize,
		RetryLimit: cfg.Rebuild.RetryLimit,
		RetryDelay: cfg.Rebuild.RetryDelay,
	}
	job := usecase.NewRebuildJob(exposure, m)
	return pkgqueue.NewRedisConsumer(l, qcfg, c.Client(), []pkgqueue.Job{job})
}

// ProvideCommitmentsHandler registers the handler for the commitments topic.
func ProvideCommitmentsHandler(commitments repository.CommitmentStore, q *pkgqueue.RedisQueue, m repository.Metrics, cfg *config.Config) *usecase.CommitmentsKafkaHandler {
	return usecase.NewCommitmentsKafkaHandler(cfg.Kafka.CommitmentsTopic, commitments, q, m)
}

// ProvideTimelineService creates the VaR timeline use case.
func ProvideTimelineService(buckets repository.BucketStore, sessions repository.HedgeSessionStore, market *usecase.MarketDataService, m repository.Metrics) *usecase.TimelineService {
	return usecase.NewTimelineService(buckets, sessions, market, m)
}

// ProvidePreviewService creates the hedge preview use case.
func ProvidePreviewService(buckets repository.BucketStore, sessions repository.HedgeSessionStore, market *usecase.MarketDataService, m repository.Metrics) *usecase.PreviewService {
	return usecase.NewPreviewService(buckets, sessions, market, m)
}

// ProvideHedgeService creates the hedge session use case.
func ProvideHedgeService(sessions repository.HedgeSessionStore, buckets repository.BucketStore, market *usecase.MarketDataService, l *applogger.Logger, cfg *config.Config) *usecase.HedgeService {
	return usecase.NewHedgeService(sessions, buckets, market, l, cfg.Risk.DefaultConfidence)
}

// ProvidePriceCollector creates the price collector with its pipeline.
func ProvidePriceCollector(
	stream repository.PriceStream,
	prices repository.PriceStore,
	m repository.Metrics,
	cfg *config.Config,
) *usecase.PriceCollector {
	proc := usecase.NewPriceProcessor(prices, m, cfg.PriceFeed.BatchSize, cfg.PriceFeed.BatchTimeout)
	pipe := mid.NewRealtimePipeline(proc, m,
		mid.WithMaxRPS(50),
		mid.WithBufferSize(2000),
	)
	return usecase.NewPriceCollector(stream, proc, m, pipe)
}

// ProvideHTTPHandler bundles the route groups into one registration point.
func ProvideHTTPHandler(
	l *applogger.Logger,
	timeline *usecase.TimelineService,
	preview *usecase.PreviewService,
	exposure *usecase.ExposureService,
	hedge *usecase.HedgeService,
	prices repository.PriceStore,
	c *pkgcache.RedisCache,
) pkghttp.Handler {
	respCache := icache.NewRedisBytesCache(c.Client(), "hedgedesk:resp")
	rh := api.NewRiskEchoHandler(l, timeline, preview, exposure)
	rh.SetCache(respCache)
	hh := api.NewHedgeEchoHandler(l, hedge)
	hh.SetCache(respCache)
	return server.NewRouteSet(rh, hh, api.NewHealthEchoHandler(prices))
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	handler pkghttp.Handler,
	collector *usecase.PriceCollector,
	backfiller *pricefeed.Backfiller,
	prices repository.PriceStore,
	consumer *pkgkafka.Consumer,
	ch *usecase.CommitmentsKafkaHandler,
	q *pkgqueue.RedisQueue,
	chClient *pkgch.Client,
	redisCache *pkgcache.RedisCache,
	publisher repository.RebuildPublisher,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	return server.New(cfg, l, handler, collector, backfiller, prices, consumer, ch, q, chClient, redisCache, publisher)
}
