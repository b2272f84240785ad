//go:build wireinject
// +build wireinject

package di

import (
	"HedgeDesk/pkg/config"
	"HedgeDesk/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient services
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideRedisCache,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,

		// Repositories
		ProvidePriceStore,
		ProvideCommitmentStore,
		ProvideBucketStore,
		ProvideHedgeStore,
		ProvideRebuildPublisher,
		ProvidePriceStream,

		// Engine and market data
		ProvideEstimator,
		ProvideTTLCache,
		ProvideMarketData,

		// Use cases
		ProvideExposureService,
		ProvideRebuildQueue,
		ProvideCommitmentsHandler,
		ProvideTimelineService,
		ProvidePreviewService,
		ProvideHedgeService,
		ProvidePriceCollector,
		ProvideBackfiller,

		// HTTP surface and application server
		ProvideHTTPHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
