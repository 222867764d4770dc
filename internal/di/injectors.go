//go:build wireinject
// +build wireinject

package di

import (
	wire "github.com/google/wire"

	"festmap/internal"
	"festmap/internal/controllers"
	"festmap/internal/ingest"
	"festmap/internal/places"
	"festmap/internal/providers"
	"festmap/internal/publish"
	"festmap/internal/services"
	"festmap/internal/store"
	"festmap/internal/structures"
)

func InitApp(cfg *structures.CliFlags) (*internal.App, error) {

	wire.Build(
		providers.NewConfigProvider,
		providers.NewLogProvider,
		providers.NewMetricsProvider,
		providers.NewInstrumentedCacheProvider,

		store.NewRowStore,
		store.NewMediaStore,
		services.NewPostService,
		publish.NewPublisher,
		places.NewClient,

		ingest.NewZstdCompressor,
		ingest.NewFileManager,
		ingest.NewPinArchive,
		ingest.NewScheduler,

		controllers.NewApiController,
		controllers.NewHealthController,
		internal.InitRoutes,
		internal.NewApp,
	)

	return nil, nil
}
