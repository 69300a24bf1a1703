//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"github.com/habeneyasu/brent-oil-change-point-analysis/pkg/config"
	"github.com/habeneyasu/brent-oil-change-point-analysis/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Data and statistical engine
		ProvidePriceSource,
		ProvideDetector,
		ProvideAssociator,

		// Infrastructure
		ProvideResultStore,
		ProvidePublisher,
		ProvideCache,

		// Use cases
		ProvideChangePointAnalysis,
		ProvideDataService,

		// HTTP
		ProvideHandler,

		// Application
		ProvideApp,
	)
	return &server.App{}, nil
}
