// Package di provides dependency injection configuration for tdl.
package di

import (
	"github.com/samber/do/v2"

	"github.com/tgienger/tdl/internal/config"
	"github.com/tgienger/tdl/internal/di/providers"
)

// NewContainer creates and configures the DI container with all providers.
// Services are built lazily on first invoke, so commands that never touch the
// updater never construct it.
func NewContainer(opts config.Options, build providers.BuildInfo) *do.RootScope {
	injector := do.New()

	do.ProvideValue(injector, opts)
	do.ProvideValue(injector, build)

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Storage layer
	do.Provide(injector, providers.ProvideDatabase)
	do.Provide(injector, providers.ProvideSnapshotSink)
	do.Provide(injector, providers.ProvideStore)

	// Updates
	do.Provide(injector, providers.ProvideUpdater)

	return injector
}
