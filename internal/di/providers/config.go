// Package providers contains dependency injection providers for tdl.
package providers

import (
	"github.com/samber/do/v2"

	"github.com/tgienger/tdl/internal/config"
	"github.com/tgienger/tdl/internal/logger"
)

// BuildInfo describes the running binary, set from ldflags
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	opts := do.MustInvoke[config.Options](i)
	return config.Load(opts)
}

// ProvideLogger provides the structured logger. Changes to log.level in the
// config file apply without a restart.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)
	build := do.MustInvoke[BuildInfo](i)

	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	log.Infow("Starting tdl",
		"version", build.Version,
		"commit", build.Commit,
		"log_level", cfg.Log.Level,
		"config_file", cfg.File(),
	)

	cfg.Watch(func(next *config.Config, err error) {
		if err != nil {
			log.Warnw("Ignoring invalid config change", "error", err)
			return
		}
		if err := log.SetLevel(next.Log.Level); err != nil {
			log.Warnw("Failed to apply log level", "error", err)
			return
		}
		log.Infow("Config reloaded", "log_level", next.Log.Level)
	})

	return log, nil
}
