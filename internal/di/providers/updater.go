package providers

import (
	"github.com/samber/do/v2"

	"github.com/tgienger/tdl/internal/config"
	"github.com/tgienger/tdl/internal/db"
	"github.com/tgienger/tdl/internal/logger"
	"github.com/tgienger/tdl/internal/updater"
)

// ProvideUpdater provides the release feed client. A version the user chose to
// skip is read from settings.
func ProvideUpdater(i do.Injector) (*updater.Updater, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	build := do.MustInvoke[BuildInfo](i)
	database := do.MustInvoke[*DatabaseHandle](i)

	skipped, err := database.GetSetting(db.SettingUpdateSkippedVersion)
	if err != nil {
		log.Warnw("Failed to read skipped update version", "error", err)
	}

	return updater.New(updater.Config{
		CurrentVersion: build.Version,
		FeedURL:        cfg.Update.FeedURL,
		Cooldown:       updater.DefaultCooldown,
		SkippedVersion: skipped,
		Log:            log.Named("updater").SugaredLogger,
	}), nil
}
