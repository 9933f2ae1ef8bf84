package providers

import (
	"github.com/samber/do/v2"

	"github.com/tgienger/tdl/internal/config"
	"github.com/tgienger/tdl/internal/db"
	"github.com/tgienger/tdl/internal/ids"
	"github.com/tgienger/tdl/internal/logger"
	"github.com/tgienger/tdl/internal/store"
)

// DatabaseHandle wraps the database with shutdown capability.
type DatabaseHandle struct {
	*db.DB
}

// Shutdown implements do.Shutdownable.
func (h *DatabaseHandle) Shutdown() error {
	return h.Close()
}

// ProvideDatabase opens the SQLite database.
func ProvideDatabase(i do.Injector) (*DatabaseHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	database, err := db.New(cfg.DBPath())
	if err != nil {
		return nil, err
	}

	log.Infow("Database initialized", "path", database.Path())
	return &DatabaseHandle{DB: database}, nil
}

// SnapshotSinkHandle flushes pending writes on shutdown.
type SnapshotSinkHandle struct {
	*db.SnapshotSink
}

// Shutdown implements do.Shutdownable.
func (h *SnapshotSinkHandle) Shutdown() error {
	return h.Close()
}

// ProvideSnapshotSink provides the debounced snapshot writer.
func ProvideSnapshotSink(i do.Injector) (*SnapshotSinkHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	database := do.MustInvoke[*DatabaseHandle](i)

	sink := db.NewSnapshotSink(database.DB, cfg.Data.SaveDebounce, log.Named("snapshot").SugaredLogger)
	return &SnapshotSinkHandle{SnapshotSink: sink}, nil
}

// ProvideStore loads the persisted snapshot, or seeds the default tags on first run.
func ProvideStore(i do.Injector) (*store.Store, error) {
	log := do.MustInvoke[*logger.Logger](i)
	database := do.MustInvoke[*DatabaseHandle](i)
	sink := do.MustInvoke[*SnapshotSinkHandle](i)

	state, found, err := database.LoadSnapshot()
	if err != nil {
		return nil, err
	}
	if !found {
		state = store.DefaultState(ids.MustGenerate)
		if err := database.SaveSnapshot(state); err != nil {
			return nil, err
		}
		log.Infow("Created new task list", "tags", len(state.Tags))
	} else {
		log.Infow("Loaded task list", "tasks", len(state.Tasks), "tags", len(state.Tags))
	}

	return store.New(
		store.WithState(state),
		store.WithPersister(sink),
		store.WithLogger(log.Named("store").SugaredLogger),
	), nil
}
