package di

import (
	"path/filepath"
	"testing"

	"github.com/samber/do/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgienger/tdl/internal/config"
	"github.com/tgienger/tdl/internal/di/providers"
	"github.com/tgienger/tdl/internal/store"
	"github.com/tgienger/tdl/internal/updater"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("TDL_DATA_DIR", filepath.Join(dir, "data"))
	t.Setenv("TDL_LOG_FILE", filepath.Join(dir, "state", "tdl.log"))
	t.Setenv("TDL_DATA_SAVE_DEBOUNCE", "1h")
	return dir
}

func TestContainer_SeedsAndPersists(t *testing.T) {
	dir := isolate(t)
	build := providers.BuildInfo{Version: "dev"}

	injector := NewContainer(config.Options{}, build)
	s := do.MustInvoke[*store.Store](injector)

	// first run seeds the default tags
	require.Len(t, s.Tags(), 3)
	s.AddTask("survives restart", nil, nil)
	_ = injector.Shutdown()

	assert.FileExists(t, filepath.Join(dir, "data", "tdl.db"))
	assert.FileExists(t, filepath.Join(dir, "state", "tdl.log"))

	// the debounced write is flushed on shutdown
	injector = NewContainer(config.Options{}, build)
	defer injector.Shutdown()
	s = do.MustInvoke[*store.Store](injector)

	tasks := s.Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, "survives restart", tasks[0].Title)
	assert.Len(t, s.Tags(), 3)
}

func TestContainer_Updater(t *testing.T) {
	isolate(t)

	injector := NewContainer(config.Options{}, providers.BuildInfo{Version: "v1.0.0"})
	defer injector.Shutdown()

	u := do.MustInvoke[*updater.Updater](injector)
	assert.True(t, u.Packaged())
	assert.Equal(t, "v1.0.0", u.CurrentVersion())
}

func TestContainer_InvalidConfig(t *testing.T) {
	isolate(t)
	t.Setenv("TDL_LOG_LEVEL", "loud")

	injector := NewContainer(config.Options{}, providers.BuildInfo{Version: "dev"})
	defer injector.Shutdown()

	_, err := do.Invoke[*store.Store](injector)
	assert.Error(t, err)
}
