package views

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgienger/tdl/internal/db"
	"github.com/tgienger/tdl/internal/updater"
)

type memSettings map[string]string

func (m memSettings) GetSetting(key string) (string, error) { return m[key], nil }

func (m memSettings) SetSetting(key, value string) error {
	m[key] = value
	return nil
}

var releaseBinary = []byte("#!/bin/sh\necho tdl v1.1.0\n")

func releaseFeed(t *testing.T, version string) string {
	t.Helper()
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	sum := sha256.Sum256(releaseBinary)
	mux.HandleFunc("/latest.json", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(updater.Info{
			Version: version,
			URL:     srv.URL + "/tdl",
			SHA256:  hex.EncodeToString(sum[:]),
		})
	})
	mux.HandleFunc("/tdl", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(releaseBinary)
	})
	return srv.URL + "/latest.json"
}

// deliver feeds every queued updater event to the banner
func deliver(b *UpdateBanner, u *updater.Updater) {
	for {
		select {
		case ev := <-u.Events():
			b.Update(UpdateEventMsg{ev})
		default:
			return
		}
	}
}

func newBanner(t *testing.T, current, latest string) (*UpdateBanner, *updater.Updater, memSettings) {
	t.Helper()
	b, u, settings, _ := newBannerWithExe(t, current, latest)
	return b, u, settings
}

func newBannerWithExe(t *testing.T, current, latest string) (*UpdateBanner, *updater.Updater, memSettings, string) {
	t.Helper()
	exe := filepath.Join(t.TempDir(), "tdl")
	require.NoError(t, os.WriteFile(exe, []byte("old"), 0755))

	u := updater.New(updater.Config{
		CurrentVersion: current,
		FeedURL:        releaseFeed(t, latest),
		Cooldown:       updater.DefaultCooldown,
		Executable:     exe,
	})
	settings := memSettings{}
	b := NewUpdateBanner(u, settings, func() time.Time { return testNow })
	return b, u, settings, exe
}

func TestUpdateBanner_ManualCheckAvailable(t *testing.T) {
	b, u, settings := newBanner(t, "1.0.0", "1.1.0")
	assert.False(t, b.Visible())

	cmd, ok := b.HandleKey(runes("U"))
	require.True(t, ok)
	require.NotNil(t, cmd)
	assert.Equal(t, bannerChecking, b.state)

	b.Update(cmd())
	deliver(b, u)

	assert.Equal(t, bannerAvailable, b.state)
	assert.Contains(t, b.View(80), "1.1.0 is available")
	assert.Equal(t, testNow.UTC().Format(time.RFC3339), settings[db.SettingUpdateLastChecked])
}

func TestUpdateBanner_ManualCheckUpToDate(t *testing.T) {
	b, u, _ := newBanner(t, "1.1.0", "1.1.0")

	cmd, _ := b.HandleKey(runes("U"))
	b.Update(cmd())
	deliver(b, u)

	assert.Equal(t, bannerUpToDate, b.state)
	assert.Contains(t, b.View(80), "up to date")

	b.Update(updateExpireMsg{seq: b.seq})
	assert.False(t, b.Visible())
}

func TestUpdateBanner_StartupCheckIsSilent(t *testing.T) {
	b, u, settings := newBanner(t, "1.1.0", "1.1.0")

	cmd := b.StartupCheck(24 * time.Hour)
	require.NotNil(t, cmd)
	b.Update(cmd())
	deliver(b, u)

	assert.False(t, b.Visible())
	assert.NotEmpty(t, settings[db.SettingUpdateLastChecked])
}

func TestUpdateBanner_ManualCheckAfterStartupCheck(t *testing.T) {
	b, u, _ := newBanner(t, "1.0.0", "1.1.0")

	cmd := b.StartupCheck(24 * time.Hour)
	require.NotNil(t, cmd)
	b.Update(cmd())
	deliver(b, u)
	require.Equal(t, bannerAvailable, b.state)

	_, ok := b.HandleKey(runes("z"))
	require.True(t, ok)

	cmd, ok = b.HandleKey(runes("U"))
	require.True(t, ok)
	b.Update(cmd())
	deliver(b, u)

	assert.Equal(t, bannerAvailable, b.state)
	assert.NoError(t, b.err)
}

func TestUpdateBanner_StartupCheckNotDue(t *testing.T) {
	b, _, settings := newBanner(t, "1.0.0", "1.1.0")
	settings[db.SettingUpdateLastChecked] = testNow.Add(-time.Hour).Format(time.RFC3339)

	assert.Nil(t, b.StartupCheck(24*time.Hour))
	assert.NotNil(t, b.StartupCheck(30*time.Minute))
}

func TestUpdateBanner_StartupCheckSkipsDevBuilds(t *testing.T) {
	b, _, _ := newBanner(t, "dev", "1.1.0")

	assert.Nil(t, b.StartupCheck(0))
}

func TestUpdateBanner_ManualCheckDevBuild(t *testing.T) {
	b, u, _ := newBanner(t, "dev", "1.1.0")

	cmd, _ := b.HandleKey(runes("U"))
	b.Update(cmd())
	deliver(b, u)

	assert.Equal(t, bannerFailed, b.state)
	assert.ErrorIs(t, b.err, updater.ErrNotPackaged)

	_, ok := b.HandleKey(runes("z"))
	assert.True(t, ok)
	assert.False(t, b.Visible())
}

func TestUpdateBanner_Skip(t *testing.T) {
	b, u, settings := newBanner(t, "1.0.0", "1.1.0")
	cmd, _ := b.HandleKey(runes("U"))
	b.Update(cmd())
	deliver(b, u)
	require.Equal(t, bannerAvailable, b.state)

	_, ok := b.HandleKey(runes("s"))
	require.True(t, ok)

	assert.False(t, b.Visible())
	assert.Equal(t, "1.1.0", settings[db.SettingUpdateSkippedVersion])
}

func TestUpdateBanner_DownloadAndInstall(t *testing.T) {
	b, u, _, exe := newBannerWithExe(t, "1.0.0", "1.1.0")
	cmd, _ := b.HandleKey(runes("U"))
	b.Update(cmd())
	deliver(b, u)
	require.Equal(t, bannerAvailable, b.state)

	cmd, ok := b.HandleKey(runes("u"))
	require.True(t, ok)
	require.NotNil(t, cmd)
	assert.Equal(t, bannerDownloading, b.state)

	// the returned batch also drives the progress animation, so download directly
	path, err := u.Download(t.Context(), b.info)
	require.NoError(t, err)
	deliver(b, u)

	assert.Equal(t, bannerDownloaded, b.state)
	assert.Equal(t, path, b.path)
	assert.Contains(t, b.View(80), "ready")

	cmd, ok = b.HandleKey(runes("i"))
	require.True(t, ok)
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.True(t, b.InstallRequested())

	got, err := os.ReadFile(exe)
	require.NoError(t, err)
	assert.Equal(t, releaseBinary, got)
}

func TestUpdateBanner_DownloadFailure(t *testing.T) {
	b, _, _ := newBanner(t, "1.0.0", "1.1.0")
	b.state = bannerDownloading

	b.Update(updateDownloadDoneMsg{err: updater.ErrChecksum})

	assert.Equal(t, bannerFailed, b.state)
	assert.Contains(t, b.View(80), "Update failed")
}

func TestUpdateBanner_IgnoresKeysWhenHidden(t *testing.T) {
	b, _, _ := newBanner(t, "1.0.0", "1.1.0")

	for _, k := range []string{"u", "i", "s", "z"} {
		cmd, ok := b.HandleKey(runes(k))
		assert.False(t, ok, k)
		assert.Nil(t, cmd, k)
	}
}
