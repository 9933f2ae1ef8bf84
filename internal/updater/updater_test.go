package updater

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var binary = []byte("#!/bin/sh\necho tdl v1.2.0\n")

func feedServer(t *testing.T, info Info) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	if info.URL == "" {
		info.URL = srv.URL + "/tdl"
	}
	mux.HandleFunc("/latest.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(info)
	})
	mux.HandleFunc("/tdl", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(binary)
	})
	return srv
}

func checksum(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func drain(u *Updater) []EventKind {
	var kinds []EventKind
	for {
		select {
		case e := <-u.Events():
			kinds = append(kinds, e.Kind)
		default:
			return kinds
		}
	}
}

func TestCheck_Available(t *testing.T) {
	srv := feedServer(t, Info{Version: "1.2.0", Notes: "Faster search"})
	u := New(Config{CurrentVersion: "v1.1.0", FeedURL: srv.URL + "/latest.json"})

	info, err := u.Check(context.Background())
	require.NoError(t, err)

	assert.True(t, info.Available)
	assert.Equal(t, "1.2.0", info.Version)
	assert.Equal(t, "Faster search", info.Notes)
	assert.Equal(t, []EventKind{EventChecking, EventAvailable}, drain(u))
}

func TestCheck_NotAvailable(t *testing.T) {
	tests := []struct {
		name    string
		current string
		latest  string
		skipped string
	}{
		{"same version", "1.2.0", "1.2.0", ""},
		{"older feed", "v2.0.0", "1.9.9", ""},
		{"skipped", "1.1.0", "1.2.0", "v1.2.0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := feedServer(t, Info{Version: tt.latest})
			u := New(Config{CurrentVersion: tt.current, FeedURL: srv.URL + "/latest.json", SkippedVersion: tt.skipped})

			info, err := u.Check(context.Background())
			require.NoError(t, err)
			assert.False(t, info.Available)
			assert.Equal(t, []EventKind{EventChecking, EventNotAvailable}, drain(u))
		})
	}
}

func TestCheck_NotPackaged(t *testing.T) {
	u := New(Config{CurrentVersion: "dev", FeedURL: "http://127.0.0.1:1/latest.json"})

	_, err := u.Check(context.Background())
	assert.ErrorIs(t, err, ErrNotPackaged)
	assert.Equal(t, []EventKind{EventError}, drain(u))

	_, err = u.Download(context.Background(), Info{URL: "http://127.0.0.1:1/tdl"})
	assert.ErrorIs(t, err, ErrNotPackaged)
	assert.ErrorIs(t, u.Install("whatever"), ErrNotPackaged)
}

func TestCheck_NoFeed(t *testing.T) {
	u := New(Config{CurrentVersion: "1.0.0"})

	_, err := u.Check(context.Background())
	assert.ErrorIs(t, err, ErrNoFeed)
}

func TestCheck_CooldownLimitsRepeatedRequests(t *testing.T) {
	srv := feedServer(t, Info{Version: "1.0.0"})
	u := New(Config{CurrentVersion: "1.0.0", FeedURL: srv.URL + "/latest.json", Cooldown: time.Hour})

	_, err := u.Check(context.Background())
	require.NoError(t, err)

	_, err = u.Check(context.Background())
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestCheck_RequestAfterScheduledCheckReachesFeed(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_ = json.NewEncoder(w).Encode(Info{Version: "1.0.0"})
	}))
	t.Cleanup(srv.Close)
	u := New(Config{CurrentVersion: "1.0.0", FeedURL: srv.URL, Cooldown: DefaultCooldown})

	_, err := u.CheckScheduled(context.Background())
	require.NoError(t, err)
	_, err = u.CheckScheduled(context.Background())
	require.NoError(t, err)

	_, err = u.Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(3), hits.Load())
}

func TestCheck_BadFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"version":"latest"}`))
	}))
	defer srv.Close()

	u := New(Config{CurrentVersion: "1.0.0", FeedURL: srv.URL + "/missing"})
	_, err := u.Check(context.Background())
	assert.ErrorContains(t, err, "unexpected status")

	u = New(Config{CurrentVersion: "1.0.0", FeedURL: srv.URL + "/feed"})
	_, err = u.Check(context.Background())
	assert.ErrorContains(t, err, "not a semantic version")
}

func TestDownloadAndInstall(t *testing.T) {
	srv := feedServer(t, Info{Version: "1.2.0", SHA256: checksum(binary), Size: int64(len(binary))})
	exe := filepath.Join(t.TempDir(), "tdl")
	require.NoError(t, os.WriteFile(exe, []byte("old"), 0755))

	u := New(Config{CurrentVersion: "1.1.0", FeedURL: srv.URL + "/latest.json", Executable: exe})
	info, err := u.Check(context.Background())
	require.NoError(t, err)
	drain(u)

	path, err := u.Download(context.Background(), info)
	require.NoError(t, err)
	assert.Equal(t, filepath.Dir(exe), filepath.Dir(path))

	kinds := drain(u)
	require.NotEmpty(t, kinds)
	assert.Contains(t, kinds, EventProgress)
	assert.Equal(t, EventDownloaded, kinds[len(kinds)-1])

	require.NoError(t, u.Install(path))
	data, err := os.ReadFile(exe)
	require.NoError(t, err)
	assert.Equal(t, binary, data)
	assert.NoFileExists(t, path)
}

func TestDownload_ChecksumMismatch(t *testing.T) {
	srv := feedServer(t, Info{Version: "1.2.0", SHA256: checksum([]byte("something else"))})
	dir := t.TempDir()
	exe := filepath.Join(dir, "tdl")

	u := New(Config{CurrentVersion: "1.1.0", FeedURL: srv.URL + "/latest.json", Executable: exe})
	info, err := u.Check(context.Background())
	require.NoError(t, err)

	_, err = u.Download(context.Background(), info)
	assert.ErrorIs(t, err, ErrChecksum)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "partial download should be removed")
}

func TestProgress_String(t *testing.T) {
	p := Progress{Transferred: 500_000, Total: 1_000_000, Percent: 50, BytesPerSecond: 250_000}
	assert.Equal(t, "500 kB / 1.0 MB (50%) at 250 kB/s", p.String())

	p = Progress{Transferred: 2_000, BytesPerSecond: 1_000}
	assert.Equal(t, "2.0 kB at 1.0 kB/s", p.String())
}

func TestDue(t *testing.T) {
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

	assert.True(t, Due(time.Time{}, now, time.Hour))
	assert.True(t, Due(now.Add(-2*time.Hour), now, time.Hour))
	assert.False(t, Due(now.Add(-time.Minute), now, time.Hour))
	assert.True(t, Due(now, now, 0))
}
