// Package updater checks a release feed for newer tdl builds, downloads them with
// progress reporting and swaps the running executable.
package updater

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/mod/semver"
	"golang.org/x/time/rate"
)

var (
	// ErrNotPackaged is returned for development builds, which have no release to compare against
	ErrNotPackaged = errors.New("update feature is only available in release builds")
	// ErrRateLimited is returned when requested checks arrive faster than the cooldown allows
	ErrRateLimited = errors.New("update check rate limited")
	// ErrChecksum is returned when a download does not match the published sha256
	ErrChecksum = errors.New("downloaded update failed checksum verification")
	// ErrNoFeed is returned when no release feed is configured
	ErrNoFeed = errors.New("no update feed configured")
)

// Info describes the latest release published on the feed
type Info struct {
	Version   string `json:"version"`
	Notes     string `json:"notes"`
	URL       string `json:"url"`
	SHA256    string `json:"sha256"`
	Size      int64  `json:"size"`
	Available bool   `json:"-"`
}

// Config configures an Updater
type Config struct {
	CurrentVersion string
	FeedURL        string
	HTTPClient     *http.Client
	// Cooldown spaces out requested checks; zero allows every check
	Cooldown time.Duration
	// SkippedVersion is reported as not available
	SkippedVersion string
	// Executable is the file Install replaces; defaults to os.Executable
	Executable string
	Log        *zap.SugaredLogger
}

// Updater performs update checks and downloads. Notifications are published on
// Events; nothing is downloaded without an explicit call to Download.
type Updater struct {
	cfg     Config
	client  *http.Client
	limiter *rate.Limiter
	log     *zap.SugaredLogger
	events  chan Event

	mu       sync.Mutex
	checking bool
}

// DefaultCooldown keeps repeated check requests from hammering the feed
const DefaultCooldown = time.Minute

// New creates an Updater
func New(cfg Config) *Updater {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Minute}
	}
	log := cfg.Log
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	limit := rate.Inf
	if cfg.Cooldown > 0 {
		limit = rate.Every(cfg.Cooldown)
	}
	return &Updater{
		cfg:     cfg,
		client:  client,
		limiter: rate.NewLimiter(limit, 1),
		log:     log,
		events:  make(chan Event, 64),
	}
}

// Events returns the notification stream. Events are dropped when nobody reads.
func (u *Updater) Events() <-chan Event {
	return u.events
}

// CurrentVersion returns the running build's version
func (u *Updater) CurrentVersion() string {
	return u.cfg.CurrentVersion
}

// Packaged reports whether this build can update itself
func (u *Updater) Packaged() bool {
	return semver.IsValid(canonical(u.cfg.CurrentVersion))
}

// Check fetches the feed on request and reports whether a newer version exists.
// Requests closer together than the cooldown return ErrRateLimited.
func (u *Updater) Check(ctx context.Context) (Info, error) {
	if err := u.ready(); err != nil {
		return Info{}, err
	}
	if !u.limiter.Allow() {
		return Info{}, ErrRateLimited
	}
	return u.check(ctx)
}

// CheckScheduled is Check for automatic checks. The caller spaces them out with
// Due, so they do not use up the cooldown of requested checks.
func (u *Updater) CheckScheduled(ctx context.Context) (Info, error) {
	if err := u.ready(); err != nil {
		return Info{}, err
	}
	return u.check(ctx)
}

func (u *Updater) ready() error {
	if !u.Packaged() {
		return u.fail(ErrNotPackaged)
	}
	if u.cfg.FeedURL == "" {
		return u.fail(ErrNoFeed)
	}
	return nil
}

func (u *Updater) check(ctx context.Context) (Info, error) {
	u.mu.Lock()
	if u.checking {
		u.mu.Unlock()
		return Info{}, ErrRateLimited
	}
	u.checking = true
	u.mu.Unlock()
	defer func() {
		u.mu.Lock()
		u.checking = false
		u.mu.Unlock()
	}()

	u.emit(Event{Kind: EventChecking})

	info, err := u.fetch(ctx)
	if err != nil {
		return Info{}, u.fail(err)
	}

	latest := canonical(info.Version)
	if !semver.IsValid(latest) {
		return Info{}, u.fail(fmt.Errorf("feed version %q is not a semantic version", info.Version))
	}
	info.Available = semver.Compare(latest, canonical(u.cfg.CurrentVersion)) > 0 &&
		(u.cfg.SkippedVersion == "" || semver.Compare(latest, canonical(u.cfg.SkippedVersion)) != 0)

	if info.Available {
		u.log.Infow("Update available", "current", u.cfg.CurrentVersion, "latest", info.Version)
		u.emit(Event{Kind: EventAvailable, Info: info})
	} else {
		u.log.Debugw("No update available", "current", u.cfg.CurrentVersion, "latest", info.Version)
		u.emit(Event{Kind: EventNotAvailable, Info: info})
	}
	return info, nil
}

func (u *Updater) fetch(ctx context.Context) (Info, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.cfg.FeedURL, nil)
	if err != nil {
		return Info{}, fmt.Errorf("build feed request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := u.client.Do(req)
	if err != nil {
		return Info{}, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Info{}, fmt.Errorf("fetch feed: unexpected status %s", resp.Status)
	}

	var info Info
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&info); err != nil {
		return Info{}, fmt.Errorf("decode feed: %w", err)
	}
	return info, nil
}

// Download fetches the release binary next to the executable and verifies its
// checksum. It returns the path of the downloaded file, ready for Install.
func (u *Updater) Download(ctx context.Context, info Info) (string, error) {
	if !u.Packaged() {
		return "", u.fail(ErrNotPackaged)
	}
	if info.URL == "" {
		return "", u.fail(errors.New("release has no download url"))
	}

	exe, err := u.executable()
	if err != nil {
		return "", u.fail(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, info.URL, nil)
	if err != nil {
		return "", u.fail(fmt.Errorf("build download request: %w", err))
	}
	resp, err := u.client.Do(req)
	if err != nil {
		return "", u.fail(fmt.Errorf("download: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", u.fail(fmt.Errorf("download: unexpected status %s", resp.Status))
	}

	total := resp.ContentLength
	if total <= 0 {
		total = info.Size
	}

	tmp, err := os.CreateTemp(filepath.Dir(exe), "."+filepath.Base(exe)+"-update-*")
	if err != nil {
		return "", u.fail(fmt.Errorf("create download file: %w", err))
	}
	keep := false
	defer func() {
		if !keep {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	hash := sha256.New()
	pw := &progressWriter{total: total, started: time.Now(), emit: u.emit}
	if _, err := io.Copy(io.MultiWriter(tmp, hash, pw), resp.Body); err != nil {
		return "", u.fail(fmt.Errorf("download: %w", err))
	}
	pw.finish()

	if info.SHA256 != "" {
		sum := hex.EncodeToString(hash.Sum(nil))
		if !strings.EqualFold(sum, info.SHA256) {
			return "", u.fail(fmt.Errorf("%w: got %s, want %s", ErrChecksum, sum, info.SHA256))
		}
	}

	if err := tmp.Chmod(0755); err != nil {
		return "", u.fail(fmt.Errorf("chmod download: %w", err))
	}
	if err := tmp.Close(); err != nil {
		return "", u.fail(fmt.Errorf("close download: %w", err))
	}
	keep = true

	u.log.Infow("Update downloaded", "version", info.Version, "path", tmp.Name())
	u.emit(Event{Kind: EventDownloaded, Info: info, Path: tmp.Name()})
	return tmp.Name(), nil
}

// Install replaces the running executable with a downloaded build. The new
// version takes effect on the next start.
func (u *Updater) Install(path string) error {
	if !u.Packaged() {
		return ErrNotPackaged
	}
	exe, err := u.executable()
	if err != nil {
		return err
	}
	if err := os.Rename(path, exe); err != nil {
		return fmt.Errorf("install update: %w", err)
	}
	u.log.Infow("Update installed", "path", exe)
	return nil
}

// Shutdown implements do.Shutdowner
func (u *Updater) Shutdown() error {
	u.client.CloseIdleConnections()
	return nil
}

func (u *Updater) executable() (string, error) {
	if u.cfg.Executable != "" {
		return u.cfg.Executable, nil
	}
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locate executable: %w", err)
	}
	return filepath.EvalSymlinks(exe)
}

func (u *Updater) emit(e Event) {
	select {
	case u.events <- e:
	default:
	}
}

func (u *Updater) fail(err error) error {
	u.log.Warnw("Update failed", "error", err)
	u.emit(Event{Kind: EventError, Err: err})
	return err
}

// Due reports whether a scheduled check should run, given the last check time
func Due(last, now time.Time, interval time.Duration) bool {
	return last.IsZero() || interval <= 0 || now.Sub(last) >= interval
}

func canonical(v string) string {
	if v != "" && !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}
