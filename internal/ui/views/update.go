package views

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/tdl/internal/db"
	"github.com/tgienger/tdl/internal/ui/keys"
	"github.com/tgienger/tdl/internal/ui/styles"
	"github.com/tgienger/tdl/internal/updater"
)

// Settings is the key-value store the banner records update bookkeeping in
type Settings interface {
	GetSetting(key string) (string, error)
	SetSetting(key, value string) error
}

// UpdateEventMsg carries a notification from the updater
type UpdateEventMsg struct {
	updater.Event
}

type updateCheckDoneMsg struct {
	manual bool
	err    error
}

type updateDownloadDoneMsg struct {
	path string
	err  error
}

type updateExpireMsg struct {
	seq int
}

type bannerState int

const (
	bannerHidden bannerState = iota
	bannerChecking
	bannerAvailable
	bannerDownloading
	bannerDownloaded
	bannerFailed
	bannerUpToDate
)

const (
	checkTimeout  = 30 * time.Second
	upToDateDelay = 4 * time.Second
)

// UpdateBanner is the one-line update notification above the panes. Nothing is
// downloaded until the user asks for it.
type UpdateBanner struct {
	updater  *updater.Updater
	settings Settings
	now      func() time.Time
	styles   *styles.Styles
	keys     keys.KeyMap

	state    bannerState
	info     updater.Info
	progress progress.Model
	last     updater.Progress
	path     string
	err      error
	manual   bool
	seq      int

	installed bool
}

// NewUpdateBanner creates a hidden banner
func NewUpdateBanner(u *updater.Updater, settings Settings, now func() time.Time) *UpdateBanner {
	if now == nil {
		now = time.Now
	}
	return &UpdateBanner{
		updater:  u,
		settings: settings,
		now:      now,
		styles:   styles.NewStyles(),
		keys:     keys.DefaultKeyMap(),
		progress: progress.New(progress.WithDefaultGradient(), progress.WithWidth(30)),
	}
}

// WaitForEvent reads the next updater notification
func (b *UpdateBanner) WaitForEvent() tea.Cmd {
	if b.updater == nil {
		return nil
	}
	events := b.updater.Events()
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return UpdateEventMsg{ev}
	}
}

// StartupCheck runs a silent check when the last one is older than interval
func (b *UpdateBanner) StartupCheck(interval time.Duration) tea.Cmd {
	if b.updater == nil || !b.updater.Packaged() {
		return nil
	}
	if !updater.Due(b.lastChecked(), b.now(), interval) {
		return nil
	}
	return b.check(false)
}

// Check runs a check on request, reporting the outcome even when up to date
func (b *UpdateBanner) Check() tea.Cmd {
	if b.updater == nil || b.state == bannerDownloading {
		return nil
	}
	b.manual = true
	b.state = bannerChecking
	return b.check(true)
}

func (b *UpdateBanner) check(manual bool) tea.Cmd {
	u, settings, now := b.updater, b.settings, b.now
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
		defer cancel()

		check := u.CheckScheduled
		if manual {
			check = u.Check
		}
		_, err := check(ctx)
		if err == nil && settings != nil {
			err = settings.SetSetting(db.SettingUpdateLastChecked, now().UTC().Format(time.RFC3339))
		}
		return updateCheckDoneMsg{manual: manual, err: err}
	}
}

func (b *UpdateBanner) lastChecked() time.Time {
	if b.settings == nil {
		return time.Time{}
	}
	raw, err := b.settings.GetSetting(db.SettingUpdateLastChecked)
	if err != nil || raw == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Visible reports whether the banner takes up space
func (b *UpdateBanner) Visible() bool {
	return b.state != bannerHidden
}

// InstallRequested reports whether an update was installed and the app should exit
func (b *UpdateBanner) InstallRequested() bool {
	return b.installed
}

// Update handles updater messages. Key presses go through HandleKey.
func (b *UpdateBanner) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case UpdateEventMsg:
		return tea.Batch(b.handleEvent(msg.Event), b.WaitForEvent())

	case updateCheckDoneMsg:
		if msg.err == nil {
			return nil
		}
		if errors.Is(msg.err, updater.ErrRateLimited) {
			if msg.manual {
				b.manual = false
				b.state = bannerUpToDate
				b.err = msg.err
				return b.expire()
			}
			return nil
		}
		// the Error event normally got here first
		if b.state != bannerFailed && (msg.manual || b.state != bannerHidden) {
			b.state = bannerFailed
			b.err = msg.err
		}
		return nil

	case updateDownloadDoneMsg:
		if msg.err != nil {
			b.state = bannerFailed
			b.err = msg.err
			return nil
		}
		b.state = bannerDownloaded
		b.path = msg.path
		return nil

	case updateExpireMsg:
		if msg.seq == b.seq && b.state == bannerUpToDate {
			b.state = bannerHidden
			b.err = nil
		}
		return nil

	case progress.FrameMsg:
		m, cmd := b.progress.Update(msg)
		if pm, ok := m.(progress.Model); ok {
			b.progress = pm
		}
		return cmd
	}
	return nil
}

func (b *UpdateBanner) handleEvent(ev updater.Event) tea.Cmd {
	switch ev.Kind {
	case updater.EventChecking:
		if b.manual {
			b.state = bannerChecking
		}

	case updater.EventAvailable:
		b.manual = false
		b.info = ev.Info
		b.err = nil
		b.state = bannerAvailable

	case updater.EventNotAvailable:
		manual := b.manual
		b.manual = false
		if manual {
			b.info = ev.Info
			b.state = bannerUpToDate
			b.err = nil
			return b.expire()
		}
		if b.state == bannerChecking {
			b.state = bannerHidden
		}

	case updater.EventProgress:
		if b.state != bannerDownloading {
			return nil
		}
		b.last = ev.Progress
		if ev.Progress.Total > 0 {
			return b.progress.SetPercent(ev.Progress.Percent / 100)
		}

	case updater.EventDownloaded:
		b.state = bannerDownloaded
		b.path = ev.Path
		return b.progress.SetPercent(1)

	case updater.EventError:
		// silent startup checks only surface errors while something is on screen
		if b.manual || b.state != bannerHidden {
			b.manual = false
			b.state = bannerFailed
			b.err = ev.Err
		}
	}
	return nil
}

func (b *UpdateBanner) expire() tea.Cmd {
	b.seq++
	seq := b.seq
	return tea.Tick(upToDateDelay, func(time.Time) tea.Msg { return updateExpireMsg{seq: seq} })
}

// HandleKey reacts to banner shortcuts. It reports whether the key was consumed.
func (b *UpdateBanner) HandleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	if key.Matches(msg, b.keys.CheckUpdate) {
		return b.Check(), true
	}

	switch b.state {
	case bannerAvailable:
		switch {
		case key.Matches(msg, b.keys.Download):
			return b.download(), true
		case key.Matches(msg, b.keys.Skip):
			if b.settings != nil {
				if err := b.settings.SetSetting(db.SettingUpdateSkippedVersion, b.info.Version); err != nil {
					b.state = bannerFailed
					b.err = fmt.Errorf("skip version: %w", err)
					return nil, true
				}
			}
			b.state = bannerHidden
			return nil, true
		case key.Matches(msg, b.keys.Dismiss):
			b.state = bannerHidden
			return nil, true
		}

	case bannerDownloaded:
		switch {
		case key.Matches(msg, b.keys.Install):
			if err := b.updater.Install(b.path); err != nil {
				b.state = bannerFailed
				b.err = err
				return nil, true
			}
			b.installed = true
			return tea.Quit, true
		case key.Matches(msg, b.keys.Dismiss):
			b.state = bannerHidden
			return nil, true
		}

	case bannerFailed, bannerUpToDate:
		if key.Matches(msg, b.keys.Dismiss) {
			b.state = bannerHidden
			b.err = nil
			return nil, true
		}
	}
	return nil, false
}

func (b *UpdateBanner) download() tea.Cmd {
	b.state = bannerDownloading
	b.last = updater.Progress{}

	u, info := b.updater, b.info
	return tea.Batch(b.progress.SetPercent(0), func() tea.Msg {
		path, err := u.Download(context.Background(), info)
		return updateDownloadDoneMsg{path: path, err: err}
	})
}

// View renders the banner, or nothing when hidden
func (b *UpdateBanner) View(width int) string {
	if b.state == bannerHidden {
		return ""
	}
	s := b.styles
	k := s.HelpKey.Render

	var line string
	switch b.state {
	case bannerChecking:
		line = "Checking for updates..."
	case bannerAvailable:
		line = fmt.Sprintf("tdl %s is available (you have %s)   %s download • %s skip • %s later",
			b.info.Version, b.updater.CurrentVersion(), k("u"), k("s"), k("z"))
	case bannerDownloading:
		line = lipgloss.JoinHorizontal(lipgloss.Center,
			fmt.Sprintf("Downloading %s  ", b.info.Version),
			b.progress.View(),
			"  "+s.TitleMuted.Render(b.last.String()),
		)
	case bannerDownloaded:
		line = fmt.Sprintf("tdl %s is ready   %s install and quit • %s later", b.info.Version, k("i"), k("z"))
	case bannerFailed:
		line = s.Error.Render(fmt.Sprintf("Update failed: %v", b.err)) + "   " + k("z") + " dismiss"
	case bannerUpToDate:
		if errors.Is(b.err, updater.ErrRateLimited) {
			line = "Checked for updates recently. Try again later."
		} else {
			line = fmt.Sprintf("tdl %s is up to date", b.updater.CurrentVersion())
		}
	}

	return s.Banner.Width(max(width-2, 10)).Render(line)
}
