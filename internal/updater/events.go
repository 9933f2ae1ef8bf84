package updater

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// EventKind identifies an update notification
type EventKind int

const (
	EventChecking EventKind = iota
	EventAvailable
	EventNotAvailable
	EventProgress
	EventDownloaded
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventChecking:
		return "checking"
	case EventAvailable:
		return "available"
	case EventNotAvailable:
		return "not-available"
	case EventProgress:
		return "progress"
	case EventDownloaded:
		return "downloaded"
	case EventError:
		return "error"
	}
	return "unknown"
}

// Event is a single update notification
type Event struct {
	Kind     EventKind
	Info     Info
	Progress Progress
	Path     string
	Err      error
}

// Progress reports download state
type Progress struct {
	Transferred    int64
	Total          int64 // zero when unknown
	Percent        float64
	BytesPerSecond float64
}

func (p Progress) String() string {
	speed := humanize.Bytes(uint64(p.BytesPerSecond)) + "/s"
	if p.Total <= 0 {
		return fmt.Sprintf("%s at %s", humanize.Bytes(uint64(p.Transferred)), speed)
	}
	return fmt.Sprintf("%s / %s (%.0f%%) at %s",
		humanize.Bytes(uint64(p.Transferred)), humanize.Bytes(uint64(p.Total)), p.Percent, speed)
}

const progressInterval = 100 * time.Millisecond

type progressWriter struct {
	total       int64
	transferred int64
	started     time.Time
	last        time.Time
	emit        func(Event)
}

func (w *progressWriter) Write(b []byte) (int, error) {
	w.transferred += int64(len(b))
	if now := time.Now(); now.Sub(w.last) >= progressInterval {
		w.last = now
		w.emit(Event{Kind: EventProgress, Progress: w.progress(now)})
	}
	return len(b), nil
}

func (w *progressWriter) finish() {
	w.emit(Event{Kind: EventProgress, Progress: w.progress(time.Now())})
}

func (w *progressWriter) progress(now time.Time) Progress {
	p := Progress{Transferred: w.transferred, Total: w.total}
	if w.total > 0 {
		p.Percent = float64(w.transferred) / float64(w.total) * 100
	}
	if elapsed := now.Sub(w.started).Seconds(); elapsed > 0 {
		p.BytesPerSecond = float64(w.transferred) / elapsed
	}
	return p
}
