package db

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tgienger/tdl/internal/store"
)

// SnapshotKey is the settings key holding the serialized store
const SnapshotKey = "todo-storage"

// Keys for update bookkeeping
const (
	SettingUpdateLastChecked    = "update.last_checked"
	SettingUpdateSkippedVersion = "update.skipped_version"
)

// ErrSinkClosed is returned by Save after Close
var ErrSinkClosed = errors.New("snapshot sink closed")

// LoadSnapshot reads the persisted store state. found is false on a fresh database.
func (db *DB) LoadSnapshot() (state store.State, found bool, err error) {
	raw, err := db.GetSetting(SnapshotKey)
	if err != nil {
		return store.State{}, false, fmt.Errorf("read snapshot: %w", err)
	}
	if raw == "" {
		return store.State{}, false, nil
	}
	state, err = store.Unmarshal([]byte(raw))
	if err != nil {
		return store.State{}, false, err
	}
	return state, true, nil
}

// SaveSnapshot writes the whole state as a single row. One statement is one
// SQLite transaction, so a snapshot is either fully written or not at all.
func (db *DB) SaveSnapshot(state store.State) error {
	data, err := store.Marshal(state)
	if err != nil {
		return err
	}
	if err := db.SetSetting(SnapshotKey, string(data)); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// SnapshotSink persists store snapshots, optionally coalescing bursts of
// mutations into one write after a quiet period.
type SnapshotSink struct {
	db       *DB
	debounce time.Duration
	log      *zap.SugaredLogger

	writeMu sync.Mutex // held while taking and writing a snapshot, keeps writes in order
	mu      sync.Mutex
	pending *store.State
	timer   *time.Timer
	closed  bool
}

// NewSnapshotSink creates a sink. A zero debounce writes every snapshot synchronously.
func NewSnapshotSink(db *DB, debounce time.Duration, log *zap.SugaredLogger) *SnapshotSink {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &SnapshotSink{db: db, debounce: debounce, log: log}
}

// Save implements store.Persister
func (s *SnapshotSink) Save(state store.State) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSinkClosed
	}
	if s.debounce <= 0 {
		s.mu.Unlock()
		s.writeMu.Lock()
		defer s.writeMu.Unlock()
		return s.db.SaveSnapshot(state)
	}

	s.pending = &state
	if s.timer == nil {
		s.timer = time.AfterFunc(s.debounce, s.flushFromTimer)
	} else {
		s.timer.Reset(s.debounce)
	}
	s.mu.Unlock()
	return nil
}

// Pending reports whether a snapshot is waiting to be written
func (s *SnapshotSink) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}

// Flush writes the pending snapshot, if any
func (s *SnapshotSink) Flush() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	if s.timer != nil {
		s.timer.Stop()
	}
	s.mu.Unlock()

	if pending == nil {
		return nil
	}
	return s.db.SaveSnapshot(*pending)
}

// Close flushes and rejects further saves
func (s *SnapshotSink) Close() error {
	err := s.Flush()
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return err
}

func (s *SnapshotSink) flushFromTimer() {
	if err := s.Flush(); err != nil {
		s.log.Errorw("Debounced snapshot write failed", "error", err)
	}
}
