// Package mirror copies user stats to an external system on a best-effort basis.
//
// Notify never blocks the caller and never reports an error: pushes run on a
// background worker and failures are logged and counted, then dropped.
package mirror

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"chessmistry-api/internal/apperrors"
	"chessmistry-api/internal/models"
	"chessmistry-api/internal/stats"

	"go.uber.org/zap"
)

// ErrNotConfigured is returned by sink constructors missing required settings.
var ErrNotConfigured = errors.New("mirror sink not configured")

const pushTimeout = 10 * time.Second

// Columns is the header of the flattened stats row, in order.
var Columns = []string{
	"ID", "Username", "Display Name", "Wins", "Losses", "Draws",
	"Games Played", "Best Streak", "Device ID", "Device Name", "Theme",
	"Joined At", "Last Login", "Profile Photo", "Total Moves",
}

// Row is one user's public stats flattened to strings, aligned with Columns.
type Row []string

// RowFromUser flattens u. The password hash is never included.
func RowFromUser(u models.User) Row {
	displayName := u.DisplayName
	if displayName == "" {
		displayName = u.Username
	}
	return Row{
		strconv.FormatInt(u.ID, 10),
		u.Username,
		displayName,
		strconv.Itoa(u.Wins),
		strconv.Itoa(u.Losses),
		strconv.Itoa(u.Draws),
		strconv.Itoa(u.GamesPlayed),
		strconv.Itoa(u.BestStreak),
		u.DeviceID,
		u.DeviceName,
		u.ThemePreference,
		formatTime(u.JoinedAt),
		formatTime(u.LastLogin),
		u.ProfilePhotoURL,
		strconv.Itoa(u.TotalMoves),
	}
}

// Username returns the username column.
func (r Row) Username() string {
	if len(r) < 2 {
		return ""
	}
	return r[1]
}

// Map returns the row keyed by column name.
func (r Row) Map() map[string]interface{} {
	m := make(map[string]interface{}, len(Columns))
	for i, col := range Columns {
		if i < len(r) {
			m[col] = r[i]
		}
	}
	return m
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// Sink receives flattened rows. Append or upsert semantics are both fine.
type Sink interface {
	Name() string
	Push(ctx context.Context, row Row) error
	Close() error
}

// NoopSink discards every row. It is the mode used when no sink is configured.
type NoopSink struct{}

func (NoopSink) Name() string                    { return "noop" }
func (NoopSink) Push(context.Context, Row) error { return nil }
func (NoopSink) Close() error                    { return nil }

// Mirror queues user snapshots and pushes them to a Sink from one worker goroutine
type Mirror struct {
	sink    Sink
	queue   chan models.User
	logger  *zap.Logger
	metrics *stats.Collector

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// New starts a mirror over sink with a queue of queueSize snapshots.
func New(sink Sink, queueSize int, logger *zap.Logger, metrics *stats.Collector) *Mirror {
	if sink == nil {
		sink = NoopSink{}
	}
	if queueSize <= 0 {
		queueSize = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &Mirror{
		sink:    sink,
		queue:   make(chan models.User, queueSize),
		logger:  logger.Named("mirror").With(zap.String("sink", sink.Name())),
		metrics: metrics,
		done:    make(chan struct{}),
	}
	go m.run()
	return m
}

// Notify enqueues a snapshot of u. When the queue is full or the mirror is
// closed, the snapshot is dropped.
func (m *Mirror) Notify(u models.User) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return
	}

	select {
	case m.queue <- u:
	default:
		m.logger.Warn("mirror queue full, dropping update", zap.String("username", u.Username))
	}
}

// Close stops accepting snapshots and waits for queued ones to be pushed or
// for ctx to end.
func (m *Mirror) Close(ctx context.Context) error {
	m.mu.Lock()
	if !m.closed {
		m.closed = true
		close(m.queue)
	}
	m.mu.Unlock()

	select {
	case <-m.done:
		return m.sink.Close()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Mirror) run() {
	defer close(m.done)
	for u := range m.queue {
		m.push(u)
	}
}

func (m *Mirror) push(u models.User) {
	ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
	defer cancel()

	err := m.sink.Push(ctx, RowFromUser(u))
	m.metrics.ObserveSync(m.sink.Name(), err)
	if err != nil {
		syncErr := apperrors.Wrap(apperrors.KindSync, "mirror push failed", err)
		m.logger.Warn("stats mirror failed", zap.String("username", u.Username), zap.Error(syncErr))
	}
}
