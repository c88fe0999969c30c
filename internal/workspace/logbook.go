package workspace

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"storyreel/internal/logging"
	"storyreel/internal/store"
)

const defaultLogCapacity = 200

// Logbook is the per-project activity log: a bounded ring of recent entries
// backed by the store and mirrored into the daemon log.
type Logbook struct {
	store    *store.Store
	logger   *slog.Logger
	capacity int

	mu      sync.Mutex
	entries map[string][]store.LogEntry
	loaded  map[string]bool
}

func newLogbook(st *store.Store, logger *slog.Logger, capacity int) *Logbook {
	return &Logbook{
		store:    st,
		logger:   logger,
		capacity: normalizeCapacity(capacity),
		entries:  make(map[string][]store.LogEntry),
		loaded:   make(map[string]bool),
	}
}

func normalizeCapacity(capacity int) int {
	if capacity <= 0 {
		return defaultLogCapacity
	}
	return capacity
}

// AppendLog adds a line to a project's activity log.
func (w *Workspace) AppendLog(ctx context.Context, projectID string, severity store.Severity, message string) (store.LogEntry, error) {
	return w.logs.append(ctx, projectID, severity, message, w.now())
}

// Logs returns a project's entries with a sequence number greater than since,
// oldest first.
func (w *Workspace) Logs(ctx context.Context, projectID string, since int64) ([]store.LogEntry, error) {
	return w.logs.since(ctx, projectID, since)
}

func (l *Logbook) append(ctx context.Context, projectID string, severity store.Severity, message string, at time.Time) (store.LogEntry, error) {
	message = strings.TrimSpace(message)
	l.mirror(projectID, severity, message)

	entry, err := l.store.AppendLog(ctx, projectID, severity, message, at)
	if err != nil {
		return store.LogEntry{}, err
	}

	l.mu.Lock()
	l.entries[projectID] = l.merge(l.entries[projectID], entry)
	l.mu.Unlock()
	return entry, nil
}

// merge inserts entries in sequence order, drops duplicates and trims the ring.
func (l *Logbook) merge(ring []store.LogEntry, entries ...store.LogEntry) []store.LogEntry {
	ring = append(ring, entries...)
	slices.SortStableFunc(ring, func(a, b store.LogEntry) int { return cmp.Compare(a.Seq, b.Seq) })
	ring = slices.CompactFunc(ring, func(a, b store.LogEntry) bool { return a.Seq == b.Seq })
	if len(ring) > l.capacity {
		ring = slices.Clone(ring[len(ring)-l.capacity:])
	}
	return ring
}

func (l *Logbook) since(ctx context.Context, projectID string, since int64) ([]store.LogEntry, error) {
	if err := l.ensureLoaded(ctx, projectID); err != nil {
		return nil, err
	}
	l.mu.Lock()
	ring := l.entries[projectID]
	evicted := len(ring) == l.capacity && ring[0].Seq > since+1
	out := make([]store.LogEntry, 0, len(ring))
	for _, entry := range ring {
		if entry.Seq > since {
			out = append(out, entry)
		}
	}
	l.mu.Unlock()

	if evicted {
		return l.store.LogsSince(ctx, projectID, since, 0)
	}
	return out, nil
}

// ensureLoaded seeds the ring from the store the first time a project is read.
func (l *Logbook) ensureLoaded(ctx context.Context, projectID string) error {
	l.mu.Lock()
	loaded := l.loaded[projectID]
	l.mu.Unlock()
	if loaded {
		return nil
	}
	recent, err := l.store.LogsSince(ctx, projectID, 0, l.capacity)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.loaded[projectID] {
		l.entries[projectID] = l.merge(recent, l.entries[projectID]...)
		l.loaded[projectID] = true
	}
	return nil
}

func (l *Logbook) forget(projectID string) {
	l.mu.Lock()
	delete(l.entries, projectID)
	delete(l.loaded, projectID)
	l.mu.Unlock()
}

func (l *Logbook) mirror(projectID string, severity store.Severity, message string) {
	attrs := logging.Args(
		logging.String(logging.FieldProjectID, projectID),
		logging.String("severity", string(severity)),
		logging.String(logging.FieldEventType, "activity_log"),
	)
	switch severity {
	case store.SeverityError:
		l.logger.Error(message, attrs...)
	case store.SeverityWarning:
		l.logger.Warn(message, attrs...)
	default:
		l.logger.Info(message, attrs...)
	}
}
