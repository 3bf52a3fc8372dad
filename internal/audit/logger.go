// Package audit implements the durable audit logging pipeline: entries are
// enqueued synchronously, batched in memory, and flushed to the event store
// on a timer. Logging never blocks the request path and never surfaces
// storage failures to callers.
package audit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/lunchperk/lunchperk-backend/internal/domain"
	"github.com/lunchperk/lunchperk-backend/internal/port"
)

// Defaults for Options fields left zero.
const (
	DefaultFlushInterval = 5 * time.Second
	DefaultBatchSize     = 100
	DefaultFlushTimeout  = 10 * time.Second
)

// Options configures a Logger.
type Options struct {
	// FlushInterval is the period of the background flush timer.
	FlushInterval time.Duration
	// BatchSize caps how many entries a single flush drains.
	BatchSize int
	// FlushTimeout bounds the store I/O of one flush so a stalled store
	// cannot stall the periodic trigger indefinitely.
	FlushTimeout time.Duration
	// Metrics may be nil; all observations become no-ops.
	Metrics *Metrics
	// Log is the operational diagnostic channel. Storage failures are
	// reported here, never recursively through the audit pipeline itself.
	Log *slog.Logger
}

// core is the state shared by a root logger and every context-derived child.
type core struct {
	store         port.AuditEventStore
	flushInterval time.Duration
	batchSize     int
	flushTimeout  time.Duration
	metrics       *Metrics
	log           *slog.Logger

	mu    sync.Mutex
	queue []domain.AuditEntry

	// inFlight rejects overlapping flushes; a concurrent trigger is a no-op,
	// not a queued run.
	inFlight atomic.Bool

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// Logger records audit entries against an immutable ambient context.
// Derive a request- or user-scoped logger with With; the derived instance
// shares the queue and flush machinery with its parent.
type Logger struct {
	core    *core
	context domain.AuditContext
}

// New creates a logger backed by the given event store. Call Start to run
// the periodic flush and Stop to drain on shutdown.
func New(store port.AuditEventStore, opts Options) *Logger {
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = DefaultFlushInterval
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.FlushTimeout <= 0 {
		opts.FlushTimeout = DefaultFlushTimeout
	}
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	return &Logger{
		core: &core{
			store:         store,
			flushInterval: opts.FlushInterval,
			batchSize:     opts.BatchSize,
			flushTimeout:  opts.FlushTimeout,
			metrics:       opts.Metrics,
			log:           opts.Log,
			stop:          make(chan struct{}),
		},
	}
}

// Start launches the background flush timer. Safe to call once per logger
// tree; derived loggers share the parent's timer.
func (l *Logger) Start() {
	c := l.core
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(c.flushInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				_ = c.flush(context.Background())
			case <-c.stop:
				return
			}
		}
	}()
}

// Stop halts the timer and drains the queue. Entries that still cannot be
// stored are reported through the returned error; nothing is discarded.
func (l *Logger) Stop(ctx context.Context) error {
	c := l.core
	c.stopOnce.Do(func() { close(c.stop) })
	c.wg.Wait()
	for {
		if err := c.flush(ctx); err != nil {
			return err
		}
		c.mu.Lock()
		remaining := len(c.queue)
		c.mu.Unlock()
		if remaining == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}
}

// With derives a new logger whose ambient context is this logger's context
// merged with the given fields. The receiver is never mutated, so concurrent
// requests can safely derive from one shared root.
func (l *Logger) With(ctx domain.AuditContext) *Logger {
	return &Logger{
		core:    l.core,
		context: l.context.Merge(ctx),
	}
}

// Context returns a copy of the logger's ambient context.
func (l *Logger) Context() domain.AuditContext {
	return l.context
}

// Log stamps the entry with the ambient context and the current time, then
// appends it to the in-memory queue. It performs no I/O and returns
// immediately. Success defaults to true; an entry counts as failed when it
// carries ERROR or CRITICAL severity or a non-empty ErrorMessage. CRITICAL
// entries additionally trigger an out-of-band flush attempt, fire and forget.
func (l *Logger) Log(entry domain.AuditEntry) {
	c := l.core
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	if entry.Severity != domain.SeverityError && entry.Severity != domain.SeverityCritical && entry.ErrorMessage == "" {
		entry.Success = true
	}
	if entry.UserID == "" {
		entry.UserID = l.context.UserID
	}
	if entry.UserEmail == "" {
		entry.UserEmail = l.context.UserEmail
	}
	if entry.UserRole == "" {
		entry.UserRole = l.context.UserRole
	}
	if entry.IP == "" {
		entry.IP = l.context.IP
	}
	if entry.UserAgent == "" {
		entry.UserAgent = l.context.UserAgent
	}
	if entry.SessionID == "" {
		entry.SessionID = l.context.SessionID
	}
	if entry.RequestID == "" {
		entry.RequestID = l.context.RequestID
	}

	c.mu.Lock()
	c.queue = append(c.queue, entry)
	depth := len(c.queue)
	c.mu.Unlock()
	c.metrics.SetQueueDepth(depth)

	if entry.Severity == domain.SeverityCritical {
		go func() {
			fctx, cancel := context.WithTimeout(context.Background(), c.flushTimeout)
			defer cancel()
			_ = c.flush(fctx)
		}()
	}
}

// Info records a successful INFO-severity event.
func (l *Logger) Info(action, description string, metadata map[string]any) {
	l.Log(domain.AuditEntry{
		Action:      action,
		Severity:    domain.SeverityInfo,
		Description: description,
		Metadata:    metadata,
		Success:     true,
	})
}

// Warn records a successful WARNING-severity event.
func (l *Logger) Warn(action, description string, metadata map[string]any) {
	l.Log(domain.AuditEntry{
		Action:      action,
		Severity:    domain.SeverityWarning,
		Description: description,
		Metadata:    metadata,
		Success:     true,
	})
}

// Error records a failed ERROR-severity event. err may be nil.
func (l *Logger) Error(action, description string, err error, metadata map[string]any) {
	entry := domain.AuditEntry{
		Action:      action,
		Severity:    domain.SeverityError,
		Description: description,
		Metadata:    metadata,
	}
	if err != nil {
		entry.ErrorMessage = err.Error()
	}
	l.Log(entry)
}

// Critical records a failed CRITICAL-severity event and requests immediate
// durability.
func (l *Logger) Critical(action, description string, metadata map[string]any) {
	l.Log(domain.AuditEntry{
		Action:      action,
		Severity:    domain.SeverityCritical,
		Description: description,
		Metadata:    metadata,
	})
}

// LogChange records a successful state mutation with before/after snapshots.
func (l *Logger) LogChange(action, resource, resourceID, description string, before, after any) {
	l.Log(domain.AuditEntry{
		Action:      action,
		Severity:    domain.SeverityInfo,
		Resource:    resource,
		ResourceID:  resourceID,
		Description: description,
		Changes:     &domain.AuditChanges{Before: before, After: after},
		Success:     true,
	})
}

// Flush drains up to one batch from the queue into the event store. If a
// flush is already running the call is a no-op. A total store failure pushes
// the whole batch back to the front of the queue, preserving order.
func (l *Logger) Flush(ctx context.Context) error {
	return l.core.flush(ctx)
}

// QueueDepth returns the number of entries waiting to be flushed.
func (l *Logger) QueueDepth() int {
	l.core.mu.Lock()
	defer l.core.mu.Unlock()
	return len(l.core.queue)
}

// Query returns stored entries matching the filter, newest first.
func (l *Logger) Query(ctx context.Context, q domain.AuditQuery) ([]domain.AuditEntry, error) {
	return l.core.store.Find(ctx, q)
}

func (c *core) flush(ctx context.Context) error {
	if !c.inFlight.CompareAndSwap(false, true) {
		return nil
	}
	defer c.inFlight.Store(false)

	c.mu.Lock()
	n := len(c.queue)
	if n == 0 {
		c.mu.Unlock()
		return nil
	}
	if n > c.batchSize {
		n = c.batchSize
	}
	batch := make([]domain.AuditEntry, n)
	copy(batch, c.queue[:n])
	c.queue = append(c.queue[:0:0], c.queue[n:]...)
	c.metrics.SetQueueDepth(len(c.queue))
	c.mu.Unlock()

	fctx, cancel := context.WithTimeout(ctx, c.flushTimeout)
	defer cancel()

	inserted, err := c.store.InsertMany(fctx, batch, true)
	if err != nil {
		// Requeue the whole batch at the head so retry does not reorder behind
		// newer entries. Rows that did land are deduplicated by the store on
		// the retry (stable entry IDs).
		c.mu.Lock()
		requeued := make([]domain.AuditEntry, 0, len(batch)+len(c.queue))
		requeued = append(requeued, batch...)
		requeued = append(requeued, c.queue...)
		c.queue = requeued
		depth := len(c.queue)
		c.mu.Unlock()
		c.metrics.SetQueueDepth(depth)
		c.metrics.ObserveFlush(0, len(batch), err)
		c.log.Error("audit flush failed, batch requeued",
			"batch", len(batch),
			"queue_depth", depth,
			"error", err,
		)
		return fmt.Errorf("flush audit batch: %w", err)
	}

	c.metrics.ObserveFlush(inserted, 0, nil)
	if inserted < len(batch) {
		c.log.Warn("audit flush partially succeeded",
			"batch", len(batch),
			"inserted", inserted,
		)
	}
	return nil
}
