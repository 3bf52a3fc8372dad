package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lunchperk/lunchperk-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockStore is an in-memory port.AuditEventStore that can be told to fail
// or stall.
type mockStore struct {
	mu       sync.Mutex
	calls    [][]domain.AuditEntry
	inserted []domain.AuditEntry
	failNext int
	delay    time.Duration
}

func (m *mockStore) InsertMany(_ context.Context, entries []domain.AuditEntry, _ bool) (int, error) {
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	batch := make([]domain.AuditEntry, len(entries))
	copy(batch, entries)
	m.calls = append(m.calls, batch)
	if m.failNext > 0 {
		m.failNext--
		return 0, errors.New("store unreachable")
	}
	m.inserted = append(m.inserted, batch...)
	return len(entries), nil
}

func (m *mockStore) Find(_ context.Context, _ domain.AuditQuery) ([]domain.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.AuditEntry, len(m.inserted))
	copy(out, m.inserted)
	return out, nil
}

func (m *mockStore) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *mockStore) insertedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.inserted)
}

func (m *mockStore) insertedActions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.inserted))
	for i, e := range m.inserted {
		out[i] = e.Action
	}
	return out
}

func newTestLogger(store *mockStore) *Logger {
	return New(store, Options{
		FlushInterval: time.Hour, // tests drive flushes explicitly
		BatchSize:     100,
	})
}

func TestLogDoesNotTouchStoreUntilFlush(t *testing.T) {
	store := &mockStore{}
	logger := newTestLogger(store)

	logger.Info(domain.AuditActionLogin, "employee logged in", nil)
	logger.Warn(domain.AuditActionRateLimited, "rate limit hit", nil)

	assert.Equal(t, 0, store.callCount(), "non-critical entries must not reach the store before a flush")
	assert.Equal(t, 2, logger.QueueDepth())

	require.NoError(t, logger.Flush(context.Background()))
	assert.Equal(t, 2, store.insertedCount())
	assert.Equal(t, 0, logger.QueueDepth())
}

func TestCriticalTriggersOutOfBandFlush(t *testing.T) {
	store := &mockStore{}
	logger := newTestLogger(store)

	logger.Critical(domain.AuditActionFraudDetected, "fraud indicators detected", nil)

	assert.Eventually(t, func() bool {
		return store.insertedCount() == 1
	}, time.Second, 10*time.Millisecond, "CRITICAL entries must be flushed without waiting for the timer")
}

func TestConcurrentFlushesDoNotDuplicate(t *testing.T) {
	store := &mockStore{delay: 100 * time.Millisecond}
	logger := newTestLogger(store)

	logger.Info(domain.AuditActionLogin, "one entry", nil)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = logger.Flush(context.Background())
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, store.callCount(), "overlapping flush must be a no-op, not a second insert")
	assert.Equal(t, 1, store.insertedCount())
	assert.Equal(t, 0, logger.QueueDepth())
}

func TestFailedFlushRequeuesBatchInOrder(t *testing.T) {
	store := &mockStore{failNext: 1}
	logger := newTestLogger(store)

	logger.Info("a", "first", nil)
	logger.Info("b", "second", nil)
	logger.Info("c", "third", nil)

	err := logger.Flush(context.Background())
	require.Error(t, err)
	assert.Equal(t, 3, logger.QueueDepth(), "no entry may be lost on a failed flush")

	require.NoError(t, logger.Flush(context.Background()))
	assert.Equal(t, []string{"a", "b", "c"}, store.insertedActions(), "retried batch must keep its original order")
	assert.Equal(t, 0, logger.QueueDepth())
}

func TestRequeuedBatchStaysAheadOfNewEntries(t *testing.T) {
	store := &mockStore{failNext: 1}
	logger := newTestLogger(store)

	logger.Info("a", "first", nil)
	logger.Info("b", "second", nil)
	require.Error(t, logger.Flush(context.Background()))

	logger.Info("c", "enqueued after the failure", nil)

	require.NoError(t, logger.Flush(context.Background()))
	assert.Equal(t, []string{"a", "b", "c"}, store.insertedActions())
}

func TestFlushHonorsBatchSize(t *testing.T) {
	store := &mockStore{}
	logger := New(store, Options{FlushInterval: time.Hour, BatchSize: 2})

	for _, action := range []string{"a", "b", "c"} {
		logger.Info(action, "entry", nil)
	}

	require.NoError(t, logger.Flush(context.Background()))
	require.Equal(t, 1, store.callCount())
	assert.Len(t, store.calls[0], 2)
	assert.Equal(t, 1, logger.QueueDepth())

	require.NoError(t, logger.Flush(context.Background()))
	assert.Equal(t, []string{"a", "b", "c"}, store.insertedActions())
}

func TestWithDerivesImmutableContext(t *testing.T) {
	store := &mockStore{}
	root := newTestLogger(store)

	reqLogger := root.With(domain.AuditContext{RequestID: "req-1", IP: "10.0.0.1"})
	userLogger := reqLogger.With(domain.AuditContext{UserID: "emp-1", UserEmail: "ana@example.com"})

	assert.Empty(t, root.Context().RequestID, "deriving must never mutate the parent")
	assert.Empty(t, reqLogger.Context().UserID)
	assert.Equal(t, "req-1", userLogger.Context().RequestID, "derived context inherits parent fields")

	userLogger.Info(domain.AuditActionProfileUpdate, "profile updated", nil)
	require.NoError(t, root.Flush(context.Background()))

	require.Equal(t, 1, store.insertedCount())
	entry := store.inserted[0]
	assert.Equal(t, "emp-1", entry.UserID)
	assert.Equal(t, "req-1", entry.RequestID)
	assert.Equal(t, "10.0.0.1", entry.IP)
}

func TestTimestampAssignedAtEnqueue(t *testing.T) {
	store := &mockStore{}
	logger := newTestLogger(store)

	before := time.Now().UTC()
	logger.Info(domain.AuditActionLogin, "login", nil)
	after := time.Now().UTC()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, logger.Flush(context.Background()))

	require.Equal(t, 1, store.insertedCount())
	ts := store.inserted[0].Timestamp
	assert.False(t, ts.Before(before))
	assert.False(t, ts.After(after), "timestamp must reflect enqueue time, not flush time")
}

func TestLogChangePopulatesSnapshots(t *testing.T) {
	store := &mockStore{}
	logger := newTestLogger(store)

	logger.LogChange(domain.AuditActionDiscountCreated, "Discount", "disc-9", "discount updated",
		map[string]any{"percent": 10}, map[string]any{"percent": 20})
	require.NoError(t, logger.Flush(context.Background()))

	require.Equal(t, 1, store.insertedCount())
	entry := store.inserted[0]
	require.NotNil(t, entry.Changes)
	assert.Equal(t, "Discount", entry.Resource)
	assert.Equal(t, "disc-9", entry.ResourceID)
	assert.True(t, entry.Success)
}

func TestStopDrainsWholeQueue(t *testing.T) {
	store := &mockStore{}
	logger := New(store, Options{FlushInterval: time.Hour, BatchSize: 100})
	logger.Start()

	for i := 0; i < 250; i++ {
		logger.Info(domain.AuditActionCouponClaimed, "claim", nil)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, logger.Stop(ctx))

	assert.Equal(t, 250, store.insertedCount())
	assert.Equal(t, 0, logger.QueueDepth())
}

func TestLogDefaultsSuccessTrue(t *testing.T) {
	store := &mockStore{}
	logger := newTestLogger(store)

	logger.Log(domain.AuditEntry{
		Action:      domain.AuditActionLogin,
		Severity:    domain.SeverityInfo,
		Description: "raw entry through the generic API",
	})
	logger.Log(domain.AuditEntry{
		Action:      domain.AuditActionAPIError,
		Severity:    domain.SeverityError,
		Description: "raw failure",
	})
	logger.Log(domain.AuditEntry{
		Action:       domain.AuditActionLogin,
		Severity:     domain.SeverityInfo,
		Description:  "failed despite INFO severity",
		ErrorMessage: "boom",
	})

	require.NoError(t, logger.Flush(context.Background()))
	require.Equal(t, 3, store.insertedCount())
	assert.True(t, store.inserted[0].Success, "entries default to success unless marked failed")
	assert.False(t, store.inserted[1].Success, "ERROR severity marks the entry failed")
	assert.False(t, store.inserted[2].Success, "an error message marks the entry failed")
}

func TestErrorWrapperRecordsFailure(t *testing.T) {
	store := &mockStore{}
	logger := newTestLogger(store)

	logger.Error(domain.AuditActionAPIError, "upstream call failed", errors.New("boom"), nil)
	require.NoError(t, logger.Flush(context.Background()))

	require.Equal(t, 1, store.insertedCount())
	entry := store.inserted[0]
	assert.Equal(t, domain.SeverityError, entry.Severity)
	assert.False(t, entry.Success)
	assert.Equal(t, "boom", entry.ErrorMessage)
}
