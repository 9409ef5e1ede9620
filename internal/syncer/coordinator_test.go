package syncer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaidevxr/monsoon-guardian-sub001/internal/models"
	"github.com/jaidevxr/monsoon-guardian-sub001/internal/observability"
)

// fakeAlertRepo is an in-memory, insertion-ordered queue with idempotent
// removal, mirroring the Postgres repository contract.
type fakeAlertRepo struct {
	mu     sync.Mutex
	alerts []*models.PendingAlert
}

func (f *fakeAlertRepo) Enqueue(_ context.Context, alert *models.PendingAlert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, alert)
	return nil
}

func (f *fakeAlertRepo) ListPending(_ context.Context) ([]*models.PendingAlert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.PendingAlert, len(f.alerts))
	copy(out, f.alerts)
	return out, nil
}

func (f *fakeAlertRepo) Remove(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, a := range f.alerts {
		if a.ID == id {
			f.alerts = append(f.alerts[:i], f.alerts[i+1:]...)
			return nil
		}
	}
	return nil // absent id is a no-op
}

func (f *fakeAlertRepo) CountPending(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.alerts), nil
}

// fakeDispatcher fails the ids listed in failing and records dispatch order.
// When block is set, every Dispatch waits until the channel is closed.
type fakeDispatcher struct {
	mu      sync.Mutex
	failing map[uuid.UUID]bool
	calls   []uuid.UUID
	block   chan struct{}
}

func (f *fakeDispatcher) Dispatch(_ context.Context, alert *models.PendingAlert) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, alert.ID)
	if f.failing[alert.ID] {
		return fmt.Errorf("remote endpoint unreachable")
	}
	return nil
}

func (f *fakeDispatcher) dispatched() []uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]uuid.UUID, len(f.calls))
	copy(out, f.calls)
	return out
}

type fakeNotifier struct {
	mu        sync.Mutex
	summaries []models.DrainSummary
}

func (f *fakeNotifier) NotifyDrainSummary(_ context.Context, summary models.DrainSummary) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summaries = append(f.summaries, summary)
	return nil
}

func (f *fakeNotifier) notified() []models.DrainSummary {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.DrainSummary, len(f.summaries))
	copy(out, f.summaries)
	return out
}

type fakeObserver struct {
	online  bool
	changes chan bool
}

func (f *fakeObserver) Online() bool         { return f.online }
func (f *fakeObserver) Changes() <-chan bool { return f.changes }

func newTestCoordinator(t *testing.T, repo *fakeAlertRepo, dispatcher *fakeDispatcher, observer *fakeObserver) (*Coordinator, *fakeNotifier) {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})

	notifier := &fakeNotifier{}
	coord := NewCoordinator(
		repo,
		dispatcher,
		notifier,
		observer,
		logger,
		clockwork.NewFakeClock(),
		observability.NewMetricsForTesting(),
	)
	return coord, notifier
}

func queuedAlert(t *testing.T, repo *fakeAlertRepo, msg string) uuid.UUID {
	t.Helper()
	payload, err := json.Marshal(models.AlertPayload{Category: "flood", Message: msg})
	require.NoError(t, err)
	alert := &models.PendingAlert{
		ID:        uuid.New(),
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.Enqueue(context.Background(), alert))
	return alert.ID
}

func waitForIdle(t *testing.T, coord *Coordinator) {
	t.Helper()
	require.Eventually(t, func() bool {
		return !coord.draining.Load()
	}, 2*time.Second, 5*time.Millisecond)
}

func TestDrain_PartialFailureRetainsItemsInOrder(t *testing.T) {
	repo := &fakeAlertRepo{}
	first := queuedAlert(t, repo, "first")
	second := queuedAlert(t, repo, "second")
	third := queuedAlert(t, repo, "third")

	dispatcher := &fakeDispatcher{failing: map[uuid.UUID]bool{second: true}}
	coord, notifier := newTestCoordinator(t, repo, dispatcher, &fakeObserver{})

	require.True(t, coord.TriggerDrain(context.Background()))
	waitForIdle(t, coord)

	// Failed item stays, successful ones are gone.
	remaining, err := repo.ListPending(context.Background())
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, second, remaining[0].ID)

	// Delivery was attempted in insertion order.
	assert.Equal(t, []uuid.UUID{first, second, third}, dispatcher.dispatched())

	summaries := notifier.notified()
	require.Len(t, summaries, 1)
	assert.Equal(t, 3, summaries[0].Attempted)
	assert.Equal(t, 2, summaries[0].Sent)
	assert.Equal(t, 1, summaries[0].Failed)

	last, ok := coord.LastSummary()
	require.True(t, ok)
	assert.Equal(t, summaries[0], last)
}

func TestDrain_AllFail(t *testing.T) {
	repo := &fakeAlertRepo{}
	a := queuedAlert(t, repo, "a")
	b := queuedAlert(t, repo, "b")

	dispatcher := &fakeDispatcher{failing: map[uuid.UUID]bool{a: true, b: true}}
	coord, notifier := newTestCoordinator(t, repo, dispatcher, &fakeObserver{})

	require.True(t, coord.TriggerDrain(context.Background()))
	waitForIdle(t, coord)

	remaining, err := repo.ListPending(context.Background())
	require.NoError(t, err)
	require.Len(t, remaining, 2)
	// Relative order of retained items survives the pass.
	assert.Equal(t, a, remaining[0].ID)
	assert.Equal(t, b, remaining[1].ID)

	summaries := notifier.notified()
	require.Len(t, summaries, 1)
	assert.Equal(t, 0, summaries[0].Sent)
	assert.Equal(t, 2, summaries[0].Failed)
}

func TestDrain_EmptyQueueSkipsNotification(t *testing.T) {
	repo := &fakeAlertRepo{}
	dispatcher := &fakeDispatcher{}
	coord, notifier := newTestCoordinator(t, repo, dispatcher, &fakeObserver{})

	require.True(t, coord.TriggerDrain(context.Background()))
	waitForIdle(t, coord)

	assert.Empty(t, notifier.notified())
	_, ok := coord.LastSummary()
	assert.False(t, ok)
}

func TestTriggerDrain_OutlivesCallerContext(t *testing.T) {
	repo := &fakeAlertRepo{}
	id := queuedAlert(t, repo, "queued while offline")

	dispatcher := &fakeDispatcher{}
	coord, notifier := newTestCoordinator(t, repo, dispatcher, &fakeObserver{})

	// An HTTP trigger's request context is cancelled the moment the handler
	// writes its response. The pass must still deliver everything.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.True(t, coord.TriggerDrain(ctx))
	waitForIdle(t, coord)

	require.Len(t, dispatcher.dispatched(), 1)
	assert.Equal(t, id, dispatcher.dispatched()[0])

	remaining, err := repo.CountPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)

	require.Len(t, notifier.notified(), 1)
	assert.Equal(t, 1, notifier.notified()[0].Sent)
}

func TestTriggerDrain_CoalescesConcurrentTriggers(t *testing.T) {
	repo := &fakeAlertRepo{}
	queuedAlert(t, repo, "only")

	dispatcher := &fakeDispatcher{block: make(chan struct{})}
	coord, _ := newTestCoordinator(t, repo, dispatcher, &fakeObserver{})

	require.True(t, coord.TriggerDrain(context.Background()))

	// Re-triggers while the pass is blocked inside Dispatch are ignored.
	assert.False(t, coord.TriggerDrain(context.Background()))
	assert.False(t, coord.TriggerDrain(context.Background()))

	close(dispatcher.block)
	waitForIdle(t, coord)

	// The item was processed exactly once despite three triggers.
	assert.Len(t, dispatcher.dispatched(), 1)
}

func TestRun_DrainsOnReconnect(t *testing.T) {
	repo := &fakeAlertRepo{}
	queuedAlert(t, repo, "queued while offline")

	dispatcher := &fakeDispatcher{}
	observer := &fakeObserver{online: false, changes: make(chan bool, 1)}
	coord, notifier := newTestCoordinator(t, repo, dispatcher, observer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	coord.Run(ctx)

	observer.changes <- true

	require.Eventually(t, func() bool {
		return len(notifier.notified()) == 1
	}, 2*time.Second, 5*time.Millisecond)

	count, err := repo.CountPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestRun_InitialDrainWhenAlreadyOnline(t *testing.T) {
	repo := &fakeAlertRepo{}
	queuedAlert(t, repo, "queued before startup")

	dispatcher := &fakeDispatcher{}
	observer := &fakeObserver{online: true, changes: make(chan bool)}
	coord, notifier := newTestCoordinator(t, repo, dispatcher, observer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	coord.Run(ctx)

	require.Eventually(t, func() bool {
		return len(notifier.notified()) == 1
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, notifier.notified()[0].Sent)
}

func TestRun_OfflineTransitionDoesNotDrain(t *testing.T) {
	repo := &fakeAlertRepo{}
	queuedAlert(t, repo, "stays queued")

	dispatcher := &fakeDispatcher{}
	observer := &fakeObserver{online: false, changes: make(chan bool, 1)}
	coord, notifier := newTestCoordinator(t, repo, dispatcher, observer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	coord.Run(ctx)

	observer.changes <- false
	time.Sleep(50 * time.Millisecond)

	assert.Empty(t, dispatcher.dispatched())
	assert.Empty(t, notifier.notified())
}
