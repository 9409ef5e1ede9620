package syncer

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/jaidevxr/monsoon-guardian-sub001/internal/connectivity"
	"github.com/jaidevxr/monsoon-guardian-sub001/internal/dispatch"
	"github.com/jaidevxr/monsoon-guardian-sub001/internal/models"
	"github.com/jaidevxr/monsoon-guardian-sub001/internal/notify"
	"github.com/jaidevxr/monsoon-guardian-sub001/internal/observability"
	"github.com/jaidevxr/monsoon-guardian-sub001/internal/service"
)

// Coordinator drains the pending-alert queue whenever connectivity returns.
//
// It is a two-state machine, Idle and Draining. Triggers are the
// offline-to-online transition, an initial check at startup when already
// online, and an explicit manual request. Triggers arriving while a drain is
// running are coalesced into that pass: items are never processed twice
// concurrently.
//
// Delivery is at-least-once. A crash between a successful dispatch and the
// local remove re-delivers the alert on the next pass; no idempotency key is
// attached.
type Coordinator struct {
	repo       service.AlertRepository
	dispatcher dispatch.Dispatcher
	notifier   notify.Notifier
	observer   connectivity.Observer
	logger     *logrus.Logger
	clock      clockwork.Clock
	metrics    *observability.Metrics

	draining atomic.Bool
	runCtx   context.Context

	mu          sync.Mutex
	lastSummary *models.DrainSummary
}

func NewCoordinator(
	repo service.AlertRepository,
	dispatcher dispatch.Dispatcher,
	notifier notify.Notifier,
	observer connectivity.Observer,
	logger *logrus.Logger,
	clock clockwork.Clock,
	metrics *observability.Metrics,
) *Coordinator {
	return &Coordinator{
		repo:       repo,
		dispatcher: dispatcher,
		notifier:   notifier,
		observer:   observer,
		logger:     logger,
		clock:      clock,
		metrics:    metrics,
		runCtx:     context.Background(),
	}
}

// Run starts the trigger loop until the context is cancelled. If the
// observer already reports online at startup, a first drain is attempted
// immediately.
func (c *Coordinator) Run(ctx context.Context) {
	c.runCtx = ctx
	c.logger.Info("Starting sync coordinator")

	go func() {
		if c.observer.Online() {
			c.TriggerDrain(ctx)
		}
		for {
			select {
			case <-ctx.Done():
				c.logger.Info("Stopping sync coordinator")
				return
			case online, ok := <-c.observer.Changes():
				if !ok {
					return
				}
				if online {
					c.TriggerDrain(ctx)
				}
			}
		}
	}()
}

// TriggerDrain moves the coordinator from Idle to Draining and runs one pass
// in the background. The pass runs on the coordinator's lifecycle context,
// not the caller's: an HTTP trigger must outlive its request context, which
// is cancelled as soon as the handler responds. When a pass is already
// running the call is a no-op and returns false.
func (c *Coordinator) TriggerDrain(_ context.Context) bool {
	if !c.draining.CompareAndSwap(false, true) {
		c.logger.Debug("Drain already in progress, trigger coalesced")
		return false
	}
	go func() {
		defer c.draining.Store(false)
		c.drain(c.runCtx)
	}()
	return true
}

// LastSummary returns the most recent completed drain result.
func (c *Coordinator) LastSummary() (models.DrainSummary, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastSummary == nil {
		return models.DrainSummary{}, false
	}
	return *c.lastSummary, true
}

// drain performs one full pass over the queue: every item is attempted in
// insertion order, successes are removed, failures stay for the next pass.
func (c *Coordinator) drain(ctx context.Context) {
	log := c.logger.WithField("component", "syncer")

	alerts, err := c.repo.ListPending(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to read pending alerts, drain aborted")
		return
	}
	if len(alerts) == 0 {
		log.Debug("Queue empty, nothing to drain")
		return
	}

	startedAt := c.clock.Now().UTC()
	log.WithField("pending", len(alerts)).Info("Draining pending alerts")

	delivered := 0
	for _, alert := range alerts {
		if ctx.Err() != nil {
			log.Warn("Drain interrupted by shutdown")
			break
		}

		if err := c.dispatcher.Dispatch(ctx, alert); err != nil {
			// Per-item failure: the alert stays queued for the next pass.
			log.WithError(err).WithField("alert_id", alert.ID).Warn("Alert delivery failed, retained in queue")
			c.metrics.AlertsRetained.Inc()
			continue
		}

		if err := c.repo.Remove(ctx, alert.ID); err != nil {
			// Delivered but not removed: the next pass re-delivers it.
			log.WithError(err).WithField("alert_id", alert.ID).Error("Failed to remove delivered alert, duplicate delivery possible")
			continue
		}
		delivered++
		c.metrics.AlertsDelivered.Inc()
	}

	sent := delivered
	if remaining, err := c.repo.CountPending(ctx); err == nil {
		// sent = initial - remaining, so alerts whose removal failed after
		// a successful send are not double counted.
		sent = len(alerts) - remaining
		if sent < 0 {
			sent = 0
		}
		c.metrics.PendingAlerts.Set(float64(remaining))
	} else {
		log.WithError(err).Warn("Failed to recount queue after drain")
	}

	summary := models.DrainSummary{
		StartedAt:  startedAt,
		FinishedAt: c.clock.Now().UTC(),
		Attempted:  len(alerts),
		Sent:       sent,
		Failed:     len(alerts) - sent,
	}
	c.metrics.DrainsTotal.Inc()

	c.mu.Lock()
	c.lastSummary = &summary
	c.mu.Unlock()

	if summary.Sent == 0 {
		log.WithField("failed", summary.Failed).Warn("Drain pass delivered nothing, all alerts retained")
	} else {
		log.WithFields(logrus.Fields{
			"attempted": summary.Attempted,
			"sent":      summary.Sent,
			"failed":    summary.Failed,
		}).Info("Drain pass completed")
	}

	if err := c.notifier.NotifyDrainSummary(ctx, summary); err != nil {
		log.WithError(err).Warn("Failed to notify drain summary")
	}
}
