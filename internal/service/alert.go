package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/jaidevxr/monsoon-guardian-sub001/internal/models"
	"github.com/jaidevxr/monsoon-guardian-sub001/internal/observability"
)

// AlertRepository is the contract for the durable pending-alert queue.
// ListPending returns alerts in insertion order; Remove is idempotent.
type AlertRepository interface {
	Enqueue(ctx context.Context, alert *models.PendingAlert) error
	ListPending(ctx context.Context) ([]*models.PendingAlert, error)
	Remove(ctx context.Context, id uuid.UUID) error
	CountPending(ctx context.Context) (int, error)
}

// AlertService is the business logic for the offline alert queue.
type AlertService interface {
	EnqueueAlert(ctx context.Context, payload models.AlertPayload) (*models.PendingAlert, error)
	ListPending(ctx context.Context) ([]*models.PendingAlert, error)
	CancelAlert(ctx context.Context, id uuid.UUID) error
	PendingCount(ctx context.Context) (int, error)
}

type alertService struct {
	repo    AlertRepository
	logger  *logrus.Logger
	clock   clockwork.Clock
	metrics *observability.Metrics
}

func NewAlertService(repo AlertRepository, logger *logrus.Logger, clock clockwork.Clock, metrics *observability.Metrics) AlertService {
	return &alertService{
		repo:    repo,
		logger:  logger,
		clock:   clock,
		metrics: metrics,
	}
}

// EnqueueAlert assigns a fresh id, stamps the payload, and appends it durably
// to the queue. The alert stays queued until the sync coordinator confirms
// one delivery.
func (s *alertService) EnqueueAlert(ctx context.Context, payload models.AlertPayload) (*models.PendingAlert, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":  "alert",
		"method":   "EnqueueAlert",
		"category": payload.Category,
	})
	log.Info("Enqueueing emergency alert")

	raw, err := json.Marshal(payload)
	if err != nil {
		log.WithError(err).Error("Failed to marshal alert payload")
		return nil, fmt.Errorf("service: could not marshal alert payload: %w", err)
	}

	alert := &models.PendingAlert{
		ID:        uuid.New(),
		Payload:   raw,
		CreatedAt: s.clock.Now().UTC(),
	}

	if err := s.repo.Enqueue(ctx, alert); err != nil {
		log.WithError(err).Error("Failed to enqueue alert in repository")
		return nil, fmt.Errorf("service: could not enqueue alert: %w", err)
	}

	s.refreshPendingGauge(ctx)
	log.WithField("alert_id", alert.ID).Info("Alert enqueued successfully")
	return alert, nil
}

// ListPending returns the queue in insertion order.
func (s *alertService) ListPending(ctx context.Context) ([]*models.PendingAlert, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "alert",
		"method":  "ListPending",
	})

	alerts, err := s.repo.ListPending(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to list pending alerts from repository")
		return nil, fmt.Errorf("service: could not list pending alerts: %w", err)
	}

	log.WithField("count", len(alerts)).Info("Pending alerts listed")
	return alerts, nil
}

// CancelAlert removes an alert before delivery. Removing an id that is no
// longer queued is a no-op.
func (s *alertService) CancelAlert(ctx context.Context, id uuid.UUID) error {
	log := s.logger.WithFields(logrus.Fields{
		"service":  "alert",
		"method":   "CancelAlert",
		"alert_id": id,
	})
	log.Info("Cancelling pending alert")

	if err := s.repo.Remove(ctx, id); err != nil {
		log.WithError(err).Error("Failed to remove alert from repository")
		return fmt.Errorf("service: could not cancel alert: %w", err)
	}

	s.refreshPendingGauge(ctx)
	return nil
}

// PendingCount returns the current queue depth.
func (s *alertService) PendingCount(ctx context.Context) (int, error) {
	count, err := s.repo.CountPending(ctx)
	if err != nil {
		return 0, fmt.Errorf("service: could not count pending alerts: %w", err)
	}
	return count, nil
}

func (s *alertService) refreshPendingGauge(ctx context.Context) {
	count, err := s.repo.CountPending(ctx)
	if err != nil {
		// Gauge staleness is acceptable; the queue itself is authoritative.
		s.logger.WithError(err).Warn("Failed to refresh pending-alert gauge")
		return
	}
	s.metrics.PendingAlerts.Set(float64(count))
}
