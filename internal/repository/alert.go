package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jaidevxr/monsoon-guardian-sub001/internal/models"
	"github.com/jaidevxr/monsoon-guardian-sub001/internal/service"
)

// AlertRepository stores pending alerts in Postgres. A BIGSERIAL position
// column preserves insertion order independently of client clocks.
type AlertRepository struct {
	db *pgxpool.Pool
}

func NewAlertRepository(db *pgxpool.Pool) service.AlertRepository {
	return &AlertRepository{db: db}
}

// Enqueue appends the alert to the queue.
func (r *AlertRepository) Enqueue(ctx context.Context, alert *models.PendingAlert) error {
	query := `
		INSERT INTO pending_alerts (id, payload, created_at)
		VALUES ($1, $2, $3);
	`
	if _, err := r.db.Exec(ctx, query, alert.ID, alert.Payload, alert.CreatedAt); err != nil {
		return fmt.Errorf("failed to enqueue alert: %w", err)
	}
	return nil
}

// ListPending returns every queued alert in insertion order.
func (r *AlertRepository) ListPending(ctx context.Context) ([]*models.PendingAlert, error) {
	query := `
		SELECT id, payload, created_at
		FROM pending_alerts
		ORDER BY position ASC;
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending alerts: %w", err)
	}
	defer rows.Close()

	alerts := make([]*models.PendingAlert, 0)
	for rows.Next() {
		alert := &models.PendingAlert{}
		if err := rows.Scan(&alert.ID, &alert.Payload, &alert.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan pending alert row: %w", err)
		}
		alerts = append(alerts, alert)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pending alerts: %w", err)
	}
	return alerts, nil
}

// Remove deletes the alert with the given id. Deleting an id that is already
// gone is not an error, which keeps removal idempotent for retried drains.
func (r *AlertRepository) Remove(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM pending_alerts WHERE id = $1;`
	if _, err := r.db.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to remove alert: %w", err)
	}
	return nil
}

// CountPending returns the queue depth.
func (r *AlertRepository) CountPending(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM pending_alerts;`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count pending alerts: %w", err)
	}
	return count, nil
}
