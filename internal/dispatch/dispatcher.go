package dispatch

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jaidevxr/monsoon-guardian-sub001/internal/config"
	"github.com/jaidevxr/monsoon-guardian-sub001/internal/models"
	"github.com/jaidevxr/monsoon-guardian-sub001/internal/observability"
)

// Dispatcher delivers one alert to the remote alert-dispatch endpoint.
// An error means the alert must stay queued.
type Dispatcher interface {
	Dispatch(ctx context.Context, alert *models.PendingAlert) error
}

// WebhookDispatcher posts alerts as JSON to a configured webhook URL with an
// optional HMAC-SHA256 signature. Each Dispatch call is bounded by the
// configured per-attempt timeout and retried with exponential backoff up to
// the configured limit; exhausting retries reports failure and the alert is
// retried on the next drain.
type WebhookDispatcher struct {
	cfg        *config.Config
	logger     *logrus.Logger
	metrics    *observability.Metrics
	httpClient *http.Client
}

func NewWebhookDispatcher(cfg *config.Config, logger *logrus.Logger, metrics *observability.Metrics) *WebhookDispatcher {
	return &WebhookDispatcher{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		httpClient: &http.Client{
			Timeout: cfg.WebhookTimeout,
		},
	}
}

func (d *WebhookDispatcher) Dispatch(ctx context.Context, alert *models.PendingAlert) error {
	log := d.logger.WithField("alert_id", alert.ID)

	if d.cfg.WebhookURL == "" {
		return fmt.Errorf("webhook URL is not configured")
	}

	payload, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to marshal alert for dispatch: %w", err)
	}

	delay := d.cfg.WebhookBaseDelay
	var lastErr error
	for i := 0; i < d.cfg.WebhookMaxRetries; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("dispatch cancelled: %w", ctx.Err())
			case <-time.After(delay):
			}
			delay *= 2
		}

		lastErr = d.attempt(ctx, payload)
		if lastErr == nil {
			log.Info("Alert delivered successfully")
			return nil
		}
		log.WithError(lastErr).Warnf("Alert delivery attempt failed. Retries left: %d", d.cfg.WebhookMaxRetries-1-i)
	}

	return fmt.Errorf("failed to deliver alert after %d attempts: %w", d.cfg.WebhookMaxRetries, lastErr)
}

func (d *WebhookDispatcher) attempt(ctx context.Context, payload []byte) error {
	attemptCtx, cancel := context.WithTimeout(ctx, d.cfg.WebhookTimeout)
	defer cancel()

	start := time.Now()
	defer func() {
		d.metrics.DispatchDuration.Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, d.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create dispatch request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if d.cfg.WebhookSecret != "" {
		req.Header.Set("X-Webhook-Signature", signHMACSHA256(payload, d.cfg.WebhookSecret))
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("dispatch request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("dispatch endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// signHMACSHA256 signs the payload so the receiver can verify origin.
func signHMACSHA256(data []byte, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
