package notify

import (
	"context"
	"encoding/json"
	"fmt"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/sirupsen/logrus"

	"github.com/jaidevxr/monsoon-guardian-sub001/internal/models"
)

// Notifier reports the outcome of a drain pass to the user.
type Notifier interface {
	NotifyDrainSummary(ctx context.Context, summary models.DrainSummary) error
}

// LogNotifier writes the summary to the application log. Used when no push
// subscription is configured.
type LogNotifier struct {
	logger *logrus.Logger
}

func NewLogNotifier(logger *logrus.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) NotifyDrainSummary(_ context.Context, summary models.DrainSummary) error {
	n.logger.WithFields(logrus.Fields{
		"attempted": summary.Attempted,
		"sent":      summary.Sent,
		"failed":    summary.Failed,
	}).Info("Pending alerts synced")
	return nil
}

// WebPushNotifier delivers the drain summary to the PWA through a Web Push
// subscription. The deployment is single-user, so one subscription from
// config is enough.
type WebPushNotifier struct {
	subscription    *webpush.Subscription
	vapidPublicKey  string
	vapidPrivateKey string
	subscriber      string
	logger          *logrus.Logger
}

// NewWebPushNotifier parses the subscription JSON the browser produced at
// registration time.
func NewWebPushNotifier(subscriptionJSON, vapidPublicKey, vapidPrivateKey, subscriber string, logger *logrus.Logger) (*WebPushNotifier, error) {
	sub := &webpush.Subscription{}
	if err := json.Unmarshal([]byte(subscriptionJSON), sub); err != nil {
		return nil, fmt.Errorf("failed to parse push subscription: %w", err)
	}
	if sub.Endpoint == "" {
		return nil, fmt.Errorf("push subscription has no endpoint")
	}
	return &WebPushNotifier{
		subscription:    sub,
		vapidPublicKey:  vapidPublicKey,
		vapidPrivateKey: vapidPrivateKey,
		subscriber:      subscriber,
		logger:          logger,
	}, nil
}

func (n *WebPushNotifier) NotifyDrainSummary(_ context.Context, summary models.DrainSummary) error {
	body := map[string]any{
		"title": "Alerts synced",
		"body":  fmt.Sprintf("%d of %d queued alerts delivered", summary.Sent, summary.Attempted),
		"data":  summary,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal push payload: %w", err)
	}

	resp, err := webpush.SendNotification(payload, n.subscription, &webpush.Options{
		Subscriber:      n.subscriber,
		VAPIDPublicKey:  n.vapidPublicKey,
		VAPIDPrivateKey: n.vapidPrivateKey,
		TTL:             3600,
	})
	if err != nil {
		return fmt.Errorf("failed to send push notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("push endpoint returned status %d", resp.StatusCode)
	}

	n.logger.WithField("sent", summary.Sent).Debug("Drain summary pushed to subscriber")
	return nil
}
