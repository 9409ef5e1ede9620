package connectivity

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// HTTPProber determines connectivity by probing a well-known URL on an
// interval. Any response, including an HTTP error status, counts as online;
// only transport failures count as offline.
type HTTPProber struct {
	url        string
	interval   time.Duration
	logger     *logrus.Logger
	httpClient *http.Client

	online  atomic.Bool
	changes chan bool
}

var (
	_ Observer = (*HTTPProber)(nil)
	_ Starter  = (*HTTPProber)(nil)
)

func NewHTTPProber(url string, interval, timeout time.Duration, logger *logrus.Logger) *HTTPProber {
	return &HTTPProber{
		url:      url,
		interval: interval,
		logger:   logger,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		changes: make(chan bool, 1),
	}
}

func (p *HTTPProber) Online() bool {
	return p.online.Load()
}

func (p *HTTPProber) Changes() <-chan bool {
	return p.changes
}

// Start runs the probe loop until the context is cancelled. The first probe
// runs immediately so startup state is known before the first tick.
func (p *HTTPProber) Start(ctx context.Context) {
	p.logger.WithField("probe_url", p.url).Info("Starting connectivity prober")
	go func() {
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		p.probe(ctx)
		for {
			select {
			case <-ctx.Done():
				p.logger.Info("Stopping connectivity prober")
				return
			case <-ticker.C:
				p.probe(ctx)
			}
		}
	}()
}

func (p *HTTPProber) probe(ctx context.Context) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.url, nil)
	if err != nil {
		p.logger.WithError(err).Error("Failed to build connectivity probe request")
		return
	}

	resp, err := p.httpClient.Do(req)
	nowOnline := err == nil
	if resp != nil {
		resp.Body.Close()
	}

	if p.online.Swap(nowOnline) != nowOnline {
		p.logger.WithField("online", nowOnline).Info("Connectivity state changed")
		// Non-blocking send: transitions coalesce when the consumer lags.
		select {
		case p.changes <- nowOnline:
		default:
		}
	}
}
