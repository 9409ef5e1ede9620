package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/paulmach/orb"
	"github.com/sirupsen/logrus"

	"github.com/jaidevxr/monsoon-guardian-sub001/internal/cache"
	"github.com/jaidevxr/monsoon-guardian-sub001/internal/geo"
	"github.com/jaidevxr/monsoon-guardian-sub001/internal/models"
	"github.com/jaidevxr/monsoon-guardian-sub001/internal/observability"
)

const weatherCacheCategory = "weather"

// WeatherProvider is the contract for the upstream current-weather query.
type WeatherProvider interface {
	Current(ctx context.Context, lat, lng float64) (*models.WeatherReport, error)
}

// WeatherService serves current weather through the snapshot cache.
type WeatherService interface {
	Current(ctx context.Context, lat, lng float64) (*models.WeatherReport, bool, error)
}

type weatherService struct {
	provider  WeatherProvider
	snapshots cache.Store
	logger    *logrus.Logger
	clock     clockwork.Clock
	metrics   *observability.Metrics
	ttl       time.Duration
}

func NewWeatherService(provider WeatherProvider, snapshots cache.Store, logger *logrus.Logger, clock clockwork.Clock, metrics *observability.Metrics, ttl time.Duration) WeatherService {
	return &weatherService{
		provider:  provider,
		snapshots: snapshots,
		logger:    logger,
		clock:     clock,
		metrics:   metrics,
		ttl:       ttl,
	}
}

// Current returns the weather for the coordinates. Fresh snapshots are served
// directly; stale ones trigger an upstream refresh, and when the upstream is
// unreachable the stale snapshot is served as a degraded answer. The second
// return value reports whether the data came from cache.
func (s *weatherService) Current(ctx context.Context, lat, lng float64) (*models.WeatherReport, bool, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "weather",
		"method":  "Current",
	})

	if err := geo.ValidatePoint(orb.Point{lng, lat}); err != nil {
		return nil, false, fmt.Errorf("service: %w", err)
	}

	// Locations are coarsened to ~1 km so nearby queries share a snapshot.
	key := fmt.Sprintf("%.2f,%.2f", lat, lng)

	snap, err := s.snapshots.Get(ctx, weatherCacheCategory, key)
	if err != nil && !errors.Is(err, cache.ErrMiss) {
		// Degraded cache is not fatal; continue to the upstream.
		log.WithError(err).Warn("Failed to read weather snapshot")
		snap = nil
	}

	if snap != nil && !snap.Stale(s.clock.Now().UTC(), s.ttl) {
		report := &models.WeatherReport{}
		decodeErr := snap.Decode(report)
		if decodeErr == nil {
			s.metrics.SnapshotLookups.WithLabelValues(weatherCacheCategory, "hit").Inc()
			return report, true, nil
		}
		log.WithError(decodeErr).Warn("Failed to decode weather snapshot, refetching")
	}

	report, err := s.provider.Current(ctx, lat, lng)
	if err != nil {
		if snap != nil {
			// Serve the stale snapshot rather than nothing.
			stale := &models.WeatherReport{}
			if decodeErr := snap.Decode(stale); decodeErr == nil {
				log.WithError(err).Warn("Weather upstream failed, serving stale snapshot")
				s.metrics.SnapshotLookups.WithLabelValues(weatherCacheCategory, "stale").Inc()
				return stale, true, nil
			}
		}
		s.metrics.SnapshotLookups.WithLabelValues(weatherCacheCategory, "miss").Inc()
		return nil, false, fmt.Errorf("service: could not fetch weather: %w", err)
	}

	if err := s.snapshots.Put(ctx, weatherCacheCategory, key, report); err != nil {
		log.WithError(err).Warn("Failed to cache weather snapshot")
	}

	return report, false, nil
}
