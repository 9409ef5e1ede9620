package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/sirupsen/logrus"

	"github.com/jaidevxr/monsoon-guardian-sub001/internal/cache"
	"github.com/jaidevxr/monsoon-guardian-sub001/internal/geo"
	"github.com/jaidevxr/monsoon-guardian-sub001/internal/models"
	"github.com/jaidevxr/monsoon-guardian-sub001/internal/observability"
)

const (
	defaultFacilityRadiusMeters = 5000
	maxFacilityRadiusMeters     = 50000

	facilityCacheCategory = "facilities"
)

// ErrUnsupportedCategory is returned by providers for a facility category
// they cannot search.
var ErrUnsupportedCategory = errors.New("unsupported facility category")

// FacilityProvider is the contract for the raw geocoded facility query.
type FacilityProvider interface {
	Search(ctx context.Context, origin orb.Point, radiusMeters int, category string) ([]*models.Facility, error)
}

// FacilityService returns nearby facilities ranked by great-circle distance.
type FacilityService interface {
	FindNearby(ctx context.Context, lat, lng float64, radiusMeters int, category string) ([]*models.Facility, bool, error)
}

type facilityService struct {
	provider  FacilityProvider
	snapshots cache.Store
	logger    *logrus.Logger
	metrics   *observability.Metrics
}

func NewFacilityService(provider FacilityProvider, snapshots cache.Store, logger *logrus.Logger, metrics *observability.Metrics) FacilityService {
	return &facilityService{
		provider:  provider,
		snapshots: snapshots,
		logger:    logger,
		metrics:   metrics,
	}
}

// FindNearby queries the provider, annotates distances, and sorts ascending.
// The ranked result is cached per (category, location, radius); when the
// provider fails, the last-known snapshot is served instead and the second
// return value reports that the data came from cache.
func (s *facilityService) FindNearby(ctx context.Context, lat, lng float64, radiusMeters int, category string) ([]*models.Facility, bool, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":  "facility",
		"method":   "FindNearby",
		"category": category,
	})

	origin := orb.Point{lng, lat}
	if err := geo.ValidatePoint(origin); err != nil {
		return nil, false, fmt.Errorf("service: %w", err)
	}
	if radiusMeters <= 0 {
		radiusMeters = defaultFacilityRadiusMeters
	}
	if radiusMeters > maxFacilityRadiusMeters {
		radiusMeters = maxFacilityRadiusMeters
	}

	key := fmt.Sprintf("%s:%.3f,%.3f:%d", category, lat, lng, radiusMeters)

	facilities, err := s.provider.Search(ctx, origin, radiusMeters, category)
	if err != nil {
		if errors.Is(err, ErrUnsupportedCategory) {
			return nil, false, fmt.Errorf("service: %w", err)
		}
		log.WithError(err).Warn("Facility provider failed, falling back to cached snapshot")
		cached, cacheErr := s.fromSnapshot(ctx, key)
		if cacheErr != nil {
			s.metrics.SnapshotLookups.WithLabelValues(facilityCacheCategory, "miss").Inc()
			return nil, false, fmt.Errorf("service: could not find facilities: %w", err)
		}
		s.metrics.SnapshotLookups.WithLabelValues(facilityCacheCategory, "hit").Inc()
		return cached, true, nil
	}

	if err := geo.RankByDistance(origin, facilities); err != nil {
		return nil, false, fmt.Errorf("service: could not rank facilities: %w", err)
	}

	if err := s.snapshots.Put(ctx, facilityCacheCategory, key, facilities); err != nil {
		// Caching is best effort; the fresh result is still valid.
		log.WithError(err).Warn("Failed to cache facility snapshot")
	}

	log.WithField("count", len(facilities)).Info("Nearby facilities ranked")
	return facilities, false, nil
}

func (s *facilityService) fromSnapshot(ctx context.Context, key string) ([]*models.Facility, error) {
	snap, err := s.snapshots.Get(ctx, facilityCacheCategory, key)
	if err != nil {
		if errors.Is(err, cache.ErrMiss) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to read facility snapshot: %w", err)
	}

	var facilities []*models.Facility
	if err := snap.Decode(&facilities); err != nil {
		return nil, err
	}
	return facilities, nil
}
