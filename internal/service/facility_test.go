package service

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/jaidevxr/monsoon-guardian-sub001/internal/cache"
	"github.com/jaidevxr/monsoon-guardian-sub001/internal/geo"
	"github.com/jaidevxr/monsoon-guardian-sub001/internal/models"
	"github.com/jaidevxr/monsoon-guardian-sub001/internal/observability"
	"github.com/jaidevxr/monsoon-guardian-sub001/internal/service/mocks"
)

func newTestFacilityService(t *testing.T) (FacilityService, *mocks.MockFacilityProvider, *cache.MemoryStore) {
	ctrl := gomock.NewController(t)
	providerMock := mocks.NewMockFacilityProvider(ctrl)

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})

	store := cache.NewMemoryStore(clockwork.NewFakeClock())
	service := NewFacilityService(providerMock, store, logger, observability.NewMetricsForTesting())
	return service, providerMock, store
}

func TestFindNearby_RanksAscending(t *testing.T) {
	service, providerMock, _ := newTestFacilityService(t)
	ctx := context.Background()
	lat, lng := 12.9716, 77.5946

	// Returned out of order on purpose.
	providerMock.EXPECT().
		Search(ctx, gomock.Any(), 5000, "hospital").
		Return([]*models.Facility{
			{ID: 1, Name: "far", Latitude: lat + 0.045, Longitude: lng},
			{ID: 2, Name: "near", Latitude: lat + 0.0108, Longitude: lng},
			{ID: 3, Name: "mid", Latitude: lat + 0.0332, Longitude: lng},
		}, nil).Times(1)

	facilities, cached, err := service.FindNearby(ctx, lat, lng, 5000, "hospital")

	require.NoError(t, err)
	assert.False(t, cached)
	require.Len(t, facilities, 3)
	assert.Equal(t, "near", facilities[0].Name)
	assert.Equal(t, "mid", facilities[1].Name)
	assert.Equal(t, "far", facilities[2].Name)
	assert.Greater(t, facilities[0].DistanceKm, 0.0)
}

func TestFindNearby_InvalidOrigin(t *testing.T) {
	service, providerMock, _ := newTestFacilityService(t)

	providerMock.EXPECT().Search(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	_, _, err := service.FindNearby(context.Background(), 120.0, 77.59, 5000, "hospital")

	require.Error(t, err)
	assert.ErrorIs(t, err, geo.ErrInvalidCoordinate)
}

func TestFindNearby_DefaultsRadius(t *testing.T) {
	service, providerMock, _ := newTestFacilityService(t)
	ctx := context.Background()

	providerMock.EXPECT().
		Search(ctx, gomock.Any(), defaultFacilityRadiusMeters, "pharmacy").
		Return([]*models.Facility{}, nil).Times(1)

	_, _, err := service.FindNearby(ctx, 12.97, 77.59, 0, "pharmacy")
	require.NoError(t, err)
}

func TestFindNearby_ClampsOversizedRadius(t *testing.T) {
	service, providerMock, _ := newTestFacilityService(t)
	ctx := context.Background()

	providerMock.EXPECT().
		Search(ctx, gomock.Any(), maxFacilityRadiusMeters, "police").
		Return([]*models.Facility{}, nil).Times(1)

	_, _, err := service.FindNearby(ctx, 12.97, 77.59, 900000, "police")
	require.NoError(t, err)
}

func TestFindNearby_ProviderFailureServesSnapshot(t *testing.T) {
	service, providerMock, _ := newTestFacilityService(t)
	ctx := context.Background()
	lat, lng := 12.9716, 77.5946

	providerMock.EXPECT().
		Search(ctx, gomock.Any(), 5000, "hospital").
		Return([]*models.Facility{
			{ID: 1, Name: "City Hospital", Latitude: lat + 0.01, Longitude: lng},
		}, nil).Times(1)

	// First call fills the snapshot.
	fresh, cached, err := service.FindNearby(ctx, lat, lng, 5000, "hospital")
	require.NoError(t, err)
	require.False(t, cached)

	// Second call fails upstream and falls back to the snapshot.
	providerMock.EXPECT().
		Search(ctx, gomock.Any(), 5000, "hospital").
		Return(nil, fmt.Errorf("overpass unreachable")).Times(1)

	stale, cached, err := service.FindNearby(ctx, lat, lng, 5000, "hospital")
	require.NoError(t, err)
	assert.True(t, cached)
	require.Len(t, stale, 1)
	assert.Equal(t, fresh[0].ID, stale[0].ID)
	assert.Equal(t, fresh[0].DistanceKm, stale[0].DistanceKm)
}

func TestFindNearby_ProviderFailureNoSnapshot(t *testing.T) {
	service, providerMock, _ := newTestFacilityService(t)
	ctx := context.Background()

	providerMock.EXPECT().
		Search(ctx, gomock.Any(), 5000, "shelter").
		Return(nil, fmt.Errorf("overpass unreachable")).Times(1)

	facilities, cached, err := service.FindNearby(ctx, 12.97, 77.59, 5000, "shelter")

	require.Error(t, err)
	assert.False(t, cached)
	assert.Nil(t, facilities)
	assert.ErrorContains(t, err, "could not find facilities")
}
