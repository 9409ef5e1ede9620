package service

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

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

const testWeatherTTL = 10 * time.Minute

func newTestWeatherService(t *testing.T) (WeatherService, *mocks.MockWeatherProvider, *clockwork.FakeClock) {
	ctrl := gomock.NewController(t)
	providerMock := mocks.NewMockWeatherProvider(ctrl)

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})

	clock := clockwork.NewFakeClock()
	store := cache.NewMemoryStore(clock)
	service := NewWeatherService(providerMock, store, logger, clock, observability.NewMetricsForTesting(), testWeatherTTL)
	return service, providerMock, clock
}

func TestWeatherCurrent_FetchesAndCaches(t *testing.T) {
	service, providerMock, _ := newTestWeatherService(t)
	ctx := context.Background()
	lat, lng := 12.9716, 77.5946
	report := &models.WeatherReport{TemperatureC: 27.5, Condition: "rain"}

	providerMock.EXPECT().Current(ctx, lat, lng).Return(report, nil).Times(1)

	got, cached, err := service.Current(ctx, lat, lng)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, report, got)

	// Within the TTL the provider must not be called again.
	got, cached, err = service.Current(ctx, lat, lng)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, report.TemperatureC, got.TemperatureC)
	assert.Equal(t, report.Condition, got.Condition)
}

func TestWeatherCurrent_StaleSnapshotRefetches(t *testing.T) {
	service, providerMock, clock := newTestWeatherService(t)
	ctx := context.Background()
	lat, lng := 12.9716, 77.5946

	providerMock.EXPECT().
		Current(ctx, lat, lng).
		Return(&models.WeatherReport{TemperatureC: 27.5}, nil).Times(1)

	_, _, err := service.Current(ctx, lat, lng)
	require.NoError(t, err)

	clock.Advance(testWeatherTTL + time.Minute)

	providerMock.EXPECT().
		Current(ctx, lat, lng).
		Return(&models.WeatherReport{TemperatureC: 31.0}, nil).Times(1)

	got, cached, err := service.Current(ctx, lat, lng)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 31.0, got.TemperatureC)
}

func TestWeatherCurrent_UpstreamFailureServesStale(t *testing.T) {
	service, providerMock, clock := newTestWeatherService(t)
	ctx := context.Background()
	lat, lng := 12.9716, 77.5946

	providerMock.EXPECT().
		Current(ctx, lat, lng).
		Return(&models.WeatherReport{TemperatureC: 27.5, Condition: "rain"}, nil).Times(1)

	_, _, err := service.Current(ctx, lat, lng)
	require.NoError(t, err)

	clock.Advance(testWeatherTTL + time.Minute)

	providerMock.EXPECT().
		Current(ctx, lat, lng).
		Return(nil, fmt.Errorf("upstream timeout")).Times(1)

	got, cached, err := service.Current(ctx, lat, lng)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, 27.5, got.TemperatureC)
}

func TestWeatherCurrent_UpstreamFailureNoSnapshot(t *testing.T) {
	service, providerMock, _ := newTestWeatherService(t)
	ctx := context.Background()

	providerMock.EXPECT().
		Current(ctx, 12.97, 77.59).
		Return(nil, fmt.Errorf("upstream timeout")).Times(1)

	got, cached, err := service.Current(ctx, 12.97, 77.59)

	require.Error(t, err)
	assert.False(t, cached)
	assert.Nil(t, got)
	assert.ErrorContains(t, err, "could not fetch weather")
}

func TestWeatherCurrent_InvalidCoordinates(t *testing.T) {
	service, providerMock, _ := newTestWeatherService(t)

	providerMock.EXPECT().Current(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	_, _, err := service.Current(context.Background(), 95.0, 77.59)

	require.Error(t, err)
	assert.ErrorIs(t, err, geo.ErrInvalidCoordinate)
}
