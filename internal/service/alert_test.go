package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/jaidevxr/monsoon-guardian-sub001/internal/models"
	"github.com/jaidevxr/monsoon-guardian-sub001/internal/observability"
	"github.com/jaidevxr/monsoon-guardian-sub001/internal/service/mocks"
)

func newTestAlertService(t *testing.T) (*alertService, *mocks.MockAlertRepository, *clockwork.FakeClock) {
	ctrl := gomock.NewController(t)
	repoMock := mocks.NewMockAlertRepository(ctrl)

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})

	clock := clockwork.NewFakeClock()
	service := NewAlertService(repoMock, logger, clock, observability.NewMetricsForTesting())
	return service.(*alertService), repoMock, clock
}

func TestEnqueueAlert_Success(t *testing.T) {
	service, repoMock, clock := newTestAlertService(t)
	ctx := context.Background()
	payload := models.AlertPayload{
		Category:  "flood",
		Message:   "Water entering ground floor",
		Latitude:  12.97,
		Longitude: 77.59,
	}

	repoMock.EXPECT().
		Enqueue(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, alert *models.PendingAlert) error {
			assert.NotEqual(t, uuid.Nil, alert.ID)
			assert.Equal(t, clock.Now().UTC(), alert.CreatedAt)

			var stored models.AlertPayload
			require.NoError(t, json.Unmarshal(alert.Payload, &stored))
			assert.Equal(t, payload, stored)
			return nil
		}).Times(1)
	repoMock.EXPECT().CountPending(ctx).Return(1, nil).Times(1)

	alert, err := service.EnqueueAlert(ctx, payload)

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, alert.ID)
}

func TestEnqueueAlert_RepoError(t *testing.T) {
	service, repoMock, _ := newTestAlertService(t)
	ctx := context.Background()
	repoError := fmt.Errorf("disk full")

	repoMock.EXPECT().Enqueue(ctx, gomock.Any()).Return(repoError).Times(1)

	alert, err := service.EnqueueAlert(ctx, models.AlertPayload{Category: "fire"})

	require.Error(t, err)
	assert.Nil(t, alert)
	assert.ErrorContains(t, err, "could not enqueue alert")
}

func TestEnqueueAlert_FreshIDPerAlert(t *testing.T) {
	service, repoMock, _ := newTestAlertService(t)
	ctx := context.Background()

	seen := make(map[uuid.UUID]bool)
	repoMock.EXPECT().
		Enqueue(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, alert *models.PendingAlert) error {
			assert.False(t, seen[alert.ID], "id reused")
			seen[alert.ID] = true
			return nil
		}).Times(2)
	repoMock.EXPECT().CountPending(ctx).Return(0, nil).Times(2)

	_, err := service.EnqueueAlert(ctx, models.AlertPayload{Category: "flood"})
	require.NoError(t, err)
	_, err = service.EnqueueAlert(ctx, models.AlertPayload{Category: "flood"})
	require.NoError(t, err)
}

func TestListPending_Success(t *testing.T) {
	service, repoMock, _ := newTestAlertService(t)
	ctx := context.Background()
	expected := []*models.PendingAlert{
		{ID: uuid.New()},
		{ID: uuid.New()},
	}

	repoMock.EXPECT().ListPending(ctx).Return(expected, nil).Times(1)

	alerts, err := service.ListPending(ctx)

	require.NoError(t, err)
	assert.Equal(t, expected, alerts)
}

func TestListPending_RepoError(t *testing.T) {
	service, repoMock, _ := newTestAlertService(t)
	ctx := context.Background()

	repoMock.EXPECT().ListPending(ctx).Return(nil, fmt.Errorf("connection lost")).Times(1)

	alerts, err := service.ListPending(ctx)

	require.Error(t, err)
	assert.Nil(t, alerts)
	assert.ErrorContains(t, err, "could not list pending alerts")
}

func TestCancelAlert_Success(t *testing.T) {
	service, repoMock, _ := newTestAlertService(t)
	ctx := context.Background()
	alertID := uuid.New()

	repoMock.EXPECT().Remove(ctx, alertID).Return(nil).Times(1)
	repoMock.EXPECT().CountPending(ctx).Return(0, nil).Times(1)

	require.NoError(t, service.CancelAlert(ctx, alertID))
}

func TestCancelAlert_AbsentIDIsNoop(t *testing.T) {
	service, repoMock, _ := newTestAlertService(t)
	ctx := context.Background()
	alertID := uuid.New()

	// The repository treats a missing row as success, so cancel is idempotent.
	repoMock.EXPECT().Remove(ctx, alertID).Return(nil).Times(1)
	repoMock.EXPECT().CountPending(ctx).Return(0, nil).Times(1)

	require.NoError(t, service.CancelAlert(ctx, alertID))
}

func TestPendingCount_Success(t *testing.T) {
	service, repoMock, _ := newTestAlertService(t)
	ctx := context.Background()

	repoMock.EXPECT().CountPending(ctx).Return(7, nil).Times(1)

	count, err := service.PendingCount(ctx)

	require.NoError(t, err)
	assert.Equal(t, 7, count)
}
