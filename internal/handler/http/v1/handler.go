package v1

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jaidevxr/monsoon-guardian-sub001/internal/config"
	"github.com/jaidevxr/monsoon-guardian-sub001/internal/connectivity"
	"github.com/jaidevxr/monsoon-guardian-sub001/internal/facility"
	"github.com/jaidevxr/monsoon-guardian-sub001/internal/geo"
	"github.com/jaidevxr/monsoon-guardian-sub001/internal/service"
)

type Handler struct {
	alertService    service.AlertService
	facilityService service.FacilityService
	weatherService  service.WeatherService
	syncService     service.SyncService
	observer        connectivity.Observer
	logger          *logrus.Logger
	validate        *validator.Validate
	cfg             *config.Config
}

func NewHandler(
	alertService service.AlertService,
	facilityService service.FacilityService,
	weatherService service.WeatherService,
	syncService service.SyncService,
	observer connectivity.Observer,
	logger *logrus.Logger,
	cfg *config.Config,
) *Handler {
	return &Handler{
		alertService:    alertService,
		facilityService: facilityService,
		weatherService:  weatherService,
		syncService:     syncService,
		observer:        observer,
		logger:          logger,
		validate:        validator.New(),
		cfg:             cfg,
	}
}

// @Summary Report a new alert
// @Description Queue a disaster alert for delivery. The alert is stored locally and sent on the next sync. Requires API key.
// @Tags Alerts
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param alert body CreateAlertRequest true "Alert creation request"
// @Success 201 {object} PendingAlertResponse
// @Failure 400 {object} map[string]string "Invalid request body or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /alerts [post]
func (h *Handler) createAlert(c *gin.Context) {
	var input CreateAlertRequest
	log := h.logger.WithField("method", "createAlert")

	if err := c.ShouldBindJSON(&input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	alert, err := h.alertService.EnqueueAlert(c.Request.Context(), DTOToAlertPayload(input))
	if err != nil {
		log.WithError(err).Error("Failed to enqueue alert in service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	// Delivery is opportunistic: nudge the coordinator if we are online.
	if h.observer.Online() {
		h.syncService.TriggerDrain(c.Request.Context())
	}

	c.JSON(http.StatusCreated, ModelToPendingAlertResponse(alert))
}

// @Summary List pending alerts
// @Description List queued alerts in the order they will be sent. Requires API key.
// @Tags Alerts
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {array} PendingAlertResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /alerts/pending [get]
func (h *Handler) listPendingAlerts(c *gin.Context) {
	log := h.logger.WithField("method", "listPendingAlerts")

	alerts, err := h.alertService.ListPending(c.Request.Context())
	if err != nil {
		log.WithError(err).Error("Failed to list pending alerts from service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, ModelsToPendingAlertResponses(alerts))
}

// @Summary Cancel a pending alert
// @Description Remove an alert from the queue before it is sent. Cancelling an absent alert succeeds. Requires API key.
// @Tags Alerts
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Alert ID"
// @Success 204 "No Content"
// @Failure 400 {object} map[string]string "Invalid alert ID"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /alerts/{id} [delete]
func (h *Handler) cancelAlert(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid alert ID"})
		return
	}
	log := h.logger.WithField("method", "cancelAlert").WithField("id", id)

	if err := h.alertService.CancelAlert(c.Request.Context(), id); err != nil {
		log.WithError(err).Error("Failed to cancel alert in service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to cancel alert"})
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary Trigger a sync
// @Description Start draining the pending queue. Responds 202 when a new drain was started and 200 when one was already running. Requires API key.
// @Tags Alerts
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Success 202 {object} SyncResponse
// @Success 200 {object} SyncResponse "A drain was already running"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /alerts/sync [post]
func (h *Handler) triggerSync(c *gin.Context) {
	started := h.syncService.TriggerDrain(c.Request.Context())
	status := http.StatusAccepted
	if !started {
		status = http.StatusOK
	}
	c.JSON(status, SyncResponse{Started: started})
}

// @Summary Get queue statistics
// @Description Get the pending queue depth, connectivity state and the last drain outcome. Requires API key.
// @Tags Alerts
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} StatsResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /alerts/stats [get]
func (h *Handler) getStats(c *gin.Context) {
	log := h.logger.WithField("method", "getStats")

	count, err := h.alertService.PendingCount(c.Request.Context())
	if err != nil {
		log.WithError(err).Error("Failed to get pending count from service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	resp := StatsResponse{
		PendingCount: count,
		Online:       h.observer.Online(),
	}
	if summary, ok := h.syncService.LastSummary(); ok {
		resp.LastDrain = ModelToDrainSummaryResponse(summary)
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Find nearby emergency facilities
// @Description Find emergency facilities around a location, sorted by distance.
// @Tags Facilities
// @Accept json
// @Produce json
// @Param lat query number true "Latitude"
// @Param lng query number true "Longitude"
// @Param radius_meters query int false "Search radius in meters" default(5000)
// @Param type query string false "Facility type" default(hospital)
// @Success 200 {object} FacilitiesResponse
// @Failure 400 {object} map[string]string "Invalid coordinates or facility type"
// @Failure 502 {object} map[string]string "Upstream unavailable and no snapshot"
// @Router /facilities/nearby [get]
func (h *Handler) findNearbyFacilities(c *gin.Context) {
	log := h.logger.WithField("method", "findNearbyFacilities")

	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lat"})
		return
	}
	lng, err := strconv.ParseFloat(c.Query("lng"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lng"})
		return
	}
	radius, _ := strconv.Atoi(c.DefaultQuery("radius_meters", "0"))
	category := c.DefaultQuery("type", "hospital")

	facilities, cached, err := h.facilityService.FindNearby(c.Request.Context(), lat, lng, radius, category)
	if err != nil {
		if errors.Is(err, geo.ErrInvalidCoordinate) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid coordinates"})
			return
		}
		if errors.Is(err, service.ErrUnsupportedCategory) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": fmt.Sprintf("unsupported facility type, expected one of: %s",
					strings.Join(facility.Categories(), ", ")),
			})
			return
		}
		log.WithError(err).Error("Failed to find facilities in service")
		c.JSON(http.StatusBadGateway, gin.H{"error": "facility data unavailable"})
		return
	}

	c.JSON(http.StatusOK, FacilitiesResponse{
		Facilities: ModelsToFacilityResponses(facilities),
		Cached:     cached,
	})
}

// @Summary Get current weather
// @Description Get the current weather at a location. Served from a snapshot when the upstream is unreachable.
// @Tags Weather
// @Accept json
// @Produce json
// @Param lat query number true "Latitude"
// @Param lng query number true "Longitude"
// @Success 200 {object} WeatherResponse
// @Failure 400 {object} map[string]string "Invalid coordinates"
// @Failure 502 {object} map[string]string "Upstream unavailable and no snapshot"
// @Router /weather [get]
func (h *Handler) getWeather(c *gin.Context) {
	log := h.logger.WithField("method", "getWeather")

	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lat"})
		return
	}
	lng, err := strconv.ParseFloat(c.Query("lng"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lng"})
		return
	}

	report, cached, err := h.weatherService.Current(c.Request.Context(), lat, lng)
	if err != nil {
		if errors.Is(err, geo.ErrInvalidCoordinate) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid coordinates"})
			return
		}
		log.WithError(err).Error("Failed to get weather from service")
		c.JSON(http.StatusBadGateway, gin.H{"error": "weather data unavailable"})
		return
	}

	c.JSON(http.StatusOK, ModelToWeatherResponse(report, cached))
}

// @Summary Get application health status
// @Description Get health status of the application
// @Tags System
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string "Status OK"
// @Router /system/health [get]
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
