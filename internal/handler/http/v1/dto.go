package v1

import (
	"time"

	"github.com/google/uuid"
)

// CreateAlertRequest is the payload for reporting a new alert.
// @Description Payload for reporting a new disaster alert
type CreateAlertRequest struct {
	Category  string  `json:"category" validate:"required,oneof=flood cyclone earthquake landslide fire medical other"`
	Message   string  `json:"message" validate:"required,min=2,max=2000"`
	Latitude  float64 `json:"latitude" validate:"required,latitude"`
	Longitude float64 `json:"longitude" validate:"required,longitude"`
	Contact   string  `json:"contact,omitempty" validate:"omitempty,max=255"`
}

// PendingAlertResponse describes one alert waiting in the outbound queue.
// @Description Alert waiting in the outbound queue
type PendingAlertResponse struct {
	ID        uuid.UUID `json:"id"`
	Category  string    `json:"category"`
	Message   string    `json:"message"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Contact   string    `json:"contact,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// DrainSummaryResponse reports the outcome of one queue drain.
// @Description Outcome of one sync pass over the pending queue
type DrainSummaryResponse struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Attempted  int       `json:"attempted"`
	Sent       int       `json:"sent"`
	Failed     int       `json:"failed"`
}

// SyncResponse acknowledges a manual sync trigger.
// @Description Result of a manual sync trigger
type SyncResponse struct {
	Started bool `json:"started"`
}

// StatsResponse summarizes the state of the alert queue.
// @Description Queue depth, connectivity and last drain outcome
type StatsResponse struct {
	PendingCount int                   `json:"pending_count"`
	Online       bool                  `json:"online"`
	LastDrain    *DrainSummaryResponse `json:"last_drain,omitempty"`
}

// FacilityResponse describes one emergency facility near the caller.
// @Description Emergency facility annotated with its distance from the caller
type FacilityResponse struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	DistanceKm float64 `json:"distance_km"`
	Address    string  `json:"address,omitempty"`
	Phone      string  `json:"phone,omitempty"`
}

// FacilitiesResponse wraps the ranked facility list.
// @Description Ranked facility list, flagged when served from a snapshot
type FacilitiesResponse struct {
	Facilities []FacilityResponse `json:"facilities"`
	Cached     bool               `json:"cached"`
}

// WeatherResponse describes the current weather at a location.
// @Description Current weather, flagged when served from a snapshot
type WeatherResponse struct {
	Latitude        float64   `json:"latitude"`
	Longitude       float64   `json:"longitude"`
	TemperatureC    float64   `json:"temperature_c"`
	WindSpeedKmh    float64   `json:"wind_speed_kmh"`
	Humidity        float64   `json:"humidity"`
	PrecipitationMm float64   `json:"precipitation_mm"`
	Condition       string    `json:"condition"`
	ObservedAt      time.Time `json:"observed_at"`
	Cached          bool      `json:"cached"`
}
