package v1

import (
	"encoding/json"

	"github.com/jaidevxr/monsoon-guardian-sub001/internal/models"
)

// DTOToAlertPayload converts a create request into the queued payload.
func DTOToAlertPayload(req CreateAlertRequest) models.AlertPayload {
	return models.AlertPayload{
		Category:  req.Category,
		Message:   req.Message,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Contact:   req.Contact,
	}
}

// ModelToPendingAlertResponse flattens a queued alert and its payload into
// the API shape. A payload that fails to decode still yields the envelope
// fields so the client can cancel the entry.
func ModelToPendingAlertResponse(alert *models.PendingAlert) PendingAlertResponse {
	resp := PendingAlertResponse{
		ID:        alert.ID,
		CreatedAt: alert.CreatedAt,
	}

	var payload models.AlertPayload
	if err := json.Unmarshal(alert.Payload, &payload); err == nil {
		resp.Category = payload.Category
		resp.Message = payload.Message
		resp.Latitude = payload.Latitude
		resp.Longitude = payload.Longitude
		resp.Contact = payload.Contact
	}

	return resp
}

// ModelsToPendingAlertResponses maps a queue listing preserving order.
func ModelsToPendingAlertResponses(alerts []*models.PendingAlert) []PendingAlertResponse {
	responses := make([]PendingAlertResponse, 0, len(alerts))
	for _, alert := range alerts {
		responses = append(responses, ModelToPendingAlertResponse(alert))
	}
	return responses
}

// ModelToDrainSummaryResponse converts a drain summary into the API shape.
func ModelToDrainSummaryResponse(summary models.DrainSummary) *DrainSummaryResponse {
	return &DrainSummaryResponse{
		StartedAt:  summary.StartedAt,
		FinishedAt: summary.FinishedAt,
		Attempted:  summary.Attempted,
		Sent:       summary.Sent,
		Failed:     summary.Failed,
	}
}

// ModelsToFacilityResponses maps a ranked facility list preserving order.
func ModelsToFacilityResponses(facilities []*models.Facility) []FacilityResponse {
	responses := make([]FacilityResponse, 0, len(facilities))
	for _, f := range facilities {
		responses = append(responses, FacilityResponse{
			ID:         f.ID,
			Name:       f.Name,
			Type:       f.Type,
			Latitude:   f.Latitude,
			Longitude:  f.Longitude,
			DistanceKm: f.DistanceKm,
			Address:    f.Address,
			Phone:      f.Phone,
		})
	}
	return responses
}

// ModelToWeatherResponse converts a weather report into the API shape.
func ModelToWeatherResponse(report *models.WeatherReport, cached bool) WeatherResponse {
	return WeatherResponse{
		Latitude:        report.Latitude,
		Longitude:       report.Longitude,
		TemperatureC:    report.TemperatureC,
		WindSpeedKmh:    report.WindSpeedKmh,
		Humidity:        report.Humidity,
		PrecipitationMm: report.PrecipitationMm,
		Condition:       report.Condition,
		ObservedAt:      report.ObservedAt,
		Cached:          cached,
	}
}
