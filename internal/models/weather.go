package models

import "time"

// WeatherReport is the current-weather snapshot for a location.
type WeatherReport struct {
	Latitude        float64   `json:"latitude"`
	Longitude       float64   `json:"longitude"`
	TemperatureC    float64   `json:"temperature_c"`
	WindSpeedKmh    float64   `json:"wind_speed_kmh"`
	Humidity        float64   `json:"humidity"`
	PrecipitationMm float64   `json:"precipitation_mm"`
	Condition       string    `json:"condition"`
	ObservedAt      time.Time `json:"observed_at"`
}
