package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jaidevxr/monsoon-guardian-sub001/internal/models"
	"github.com/jaidevxr/monsoon-guardian-sub001/internal/observability"
)

// Client fetches current conditions from an Open-Meteo compatible endpoint.
type Client struct {
	baseURL    string
	logger     *logrus.Logger
	metrics    *observability.Metrics
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration, logger *logrus.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		baseURL: baseURL,
		logger:  logger,
		metrics: metrics,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type openMeteoResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Current   struct {
		Time             string  `json:"time"`
		Temperature2m    float64 `json:"temperature_2m"`
		RelativeHumidity float64 `json:"relative_humidity_2m"`
		Precipitation    float64 `json:"precipitation"`
		WeatherCode      int     `json:"weather_code"`
		WindSpeed10m     float64 `json:"wind_speed_10m"`
	} `json:"current"`
}

// Current fetches the current weather for the coordinates.
func (c *Client) Current(ctx context.Context, lat, lng float64) (*models.WeatherReport, error) {
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(lat, 'f', 4, 64))
	params.Set("longitude", strconv.FormatFloat(lng, 'f', 4, 64))
	params.Set("current", "temperature_2m,relative_humidity_2m,precipitation,weather_code,wind_speed_10m")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create weather request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.UpstreamDuration.WithLabelValues("weather").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("weather request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather upstream returned status %d", resp.StatusCode)
	}

	var parsed openMeteoResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode weather response: %w", err)
	}

	observedAt, err := time.Parse("2006-01-02T15:04", parsed.Current.Time)
	if err != nil {
		// The timestamp is informational; fall back to now rather than
		// failing the whole report.
		c.logger.WithError(err).Warn("Failed to parse weather observation time")
		observedAt = time.Now().UTC()
	}

	return &models.WeatherReport{
		Latitude:        parsed.Latitude,
		Longitude:       parsed.Longitude,
		TemperatureC:    parsed.Current.Temperature2m,
		WindSpeedKmh:    parsed.Current.WindSpeed10m,
		Humidity:        parsed.Current.RelativeHumidity,
		PrecipitationMm: parsed.Current.Precipitation,
		Condition:       conditionFromCode(parsed.Current.WeatherCode),
		ObservedAt:      observedAt.UTC(),
	}, nil
}

// conditionFromCode maps WMO weather codes to a coarse label.
func conditionFromCode(code int) string {
	switch {
	case code == 0:
		return "clear"
	case code <= 3:
		return "partly cloudy"
	case code == 45 || code == 48:
		return "fog"
	case code >= 51 && code <= 57:
		return "drizzle"
	case code >= 61 && code <= 67:
		return "rain"
	case code >= 71 && code <= 77:
		return "snow"
	case code >= 80 && code <= 82:
		return "rain showers"
	case code >= 95:
		return "thunderstorm"
	default:
		return "unknown"
	}
}
