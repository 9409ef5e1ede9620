package facility

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/sirupsen/logrus"

	"github.com/jaidevxr/monsoon-guardian-sub001/internal/geo"
	"github.com/jaidevxr/monsoon-guardian-sub001/internal/models"
	"github.com/jaidevxr/monsoon-guardian-sub001/internal/observability"
	"github.com/jaidevxr/monsoon-guardian-sub001/internal/service"
)

// categorySelectors maps API categories to Overpass QL node selectors.
var categorySelectors = map[string]string{
	"hospital":     `node["amenity"="hospital"]`,
	"pharmacy":     `node["amenity"="pharmacy"]`,
	"police":       `node["amenity"="police"]`,
	"fire_station": `node["amenity"="fire_station"]`,
	"shelter":      `node["amenity"="shelter"]`,
}

// Categories lists the supported facility categories in sorted order.
func Categories() []string {
	out := make([]string, 0, len(categorySelectors))
	for c := range categorySelectors {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Client queries the Overpass API for emergency facilities around a point.
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

type overpassElement struct {
	Type string            `json:"type"`
	ID   int64             `json:"id"`
	Lat  float64           `json:"lat"`
	Lon  float64           `json:"lon"`
	Tags map[string]string `json:"tags"`
}

type overpassResponse struct {
	Elements []overpassElement `json:"elements"`
}

// Search returns raw facility records around origin. An empty category
// searches every supported category at once.
func (c *Client) Search(ctx context.Context, origin orb.Point, radiusMeters int, category string) ([]*models.Facility, error) {
	query, err := buildQuery(origin, radiusMeters, category)
	if err != nil {
		return nil, err
	}

	form := url.Values{"data": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create overpass request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.UpstreamDuration.WithLabelValues("overpass").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("overpass request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("overpass returned status %d", resp.StatusCode)
	}

	var parsed overpassResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode overpass response: %w", err)
	}

	facilities := make([]*models.Facility, 0, len(parsed.Elements))
	for _, el := range parsed.Elements {
		if el.Type != "node" {
			continue
		}
		facilities = append(facilities, elementToFacility(el))
	}

	c.logger.WithFields(logrus.Fields{
		"category": category,
		"radius_m": radiusMeters,
		"count":    len(facilities),
	}).Debug("Overpass facility search completed")
	return facilities, nil
}

func buildQuery(origin orb.Point, radiusMeters int, category string) (string, error) {
	around := fmt.Sprintf("(around:%d,%.6f,%.6f)", radiusMeters, origin.Lat(), origin.Lon())

	var selectors []string
	if category == "" {
		for _, sel := range categorySelectors {
			selectors = append(selectors, sel+around+";")
		}
	} else {
		sel, ok := categorySelectors[category]
		if !ok {
			return "", fmt.Errorf("%w: %q", service.ErrUnsupportedCategory, category)
		}
		selectors = []string{sel + around + ";"}
	}

	// A global bbox lets Overpass prune candidates before the exact
	// radius cut that around applies.
	bound := geo.BoundAround(origin, float64(radiusMeters))
	return fmt.Sprintf("[out:json][timeout:25][bbox:%.6f,%.6f,%.6f,%.6f];(%s);out body;",
		bound.Min.Lat(), bound.Min.Lon(), bound.Max.Lat(), bound.Max.Lon(),
		strings.Join(selectors, "")), nil
}

func elementToFacility(el overpassElement) *models.Facility {
	f := &models.Facility{
		ID:        el.ID,
		Latitude:  el.Lat,
		Longitude: el.Lon,
		Name:      el.Tags["name"],
		Type:      el.Tags["amenity"],
		Phone:     el.Tags["phone"],
	}
	if f.Name == "" {
		f.Name = "Unnamed " + f.Type
	}
	if f.Phone == "" {
		f.Phone = el.Tags["contact:phone"]
	}
	f.Address = composeAddress(el.Tags)
	return f
}

func composeAddress(tags map[string]string) string {
	if full := tags["addr:full"]; full != "" {
		return full
	}
	parts := make([]string, 0, 3)
	for _, key := range []string{"addr:housenumber", "addr:street", "addr:city"} {
		if v := tags[key]; v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, ", ")
}
