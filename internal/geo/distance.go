package geo

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/paulmach/orb"

	"github.com/jaidevxr/monsoon-guardian-sub001/internal/models"
)

// earthRadiusKm is the mean Earth radius used by the haversine formula.
const earthRadiusKm = 6371.0

var ErrInvalidCoordinate = errors.New("invalid coordinate")

// ValidatePoint rejects points with NaN or out-of-range latitude/longitude.
// Callers are expected to validate before ranking.
func ValidatePoint(p orb.Point) error {
	lon, lat := p.Lon(), p.Lat()
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return fmt.Errorf("%w: NaN component", ErrInvalidCoordinate)
	}
	if lat < -90 || lat > 90 {
		return fmt.Errorf("%w: latitude %f out of range", ErrInvalidCoordinate, lat)
	}
	if lon < -180 || lon > 180 {
		return fmt.Errorf("%w: longitude %f out of range", ErrInvalidCoordinate, lon)
	}
	return nil
}

// Distance returns the great-circle distance between two points in
// kilometers, computed with the haversine formula.
func Distance(a, b orb.Point) float64 {
	lat1 := a.Lat() * math.Pi / 180
	lat2 := b.Lat() * math.Pi / 180
	dLat := (b.Lat() - a.Lat()) * math.Pi / 180
	dLon := (b.Lon() - a.Lon()) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

// RoundKm rounds a distance to two decimal places, the precision exposed by
// the API.
func RoundKm(km float64) float64 {
	return math.Round(km*100) / 100
}

// RankByDistance annotates every facility with its rounded distance from
// origin and sorts the slice ascending. The sort is stable, so facilities at
// equal distance keep their input order. Facilities with invalid coordinates
// reject the whole call.
func RankByDistance(origin orb.Point, facilities []*models.Facility) error {
	if err := ValidatePoint(origin); err != nil {
		return fmt.Errorf("origin: %w", err)
	}
	for _, f := range facilities {
		p := orb.Point{f.Longitude, f.Latitude}
		if err := ValidatePoint(p); err != nil {
			return fmt.Errorf("facility %d: %w", f.ID, err)
		}
		f.DistanceKm = RoundKm(Distance(origin, p))
	}
	sort.SliceStable(facilities, func(i, j int) bool {
		return facilities[i].DistanceKm < facilities[j].DistanceKm
	})
	return nil
}

// BoundAround returns a bounding box that encloses a circle of radiusMeters
// around origin, used to build facility search queries.
func BoundAround(origin orb.Point, radiusMeters float64) orb.Bound {
	// 1 degree of latitude is ~111.32 km; longitude degrees shrink with
	// the cosine of the latitude.
	dLat := radiusMeters / 111320.0
	cos := math.Cos(origin.Lat() * math.Pi / 180)
	if cos < 0.01 {
		cos = 0.01
	}
	dLon := radiusMeters / (111320.0 * cos)

	return orb.Bound{
		Min: orb.Point{origin.Lon() - dLon, origin.Lat() - dLat},
		Max: orb.Point{origin.Lon() + dLon, origin.Lat() + dLat},
	}
}
