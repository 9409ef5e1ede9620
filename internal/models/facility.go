package models

// Facility is an emergency facility near a queried location. It is derived
// from the facility provider per request and never persisted; DistanceKm is
// filled in by the distance ranker.
type Facility struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	DistanceKm float64 `json:"distance_km"`
	Address    string  `json:"address,omitempty"`
	Phone      string  `json:"phone,omitempty"`
}
