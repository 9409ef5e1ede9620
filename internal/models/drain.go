package models

import "time"

// DrainSummary is the result of one complete pass over the pending-alert
// queue. Sent is computed as the initial count minus what remained after the
// pass.
type DrainSummary struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Attempted  int       `json:"attempted"`
	Sent       int       `json:"sent"`
	Failed     int       `json:"failed"`
}
