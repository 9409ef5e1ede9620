package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// PendingAlert is one emergency alert waiting for delivery. It stays in the
// queue until exactly one delivery confirmation removes it, so a crash between
// send and remove may deliver it twice (at-least-once).
type PendingAlert struct {
	ID        uuid.UUID       `json:"id"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// AlertPayload is the structured body the API accepts before it is stored
// as an opaque payload on the queue.
type AlertPayload struct {
	Category  string  `json:"category"`
	Message   string  `json:"message"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Contact   string  `json:"contact,omitempty"`
}
