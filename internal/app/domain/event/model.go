package event

import "time"

// Record is an audit entry for an outbound XDM event.
type Record struct {
	ID         string         `json:"id"`
	EventType  string         `json:"eventType"`
	XDM        map[string]any `json:"xdm"`
	RecordedAt time.Time      `json:"recordedAt"`
}
