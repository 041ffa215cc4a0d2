package push

import "time"

// Message is an inbound push notification payload.
type Message struct {
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	ReceivedAt time.Time `json:"receivedAt"`
}
