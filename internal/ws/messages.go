package ws

import "encoding/json"

// Envelope wraps every client-initiated WS frame.
type Envelope struct {
	Event string          `json:"event"`          // e.g. "auctions/status"
	Body  json.RawMessage `json:"body,omitempty"` // arbitrary JSON object
}

// PingBody echoes the client timestamp back in the ack.
type PingBody struct {
	Timestamp int64 `json:"timestamp,omitempty"`
}

// Empty ACK body.
type AckBody struct{}

// ErrorBody is returned for failures.
type ErrorBody struct {
	Error string `json:"error"`
}
