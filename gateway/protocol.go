package gateway

import "time"

// Commands a client may issue over the realtime channel after the
// handshake completed.
const (
	commandJoin  = "join"
	commandLeave = "leave"
	commandSend  = "send"
)

// Command is an inbound realtime frame from the client.
type Command struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id"`
	Payload        string `json:"payload,omitempty"`
}

// Event is an outbound realtime frame pushed to the client.
type Event struct {
	Type           string    `json:"type"`
	ConversationID string    `json:"conversation_id,omitempty"`
	From           string    `json:"from,omitempty"`
	Payload        string    `json:"payload,omitempty"`
	SentAt         time.Time `json:"sent_at,omitempty"`
}

const eventMessage = "message"
