package domain

import "time"

// GroupID names a fan-out channel. Conversation ids map onto group ids
// deterministically; see the runtime router.
type GroupID string

// Frame is a single realtime payload pushed to a member connection.
type Frame struct {
	Group          GroupID
	ConversationID string
	SenderAccount  string
	Payload        string
	SentAt         time.Time
}
