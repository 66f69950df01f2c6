package runtime

import (
	"log/slog"
	"time"

	"github.com/sabridemirel/arayanibul-sub003/domain"
	"github.com/sabridemirel/arayanibul-sub003/moderation"
)

// ConversationRouter maps conversations onto registry groups and fans
// messages out to every member's live connection. Delivery is best-effort:
// a member whose connection closed a moment earlier is simply skipped, and
// offline members receive nothing through this path.
type ConversationRouter struct {
	registry  *Registry
	moderator *moderation.Moderator
	log       *slog.Logger
}

// NewConversationRouter wires the router to a registry. The moderator is
// optional; when nil, payloads pass through uncensored.
func NewConversationRouter(registry *Registry, moderator *moderation.Moderator, log *slog.Logger) *ConversationRouter {
	return &ConversationRouter{registry: registry, moderator: moderator, log: log}
}

// ConversationGroup derives the group id for a conversation. The mapping is
// deterministic so every connection joining the same conversation lands in
// the same group.
func ConversationGroup(conversationID string) domain.GroupID {
	return domain.GroupID("conv:" + conversationID)
}

func (c *ConversationRouter) JoinConversation(connID, conversationID string) {
	c.registry.JoinGroup(connID, ConversationGroup(conversationID))
}

func (c *ConversationRouter) LeaveConversation(connID, conversationID string) {
	c.registry.LeaveGroup(connID, ConversationGroup(conversationID))
}

// Route censors the payload and delivers it to every connection currently
// joined to the conversation, excluding the sender's own connection.
// It returns the number of connections the frame was handed to.
func (c *ConversationRouter) Route(conversationID, payload, senderConnID, senderAccountID string) int {
	if c.moderator != nil {
		payload = c.moderator.Censor(payload)
	}

	group := ConversationGroup(conversationID)
	frame := domain.Frame{
		Group:          group,
		ConversationID: conversationID,
		SenderAccount:  senderAccountID,
		Payload:        payload,
		SentAt:         time.Now().UTC(),
	}
	return c.registry.fanout(group, frame, senderConnID)
}
