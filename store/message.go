package store

import "strings"

// Sender identifies who produced a message.
type Sender string

const (
	SenderUser   Sender = "user"
	SenderAgent  Sender = "agent"
	SenderSystem Sender = "system"
)

// MessageKind categorizes a message within a conversation.
type MessageKind string

const (
	MessageKindStandard  MessageKind = "standard"
	MessageKindMemory    MessageKind = "memory"
	MessageKindReminder  MessageKind = "reminder"
	MessageKindResponse  MessageKind = "response"
	MessageKindImportant MessageKind = "important"
)

// Message belongs to exactly one conversation. Ordering within a
// conversation is by created_ts, ties broken by id.
type Message struct {
	Sender         Sender
	Content        string
	Kind           MessageKind
	Tags           string // comma-joined tag list, empty when untagged
	CreatedTs      int64
	ID             int64
	ConversationID int32
}

// TagList splits the comma-joined tag column into individual tags.
func (m *Message) TagList() []string {
	if m.Tags == "" {
		return nil
	}
	parts := strings.Split(m.Tags, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		tags = append(tags, strings.TrimSpace(p))
	}
	return tags
}

// FindMessage specifies the conditions for finding messages.
type FindMessage struct {
	ID             *int64
	ConversationID *int32
	Kinds          []MessageKind
	Limit          *int
	OrderDesc      bool // most recent first when set
}

// DeleteMessage specifies the message to delete.
type DeleteMessage struct {
	ID int64
}
