package store

// Conversation is the single message thread kept per user.
// It is created lazily on the user's first message.
type Conversation struct {
	UserID    string
	Metadata  *string
	CreatedTs int64
	ID        int32
}

// FindConversation specifies the conditions for finding conversations.
type FindConversation struct {
	ID     *int32
	UserID *string
}
