// Package memory elevates tagged or specially-kinded messages into
// long-term-recall entries for the chat agent.
package memory

import (
	"strings"
	"time"

	"github.com/elevatehq/elevate/store"
)

// Entry is a message elevated to long-term-recall status.
type Entry struct {
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
	Tags       []string  `json:"tags,omitempty"`
	Importance int       `json:"importance"`
	MessageID  int64     `json:"-"`
}

// memorableKinds are the message kinds that qualify as memories regardless
// of tagging.
var memorableKinds = map[store.MessageKind]bool{
	store.MessageKindMemory:    true,
	store.MessageKindReminder:  true,
	store.MessageKindImportant: true,
}

// IsMemorable reports whether a message qualifies as a memory: either its
// tag list contains "important" (case-insensitive) or its kind is one of
// memory, reminder, important.
func IsMemorable(msg *store.Message) bool {
	if msg.Tags != "" && strings.Contains(strings.ToLower(msg.Tags), "important") {
		return true
	}
	return memorableKinds[msg.Kind]
}

// Extract filters a message sequence down to memory entries. All entries
// receive the supplied threshold as their importance value.
func Extract(messages []*store.Message, importanceThreshold int) []Entry {
	var entries []Entry
	for _, msg := range messages {
		if !IsMemorable(msg) {
			continue
		}
		entries = append(entries, Entry{
			Content:    msg.Content,
			Timestamp:  time.Unix(msg.CreatedTs, 0).UTC(),
			Tags:       msg.TagList(),
			Importance: importanceThreshold,
			MessageID:  msg.ID,
		})
	}
	return entries
}

// Recall returns memory entries for system-prompt grounding, most recent
// first. Kinds memory and important score 5, everything else 3.
func Recall(messages []*store.Message, limit int) []Entry {
	var entries []Entry
	for _, msg := range messages {
		if !IsMemorable(msg) {
			continue
		}
		importance := 3
		if msg.Kind == store.MessageKindMemory || msg.Kind == store.MessageKindImportant {
			importance = 5
		}
		entries = append(entries, Entry{
			Content:    msg.Content,
			Timestamp:  time.Unix(msg.CreatedTs, 0).UTC(),
			Tags:       msg.TagList(),
			Importance: importance,
			MessageID:  msg.ID,
		})
	}

	// Input order is chronological; recall wants most recent first.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}
