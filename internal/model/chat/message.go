package chat

import (
	"time"

	"github.com/google/uuid"
)

// Origin 标记消息的作者。
type Origin int

const (
	User Origin = iota
	Bot
)

func (o Origin) String() string {
	switch o {
	case User:
		return "user"
	case Bot:
		return "bot"
	default:
		return "unknown"
	}
}

// Message is a single transcript entry. It is never mutated after being appended.
type Message struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Origin    Origin    `json:"origin"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewMessage stamps a message with a fresh identifier and the current time.
func NewMessage(text string, origin Origin) Message {
	return Message{
		ID:        uuid.NewString(),
		Text:      text,
		Origin:    origin,
		CreatedAt: time.Now().UTC(),
	}
}

// Entry is the rendered form of a Message as handed to a view container.
type Entry struct {
	MessageID string `json:"messageId"`
	Origin    Origin `json:"origin"`
	Class     string `json:"class"`
	HTML      string `json:"html"`
}
