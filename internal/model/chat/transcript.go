package chat

import "sync"

// Transcript is an append-only, ordered list of messages.
type Transcript struct {
	mu       sync.RWMutex
	messages []Message
}

// NewTranscript returns an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{messages: make([]Message, 0, 16)}
}

// Append adds a message at the end.
func (t *Transcript) Append(message Message) {
	t.mu.Lock()
	t.messages = append(t.messages, message)
	t.mu.Unlock()
}

// Messages returns a copy of the transcript in append order.
func (t *Transcript) Messages() []Message {
	t.mu.RLock()
	defer t.mu.RUnlock()

	copied := make([]Message, len(t.messages))
	copy(copied, t.messages)
	return copied
}

// Len reports how many messages have been appended.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.messages)
}
