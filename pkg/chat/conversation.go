// Package chat holds the assistant conversation of a session and its documents.
package chat

import (
	"sync"
	"time"

	"github.com/de-tools/alm-console/pkg/models/api"
	"github.com/de-tools/alm-console/pkg/models/domain"
)

const Greeting = "Hello! I can help you analyze the LCR data that was just processed. " +
	"You can ask me questions about the Balance Sheet variations, Consumption trends, " +
	"or upload additional documents for context."

type Conversation struct {
	mu        sync.Mutex
	messages  []domain.ChatMessage
	documents []api.Document
	visible   bool
	typing    bool
	now       func() time.Time
}

func NewConversation() *Conversation {
	return &Conversation{now: time.Now}
}

func (c *Conversation) Messages() []domain.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.ChatMessage(nil), c.messages...)
}

func (c *Conversation) Documents() []api.Document {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]api.Document(nil), c.documents...)
}

func (c *Conversation) Visible() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.visible
}

func (c *Conversation) Typing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.typing
}

// Reveal shows the panel and seeds the greeting when nothing was said yet.
// It reports whether the greeting was added.
func (c *Conversation) Reveal() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.visible = true
	if len(c.messages) > 0 {
		return false
	}
	c.messages = append(c.messages, domain.ChatMessage{
		Type:      domain.MessageAssistant,
		Message:   Greeting,
		Timestamp: c.now(),
	})
	return true
}

func (c *Conversation) add(t domain.MessageType, text string) domain.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()

	msg := domain.ChatMessage{Type: t, Message: text, Timestamp: c.now()}
	c.messages = append(c.messages, msg)
	return msg
}

func (c *Conversation) setTyping(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.typing = v
}

func (c *Conversation) setDocuments(docs []api.Document) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.documents = append([]api.Document(nil), docs...)
}

func (c *Conversation) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = nil
	c.documents = nil
}
