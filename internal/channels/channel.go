// Package channels binds the relay to a chat platform.
package channels

import (
	"context"
	"time"
)

// Chat is a conversation known to the chat platform.
type Chat struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	IsGroup bool   `json:"is_group"`
}

// Message is an inbound chat message.
type Message struct {
	ID        string    `json:"id"`
	ChatID    string    `json:"chat_id"`
	SenderID  string    `json:"sender_id"`
	Body      string    `json:"body"`
	IsGroup   bool      `json:"is_group"`
	Timestamp time.Time `json:"timestamp"`
}

// MessageHandler is called for every inbound message.
type MessageHandler func(ctx context.Context, msg Message)

// ReadyHandler is called when the session completes its handshake.
type ReadyHandler func(ctx context.Context)

// Client is the messaging capability the relay is built on.
type Client interface {
	// GetChatByID resolves a destination identifier to a chat.
	GetChatByID(ctx context.Context, id string) (Chat, error)
	// GetChats lists every chat the session knows about.
	GetChats(ctx context.Context) ([]Chat, error)
	// SendMessage sends a text message to a chat.
	SendMessage(ctx context.Context, chat Chat, text string) error
	// OnMessage registers a handler for inbound messages.
	OnMessage(h MessageHandler)
	// OnReady registers a handler for handshake completion.
	OnReady(h ReadyHandler)
}

// Channel is a Client with a lifecycle.
type Channel interface {
	Client
	// Name returns the channel name (e.g. "whatsapp").
	Name() string
	// Start connects the channel. It returns once the connection attempt
	// is underway; readiness is signaled through OnReady.
	Start(ctx context.Context) error
	// Stop disconnects the channel.
	Stop() error
}

// GroupsOnly keeps the group chats of chats, preserving order.
func GroupsOnly(chats []Chat) []Chat {
	out := make([]Chat, 0, len(chats))
	for _, c := range chats {
		if c.IsGroup {
			out = append(out, c)
		}
	}
	return out
}
