// Package channelstest provides an in-memory channels.Client for tests.
package channelstest

import (
	"context"
	"fmt"
	"sync"

	"github.com/corridas/rankrelay/internal/channels"
)

// Sent records one SendMessage call.
type Sent struct {
	Chat channels.Chat
	Text string
}

// Fake is an in-memory chat client. Chats are looked up by ID; errors
// can be injected per operation.
type Fake struct {
	mu            sync.Mutex
	chats         []channels.Chat
	sent          []Sent
	msgHandlers   []channels.MessageHandler
	readyHandlers []channels.ReadyHandler

	GetChatErr error
	ListErr    error
	SendErr    error
	// SendFunc, when set, decides the result of each send.
	SendFunc func(chat channels.Chat, text string) error
}

// NewFake creates a Fake that knows chats.
func NewFake(chats ...channels.Chat) *Fake {
	return &Fake{chats: chats}
}

func (f *Fake) GetChatByID(ctx context.Context, id string) (channels.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.GetChatErr != nil {
		return channels.Chat{}, f.GetChatErr
	}
	for _, c := range f.chats {
		if c.ID == id {
			return c, nil
		}
	}
	return channels.Chat{}, fmt.Errorf("chat %s not found", id)
}

func (f *Fake) GetChats(ctx context.Context) ([]channels.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	return append([]channels.Chat(nil), f.chats...), nil
}

func (f *Fake) SendMessage(ctx context.Context, chat channels.Chat, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SendErr != nil {
		return f.SendErr
	}
	if f.SendFunc != nil {
		if err := f.SendFunc(chat, text); err != nil {
			return err
		}
	}
	f.sent = append(f.sent, Sent{Chat: chat, Text: text})
	return nil
}

func (f *Fake) OnMessage(h channels.MessageHandler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgHandlers = append(f.msgHandlers, h)
}

func (f *Fake) OnReady(h channels.ReadyHandler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readyHandlers = append(f.readyHandlers, h)
}

// Deliver runs every message handler synchronously.
func (f *Fake) Deliver(ctx context.Context, msg channels.Message) {
	f.mu.Lock()
	handlers := append([]channels.MessageHandler(nil), f.msgHandlers...)
	f.mu.Unlock()
	for _, h := range handlers {
		h(ctx, msg)
	}
}

// Connect runs every ready handler synchronously.
func (f *Fake) Connect(ctx context.Context) {
	f.mu.Lock()
	handlers := append([]channels.ReadyHandler(nil), f.readyHandlers...)
	f.mu.Unlock()
	for _, h := range handlers {
		h(ctx)
	}
}

// Sent returns a copy of every recorded send.
func (f *Fake) Sent() []Sent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Sent(nil), f.sent...)
}
