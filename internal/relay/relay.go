// Package relay sends operator and webhook messages into chats.
package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/corridas/rankrelay/internal/channels"
	"github.com/corridas/rankrelay/internal/session"
)

var (
	// ErrNotReady is returned while the chat session is still connecting.
	ErrNotReady = errors.New("whatsapp client not ready")
	// ErrNoDestination is returned when neither the request nor the
	// configuration names a chat.
	ErrNoDestination = errors.New("no group id configured")
	// ErrEmptyMessage is returned for requests without text.
	ErrEmptyMessage = errors.New("message is required")
)

// OutboundRequest asks for message to be sent to GroupID, or to the
// configured default when GroupID is empty.
type OutboundRequest struct {
	Message string `json:"message"`
	GroupID string `json:"groupId,omitempty"`
}

// Group is one entry of the group directory.
type Group struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Relay performs outbound operations through a chat client, gated on
// session readiness.
type Relay struct {
	client       channels.Client
	state        *session.State
	defaultGroup string
}

// New creates a Relay. defaultGroup may be empty.
func New(client channels.Client, state *session.State, defaultGroup string) *Relay {
	return &Relay{
		client:       client,
		state:        state,
		defaultGroup: channels.NormalizeChatID(defaultGroup),
	}
}

// Ready reports session readiness.
func (r *Relay) Ready() bool { return r.state.Ready() }

// Status is the health string.
func (r *Relay) Status() string { return r.state.Status() }

// Send delivers req. Resolution and send failures are wrapped and
// returned as is; nothing is retried.
func (r *Relay) Send(ctx context.Context, req OutboundRequest) error {
	if !r.state.Ready() {
		return ErrNotReady
	}
	target := channels.NormalizeChatID(req.GroupID)
	if target == "" {
		target = r.defaultGroup
	}
	if target == "" {
		return ErrNoDestination
	}
	if req.Message == "" {
		return ErrEmptyMessage
	}

	chat, err := r.client.GetChatByID(ctx, target)
	if err != nil {
		return fmt.Errorf("resolve chat %s: %w", target, err)
	}
	if err := r.client.SendMessage(ctx, chat, req.Message); err != nil {
		return fmt.Errorf("send to %s: %w", target, err)
	}
	slog.Info("Relayed message", "chat_id", chat.ID, "chars", len(req.Message))
	return nil
}

// Groups lists the group chats known to the session.
func (r *Relay) Groups(ctx context.Context) ([]Group, error) {
	if !r.state.Ready() {
		return nil, ErrNotReady
	}
	chats, err := r.client.GetChats(ctx)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	groups := make([]Group, 0, len(chats))
	for _, c := range channels.GroupsOnly(chats) {
		groups = append(groups, Group{ID: c.ID, Name: c.Name})
	}
	return groups, nil
}

// HandleReady marks the session ready. On the first call it also logs
// every group so the operator can pick WHATSAPP_GROUP_ID.
func (r *Relay) HandleReady(ctx context.Context) {
	if !r.state.MarkReady() {
		return
	}
	slog.Info("WhatsApp client is ready", "ready_at", r.state.ReadyAt())

	groups, err := r.Groups(ctx)
	if err != nil {
		slog.Error("Error listing groups", "error", err)
		return
	}
	for _, g := range groups {
		slog.Info("Available group", "name", g.Name, "id", g.ID)
	}
	if r.defaultGroup == "" {
		slog.Info("Set WHATSAPP_GROUP_ID with your group ID to pick the default destination")
	}
}

// Attach wires HandleReady to client.
func (r *Relay) Attach(client channels.Client) {
	client.OnReady(r.HandleReady)
}
