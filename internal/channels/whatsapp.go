package channels

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/corridas/rankrelay/internal/config"
	"github.com/skip2/go-qrcode"

	_ "modernc.org/sqlite"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
	"google.golang.org/protobuf/proto"
)

var errNotStarted = errors.New("whatsapp client not started")

var _ Channel = (*WhatsAppChannel)(nil)

// legacyUserServer is the user server suffix used by WhatsApp Web
// clients ("5511999999999@c.us"). It is accepted as an alias.
const legacyUserServer = "c.us"

// WhatsAppChannel implements Channel on top of a native WhatsApp client.
type WhatsAppChannel struct {
	config    config.WhatsAppConfig
	client    *whatsmeow.Client
	container *sqlstore.Container
	qrOut     io.Writer

	mu            sync.RWMutex
	ctx           context.Context
	msgHandlers   []MessageHandler
	readyHandlers []ReadyHandler
}

// NewWhatsAppChannel creates a new WhatsApp channel.
func NewWhatsAppChannel(cfg config.WhatsAppConfig) *WhatsAppChannel {
	return &WhatsAppChannel{
		config: cfg,
		qrOut:  os.Stdout,
		ctx:    context.Background(),
	}
}

func (c *WhatsAppChannel) Name() string { return "whatsapp" }

// OnMessage registers h for inbound messages. Each message is handled on
// its own goroutine.
func (c *WhatsAppChannel) OnMessage(h MessageHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgHandlers = append(c.msgHandlers, h)
}

// OnReady registers h for handshake completion. It runs again after every
// reconnect.
func (c *WhatsAppChannel) OnReady(h ReadyHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readyHandlers = append(c.readyHandlers, h)
}

func (c *WhatsAppChannel) Start(ctx context.Context) error {
	c.mu.Lock()
	c.ctx = ctx
	c.mu.Unlock()

	dbLog := waLog.Stdout("Database", "WARN", true)
	clientLog := waLog.Stdout("Client", "INFO", true)

	if err := os.MkdirAll(c.config.SessionPath, 0o700); err != nil {
		return fmt.Errorf("failed to create session dir: %w", err)
	}
	if name := strings.TrimSpace(c.config.DeviceName); name != "" {
		store.DeviceProps.Os = proto.String(name)
	}

	dsn := "file:" + c.config.SessionDBPath() + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	container, err := sqlstore.New(ctx, "sqlite", dsn, dbLog)
	if err != nil {
		return fmt.Errorf("failed to init whatsapp db: %w", err)
	}
	c.container = container

	deviceStore, err := container.GetFirstDevice(ctx)
	if err != nil {
		return fmt.Errorf("failed to get device: %w", err)
	}

	c.client = whatsmeow.NewClient(deviceStore, clientLog)
	c.client.AddEventHandler(c.eventHandler)

	if c.client.Store.ID == nil {
		// No session yet, pair through a QR code.
		qrChan, err := c.client.GetQRChannel(ctx)
		if err != nil {
			return fmt.Errorf("failed to get qr channel: %w", err)
		}
		if err := c.client.Connect(); err != nil {
			return fmt.Errorf("failed to connect: %w", err)
		}
		go c.renderQR(qrChan)
		return nil
	}

	if err := c.client.Connect(); err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	slog.Info("WhatsApp: connecting with stored session", "jid", c.client.Store.ID.String())
	return nil
}

func (c *WhatsAppChannel) Stop() error {
	if c.client != nil {
		c.client.Disconnect()
	}
	if c.container != nil {
		return c.container.Close()
	}
	return nil
}

func (c *WhatsAppChannel) GetChatByID(ctx context.Context, id string) (Chat, error) {
	if c.client == nil {
		return Chat{}, errNotStarted
	}
	jid, err := parseChatJID(id)
	if err != nil {
		return Chat{}, err
	}
	if jid.Server == types.GroupServer {
		info, err := c.client.GetGroupInfo(ctx, jid)
		if err != nil {
			return Chat{}, fmt.Errorf("group %s: %w", jid, err)
		}
		return groupChat(info), nil
	}
	contact, err := c.client.Store.Contacts.GetContact(ctx, jid)
	if err != nil {
		return Chat{}, fmt.Errorf("contact %s: %w", jid, err)
	}
	return Chat{ID: jid.String(), Name: contactName(jid, contact)}, nil
}

// GetChats lists joined groups followed by stored contacts.
func (c *WhatsAppChannel) GetChats(ctx context.Context) ([]Chat, error) {
	if c.client == nil {
		return nil, errNotStarted
	}
	groups, err := c.client.GetJoinedGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	contacts, err := c.client.Store.Contacts.GetAllContacts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}

	chats := make([]Chat, 0, len(groups)+len(contacts))
	for _, g := range groups {
		if g != nil {
			chats = append(chats, groupChat(g))
		}
	}
	direct := make([]Chat, 0, len(contacts))
	for jid, info := range contacts {
		direct = append(direct, Chat{ID: jid.String(), Name: contactName(jid, info)})
	}
	sortChats(chats)
	sortChats(direct)
	return append(chats, direct...), nil
}

func (c *WhatsAppChannel) SendMessage(ctx context.Context, chat Chat, text string) error {
	if c.client == nil {
		return errNotStarted
	}
	jid, err := parseChatJID(chat.ID)
	if err != nil {
		return err
	}
	waMsg := &waE2E.Message{
		Conversation: proto.String(text),
	}
	_, err = c.client.SendMessage(ctx, jid, waMsg)
	return err
}

func (c *WhatsAppChannel) eventHandler(evt interface{}) {
	switch v := evt.(type) {
	case *events.Connected:
		slog.Info("WhatsApp: connected")
		c.fireReady()
	case *events.PairSuccess:
		slog.Info("WhatsApp: paired", "jid", v.ID.String(), "platform", v.Platform)
	case *events.Disconnected:
		slog.Warn("WhatsApp: disconnected")
	case *events.LoggedOut:
		slog.Warn("WhatsApp: logged out, delete the session directory and pair again",
			"reason", v.Reason, "session_path", c.config.SessionPath)
	case *events.Message:
		msg, ok := messageFromEvent(v)
		if !ok {
			return
		}
		c.dispatch(msg)
	}
}

func (c *WhatsAppChannel) dispatch(msg Message) {
	c.mu.RLock()
	ctx := c.ctx
	handlers := append([]MessageHandler(nil), c.msgHandlers...)
	c.mu.RUnlock()

	for _, h := range handlers {
		go h(ctx, msg)
	}
}

func (c *WhatsAppChannel) fireReady() {
	c.mu.RLock()
	ctx := c.ctx
	handlers := append([]ReadyHandler(nil), c.readyHandlers...)
	c.mu.RUnlock()

	for _, h := range handlers {
		go h(ctx)
	}
}

func (c *WhatsAppChannel) renderQR(qrChan <-chan whatsmeow.QRChannelItem) {
	for evt := range qrChan {
		switch evt.Event {
		case "code":
			fmt.Fprintln(c.qrOut, "📱 Scan this QR code with WhatsApp (Linked devices):")
			if qr, err := qrcode.New(evt.Code, qrcode.Low); err == nil {
				fmt.Fprintln(c.qrOut, qr.ToSmallString(false))
			} else {
				slog.Warn("WhatsApp: render QR code", "error", err)
			}
			qrPath := c.config.QRImagePath()
			if err := qrcode.WriteFile(evt.Code, qrcode.Medium, 512, qrPath); err == nil {
				fmt.Fprintf(c.qrOut, "🖼️  QR code also saved to: %s\n", qrPath)
			}
		case "success":
			slog.Info("WhatsApp: QR login succeeded")
		case "timeout":
			slog.Warn("WhatsApp: QR code expired, restart to pair again")
		default:
			slog.Info("WhatsApp: login event", "event", evt.Event)
		}
	}
}

// messageFromEvent converts a text message event. Own messages, status
// broadcasts and messages without text are skipped.
func messageFromEvent(v *events.Message) (Message, bool) {
	if v == nil || v.Info.IsFromMe {
		return Message{}, false
	}
	if v.Info.Chat == types.StatusBroadcastJID {
		return Message{}, false
	}
	body := extractText(v.Message)
	if body == "" {
		return Message{}, false
	}
	return Message{
		ID:        v.Info.ID,
		ChatID:    v.Info.Chat.String(),
		SenderID:  v.Info.Sender.String(),
		Body:      body,
		IsGroup:   v.Info.IsGroup,
		Timestamp: v.Info.Timestamp,
	}, true
}

func extractText(m *waE2E.Message) string {
	if m == nil {
		return ""
	}
	if text := m.GetConversation(); text != "" {
		return text
	}
	return m.GetExtendedTextMessage().GetText()
}

// NormalizeChatID trims id and rewrites the legacy "@c.us" user server to
// "@s.whatsapp.net", so configured ids compare equal to inbound chat ids.
func NormalizeChatID(id string) string {
	id = strings.TrimSpace(id)
	if user, ok := strings.CutSuffix(id, "@"+legacyUserServer); ok {
		return user + "@" + types.DefaultUserServer
	}
	return id
}

func parseChatJID(id string) (types.JID, error) {
	id = NormalizeChatID(id)
	jid, err := types.ParseJID(id)
	if err != nil {
		return types.JID{}, fmt.Errorf("invalid chat id %q: %w", id, err)
	}
	if jid.User == "" || jid.Server == "" {
		return types.JID{}, fmt.Errorf("invalid chat id %q", id)
	}
	return jid, nil
}

func groupChat(info *types.GroupInfo) Chat {
	return Chat{ID: info.JID.String(), Name: info.Name, IsGroup: true}
}

func contactName(jid types.JID, info types.ContactInfo) string {
	for _, name := range []string{info.FullName, info.FirstName, info.PushName, info.BusinessName} {
		if name = strings.TrimSpace(name); name != "" {
			return name
		}
	}
	return jid.User
}

func sortChats(chats []Chat) {
	sort.SliceStable(chats, func(i, j int) bool {
		return strings.ToLower(chats[i].Name) < strings.ToLower(chats[j].Name)
	})
}
